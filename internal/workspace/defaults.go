// internal/workspace/defaults.go
//
// Documented defaults and the default resolver.
//
// Context
// -------
// Every optional field with a documented default lives in one named
// table, Defaults, so the documentation and the implementation cannot
// drift apart.  ApplyDefaults fills the general entries into the raw
// tree; the per-backend entries (s3 prefix, local create_if_missing) are
// consumed by the backend selector instead, because they only apply to
// the variant the document actually selects.
//
// ApplyDefaults is idempotent and order-independent: a default is only
// written when the key is absent, and no default depends on another
// field's resolved value.
package workspace

import (
	"strings"

	"github.com/knadh/koanf/maps"
)

// Defaults maps dotted document paths to their documented default
// values.  Entries under "storage." are backend-scoped and applied by
// the selector rather than ApplyDefaults.
var Defaults = map[string]any{
	"workspace_status": "active",
	"environment":      "development",

	"storage.local.create_if_missing": true,
	"storage.s3.prefix":               "mediaplans/",

	"database.enabled":            false,
	"database.port":               5432,
	"database.schema":             "public",
	"database.table_name":         "media_plans",
	"database.ssl":                true,
	"database.connection_timeout": 30,
	"database.auto_create_table":  true,

	"excel.enabled":         true,
	"google_sheets.enabled": false,

	"logging.level": "INFO",
}

// ApplyDefaults returns a copy of the raw tree with every absent
// optional field set to its documented default.  The input is never
// mutated.
func ApplyDefaults(tree map[string]any) map[string]any {
	out := maps.Copy(tree)
	for path, val := range Defaults {
		if strings.HasPrefix(path, "storage.") {
			continue // backend-scoped, selector's job
		}
		setIfAbsent(out, strings.Split(path, "."), val)
	}
	return out
}

// defaultFor returns the table entry for one dotted path.  Used by the
// backend selector for its storage-scoped defaults.
func defaultFor(path string) any { return Defaults[path] }

// setIfAbsent walks the tree along the key path, creating intermediate
// objects, and writes val only when the leaf key is missing.  A non-map
// value in an intermediate position is left untouched; the schema
// validator reports the type problem on its own pass.
func setIfAbsent(tree map[string]any, path []string, val any) {
	node := tree
	for _, key := range path[:len(path)-1] {
		child, ok := node[key]
		if !ok {
			next := map[string]any{}
			node[key] = next
			node = next
			continue
		}
		childMap, ok := child.(map[string]any)
		if !ok {
			return
		}
		node = childMap
	}
	leaf := path[len(path)-1]
	if _, ok := node[leaf]; !ok {
		node[leaf] = val
	}
}
