// internal/workspace/schema.go
//
// Structural validation against the bundled workspace schema.
//
// Context
// -------
// The declarative half of validation lives in
// schemas/workspace.schema.json, compiled once at init.  One pass
// collects every structural violation (required keys, types, enums,
// string patterns) so a user can fix the whole document in one edit
// cycle; nothing here short-circuits.
//
// The raw tree is round-tripped through encoding/json before validation
// so YAML-decoded scalar types line up with what the schema library
// expects.  Cross-field rules that the schema cannot express are handled
// in validate.go and storage.go.
package workspace

import (
	_ "embed"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/workspace.schema.json
var workspaceSchemaJSON string

var workspaceSchema = jsonschema.MustCompileString("workspace.schema.json", workspaceSchemaJSON)

// validateSchema checks the raw tree against the workspace schema and
// returns every violation found.  It never fails hard: a tree that
// reached this point was already parsed successfully.
func validateSchema(tree map[string]any) []Violation {
	doc := normalizeJSON(tree)

	err := workspaceSchema.Validate(doc)
	if err == nil {
		return nil
	}
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return []Violation{{
			Path:    "",
			Kind:    KindValidation,
			Rule:    "schema",
			Message: err.Error(),
		}}
	}

	var out []Violation
	flattenCauses(ve, tree, &out)
	return out
}

// normalizeJSON round-trips the tree through encoding/json so numbers,
// nested maps, and slices all carry the canonical decoded types.
func normalizeJSON(tree map[string]any) any {
	b, err := json.Marshal(tree)
	if err != nil {
		return tree
	}
	var doc any
	if err := json.Unmarshal(b, &doc); err != nil {
		return tree
	}
	return doc
}

var missingPropRe = regexp.MustCompile(`'([^']+)'`)

// flattenCauses walks the validation error tree and records one
// violation per leaf cause.  "required" failures are split into one
// violation per missing property so each absent field is named by path.
func flattenCauses(ve *jsonschema.ValidationError, tree map[string]any, out *[]Violation) {
	if len(ve.Causes) > 0 {
		for _, c := range ve.Causes {
			flattenCauses(c, tree, out)
		}
		return
	}

	rule := keywordRule(ve.KeywordLocation)
	base := pointerToPath(ve.InstanceLocation)

	if rule == "required" {
		for _, m := range missingPropRe.FindAllStringSubmatch(ve.Message, -1) {
			*out = append(*out, Violation{
				Path:    joinPath(base, m[1]),
				Kind:    KindValidation,
				Rule:    "required",
				Message: "required field is missing",
			})
		}
		return
	}

	*out = append(*out, Violation{
		Path:    base,
		Kind:    KindValidation,
		Rule:    rule,
		Value:   lookupPath(tree, base),
		Message: ve.Message,
	})
}

// keywordRule reduces a keyword location like
// "/properties/storage/properties/mode/enum" to its final keyword.
func keywordRule(loc string) string {
	if loc == "" {
		return "schema"
	}
	parts := strings.Split(loc, "/")
	return parts[len(parts)-1]
}

// pointerToPath converts a JSON pointer ("/storage/mode") into the
// dotted path form used throughout the error report.
func pointerToPath(ptr string) string {
	if ptr == "" || ptr == "/" {
		return ""
	}
	segs := strings.Split(strings.TrimPrefix(ptr, "/"), "/")
	for i, s := range segs {
		s = strings.ReplaceAll(s, "~1", "/")
		segs[i] = strings.ReplaceAll(s, "~0", "~")
	}
	return strings.Join(segs, ".")
}

func joinPath(base, leaf string) string {
	if base == "" {
		return leaf
	}
	return base + "." + leaf
}

// lookupPath fetches the offending value for a dotted path, nil when any
// segment is missing or not an object.
func lookupPath(tree map[string]any, path string) any {
	if path == "" {
		return nil
	}
	var cur any = tree
	for _, seg := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur, ok = m[seg]
		if !ok {
			return nil
		}
	}
	return cur
}
