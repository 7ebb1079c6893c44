// internal/workspace/resolve.go
//
// Configuration assembler: raw document in, resolved configuration or
// merged error report out.
//
// Context
// -------
// Resolution is a pure, synchronous pass with a single exit point:
//
//	raw tree → schema validation → defaults → unmarshal →
//	backend selection + version gate → cross-field validation →
//	ResolvedConfig | *Report
//
// Every violation from every stage lands in one report; a caller never
// observes a half-valid configuration.  The only short-circuit is a
// ParseError from ResolveBytes, since nothing can be checked on an
// unreadable source.  Safe to call concurrently for independent
// documents; there is no shared mutable state.
package workspace

import (
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	koanf "github.com/knadh/koanf/v2"
)

// Options tunes resolution policy.
type Options struct {
	// App overrides the schema/SDK versions the gate compares against.
	// Zero value means the versions compiled into this build.
	App AppVersions

	// RequireVersion refuses documents that carry no schema_version.  By
	// default such documents are treated as legacy 0.0 and accepted, with
	// the verdict recorded on ResolvedConfig.Compatibility for the caller
	// to act on.
	RequireVersion bool
}

// deprecated schema_settings keys, migrated away in schema 2.0.
var deprecatedSchemaSettings = []string{"preferred_version", "auto_migrate"}

// ResolveBytes parses a YAML or JSON workspace document and resolves it.
// A source that cannot be parsed at all returns a *ParseError; every
// other failure mode is a *Report.
func ResolveBytes(b []byte, opts Options) (*ResolvedConfig, error) {
	tree, err := yaml.Parser().Unmarshal(b)
	if err != nil {
		return nil, &ParseError{Err: err}
	}
	return Resolve(tree, opts)
}

// Resolve validates, defaults, and assembles a raw configuration tree.
// The input tree is never mutated.  On failure the returned error is a
// *Report listing every problem found in this single pass.
func Resolve(tree map[string]any, opts Options) (*ResolvedConfig, error) {
	if tree == nil {
		tree = map[string]any{}
	}

	report := &Report{}

	// Structural pass runs on the raw document, before defaults, so the
	// report reflects what the user actually wrote.
	report.add(validateSchema(tree)...)

	resolved := ApplyDefaults(tree)
	applyStorageDefaults(resolved)

	doc, decodeErr := unmarshalDocument(resolved)
	if decodeErr != nil {
		// Shape is too broken to type; the schema pass has the details,
		// this entry just records that assembly stopped at decode.
		report.add(Violation{
			Kind:    KindValidation,
			Rule:    "decode",
			Message: decodeErr.Error(),
		})
		return nil, report
	}

	compat := CheckCompatibility(doc.Settings, opts.App)

	cfg := &ResolvedConfig{
		ID:            strings.TrimSpace(doc.ID),
		Name:          strings.TrimSpace(doc.Name),
		Status:        Status(doc.Status),
		Environment:   Environment(doc.Environment),
		Storage:       selectStorage(doc),
		Settings:      doc.Settings,
		Database:      doc.Database,
		Excel:         doc.Excel,
		GoogleSheets:  doc.GoogleSheets,
		Logging:       doc.Logging,
		Compatibility: compat,
	}

	// Cross-field pass on the assembled tree.  Paths the schema pass
	// already reported are skipped so one mistake reads as one problem.
	for _, cv := range crossFieldViolations(cfg) {
		if len(report.ByPath(cv.Path)) == 0 {
			report.add(cv)
		}
	}

	if compat.Level.Incompatible() && (!compat.Legacy || opts.RequireVersion) {
		report.add(Violation{
			Path:    "workspace_settings.schema_version",
			Kind:    KindCompatibility,
			Rule:    compat.Level.String(),
			Value:   doc.Settings.SchemaVersion,
			Message: compat.Reason,
		})
	}

	if ss, ok := tree["schema_settings"].(map[string]any); ok {
		var stale []string
		for _, key := range deprecatedSchemaSettings {
			if _, ok := ss[key]; ok {
				stale = append(stale, key)
			}
		}
		if len(stale) > 0 {
			report.warn("schema_settings.%s deprecated; moved to workspace_settings in schema 2.0",
				strings.Join(stale, ", schema_settings."))
		}
	}

	if !report.Empty() {
		return nil, report
	}

	cfg.Warnings = report.Warnings
	return cfg, nil
}

// unmarshalDocument types the defaulted tree through koanf, mirroring
// how the rest of the configuration stack round-trips trees.
func unmarshalDocument(tree map[string]any) (*document, error) {
	k := koanf.New(".")
	if err := k.Load(confmap.Provider(tree, "."), nil); err != nil {
		return nil, err
	}
	var doc document
	if err := k.Unmarshal("", &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}
