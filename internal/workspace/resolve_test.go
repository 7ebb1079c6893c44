// internal/workspace/resolve_test.go
//
// End-to-end tests for the assembler: one pass in, either a fully
// defaulted configuration or a merged report out.

package workspace

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func minimalLocalDoc() map[string]any {
	return map[string]any{
		"workspace_id":   "workspace_abc123",
		"workspace_name": "Campaign Planning",
		"storage": map[string]any{
			"mode":  "local",
			"local": map[string]any{"base_path": "/data/plans"},
		},
		"workspace_settings": map[string]any{"schema_version": "2.0"},
	}
}

func mustResolve(t *testing.T, tree map[string]any, opts Options) *ResolvedConfig {
	t.Helper()
	cfg, err := Resolve(tree, opts)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	return cfg
}

func mustFail(t *testing.T, tree map[string]any, opts Options) *Report {
	t.Helper()
	_, err := Resolve(tree, opts)
	var report *Report
	if !errors.As(err, &report) {
		t.Fatalf("want *Report, got %v", err)
	}
	return report
}

func TestResolve_MinimalDocumentGetsDefaults(t *testing.T) {
	cfg := mustResolve(t, minimalLocalDoc(), Options{})

	if cfg.ID != "workspace_abc123" || cfg.Name != "Campaign Planning" {
		t.Fatalf("identity wrong: %q / %q", cfg.ID, cfg.Name)
	}
	if cfg.Status != StatusActive || cfg.Environment != EnvDevelopment {
		t.Fatalf("status/environment defaults wrong: %s / %s", cfg.Status, cfg.Environment)
	}
	if !cfg.Active() {
		t.Fatalf("default workspace should be active")
	}

	db := cfg.Database
	if db.Enabled {
		t.Fatalf("database sync should default to disabled")
	}
	if db.Port != 5432 || db.Schema != "public" || db.TableName != "media_plans" {
		t.Fatalf("database defaults wrong: %+v", db)
	}
	if !db.SSL || db.ConnectionTimeout != 30 || !db.AutoCreateTable {
		t.Fatalf("database defaults wrong: %+v", db)
	}

	if !cfg.Excel.Enabled || cfg.GoogleSheets.Enabled {
		t.Fatalf("integration defaults wrong: %+v / %+v", cfg.Excel, cfg.GoogleSheets)
	}
	if cfg.Logging.Level != "INFO" {
		t.Fatalf("logging.level = %q, want INFO", cfg.Logging.Level)
	}

	if cfg.Compatibility.Level != Compatible || cfg.Compatibility.Legacy {
		t.Fatalf("current-version document should be compatible: %+v", cfg.Compatibility)
	}
}

func TestResolve_LocalStorageSelected(t *testing.T) {
	cfg := mustResolve(t, minimalLocalDoc(), Options{})

	if cfg.Storage.Mode != ModeLocal || cfg.Storage.Local == nil {
		t.Fatalf("local backend not selected: %+v", cfg.Storage)
	}
	if cfg.Storage.S3 != nil || cfg.Storage.GDrive != nil {
		t.Fatalf("non-selected variants must be nil: %+v", cfg.Storage)
	}
	if cfg.Storage.Local.BasePath != "/data/plans" || !cfg.Storage.Local.CreateIfMissing {
		t.Fatalf("local payload wrong: %+v", cfg.Storage.Local)
	}
}

func TestResolve_S3PrefixDefault(t *testing.T) {
	doc := minimalLocalDoc()
	doc["storage"] = map[string]any{
		"mode": "s3",
		"s3":   map[string]any{"bucket": "plans-bucket", "region": "us-east-1"},
	}

	cfg := mustResolve(t, doc, Options{})

	s3 := cfg.Storage.S3
	if s3 == nil || s3.Bucket != "plans-bucket" {
		t.Fatalf("s3 backend not selected: %+v", cfg.Storage)
	}
	if s3.Prefix != "mediaplans/" {
		t.Fatalf("prefix = %q, want mediaplans/", s3.Prefix)
	}
}

func TestResolve_S3WithoutBucket(t *testing.T) {
	doc := minimalLocalDoc()
	doc["storage"] = map[string]any{"mode": "s3"}

	report := mustFail(t, doc, Options{})

	vs := report.ByPath("storage.s3.bucket")
	if len(vs) != 1 {
		t.Fatalf("want one violation at storage.s3.bucket, got %v", report.Violations)
	}
	if vs[0].Kind != KindCrossField || vs[0].Rule != "required" {
		t.Fatalf("violation wrong: %+v", vs[0])
	}
}

func TestResolve_DatabaseEnabledRequiresConnectionFields(t *testing.T) {
	doc := minimalLocalDoc()
	doc["database"] = map[string]any{"enabled": true}

	report := mustFail(t, doc, Options{})

	for _, path := range []string{"database.host", "database.database", "database.username"} {
		vs := report.ByPath(path)
		if len(vs) != 1 || vs[0].Kind != KindCrossField {
			t.Fatalf("want one cross_field violation at %s, got %v", path, report.Violations)
		}
	}
}

func TestResolve_StrayBackendBlocksIgnored(t *testing.T) {
	doc := minimalLocalDoc()
	// Stale s3 block without a bucket.  Mode is local, so the block must
	// be discarded without triggering the bucket requirement.
	doc["storage"].(map[string]any)["s3"] = map[string]any{"region": "us-east-1"}
	doc["storage"].(map[string]any)["gdrive"] = map[string]any{"folder_id": "stale"}

	cfg := mustResolve(t, doc, Options{})

	if cfg.Storage.S3 != nil || cfg.Storage.GDrive != nil {
		t.Fatalf("stray blocks leaked into the resolved union: %+v", cfg.Storage)
	}
}

func TestResolve_IncompatibleMajor(t *testing.T) {
	app := AppVersions{
		Schema: Version{Major: 1, Minor: 3},
		SDK:    Version{Major: 1, Minor: 3},
	}

	report := mustFail(t, minimalLocalDoc(), Options{App: app}) // document says 2.0

	if !report.HasKind(KindCompatibility) {
		t.Fatalf("want a compatibility violation, got %v", report.Violations)
	}
	vs := report.ByPath("workspace_settings.schema_version")
	if len(vs) != 1 || vs[0].Rule != "incompatible-major" {
		t.Fatalf("violation wrong: %v", vs)
	}
}

func TestResolve_IncompatibleMinor(t *testing.T) {
	doc := minimalLocalDoc()
	doc["workspace_settings"] = map[string]any{"schema_version": "1.5"}
	app := AppVersions{
		Schema: Version{Major: 1, Minor: 3},
		SDK:    Version{Major: 1, Minor: 3},
	}

	report := mustFail(t, doc, Options{App: app})

	vs := report.ByPath("workspace_settings.schema_version")
	if len(vs) != 1 || vs[0].Rule != "incompatible-minor" {
		t.Fatalf("violation wrong: %v", report.Violations)
	}
}

func TestResolve_UpgradeRecommendedStillResolves(t *testing.T) {
	doc := minimalLocalDoc()
	doc["workspace_settings"] = map[string]any{"schema_version": "1.2"}
	app := AppVersions{
		Schema: Version{Major: 1, Minor: 3},
		SDK:    Version{Major: 1, Minor: 3},
	}

	cfg := mustResolve(t, doc, Options{App: app})

	if cfg.Compatibility.Level != UpgradeRecommended {
		t.Fatalf("level = %s, want upgrade-recommended", cfg.Compatibility.Level)
	}
}

func TestResolve_MissingVersionAcceptedAsLegacy(t *testing.T) {
	doc := minimalLocalDoc()
	delete(doc, "workspace_settings")

	cfg := mustResolve(t, doc, Options{})

	if !cfg.Compatibility.Legacy {
		t.Fatalf("document without schema_version should resolve as legacy")
	}
	if cfg.Compatibility.Level != IncompatibleMajor {
		t.Fatalf("legacy verdict should still be recorded: %+v", cfg.Compatibility)
	}
}

func TestResolve_RequireVersionRefusesLegacy(t *testing.T) {
	doc := minimalLocalDoc()
	delete(doc, "workspace_settings")

	report := mustFail(t, doc, Options{RequireVersion: true})

	if !report.HasKind(KindCompatibility) {
		t.Fatalf("strict mode should refuse legacy documents: %v", report.Violations)
	}
}

func TestResolve_SchemaSettingsDeprecationWarning(t *testing.T) {
	doc := minimalLocalDoc()
	doc["schema_settings"] = map[string]any{"preferred_version": "1.0", "auto_migrate": true}

	cfg := mustResolve(t, doc, Options{})

	if len(cfg.Warnings) != 1 || !strings.Contains(cfg.Warnings[0], "deprecated") {
		t.Fatalf("want one deprecation warning, got %v", cfg.Warnings)
	}
	if !strings.Contains(cfg.Warnings[0], "preferred_version") ||
		!strings.Contains(cfg.Warnings[0], "auto_migrate") {
		t.Fatalf("warning should name the stale keys: %q", cfg.Warnings[0])
	}
}

func TestResolve_TrimsIdentityWhitespace(t *testing.T) {
	doc := minimalLocalDoc()
	doc["workspace_id"] = "  workspace_abc123  "
	doc["workspace_name"] = " Campaign Planning "

	cfg := mustResolve(t, doc, Options{})

	if cfg.ID != "workspace_abc123" || cfg.Name != "Campaign Planning" {
		t.Fatalf("identity not trimmed: %q / %q", cfg.ID, cfg.Name)
	}
}

func TestResolve_DoesNotMutateInput(t *testing.T) {
	doc := minimalLocalDoc()
	snapshot := minimalLocalDoc()

	_, _ = Resolve(doc, Options{})

	if !reflect.DeepEqual(doc, snapshot) {
		t.Fatalf("input tree mutated:\nbefore: %#v\nafter:  %#v", snapshot, doc)
	}
}

func TestResolve_MergesAllPasses(t *testing.T) {
	// Structural, cross-field, and compatibility problems in one document
	// must all land in one report.
	doc := map[string]any{
		"workspace_id": "w1",
		// workspace_name missing           → validation
		"storage":  map[string]any{"mode": "s3"}, // no bucket → cross_field
		"database": map[string]any{"enabled": true},
		"workspace_settings": map[string]any{
			"schema_version": "9.0", // → compatibility
		},
	}

	report := mustFail(t, doc, Options{})

	if !report.HasKind(KindValidation) || !report.HasKind(KindCrossField) || !report.HasKind(KindCompatibility) {
		t.Fatalf("report should carry all three kinds: %v", report.Violations)
	}
}

func TestResolve_SchemaAndCrossFieldDeduped(t *testing.T) {
	// environment fails the schema enum; the validator's oneof on the same
	// path must not double-report it.
	doc := minimalLocalDoc()
	doc["environment"] = "staging"

	report := mustFail(t, doc, Options{})

	if vs := report.ByPath("environment"); len(vs) != 1 {
		t.Fatalf("want one violation for environment, got %v", vs)
	}
}

func TestResolveBytes_YAML(t *testing.T) {
	src := `
workspace_id: workspace_abc123
workspace_name: Campaign Planning
storage:
  mode: local
  local:
    base_path: /data/plans
workspace_settings:
  schema_version: "2.0"
`
	cfg, err := ResolveBytes([]byte(src), Options{})
	if err != nil {
		t.Fatalf("ResolveBytes: %v", err)
	}
	if cfg.Storage.Mode != ModeLocal {
		t.Fatalf("mode = %s, want local", cfg.Storage.Mode)
	}
}

func TestResolveBytes_JSON(t *testing.T) {
	src := `{
  "workspace_id": "workspace_abc123",
  "workspace_name": "Campaign Planning",
  "storage": {"mode": "s3", "s3": {"bucket": "plans-bucket"}},
  "workspace_settings": {"schema_version": "2.0"}
}`
	cfg, err := ResolveBytes([]byte(src), Options{})
	if err != nil {
		t.Fatalf("ResolveBytes: %v", err)
	}
	if cfg.Storage.S3 == nil || cfg.Storage.S3.Bucket != "plans-bucket" {
		t.Fatalf("s3 backend not selected: %+v", cfg.Storage)
	}
}

func TestResolveBytes_ParseError(t *testing.T) {
	_, err := ResolveBytes([]byte("storage: [unclosed"), Options{})

	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("want *ParseError, got %v", err)
	}
}
