// internal/workspace/defaults_test.go
//
// Unit-tests for the default resolver: idempotence, non-mutation, and
// respect for explicit values.

package workspace

import (
	"reflect"
	"testing"
)

func TestApplyDefaults_FillsAbsentFields(t *testing.T) {
	tree := map[string]any{
		"workspace_id":   "w1",
		"workspace_name": "Test",
		"storage":        map[string]any{"mode": "local"},
	}

	out := ApplyDefaults(tree)

	if out["environment"] != "development" {
		t.Fatalf("environment = %v, want development", out["environment"])
	}
	if out["workspace_status"] != "active" {
		t.Fatalf("workspace_status = %v, want active", out["workspace_status"])
	}
	db, ok := out["database"].(map[string]any)
	if !ok {
		t.Fatalf("database block not created")
	}
	if db["enabled"] != false || db["port"] != 5432 || db["schema"] != "public" {
		t.Fatalf("database defaults wrong: %#v", db)
	}
	logging := out["logging"].(map[string]any)
	if logging["level"] != "INFO" {
		t.Fatalf("logging.level = %v, want INFO", logging["level"])
	}
}

func TestApplyDefaults_KeepsExplicitValues(t *testing.T) {
	tree := map[string]any{
		"environment": "production",
		"excel":       map[string]any{"enabled": false},
	}

	out := ApplyDefaults(tree)

	if out["environment"] != "production" {
		t.Fatalf("explicit environment overwritten: %v", out["environment"])
	}
	if out["excel"].(map[string]any)["enabled"] != false {
		t.Fatalf("explicit excel.enabled overwritten")
	}
}

func TestApplyDefaults_Idempotent(t *testing.T) {
	tree := map[string]any{
		"workspace_id":   "w1",
		"workspace_name": "Test",
		"storage":        map[string]any{"mode": "s3", "s3": map[string]any{"bucket": "b"}},
		"database":       map[string]any{"enabled": true, "host": "db.example.com"},
	}

	once := ApplyDefaults(tree)
	twice := ApplyDefaults(once)

	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("ApplyDefaults is not idempotent:\nonce:  %#v\ntwice: %#v", once, twice)
	}
}

func TestApplyDefaults_DoesNotMutateInput(t *testing.T) {
	tree := map[string]any{
		"workspace_id": "w1",
		"storage":      map[string]any{"mode": "local"},
	}

	_ = ApplyDefaults(tree)

	if _, ok := tree["environment"]; ok {
		t.Fatalf("input tree was mutated")
	}
	if len(tree["storage"].(map[string]any)) != 1 {
		t.Fatalf("nested input block was mutated")
	}
}

func TestApplyDefaults_SkipsBackendScopedEntries(t *testing.T) {
	out := ApplyDefaults(map[string]any{"storage": map[string]any{"mode": "local"}})

	// s3 prefix and local create_if_missing belong to the selector; the
	// general pass must not materialize blocks for non-selected modes.
	storage := out["storage"].(map[string]any)
	if _, ok := storage["s3"]; ok {
		t.Fatalf("general defaults created an s3 block")
	}
	if _, ok := storage["local"]; ok {
		t.Fatalf("general defaults created a local block")
	}
}
