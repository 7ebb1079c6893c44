// internal/workspace/version_test.go
//
// Unit-tests for the version value types and the compatibility gate.
//
// Run: go test ./internal/workspace -v

package workspace

import "testing"

func TestParseSchemaVersion(t *testing.T) {
	cases := []struct {
		in      string
		want    Version
		wantErr bool
	}{
		{"2.0", Version{Major: 2}, false},
		{"1.5", Version{Major: 1, Minor: 5}, false},
		{"v1.0.0", Version{Major: 1}, false}, // pre-2.0 format tolerated
		{"10.42", Version{Major: 10, Minor: 42}, false},
		{"1", Version{}, true},
		{"a.b", Version{}, true},
		{"", Version{}, true},
	}
	for _, c := range cases {
		got, err := ParseSchemaVersion(c.in)
		if (err != nil) != c.wantErr {
			t.Fatalf("ParseSchemaVersion(%q) err = %v, wantErr %v", c.in, err, c.wantErr)
		}
		if err == nil && got != c.want {
			t.Fatalf("ParseSchemaVersion(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestParseSDKVersion(t *testing.T) {
	got, err := ParseSDKVersion("2.1.x")
	if err != nil {
		t.Fatalf("ParseSDKVersion: %v", err)
	}
	if !got.AnyPatch || got.Major != 2 || got.Minor != 1 {
		t.Fatalf("wildcard parse wrong: %+v", got)
	}

	got, err = ParseSDKVersion("1.2.3")
	if err != nil {
		t.Fatalf("ParseSDKVersion: %v", err)
	}
	if got.Patch != 3 || got.AnyPatch {
		t.Fatalf("patch parse wrong: %+v", got)
	}

	for _, bad := range []string{"1.2", "1.2.3.4", "1.2.y", ""} {
		if _, err := ParseSDKVersion(bad); err == nil {
			t.Fatalf("ParseSDKVersion(%q) should fail", bad)
		}
	}
}

func TestVersionCompare_WildcardPatch(t *testing.T) {
	app := Version{Major: 2, Minor: 0, Patch: 7}
	req := Version{Major: 2, Minor: 0, AnyPatch: true}
	if app.Compare(req) != 0 {
		t.Fatalf("x wildcard should match any patch")
	}

	req = Version{Major: 2, Minor: 0, Patch: 9}
	if app.Compare(req) >= 0 {
		t.Fatalf("2.0.7 should order below 2.0.9")
	}
}

func TestCheckCompatibility_SchemaVersion(t *testing.T) {
	app := AppVersions{Schema: Version{Major: 1, Minor: 3}, SDK: Version{Major: 1, Minor: 3}}

	cases := []struct {
		version string
		want    CompatLevel
	}{
		{"2.0", IncompatibleMajor},
		{"1.5", IncompatibleMinor},
		{"1.3", Compatible},
		{"1.2", UpgradeRecommended},
	}
	for _, c := range cases {
		got := CheckCompatibility(WorkspaceSettings{SchemaVersion: c.version}, app)
		if got.Level != c.want {
			t.Fatalf("schema_version %s: level = %s, want %s", c.version, got.Level, c.want)
		}
		if got.Legacy {
			t.Fatalf("schema_version %s: unexpected legacy flag", c.version)
		}
	}
}

func TestCheckCompatibility_MissingVersionIsLegacy(t *testing.T) {
	got := CheckCompatibility(WorkspaceSettings{}, AppVersions{})
	if !got.Legacy {
		t.Fatalf("missing schema_version should be legacy")
	}
	if got.Level != IncompatibleMajor {
		t.Fatalf("legacy 0.0 against current major should be incompatible-major, got %s", got.Level)
	}
	if got.Schema != (Version{}) {
		t.Fatalf("legacy document version should be 0.0, got %v", got.Schema)
	}
}

func TestCheckCompatibility_SDKFloor(t *testing.T) {
	app := AppVersions{Schema: Version{Major: 2}, SDK: Version{Major: 2, Minor: 0, Patch: 0}}

	cases := []struct {
		required string
		want     CompatLevel
	}{
		{"2.0.x", Compatible},        // wildcard accepts any patch
		{"2.0.0", Compatible},        // exact floor met
		{"2.0.3", IncompatibleMinor}, // patch above the running SDK
		{"2.1.x", IncompatibleMinor},
		{"3.0.0", IncompatibleMajor},
	}
	for _, c := range cases {
		got := CheckCompatibility(WorkspaceSettings{
			SchemaVersion:      "2.0",
			SDKVersionRequired: c.required,
		}, app)
		if got.Level != c.want {
			t.Fatalf("sdk_version_required %s: level = %s, want %s", c.required, got.Level, c.want)
		}
	}
}

func TestCompatLevelStrings(t *testing.T) {
	if Compatible.String() != "compatible" ||
		UpgradeRecommended.String() != "compatible-upgrade-recommended" ||
		IncompatibleMinor.String() != "incompatible-minor" ||
		IncompatibleMajor.String() != "incompatible-major" {
		t.Fatalf("level names drifted")
	}
	if Compatible.Incompatible() || !IncompatibleMajor.Incompatible() {
		t.Fatalf("Incompatible() classification wrong")
	}
}
