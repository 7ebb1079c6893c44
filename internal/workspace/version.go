// internal/workspace/version.go
//
// Version value types and the compatibility gate.
//
// Context
// -------
// Workspace documents declare two versions: a 2-digit schema version
// ("X.Y") naming the document format, and an SDK floor
// ("X.Y.Z" or "X.Y.x", where x accepts any patch).  The gate compares
// both against the running application and reports a four-way verdict so
// callers can choose between proceeding, warning, and refusing.
//
// The comparison lives in a small dedicated value type instead of ad hoc
// string handling so the policy stays testable in isolation.
package workspace

import (
	"fmt"
	"strconv"
	"strings"
)

// Application version constants.  Bump together with schema releases.
const (
	currentSchemaMajor = 2
	currentSchemaMinor = 0

	currentSDKMajor = 2
	currentSDKMinor = 0
	currentSDKPatch = 0
)

// Version is a parsed schema or SDK version.  Schema versions carry no
// patch component; SDK floors may use AnyPatch for the "x" wildcard.
type Version struct {
	Major    int
	Minor    int
	Patch    int
	AnyPatch bool
}

func (v Version) String() string {
	switch {
	case v.AnyPatch:
		return fmt.Sprintf("%d.%d.x", v.Major, v.Minor)
	case v.Patch > 0:
		return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	default:
		return fmt.Sprintf("%d.%d", v.Major, v.Minor)
	}
}

// Compare orders two versions by major, then minor, then patch.  An
// AnyPatch wildcard on either side makes equal major.minor compare as
// equal regardless of the other side's patch.
func (v Version) Compare(o Version) int {
	if v.Major != o.Major {
		return sign(v.Major - o.Major)
	}
	if v.Minor != o.Minor {
		return sign(v.Minor - o.Minor)
	}
	if v.AnyPatch || o.AnyPatch {
		return 0
	}
	return sign(v.Patch - o.Patch)
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	default:
		return 0
	}
}

// ParseSchemaVersion parses a 2-digit "X.Y" version.  A leading "v" and
// a trailing patch component are tolerated for pre-2.0 documents.
func ParseSchemaVersion(s string) (Version, error) {
	parts := strings.Split(strings.TrimPrefix(s, "v"), ".")
	if len(parts) < 2 {
		return Version{}, fmt.Errorf("invalid schema version %q: want \"X.Y\"", s)
	}
	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return Version{}, fmt.Errorf("invalid schema version %q: major is not an integer", s)
	}
	minor, err := strconv.Atoi(parts[1])
	if err != nil {
		return Version{}, fmt.Errorf("invalid schema version %q: minor is not an integer", s)
	}
	return Version{Major: major, Minor: minor}, nil
}

// ParseSDKVersion parses an "X.Y.Z" or "X.Y.x" SDK version floor.
func ParseSDKVersion(s string) (Version, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return Version{}, fmt.Errorf("invalid sdk version %q: want \"X.Y.Z\" or \"X.Y.x\"", s)
	}
	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return Version{}, fmt.Errorf("invalid sdk version %q: major is not an integer", s)
	}
	minor, err := strconv.Atoi(parts[1])
	if err != nil {
		return Version{}, fmt.Errorf("invalid sdk version %q: minor is not an integer", s)
	}
	v := Version{Major: major, Minor: minor}
	if parts[2] == "x" {
		v.AnyPatch = true
		return v, nil
	}
	patch, err := strconv.Atoi(parts[2])
	if err != nil {
		return Version{}, fmt.Errorf("invalid sdk version %q: patch must be an integer or \"x\"", s)
	}
	v.Patch = patch
	return v, nil
}

//
// Compatibility verdict
//

// CompatLevel is the four-way outcome of the version gate.
type CompatLevel int

const (
	// Compatible: same major, same minor.  Proceed.
	Compatible CompatLevel = iota

	// UpgradeRecommended: same major, document minor strictly below the
	// application's.  Proceed, but suggest an upgrade.
	UpgradeRecommended

	// IncompatibleMinor: same major, document minor above the
	// application's.  The document uses features this build does not
	// understand.
	IncompatibleMinor

	// IncompatibleMajor: major mismatch.  Hard stop.
	IncompatibleMajor
)

func (l CompatLevel) String() string {
	switch l {
	case Compatible:
		return "compatible"
	case UpgradeRecommended:
		return "compatible-upgrade-recommended"
	case IncompatibleMinor:
		return "incompatible-minor"
	case IncompatibleMajor:
		return "incompatible-major"
	default:
		return "unknown"
	}
}

// Incompatible reports whether the level blocks the document.
func (l CompatLevel) Incompatible() bool {
	return l == IncompatibleMajor || l == IncompatibleMinor
}

// AppVersions names the schema and SDK versions the running application
// supports.  The zero value is replaced by CurrentAppVersions.
type AppVersions struct {
	Schema Version
	SDK    Version
}

// CurrentAppVersions returns the versions compiled into this build.
func CurrentAppVersions() AppVersions {
	return AppVersions{
		Schema: Version{Major: currentSchemaMajor, Minor: currentSchemaMinor},
		SDK:    Version{Major: currentSDKMajor, Minor: currentSDKMinor, Patch: currentSDKPatch},
	}
}

// Compatibility is the recorded verdict of the version gate.
type Compatibility struct {
	Level CompatLevel

	// Schema is the document's parsed schema version; 0.0 when Legacy.
	Schema Version

	// SDKRequired is the parsed SDK floor, nil when the document does not
	// declare one.
	SDKRequired *Version

	// Legacy is set when the document carries no schema_version at all.
	// The level is still computed against 0.0, but by default resolution
	// accepts legacy documents and leaves the decision to the caller.
	Legacy bool

	Reason string
}

// CheckCompatibility applies the version-gate policy to the document's
// workspace settings.  It never returns an error; malformed version
// strings are reported by the schema validator before the gate runs, and
// the gate treats them as legacy.
func CheckCompatibility(settings WorkspaceSettings, app AppVersions) Compatibility {
	if (app == AppVersions{}) {
		app = CurrentAppVersions()
	}

	c := Compatibility{Level: Compatible}

	if settings.SchemaVersion == "" {
		c.Legacy = true
		c.Level = IncompatibleMajor
		c.Reason = fmt.Sprintf("document declares no schema_version; treated as legacy 0.0 against supported %s", app.Schema)
	} else if doc, err := ParseSchemaVersion(settings.SchemaVersion); err != nil {
		c.Legacy = true
		c.Level = IncompatibleMajor
		c.Reason = err.Error()
	} else {
		c.Schema = doc
		switch {
		case doc.Major != app.Schema.Major:
			c.Level = IncompatibleMajor
			c.Reason = fmt.Sprintf("schema version %s targets a different major than supported %s", doc, app.Schema)
		case doc.Minor > app.Schema.Minor:
			c.Level = IncompatibleMinor
			c.Reason = fmt.Sprintf("schema version %s is newer than supported %s", doc, app.Schema)
		case doc.Minor < app.Schema.Minor:
			c.Level = UpgradeRecommended
			c.Reason = fmt.Sprintf("schema version %s is behind supported %s; upgrade recommended", doc, app.Schema)
		}
	}

	// The SDK floor follows the same major/minor rule; an "x" patch
	// matches any patch.  Only a worse verdict replaces the schema one.
	if settings.SDKVersionRequired != "" {
		if req, err := ParseSDKVersion(settings.SDKVersionRequired); err == nil {
			c.SDKRequired = &req
			var lvl CompatLevel
			switch {
			case req.Major != app.SDK.Major:
				lvl = IncompatibleMajor
			case req.Minor > app.SDK.Minor:
				lvl = IncompatibleMinor
			case req.Minor == app.SDK.Minor && app.SDK.Compare(req) < 0:
				lvl = IncompatibleMinor
			default:
				lvl = Compatible
			}
			if lvl > c.Level || (lvl.Incompatible() && !c.Level.Incompatible()) {
				c.Level = lvl
				c.Reason = fmt.Sprintf("document requires SDK %s, running %s", req, app.SDK)
			}
		}
	}

	return c
}
