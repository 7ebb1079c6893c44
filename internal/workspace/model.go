// internal/workspace/model.go
//
// Typed configuration model for a media-plan workspace.
//
// Context
// -------
// These structs define the shape of the tree that resolve.go builds from
// a raw workspace document.  Struct tags carry two contracts:
//
//   - `koanf:"…"`  – document key each field is unmarshalled from,
//   - `validate:"…"` – cross-field rules applied after assembly (see
//     validate.go for the custom rule registrations).
//
// Storage is a tagged union over {local, s3, gdrive}.  Exactly one
// variant pointer is non-nil in a ResolvedConfig, which makes the
// "one authoritative backend" invariant hold by construction instead of
// by runtime checking.
//
// Notes
// -----
//   - ResolvedConfig is immutable after Resolve returns it.  Callers
//     needing different values must re-run resolution on a new source.
//   - Oxford commas, two spaces after periods.
package workspace

//
// Enumerations
//

// Status gates whether mutating operations are permitted downstream.
// The resolver only records it; enforcement lives in Manager.CheckActive.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Environment names the deployment stage a workspace serves.
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTesting     Environment = "testing"
	EnvProduction  Environment = "production"
)

// StorageMode selects the authoritative storage backend.
type StorageMode string

const (
	ModeLocal  StorageMode = "local"
	ModeS3     StorageMode = "s3"
	ModeGDrive StorageMode = "gdrive"
)

//
// Storage union
//

// LocalStorage persists media plans on the local filesystem.
type LocalStorage struct {
	// BasePath is deliberately not defaulted.  Silently picking a
	// directory is a correctness hazard; callers must check HasBasePath
	// and supply a working directory themselves.
	BasePath        string `koanf:"base_path"`
	CreateIfMissing bool   `koanf:"create_if_missing"`
}

// HasBasePath reports whether the document supplied a base directory.
func (l *LocalStorage) HasBasePath() bool { return l != nil && l.BasePath != "" }

// S3Storage persists media plans in an S3 bucket.
type S3Storage struct {
	Bucket  string `koanf:"bucket"  validate:"required"`
	Prefix  string `koanf:"prefix"`
	Profile string `koanf:"profile"`
	Region  string `koanf:"region"`
}

// GDriveStorage persists media plans in a Google Drive folder.  All
// fields are optional here; the Drive client enforces its own
// requirements at connect time.
type GDriveStorage struct {
	FolderID        string `koanf:"folder_id"`
	CredentialsPath string `koanf:"credentials_path"`
	TokenPath       string `koanf:"token_path"`
}

// StorageConfig is the resolved storage backend.  Mode names the
// authoritative variant; the matching pointer is populated and the other
// two are nil.  Stray document blocks for non-selected modes are read
// and discarded during resolution, never merged.
type StorageConfig struct {
	Mode   StorageMode    `koanf:"mode" validate:"required,oneof=local s3 gdrive"`
	Local  *LocalStorage  `koanf:"local"`
	S3     *S3Storage     `koanf:"s3"`
	GDrive *GDriveStorage `koanf:"gdrive"`
}

//
// Version gate input
//

// WorkspaceSettings carries the version-tracking fields consumed by the
// compatibility gate.  Absent schema_version means "unknown/legacy" and
// is a policy decision, not an error (see version.go).
type WorkspaceSettings struct {
	SchemaVersion      string `koanf:"schema_version"       validate:"omitempty,schema_version"`
	LastUpgraded       string `koanf:"last_upgraded"        validate:"omitempty,datetime=2006-01-02"`
	SDKVersionRequired string `koanf:"sdk_version_required" validate:"omitempty,sdk_version"`
}

//
// Collaborator sections
//

// DatabaseConfig describes the optional PostgreSQL sync target.  The
// resolver validates shape and consistency only; connecting, SQL, and
// secret lookup belong to internal/database and internal/secrets.
type DatabaseConfig struct {
	Enabled           bool   `koanf:"enabled"`
	Host              string `koanf:"host"     validate:"required_if=Enabled true"`
	Port              int    `koanf:"port"     validate:"omitempty,min=1,max=65535"`
	Database          string `koanf:"database" validate:"required_if=Enabled true"`
	Schema            string `koanf:"schema"     validate:"omitempty,sql_identifier"`
	TableName         string `koanf:"table_name" validate:"omitempty,sql_identifier"`
	Username          string `koanf:"username" validate:"required_if=Enabled true"`
	PasswordEnvVar    string `koanf:"password_env_var" validate:"omitempty,env_var_name"`
	SSL               bool   `koanf:"ssl"`
	ConnectionTimeout int    `koanf:"connection_timeout" validate:"omitempty,min=1"`
	AutoCreateTable   bool   `koanf:"auto_create_table"`
}

// ExcelConfig toggles the Excel import/export integration.
type ExcelConfig struct {
	Enabled      bool   `koanf:"enabled"`
	TemplatePath string `koanf:"template_path"`
}

// GoogleSheetsConfig toggles the Google Sheets integration.
type GoogleSheetsConfig struct {
	Enabled         bool   `koanf:"enabled"`
	CredentialsPath string `koanf:"credentials_path"`
}

// LoggingConfig is consumed by internal/logger to build the zap sink.
type LoggingConfig struct {
	Level string `koanf:"level" validate:"omitempty,oneof=DEBUG INFO WARNING ERROR CRITICAL"`
	File  string `koanf:"file"`
}

//
// Root aggregate
//

// ResolvedConfig is the immutable aggregate produced by Resolve.  It is
// the only artifact this package hands to callers: either every
// invariant holds, or no value is produced at all.
type ResolvedConfig struct {
	ID          string      `koanf:"workspace_id"     validate:"required"`
	Name        string      `koanf:"workspace_name"   validate:"required"`
	Status      Status      `koanf:"workspace_status" validate:"oneof=active inactive"`
	Environment Environment `koanf:"environment"      validate:"oneof=development testing production"`

	Storage      StorageConfig      `koanf:"storage"`
	Settings     WorkspaceSettings  `koanf:"workspace_settings"`
	Database     DatabaseConfig     `koanf:"database"`
	Excel        ExcelConfig        `koanf:"excel"`
	GoogleSheets GoogleSheetsConfig `koanf:"google_sheets"`
	Logging      LoggingConfig      `koanf:"logging"`

	// Compatibility is the version-gate verdict recorded during
	// resolution.  Present even when resolution succeeds, so callers can
	// warn on upgrade hints or refuse legacy documents.
	Compatibility Compatibility `koanf:"-"`

	// Warnings carries advisory notices from a successful resolution,
	// e.g. deprecated blocks that were ignored.
	Warnings []string `koanf:"-"`
}

// Active reports whether mutating operations are permitted.
func (c *ResolvedConfig) Active() bool { return c.Status == StatusActive }

// document mirrors the raw tree one-to-one for unmarshalling.  Unlike
// ResolvedConfig it tolerates all three storage blocks at once; the
// backend selector collapses it into the tagged union.
type document struct {
	ID          string `koanf:"workspace_id"`
	Name        string `koanf:"workspace_name"`
	Status      string `koanf:"workspace_status"`
	Environment string `koanf:"environment"`

	Storage struct {
		Mode   string         `koanf:"mode"`
		Local  *LocalStorage  `koanf:"local"`
		S3     *S3Storage     `koanf:"s3"`
		GDrive *GDriveStorage `koanf:"gdrive"`
	} `koanf:"storage"`

	Settings     WorkspaceSettings  `koanf:"workspace_settings"`
	Database     DatabaseConfig     `koanf:"database"`
	Excel        ExcelConfig        `koanf:"excel"`
	GoogleSheets GoogleSheetsConfig `koanf:"google_sheets"`
	Logging      LoggingConfig      `koanf:"logging"`
}
