// internal/workspace/loader.go
//
// Workspace manager: file discovery, layered loading, and guard checks.
//
// Context
// -------
// Manager.Load builds one immutable ResolvedConfig from three layers
// (highest precedence last):
//
//  1. Optional `.env` file in the working directory.
//  2. The workspace document (JSON or YAML), discovered in order:
//     explicit path → $MEDIAPLAN_WORKSPACE_PATH → ./workspace.json →
//     ~/.config/mediaplan/workspace.json.
//  3. Environment variables prefixed `MEDIAPLAN_`, where `__` maps to
//     "." (e.g., MEDIAPLAN_DATABASE__HOST → database.host).
//
// After merging, `${user_home}` and `${user_documents}` placeholders are
// expanded, the tree goes through Resolve, and the result is cached in
// an atomic.Pointer for lock-free reads.  Reload simply runs Load again
// and swaps the pointer.
//
// Notes
// -----
//   - Resolution itself never touches the environment or the disk; all
//     of that stays here, in the loading shell around the pure core.
//   - Logs use the global sugared logger so early boot issues surface
//     before the file logger is installed.
//   - Oxford commas, two spaces after periods.
package workspace

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	koanf "github.com/knadh/koanf/v2"
	"go.uber.org/zap"

	"github.com/AdeptTravel/mediaplan/internal/metrics"
)

const (
	// DefaultFilename is the workspace document name looked up in the
	// working and user config directories.
	DefaultFilename = "workspace.json"

	// EnvPathVar overrides document discovery with an explicit path.
	EnvPathVar = "MEDIAPLAN_WORKSPACE_PATH"

	envPrefix = "MEDIAPLAN_"
)

// Manager loads and caches one workspace configuration.  Safe for
// concurrent use after construction.
type Manager struct {
	path string // explicit document path, empty to discover
	opts Options

	current atomic.Pointer[ResolvedConfig]
}

// NewManager returns a manager for the given document path.  An empty
// path enables the standard discovery order.
func NewManager(path string, opts Options) *Manager {
	return &Manager{path: path, opts: opts}
}

/*──────────────────────────── discovery ───────────────────────────────────*/

// Locate returns the first existing workspace document, or a
// *NotFoundError listing every location searched.
func (m *Manager) Locate() (string, error) {
	var search []string

	if m.path != "" {
		search = append(search, m.path)
	}
	if p := os.Getenv(EnvPathVar); p != "" {
		search = append(search, p)
	}
	if wd, err := os.Getwd(); err == nil {
		search = append(search, filepath.Join(wd, DefaultFilename))
	}
	if home, err := os.UserHomeDir(); err == nil {
		search = append(search, filepath.Join(home, ".config", "mediaplan", DefaultFilename))
	}

	for _, p := range search {
		if _, err := os.Stat(p); err == nil {
			zap.S().Debugw("workspace document found", "path", p)
			return p, nil
		}
	}
	return "", &NotFoundError{Searched: search}
}

/*───────────────────────────── loading ────────────────────────────────────*/

// Load reads .env, the workspace document, and env overrides, resolves
// the merged tree, and caches the result.
func (m *Manager) Load() (*ResolvedConfig, error) {
	// .env (optional, no error if missing)
	_ = godotenv.Load()

	path, err := m.Locate()
	if err != nil {
		metrics.WorkspaceLoadErrorsTotal.Inc()
		return nil, err
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		zap.S().Errorw("workspace document load failed", "file", path, "err", err)
		metrics.WorkspaceLoadErrorsTotal.Inc()
		return nil, &ParseError{Err: err}
	}

	// Env overrides: MEDIAPLAN_DATABASE__HOST → database.host
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.ReplaceAll(strings.TrimPrefix(s, envPrefix), "__", "."))
	}), nil); err != nil {
		zap.S().Errorw("workspace env overlay failed", "err", err)
		metrics.WorkspaceLoadErrorsTotal.Inc()
		return nil, err
	}

	tree := expandPathVariables(k.Raw())

	cfg, err := Resolve(tree, m.opts)
	if err != nil {
		metrics.WorkspaceLoadErrorsTotal.Inc()
		if report, ok := err.(*Report); ok {
			metrics.ResolveViolationsTotal.Add(float64(len(report.Violations)))
			zap.S().Errorw("workspace validation failed",
				"file", path, "violations", len(report.Violations))
		}
		return nil, err
	}

	m.current.Store(cfg)
	metrics.WorkspaceLoadTotal.Inc()
	zap.S().Infow("workspace loaded",
		"workspace", cfg.ID,
		"name", cfg.Name,
		"storage_mode", cfg.Storage.Mode,
		"environment", cfg.Environment,
		"compatibility", cfg.Compatibility.Level.String(),
	)
	for _, w := range cfg.Warnings {
		zap.S().Warnw("workspace notice", "workspace", cfg.ID, "notice", w)
	}
	return cfg, nil
}

// Get returns the cached configuration, nil before the first Load.
func (m *Manager) Get() *ResolvedConfig { return m.current.Load() }

// Reload runs Load again and swaps the cached pointer.
func (m *Manager) Reload() error { _, err := m.Load(); return err }

/*────────────────────────────── guards ────────────────────────────────────*/

// ErrNotLoaded is returned by the guards before a successful Load.
var ErrNotLoaded = fmt.Errorf("workspace: no configuration loaded, call Load first")

// CheckActive refuses the operation when the workspace is inactive.
// The resolver only records the status; enforcement happens here, at the
// point where a mutating operation is about to run.
func (m *Manager) CheckActive(operation string) error {
	cfg := m.Get()
	if cfg == nil {
		return ErrNotLoaded
	}
	if !cfg.Active() {
		return &InactiveError{Workspace: cfg.Name, Operation: operation}
	}
	return nil
}

// CheckExcelEnabled refuses Excel operations when the integration is
// toggled off.
func (m *Manager) CheckExcelEnabled(operation string) error {
	cfg := m.Get()
	if cfg == nil {
		return ErrNotLoaded
	}
	if !cfg.Excel.Enabled {
		return &FeatureDisabledError{Workspace: cfg.Name, Feature: "Excel", Operation: operation}
	}
	return nil
}

// CheckSheetsEnabled refuses Google Sheets operations when the
// integration is toggled off.
func (m *Manager) CheckSheetsEnabled(operation string) error {
	cfg := m.Get()
	if cfg == nil {
		return ErrNotLoaded
	}
	if !cfg.GoogleSheets.Enabled {
		return &FeatureDisabledError{Workspace: cfg.Name, Feature: "Google Sheets", Operation: operation}
	}
	return nil
}

/*──────────────────────────── creation ────────────────────────────────────*/

// Create writes a fresh workspace document under dir and returns the
// generated workspace id and the document path.  Local storage points at
// a per-workspace subdirectory of dir; everything else takes the
// documented defaults.
func Create(dir, name string, overwrite bool) (id, path string, err error) {
	id = "workspace_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	path = filepath.Join(dir, id+"_settings.json")

	if _, statErr := os.Stat(path); statErr == nil && !overwrite {
		return "", "", fmt.Errorf("workspace file already exists at %s", path)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("create workspace directory: %w", err)
	}

	appSchema := CurrentAppVersions().Schema
	doc := map[string]any{
		"workspace_id":     id,
		"workspace_name":   name,
		"workspace_status": Defaults["workspace_status"],
		"environment":      Defaults["environment"],
		"storage": map[string]any{
			"mode": string(ModeLocal),
			"local": map[string]any{
				"base_path":         filepath.Join(dir, id),
				"create_if_missing": Defaults["storage.local.create_if_missing"],
			},
		},
		"workspace_settings": map[string]any{
			"schema_version": appSchema.String(),
		},
		"database":      map[string]any{"enabled": Defaults["database.enabled"]},
		"excel":         map[string]any{"enabled": Defaults["excel.enabled"]},
		"google_sheets": map[string]any{"enabled": Defaults["google_sheets.enabled"]},
		"logging":       map[string]any{"level": Defaults["logging.level"]},
	}

	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", "", err
	}
	if err := os.WriteFile(path, append(b, '\n'), 0o644); err != nil {
		return "", "", fmt.Errorf("write workspace document: %w", err)
	}

	zap.S().Infow("workspace created", "workspace", id, "name", name, "path", path)
	return id, path, nil
}

/*───────────────────────── path variables ─────────────────────────────────*/

// expandPathVariables returns a copy of the tree with ${user_home} and
// ${user_documents} placeholders replaced in every string value.
func expandPathVariables(tree map[string]any) map[string]any {
	home, _ := os.UserHomeDir()
	repl := strings.NewReplacer(
		"${user_home}", home,
		"${user_documents}", filepath.Join(home, "Documents"),
	)
	return expandTree(tree, repl).(map[string]any)
}

func expandTree(node any, repl *strings.Replacer) any {
	switch val := node.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, child := range val {
			out[k] = expandTree(child, repl)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, child := range val {
			out[i] = expandTree(child, repl)
		}
		return out
	case string:
		if strings.Contains(val, "${") {
			return repl.Replace(val)
		}
		return val
	default:
		return node
	}
}
