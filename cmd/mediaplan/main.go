// cmd/mediaplan/main.go
//
// mediaplan – workspace configuration tool.
//
// Subcommands
// -----------
//
//	init      – write a fresh default workspace document.
//	validate  – resolve one or more documents and print every problem.
//	inspect   – load the active workspace and print the resolved summary.
//	serve     – lint endpoint (POST /v1/validate) plus /metrics.
//
// Boot order follows the usual pattern: env vars first (optional .env),
// then the logger, then work.  `validate` resolves its inputs
// concurrently; resolution is pure, so one goroutine per document is
// safe.
//
// Large comment blocks are framed by blank “//” lines; inline comments
// use a single “//”.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/AdeptTravel/mediaplan/internal/logger"
	"github.com/AdeptTravel/mediaplan/internal/metrics"
	"github.com/AdeptTravel/mediaplan/internal/workspace"
)

// runningInTTY returns true when stdout is a character device.
func runningInTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func init() { _ = godotenv.Load() }

func usage() {
	fmt.Fprintln(os.Stderr, `usage: mediaplan <command> [arguments]

commands:
  init      -dir DIR -name NAME      create a default workspace document
  validate  [-strict] FILE...        resolve documents and report problems
  inspect   [-path FILE]             print the resolved workspace summary
  serve     [-addr :8080]            run the lint endpoint and /metrics`)
	os.Exit(2)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	// Bootstrap console logger; inspect/serve replace it with the
	// workspace-configured sink once a document resolves.
	log, err := logger.New(workspace.LoggingConfig{Level: "INFO"}, runningInTTY())
	if err != nil {
		fmt.Fprintf(os.Stderr, "start logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	var run func(args []string) error
	switch os.Args[1] {
	case "init":
		run = cmdInit
	case "validate":
		run = cmdValidate
	case "inspect":
		run = cmdInspect
	case "serve":
		run = cmdServe
	default:
		usage()
	}

	if err := run(os.Args[2:]); err != nil {
		// Reports print their own violation list; everything else gets
		// the plain error line.
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

//
// ── init ────────────────────────────────────────────────────────────────
//

func cmdInit(args []string) error {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	dir := fs.String("dir", defaultWorkspaceDir(), "directory for the workspace document")
	name := fs.String("name", "Default", "workspace name")
	overwrite := fs.Bool("overwrite", false, "replace an existing document")
	fs.Parse(args)

	id, path, err := workspace.Create(*dir, *name, *overwrite)
	if err != nil {
		return err
	}
	fmt.Printf("created workspace %s at %s\n", id, path)
	return nil
}

func defaultWorkspaceDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		wd, _ := os.Getwd()
		return wd
	}
	return home + string(os.PathSeparator) + "mediaplan"
}

//
// ── validate ────────────────────────────────────────────────────────────
//

func cmdValidate(args []string) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	strict := fs.Bool("strict", false, "refuse documents without a schema_version")
	fs.Parse(args)
	if fs.NArg() == 0 {
		return errors.New("validate: at least one document path is required")
	}

	opts := workspace.Options{RequireVersion: *strict}

	// Resolution is pure and documents are independent, so check them
	// all at once and keep per-file results ordered for printing.
	results := make([]error, fs.NArg())
	var g errgroup.Group
	for i, path := range fs.Args() {
		i, path := i, path
		g.Go(func() error {
			b, err := os.ReadFile(path)
			if err != nil {
				results[i] = err
				return nil
			}
			_, results[i] = workspace.ResolveBytes(b, opts)
			return nil
		})
	}
	g.Wait()

	failed := 0
	for i, path := range fs.Args() {
		switch err := results[i].(type) {
		case nil:
			fmt.Printf("%s: ok\n", path)
		case *workspace.Report:
			failed++
			fmt.Printf("%s:\n", path)
			for _, v := range err.Violations {
				fmt.Printf("  %-13s %s\n", "["+string(v.Kind)+"]", v.Error())
			}
			for _, w := range err.Warnings {
				fmt.Printf("  %-13s %s\n", "[warning]", w)
			}
		default:
			failed++
			fmt.Printf("%s: %v\n", path, err)
		}
	}
	if failed > 0 {
		return fmt.Errorf("validate: %d of %d document(s) invalid", failed, fs.NArg())
	}
	return nil
}

//
// ── inspect ─────────────────────────────────────────────────────────────
//

func cmdInspect(args []string) error {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	path := fs.String("path", "", "workspace document (default: standard discovery)")
	fs.Parse(args)

	mgr := workspace.NewManager(*path, workspace.Options{})
	cfg, err := mgr.Load()
	if err != nil {
		return err
	}

	// Re-home logging onto the workspace-configured sink.
	if _, err := logger.New(cfg.Logging, runningInTTY()); err != nil {
		return err
	}

	fmt.Printf("workspace      %s (%s)\n", cfg.ID, cfg.Name)
	fmt.Printf("status         %s\n", cfg.Status)
	fmt.Printf("environment    %s\n", cfg.Environment)
	fmt.Printf("storage        %s\n", describeStorage(cfg))
	fmt.Printf("database       %s\n", describeDatabase(cfg))
	fmt.Printf("integrations   excel=%v google_sheets=%v\n", cfg.Excel.Enabled, cfg.GoogleSheets.Enabled)
	fmt.Printf("compatibility  %s\n", cfg.Compatibility.Level)
	if cfg.Compatibility.Legacy {
		fmt.Println("note           document declares no schema_version (legacy)")
	}
	for _, w := range cfg.Warnings {
		fmt.Printf("warning        %s\n", w)
	}
	return nil
}

func describeStorage(cfg *workspace.ResolvedConfig) string {
	switch cfg.Storage.Mode {
	case workspace.ModeLocal:
		if !cfg.Storage.Local.HasBasePath() {
			return "local (base_path unset)"
		}
		return "local " + cfg.Storage.Local.BasePath
	case workspace.ModeS3:
		return fmt.Sprintf("s3://%s/%s", cfg.Storage.S3.Bucket, cfg.Storage.S3.Prefix)
	case workspace.ModeGDrive:
		return "gdrive " + cfg.Storage.GDrive.FolderID
	default:
		return string(cfg.Storage.Mode)
	}
}

func describeDatabase(cfg *workspace.ResolvedConfig) string {
	if !cfg.Database.Enabled {
		return "disabled"
	}
	return fmt.Sprintf("postgres://%s@%s:%d/%s", cfg.Database.Username,
		cfg.Database.Host, cfg.Database.Port, cfg.Database.Database)
}

//
// ── serve ───────────────────────────────────────────────────────────────
//

type lintResponse struct {
	Valid      bool                  `json:"valid"`
	Violations []workspace.Violation `json:"violations,omitempty"`
	Warnings   []string              `json:"warnings,omitempty"`
}

func cmdServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", ":8080", "listen address")
	strict := fs.Bool("strict", false, "refuse documents without a schema_version")
	fs.Parse(args)

	opts := workspace.Options{RequireVersion: *strict}

	r := chi.NewRouter()
	r.Use(chimw.RealIP, chimw.Recoverer)
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/v1/validate", func(w http.ResponseWriter, req *http.Request) {
		b, err := io.ReadAll(http.MaxBytesReader(w, req.Body, 1<<20))
		if err != nil {
			http.Error(w, "read body: "+err.Error(), http.StatusBadRequest)
			return
		}

		resp := lintResponse{Valid: true}
		if _, err := workspace.ResolveBytes(b, opts); err != nil {
			var report *workspace.Report
			switch {
			case errors.As(err, &report):
				metrics.ResolveViolationsTotal.Add(float64(len(report.Violations)))
				resp = lintResponse{Valid: false, Violations: report.Violations, Warnings: report.Warnings}
			default:
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
		}

		w.Header().Set("Content-Type", "application/json")
		if !resp.Valid {
			w.WriteHeader(http.StatusUnprocessableEntity)
		}
		_ = json.NewEncoder(w).Encode(resp)
	})

	srv := &http.Server{
		Addr:              *addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	zap.S().Infow("lint server listening", "addr", *addr, "strict", *strict)
	return srv.ListenAndServe()
}
