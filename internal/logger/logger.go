// internal/logger/logger.go
//
// Structured JSON logger (Zap + Lumberjack) driven by the workspace's
// logging section.
//
// Context
// -------
// The resolved workspace document decides where and how verbosely the
// SDK logs: `logging.level` maps onto a zap threshold, and an optional
// `logging.file` adds a rotating JSON sink (rotation, compression, and
// retention handled by Lumberjack, no external log-rotate job).  When
// running in an interactive TTY the same events are teed, colorized, to
// stdout.
//
// Usage
// -----
//
//	log, err := logger.New(cfg.Logging, runningInTTY())
//	if err != nil { … }
//	log.Infow("workspace online", "workspace", cfg.ID)
//
// Notes
// -----
// • Zap core uses ISO-8601 timestamps and lowercase levels.
// • The logger is installed process-wide via zap.ReplaceGlobals.
// • Oxford commas, two spaces after periods.
package logger

import (
	"os"
	"path/filepath"

	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/AdeptTravel/mediaplan/internal/workspace"
)

// Level maps a workspace logging level onto a zap threshold.  Unknown
// values fall back to info, matching the documented default.
func Level(name string) zapcore.Level {
	switch name {
	case "DEBUG":
		return zap.DebugLevel
	case "WARNING":
		return zap.WarnLevel
	case "ERROR":
		return zap.ErrorLevel
	case "CRITICAL":
		return zap.FatalLevel
	default:
		return zap.InfoLevel
	}
}

// New builds a *zap.SugaredLogger from the resolved logging section.
// With a file configured the JSON sink rotates via Lumberjack; without
// one, or when tee == true, a console core writes to stdout.  The
// logger is installed as the process-wide default.
func New(cfg workspace.LoggingConfig, tee bool) (*zap.SugaredLogger, error) {
	lvl := Level(cfg.Level)

	encCfg := zapcore.EncoderConfig{
		TimeKey:      "ts",
		LevelKey:     "level",
		MessageKey:   "msg",
		CallerKey:    "caller",
		EncodeTime:   zapcore.ISO8601TimeEncoder,
		EncodeLevel:  zapcore.LowercaseLevelEncoder,
		EncodeCaller: zapcore.ShortCallerEncoder,
	}

	var cores []zapcore.Core
	var errSink zapcore.WriteSyncer = zapcore.AddSync(os.Stderr)

	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return nil, err
		}
		fileSink := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    50, // MB
			MaxBackups: 7,  // keep last seven files
			MaxAge:     14, // days
			Compress:   true,
		}
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(encCfg),
			zapcore.AddSync(fileSink),
			lvl,
		))
		errSink = zapcore.AddSync(fileSink)
	}

	if tee || cfg.File == "" {
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(encCfg),
			zapcore.AddSync(os.Stdout),
			lvl,
		))
	}

	z := zap.New(
		zapcore.NewTee(cores...),
		zap.ErrorOutput(errSink),
	).Sugar()

	zap.ReplaceGlobals(z.Desugar())

	z.Debugw("logger online", "level", lvl.String(), "file", cfg.File, "tee", tee)
	return z, nil
}
