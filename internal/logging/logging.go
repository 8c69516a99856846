// Package logging builds the logr.Logger used across orbitsim.
//
// Records are structured key/value pairs routed through zap. Verbosity follows
// logr conventions: logger.Info is always emitted, logger.V(DEBUG).Info only
// when the configured level is debug or lower.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Verbosity levels for logger.V.
const (
	DEBUG = 1
	TRACE = 2
)

// LogFileName is the file written inside Options.Dir.
const LogFileName = "simulation.log"

type Options struct {
	// Level is one of trace, debug, info, warn, error.
	Level string
	// Dir, when set, adds <Dir>/simulation.log as an output. The directory is
	// created if missing.
	Dir         string
	Development bool
	// Quiet drops the stderr output, leaving only the file.
	Quiet bool
}

// Log is the process logger. It discards everything until Setup or
// NewTestLogger replaces it.
var Log = logr.Discard()

func ParseLevel(level string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "info":
		return zapcore.InfoLevel, nil
	case "debug":
		return zapcore.Level(-DEBUG), nil
	case "trace":
		return zapcore.Level(-TRACE), nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", level)
	}
}

func NewLogger(opts Options) (logr.Logger, error) {
	lvl, err := ParseLevel(opts.Level)
	if err != nil {
		return logr.Discard(), err
	}

	cfg := zap.NewProductionConfig()
	if opts.Development {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.DisableStacktrace = true

	cfg.OutputPaths = nil
	if !opts.Quiet {
		cfg.OutputPaths = append(cfg.OutputPaths, "stderr")
	}
	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0755); err != nil {
			return logr.Discard(), fmt.Errorf("create log dir: %w", err)
		}
		cfg.OutputPaths = append(cfg.OutputPaths, filepath.Join(opts.Dir, LogFileName))
	}
	if len(cfg.OutputPaths) == 0 {
		return logr.Discard(), nil
	}

	z, err := cfg.Build()
	if err != nil {
		return logr.Discard(), err
	}
	return zapr.NewLogger(z), nil
}

// Setup builds a logger and installs it as Log.
func Setup(opts Options) (logr.Logger, error) {
	l, err := NewLogger(opts)
	if err != nil {
		return l, err
	}
	Log = l
	return l, nil
}

// NewTestLogger installs a trace-level development logger writing to w, or to
// stderr when w is nil.
func NewTestLogger(w io.Writer) logr.Logger {
	if w == nil {
		w = os.Stderr
	}
	enc := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	core := zapcore.NewCore(enc, zapcore.AddSync(w), zapcore.Level(-TRACE))
	Log = zapr.NewLogger(zap.New(core))
	return Log
}
