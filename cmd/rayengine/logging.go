package main

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/gogpu/rayengine"
	"github.com/gogpu/rayengine/internal/config"
)

// setupLogger installs the engine logger. Text output is used on a
// terminal and JSON otherwise, unless log.format says which.
func setupLogger(cfg *config.Config, quiet bool, w io.Writer) error {
	if quiet {
		rayengine.SetLogger(nil)
		return nil
	}

	level, err := cfg.LogLevel()
	if err != nil {
		return err
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch format := strings.ToLower(cfg.Log.Format); {
	case format == "json":
		handler = slog.NewJSONHandler(w, opts)
	case format == "text" || isTerminal(w):
		handler = slog.NewTextHandler(w, opts)
	default:
		handler = slog.NewJSONHandler(w, opts)
	}
	rayengine.SetLogger(slog.New(handler))
	return nil
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
