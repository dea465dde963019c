// Package logging builds the process-wide slog logger: leveled, text or
// JSON, duplicated to a log file under the application base directory so
// runs leave an inspectable trace.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

const logFileName = "postcodeparse.log"

// New configures a logger writing to w (and, when baseDir is non-empty, to
// baseDir/postcodeparse.log, truncated per run). The returned closer owns
// the log file handle.
func New(w io.Writer, format string, level string, baseDir string) (*slog.Logger, func() error, error) {
	var l = new(slog.LevelVar) // info by default
	switch level {
	case "debug":
		l.Set(slog.LevelDebug)
	case "info":
		l.Set(slog.LevelInfo)
	case "warn":
		l.Set(slog.LevelWarn)
	case "error":
		l.Set(slog.LevelError)
	default:
		return nil, nil, fmt.Errorf("logging: unknown level %q", level)
	}

	closer := func() error { return nil }
	if baseDir != "" {
		path := filepath.Join(baseDir, logFileName)
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("logging: open log file %q: %w", path, err)
		}
		w = io.MultiWriter(w, f)
		closer = f.Close
	}

	var h slog.Handler
	switch format {
	case "json":
		h = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: l})
	case "text":
		h = slog.NewTextHandler(w, &slog.HandlerOptions{Level: l})
	default:
		_ = closer()
		return nil, nil, fmt.Errorf("logging: unknown format %q", format)
	}

	return slog.New(h), closer, nil
}
