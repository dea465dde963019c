package obs

import (
	"context"
	"log/slog"
	"time"
)

type ctxKey string

const runIDKey ctxKey = "run_id"

// WithRunID attaches the extraction run identifier to the context so
// pipeline stages can tag their log lines with it.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// RunID returns the run identifier from the context, or "" when absent.
func RunID(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey).(string)
	return id
}

// Time logs the duration of an operation when the returned func runs.
//
//	defer obs.Time(ctx, "paf.trim")(&err)
//
// Completed operations log at debug, failed ones at warn with the error.
func Time(ctx context.Context, name string) func(errp *error) {
	start := time.Now()
	runID := RunID(ctx)

	return func(errp *error) {
		dur := time.Since(start)

		if errp != nil && *errp != nil {
			slog.Warn("operation failed",
				slog.String("run_id", runID),
				slog.String("op", name),
				slog.Int64("dur_ms", dur.Milliseconds()),
				slog.Any("err", *errp),
			)
			return
		}
		slog.Debug("operation complete",
			slog.String("run_id", runID),
			slog.String("op", name),
			slog.Int64("dur_ms", dur.Milliseconds()),
		)
	}
}
