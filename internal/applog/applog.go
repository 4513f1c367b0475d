// Package applog builds the single process-wide structured logger. No
// package keeps a logger in a global; main constructs one here and threads
// it through every component explicitly.
package applog

import (
	"context"
	"log/slog"
	"os"

	"github.com/mdobak/go-xerrors"
)

// New returns a JSON slog.Logger writing to os.Stderr at the given level.
// Pass slog.LevelInfo for ordinary service use.
func New(level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return slog.New(handler)
}

// Err wraps err with a captured stack trace for structured logging, e.g.
// logger.ErrorContext(ctx, "ingest failed", slog.Any("error", applog.Err(err))).
func Err(err error) error {
	if err == nil {
		return nil
	}
	return xerrors.New(err)
}

// ErrorContext is a small convenience wrapper matching the call shape used
// throughout this codebase.
func ErrorContext(ctx context.Context, logger *slog.Logger, msg string, err error) {
	logger.ErrorContext(ctx, msg, slog.Any("error", Err(err)))
}
