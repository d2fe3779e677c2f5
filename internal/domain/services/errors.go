package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ErrCancelled is returned when a pass stops because its context ended.
// The context's own error is joined in, so errors.Is works for both.
var ErrCancelled = errors.New("operation cancelled")

// checkCancelled returns a wrapped ErrCancelled once ctx is done.
func checkCancelled(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrCancelled, err)
	}
	return nil
}

func loggerOrDefault(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
