package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"
)

// Run pulls frames from the source until it is exhausted or ctx is
// cancelled. Both of those end the run without error; a failing source
// returns its error.
func (a *App) Run(ctx context.Context) error {
	if a.source == nil {
		return ErrNoSource
	}

	a.log.Info("detection pipeline started")
	defer a.log.Info("detection pipeline stopped")

	var frames uint64
	for {
		frame, err := a.source.Next(ctx)
		switch {
		case err == nil:
		case errors.Is(err, io.EOF):
			a.log.Info("landmark source exhausted", zap.Uint64("frames", frames))
			return nil
		case ctx.Err() != nil:
			return nil
		default:
			return fmt.Errorf("read landmark frame: %w", err)
		}

		frames++
		a.ProcessFrame(ctx, frame)
	}
}
