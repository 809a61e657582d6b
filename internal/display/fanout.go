// Package display holds the display surfaces that are not tied to a
// particular transport: fan-out, asynchronous delivery and the console.
package display

import (
	"context"
	"errors"
	"fmt"

	"github.com/pauljones0/reddit-rotator/internal/models"
)

// Surface receives display pushes.
type Surface interface {
	Push(ctx context.Context, p models.DisplayPush) error
}

// Fanout pushes to every surface in order. A failing surface does not stop
// the others; all failures are joined.
type Fanout []Surface

func (f Fanout) Push(ctx context.Context, p models.DisplayPush) error {
	var errs []error
	for i, s := range f {
		if err := s.Push(ctx, p); err != nil {
			errs = append(errs, fmt.Errorf("surface %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}
