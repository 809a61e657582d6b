package processor

import (
	"context"

	"github.com/pauljones0/reddit-rotator/internal/models"
)

// PostFetcher abstracts the remote listing source.
type PostFetcher interface {
	Fetch(ctx context.Context, req models.RefreshRequest) ([]models.PostRecord, error)
}

// DisplaySurface abstracts whatever shows the active sets. Push is called on
// every deploy and every rotation advance; implementations must not modify
// the pushed sets.
type DisplaySurface interface {
	Push(ctx context.Context, push models.DisplayPush) error
}
