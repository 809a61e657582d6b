package display

import (
	"context"
	"log/slog"
	"sync"

	"github.com/pauljones0/reddit-rotator/internal/models"
)

// Async decouples a slow surface from the caller. Push stores the state in a
// one-slot mailbox and returns immediately; Run delivers it. An undelivered
// push is replaced by a newer one.
type Async struct {
	name string
	next Surface

	mu      sync.Mutex
	pending *models.DisplayPush
	dropped int
	wake    chan struct{}
}

func NewAsync(name string, next Surface) *Async {
	return &Async{
		name: name,
		next: next,
		wake: make(chan struct{}, 1),
	}
}

func (a *Async) Push(_ context.Context, p models.DisplayPush) error {
	a.mu.Lock()
	if a.pending != nil {
		a.dropped++
	}
	a.pending = &p
	a.mu.Unlock()

	select {
	case a.wake <- struct{}{}:
	default:
	}
	return nil
}

// Dropped returns how many pushes were replaced before delivery.
func (a *Async) Dropped() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.dropped
}

// Run delivers pushes until ctx is cancelled.
func (a *Async) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-a.wake:
			p := a.take()
			if p == nil {
				continue
			}
			if err := a.next.Push(ctx, *p); err != nil {
				slog.Warn("Display surface push failed", "surface", a.name, "reason", p.Reason, "error", err)
			}
		}
	}
}

func (a *Async) take() *models.DisplayPush {
	a.mu.Lock()
	defer a.mu.Unlock()
	p := a.pending
	a.pending = nil
	return p
}
