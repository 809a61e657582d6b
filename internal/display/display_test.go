package display

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pauljones0/reddit-rotator/internal/models"
)

type mockSurface struct {
	mu     sync.Mutex
	pushes []models.DisplayPush
	err    error
	block  chan struct{}
	got    chan struct{}
}

func (m *mockSurface) Push(_ context.Context, p models.DisplayPush) error {
	if m.block != nil {
		<-m.block
	}
	m.mu.Lock()
	m.pushes = append(m.pushes, p)
	m.mu.Unlock()
	if m.got != nil {
		m.got <- struct{}{}
	}
	return m.err
}

func (m *mockSurface) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pushes)
}

func samplePush() models.DisplayPush {
	return models.DisplayPush{
		Sets: []models.PostSet{
			{{Rank: 1, Title: "First post", Score: 12345, NumComments: 3, Author: "alice", Subreddit: "pics"}},
			{{Rank: 2, Title: "Second post", Score: 9}},
		},
		HasValidData: true,
		Header:       "hot posts from r/pics",
		Toggles:      models.Toggles{Rank: true, Score: true, NumComments: true, Title: true, Author: true},
		DisplayType:  models.DisplayHeadlines,
		Reason:       models.PushDeploy,
	}
}

func TestFanout(t *testing.T) {
	ok := &mockSurface{}
	bad := &mockSurface{err: errors.New("down")}
	after := &mockSurface{}

	err := Fanout{ok, bad, after}.Push(context.Background(), samplePush())
	if err == nil || !strings.Contains(err.Error(), "surface 1: down") {
		t.Errorf("Push() error = %v, want surface 1 failure", err)
	}
	if ok.count() != 1 || after.count() != 1 {
		t.Error("Expected every surface to receive the push")
	}

	if err := (Fanout{ok}).Push(context.Background(), samplePush()); err != nil {
		t.Errorf("Push() error = %v, want nil", err)
	}
}

func TestAsync_LatestWins(t *testing.T) {
	next := &mockSurface{block: make(chan struct{}), got: make(chan struct{}, 4)}
	a := NewAsync("test", next)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go a.Run(ctx)

	first := samplePush()
	if err := a.Push(ctx, first); err != nil {
		t.Fatalf("Push() error = %v", err)
	}
	// Wait until Run has taken the first push and is blocked in the surface.
	for {
		a.mu.Lock()
		pending := a.pending
		a.mu.Unlock()
		if pending == nil {
			break
		}
		time.Sleep(time.Millisecond)
	}

	for i := 1; i <= 3; i++ {
		p := samplePush()
		p.ActiveIndex = i % 2
		p.Generation = i
		a.Push(ctx, p)
	}

	close(next.block)
	for i := 0; i < 2; i++ {
		select {
		case <-next.got:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for delivery")
		}
	}

	next.mu.Lock()
	defer next.mu.Unlock()
	if len(next.pushes) != 2 {
		t.Fatalf("Expected 2 deliveries, got %d", len(next.pushes))
	}
	if next.pushes[1].Generation != 3 {
		t.Errorf("Expected latest push delivered, got generation %d", next.pushes[1].Generation)
	}
	if a.Dropped() != 2 {
		t.Errorf("Expected 2 dropped pushes, got %d", a.Dropped())
	}
}

func TestAsync_PushNeverBlocks(t *testing.T) {
	a := NewAsync("idle", &mockSurface{})
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			a.Push(context.Background(), samplePush())
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Push() blocked without a running consumer")
	}
}

func TestRender(t *testing.T) {
	out := Render(samplePush())
	for _, want := range []string{"hot posts from r/pics [1/2]", "1.", "First post", "12.3k points", "3 comments", "by u/alice"} {
		if !strings.Contains(out, want) {
			t.Errorf("Render() missing %q in:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Second post") {
		t.Error("Render() should only show the visible set")
	}
	if strings.Contains(out, "r/pics |") || strings.Contains(out, "in r/pics") {
		t.Error("Render() showed subreddit with its toggle off")
	}
}

func TestRender_Fallback(t *testing.T) {
	out := Render(models.DisplayPush{Reason: models.PushFallback})
	if !strings.Contains(out, "No posts available.") {
		t.Errorf("Render() = %q, want fallback text", out)
	}

	stale := samplePush()
	stale.HasValidData = false
	if !strings.Contains(Render(stale), "Last refresh failed") {
		t.Error("Render() should flag stale data")
	}
}

func TestConsole_Push(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf)
	if err := c.Push(context.Background(), samplePush()); err != nil {
		t.Fatalf("Push() error = %v", err)
	}
	if !strings.Contains(buf.String(), "First post") {
		t.Errorf("Console output missing post title: %q", buf.String())
	}
}
