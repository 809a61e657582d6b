// Package processor stages fetched posts and rotates them onto a display
// surface.
package processor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pauljones0/reddit-rotator/internal/config"
	"github.com/pauljones0/reddit-rotator/internal/models"
)

var (
	// ErrStopped is returned by control calls after Run has returned.
	ErrStopped = errors.New("scheduler stopped")
	// ErrSuspended is returned by Refresh while the scheduler is suspended.
	ErrSuspended = errors.New("scheduler suspended")
)

// Phase is the coarse state of the display.
type Phase int

const (
	PhaseEmpty Phase = iota
	PhaseDisplaying
)

func (p Phase) String() string {
	switch p {
	case PhaseEmpty:
		return "empty"
	case PhaseDisplaying:
		return "displaying"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Status is a point-in-time snapshot of the scheduler.
type Status struct {
	Phase           Phase     `json:"phase"`
	Refreshing      bool      `json:"refreshing"`
	ActiveSets      int       `json:"activeSets"`
	ActiveIndex     int       `json:"activeIndex"`
	StagedSets      int       `json:"stagedSets"`
	WaitingToDeploy bool      `json:"waitingToDeploy"`
	HasValidData    bool      `json:"hasValidData"`
	LastReceivedAt  time.Time `json:"lastReceivedAt"`
	Suspended       bool      `json:"suspended"`
	Rotating        bool      `json:"rotating"`
	Generation      int       `json:"generation"`
}

// displayState is owned by the loop goroutine.
type displayState struct {
	active          []models.PostSet
	activeIndex     int
	staged          []models.PostSet
	stagedCycle     string
	waitingToDeploy bool
	hasValidData    bool
	lastReceivedAt  time.Time
}

type fetchResult struct {
	cycle   string
	epoch   int
	records []models.PostRecord
	err     error
}

// Scheduler owns the update and rotation timers and decides when freshly
// fetched sets replace what is on screen. All state is mutated on the Run
// goroutine; the exported control methods send closures to it.
type Scheduler struct {
	fetcher PostFetcher
	surface DisplaySurface

	request         models.RefreshRequest
	show            int
	forceImmediate  bool
	rotationEnabled bool
	header          string
	toggles         models.Toggles
	displayType     models.DisplayMode

	updateTimer *task
	rotateTimer *task
	commands    chan func()
	results     chan fetchResult
	stopped     chan struct{}

	now        func() time.Time
	newCycleID func() string
	ctx        context.Context

	state         displayState
	epoch         int
	inFlight      int
	suspended     bool
	fallbackShown bool
	generation    int
}

// New builds a scheduler from cfg. Run must be called to start it.
func New(cfg *config.Config, fetcher PostFetcher, surface DisplaySurface) *Scheduler {
	return &Scheduler{
		fetcher:         fetcher,
		surface:         surface,
		request:         cfg.RefreshRequest(),
		show:            cfg.Show,
		forceImmediate:  cfg.ForceImmediateUpdate,
		rotationEnabled: cfg.RotationEnabled(),
		header:          cfg.Header(),
		toggles:         cfg.Toggles,
		displayType:     cfg.DisplayType,
		updateTimer:     newTask(cfg.UpdateInterval),
		rotateTimer:     newTask(cfg.RotateInterval),
		commands:        make(chan func()),
		results:         make(chan fetchResult),
		stopped:         make(chan struct{}),
		now:             time.Now,
		newCycleID:      uuid.NewString,
		ctx:             context.Background(),
	}
}

// Run starts the update timer, issues the first fetch and processes events
// until ctx is cancelled. Both timers are cancelled on return.
func (s *Scheduler) Run(ctx context.Context) error {
	s.ctx = ctx
	defer close(s.stopped)
	defer s.teardown()

	slog.Info("Scheduler started",
		"update_interval", s.updateTimer.period,
		"rotate_interval", s.rotateTimer.period,
		"rotation", s.rotationEnabled)

	s.updateTimer.start()
	s.fetch("startup")

	for {
		select {
		case <-ctx.Done():
			slog.Info("Scheduler stopping")
			return nil
		case cmd := <-s.commands:
			cmd()
		case <-s.updateTimer.C():
			s.fetch("timer")
		case <-s.rotateTimer.C():
			s.onRotate()
		case res := <-s.results:
			s.onFetchResult(res)
		}
	}
}

// Suspend cancels both timers. Fetches still in flight are discarded when
// they complete.
func (s *Scheduler) Suspend(ctx context.Context) error {
	return s.do(ctx, s.suspend)
}

// Resume restarts the update timer and fetches immediately.
func (s *Scheduler) Resume(ctx context.Context) error {
	return s.do(ctx, s.resume)
}

// Refresh issues an out-of-band fetch without touching the update timer.
func (s *Scheduler) Refresh(ctx context.Context) error {
	var err error
	if doErr := s.do(ctx, func() {
		if s.suspended {
			err = ErrSuspended
			return
		}
		s.fetch("manual")
	}); doErr != nil {
		return doErr
	}
	return err
}

// Status returns a snapshot of the current state.
func (s *Scheduler) Status(ctx context.Context) (Status, error) {
	var st Status
	if err := s.do(ctx, func() { st = s.status() }); err != nil {
		return Status{}, err
	}
	return st, nil
}

func (s *Scheduler) do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	cmd := func() {
		fn()
		close(done)
	}
	select {
	case s.commands <- cmd:
	case <-s.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	// The loop runs cmd synchronously once it has received it.
	<-done
	return nil
}

func (s *Scheduler) status() Status {
	phase := PhaseEmpty
	if len(s.state.active) > 0 {
		phase = PhaseDisplaying
	}
	return Status{
		Phase:           phase,
		Refreshing:      s.inFlight > 0,
		ActiveSets:      len(s.state.active),
		ActiveIndex:     s.state.activeIndex,
		StagedSets:      len(s.state.staged),
		WaitingToDeploy: s.state.waitingToDeploy,
		HasValidData:    s.state.hasValidData,
		LastReceivedAt:  s.state.lastReceivedAt,
		Suspended:       s.suspended,
		Rotating:        s.rotateTimer.running(),
		Generation:      s.generation,
	}
}

func (s *Scheduler) suspend() {
	if s.suspended {
		return
	}
	s.suspended = true
	s.updateTimer.stop()
	s.rotateTimer.stop()
	s.epoch++
	s.inFlight = 0
	slog.Info("Scheduler suspended")
}

func (s *Scheduler) resume() {
	if !s.suspended {
		return
	}
	s.suspended = false
	s.updateTimer.start()
	slog.Info("Scheduler resumed")
	s.fetch("resume")
}

func (s *Scheduler) teardown() {
	s.updateTimer.stop()
	s.rotateTimer.stop()
	s.epoch++
	s.inFlight = 0
}

// fetch runs the fetcher off-loop and posts the outcome back to Run.
func (s *Scheduler) fetch(trigger string) {
	if s.suspended {
		return
	}
	res := fetchResult{cycle: s.newCycleID(), epoch: s.epoch}
	req := s.request
	ctx := s.ctx
	s.inFlight++
	slog.Debug("Refresh started", "cycle", res.cycle, "trigger", trigger, "in_flight", s.inFlight)

	go func() {
		res.records, res.err = s.callFetcher(ctx, req)
		select {
		case s.results <- res:
		case <-s.stopped:
		case <-ctx.Done():
		}
	}()
}

func (s *Scheduler) callFetcher(ctx context.Context, req models.RefreshRequest) (records []models.PostRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			records = nil
			err = fmt.Errorf("fetcher panicked: %v", r)
		}
	}()
	return s.fetcher.Fetch(ctx, req)
}

func (s *Scheduler) onFetchResult(res fetchResult) {
	if res.epoch != s.epoch || s.suspended {
		slog.Debug("Discarding fetch result after teardown", "cycle", res.cycle)
		return
	}
	if s.inFlight > 0 {
		s.inFlight--
	}

	if res.err == nil && len(res.records) == 0 {
		res.err = models.ErrEmptyResult
	}
	if res.err != nil {
		s.onFetchError(res)
		return
	}

	s.state.staged = Chunk(res.records, s.show)
	s.state.stagedCycle = res.cycle
	s.state.waitingToDeploy = true
	s.state.lastReceivedAt = s.now()
	s.state.hasValidData = true
	slog.Debug("Staged", "cycle", res.cycle, "records", len(res.records), "sets", len(s.state.staged))

	s.decideDeploy()
}

func (s *Scheduler) onFetchError(res fetchResult) {
	s.state.hasValidData = false
	slog.Warn("Refresh failed", "cycle", res.cycle, "kind", models.Kind(res.err), "error", res.err)

	if len(s.state.active) == 0 && !s.fallbackShown {
		s.fallbackShown = true
		s.push(models.PushFallback)
	}
}

func (s *Scheduler) decideDeploy() {
	switch {
	case len(s.state.active) == 0:
		s.deploy()
	case !s.rotateTimer.running():
		s.deploy()
	case s.forceImmediate:
		s.deploy()
	default:
		slog.Debug("Deferred until rotation wraps", "cycle", s.state.stagedCycle, "active_index", s.state.activeIndex)
	}
}

func (s *Scheduler) deploy() {
	cycle := s.state.stagedCycle
	s.state.active = s.state.staged
	s.state.activeIndex = 0
	s.state.staged = nil
	s.state.stagedCycle = ""
	s.state.waitingToDeploy = false
	s.generation++

	slog.Debug("Deploy", "cycle", cycle, "sets", len(s.state.active), "generation", s.generation)
	slog.Info("Deployed fresh posts",
		"cycle", cycle,
		"sets", len(s.state.active),
		"since_received", s.now().Sub(s.state.lastReceivedAt))

	if s.rotationEnabled && s.state.hasValidData && len(s.state.active) > 1 {
		s.rotateTimer.start()
	} else {
		s.rotateTimer.stop()
	}
	s.push(models.PushDeploy)
}

func (s *Scheduler) onRotate() {
	if len(s.state.active) == 0 {
		s.rotateTimer.stop()
		return
	}
	next := (s.state.activeIndex + 1) % len(s.state.active)
	if next == 0 && s.state.waitingToDeploy && !s.forceImmediate {
		s.deploy()
		return
	}
	s.state.activeIndex = next
	slog.Debug("Rotate", "active_index", next, "sets", len(s.state.active))
	s.push(models.PushRotate)
}

func (s *Scheduler) push(reason models.PushReason) {
	p := models.DisplayPush{
		Sets:         s.state.active,
		ActiveIndex:  s.state.activeIndex,
		HasValidData: s.state.hasValidData,
		Header:       s.header,
		Toggles:      s.toggles,
		DisplayType:  s.displayType,
		Reason:       reason,
		Generation:   s.generation,
		PushedAt:     s.now(),
	}
	if err := s.surface.Push(s.ctx, p); err != nil {
		slog.Warn("Display push failed", "reason", reason, "error", err)
	}
}
