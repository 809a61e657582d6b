package processor

import "time"

// task is a restartable periodic timer owned by the scheduler loop. It is
// not safe for concurrent use.
type task struct {
	period time.Duration
	ticker *time.Ticker
}

func newTask(period time.Duration) *task {
	return &task{period: period}
}

// start (re)arms the task. A running ticker is replaced, never stacked.
func (t *task) start() {
	t.stop()
	t.ticker = time.NewTicker(t.period)
}

func (t *task) stop() {
	if t.ticker != nil {
		t.ticker.Stop()
		t.ticker = nil
	}
}

func (t *task) running() bool {
	return t.ticker != nil
}

// C returns the tick channel, or nil while stopped so a select never fires.
func (t *task) C() <-chan time.Time {
	if t.ticker == nil {
		return nil
	}
	return t.ticker.C
}
