package sim

import (
	"sync"
	"time"

	"github.com/SlugMacro/wm-fe-sub000/internal/clock"
)

// Task runs fn every interval on a clock until stopped. The next run is
// scheduled only after fn returns, so runs never overlap.
type Task struct {
	clk      clock.Clock
	interval time.Duration
	fn       func()

	mu      sync.Mutex
	timer   clock.Timer
	running bool
	// gen changes on every Start and Stop; a run only reschedules itself
	// while gen still matches the generation that scheduled it.
	gen uint64
}

// NewTask returns a stopped Task.
func NewTask(clk clock.Clock, interval time.Duration, fn func()) *Task {
	return &Task{clk: clk, interval: interval, fn: fn}
}

// Start schedules the first run one interval from now. Starting a running
// task is a no-op.
func (t *Task) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		return
	}
	t.running = true
	t.gen++
	t.scheduleLocked(t.gen)
}

// Stop cancels the pending run.
func (t *Task) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.running = false
	t.gen++
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}

func (t *Task) scheduleLocked(gen uint64) {
	t.timer = t.clk.AfterFunc(t.interval, func() { t.fire(gen) })
}

func (t *Task) fire(gen uint64) {
	t.mu.Lock()
	if !t.running || t.gen != gen {
		t.mu.Unlock()
		return
	}
	t.mu.Unlock()

	t.fn()

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running && t.gen == gen {
		t.scheduleLocked(gen)
	}
}
