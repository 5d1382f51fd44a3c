package progress

import (
	"sync"
	"time"
)

// Coalescer collapses bursts of persistence requests into a single flush
// that runs once the configured delay has passed since the last trigger.
type Coalescer struct {
	mu    sync.Mutex
	delay time.Duration
	timer *time.Timer
	flush func()
}

func NewCoalescer(delay time.Duration, flush func()) *Coalescer {
	return &Coalescer{delay: delay, flush: flush}
}

// Trigger schedules a flush, replacing any pending one.
func (c *Coalescer) Trigger() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.delay, c.flush)
}

// FlushNow cancels any pending flush and runs it immediately.
func (c *Coalescer) FlushNow() {
	c.mu.Lock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.mu.Unlock()
	c.flush()
}

// Stop cancels any pending flush without running it.
func (c *Coalescer) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}
