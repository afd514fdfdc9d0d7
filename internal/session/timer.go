package session

import (
	"sync"
	"time"
)

// Countdown is the exam wall clock: one tick per interval decrements the
// remaining seconds, and reaching zero fires onExpire exactly once. Cancel is
// idempotent and makes any in-flight tick a no-op, guarding the submission
// path against a late timer firing.
type Countdown struct {
	mu        sync.Mutex
	remaining int
	interval  time.Duration
	done      chan struct{}
	stopOnce  sync.Once
	onExpire  func()
}

// NewCountdown builds a countdown of the given seconds. interval is the tick
// period, one second in production.
func NewCountdown(seconds int, interval time.Duration, onExpire func()) *Countdown {
	return &Countdown{
		remaining: seconds,
		interval:  interval,
		done:      make(chan struct{}),
		onExpire:  onExpire,
	}
}

// Start launches the tick loop.
func (c *Countdown) Start() {
	go c.run()
}

func (c *Countdown) run() {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.mu.Lock()
			c.remaining--
			rem := c.remaining
			c.mu.Unlock()
			if rem <= 0 {
				c.Cancel()
				if c.onExpire != nil {
					c.onExpire()
				}
				return
			}
		}
	}
}

// Cancel stops the tick loop. Safe to call any number of times.
func (c *Countdown) Cancel() {
	c.stopOnce.Do(func() { close(c.done) })
}

// Remaining returns the seconds left on the clock.
func (c *Countdown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.remaining < 0 {
		return 0
	}
	return c.remaining
}

// Heartbeat periodically reports a wall-clock instant to the presence store,
// independent of the countdown state. Cancellation is idempotent; a beat
// never fires after Cancel returns the loop.
type Heartbeat struct {
	interval time.Duration
	beat     func(at time.Time)
	done     chan struct{}
	stopOnce sync.Once
}

// NewHeartbeat builds a heartbeat firing beat every interval, one minute in
// production.
func NewHeartbeat(interval time.Duration, beat func(at time.Time)) *Heartbeat {
	return &Heartbeat{
		interval: interval,
		beat:     beat,
		done:     make(chan struct{}),
	}
}

// Start launches the beat loop.
func (h *Heartbeat) Start() {
	go h.run()
}

func (h *Heartbeat) run() {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	for {
		select {
		case <-h.done:
			return
		case <-ticker.C:
			h.beat(time.Now())
		}
	}
}

// Cancel stops the beat loop. Safe to call any number of times.
func (h *Heartbeat) Cancel() {
	h.stopOnce.Do(func() { close(h.done) })
}
