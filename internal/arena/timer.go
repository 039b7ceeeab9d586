package arena

import "time"

// UrgentThreshold is the remaining-seconds mark below which the countdown is urgent.
const UrgentThreshold = 5

// Scheduler runs f once after d. The returned stop func cancels it if it has not fired.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) (stop func() bool)
}

// RealScheduler schedules on wall-clock time.
type RealScheduler struct{}

func (RealScheduler) AfterFunc(d time.Duration, f func()) func() bool {
	t := time.AfterFunc(d, f)
	return t.Stop
}

// Tick is reported once per countdown step.
type Tick struct {
	Remaining int  `json:"remaining"`
	Urgent    bool `json:"urgent"`
	Cue       bool `json:"cue"`
}

func newTick(remaining int) Tick {
	return Tick{
		Remaining: remaining,
		Urgent:    remaining <= UrgentThreshold,
		Cue:       remaining > 0 && remaining <= UrgentThreshold,
	}
}

// Countdown is the per-question timer. Callbacks run on whatever goroutine the
// Scheduler fires on, so it must be driven from a single goroutine (see Loop).
type Countdown struct {
	sched    Scheduler
	interval time.Duration

	gen       uint64
	running   bool
	remaining int
	stop      func() bool
	onTick    func(Tick)
	onExpire  func()
}

func NewCountdown(sched Scheduler, interval time.Duration) *Countdown {
	return &Countdown{sched: sched, interval: interval}
}

// Start cancels any running countdown and begins a new one from limit seconds.
func (c *Countdown) Start(limit int, onTick func(Tick), onExpire func()) {
	c.Stop()
	c.gen++
	c.running = true
	c.remaining = limit
	c.onTick = onTick
	c.onExpire = onExpire
	c.schedule(c.gen)
}

// Stop halts ticking and suppresses expiry.
func (c *Countdown) Stop() {
	if !c.running {
		return
	}
	c.running = false
	c.gen++
	if c.stop != nil {
		c.stop()
		c.stop = nil
	}
}

func (c *Countdown) Remaining() int {
	return c.remaining
}

func (c *Countdown) Running() bool {
	return c.running
}

func (c *Countdown) schedule(gen uint64) {
	c.stop = c.sched.AfterFunc(c.interval, func() { c.tick(gen) })
}

func (c *Countdown) tick(gen uint64) {
	if gen != c.gen || !c.running {
		return
	}
	c.remaining--
	if c.remaining < 0 {
		c.remaining = 0
	}
	if c.onTick != nil {
		c.onTick(newTick(c.remaining))
	}
	if gen != c.gen {
		return
	}
	if c.remaining <= 0 {
		c.running = false
		c.stop = nil
		if c.onExpire != nil {
			c.onExpire()
		}
		return
	}
	c.schedule(gen)
}
