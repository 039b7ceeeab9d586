package arena

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// ErrLoopStopped is returned for calls made after the loop exited.
var ErrLoopStopped = errors.New("arena loop stopped")

const eventBuffer = 32

// Loop owns a Machine and runs every mutation on the goroutine that calls Run.
// Human input and scheduled callbacks are queued as events.
type Loop struct {
	machine *Machine
	events  chan func()
	quit    chan struct{}
	log     *zap.Logger
}

// NewLoop builds a Machine whose scheduler posts callbacks back into the loop.
func NewLoop(cfg Config, opts Options) *Loop {
	l := &Loop{
		events: make(chan func(), eventBuffer),
		quit:   make(chan struct{}),
		log:    opts.Logger,
	}
	if l.log == nil {
		l.log = zap.NewNop()
	}
	inner := opts.Scheduler
	if inner == nil {
		inner = RealScheduler{}
	}
	opts.Scheduler = loopScheduler{inner: inner, loop: l}
	l.machine = NewMachine(cfg, opts)
	return l
}

func (l *Loop) Config() Config {
	return l.machine.Config()
}

// Run starts the game and processes events until it is over and persisted,
// or until ctx is cancelled, in which case the game is aborted.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.quit)
	if err := l.machine.Start(); err != nil {
		return err
	}
	for {
		select {
		case fn := <-l.events:
			fn()
		case <-l.machine.Done():
			return nil
		case <-ctx.Done():
			l.machine.Abort()
			l.log.Debug("arena loop cancelled", zap.Error(ctx.Err()))
			return ctx.Err()
		}
	}
}

// Select forwards a human pick to the controller.
func (l *Loop) Select(choice int) error {
	return l.call(func() error { return l.machine.Select(choice) })
}

// Advance requests the next question.
func (l *Loop) Advance() error {
	return l.call(l.machine.Advance)
}

// Snapshot returns the current state as seen by the loop goroutine.
func (l *Loop) Snapshot() (State, error) {
	var st State
	err := l.call(func() error {
		st = l.machine.State()
		return nil
	})
	return st, err
}

// Stopped is closed when Run returns.
func (l *Loop) Stopped() <-chan struct{} {
	return l.quit
}

func (l *Loop) call(fn func() error) error {
	errc := make(chan error, 1)
	if !l.post(func() { errc <- fn() }) {
		return ErrLoopStopped
	}
	select {
	case err := <-errc:
		return err
	case <-l.quit:
		return ErrLoopStopped
	}
}

func (l *Loop) post(fn func()) bool {
	select {
	case <-l.quit:
		return false
	default:
	}
	select {
	case l.events <- fn:
		return true
	case <-l.quit:
		return false
	}
}

type loopScheduler struct {
	inner Scheduler
	loop  *Loop
}

func (s loopScheduler) AfterFunc(d time.Duration, f func()) func() bool {
	return s.inner.AfterFunc(d, func() { s.loop.post(f) })
}
