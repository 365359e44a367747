// Package scheduler runs deferred saga continuations. A continuation is a
// command submitted to the processor when its timer fires; it never touches
// saga state itself. There is at most one pending continuation per
// correlation key, and scheduling again replaces it.
package scheduler

import (
	"sync"
	"time"

	"github.com/zjrosen/namebridge/internal/correlation"
	"github.com/zjrosen/namebridge/internal/log"
	"github.com/zjrosen/namebridge/internal/orchestration/command"
)

// CommandSubmitter accepts commands for asynchronous execution.
type CommandSubmitter interface {
	Submit(cmd command.Command) error
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock overrides the real clock.
func WithClock(c Clock) Option {
	return func(s *Scheduler) {
		s.clock = c
	}
}

// Scheduler holds one cancellable timer per correlation key.
type Scheduler struct {
	clock     Clock
	submitter CommandSubmitter

	mu      sync.Mutex
	entries map[string]*entry
	stopped bool

	wg sync.WaitGroup
}

type entry struct {
	key    correlation.Key
	cmd    command.Command
	at     time.Time
	timer  Timer
	cancel chan struct{}
}

// New creates a Scheduler that submits fired continuations to submitter.
func New(submitter CommandSubmitter, opts ...Option) *Scheduler {
	s := &Scheduler{
		clock:     RealClock{},
		submitter: submitter,
		entries:   make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now exposes the scheduler clock so handlers and timers agree on time.
func (s *Scheduler) Now() time.Time {
	return s.clock.Now()
}

// Schedule submits cmd after d. Any continuation already pending for key is
// cancelled first. A non-positive d fires on the next timer tick.
func (s *Scheduler) Schedule(key correlation.Key, d time.Duration, cmd command.Command) {
	if d < 0 {
		d = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		log.Warn(log.CatOrch, "Schedule after stop ignored", "key", key.String(), "command", cmd.Type())
		return
	}

	k := key.String()
	if prev, ok := s.entries[k]; ok {
		s.release(prev)
	}

	e := &entry{
		key:    key,
		cmd:    cmd,
		at:     s.clock.Now().Add(d),
		timer:  s.clock.NewTimer(d),
		cancel: make(chan struct{}),
	}
	s.entries[k] = e
	s.wg.Add(1)
	go s.wait(e)

	log.Debug(log.CatOrch, "Scheduled continuation", "key", k, "command", cmd.Type(), "delay", d)
}

// Cancel drops the continuation pending for key. It reports whether one existed.
func (s *Scheduler) Cancel(key correlation.Key) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key.String()]
	if !ok {
		return false
	}
	s.release(e)
	log.Debug(log.CatOrch, "Cancelled continuation", "key", key.String())
	return true
}

// Pending reports when the continuation for key is due.
func (s *Scheduler) Pending(key correlation.Key) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key.String()]
	if !ok {
		return time.Time{}, false
	}
	return e.at, true
}

// Len returns the number of pending continuations.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Stop cancels every pending continuation and waits for the timer goroutines
// to exit. Schedule is a no-op afterwards. Safe to call multiple times.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	for _, e := range s.entries {
		s.release(e)
	}
	s.mu.Unlock()

	s.wg.Wait()
}

// release must be called with mu held.
func (s *Scheduler) release(e *entry) {
	delete(s.entries, e.key.String())
	e.timer.Stop()
	close(e.cancel)
}

func (s *Scheduler) wait(e *entry) {
	defer s.wg.Done()

	select {
	case <-e.timer.C():
	case <-e.cancel:
		return
	}

	s.mu.Lock()
	current, ok := s.entries[e.key.String()]
	if !ok || current != e {
		// Cancelled or replaced while the fire was in flight.
		s.mu.Unlock()
		return
	}
	delete(s.entries, e.key.String())
	s.mu.Unlock()

	if err := s.submitter.Submit(e.cmd); err != nil {
		log.ErrorErr(log.CatOrch, "Failed to submit continuation", err, "key", e.key.String(), "command", e.cmd.Type())
	}
}
