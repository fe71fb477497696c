// Package backoff is the retry primitive behind every poller: a
// trigger-driven stream whose n-th emission arrives after
// min(n*Interval*Multiplier, MaxDelay).
package backoff

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

var (
	// ErrTimeout is emitted once when Timeout or Deadline passes.
	ErrTimeout = errors.New("timeout")
	// ErrStopped is emitted once after Stop.
	ErrStopped = errors.New("stopped")
)

// Config tunes a Scheduler. Timeout is relative to New; Deadline is absolute.
// When both are set the earlier one wins. Neither set means no bound.
type Config struct {
	Multiplier float64
	MaxDelay   time.Duration
	Interval   time.Duration
	Timeout    time.Duration
	Deadline   time.Time
}

// DefaultConfig returns the tunables used by the gateway pollers.
func DefaultConfig() Config {
	return Config{
		Multiplier: 2,
		MaxDelay:   10 * time.Second,
		Interval:   1 * time.Second,
	}
}

// Validate rejects a schedule that would shrink or never advance.
func (c Config) Validate() error {
	switch {
	case c.Multiplier < 1:
		return fmt.Errorf("multiplier %v must be at least 1", c.Multiplier)
	case c.Interval <= 0:
		return errors.New("interval must be positive")
	case c.MaxDelay > 0 && c.MaxDelay < c.Interval:
		return fmt.Errorf("max delay %s is below interval %s", c.MaxDelay, c.Interval)
	}
	return nil
}

// Delay returns the wait before emission n (0-based).
func Delay(cfg Config, n int) time.Duration {
	if n <= 0 || cfg.Interval <= 0 {
		return 0
	}
	delay := float64(n) * float64(cfg.Interval) * cfg.Multiplier
	if cfg.MaxDelay > 0 && delay > float64(cfg.MaxDelay) {
		delay = float64(cfg.MaxDelay)
	}
	return time.Duration(delay)
}

// Result is one emission: N on success, or a terminal Err.
type Result struct {
	N   int
	Err error
}

// Scheduler emits Result values on C. After an ok emission it waits for
// Trigger before scheduling the next one. The stream ends with exactly one
// error result, after which C is closed.
type Scheduler struct {
	cfg     Config
	out     chan Result
	trigger chan struct{}
	stop    chan struct{}
	once    sync.Once
}

// New starts a Scheduler. Emission 0 is due immediately.
func New(cfg Config) *Scheduler {
	s := &Scheduler{
		cfg: cfg,
		// one pending ok plus the terminal error never block the loop
		out:     make(chan Result, 2),
		trigger: make(chan struct{}, 1),
		stop:    make(chan struct{}),
	}
	go s.run(time.Now())
	return s
}

// C returns the emission channel.
func (s *Scheduler) C() <-chan Result { return s.out }

// Trigger requests the next emission. Extra triggers before it is scheduled
// coalesce.
func (s *Scheduler) Trigger() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

// Stop halts the stream; it emits ErrStopped unless already finished.
func (s *Scheduler) Stop() { s.once.Do(func() { close(s.stop) }) }

func (s *Scheduler) run(start time.Time) {
	defer close(s.out)

	var expired <-chan time.Time
	if deadline, ok := s.deadline(start); ok {
		if !deadline.After(start) {
			s.out <- Result{Err: ErrTimeout}
			return
		}
		t := time.NewTimer(time.Until(deadline))
		defer t.Stop()
		expired = t.C
	}

	for n := 0; ; n++ {
		wait := time.NewTimer(Delay(s.cfg, n))
		select {
		case <-wait.C:
		case <-expired:
			wait.Stop()
			s.out <- Result{N: n, Err: ErrTimeout}
			return
		case <-s.stop:
			wait.Stop()
			s.out <- Result{N: n, Err: ErrStopped}
			return
		}

		// timeout and stop take precedence over a simultaneously due tick
		select {
		case <-expired:
			s.out <- Result{N: n, Err: ErrTimeout}
			return
		case <-s.stop:
			s.out <- Result{N: n, Err: ErrStopped}
			return
		default:
		}
		s.out <- Result{N: n}

		select {
		case <-s.trigger:
		case <-expired:
			s.out <- Result{N: n, Err: ErrTimeout}
			return
		case <-s.stop:
			s.out <- Result{N: n, Err: ErrStopped}
			return
		}
	}
}

func (s *Scheduler) deadline(start time.Time) (time.Time, bool) {
	var (
		d  time.Time
		ok bool
	)
	if s.cfg.Timeout > 0 {
		d, ok = start.Add(s.cfg.Timeout), true
	}
	if !s.cfg.Deadline.IsZero() && (!ok || s.cfg.Deadline.Before(d)) {
		d, ok = s.cfg.Deadline, true
	}
	return d, ok
}
