package audio

import (
	"sync"
	"time"
)

// Scheduler is the tick source driving crossfade polling. Abstracting the
// tick keeps transition logic synchronous and deterministic under test;
// production uses a plain ticker.
type Scheduler interface {
	// Schedule invokes fn on every tick until fn returns false or the
	// returned stop function is called.
	Schedule(interval time.Duration, fn func(now time.Time) bool) (stop func())

	// Now returns the scheduler's notion of the current time.
	Now() time.Time
}

// TickerScheduler drives ticks from a time.Ticker.
type TickerScheduler struct{}

// NewTickerScheduler returns the production scheduler.
func NewTickerScheduler() *TickerScheduler {
	return &TickerScheduler{}
}

// Schedule runs fn on a ticker goroutine.
func (s *TickerScheduler) Schedule(interval time.Duration, fn func(now time.Time) bool) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	var once sync.Once
	stop := func() { once.Do(func() { close(done) }) }

	go func() {
		defer ticker.Stop()
		for {
			select {
			case now := <-ticker.C:
				if !fn(now) {
					return
				}
			case <-done:
				return
			}
		}
	}()
	return stop
}

// Now returns the wall clock time.
func (s *TickerScheduler) Now() time.Time {
	return time.Now()
}

// ManualScheduler is a deterministic Scheduler for tests: time only moves
// when Advance is called, and callbacks fire synchronously on the calling
// goroutine.
type ManualScheduler struct {
	mu    sync.Mutex
	now   time.Time
	tasks []*manualTask
}

type manualTask struct {
	interval time.Duration
	next     time.Time
	fn       func(now time.Time) bool
	stopped  bool
}

// NewManualScheduler creates a manual scheduler starting at an arbitrary
// fixed instant.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{now: time.Unix(1_700_000_000, 0)}
}

// Schedule registers fn to run every interval of virtual time.
func (s *ManualScheduler) Schedule(interval time.Duration, fn func(now time.Time) bool) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	task := &manualTask{interval: interval, next: s.now.Add(interval), fn: fn}
	s.tasks = append(s.tasks, task)
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		task.stopped = true
	}
}

// Now returns the current virtual time.
func (s *ManualScheduler) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// Advance moves virtual time forward, firing due callbacks in order.
func (s *ManualScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	target := s.now.Add(d)
	s.mu.Unlock()

	for {
		s.mu.Lock()
		var due *manualTask
		earliest := target.Add(time.Nanosecond)
		for _, t := range s.tasks {
			if t.stopped {
				continue
			}
			if !t.next.After(target) && t.next.Before(earliest) {
				due = t
				earliest = t.next
			}
		}
		if due == nil {
			s.now = target
			s.mu.Unlock()
			return
		}
		s.now = due.next
		due.next = due.next.Add(due.interval)
		fn := due.fn
		s.mu.Unlock()

		// Fire outside the lock so callbacks can re-schedule or stop.
		if !fn(earliest) {
			s.mu.Lock()
			due.stopped = true
			s.mu.Unlock()
		}
	}
}
