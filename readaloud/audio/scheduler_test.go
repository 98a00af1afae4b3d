package audio

import (
	"testing"
	"time"
)

func TestManualSchedulerFiresAtIntervals(t *testing.T) {
	sched := NewManualScheduler()

	var fired []time.Time
	sched.Schedule(10*time.Millisecond, func(now time.Time) bool {
		fired = append(fired, now)
		return true
	})

	start := sched.Now()
	sched.Advance(35 * time.Millisecond)

	if len(fired) != 3 {
		t.Fatalf("fired %d times, want 3", len(fired))
	}
	for i, ts := range fired {
		want := start.Add(time.Duration(i+1) * 10 * time.Millisecond)
		if !ts.Equal(want) {
			t.Errorf("tick %d at %v, want %v", i, ts, want)
		}
	}
	if got := sched.Now().Sub(start); got != 35*time.Millisecond {
		t.Errorf("clock advanced %v, want 35ms", got)
	}
}

func TestManualSchedulerStop(t *testing.T) {
	sched := NewManualScheduler()

	count := 0
	stop := sched.Schedule(10*time.Millisecond, func(time.Time) bool {
		count++
		return true
	})

	sched.Advance(20 * time.Millisecond)
	stop()
	sched.Advance(50 * time.Millisecond)

	if count != 2 {
		t.Errorf("fired %d times after stop, want 2", count)
	}
}

func TestManualSchedulerCallbackReturnFalseStops(t *testing.T) {
	sched := NewManualScheduler()

	count := 0
	sched.Schedule(10*time.Millisecond, func(time.Time) bool {
		count++
		return count < 2
	})

	sched.Advance(100 * time.Millisecond)

	if count != 2 {
		t.Errorf("fired %d times, want 2", count)
	}
}

func TestManualSchedulerInterleavesTasks(t *testing.T) {
	sched := NewManualScheduler()

	var order []string
	sched.Schedule(10*time.Millisecond, func(time.Time) bool {
		order = append(order, "fast")
		return true
	})
	sched.Schedule(15*time.Millisecond, func(time.Time) bool {
		order = append(order, "slow")
		return true
	})

	sched.Advance(30 * time.Millisecond)

	want := []string{"fast", "slow", "fast", "fast", "slow"}
	if len(order) != len(want) {
		t.Fatalf("fired %d times, want %d (%v)", len(order), len(want), order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("firing order %v, want %v", order, want)
		}
	}
}

func TestTickerSchedulerStopsCleanly(t *testing.T) {
	sched := NewTickerScheduler()

	fired := make(chan struct{}, 16)
	stop := sched.Schedule(time.Millisecond, func(time.Time) bool {
		select {
		case fired <- struct{}{}:
		default:
		}
		return true
	})

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("ticker never fired")
	}

	stop()
	stop() // idempotent
}
