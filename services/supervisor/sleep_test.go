// services/supervisor/sleep_test.go
package supervisor

import (
	"testing"
	"time"
)

func TestTimerSleepBlocksToDeadline(t *testing.T) {
	clock := newFakeClock()
	start := clock.Now()
	c := NewSleepController(clock, &fakeLowPower{}, SleepTimer, nil)

	reason := c.Sleep(30)

	if reason != TimerExpired {
		t.Errorf("reason = %v, want TimerExpired", reason)
	}
	if len(clock.blockedTo) != 1 {
		t.Fatalf("BlockUntil calls = %d, want 1", len(clock.blockedTo))
	}
	if want := start.Add(30 * time.Minute); !clock.blockedTo[0].Equal(want) {
		t.Errorf("deadline = %v, want %v", clock.blockedTo[0], want)
	}
}

func TestTimerSleepNeverInterrupted(t *testing.T) {
	// Even with a wake reason pending, timer mode reports TimerExpired.
	wake := make(chan WakeReason, 1)
	wake <- ExternalPowerDetected

	c := NewSleepController(newFakeClock(), &fakeLowPower{}, SleepTimer, wake)
	if reason := c.Sleep(1); reason != TimerExpired {
		t.Errorf("reason = %v, want TimerExpired", reason)
	}
}

func TestLowPowerSleepSequence(t *testing.T) {
	lp := &fakeLowPower{}
	wake := make(chan WakeReason, 1)
	c := NewSleepController(newFakeClock(), lp, SleepLowPower, wake)

	reason := c.Sleep(30)

	if reason != TimerExpired {
		t.Errorf("reason = %v, want TimerExpired", reason)
	}
	want := []string{"lowclock", "suspend", "restore"}
	if len(lp.log) != len(want) {
		t.Fatalf("log = %v, want %v", lp.log, want)
	}
	for i := range want {
		if lp.log[i] != want[i] {
			t.Fatalf("log = %v, want %v", lp.log, want)
		}
	}
}

func TestLowPowerSleepEarlyWake(t *testing.T) {
	wake := make(chan WakeReason, 1)
	lp := &fakeLowPower{}
	// Simulate the power-presence edge arriving mid-suspend.
	lp.duringSuspend = func() { wake <- ExternalPowerDetected }

	c := NewSleepController(newFakeClock(), lp, SleepLowPower, wake)
	if reason := c.Sleep(30); reason != ExternalPowerDetected {
		t.Errorf("reason = %v, want ExternalPowerDetected", reason)
	}
	// Clocks restored regardless of the wake source.
	if lp.log[len(lp.log)-1] != "restore" {
		t.Errorf("last low-power call = %q, want restore", lp.log[len(lp.log)-1])
	}
}
