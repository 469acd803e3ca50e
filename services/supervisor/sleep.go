// services/supervisor/sleep.go
package supervisor

import (
	"time"

	"powerboot-go/hal"
)

// SleepController spends one sleep cycle and reports why it ended.
type SleepController struct {
	clock hal.Clock
	lp    hal.LowPower
	mode  SleepMode
	wake  <-chan WakeReason
}

// NewSleepController builds a controller; wake is the monitor's handoff
// channel and is only consulted in SleepLowPower mode.
func NewSleepController(clock hal.Clock, lp hal.LowPower, mode SleepMode, wake <-chan WakeReason) *SleepController {
	return &SleepController{clock: clock, lp: lp, mode: mode, wake: wake}
}

// Sleep blocks for the requested duration. In timer mode the deadline is
// absolute and uninterruptible. In low-power mode the core suspends on
// the low-power clock with an alarm armed, and a power-presence edge ends
// the cycle early; clocks are restored before returning either way, so
// callers never observe sleep-mode state.
func (c *SleepController) Sleep(minutes uint32) WakeReason {
	d := time.Duration(minutes) * time.Minute

	if c.mode == SleepTimer {
		c.clock.BlockUntil(c.clock.Now().Add(d))
		return TimerExpired
	}

	_ = c.lp.UseLowPowerClock()
	_ = c.lp.SuspendWithAlarm(d)
	_ = c.lp.RestoreNormal()

	select {
	case r := <-c.wake:
		return r
	default:
		return TimerExpired
	}
}
