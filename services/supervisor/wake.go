// services/supervisor/wake.go
package supervisor

import "powerboot-go/hal"

// WakeMonitor watches the power-presence line (USB or solar input) for a
// rising edge and turns it into an early wake. The edge is delivered to
// the sleeping path through a single-slot channel, so no flag is shared
// between interrupt and thread context.
type WakeMonitor struct {
	pin    hal.IRQPin
	lp     hal.LowPower
	reset  hal.Resetter
	policy WakePolicy

	wake       chan WakeReason
	configured bool
}

func NewWakeMonitor(pin hal.IRQPin, lp hal.LowPower, reset hal.Resetter, policy WakePolicy) *WakeMonitor {
	return &WakeMonitor{
		pin:    pin,
		lp:     lp,
		reset:  reset,
		policy: policy,
		wake:   make(chan WakeReason, 1),
	}
}

// Wake is the handoff channel read by the SleepController.
func (m *WakeMonitor) Wake() <-chan WakeReason { return m.wake }

// Arm (re-)installs the rising-edge handler. SetIRQ replaces any
// previous handler for the pin, so arming once per loop iteration never
// accumulates handlers. A wake reason left over from a redundant edge
// while running is discarded; the next voltage sample reflects it anyway.
func (m *WakeMonitor) Arm() error {
	if !m.configured {
		if err := m.pin.ConfigureInput(hal.PullNone); err != nil {
			return err
		}
		m.configured = true
	}
	select {
	case <-m.wake:
	default:
	}
	return m.pin.SetIRQ(hal.EdgeRising, m.onEdge)
}

// Disarm removes the handler.
func (m *WakeMonitor) Disarm() error { return m.pin.ClearIRQ() }

// onEdge runs in interrupt context, possibly with the core just out of
// low-power suspend. It only restores power state and either resets or
// passes the reason on; no other shared state is touched.
func (m *WakeMonitor) onEdge() {
	_ = m.lp.RestoreNormal()

	if m.policy == WakeRestart {
		// Eager restart: re-enter the decision loop from scratch.
		m.reset.ResetViaWatchdog()
		return
	}
	select {
	case m.wake <- ExternalPowerDetected:
	default:
	}
}
