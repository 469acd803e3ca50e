// services/supervisor/supervisor.go
package supervisor

import (
	"context"
	"errors"
	"time"

	"powerboot-go/bus"
	"powerboot-go/drivers/ltc4015"
	"powerboot-go/hal"
)

var errBadWakePin = errors.New("power presence pin unavailable")

// -----------------------------------------------------------------------------
// Topics
// -----------------------------------------------------------------------------

var (
	topicConfig   = bus.T("config", "supervisor")
	topicState    = bus.T("supervisor", "state")
	topicVSYS     = bus.T("supervisor", "vsys")
	topicDecision = bus.T("supervisor", "decision")
	topicWake     = bus.T("supervisor", "wake")
	topicCharger  = bus.T("supervisor", "charger")
)

// Loop states, published retained on supervisor/state.
const (
	StateSampling = "sampling"
	StateDeciding = "deciding"
	StateSleeping = "sleeping"
	StateBooting  = "booting"
)

// -----------------------------------------------------------------------------
// Service
// -----------------------------------------------------------------------------

// Service is the decision loop gating the application firmware on the
// measured supply voltage.
type Service struct {
	cfg   Config
	board hal.Board
	conn  *bus.Connection

	sensor  *VoltageSensor
	monitor *WakeMonitor
	sleeper *SleepController
	booter  *FirmwareBooter
	charger *ltc4015.Monitor
}

// New wires the supervisor components from a board and config.
// charger may be nil; it is also ignored when cfg.ChargerAddr is zero.
func New(board hal.Board, conn *bus.Connection, cfg Config, charger *ltc4015.Monitor) (*Service, error) {
	pin, ok := board.Pins.ByNumber(cfg.PowerPresencePin)
	if !ok {
		return nil, errBadWakePin
	}

	s := &Service{cfg: cfg, board: board, conn: conn, charger: charger}
	if cfg.ChargerAddr == 0 {
		s.charger = nil
	}
	s.sensor = NewVoltageSensor(board.ADC, cfg.ADCPin, cfg.ADCChannel)
	s.monitor = NewWakeMonitor(pin, board.LowPower, board.Reset, cfg.WakePolicy)
	s.sleeper = NewSleepController(board.Clock, board.LowPower, cfg.SleepMode, s.monitor.Wake())
	s.booter = NewFirmwareBooter(board.CPU, board.Flash)
	return s, nil
}

// RunFromBus waits for the retained config/supervisor section, then runs
// the loop until handoff (or ctx cancellation on hosted builds).
func RunFromBus(ctx context.Context, conn *bus.Connection, board hal.Board, charger *ltc4015.Monitor) {
	cfgSub := conn.Subscribe(topicConfig)
	defer conn.Unsubscribe(cfgSub)

	cfg := DefaultConfig()
	select {
	case <-ctx.Done():
		return
	case msg := <-cfgSub.Channel():
		cfg = ConfigFromPayload(msg.Payload)
	case <-time.After(2 * time.Second):
		println("Info: supervisor: no config, using defaults")
	}

	s, err := New(board, conn, cfg, charger)
	if err != nil {
		println("Error: supervisor:", err.Error())
		return
	}
	s.Run(ctx)
}

// Run iterates the decision loop forever. The only exits are the
// firmware handoff (which does not return on hardware) and ctx
// cancellation, which exists for hosted runs only.
func (s *Service) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if s.Iterate() {
			// Hosted build with a recording CPU: the handoff
			// "happened", stop looping.
			return
		}
	}
}

// Iterate performs one pass of the state machine:
//
//	sample → boot | (arm wake, sleep, maybe re-check) → repeat
//
// It returns true when the firmware handoff was invoked.
func (s *Service) Iterate() bool {
	s.publishState(StateSampling)
	mv := s.sensor.MeasureVSYS()
	s.publish(topicVSYS, mv, true)

	s.publishState(StateDeciding)

	// Fully charged or externally powered: hand off immediately.
	if mv > s.cfg.BootMV {
		return s.boot("charged")
	}

	// Re-arming every iteration is safe: exactly one handler stays
	// installed.
	if err := s.monitor.Arm(); err != nil {
		println("Error: supervisor: arm wake:", err.Error())
	}
	s.chargerSnapshot()

	if mv > s.cfg.MinMV {
		reason := s.sleep()
		s.publish(topicWake, reason.String(), false)

		// The pre-sleep reading is stale after tens of minutes;
		// confirm against the floor before trusting it.
		recheck := s.sensor.MeasureVSYS()
		s.publish(topicVSYS, recheck, true)
		if recheck > s.cfg.FloorMV {
			return s.boot("post_sleep")
		}
		s.publish(topicDecision, "hold", false)
		return false
	}

	// At or below the minimum: sleep and re-evaluate from scratch,
	// whatever the post-sleep voltage looks like.
	reason := s.sleep()
	s.publish(topicWake, reason.String(), false)
	s.publish(topicDecision, "hold", false)
	return false
}

func (s *Service) sleep() WakeReason {
	s.publishState(StateSleeping)
	return s.sleeper.Sleep(s.cfg.SleepMinutes)
}

func (s *Service) boot(why string) bool {
	s.publish(topicDecision, why, false)
	s.publishState(StateBooting)
	s.booter.Boot()
	return true
}

// chargerSnapshot publishes pre-sleep charger telemetry, best-effort.
func (s *Service) chargerSnapshot() {
	if s.charger == nil {
		return
	}
	snap, err := s.charger.Read()
	if err != nil {
		println("Info: supervisor: charger read failed:", err.Error())
		return
	}
	s.publish(topicCharger, snap, true)
}

func (s *Service) publishState(state string) {
	s.publish(topicState, state, true)
}

func (s *Service) publish(t bus.Topic, payload any, retained bool) {
	if s.conn == nil {
		return
	}
	s.conn.Publish(s.conn.NewMessage(t, payload, retained))
}
