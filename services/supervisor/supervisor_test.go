// services/supervisor/supervisor_test.go
package supervisor

import (
	"testing"
	"time"

	"powerboot-go/bus"
)

type scenario struct {
	adc   *scriptADC
	clock *fakeClock
	lp    *fakeLowPower
	pin   *fakePin
	reset *fakeReset
	cpu   *fakeCPU
	svc   *Service
}

func newScenario(t *testing.T, cfg Config, levels []uint32, conn *bus.Connection) *scenario {
	t.Helper()
	sc := &scenario{
		adc:   &scriptADC{levels: levels},
		clock: newFakeClock(),
		lp:    &fakeLowPower{},
		pin:   &fakePin{n: cfg.PowerPresencePin},
		reset: &fakeReset{},
		cpu:   &fakeCPU{},
	}
	flash := fakeFlash{0x10000100: 0x20041000, 0x10000104: 0x10000200}
	board := testBoard(sc.adc, sc.clock, sc.lp, sc.pin, sc.reset, sc.cpu, flash)
	svc, err := New(board, conn, cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	sc.svc = svc
	return sc
}

func TestScenarioChargedBootsImmediately(t *testing.T) {
	sc := newScenario(t, DefaultConfig(), []uint32{4500}, nil)

	if booted := sc.svc.Iterate(); !booted {
		t.Fatal("expected handoff at 4500 mV")
	}
	if sc.cpu.branches != 1 {
		t.Errorf("branches = %d, want 1", sc.cpu.branches)
	}
	if len(sc.clock.blockedTo) != 0 {
		t.Errorf("slept before handoff: %v", sc.clock.blockedTo)
	}
	if sc.pin.sets != 0 {
		t.Errorf("wake watch armed %d times before immediate handoff, want 0", sc.pin.sets)
	}
}

func TestScenarioMidBandBootsAfterRecheck(t *testing.T) {
	// 3500 mV before sleep, 3100 mV after: above the 2800 mV floor.
	sc := newScenario(t, DefaultConfig(), []uint32{3500, 3100}, nil)

	if booted := sc.svc.Iterate(); !booted {
		t.Fatal("expected handoff after post-sleep confirmation")
	}
	if len(sc.clock.blockedTo) != 1 {
		t.Errorf("sleeps = %d, want 1", len(sc.clock.blockedTo))
	}
	if sc.pin.sets != 1 {
		t.Errorf("wake watch armed %d times, want 1", sc.pin.sets)
	}
	if sc.cpu.branches != 1 {
		t.Errorf("branches = %d, want 1", sc.cpu.branches)
	}
}

func TestScenarioMidBandHoldsBelowFloor(t *testing.T) {
	// Higher-floor variant: post-sleep 2900 mV fails the 3000 mV check.
	cfg := DefaultConfig()
	cfg.MinMV = 3200
	cfg.FloorMV = 3000
	sc := newScenario(t, cfg, []uint32{3500, 2900}, nil)

	if booted := sc.svc.Iterate(); booted {
		t.Fatal("must not boot on stale pre-sleep reading")
	}
	if len(sc.clock.blockedTo) != 1 {
		t.Errorf("sleeps = %d, want 1", len(sc.clock.blockedTo))
	}
	if sc.cpu.branches != 0 {
		t.Errorf("branches = %d, want 0", sc.cpu.branches)
	}
}

func TestScenarioLowVoltageSleepsWithoutRecheck(t *testing.T) {
	sc := newScenario(t, DefaultConfig(), []uint32{2500}, nil)

	if booted := sc.svc.Iterate(); booted {
		t.Fatal("must not boot at 2500 mV")
	}
	if len(sc.clock.blockedTo) != 1 {
		t.Errorf("sleeps = %d, want 1", len(sc.clock.blockedTo))
	}
	// The low branch does not re-sample after waking.
	if sc.adc.call != 1 {
		t.Errorf("measurement bursts = %d, want 1", sc.adc.call)
	}
}

func TestLoopArmsOncePerIteration(t *testing.T) {
	cfg := DefaultConfig()
	sc := newScenario(t, cfg, []uint32{2500, 2500, 2500}, nil)

	for i := 0; i < 3; i++ {
		if sc.svc.Iterate() {
			t.Fatal("unexpected handoff")
		}
	}
	if sc.pin.sets != 3 {
		t.Errorf("SetIRQ calls = %d, want 3", sc.pin.sets)
	}
	if sc.pin.configures != 1 {
		t.Errorf("pin configured %d times, want 1", sc.pin.configures)
	}
	// Replace semantics keeps exactly one live handler.
	sc.pin.rise()
	select {
	case <-sc.svc.monitor.Wake():
	default:
		t.Fatal("no wake reason after edge")
	}
	select {
	case <-sc.svc.monitor.Wake():
		t.Fatal("more than one handler detected")
	default:
	}
}

func TestIteratePublishesProgress(t *testing.T) {
	b := bus.NewBus(32)
	conn := b.NewConnection("test")
	mon := conn.Subscribe(bus.T("supervisor", bus.WildRest))

	sc := newScenario(t, DefaultConfig(), []uint32{2500}, b.NewConnection("supervisor"))
	sc.svc.Iterate()

	var states []string
	var sawVSYS bool
	deadline := time.After(200 * time.Millisecond)
	for len(states) < 3 || !sawVSYS {
		select {
		case m := <-mon.Channel():
			switch m.Topic.String() {
			case "supervisor/state":
				states = append(states, m.Payload.(string))
			case "supervisor/vsys":
				if !m.Retained {
					t.Error("vsys reading should be retained")
				}
				sawVSYS = true
			}
		case <-deadline:
			t.Fatalf("incomplete progress: states=%v vsys=%v", states, sawVSYS)
		}
	}
	want := []string{StateSampling, StateDeciding, StateSleeping}
	for i, w := range want {
		if states[i] != w {
			t.Fatalf("states = %v, want prefix %v", states, want)
		}
	}
}

func TestRunStopsAfterHandoff(t *testing.T) {
	sc := newScenario(t, DefaultConfig(), []uint32{2500, 3500, 3100}, nil)

	done := make(chan struct{})
	go func() {
		sc.svc.Run(t.Context())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not terminate after handoff")
	}
	if sc.cpu.branches != 1 {
		t.Errorf("branches = %d, want 1", sc.cpu.branches)
	}
	// Two sleep cycles: one for the low iteration, one mid-band.
	if len(sc.clock.blockedTo) != 2 {
		t.Errorf("sleeps = %d, want 2", len(sc.clock.blockedTo))
	}
}

func TestLowPowerEdgeReportsExternalPower(t *testing.T) {
	b := bus.NewBus(32)
	mon := b.NewConnection("test").Subscribe(bus.T("supervisor", "wake"))

	cfg := DefaultConfig()
	cfg.SleepMode = SleepLowPower
	sc := newScenario(t, cfg, []uint32{2500}, b.NewConnection("supervisor"))
	// Power appears while the core is suspended.
	sc.lp.duringSuspend = func() { sc.pin.rise() }

	if sc.svc.Iterate() {
		t.Fatal("unexpected handoff")
	}
	select {
	case m := <-mon.Channel():
		if m.Payload.(string) != "external_power" {
			t.Errorf("wake = %v, want external_power", m.Payload)
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatal("no wake event published")
	}
}

func TestNewRejectsUnknownWakePin(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PowerPresencePin = 7 // fakePins only serves pin 24
	sc := &scenario{pin: &fakePin{n: 24}}
	flash := fakeFlash{}
	board := testBoard(&fakeADC{}, newFakeClock(), &fakeLowPower{}, sc.pin, &fakeReset{}, &fakeCPU{}, flash)
	if _, err := New(board, nil, cfg, nil); err == nil {
		t.Fatal("expected error for unavailable pin")
	}
}
