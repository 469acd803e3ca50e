// services/supervisor/fakes_test.go
//
// Hand-rolled peripheral fakes shared by the package tests.
package supervisor

import (
	"time"

	"powerboot-go/hal"
)

// fakeADC returns a fixed code per conversion and records configuration.
type fakeADC struct {
	code     uint16
	inits    int
	hiZPins  []int
	channels []int
	reads    int
}

func (a *fakeADC) Init() error { a.inits++; return nil }
func (a *fakeADC) ConfigureHighImpedance(pin int) error {
	a.hiZPins = append(a.hiZPins, pin)
	return nil
}
func (a *fakeADC) SelectChannel(ch int) error {
	a.channels = append(a.channels, ch)
	return nil
}
func (a *fakeADC) ReadRaw() uint16 { a.reads++; return a.code }

// levels returns mv through the simulated divider; helper for scenario
// tests that want the sensor to see a given VSYS.
func codeForVSYS(mv uint32) uint16 {
	return uint16(mv / 3 * hal.ADCFullScale / 3300)
}

// scriptADC serves a sequence of VSYS levels, one per MeasureVSYS call.
type scriptADC struct {
	fakeADC
	levels []uint32
	call   int
}

func (a *scriptADC) SelectChannel(ch int) error {
	// A channel select marks the start of a measurement burst.
	if a.call < len(a.levels) {
		a.code = codeForVSYS(a.levels[a.call])
	}
	a.call++
	return a.fakeADC.SelectChannel(ch)
}

// fakeClock is a manual clock; BlockUntil jumps straight to the deadline.
type fakeClock struct {
	now       time.Time
	blockedTo []time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }
func (c *fakeClock) BlockUntil(t time.Time) {
	c.blockedTo = append(c.blockedTo, t)
	if t.After(c.now) {
		c.now = t
	}
}

// fakeLowPower records the call order; duringSuspend simulates an event
// (like a wake edge) firing while the core is suspended.
type fakeLowPower struct {
	log           []string
	duringSuspend func()
}

func (l *fakeLowPower) UseLowPowerClock() error { l.log = append(l.log, "lowclock"); return nil }
func (l *fakeLowPower) RestoreNormal() error    { l.log = append(l.log, "restore"); return nil }
func (l *fakeLowPower) SuspendWithAlarm(d time.Duration) error {
	l.log = append(l.log, "suspend")
	if l.duringSuspend != nil {
		l.duringSuspend()
	}
	return nil
}

// fakePin mimics replace-semantics SetIRQ like the hardware driver.
type fakePin struct {
	n          int
	level      bool
	edge       hal.Edge
	handler    func()
	configures int
	sets       int
	clears     int
}

func (p *fakePin) ConfigureInput(pull hal.Pull) error { p.configures++; return nil }
func (p *fakePin) Get() bool                          { return p.level }
func (p *fakePin) Number() int                        { return p.n }
func (p *fakePin) SetIRQ(edge hal.Edge, handler func()) error {
	p.sets++
	p.edge = edge
	p.handler = handler
	return nil
}
func (p *fakePin) ClearIRQ() error {
	p.clears++
	p.edge = hal.EdgeNone
	p.handler = nil
	return nil
}

// rise simulates a rising edge on the line.
func (p *fakePin) rise() {
	p.level = true
	if p.handler != nil && (p.edge == hal.EdgeRising || p.edge == hal.EdgeBoth) {
		p.handler()
	}
}

type fakePins struct{ pin *fakePin }

func (f fakePins) ByNumber(n int) (hal.IRQPin, bool) {
	if n != f.pin.n {
		return nil, false
	}
	return f.pin, true
}

// fakeCPU records the handoff writes instead of performing them.
type fakeCPU struct {
	vtor     uint32
	sp       uint32
	branched uint32
	branches int
}

func (c *fakeCPU) SetVectorTable(addr uint32) { c.vtor = addr }
func (c *fakeCPU) SetStackPointer(sp uint32)  { c.sp = sp }
func (c *fakeCPU) Branch(addr uint32)         { c.branched = addr; c.branches++ }

type fakeFlash map[uint32]uint32

func (f fakeFlash) Word(addr uint32) uint32 { return f[addr] }

type fakeReset struct{ resets int }

func (r *fakeReset) ResetViaWatchdog() { r.resets++ }

// testBoard assembles a board from the fakes.
func testBoard(adc hal.ADC, clock hal.Clock, lp hal.LowPower, pin *fakePin, reset *fakeReset, cpu *fakeCPU, flash fakeFlash) hal.Board {
	return hal.Board{
		ADC:      adc,
		Clock:    clock,
		LowPower: lp,
		Pins:     fakePins{pin: pin},
		Reset:    reset,
		CPU:      cpu,
		Flash:    flash,
	}
}
