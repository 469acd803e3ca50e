// hal/sim.go
//
// Simulated board for hosted builds. The simulator compresses time
// (each simulated second costs TimeScale of wall time) so the decision
// loop can be watched interactively.
package hal

import (
	"sync"
	"time"
)

type SimBoard struct {
	Board

	mu     sync.Mutex
	vsysMV uint32

	adc   *simADC
	lp    *simLowPower
	pins  *simPinFactory
	cpu   *SimCPU
	reset *SimReset

	// TimeScale maps one simulated second to wall time.
	TimeScale time.Duration
}

// NewSimBoard builds a fully wired simulated board.
func NewSimBoard() *SimBoard {
	sb := &SimBoard{TimeScale: time.Millisecond}
	sb.adc = &simADC{sb: sb}
	sb.lp = &simLowPower{sb: sb, wake: make(chan struct{}, 1)}
	sb.pins = &simPinFactory{pins: map[int]*SimPin{}}
	sb.cpu = &SimCPU{}
	sb.reset = &SimReset{}
	sb.Board = Board{
		ADC:      sb.adc,
		Clock:    simClock{},
		LowPower: sb.lp,
		Pins:     sb.pins,
		Reset:    sb.reset,
		CPU:      sb.cpu,
		Flash:    SimFlash{FirmwareEntry: 0x20041000, FirmwareEntry + 4: 0x10000200},
	}
	return sb
}

// SetVSYS sets the simulated supply rail in millivolts.
func (sb *SimBoard) SetVSYS(mv uint32) {
	sb.mu.Lock()
	sb.vsysMV = mv
	sb.mu.Unlock()
}

func (sb *SimBoard) VSYS() uint32 {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	return sb.vsysMV
}

// PlugInPower raises the power-presence pin and, if the supervisor is
// suspended, wakes it early.
func (sb *SimBoard) PlugInPower(pin int) {
	if p, ok := sb.pins.ByNumber(pin); ok {
		p.(*SimPin).Raise()
	}
	select {
	case sb.lp.wake <- struct{}{}:
	default:
	}
}

func (sb *SimBoard) CPURecorder() *SimCPU     { return sb.cpu }
func (sb *SimBoard) ResetRecorder() *SimReset { return sb.reset }

// ---- ADC ----

type simADC struct {
	sb *SimBoard
	ch int
}

func (a *simADC) Init() error                          { return nil }
func (a *simADC) ConfigureHighImpedance(pin int) error { return nil }
func (a *simADC) SelectChannel(ch int) error           { a.ch = ch; return nil }

// ReadRaw converts the simulated rail through the 1:3 divider to a
// 12-bit code against the 3.3 V reference.
func (a *simADC) ReadRaw() uint16 {
	sensed := a.sb.VSYS() / 3
	code := sensed * ADCFullScale / 3300
	if code > ADCFullScale {
		code = ADCFullScale
	}
	return uint16(code)
}

// ---- Clock ----

type simClock struct{}

func (simClock) Now() time.Time { return time.Now() }
func (simClock) BlockUntil(t time.Time) {
	if d := time.Until(t); d > 0 {
		time.Sleep(d)
	}
}

// ---- Low power ----

type simLowPower struct {
	sb   *SimBoard
	wake chan struct{}

	LowClock bool
}

func (l *simLowPower) UseLowPowerClock() error { l.LowClock = true; return nil }
func (l *simLowPower) RestoreNormal() error    { l.LowClock = false; return nil }

func (l *simLowPower) SuspendWithAlarm(d time.Duration) error {
	scaled := time.Duration(d/time.Second) * l.sb.TimeScale
	select {
	case <-l.wake:
	case <-time.After(scaled):
	}
	return nil
}

// ---- Pins ----

type simPinFactory struct {
	mu   sync.Mutex
	pins map[int]*SimPin
}

func (f *simPinFactory) ByNumber(n int) (IRQPin, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.pins[n]
	if !ok {
		p = &SimPin{N: n}
		f.pins[n] = p
	}
	return p, true
}

// SimPin is a scriptable digital input.
type SimPin struct {
	mu      sync.Mutex
	N       int
	Level   bool
	edge    Edge
	handler func()
}

func (p *SimPin) ConfigureInput(pull Pull) error { return nil }
func (p *SimPin) Number() int                    { return p.N }

func (p *SimPin) Get() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Level
}

func (p *SimPin) SetIRQ(edge Edge, handler func()) error {
	p.mu.Lock()
	p.edge = edge
	p.handler = handler
	p.mu.Unlock()
	return nil
}

func (p *SimPin) ClearIRQ() error {
	p.mu.Lock()
	p.edge = EdgeNone
	p.handler = nil
	p.mu.Unlock()
	return nil
}

// Raise drives the pin high and fires a rising-edge handler if armed.
func (p *SimPin) Raise() {
	p.mu.Lock()
	p.Level = true
	h := p.handler
	fire := p.edge == EdgeRising || p.edge == EdgeBoth
	p.mu.Unlock()
	if fire && h != nil {
		h()
	}
}

// ---- CPU / flash / reset recorders ----

// SimCPU records the handoff register writes instead of performing them.
type SimCPU struct {
	mu       sync.Mutex
	VTOR     uint32
	SP       uint32
	Branched uint32
	Calls    int
}

func (c *SimCPU) SetVectorTable(addr uint32) { c.mu.Lock(); c.VTOR = addr; c.mu.Unlock() }
func (c *SimCPU) SetStackPointer(sp uint32)  { c.mu.Lock(); c.SP = sp; c.mu.Unlock() }
func (c *SimCPU) Branch(addr uint32) {
	c.mu.Lock()
	c.Branched = addr
	c.Calls++
	c.mu.Unlock()
}

type SimFlash map[uint32]uint32

func (f SimFlash) Word(addr uint32) uint32 { return f[addr] }

type SimReset struct {
	mu    sync.Mutex
	Count int
}

func (r *SimReset) ResetViaWatchdog() {
	r.mu.Lock()
	r.Count++
	r.mu.Unlock()
}

func (r *SimReset) Resets() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Count
}
