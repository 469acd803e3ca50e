// hal/hal.go
//
// Narrow peripheral contracts the supervisor consumes. Implementations are
// selected per platform by the factory files (factory_rp2.go on RP2 boards,
// sim.go elsewhere); supervisor code never touches registers directly.
package hal

import "time"

// Fixed flash layout. The application image sits right after the 256-byte
// XIP boot2 block; its first two words are {initial SP, entry vector}.
const FirmwareEntry uint32 = 0x10000100

// ADC resolution of the supply-rail sensor: 12 bits.
const (
	ADCBits      = 12
	ADCFullScale = (1 << ADCBits) - 1 // 4095
)

type Pull uint8

const (
	PullNone Pull = iota
	PullUp
	PullDown
)

type Edge uint8

const (
	EdgeNone Edge = iota
	EdgeRising
	EdgeFalling
	EdgeBoth
)

// ADC is the shared analog subsystem. Channel selection is global state:
// a caller owns the selection only until the next SelectChannel.
type ADC interface {
	Init() error
	// ConfigureHighImpedance puts the pin in analog mode with no pulls,
	// so sampling does not load the measured node.
	ConfigureHighImpedance(pin int) error
	SelectChannel(ch int) error
	// ReadRaw returns one right-aligned 12-bit conversion.
	ReadRaw() uint16
}

type Clock interface {
	Now() time.Time
	BlockUntil(t time.Time)
}

// LowPower drives the reduced-power suspend path. The contract is
// symmetric: after RestoreNormal the clock tree and interrupt masks are
// back to their pre-UseLowPowerClock state.
type LowPower interface {
	UseLowPowerClock() error
	// SuspendWithAlarm blocks in the low-power state until the alarm
	// fires or any other enabled interrupt wakes the core.
	SuspendWithAlarm(d time.Duration) error
	RestoreNormal() error
}

// IRQPin is a digital input with edge-interrupt support.
type IRQPin interface {
	ConfigureInput(pull Pull) error
	Get() bool
	// SetIRQ replaces any previously installed handler for this pin.
	SetIRQ(edge Edge, handler func()) error
	ClearIRQ() error
	Number() int
}

// PinFactory supplies pins by board numbering.
type PinFactory interface {
	ByNumber(n int) (IRQPin, bool)
}

type Resetter interface {
	// ResetViaWatchdog forces a full hardware reset; does not return.
	ResetViaWatchdog()
}

// CPU exposes the three processor operations the firmware handoff needs.
// Callers never see raw register addresses.
type CPU interface {
	SetVectorTable(addr uint32)
	SetStackPointer(sp uint32)
	// Branch transfers execution to addr (Thumb bit handled by the
	// caller). Never returns on hardware.
	Branch(addr uint32)
}

// Memory reads words from the fixed firmware region.
type Memory interface {
	Word(addr uint32) uint32
}

// Board bundles every peripheral the supervisor stage uses.
type Board struct {
	ADC      ADC
	Clock    Clock
	LowPower LowPower
	Pins     PinFactory
	Reset    Resetter
	CPU      CPU
	Flash    Memory
}
