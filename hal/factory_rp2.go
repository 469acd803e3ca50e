// hal/factory_rp2.go
//go:build rp2040

package hal

import (
	"machine"
	"runtime/interrupt"
	"runtime/volatile"
	"time"
	"unsafe"

	"device/arm"
	"device/rp"
)

// RP2040Board wires the real peripherals for Pico-class boards.
func RP2040Board() Board {
	return Board{
		ADC:      &rp2ADC{},
		Clock:    rp2Clock{},
		LowPower: &rp2LowPower{},
		Pins:     rp2PinFactory{},
		Reset:    rp2Reset{},
		CPU:      rp2CPU{},
		Flash:    rp2Flash{},
	}
}

// ---- ADC ----

type rp2ADC struct {
	cur machine.ADC
}

func (a *rp2ADC) Init() error {
	machine.InitADC()
	return nil
}

func (a *rp2ADC) ConfigureHighImpedance(pin int) error {
	// machine puts the pin in analog mode with pulls disabled.
	machine.ADC{Pin: machine.Pin(pin)}.Configure(machine.ADCConfig{})
	return nil
}

func (a *rp2ADC) SelectChannel(ch int) error {
	// ADC channels 0..3 sit on GPIO26..29.
	a.cur = machine.ADC{Pin: machine.Pin(26 + ch)}
	return nil
}

func (a *rp2ADC) ReadRaw() uint16 {
	// machine.ADC.Get left-aligns the 12-bit conversion to 16 bits.
	return a.cur.Get() >> 4
}

// ---- Clock ----

type rp2Clock struct{}

func (rp2Clock) Now() time.Time { return time.Now() }

func (rp2Clock) BlockUntil(t time.Time) {
	if d := time.Until(t); d > 0 {
		time.Sleep(d)
	}
}

// ---- GPIO ----

type rp2PinFactory struct{}

func (rp2PinFactory) ByNumber(n int) (IRQPin, bool) {
	if n < 0 || n > 29 {
		return nil, false
	}
	return &rp2Pin{p: machine.Pin(n), n: n}, true
}

type rp2Pin struct {
	p machine.Pin
	n int
}

func (r *rp2Pin) ConfigureInput(pull Pull) error {
	mode := machine.PinInput
	switch pull {
	case PullUp:
		mode = machine.PinInputPullup
	case PullDown:
		mode = machine.PinInputPulldown
	}
	r.p.Configure(machine.PinConfig{Mode: mode})
	return nil
}

func (r *rp2Pin) Get() bool   { return r.p.Get() }
func (r *rp2Pin) Number() int { return r.n }

func (r *rp2Pin) SetIRQ(edge Edge, handler func()) error {
	var ch machine.PinChange
	switch edge {
	case EdgeRising:
		ch = machine.PinRising
	case EdgeFalling:
		ch = machine.PinFalling
	case EdgeBoth:
		ch = machine.PinToggle
	default:
		return r.ClearIRQ()
	}
	return r.p.SetInterrupt(ch, func(machine.Pin) { handler() })
}

func (r *rp2Pin) ClearIRQ() error {
	return r.p.SetInterrupt(0, nil)
}

// ---- Reset ----

type rp2Reset struct{}

func (rp2Reset) ResetViaWatchdog() {
	rp.WATCHDOG.CTRL.SetBits(rp.WATCHDOG_CTRL_TRIGGER_Msk)
	for {
	}
}

// ---- CPU / flash (firmware handoff primitives) ----

type rp2CPU struct{}

func (rp2CPU) SetVectorTable(addr uint32) {
	arm.SCB.VTOR.Set(addr)
}

func (rp2CPU) SetStackPointer(sp uint32) {
	arm.AsmFull("msr msp, {sp}", map[string]interface{}{"sp": sp})
}

func (rp2CPU) Branch(addr uint32) {
	arm.AsmFull("bx {addr}", map[string]interface{}{"addr": addr})
	for {
	}
}

type rp2Flash struct{}

func (rp2Flash) Word(addr uint32) uint32 {
	return volatile.LoadUint32((*uint32)(unsafe.Pointer(uintptr(addr))))
}

// ---- Low-power suspend ----
//
// The sequence follows the pico-extras sleep support: run ref and sys
// clocks from the crystal, power the system PLL down, stop most
// peripheral clocks, arm an RTC match interrupt and WFI. Any enabled
// interrupt (RTC alarm or a GPIO edge) resumes execution.

type rp2LowPower struct {
	clkRefCtrl uint32
	clkSysCtrl uint32
	sleepEn0   uint32
	sleepEn1   uint32
}

func (l *rp2LowPower) UseLowPowerClock() error {
	l.clkRefCtrl = rp.CLOCKS.CLK_REF_CTRL.Get()
	l.clkSysCtrl = rp.CLOCKS.CLK_SYS_CTRL.Get()

	rp.CLOCKS.CLK_REF_CTRL.Set(rp.CLOCKS_CLK_REF_CTRL_SRC_XOSC_CLKSRC << rp.CLOCKS_CLK_REF_CTRL_SRC_Pos)
	rp.CLOCKS.CLK_SYS_CTRL.Set(rp.CLOCKS_CLK_SYS_CTRL_SRC_CLK_REF << rp.CLOCKS_CLK_SYS_CTRL_SRC_Pos)
	rp.PLL_SYS.PWR.SetBits(rp.PLL_PWR_PD_Msk | rp.PLL_PWR_VCOPD_Msk)
	return nil
}

func (l *rp2LowPower) RestoreNormal() error {
	rp.PLL_SYS.PWR.ClearBits(rp.PLL_PWR_PD_Msk | rp.PLL_PWR_VCOPD_Msk)
	for !rp.PLL_SYS.CS.HasBits(rp.PLL_CS_LOCK_Msk) {
	}
	rp.CLOCKS.CLK_SYS_CTRL.Set(l.clkSysCtrl)
	rp.CLOCKS.CLK_REF_CTRL.Set(l.clkRefCtrl)
	return nil
}

func (l *rp2LowPower) SuspendWithAlarm(d time.Duration) error {
	l.sleepEn0 = rp.CLOCKS.SLEEP_EN0.Get()
	l.sleepEn1 = rp.CLOCKS.SLEEP_EN1.Get()

	// Only the RTC and the IO/syscfg blocks stay clocked while asleep,
	// so the alarm and the wake pin edge can still fire.
	rp.CLOCKS.SLEEP_EN0.Set(rp.CLOCKS_SLEEP_EN0_CLK_RTC_RTC_Msk)
	rp.CLOCKS.SLEEP_EN1.Set(rp.CLOCKS_SLEEP_EN1_CLK_SYS_SYSCFG_Msk)

	armRTCMatch(d)
	rtcInt.Enable()

	arm.SCB.SCR.SetBits(arm.SCB_SCR_SLEEPDEEP_Msk)
	arm.Asm("wfi")
	arm.SCB.SCR.ClearBits(arm.SCB_SCR_SLEEPDEEP_Msk)

	rtcInt.Disable()
	rp.CLOCKS.SLEEP_EN0.Set(l.sleepEn0)
	rp.CLOCKS.SLEEP_EN1.Set(l.sleepEn1)
	return nil
}

// armRTCMatch restarts the RTC from zero and programs a minute/second
// match d away. Durations round down to whole seconds; the supervisor
// only ever asks for whole minutes.
func armRTCMatch(d time.Duration) {
	total := uint32(d / time.Second)
	minutes := total / 60
	seconds := total % 60

	rp.RTC.CTRL.ClearBits(rp.RTC_CTRL_RTC_ENABLE_Msk)
	for rp.RTC.CTRL.HasBits(rp.RTC_CTRL_RTC_ACTIVE_Msk) {
	}
	rp.RTC.SETUP_0.Set(0)
	rp.RTC.SETUP_1.Set(0)
	rp.RTC.CTRL.SetBits(rp.RTC_CTRL_LOAD_Msk)
	rp.RTC.CTRL.SetBits(rp.RTC_CTRL_RTC_ENABLE_Msk)
	for !rp.RTC.CTRL.HasBits(rp.RTC_CTRL_RTC_ACTIVE_Msk) {
	}

	rp.RTC.IRQ_SETUP_1.Set(
		seconds<<rp.RTC_IRQ_SETUP_1_SEC_Pos | rp.RTC_IRQ_SETUP_1_SEC_ENA_Msk |
			minutes<<rp.RTC_IRQ_SETUP_1_MIN_Pos | rp.RTC_IRQ_SETUP_1_MIN_ENA_Msk)
	rp.RTC.IRQ_SETUP_0.Set(rp.RTC_IRQ_SETUP_0_MATCH_ENA_Msk)
	rp.RTC.INTE.Set(rp.RTC_INTE_RTC_Msk)
}

func rtcAlarmISR(interrupt.Interrupt) {
	// One-shot: disarm the match so the line drops.
	rp.RTC.IRQ_SETUP_0.ClearBits(rp.RTC_IRQ_SETUP_0_MATCH_ENA_Msk)
	rp.RTC.INTE.Set(0)
}

var rtcInt = interrupt.New(rp.IRQ_RTC_IRQ, rtcAlarmISR)
