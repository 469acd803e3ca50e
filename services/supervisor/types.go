// services/supervisor/types.go
package supervisor

import "powerboot-go/x/mathx"

// WakeReason says why a sleep cycle ended.
type WakeReason uint8

const (
	TimerExpired WakeReason = iota
	ExternalPowerDetected
)

func (r WakeReason) String() string {
	if r == ExternalPowerDetected {
		return "external_power"
	}
	return "timer"
}

// SleepMode selects how sleep cycles are spent.
type SleepMode uint8

const (
	// SleepTimer blocks on the timekeeper until the deadline; no early
	// wake is possible.
	SleepTimer SleepMode = iota
	// SleepLowPower suspends the core on a low-power clock with an
	// alarm armed; a power-presence edge ends the cycle early.
	SleepLowPower
)

// WakePolicy selects what the power-presence interrupt does.
type WakePolicy uint8

const (
	// WakeResume hands the wake reason to the resuming sleep call.
	WakeResume WakePolicy = iota
	// WakeRestart forces a watchdog reset from the interrupt handler,
	// so the decision loop re-enters from its very start.
	WakeRestart
)

// Config is the supervisor section of the device config. Zero values
// fall back to the compiled defaults, which mirror the shipping
// tracker: 4100/3000/2800 mV, 30 minute sleeps, plain timer sleep.
type Config struct {
	BootMV  uint32 // above this: hand off immediately
	MinMV   uint32 // above this: sleep, then re-check against FloorMV
	FloorMV uint32 // post-sleep confirmation threshold

	SleepMinutes uint32
	SleepMode    SleepMode
	WakePolicy   WakePolicy

	PowerPresencePin int
	ADCChannel       int
	ADCPin           int

	// ChargerAddr enables the pre-sleep LTC4015 telemetry snapshot
	// when non-zero.
	ChargerAddr uint16
}

func DefaultConfig() Config {
	return Config{
		BootMV:           4100,
		MinMV:            3000,
		FloorMV:          2800,
		SleepMinutes:     30,
		SleepMode:        SleepTimer,
		WakePolicy:       WakeResume,
		PowerPresencePin: 24,
		ADCChannel:       3,
		ADCPin:           29,
	}
}

// ConfigFromPayload decodes the config service's map payload, starting
// from the defaults. Unknown keys are ignored; the threshold ordering
// floor <= min <= boot is enforced afterwards.
func ConfigFromPayload(p any) Config {
	cfg := DefaultConfig()
	m, ok := p.(map[string]any)
	if !ok {
		return cfg
	}

	if v, ok := mvField(m, "boot_mv"); ok {
		cfg.BootMV = v
	}
	if v, ok := mvField(m, "min_mv"); ok {
		cfg.MinMV = v
	}
	if v, ok := mvField(m, "floor_mv"); ok {
		cfg.FloorMV = v
	}
	if v, ok := mvField(m, "sleep_minutes"); ok {
		cfg.SleepMinutes = v
	}
	if v, ok := mvField(m, "power_presence_pin"); ok {
		cfg.PowerPresencePin = int(v)
	}
	if v, ok := mvField(m, "adc_channel"); ok {
		cfg.ADCChannel = int(v)
	}
	if v, ok := mvField(m, "adc_pin"); ok {
		cfg.ADCPin = int(v)
	}
	if v, ok := mvField(m, "charger_addr"); ok {
		cfg.ChargerAddr = uint16(v)
	}
	if v, ok := m["sleep_mode"].(string); ok && v == "lowpower" {
		cfg.SleepMode = SleepLowPower
	}
	if v, ok := m["wake_policy"].(string); ok && v == "restart" {
		cfg.WakePolicy = WakeRestart
	}

	cfg.SleepMinutes = mathx.Clamp(cfg.SleepMinutes, 1, 24*60)
	cfg.MinMV = mathx.Min(cfg.MinMV, cfg.BootMV)
	cfg.FloorMV = mathx.Min(cfg.FloorMV, cfg.MinMV)
	return cfg
}

func mvField(m map[string]any, key string) (uint32, bool) {
	switch v := m[key].(type) {
	case float64:
		if v < 0 {
			return 0, false
		}
		return uint32(v), true
	case int:
		if v < 0 {
			return 0, false
		}
		return uint32(v), true
	}
	return 0, false
}
