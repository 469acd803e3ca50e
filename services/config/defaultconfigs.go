package config

// -----------------------------------------------------------------------------
// Embedded configuration
//
// One JSON blob per device ID. The "supervisor" section mirrors
// supervisor.Config; absent fields fall back to the compiled defaults
// (4100/3000/2800 mV thresholds, 30 minute sleeps, timer sleep mode).
// -----------------------------------------------------------------------------

const cfgTrackerPico = `{
  "supervisor": {
    "boot_mv": 4100,
    "min_mv": 3000,
    "floor_mv": 2800,
    "sleep_minutes": 30,
    "sleep_mode": "timer",
    "wake_policy": "resume",
    "power_presence_pin": 24,
    "adc_channel": 3,
    "adc_pin": 29,
    "charger_addr": 104
  }
}`

const cfgTrackerPicoLP = `{
  "supervisor": {
    "boot_mv": 4100,
    "min_mv": 3200,
    "floor_mv": 3000,
    "sleep_minutes": 30,
    "sleep_mode": "lowpower",
    "wake_policy": "restart",
    "power_presence_pin": 24,
    "adc_channel": 3,
    "adc_pin": 29
  }
}`

var embeddedConfigs = map[string][]byte{
	"tracker-pico":    []byte(cfgTrackerPico),
	"tracker-pico-lp": []byte(cfgTrackerPicoLP),
}
