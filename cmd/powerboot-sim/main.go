// cmd/powerboot-sim/main.go
//
// Hosted simulator for the supervisor: scripts a recharge curve on a
// simulated board and prints the decision trace. A simulated minute
// passes per millisecond of wall time.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"powerboot-go/bus"
	"powerboot-go/hal"
	"powerboot-go/services/config"
	"powerboot-go/services/diag"
	"powerboot-go/services/supervisor"
)

// Low-power mode so suspended sleeps run on the compressed clock.
const simConfig = `{
  "supervisor": {
    "boot_mv": 4100,
    "min_mv": 3000,
    "floor_mv": 2800,
    "sleep_minutes": 30,
    "sleep_mode": "lowpower",
    "wake_policy": "resume",
    "power_presence_pin": 24,
    "adc_channel": 3,
    "adc_pin": 29
  }
}`

func main() {
	config.EmbeddedConfigLookup = func(string) ([]byte, bool) {
		return []byte(simConfig), true
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ctx = context.WithValue(ctx, config.CtxDeviceKey, "sim")

	b := bus.NewBus(32)
	config.New().Start(ctx, b.NewConnection("config"))
	diag.New(os.Stdout).Start(ctx, b.NewConnection("diag"))

	sb := hal.NewSimBoard()
	sb.TimeScale = 10 * time.Microsecond // 30 min sleep ≈ 18 ms
	sb.SetVSYS(2500)

	// Recharge script: the panel slowly brings the battery up, then
	// external power appears.
	go func() {
		tick := time.NewTicker(25 * time.Millisecond)
		defer tick.Stop()
		plugged := false
		for range tick.C {
			mv := sb.VSYS() + 150
			sb.SetVSYS(mv)
			if mv >= 3900 && !plugged {
				plugged = true
				fmt.Println("[sim] external power plugged in")
				sb.PlugInPower(24)
			}
			if mv > 4600 {
				return
			}
		}
	}()

	fmt.Println("[sim] starting supervisor at 2500 mV")
	supervisor.RunFromBus(ctx, b.NewConnection("supervisor"), sb.Board, nil)

	cpu := sb.CPURecorder()
	fmt.Printf("[sim] handoff: VTOR=%#x SP=%#x entry=%#x\n", cpu.VTOR, cpu.SP, cpu.Branched)
	if r := sb.ResetRecorder().Resets(); r > 0 {
		fmt.Printf("[sim] watchdog resets: %d\n", r)
	}
}
