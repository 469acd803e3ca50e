// cmd/powerboot/main.go
//go:build rp2040

package main

import (
	"context"
	"machine"
	"time"

	"powerboot-go/bus"
	"powerboot-go/drivers/ltc4015"
	"powerboot-go/hal"
	"powerboot-go/services/config"
	"powerboot-go/services/diag"
	"powerboot-go/services/supervisor"
)

const deviceID = "tracker-pico"

func main() {
	// Let the bench console attach before the first lines.
	time.Sleep(2 * time.Second)
	println("powerboot: supervisor stage, device", deviceID)

	ctx := context.WithValue(context.Background(), config.CtxDeviceKey, deviceID)

	b := bus.NewBus(8)
	config.New().Start(ctx, b.NewConnection("config"))
	diag.New(nil).Start(ctx, b.NewConnection("diag"))

	// i2c0 @ 400 kHz on default pins for the charger monitor.
	_ = machine.I2C0.Configure(machine.I2CConfig{
		Frequency: 400 * machine.KHz,
		SDA:       machine.I2C0_SDA_PIN,
		SCL:       machine.I2C0_SCL_PIN,
	})
	charger := ltc4015.New(machine.I2C0, 0)

	// Does not return: the loop ends in the firmware handoff or runs
	// forever.
	supervisor.RunFromBus(ctx, b.NewConnection("supervisor"), hal.RP2040Board(), charger)

	println("powerboot: supervisor exited; halting")
	for {
		time.Sleep(time.Hour)
	}
}
