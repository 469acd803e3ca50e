// services/supervisor/sensor.go
package supervisor

import "powerboot-go/hal"

const (
	// A charging source can oscillate between battery voltage and the
	// higher charger rail when the battery is disconnected; averaging
	// this many conversions flattens that out.
	voltageSamples = 1000

	// The sensed node carries 1/3 of the true VSYS rail.
	dividerMultiplier = 3
)

// VoltageSensor produces calibrated millivolt readings of the VSYS rail.
type VoltageSensor struct {
	adc     hal.ADC
	pin     int
	channel int
}

func NewVoltageSensor(adc hal.ADC, pin, channel int) *VoltageSensor {
	return &VoltageSensor{adc: adc, pin: pin, channel: channel}
}

// MeasureVSYS samples the divider node and returns VSYS in millivolts.
// The ADC channel selection is left pointing at our channel afterwards.
// There is no failure path: a disconnected divider reads as 0 mV.
func (s *VoltageSensor) MeasureVSYS() uint32 {
	_ = s.adc.Init()
	// High impedance so the sample doesn't load the divider.
	_ = s.adc.ConfigureHighImpedance(s.pin)
	_ = s.adc.SelectChannel(s.channel)

	var sum uint32
	for i := 0; i < voltageSamples; i++ {
		sum += uint32(s.adc.ReadRaw())
	}
	return millivolts(sum)
}

// millivolts converts a sum of voltageSamples raw 12-bit codes to the
// VSYS voltage. With 1000 samples the mV scaling folds into the 3.3 V
// reference: sum * 3.3/4095 is already the averaged node in mV, so
//
//	sensed = sum*33 / (10*4095),  VSYS = sensed*3
//
// Full-scale (sum = 1000*4095) therefore reads 3300*3 = 9900 mV.
func millivolts(sum uint32) uint32 {
	sensed := sum * 33 / (10 * hal.ADCFullScale)
	return sensed * dividerMultiplier
}
