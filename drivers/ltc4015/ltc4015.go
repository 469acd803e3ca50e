// Package ltc4015 is a read-only monitor for the LTC4015 battery charger
// controller, covering the telemetry the supervisor publishes before a
// sleep cycle: VIN, VSYS and the charger/system state words. Charging
// control registers are deliberately not exposed here.
//
// Datasheet notes: I2C read-word protocol, data-low then data-high;
// default 7-bit address 0b1101000; VIN/VSYS LSB 1.648 mV.
package ltc4015

import "tinygo.org/x/drivers"

// AddressDefault is the fixed 7-bit I2C address (1101_000b).
const AddressDefault = 0x68

// Register sub-addresses (16-bit words).
const (
	regChargerState = 0x34 // R
	regSystemStatus = 0x39 // R
	regVIN          = 0x3B // R
	regVSYS         = 0x3C // R
)

// SystemStatus bits of interest to the supervisor.
const (
	StatusVinOK        uint16 = 1 << 2 // intvcc_gt_4p3v proxy for input present
	StatusChargerEn    uint16 = 1 << 13
	StatusEqualizeReq  uint16 = 1 << 10
	StatusMpptEnabled  uint16 = 1 << 3
	StatusCellCountErr uint16 = 1 << 0
)

type Monitor struct {
	i2c  drivers.I2C
	addr uint16

	// Fixed buffers keep the hot path allocation-free.
	w [1]byte
	r [2]byte
}

func New(i2c drivers.I2C, addr uint16) *Monitor {
	if addr == 0 {
		addr = AddressDefault
	}
	return &Monitor{i2c: i2c, addr: addr}
}

// Snapshot is one pre-sleep telemetry read.
type Snapshot struct {
	VinMV  int32
	VsysMV int32
	State  uint16
	Status uint16
}

// Read collects a full snapshot; the first failing register aborts.
func (m *Monitor) Read() (Snapshot, error) {
	var s Snapshot
	vin, err := m.VinMV()
	if err != nil {
		return s, err
	}
	vsys, err := m.VsysMV()
	if err != nil {
		return s, err
	}
	state, err := m.readWord(regChargerState)
	if err != nil {
		return s, err
	}
	status, err := m.readWord(regSystemStatus)
	if err != nil {
		return s, err
	}
	s.VinMV, s.VsysMV, s.State, s.Status = vin, vsys, state, status
	return s, nil
}

// VinMV returns the input rail in millivolts (1.648 mV/LSB).
func (m *Monitor) VinMV() (int32, error) {
	raw, err := m.readWord(regVIN)
	if err != nil {
		return 0, err
	}
	return int32((int64(raw) * 1648) / 1000), nil
}

// VsysMV returns the system rail in millivolts (1.648 mV/LSB).
func (m *Monitor) VsysMV() (int32, error) {
	raw, err := m.readWord(regVSYS)
	if err != nil {
		return 0, err
	}
	return int32((int64(raw) * 1648) / 1000), nil
}

// InputPresent reports whether the charger sees a usable input rail.
func (m *Monitor) InputPresent() (bool, error) {
	status, err := m.readWord(regSystemStatus)
	if err != nil {
		return false, err
	}
	return status&StatusVinOK != 0, nil
}

// I2C word read, little-endian (low byte first).
func (m *Monitor) readWord(reg byte) (uint16, error) {
	m.w[0] = reg
	if err := m.i2c.Tx(m.addr, m.w[:1], m.r[:2]); err != nil {
		return 0, err
	}
	return uint16(m.r[0]) | uint16(m.r[1])<<8, nil
}
