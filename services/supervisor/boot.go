// services/supervisor/boot.go
package supervisor

import "powerboot-go/hal"

// FirmwareBooter transfers control to the application image, performing
// the same two-word setup a stage-two boot loader would: the words at
// the image base are {initial stack pointer, entry vector}.
type FirmwareBooter struct {
	cpu   hal.CPU
	mem   hal.Memory
	entry uint32
}

func NewFirmwareBooter(cpu hal.CPU, mem hal.Memory) *FirmwareBooter {
	return &FirmwareBooter{cpu: cpu, mem: mem, entry: hal.FirmwareEntry}
}

// Boot points the vector table at the image, loads its stack pointer and
// branches to its entry vector. No validation: a valid image at the
// fixed address is the caller's invariant. Never returns on hardware;
// the hosted CPU fake returns so the decision loop can be tested.
func (b *FirmwareBooter) Boot() {
	b.cpu.SetVectorTable(b.entry)

	sp := b.mem.Word(b.entry)
	vector := b.mem.Word(b.entry + 4)

	b.cpu.SetStackPointer(sp)
	// Low bit set selects Thumb encoding for the branch-and-exchange.
	b.cpu.Branch(vector | 1)
}
