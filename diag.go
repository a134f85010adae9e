package glora

import "fmt"

// Version reads the silicon revision, 0x12 on SX1276/77/78/79.
func (l *Lora) Version() (byte, error) {
	return l.Register(RegVersion)
}

// CheckVersion fails with ErrVersionMismatch unless the chip reports 0x12.
func (l *Lora) CheckVersion() error {
	v, err := l.Version()
	if err != nil {
		return err
	}
	if v != chipVersion {
		return fmt.Errorf("%w: expect %#02x found %#02x", ErrVersionMismatch, chipVersion, v)
	}
	return nil
}

// VerifyState reads RegOpMode back and compares it with the tracked state.
// It costs a bus transaction and is meant for diagnostics only.
func (l *Lora) VerifyState() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	got, err := l.bus.ReadRegister(RegOpMode)
	if err != nil {
		return err
	}
	want := l.modeByte(l.state.mode())
	if got&byte(ModeLongRange|modeMask) != want {
		return fmt.Errorf("%w: tracked %v, RegOpMode is %#02x", ErrInvalidState, l.state, got)
	}
	return nil
}

type RegisterValue struct {
	Reg   Register
	Value byte
}

func (v RegisterValue) String() string {
	return fmt.Sprintf("%v: %#02x", v.Reg, v.Value)
}

// DumpRegisters reads 0x01 through 0x3f. RegFifo is skipped because reading
// it moves the FIFO pointer.
func (l *Lora) DumpRegisters() ([]RegisterValue, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var regs []RegisterValue
	for r := RegOpMode; r < 0x40; r++ {
		v, err := l.bus.ReadRegister(r)
		if err != nil {
			return regs, err
		}
		regs = append(regs, RegisterValue{Reg: r, Value: v})
	}
	return regs, nil
}
