package glora

import (
	"fmt"
	"sync"
	"time"

	"github.com/golang/glog"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

// State is the operating state tracked by the driver. It only changes
// through driver calls and is never read back on the receive path.
type State int

const (
	StateSleep State = iota
	StateStandby
	StateReceiveContinuous
)

func (s State) String() string {
	switch s {
	case StateSleep:
		return "Sleep"
	case StateStandby:
		return "Standby"
	case StateReceiveContinuous:
		return "ReceiveContinuous"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

func (s State) mode() Mode {
	switch s {
	case StateStandby:
		return ModeStandby
	case StateReceiveContinuous:
		return ModeRxContinuous
	}
	return ModeSleep
}

// Addressing selects the RegOpMode register layout the driver commits to.
// The register map of this package is the LoRa page, so New only accepts
// AddressingLongRange; under AddressingLegacy the same addresses hold FSK/OOK
// registers.
type Addressing int

const (
	AddressingLongRange Addressing = iota
	AddressingLegacy
)

type TriggerMode int

const (
	TriggerPoll TriggerMode = iota
	TriggerEdge
)

// Options configures Open and New. Line names are resolved with gpioreg;
// an empty name means the line is not connected.
type Options struct {
	SPIDevice string
	SPIClock  physic.Frequency

	Trigger      TriggerMode
	PollInterval time.Duration
	Addressing   Addressing

	// ChipSelect names a GPIO driven around each transaction. Leave empty to
	// use the SPI port's own chip-select; wiring guides disagree on which
	// line this is, so it is never guessed.
	ChipSelect string
	Reset      string
	Interrupt  string

	// MaxPayloadLength rejects packets whose reported length is above it.
	// Zero passes every length through. This is a local policy, the radio
	// reports up to 255.
	MaxPayloadLength int

	SettleDelay time.Duration
	CRC         bool
}

// DefaultOptions returns the wiring used on a Raspberry Pi with SPI0.0 at
// 500kHz, reset on GPIO25 and DIO0 on GPIO24.
func DefaultOptions() Options {
	return Options{
		SPIClock:     500 * physic.KiloHertz,
		Trigger:      TriggerEdge,
		PollInterval: time.Second,
		Addressing:   AddressingLongRange,
		Reset:        "GPIO25",
		Interrupt:    "GPIO24",
		SettleDelay:  10 * time.Millisecond,
		CRC:          true,
	}
}

// Pins holds the discrete control lines. Any of them may be nil.
type Pins struct {
	ChipSelect gpio.PinOut
	Reset      gpio.PinOut
	Interrupt  gpio.PinIn
}

// Lora drives one SX127x radio. All methods are safe for concurrent use;
// each operation holds the driver lock for its whole register sequence.
type Lora struct {
	mu        sync.Mutex
	bus       *Bus
	port      spi.PortCloser
	pins      Pins
	opts      Options
	state     State
	frequency uint64
}

// Open initialises the host drivers, opens the SPI port and resolves the
// control lines named in opts.
func Open(opts Options) (*Lora, error) {
	if _, err := host.Init(); err != nil {
		return nil, err
	}

	p, err := spireg.Open(opts.SPIDevice)
	if err != nil {
		return nil, err
	}

	c, err := p.Connect(opts.SPIClock, spi.Mode0, 8)
	if err != nil {
		p.Close()
		return nil, err
	}

	var pins Pins
	if opts.ChipSelect != "" {
		if pins.ChipSelect, err = pinByName("chip-select", opts.ChipSelect); err != nil {
			p.Close()
			return nil, err
		}
	}
	if opts.Reset != "" {
		if pins.Reset, err = pinByName("reset", opts.Reset); err != nil {
			p.Close()
			return nil, err
		}
	}
	if opts.Interrupt != "" {
		if pins.Interrupt, err = pinByName("interrupt", opts.Interrupt); err != nil {
			p.Close()
			return nil, err
		}
	}

	l, err := New(c, pins, opts)
	if err != nil {
		p.Close()
		return nil, err
	}
	l.port = p
	return l, nil
}

func pinByName(role, name string) (gpio.PinIO, error) {
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("failed to find %s pin %q", role, name)
	}
	return p, nil
}

// New builds a driver on an already connected SPI conn. The device state
// is assumed to be Sleep until Reset establishes it.
func New(c spi.Conn, pins Pins, opts Options) (*Lora, error) {
	if opts.MaxPayloadLength < 0 || opts.MaxPayloadLength > MaxPktLength {
		return nil, fmt.Errorf("%w: payload bound %d", ErrInvalidConfig, opts.MaxPayloadLength)
	}
	if opts.Addressing != AddressingLongRange {
		return nil, fmt.Errorf("%w: register map requires long range addressing", ErrInvalidConfig)
	}
	if opts.Trigger == TriggerEdge && pins.Interrupt == nil {
		return nil, ErrNoInterrupt
	}

	bus, err := NewBus(c, pins.ChipSelect)
	if err != nil {
		return nil, err
	}

	if pins.Reset != nil {
		if err := pins.Reset.Out(gpio.High); err != nil {
			return nil, err
		}
	}

	return &Lora{
		bus:   bus,
		pins:  pins,
		opts:  opts,
		state: StateSleep,
	}, nil
}

// Close puts the radio to sleep and releases the SPI port if Open created
// it. The port is released even when the mode write fails.
func (l *Lora) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	err := l.setMode(StateSleep)
	if l.port != nil {
		if e := l.port.Close(); err == nil {
			err = e
		}
		l.port = nil
	}
	return err
}

// State returns the tracked device state.
func (l *Lora) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Reset returns the device to Sleep with default registers. With a reset
// line the line is pulsed low; without one Sleep is forced through
// RegOpMode. The strategy is fixed by the Pins given to New.
func (l *Lora) Reset() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.pins.Reset != nil {
		if err := l.pins.Reset.Out(gpio.Low); err != nil {
			return err
		}
		time.Sleep(l.opts.SettleDelay)
		if err := l.pins.Reset.Out(gpio.High); err != nil {
			return err
		}
	} else if err := l.bus.WriteRegister(RegOpMode, l.modeByte(ModeSleep)); err != nil {
		return err
	}
	time.Sleep(l.opts.SettleDelay)

	l.state = StateSleep
	glog.V(1).Info("lora: reset, state Sleep")
	return nil
}

// Configure sets the carrier frequency and modem parameters and leaves the
// device in Standby. Called while receiving it first drops to Standby so no
// RF register is written in ReceiveContinuous.
func (l *Lora) Configure(frequency physic.Frequency, bw Bandwidth, cr CodingRate, sf SpreadingFactor) error {
	frf, err := NewFrequencyWord(frequency)
	if err != nil {
		return err
	}
	mc, err := modemConfig(bw, cr, sf, l.opts.CRC)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	switch l.state {
	case StateReceiveContinuous:
		glog.V(1).Info("lora: leaving receive to configure")
		if err := l.setMode(StateStandby); err != nil {
			return err
		}
	case StateSleep:
		// Commits the addressing scheme, which only changes in Sleep.
		if err := l.setMode(StateSleep); err != nil {
			return err
		}
	}

	fb := frf.Bytes()
	writes := []struct {
		reg Register
		val byte
	}{
		{RegFrfMsb, fb[0]},
		{RegFrfMid, fb[1]},
		{RegFrfLsb, fb[2]},
		{RegFifoRxBaseAddr, rxBaseAddr},
		{RegFifoAddrPtr, rxBaseAddr},
		{RegModemConfig1, mc[0]},
		{RegModemConfig2, mc[1]},
		{RegModemConfig3, mc[2]},
		{RegDioMapping1, dioMapRxDone},
	}
	for _, w := range writes {
		if err := l.bus.WriteRegister(w.reg, w.val); err != nil {
			return err
		}
	}
	l.frequency = uint64(frequency / physic.Hertz)

	if err := l.setMode(StateStandby); err != nil {
		return err
	}
	glog.V(1).Infof("lora: configured %s bw=%v cr=%v sf=%d", frf.Frequency(), bw, cr, sf)
	return nil
}

// StartReceiving enters ReceiveContinuous. It must be called from Standby
// and does nothing if the device is already receiving.
func (l *Lora) StartReceiving() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	switch l.state {
	case StateReceiveContinuous:
		return nil
	case StateStandby:
		return l.setMode(StateReceiveContinuous)
	}
	return fmt.Errorf("%w: cannot receive from %v", ErrInvalidState, l.state)
}

// Standby moves the device to Standby from any state.
func (l *Lora) Standby() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.setMode(StateStandby)
}

// Sleep moves the device to Sleep from any state.
func (l *Lora) Sleep() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.setMode(StateSleep)
}

// Register reads one register.
func (l *Lora) Register(reg Register) (byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.bus.ReadRegister(reg)
}

// SetRegister writes one register. Read-only registers and RegOpMode are
// refused, as are RF registers while receiving; nothing reaches the bus in
// those cases.
func (l *Lora) SetRegister(reg Register, value byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.writeRegister(reg, value)
}

func (l *Lora) SetLnaBoost(boost bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	lna, err := l.bus.ReadRegister(RegLna)
	if err != nil {
		return err
	}
	if boost {
		return l.writeRegister(RegLna, lna|0x03)
	}
	return l.writeRegister(RegLna, lna&0xfc)
}

func (l *Lora) SetSyncWord(sw byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.writeRegister(RegSyncWord, sw)
}

func (l *Lora) SetPreambleLength(length uint16) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.writeRegister(RegPreambleMsb, byte(length>>8)); err != nil {
		return err
	}
	return l.writeRegister(RegPreambleLsb, byte(length))
}

func (l *Lora) writeRegister(reg Register, value byte) error {
	switch {
	case reg == RegOpMode:
		return fmt.Errorf("%w: %v is set through mode transitions", ErrInvalidConfig, reg)
	case !reg.Writable():
		return fmt.Errorf("%w: %v", ErrReadOnly, reg)
	case reg.RF() && l.state == StateReceiveContinuous:
		return fmt.Errorf("%w: %v written in %v", ErrInvalidState, reg, l.state)
	}
	return l.bus.WriteRegister(reg, value)
}

func (l *Lora) modeByte(m Mode) byte {
	return byte(ModeLongRange | m)
}

func (l *Lora) setMode(s State) error {
	if err := l.bus.WriteRegister(RegOpMode, l.modeByte(s.mode())); err != nil {
		return err
	}
	if l.state != s {
		glog.V(1).Infof("lora: %v -> %v", l.state, s)
	}
	l.state = s
	return nil
}
