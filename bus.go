package glora

import (
	"sync"

	"github.com/golang/glog"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/spi"
)

const (
	spiWriteMask byte = 0x80
	spiReadMask  byte = 0x7f
)

// Bus frames single-register transactions on an SPI connection. Every
// transaction holds the bus lock from chip-select assertion to deassertion,
// so callers on different goroutines never interleave on the wire.
//
// When cs is nil the SPI port's native chip-select frames the transfer.
type Bus struct {
	mu   sync.Mutex
	conn spi.Conn
	cs   gpio.PinOut
}

// NewBus returns a Bus on conn. cs may be nil.
func NewBus(conn spi.Conn, cs gpio.PinOut) (*Bus, error) {
	if cs != nil {
		if err := cs.Out(gpio.High); err != nil {
			return nil, err
		}
	}
	return &Bus{conn: conn, cs: cs}, nil
}

// ReadRegister sends the address with the write bit cleared and a zero
// filler, and returns the second response byte.
func (b *Bus) ReadRegister(reg Register) (byte, error) {
	w := []byte{byte(reg) & spiReadMask, 0x00}
	r := make([]byte, len(w))
	if err := b.tx(w, r); err != nil {
		return 0, &TransportError{Op: "read", Reg: reg, Err: err}
	}
	if glog.V(3) {
		glog.Infof("bus: read %v = %#02x", reg, r[1])
	}
	return r[1], nil
}

// WriteRegister sends the address with the write bit set followed by value.
// The response is discarded.
func (b *Bus) WriteRegister(reg Register, value byte) error {
	w := []byte{byte(reg) | spiWriteMask, value}
	if err := b.tx(w, make([]byte, len(w))); err != nil {
		return &TransportError{Op: "write", Reg: reg, Err: err}
	}
	if glog.V(3) {
		glog.Infof("bus: write %v = %#02x", reg, value)
	}
	return nil
}

func (b *Bus) tx(w, r []byte) (err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cs != nil {
		if err := b.cs.Out(gpio.Low); err != nil {
			return err
		}
		defer func() {
			if e := b.cs.Out(gpio.High); err == nil {
				err = e
			}
		}()
	}
	return b.conn.Tx(w, r)
}
