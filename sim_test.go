package glora

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

var errSimFault = errors.New("sim: bus fault")

type busOp struct {
	write bool
	reg   Register
	val   byte
	csLow bool
}

// simRadio models the SX127x register file behind an spi.Conn: the FIFO
// is reached through RegFifo at RegFifoAddrPtr, which advances on every
// access, and RegIrqFlags bits clear when written with one.
type simRadio struct {
	mu     sync.Mutex
	regs   [0x80]byte
	fifo   [256]byte
	ops    []busOp
	cs     *gpiotest.Pin
	n      int
	failAt int

	busy     int32
	overlaps int32
	slow     time.Duration
}

func newSimRadio() *simRadio {
	s := &simRadio{}
	s.regs[RegVersion] = chipVersion
	return s
}

func (s *simRadio) String() string                 { return "sim" }
func (s *simRadio) Halt() error                    { return nil }
func (s *simRadio) Duplex() conn.Duplex            { return conn.Full }
func (s *simRadio) TxPackets(p []spi.Packet) error { return errors.New("sim: packets not supported") }

func (s *simRadio) Tx(w, r []byte) error {
	if atomic.AddInt32(&s.busy, 1) > 1 {
		atomic.AddInt32(&s.overlaps, 1)
	}
	defer atomic.AddInt32(&s.busy, -1)
	if s.slow > 0 {
		time.Sleep(s.slow)
	}

	if len(w) != 2 || len(r) != 2 {
		return fmt.Errorf("sim: %d byte transfer", len(w))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.n++
	if s.failAt != 0 && s.n == s.failAt {
		return errSimFault
	}

	op := busOp{
		write: w[0]&spiWriteMask != 0,
		reg:   Register(w[0] & spiReadMask),
		csLow: s.cs == nil || s.cs.Read() == gpio.Low,
	}
	if op.write {
		op.val = w[1]
		switch op.reg {
		case RegIrqFlags:
			s.regs[RegIrqFlags] &^= w[1]
		case RegFifo:
			s.fifo[s.regs[RegFifoAddrPtr]] = w[1]
			s.regs[RegFifoAddrPtr]++
		default:
			s.regs[op.reg] = w[1]
		}
	} else {
		switch op.reg {
		case RegFifo:
			op.val = s.fifo[s.regs[RegFifoAddrPtr]]
			s.regs[RegFifoAddrPtr]++
		default:
			op.val = s.regs[op.reg]
		}
		r[0], r[1] = 0, op.val
	}
	s.ops = append(s.ops, op)
	return nil
}

// deliver stores a received packet the way the modem does and raises
// RxDone. The FIFO pointer is left somewhere else.
func (s *simRadio) deliver(payload []byte, rssi, snr byte, crcError bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	base := s.regs[RegFifoRxBaseAddr]
	for i, b := range payload {
		s.fifo[byte(int(base)+i)] = b
	}
	s.regs[RegRxNbBytes] = byte(len(payload))
	s.regs[RegFifoAddrPtr] = 0x37
	s.regs[RegPktRssiValue] = rssi
	s.regs[RegPktSnrValue] = snr
	s.regs[RegIrqFlags] |= IrqRxDoneMask
	if crcError {
		s.regs[RegIrqFlags] |= IrqPayloadCrcErrorMask
	}
}

func (s *simRadio) reg(r Register) byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.regs[r]
}

func (s *simRadio) history() []busOp {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]busOp(nil), s.ops...)
}

func (s *simRadio) clearHistory() {
	s.mu.Lock()
	s.ops = nil
	s.mu.Unlock()
}

func (s *simRadio) failNext(k int) {
	s.mu.Lock()
	s.failAt = s.n + k
	s.mu.Unlock()
}

func (s *simRadio) writes(reg Register) []byte {
	var vals []byte
	for _, op := range s.history() {
		if op.write && op.reg == reg {
			vals = append(vals, op.val)
		}
	}
	return vals
}

func (s *simRadio) reads(reg Register) int {
	n := 0
	for _, op := range s.history() {
		if !op.write && op.reg == reg {
			n++
		}
	}
	return n
}

func newTestLora(t *testing.T, opts Options) (*Lora, *simRadio) {
	sim := newSimRadio()
	l, err := New(sim, Pins{}, opts)
	require.NoError(t, err)
	return l, sim
}

// receivingLora returns a driver configured at 433MHz and receiving.
func receivingLora(t *testing.T, opts Options) (*Lora, *simRadio) {
	l, sim := newTestLora(t, opts)
	require.NoError(t, l.Reset())
	require.NoError(t, l.Configure(433*physic.MegaHertz, Bandwidth125k, CodingRate4_5, 7))
	require.NoError(t, l.StartReceiving())
	sim.clearHistory()
	return l, sim
}

// recordConn records raw transfers and answers every one with resp.
type recordConn struct {
	simRadio
	resp byte
	w    [][]byte
}

func (c *recordConn) Tx(w, r []byte) error {
	c.w = append(c.w, append([]byte(nil), w...))
	for i := range r {
		r[i] = c.resp
	}
	return nil
}
