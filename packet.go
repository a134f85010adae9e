package glora

import (
	"encoding/hex"
	"fmt"
	"time"
	"unicode/utf8"
)

// Packet is one received payload. It is not modified after Receive returns
// it.
type Packet struct {
	payload  []byte
	link     LinkQuality
	crcError bool
	received time.Time
}

// Payload returns a copy of the payload bytes.
func (p *Packet) Payload() []byte {
	b := make([]byte, len(p.payload))
	copy(b, p.payload)
	return b
}

func (p *Packet) Len() int { return len(p.payload) }

func (p *Packet) Link() LinkQuality { return p.link }

// CRCError reports whether the radio flagged a payload CRC mismatch. The
// payload is still delivered as read.
func (p *Packet) CRCError() bool { return p.crcError }

func (p *Packet) ReceivedAt() time.Time { return p.received }

// Text returns the payload as a string if it is valid UTF-8, and its
// hexadecimal encoding otherwise. ok is false in the hex case.
func (p *Packet) Text() (s string, ok bool) {
	if utf8.Valid(p.payload) {
		return string(p.payload), true
	}
	return hex.EncodeToString(p.payload), false
}

func (p *Packet) String() string {
	s, ok := p.Text()
	if !ok {
		s = "hex:" + s
	} else {
		s = fmt.Sprintf("%q", s)
	}
	return fmt.Sprintf("len=%d %v %s", len(p.payload), p.link, s)
}
