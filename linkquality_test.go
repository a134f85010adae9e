package glora

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeRSSI(t *testing.T) {
	assert.Equal(t, -27, DecodeRSSI(137, 433e6))
	assert.Equal(t, 0, DecodeRSSI(164, 433e6))
	assert.Equal(t, -164, DecodeRSSI(0, 433e6))
	assert.Equal(t, -20, DecodeRSSI(137, 868e6))
}

func TestDecodeSNR(t *testing.T) {
	assert.Equal(t, 1.25, DecodeSNR(0x05))
	assert.Equal(t, -1.25, DecodeSNR(0xfb))
	assert.Equal(t, 0.0, DecodeSNR(0x00))
	assert.Equal(t, 31.75, DecodeSNR(0x7f))
	assert.Equal(t, -32.0, DecodeSNR(0x80))
}

func TestPacketText(t *testing.T) {
	p := &Packet{payload: []byte("hello")}
	s, ok := p.Text()
	assert.True(t, ok)
	assert.Equal(t, "hello", s)

	p = &Packet{payload: []byte{0xff, 0x00, 0x41}}
	s, ok = p.Text()
	assert.False(t, ok)
	assert.Equal(t, "ff0041", s)
	assert.Contains(t, p.String(), "hex:ff0041")

	p = &Packet{}
	s, ok = p.Text()
	assert.True(t, ok)
	assert.Empty(t, s)
}

func TestPacketPayloadIsCopied(t *testing.T) {
	p := &Packet{payload: []byte{1, 2, 3}}
	b := p.Payload()
	b[0] = 9
	assert.Equal(t, []byte{1, 2, 3}, p.Payload())
}
