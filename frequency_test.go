package glora

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/physic"
)

func TestFrequencyWord(t *testing.T) {
	cases := []struct {
		f    physic.Frequency
		want [3]byte
	}{
		{433 * physic.MegaHertz, [3]byte{0x6c, 0x40, 0x00}},
		// The bytes written by the original 433 MHz receiver scripts.
		{434 * physic.MegaHertz, [3]byte{0x6c, 0x80, 0x00}},
		{868 * physic.MegaHertz, [3]byte{0xd9, 0x00, 0x00}},
		{915 * physic.MegaHertz, [3]byte{0xe4, 0xc0, 0x00}},
		// 433.175 MHz is 7097139.2 steps, rounds down.
		{433175 * physic.KiloHertz, [3]byte{0x6c, 0x4b, 0x33}},
	}
	for _, c := range cases {
		w, err := NewFrequencyWord(c.f)
		require.NoError(t, err)
		assert.Equal(t, c.want, w.Bytes(), "%s", c.f)
		assert.Equal(t, w, frequencyWordFromBytes(w.Bytes()))
	}
}

func TestFrequencyWordRounds(t *testing.T) {
	// 433 MHz + 31 Hz is just above half a step.
	w, err := NewFrequencyWord(433*physic.MegaHertz + 31*physic.Hertz)
	require.NoError(t, err)
	assert.Equal(t, FrequencyWord(0x6c4001), w)

	w, err = NewFrequencyWord(433*physic.MegaHertz + 30*physic.Hertz)
	require.NoError(t, err)
	assert.Equal(t, FrequencyWord(0x6c4000), w)
	assert.Equal(t, 433*physic.MegaHertz, w.Frequency())
}

func TestFrequencyWordRange(t *testing.T) {
	_, err := NewFrequencyWord(100 * physic.MegaHertz)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	_, err = NewFrequencyWord(2 * physic.GigaHertz)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestBandwidthFor(t *testing.T) {
	bw, err := BandwidthFor(125 * physic.KiloHertz)
	require.NoError(t, err)
	assert.Equal(t, Bandwidth125k, bw)

	bw, err = BandwidthFor(100 * physic.KiloHertz)
	require.NoError(t, err)
	assert.Equal(t, Bandwidth125k, bw)

	bw, err = BandwidthFor(7 * physic.KiloHertz)
	require.NoError(t, err)
	assert.Equal(t, Bandwidth7k8, bw)

	_, err = BandwidthFor(600 * physic.KiloHertz)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	assert.Equal(t, 500*physic.KiloHertz, Bandwidth500k.Frequency())
}

func TestModemConfig(t *testing.T) {
	mc, err := modemConfig(Bandwidth125k, CodingRate4_5, 7, true)
	require.NoError(t, err)
	assert.Equal(t, [3]byte{0x72, 0x74, 0x04}, mc)

	// 4096 chips at 500kHz is 8.2ms per symbol.
	mc, err = modemConfig(Bandwidth500k, CodingRate4_8, 12, false)
	require.NoError(t, err)
	assert.Equal(t, [3]byte{0x98, 0xc0, 0x04}, mc)

	for _, c := range []struct {
		bw Bandwidth
		cr CodingRate
		sf SpreadingFactor
	}{
		{10, CodingRate4_5, 7},
		{Bandwidth125k, 0, 7},
		{Bandwidth125k, 5, 7},
		{Bandwidth125k, CodingRate4_5, 6},
		{Bandwidth125k, CodingRate4_5, 13},
	} {
		_, err := modemConfig(c.bw, c.cr, c.sf, true)
		assert.ErrorIs(t, err, ErrInvalidConfig, "%+v", c)
	}
}

func TestModemConfigLowDataRateOptimize(t *testing.T) {
	cases := []struct {
		bw   Bandwidth
		sf   SpreadingFactor
		ldro bool
	}{
		{Bandwidth125k, 10, false}, // 8.2ms
		{Bandwidth125k, 11, true},  // 16.4ms
		{Bandwidth125k, 12, true},  // 32.8ms
		{Bandwidth250k, 12, true},  // 16.4ms
		{Bandwidth250k, 11, false}, // 8.2ms
		{Bandwidth62k5, 10, true},  // 16.4ms
		{Bandwidth500k, 12, false}, // 8.2ms
	}
	for _, c := range cases {
		mc, err := modemConfig(c.bw, CodingRate4_5, c.sf, true)
		require.NoError(t, err)
		want := byte(0x04)
		if c.ldro {
			want |= 0x08
		}
		assert.Equal(t, want, mc[2], "bw=%v sf=%d", c.bw, c.sf)
	}
}
