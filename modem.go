package glora

import (
	"fmt"

	"periph.io/x/conn/v3/physic"
)

// Bandwidth is the RegModemConfig1 signal bandwidth code.
type Bandwidth byte

const (
	Bandwidth7k8 Bandwidth = iota
	Bandwidth10k4
	Bandwidth15k6
	Bandwidth20k8
	Bandwidth31k25
	Bandwidth41k7
	Bandwidth62k5
	Bandwidth125k
	Bandwidth250k
	Bandwidth500k
)

var bandwidths = []physic.Frequency{
	7800 * physic.Hertz,
	10400 * physic.Hertz,
	15600 * physic.Hertz,
	20800 * physic.Hertz,
	31250 * physic.Hertz,
	41700 * physic.Hertz,
	62500 * physic.Hertz,
	125 * physic.KiloHertz,
	250 * physic.KiloHertz,
	500 * physic.KiloHertz,
}

// BandwidthFor returns the smallest bandwidth that is at least f.
func BandwidthFor(f physic.Frequency) (Bandwidth, error) {
	for i, bw := range bandwidths {
		if f <= bw {
			return Bandwidth(i), nil
		}
	}
	return 0, fmt.Errorf("%w: bandwidth %s above 500kHz", ErrInvalidConfig, f)
}

func (b Bandwidth) valid() bool { return int(b) < len(bandwidths) }

func (b Bandwidth) Frequency() physic.Frequency {
	if !b.valid() {
		return 0
	}
	return bandwidths[b]
}

func (b Bandwidth) String() string {
	if !b.valid() {
		return fmt.Sprintf("Bandwidth(%d)", byte(b))
	}
	return bandwidths[b].String()
}

// CodingRate is the RegModemConfig1 coding rate code, 4/5 through 4/8.
type CodingRate byte

const (
	CodingRate4_5 CodingRate = iota + 1
	CodingRate4_6
	CodingRate4_7
	CodingRate4_8
)

func (c CodingRate) valid() bool { return c >= CodingRate4_5 && c <= CodingRate4_8 }

func (c CodingRate) String() string { return fmt.Sprintf("4/%d", byte(c)+4) }

// SpreadingFactor is the base-2 log of chips per symbol. Only explicit
// header mode is used, which rules out SF6.
type SpreadingFactor byte

const (
	MinSpreadingFactor SpreadingFactor = 7
	MaxSpreadingFactor SpreadingFactor = 12
)

func (s SpreadingFactor) valid() bool {
	return s >= MinSpreadingFactor && s <= MaxSpreadingFactor
}

const (
	modemConfig3AgcAuto     byte = 0x04
	modemConfig3LowDataRate byte = 0x08

	lowDataRateSymbolTimeMax = 16 // ms
)

// modemConfig returns RegModemConfig1, RegModemConfig2 and RegModemConfig3.
// Header mode is explicit, the rx timeout MSBs are left at zero and the LNA
// gain is under AGC. Low data rate optimisation is required once a symbol
// lasts longer than 16ms.
func modemConfig(bw Bandwidth, cr CodingRate, sf SpreadingFactor, crc bool) ([3]byte, error) {
	var mc [3]byte
	switch {
	case !bw.valid():
		return mc, fmt.Errorf("%w: bandwidth code %d", ErrInvalidConfig, bw)
	case !cr.valid():
		return mc, fmt.Errorf("%w: coding rate code %d", ErrInvalidConfig, cr)
	case !sf.valid():
		return mc, fmt.Errorf("%w: spreading factor %d", ErrInvalidConfig, sf)
	}
	mc[0] = byte(bw)<<4 | byte(cr)<<1
	mc[1] = byte(sf) << 4
	if crc {
		mc[1] |= 0x04
	}
	mc[2] = modemConfig3AgcAuto
	if symbolTimeExceeds(bw, sf, lowDataRateSymbolTimeMax) {
		mc[2] |= modemConfig3LowDataRate
	}
	return mc, nil
}

// symbolTimeExceeds reports whether 2^sf / bw is longer than ms.
func symbolTimeExceeds(bw Bandwidth, sf SpreadingFactor, ms int64) bool {
	hz := int64(bw.Frequency() / physic.Hertz)
	return (int64(1)<<sf)*1000 > ms*hz
}
