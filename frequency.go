package glora

import (
	"fmt"

	"periph.io/x/conn/v3/physic"
)

const (
	fxOsc    = 32000000
	frfShift = 19

	minFrequency = 137 * physic.MegaHertz
	maxFrequency = 1020 * physic.MegaHertz
)

// FrequencyWord is the 24-bit carrier frequency setting, in steps of
// 32 MHz / 2^19 (about 61 Hz).
type FrequencyWord uint32

// NewFrequencyWord rounds f to the nearest step.
func NewFrequencyWord(f physic.Frequency) (FrequencyWord, error) {
	if f < minFrequency || f > maxFrequency {
		return 0, fmt.Errorf("%w: frequency %s out of range", ErrInvalidConfig, f)
	}
	hz := uint64(f / physic.Hertz)
	return FrequencyWord(((hz << frfShift) + fxOsc/2) / fxOsc), nil
}

// Bytes returns the MSB, MID and LSB register values.
func (w FrequencyWord) Bytes() [3]byte {
	return [3]byte{byte(w >> 16), byte(w >> 8), byte(w)}
}

// Frequency converts the word back to a frequency, truncated to whole Hz.
func (w FrequencyWord) Frequency() physic.Frequency {
	return physic.Frequency((uint64(w)*fxOsc)>>frfShift) * physic.Hertz
}

func frequencyWordFromBytes(b [3]byte) FrequencyWord {
	return FrequencyWord(b[0])<<16 | FrequencyWord(b[1])<<8 | FrequencyWord(b[2])
}
