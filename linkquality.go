package glora

import "fmt"

// LinkQuality holds the signal metrics of the last received packet.
type LinkQuality struct {
	RSSI int     // dBm
	SNR  float64 // dB
}

func (q LinkQuality) String() string {
	return fmt.Sprintf("rssi=%ddBm snr=%.2fdB", q.RSSI, q.SNR)
}

// rssiOffset returns the calibration offset of the RF port that serves
// frequencyHz.
func rssiOffset(frequencyHz uint64) int {
	if frequencyHz < RfMidBandThreshold {
		return RssiOffsetLfPort
	}
	return RssiOffsetHfPort
}

// DecodeRSSI converts a raw RegPktRssiValue byte to dBm.
func DecodeRSSI(raw byte, frequencyHz uint64) int {
	return int(raw) - rssiOffset(frequencyHz)
}

// DecodeSNR converts a raw RegPktSnrValue byte, a two's complement count of
// quarter dB, to dB.
func DecodeSNR(raw byte) float64 {
	return float64(int8(raw)) / 4
}
