package glora

import "fmt"

type Mode byte
type Register byte

// Access describes how a register may be used over the bus.
type Access byte

const (
	AccessRead Access = 1 << iota
	AccessWrite

	AccessReadWrite = AccessRead | AccessWrite
)

const (
	RegFifo           Register = 0x00
	RegOpMode         Register = 0x01
	RegFrfMsb         Register = 0x06
	RegFrfMid         Register = 0x07
	RegFrfLsb         Register = 0x08
	RegLna            Register = 0x0c
	RegFifoAddrPtr    Register = 0x0d
	RegFifoRxBaseAddr Register = 0x0f
	RegIrqFlags       Register = 0x12
	RegRxNbBytes      Register = 0x13
	RegPktSnrValue    Register = 0x19
	RegPktRssiValue   Register = 0x1a
	RegRssiValue      Register = 0x1b
	RegModemConfig1   Register = 0x1d
	RegModemConfig2   Register = 0x1e
	RegPreambleMsb    Register = 0x20
	RegPreambleLsb    Register = 0x21
	RegPayloadLength  Register = 0x22
	RegModemConfig3   Register = 0x26
	RegSyncWord       Register = 0x39
	RegDioMapping1    Register = 0x40
	RegVersion        Register = 0x42
)

type registerInfo struct {
	name   string
	access Access
	// rf marks registers that must not be written while receiving.
	rf bool
}

var registers = map[Register]registerInfo{
	RegFifo:           {"RegFifo", AccessReadWrite, false},
	RegOpMode:         {"RegOpMode", AccessReadWrite, false},
	RegFrfMsb:         {"RegFrfMsb", AccessReadWrite, true},
	RegFrfMid:         {"RegFrfMid", AccessReadWrite, true},
	RegFrfLsb:         {"RegFrfLsb", AccessReadWrite, true},
	RegLna:            {"RegLna", AccessReadWrite, true},
	RegFifoAddrPtr:    {"RegFifoAddrPtr", AccessReadWrite, false},
	RegFifoRxBaseAddr: {"RegFifoRxBaseAddr", AccessReadWrite, true},
	RegIrqFlags:       {"RegIrqFlags", AccessReadWrite, false},
	RegRxNbBytes:      {"RegRxNbBytes", AccessRead, false},
	RegPktSnrValue:    {"RegPktSnrValue", AccessRead, false},
	RegPktRssiValue:   {"RegPktRssiValue", AccessRead, false},
	RegRssiValue:      {"RegRssiValue", AccessRead, false},
	RegModemConfig1:   {"RegModemConfig1", AccessReadWrite, true},
	RegModemConfig2:   {"RegModemConfig2", AccessReadWrite, true},
	RegPreambleMsb:    {"RegPreambleMsb", AccessReadWrite, true},
	RegPreambleLsb:    {"RegPreambleLsb", AccessReadWrite, true},
	RegPayloadLength:  {"RegPayloadLength", AccessReadWrite, true},
	RegModemConfig3:   {"RegModemConfig3", AccessReadWrite, true},
	RegSyncWord:       {"RegSyncWord", AccessReadWrite, true},
	RegDioMapping1:    {"RegDioMapping1", AccessReadWrite, false},
	RegVersion:        {"RegVersion", AccessRead, false},
}

// Access returns the access mode of a known register. Unknown addresses are
// treated as read-write.
func (r Register) Access() Access {
	if info, ok := registers[r]; ok {
		return info.access
	}
	return AccessReadWrite
}

// Writable reports whether the register accepts bus writes.
func (r Register) Writable() bool { return r.Access()&AccessWrite != 0 }

// RF reports whether writing the register changes the RF configuration.
func (r Register) RF() bool { return registers[r].rf }

func (r Register) String() string {
	if info, ok := registers[r]; ok {
		return info.name
	}
	return fmt.Sprintf("Reg(%#02x)", byte(r))
}

// The low three bits of RegOpMode select the operating mode, bit 7 selects
// between the FSK/OOK (legacy) and LoRa (long range) register layouts.
const (
	ModeLongRange    Mode = 0x80
	ModeSleep        Mode = 0x00
	ModeStandby      Mode = 0x01
	ModeRxContinuous Mode = 0x05

	modeMask Mode = 0x07
)

const (
	IrqPayloadCrcErrorMask byte   = 0x20
	IrqRxDoneMask          byte   = 0x40
	RfMidBandThreshold     uint64 = 525e6
	RssiOffsetHfPort       int    = 157
	RssiOffsetLfPort       int    = 164
	MaxPktLength           int    = 255

	// DefensiveMaxPayloadLength is the bound used when treating a reported
	// length of 255 as implausible. The radio itself allows 255.
	DefensiveMaxPayloadLength = 254

	chipVersion byte = 0x12
	// dioMapRxDone maps DIO0 to RxDone in LoRa mode.
	dioMapRxDone byte = 0x00
	rxBaseAddr   byte = 0x00
)
