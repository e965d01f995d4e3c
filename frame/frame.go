// Package frame builds the binary command frame understood by the train
// power supply. The device speaks a fixed 20-byte protocol over serial:
// a 19-byte command body followed by a one-byte modular checksum.
package frame

import (
	"fmt"
	"math"
)

const (
	// Size is the total frame length including the checksum byte.
	Size = 20

	bodySize = 19

	// Offsets of the voltage set-point within the body, big-endian
	// decivolts.
	voltageHighOffset = 7
	voltageLowOffset  = 8

	// MaxVoltage is the largest set-point encodable in 16 bits of
	// decivolts.
	MaxVoltage = 6553.5
)

// template is the command body for "set voltage". Bytes 7-8 are
// placeholders overwritten per call. Values past the set-point carry the
// supply's protection thresholds and mode flags as configured at
// commissioning.
var template = [bodySize]byte{
	0xAA, // header
	0x01, // device number
	0x2C, // set/get command
	0x13, 0x88, // protection voltage
	0x12, 0xAB, // protection current
	0x00, 0x00, // voltage set-point (filled in)
	0x00, 0x04, // current set-point
	0x00, 0x00, 0x00,
	0x42,
	0x00, 0x00, 0x00, 0x00,
}

// EncodeVoltage returns the 20-byte frame that sets the supply output to
// the given voltage. The set-point is rounded to the nearest decivolt.
// Voltages outside [0, MaxVoltage] are rejected.
func EncodeVoltage(voltage float64) ([]byte, error) {
	deciVolts := math.Round(voltage * 10)
	if deciVolts < 0 || deciVolts > math.MaxUint16 {
		return nil, fmt.Errorf("voltage %.1f out of range [0, %.1f]", voltage, MaxVoltage)
	}

	dv := uint16(deciVolts)
	buf := make([]byte, Size)
	copy(buf, template[:])
	buf[voltageHighOffset] = byte(dv >> 8)
	buf[voltageLowOffset] = byte(dv)
	buf[bodySize] = Checksum(buf[:bodySize])
	return buf, nil
}

// Checksum returns the modular sum of the given bytes. The supply
// verifies it against the trailing byte of every frame.
func Checksum(body []byte) byte {
	var sum int
	for _, b := range body {
		sum += int(b)
	}
	return byte(sum % 256)
}
