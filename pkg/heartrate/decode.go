// Package heartrate decodes Heart Rate Measurement (0x2A37) notification
// payloads of the standard Bluetooth Heart Rate Service.
package heartrate

import (
	"encoding/binary"
	"errors"
	"fmt"
)

var (
	// ErrEmpty is returned for zero-length payloads. Sensors emit these
	// occasionally and they carry no reading.
	ErrEmpty = errors.New("empty heart rate payload")
	// ErrTruncated is returned when a payload is shorter than its flags require.
	ErrTruncated = errors.New("truncated heart rate payload")
)

const (
	flagsSize  = 1
	uint16Size = 2
)

// Decode decodes a raw Heart Rate Measurement payload.
//
// Layout: flags (1 byte), heart rate (1 or 2 bytes), energy expended (2 bytes,
// optional), RR intervals (2 bytes each, optional, fill the remainder). All
// multi-byte values are little-endian. An odd trailing byte in the RR-interval
// region is dropped.
func Decode(data []byte) (Reading, error) {
	if len(data) == 0 {
		return Reading{}, ErrEmpty
	}

	flags := Flags(data[0])
	if need := minimumLength(flags); len(data) < need {
		return Reading{}, fmt.Errorf("%w: flags %v need %d bytes, got %d", ErrTruncated, flags, need, len(data))
	}

	offset := flagsSize
	var hrValue uint16
	if flags.IsShort() {
		hrValue = binary.LittleEndian.Uint16(data[offset:])
		offset += uint16Size
	} else {
		hrValue = uint16(data[offset])
		offset++
	}

	reading := Reading{
		flags:   flags,
		contact: flags.ContactStatus(),
		hrValue: hrValue,
	}

	if flags.HasEnergyExpended() {
		reading.energy = binary.LittleEndian.Uint16(data[offset:])
		offset += uint16Size
	}

	if flags.HasRRInterval() {
		rrData := data[offset:]
		rrs := make([]uint16, 0, len(rrData)/uint16Size)
		for i := 0; i+uint16Size <= len(rrData); i += uint16Size {
			rrs = append(rrs, binary.LittleEndian.Uint16(rrData[i:]))
		}
		reading.rrs = rrs
		reading.rrPresent = true
	}

	return reading, nil
}

// UnmarshalBinary decodes data into the reading. On error the reading is left
// untouched.
func (receiver *Reading) UnmarshalBinary(data []byte) error {
	reading, err := Decode(data)
	if err != nil {
		return err
	}
	*receiver = reading
	return nil
}

// MarshalBinary encodes the reading in the wire layout implied by its flags.
func (receiver Reading) MarshalBinary() ([]byte, error) {
	flags := receiver.flags
	buf := make([]byte, 0, minimumLength(flags)+len(receiver.rrs)*uint16Size)
	buf = append(buf, byte(flags))

	if flags.IsShort() {
		buf = binary.LittleEndian.AppendUint16(buf, receiver.hrValue)
	} else {
		if receiver.hrValue > 0xff {
			return nil, fmt.Errorf("heart rate %d does not fit in 8-bit format", receiver.hrValue)
		}
		buf = append(buf, byte(receiver.hrValue))
	}

	if flags.HasEnergyExpended() {
		buf = binary.LittleEndian.AppendUint16(buf, receiver.energy)
	}

	if flags.HasRRInterval() {
		for _, rr := range receiver.rrs {
			buf = binary.LittleEndian.AppendUint16(buf, rr)
		}
	}

	return buf, nil
}

func minimumLength(flags Flags) int {
	n := flagsSize + 1
	if flags.IsShort() {
		n = flagsSize + uint16Size
	}
	if flags.HasEnergyExpended() {
		n += uint16Size
	}
	return n
}
