package heartrate

import (
	"fmt"
	"time"
)

// Flags is the first byte of a Heart Rate Measurement payload.
type Flags uint8

const (
	// FlagShort marks a 16-bit heart rate value.
	FlagShort Flags = 1 << 0
	// FlagEnergyExpended marks the presence of the energy expended field.
	FlagEnergyExpended Flags = 1 << 3
	// FlagRRInterval marks the presence of RR-interval values.
	FlagRRInterval Flags = 1 << 4

	contactMask  Flags = 0x06
	contactShift       = 1
)

// IsShort reports whether the heart rate value is 2 bytes wide.
func (f Flags) IsShort() bool { return f&FlagShort != 0 }

// HasEnergyExpended reports whether an energy expended field follows the heart rate.
func (f Flags) HasEnergyExpended() bool { return f&FlagEnergyExpended != 0 }

// HasRRInterval reports whether RR-interval values fill the rest of the payload.
func (f Flags) HasRRInterval() bool { return f&FlagRRInterval != 0 }

// ContactStatus extracts bits 1-2. The "contact supported" bit is not
// consulted separately.
func (f Flags) ContactStatus() ContactStatus {
	return ContactStatus((f & contactMask) >> contactShift)
}

func (f Flags) String() string {
	return fmt.Sprintf("0x%02x", uint8(f))
}

// ContactStatus is the sensor contact status carried in the flags byte.
type ContactStatus uint8

const (
	ContactNotSupported ContactStatus = iota
	ContactNotSupported2
	ContactNone
	ContactDetected
)

func (s ContactStatus) String() string {
	switch s {
	case ContactNotSupported:
		return "NotSupported"
	case ContactNotSupported2:
		return "NotSupported2"
	case ContactNone:
		return "NoContact"
	case ContactDetected:
		return "Contact"
	default:
		return "Unknown"
	}
}

// Reading is a decoded heart rate measurement.
type Reading struct {
	flags     Flags
	contact   ContactStatus
	hrValue   uint16
	energy    uint16
	rrs       []uint16
	rrPresent bool
}

// NewReading builds a reading from already known field values. The energy
// value is ignored unless flags carry FlagEnergyExpended, and rrs are ignored
// unless flags carry FlagRRInterval.
func NewReading(flags Flags, hrValue uint16, energy uint16, rrs []uint16) Reading {
	reading := Reading{
		flags:   flags,
		contact: flags.ContactStatus(),
		hrValue: hrValue,
	}
	if flags.HasEnergyExpended() {
		reading.energy = energy
	}
	if flags.HasRRInterval() {
		reading.rrPresent = true
		reading.rrs = append([]uint16{}, rrs...)
	}
	return reading
}

// GetFlags returns the flags byte the reading was decoded from.
func (receiver Reading) GetFlags() Flags {
	return receiver.flags
}

// GetContactStatus returns the sensor contact status.
func (receiver Reading) GetContactStatus() ContactStatus {
	return receiver.contact
}

// GetHeartRate returns the heart rate in beats per minute.
func (receiver Reading) GetHeartRate() int {
	return int(receiver.hrValue)
}

// GetEnergyExpended returns the energy expended in kilojoules and whether the
// field was present.
func (receiver Reading) GetEnergyExpended() (int, bool) {
	if !receiver.flags.HasEnergyExpended() {
		return 0, false
	}
	return int(receiver.energy), true
}

// HasRRIntervals reports whether the RR-interval field was present, even if
// it held no values.
func (receiver Reading) HasRRIntervals() bool {
	return receiver.rrPresent
}

// GetRRIntervals returns the RR intervals in 1/1024 second units, oldest first.
func (receiver Reading) GetRRIntervals() []int {
	if !receiver.rrPresent {
		return nil
	}
	rrs := make([]int, len(receiver.rrs))
	for i, rr := range receiver.rrs {
		rrs[i] = int(rr)
	}
	return rrs
}

// GetRRIntervalsMs returns the RR intervals in whole milliseconds.
func (receiver Reading) GetRRIntervalsMs() []int {
	if !receiver.rrPresent {
		return nil
	}
	rrsMs := make([]int, len(receiver.rrs))
	for i, rr := range receiver.rrs {
		rrsMs[i] = int(float64(rr) / 1024.0 * 1000.0)
	}
	return rrsMs
}

// GetRRDurations returns the RR intervals as durations, oldest first.
func (receiver Reading) GetRRDurations() []time.Duration {
	if !receiver.rrPresent {
		return nil
	}
	durations := make([]time.Duration, len(receiver.rrs))
	for i, rr := range receiver.rrs {
		durations[i] = time.Duration(rr) * time.Second / 1024
	}
	return durations
}

func (receiver Reading) String() string {
	s := fmt.Sprintf("Heart rate: %v, Contact: %v", receiver.hrValue, receiver.contact)
	if energy, ok := receiver.GetEnergyExpended(); ok {
		s += fmt.Sprintf(", Energy expended: %v kJ", energy)
	}
	if receiver.rrPresent {
		s += fmt.Sprintf(", RR interval(s): %v", receiver.rrs)
	}
	return s
}
