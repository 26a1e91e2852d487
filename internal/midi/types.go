// Package midi adapts a MIDI input backend to the polling interface used by
// the listener loop. The backend is chosen at build time: -tags midi_native
// uses rtmidi, -tags portmidi uses PortMidi, and the default build carries
// no backend at all.
package midi

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

var (
	// ErrPortNotFound is returned when no input ports exist or the requested
	// 1-based port number is beyond the available ones.
	ErrPortNotFound = errors.New("MIDI port does not exist")
	// ErrNoDriver is returned by Open in builds without a MIDI backend.
	ErrNoDriver = errors.New("no MIDI driver in this build (build with -tags midi_native or -tags portmidi)")
)

// Message is one raw message as delivered by the backend.
type Message struct {
	Bytes []byte
	Delta float64 // seconds since the previous message, informational
}

// Input is an opened input port.
type Input interface {
	// Next returns the next pending message without blocking.
	Next() (Message, bool)
	Close() error
}

// Driver enumerates and opens ports of one backend.
type Driver interface {
	Inputs() ([]string, error)
	Outputs() ([]string, error)
	// Open opens the input at a 0-based index.
	Open(index int) (Input, error)
	Close() error
}

// CheckPort validates a 1-based port number against the number of
// available ports.
func CheckPort(port, count int) error {
	if count == 0 {
		return errors.Wrap(ErrPortNotFound, "no ports available")
	}
	if port < 1 || port > count {
		return errors.Wrapf(ErrPortNotFound, "port %d requested, %d available", port, count)
	}
	return nil
}

// Type classifies a message by its status byte.
type Type string

const (
	NoteOff         Type = "note_off"
	NoteOn          Type = "note_on"
	PolyPressure    Type = "poly_pressure"
	ControlChange   Type = "control_change"
	ProgramChange   Type = "program_change"
	ChannelPressure Type = "channel_pressure"
	PitchBend       Type = "pitch_bend"
	System          Type = "system"
	Data            Type = "data" // no status bit set
)

// Classify returns the message type and 1-16 channel (0 for system and data
// bytes) of a status byte.
func Classify(status byte) (Type, uint8) {
	if status < 0x80 {
		return Data, 0
	}
	if status >= 0xF0 {
		return System, 0
	}
	ch := (status & 0x0F) + 1
	switch status >> 4 {
	case 0x8:
		return NoteOff, ch
	case 0x9:
		return NoteOn, ch
	case 0xA:
		return PolyPressure, ch
	case 0xB:
		return ControlChange, ch
	case 0xC:
		return ProgramChange, ch
	case 0xD:
		return ChannelPressure, ch
	default:
		return PitchBend, ch
	}
}

// MessageLength is the total length in bytes of a short message starting
// with status. SysEx (0xF0) is reported as 1; its payload is not handled.
func MessageLength(status byte) int {
	switch {
	case status < 0x80:
		return 1
	case status < 0xF0:
		switch status >> 4 {
		case 0xC, 0xD:
			return 2
		default:
			return 3
		}
	}
	switch status {
	case 0xF1, 0xF3:
		return 2
	case 0xF2:
		return 3
	default:
		return 1
	}
}

// Format renders a message the way the listen mode prints it.
func Format(msg Message) string {
	var sb strings.Builder
	for i, b := range msg.Bytes {
		fmt.Fprintf(&sb, "Byte %d = %d, ", i, b)
	}
	fmt.Fprintf(&sb, "stamp = %g", msg.Delta)
	return sb.String()
}
