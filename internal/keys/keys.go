// Package keys injects synthetic key presses through the operating system.
package keys

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrDeviceUnavailable means the platform input-injection device could not
// be created. Key mappings cannot fire; command mappings are unaffected.
var ErrDeviceUnavailable = errors.New("virtual input device unavailable")

// Injector presses key chords. Codes are platform key codes as written in
// the config file.
type Injector interface {
	// PressKeys sends a down event for every code in order, then an up event
	// for every code in order, so all keys of a chord are held together.
	PressKeys(codes []int) error
	Close() error
}

// Event is one step of a key sequence.
type Event struct {
	Code int
	Down bool
}

func (e Event) String() string {
	if e.Down {
		return fmt.Sprintf("down(%d)", e.Code)
	}
	return fmt.Sprintf("up(%d)", e.Code)
}

// Sequence returns the events PressKeys emits for codes: two full passes,
// downs first, then ups, never interleaved per key.
func Sequence(codes []int) []Event {
	evs := make([]Event, 0, 2*len(codes))
	for _, c := range codes {
		evs = append(evs, Event{Code: c, Down: true})
	}
	for _, c := range codes {
		evs = append(evs, Event{Code: c, Down: false})
	}
	return evs
}

// Unavailable stands in for a device that failed to open.
type Unavailable struct {
	Err error
}

func (u Unavailable) PressKeys(codes []int) error {
	if len(codes) == 0 {
		return nil
	}
	if u.Err != nil {
		return u.Err
	}
	return ErrDeviceUnavailable
}

func (Unavailable) Close() error { return nil }
