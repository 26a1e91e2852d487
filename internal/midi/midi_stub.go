//go:build !midi_native && !portmidi && !(darwin && coremidi)

package midi

// Open reports ErrNoDriver: the default build has no MIDI backend.
func Open() (Driver, error) {
	return nil, ErrNoDriver
}
