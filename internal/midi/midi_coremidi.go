//go:build darwin && coremidi && !midi_native && !portmidi

package midi

import (
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/youpy/go-coremidi"
)

const packetBuffer = 1024

type cmDriver struct {
	client coremidi.Client
}

// Open creates a CoreMIDI client named after the program.
func Open() (Driver, error) {
	client, err := coremidi.NewClient("midirun")
	if err != nil {
		return nil, errors.Wrap(err, "coremidi.NewClient")
	}
	return &cmDriver{client: client}, nil
}

func (d *cmDriver) Inputs() ([]string, error) {
	sources, err := coremidi.AllSources()
	if err != nil {
		return nil, errors.Wrap(err, "listing MIDI sources")
	}
	names := make([]string, 0, len(sources))
	for _, s := range sources {
		names = append(names, s.Name())
	}
	return names, nil
}

func (d *cmDriver) Outputs() ([]string, error) {
	dests, err := coremidi.AllDestinations()
	if err != nil {
		return nil, errors.Wrap(err, "listing MIDI destinations")
	}
	names := make([]string, 0, len(dests))
	for _, dst := range dests {
		names = append(names, dst.Name())
	}
	return names, nil
}

func (d *cmDriver) Open(index int) (Input, error) {
	sources, err := coremidi.AllSources()
	if err != nil {
		return nil, errors.Wrap(err, "listing MIDI sources")
	}
	if err := CheckPort(index+1, len(sources)); err != nil {
		return nil, err
	}

	in := &cmInput{msgs: make(chan Message, packetBuffer)}
	port, err := coremidi.NewInputPort(d.client, "midirun input", in.receive)
	if err != nil {
		return nil, errors.Wrap(err, "creating input port")
	}
	conn, err := port.Connect(sources[index])
	if err != nil {
		return nil, errors.Wrapf(err, "connecting to %q", sources[index].Name())
	}
	in.conn = conn
	return in, nil
}

func (*cmDriver) Close() error { return nil }

type disconnecter interface {
	Disconnect()
}

type cmInput struct {
	conn disconnecter
	msgs chan Message
	mu   sync.Mutex
	last time.Time
	once sync.Once
}

func (c *cmInput) receive(_ coremidi.Source, packet coremidi.Packet) {
	if len(packet.Data) == 0 {
		return
	}
	now := time.Now()
	c.mu.Lock()
	var delta float64
	if !c.last.IsZero() {
		delta = now.Sub(c.last).Seconds()
	}
	c.last = now
	c.mu.Unlock()

	msg := Message{Bytes: append([]byte(nil), packet.Data...), Delta: delta}
	select {
	case c.msgs <- msg:
	default:
	}
}

func (c *cmInput) Next() (Message, bool) {
	select {
	case m := <-c.msgs:
		return m, true
	default:
		return Message{}, false
	}
}

func (c *cmInput) Close() error {
	c.once.Do(func() { c.conn.Disconnect() })
	return nil
}
