//go:build portmidi && !midi_native

package midi

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/rakyll/portmidi"
)

const streamBuffer = 1024

type pmDriver struct{}

// Open initializes PortMidi. Close terminates it.
func Open() (Driver, error) {
	if err := portmidi.Initialize(); err != nil {
		return nil, errors.Wrap(err, "portmidi.Initialize")
	}
	return pmDriver{}, nil
}

func (pmDriver) devices(input bool) []portmidi.DeviceID {
	var ids []portmidi.DeviceID
	for i := 0; i < portmidi.CountDevices(); i++ {
		id := portmidi.DeviceID(i)
		info := portmidi.Info(id)
		if info == nil {
			continue
		}
		if (input && info.IsInputAvailable) || (!input && info.IsOutputAvailable) {
			ids = append(ids, id)
		}
	}
	return ids
}

func (d pmDriver) names(input bool) []string {
	ids := d.devices(input)
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		info := portmidi.Info(id)
		names = append(names, info.Interface+": "+info.Name)
	}
	return names
}

func (d pmDriver) Inputs() ([]string, error)  { return d.names(true), nil }
func (d pmDriver) Outputs() ([]string, error) { return d.names(false), nil }

func (d pmDriver) Open(index int) (Input, error) {
	ids := d.devices(true)
	if err := CheckPort(index+1, len(ids)); err != nil {
		return nil, err
	}
	s, err := portmidi.NewInputStream(ids[index], streamBuffer)
	if err != nil {
		return nil, errors.Wrapf(err, "opening input %d", index+1)
	}
	return &pmInput{s: s, last: -1}, nil
}

func (pmDriver) Close() error {
	return portmidi.Terminate()
}

type pmInput struct {
	s    *portmidi.Stream
	last portmidi.Timestamp
	once sync.Once
}

func (p *pmInput) Next() (Message, bool) {
	ok, err := p.s.Poll()
	if err != nil || !ok {
		return Message{}, false
	}
	evs, err := p.s.Read(1)
	if err != nil || len(evs) == 0 {
		return Message{}, false
	}
	ev := evs[0]
	status := byte(ev.Status)
	bt := []byte{status, byte(ev.Data1), byte(ev.Data2)}[:MessageLength(status)]

	var delta float64
	if p.last >= 0 {
		delta = float64(ev.Timestamp-p.last) / 1000
	}
	p.last = ev.Timestamp
	return Message{Bytes: bt, Delta: delta}, true
}

func (p *pmInput) Close() error {
	var err error
	p.once.Do(func() { err = p.s.Close() })
	return err
}
