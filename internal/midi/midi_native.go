//go:build midi_native

package midi

import (
	"sync"

	"github.com/pkg/errors"
	"gitlab.com/gomidi/midi"
	"gitlab.com/gomidi/rtmididrv"
)

// inputBuffer bounds what the rtmidi callback may queue between polls.
// Messages arriving while it is full are dropped.
const inputBuffer = 1024

type nativeDriver struct {
	drv *rtmididrv.Driver
}

// Open returns the rtmidi backed driver.
func Open() (Driver, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, errors.Wrap(err, "rtmididrv.New")
	}
	return &nativeDriver{drv: drv}, nil
}

func (d *nativeDriver) Inputs() ([]string, error) {
	ins, err := d.drv.Ins()
	if err != nil {
		return nil, errors.Wrap(err, "listing MIDI inputs")
	}
	names := make([]string, 0, len(ins))
	for _, in := range ins {
		names = append(names, in.String())
	}
	return names, nil
}

func (d *nativeDriver) Outputs() ([]string, error) {
	outs, err := d.drv.Outs()
	if err != nil {
		return nil, errors.Wrap(err, "listing MIDI outputs")
	}
	names := make([]string, 0, len(outs))
	for _, out := range outs {
		names = append(names, out.String())
	}
	return names, nil
}

func (d *nativeDriver) Open(index int) (Input, error) {
	ins, err := d.drv.Ins()
	if err != nil {
		return nil, errors.Wrap(err, "listing MIDI inputs")
	}
	if err := CheckPort(index+1, len(ins)); err != nil {
		return nil, err
	}
	in := ins[index]
	if err := in.Open(); err != nil {
		return nil, errors.Wrapf(err, "opening %q", in.String())
	}

	w := &inputWrap{in: in, msgs: make(chan Message, inputBuffer)}
	if err := in.SetListener(func(bt []byte, deltaMicroseconds int64) {
		if len(bt) == 0 {
			return
		}
		msg := Message{
			Bytes: append([]byte(nil), bt...),
			Delta: float64(deltaMicroseconds) / 1e6,
		}
		select {
		case w.msgs <- msg:
		default:
		}
	}); err != nil {
		_ = in.Close()
		return nil, errors.Wrapf(err, "listening on %q", in.String())
	}
	return w, nil
}

func (d *nativeDriver) Close() error {
	return d.drv.Close()
}

// inputWrap turns the rtmidi callback into a pollable Input.
type inputWrap struct {
	in   midi.In
	msgs chan Message
	once sync.Once
}

func (w *inputWrap) Next() (Message, bool) {
	select {
	case m := <-w.msgs:
		return m, true
	default:
		return Message{}, false
	}
}

func (w *inputWrap) Close() error {
	var err error
	w.once.Do(func() {
		_ = w.in.StopListening()
		err = w.in.Close()
	})
	return err
}
