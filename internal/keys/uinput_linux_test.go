//go:build linux

package keys

import (
	"testing"

	"github.com/holoplot/go-evdev"
	"github.com/pkg/errors"
)

type recordWriter struct {
	events []evdev.InputEvent
	failAt int
	closed int
}

func (r *recordWriter) WriteOne(ev *evdev.InputEvent) error {
	if r.failAt > 0 && len(r.events)+1 == r.failAt {
		return errors.New("write failed")
	}
	r.events = append(r.events, *ev)
	return nil
}

func (r *recordWriter) Close() error {
	r.closed++
	return nil
}

func TestUinputPressKeys_Order(t *testing.T) {
	w := &recordWriter{}
	u := &uinput{dev: w}
	if err := u.PressKeys([]int{29, 46}); err != nil {
		t.Fatalf("PressKeys: %v", err)
	}

	key, syn := evdev.EvType(evdev.EV_KEY), evdev.EvType(evdev.EV_SYN)
	want := []evdev.InputEvent{
		{Type: key, Code: 29, Value: 1}, {Type: syn},
		{Type: key, Code: 46, Value: 1}, {Type: syn},
		{Type: key, Code: 29, Value: 0}, {Type: syn},
		{Type: key, Code: 46, Value: 0}, {Type: syn},
	}
	if len(w.events) != len(want) {
		t.Fatalf("got %d events; want %d", len(w.events), len(want))
	}
	for i := range want {
		g := w.events[i]
		if g.Type != want[i].Type || g.Code != want[i].Code || g.Value != want[i].Value {
			t.Fatalf("event %d = %+v; want %+v", i, g, want[i])
		}
	}
}

func TestUinputPressKeys_Error(t *testing.T) {
	w := &recordWriter{failAt: 3}
	u := &uinput{dev: w}
	if err := u.PressKeys([]int{1, 2}); err == nil {
		t.Fatalf("expected write error")
	}
	if len(w.events) != 2 {
		t.Fatalf("kept writing after failure: %d events", len(w.events))
	}
}

func TestUinputClose(t *testing.T) {
	w := &recordWriter{}
	u := &uinput{dev: w}
	_ = u.Close()
	if w.closed != 1 {
		t.Fatalf("closed=%d", w.closed)
	}
}
