//go:build linux

package keys

import (
	"time"

	"github.com/holoplot/go-evdev"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"midirun/internal/logger"
)

const (
	deviceName = "Midi to Key"
	busUSB     = 0x03
	vendorID   = 0x1234
	productID  = 0x5678
)

// settleDelay gives udev and the desktop time to pick up a new device;
// events written before that are lost.
var settleDelay = time.Second

type eventWriter interface {
	WriteOne(*evdev.InputEvent) error
	Close() error
}

type uinput struct {
	dev eventWriter
	log *zap.Logger
}

// Open creates a uinput virtual keyboard that can emit every key code.
// Codes in the config are Linux KEY_* values.
func Open(log *zap.Logger) (Injector, error) {
	log = logger.OrNop(log)

	codes := make([]evdev.EvCode, 0, int(evdev.KEY_MAX))
	for c := 1; c < int(evdev.KEY_MAX); c++ {
		codes = append(codes, evdev.EvCode(c))
	}
	caps := map[evdev.EvType][]evdev.EvCode{
		evdev.EvType(evdev.EV_KEY): codes,
	}
	id := evdev.InputID{BusType: busUSB, Vendor: vendorID, Product: productID}

	dev, err := evdev.CreateDevice(deviceName, id, caps)
	if err != nil {
		return nil, errors.Wrapf(ErrDeviceUnavailable, "creating uinput device (is /dev/uinput writable?): %v", err)
	}
	log.Debug("uinput device created", zap.String("name", deviceName))
	time.Sleep(settleDelay)

	return &uinput{dev: dev, log: log}, nil
}

func (u *uinput) PressKeys(codes []int) error {
	for _, ev := range Sequence(codes) {
		var v int32
		if ev.Down {
			v = 1
		}
		if err := u.emit(evdev.EvType(evdev.EV_KEY), evdev.EvCode(ev.Code), v); err != nil {
			return errors.Wrapf(err, "writing %s", ev)
		}
		if err := u.emit(evdev.EvType(evdev.EV_SYN), evdev.EvCode(evdev.SYN_REPORT), 0); err != nil {
			return errors.Wrap(err, "writing SYN_REPORT")
		}
	}
	return nil
}

func (u *uinput) emit(typ evdev.EvType, code evdev.EvCode, value int32) error {
	return u.dev.WriteOne(&evdev.InputEvent{Type: typ, Code: code, Value: value})
}

// Close destroys the virtual device.
func (u *uinput) Close() error {
	return u.dev.Close()
}
