//go:build windows && (amd64 || arm64)

package keys

import (
	"unsafe"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sys/windows"

	"midirun/internal/logger"
)

var (
	user32        = windows.NewLazySystemDLL("user32.dll")
	procSendInput = user32.NewProc("SendInput")
)

const (
	inputKeyboard  = 1
	keyeventfKeyUp = 0x0002
)

// keyboardInput is INPUT with the KEYBDINPUT arm of the union, laid out for
// 64-bit Windows (40 bytes).
type keyboardInput struct {
	typ   uint32
	_     uint32
	vk    uint16
	scan  uint16
	flags uint32
	time  uint32
	extra uintptr
	_     [8]byte
}

type sendInput struct {
	log *zap.Logger
}

// Open returns an injector using SendInput. Codes in the config are Windows
// virtual-key codes.
func Open(log *zap.Logger) (Injector, error) {
	if err := procSendInput.Find(); err != nil {
		return nil, errors.Wrapf(ErrDeviceUnavailable, "user32!SendInput: %v", err)
	}
	return &sendInput{log: logger.OrNop(log)}, nil
}

func (s *sendInput) PressKeys(codes []int) error {
	evs := Sequence(codes)
	if len(evs) == 0 {
		return nil
	}
	inputs := make([]keyboardInput, len(evs))
	for i, ev := range evs {
		inputs[i] = keyboardInput{typ: inputKeyboard, vk: uint16(ev.Code)}
		if !ev.Down {
			inputs[i].flags = keyeventfKeyUp
		}
	}
	n, _, err := procSendInput.Call(
		uintptr(len(inputs)),
		uintptr(unsafe.Pointer(&inputs[0])),
		unsafe.Sizeof(inputs[0]),
	)
	if int(n) != len(inputs) {
		return errors.Errorf("SendInput injected %d of %d events: %v", n, len(inputs), err)
	}
	return nil
}

func (*sendInput) Close() error { return nil }
