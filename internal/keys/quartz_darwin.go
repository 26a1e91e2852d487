//go:build darwin

package keys

/*
#cgo LDFLAGS: -framework ApplicationServices
#include <ApplicationServices/ApplicationServices.h>

static int post_key(CGKeyCode key, bool down) {
	CGEventSourceRef src = CGEventSourceCreate(kCGEventSourceStateHIDSystemState);
	if (src == NULL) {
		return -1;
	}
	CGEventRef evt = CGEventCreateKeyboardEvent(src, key, down);
	if (evt == NULL) {
		CFRelease(src);
		return -2;
	}
	CGEventPost(kCGHIDEventTap, evt);
	CFRelease(evt);
	CFRelease(src);
	return 0;
}
*/
import "C"
import (
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"midirun/internal/logger"
)

// capsLock toggles on press; it is released right away so the following
// keys of the chord see a settled modifier state.
const capsLock = 0x39

// eventGap is the pause after every posted event.
const eventGap = 60 * time.Microsecond

type quartz struct {
	log *zap.Logger
}

// Open returns an injector posting Quartz keyboard events. Codes in the
// config are macOS virtual key codes. The process needs the Accessibility
// permission for events to reach other applications.
func Open(log *zap.Logger) (Injector, error) {
	return &quartz{log: logger.OrNop(log)}, nil
}

func (q *quartz) post(code int, down bool) error {
	if rc := C.post_key(C.CGKeyCode(code), C.bool(down)); rc != 0 {
		return errors.Wrapf(ErrDeviceUnavailable, "posting key %d: CoreGraphics error %d", code, int(rc))
	}
	time.Sleep(eventGap)
	return nil
}

func (q *quartz) PressKeys(codes []int) error {
	for _, ev := range Sequence(codes) {
		if err := q.post(ev.Code, ev.Down); err != nil {
			return err
		}
		if ev.Down && ev.Code == capsLock {
			if err := q.post(ev.Code, false); err != nil {
				return err
			}
		}
	}
	return nil
}

func (*quartz) Close() error { return nil }
