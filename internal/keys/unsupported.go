//go:build !linux && !darwin && !(windows && (amd64 || arm64))

package keys

import (
	"runtime"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Open always fails on platforms without a key injection backend.
func Open(*zap.Logger) (Injector, error) {
	return nil, errors.Wrapf(ErrDeviceUnavailable, "key injection is not supported on %s/%s", runtime.GOOS, runtime.GOARCH)
}
