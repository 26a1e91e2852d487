// Package shell launches mapping commands without waiting for them.
package shell

import (
	"os"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"midirun/internal/logger"
)

// Runner starts a shell command and returns as soon as it is running.
type Runner interface {
	RunDetached(command string) error
}

// Exec runs commands through the platform shell. Output goes to the
// process's own stdout and stderr.
type Exec struct {
	log *zap.Logger
}

func New(log *zap.Logger) *Exec {
	return &Exec{log: logger.OrNop(log)}
}

// RunDetached starts command in its own process group, so an interrupt aimed
// at midirun does not reach it. The child is reaped in the background; its
// exit status is only logged.
func (e *Exec) RunDetached(command string) error {
	cmd := newCommand(command)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return errors.Wrapf(err, "starting %q", command)
	}
	pid := cmd.Process.Pid
	e.log.Debug("command started", zap.String("command", command), zap.Int("pid", pid))

	go func() {
		if err := cmd.Wait(); err != nil {
			e.log.Debug("command failed", zap.String("command", command), zap.Int("pid", pid), zap.Error(err))
		}
	}()
	return nil
}
