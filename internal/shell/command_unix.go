//go:build unix

package shell

import (
	"os/exec"
	"syscall"
)

// newCommand runs command through /bin/sh in a new process group.
func newCommand(command string) *exec.Cmd {
	cmd := exec.Command("/bin/sh", "-c", command)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	return cmd
}
