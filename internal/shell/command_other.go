//go:build !unix && !windows

package shell

import "os/exec"

func newCommand(command string) *exec.Cmd {
	return exec.Command("/bin/sh", "-c", command)
}
