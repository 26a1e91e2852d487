//go:build windows

package shell

import (
	"os/exec"
	"syscall"

	"golang.org/x/sys/windows"
)

// newCommand hands command to cmd.exe untouched. cmd does not follow the C
// runtime quoting that exec applies to Args, so the command line is set
// directly.
func newCommand(command string) *exec.Cmd {
	cmd := exec.Command("cmd")
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CmdLine:       "cmd /C " + command,
		CreationFlags: windows.CREATE_NEW_PROCESS_GROUP,
	}
	return cmd
}
