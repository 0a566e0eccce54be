//go:build linux

package adapters

import (
	"os/exec"
	"syscall"
)

// setDeathSignal kills the command when the worker dies, even by SIGKILL
func setDeathSignal(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Pdeathsig: syscall.SIGKILL}
}
