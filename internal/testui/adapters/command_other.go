//go:build !linux

package adapters

import "os/exec"

func setDeathSignal(cmd *exec.Cmd) {}
