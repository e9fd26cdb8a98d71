//go:build !unix

package procutil

import (
	"os"
	"os/exec"
)

// SetGroup is a no-op on platforms without process groups.
func SetGroup(cmd *exec.Cmd) {}

// Detach is a no-op on platforms without process groups.
func Detach(cmd *exec.Cmd) {}

// TerminateGroup kills pid; there is no graceful signal on this platform.
func TerminateGroup(pid int) error { return KillGroup(pid) }

// KillGroup kills pid.
func KillGroup(pid int) error {
	if pid <= 0 {
		return nil
	}
	p, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return p.Kill()
}
