//go:build unix

// Package procutil runs child processes in their own process group so that a
// whole script tree can be signalled at once.
package procutil

import (
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// SetGroup places cmd's child in a new process group led by the child.
func SetGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// Detach is SetGroup plus killing the whole group on context cancellation.
// cmd must come from exec.CommandContext.
func Detach(cmd *exec.Cmd) {
	SetGroup(cmd)
	cmd.Cancel = func() error { return KillGroup(cmd.Process.Pid) }
}

// TerminateGroup sends SIGTERM to the process group led by pid.
func TerminateGroup(pid int) error {
	if pid <= 0 {
		return nil
	}
	if err := unix.Kill(-pid, unix.SIGTERM); err != nil {
		if err == unix.ESRCH {
			return nil
		}
		return unix.Kill(pid, unix.SIGTERM)
	}
	return nil
}

// KillGroup sends SIGKILL to the process group led by pid.
func KillGroup(pid int) error {
	if pid <= 0 {
		return nil
	}
	if err := unix.Kill(-pid, unix.SIGKILL); err != nil && err != unix.ESRCH {
		return unix.Kill(pid, unix.SIGKILL)
	}
	return nil
}
