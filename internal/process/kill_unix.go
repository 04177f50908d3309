//go:build !windows

// Package process provides platform-specific subprocess termination.
package process

import (
	"os/exec"
	"syscall"
)

// Setpgid places the child in its own process group so that
// KillProcessGroup can reach the renderer and any engine children
// (pandoc spawns the PDF engine as its own subprocess).
func Setpgid(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// KillProcessGroup kills a process and all its children by sending SIGKILL
// to the process group (negative PID).
func KillProcessGroup(pid int) {
	// Best-effort cleanup; cmd.Process.Kill provides the fallback.
	_ = syscall.Kill(-pid, syscall.SIGKILL)
}

// Interrupt asks the process group to stop gracefully before a hard kill.
func Interrupt(pid int) {
	_ = syscall.Kill(-pid, syscall.SIGTERM)
}
