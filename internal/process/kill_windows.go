//go:build windows

package process

import (
	"os"
	"os/exec"
)

// Setpgid is a no-op on Windows; there is no process-group semantics
// compatible with the unix implementation.
func Setpgid(cmd *exec.Cmd) {}

// KillProcessGroup kills the process by PID. Child processes of the
// renderer are not reachable without job objects; pandoc cleans up its
// engine child on termination.
func KillProcessGroup(pid int) {
	p, err := os.FindProcess(pid)
	if err != nil {
		return
	}
	_ = p.Kill()
}

// Interrupt falls back to a hard kill; Windows has no SIGTERM delivery
// for arbitrary processes.
func Interrupt(pid int) {
	KillProcessGroup(pid)
}
