//go:build !windows

package process

import "syscall"

// terminate asks the child's process group to exit gracefully.
func terminate(pid int) error {
	return syscall.Kill(-pid, syscall.SIGTERM)
}

// kill forcefully ends the child's process group.
func kill(pid int) error {
	return syscall.Kill(-pid, syscall.SIGKILL)
}
