//go:build unix

package session

import "golang.org/x/sys/unix"

// processAlive reports whether pid names a running process, using a
// zero-signal probe so no signal is actually delivered.
func processAlive(pid int) bool {
	err := unix.Kill(pid, 0)
	if err == nil {
		return true
	}
	return err != unix.ESRCH
}
