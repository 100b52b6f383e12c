//go:build !unix

package session

import "os"

// processAlive reports whether pid names a running process. Non-unix
// platforms have no portable zero-signal probe, so this falls back to
// FindProcess, which on Windows already fails for a dead pid.
func processAlive(pid int) bool {
	_, err := os.FindProcess(pid)
	return err == nil
}
