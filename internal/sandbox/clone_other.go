//go:build !linux

package sandbox

import "errors"

// reflinkFile has no portable implementation outside Linux's FICLONE
// ioctl; callers always fall back to a plain copy.
func reflinkFile(src, dst string) error {
	return errors.New("reflink not supported on this platform")
}
