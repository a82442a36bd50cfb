package output

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// Probe reports whether a file could be written at path.
type Probe interface {
	CanWrite(path string) bool
}

// ProbeFunc adapts a function to Probe.
type ProbeFunc func(path string) bool

func (f ProbeFunc) CanWrite(path string) bool { return f(path) }

// AccessProbe asks the kernel (access(2) with W_OK) about path, or about its
// nearest existing ancestor when path does not exist yet.
type AccessProbe struct{}

func (AccessProbe) CanWrite(path string) bool {
	existing, ok := nearestExisting(path)
	if !ok {
		return false
	}
	return unix.Access(existing, unix.W_OK) == nil
}

func nearestExisting(path string) (string, bool) {
	p := filepath.Clean(path)
	for {
		_, err := os.Stat(p)
		if err == nil {
			return p, true
		}
		if !errors.Is(err, fs.ErrNotExist) && !errors.Is(err, unix.ENOTDIR) {
			return "", false
		}
		parent := filepath.Dir(p)
		if parent == p {
			return "", false
		}
		p = parent
	}
}
