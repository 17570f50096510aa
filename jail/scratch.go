// Package jail creates and populates the scratch directories that back a
// chroot jail: a cryptographically named directory under a base path,
// hard-linked from a read-only template according to a manifest.
package jail

import (
	"crypto/rand"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"

	sberrors "myrbox/errors"
)

// Random is the source of naming entropy. It defaults to crypto/rand.Reader
// for callers outside the jail (tests, tooling). The supervisor overrides
// this with a /dev/urandom file opened before chroot: that descriptor
// survives the jail and the master filter's syscall allow-list covers only
// open/read/close on an already-open fd, not the getrandom(2) syscall
// crypto/rand.Reader issues directly on modern Go runtimes.
var Random io.Reader = rand.Reader

// Scratch is a (path, fd) pair: fd is an opened directory descriptor used
// for *at-family operations so path resolution cannot race with symlink
// replacement after the directory is created.
type Scratch struct {
	Path string
	Fd   int
}

// Close releases the directory descriptor. It does not remove the
// directory; callers own that via Remove.
func (s Scratch) Close() error {
	return syscall.Close(s.Fd)
}

// randomName returns 64 lowercase hex characters drawn from 256 bits of
// Random, matching the scratch-directory naming scheme.
func randomName() (string, error) {
	var b [32]byte
	if _, err := io.ReadFull(Random, b[:]); err != nil {
		return "", sberrors.Wrap(err, sberrors.KindProvision, "generate random name")
	}
	return fmt.Sprintf("%x", b), nil
}

// NewScratch creates a fresh, exclusively-owned directory under base named
// with a random 256-bit hex string, mode 0700. EEXIST is treated as fatal:
// with a true random source, a collision means something is badly wrong,
// not a condition to retry past.
func NewScratch(base string) (Scratch, error) {
	name, err := randomName()
	if err != nil {
		return Scratch{}, err
	}
	path := filepath.Join(base, name)

	if err := os.Mkdir(path, 0o700); err != nil {
		if os.IsExist(err) {
			return Scratch{}, sberrors.WrapDetail(err, sberrors.KindProvision, "create scratch directory", path)
		}
		return Scratch{}, sberrors.WrapDetail(err, sberrors.KindProvision, "create scratch directory", path)
	}

	fd, err := syscall.Open(path, syscall.O_DIRECTORY|syscall.O_RDONLY, 0)
	if err != nil {
		return Scratch{}, sberrors.WrapDetail(err, sberrors.KindProvision, "open scratch directory", path)
	}

	return Scratch{Path: path, Fd: fd}, nil
}

// RandomLogName returns a log-directory entry name using the same 256-bit
// scheme, prefixed with in.myr. per the session data model.
func RandomLogName() (string, error) {
	name, err := randomName()
	if err != nil {
		return "", err
	}
	return "in.myr." + name, nil
}
