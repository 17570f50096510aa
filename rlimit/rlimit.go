// Package rlimit installs the fixed per-process resource envelope: address
// space, CPU time, core size, output size, open files, resident set,
// stack, and process count.
package rlimit

import (
	"golang.org/x/sys/unix"

	"myrbox/config"
	sberrors "myrbox/errors"
)

// Apply installs every limit in env via setrlimit, setting both soft and
// hard limits to the same value so the sandboxed workload cannot raise its
// own ceiling. RLIMIT_RSS and RLIMIT_NPROC aren't exposed by the standard
// library's syscall package on Linux, which is why this package reaches for
// golang.org/x/sys/unix rather than syscall.
func Apply(env config.Envelope) error {
	limits := []struct {
		name     string
		resource int
		value    uint64
	}{
		{"address space", unix.RLIMIT_AS, uint64(env.AddressSpaceBytes)},
		{"cpu", unix.RLIMIT_CPU, uint64(env.CPUSeconds)},
		{"core", unix.RLIMIT_CORE, uint64(env.CoreFileBytes)},
		{"fsize", unix.RLIMIT_FSIZE, uint64(env.OutputFileBytes)},
		{"nofile", unix.RLIMIT_NOFILE, uint64(env.OpenFiles)},
		{"rss", unix.RLIMIT_RSS, uint64(env.ResidentSetBytes)},
		{"stack", unix.RLIMIT_STACK, uint64(env.StackBytes)},
		{"nproc", unix.RLIMIT_NPROC, uint64(env.ProcessCount)},
	}

	for _, l := range limits {
		rl := &unix.Rlimit{Cur: l.value, Max: l.value}
		if err := unix.Setrlimit(l.resource, rl); err != nil {
			return sberrors.WrapDetail(err, sberrors.KindSetup, "apply resource envelope", l.name)
		}
	}

	return nil
}
