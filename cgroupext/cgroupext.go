// Package cgroupext applies a best-effort cgroup v2 backstop alongside the
// per-process rlimits. It exists because rlimits are per-process: a forked
// tree of workers can each stay under the rlimit individually while the
// group as a whole exceeds the envelope. Every operation here is advisory —
// failure is logged and swallowed, never returned as a session error, since
// the seccomp filter and rlimits are the enforcement boundary this project
// actually depends on.
package cgroupext

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"myrbox/config"
	"myrbox/logging"
)

const cgroupRoot = "/sys/fs/cgroup"

var validKey = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9]*(\.[a-zA-Z][a-zA-Z0-9]*)*$`)

// Group is a cgroup v2 control group scoped to one session.
type Group struct {
	path string
}

// Join creates (or reuses) a cgroup named after sessionName under
// myrbox/<sessionName>, applies the envelope's pids/memory/cpu ceilings, and
// adds pid to it. Any failure is logged and treated as non-fatal: the
// returned Group is still usable for cleanup.
func Join(sessionName string, pid int, env config.Envelope) *Group {
	path := filepath.Join(cgroupRoot, "myrbox", sessionName)
	if err := os.MkdirAll(path, 0o755); err != nil {
		logging.Error("create cgroup", "path", path, "error", err)
		return &Group{path: path}
	}
	g := &Group{path: path}

	if err := g.set("pids.max", strconv.FormatInt(env.ProcessCount, 10)); err != nil {
		logging.Error("set pids.max", "error", err)
	}
	if err := g.set("memory.max", strconv.FormatInt(env.AddressSpaceBytes, 10)); err != nil {
		logging.Error("set memory.max", "error", err)
	}
	if err := g.set("cpu.max", fmt.Sprintf("%d %d", env.CPUSeconds*1_000_000, 1_000_000)); err != nil {
		logging.Error("set cpu.max", "error", err)
	}

	if err := g.set("cgroup.procs", strconv.Itoa(pid)); err != nil {
		logging.Error("join cgroup", "pid", pid, "error", err)
	}

	return g
}

// MemoryCurrent returns the cgroup's reported current memory usage.
func (g *Group) MemoryCurrent() (int64, error) {
	data, err := os.ReadFile(filepath.Join(g.path, "memory.current"))
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
}

// Leave removes the cgroup. Safe to call on a Group that was never
// successfully joined.
func (g *Group) Leave() {
	if g == nil {
		return
	}
	if err := os.Remove(g.path); err != nil && !os.IsNotExist(err) {
		logging.Error("remove cgroup", "path", g.path, "error", err)
	}
}

func (g *Group) set(key, value string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(g.path, key), []byte(value), 0o644)
}

// validateKey rejects anything that isn't a plain controller file name, so a
// future caller can't be tricked into writing outside the cgroup directory.
func validateKey(key string) error {
	if key == "" || strings.ContainsAny(key, "/\\") || key == "." || key == ".." {
		return fmt.Errorf("cgroupext: invalid key %q", key)
	}
	if !validKey.MatchString(key) {
		return fmt.Errorf("cgroupext: invalid key %q", key)
	}
	return nil
}
