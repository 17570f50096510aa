package jail

import (
	"os"

	"myrbox/logging"
)

// Remove recursively deletes a scratch tree, tolerating and logging
// per-entry failures rather than aborting partway through. The watchdog's
// cleanup contract ("both scratch trees are removed on every exit path")
// must hold even when an individual entry cannot be unlinked (e.g. an
// unkillable mount left behind by a runaway workload).
func Remove(path string) {
	entries, err := os.ReadDir(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logging.Error("read scratch directory for cleanup", "path", path, "error", err)
		}
		return
	}

	for _, entry := range entries {
		full := path + "/" + entry.Name()
		if entry.IsDir() {
			Remove(full)
			continue
		}
		if err := os.Remove(full); err != nil {
			logging.Error("remove scratch entry", "path", full, "error", err)
		}
	}

	if err := os.Remove(path); err != nil {
		logging.Error("remove scratch directory", "path", path, "error", err)
	}
}
