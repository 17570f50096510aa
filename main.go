// myrbox is a single-shot, untrusted-code execution sandbox: it compiles
// and runs one submission inside a chroot jail bounded by seccomp filters,
// rlimits, capability dropping, and a wall-clock watchdog.
//
// Commands:
//
//	run       - read a submission from stdin, run one session (default)
//	selftest  - validate the template directory against the build manifest
//	spec      - print the effective operational configuration as JSON
//	version   - print version information
package main

import (
	"fmt"
	"os"

	"myrbox/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
