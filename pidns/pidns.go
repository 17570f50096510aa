// Package pidns builds the SysProcAttr that clones the session driver into
// a fresh PID namespace, so the watchdog can reap the entire process tree
// with a single kill(-pid, SIGKILL) to the process group.
package pidns

import "syscall"

// SysProcAttr returns the attributes for exec.Cmd.SysProcAttr that place the
// child in a new PID namespace and a new session (so it has its own
// process group, matching the original fork+setsid pair this replaces with
// a namespace clone).
func SysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{
		Cloneflags: syscall.CLONE_NEWPID,
		Setsid:     true,
	}
}
