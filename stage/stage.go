// Package stage runs one toolchain stage (compile or run) inside a
// provisioned jail. Go cannot safely run arbitrary code between fork and
// exec, so each stage is driven the way the teacher's container init step
// is: the supervisor binary re-execs itself with a hidden subcommand, and
// the freshly started child process - not a forked continuation of the
// parent - performs chdir, chroot, seccomp install, and execve in that
// order before touching anything else.
package stage

import (
	"bytes"
	"encoding/json"
	"os"
	"os/exec"
	"syscall"

	sberrors "myrbox/errors"
	"myrbox/seccomp"
)

// reexecEnv carries the stage invocation across the self re-exec boundary.
const reexecEnv = "MYRBOX_STAGE_SPEC"

// Spec describes one stage invocation.
type Spec struct {
	// Dir is the jail root to chroot into.
	Dir string `json:"dir"`
	// Argv is the fixed command line to execve inside the jail.
	Argv []string `json:"argv"`
	// Env is the fixed environment for the workload.
	Env []string `json:"env"`
	// Allowed is the seccomp allow-list installed after chroot, before exec.
	Allowed []string `json:"allowed"`
}

// Result classifies how a stage ended, so callers can branch on cleanup and
// ledger bookkeeping without relying on process termination as control flow.
type Result struct {
	ExitCode int
	Signaled bool
	Signal   syscall.Signal
}

// Ok reports whether the stage exited zero without being signaled.
func (r Result) Ok() bool {
	return !r.Signaled && r.ExitCode == 0
}

// Run re-execs selfExe with the hidden "__stage_init__" subcommand, passing
// s via an environment variable, and waits until that child exits or is
// killed by a signal. The child's combined stdout+stderr is captured and
// returned.
func Run(selfExe string, s Spec) (Result, []byte, error) {
	if len(s.Argv) == 0 {
		return Result{}, nil, sberrors.New(sberrors.KindInternal, "run stage", "empty argv")
	}

	payload, err := json.Marshal(s)
	if err != nil {
		return Result{}, nil, sberrors.Wrap(err, sberrors.KindInternal, "run stage")
	}

	cmd := exec.Command(selfExe, "__stage_init__")
	cmd.Env = []string{reexecEnv + "=" + string(payload)}

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	waitErr := cmd.Run()
	return classify(waitErr), out.Bytes(), nil
}

// RunInit is the body of the hidden "__stage_init__" subcommand: it decodes
// the Spec from the environment and performs chdir, chroot, seccomp
// install, and execve. It never returns on success.
func RunInit() error {
	payload := os.Getenv(reexecEnv)
	if payload == "" {
		return sberrors.New(sberrors.KindInternal, "stage init", "missing spec")
	}

	var s Spec
	if err := json.Unmarshal([]byte(payload), &s); err != nil {
		return sberrors.Wrap(err, sberrors.KindInternal, "stage init")
	}

	if err := os.Chdir(s.Dir); err != nil {
		return sberrors.WrapDetail(err, sberrors.KindInternal, "stage init", "chdir")
	}
	if err := syscall.Chroot(s.Dir); err != nil {
		return sberrors.WrapDetail(err, sberrors.KindInternal, "stage init", "chroot")
	}
	if err := seccomp.Install(s.Allowed); err != nil {
		return err
	}
	return syscall.Exec(s.Argv[0], s.Argv, s.Env)
}

func classify(err error) Result {
	if err == nil {
		return Result{ExitCode: 0}
	}
	exitErr, ok := err.(*exec.ExitError)
	if !ok {
		return Result{ExitCode: -1}
	}
	ws, ok := exitErr.Sys().(syscall.WaitStatus)
	if ok && ws.Signaled() {
		return Result{Signaled: true, Signal: ws.Signal()}
	}
	return Result{ExitCode: exitErr.ExitCode()}
}
