// Package supervisor wires together the isolation kernel's top-level
// sequence: open the randomness source, install resource limits and the
// master filter, clone the session driver into a fresh PID namespace, and
// run the watchdog against it. It is the thing main() calls.
package supervisor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"myrbox/config"
	sberrors "myrbox/errors"
	"myrbox/jail"
	"myrbox/ledger"
	"myrbox/logging"
	"myrbox/pidns"
	"myrbox/seccomp"
	"myrbox/watchdog"
)

// sessionReexecEnv carries the JSON-encoded SessionSpec to the hidden
// session-init subcommand, the same pattern the stage runner uses one
// level down for the compile/run child.
const sessionReexecEnv = "MYRBOX_SESSION_SPEC"

// pathsFD is the extra file descriptor number the session child uses to
// report its two scratch paths back to the supervisor, inherited via
// exec.Cmd.ExtraFiles[0] (fd 3: 0,1,2 are stdin/stdout/stderr).
const pathsFD = 3

// SessionSpec is everything the PID-namespaced session child needs, passed
// across the re-exec boundary since the child is a fresh process image, not
// a continuation of the supervisor's memory.
type SessionSpec struct {
	SessionName string                 `json:"session_name"`
	SelfExe     string                 `json:"self_exe"`
	ScratchBase string                 `json:"scratch_base"`
	TemplateDir string                 `json:"template_dir"`
	Manifest    []config.ManifestEntry `json:"manifest"`
	Toolchain   config.Toolchain       `json:"toolchain"`
	Envelope    config.Envelope        `json:"envelope"`
	Submission  []byte                 `json:"submission"`
}

// provisionedPaths is what the session child reports back to the
// supervisor over the paths pipe as soon as both scratch trees exist, so
// the watchdog can clean them up even if the session is later killed.
type provisionedPaths struct {
	BuildPath string `json:"build_path"`
	RunPath   string `json:"run_path"`
}

// Result is what a full supervisor invocation produced, used to drive the
// CGI-style response writer in cmd.
type Result struct {
	Output []byte
}

// RunOnce performs one full session end to end: it applies the envelope and
// master filter to its own process, clones the session driver into a new
// PID namespace, and waits out the watchdog.
func RunOnce(cfg config.Config, submission []byte) (Result, error) {
	selfExe, err := os.Executable()
	if err != nil {
		return Result{}, sberrors.Wrap(err, sberrors.KindSetup, "resolve self executable")
	}

	urandom, err := os.Open("/dev/urandom")
	if err != nil {
		return Result{}, sberrors.Wrap(err, sberrors.KindSetup, "open randomness source")
	}
	defer urandom.Close()
	jail.Random = urandom

	if err := applyEnvelopeAndMasterFilter(cfg); err != nil {
		return Result{}, err
	}

	sessionName, err := jail.RandomLogName()
	if err != nil {
		return Result{}, sberrors.Wrap(err, sberrors.KindSetup, "name session")
	}
	logger := logging.WithSession(logging.Default(), sessionName)

	spec := SessionSpec{
		SessionName: sessionName,
		SelfExe:     selfExe,
		ScratchBase: cfg.ScratchBase,
		TemplateDir: cfg.TemplateDir,
		Manifest:    cfg.Manifest,
		Toolchain:   cfg.Toolchain,
		Envelope:    cfg.Envelope,
		Submission:  submission,
	}
	specJSON, err := json.Marshal(spec)
	if err != nil {
		return Result{}, sberrors.Wrap(err, sberrors.KindInternal, "marshal session spec")
	}

	pathsR, pathsW, err := os.Pipe()
	if err != nil {
		return Result{}, sberrors.Wrap(err, sberrors.KindSetup, "open paths pipe")
	}
	defer pathsR.Close()

	cmd := exec.Command(selfExe, "__session_init__")
	cmd.Env = []string{sessionReexecEnv + "=" + string(specJSON)}
	cmd.SysProcAttr = pidns.SysProcAttr()
	cmd.ExtraFiles = []*os.File{pathsW}
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	if err := cmd.Start(); err != nil {
		pathsW.Close()
		return Result{}, sberrors.Wrap(err, sberrors.KindSetup, "start session")
	}
	pathsW.Close()

	paths := readProvisionedPaths(logger, pathsR, cfg.Envelope)

	l := openLedger(logger, cfg)
	if l != nil {
		defer l.Close()
	}

	watchdog.Watch(watchdog.Session{
		SessionID:     sessionName,
		PID:           cmd.Process.Pid,
		Deadline:      time.Duration(cfg.Envelope.WallClockMillis) * time.Millisecond,
		BuildPath:     paths.BuildPath,
		RunPath:       paths.RunPath,
		LogDir:        cfg.LogDir,
		SubmissionRaw: submission,
		Ledger:        l,
		StartedAt:     time.Now(),
	})

	return Result{Output: out.Bytes()}, nil
}

// readProvisionedPaths blocks (bounded by the session's own wall-clock
// deadline) for the session child to report its scratch paths. If the child
// dies before provisioning completes, the read simply returns EOF and an
// empty pair; the watchdog then has nothing to remove, which is correct.
func readProvisionedPaths(logger *slog.Logger, r *os.File, env config.Envelope) provisionedPaths {
	deadline := time.Now().Add(time.Duration(env.WallClockMillis) * time.Millisecond)
	r.SetReadDeadline(deadline)

	dec := json.NewDecoder(r)
	var p provisionedPaths
	if err := dec.Decode(&p); err != nil {
		logger.Error("read provisioned paths", "error", err)
		return provisionedPaths{}
	}
	return p
}

// openLedger opens the audit ledger under the state directory. Failure is
// logged and swallowed: the ledger is additive bookkeeping, never required
// for the session or cleanup to proceed.
func openLedger(logger *slog.Logger, cfg config.Config) *ledger.Ledger {
	if cfg.StateDir == "" {
		return nil
	}
	if err := os.MkdirAll(cfg.StateDir, 0o755); err != nil {
		logger.Error("create state directory", "path", cfg.StateDir, "error", err)
		return nil
	}
	l, err := ledger.Open(cfg.StateDir + "/ledger.db")
	if err != nil {
		logger.Error("open ledger", "error", err)
		return nil
	}
	return l
}

// applyEnvelopeAndMasterFilter installs the resource envelope and the
// master seccomp filter (which also sets no_new_privs) on the calling
// process, before anything is cloned. Every descendant inherits both.
func applyEnvelopeAndMasterFilter(cfg config.Config) error {
	if err := rlimitApply(cfg); err != nil {
		return err
	}
	if err := seccomp.Install(seccomp.Master); err != nil {
		return err
	}
	return nil
}

// RunSessionInit is the entry point for the hidden __session_init__
// subcommand: it runs inside the fresh PID namespace the supervisor just
// cloned. It drops capabilities, runs the session driver, reports its
// scratch paths to the supervisor as soon as they exist, and writes the
// CGI-style response to stdout.
func RunSessionInit() error {
	raw := os.Getenv(sessionReexecEnv)
	if raw == "" {
		return sberrors.New(sberrors.KindInternal, "session init", "missing "+sessionReexecEnv)
	}
	var spec SessionSpec
	if err := json.Unmarshal([]byte(raw), &spec); err != nil {
		return sberrors.Wrap(err, sberrors.KindInternal, "unmarshal session spec")
	}

	if err := dropCapabilities(); err != nil {
		return err
	}

	group := cgroupJoin(spec)
	defer group.Leave()

	pathsOut := os.NewFile(uintptr(pathsFD), "paths")

	driver := sessionDriver(spec)
	driver.OnProvisioned = func(buildPath, runPath string) {
		if pathsOut == nil {
			return
		}
		enc := json.NewEncoder(pathsOut)
		_ = enc.Encode(provisionedPaths{BuildPath: buildPath, RunPath: runPath})
		pathsOut.Close()
	}

	outcome, err := driver.Run(spec.Submission)
	if err != nil && !outcome.Aborted {
		return err
	}

	fmt.Print("Content-type: text/plain\r\n\r\nBuilding\n")
	os.Stdout.Write(outcome.Output)
	return nil
}
