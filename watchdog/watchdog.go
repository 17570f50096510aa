// Package watchdog implements the supervisor-side wall-clock timeout and
// session cleanup (C6): sleep the deadline, reap or kill the session,
// archive the submission, record the ledger row, and remove both scratch
// trees.
package watchdog

import (
	"context"
	"log/slog"
	"os"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"

	sberrors "myrbox/errors"
	"myrbox/jail"
	"myrbox/ledger"
	"myrbox/logging"
)

// Session is everything the watchdog needs about a running session to
// enforce the deadline and clean up afterward.
type Session struct {
	// SessionID correlates this session's log lines, cgroup leaf, and
	// ledger row; empty is tolerated (pre-SessionID callers, tests).
	SessionID     string
	PID           int
	Deadline      time.Duration
	BuildPath     string
	RunPath       string
	LogDir        string
	SubmissionRaw []byte
	Ledger        *ledger.Ledger
	StartedAt     time.Time
	// CompileExit is the compile stage's exit code, if it completed before
	// the watchdog took over the run stage. Nil if the compile never ran or
	// never exited cleanly.
	CompileExit *int
}

// Watch sleeps the deadline, then reaps or kills the session PID, archives
// the submission, writes the ledger row, and removes both scratch trees.
// Cleanup always runs, regardless of how the session ended; ledger write
// failure is logged but never aborts cleanup. Every line this function (and
// what it calls) logs carries the session's correlation ID, so a single
// session's lifetime can be grepped out of a shared log stream.
func Watch(s Session) {
	logger := logging.WithSession(logging.Default(), s.SessionID)

	time.Sleep(s.Deadline)

	timedOut, waitStatus := reapOrKill(logger, s.PID)

	logName, err := archiveSubmission(s.BuildPath, s.LogDir, s.SubmissionRaw)
	if err != nil {
		logger.Error("archive submission", "error", err)
	}

	if s.Ledger != nil {
		row := ledger.Row{
			SessionID:       s.SessionID,
			StartedAt:       s.StartedAt,
			EndedAt:         time.Now(),
			TimedOut:        timedOut,
			LogName:         logName,
			SubmissionBytes: len(s.SubmissionRaw),
			CompileExit:     s.CompileExit,
		}
		if waitStatus.Exited() {
			code := waitStatus.ExitStatus()
			row.RunExit = &code
		}
		if err := s.Ledger.Record(row, s.SubmissionRaw); err != nil {
			logger.Error("write ledger row", "error", err)
		}
	}

	jail.Remove(s.BuildPath)
	jail.Remove(s.RunPath)
}

// reapOrKill performs a non-blocking wait on pid; if the session is still
// running it sends SIGKILL to the process group, then blocks briefly
// (bounded backoff, not a bare spin) confirming the reap.
func reapOrKill(logger *slog.Logger, pid int) (timedOut bool, ws syscall.WaitStatus) {
	var status syscall.WaitStatus
	reapedPID, err := syscall.Wait4(pid, &status, syscall.WNOHANG, nil)
	if err == nil && reapedPID == pid {
		return false, status
	}

	if err := syscall.Kill(-pid, syscall.SIGKILL); err != nil && err != syscall.ESRCH {
		logger.Error("kill session process group", "pid", pid, "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = 5 * time.Millisecond
	exp.MaxInterval = 100 * time.Millisecond
	b := backoff.WithContext(exp, ctx)

	_ = backoff.Retry(func() error {
		reapedPID, werr := syscall.Wait4(pid, &status, syscall.WNOHANG, nil)
		if werr == nil && reapedPID == pid {
			return nil
		}
		return sberrors.New(sberrors.KindInternal, "reap session", "not yet reaped")
	}, b)

	return true, status
}

// archiveSubmission hard-links the submission out of the build jail into
// the log directory under a fresh random name. If the hard link can't be
// taken (e.g. the build tree never got as far as writing in.myr), it falls
// back to writing the raw bytes directly so the archive invariant still
// holds for every session that produced a submission at all.
func archiveSubmission(buildPath, logDir string, raw []byte) (string, error) {
	name, err := jail.RandomLogName()
	if err != nil {
		return "", err
	}
	dest := logDir + "/" + name

	src := buildPath + "/in.myr"
	if err := os.Link(src, dest); err == nil {
		return name, nil
	}

	if err := os.WriteFile(dest, raw, 0o600); err != nil {
		return "", sberrors.WrapDetail(err, sberrors.KindInternal, "archive submission", dest)
	}
	return name, nil
}
