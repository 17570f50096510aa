// Package session implements the session driver (C5): it runs inside a
// fresh PID namespace, provisions the two scratch trees, ingests the
// submission, and stage-runs the compiler and then the compiled artifact.
package session

import (
	"io"
	"path/filepath"

	"myrbox/config"
	sberrors "myrbox/errors"
	"myrbox/jail"
	"myrbox/seccomp"
	"myrbox/stage"
)

const submissionFile = "in.myr"
const artifactFile = "a.out"

// Outcome is the result of running one full session, used by the watchdog
// and ledger without needing process-exit semantics.
type Outcome struct {
	Build        jail.BuildTree
	Run          jail.Scratch
	CompileStage stage.Result
	RunStage     stage.Result
	// Output is the compile and run stages' combined captured stdout+stderr,
	// in that order, matching the CGI response body.
	Output []byte
	// Aborted is set when a step failed outright rather than completing
	// (provisioning, submission, starting either stage, or linking the
	// artifact into the run tree).
	Aborted bool
}

// Driver runs one session: provision, ingest, compile, link, run.
type Driver struct {
	SelfExe     string
	ScratchBase string
	TemplateDir string
	Manifest    []config.ManifestEntry
	Toolchain   config.Toolchain
	// OnProvisioned, if set, is called once both scratch trees exist and
	// before the compile stage starts. The watchdog needs these exact paths
	// to clean up and archive the submission even if the session is later
	// killed mid-stage, so the driver reports them as soon as they exist
	// rather than only on a clean return.
	OnProvisioned func(buildPath, runPath string)
}

// Run executes the full session driver sequence. submission is the raw
// bytes already read and size-capped by the caller (C3). Capability
// dropping happens in the caller before Run is invoked, per the spec's
// ordering requirement that capabilities drop before any file creation.
func (d Driver) Run(submission []byte) (Outcome, error) {
	build, err := jail.ProvisionBuild(filepath.Join(d.ScratchBase, "build"), d.TemplateDir, d.Manifest)
	if err != nil {
		return Outcome{Aborted: true}, err
	}

	if err := jail.WriteSubmission(build, submission); err != nil {
		return Outcome{Build: build, Aborted: true}, err
	}

	run, err := jail.ProvisionRun(filepath.Join(d.ScratchBase, "run"))
	if err != nil {
		return Outcome{Build: build, Aborted: true}, err
	}

	if d.OnProvisioned != nil {
		d.OnProvisioned(build.Scratch.Path, run.Path)
	}

	compileResult, compileOut, err := stage.Run(d.SelfExe, stage.Spec{
		Dir:     build.Scratch.Path,
		Argv:    d.Toolchain.CompileArgv,
		Env:     workloadEnv(),
		Allowed: seccomp.Compile,
	})
	if err != nil {
		return Outcome{Build: build, Run: run, Aborted: true}, err
	}

	outcome := Outcome{Build: build, Run: run, CompileStage: compileResult, Output: compileOut}
	if !compileResult.Ok() {
		return outcome, nil
	}

	if err := jail.LinkArtifact(build, run, artifactFile); err != nil {
		outcome.Aborted = true
		return outcome, err
	}

	runResult, runOut, err := stage.Run(d.SelfExe, stage.Spec{
		Dir:     run.Path,
		Argv:    d.Toolchain.RunArgv,
		Env:     workloadEnv(),
		Allowed: seccomp.Run,
	})
	if err != nil {
		outcome.Aborted = true
		return outcome, err
	}

	outcome.RunStage = runResult
	outcome.Output = append(outcome.Output, runOut...)
	return outcome, nil
}

// workloadEnv is the fixed, minimal environment given to both stages.
func workloadEnv() []string {
	return []string{"LD_LIBRARY_PATH=/lib64", "PATH=/"}
}

// ReadSubmission reads up to limit bytes from r, tolerating short reads and
// truncating rather than rejecting an oversized submission.
func ReadSubmission(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit))
	if err != nil {
		return nil, sberrors.Wrap(err, sberrors.KindProvision, "read submission")
	}
	return data, nil
}
