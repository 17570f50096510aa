// Package errors provides predefined sentinel errors for common failure cases.
package errors

// Setup errors (supervisor-level, no scratch exists yet).
var (
	// ErrNoRandomSource indicates /dev/urandom (or equivalent) could not be opened.
	ErrNoRandomSource = &SandboxError{
		Kind:   KindSetup,
		Detail: "could not open randomness source",
	}

	// ErrRlimitFailed indicates a resource limit could not be installed.
	ErrRlimitFailed = &SandboxError{
		Kind:   KindSetup,
		Detail: "could not set resource limit",
	}

	// ErrMasterFilterFailed indicates the master seccomp filter could not be installed.
	ErrMasterFilterFailed = &SandboxError{
		Kind:   KindSetup,
		Detail: "could not install master filter",
	}

	// ErrTemplateMissing indicates the template directory could not be opened.
	ErrTemplateMissing = &SandboxError{
		Kind:   KindSetup,
		Detail: "could not open template directory",
	}
)

// Provisioning errors.
var (
	// ErrScratchCollision indicates a freshly generated scratch name already existed.
	ErrScratchCollision = &SandboxError{
		Kind:   KindProvision,
		Detail: "scratch directory name collision",
	}

	// ErrManifestEntryMissing indicates a manifest entry was not found in the template.
	ErrManifestEntryMissing = &SandboxError{
		Kind:   KindProvision,
		Detail: "manifest entry missing from template",
	}

	// ErrSubmissionTooLarge indicates the submission reader saw more than the cap (informational, never fatal).
	ErrSubmissionTooLarge = &SandboxError{
		Kind:   KindProvision,
		Detail: "submission exceeded cap, truncated",
	}
)

// Stage errors.
var (
	// ErrStageExec indicates execve of the stage binary failed.
	ErrStageExec = &SandboxError{
		Kind:   KindInternal,
		Detail: "could not exec stage",
	}

	// ErrStageChroot indicates chdir/chroot into the jail failed.
	ErrStageChroot = &SandboxError{
		Kind:   KindInternal,
		Detail: "could not chroot into jail",
	}

	// ErrStageFilter indicates the stage seccomp filter could not be installed.
	ErrStageFilter = &SandboxError{
		Kind:   KindInternal,
		Detail: "could not install stage filter",
	}

	// ErrArtifactMissing indicates the compiled artifact could not be linked into the run jail.
	ErrArtifactMissing = &SandboxError{
		Kind:   KindStageExit,
		Detail: "compiled artifact not found",
	}
)

// Capability/namespace errors.
var (
	// ErrCapabilityDropFailed indicates capabilities could not be fully dropped.
	ErrCapabilityDropFailed = &SandboxError{
		Kind:   KindSetup,
		Detail: "could not drop capabilities",
	}

	// ErrPIDNamespaceFailed indicates the session clone into a new PID namespace failed.
	ErrPIDNamespaceFailed = &SandboxError{
		Kind:   KindSetup,
		Detail: "could not create PID namespace",
	}
)

// Ledger errors.
var (
	// ErrLedgerUnavailable indicates the audit ledger could not be opened or written.
	// Never fatal to a session: cleanup proceeds regardless.
	ErrLedgerUnavailable = &SandboxError{
		Kind:   KindInternal,
		Detail: "audit ledger unavailable",
	}
)
