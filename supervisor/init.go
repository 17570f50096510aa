package supervisor

import (
	"os"

	"myrbox/caps"
	"myrbox/cgroupext"
	"myrbox/config"
	sberrors "myrbox/errors"
	"myrbox/rlimit"
	"myrbox/session"
)

// rlimitApply installs the resource envelope on the calling process.
func rlimitApply(cfg config.Config) error {
	return rlimit.Apply(cfg.Envelope)
}

// dropCapabilities zeroes effective, permitted, and ambient capabilities
// and clears the bounding set, per C5 step 1: capabilities drop before any
// file the session creates.
func dropCapabilities() error {
	if err := caps.DropAll(); err != nil {
		return sberrors.Wrap(err, sberrors.KindSetup, "drop capabilities")
	}
	return nil
}

// cgroupJoin best-effort joins the session process into a cgroup v2 leaf
// mirroring the rlimit envelope, per C5 step 2: after dropping capabilities
// and before provisioning. This is additive defense-in-depth behind the
// rlimit envelope, which alone still satisfies every invariant; join
// failure is logged and never fatal (see cgroupext's own doc comment).
func cgroupJoin(spec SessionSpec) *cgroupext.Group {
	return cgroupext.Join(spec.SessionName, os.Getpid(), spec.Envelope)
}

// sessionDriver builds a session.Driver from a SessionSpec.
func sessionDriver(spec SessionSpec) session.Driver {
	return session.Driver{
		SelfExe:     spec.SelfExe,
		ScratchBase: spec.ScratchBase,
		TemplateDir: spec.TemplateDir,
		Manifest:    spec.Manifest,
		Toolchain:   spec.Toolchain,
	}
}
