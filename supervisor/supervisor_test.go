package supervisor

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"myrbox/config"
	"myrbox/logging"
)

func TestReadProvisionedPaths_DecodesWrittenPaths(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("Pipe: %v", err)
	}
	defer r.Close()

	want := provisionedPaths{BuildPath: "/scratch/build/abc", RunPath: "/scratch/run/def"}
	go func() {
		enc := json.NewEncoder(w)
		_ = enc.Encode(want)
		w.Close()
	}()

	got := readProvisionedPaths(logging.Default(), r, config.Envelope{WallClockMillis: 1000})
	if got != want {
		t.Errorf("readProvisionedPaths() = %+v, want %+v", got, want)
	}
}

func TestReadProvisionedPaths_ReturnsZeroWhenChildDiesEarly(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("Pipe: %v", err)
	}
	w.Close()
	defer r.Close()

	got := readProvisionedPaths(logging.Default(), r, config.Envelope{WallClockMillis: 50})
	if got != (provisionedPaths{}) {
		t.Errorf("readProvisionedPaths() = %+v, want zero value", got)
	}
}

func TestOpenLedger_EmptyStateDirReturnsNil(t *testing.T) {
	if l := openLedger(logging.Default(), config.Config{}); l != nil {
		t.Error("expected nil ledger for empty StateDir")
	}
}

func TestOpenLedger_CreatesDatabaseUnderStateDir(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Config{StateDir: filepath.Join(dir, "state")}
	l := openLedger(logging.Default(), cfg)
	if l == nil {
		t.Fatal("expected non-nil ledger")
	}
	defer l.Close()

	if _, err := os.Stat(filepath.Join(cfg.StateDir, "ledger.db")); err != nil {
		t.Errorf("ledger database not created: %v", err)
	}
}

func TestCgroupJoin_ReturnsUsableGroupEvenWithoutPrivilege(t *testing.T) {
	spec := SessionSpec{
		SessionName: "test-session",
		Envelope:    config.DefaultEnvelope(),
	}
	g := cgroupJoin(spec)
	if g == nil {
		t.Fatal("expected a non-nil Group even when the cgroup filesystem can't be joined")
	}
	g.Leave()
}

func TestSessionDriver_MapsSpecFields(t *testing.T) {
	spec := SessionSpec{
		SelfExe:     "/usr/bin/myrbox",
		ScratchBase: "/scratch",
		TemplateDir: "/template",
		Toolchain:   config.DefaultToolchain(),
	}
	d := sessionDriver(spec)
	if d.SelfExe != spec.SelfExe || d.ScratchBase != spec.ScratchBase || d.TemplateDir != spec.TemplateDir {
		t.Errorf("sessionDriver() = %+v, did not carry spec fields", d)
	}
}
