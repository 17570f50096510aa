package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultEnvelope_MatchesSpecTable(t *testing.T) {
	env := DefaultEnvelope()
	want := Envelope{
		AddressSpaceBytes: 512 * mib,
		CPUSeconds:        1,
		CoreFileBytes:     0,
		OutputFileBytes:   32 * mib,
		OpenFiles:         32,
		ResidentSetBytes:  128 * mib,
		StackBytes:        32 * mib,
		ProcessCount:      2048,
		WallClockMillis:   500,
		SubmissionBytes:   16 * kib,
	}
	if env != want {
		t.Errorf("DefaultEnvelope() = %+v, want %+v", env, want)
	}
}

func TestDefaultToolchain_FixedArgv(t *testing.T) {
	tc := DefaultToolchain()
	wantCompile := []string{"mbld", "-b", "a.out", "in.myr", "-I", "/lib/myr", "-r", "/lib/myr/_myrrt.o"}
	if len(tc.CompileArgv) != len(wantCompile) {
		t.Fatalf("CompileArgv = %v, want %v", tc.CompileArgv, wantCompile)
	}
	for i := range wantCompile {
		if tc.CompileArgv[i] != wantCompile[i] {
			t.Errorf("CompileArgv[%d] = %q, want %q", i, tc.CompileArgv[i], wantCompile[i])
		}
	}
	if len(tc.RunArgv) != 1 || tc.RunArgv[0] != "/a.out" {
		t.Errorf("RunArgv = %v, want [/a.out]", tc.RunArgv)
	}
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ScratchBase != Default().ScratchBase {
		t.Errorf("expected default scratch base, got %q", cfg.ScratchBase)
	}
}

func TestLoad_OverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "myrbox.yaml")
	content := "scratch_base: /tmp/custom-scratch\nenvelope:\n  cpu_seconds: 2\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ScratchBase != "/tmp/custom-scratch" {
		t.Errorf("ScratchBase = %q, want /tmp/custom-scratch", cfg.ScratchBase)
	}
	if cfg.Envelope.CPUSeconds != 2 {
		t.Errorf("CPUSeconds = %d, want 2", cfg.Envelope.CPUSeconds)
	}
	// Untouched fields should keep their defaults.
	if cfg.Envelope.AddressSpaceBytes != DefaultEnvelope().AddressSpaceBytes {
		t.Errorf("AddressSpaceBytes should keep default when not overridden")
	}
	if len(cfg.Manifest) == 0 {
		t.Error("Manifest should fall back to DefaultManifest when not overridden")
	}
}

func TestLoad_BadYAMLErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(path, []byte("not: [valid: yaml"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed YAML")
	}
}
