package session

import (
	"bytes"
	"strings"
	"testing"
)

func TestReadSubmission_TruncatesAtLimit(t *testing.T) {
	input := strings.Repeat("a", 100)
	got, err := ReadSubmission(strings.NewReader(input), 10)
	if err != nil {
		t.Fatalf("ReadSubmission: %v", err)
	}
	if len(got) != 10 {
		t.Errorf("len(got) = %d, want 10", len(got))
	}
}

func TestReadSubmission_ShortInputUnaffected(t *testing.T) {
	input := "use std\nconst main = {; std.put(\"hi\\n\")}\n"
	got, err := ReadSubmission(strings.NewReader(input), 16*1024)
	if err != nil {
		t.Fatalf("ReadSubmission: %v", err)
	}
	if string(got) != input {
		t.Errorf("got %q, want %q", got, input)
	}
}

func TestReadSubmission_EmptyInput(t *testing.T) {
	got, err := ReadSubmission(bytes.NewReader(nil), 16*1024)
	if err != nil {
		t.Fatalf("ReadSubmission: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty submission, got %d bytes", len(got))
	}
}

func TestDriver_OnProvisionedIsOptional(t *testing.T) {
	// Run() must not panic when OnProvisioned is nil; exercised indirectly
	// since a real Run() needs root privileges for chroot, this only checks
	// the zero value is safe to leave unset.
	d := Driver{}
	if d.OnProvisioned != nil {
		t.Fatal("zero-value Driver should have a nil OnProvisioned")
	}
}

func TestWorkloadEnv_FixedAndMinimal(t *testing.T) {
	env := workloadEnv()
	want := map[string]bool{"LD_LIBRARY_PATH=/lib64": true, "PATH=/": true}
	if len(env) != len(want) {
		t.Fatalf("workloadEnv() = %v, want 2 entries", env)
	}
	for _, e := range env {
		if !want[e] {
			t.Errorf("unexpected env entry %q", e)
		}
	}
}
