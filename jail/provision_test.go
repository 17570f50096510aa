package jail

import (
	"os"
	"path/filepath"
	"testing"

	"myrbox/config"
)

func makeTemplate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for _, f := range []string{"mbld", "6m", "as", "ld", "lib/myr/_myrrt.o"} {
		full := filepath.Join(dir, f)
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatalf("MkdirAll: %v", err)
		}
		if err := os.WriteFile(full, []byte("binary"), 0o755); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}
	return dir
}

func TestProvisionBuild_CreatesSubdirsAndLinks(t *testing.T) {
	template := makeTemplate(t)
	scratchBase := t.TempDir()

	manifest := []config.ManifestEntry{"mbld", "6m", "as", "ld", "lib/myr/_myrrt.o"}
	build, err := ProvisionBuild(scratchBase, template, manifest)
	if err != nil {
		t.Fatalf("ProvisionBuild: %v", err)
	}
	defer build.Scratch.Close()

	for _, dir := range []string{"lib64", "lib", "lib/myr", "tmp"} {
		info, err := os.Stat(filepath.Join(build.Scratch.Path, dir))
		if err != nil {
			t.Fatalf("expected %s to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Errorf("%s is not a directory", dir)
		}
	}

	for _, entry := range manifest {
		origInfo, err := os.Stat(filepath.Join(template, string(entry)))
		if err != nil {
			t.Fatalf("stat template entry: %v", err)
		}
		linkedInfo, err := os.Stat(filepath.Join(build.Scratch.Path, string(entry)))
		if err != nil {
			t.Fatalf("expected %s linked into scratch: %v", entry, err)
		}
		if !os.SameFile(origInfo, linkedInfo) {
			t.Errorf("%s was not hard-linked (different inode)", entry)
		}
	}
}

func TestProvisionBuild_MissingManifestEntryFails(t *testing.T) {
	template := makeTemplate(t)
	scratchBase := t.TempDir()

	manifest := []config.ManifestEntry{"mbld", "does-not-exist"}
	if _, err := ProvisionBuild(scratchBase, template, manifest); err == nil {
		t.Error("expected error for missing manifest entry")
	}
}

func TestProvisionRun_CreatesEmptyScratch(t *testing.T) {
	scratchBase := t.TempDir()
	run, err := ProvisionRun(scratchBase)
	if err != nil {
		t.Fatalf("ProvisionRun: %v", err)
	}
	defer run.Close()

	entries, err := os.ReadDir(run.Path)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("run scratch should start empty, got %d entries", len(entries))
	}
}

func TestLinkArtifact_HardLinksIntoRunTree(t *testing.T) {
	template := makeTemplate(t)
	scratchBase := t.TempDir()

	build, err := ProvisionBuild(scratchBase, template, []config.ManifestEntry{"mbld"})
	if err != nil {
		t.Fatalf("ProvisionBuild: %v", err)
	}
	defer build.Scratch.Close()

	// Simulate a compiled artifact appearing in the build tree.
	artifactPath := filepath.Join(build.Scratch.Path, "a.out")
	if err := os.WriteFile(artifactPath, []byte("elf"), 0o755); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	run, err := ProvisionRun(scratchBase)
	if err != nil {
		t.Fatalf("ProvisionRun: %v", err)
	}
	defer run.Close()

	if err := LinkArtifact(build, run, "a.out"); err != nil {
		t.Fatalf("LinkArtifact: %v", err)
	}

	linkedPath := filepath.Join(run.Path, "a.out")
	linkedInfo, err := os.Stat(linkedPath)
	if err != nil {
		t.Fatalf("expected a.out linked into run tree: %v", err)
	}
	origInfo, _ := os.Stat(artifactPath)
	if !os.SameFile(origInfo, linkedInfo) {
		t.Error("a.out was not hard-linked into run tree")
	}
}

func TestWriteSubmission_WritesExactBytes(t *testing.T) {
	template := makeTemplate(t)
	scratchBase := t.TempDir()

	build, err := ProvisionBuild(scratchBase, template, []config.ManifestEntry{"mbld"})
	if err != nil {
		t.Fatalf("ProvisionBuild: %v", err)
	}
	defer build.Scratch.Close()

	data := []byte("use std\nconst main = {; std.put(\"hi\\n\")}\n")
	if err := WriteSubmission(build, data); err != nil {
		t.Fatalf("WriteSubmission: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(build.Scratch.Path, "in.myr"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != string(data) {
		t.Errorf("in.myr contents = %q, want %q", got, data)
	}
}
