package jail

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRemove_DeletesTreeRecursively(t *testing.T) {
	base := t.TempDir()
	tree := filepath.Join(base, "tree")
	nested := filepath.Join(tree, "a", "b")
	if err := os.MkdirAll(nested, 0o700); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(filepath.Join(nested, "file"), []byte("x"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := os.WriteFile(filepath.Join(tree, "top"), []byte("y"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	Remove(tree)

	if _, err := os.Stat(tree); !os.IsNotExist(err) {
		t.Errorf("expected tree to be removed, stat err = %v", err)
	}
}

func TestRemove_MissingPathIsNoop(t *testing.T) {
	Remove(filepath.Join(t.TempDir(), "never-existed"))
}
