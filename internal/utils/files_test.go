package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSafeWriteFileReplaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	if err := SafeWriteFile(path, []byte("old")); err != nil {
		t.Fatal(err)
	}
	if err := SafeWriteFile(path, []byte("new")); err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "new" {
		t.Fatalf("got %q", b)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind: %v", err)
	}
}

func TestFindRunRootMissing(t *testing.T) {
	if _, err := FindRunRoot(t.TempDir(), "no-such-manifest.json"); err == nil {
		t.Fatal("expected error")
	}
}
