package run_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/KaramelBytes/setlist-cli/internal/aggregate"
	"github.com/KaramelBytes/setlist-cli/internal/run"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	base := t.TempDir()
	r := run.New(base, "preceding", map[string]any{"similarity_threshold": 80.0})
	if !strings.HasPrefix(filepath.Base(r.RootDir()), "preceding-") {
		t.Fatalf("unexpected run dir %s", r.RootDir())
	}
	r.Drops = aggregate.DropStats{Total: 4, Kept: 3, MissingScore: 1}
	r.AddOutput("table", "best_preceding", filepath.Join(r.RootDir(), "best_preceding.csv"), 42)
	if err := r.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := run.Load(r.RootDir())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.ID != r.ID || got.Command != "preceding" {
		t.Fatalf("unexpected manifest: %+v", got)
	}
	if got.Drops.MissingScore != 1 || len(got.Outputs) != 1 || got.Outputs[0].Bytes != 42 {
		t.Fatalf("manifest lost data: %+v", got)
	}
	if got.Config["similarity_threshold"] != 80.0 {
		t.Fatalf("config snapshot lost: %v", got.Config)
	}
}

func TestLoadMissing(t *testing.T) {
	if _, err := run.Load(t.TempDir()); err == nil || !strings.Contains(err.Error(), "run not found") {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestFindFromOutputFile(t *testing.T) {
	r := run.New(t.TempDir(), "group", nil)
	if err := r.Save(); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(r.RootDir(), "frequencies.csv")
	if err := os.WriteFile(out, []byte("jokeid,count\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := run.Find(out)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.ID != r.ID {
		t.Fatalf("found wrong run %s", got.ID)
	}
}

func TestList(t *testing.T) {
	base := t.TempDir()
	if runs, err := run.List(filepath.Join(base, "missing")); err != nil || len(runs) != 0 {
		t.Fatalf("missing dir should list nothing, got %v %v", runs, err)
	}

	first := run.New(base, "group", nil)
	if err := first.Save(); err != nil {
		t.Fatal(err)
	}
	second := run.New(base, "cooccur", nil)
	second.CreatedAt = first.CreatedAt.Add(time.Second)
	if err := second.Save(); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(base, "stray"), 0o755); err != nil {
		t.Fatal(err)
	}

	runs, err := run.List(base)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != first.ID || runs[1].ID != second.ID {
		t.Fatalf("unexpected runs: %+v", runs)
	}
}
