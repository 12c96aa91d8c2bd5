// Package run records what a single CLI invocation produced.
package run

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/KaramelBytes/setlist-cli/internal/aggregate"
	"github.com/KaramelBytes/setlist-cli/internal/utils"
)

// ManifestFileName is the manifest written at the root of every run directory.
const ManifestFileName = "run.json"

// Output is one file written during the run.
type Output struct {
	Kind      string    `json:"kind"`
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	Bytes     int       `json:"bytes"`
	WrittenAt time.Time `json:"written_at"`
}

// Run is the manifest of one invocation.
type Run struct {
	ID        string              `json:"id"`
	Command   string              `json:"command"`
	Source    string              `json:"source,omitempty"`
	Config    map[string]any      `json:"config,omitempty"`
	Outputs   []Output            `json:"outputs"`
	Drops     aggregate.DropStats `json:"drops"`
	Groups    int                 `json:"groups"`
	IDs       int                 `json:"identifiers"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`

	mu      sync.Mutex
	rootDir string
}

// New constructs a run rooted at <baseDir>/<command>-<id>. Call Save to persist.
func New(baseDir, command string, config map[string]any) *Run {
	id := uuid.NewString()
	now := time.Now()
	return &Run{
		ID:        id,
		Command:   command,
		Config:    config,
		Outputs:   []Output{},
		CreatedAt: now,
		UpdatedAt: now,
		rootDir:   filepath.Join(baseDir, command+"-"+id),
	}
}

// Load reads run.json from dir.
func Load(dir string) (*Run, error) {
	path := filepath.Join(dir, ManifestFileName)
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("run not found at %s: %w", path, err)
		}
		return nil, fmt.Errorf("read run: %w", err)
	}
	var r Run
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("parse run: %w", err)
	}
	r.rootDir = dir
	return &r, nil
}

// RootDir returns the on-disk run directory.
func (r *Run) RootDir() string { return r.rootDir }

// AddOutput records a written file. Safe for concurrent use.
func (r *Run) AddOutput(kind, name, path string, size int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Outputs = append(r.Outputs, Output{Kind: kind, Name: name, Path: path, Bytes: size, WrittenAt: time.Now()})
	r.UpdatedAt = time.Now()
}

// OutputPaths returns the recorded output paths sorted by name.
func (r *Run) OutputPaths() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.Outputs))
	for _, o := range r.Outputs {
		out = append(out, o.Path)
	}
	sort.Strings(out)
	return out
}

// Save writes run.json using atomic write.
func (r *Run) Save() error {
	if r.rootDir == "" {
		return errors.New("run directory not set")
	}
	if err := utils.EnsureDir(r.rootDir); err != nil {
		return fmt.Errorf("ensure dir: %w", err)
	}
	r.mu.Lock()
	r.UpdatedAt = time.Now()
	data, err := utils.PrettyJSON(r)
	r.mu.Unlock()
	if err != nil {
		return err
	}
	return utils.SafeWriteFile(filepath.Join(r.rootDir, ManifestFileName), data)
}

// Find loads the run whose directory contains path.
func Find(path string) (*Run, error) {
	dir, err := utils.FindRunRoot(path, ManifestFileName)
	if err != nil {
		return nil, err
	}
	return Load(dir)
}

// List loads every run directly under baseDir, oldest first. Directories
// without a manifest are skipped; a missing baseDir yields no runs.
func List(baseDir string) ([]*Run, error) {
	entries, err := os.ReadDir(baseDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read runs dir: %w", err)
	}
	var runs []*Run
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(baseDir, e.Name())
		if _, err := os.Stat(filepath.Join(dir, ManifestFileName)); err != nil {
			continue
		}
		r, err := Load(dir)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	sort.SliceStable(runs, func(i, j int) bool { return runs[i].CreatedAt.Before(runs[j].CreatedAt) })
	return runs, nil
}
