package sink

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/KaramelBytes/setlist-cli/internal/run"
	"github.com/KaramelBytes/setlist-cli/internal/utils"
	"github.com/KaramelBytes/setlist-cli/pkg/logger"
)

var errClosed = errors.New("output already closed")

// Dir writes outputs into a run directory and records them in its manifest.
type Dir struct {
	run *run.Run
	log logger.Logger
}

// NewDir returns a sink rooted at r's directory. A nil logger is replaced by a no-op logger.
func NewDir(r *run.Run, log logger.Logger) *Dir {
	if log == nil {
		log = logger.Nop()
	}
	return &Dir{run: r, log: log}
}

// Open buffers the output in memory; Close writes it atomically.
// A name that already carries an extension keeps it.
func (d *Dir) Open(kind Kind, name string) (io.WriteCloser, error) {
	name, err := validName(name)
	if err != nil {
		return nil, err
	}
	file := name
	if filepath.Ext(name) == "" {
		file += kind.Ext()
	}
	if err := utils.EnsureDir(d.run.RootDir()); err != nil {
		return nil, fmt.Errorf("ensure run dir: %w", err)
	}
	return &dirWriter{d: d, kind: kind, name: name, path: filepath.Join(d.run.RootDir(), file)}, nil
}

type dirWriter struct {
	d      *Dir
	kind   Kind
	name   string
	path   string
	buf    bytes.Buffer
	closed bool
}

func (w *dirWriter) Write(p []byte) (int, error) {
	if w.closed {
		return 0, errClosed
	}
	return w.buf.Write(p)
}

func (w *dirWriter) Close() error {
	if w.closed {
		return errClosed
	}
	w.closed = true
	if err := utils.SafeWriteFile(w.path, w.buf.Bytes()); err != nil {
		return err
	}
	w.d.run.AddOutput(string(w.kind), w.name, w.path, w.buf.Len())
	w.d.log.Info(context.Background(), "output written",
		logger.String("kind", string(w.kind)),
		logger.String("path", w.path),
		logger.Int("bytes", w.buf.Len()))
	return nil
}

func (w *dirWriter) Abort() error {
	w.closed = true
	w.buf.Reset()
	return nil
}
