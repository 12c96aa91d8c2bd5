package sink

import (
	"bytes"
	"io"
	"sort"
	"sync"
)

// Memory keeps committed outputs in memory, keyed by "kind/name".
type Memory struct {
	mu   sync.Mutex
	outs map[string]string
}

// NewMemory returns an empty in-memory sink.
func NewMemory() *Memory { return &Memory{outs: map[string]string{}} }

func key(kind Kind, name string) string { return string(kind) + "/" + name }

// Open implements Sink.
func (m *Memory) Open(kind Kind, name string) (io.WriteCloser, error) {
	name, err := validName(name)
	if err != nil {
		return nil, err
	}
	return &memWriter{m: m, key: key(kind, name)}, nil
}

// Get returns a committed output.
func (m *Memory) Get(kind Kind, name string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.outs[key(kind, name)]
	return s, ok
}

// Keys lists committed outputs in sorted order.
func (m *Memory) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.outs))
	for k := range m.outs {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

type memWriter struct {
	m      *Memory
	key    string
	buf    bytes.Buffer
	closed bool
}

func (w *memWriter) Write(p []byte) (int, error) {
	if w.closed {
		return 0, errClosed
	}
	return w.buf.Write(p)
}

func (w *memWriter) Close() error {
	if w.closed {
		return errClosed
	}
	w.closed = true
	w.m.mu.Lock()
	w.m.outs[w.key] = w.buf.String()
	w.m.mu.Unlock()
	return nil
}

func (w *memWriter) Abort() error {
	w.closed = true
	return nil
}
