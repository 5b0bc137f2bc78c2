// Package fsutil abstracts the filesystem operations used by the scan and
// reconstruction pipeline so they can run against an in-memory tree in tests.
package fsutil

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// FileSystem is the minimal surface the pipeline needs: sample logs and mesh
// files are created, read back whole, and live in directories that must exist
// before the first write.
type FileSystem interface {
	// Open opens the named file for reading.
	Open(name string) (fs.File, error)

	// Create creates or truncates the named file for writing.
	Create(name string) (io.WriteCloser, error)

	// ReadFile reads the named file and returns its contents.
	ReadFile(name string) ([]byte, error)

	// MkdirAll creates a directory and any missing parents.
	MkdirAll(path string, perm os.FileMode) error

	// Exists reports whether a file or directory exists.
	Exists(name string) bool
}

// OS implements FileSystem against the real filesystem.
type OS struct{}

func (OS) Open(name string) (fs.File, error)            { return os.Open(name) }
func (OS) Create(name string) (io.WriteCloser, error)   { return os.Create(name) }
func (OS) ReadFile(name string) ([]byte, error)         { return os.ReadFile(name) }
func (OS) MkdirAll(path string, perm os.FileMode) error { return os.MkdirAll(path, perm) }

func (OS) Exists(name string) bool {
	_, err := os.Stat(name)
	return err == nil
}

// Memory is an in-memory FileSystem for tests. The zero value is not usable;
// construct with NewMemory.
type Memory struct {
	mu    sync.RWMutex
	files map[string][]byte
	dirs  map[string]bool
}

// NewMemory returns an empty in-memory filesystem.
func NewMemory() *Memory {
	return &Memory{
		files: make(map[string][]byte),
		dirs:  make(map[string]bool),
	}
}

func (m *Memory) Open(name string) (fs.File, error) {
	data, err := m.ReadFile(name)
	if err != nil {
		return nil, err
	}
	return &memReader{name: name, data: data}, nil
}

func (m *Memory) Create(name string) (io.WriteCloser, error) {
	name = filepath.Clean(name)
	m.mu.Lock()
	m.files[name] = nil
	m.mu.Unlock()
	return &memWriter{fs: m, name: name}, nil
}

func (m *Memory) ReadFile(name string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.files[filepath.Clean(name)]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (m *Memory) MkdirAll(path string, perm os.FileMode) error {
	path = filepath.Clean(path)
	m.mu.Lock()
	defer m.mu.Unlock()
	for p := path; p != "." && p != string(os.PathSeparator); p = filepath.Dir(p) {
		m.dirs[p] = true
	}
	return nil
}

func (m *Memory) Exists(name string) bool {
	name = filepath.Clean(name)
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.files[name]; ok {
		return true
	}
	return m.dirs[name]
}

// List returns the paths of all files, sorted. Test helper.
func (m *Memory) List() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.files))
	for name := range m.files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ListDir returns the file paths under dir, sorted. Test helper.
func (m *Memory) ListDir(dir string) []string {
	dir = filepath.Clean(dir)
	var names []string
	for _, name := range m.List() {
		if strings.HasPrefix(name, dir+string(os.PathSeparator)) {
			names = append(names, name)
		}
	}
	return names
}

type memReader struct {
	name   string
	data   []byte
	offset int
}

func (r *memReader) Read(p []byte) (int, error) {
	if r.offset >= len(r.data) {
		return 0, io.EOF
	}
	n := copy(p, r.data[r.offset:])
	r.offset += n
	return n, nil
}

func (r *memReader) Close() error { return nil }

func (r *memReader) Stat() (fs.FileInfo, error) {
	return memInfo{name: filepath.Base(r.name), size: int64(len(r.data))}, nil
}

type memWriter struct {
	fs   *Memory
	name string
	buf  []byte
}

func (w *memWriter) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	// Flush on every write so partially written logs are observable, the way
	// an append-only file on disk would be.
	w.fs.mu.Lock()
	w.fs.files[w.name] = w.buf
	w.fs.mu.Unlock()
	return len(p), nil
}

func (w *memWriter) Close() error { return nil }

type memInfo struct {
	name string
	size int64
}

func (i memInfo) Name() string       { return i.name }
func (i memInfo) Size() int64        { return i.size }
func (i memInfo) Mode() os.FileMode  { return 0644 }
func (i memInfo) ModTime() time.Time { return time.Time{} }
func (i memInfo) IsDir() bool        { return false }
func (i memInfo) Sys() any           { return nil }
