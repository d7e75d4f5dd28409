// Package runid hands out the monotonically increasing identifiers that name
// run directories.
package runid

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
)

// Sequence yields run identifiers. Each call returns a value one greater than
// the previous call.
type Sequence interface {
	Next() (int, error)
}

// FileSequence persists the next identifier as decimal text. In-process
// callers are serialized; separate processes sharing the file are not
// protected and must coordinate externally.
type FileSequence struct {
	path string
	mu   sync.Mutex
}

// NewFileSequence returns a sequence backed by the counter file at path.
func NewFileSequence(path string) *FileSequence {
	return &FileSequence{path: path}
}

// Path returns the counter file location.
func (s *FileSequence) Path() string {
	return s.path
}

// Next reads the stored value, returns it, and stores value+1. A missing file
// counts as 1.
func (s *FileSequence) Next() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.read()
	if err != nil {
		return 0, err
	}
	if err := s.write(current + 1); err != nil {
		return 0, err
	}
	return current, nil
}

func (s *FileSequence) read() (int, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 1, nil
		}
		return 0, fmt.Errorf("runid: read %s: %w", s.path, err)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return 1, nil
	}
	value, err := strconv.Atoi(text)
	if err != nil {
		return 0, fmt.Errorf("runid: parse %s: %w", s.path, err)
	}
	if value < 1 {
		return 0, fmt.Errorf("runid: %s holds %d, want a positive id", s.path, value)
	}
	return value, nil
}

func (s *FileSequence) write(next int) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("runid: ensure dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(strconv.Itoa(next)), 0o644); err != nil {
		return fmt.Errorf("runid: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("runid: replace %s: %w", s.path, err)
	}
	return nil
}

// MemorySequence is an in-process counter starting at 1.
type MemorySequence struct {
	last atomic.Int64
}

// NewMemorySequence returns a sequence whose first value is start (1 when
// start < 1).
func NewMemorySequence(start int) *MemorySequence {
	if start < 1 {
		start = 1
	}
	seq := &MemorySequence{}
	seq.last.Store(int64(start - 1))
	return seq
}

// Next returns the following identifier.
func (s *MemorySequence) Next() (int, error) {
	return int(s.last.Add(1)), nil
}
