package artifact

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Store manages artifact IO rooted at a run directory.
type Store struct {
	dir string
}

// NewStore builds a store for the run directory dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the run directory.
func (s *Store) Dir() string {
	return s.dir
}

// Path resolves ref inside the run directory.
func (s *Store) Path(ref ArtifactRef) string {
	return ref.Path(s.dir)
}

// Ensure creates the run directory.
func (s *Store) Ensure() error {
	if s.dir == "" {
		return fmt.Errorf("artifact: run directory not set")
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("artifact: create run dir: %w", err)
	}
	return nil
}

// Check inspects the artifact on disk and returns its status.
func (s *Store) Check(ref ArtifactRef) (CheckResult, error) {
	path := ref.Path(s.dir)
	if path == "" {
		err := fmt.Errorf("artifact: %s path could not be resolved", ref.ID)
		return CheckResult{Ref: ref, Path: path, State: StateError, Err: err}, err
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return CheckResult{Ref: ref, Path: path, State: StateMissing}, nil
		}
		return CheckResult{Ref: ref, Path: path, State: StateError, Err: err}, err
	}
	ready := CheckResult{Ref: ref, Path: path, State: StateReady, Size: info.Size()}
	switch ref.Kind {
	case KindDirectory:
		if !info.IsDir() {
			return invalidResult(ref, path, fmt.Errorf("artifact: expected directory"))
		}
		return ready, nil
	case KindBinary:
		if info.IsDir() {
			return invalidResult(ref, path, fmt.Errorf("artifact: expected binary got directory"))
		}
		if info.Mode().Perm()&0o111 == 0 {
			return invalidResult(ref, path, fmt.Errorf("artifact: %s is not executable", path))
		}
		return ready, nil
	case KindJSON:
		data, readErr := os.ReadFile(path)
		if readErr != nil {
			return CheckResult{Ref: ref, Path: path, State: StateError, Err: readErr}, readErr
		}
		if !json.Valid(data) {
			return invalidResult(ref, path, fmt.Errorf("artifact: %s is not valid json", path))
		}
		return ready, nil
	default:
		if info.IsDir() {
			return invalidResult(ref, path, fmt.Errorf("artifact: expected file got directory"))
		}
		if ref.NonEmpty && info.Size() == 0 {
			return invalidResult(ref, path, fmt.Errorf("%w: %s", ErrEmptyBody, path))
		}
		return ready, nil
	}
}

// Ready reports whether ref is present and valid.
func (s *Store) Ready(ref ArtifactRef) bool {
	res, err := s.Check(ref)
	return err == nil && res.State == StateReady
}

// Write persists the artifact contents verbatim based on its kind.
func (s *Store) Write(ref ArtifactRef, body []byte) error {
	path := ref.Path(s.dir)
	if path == "" {
		return fmt.Errorf("artifact: %s path could not be resolved", ref.ID)
	}
	switch ref.Kind {
	case KindDirectory:
		return os.MkdirAll(path, 0o755)
	case KindBinary:
		return fmt.Errorf("artifact: %s is produced by the toolchain", ref.ID)
	case KindJSON:
		if !json.Valid(body) {
			return fmt.Errorf("artifact: invalid json body for %s", ref.ID)
		}
	default:
		if ref.NonEmpty && strings.TrimSpace(string(body)) == "" {
			return fmt.Errorf("%w for %s", ErrEmptyBody, ref.ID)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if body == nil {
		body = []byte{}
	}
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return fmt.Errorf("artifact: write %s: %w", ref.ID, err)
	}
	return nil
}

// WriteString is Write for text content.
func (s *Store) WriteString(ref ArtifactRef, body string) error {
	return s.Write(ref, []byte(body))
}

// Read returns the artifact contents.
func (s *Store) Read(ref ArtifactRef) ([]byte, error) {
	path := ref.Path(s.dir)
	if path == "" {
		return nil, fmt.Errorf("artifact: %s path could not be resolved", ref.ID)
	}
	if ref.Kind == KindDirectory {
		return nil, fmt.Errorf("artifact: %s is a directory", ref.ID)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("artifact: read %s: %w", ref.ID, err)
	}
	return data, nil
}

// Inventory checks every registered artifact.
func (s *Store) Inventory() []CheckResult {
	var results []CheckResult
	for _, ref := range All() {
		res, _ := s.Check(ref)
		results = append(results, res)
	}
	return results
}

func invalidResult(ref ArtifactRef, path string, err error) (CheckResult, error) {
	return CheckResult{Ref: ref, Path: path, State: StateInvalid, Err: err}, err
}
