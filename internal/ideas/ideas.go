// Package ideas loads seed ideas from a JSONL file and picks one per run.
package ideas

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strings"
	"sync"
	"time"
)

// ErrNoIdeas is returned when the source holds no usable idea.
var ErrNoIdeas = errors.New("ideas: no valid problem_text found")

type record struct {
	ProblemText string `json:"problem_text"`
}

// Source picks seed ideas.
type Source interface {
	Pick() (string, error)
}

// maxLineBytes bounds a single idea record. Longer lines are skipped.
const maxLineBytes = 4 * 1024 * 1024

// Read returns every non-empty problem_text in r. Blank lines, lines that
// are not JSON objects, records without a string problem_text and lines over
// maxLineBytes are skipped.
func Read(r io.Reader) ([]string, error) {
	var ideas []string
	br := bufio.NewReaderSize(r, 64*1024)
	for {
		line, tooLong, err := readLine(br)
		if !tooLong {
			if text, ok := parseLine(line); ok {
				ideas = append(ideas, text)
			}
		}
		if errors.Is(err, io.EOF) {
			return ideas, nil
		}
		if err != nil {
			return nil, fmt.Errorf("ideas: read: %w", err)
		}
	}
}

// readLine consumes the next line. Once a line passes maxLineBytes the rest
// of it is drained and tooLong is set.
func readLine(br *bufio.Reader) (line []byte, tooLong bool, err error) {
	for {
		var chunk []byte
		chunk, err = br.ReadSlice('\n')
		if !tooLong {
			if len(line)+len(chunk) > maxLineBytes {
				tooLong, line = true, nil
			} else {
				line = append(line, chunk...)
			}
		}
		if !errors.Is(err, bufio.ErrBufferFull) {
			return line, tooLong, err
		}
	}
}

func parseLine(line []byte) (string, bool) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return "", false
	}
	var rec record
	if err := json.Unmarshal(line, &rec); err != nil {
		return "", false
	}
	text := strings.TrimSpace(rec.ProblemText)
	return text, text != ""
}

// File reads ideas from a JSONL file on every Pick so edits between runs
// are honored.
type File struct {
	path string
	mu   sync.Mutex
	rng  *rand.Rand
}

// NewFile returns a Source backed by path. A nil rng gets a time-seeded one.
func NewFile(path string, rng *rand.Rand) *File {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &File{path: path, rng: rng}
}

// Pick returns one idea chosen uniformly at random.
func (f *File) Pick() (string, error) {
	file, err := os.Open(f.path)
	if err != nil {
		return "", fmt.Errorf("ideas: open %s: %w", f.path, err)
	}
	defer file.Close()
	ideas, err := Read(file)
	if err != nil {
		return "", err
	}
	if len(ideas) == 0 {
		return "", fmt.Errorf("%w in %s", ErrNoIdeas, f.path)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return ideas[f.rng.Intn(len(ideas))], nil
}

// Static serves a fixed list, mostly for tests and `--idea`.
type Static []string

// Pick returns the first idea.
func (s Static) Pick() (string, error) {
	for _, idea := range s {
		if strings.TrimSpace(idea) != "" {
			return strings.TrimSpace(idea), nil
		}
	}
	return "", ErrNoIdeas
}
