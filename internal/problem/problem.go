package problem

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Sample is one input/output pair shown in the statement.
type Sample struct {
	Input  string `json:"input"`
	Output string `json:"output"`
}

// Problem is the structured form of a generated statement. Limits are kept as
// free text.
type Problem struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	InputFormat  string   `json:"input_format"`
	OutputFormat string   `json:"output_format"`
	Constraints  string   `json:"constraints"`
	Samples      []Sample `json:"samples"`
	TimeLimit    string   `json:"time_limit"`
	MemoryLimit  string   `json:"memory_limit"`
}

// FirstSample returns the first sample pair, if any.
func (p Problem) FirstSample() (Sample, bool) {
	if len(p.Samples) == 0 {
		return Sample{}, false
	}
	return p.Samples[0], true
}

// MarshalIndent renders the record the way it is stored on disk: four-space
// indentation and no HTML escaping so statements keep their <, > and &.
func (p Problem) MarshalIndent() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(p); err != nil {
		return nil, fmt.Errorf("problem: encode record: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Unmarshal decodes a record written by MarshalIndent.
func Unmarshal(data []byte) (Problem, error) {
	var p Problem
	if err := json.Unmarshal(data, &p); err != nil {
		return Problem{}, fmt.Errorf("problem: decode record: %w", err)
	}
	return p, nil
}
