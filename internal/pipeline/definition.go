package pipeline

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dominikbraun/graph"
	"github.com/dominikbraun/graph/draw"
	"gopkg.in/yaml.v3"
)

const defaultDefinitionYAML = `
id: cpgen
stages:
  - id: select-idea
  - id: generate-statement
    depends_on: [select-idea]
  - id: parse-statement
    depends_on: [generate-statement]
  - id: persist-sample
    depends_on: [parse-statement]
  - id: generate-solution
    depends_on: [parse-statement]
  - id: compile-solution
    depends_on: [generate-solution]
  - id: verify-sample
    depends_on: [compile-solution, persist-sample]
  - id: generate-test-generator
    depends_on: [compile-solution]
  - id: build-test-generator
    depends_on: [generate-test-generator]
final: generate-report
`

// StageRef places a stage in the pipeline graph.
type StageRef struct {
	ID        string   `yaml:"id"`
	DependsOn []string `yaml:"depends_on,omitempty"`
}

// Definition declares the gated stages, their dependencies and the final
// stage that runs unconditionally once the gated stages are done.
type Definition struct {
	ID     string     `yaml:"id"`
	Stages []StageRef `yaml:"stages"`
	Final  string     `yaml:"final,omitempty"`
}

// DefaultDefinition returns the built-in nine-stage pipeline with the report
// as its final stage.
func DefaultDefinition() Definition {
	def, err := ParseDefinitionYAML([]byte(defaultDefinitionYAML))
	if err != nil {
		panic(fmt.Sprintf("pipeline: default definition: %v", err))
	}
	return def
}

// ParseDefinitionYAML decodes and validates a definition.
func ParseDefinitionYAML(data []byte) (Definition, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Definition{}, fmt.Errorf("pipeline: definition payload is empty")
	}
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return Definition{}, fmt.Errorf("pipeline: decode definition: %w", err)
	}
	if err := def.Validate(); err != nil {
		return Definition{}, err
	}
	return def, nil
}

// LoadDefinitionFile loads a definition from path.
func LoadDefinitionFile(path string) (Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Definition{}, fmt.Errorf("pipeline: read %s: %w", path, err)
	}
	def, err := ParseDefinitionYAML(data)
	if err != nil {
		return Definition{}, fmt.Errorf("pipeline: %s: %w", path, err)
	}
	return def, nil
}

// Validate ensures every dependency is declared and the graph is acyclic.
func (d Definition) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("pipeline: id is required")
	}
	if len(d.Stages) == 0 {
		return fmt.Errorf("pipeline %s: at least one stage is required", d.ID)
	}
	if _, err := d.Graph(); err != nil {
		return fmt.Errorf("pipeline %s: %w", d.ID, err)
	}
	return nil
}

// Graph builds the dependency graph. Edges point from a dependency to the
// stage that needs it.
func (d Definition) Graph() (graph.Graph[string, string], error) {
	g := graph.New(graph.StringHash, graph.Directed(), graph.PreventCycles())
	for idx, ref := range d.Stages {
		if ref.ID == "" {
			return nil, fmt.Errorf("stage[%d]: id is required", idx)
		}
		if ref.ID == d.Final {
			return nil, fmt.Errorf("stage %s is also the final stage", ref.ID)
		}
		if err := g.AddVertex(ref.ID); err != nil {
			if errors.Is(err, graph.ErrVertexAlreadyExists) {
				return nil, fmt.Errorf("duplicate stage id %s", ref.ID)
			}
			return nil, err
		}
	}
	for _, ref := range d.Stages {
		for _, dep := range ref.DependsOn {
			if dep == ref.ID {
				return nil, fmt.Errorf("stage %s depends on itself", ref.ID)
			}
			if err := g.AddEdge(dep, ref.ID); err != nil {
				switch {
				case errors.Is(err, graph.ErrVertexNotFound):
					return nil, fmt.Errorf("dependency %s -> %s references unknown stage", ref.ID, dep)
				case errors.Is(err, graph.ErrEdgeCreatesCycle):
					return nil, fmt.Errorf("dependency %s -> %s creates a cycle", ref.ID, dep)
				case errors.Is(err, graph.ErrEdgeAlreadyExists):
					continue
				default:
					return nil, err
				}
			}
		}
	}
	return g, nil
}

// Order returns the gated stages in execution order: a topological order
// that keeps declaration order wherever dependencies allow.
func (d Definition) Order() ([]string, error) {
	g, err := d.Graph()
	if err != nil {
		return nil, fmt.Errorf("pipeline %s: %w", d.ID, err)
	}
	index := make(map[string]int, len(d.Stages))
	for i, ref := range d.Stages {
		index[ref.ID] = i
	}
	return graph.StableTopologicalSort(g, func(a, b string) bool {
		return index[a] < index[b]
	})
}

// Dependencies returns the dependency list for a stage.
func (d Definition) Dependencies(id string) []string {
	for _, ref := range d.Stages {
		if ref.ID == id {
			return append([]string(nil), ref.DependsOn...)
		}
	}
	return nil
}

// StageIDs returns every stage identifier, the final stage last.
func (d Definition) StageIDs() []string {
	ids := make([]string, 0, len(d.Stages)+1)
	for _, ref := range d.Stages {
		ids = append(ids, ref.ID)
	}
	if d.Final != "" {
		ids = append(ids, d.Final)
	}
	return ids
}

// WriteDOT renders the gated stage graph in Graphviz DOT format.
func (d Definition) WriteDOT(w io.Writer) error {
	g, err := d.Graph()
	if err != nil {
		return fmt.Errorf("pipeline %s: %w", d.ID, err)
	}
	return draw.DOT(g, w)
}
