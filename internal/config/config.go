// internal/config/config.go
//
// This package handles configuration and the .cpgen directory structure.
// Every project that runs cpgen gets a .cpgen/ folder created in its root.

package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
	"gopkg.in/yaml.v3"
)

const (
	// ProjectDirName is the name of the directory we create in each project
	ProjectDirName = ".cpgen"

	ProviderDeepSeek = "deepseek"
	ProviderOpenAI   = "openai"
	ProviderGemini   = "gemini"
)

const defaultProjectConfigYAML = `# cpgen project configuration
version: 1

# JSONL file with one {"problem_text": "..."} idea per line.
ideas: input.jsonl

# Example test-case generator shown to the model when it writes a new one.
example_generator: generator_example.cpp

# Run directories (1/, 2/, ...) are created here.
runs_dir: .

# Holds the next run id.
counter: ID.txt

generator:
  # deepseek, openai or gemini. The API key is read from CPGEN_API_KEY.
  provider: deepseek
  model: deepseek-reasoner
  base_url: https://api.deepseek.com
  temperature: 0
  timeout: 10m

toolchain:
  compiler: g++
  flags: [-O2, -std=c++17]
  compile_timeout: 60s
  run_timeout: 10s
  generator_timeout: 2m
`

// providerDefaults fills model and base URL once the provider is known.
var providerDefaults = map[string]GeneratorConfig{
	ProviderDeepSeek: {Model: "deepseek-reasoner", BaseURL: "https://api.deepseek.com"},
	ProviderOpenAI:   {Model: "gpt-4o", BaseURL: "https://api.openai.com/v1"},
	ProviderGemini:   {Model: "gemini-2.5-pro"},
}

// GeneratorConfig selects and tunes the text-generation provider.
type GeneratorConfig struct {
	Provider    string        `yaml:"provider"`
	Model       string        `yaml:"model"`
	BaseURL     string        `yaml:"base_url,omitempty"`
	Temperature float32       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
}

// ToolchainConfig describes how generated C++ is compiled and executed.
type ToolchainConfig struct {
	Compiler         string        `yaml:"compiler"`
	Flags            []string      `yaml:"flags"`
	CompileTimeout   time.Duration `yaml:"compile_timeout"`
	RunTimeout       time.Duration `yaml:"run_timeout"`
	GeneratorTimeout time.Duration `yaml:"generator_timeout"`
}

// ProjectConfig models .cpgen/config.yaml.
type ProjectConfig struct {
	Version          int             `yaml:"version"`
	Ideas            string          `yaml:"ideas"`
	ExampleGenerator string          `yaml:"example_generator"`
	RunsDir          string          `yaml:"runs_dir"`
	Counter          string          `yaml:"counter"`
	Generator        GeneratorConfig `yaml:"generator"`
	Toolchain        ToolchainConfig `yaml:"toolchain"`
}

// Environment carries overrides that should not live in the config file.
type Environment struct {
	APIKey   string `env:"CPGEN_API_KEY"`
	Provider string `env:"CPGEN_PROVIDER"`
	Model    string `env:"CPGEN_MODEL"`
	BaseURL  string `env:"CPGEN_BASE_URL"`
}

// Config holds the runtime configuration for cpgen.
type Config struct {
	// ProjectDir is the directory where the user ran `cpgen` from
	ProjectDir string

	// StateDir is ProjectDir/.cpgen
	StateDir string

	// APIKey authenticates against the generator provider.
	APIKey string

	Project ProjectConfig
}

// InitProjectDir creates the .cpgen directory structure in the given project
// directory and writes the default config file if none exists.
//
// Structure created:
// .cpgen/
// ├── config.yaml
// └── logs/
func InitProjectDir(projectDir string) error {
	stateDir := filepath.Join(projectDir, ProjectDirName)
	if err := os.MkdirAll(filepath.Join(stateDir, "logs"), 0o755); err != nil {
		return err
	}
	return ensureProjectConfig(filepath.Join(stateDir, "config.yaml"))
}

// NewConfig loads .cpgen/config.yaml (if present) and applies environment
// overrides.
func NewConfig(ctx context.Context, projectDir string) (*Config, error) {
	return newConfig(ctx, projectDir, envconfig.OsLookuper())
}

func newConfig(ctx context.Context, projectDir string, lookuper envconfig.Lookuper) (*Config, error) {
	cfg := &Config{
		ProjectDir: projectDir,
		StateDir:   filepath.Join(projectDir, ProjectDirName),
		Project:    defaultProjectConfig(),
	}
	if err := cfg.loadProjectConfig(); err != nil {
		return nil, err
	}
	var env Environment
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &env, Lookuper: lookuper}); err != nil {
		return nil, fmt.Errorf("config: read environment: %w", err)
	}
	cfg.applyEnvironment(env)
	cfg.Project.normalize(projectDir)
	if err := cfg.Project.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// LogsDir returns the path to the logs directory
func (c *Config) LogsDir() string {
	return filepath.Join(c.StateDir, "logs")
}

// ProjectConfigPath returns the on-disk location for the project config file.
func (c *Config) ProjectConfigPath() string {
	return filepath.Join(c.StateDir, "config.yaml")
}

// IdeasPath returns the idea source file.
func (c *Config) IdeasPath() string {
	return c.Project.Ideas
}

// ExampleGeneratorPath returns the example generator handed to the model.
func (c *Config) ExampleGeneratorPath() string {
	return c.Project.ExampleGenerator
}

// RunsDir returns the directory holding per-run folders.
func (c *Config) RunsDir() string {
	return c.Project.RunsDir
}

// CounterPath returns the run-id counter file.
func (c *Config) CounterPath() string {
	return c.Project.Counter
}

// RunDir returns the artifact directory for a run id.
func (c *Config) RunDir(runID int) string {
	return filepath.Join(c.RunsDir(), fmt.Sprintf("%d", runID))
}

// Generator returns the generator settings.
func (c *Config) Generator() GeneratorConfig {
	return c.Project.Generator
}

// Toolchain returns the toolchain settings.
func (c *Config) Toolchain() ToolchainConfig {
	return c.Project.Toolchain
}

func (c *Config) loadProjectConfig() error {
	path := c.ProjectConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	parsed := defaultProjectConfig()
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	parsed.applyDefaults()
	c.Project = parsed
	return nil
}

func (c *Config) applyEnvironment(env Environment) {
	c.APIKey = strings.TrimSpace(env.APIKey)
	if v := strings.TrimSpace(env.Provider); v != "" {
		// Model and URL from the file belong to the provider being replaced.
		if !strings.EqualFold(v, strings.TrimSpace(c.Project.Generator.Provider)) {
			c.Project.Generator.Model = ""
			c.Project.Generator.BaseURL = ""
		}
		c.Project.Generator.Provider = v
	}
	if v := strings.TrimSpace(env.Model); v != "" {
		c.Project.Generator.Model = v
	}
	if v := strings.TrimSpace(env.BaseURL); v != "" {
		c.Project.Generator.BaseURL = v
	}
}

func defaultProjectConfig() ProjectConfig {
	return ProjectConfig{
		Version:          1,
		Ideas:            "input.jsonl",
		ExampleGenerator: "generator_example.cpp",
		RunsDir:          ".",
		Counter:          "ID.txt",
		Generator: GeneratorConfig{
			Provider: ProviderDeepSeek,
			Timeout:  10 * time.Minute,
		},
		Toolchain: ToolchainConfig{
			Compiler:         "g++",
			Flags:            []string{"-O2", "-std=c++17"},
			CompileTimeout:   60 * time.Second,
			RunTimeout:       10 * time.Second,
			GeneratorTimeout: 2 * time.Minute,
		},
	}
}

func (pc *ProjectConfig) applyDefaults() {
	def := defaultProjectConfig()
	if pc.Version == 0 {
		pc.Version = def.Version
	}
	if pc.Generator.Timeout <= 0 {
		pc.Generator.Timeout = def.Generator.Timeout
	}
	if pc.Toolchain.CompileTimeout <= 0 {
		pc.Toolchain.CompileTimeout = def.Toolchain.CompileTimeout
	}
	if pc.Toolchain.RunTimeout <= 0 {
		pc.Toolchain.RunTimeout = def.Toolchain.RunTimeout
	}
	if pc.Toolchain.GeneratorTimeout <= 0 {
		pc.Toolchain.GeneratorTimeout = def.Toolchain.GeneratorTimeout
	}
}

func (pc *ProjectConfig) normalize(base string) {
	pc.Ideas = resolvePath(base, pc.Ideas)
	pc.ExampleGenerator = resolvePath(base, pc.ExampleGenerator)
	pc.RunsDir = resolvePath(base, pc.RunsDir)
	pc.Counter = resolvePath(base, pc.Counter)
	pc.Generator.Provider = strings.ToLower(strings.TrimSpace(pc.Generator.Provider))
	pc.Generator.Model = strings.TrimSpace(pc.Generator.Model)
	pc.Generator.BaseURL = strings.TrimRight(strings.TrimSpace(pc.Generator.BaseURL), "/")
	if def, ok := providerDefaults[pc.Generator.Provider]; ok {
		if pc.Generator.Model == "" {
			pc.Generator.Model = def.Model
		}
		if pc.Generator.BaseURL == "" {
			pc.Generator.BaseURL = def.BaseURL
		}
	}
	pc.Toolchain.Compiler = strings.TrimSpace(pc.Toolchain.Compiler)
}

func (pc *ProjectConfig) validate() error {
	if pc.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	if pc.Ideas == "" {
		return fmt.Errorf("ideas is required")
	}
	if pc.RunsDir == "" {
		return fmt.Errorf("runs_dir is required")
	}
	if pc.Counter == "" {
		return fmt.Errorf("counter is required")
	}
	switch pc.Generator.Provider {
	case ProviderDeepSeek, ProviderOpenAI:
		if pc.Generator.BaseURL == "" {
			return fmt.Errorf("generator.base_url is required for %s", pc.Generator.Provider)
		}
	case ProviderGemini:
	default:
		return fmt.Errorf("generator.provider must be 'deepseek', 'openai' or 'gemini'")
	}
	if pc.Generator.Model == "" {
		return fmt.Errorf("generator.model is required")
	}
	if pc.Toolchain.Compiler == "" {
		return fmt.Errorf("toolchain.compiler is required")
	}
	return nil
}

func resolvePath(base, candidate string) string {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return ""
	}
	if filepath.IsAbs(trimmed) {
		return filepath.Clean(trimmed)
	}
	return filepath.Clean(filepath.Join(base, trimmed))
}

func ensureProjectConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultProjectConfigYAML), 0o644)
}
