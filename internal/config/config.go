// ABOUTME: Settings loading with global + project config merge
// ABOUTME: YAML files via gopkg.in/yaml.v3; project values override global ones

package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mauromedda/toolagent-go/pkg/ai"
)

// Defaults applied to unset fields.
const (
	DefaultMaxIterations  = 8
	DefaultHistoryLimit   = 80
	DefaultMaxTokens      = 4096
	DefaultRequestTimeout = 2 * time.Minute
	DefaultProvider       = "openai"
	DefaultModel          = "gpt-4o-mini"
)

// ToolSpec declares an external command exposed to the model as a tool.
type ToolSpec struct {
	Name        string            `yaml:"name"`
	Description string            `yaml:"description,omitempty"`
	Parameters  map[string]any    `yaml:"parameters,omitempty"`
	Command     string            `yaml:"command"`
	Args        []string          `yaml:"args,omitempty"`
	Dir         string            `yaml:"dir,omitempty"`
	Env         map[string]string `yaml:"env,omitempty"`
	Timeout     time.Duration     `yaml:"timeout,omitempty"`
}

// Settings holds the merged configuration.
type Settings struct {
	Provider               string        `yaml:"provider,omitempty"`
	Model                  string        `yaml:"model,omitempty"`
	BaseURL                string        `yaml:"base_url,omitempty"`
	APIKey                 string        `yaml:"api_key,omitempty"`
	MaxIterations          int           `yaml:"max_iterations,omitempty"`
	HistoryLimit           int           `yaml:"history_limit,omitempty"`
	MaxTokens              int           `yaml:"max_tokens,omitempty"`
	Temperature            float64       `yaml:"temperature,omitempty"`
	RequestTimeout         time.Duration `yaml:"request_timeout,omitempty"`
	SystemPrompt           string        `yaml:"system_prompt,omitempty"`
	ToolsUnsupportedModels []string      `yaml:"tools_unsupported_models,omitempty"`
	MemoryDir              string        `yaml:"memory_dir,omitempty"`
	Stream                 *bool         `yaml:"stream,omitempty"`
	Tools                  []ToolSpec    `yaml:"tools,omitempty"`
}

// Load reads and merges global and project-local settings, expands
// ${VAR} references and fills defaults. Missing files are not an error.
func Load(projectRoot string) (*Settings, error) {
	return LoadFiles(GlobalConfigFile(), ProjectConfigFile(projectRoot))
}

// LoadFiles is Load with explicit file paths.
func LoadFiles(globalPath, projectPath string) (*Settings, error) {
	global, err := loadFile(globalPath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading global config: %w", err)
	}

	project, err := loadFile(projectPath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	merged := merge(global, project)
	ResolveEnvVars(merged)
	merged.ApplyDefaults()
	return merged, nil
}

// loadFile reads Settings from a YAML file. Returns zero Settings if the
// file does not exist.
func loadFile(path string) (*Settings, error) {
	if path == "" {
		return &Settings{}, os.ErrNotExist
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return &Settings{}, err
	}
	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &s, nil
}

// merge overlays project settings onto global settings.
// Non-zero project values override global values; project tools replace
// global tools with the same name.
func merge(global, project *Settings) *Settings {
	if global == nil {
		global = &Settings{}
	}
	if project == nil {
		return global
	}

	result := *global

	if project.Provider != "" {
		result.Provider = project.Provider
	}
	if project.Model != "" {
		result.Model = project.Model
	}
	if project.BaseURL != "" {
		result.BaseURL = project.BaseURL
	}
	if project.APIKey != "" {
		result.APIKey = project.APIKey
	}
	if project.MaxIterations != 0 {
		result.MaxIterations = project.MaxIterations
	}
	if project.HistoryLimit != 0 {
		result.HistoryLimit = project.HistoryLimit
	}
	if project.MaxTokens != 0 {
		result.MaxTokens = project.MaxTokens
	}
	if project.Temperature != 0 {
		result.Temperature = project.Temperature
	}
	if project.RequestTimeout != 0 {
		result.RequestTimeout = project.RequestTimeout
	}
	if project.SystemPrompt != "" {
		result.SystemPrompt = project.SystemPrompt
	}
	if project.MemoryDir != "" {
		result.MemoryDir = project.MemoryDir
	}
	if project.Stream != nil {
		result.Stream = project.Stream
	}
	if len(project.ToolsUnsupportedModels) > 0 {
		result.ToolsUnsupportedModels = append(append([]string(nil), global.ToolsUnsupportedModels...), project.ToolsUnsupportedModels...)
	}

	if len(project.Tools) > 0 {
		tools := make([]ToolSpec, 0, len(global.Tools)+len(project.Tools))
		overridden := make(map[string]bool, len(project.Tools))
		for _, t := range project.Tools {
			overridden[t.Name] = true
		}
		for _, t := range global.Tools {
			if !overridden[t.Name] {
				tools = append(tools, t)
			}
		}
		result.Tools = append(tools, project.Tools...)
	}

	return &result
}

// ApplyDefaults fills unset fields.
func (s *Settings) ApplyDefaults() {
	if s.Provider == "" {
		s.Provider = DefaultProvider
	}
	if s.Model == "" {
		s.Model = DefaultModel
	}
	if s.MaxIterations == 0 {
		s.MaxIterations = DefaultMaxIterations
	}
	if s.HistoryLimit == 0 {
		s.HistoryLimit = DefaultHistoryLimit
	}
	if s.MaxTokens == 0 {
		s.MaxTokens = DefaultMaxTokens
	}
	if s.RequestTimeout == 0 {
		s.RequestTimeout = DefaultRequestTimeout
	}
	if s.MemoryDir == "" {
		s.MemoryDir = MemoryDir()
	}
}

// Streaming reports whether answers should be streamed.
func (s *Settings) Streaming() bool {
	return s.Stream != nil && *s.Stream
}

// Validate checks values the agent cannot work with.
func (s *Settings) Validate() error {
	var errs []error
	if _, err := ai.ParseApi(s.Provider); err != nil {
		errs = append(errs, err)
	}
	if s.MaxIterations < 1 {
		errs = append(errs, fmt.Errorf("max_iterations must be at least 1, got %d", s.MaxIterations))
	}
	if s.HistoryLimit < 0 {
		errs = append(errs, fmt.Errorf("history_limit must not be negative, got %d", s.HistoryLimit))
	}
	if s.MaxTokens < 0 {
		errs = append(errs, fmt.Errorf("max_tokens must not be negative, got %d", s.MaxTokens))
	}
	if s.RequestTimeout <= 0 {
		errs = append(errs, fmt.Errorf("request_timeout must be positive, got %s", s.RequestTimeout))
	}
	seen := make(map[string]bool, len(s.Tools))
	for i, t := range s.Tools {
		switch {
		case t.Name == "":
			errs = append(errs, fmt.Errorf("tools[%d]: name is required", i))
		case t.Command == "":
			errs = append(errs, fmt.Errorf("tool %s: command is required", t.Name))
		case seen[t.Name]:
			errs = append(errs, fmt.Errorf("tool %s: declared twice", t.Name))
		}
		seen[t.Name] = true
	}
	return errors.Join(errs...)
}
