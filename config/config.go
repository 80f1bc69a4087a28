// Package config handles configuration loading for the KPI assistant.
// Files are YAML with environment variable expansion, so deployments can
// inject secrets and hosts without templating.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the full assistant configuration.
type Config struct {
	Model    ModelConfig   `yaml:"model"`
	Engine   EngineConfig  `yaml:"engine"`
	Session  SessionConfig `yaml:"session"`
	LogLevel string        `yaml:"log_level"`
}

// ModelConfig selects and tunes the inference backend.
type ModelConfig struct {
	// Provider is "ollama", "openai" or "anthropic".
	Provider    string  `yaml:"provider"`
	BaseURL     string  `yaml:"base_url"`
	Name        string  `yaml:"name"`
	Temperature float64 `yaml:"temperature"`
	NumCtx      int     `yaml:"num_ctx"`
}

// EngineConfig tunes the orchestration loop.
type EngineConfig struct {
	MaxIterations    int      `yaml:"max_iterations"`
	HistoryWindow    int      `yaml:"history_window"`
	MinTokenLength   int      `yaml:"min_token_length"`
	DecideTimeout    Duration `yaml:"decide_timeout"`
	ToolTimeout      Duration `yaml:"tool_timeout"`
	MaxParallelTools int      `yaml:"max_parallel_tools"`
}

// Duration is a time.Duration that unmarshals from YAML strings like "30s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// AsDuration converts back to the standard library type.
func (d Duration) AsDuration() time.Duration { return time.Duration(d) }

// SessionConfig selects the session persistence backend.
type SessionConfig struct {
	// Path is the SQLite database file. Empty selects the in-memory store.
	Path string `yaml:"path"`
}

// Default returns the baseline configuration: a local Ollama backend and
// in-memory sessions.
func Default() Config {
	return Config{
		Model: ModelConfig{
			Provider:    "ollama",
			BaseURL:     "http://127.0.0.1:11434",
			Name:        "qwen2.5:7b-instruct",
			Temperature: 0.2,
			NumCtx:      8192,
		},
		Engine: EngineConfig{
			MaxIterations: 8,
			HistoryWindow: 10,
			DecideTimeout: Duration(2 * time.Minute),
			ToolTimeout:   Duration(30 * time.Second),
		},
		LogLevel: "info",
	}
}

// Load reads a YAML config file, expanding ${VAR} references from the
// environment before parsing. Missing keys keep their defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
