package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// ValidProviderNames lists known provider names per provider kind.
// Used by [Validate] to warn about unrecognised provider names.
var ValidProviderNames = map[string][]string{
	"llm": {"openai", "anthropic", "ollama", "gemini", "deepseek", "mistral", "groq"},
	"stt": {"whisper", "whispercpp"},
	"tts": {"elevenlabs"},
}

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader] and [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// `${VAR}` references are expanded from the environment before decoding so
// secrets like API keys can stay out of the file. Useful in tests where
// configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("config: read: %w", err)
	}
	expanded := os.Expand(string(data), func(key string) string {
		return os.Getenv(key)
	})

	cfg := &Config{}
	dec := yaml.NewDecoder(strings.NewReader(expanded))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	// Provider name validation — warn for unknown provider names.
	validateProviderName("llm", cfg.Providers.LLM.Name)
	validateProviderName("stt", cfg.Providers.STT.Name)
	validateProviderName("tts", cfg.Providers.TTS.Name)
	for _, e := range cfg.Providers.LLMFallbacks {
		validateProviderName("llm", e.Name)
	}
	for _, e := range cfg.Providers.STTFallbacks {
		validateProviderName("stt", e.Name)
	}
	for _, e := range cfg.Providers.TTSFallbacks {
		validateProviderName("tts", e.Name)
	}

	// Provider availability warnings
	if cfg.Providers.LLM.Name == "" {
		slog.Warn("no LLM provider configured; the assistant will not be able to generate responses")
	}
	if cfg.Providers.STT.Name == "" {
		slog.Warn("no STT provider configured; voice input will be unavailable")
	}
	if cfg.Providers.TTS.Name == "" {
		slog.Warn("no TTS provider configured; spoken replies will be unavailable")
	}

	// Storage
	if cfg.Storage.Backend != "" && !cfg.Storage.Backend.IsValid() {
		errs = append(errs, fmt.Errorf("storage.backend %q is invalid; valid values: mem, postgres", cfg.Storage.Backend))
	}
	if cfg.Storage.Backend == StoragePostgres && cfg.Storage.PostgresDSN == "" {
		errs = append(errs, errors.New("storage.postgres_dsn is required when storage.backend is postgres"))
	}
	if cfg.Storage.Backend == StorageMem && cfg.Storage.PostgresDSN != "" {
		slog.Warn("storage.postgres_dsn is set but storage.backend is mem; the DSN will be ignored")
	}

	// Assistant
	if cfg.Assistant.IdleTimeout < 0 {
		errs = append(errs, fmt.Errorf("assistant.idle_timeout %s must not be negative", cfg.Assistant.IdleTimeout))
	}
	if cfg.Assistant.Voice.SpeedFactor != 0 {
		if cfg.Assistant.Voice.SpeedFactor < 0.5 || cfg.Assistant.Voice.SpeedFactor > 2.0 {
			errs = append(errs, fmt.Errorf("assistant.voice.speed_factor %.2f is out of range [0.5, 2.0]", cfg.Assistant.Voice.SpeedFactor))
		}
	}

	// Training
	if cfg.Training.SimilarityThreshold != 0 {
		if cfg.Training.SimilarityThreshold <= 0 || cfg.Training.SimilarityThreshold > 1 {
			errs = append(errs, fmt.Errorf("training.similarity_threshold %.2f is out of range (0, 1]", cfg.Training.SimilarityThreshold))
		}
	}

	return errors.Join(errs...)
}

// validateProviderName logs a warning if name is non-empty and not found in
// the [ValidProviderNames] list for the given kind.
func validateProviderName(kind, name string) {
	if name == "" {
		return
	}
	known, ok := ValidProviderNames[kind]
	if !ok {
		return
	}
	if slices.Contains(known, name) {
		return
	}
	slog.Warn("unknown provider name — may be a typo or third-party provider",
		"kind", kind,
		"name", name,
		"known", known,
	)
}
