package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// ValidProviderNames lists known provider names per provider kind. Used by
// [Validate] to warn about unrecognised provider names.
var ValidProviderNames = map[string][]string{
	"llm":        {"openai", "anthropic", "gemini", "ollama", "mistral", "groq"},
	"embeddings": {"openai"},
}

// Load reads the YAML configuration file at path and returns a validated
// [Config]. It is a convenience wrapper around [LoadFromReader] and
// [Validate].
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
// Unknown fields are rejected so typos surface at startup.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values. It returns a
// joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	validateProviderName("llm", cfg.Providers.LLM.Name)
	validateProviderName("embeddings", cfg.Providers.Embeddings.Name)

	if cfg.Providers.LLM.Name == "" {
		errs = append(errs, errors.New("providers.llm.name is required; the extraction oracle cannot run without an LLM backend"))
	}

	if cfg.Correction.Backend != "" && !cfg.Correction.Backend.IsValid() {
		errs = append(errs, fmt.Errorf("correction.backend %q is invalid; valid values: memory, postgres", cfg.Correction.Backend))
	}
	if cfg.Correction.Threshold < 0 || cfg.Correction.Threshold > 1 {
		errs = append(errs, fmt.Errorf("correction.threshold %.2f is out of range [0, 1]", cfg.Correction.Threshold))
	}
	if cfg.Correction.Backend == IndexPostgres {
		if cfg.Storage.PostgresDSN == "" {
			errs = append(errs, errors.New("storage.postgres_dsn is required when correction.backend is postgres"))
		}
		if cfg.Providers.Embeddings.Name == "" {
			errs = append(errs, errors.New("providers.embeddings.name is required when correction.backend is postgres"))
		}
	}
	if cfg.Correction.Backend != IndexPostgres && cfg.Correction.LookupPath == "" {
		slog.Warn("correction.lookup_path is empty; transcript correction will be disabled")
	}

	if cfg.Storage.PostgresDSN == "" {
		slog.Warn("storage.postgres_dsn is empty; summaries will only be written to the results file")
	}

	if p := cfg.Patient; p != nil {
		if p.FirstName == "" || p.LastName == "" {
			errs = append(errs, errors.New("patient.first_name and patient.last_name are required when a patient is configured"))
		}
		if p.MemberNumber == "" {
			errs = append(errs, errors.New("patient.member_number is required when a patient is configured"))
		}
	}

	return errors.Join(errs...)
}

// SlogLevel maps the configured level onto a slog.Level, defaulting to info.
func (l LogLevel) SlogLevel() slog.Level {
	switch l {
	case LogDebug:
		return slog.LevelDebug
	case LogWarn:
		return slog.LevelWarn
	case LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
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
	slog.Warn("unknown provider name, may be a typo or third-party provider",
		"kind", kind,
		"name", name,
		"known", known,
	)
}
