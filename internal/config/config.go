// Package config provides the configuration schema and loader for the
// verification agent.
package config

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// IndexBackend selects the correction index implementation.
type IndexBackend string

const (
	// IndexMemory is the in-process fuzzy index over the lookup CSV.
	IndexMemory IndexBackend = "memory"

	// IndexPostgres is the pgvector-backed semantic index.
	IndexPostgres IndexBackend = "postgres"
)

// IsValid reports whether b is a recognised index backend.
func (b IndexBackend) IsValid() bool {
	return b == IndexMemory || b == IndexPostgres
}

// Config is the root configuration structure. It is typically loaded from a
// YAML file using [Load] or [LoadFromReader].
type Config struct {
	// OfficeName is the dental office named in the session greeting.
	OfficeName string `yaml:"office_name"`

	Server     ServerConfig     `yaml:"server"`
	Providers  ProvidersConfig  `yaml:"providers"`
	Correction CorrectionConfig `yaml:"correction"`
	Storage    StorageConfig    `yaml:"storage"`

	// Patient overrides the sample patient record. When nil a random
	// record is generated at startup.
	Patient *PatientConfig `yaml:"patient"`
}

// ServerConfig holds network and logging settings.
type ServerConfig struct {
	// MetricsAddr is the TCP address the Prometheus /metrics endpoint
	// listens on (e.g., ":9090"). Empty disables the endpoint.
	MetricsAddr string `yaml:"metrics_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`
}

// ProvidersConfig declares which provider implementation to use for each
// external collaborator.
type ProvidersConfig struct {
	LLM        ProviderEntry `yaml:"llm"`
	Embeddings ProviderEntry `yaml:"embeddings"`
}

// ProviderEntry is the common configuration block shared by all provider
// types.
type ProviderEntry struct {
	// Name selects the provider implementation. For llm: "openai" or any
	// any-llm backend name ("anthropic", "gemini", "ollama", "mistral",
	// "groq"). For embeddings: "openai".
	Name string `yaml:"name"`

	// APIKey is the authentication key for the provider's API. Falls back
	// to the provider's conventional environment variable when empty.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the provider's default API endpoint.
	BaseURL string `yaml:"base_url"`

	// Model selects a specific model within the provider.
	Model string `yaml:"model"`
}

// CorrectionConfig configures the transcript correction pipeline.
type CorrectionConfig struct {
	// Backend selects the index implementation. Defaults to "memory".
	Backend IndexBackend `yaml:"backend"`

	// LookupPath is the correction lookup CSV
	// (misheard, correction, context columns).
	LookupPath string `yaml:"lookup_path"`

	// Threshold is the minimum confidence for auto-applying a correction.
	// Zero means the default of 0.70.
	Threshold float64 `yaml:"threshold"`

	// ConfirmLowConfidence enables asking the caller about corrections
	// scoring just below the threshold.
	ConfirmLowConfidence bool `yaml:"confirm_low_confidence"`
}

// StorageConfig configures summary persistence and the postgres index.
type StorageConfig struct {
	// PostgresDSN is the connection string for the pgvector index and the
	// summary archive. Required when correction.backend is "postgres".
	PostgresDSN string `yaml:"postgres_dsn"`

	// ResultsPath is the JSON results file written when a session ends.
	// Defaults to "verification_results.json".
	ResultsPath string `yaml:"results_path"`
}

// PatientConfig is a fixed patient record for the session.
type PatientConfig struct {
	FirstName         string `yaml:"first_name"`
	LastName          string `yaml:"last_name"`
	DateOfBirth       string `yaml:"date_of_birth"`
	MemberNumber      string `yaml:"member_number"`
	GroupNumber       string `yaml:"group_number"`
	InsuranceProvider string `yaml:"insurance_provider"`
}
