package model

import "time"

// Config is the full configuration tree. Values merge from CLI flags,
// THREATLENS_* environment variables, ~/.threatlens/config.yaml and the
// defaults below, in that priority order.
type Config struct {
	HTTP        HTTPConfig        `yaml:"http" mapstructure:"http"`
	Ingest      IngestConfig      `yaml:"ingest" mapstructure:"ingest"`
	Rules       RulesConfig       `yaml:"rules" mapstructure:"rules"`
	Classifier  ClassifierConfig  `yaml:"classifier" mapstructure:"classifier"`
	KB          KBConfig          `yaml:"kb" mapstructure:"kb"`
	Link        LinkConfig        `yaml:"link" mapstructure:"link"`
	Reconcile   ReconcileConfig   `yaml:"reconcile" mapstructure:"reconcile"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Output      OutputConfig      `yaml:"output" mapstructure:"output"`
}

// HTTPConfig controls the URL ingestion fetcher and the taxonomy updater.
type HTTPConfig struct {
	Timeout           time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent         string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes      int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	InsecureTLS       bool          `yaml:"insecure_tls" mapstructure:"insecure_tls"`
	HTTPProxy         string        `yaml:"http_proxy" mapstructure:"http_proxy"`
	HTTPSProxy        string        `yaml:"https_proxy" mapstructure:"https_proxy"`
	NoProxy           string        `yaml:"no_proxy" mapstructure:"no_proxy"`
	RequestsPerSecond float64       `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int           `yaml:"burst" mapstructure:"burst"`
}

// IngestConfig controls document normalization.
type IngestConfig struct {
	MinTokens         int `yaml:"min_tokens" mapstructure:"min_tokens"`                 // Below this the document is malformed
	MinUnitChars      int `yaml:"min_unit_chars" mapstructure:"min_unit_chars"`         // Shorter segments are discarded
	MaxUnitChars      int `yaml:"max_unit_chars" mapstructure:"max_unit_chars"`         // Longer segments are discarded
	BoilerplateRepeat int `yaml:"boilerplate_repeat" mapstructure:"boilerplate_repeat"` // Lines seen on this many pages are stripped
}

// RulesConfig controls the lexical rule extractor.
type RulesConfig struct {
	BaseConfidence float64 `yaml:"base_confidence" mapstructure:"base_confidence"`
}

// ClassifierConfig controls the statistical classifier adapter.
// An empty provider disables the model stage entirely.
type ClassifierConfig struct {
	Provider          string  `yaml:"provider" mapstructure:"provider"` // "openai", "http", or ""
	Model             string  `yaml:"model" mapstructure:"model"`
	APIKey            string  `yaml:"api_key" mapstructure:"api_key"`
	BaseURL           string  `yaml:"base_url" mapstructure:"base_url"`
	Timeout           int     `yaml:"timeout" mapstructure:"timeout"` // seconds per call
	Threshold         float64 `yaml:"threshold" mapstructure:"threshold"`
	BatchSize         int     `yaml:"batch_size" mapstructure:"batch_size"`
	MaxRetries        int     `yaml:"max_retries" mapstructure:"max_retries"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
}

// KBConfig controls malware knowledge base loading.
type KBConfig struct {
	Path     string `yaml:"path" mapstructure:"path"`           // Optional YAML overlay
	STIXPath string `yaml:"stix_path" mapstructure:"stix_path"` // Optional enterprise-attack bundle
}

// LinkConfig controls the malware linker.
type LinkConfig struct {
	Confidence float64 `yaml:"confidence" mapstructure:"confidence"` // For synthesized malware-link candidates
}

// ReconcileConfig holds the merge policy constants. These are policy, not
// ground truth; tune them against labeled data.
type ReconcileConfig struct {
	CorroborationBonus float64 `yaml:"corroboration_bonus" mapstructure:"corroboration_bonus"`
	MinConfidence      float64 `yaml:"min_confidence" mapstructure:"min_confidence"`
}

// CacheConfig controls the analysis result cache.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir     string        `yaml:"dir" mapstructure:"dir"`
	TTL     time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

// ConcurrencyConfig controls batch processing.
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// OutputConfig controls rendering.
type OutputConfig struct {
	Verbose         bool `yaml:"verbose" mapstructure:"verbose"`
	IncludeEvidence bool `yaml:"include_evidence" mapstructure:"include_evidence"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Timeout:           30 * time.Second,
			UserAgent:         "Threatlens/0.2 (+https://github.com/styx8114/threatlens)",
			MaxBodyBytes:      4_000_000,
			RequestsPerSecond: 2,
			Burst:             5,
		},
		Ingest: IngestConfig{
			MinTokens:         12,
			MinUnitChars:      20,
			MaxUnitChars:      600,
			BoilerplateRepeat: 3,
		},
		Rules: RulesConfig{
			BaseConfidence: 0.85,
		},
		Classifier: ClassifierConfig{
			Provider:          "",
			Timeout:           60,
			Threshold:         0.30,
			BatchSize:         16,
			MaxRetries:        2,
			RequestsPerSecond: 4,
		},
		Link: LinkConfig{
			Confidence: 0.50,
		},
		Reconcile: ReconcileConfig{
			CorroborationBonus: 0.15,
			MinConfidence:      0.20,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		Output: OutputConfig{
			IncludeEvidence: true,
		},
	}
}
