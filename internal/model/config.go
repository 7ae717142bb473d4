package model

import (
	"os"
	"path/filepath"
	"time"
)

// Config holds every setting of a translation run
type Config struct {
	Dictionary  DictionaryConfig  `yaml:"dictionary" mapstructure:"dictionary"`
	Input       InputConfig       `yaml:"input" mapstructure:"input"`
	Output      OutputConfig      `yaml:"output" mapstructure:"output"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Store       StoreConfig       `yaml:"store" mapstructure:"store"`
	LLM         LLMConfig         `yaml:"llm" mapstructure:"llm"`
}

// DictionaryConfig points at rule and resource files. Empty paths select the
// built-in dictionary.
type DictionaryConfig struct {
	Rules     string `yaml:"rules" mapstructure:"rules"`
	Resources string `yaml:"resources" mapstructure:"resources"`
}

// InputConfig bounds how much of an annotation file is read and how remote
// annotation files are fetched
type InputConfig struct {
	MaxRecords int           `yaml:"max_records" mapstructure:"max_records"` // 0 means no limit
	MaxBytes   int64         `yaml:"max_bytes" mapstructure:"max_bytes"`
	Timeout    time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent  string        `yaml:"user_agent" mapstructure:"user_agent"`
	HTTPProxy  string        `yaml:"http_proxy" mapstructure:"http_proxy"`
	HTTPSProxy string        `yaml:"https_proxy" mapstructure:"https_proxy"`
	Robots     bool          `yaml:"robots" mapstructure:"robots"` // Honor robots.txt for URL input
}

// OutputConfig controls rendering and diagnostics
type OutputConfig struct {
	Verbose       bool `yaml:"verbose" mapstructure:"verbose"`
	DeveloperMode bool `yaml:"developer_mode" mapstructure:"developer_mode"`
	Gloss         bool `yaml:"gloss" mapstructure:"gloss"` // English paraphrase in developer text output
}

// ConcurrencyConfig controls the batch worker pool
type ConcurrencyConfig struct {
	Workers          int           `yaml:"workers" mapstructure:"workers"`
	ProgressInterval time.Duration `yaml:"progress_interval" mapstructure:"progress_interval"`
}

// CacheConfig controls the translation cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// StoreConfig controls the SQLite run store
type StoreConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Path    string `yaml:"path" mapstructure:"path"`
}

// LLMConfig selects the optional language model used to paraphrase DAIDE
type LLMConfig struct {
	Provider  string        `yaml:"provider" mapstructure:"provider"` // openai, anthropic, ollama or empty
	Model     string        `yaml:"model" mapstructure:"model"`
	APIKey    string        `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL   string        `yaml:"base_url" mapstructure:"base_url"`
	Timeout   time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxTokens int           `yaml:"max_tokens" mapstructure:"max_tokens"`
	Strict    bool          `yaml:"strict" mapstructure:"strict"` // Reject paraphrases that drop a power or place
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Input: InputConfig{
			MaxRecords: 0,
			MaxBytes:   64 << 20,
			Timeout:    30 * time.Second,
			UserAgent:  "amr2daide/1.0",
			Robots:     true,
		},
		Output: OutputConfig{
			Gloss: true,
		},
		Concurrency: ConcurrencyConfig{
			Workers:          1,
			ProgressInterval: 2 * time.Second,
		},
		Cache: CacheConfig{
			Enabled:   false,
			Dir:       filepath.Join(HomeDir(), "cache"),
			MemoryTTL: 30 * time.Minute,
			DiskTTL:   7 * 24 * time.Hour,
		},
		Store: StoreConfig{
			Enabled: false,
			Path:    filepath.Join(HomeDir(), "runs.db"),
		},
		LLM: LLMConfig{
			Timeout:   30 * time.Second,
			MaxTokens: 200,
			Strict:    true,
		},
	}
}

// HomeDir returns the per-user state directory (~/.amr2daide)
func HomeDir() string {
	if dir := os.Getenv("AMR2DAIDE_HOME"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".amr2daide"
	}
	return filepath.Join(home, ".amr2daide")
}
