// Package config loads docdex configuration from .docdex.yaml merged over
// built-in defaults, with DOCDEX_* environment variables taking highest
// priority.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/docdex/docdex/internal/errors"
)

// ConfigFileName is looked up in the working directory by Load.
const ConfigFileName = ".docdex.yaml"

// Config is the complete docdex configuration.
type Config struct {
	Paths      PathsConfig      `yaml:"paths"`
	Chunking   ChunkingConfig   `yaml:"chunking"`
	Embeddings EmbeddingsConfig `yaml:"embeddings"`
	Index      IndexConfig      `yaml:"index"`
	Search     SearchConfig     `yaml:"search"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// PathsConfig locates the data directory and the document folder.
type PathsConfig struct {
	// DataDir holds the SQLite database and lock file.
	DataDir string `yaml:"data_dir"`

	// DocsFolder is the default folder scanned for documents.
	DocsFolder string `yaml:"docs_folder"`
}

// ChunkingConfig sets the sliding token window.
type ChunkingConfig struct {
	WindowSize int `yaml:"window_size"`
	Stride     int `yaml:"stride"`
}

// EmbeddingsConfig configures the embedding provider.
type EmbeddingsConfig struct {
	// Provider is "ollama" or "static".
	Provider string `yaml:"provider"`

	Model string `yaml:"model"`

	// Host is the Ollama endpoint.
	Host string `yaml:"host"`

	// Dimensions overrides auto-detection (0 = auto).
	Dimensions int `yaml:"dimensions"`

	BatchSize int `yaml:"batch_size"`

	// CacheSize is the LRU embedding cache capacity.
	CacheSize int `yaml:"cache_size"`
}

// IndexConfig selects the vector index backend.
type IndexConfig struct {
	// Backend is "flat" (exact, default) or "hnsw" (approximate).
	Backend string `yaml:"backend"`
}

// SearchConfig sets query defaults.
type SearchConfig struct {
	TopK          int     `yaml:"top_k"`
	MinSimilarity float64 `yaml:"min_similarity"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level string `yaml:"level"`

	// File is the log file path; empty uses the default under ~/.docdex/logs.
	File string `yaml:"file"`

	// Stderr mirrors logs to stderr in addition to the file.
	Stderr bool `yaml:"stderr"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			DataDir:    defaultDataDir(),
			DocsFolder: "docs",
		},
		Chunking: ChunkingConfig{
			WindowSize: 50,
			Stride:     40,
		},
		Embeddings: EmbeddingsConfig{
			Provider:  "ollama",
			Model:     "all-minilm",
			Host:      "http://localhost:11434",
			BatchSize: 16,
			CacheSize: 1024,
		},
		Index: IndexConfig{
			Backend: "flat",
		},
		Search: SearchConfig{
			TopK:          5,
			MinSimilarity: 0.8,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".docdex"
	}
	return filepath.Join(home, ".docdex")
}

// DatabasePath returns the SQLite database location.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "docdex.db")
}

// Load reads .docdex.yaml from dir (if present) over the defaults, then
// applies environment overrides. A missing file is not an error.
func Load(dir string) (*Config, error) {
	cfg := Default()

	path := filepath.Join(dir, ConfigFileName)
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// Defaults only
	case err != nil:
		return nil, errors.ConfigError("read "+path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.New(errors.ErrCodeConfigInvalid, "parse "+path, err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("DOCDEX_DATA_DIR"); v != "" {
		c.Paths.DataDir = v
	}
	if v := os.Getenv("DOCDEX_DOCS_FOLDER"); v != "" {
		c.Paths.DocsFolder = v
	}
	if v := os.Getenv("DOCDEX_EMBEDDINGS_PROVIDER"); v != "" {
		c.Embeddings.Provider = v
	}
	if v := os.Getenv("DOCDEX_EMBEDDINGS_MODEL"); v != "" {
		c.Embeddings.Model = v
	}
	if v := os.Getenv("DOCDEX_OLLAMA_HOST"); v != "" {
		c.Embeddings.Host = v
	}
	if v := os.Getenv("DOCDEX_INDEX_BACKEND"); v != "" {
		c.Index.Backend = v
	}
	if v := os.Getenv("DOCDEX_TOP_K"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Search.TopK = n
		}
	}
	if v := os.Getenv("DOCDEX_MIN_SIMILARITY"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Search.MinSimilarity = f
		}
	}
	if v := os.Getenv("DOCDEX_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	var problems []string

	if c.Chunking.WindowSize <= 0 {
		problems = append(problems, "chunking.window_size must be positive")
	}
	if c.Chunking.Stride <= 0 {
		problems = append(problems, "chunking.stride must be positive")
	}
	if c.Chunking.Stride > c.Chunking.WindowSize {
		problems = append(problems, "chunking.stride must not exceed chunking.window_size")
	}
	if c.Search.TopK <= 0 {
		problems = append(problems, "search.top_k must be positive")
	}
	if c.Search.MinSimilarity < 0 || c.Search.MinSimilarity > 1 {
		problems = append(problems, "search.min_similarity must be in [0, 1]")
	}
	switch c.Index.Backend {
	case "flat", "hnsw":
	default:
		problems = append(problems, fmt.Sprintf("index.backend must be flat or hnsw, got %q", c.Index.Backend))
	}
	switch c.Embeddings.Provider {
	case "ollama", "static":
	default:
		problems = append(problems, fmt.Sprintf("embeddings.provider must be ollama or static, got %q", c.Embeddings.Provider))
	}

	if len(problems) > 0 {
		return errors.New(errors.ErrCodeConfigInvalid, strings.Join(problems, "; "), nil)
	}
	return nil
}

// WriteYAML writes the configuration to path, creating parent directories.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.ConfigError("marshal config", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.ConfigError("create config directory", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.ConfigError("write "+path, err)
	}
	return nil
}
