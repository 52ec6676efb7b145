package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds application configuration
type Config struct {
	Ollama struct {
		BaseURL      string `yaml:"base_url"`
		DefaultModel string `yaml:"default_model"`
	} `yaml:"ollama"`
	Embeddings struct {
		TextModel string `yaml:"text_model"`
	} `yaml:"embeddings"`
	KnowledgeBase struct {
		DocumentsDir string `yaml:"documents_dir"`
		IndexPath    string `yaml:"index_path"`
		MetadataPath string `yaml:"metadata_path"`
		ChunkSize    int    `yaml:"chunk_size"`
		ChunkOverlap int    `yaml:"chunk_overlap"`
		TopK         int    `yaml:"top_k"`
	} `yaml:"knowledge_base"`
	Search struct {
		Enabled     bool   `yaml:"enabled"`
		MaxResults  int    `yaml:"max_results"`
		TimeoutSecs int    `yaml:"timeout_secs"`
		UserAgent   string `yaml:"user_agent"`
		Debug       bool   `yaml:"debug"`
	} `yaml:"search"`
	Generation struct {
		Temperature float64 `yaml:"temperature"`
		NumPredict  int     `yaml:"num_predict"`
	} `yaml:"generation"`
	Paths struct {
		SessionsDir string `yaml:"sessions_dir"`
		LogFile     string `yaml:"log_file"`
	} `yaml:"paths"`
}

// Load loads configuration from file or returns defaults
func Load() (*Config, error) {
	cfg := Default()

	configPath := filepath.Join(os.Getenv("HOME"), ".ollamaface", "config.yaml")
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Save saves configuration to file
func (c *Config) Save() error {
	configDir := filepath.Join(os.Getenv("HOME"), ".ollamaface")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	configPath := filepath.Join(configDir, "config.yaml")
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	return os.WriteFile(configPath, data, 0644)
}

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	kb := c.KnowledgeBase
	if kb.ChunkSize <= 0 {
		return fmt.Errorf("knowledge_base.chunk_size must be greater than zero")
	}
	if kb.ChunkOverlap < 0 || kb.ChunkOverlap >= kb.ChunkSize {
		return fmt.Errorf("knowledge_base.chunk_overlap must be between 0 and chunk_size-1")
	}
	if kb.TopK <= 0 {
		return fmt.Errorf("knowledge_base.top_k must be greater than zero")
	}
	if c.Search.MaxResults <= 0 {
		return fmt.Errorf("search.max_results must be greater than zero")
	}
	return nil
}

// Default returns default configuration
func Default() *Config {
	cfg := &Config{}

	cfg.Ollama.BaseURL = "http://localhost:11434"
	cfg.Ollama.DefaultModel = ""
	cfg.Embeddings.TextModel = "nomic-embed-text"

	homeDir := os.Getenv("HOME")
	appDir := filepath.Join(homeDir, ".ollamaface")
	cfg.KnowledgeBase.DocumentsDir = filepath.Join(appDir, "local_kb")
	cfg.KnowledgeBase.IndexPath = filepath.Join(appDir, "kb_index.bin")
	cfg.KnowledgeBase.MetadataPath = filepath.Join(appDir, "kb_documents.json")
	cfg.KnowledgeBase.ChunkSize = 100
	cfg.KnowledgeBase.ChunkOverlap = 20
	cfg.KnowledgeBase.TopK = 3

	cfg.Search.Enabled = true
	cfg.Search.MaxResults = 3
	cfg.Search.TimeoutSecs = 10
	cfg.Search.Debug = false

	cfg.Generation.Temperature = 0.7
	cfg.Generation.NumPredict = 2048

	cfg.Paths.SessionsDir = filepath.Join(appDir, "sessions")
	cfg.Paths.LogFile = filepath.Join(appDir, "ollamaface.log")

	return cfg
}
