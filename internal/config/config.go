package config

import (
	"errors"
	"os"

	"gopkg.in/yaml.v3"
)

// EmbedderConfig configures the OpenAI-compatible embeddings endpoint.
type EmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	Dimension   int    `yaml:"dimension"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// LLMConfig configures the chat-completion endpoint used for answer
// generation and follow-up rewriting.
type LLMConfig struct {
	BaseURL     string  `yaml:"base_url"`
	APIKeyEnv   string  `yaml:"api_key_env"`
	Model       string  `yaml:"model"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float32 `yaml:"temperature"`
	TimeoutSecs int     `yaml:"timeout_secs"`
}

// IndexConfig selects and configures the vector index backend.
type IndexConfig struct {
	Type       string `yaml:"type"` // "milvus" or "memory"
	MilvusAddr string `yaml:"milvus_addr"`
	Collection string `yaml:"collection"`
}

// ChunkerConfig configures document splitting.
type ChunkerConfig struct {
	MaxSize int `yaml:"max_size"`
	Overlap int `yaml:"overlap"`
}

// StoreConfig configures the structured record store and the blob store.
type StoreConfig struct {
	SQLitePath string `yaml:"sqlite_path"`
	UploadDir  string `yaml:"upload_dir"`
	PublicBase string `yaml:"public_base"`
}

// AppConfig is the root configuration structure.
type AppConfig struct {
	Embedder EmbedderConfig `yaml:"embedder"`
	LLM      LLMConfig      `yaml:"llm"`
	Index    IndexConfig    `yaml:"index"`
	Chunker  ChunkerConfig  `yaml:"chunker"`
	Store    StoreConfig    `yaml:"store"`
	SeedDir  string         `yaml:"seed_dir"`
}

// Load reads a config from path. A missing file yields the defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := defaultConfig()
			applyEnvOverrides(cfg)
			return cfg, nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)
	return &cfg, nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Embedder.BaseURL == "" {
		cfg.Embedder.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Embedder.APIKeyEnv == "" {
		cfg.Embedder.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.Embedder.Model == "" {
		cfg.Embedder.Model = "text-embedding-3-small"
	}
	if cfg.Embedder.Dimension <= 0 {
		cfg.Embedder.Dimension = 1536
	}
	if cfg.Embedder.TimeoutSecs <= 0 {
		cfg.Embedder.TimeoutSecs = 30
	}

	if cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = "https://openrouter.ai/api/v1"
	}
	if cfg.LLM.APIKeyEnv == "" {
		cfg.LLM.APIKeyEnv = "OPENROUTER_API_KEY"
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "meta-llama/llama-3-70b-instruct"
	}
	if cfg.LLM.MaxTokens <= 0 {
		cfg.LLM.MaxTokens = 512
	}
	if cfg.LLM.Temperature <= 0 {
		cfg.LLM.Temperature = 0.3
	}
	if cfg.LLM.TimeoutSecs <= 0 {
		cfg.LLM.TimeoutSecs = 60
	}

	if cfg.Index.Type == "" {
		cfg.Index.Type = "milvus"
	}
	if cfg.Index.MilvusAddr == "" {
		cfg.Index.MilvusAddr = "localhost:19530"
	}
	if cfg.Index.Collection == "" {
		cfg.Index.Collection = "course_chunks"
	}

	if cfg.Chunker.MaxSize <= 0 {
		cfg.Chunker.MaxSize = 1000
	}
	if cfg.Chunker.Overlap <= 0 {
		cfg.Chunker.Overlap = 100
	}

	if cfg.Store.SQLitePath == "" {
		cfg.Store.SQLitePath = "data/lectern.db"
	}
	if cfg.Store.UploadDir == "" {
		cfg.Store.UploadDir = "data/uploads"
	}
	if cfg.Store.PublicBase == "" {
		cfg.Store.PublicBase = "http://localhost:8080/uploads"
	}
}

// applyEnvOverrides lets deployment environments override file settings
// without editing the YAML.
func applyEnvOverrides(cfg *AppConfig) {
	if v := os.Getenv("LECTERN_MILVUS_ADDR"); v != "" {
		cfg.Index.MilvusAddr = v
	}
	if v := os.Getenv("LECTERN_INDEX_TYPE"); v != "" {
		cfg.Index.Type = v
	}
	if v := os.Getenv("LECTERN_SQLITE_PATH"); v != "" {
		cfg.Store.SQLitePath = v
	}
	if v := os.Getenv("LECTERN_EMBED_BASE_URL"); v != "" {
		cfg.Embedder.BaseURL = v
	}
	if v := os.Getenv("LECTERN_LLM_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("LECTERN_LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("LECTERN_SEED_DIR"); v != "" {
		cfg.SeedDir = v
	}
}
