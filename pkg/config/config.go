package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	LLM     LLMConfig     `yaml:"llm"`
	Store   StoreConfig   `yaml:"store"`
	Chunker ChunkerConfig `yaml:"chunker"`
	YouTube YouTubeConfig `yaml:"youtube"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type LLMConfig struct {
	Provider       string  `yaml:"provider"` // "openai" or "azure"
	APIKey         string  `yaml:"api_key"`
	Endpoint       string  `yaml:"endpoint"`
	Model          string  `yaml:"model"`
	EmbeddingModel string  `yaml:"embedding_model"`
	APIVersion     string  `yaml:"api_version"`
	MaxTokens      int     `yaml:"max_tokens"`
	Temperature    float64 `yaml:"temperature"`
}

type StoreConfig struct {
	Provider string         `yaml:"provider"` // "qdrant", "pgvector" or "memory"
	Qdrant   QdrantConfig   `yaml:"qdrant"`
	Database DatabaseConfig `yaml:"database"`
}

type QdrantConfig struct {
	URL        string `yaml:"url"`
	APIKey     string `yaml:"api_key"`
	Collection string `yaml:"collection"`
	VectorSize int    `yaml:"vector_size"`
}

type DatabaseConfig struct {
	URL       string `yaml:"url"`
	TableName string `yaml:"table_name"`
}

type ChunkerConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
}

type YouTubeConfig struct {
	RateLimit      float64  `yaml:"rate_limit"`
	TimeoutSeconds int      `yaml:"timeout_seconds"`
	Languages      []string `yaml:"languages"`
}

func LoadConfig(path string) (*Config, error) {
	// If no path provided, try default locations
	if path == "" {
		locations := []string{
			"config.yaml",
			"config.yml",
			filepath.Join(os.Getenv("HOME"), ".config/mediarag/config.yaml"),
			"/etc/mediarag/config.yaml",
		}

		for _, loc := range locations {
			if _, err := os.Stat(loc); err == nil {
				path = loc
				break
			}
		}
	}

	if path == "" {
		return getDefaultConfig()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %v", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %v", err)
	}

	// Merge with environment variables
	mergeWithEnv(&config)

	// Apply defaults for unset values
	applyDefaults(&config)

	return &config, nil
}

func getDefaultConfig() (*Config, error) {
	config := &Config{}
	mergeWithEnv(config)
	applyDefaults(config)
	return config, nil
}

func applyDefaults(config *Config) {
	if config.Server.Port == 0 {
		config.Server.Port = 8000
	}

	if config.LLM.Provider == "" {
		config.LLM.Provider = "openai"
	}
	if config.LLM.Model == "" {
		config.LLM.Model = "gpt-4o-mini"
	}
	if config.LLM.EmbeddingModel == "" {
		config.LLM.EmbeddingModel = "text-embedding-3-small"
	}
	if config.LLM.MaxTokens == 0 {
		config.LLM.MaxTokens = 1000
	}
	if config.LLM.Temperature == 0 {
		config.LLM.Temperature = 0.7
	}

	if config.Store.Provider == "" {
		config.Store.Provider = "qdrant"
	}
	if config.Store.Qdrant.URL == "" {
		config.Store.Qdrant.URL = "http://localhost:6334"
	}
	if config.Store.Qdrant.Collection == "" {
		config.Store.Qdrant.Collection = "media_chunks"
	}
	if config.Store.Qdrant.VectorSize == 0 {
		config.Store.Qdrant.VectorSize = 1536
	}
	if config.Store.Database.TableName == "" {
		config.Store.Database.TableName = "media_chunks"
	}

	if config.Chunker.ChunkSize == 0 {
		config.Chunker.ChunkSize = 500
	}
	if config.Chunker.ChunkOverlap == 0 {
		config.Chunker.ChunkOverlap = 50
	}

	if config.YouTube.RateLimit == 0 {
		config.YouTube.RateLimit = 2.0
	}
	if config.YouTube.TimeoutSeconds == 0 {
		config.YouTube.TimeoutSeconds = 30
	}
	if len(config.YouTube.Languages) == 0 {
		config.YouTube.Languages = []string{"en", "en-US", "en-GB"}
	}
}

func mergeWithEnv(config *Config) {
	if port := os.Getenv("PORT"); port != "" {
		if n, err := strconv.Atoi(port); err == nil {
			config.Server.Port = n
		}
	}

	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		config.LLM.APIKey = key
	}

	// Azure variables take precedence and switch the provider.
	if key := os.Getenv("AZURE_OPENAI_API_KEY"); key != "" {
		config.LLM.Provider = "azure"
		config.LLM.APIKey = key
	}
	if endpoint := os.Getenv("AZURE_OPENAI_ENDPOINT"); endpoint != "" {
		config.LLM.Endpoint = endpoint
	}
	if deployment := os.Getenv("AZURE_OPENAI_DEPLOYMENT_NAME"); deployment != "" {
		config.LLM.Model = deployment
	}
	if version := os.Getenv("AZURE_OPENAI_API_VERSION"); version != "" {
		config.LLM.APIVersion = version
	}

	if qdrantURL := os.Getenv("QDRANT_URL"); qdrantURL != "" {
		config.Store.Qdrant.URL = qdrantURL
	}
	if qdrantKey := os.Getenv("QDRANT_API_KEY"); qdrantKey != "" {
		config.Store.Qdrant.APIKey = qdrantKey
	}
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		config.Store.Database.URL = dbURL
	}
}
