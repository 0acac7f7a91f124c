package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"policy-rag/internal/models"
)

const (
	VectorStoreChromem  = "chromem"
	VectorStorePgvector = "pgvector"

	UploadBackendLocal = "local"
	UploadBackendMinio = "minio"
)

type Config struct {
	RAG          RAGConfig         `yaml:"rag"`
	EmbedLLM     LLMConfig         `yaml:"embed_llm"`
	InferenceLLM LLMConfig         `yaml:"inference_llm"`
	VectorStore  VectorStoreConfig `yaml:"vector_store"`
	Chromem      ChromemConfig     `yaml:"chromem"`
	Database     DatabaseConfig    `yaml:"database"`
	Upload       UploadConfig      `yaml:"upload"`
	Minio        MinioConfig       `yaml:"minio"`
	Server       ServerConfig      `yaml:"server"`
	Log          LogConfig         `yaml:"log"`
}

// RAGConfig holds the knobs consumed by the retrieval-and-answer pipeline.
// Zero values are replaced by the defaults in models.
type RAGConfig struct {
	ChunkSize          int     `yaml:"chunk_size"`
	ChunkOverlap       int     `yaml:"chunk_overlap"`
	Tokenizer          string  `yaml:"tokenizer"`
	RelevanceThreshold float64 `yaml:"relevance_threshold"`
	TopK               int     `yaml:"top_k"`
	MaxCitations       int     `yaml:"max_citations"`
	CitationLength     int     `yaml:"citation_length"`
	PreviewLength      int     `yaml:"preview_length"`
	MaxTokens          int     `yaml:"max_tokens"`
	Temperature        float64 `yaml:"temperature"`
}

type LLMConfig struct {
	Provider  string `yaml:"provider"`
	BaseURL   string `yaml:"base_url"`
	Key       string `yaml:"key"`
	Model     string `yaml:"model"`
	BatchSize int    `yaml:"batch_size"`
}

type VectorStoreConfig struct {
	Type string `yaml:"type"`
}

type ChromemConfig struct {
	Path          string `yaml:"path"`
	Collection    string `yaml:"collection"`
	InMemory      bool   `yaml:"in_memory"`
	Compress      bool   `yaml:"compress"`
	EncryptionKey string `yaml:"encryption_key"`
}

type DatabaseConfig struct {
	Driver     string `yaml:"driver"`
	DSN        string `yaml:"dsn"`
	Password   string `yaml:"password"`
	Dimensions int    `yaml:"dimensions"`
	Debug      bool   `yaml:"debug"`
}

type UploadConfig struct {
	Backend           string   `yaml:"backend"`
	Directory         string   `yaml:"directory"`
	MaxFileSizeMB     int      `yaml:"max_file_size_mb"`
	AllowedExtensions []string `yaml:"allowed_extensions"`
}

type MinioConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	Secure    bool   `yaml:"secure"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// LoadConfig reads the yaml file at path, falling back to defaults when the
// file does not exist. Secrets are taken from the environment (and .env) when
// the file leaves them empty.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	cfg.ApplyDefaults()
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a config with every default filled in
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills every zero-valued RAG knob with its default
func (r *RAGConfig) ApplyDefaults() {
	if r.ChunkSize == 0 {
		r.ChunkSize = models.DefaultChunkSize
	}
	if r.ChunkOverlap == 0 {
		r.ChunkOverlap = models.DefaultChunkOverlap
	}
	if r.Tokenizer == "" {
		r.Tokenizer = "cl100k_base"
	}
	if r.RelevanceThreshold == 0 {
		r.RelevanceThreshold = models.DefaultRelevanceThreshold
	}
	if r.TopK == 0 {
		r.TopK = models.DefaultTopK
	}
	if r.MaxCitations == 0 {
		r.MaxCitations = models.DefaultMaxCitations
	}
	if r.CitationLength == 0 {
		r.CitationLength = models.DefaultCitationLength
	}
	if r.PreviewLength == 0 {
		r.PreviewLength = models.DefaultPreviewLength
	}
	if r.MaxTokens == 0 {
		r.MaxTokens = models.DefaultMaxTokens
	}
	if r.Temperature == 0 {
		r.Temperature = models.DefaultTemperature
	}
}

func (c *Config) ApplyDefaults() {
	c.RAG.ApplyDefaults()

	if c.EmbedLLM.Provider == "" {
		c.EmbedLLM.Provider = "ollama"
	}
	if c.EmbedLLM.Model == "" {
		c.EmbedLLM.Model = "nomic-embed-text"
	}
	if c.EmbedLLM.BatchSize == 0 {
		c.EmbedLLM.BatchSize = 64
	}
	if c.InferenceLLM.Provider == "" {
		c.InferenceLLM.Provider = "openai"
	}
	if c.InferenceLLM.Model == "" {
		c.InferenceLLM.Model = "gpt-4o-mini"
	}

	if c.VectorStore.Type == "" {
		c.VectorStore.Type = VectorStoreChromem
	}
	if c.Chromem.Path == "" {
		c.Chromem.Path = "./chromemdb"
	}
	if c.Chromem.Collection == "" {
		c.Chromem.Collection = "insurance_documents"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "pgdriver"
	}
	if c.Database.Dimensions == 0 {
		c.Database.Dimensions = 768
	}

	if c.Upload.Backend == "" {
		c.Upload.Backend = UploadBackendLocal
	}
	if c.Upload.Directory == "" {
		c.Upload.Directory = "./uploads"
	}
	if c.Upload.MaxFileSizeMB == 0 {
		c.Upload.MaxFileSizeMB = 50
	}
	if len(c.Upload.AllowedExtensions) == 0 {
		c.Upload.AllowedExtensions = []string{"pdf"}
	}
	if c.Minio.Bucket == "" {
		c.Minio.Bucket = "uploads"
	}

	if c.Server.Addr == "" {
		c.Server.Addr = ":8000"
	}
	if c.Log.Level == "" {
		c.Log.Level = "debug"
	}
}

func (c *Config) applyEnv() {
	setFromEnv(&c.EmbedLLM.Key, apiKeyEnv(c.EmbedLLM.Provider))
	setFromEnv(&c.InferenceLLM.Key, apiKeyEnv(c.InferenceLLM.Provider))
	setFromEnv(&c.Database.DSN, "DATABASE_URL")
	setFromEnv(&c.Database.Password, "DATABASE_PASSWORD")
	setFromEnv(&c.Minio.AccessKey, "MINIO_ACCESS_KEY")
	setFromEnv(&c.Minio.SecretKey, "MINIO_SECRET_KEY")
	setFromEnv(&c.Chromem.EncryptionKey, "CHROMEM_ENCRYPTION_KEY")
	if v := os.Getenv("UPLOAD_DIRECTORY"); v != "" {
		c.Upload.Directory = v
	}
	if v := os.Getenv("ALLOWED_EXTENSIONS"); v != "" {
		c.Upload.AllowedExtensions = strings.Split(v, ",")
	}
}

func apiKeyEnv(provider string) string {
	switch provider {
	case "openai":
		return "OPENAI_API_KEY"
	default:
		return ""
	}
}

func setFromEnv(dst *string, name string) {
	if *dst != "" || name == "" {
		return
	}
	*dst = os.Getenv(name)
}

// Validate rejects configurations the pipeline cannot run with
func (c *Config) Validate() error {
	r := c.RAG
	if r.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk_size must be > 0, got %d", models.ErrConfigurationInvalid, r.ChunkSize)
	}
	if r.ChunkOverlap < 0 || r.ChunkOverlap >= r.ChunkSize {
		return fmt.Errorf("%w: chunk_overlap must be >= 0 and < chunk_size (%d), got %d",
			models.ErrConfigurationInvalid, r.ChunkSize, r.ChunkOverlap)
	}
	if r.RelevanceThreshold < 0 || r.RelevanceThreshold > 1 {
		return fmt.Errorf("%w: relevance_threshold must be within [0,1], got %v", models.ErrConfigurationInvalid, r.RelevanceThreshold)
	}
	if r.TopK < 0 || r.MaxCitations < 0 {
		return fmt.Errorf("%w: top_k and max_citations must not be negative", models.ErrConfigurationInvalid)
	}

	switch c.VectorStore.Type {
	case VectorStoreChromem:
		if k := c.Chromem.EncryptionKey; k != "" && len(k) != 32 {
			return fmt.Errorf("%w: chromem encryption_key must be 32 bytes", models.ErrConfigurationInvalid)
		}
	case VectorStorePgvector:
		if c.Database.DSN == "" {
			return fmt.Errorf("%w: database.dsn is required for the pgvector store", models.ErrConfigurationInvalid)
		}
	default:
		return fmt.Errorf("%w: unknown vector_store type %q", models.ErrConfigurationInvalid, c.VectorStore.Type)
	}

	switch c.Upload.Backend {
	case UploadBackendLocal:
	case UploadBackendMinio:
		if c.Minio.Endpoint == "" {
			return fmt.Errorf("%w: minio.endpoint is required for the minio upload backend", models.ErrConfigurationInvalid)
		}
	default:
		return fmt.Errorf("%w: unknown upload backend %q", models.ErrConfigurationInvalid, c.Upload.Backend)
	}
	return nil
}
