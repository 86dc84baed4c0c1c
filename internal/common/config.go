package common

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server ServerConfig
	Fetch  FetchConfig
	PDF    PDFConfig
	LLM    LLMConfig
	Engine EngineConfig
	Store  StoreConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Addr            string
	AllowAllOrigins bool
}

// FetchConfig holds document download configuration
type FetchConfig struct {
	Timeout       time.Duration
	MaxDocumentMB int
}

// PDFConfig holds page rasterization configuration
type PDFConfig struct {
	Converter string // external pdftoppm-compatible binary
	DPI       int
}

// LLMConfig holds vision-model configuration
type LLMConfig struct {
	APIKey          string
	BaseURL         string
	Model           string
	Temperature     float32
	MaxTokens       int
	Timeout         time.Duration
	PageDelay       time.Duration
	UseAzure        bool
	AzureEndpoint   string
	AzureAPIVersion string
	AzureDeployment string
}

// EngineConfig holds reconciliation-engine tunables
type EngineConfig struct {
	SimilarityThreshold float64
	SummaryKeywords     []string // locale-specific additions to the built-in list
}

// StoreConfig holds audit-store configuration
type StoreConfig struct {
	Path string // empty disables the audit store
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            getEnv("HTTP_ADDR", ":8000"),
			AllowAllOrigins: getEnvAsBool("CORS_ALLOW_ALL", true),
		},
		Fetch: FetchConfig{
			Timeout:       getEnvAsDuration("FETCH_TIMEOUT", 30*time.Second),
			MaxDocumentMB: getEnvAsInt("MAX_DOCUMENT_MB", 25),
		},
		PDF: PDFConfig{
			Converter: getEnv("PDF_CONVERTER", "pdftoppm"),
			DPI:       getEnvAsInt("PDF_DPI", 144),
		},
		LLM: LLMConfig{
			APIKey:          getEnv("OPENAI_API_KEY", ""),
			BaseURL:         getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			Model:           getEnv("OPENAI_MODEL", "gpt-4o"),
			Temperature:     getEnvAsFloat32("OPENAI_TEMPERATURE", 0.1),
			MaxTokens:       getEnvAsInt("OPENAI_MAX_TOKENS", 4000),
			Timeout:         getEnvAsDuration("OPENAI_TIMEOUT", 90*time.Second),
			PageDelay:       getEnvAsDuration("PAGE_PROCESSING_DELAY", 2*time.Second),
			UseAzure:        getEnvAsBool("USE_AZURE_OPENAI", false),
			AzureEndpoint:   getEnv("AZURE_OPENAI_ENDPOINT", ""),
			AzureAPIVersion: getEnv("AZURE_OPENAI_API_VERSION", "2024-02-15-preview"),
			AzureDeployment: getEnv("AZURE_OPENAI_DEPLOYMENT_NAME", ""),
		},
		Engine: EngineConfig{
			SimilarityThreshold: getEnvAsFloat64("SIMILARITY_THRESHOLD", 0.8),
			SummaryKeywords:     getEnvAsCSV("SUMMARY_KEYWORDS", nil),
		},
		Store: StoreConfig{
			Path: getEnv("AUDIT_DB_PATH", "./data/extractions.db"),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsCSV(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

// ValidateConfig validates the loaded configuration
func (c *Config) Validate() error {
	if c.LLM.APIKey == "" {
		return NewAppError("CONFIG_ERROR", "OPENAI_API_KEY is required", ErrInvalidInput)
	}
	if c.LLM.UseAzure {
		if c.LLM.AzureEndpoint == "" {
			return NewAppError("CONFIG_ERROR", "AZURE_OPENAI_ENDPOINT is required when USE_AZURE_OPENAI is set", ErrInvalidInput)
		}
		if c.LLM.AzureDeployment == "" {
			return NewAppError("CONFIG_ERROR", "AZURE_OPENAI_DEPLOYMENT_NAME is required when USE_AZURE_OPENAI is set", ErrInvalidInput)
		}
	}
	if c.Server.Addr == "" {
		return NewAppError("CONFIG_ERROR", "HTTP_ADDR is required", ErrInvalidInput)
	}
	if c.Engine.SimilarityThreshold <= 0 || c.Engine.SimilarityThreshold > 1 {
		return NewAppError("CONFIG_ERROR", "SIMILARITY_THRESHOLD must be in (0,1]", ErrInvalidInput)
	}
	return nil
}
