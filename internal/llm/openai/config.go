package openai

import (
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"
)

// Config for the vision extraction client.
type Config struct {
	APIKey      string        // if empty, falls back to env OPENAI_API_KEY
	BaseURL     string        // default https://api.openai.com/v1
	Model       string        // e.g. "gpt-4o"
	Temperature float32       // 0..2
	MaxTokens   int           // per-page completion budget
	Timeout     time.Duration // http client timeout
	PageDelay   time.Duration // pause between page calls (rate limiting)

	// Azure OpenAI: when UseAzure is set, requests go to
	// {AzureEndpoint}/openai/deployments/{AzureDeployment}/chat/completions.
	UseAzure        bool
	AzureEndpoint   string
	AzureAPIVersion string
	AzureDeployment string
}

type Client struct {
	cfg  Config
	http *http.Client
	log  *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o"
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = 0.1
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 4000
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 90 * time.Second
	}
	if cfg.AzureAPIVersion == "" {
		cfg.AzureAPIVersion = "2024-02-15-preview"
	}
	cfg.AzureEndpoint = strings.TrimRight(cfg.AzureEndpoint, "/")
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		log:  logger,
	}
}
