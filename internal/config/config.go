// Package config resolves all runtime settings into one explicit struct.
// Nothing outside this package reads the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	LLM      LLMConfig
	Analysis AnalysisConfig
}

// AppConfig holds application-specific settings.
type AppConfig struct {
	Env      string // development or production
	Port     string
	LogLevel string
}

// DatabaseConfig holds the expense/insight database connection settings.
type DatabaseConfig struct {
	Driver string // postgres or sqlite
	DSN    string
}

// RedisConfig holds the usage-telemetry Redis settings. An empty Addr
// disables telemetry entirely.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LLMConfig holds the provider chain and per-provider credentials.
type LLMConfig struct {
	Chain      []string // ordered provider names, first is primary
	Timeout    time.Duration
	MaxRetries int

	OpenAI    OpenAIConfig
	Anthropic AnthropicConfig
	Gemini    GeminiConfig
}

// OpenAIConfig holds OpenAI chat-completions settings.
type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// AnthropicConfig holds Anthropic messages-API settings.
type AnthropicConfig struct {
	APIKey    string
	Model     string
	MaxTokens int
	BaseURL   string
}

// GeminiConfig holds Gemini settings. APIKey selects the Gemini API backend;
// when empty, Project and Location select Vertex AI.
type GeminiConfig struct {
	APIKey   string
	Project  string
	Location string
	Model    string
}

// AnalysisConfig holds the aggregate truncation limits fed to the prompt and
// the ClientName line rendered into it.
type AnalysisConfig struct {
	TopVendors    int
	TopCategories int
	ClientName    string
}

var validProviders = map[string]bool{
	"openai":    true,
	"anthropic": true,
	"gemini":    true,
}

// Load reads the environment and validates the result. Call godotenv.Load
// before this if a .env file should be honored.
func Load() (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Env:      getEnv("APP_ENV", "development"),
			Port:     getEnv("PORT", "8080"),
			LogLevel: getEnv("LOG_LEVEL", "info"),
		},
		Database: DatabaseConfig{
			Driver: strings.ToLower(getEnv("DB_DRIVER", "postgres")),
			DSN:    os.Getenv("DB_DSN"),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		LLM: LLMConfig{
			Chain:      splitChain(getEnv("LLM_PROVIDER_CHAIN", "openai,anthropic")),
			Timeout:    time.Duration(getEnvInt("LLM_TIMEOUT_SECONDS", 60)) * time.Second,
			MaxRetries: getEnvInt("LLM_MAX_RETRIES", 0),
			OpenAI: OpenAIConfig{
				APIKey:  os.Getenv("OPENAI_API_KEY"),
				Model:   getEnv("OPENAI_MODEL", "gpt-4.1-mini"),
				BaseURL: os.Getenv("OPENAI_BASE_URL"),
			},
			Anthropic: AnthropicConfig{
				APIKey:    os.Getenv("ANTHROPIC_API_KEY"),
				Model:     getEnv("ANTHROPIC_MODEL", "claude-sonnet-4-5"),
				MaxTokens: getEnvInt("ANTHROPIC_MAX_TOKENS", 5000),
				BaseURL:   os.Getenv("ANTHROPIC_BASE_URL"),
			},
			Gemini: GeminiConfig{
				APIKey:   os.Getenv("GEMINI_API_KEY"),
				Project:  os.Getenv("GOOGLE_CLOUD_PROJECT"),
				Location: os.Getenv("GOOGLE_CLOUD_LOCATION"),
				Model:    getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
			},
		},
		Analysis: AnalysisConfig{
			TopVendors:    getEnvInt("TOP_VENDORS_IN_PROMPT", 15),
			TopCategories: getEnvInt("TOP_CATEGORIES_IN_PROMPT", 10),
			ClientName:    os.Getenv("CLIENT_NAME"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Database.Driver != "postgres" && c.Database.Driver != "sqlite" {
		return fmt.Errorf("config: unsupported DB_DRIVER %q (want postgres or sqlite)", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("config: DB_DSN is required")
	}
	if len(c.LLM.Chain) == 0 {
		return fmt.Errorf("config: LLM_PROVIDER_CHAIN is empty")
	}
	for _, name := range c.LLM.Chain {
		if !validProviders[name] {
			return fmt.Errorf("config: unknown provider %q in LLM_PROVIDER_CHAIN", name)
		}
	}
	if c.LLM.Timeout <= 0 {
		return fmt.Errorf("config: LLM_TIMEOUT_SECONDS must be positive")
	}
	if c.LLM.MaxRetries < 0 {
		return fmt.Errorf("config: LLM_MAX_RETRIES must not be negative")
	}
	if c.Analysis.TopVendors <= 0 || c.Analysis.TopCategories <= 0 {
		return fmt.Errorf("config: prompt truncation limits must be positive")
	}
	return nil
}

func splitChain(raw string) []string {
	var chain []string
	for _, part := range strings.Split(raw, ",") {
		name := strings.ToLower(strings.TrimSpace(part))
		if name != "" {
			chain = append(chain, name)
		}
	}
	return chain
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
