// Package config provides configuration for the concierge backend.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the server configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	LLM      LLMConfig      `yaml:"llm"`
	Auth     AuthConfig     `yaml:"auth"`
	Chat     ChatConfig     `yaml:"chat"`
	Policy   PolicyConfig   `yaml:"policy"`
	Listings ListingsConfig `yaml:"listings"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port           int      `yaml:"port"`
	CORSOrigins    []string `yaml:"cors_origins"`
	SSEKeepAliveMs int      `yaml:"sse_keepalive_ms"`
}

// DatabaseConfig holds the record store location.
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// LLMConfig holds the chat completion provider settings.
type LLMConfig struct {
	Mode          string `yaml:"mode"`
	BaseURL       string `yaml:"base_url"`
	APIKey        string `yaml:"api_key"`
	Model         string `yaml:"model"`
	MaxTokens     int    `yaml:"max_tokens"`
	TimeoutMs     int    `yaml:"timeout_ms"`
	MaxToolRounds int    `yaml:"max_tool_rounds"`
}

// AuthConfig holds admin authentication settings.
type AuthConfig struct {
	AdminJWTSecret string `yaml:"admin_jwt_secret"`
}

// ChatConfig holds chat endpoint throttling.
type ChatConfig struct {
	RateLimit    int `yaml:"rate_limit"`
	RateWindowMs int `yaml:"rate_window_ms"`
}

// PolicyConfig holds tool policy settings.
type PolicyConfig struct {
	StrictDisclosure bool `yaml:"strict_disclosure"`
}

// ListingsConfig points at an optional listing catalog file.
type ListingsConfig struct {
	File string `yaml:"file"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           4000,
			CORSOrigins:    []string{"http://localhost:3000", "http://localhost:8081", "http://localhost:19006"},
			SSEKeepAliveMs: 15000,
		},
		Database: DatabaseConfig{URL: "file:ava.db?cache=shared&mode=rwc"},
		LLM: LLMConfig{
			BaseURL:       "https://api.openai.com",
			Model:         "gpt-4o-mini",
			MaxTokens:     2048,
			TimeoutMs:     120000,
			MaxToolRounds: 10,
		},
		Chat:    ChatConfig{RateLimit: 20, RateWindowMs: 60000},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

// Load builds the configuration from defaults, then the YAML file named by
// CONFIG_FILE (if any), then environment variables.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal([]byte(expandEnvVars(string(data))), c); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Server.Port = getEnvInt("HTTP_PORT", c.Server.Port)
	c.Server.CORSOrigins = getEnvList("CORS_ORIGINS", c.Server.CORSOrigins)
	c.Server.SSEKeepAliveMs = getEnvInt("SSE_KEEPALIVE_MS", c.Server.SSEKeepAliveMs)
	c.Database.URL = getEnv("DATABASE_URL", c.Database.URL)
	c.LLM.Mode = getEnv("LLM_MODE", c.LLM.Mode)
	c.LLM.BaseURL = getEnv("OPENAI_BASE_URL", c.LLM.BaseURL)
	c.LLM.APIKey = getEnv("OPENAI_API_KEY", c.LLM.APIKey)
	c.LLM.Model = getEnv("OPENAI_CHAT_MODEL", c.LLM.Model)
	c.LLM.MaxTokens = getEnvInt("OPENAI_MAX_TOKENS", c.LLM.MaxTokens)
	c.LLM.TimeoutMs = getEnvInt("LLM_TIMEOUT_MS", c.LLM.TimeoutMs)
	c.LLM.MaxToolRounds = getEnvInt("MAX_TOOL_ROUNDS", c.LLM.MaxToolRounds)
	c.Auth.AdminJWTSecret = getEnv("ADMIN_JWT_SECRET", c.Auth.AdminJWTSecret)
	c.Chat.RateLimit = getEnvInt("CHAT_RATE_LIMIT", c.Chat.RateLimit)
	c.Chat.RateWindowMs = getEnvInt("CHAT_RATE_WINDOW_MS", c.Chat.RateWindowMs)
	c.Policy.StrictDisclosure = getEnvBool("STRICT_DISCLOSURE", c.Policy.StrictDisclosure)
	c.Listings.File = getEnv("LISTINGS_FILE", c.Listings.File)
	c.Logging.Level = getEnv("LOG_LEVEL", c.Logging.Level)
	c.Logging.Format = getEnv("LOG_FORMAT", c.Logging.Format)
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Database.URL == "" {
		return fmt.Errorf("database.url is required")
	}
	if c.LLM.MaxToolRounds < 1 {
		return fmt.Errorf("llm.max_tool_rounds must be at least 1")
	}
	if c.LLM.MaxTokens < 1 {
		return fmt.Errorf("llm.max_tokens must be at least 1")
	}
	if c.Chat.RateLimit < 1 || c.Chat.RateWindowMs < 1 {
		return fmt.Errorf("chat.rate_limit and chat.rate_window_ms must be positive")
	}
	return nil
}

// LLMTimeout returns the provider HTTP timeout.
func (c *Config) LLMTimeout() time.Duration {
	return time.Duration(c.LLM.TimeoutMs) * time.Millisecond
}

// RateWindow returns the chat throttling window.
func (c *Config) RateWindow() time.Duration {
	return time.Duration(c.Chat.RateWindowMs) * time.Millisecond
}

// SSEKeepAlive returns the interval between SSE keep-alive comments.
func (c *Config) SSEKeepAlive() time.Duration {
	return time.Duration(c.Server.SSEKeepAliveMs) * time.Millisecond
}

// expandEnvVars replaces ${VAR_NAME} with the value of the environment variable.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	return re.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(re.FindStringSubmatch(match)[1])
	})
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func getEnvList(key string, defaultVal []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
