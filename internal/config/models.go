package config

import (
	"fmt"
	"time"
)

// MLConfig represents the configuration of the remote classifier
type MLConfig struct {
	Provider string
	Endpoint string
	Timeout  time.Duration
}

// AssessmentConfig represents the configuration of the assessment service
type AssessmentConfig struct {
	EmailMode      string
	DedupeInFlight bool
}

// CacheConfig represents the configuration of the result cache
type CacheConfig struct {
	Enabled    bool
	Type       string
	TTL        time.Duration
	SQLitePath string
	MySQLDSN   string
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	Region      string
	ModelID     string
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// GeminiConfig represents the configuration for Google Gemini
type GeminiConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// OpenAIConfig represents the configuration for OpenAI
type OpenAIConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// GetML returns the remote classifier configuration
func (c *Config) GetML() (MLConfig, error) {
	timeout, err := c.GetDuration("ml.timeout")
	if err != nil {
		return MLConfig{}, err
	}
	if timeout <= 0 {
		return MLConfig{}, fmt.Errorf("ml.timeout must be positive, got %s", timeout)
	}
	return MLConfig{
		Provider: c.GetString("ml.provider"),
		Endpoint: c.GetString("ml.endpoint"),
		Timeout:  timeout,
	}, nil
}

// GetAssessment returns the assessment service configuration
func (c *Config) GetAssessment() (AssessmentConfig, error) {
	mode := c.GetString("assessment.email_mode")
	switch mode {
	case "fused", "ml_only":
	default:
		return AssessmentConfig{}, fmt.Errorf("unsupported assessment.email_mode: %s", mode)
	}
	return AssessmentConfig{
		EmailMode:      mode,
		DedupeInFlight: c.GetBool("assessment.dedupe_inflight"),
	}, nil
}

// GetCache returns the cache configuration
func (c *Config) GetCache() (CacheConfig, error) {
	ttl, err := c.GetDuration("cache.ttl")
	if err != nil {
		return CacheConfig{}, err
	}
	return CacheConfig{
		Enabled:    c.GetBool("cache.enabled"),
		Type:       c.GetString("cache.type"),
		TTL:        ttl,
		SQLitePath: c.GetString("cache.sqlite_path"),
		MySQLDSN:   c.GetString("cache.mysql_dsn"),
	}, nil
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		Region:      c.GetString("bedrock.region"),
		ModelID:     c.GetString("bedrock.model_id"),
		MaxTokens:   c.GetInt("bedrock.max_tokens"),
		Temperature: float32(c.GetFloat64("bedrock.temperature")),
		TopP:        float32(c.GetFloat64("bedrock.top_p")),
	}
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() GeminiConfig {
	return GeminiConfig{
		APIKey:      c.GetString("gemini.api_key"),
		ModelName:   c.GetString("gemini.model_name"),
		MaxTokens:   c.GetInt("gemini.max_tokens"),
		Temperature: float32(c.GetFloat64("gemini.temperature")),
		TopP:        float32(c.GetFloat64("gemini.top_p")),
	}
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		APIKey:      c.GetString("openai.api_key"),
		ModelName:   c.GetString("openai.model_name"),
		MaxTokens:   c.GetInt("openai.max_tokens"),
		Temperature: float32(c.GetFloat64("openai.temperature")),
		TopP:        float32(c.GetFloat64("openai.top_p")),
	}
}
