// Package config loads runtime settings from .env, an optional YAML file,
// and environment variables, in that order of precedence (last wins).
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config aggregates runtime configuration used across the service.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	LLM       LLMConfig       `yaml:"llm"`
	Upstreams UpstreamsConfig `yaml:"upstreams"`
	Cache     CacheConfig     `yaml:"cache"`
	LogLevel  string          `yaml:"logLevel"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Port          string        `yaml:"port"`
	AllowedOrigin string        `yaml:"allowedOrigin"`
	ReadTimeout   time.Duration `yaml:"readTimeout"`
	WriteTimeout  time.Duration `yaml:"writeTimeout"`
	IdleTimeout   time.Duration `yaml:"idleTimeout"`
}

// LLMConfig selects and configures the generative model provider.
type LLMConfig struct {
	Provider      string `yaml:"provider"`
	GeminiAPIKey  string `yaml:"geminiApiKey"`
	GeminiModel   string `yaml:"geminiModel"`
	OpenAIAPIKey  string `yaml:"openaiApiKey"`
	OpenAIModel   string `yaml:"openaiModel"`
	OpenAIBaseURL string `yaml:"openaiBaseUrl"`
}

// UpstreamsConfig holds keys and optional base URL overrides for the REST
// collaborators. Empty URLs select each client's public default.
type UpstreamsConfig struct {
	OpenWeatherAPIKey string `yaml:"openWeatherApiKey"`
	WeatherURL        string `yaml:"weatherUrl"`
	GeocodeURL        string `yaml:"geocodeUrl"`
	CountriesURL      string `yaml:"countriesUrl"`
	ExchangeURL       string `yaml:"exchangeUrl"`
}

// CacheConfig selects the result cache backend. Redis is used when RedisURL
// is set, otherwise an in-memory store bounded by MaxEntries.
type CacheConfig struct {
	RedisURL   string        `yaml:"redisUrl"`
	TTL        time.Duration `yaml:"ttl"`
	MaxEntries int           `yaml:"maxEntries"`
}

// Load reads configuration from .env, a YAML file, and environment variables.
func Load() (*Config, error) {
	// .env is optional.
	_ = godotenv.Load()

	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) error {
	strs := map[string]*string{
		"PORT":                &cfg.HTTP.Port,
		"ALLOWED_ORIGIN":      &cfg.HTTP.AllowedOrigin,
		"LLM_PROVIDER":        &cfg.LLM.Provider,
		"GEMINI_API_KEY":      &cfg.LLM.GeminiAPIKey,
		"GEMINI_MODEL":        &cfg.LLM.GeminiModel,
		"OPENAI_API_KEY":      &cfg.LLM.OpenAIAPIKey,
		"OPENAI_MODEL":        &cfg.LLM.OpenAIModel,
		"OPENAI_BASE_URL":     &cfg.LLM.OpenAIBaseURL,
		"OPENWEATHER_API_KEY": &cfg.Upstreams.OpenWeatherAPIKey,
		"WEATHER_URL":         &cfg.Upstreams.WeatherURL,
		"GEOCODE_URL":         &cfg.Upstreams.GeocodeURL,
		"COUNTRIES_URL":       &cfg.Upstreams.CountriesURL,
		"EXCHANGE_URL":        &cfg.Upstreams.ExchangeURL,
		"REDIS_URL":           &cfg.Cache.RedisURL,
		"LOG_LEVEL":           &cfg.LogLevel,
	}
	for key, dst := range strs {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}

	if v := os.Getenv("CACHE_TTL"); v != "" {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("CACHE_TTL: %w", err)
		}
		cfg.Cache.TTL = parsed
	}
	if v := os.Getenv("CACHE_MAX_ENTRIES"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CACHE_MAX_ENTRIES: %w", err)
		}
		cfg.Cache.MaxEntries = parsed
	}
	return nil
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Port:          "3000",
			AllowedOrigin: "*",
			ReadTimeout:   15 * time.Second,
			WriteTimeout:  3 * time.Minute,
			IdleTimeout:   60 * time.Second,
		},
		LLM: LLMConfig{
			Provider:    "gemini",
			GeminiModel: "gemini-1.5-flash",
			OpenAIModel: "gpt-4o-mini",
		},
		Cache: CacheConfig{
			TTL:        time.Hour,
			MaxEntries: 1000,
		},
		LogLevel: "info",
	}
}

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.HTTP.Port) == "" {
		return errors.New("http.port cannot be empty")
	}
	if _, err := strconv.Atoi(c.HTTP.Port); err != nil {
		return fmt.Errorf("http.port must be numeric: %q", c.HTTP.Port)
	}

	switch strings.ToLower(c.LLM.Provider) {
	case "gemini":
		if c.LLM.GeminiAPIKey == "" {
			return errors.New("llm.geminiApiKey is required when provider is gemini")
		}
	case "openai":
		if c.LLM.OpenAIAPIKey == "" {
			return errors.New("llm.openaiApiKey is required when provider is openai")
		}
	default:
		return fmt.Errorf("llm.provider must be gemini or openai, got %q", c.LLM.Provider)
	}

	if c.Upstreams.OpenWeatherAPIKey == "" {
		return errors.New("upstreams.openWeatherApiKey cannot be empty")
	}
	if c.Cache.TTL <= 0 {
		return errors.New("cache.ttl must be positive")
	}
	if c.Cache.MaxEntries <= 0 {
		return errors.New("cache.maxEntries must be positive")
	}
	return nil
}

// APIKey returns the key for the selected provider.
func (c LLMConfig) APIKey() string {
	if strings.EqualFold(c.Provider, "openai") {
		return c.OpenAIAPIKey
	}
	return c.GeminiAPIKey
}

// Model returns the model name for the selected provider.
func (c LLMConfig) Model() string {
	if strings.EqualFold(c.Provider, "openai") {
		return c.OpenAIModel
	}
	return c.GeminiModel
}
