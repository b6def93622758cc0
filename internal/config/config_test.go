package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"CONFIG_PATH", "PORT", "ALLOWED_ORIGIN", "LLM_PROVIDER",
	"GEMINI_API_KEY", "GEMINI_MODEL", "OPENAI_API_KEY", "OPENAI_MODEL", "OPENAI_BASE_URL",
	"OPENWEATHER_API_KEY", "WEATHER_URL", "GEOCODE_URL", "COUNTRIES_URL", "EXCHANGE_URL",
	"REDIS_URL", "CACHE_TTL", "CACHE_MAX_ENTRIES", "LOG_LEVEL",
}

// clearEnv blanks every variable Load reads so the host environment cannot
// leak into a test. t.Setenv restores the previous values afterwards.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
	// Keep godotenv from picking up a developer's .env.
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "g-key")
	t.Setenv("OPENWEATHER_API_KEY", "w-key")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "3000", cfg.HTTP.Port)
	assert.Equal(t, "*", cfg.HTTP.AllowedOrigin)
	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, "gemini-1.5-flash", cfg.LLM.Model())
	assert.Equal(t, "g-key", cfg.LLM.APIKey())
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
	assert.Equal(t, 1000, cfg.Cache.MaxEntries)
	assert.Empty(t, cfg.Cache.RedisURL)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "8081")
	t.Setenv("ALLOWED_ORIGIN", "https://trips.example.com")
	t.Setenv("LLM_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "o-key")
	t.Setenv("OPENAI_MODEL", "gpt-4o")
	t.Setenv("OPENWEATHER_API_KEY", "w-key")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("CACHE_TTL", "30m")
	t.Setenv("CACHE_MAX_ENTRIES", "50")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8081", cfg.HTTP.Port)
	assert.Equal(t, "https://trips.example.com", cfg.HTTP.AllowedOrigin)
	assert.Equal(t, "o-key", cfg.LLM.APIKey())
	assert.Equal(t, "gpt-4o", cfg.LLM.Model())
	assert.Equal(t, "redis://localhost:6379/0", cfg.Cache.RedisURL)
	assert.Equal(t, 30*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 50, cfg.Cache.MaxEntries)
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http:
  port: "9000"
llm:
  geminiApiKey: from-file
upstreams:
  openWeatherApiKey: w-file
  countriesUrl: http://countries.local/v3.1/name
cache:
  maxEntries: 5
`), 0o600))
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("PORT", "9001")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9001", cfg.HTTP.Port, "env wins over file")
	assert.Equal(t, "from-file", cfg.LLM.GeminiAPIKey)
	assert.Equal(t, "http://countries.local/v3.1/name", cfg.Upstreams.CountriesURL)
	assert.Equal(t, 5, cfg.Cache.MaxEntries)
	assert.Equal(t, time.Hour, cfg.Cache.TTL, "unset file keys keep defaults")
}

func TestLoad_DotEnv(t *testing.T) {
	clearEnv(t)
	// godotenv does not override variables that are already set, even to "".
	for _, k := range []string{"GEMINI_API_KEY", "OPENWEATHER_API_KEY"} {
		require.NoError(t, os.Unsetenv(k))
	}
	require.NoError(t, os.WriteFile(".env", []byte("GEMINI_API_KEY=dot-g\nOPENWEATHER_API_KEY=dot-w\n"), 0o600))
	t.Cleanup(func() {
		_ = os.Unsetenv("GEMINI_API_KEY")
		_ = os.Unsetenv("OPENWEATHER_API_KEY")
	})

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "dot-g", cfg.LLM.GeminiAPIKey)
	assert.Equal(t, "dot-w", cfg.Upstreams.OpenWeatherAPIKey)
}

func TestLoad_BadValues(t *testing.T) {
	cases := map[string]map[string]string{
		"bad ttl":         {"CACHE_TTL": "an hour"},
		"bad max entries": {"CACHE_MAX_ENTRIES": "many"},
		"missing file":    {"CONFIG_PATH": "/does/not/exist.yaml"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("GEMINI_API_KEY", "g")
			t.Setenv("OPENWEATHER_API_KEY", "w")
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
		})
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := defaultConfig()
		cfg.LLM.GeminiAPIKey = "g"
		cfg.Upstreams.OpenWeatherAPIKey = "w"
		return cfg
	}
	require.NoError(t, valid().Validate())

	cases := map[string]func(*Config){
		"empty port":          func(c *Config) { c.HTTP.Port = "" },
		"non-numeric port":    func(c *Config) { c.HTTP.Port = ":3000" },
		"missing gemini key":  func(c *Config) { c.LLM.GeminiAPIKey = "" },
		"missing openai key":  func(c *Config) { c.LLM.Provider = "openai" },
		"unknown provider":    func(c *Config) { c.LLM.Provider = "claude" },
		"missing weather key": func(c *Config) { c.Upstreams.OpenWeatherAPIKey = "" },
		"zero ttl":            func(c *Config) { c.Cache.TTL = 0 },
		"zero max entries":    func(c *Config) { c.Cache.MaxEntries = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := valid()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
