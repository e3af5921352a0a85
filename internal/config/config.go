package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	EntryDataPath string `yaml:"entry_data_path"`
	ExitDataPath  string `yaml:"exit_data_path"`
	TopN          int    `yaml:"top_n"`

	LLMProvider        string `yaml:"llm_provider"`
	LLMModel           string `yaml:"llm_model"`
	LLMAPIKey          string `yaml:"llm_api_key"`
	LLMGatewayURL      string `yaml:"llm_gateway_url"`
	LLMMaxOutputTokens int    `yaml:"llm_max_output_tokens"`
	LLMTimeoutSeconds  int    `yaml:"llm_timeout_seconds"`
	LLMMaxRetrySeconds int    `yaml:"llm_max_retry_seconds"`
	OpenAIAPIKey       string `yaml:"openai_api_key"`
	AnthropicAPIKey    string `yaml:"anthropic_api_key"`
	GeminiAPIKey       string `yaml:"gemini_api_key"`

	RedisAddr       string `yaml:"redis_addr"`
	CacheTTLSeconds int    `yaml:"cache_ttl_seconds"`

	Port string `yaml:"port"`

	// Source is the config file that was read, empty when none existed.
	Source string `yaml:"-"`
}

// Load reads .env, then the YAML file at CONFIG_PATH (default config.yaml),
// then applies environment overrides, defaults and validation.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	configPath := "config.yaml"
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		configPath = envPath
	}
	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing %s: %w", configPath, err)
		}
		cfg.Source = configPath
	case errors.Is(err, fs.ErrNotExist):
	default:
		return Config{}, fmt.Errorf("reading %s: %w", configPath, err)
	}

	envOverride(&cfg.EntryDataPath, "ENTRY_DATA_PATH")
	envOverride(&cfg.ExitDataPath, "EXIT_DATA_PATH")
	if err := envOverrideInt(&cfg.TopN, "TOP_N"); err != nil {
		return Config{}, err
	}
	envOverride(&cfg.LLMProvider, "LLM_PROVIDER")
	envOverride(&cfg.LLMModel, "LLM_MODEL")
	envOverride(&cfg.LLMAPIKey, "LLM_API_KEY")
	envOverride(&cfg.LLMGatewayURL, "LLM_GATEWAY_URL")
	envOverride(&cfg.OpenAIAPIKey, "OPENAI_API_KEY")
	envOverride(&cfg.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	envOverride(&cfg.GeminiAPIKey, "GEMINI_API_KEY")
	for key, field := range map[string]*int{
		"LLM_MAX_OUTPUT_TOKENS": &cfg.LLMMaxOutputTokens,
		"LLM_TIMEOUT_SECONDS":   &cfg.LLMTimeoutSeconds,
		"LLM_MAX_RETRY_SECONDS": &cfg.LLMMaxRetrySeconds,
		"CACHE_TTL_SECONDS":     &cfg.CacheTTLSeconds,
	} {
		if err := envOverrideInt(field, key); err != nil {
			return Config{}, err
		}
	}
	envOverride(&cfg.RedisAddr, "REDIS_ADDR")
	envOverride(&cfg.Port, "PORT")

	applyDefaults(&cfg)
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.EntryDataPath == "" {
		cfg.EntryDataPath = "data/giris.json"
	}
	if cfg.ExitDataPath == "" {
		cfg.ExitDataPath = "data/cikis.json"
	}
	if cfg.TopN == 0 {
		cfg.TopN = 5
	}
	cfg.LLMProvider = strings.ToLower(strings.TrimSpace(cfg.LLMProvider))
	// gateway is an alias for any OpenAI-compatible endpoint.
	if cfg.LLMProvider == "" || cfg.LLMProvider == "gateway" {
		cfg.LLMProvider = "openai"
	}
	if cfg.LLMMaxOutputTokens == 0 {
		cfg.LLMMaxOutputTokens = 800
	}
	if cfg.LLMTimeoutSeconds == 0 {
		cfg.LLMTimeoutSeconds = 30
	}
	if cfg.LLMMaxRetrySeconds == 0 {
		cfg.LLMMaxRetrySeconds = 20
	}
	if cfg.CacheTTLSeconds == 0 {
		cfg.CacheTTLSeconds = 3600
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
}

func (cfg Config) validate() error {
	switch cfg.LLMProvider {
	case "openai", "anthropic", "gemini":
	default:
		return fmt.Errorf("llm_provider must be 'openai', 'anthropic' or 'gemini', got '%s'", cfg.LLMProvider)
	}
	if cfg.TopN < 1 {
		return fmt.Errorf("invalid top_n '%d': must be >= 1", cfg.TopN)
	}
	if cfg.LLMMaxOutputTokens < 1 {
		return fmt.Errorf("invalid llm_max_output_tokens '%d': must be >= 1", cfg.LLMMaxOutputTokens)
	}
	if cfg.LLMTimeoutSeconds < 1 {
		return fmt.Errorf("invalid llm_timeout_seconds '%d': must be >= 1", cfg.LLMTimeoutSeconds)
	}
	if cfg.LLMMaxRetrySeconds < 0 {
		return fmt.Errorf("invalid llm_max_retry_seconds '%d': must be >= 0", cfg.LLMMaxRetrySeconds)
	}
	if cfg.CacheTTLSeconds < 0 {
		return fmt.Errorf("invalid cache_ttl_seconds '%d': must be >= 0", cfg.CacheTTLSeconds)
	}
	return nil
}

// APIKey returns LLM_API_KEY or, when unset, the provider-specific key.
func (cfg Config) APIKey() string {
	if cfg.LLMAPIKey != "" {
		return cfg.LLMAPIKey
	}
	switch cfg.LLMProvider {
	case "anthropic":
		return cfg.AnthropicAPIKey
	case "gemini":
		return cfg.GeminiAPIKey
	default:
		return cfg.OpenAIAPIKey
	}
}

func (cfg Config) LLMTimeout() time.Duration {
	return time.Duration(cfg.LLMTimeoutSeconds) * time.Second
}

func (cfg Config) LLMMaxRetry() time.Duration {
	return time.Duration(cfg.LLMMaxRetrySeconds) * time.Second
}

func (cfg Config) CacheTTL() time.Duration {
	return time.Duration(cfg.CacheTTLSeconds) * time.Second
}

func envOverride(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}

func envOverrideInt(field *int, envKey string) error {
	val := os.Getenv(envKey)
	if val == "" {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(val))
	if err != nil {
		return fmt.Errorf("invalid %s '%s': %w", envKey, val, err)
	}
	*field = n
	return nil
}
