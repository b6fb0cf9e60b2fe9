package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Config stores runtime configuration loaded from the environment and an optional study-ai.yaml.
type Config struct {
	AIProvider     string
	OpenAIKey      string
	OpenAIEndpoint string
	OpenAIModel    string
	AnthropicKey   string
	AnthropicModel string

	OutputDir string
	Database  string

	GenerationConcurrency int
	// MaxInputChars truncates extracted text before generation; 0 disables it.
	MaxInputChars int

	Port        int
	CORSOrigins []string

	LogLevel  string
	LogFormat string
}

var defaults = map[string]any{
	"ai_provider":            ProviderOpenAI,
	"openai_api_endpoint":    "https://api.openai.com/v1",
	"openai_model":           "gpt-4o-mini",
	"anthropic_model":        "claude-3-5-sonnet-20241022",
	"output_dir":             "output",
	"database_path":          "./data/study.db",
	"generation_concurrency": 3,
	"max_input_chars":        0,
	"port":                   8080,
	"cors_origins":           "*",
	"log_level":              "info",
	"log_format":             "console",
}

// Load reads .env, then study-ai.yaml from the working directory or ./config
// if present, then environment variables, which take precedence.
func Load() (Config, error) {
	// Load .env file if it exists (useful for development)
	_ = godotenv.Load()

	v := newViper()
	v.SetConfigName("study-ai")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}
	return build(v)
}

// LoadFile is Load with an explicit config file and no .env lookup.
func LoadFile(path string) (Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("read config file %s: %w", path, err)
	}
	return build(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}
	v.AutomaticEnv()
	return v
}

func build(v *viper.Viper) (Config, error) {
	cfg := Config{
		AIProvider:            strings.ToLower(strings.TrimSpace(v.GetString("ai_provider"))),
		OpenAIKey:             v.GetString("openai_api_key"),
		OpenAIEndpoint:        v.GetString("openai_api_endpoint"),
		OpenAIModel:           v.GetString("openai_model"),
		AnthropicKey:          v.GetString("anthropic_api_key"),
		AnthropicModel:        v.GetString("anthropic_model"),
		OutputDir:             v.GetString("output_dir"),
		Database:              v.GetString("database_path"),
		GenerationConcurrency: v.GetInt("generation_concurrency"),
		MaxInputChars:         v.GetInt("max_input_chars"),
		Port:                  v.GetInt("port"),
		CORSOrigins:           splitList(v.GetString("cors_origins")),
		LogLevel:              v.GetString("log_level"),
		LogFormat:             v.GetString("log_format"),
	}

	switch cfg.AIProvider {
	case ProviderOpenAI, ProviderAnthropic:
	default:
		return Config{}, fmt.Errorf("unknown AI_PROVIDER %q (want %s or %s)", cfg.AIProvider, ProviderOpenAI, ProviderAnthropic)
	}
	if cfg.GenerationConcurrency < 1 {
		cfg.GenerationConcurrency = 1
	}
	if cfg.MaxInputChars < 0 {
		cfg.MaxInputChars = 0
	}
	return cfg, nil
}

// EnsureDirs creates the output directory and the database's parent directory.
func (c Config) EnsureDirs() error {
	if err := os.MkdirAll(c.OutputDir, 0o755); err != nil {
		return fmt.Errorf("ensure output dir %s: %w", c.OutputDir, err)
	}
	if err := os.MkdirAll(filepath.Dir(c.Database), 0o755); err != nil {
		return fmt.Errorf("ensure database dir %s: %w", c.Database, err)
	}
	return nil
}

// HasAIKey reports whether the selected provider has credentials.
func (c Config) HasAIKey() bool {
	if c.AIProvider == ProviderAnthropic {
		return c.AnthropicKey != ""
	}
	return c.OpenAIKey != ""
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
