package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"call-analyzer-go/internal/dataset"
	"call-analyzer-go/internal/extractor"
)

// Config holds all application configuration.
type Config struct {
	Port        string
	Environment string
	LogLevel    string

	// Results
	CSVFile string

	// AI provider
	AIProvider     string
	AIBaseURL      string
	AIModel        string
	AIAPIKey       string
	AITimeout      time.Duration
	AIProbeTimeout time.Duration

	// CORS, comma separated
	CORSOrigins []string
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("environment", "local")
	v.SetDefault("log_level", "info")
	v.SetDefault("csv_file", dataset.DefaultPath)
	v.SetDefault("ai_provider", extractor.ProviderOpenAI)
	v.SetDefault("ai_base_url", "")
	v.SetDefault("ai_model", "")
	v.SetDefault("ai_api_key", "")
	v.SetDefault("ai_timeout", extractor.DefaultTimeout)
	v.SetDefault("ai_probe_timeout", 20*time.Second)
	v.SetDefault("cors_origins", "http://localhost:3000")
}

// New returns a viper instance reading environment variables (PORT,
// AI_API_KEY, ...) on top of the defaults. A .env file in the working
// directory is loaded first when present.
func New(configFile string) (*viper.Viper, error) {
	_ = godotenv.Load()

	v := viper.New()
	SetDefaults(v)
	v.AutomaticEnv()
	for _, key := range []string{"ai_api_key", "ai_provider", "ai_base_url", "ai_model", "csv_file", "cors_origins"} {
		_ = v.BindEnv(key)
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}
	return v, nil
}

// Load builds a Config from v. The API key falls back to the provider
// specific variables used by the vendor SDKs.
func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		Port:           v.GetString("port"),
		Environment:    v.GetString("environment"),
		LogLevel:       v.GetString("log_level"),
		CSVFile:        v.GetString("csv_file"),
		AIProvider:     strings.ToLower(v.GetString("ai_provider")),
		AIBaseURL:      v.GetString("ai_base_url"),
		AIModel:        v.GetString("ai_model"),
		AIAPIKey:       v.GetString("ai_api_key"),
		AITimeout:      v.GetDuration("ai_timeout"),
		AIProbeTimeout: v.GetDuration("ai_probe_timeout"),
		CORSOrigins:    splitList(v.GetString("cors_origins")),
	}

	if cfg.AIAPIKey == "" {
		for _, key := range apiKeyFallbacks(cfg.AIProvider) {
			_ = v.BindEnv(key)
			if k := v.GetString(key); k != "" {
				cfg.AIAPIKey = k
				break
			}
		}
	}

	if cfg.AITimeout <= 0 {
		return Config{}, fmt.Errorf("ai_timeout must be positive, got %s", cfg.AITimeout)
	}
	switch cfg.AIProvider {
	case extractor.ProviderOpenAI, extractor.ProviderAnthropic:
	default:
		return Config{}, fmt.Errorf("unknown ai_provider %q", cfg.AIProvider)
	}
	return cfg, nil
}

// ExtractorConfig is the subset of the configuration the AI client needs.
func (c Config) ExtractorConfig() extractor.Config {
	return extractor.Config{
		Provider: c.AIProvider,
		BaseURL:  c.AIBaseURL,
		Model:    c.AIModel,
		APIKey:   c.AIAPIKey,
		Timeout:  c.AITimeout,
	}
}

func apiKeyFallbacks(provider string) []string {
	if provider == extractor.ProviderAnthropic {
		return []string{"anthropic_api_key"}
	}
	return []string{"groq_api_key", "openai_api_key"}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
