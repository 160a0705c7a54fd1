// Package config loads service settings from defaults, an optional YAML
// file and ASSISTANT_* environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/petasbytes/go-assistant/internal/provider"
	"github.com/petasbytes/go-assistant/internal/retrieval"
)

const EnvPrefix = "ASSISTANT"

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

const (
	ModeChat      = "chat"
	ModeRAG       = "rag"
	ModeSmartHome = "smarthome"

	ProviderAzure     = "azure"
	ProviderAnthropic = "anthropic"

	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendFile   = "file"
)

type Config struct {
	Mode      string          `mapstructure:"mode"`
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Provider  ProviderConfig  `mapstructure:"provider"`
	Runner    RunnerConfig    `mapstructure:"runner"`
	Session   SessionConfig   `mapstructure:"session"`
	Retrieval RetrievalConfig `mapstructure:"retrieval"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	REPL      REPLConfig      `mapstructure:"repl"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Addr is host:port for net/http.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type ProviderConfig struct {
	Name           string `mapstructure:"name"`
	Endpoint       string `mapstructure:"endpoint"`
	APIVersion     string `mapstructure:"api_version"`
	Deployment     string `mapstructure:"deployment"`
	EmbeddingModel string `mapstructure:"embedding_model"`
	AnthropicModel string `mapstructure:"anthropic_model"`
	// Temperature and MaxTokens override the mode preset when set.
	Temperature *float64 `mapstructure:"temperature"`
	MaxTokens   int64    `mapstructure:"max_tokens"`
	// Credentials are read from AZURE_OPENAI_KEY and ANTHROPIC_API_KEY.
	AzureKey     string `mapstructure:"azure_key"`
	AnthropicKey string `mapstructure:"anthropic_key"`
}

// APIKey returns the credential of the selected provider.
func (p ProviderConfig) APIKey() string {
	if p.Name == ProviderAnthropic {
		return p.AnthropicKey
	}
	return p.AzureKey
}

type RunnerConfig struct {
	MaxIterations int `mapstructure:"max_iterations"`
	TokenBudget   int `mapstructure:"token_budget"`
}

type SessionConfig struct {
	Backend   string        `mapstructure:"backend"`
	RedisAddr string        `mapstructure:"redis_addr"`
	RedisDB   int           `mapstructure:"redis_db"`
	RedisTTL  time.Duration `mapstructure:"redis_ttl"`
	FileDir   string        `mapstructure:"file_dir"`
}

type RetrievalConfig struct {
	DSN        string `mapstructure:"dsn"`
	Collection string `mapstructure:"collection"`
	Dimensions int    `mapstructure:"dimensions"`
	TopK       int    `mapstructure:"top_k"`
}

type TelemetryConfig struct {
	Observe bool   `mapstructure:"observe"`
	Dir     string `mapstructure:"dir"`
}

type REPLConfig struct {
	Transcript string `mapstructure:"transcript"`
}

// New returns a viper instance carrying every default and the environment bindings.
func New() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Keys without a default are invisible to AutomaticEnv during Unmarshal.
	_ = v.BindEnv("provider.temperature")
	_ = v.BindEnv("provider.azure_key", "AZURE_OPENAI_KEY")
	_ = v.BindEnv("provider.anthropic_key", "ANTHROPIC_API_KEY")
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", ModeChat)

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("provider.name", ProviderAzure)
	v.SetDefault("provider.endpoint", provider.DefaultEndpoint)
	v.SetDefault("provider.api_version", provider.DefaultAPIVersion)
	v.SetDefault("provider.deployment", provider.DefaultDeployment)
	v.SetDefault("provider.embedding_model", provider.DefaultEmbeddingModel)
	v.SetDefault("provider.anthropic_model", string(provider.DefaultAnthropicModel))
	v.SetDefault("provider.max_tokens", 0)

	v.SetDefault("runner.max_iterations", 10)
	v.SetDefault("runner.token_budget", 0)

	v.SetDefault("session.backend", BackendMemory)
	v.SetDefault("session.redis_addr", "localhost:6379")
	v.SetDefault("session.redis_db", 0)
	v.SetDefault("session.redis_ttl", 24*time.Hour)
	v.SetDefault("session.file_dir", ".sessions")

	v.SetDefault("retrieval.dsn", retrieval.DefaultDSN)
	v.SetDefault("retrieval.collection", retrieval.DefaultCollection)
	v.SetDefault("retrieval.dimensions", provider.DefaultEmbeddingDimensions)
	v.SetDefault("retrieval.top_k", retrieval.DefaultTopK)

	v.SetDefault("telemetry.observe", false)
	v.SetDefault("telemetry.dir", ".agent")

	v.SetDefault("repl.transcript", "conversation.json")
}

// Load reads file (when non-empty) into v and decodes the merged settings.
// The result is not validated.
func Load(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &c, nil
}

// Validate reports every problem at once, each wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}

	switch c.Mode {
	case ModeChat, ModeRAG, ModeSmartHome:
	default:
		add("unknown mode %q", c.Mode)
	}
	switch c.Provider.Name {
	case ProviderAzure:
		if c.Provider.AzureKey == "" {
			add("AZURE_OPENAI_KEY is not set")
		}
	case ProviderAnthropic:
		if c.Provider.AnthropicKey == "" {
			add("ANTHROPIC_API_KEY is not set")
		}
		if c.Mode == ModeRAG {
			add("rag mode needs embeddings, which only the azure provider offers")
		}
	default:
		add("unknown provider %q", c.Provider.Name)
	}
	switch c.Session.Backend {
	case BackendMemory, BackendRedis, BackendFile:
	default:
		add("unknown session backend %q", c.Session.Backend)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		add("server.port %d out of range", c.Server.Port)
	}
	if c.Provider.Temperature != nil && (*c.Provider.Temperature < 0 || *c.Provider.Temperature > 2) {
		add("provider.temperature %v outside [0, 2]", *c.Provider.Temperature)
	}
	if c.Mode == ModeRAG && c.Retrieval.Dimensions < 0 {
		add("retrieval.dimensions must not be negative")
	}
	return errors.Join(errs...)
}
