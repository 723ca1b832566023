// Package config loads the interview tool configuration from a YAML file,
// INTERVIEW_* environment variables and command line flags.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// App names the config file and the environment prefix.
const App = "interview"

// Config is the complete configuration.
type Config struct {
	Store     StoreConfig     `mapstructure:"store"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Interview InterviewConfig `mapstructure:"interview"`
	Engine    EngineConfig    `mapstructure:"engine"`
	Log       LogConfig       `mapstructure:"log"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

// StoreConfig selects the checkpoint backend.
type StoreConfig struct {
	// Driver is one of memory, sqlite, mysql or redis.
	Driver string      `mapstructure:"driver"`
	DSN    string      `mapstructure:"dsn"`
	Redis  RedisConfig `mapstructure:"redis"`
}

// RedisConfig is used by the redis driver and by the distributed session
// lock.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// LLMConfig selects the chat model provider.
type LLMConfig struct {
	// Provider is one of google, openai or anthropic.
	Provider string        `mapstructure:"provider"`
	APIKey   string        `mapstructure:"api-key"`
	Model    string        `mapstructure:"model"`
	ProModel string        `mapstructure:"pro-model"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Retries  int           `mapstructure:"retries"`
}

// InterviewConfig tunes the session flow.
type InterviewConfig struct {
	MaxFollowUps int    `mapstructure:"max-follow-ups"`
	PlanLength   int    `mapstructure:"plan-length"`
	QuestionBank string `mapstructure:"question-bank"`
}

// EngineConfig tunes the graph engine.
type EngineConfig struct {
	MaxSteps int `mapstructure:"max-steps"`
}

// LogConfig controls log output.
type LogConfig struct {
	JSON  bool `mapstructure:"json"`
	Debug bool `mapstructure:"debug"`
}

// TracingConfig enables OTLP/HTTP trace export when Endpoint is set.
type TracingConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	Insecure bool   `mapstructure:"insecure"`
}

// MetricsConfig serves Prometheus metrics when Addr is set.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

var (
	drivers   = map[string]bool{"memory": true, "sqlite": true, "mysql": true, "redis": true}
	providers = map[string]bool{"google": true, "openai": true, "anthropic": true}
)

// New returns a viper instance with defaults and environment binding.
// Keys map to variables by upper-casing and replacing "." and "-" with "_",
// so llm.api-key is read from INTERVIEW_LLM_API_KEY.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(strings.ToUpper(App))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.dsn", "interview.db")
	v.SetDefault("store.redis.addr", "localhost:6379")
	v.SetDefault("store.redis.db", 0)
	v.SetDefault("store.redis.prefix", "interview:")
	v.SetDefault("store.redis.ttl", 24*time.Hour)
	v.SetDefault("llm.provider", "google")
	v.SetDefault("llm.api-key", "")
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.pro-model", "")
	v.SetDefault("llm.timeout", 60*time.Second)
	v.SetDefault("llm.retries", 2)
	v.SetDefault("interview.max-follow-ups", 0)
	v.SetDefault("interview.plan-length", 5)
	v.SetDefault("interview.question-bank", "")
	v.SetDefault("engine.max-steps", 500)
	v.SetDefault("log.json", false)
	v.SetDefault("log.debug", false)
	v.SetDefault("tracing.endpoint", "")
	v.SetDefault("tracing.insecure", false)
	v.SetDefault("metrics.addr", "")
	return v
}

// Load reads file into v when given, or interview.yaml from the working
// directory when present, and decodes the result. A missing default file
// is not an error.
func Load(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName(App)
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks enumerations and ranges.
func (c *Config) Validate() error {
	if !drivers[c.Store.Driver] {
		return fmt.Errorf("store.driver %q is not one of memory, sqlite, mysql, redis", c.Store.Driver)
	}
	if c.Store.Driver == "mysql" && c.Store.DSN == "" {
		return errors.New("store.dsn is required for the mysql driver")
	}
	if !providers[c.LLM.Provider] {
		return fmt.Errorf("llm.provider %q is not one of google, openai, anthropic", c.LLM.Provider)
	}
	if c.LLM.Timeout < 0 {
		return errors.New("llm.timeout cannot be negative")
	}
	if c.LLM.Retries < 0 {
		return errors.New("llm.retries cannot be negative")
	}
	if c.Interview.MaxFollowUps < 0 {
		return errors.New("interview.max-follow-ups cannot be negative")
	}
	if c.Engine.MaxSteps < 0 {
		return errors.New("engine.max-steps cannot be negative")
	}
	return nil
}
