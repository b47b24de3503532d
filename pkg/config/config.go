// Package config loads service settings and the tracked-object catalog.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. ATLAS_SERVER_PORT
const EnvPrefix = "ATLAS"

// Config holds all service settings
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Horizons UpstreamConfig `mapstructure:"horizons"`
	MPC      UpstreamConfig `mapstructure:"mpc"`
	OpenAI   OpenAIConfig   `mapstructure:"openai"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	// BriefingRateLimit is requests per second per client on the briefing route
	BriefingRateLimit float64 `mapstructure:"briefing_rate_limit"`
	InstanceIDFile    string  `mapstructure:"instance_id_file"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
	// FilePath enables disk persistence when set
	FilePath     string        `mapstructure:"file_path"`
	SaveInterval time.Duration `mapstructure:"save_interval"`
}

type UpstreamConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type OpenAIConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	Temperature float32       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type CatalogConfig struct {
	// Path to objects.yaml; empty uses the built-in catalog
	Path    string `mapstructure:"path"`
	Tracked string `mapstructure:"tracked"`
}

// Addr returns the listen address
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 3001)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.briefing_rate_limit", 1.0)
	v.SetDefault("server.instance_id_file", ".atlaswatch/instance-id")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("cache.ttl", 5*time.Minute)
	v.SetDefault("cache.file_path", "")
	v.SetDefault("cache.save_interval", 30*time.Second)

	v.SetDefault("horizons.base_url", "https://ssd.jpl.nasa.gov/api/horizons.api")
	v.SetDefault("horizons.timeout", 30*time.Second)
	v.SetDefault("mpc.base_url", "https://data.minorplanetcenter.net")
	v.SetDefault("mpc.timeout", 30*time.Second)

	v.SetDefault("openai.base_url", "")
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("openai.temperature", 0.3)
	v.SetDefault("openai.timeout", 60*time.Second)

	v.SetDefault("catalog.path", "")
	v.SetDefault("catalog.tracked", "")
}

// Load reads configFile (or ./config.yaml when empty and present), then
// applies ATLAS_* environment overrides on top of the defaults.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// First variable set wins; VITE_API_KEY is kept for existing .env.local files
	if err := v.BindEnv("openai.api_key", EnvPrefix+"_OPENAI_API_KEY", "OPENAI_API_KEY", "VITE_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind API key variables: %w", err)
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}
	if c.Cache.TTL <= 0 {
		return errors.New("cache ttl must be positive")
	}
	if c.Server.BriefingRateLimit < 0 {
		return errors.New("briefing rate limit cannot be negative")
	}
	return nil
}
