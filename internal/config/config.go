// Package config loads service settings from defaults, an optional config
// file named by TASKPULSE_CONFIG, and the environment, in increasing order of
// precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const ConfigFileEnv = "TASKPULSE_CONFIG"

type AdvisorConfig struct {
	APIKey   string        `mapstructure:"api_key"`
	BaseURL  string        `mapstructure:"base_url"`
	Model    string        `mapstructure:"model"`
	Timeout  time.Duration `mapstructure:"timeout"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type Config struct {
	Port        string        `mapstructure:"port"`
	PostgresDSN string        `mapstructure:"postgres_dsn"`
	RedisAddr   string        `mapstructure:"redis_addr"`
	JWTSecret   string        `mapstructure:"jwt_secret"`
	CORSOrigins []string      `mapstructure:"cors_origins"`
	Advisor     AdvisorConfig `mapstructure:"advisor"`
	Log         LogConfig     `mapstructure:"log"`
}

// AdvisorEnabled reports whether an API key was configured.
func (c *Config) AdvisorEnabled() bool {
	return c.Advisor.APIKey != ""
}

func (c *Config) Addr() string {
	return ":" + c.Port
}

// Validate reports every missing value the server needs.
func (c *Config) Validate() error {
	var errs []error
	if c.Port == "" {
		errs = append(errs, errors.New("port is required"))
	}
	if c.PostgresDSN == "" {
		errs = append(errs, errors.New("postgres_dsn (POSTGRES_DSN) is required"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("jwt_secret (JWT_SECRET) is required"))
	}
	if c.Advisor.Timeout <= 0 {
		errs = append(errs, errors.New("advisor.timeout must be positive"))
	}

	return errors.Join(errs...)
}

func newViper() *viper.Viper {
	v := viper.New()

	v.SetDefault("port", "8080")
	v.SetDefault("postgres_dsn", "")
	v.SetDefault("redis_addr", "")
	v.SetDefault("jwt_secret", "")
	v.SetDefault("cors_origins", []string{"*"})
	v.SetDefault("advisor.api_key", "")
	v.SetDefault("advisor.base_url", "https://api.groq.com/openai/v1")
	v.SetDefault("advisor.model", "llama-3.3-70b-versatile")
	v.SetDefault("advisor.timeout", 10*time.Second)
	v.SetDefault("advisor.cache_ttl", 10*time.Minute)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Conventional names that do not follow the key layout.
	_ = v.BindEnv("advisor.api_key", "GROQ_API_KEY", "ADVISOR_API_KEY")
	_ = v.BindEnv("jwt_secret", "JWT_SECRET")
	_ = v.BindEnv("postgres_dsn", "POSTGRES_DSN", "DATABASE_URL")

	return v
}

func Load() (*Config, error) {
	v := newViper()

	if path := os.Getenv(ConfigFileEnv); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	return &cfg, nil
}
