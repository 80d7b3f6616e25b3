package config

import (
	"errors"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrMissingJWTSecret is returned by Load when no token signing key is configured
var ErrMissingJWTSecret = errors.New("JWT_SECRET must be set")

// Config holds the runtime settings of the service
type Config struct {
	Port          string        `mapstructure:"port"`
	GinMode       string        `mapstructure:"gin_mode"`
	DatabaseURL   string        `mapstructure:"database_url"`
	DataPath      string        `mapstructure:"data_path"`
	JWTSecret     string        `mapstructure:"jwt_secret"`
	TokenTTL      time.Duration `mapstructure:"token_ttl"`
	BcryptCost    int           `mapstructure:"bcrypt_cost"`
	AdminUsername string        `mapstructure:"admin_username"`
	AdminPassword string        `mapstructure:"admin_password"`
	Debug         bool          `mapstructure:"debug"`
}

var keys = []string{
	"port",
	"gin_mode",
	"database_url",
	"data_path",
	"jwt_secret",
	"token_ttl",
	"bcrypt_cost",
	"admin_username",
	"admin_password",
	"debug",
}

// LoadDotEnv loads the first .env file found in the working directory or its parents
func LoadDotEnv() {
	envPaths := []string{".env", "../.env", "../../.env"}
	for _, p := range envPaths {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
			break
		}
	}
}

// Load reads configuration from an optional config.yaml and the environment.
// Environment variables take precedence and use the upper-cased key names,
// e.g. "database_url" is read from DATABASE_URL.
func Load() (*Config, error) {
	v := viper.New()
	v.SetDefault("port", "8000")
	v.SetDefault("data_path", "workers.db")
	v.SetDefault("token_ttl", 24*time.Hour)
	v.SetDefault("bcrypt_cost", 14)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AutomaticEnv()
	for _, k := range keys {
		_ = v.BindEnv(k)
	}
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	if cfg.JWTSecret == "" {
		return nil, ErrMissingJWTSecret
	}
	return cfg, nil
}
