// Package config loads docql settings from config files, .env files and the environment.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

// AppFs is the filesystem config files are read from and written to.
var AppFs = afero.NewOsFs()

// FileName is the config file name without extension.
const FileName = ".docql"

// Config holds the application configuration
type Config struct {
	Dialect     string        `mapstructure:"dialect"`
	DatabaseURL string        `mapstructure:"database_url"`
	Collections []string      `mapstructure:"collections"`
	CacheSize   int           `mapstructure:"cache_size"`
	CacheTTL    time.Duration `mapstructure:"cache_ttl"`
	Debug       bool          `mapstructure:"debug"`
	LogJSON     bool          `mapstructure:"log_json"`
}

// New returns a viper instance with defaults, config search paths and
// environment bindings for DOCQL_* variables.
func New() (*viper.Viper, error) {
	home, err := homedir.Dir()
	if err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetFs(AppFs)

	v.SetConfigName(FileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath(home)
	v.AddConfigPath(filepath.Join(home, ".config", "docql"))

	v.SetEnvPrefix("DOCQL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("dialect", "postgres")
	v.SetDefault("database_url", "")
	v.SetDefault("collections", []string{})
	v.SetDefault("cache_size", 256)
	v.SetDefault("cache_ttl", 10*time.Minute)
	v.SetDefault("debug", false)
	v.SetDefault("log_json", false)

	return v, nil
}

// LoadConfig loads configuration from various sources
func LoadConfig() (*Config, error) {
	loadDotEnv()

	v, err := New()
	if err != nil {
		return nil, err
	}
	return Load(v)
}

// Load reads v's config file, if any, and decodes the merged settings.
func Load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	return cfg, nil
}

// SaveConfig writes cfg as a config file in dir.
func SaveConfig(cfg *Config, dir string) (string, error) {
	v := viper.New()
	v.SetFs(AppFs)
	v.Set("dialect", cfg.Dialect)
	v.Set("collections", cfg.Collections)
	v.Set("cache_size", cfg.CacheSize)
	v.Set("cache_ttl", cfg.CacheTTL.String())
	v.Set("debug", cfg.Debug)
	if cfg.DatabaseURL != "" {
		v.Set("database_url", cfg.DatabaseURL)
	}

	if err := AppFs.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	configFile := filepath.Join(dir, FileName+".yaml")
	if err := v.WriteConfigAs(configFile); err != nil {
		return "", err
	}
	return configFile, nil
}

func loadDotEnv() {
	// Missing or unreadable env files are not an error.
	if _, err := AppFs.Stat(".env"); err == nil {
		_ = godotenv.Load()
	}
	// .env.local overrides .env.
	if _, err := AppFs.Stat(".env.local"); err == nil {
		_ = godotenv.Overload(".env.local")
	}
}
