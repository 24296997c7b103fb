// Package config loads service configuration from an optional YAML file with
// environment-variable overrides.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// envPrefix namespaces the override variables, e.g. GARM_HTTP_PORT.
const envPrefix = "GARM_"

// Config is the full process configuration.
type Config struct {
	HTTP struct {
		Port int `koanf:"port"`
	} `koanf:"http"`

	Log struct {
		Level  string `koanf:"level"`
		Pretty bool   `koanf:"pretty"`
	} `koanf:"log"`

	Secrets struct {
		Access  string `koanf:"access"`
		Refresh string `koanf:"refresh"`
	} `koanf:"secrets"`

	// Postgres DSN for the principal store. Empty selects the in-memory store.
	Postgres struct {
		DSN string `koanf:"dsn"`
	} `koanf:"postgres"`

	// Redis URL for the revocation cache and event stream. Empty selects the
	// in-memory cache and disables event publishing.
	Redis struct {
		URL string `koanf:"url"`
	} `koanf:"redis"`

	Cache struct {
		SweepInterval time.Duration `koanf:"sweepInterval"`
	} `koanf:"cache"`
}

// Load reads the YAML file at path (skipped when the file does not exist),
// applies GARM_* environment overrides, and validates the result.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("read config %s failed: %w", path, err)
			}
		}
	}

	// GARM_HTTP_PORT -> http.port, GARM_SECRETS_ACCESS -> secrets.access.
	if err := k.Load(env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
			return strings.ReplaceAll(key, "_", "."), value
		},
	}), nil); err != nil {
		return nil, fmt.Errorf("load env variables failed: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config failed: %w", err)
	}

	applyDefaults(cfg)

	if cfg.Secrets.Access == "" || cfg.Secrets.Refresh == "" {
		return nil, fmt.Errorf("access and refresh secrets must be configured")
	}
	if cfg.Secrets.Access == cfg.Secrets.Refresh {
		return nil, fmt.Errorf("access and refresh secrets must differ")
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 9000
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Cache.SweepInterval == 0 {
		cfg.Cache.SweepInterval = 5 * time.Minute
	}
}
