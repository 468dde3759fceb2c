package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const defaultConfigPath = "config.yaml"

// Loader reads configuration from a yaml file with environment overrides.
type Loader struct {
	path      string
	useDotEnv bool
}

// NewLoader creates a loader reading config.yaml from the working directory.
func NewLoader() *Loader {
	return &Loader{
		path:      defaultConfigPath,
		useDotEnv: true,
	}
}

// WithPath overrides the configuration file location.
func (l *Loader) WithPath(path string) *Loader {
	if path != "" {
		l.path = path
	}
	return l
}

// WithDotEnv toggles loading variables from a .env file before reading config.
func (l *Loader) WithDotEnv(enabled bool) *Loader {
	l.useDotEnv = enabled
	return l
}

// Result captures the loaded configuration and its origin path.
type Result struct {
	Config *Config
	Path   string
}

// Load merges defaults, the yaml file (when present) and env overrides.
// The vision API key is a server-side secret and is only ever sourced from
// the environment or the config file, never from request payloads.
func (l *Loader) Load() (*Result, error) {
	if l.useDotEnv {
		// A missing .env file is fine, the process env still applies.
		_ = godotenv.Load()
	}

	cfg := DefaultConfig()

	path := l.path
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read %s: %w", path, err)
	} else {
		path = ""
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return &Result{Config: cfg, Path: path}, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("VISION_API_KEY"); v != "" {
		cfg.Vision.APIKey = v
	}
	if v := os.Getenv("VISION_BASE_URL"); v != "" {
		cfg.Vision.BaseURL = v
	}
	if v := os.Getenv("VISION_MODEL"); v != "" {
		cfg.Vision.ModelName = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Auth.Store.Type = "redis"
		cfg.Auth.Store.Redis.Addr = v
	}
}

// Validate rejects configurations that cannot produce a working server.
func Validate(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", cfg.Server.Port)
	}
	if cfg.Pipeline.MaxWidth <= 0 {
		return fmt.Errorf("pipeline max_width must be positive, got %d", cfg.Pipeline.MaxWidth)
	}
	if cfg.Pipeline.Quality <= 0 || cfg.Pipeline.Quality > 1 {
		return fmt.Errorf("pipeline quality must be in (0,1], got %v", cfg.Pipeline.Quality)
	}
	if cfg.Auth.Store.Type == "redis" && cfg.Auth.Store.Redis.Addr == "" {
		return fmt.Errorf("redis session store requires an address")
	}
	return nil
}
