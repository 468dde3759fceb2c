package config

import (
	"time"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	Vision   VisionConfig   `yaml:"vision"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Artifact ArtifactConfig `yaml:"artifact"`
	Auth     AuthConfig     `yaml:"auth"`
	System   SystemConfig   `yaml:"system"`
}

type ServerConfig struct {
	IP        string `yaml:"ip"`
	Port      int    `yaml:"port"`
	PublicURL string `yaml:"public_url"`
	StaticDir string `yaml:"static_dir"`
}

type LogConfig struct {
	Level string `yaml:"log_level"`
	Dir   string `yaml:"log_dir"`
	File  string `yaml:"log_file"`
}

type DatabaseConfig struct {
	// DSN is the sqlite path, ":memory:" for tests.
	DSN string `yaml:"dsn"`
}

// VisionConfig selects the external multimodal completion endpoint.
type VisionConfig struct {
	ModelName string        `yaml:"model_name"`
	BaseURL   string        `yaml:"url"`
	APIKey    string        `yaml:"api_key"`
	Timeout   time.Duration `yaml:"timeout"`
}

// PipelineConfig carries the image budget applied before the vision call.
type PipelineConfig struct {
	MaxWidth    int     `yaml:"max_width"`
	Quality     float64 `yaml:"quality"`
	MaxFileSize int64   `yaml:"max_file_size"`
}

// ArtifactConfig points at the blob root that gets served publicly.
type ArtifactConfig struct {
	Root      string `yaml:"root"`
	PublicURL string `yaml:"public_url"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
	Store     StoreConfig   `yaml:"store"`
}

// StoreConfig selects the session store backend.
type StoreConfig struct {
	Type  string           `yaml:"type"` // memory | redis
	Redis RedisStoreConfig `yaml:"redis,omitempty"`
}

type RedisStoreConfig struct {
	Addr     string `yaml:"addr"`
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db,omitempty"`
	Prefix   string `yaml:"prefix,omitempty"`
}

type SystemConfig struct {
	Observability bool `yaml:"observability"`
}
