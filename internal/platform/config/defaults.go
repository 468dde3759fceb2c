package config

import "time"

// DefaultConfig returns the baseline configuration before file and env
// overrides are applied.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			IP:        "0.0.0.0",
			Port:      8080,
			PublicURL: "http://localhost:8080",
			StaticDir: "./web",
		},
		Log: LogConfig{
			Level: "INFO",
			Dir:   "data/logs",
			File:  "server.log",
		},
		Database: DatabaseConfig{
			DSN: "data/mealvision.db",
		},
		Vision: VisionConfig{
			ModelName: "gpt-4o",
			BaseURL:   "https://api.openai.com/v1",
			Timeout:   60 * time.Second,
		},
		Pipeline: PipelineConfig{
			MaxWidth:    1024,
			Quality:     0.8,
			MaxFileSize: 5 * 1024 * 1024,
		},
		Artifact: ArtifactConfig{
			Root:      "data/artifacts",
			PublicURL: "http://localhost:8080/artifacts",
		},
		Auth: AuthConfig{
			TokenTTL: 24 * time.Hour,
			Store: StoreConfig{
				Type: "memory",
			},
		},
	}
}
