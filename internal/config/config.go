package config

import (
	"fmt"
	"time"
)

// ConfigError represents a configuration error.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s", e.Message)
}

const (
	DefaultBaseURL              = "http://localhost:8000"
	DefaultTimeoutSeconds       = 30
	DefaultUploadTimeoutSeconds = 60
	DefaultRecommendationCount  = 3
	DefaultStatsFallback        = 640736
	DefaultStatsCacheMinutes    = 10
)

// Defaults returns a Config with sensible defaults applied.
func Defaults() Config {
	return Config{
		Backend: BackendConfig{
			BaseURL:              DefaultBaseURL,
			TimeoutSeconds:       DefaultTimeoutSeconds,
			UploadTimeoutSeconds: DefaultUploadTimeoutSeconds,
		},
		Chat: ChatConfig{
			RecommendationCount: DefaultRecommendationCount,
			StatsFallback:       DefaultStatsFallback,
			StatsCacheMinutes:   DefaultStatsCacheMinutes,
		},
		Logging: LoggingConfig{
			Level:        "info",
			ConsoleStyle: "pretty",
			MaxSizeMB:    10,
			MaxBackups:   3,
		},
	}
}

// Timeout is the ceiling for chat and stats requests.
func (b BackendConfig) Timeout() time.Duration {
	return time.Duration(b.TimeoutSeconds) * time.Second
}

// UploadTimeout is the ceiling for document uploads.
func (b BackendConfig) UploadTimeout() time.Duration {
	return time.Duration(b.UploadTimeoutSeconds) * time.Second
}

// StatsCacheTTL is how long a fetched property total is reused.
func (c ChatConfig) StatsCacheTTL() time.Duration {
	return time.Duration(c.StatsCacheMinutes) * time.Minute
}
