package config

// Config is the root configuration for sumai.
type Config struct {
	Backend BackendConfig `yaml:"backend,omitempty"`
	Chat    ChatConfig    `yaml:"chat,omitempty"`
	Logging LoggingConfig `yaml:"logging,omitempty"`
}

// BackendConfig points the client at the search/recommendation service.
type BackendConfig struct {
	BaseURL              string `yaml:"baseUrl" validate:"required,url"`
	Token                string `yaml:"token,omitempty"` // sent as a bearer token when set; supports ${ENV_VAR}
	TimeoutSeconds       int    `yaml:"timeoutSeconds,omitempty" validate:"gte=1,lte=600"`
	UploadTimeoutSeconds int    `yaml:"uploadTimeoutSeconds,omitempty" validate:"gte=1,lte=600"`
}

// ChatConfig controls conversation behavior.
type ChatConfig struct {
	RecommendationCount int `yaml:"recommendationCount,omitempty" validate:"gte=1,lte=20"`
	StatsFallback       int `yaml:"statsFallback,omitempty" validate:"gte=0"`
	StatsCacheMinutes   int `yaml:"statsCacheMinutes,omitempty" validate:"gte=0"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level        string `yaml:"level,omitempty"` // "silent" | "fatal" | "error" | "warn" | "info" | "debug" | "trace"
	File         string `yaml:"file,omitempty"`
	MaxSizeMB    int    `yaml:"maxSizeMb,omitempty" validate:"gte=0"`
	MaxBackups   int    `yaml:"maxBackups,omitempty" validate:"gte=0"`
	ConsoleStyle string `yaml:"consoleStyle,omitempty"` // "pretty" | "json"
}
