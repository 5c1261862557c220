package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth" validate:"required"`
	LLM      LLMConfig      `mapstructure:"llm" validate:"required"`
	Import   ImportConfig   `mapstructure:"import" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret" validate:"required,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"required,gt=0"`
}

// LLMConfig contains settings for the external analysis capability.
// The API credential is deliberately absent: it is supplied per call
// on start/retry and never read from configuration or stored.
type LLMConfig struct {
	ModelName         string `mapstructure:"model_name" validate:"required"`
	MaxRetries        int    `mapstructure:"max_retries" validate:"gte=0,lte=10"`
	RetryDelaySeconds int    `mapstructure:"retry_delay_seconds" validate:"gte=1,lte=60"`
}

// ImportConfig contains settings for the import pipeline runner.
type ImportConfig struct {
	WorkerCount     int   `mapstructure:"worker_count" validate:"required,gt=0"`
	QueueSize       int   `mapstructure:"queue_size" validate:"required,gt=0"`
	StuckJobMinutes int   `mapstructure:"stuck_job_minutes" validate:"required,gt=0"`
	MaxSourceBytes  int64 `mapstructure:"max_source_bytes" validate:"required,gt=0"`
	MaxSourceFiles  int   `mapstructure:"max_source_files" validate:"required,gt=0"`
}
