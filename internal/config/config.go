package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database"`
	Study    StudyConfig    `mapstructure:"study" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port                   int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel               string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	ShutdownTimeoutSeconds int    `mapstructure:"shutdown_timeout_seconds" validate:"gte=1,lte=300"`
}

// DatabaseConfig contains all database-related configuration settings.
// An empty URL selects the in-memory deck store.
type DatabaseConfig struct {
	URL             string `mapstructure:"url" validate:"omitempty,url"`
	MaxOpenConns    int    `mapstructure:"max_open_conns" validate:"gte=1"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns" validate:"gte=0"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime_minutes" validate:"gte=1"`
}

// StudyConfig contains the scheduling and card generation settings.
type StudyConfig struct {
	HistorySize      int    `mapstructure:"history_size" validate:"gte=0,lte=100"`
	MinRequeueOffset int    `mapstructure:"min_requeue_offset" validate:"gte=1"`
	MaxRequeueOffset int    `mapstructure:"max_requeue_offset" validate:"gtefield=MinRequeueOffset"`
	RandomSeed       uint64 `mapstructure:"random_seed"`
	// SeedDefaultDeck loads the grand staff deck into an empty in-memory store.
	SeedDefaultDeck bool `mapstructure:"seed_default_deck"`
}

// UsesDatabase reports whether a database URL is configured.
func (c *Config) UsesDatabase() bool {
	return c.Database.URL != ""
}
