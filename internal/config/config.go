package config

import "time"

// Config holds server configuration values.
type Config struct {
	Addr              string         `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration  `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration  `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel          string         `mapstructure:"log_level" yaml:"log_level"`
	DatabasePath      string         `mapstructure:"database_path" yaml:"database_path"`
	Source            SourceConfig   `mapstructure:"source" yaml:"source"`
	Pipeline          PipelineConfig `mapstructure:"pipeline" yaml:"pipeline"`
}

// SourceConfig configures the chat source connector.
type SourceConfig struct {
	// Kind selects the connector variant: "remote" or "synthetic".
	Kind string `mapstructure:"kind" yaml:"kind"`

	BaseURL              string   `mapstructure:"base_url" yaml:"base_url"`
	AuthTokens           []string `mapstructure:"auth_tokens" yaml:"auth_tokens"`
	Retries              int      `mapstructure:"retries" yaml:"retries"`
	Timezone             string   `mapstructure:"timezone" yaml:"timezone"`
	DateFormat           string   `mapstructure:"date_format" yaml:"date_format"`
	IncludePrivateRooms  bool     `mapstructure:"include_private_rooms" yaml:"include_private_rooms"`
	IncludeArchivedRooms bool     `mapstructure:"include_archived_rooms" yaml:"include_archived_rooms"`
	RequestsPerSecond    float64  `mapstructure:"requests_per_second" yaml:"requests_per_second"`

	SyntheticUsers int    `mapstructure:"synthetic_users" yaml:"synthetic_users"`
	SyntheticRooms int    `mapstructure:"synthetic_rooms" yaml:"synthetic_rooms"`
	SyntheticSeed  *int64 `mapstructure:"synthetic_seed" yaml:"synthetic_seed,omitempty"`
}

// PipelineConfig configures the ingest cycle.
type PipelineConfig struct {
	Enabled  bool          `mapstructure:"enabled" yaml:"enabled"`
	Interval time.Duration `mapstructure:"interval" yaml:"interval"`
	Lookback time.Duration `mapstructure:"lookback" yaml:"lookback"`
	Workers  int           `mapstructure:"workers" yaml:"workers"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":8080",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		LogLevel:          "info",
		DatabasePath:      "chatscope.db",
		Source: SourceConfig{
			Kind:              "synthetic",
			BaseURL:           "http://localhost:8181/v1",
			Retries:           3,
			Timezone:          "UTC",
			DateFormat:        "2006-01-02",
			RequestsPerSecond: 5,
			SyntheticUsers:    20,
			SyntheticRooms:    10,
		},
		Pipeline: PipelineConfig{
			Enabled:  true,
			Interval: time.Minute,
			Lookback: 24 * time.Hour,
			Workers:  4,
		},
	}
}
