package extension

import "time"

// Config holds the stakeledger extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.stakeledger" or "stakeledger" keys).
type Config struct {
	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// RewardBasis selects how claim durations are measured: "stake_start"
	// (default) or "last_claim".
	RewardBasis string `json:"reward_basis" mapstructure:"reward_basis" yaml:"reward_basis"`

	// EventBatchSize is the number of journal events to buffer before
	// flushing to the store (default: 100).
	EventBatchSize int `json:"event_batch_size" mapstructure:"event_batch_size" yaml:"event_batch_size"`

	// EventFlushInterval is how frequently the journal is flushed even if
	// the batch size has not been reached (default: 5s).
	EventFlushInterval time.Duration `json:"event_flush_interval" mapstructure:"event_flush_interval" yaml:"event_flush_interval"`

	// EventBufferSize caps unflushed journal events (default: 10000).
	EventBufferSize int `json:"event_buffer_size" mapstructure:"event_buffer_size" yaml:"event_buffer_size"`

	// PluginTimeout bounds each plugin hook call (default: 5s).
	PluginTimeout time.Duration `json:"plugin_timeout" mapstructure:"plugin_timeout" yaml:"plugin_timeout"`

	// NTPServer, when set, replaces the system clock with one corrected
	// against this NTP server.
	NTPServer string `json:"ntp_server" mapstructure:"ntp_server" yaml:"ntp_server"`

	// NTPSyncInterval is how often the NTP offset is refreshed (default: 10m).
	NTPSyncInterval time.Duration `json:"ntp_sync_interval" mapstructure:"ntp_sync_interval" yaml:"ntp_sync_interval"`

	// EnableMetrics registers the observability plugin against the default
	// Prometheus registerer.
	EnableMetrics bool `json:"enable_metrics" mapstructure:"enable_metrics" yaml:"enable_metrics"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		RewardBasis:        "stake_start",
		EventBatchSize:     100,
		EventFlushInterval: 5 * time.Second,
		EventBufferSize:    10000,
		PluginTimeout:      5 * time.Second,
		NTPSyncInterval:    10 * time.Minute,
	}
}

// mergeWithDefaults fills zero-valued fields with defaults.
func mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.RewardBasis == "" {
		cfg.RewardBasis = defaults.RewardBasis
	}
	if cfg.EventBatchSize == 0 {
		cfg.EventBatchSize = defaults.EventBatchSize
	}
	if cfg.EventFlushInterval == 0 {
		cfg.EventFlushInterval = defaults.EventFlushInterval
	}
	if cfg.EventBufferSize == 0 {
		cfg.EventBufferSize = defaults.EventBufferSize
	}
	if cfg.PluginTimeout == 0 {
		cfg.PluginTimeout = defaults.PluginTimeout
	}
	if cfg.NTPSyncInterval == 0 {
		cfg.NTPSyncInterval = defaults.NTPSyncInterval
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence for most fields; programmatic bool flags fill gaps.
func mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}
	if programmaticConfig.EnableMetrics {
		yamlConfig.EnableMetrics = true
	}

	if yamlConfig.RewardBasis == "" {
		yamlConfig.RewardBasis = programmaticConfig.RewardBasis
	}
	if yamlConfig.NTPServer == "" {
		yamlConfig.NTPServer = programmaticConfig.NTPServer
	}
	if yamlConfig.EventBatchSize == 0 {
		yamlConfig.EventBatchSize = programmaticConfig.EventBatchSize
	}
	if yamlConfig.EventFlushInterval == 0 {
		yamlConfig.EventFlushInterval = programmaticConfig.EventFlushInterval
	}
	if yamlConfig.EventBufferSize == 0 {
		yamlConfig.EventBufferSize = programmaticConfig.EventBufferSize
	}
	if yamlConfig.PluginTimeout == 0 {
		yamlConfig.PluginTimeout = programmaticConfig.PluginTimeout
	}
	if yamlConfig.NTPSyncInterval == 0 {
		yamlConfig.NTPSyncInterval = programmaticConfig.NTPSyncInterval
	}

	return mergeWithDefaults(yamlConfig)
}
