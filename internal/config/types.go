package config

// Config is the bot's own configuration file (JSON, or YAML coerced to JSON).
// The per-guild monitoring configuration lives elsewhere (internal/store) and
// is mutated through slash commands, not by editing this file.
type Config struct {
	Discord DiscordConfig `json:"discord"`
	Logging LoggingConfig `json:"logging"`
	Monitor MonitorConfig `json:"monitor"`

	Notifier *NotifierConfig `json:"notifier,omitempty"`
	Storage  *StorageConfig  `json:"storage,omitempty"`
}

type DiscordConfig struct {
	Token string `json:"token"`

	// GuildID optionally scopes slash-command registration to one guild
	// (instant propagation, useful for development). Empty registers global
	// commands.
	GuildID string `json:"guild_id,omitempty"`
}

type LoggingConfig struct {
	Level   string `json:"level"`
	Console bool   `json:"console"`
	File    struct {
		Enabled bool   `json:"enabled"`
		Path    string `json:"path"`
	} `json:"file"`
	Discord struct {
		Enabled    bool   `json:"enabled"`
		ChannelID  string `json:"channel_id"`
		MinLevel   string `json:"min_level"`
		RatePerSec int    `json:"rate_per_sec"`
	} `json:"discord"`
}

// MonitorConfig controls the polling engine.
//
// All durations are Go duration strings (e.g. "500ms", "10s", "1m").
//
// Defaults (when fields are omitted/zero):
//   - interval: "60s"
//   - probe_timeout: "5s"
//   - guilds_path: "./data/guilds.json"
type MonitorConfig struct {
	Interval     string `json:"interval,omitempty"`
	ProbeTimeout string `json:"probe_timeout,omitempty"`
	GuildsPath   string `json:"guilds_path,omitempty"`
}

// NotifierConfig controls status-change announcements.
// If the whole section is omitted, the notifier defaults to disabled.
type NotifierConfig struct {
	Enabled    bool `json:"enabled"`
	QueueSize  int  `json:"queue_size,omitempty"`
	RatePerSec int  `json:"rate_per_sec,omitempty"`
}

// StorageConfig controls the audit trail of configuration mutations.
type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"`

	// Retention is how long audit entries are kept ("720h" = 30 days).
	// Zero disables pruning.
	Retention string `json:"retention,omitempty"`
}
