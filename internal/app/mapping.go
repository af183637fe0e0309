package app

import (
	"fmt"
	"strings"
	"time"

	"mcwatch/internal/config"
	"mcwatch/internal/notifier"
	"mcwatch/internal/storage"
	logx "mcwatch/pkg/logx"
)

func mapLogConfig(cfg *config.Config) logx.Config {
	return logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
		Discord: logx.DiscordConfig{
			Enabled:    cfg.Logging.Discord.Enabled,
			ChannelID:  cfg.Logging.Discord.ChannelID,
			MinLevel:   cfg.Logging.Discord.MinLevel,
			RatePerSec: cfg.Logging.Discord.RatePerSec,
		},
	}
}

func mapMonitorConfig(cfg *config.Config) (interval, probeTimeout time.Duration, guildsPath string, err error) {
	interval, err = config.ParseDurationOrDefault("monitor.interval", cfg.Monitor.Interval, defaultInterval)
	if err != nil {
		return 0, 0, "", err
	}
	probeTimeout, err = config.ParseDurationOrDefault("monitor.probe_timeout", cfg.Monitor.ProbeTimeout, defaultProbeTimeout)
	if err != nil {
		return 0, 0, "", err
	}
	guildsPath = strings.TrimSpace(cfg.Monitor.GuildsPath)
	if guildsPath == "" {
		guildsPath = defaultGuildsPath
	}
	return interval, probeTimeout, guildsPath, nil
}

func mapNotifierConfig(cfg *config.Config) (notifier.Config, error) {
	if cfg.Notifier == nil {
		return notifier.Config{}, nil
	}
	n := cfg.Notifier
	if n.QueueSize < 0 {
		return notifier.Config{}, fmt.Errorf("notifier.queue_size must be >= 0")
	}
	if n.RatePerSec < 0 {
		return notifier.Config{}, fmt.Errorf("notifier.rate_per_sec must be >= 0")
	}
	return notifier.Config{
		Enabled:    n.Enabled,
		QueueSize:  n.QueueSize,
		RatePerSec: n.RatePerSec,
	}, nil
}

func mapStorageConfig(cfg *config.Config) (storage.Config, time.Duration, error) {
	if cfg.Storage == nil {
		return storage.Config{}, 0, nil
	}
	s := cfg.Storage
	busy, err := config.ParseDurationField("storage.busy_timeout", s.BusyTimeout)
	if err != nil {
		return storage.Config{}, 0, err
	}
	retention, err := config.ParseDurationField("storage.retention", s.Retention)
	if err != nil {
		return storage.Config{}, 0, err
	}
	return storage.Config{
		Driver:      strings.TrimSpace(s.Driver),
		Path:        s.Path,
		BusyTimeout: busy,
	}, retention, nil
}

// validateConfig guards hot reloads: a file that fails here never replaces
// the running config.
func validateConfig(cfg *config.Config) error {
	if strings.TrimSpace(cfg.Discord.Token) == "" {
		return fmt.Errorf("discord.token must not be empty")
	}
	if _, _, _, err := mapMonitorConfig(cfg); err != nil {
		return err
	}
	if _, err := mapNotifierConfig(cfg); err != nil {
		return err
	}
	if _, _, err := mapStorageConfig(cfg); err != nil {
		return err
	}
	return nil
}
