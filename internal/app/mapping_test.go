package app

import (
	"testing"
	"time"

	"mcwatch/internal/config"
)

func TestMapMonitorConfigDefaults(t *testing.T) {
	t.Parallel()

	interval, probeTimeout, guildsPath, err := mapMonitorConfig(&config.Config{})
	if err != nil {
		t.Fatalf("mapMonitorConfig: %v", err)
	}
	if interval != defaultInterval || probeTimeout != defaultProbeTimeout || guildsPath != defaultGuildsPath {
		t.Fatalf("got %v %v %q", interval, probeTimeout, guildsPath)
	}
}

func TestMapMonitorConfigParsesDurations(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{}
	cfg.Monitor.Interval = "30s"
	cfg.Monitor.ProbeTimeout = "1500ms"
	cfg.Monitor.GuildsPath = "/var/lib/mcwatch/guilds.json"

	interval, probeTimeout, guildsPath, err := mapMonitorConfig(cfg)
	if err != nil {
		t.Fatalf("mapMonitorConfig: %v", err)
	}
	if interval != 30*time.Second || probeTimeout != 1500*time.Millisecond {
		t.Fatalf("got %v %v", interval, probeTimeout)
	}
	if guildsPath != "/var/lib/mcwatch/guilds.json" {
		t.Fatalf("guildsPath = %q", guildsPath)
	}
}

func TestMapMonitorConfigRejectsBadDuration(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{}
	cfg.Monitor.Interval = "soon"
	if _, _, _, err := mapMonitorConfig(cfg); err == nil {
		t.Fatal("expected error for invalid duration")
	}
}

func TestValidateConfig(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{}
	if err := validateConfig(cfg); err == nil {
		t.Fatal("expected error for empty token")
	}

	cfg.Discord.Token = "token"
	if err := validateConfig(cfg); err != nil {
		t.Fatalf("validateConfig: %v", err)
	}

	cfg.Storage = &config.StorageConfig{Driver: "file", Path: "audit.jsonl", Retention: "30 days"}
	if err := validateConfig(cfg); err == nil {
		t.Fatal("expected error for invalid retention")
	}
	cfg.Storage.Retention = "720h"
	if err := validateConfig(cfg); err != nil {
		t.Fatalf("validateConfig: %v", err)
	}
}

func TestMapStorageConfig(t *testing.T) {
	t.Parallel()

	sc, retention, err := mapStorageConfig(&config.Config{})
	if err != nil || sc.Driver != "" || retention != 0 {
		t.Fatalf("got %+v %v %v", sc, retention, err)
	}

	cfg := &config.Config{Storage: &config.StorageConfig{
		Driver: " sqlite ", Path: "audit.db", BusyTimeout: "2s", Retention: "720h",
	}}
	sc, retention, err = mapStorageConfig(cfg)
	if err != nil {
		t.Fatalf("mapStorageConfig: %v", err)
	}
	if sc.Driver != "sqlite" || sc.BusyTimeout != 2*time.Second || retention != 720*time.Hour {
		t.Fatalf("got %+v %v", sc, retention)
	}
}
