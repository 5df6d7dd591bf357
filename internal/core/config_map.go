package core

import (
	"fmt"
	"strings"

	"guildwatch/internal/config"
	"guildwatch/internal/storage"
	"guildwatch/pkg/logx"
)

func mapLoggingConfig(in config.Logging) logx.Config {
	return logx.Config{
		Level:   in.Level,
		Console: in.Console,
		File: logx.FileConfig{
			Enabled: in.File.Enabled,
			Path:    in.File.Path,
		},
	}
}

func mapStorageConfig(in config.Storage) (storage.Config, error) {
	busy, err := parseDurationOrDefault("storage.busy_timeout", in.BusyTimeout, 0)
	if err != nil {
		return storage.Config{}, err
	}
	return storage.Config{
		Driver:      in.Driver,
		Path:        in.Path,
		BusyTimeout: busy,
	}, nil
}

// validateConfig rejects bad snapshots before they are committed, so a
// broken hot-reload can't take effect.
func validateConfig(cfg *config.Config) error {
	if _, err := parseDurationOrDefault("storage.busy_timeout", cfg.Storage.BusyTimeout, 0); err != nil {
		return err
	}
	if cfg.Gateway.Workers < 0 {
		return fmt.Errorf("gateway.workers must be >= 0")
	}
	if cfg.Gateway.QueueSize < 0 {
		return fmt.Errorf("gateway.queue_size must be >= 0")
	}
	if cfg.Notifier.RatePerSec < 0 {
		return fmt.Errorf("notifier.rate_per_sec must be >= 0")
	}
	if cfg.Stats.TopK < 0 {
		return fmt.Errorf("stats.top_k must be >= 0")
	}
	switch d := strings.ToLower(strings.TrimSpace(cfg.Storage.Driver)); d {
	case "", "none", "file", "sqlite", "sqlite3":
	default:
		return fmt.Errorf("storage.driver: unknown driver %q", d)
	}
	return nil
}
