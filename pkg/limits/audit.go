package limits

import (
	"fmt"

	"mercator-hq/turnstile/pkg/config"
	"mercator-hq/turnstile/pkg/limits/storage"
)

// OpenAudit creates the audit backend selected by cfg. It returns nil and
// no error for the "none" backend.
func OpenAudit(cfg config.AuditConfig) (storage.Backend, error) {
	switch cfg.Backend {
	case "", "none":
		return nil, nil
	case "memory":
		return storage.NewMemoryBackendWithConfig(storage.MemoryBackendConfig{
			MaxEntries: cfg.Memory.MaxEntries,
		}), nil
	case "sqlite":
		backend, err := storage.NewSQLiteBackendWithConfig(storage.SQLiteBackendConfig{
			DBPath:      cfg.SQLite.Path,
			BusyTimeout: cfg.SQLite.BusyTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite audit log: %w", err)
		}
		return backend, nil
	default:
		return nil, fmt.Errorf("unknown audit backend %q", cfg.Backend)
	}
}

// ConfigFrom builds a manager Config from file configuration. The caller
// supplies the audit backend, metrics and logger, which need resources the
// file configuration only describes.
func ConfigFrom(cfg *config.Config) Config {
	return Config{
		MaxRequests: cfg.Limiter.MaxRequests,
		Window:      cfg.Limiter.Window,
		Record:      RecordMode(cfg.Audit.Record),
		Retention:   cfg.Audit.Retention,
	}
}
