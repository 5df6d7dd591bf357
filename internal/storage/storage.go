package storage

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"guildwatch/internal/events"
	"guildwatch/pkg/logx"
)

var (
	ErrDisabled = errors.New("storage disabled")
	ErrClosed   = errors.New("storage closed")
)

// Config configures storage.
//
// Driver values:
//   - "file": dependency-free jsonl backend
//   - "sqlite": SQLite database file
//
// If Driver is empty or "none", storage is disabled.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// TemplateSetting is one per-guild, per-category notification
// subscription. An empty Message means "use the category default".
type TemplateSetting struct {
	GuildID   string `json:"guild_id"`
	Category  string `json:"category"`
	ChannelID string `json:"channel_id"`
	Message   string `json:"message,omitempty"`
	Enabled   bool   `json:"enabled"`
}

// Store is the persistence API used by the handler, the reconciler and
// the notification resolver.
type Store interface {
	// AppendEvent durably records rec. The store assigns the ingestion
	// timestamp (and an ID if missing).
	AppendEvent(ctx context.Context, rec events.Record) error

	// GroupCountByKind counts all logged records grouped by kind. It
	// reflects every record committed before the call began and
	// returns an empty map (not an error) on an empty log.
	GroupCountByKind(ctx context.Context) (map[events.Kind]int64, error)

	ReadTemplate(ctx context.Context, guildID, category string) (TemplateSetting, bool, error)
	UpsertTemplate(ctx context.Context, s TemplateSetting) error

	Close() error
}

// Open initializes the configured store.
// It returns (nil, nil) if storage is disabled.
func Open(cfg Config, log logx.Logger) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" || driver == "none" {
		return nil, nil
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	switch driver {
	case "file":
		return openFile(cfg, log)
	case "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	default:
		return nil, errors.New("unknown storage driver: " + driver)
	}
}

// normalizeRecord fills the store-assigned fields of rec.
func normalizeRecord(rec events.Record) events.Record {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.At.IsZero() {
		rec.At = time.Now()
	}
	return rec
}

func templateKey(guildID, category string) string {
	return guildID + "|" + category
}
