package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"guildwatch/internal/events"
	"guildwatch/pkg/logx"
)

//go:embed migrations.sql
var migrationsFS embed.FS

type sqliteStore struct {
	db  *sql.DB
	log logx.Logger
}

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	path := cfg.Path
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	st := &sqliteStore{db: db, log: log}

	if cfg.BusyTimeout > 0 {
		ms := cfg.BusyTimeout.Milliseconds()
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", ms))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	if err := st.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return st, nil
}

func (s *sqliteStore) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqliteStore) AppendEvent(ctx context.Context, rec events.Record) error {
	if s == nil || s.db == nil {
		return ErrClosed
	}
	rec = normalizeRecord(rec)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO events(id, kind, at, seq, member_id, member_name, guild_id, channel_id, content, old_content, game)
		 VALUES(?,?,?,?,?,?,?,?,?,?,?)`,
		rec.ID, string(rec.Kind), rec.At.Format(time.RFC3339Nano), rec.Seq,
		nullStr(rec.MemberID), nullStr(rec.MemberName), nullStr(rec.GuildID), nullStr(rec.ChannelID),
		nullStr(rec.Content), nullStr(rec.OldContent), nullStr(rec.Game),
	)
	return err
}

func (s *sqliteStore) GroupCountByKind(ctx context.Context) (map[events.Kind]int64, error) {
	if s == nil || s.db == nil {
		return nil, ErrClosed
	}
	rows, err := s.db.QueryContext(ctx, `SELECT kind, COUNT(*) FROM events GROUP BY kind`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[events.Kind]int64{}
	for rows.Next() {
		var kind string
		var n int64
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, err
		}
		out[events.Kind(kind)] = n
	}
	return out, rows.Err()
}

func (s *sqliteStore) ReadTemplate(ctx context.Context, guildID, category string) (TemplateSetting, bool, error) {
	if s == nil || s.db == nil {
		return TemplateSetting{}, false, ErrClosed
	}
	var (
		channelID string
		message   sql.NullString
		enabled   int
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT channel_id, message, enabled FROM event_setting WHERE guild_id = ? AND category = ?`,
		guildID, category,
	).Scan(&channelID, &message, &enabled)
	if errors.Is(err, sql.ErrNoRows) {
		return TemplateSetting{}, false, nil
	}
	if err != nil {
		return TemplateSetting{}, false, err
	}
	return TemplateSetting{
		GuildID:   guildID,
		Category:  category,
		ChannelID: channelID,
		Message:   message.String,
		Enabled:   enabled != 0,
	}, true, nil
}

func (s *sqliteStore) UpsertTemplate(ctx context.Context, t TemplateSetting) error {
	if s == nil || s.db == nil {
		return ErrClosed
	}
	enabled := 0
	if t.Enabled {
		enabled = 1
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO event_setting(guild_id, category, channel_id, message, enabled) VALUES(?,?,?,?,?)
		 ON CONFLICT(guild_id, category) DO UPDATE SET
		   channel_id=excluded.channel_id, message=excluded.message, enabled=excluded.enabled`,
		t.GuildID, t.Category, t.ChannelID, nullStr(t.Message), enabled,
	)
	return err
}

// nullStr maps only the empty string to NULL. Whitespace is kept:
// a message body of spaces is still content.
func nullStr(v string) any {
	if v == "" {
		return nil
	}
	return v
}
