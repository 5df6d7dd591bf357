package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"guildwatch/internal/events"
	"guildwatch/pkg/logx"
)

// fileStore is a dependency-free persistence backend.
//
// Files:
//   - <prefix>.events.jsonl    (append-only JSON Lines event log)
//   - <prefix>.templates.json  (notification settings snapshot)
//
// The templates snapshot is rewritten atomically on every upsert;
// settings writes are rare, so there is no journal.
type fileStore struct {
	log logx.Logger

	mu sync.Mutex

	eventsPath string
	eventsFile *os.File

	templatesPath string
	templates     map[string]TemplateSetting
}

func openFile(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("storage.path is required for file driver")
	}

	dir := filepath.Dir(path)
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	prefix := filepath.Join(dir, base)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	eventsPath := prefix + ".events.jsonl"
	templatesPath := prefix + ".templates.json"

	ef, err := os.OpenFile(eventsPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, err
	}

	templates := map[string]TemplateSetting{}
	if err := loadTemplates(templatesPath, templates); err != nil && !os.IsNotExist(err) {
		log.Warn("templates snapshot unreadable; starting empty", logx.Err(err))
	}

	return &fileStore{
		log:           log,
		eventsPath:    eventsPath,
		eventsFile:    ef,
		templatesPath: templatesPath,
		templates:     templates,
	}, nil
}

func (s *fileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.eventsFile != nil {
		err := s.eventsFile.Close()
		s.eventsFile = nil
		return err
	}
	return nil
}

func (s *fileStore) AppendEvent(ctx context.Context, rec events.Record) error {
	_ = ctx
	rec = normalizeRecord(rec)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.eventsFile == nil {
		return ErrClosed
	}
	return json.NewEncoder(s.eventsFile).Encode(rec)
}

func (s *fileStore) GroupCountByKind(ctx context.Context) (map[events.Kind]int64, error) {
	_ = ctx
	f, err := os.Open(s.eventsPath)
	if err != nil {
		if os.IsNotExist(err) {
			return map[events.Kind]int64{}, nil
		}
		return nil, err
	}
	defer f.Close()

	out := map[events.Kind]int64{}
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		// Only the kind matters here; a torn trailing line is skipped.
		var row struct {
			Kind string `json:"kind"`
		}
		if err := json.Unmarshal(sc.Bytes(), &row); err != nil || row.Kind == "" {
			continue
		}
		out[events.Kind(row.Kind)]++
	}
	return out, sc.Err()
}

func (s *fileStore) ReadTemplate(ctx context.Context, guildID, category string) (TemplateSetting, bool, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.templates[templateKey(guildID, category)]
	return t, ok, nil
}

func (s *fileStore) UpsertTemplate(ctx context.Context, t TemplateSetting) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	s.templates[templateKey(t.GuildID, t.Category)] = t
	return s.writeTemplatesLocked()
}

func (s *fileStore) writeTemplatesLocked() error {
	tmp := s.templatesPath + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	if err := json.NewEncoder(f).Encode(s.templates); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, s.templatesPath)
}

func loadTemplates(path string, out map[string]TemplateSetting) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	var m map[string]TemplateSetting
	if err := json.NewDecoder(f).Decode(&m); err != nil {
		return err
	}
	for k, v := range m {
		out[k] = v
	}
	return nil
}
