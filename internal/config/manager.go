package config

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	yaml "go.yaml.in/yaml/v3"

	"guildwatch/pkg/logx"
)

// Manager loads the config file, serves the current snapshot, and
// republishes on file changes. Reloads are transactional: a snapshot
// that fails validation is rejected and the previous one stays live.
type Manager struct {
	path string

	mu       sync.RWMutex
	cfg      *Config
	subs     []chan *Config
	log      logx.Logger
	validate func(*Config) error
}

func NewManager(path string) *Manager {
	return &Manager{path: path}
}

func (m *Manager) SetLogger(log logx.Logger) {
	m.mu.Lock()
	m.log = log
	m.mu.Unlock()
}

// SetValidator installs a check run before a loaded config is committed.
func (m *Manager) SetValidator(fn func(*Config) error) {
	m.mu.Lock()
	m.validate = fn
	m.mu.Unlock()
}

func (m *Manager) Load() (*Config, error) {
	raw, err := os.ReadFile(m.path)
	if err != nil {
		return nil, err
	}
	cfg, err := decodeStrict(raw)
	if err != nil {
		return nil, fmt.Errorf("decode config %s: %w", m.path, err)
	}

	m.mu.RLock()
	validate := m.validate
	m.mu.RUnlock()
	if validate != nil {
		if err := validate(cfg); err != nil {
			return nil, fmt.Errorf("config rejected: %w", err)
		}
	}

	m.mu.Lock()
	m.cfg = cfg
	m.mu.Unlock()
	return cfg, nil
}

// decodeStrict parses raw into a Config and rejects unknown fields.
// YAML input is rewritten through JSON first, since only the JSON
// decoder can check keys against the struct. The format is detected
// from the content, not the file name: a document opening with '{' is
// JSON, anything else is YAML.
func decodeStrict(raw []byte) (*Config, error) {
	doc := bytes.TrimSpace(raw)
	if len(doc) == 0 {
		return &Config{}, nil
	}

	if doc[0] != '{' {
		var tree any
		if err := yaml.Unmarshal(doc, &tree); err != nil {
			return nil, err
		}
		j, err := json.Marshal(tree)
		if err != nil {
			return nil, fmt.Errorf("yaml document is not config-shaped: %w", err)
		}
		doc = j
	}

	dec := json.NewDecoder(bytes.NewReader(doc))
	dec.DisallowUnknownFields()
	cfg := &Config{}
	if err := dec.Decode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg
}

func (m *Manager) Subscribe(buffer int) <-chan *Config {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan *Config, buffer)
	m.mu.Lock()
	m.subs = append(m.subs, ch)
	m.mu.Unlock()
	return ch
}

func (m *Manager) publish(cfg *Config) {
	m.mu.RLock()
	subs := append([]chan *Config{}, m.subs...)
	m.mu.RUnlock()
	for _, ch := range subs {
		select {
		case ch <- cfg:
		default:
			// drop for slow subscribers
		}
	}
}

// Watch blocks until ctx is done, republishing the config whenever the
// file changes. Writes are debounced to avoid reading partial saves.
func (m *Manager) Watch(ctx context.Context) error {
	dir := filepath.Dir(m.path)
	file := filepath.Base(m.path)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return err
	}

	var (
		timerMu sync.Mutex
		timer   *time.Timer
	)
	debounce := func() {
		timerMu.Lock()
		defer timerMu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(250*time.Millisecond, func() {
			cfg, err := m.Load()
			if err != nil {
				m.mu.RLock()
				log := m.log
				m.mu.RUnlock()
				log.Warn("config reload failed; keeping previous config", logx.Err(err))
				return
			}
			m.publish(cfg)
		})
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-w.Events:
			if ev.Name == filepath.Join(dir, file) {
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
					debounce()
				}
			}
		case <-w.Errors:
			// keep watching
		}
	}
}
