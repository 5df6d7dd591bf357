package config

type Config struct {
	Logging  Logging  `json:"logging"`
	Storage  Storage  `json:"storage"`
	Gateway  Gateway  `json:"gateway"`
	Notifier Notifier `json:"notifier"`
	Stats    Stats    `json:"stats"`
}

type Logging struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// Storage controls the persistent event log and notification settings.
//
// Driver values:
//   - "file": dependency-free jsonl backend
//   - "sqlite": SQLite database file
//
// If Driver is empty or "none", persistence is disabled: events are
// still counted in memory, but nothing is logged and reconciliation
// reports an empty table.
type Storage struct {
	Driver string `json:"driver"`
	Path   string `json:"path"`
	// BusyTimeout is a Go duration string (e.g. "500ms"); sqlite only.
	BusyTimeout string `json:"busy_timeout,omitempty"`
}

// Gateway controls frame intake.
//
// FeedPath points at a jsonl frame file to replay. A live platform
// connection is injected by the embedding process instead.
type Gateway struct {
	FeedPath  string `json:"feed_path,omitempty"`
	Workers   int    `json:"workers,omitempty"`
	QueueSize int    `json:"queue_size,omitempty"`
}

type Notifier struct {
	// RatePerSec caps outbound notification sends (token bucket).
	RatePerSec int `json:"rate_per_sec,omitempty"`
}

// Stats controls the periodic reconciliation report.
type Stats struct {
	// ReportSchedule is a cron spec or descriptor (e.g. "@hourly").
	// Empty disables the report.
	ReportSchedule string `json:"report_schedule,omitempty"`
	TopK           int    `json:"top_k,omitempty"`
}
