package stats

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"guildwatch/internal/events"
	"guildwatch/pkg/logx"
)

type ReporterConfig struct {
	// Schedule is a cron spec or descriptor (e.g. "@hourly").
	// Empty disables the reporter.
	Schedule string
	TopK     int
}

// Reporter periodically logs the live top-K table next to the
// reconciled log totals, so counter drift after restarts is visible to
// operators.
type Reporter struct {
	log     logx.Logger
	rec     *Reconciler
	counter *events.Counter
	cfg     ReporterConfig

	mu sync.Mutex
	c  *cron.Cron
}

func NewReporter(cfg ReporterConfig, rec *Reconciler, counter *events.Counter, log logx.Logger) *Reporter {
	if log.IsZero() {
		log = logx.Nop()
	}
	if cfg.TopK <= 0 {
		cfg.TopK = 10
	}
	return &Reporter{log: log, rec: rec, counter: counter, cfg: cfg}
}

func (r *Reporter) Start() error {
	if r.cfg.Schedule == "" {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.c != nil {
		return nil
	}
	c := cron.New()
	if _, err := c.AddFunc(r.cfg.Schedule, r.report); err != nil {
		return fmt.Errorf("stats schedule %q: %w", r.cfg.Schedule, err)
	}
	c.Start()
	r.c = c
	r.log.Debug("report scheduled", logx.String("spec", r.cfg.Schedule))
	return nil
}

// Stop halts the schedule and waits for a running report, bounded by
// ctx.
func (r *Reporter) Stop(ctx context.Context) {
	r.mu.Lock()
	c := r.c
	r.c = nil
	r.mu.Unlock()
	if c == nil {
		return
	}
	select {
	case <-c.Stop().Done():
	case <-ctx.Done():
	}
}

func (r *Reporter) report() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	top := r.counter.TopK(r.cfg.TopK)
	table, err := r.rec.AggregateAll(ctx)
	if err != nil {
		r.log.Warn("reconciliation failed", logx.Err(err))
		return
	}

	var logTotal int64
	for _, e := range table {
		logTotal += e.Count
	}
	r.log.Info("event frequency report",
		logx.Int("live_kinds", len(top)),
		logx.Int("log_kinds", len(table)),
		logx.Int64("log_total", logTotal),
		logx.Any("top", top))
}
