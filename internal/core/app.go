package core

import (
	"context"
	"fmt"
	"time"

	"guildwatch/internal/config"
	"guildwatch/internal/events"
	"guildwatch/internal/gateway"
	"guildwatch/internal/handler"
	"guildwatch/internal/notifier"
	"guildwatch/internal/runtime/supervisor"
	"guildwatch/internal/stats"
	"guildwatch/internal/storage"
	"guildwatch/pkg/logx"
)

// Options injects the platform collaborators. Both are optional: a
// missing Feed falls back to the configured replay file (or no intake
// at all), a missing Sender to dry-run logging.
type Options struct {
	Feed   gateway.Feed
	Sender gateway.Sender
}

type App struct {
	cfgm *config.Manager
	logs *logx.Service
	log  logx.Logger

	store      storage.Store
	counter    *events.Counter
	seq        *gateway.Sequence
	handler    *handler.Handler
	dispatcher *notifier.Dispatcher
	reconciler *stats.Reconciler
	reporter   *stats.Reporter

	feed    gateway.Feed
	frames  chan gateway.Frame
	workers int

	sup *supervisor.Supervisor
}

func New(cfgPath string, opts Options) (*App, error) {
	cfgm := config.NewManager(cfgPath)
	cfgm.SetValidator(validateConfig)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}

	logs, log := logx.New(mapLoggingConfig(cfg.Logging))
	log = log.With(logx.String("comp", "app"))
	cfgm.SetLogger(log.With(logx.String("comp", "config")))

	storeCfg, err := mapStorageConfig(cfg.Storage)
	if err != nil {
		return nil, err
	}
	st, err := storage.Open(storeCfg, logs.Logger().With(logx.String("comp", "storage")))
	if err != nil {
		return nil, err
	}
	if st == nil {
		log.Warn("storage disabled; event log and notification settings unavailable")
	}

	counter := events.NewCounter()
	seq := gateway.NewSequence()
	classifier := events.NewClassifier(logs.Logger().With(logx.String("comp", "classify")))

	sender := opts.Sender
	if sender == nil {
		sender = gateway.NewLogSender(logs.Logger().With(logx.String("comp", "sender")))
	}
	dispatcher := notifier.NewDispatcher(
		notifier.DispatcherConfig{RatePerSec: cfg.Notifier.RatePerSec},
		sender, logs.Logger().With(logx.String("comp", "notifier")),
	)
	resolver := notifier.NewResolver(st)

	h := handler.New(handler.Deps{
		Log:        logs.Logger().With(logx.String("comp", "handler")),
		Classifier: classifier,
		Counter:    counter,
		Store:      st,
		Resolver:   resolver,
		Dispatcher: dispatcher,
		Seq:        seq,
	})

	reconciler := stats.NewReconciler(st)
	reporter := stats.NewReporter(stats.ReporterConfig{
		Schedule: cfg.Stats.ReportSchedule,
		TopK:     cfg.Stats.TopK,
	}, reconciler, counter, logs.Logger().With(logx.String("comp", "stats")))

	feed := opts.Feed
	if feed == nil && cfg.Gateway.FeedPath != "" {
		feed = gateway.NewFileFeed(cfg.Gateway.FeedPath, logs.Logger().With(logx.String("comp", "gateway")))
	}

	queue := cfg.Gateway.QueueSize
	if queue <= 0 {
		queue = 256
	}
	workers := cfg.Gateway.Workers
	if workers <= 0 {
		workers = 4
	}

	return &App{
		cfgm:       cfgm,
		logs:       logs,
		log:        log,
		store:      st,
		counter:    counter,
		seq:        seq,
		handler:    h,
		dispatcher: dispatcher,
		reconciler: reconciler,
		reporter:   reporter,
		feed:       feed,
		frames:     make(chan gateway.Frame, queue),
		workers:    workers,
	}, nil
}

// Counter exposes the live frequency table to the reporting layer.
func (a *App) Counter() *events.Counter { return a.counter }

// Reconciler exposes the log-backed aggregation to the reporting layer.
func (a *App) Reconciler() *stats.Reconciler { return a.reconciler }

// Sequence returns the most recent gateway sequence number.
func (a *App) Sequence() int64 { return a.seq.Current() }

// Outcomes exposes notification dispatch outcomes for observers.
func (a *App) Outcomes(buf int) (<-chan notifier.Outcome, func()) {
	return a.dispatcher.Subscribe(buf)
}

func (a *App) Start(ctx context.Context) error {
	a.sup = supervisor.New(ctx,
		supervisor.WithLogger(a.log),
		supervisor.WithCancelOnError(false))

	if err := a.reporter.Start(); err != nil {
		return err
	}

	if a.feed != nil {
		a.sup.Go("gateway.feed", func(c context.Context) error {
			return a.feed.Run(c, a.frames)
		})
	}
	for i := 0; i < a.workers; i++ {
		a.sup.Go0(fmt.Sprintf("events.worker.%d", i), a.workerLoop)
	}

	// Debug visibility into notification outcomes.
	outcomes, cancelOutcomes := a.dispatcher.Subscribe(16)
	a.sup.Go0("notify.outcomes", func(c context.Context) {
		defer cancelOutcomes()
		for {
			select {
			case <-c.Done():
				return
			case o := <-outcomes:
				a.log.Debug("dispatch outcome",
					logx.String("kind", string(o.Kind)),
					logx.String("channel_id", o.ChannelID),
					logx.Err(o.Err))
			}
		}
	})

	// Config hot reload: apply logging changes live; structural
	// sections (storage driver, worker counts) need a restart.
	sub := a.cfgm.Subscribe(8)
	a.sup.Go0("config.reload", func(c context.Context) {
		for {
			select {
			case <-c.Done():
				return
			case newCfg, ok := <-sub:
				if !ok {
					return
				}
				a.logs.Apply(mapLoggingConfig(newCfg.Logging))
				a.log.Info("config reloaded")
			}
		}
	})
	a.sup.Go("config.watch", a.cfgm.Watch)

	a.log.Info("started",
		logx.Int("workers", a.workers),
		logx.Bool("feed", a.feed != nil),
		logx.Bool("storage", a.store != nil))
	return nil
}

func (a *App) workerLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case f, ok := <-a.frames:
			if !ok {
				return
			}
			a.handler.HandleFrame(ctx, f)
		}
	}
}

func (a *App) Stop(ctx context.Context) error {
	if a.sup == nil {
		return nil
	}
	a.log.Info("stopping")
	a.sup.Cancel()

	// Bounded shutdown steps so one component can't stall the stop.
	step := func(name string, max time.Duration, fn func(context.Context) error) {
		stepCtx, cancel := context.WithTimeout(ctx, max)
		defer cancel()
		start := time.Now()
		if err := fn(stepCtx); err != nil {
			a.log.Warn("stop step error", logx.String("name", name), logx.Err(err))
		}
		a.log.Debug("stop step done", logx.String("name", name), logx.Duration("took", time.Since(start)))
	}

	step("reporter", 2*time.Second, func(c context.Context) error {
		a.reporter.Stop(c)
		return nil
	})
	step("supervisor", 3*time.Second, a.sup.Wait)
	if a.store != nil {
		step("storage", 2*time.Second, func(context.Context) error {
			return a.store.Close()
		})
	}

	a.log.Info("stopped")
	return a.logs.Close()
}
