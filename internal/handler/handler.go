// Package handler is the per-frame pipeline: classify, count, log,
// and notify.
package handler

import (
	"context"

	"guildwatch/internal/events"
	"guildwatch/internal/gateway"
	"guildwatch/internal/notifier"
	"guildwatch/internal/storage"
	"guildwatch/pkg/logx"
)

// Deps carries everything a handler invocation touches, instead of
// ambient globals. Store may be nil (persistence disabled).
type Deps struct {
	Log        logx.Logger
	Classifier *events.Classifier
	Counter    *events.Counter
	Store      storage.Store
	Resolver   *notifier.Resolver
	Dispatcher *notifier.Dispatcher
	Seq        *gateway.Sequence
}

type Handler struct {
	log        logx.Logger
	classifier *events.Classifier
	counter    *events.Counter
	store      storage.Store
	resolver   *notifier.Resolver
	dispatcher *notifier.Dispatcher
	seq        *gateway.Sequence
}

func New(d Deps) *Handler {
	if d.Log.IsZero() {
		d.Log = logx.Nop()
	}
	return &Handler{
		log:        d.Log,
		classifier: d.Classifier,
		counter:    d.Counter,
		store:      d.Store,
		resolver:   d.Resolver,
		dispatcher: d.Dispatcher,
		seq:        d.Seq,
	}
}

// HandleFrame processes one frame end to end. Multiple invocations may
// be in flight concurrently; the counter increment happens
// synchronously before any I/O so no suspension can lose it. Nothing
// here returns an error: every failure is reported and absorbed.
func (h *Handler) HandleFrame(ctx context.Context, f gateway.Frame) {
	if h.seq != nil {
		h.seq.Observe(f)
	}

	kind := h.classifier.Classify(f)
	h.counter.Increment(kind)

	rec := events.DeriveRecord(kind, f)
	// A heartbeat ack carries no sequence number of its own; its record
	// logs the connection's last observed one.
	if kind == events.KindHeartbeatAck && rec.Seq == 0 && h.seq != nil {
		rec.Seq = h.seq.Current()
	}

	// Log append is best-effort observability: a store failure must
	// not stop the notification flow.
	if h.store != nil {
		if err := h.store.AppendEvent(ctx, rec); err != nil {
			h.log.Warn("event append failed",
				logx.String("kind", string(kind)),
				logx.Err(err))
		}
	}

	if category, ok := notifier.CategoryForKind(kind); ok {
		h.notify(ctx, category, rec)
	}
}

// notify runs the Logged -> Notified transition for a lifecycle event.
// No subscription means the flow ends quietly; a failed dispatch is
// terminal (no retry).
func (h *Handler) notify(ctx context.Context, category string, rec events.Record) {
	sub, ok, err := h.resolver.Resolve(ctx, rec.GuildID, category)
	if err != nil {
		h.log.Warn("template lookup failed",
			logx.String("guild_id", rec.GuildID),
			logx.String("category", category),
			logx.Err(err))
		return
	}
	if !ok {
		return
	}

	fields := notifier.LifecycleFields(rec, sub.ChannelID)
	// Dispatch reports its own failures; the triggering event has
	// already been fully processed either way.
	_ = h.dispatcher.Dispatch(ctx, sub.ChannelID, sub.Template, fields)
}
