// Package stats rederives event statistics from the persistent log.
//
// The in-memory counter resets with the process; the log does not. The
// reconciler is the audit path that closes that gap.
package stats

import (
	"context"
	"sort"

	"guildwatch/internal/events"
)

// GroupCounter is the slice of the storage API the reconciler needs.
type GroupCounter interface {
	GroupCountByKind(ctx context.Context) (map[events.Kind]int64, error)
}

// Entry is one row of an aggregated frequency table.
type Entry struct {
	Kind  events.Kind
	Count int64
}

// Reconciler recomputes the full event-kind frequency table from the
// log. Unlike the in-memory counter it is consistent with the log at
// the instant of computation.
type Reconciler struct {
	store GroupCounter
}

func NewReconciler(store GroupCounter) *Reconciler {
	return &Reconciler{store: store}
}

// AggregateAll groups all logged records by kind and returns the table
// sorted descending by count (ties by kind for a stable order). An
// empty or disabled log yields an empty table, not an error.
func (r *Reconciler) AggregateAll(ctx context.Context) ([]Entry, error) {
	if r == nil || r.store == nil {
		return []Entry{}, nil
	}
	m, err := r.store.GroupCountByKind(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(m))
	for k, n := range m {
		out = append(out, Entry{Kind: k, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Kind < out[j].Kind
	})
	return out, nil
}
