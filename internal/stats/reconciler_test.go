package stats

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"guildwatch/internal/events"
)

type fakeGroupCounter struct {
	table map[events.Kind]int64
	err   error
	calls int
}

func (f *fakeGroupCounter) GroupCountByKind(ctx context.Context) (map[events.Kind]int64, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.table, nil
}

func TestAggregateAllSortsDescending(t *testing.T) {
	store := &fakeGroupCounter{table: map[events.Kind]int64{"A": 2, "B": 1, "C": 3}}
	r := NewReconciler(store)

	got, err := r.AggregateAll(context.Background())
	require.NoError(t, err)
	require.Equal(t, []Entry{{"C", 3}, {"A", 2}, {"B", 1}}, got)
}

func TestAggregateAllTieOrderIsStable(t *testing.T) {
	store := &fakeGroupCounter{table: map[events.Kind]int64{"B": 3, "A": 3, "D": 1, "C": 3}}
	r := NewReconciler(store)

	got, err := r.AggregateAll(context.Background())
	require.NoError(t, err)
	require.Equal(t, []Entry{{"A", 3}, {"B", 3}, {"C", 3}, {"D", 1}}, got)
}

func TestAggregateAllEmptyAndIdempotent(t *testing.T) {
	store := &fakeGroupCounter{table: map[events.Kind]int64{}}
	r := NewReconciler(store)

	first, err := r.AggregateAll(context.Background())
	require.NoError(t, err)
	require.Empty(t, first)

	second, err := r.AggregateAll(context.Background())
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 2, store.calls)
}

func TestAggregateAllNilStore(t *testing.T) {
	got, err := NewReconciler(nil).AggregateAll(context.Background())
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestAggregateAllPropagatesStoreError(t *testing.T) {
	wantErr := errors.New("log unavailable")
	r := NewReconciler(&fakeGroupCounter{err: wantErr})

	_, err := r.AggregateAll(context.Background())
	require.ErrorIs(t, err, wantErr)
}
