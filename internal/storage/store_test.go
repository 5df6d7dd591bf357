package storage

import (
	"context"
	"path/filepath"
	"testing"

	"guildwatch/internal/events"
	"guildwatch/pkg/logx"
)

// Both drivers implement the same contract; run the suite against each.
func openDrivers(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()

	fileStore, err := Open(Config{Driver: "file", Path: filepath.Join(dir, "gw")}, logx.Nop())
	if err != nil {
		t.Fatalf("open file store: %v", err)
	}
	sqlStore, err := Open(Config{Driver: "sqlite", Path: filepath.Join(dir, "gw.db")}, logx.Nop())
	if err != nil {
		t.Fatalf("open sqlite store: %v", err)
	}
	t.Cleanup(func() {
		_ = fileStore.Close()
		_ = sqlStore.Close()
	})
	return map[string]Store{"file": fileStore, "sqlite": sqlStore}
}

func TestGroupCountByKind(t *testing.T) {
	for name, st := range openDrivers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for _, k := range []events.Kind{"A", "A", "B", "C", "C", "C"} {
				if err := st.AppendEvent(ctx, events.Record{Kind: k}); err != nil {
					t.Fatalf("append: %v", err)
				}
			}

			got, err := st.GroupCountByKind(ctx)
			if err != nil {
				t.Fatalf("group count: %v", err)
			}
			want := map[events.Kind]int64{"A": 2, "B": 1, "C": 3}
			if len(got) != len(want) {
				t.Fatalf("got %v, want %v", got, want)
			}
			for k, n := range want {
				if got[k] != n {
					t.Fatalf("count[%s] = %d, want %d", k, got[k], n)
				}
			}

			// Idempotent with no intervening writes.
			again, err := st.GroupCountByKind(ctx)
			if err != nil {
				t.Fatalf("second group count: %v", err)
			}
			for k, n := range got {
				if again[k] != n {
					t.Fatalf("tables differ at %s: %d vs %d", k, n, again[k])
				}
			}
		})
	}
}

func TestGroupCountEmptyLog(t *testing.T) {
	for name, st := range openDrivers(t) {
		t.Run(name, func(t *testing.T) {
			got, err := st.GroupCountByKind(context.Background())
			if err != nil {
				t.Fatalf("group count on empty log: %v", err)
			}
			if len(got) != 0 {
				t.Fatalf("expected empty table, got %v", got)
			}
		})
	}
}

func TestAppendAssignsIngestionFields(t *testing.T) {
	for name, st := range openDrivers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if err := st.AppendEvent(ctx, events.Record{Kind: "READY"}); err != nil {
				t.Fatalf("append: %v", err)
			}
			got, err := st.GroupCountByKind(ctx)
			if err != nil {
				t.Fatalf("group count: %v", err)
			}
			if got["READY"] != 1 {
				t.Fatalf("record without id/timestamp was not stored: %v", got)
			}
		})
	}
}

func TestTemplateRoundTrip(t *testing.T) {
	for name, st := range openDrivers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			if _, ok, err := st.ReadTemplate(ctx, "100", "joins"); err != nil || ok {
				t.Fatalf("expected no template, got ok=%v err=%v", ok, err)
			}

			in := TemplateSetting{
				GuildID:   "100",
				Category:  "joins",
				ChannelID: "55",
				Message:   "hi {member}",
				Enabled:   true,
			}
			if err := st.UpsertTemplate(ctx, in); err != nil {
				t.Fatalf("upsert: %v", err)
			}
			got, ok, err := st.ReadTemplate(ctx, "100", "joins")
			if err != nil || !ok {
				t.Fatalf("read back: ok=%v err=%v", ok, err)
			}
			if got != in {
				t.Fatalf("got %+v, want %+v", got, in)
			}

			// Upsert overwrites in place.
			in.Enabled = false
			if err := st.UpsertTemplate(ctx, in); err != nil {
				t.Fatalf("second upsert: %v", err)
			}
			got, _, _ = st.ReadTemplate(ctx, "100", "joins")
			if got.Enabled {
				t.Fatal("expected updated setting to be disabled")
			}
		})
	}
}

func TestTemplateKeepsWhitespaceMessage(t *testing.T) {
	for name, st := range openDrivers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			in := TemplateSetting{
				GuildID:   "100",
				Category:  "leaves",
				ChannelID: "55",
				Message:   "   ",
				Enabled:   true,
			}
			if err := st.UpsertTemplate(ctx, in); err != nil {
				t.Fatalf("upsert: %v", err)
			}
			got, ok, err := st.ReadTemplate(ctx, "100", "leaves")
			if err != nil || !ok {
				t.Fatalf("read back: ok=%v err=%v", ok, err)
			}
			if got.Message != "   " {
				t.Fatalf("message = %q, want the whitespace preserved", got.Message)
			}
		})
	}
}

func TestOpenDisabled(t *testing.T) {
	for _, driver := range []string{"", "none"} {
		st, err := Open(Config{Driver: driver}, logx.Nop())
		if err != nil {
			t.Fatalf("driver %q: %v", driver, err)
		}
		if st != nil {
			t.Fatalf("driver %q: expected nil store", driver)
		}
	}
	if _, err := Open(Config{Driver: "bogus"}, logx.Nop()); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}
