package notifier

import (
	"errors"
	"testing"

	"guildwatch/internal/events"
)

func TestRenderSubstitutes(t *testing.T) {
	got, err := Render("Welcome {member}!", map[string]string{"member": "Ada"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "Welcome Ada!" {
		t.Fatalf("got %q", got)
	}
}

func TestRenderMissingFieldEmitsNothing(t *testing.T) {
	got, err := Render("Welcome {member}!", map[string]string{})
	if !errors.Is(err, ErrMissingField) {
		t.Fatalf("err = %v, want ErrMissingField", err)
	}
	if got != "" {
		t.Fatalf("expected empty output on missing field, got %q", got)
	}
}

func TestRenderMultiplePlaceholders(t *testing.T) {
	fields := map[string]string{"member": "Ada", "server": "100"}
	got, err := Render("{member} joined {server}", fields)
	if err != nil || got != "Ada joined 100" {
		t.Fatalf("got %q err=%v", got, err)
	}

	// One missing out of two still fails the whole render.
	if _, err := Render("{member} left {channel}", fields); !errors.Is(err, ErrMissingField) {
		t.Fatalf("err = %v, want ErrMissingField", err)
	}
}

func TestRenderLeavesPlainTextAlone(t *testing.T) {
	got, err := Render("no placeholders here", nil)
	if err != nil || got != "no placeholders here" {
		t.Fatalf("got %q err=%v", got, err)
	}
}

func TestLifecycleFieldsSkipsAbsentValues(t *testing.T) {
	rec := events.Record{Kind: events.KindMemberAdd, MemberID: "7", GuildID: "100"}
	f := LifecycleFields(rec, "55")

	if _, ok := f["member"]; ok {
		t.Fatal("member key must be absent when the name is unknown")
	}
	if f["member_id"] != "7" || f["server"] != "100" || f["channel"] != "55" {
		t.Fatalf("fields = %v", f)
	}
}
