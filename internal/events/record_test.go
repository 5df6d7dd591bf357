package events

import (
	"encoding/json"
	"testing"

	"guildwatch/internal/gateway"
)

func frame(t *testing.T, tag string, seq int64, payload any) gateway.Frame {
	t.Helper()
	d, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return gateway.Frame{Op: 0, Type: tag, Seq: seq, Data: d}
}

func TestDeriveRecordMemberAdd(t *testing.T) {
	f := frame(t, "GUILD_MEMBER_ADD", 42, map[string]any{
		"guild_id": "100",
		"user":     map[string]any{"id": "7", "username": "Ada"},
	})
	rec := DeriveRecord(KindMemberAdd, f)

	if rec.ID == "" {
		t.Fatal("record must get an id")
	}
	if rec.Kind != KindMemberAdd || rec.Seq != 42 {
		t.Fatalf("kind/seq = %q/%d", rec.Kind, rec.Seq)
	}
	if rec.GuildID != "100" || rec.MemberID != "7" || rec.MemberName != "Ada" {
		t.Fatalf("unexpected fields: %+v", rec)
	}
	if rec.ChannelID != "" {
		t.Fatalf("lifecycle record must not carry a channel id, got %q", rec.ChannelID)
	}
}

func TestDeriveRecordMessageUpdateUsesPayloadChannel(t *testing.T) {
	f := frame(t, "MESSAGE_UPDATE", 0, map[string]any{
		"guild_id":    "100",
		"channel_id":  "55",
		"content":     "new",
		"old_content": "old",
		"author":      map[string]any{"id": "7", "username": "Ada"},
	})
	rec := DeriveRecord(KindMessageUpdate, f)

	// The channel id comes from the payload's channel field, never
	// from the guild id.
	if rec.ChannelID != "55" {
		t.Fatalf("channel_id = %q, want 55", rec.ChannelID)
	}
	if rec.GuildID != "100" || rec.Content != "new" || rec.OldContent != "old" {
		t.Fatalf("unexpected fields: %+v", rec)
	}
	if rec.MemberName != "Ada" {
		t.Fatalf("member_name = %q", rec.MemberName)
	}
}

func TestDeriveRecordPresenceAndTyping(t *testing.T) {
	p := DeriveRecord(KindPresenceUpdate, frame(t, "PRESENCE_UPDATE", 0, map[string]any{
		"guild_id": "100",
		"user":     map[string]any{"id": "7"},
		"game":     map[string]any{"name": "chess"},
	}))
	if p.GuildID != "100" || p.MemberID != "7" || p.Game != "chess" {
		t.Fatalf("presence record: %+v", p)
	}

	ty := DeriveRecord(KindTypingStart, frame(t, "TYPING_START", 0, map[string]any{
		"channel_id": "55",
		"user":       map[string]any{"id": "7"},
	}))
	if ty.ChannelID != "55" || ty.MemberID != "7" {
		t.Fatalf("typing record: %+v", ty)
	}
}

func TestDeriveRecordToleratesGarbagePayload(t *testing.T) {
	rec := DeriveRecord(KindReady, gateway.Frame{Op: 10, Seq: 9, Data: json.RawMessage(`{{not json`)})
	if rec.Kind != KindReady || rec.Seq != 9 {
		t.Fatalf("record = %+v", rec)
	}
}
