package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"guildwatch/internal/gateway"
)

// Record is the canonical event record written to the persistent log.
// All fields after Kind are optional and kind-dependent. At is the
// ingestion timestamp; the store assigns it if left zero. Records are
// immutable once constructed.
type Record struct {
	ID         string    `json:"id"`
	Kind       Kind      `json:"kind"`
	At         time.Time `json:"at"`
	Seq        int64     `json:"seq,omitempty"`
	MemberID   string    `json:"member_id,omitempty"`
	MemberName string    `json:"member_name,omitempty"`
	GuildID    string    `json:"guild_id,omitempty"`
	ChannelID  string    `json:"channel_id,omitempty"`
	Content    string    `json:"content,omitempty"`
	OldContent string    `json:"old_content,omitempty"`
	Game       string    `json:"game,omitempty"`
}

// framePayload is the lenient shape we decode event payloads into.
// Unknown keys are ignored; absent keys stay zero.
type framePayload struct {
	GuildID    string       `json:"guild_id"`
	ChannelID  string       `json:"channel_id"`
	Content    string       `json:"content"`
	OldContent string       `json:"old_content"`
	User       *payloadUser `json:"user"`
	Author     *payloadUser `json:"author"`
	Member     *struct {
		User *payloadUser `json:"user"`
	} `json:"member"`
	Game *struct {
		Name string `json:"name"`
	} `json:"game"`
}

type payloadUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

func (p *framePayload) user() *payloadUser {
	switch {
	case p.User != nil:
		return p.User
	case p.Author != nil:
		return p.Author
	case p.Member != nil && p.Member.User != nil:
		return p.Member.User
	}
	return nil
}

// DeriveRecord builds the canonical record for a classified frame.
// Field extraction is best-effort: an undecodable payload yields a
// record with just the kind and sequence number, never an error.
func DeriveRecord(kind Kind, f gateway.Frame) Record {
	rec := Record{
		ID:   uuid.NewString(),
		Kind: kind,
		Seq:  f.Seq,
	}

	var p framePayload
	if len(f.Data) > 0 {
		_ = json.Unmarshal(f.Data, &p)
	}
	u := p.user()

	switch kind {
	case KindPresenceUpdate:
		rec.GuildID = p.GuildID
		if u != nil {
			rec.MemberID = u.ID
		}
		if p.Game != nil {
			rec.Game = p.Game.Name
		}
	case KindTypingStart:
		rec.ChannelID = p.ChannelID
		if u != nil {
			rec.MemberID = u.ID
		}
	case KindMessageDelete, KindMessageUpdate:
		rec.GuildID = p.GuildID
		rec.ChannelID = p.ChannelID
		rec.Content = p.Content
		if kind == KindMessageUpdate {
			rec.OldContent = p.OldContent
		}
		if u != nil {
			rec.MemberID = u.ID
			rec.MemberName = u.Username
		}
	case KindMemberAdd, KindMemberRemove, KindBanAdd, KindBanRemove:
		rec.GuildID = p.GuildID
		if u != nil {
			rec.MemberID = u.ID
			rec.MemberName = u.Username
		}
	case KindHeartbeatAck:
		// The ack frame itself is empty; the caller fills Seq from
		// connection state.
	default:
		rec.GuildID = p.GuildID
		rec.ChannelID = p.ChannelID
		if u != nil {
			rec.MemberID = u.ID
			rec.MemberName = u.Username
		}
	}
	return rec
}
