// Package events classifies raw gateway frames into canonical event
// kinds, counts them, and derives the flat records written to the
// persistent event log.
package events

import (
	"guildwatch/internal/gateway"
	"guildwatch/pkg/logx"
)

// Kind is the canonical classification symbol for a frame.
//
// The kind space is open: application event tags arrive as free-form
// strings from the feed and pass through unchanged, so Kind is a string
// type with well-known constants rather than a closed enum.
type Kind string

const (
	KindUnknown Kind = "UNKNOWN"

	// Synthetic names for control frames that carry no type tag.
	KindHeartbeatAck      Kind = "HEARTBEAT_ACK"
	KindReady             Kind = "READY"
	KindInvalidateSession Kind = "INVALIDATE_SESSION"
	KindReconnect         Kind = "RECONNECT"

	// Application events this system handles specially.
	KindMemberAdd      Kind = "GUILD_MEMBER_ADD"
	KindMemberRemove   Kind = "GUILD_MEMBER_REMOVE"
	KindBanAdd         Kind = "GUILD_BAN_ADD"
	KindBanRemove      Kind = "GUILD_BAN_REMOVE"
	KindPresenceUpdate Kind = "PRESENCE_UPDATE"
	KindTypingStart    Kind = "TYPING_START"
	KindMessageDelete  Kind = "MESSAGE_DELETE"
	KindMessageUpdate  Kind = "MESSAGE_UPDATE"
)

// controlOps maps op-codes of tagless control frames to their kinds.
var controlOps = map[int]Kind{
	11: KindHeartbeatAck,
	10: KindReady,
	9:  KindInvalidateSession,
	7:  KindReconnect,
}

// Classifier maps frames to kinds. Classification is total: every
// frame yields exactly one kind and never an error, so a bad frame can
// never abort the delivery loop.
type Classifier struct {
	log logx.Logger
}

func NewClassifier(log logx.Logger) *Classifier {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Classifier{log: log}
}

// Classify returns the kind for f.
//
// A non-empty type tag wins verbatim, known or not. Tagless frames
// resolve through the control op-code table; anything left over is
// KindUnknown, reported as a diagnostic rather than an error.
func (c *Classifier) Classify(f gateway.Frame) Kind {
	if f.Type != "" {
		return Kind(f.Type)
	}
	if k, ok := controlOps[f.Op]; ok {
		return k
	}
	c.log.Warn("unclassifiable frame",
		logx.Int("op", f.Op),
		logx.Int64("seq", f.Seq))
	return KindUnknown
}
