package gateway

import (
	"context"
	"encoding/json"
	"sync/atomic"
)

// Frame is one raw push message from the platform socket.
//
// Op is always present. Type is the application event tag and may be
// empty for control frames. Data is the opaque event payload; its
// shape depends on the event and is decoded lazily downstream.
type Frame struct {
	Op   int             `json:"op"`
	Type string          `json:"t,omitempty"`
	Seq  int64           `json:"s,omitempty"`
	Data json.RawMessage `json:"d,omitempty"`
}

// Feed delivers frames from the platform. The stream is push-based and
// infinite; Run returns only when the feed ends or ctx is done.
type Feed interface {
	Run(ctx context.Context, out chan<- Frame) error
}

// Sender is the platform's send-message primitive.
type Sender interface {
	SendMessage(ctx context.Context, channelID string, text string) error
}

// Sequence tracks the most recent sequence number seen on the feed.
// It is a pass-through of connection state for the reporting layer.
type Sequence struct {
	v atomic.Int64
}

func NewSequence() *Sequence { return &Sequence{} }

// Observe records f's sequence number. Control frames without one
// (Seq == 0) leave the current value untouched.
func (s *Sequence) Observe(f Frame) {
	if f.Seq > 0 {
		s.v.Store(f.Seq)
	}
}

func (s *Sequence) Current() int64 { return s.v.Load() }
