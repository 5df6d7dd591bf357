package notifier

import (
	"sync"
	"time"
)

// OutcomeKind classifies the result of one dispatch attempt.
type OutcomeKind string

const (
	OutcomeSent        OutcomeKind = "sent"
	OutcomeRenderError OutcomeKind = "render_error"
	OutcomeSendError   OutcomeKind = "send_error"
)

// Outcome reports how a single dispatch ended. Text is the rendered
// message for OutcomeSent; Err is set for the error kinds.
type Outcome struct {
	Kind      OutcomeKind
	At        time.Time
	ChannelID string
	Text      string
	Err       error
}

// outcomeFeed fans dispatch outcomes out to interested observers.
// Publishing never blocks: an observer that falls behind loses
// outcomes rather than stalling a dispatch, so the feed is a debug and
// metrics surface, not a delivery guarantee.
type outcomeFeed struct {
	mu   sync.Mutex
	subs []chan Outcome
}

func (f *outcomeFeed) publish(o Outcome) {
	o.At = time.Now()
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ch := range f.subs {
		select {
		case ch <- o:
		default:
		}
	}
}

// subscribe registers a buffered observer channel and returns it with
// a cancel func. Cancel is idempotent; the channel is never closed, it
// simply stops receiving.
func (f *outcomeFeed) subscribe(buf int) (<-chan Outcome, func()) {
	if buf <= 0 {
		buf = 1
	}
	ch := make(chan Outcome, buf)
	f.mu.Lock()
	f.subs = append(f.subs, ch)
	f.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			f.mu.Lock()
			defer f.mu.Unlock()
			for i, c := range f.subs {
				if c == ch {
					f.subs = append(f.subs[:i], f.subs[i+1:]...)
					return
				}
			}
		})
	}
	return ch, cancel
}
