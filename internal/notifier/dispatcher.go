package notifier

import (
	"context"
	"errors"

	"golang.org/x/time/rate"

	"guildwatch/internal/gateway"
	"guildwatch/pkg/logx"
)

var ErrNoSender = errors.New("no sender configured")

type DispatcherConfig struct {
	// RatePerSec caps outbound sends; burst equals the rate.
	RatePerSec int
}

// Dispatcher renders a resolved template and emits it to the platform
// send primitive. Each dispatch is one-shot: failures are reported to
// the caller and on the outcome feed, never retried, and never affect
// other in-flight dispatches.
type Dispatcher struct {
	sender   gateway.Sender
	log      logx.Logger
	limiter  *rate.Limiter
	outcomes outcomeFeed
}

func NewDispatcher(cfg DispatcherConfig, sender gateway.Sender, log logx.Logger) *Dispatcher {
	if log.IsZero() {
		log = logx.Nop()
	}
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 3
	}
	return &Dispatcher{
		sender:  sender,
		log:     log,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.RatePerSec),
	}
}

// Subscribe returns a feed of dispatch outcomes and a cancel func.
// Outcomes are dropped, not queued, when the subscriber falls behind.
func (d *Dispatcher) Subscribe(buf int) (<-chan Outcome, func()) {
	return d.outcomes.subscribe(buf)
}

// Dispatch substitutes fields into tmpl and sends the result to
// channelID. A missing template field is fatal to this dispatch only;
// nothing is emitted.
func (d *Dispatcher) Dispatch(ctx context.Context, channelID, tmpl string, fields map[string]string) error {
	text, err := Render(tmpl, fields)
	if err != nil {
		d.log.Warn("notification render failed",
			logx.String("channel_id", channelID),
			logx.Err(err))
		d.outcomes.publish(Outcome{Kind: OutcomeRenderError, ChannelID: channelID, Err: err})
		return err
	}

	if d.sender == nil {
		return ErrNoSender
	}
	if err := d.limiter.Wait(ctx); err != nil {
		return err
	}

	if err := d.sender.SendMessage(ctx, channelID, text); err != nil {
		d.log.Warn("notification send failed",
			logx.String("channel_id", channelID),
			logx.Err(err))
		d.outcomes.publish(Outcome{Kind: OutcomeSendError, ChannelID: channelID, Err: err})
		return err
	}

	d.log.Debug("notification sent", logx.String("channel_id", channelID))
	d.outcomes.publish(Outcome{Kind: OutcomeSent, ChannelID: channelID, Text: text})
	return nil
}
