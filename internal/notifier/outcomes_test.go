package notifier

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOutcomeFeedFansOut(t *testing.T) {
	var f outcomeFeed
	ch1, cancel1 := f.subscribe(4)
	ch2, cancel2 := f.subscribe(4)
	defer cancel1()
	defer cancel2()

	f.publish(Outcome{Kind: OutcomeSent, ChannelID: "55"})

	for i, ch := range []<-chan Outcome{ch1, ch2} {
		o := <-ch
		require.Equal(t, OutcomeSent, o.Kind, "subscriber %d", i)
		require.Equal(t, "55", o.ChannelID, "subscriber %d", i)
		require.False(t, o.At.IsZero(), "publish must stamp the outcome time")
	}
}

func TestOutcomeFeedDropsWhenSubscriberFull(t *testing.T) {
	var f outcomeFeed
	ch, cancel := f.subscribe(1)
	defer cancel()

	f.publish(Outcome{Kind: OutcomeSent, ChannelID: "a"})
	f.publish(Outcome{Kind: OutcomeSent, ChannelID: "b"}) // dropped, must not block

	o := <-ch
	require.Equal(t, "a", o.ChannelID)
	select {
	case extra := <-ch:
		t.Fatalf("unexpected second outcome %+v", extra)
	default:
	}
}

func TestOutcomeFeedCancelIsIdempotent(t *testing.T) {
	var f outcomeFeed
	ch, cancel := f.subscribe(1)
	cancel()
	cancel()

	// Publishing after cancel must not panic or deliver.
	f.publish(Outcome{Kind: OutcomeSent})
	select {
	case o := <-ch:
		t.Fatalf("cancelled subscriber received %+v", o)
	default:
	}
}
