package alsaroute_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/michaelquigley/alsaroute"
	"github.com/michaelquigley/alsaroute/ctltest"
)

func TestWatchDeliversEvents(t *testing.T) {
	m, dev := openMixer(t, ctltest.Integer("Speaker Playback Volume", 2, 0, 39))

	ctx, cancel := context.WithCancel(context.Background())
	events := make(chan alsaroute.Event, 4)
	done := make(chan error, 1)
	go func() {
		done <- m.Watch(ctx, func(ev alsaroute.Event) error {
			events <- ev
			return nil
		})
	}()

	sent := alsaroute.Event{NumID: 1, Mask: alsaroute.EventMaskValue, Name: "Speaker Playback Volume"}
	dev.Emit(sent)

	select {
	case ev := <-events:
		assert.Equal(t, sent, ev)
	case <-time.After(5 * time.Second):
		t.Fatal("no event delivered")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
	assert.False(t, dev.Subscribed)
}

func TestWatchCallbackError(t *testing.T) {
	m, dev := openMixer(t, ctltest.Boolean("Speaker Playback Switch", 2))
	stop := errors.New("stop")

	dev.Emit(alsaroute.Event{NumID: 1, Mask: alsaroute.EventMaskValue})
	err := m.Watch(context.Background(), func(alsaroute.Event) error { return stop })
	assert.ErrorIs(t, err, stop)
}

func TestWatchClosedMixer(t *testing.T) {
	m, _ := openMixer(t, ctltest.Boolean("Speaker Playback Switch", 2))
	require.NoError(t, m.Close())
	assert.ErrorIs(t, m.Watch(context.Background(), nil), alsaroute.ErrClosed)
}

func TestWatchUnsubscribeError(t *testing.T) {
	m, dev := openMixer(t, ctltest.Boolean("Speaker Playback Switch", 2))
	unsubscribe := errors.New("unsubscribe failed")
	dev.Fail = map[string]error{"unsubscribe": unsubscribe}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := m.Watch(ctx, nil)
	assert.ErrorIs(t, err, unsubscribe)

	stop := errors.New("stop")
	dev.Emit(alsaroute.Event{NumID: 1, Mask: alsaroute.EventMaskValue})
	err = m.Watch(context.Background(), func(alsaroute.Event) error { return stop })
	errs := multierr.Errors(err)
	require.Len(t, errs, 2)
	assert.Equal(t, stop, errs[0])
	assert.ErrorIs(t, errs[1], unsubscribe)
}

func TestWatchSubscribeError(t *testing.T) {
	m, dev := openMixer(t, ctltest.Boolean("Speaker Playback Switch", 2))
	subscribe := errors.New("subscribe failed")
	dev.Fail = map[string]error{"subscribe": subscribe}

	assert.ErrorIs(t, m.Watch(context.Background(), nil), subscribe)
	assert.False(t, dev.Subscribed)
}
