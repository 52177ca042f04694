package alsaroute

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// pollInterval bounds how long Watch blocks before checking its context
const pollInterval = time.Second

// Watch subscribes to control events and calls callback for each element
// event until ctx is done or callback returns an error
func (m *Mixer) Watch(ctx context.Context, callback func(Event) error) (err error) {
	if m.dev == nil {
		return ErrClosed
	}

	if err := m.dev.Subscribe(true); err != nil {
		return err
	}
	defer func() {
		if uerr := m.dev.Subscribe(false); uerr != nil {
			err = multierr.Append(err, errors.Wrap(uerr, "unsubscribe events"))
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		ready, err := m.dev.Wait(pollInterval)
		if err != nil {
			return errors.Wrap(err, "wait for event")
		}
		if !ready {
			continue
		}

		// drain everything pending
		for {
			ev, ok, err := m.dev.ReadEvent()
			if err != nil {
				return err
			}
			if !ok {
				break
			}
			if callback != nil {
				if err := callback(ev); err != nil {
					return err
				}
			}
		}
	}
}
