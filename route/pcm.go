package route

import (
	"github.com/gen2brain/alsa"
	"github.com/pkg/errors"
)

// PCM is an open PCM stream. The route layer only opens and closes streams.
type PCM interface {
	Close() error
}

// PCMOpener opens the PCM stream of one card/device
type PCMOpener interface {
	Open(card, device int, flags alsa.PcmFlag) (PCM, error)
}

// PCMOpenerFunc adapts a function to PCMOpener
type PCMOpenerFunc func(card, device int, flags alsa.PcmFlag) (PCM, error)

func (f PCMOpenerFunc) Open(card, device int, flags alsa.PcmFlag) (PCM, error) {
	return f(card, device, flags)
}

// ALSAOpener opens /dev/snd/pcmC<card>D<device>{p,c}. A nil Config uses the
// driver defaults.
type ALSAOpener struct {
	Config *alsa.Config
}

func (o ALSAOpener) Open(card, device int, flags alsa.PcmFlag) (PCM, error) {
	pcm, err := alsa.PcmOpen(uint(card), uint(device), flags, o.Config)
	if err != nil {
		return nil, errors.Wrapf(err, "open pcm card %d device %d", card, device)
	}
	return pcm, nil
}

// Slot indexes the PCM streams owned by a Manager
type Slot int

const (
	Device0Playback Slot = iota
	Device0Capture
	Device1Playback
	Device1Capture
	Device2Playback
	Device2Capture

	slotCount
)

func (s Slot) String() string {
	switch s {
	case Device0Playback:
		return "device 0 playback"
	case Device0Capture:
		return "device 0 capture"
	case Device1Playback:
		return "device 1 playback"
	case Device1Capture:
		return "device 1 capture"
	case Device2Playback:
		return "device 2 playback"
	case Device2Capture:
		return "device 2 capture"
	}
	return "unknown slot"
}

func (s Slot) device() int {
	return int(s) / 2
}

func (s Slot) flags(base alsa.PcmFlag) alsa.PcmFlag {
	if s%2 == 1 {
		return base | alsa.PCM_IN
	}
	return base &^ alsa.PCM_IN
}
