// Package route maps logical audio routes onto mixer control settings and
// PCM streams.
package route

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/michaelquigley/alsaroute"
)

// Route is a logical routing use case
type Route int

const (
	SpeakerNormal Route = iota
	SpeakerIncall
	SpeakerRingtone
	SpeakerVoip

	EarpieceNormal
	EarpieceIncall
	EarpieceRingtone
	EarpieceVoip

	HeadphoneNormal
	HeadphoneIncall
	HeadphoneRingtone
	SpeakerHeadphoneNormal
	SpeakerHeadphoneRingtone
	HeadphoneVoip

	HeadsetNormal
	HeadsetIncall
	HeadsetRingtone
	HeadsetVoip

	BluetoothNormal
	BluetoothIncall
	BluetoothVoip

	MainMicCapture
	HandsFreeMicCapture
	BluetoothSCOMicCapture

	PlaybackOff
	CaptureOff
	IncallOff
	VoipOff

	HDMINormal

	USBNormal
	USBCapture

	MaxRoute
)

var routeKeys = [MaxRoute]string{
	"speaker_normal",
	"speaker_incall",
	"speaker_ringtone",
	"speaker_voip",
	"earpiece_normal",
	"earpiece_incall",
	"earpiece_ringtone",
	"earpiece_voip",
	"headphone_normal",
	"headphone_incall",
	"headphone_ringtone",
	"speaker_headphone_normal",
	"speaker_headphone_ringtone",
	"headphone_voip",
	"headset_normal",
	"headset_incall",
	"headset_ringtone",
	"headset_voip",
	"bluetooth_normal",
	"bluetooth_incall",
	"bluetooth_voip",
	"main_mic_capture",
	"hands_free_mic_capture",
	"bluetooth_sco_mic_capture",
	"playback_off",
	"capture_off",
	"incall_off",
	"voip_off",
	"hdmi_normal",
	"usb_normal",
	"usb_capture",
}

// Valid reports whether r names a route
func (r Route) Valid() bool {
	return r >= 0 && r < MaxRoute
}

// Key returns the table key of the route, e.g. "speaker_normal"
func (r Route) Key() string {
	if !r.Valid() {
		return ""
	}
	return routeKeys[r]
}

func (r Route) String() string {
	if !r.Valid() {
		return fmt.Sprintf("Route(%d)", int(r))
	}
	parts := strings.Split(routeKeys[r], "_")
	for i, p := range parts {
		switch p {
		case "hdmi", "usb", "sco":
			parts[i] = strings.ToUpper(p)
		default:
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, "")
}

// ParseRoute resolves a route from its key, its String form or its number
func ParseRoute(s string) (Route, error) {
	for r := Route(0); r < MaxRoute; r++ {
		if strings.EqualFold(s, r.Key()) || strings.EqualFold(s, r.String()) {
			return r, nil
		}
	}
	if n, err := strconv.Atoi(s); err == nil && Route(n).Valid() {
		return Route(n), nil
	}
	return 0, errors.Wrapf(alsaroute.ErrInvalidArgument, "unknown route %q", s)
}

// Routes returns every route in id order
func Routes() []Route {
	routes := make([]Route, MaxRoute)
	for i := range routes {
		routes[i] = Route(i)
	}
	return routes
}

// Direction is the stream direction a route drives
type Direction int

const (
	DirectionNone Direction = iota
	DirectionPlayback
	DirectionCapture
)

func (d Direction) String() string {
	switch d {
	case DirectionPlayback:
		return "playback"
	case DirectionCapture:
		return "capture"
	default:
		return "none"
	}
}

// Direction classifies the route. Off routes have no stream direction.
func (r Route) Direction() Direction {
	switch r {
	case MainMicCapture, HandsFreeMicCapture, BluetoothSCOMicCapture, USBCapture:
		return DirectionCapture
	case PlaybackOff, CaptureOff, IncallOff, VoipOff:
		return DirectionNone
	}
	if r.Valid() {
		return DirectionPlayback
	}
	return DirectionNone
}

// mixerDirection is the mixer a route's controls are applied to
func (r Route) mixerDirection() Direction {
	switch r {
	case CaptureOff:
		return DirectionCapture
	case PlaybackOff, IncallOff, VoipOff:
		return DirectionPlayback
	}
	return r.Direction()
}

// IsOff reports whether r is one of the teardown routes
func (r Route) IsOff() bool {
	switch r {
	case PlaybackOff, CaptureOff, IncallOff, VoipOff:
		return true
	}
	return false
}
