package route

import (
	"math"

	"github.com/gen2brain/alsa"
	"github.com/pkg/errors"
	"github.com/thoas/go-funk"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/michaelquigley/alsaroute"
)

var (
	// ErrNotInitialized reports a table lookup before Init selected a table
	ErrNotInitialized = errors.New("route manager not initialized")
	// ErrMixerNotOpen reports a control operation on a direction whose mixer is closed
	ErrMixerNotOpen = errors.New("mixer not open")
)

// InputSourceControl is the capture selector driven by SetInputSource
const InputSourceControl = "Input Source"

// usbRoutes are accepted only when USB audio support is enabled
var usbRoutes = []Route{USBNormal, USBCapture}

// Manager owns the playback and capture mixers and the PCM slots of one
// audio subsystem. It is not safe for concurrent use.
type Manager struct {
	logger     *zap.SugaredLogger
	usb        bool
	cardIDPath string
	openMixer  func(card int) (*alsaroute.Mixer, error)
	opener     PCMOpener
	registry   *Registry

	table    *Table
	playback *alsaroute.Mixer
	capture  *alsaroute.Mixer
	pcm      [slotCount]PCM
}

// Option configures a Manager
type Option func(*Manager)

// WithLogger sets the logger; the manager logs under the "route" name
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(m *Manager) {
		m.logger = logger.Named("route")
	}
}

// WithUSB enables the USB routes
func WithUSB(enabled bool) Option {
	return func(m *Manager) {
		m.usb = enabled
	}
}

// WithCardIDPath overrides the card id file used to select a table
func WithCardIDPath(path string) Option {
	return func(m *Manager) {
		m.cardIDPath = path
	}
}

// WithMixerOpener overrides how control devices are opened
func WithMixerOpener(open func(card int) (*alsaroute.Mixer, error)) Option {
	return func(m *Manager) {
		m.openMixer = open
	}
}

// WithPCMOpener overrides how PCM streams are opened
func WithPCMOpener(opener PCMOpener) Option {
	return func(m *Manager) {
		m.opener = opener
	}
}

// WithTables overrides the built-in route tables
func WithTables(registry *Registry) Option {
	return func(m *Manager) {
		m.registry = registry
	}
}

// New returns an uninitialized manager
func New(opts ...Option) *Manager {
	m := &Manager{
		logger:     zap.NewNop().Sugar(),
		cardIDPath: alsaroute.CardIDPath,
		openMixer:  alsaroute.Open,
		opener:     ALSAOpener{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Init reads the card id, selects the matching route table (the default one
// when nothing matches or the id is unreadable) and clears the PCM slots
func (m *Manager) Init() error {
	registry := m.registry
	if registry == nil {
		var err error
		if registry, err = Builtin(); err != nil {
			return errors.Wrap(err, "load built-in route tables")
		}
	}

	cardID, err := alsaroute.ReadCardID(m.cardIDPath)
	if err != nil {
		m.logger.Warnw("Failed to read card id, using default route table", "path", m.cardIDPath, "error", err)
	}

	m.table = registry.Select(cardID)
	m.pcm = [slotCount]PCM{}
	m.logger.Infow("Selected route table", "table", m.table.Name, "card_id", cardID)
	return nil
}

// Uninit tears down any open playback and capture state. The selected
// route table is kept.
func (m *Manager) Uninit() error {
	var err error
	if m.pcm[Device0Playback] != nil || m.playback != nil {
		err = multierr.Append(err, m.PcmClose(PlaybackOff))
	}
	if m.pcm[Device0Capture] != nil || m.capture != nil {
		err = multierr.Append(err, m.PcmClose(CaptureOff))
	}
	return err
}

// Table returns the selected route table, nil before Init
func (m *Manager) Table() *Table {
	return m.table
}

// Mixer returns the open mixer of a direction, nil when closed
func (m *Manager) Mixer(dir Direction) *alsaroute.Mixer {
	switch dir {
	case DirectionPlayback:
		return m.playback
	case DirectionCapture:
		return m.capture
	}
	return nil
}

// PCM returns the stream held in a slot, nil when empty
func (m *Manager) PCM(slot Slot) PCM {
	if slot < 0 || slot >= slotCount {
		return nil
	}
	return m.pcm[slot]
}

func (m *Manager) checkRoute(r Route) error {
	if !r.Valid() {
		return errors.Wrapf(alsaroute.ErrInvalidArgument, "route %d out of range", int(r))
	}
	if !m.usb && funk.Contains(usbRoutes, r) {
		return errors.Wrapf(alsaroute.ErrInvalidArgument, "route %s needs usb audio support", r)
	}
	return nil
}

func (m *Manager) config(r Route) (*Config, error) {
	if m.table == nil {
		return nil, ErrNotInitialized
	}
	return m.table.Config(r)
}

// mixerCard maps a route card to its control device. Card 1 is driven
// through control device 0.
func mixerCard(card int) int {
	if card == 1 {
		return 0
	}
	return card
}

// PcmOpen switches to route r and returns its primary PCM stream. Any
// running stream of the same direction is torn down first.
func (m *Manager) PcmOpen(r Route, flags alsa.PcmFlag) (PCM, error) {
	if err := m.checkRoute(r); err != nil {
		return nil, err
	}
	if r.Direction() == DirectionNone {
		return nil, errors.Wrapf(alsaroute.ErrInvalidArgument, "route %s cannot be opened", r)
	}

	if m.table == nil {
		if err := m.Init(); err != nil {
			return nil, err
		}
	}

	cfg, err := m.config(r)
	if err != nil {
		return nil, err
	}
	return m.open(r, cfg.Card, cfg, flags)
}

// PcmCardOpen is PcmOpen on an explicit card instead of the route's own
func (m *Manager) PcmCardOpen(card int, r Route, flags alsa.PcmFlag) (PCM, error) {
	if card < 0 {
		return nil, errors.Wrapf(alsaroute.ErrInvalidArgument, "card %d", card)
	}
	if err := m.checkRoute(r); err != nil {
		return nil, err
	}
	if r.Direction() == DirectionNone {
		return nil, errors.Wrapf(alsaroute.ErrInvalidArgument, "route %s cannot be opened", r)
	}

	if m.table == nil {
		if err := m.Init(); err != nil {
			return nil, err
		}
	}

	cfg, err := m.config(r)
	if err != nil {
		return nil, err
	}
	return m.open(r, card, cfg, flags)
}

func (m *Manager) open(r Route, card int, cfg *Config, flags alsa.PcmFlag) (PCM, error) {
	logger := m.logger.With("route", r.String(), "card", card)

	var primary Slot
	if r.Direction() == DirectionPlayback {
		primary = Device0Playback
		if m.playback != nil {
			if err := m.SetControls(IncallOff); err != nil {
				logger.Warnw("Failed to apply incall off controls", "error", err)
			}
			if err := m.SetControls(VoipOff); err != nil {
				logger.Warnw("Failed to apply voip off controls", "error", err)
			}
		}
		if err := m.PcmClose(PlaybackOff); err != nil {
			logger.Warnw("Failed to stop playback", "error", err)
		}
	} else {
		primary = Device0Capture
		if err := m.PcmClose(CaptureOff); err != nil {
			logger.Warnw("Failed to stop capture", "error", err)
		}
	}

	if err := m.openSlot(card, primary, flags); err != nil {
		logger.Errorw("Failed to open pcm", "slot", primary.String(), "error", err)
		return nil, err
	}

	if primary == Device0Playback && card == 0 {
		for _, dev := range []int{1, 2} {
			if !cfg.Devices.Has(dev) {
				continue
			}
			for _, slot := range []Slot{Slot(dev * 2), Slot(dev*2 + 1)} {
				if m.pcm[slot] != nil {
					continue
				}
				if err := m.openSlot(card, slot, flags); err != nil {
					logger.Warnw("Failed to open secondary pcm", "slot", slot.String(), "error", err)
				}
			}
		}
	}

	mixer, err := m.directionMixer(r.Direction(), card)
	if err != nil {
		logger.Errorw("Failed to open mixer", "error", err)
		return nil, err
	}

	if len(cfg.Controls) > 0 {
		if err := m.applyControls(mixer, cfg.Controls); err != nil {
			logger.Errorw("Failed to apply route controls", "error", err)
		}
	}

	logger.Debugw("Route opened", "slot", primary.String())
	return m.pcm[primary], nil
}

func (m *Manager) openSlot(card int, slot Slot, flags alsa.PcmFlag) error {
	pcm, err := m.opener.Open(card, slot.device(), slot.flags(flags))
	if err != nil {
		return err
	}
	m.pcm[slot] = pcm
	return nil
}

func (m *Manager) directionMixer(dir Direction, card int) (*alsaroute.Mixer, error) {
	target := &m.playback
	if dir == DirectionCapture {
		target = &m.capture
	}
	if *target == nil {
		mixer, err := m.openMixer(mixerCard(card))
		if err != nil {
			return nil, errors.Wrapf(err, "open %s mixer", dir)
		}
		*target = mixer
	}
	return *target, nil
}

func (m *Manager) closeSlot(slot Slot) error {
	pcm := m.pcm[slot]
	if pcm == nil {
		return nil
	}
	m.pcm[slot] = nil
	if err := pcm.Close(); err != nil {
		m.logger.Warnw("Failed to close pcm", "slot", slot.String(), "error", err)
		return errors.Wrapf(err, "close %s", slot)
	}
	return nil
}

// PcmClose runs an off route. PlaybackOff and CaptureOff close their streams
// and mixer; IncallOff and VoipOff only apply controls. Other routes are
// ignored.
func (m *Manager) PcmClose(r Route) error {
	switch r {
	case PlaybackOff:
		var err error
		for _, slot := range []Slot{Device0Playback, Device1Playback, Device1Capture, Device2Playback, Device2Capture} {
			err = multierr.Append(err, m.closeSlot(slot))
		}
		if m.playback != nil {
			err = multierr.Append(err, m.SetControls(PlaybackOff))
			err = multierr.Append(err, m.playback.Close())
			m.playback = nil
		}
		return err

	case CaptureOff:
		err := m.closeSlot(Device0Capture)
		if m.capture != nil {
			err = multierr.Append(err, m.SetControls(CaptureOff))
			err = multierr.Append(err, m.capture.Close())
			m.capture = nil
		}
		return err

	case IncallOff, VoipOff:
		if m.playback == nil {
			return nil
		}
		return m.SetControls(r)
	}
	return nil
}

// SetControls applies the control list of route r to the mixer of its
// direction
func (m *Manager) SetControls(r Route) error {
	if err := m.checkRoute(r); err != nil {
		return err
	}

	mixer := m.Mixer(r.mixerDirection())
	if mixer == nil {
		return errors.Wrapf(ErrMixerNotOpen, "route %s", r)
	}

	cfg, err := m.config(r)
	if err != nil {
		return err
	}
	return m.applyControls(mixer, cfg.Controls)
}

// applyControls writes each control in order and stops at the first failure.
// Controls already written stay written.
func (m *Manager) applyControls(mixer *alsaroute.Mixer, controls []Control) error {
	for _, c := range controls {
		ctl, err := mixer.Control(c.Name, 0)
		if err != nil {
			if m.table != nil && m.table.IsDefault() {
				m.logger.Warnw("Control missing from default table codec", "control", c.Name)
			} else {
				m.logger.Errorw("Control not found", "control", c.Name)
			}
			return err
		}

		switch ctl.Type {
		case alsaroute.ControlTypeBoolean, alsaroute.ControlTypeInteger,
			alsaroute.ControlTypeInteger64, alsaroute.ControlTypeEnumerated:
		default:
			m.logger.Errorw("Unsupported control type", "control", c.Name, "type", ctl.Type.String())
			return errors.Wrapf(alsaroute.ErrInvalidArgument, "control %q has type %s", c.Name, ctl.Type)
		}

		if c.Str != "" {
			if ctl.Type != alsaroute.ControlTypeEnumerated {
				m.logger.Errorw("String value for non-enumerated control", "control", c.Name, "value", c.Str)
				return errors.Wrapf(alsaroute.ErrInvalidArgument, "control %q is not enumerated", c.Name)
			}
			err = ctl.Select(c.Str)
		} else {
			if len(c.Ints) == 0 {
				return errors.Wrapf(alsaroute.ErrInvalidArgument, "control %q has no value", c.Name)
			}
			left, right := c.Ints[0], c.Ints[0]
			if len(c.Ints) > 1 {
				right = c.Ints[1]
			}
			err = ctl.SetIntDouble(left, right)
		}
		if err != nil {
			m.logger.Errorw("Failed to set control", "control", c.Name, "error", err)
			return err
		}
	}
	return nil
}

// SetVoiceVolume sets a playback control from a 0-1 volume along an
// exponential loudness curve over the control's dB range
func (m *Manager) SetVoiceVolume(name string, volume float64) error {
	if m.playback == nil {
		return errors.Wrapf(ErrMixerNotOpen, "voice volume %q", name)
	}
	ctl, err := m.playback.Control(name, 0)
	if err != nil {
		return err
	}

	min, max, err := ctl.MinMax()
	if err != nil {
		return err
	}
	db, err := ctl.DBRange(min, max)
	if err != nil {
		return err
	}

	raw := voiceVolume(volume, min, db)
	m.logger.Debugw("Setting voice volume", "control", name, "volume", volume, "raw", raw)
	return ctl.SetInt(raw)
}

const voiceVolumeSteps = 6

func voiceVolume(volume float64, min int64, db alsaroute.DBRange) int64 {
	n := volume*(voiceVolumeSteps-1) + 1
	target := db.Min + (db.Max-db.Min)*(math.Exp(n)-math.E)/(math.Exp(voiceVolumeSteps)-math.E)
	if db.Step == 0 {
		return min
	}
	return min + int64(math.Floor((target-db.Min)/db.Step+0.5))
}

// SetInputSource selects the capture input source. It does nothing without
// an open capture mixer or with an empty source.
func (m *Manager) SetInputSource(source string) error {
	if m.capture == nil || source == "" {
		return nil
	}
	ctl, err := m.capture.Control(InputSourceControl, 0)
	if err != nil {
		return err
	}
	return ctl.Select(source)
}
