package route

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/gen2brain/alsa"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/michaelquigley/alsaroute"
	"github.com/michaelquigley/alsaroute/ctltest"
)

type fakePCM struct {
	card, device int
	flags        alsa.PcmFlag
	closed       int
}

func (p *fakePCM) Close() error {
	p.closed++
	return nil
}

func (p *fakePCM) capture() bool {
	return p.flags&alsa.PCM_IN != 0
}

type fakeOpener struct {
	opened []*fakePCM
	fail   map[string]error
}

func pcmKey(card, device int, capture bool) string {
	dir := "p"
	if capture {
		dir = "c"
	}
	return fmt.Sprintf("%d/%d%s", card, device, dir)
}

func (o *fakeOpener) Open(card, device int, flags alsa.PcmFlag) (PCM, error) {
	if err := o.fail[pcmKey(card, device, flags&alsa.PCM_IN != 0)]; err != nil {
		return nil, err
	}
	pcm := &fakePCM{card: card, device: device, flags: flags}
	o.opened = append(o.opened, pcm)
	return pcm, nil
}

func (o *fakeOpener) keys() []string {
	var keys []string
	for _, p := range o.opened {
		keys = append(keys, pcmKey(p.card, p.device, p.capture()))
	}
	return keys
}

func pathCodec() *ctltest.Device {
	return ctltest.New(
		ctltest.Enumerated("Playback Path", "OFF", "RCV", "SPK", "HP", "HP_NO_MIC", "BT", "SPK_HP"),
		ctltest.Enumerated("Capture MIC Path", "MIC OFF", "Main Mic", "Hands Free Mic", "BT Sco Mic"),
		ctltest.Enumerated("Voice Call Path", "OFF", "RCV", "SPK", "HP", "HP_NO_MIC", "BT"),
		ctltest.Enumerated("Voip Path", "OFF", "RCV", "SPK", "HP", "HP_NO_MIC", "BT"),
		ctltest.Enumerated(InputSourceControl, "Default", "Mic", "Line"),
		ctltest.Integer("Speaker Playback Volume", 2, 0, 31).WithTLV(ctltest.DBScale(-4650, 150)...),
		ctltest.Integer("Headphone Playback Volume", 2, 0, 31),
	)
}

type harness struct {
	m       *Manager
	pcms    *fakeOpener
	devices []*ctltest.Device
	cards   []int
	newDev  func() *ctltest.Device
	openErr error
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	h := &harness{
		pcms:   &fakeOpener{fail: map[string]error{}},
		newDev: pathCodec,
	}
	base := []Option{
		WithLogger(zaptest.NewLogger(t).Sugar()),
		WithCardIDPath(filepath.Join(t.TempDir(), "missing")),
		WithPCMOpener(h.pcms),
		WithMixerOpener(func(card int) (*alsaroute.Mixer, error) {
			if h.openErr != nil {
				return nil, h.openErr
			}
			dev := h.newDev()
			h.devices = append(h.devices, dev)
			h.cards = append(h.cards, card)
			return alsaroute.OpenDevice(dev)
		}),
	}
	h.m = New(append(base, opts...)...)
	return h
}

func (h *harness) lastDevice() *ctltest.Device {
	return h.devices[len(h.devices)-1]
}

func item(t *testing.T, dev *ctltest.Device, name string) string {
	t.Helper()
	e := dev.Lookup(name)
	require.NotNil(t, e, name)
	values := dev.Values(name)
	require.NotEmpty(t, values)
	return e.Items[values[0]]
}

func TestPcmOpenPlaybackRoundTrip(t *testing.T) {
	h := newHarness(t)

	pcm, err := h.m.PcmOpen(SpeakerNormal, 0)
	require.NoError(t, err)
	require.NotNil(t, pcm)
	assert.True(t, h.m.Table().IsDefault())

	assert.Equal(t, []string{"0/0p"}, h.pcms.keys())
	assert.Equal(t, []int{0}, h.cards)
	dev := h.lastDevice()
	assert.Equal(t, "SPK", item(t, dev, "Playback Path"))
	assert.Equal(t, []string{"Playback Path"}, dev.WrittenNames())

	require.NoError(t, h.m.PcmClose(PlaybackOff))
	assert.Equal(t, 1, pcm.(*fakePCM).closed)
	assert.Equal(t, "OFF", item(t, dev, "Playback Path"))
	assert.Equal(t, 1, dev.CloseCount)
	assert.Nil(t, h.m.Mixer(DirectionPlayback))
	for slot := Slot(0); slot < slotCount; slot++ {
		assert.Nil(t, h.m.PCM(slot), slot.String())
	}
}

func TestPcmOpenSwitchesPlaybackRoute(t *testing.T) {
	h := newHarness(t)

	first, err := h.m.PcmOpen(SpeakerNormal, 0)
	require.NoError(t, err)
	firstDev := h.lastDevice()

	second, err := h.m.PcmOpen(HeadsetNormal, 0)
	require.NoError(t, err)

	assert.Equal(t, 1, first.(*fakePCM).closed)
	assert.Zero(t, second.(*fakePCM).closed)
	assert.Equal(t,
		[]string{"Playback Path", "Voice Call Path", "Voip Path", "Playback Path"},
		firstDev.WrittenNames())
	assert.Equal(t, 1, firstDev.CloseCount)

	require.Len(t, h.devices, 2)
	assert.Equal(t, "HP", item(t, h.lastDevice(), "Playback Path"))
	assert.Same(t, second, h.m.PCM(Device0Playback))
}

func TestPcmOpenSecondaryDevices(t *testing.T) {
	h := newHarness(t)

	_, err := h.m.PcmOpen(BluetoothIncall, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"0/0p", "0/1p", "0/1c"}, h.pcms.keys())
	assert.NotNil(t, h.m.PCM(Device1Playback))
	assert.NotNil(t, h.m.PCM(Device1Capture))
	assert.Nil(t, h.m.PCM(Device2Playback))
	assert.Equal(t, "BT", item(t, h.lastDevice(), "Voice Call Path"))

	require.NoError(t, h.m.PcmClose(PlaybackOff))
	for _, p := range h.pcms.opened {
		assert.Equal(t, 1, p.closed, pcmKey(p.card, p.device, p.capture()))
	}
}

func TestPcmOpenSecondaryFailureContinues(t *testing.T) {
	h := newHarness(t)
	h.pcms.fail["0/1c"] = errors.New("busy")

	pcm, err := h.m.PcmOpen(BluetoothVoip, 0)
	require.NoError(t, err)
	assert.NotNil(t, pcm)
	assert.NotNil(t, h.m.PCM(Device1Playback))
	assert.Nil(t, h.m.PCM(Device1Capture))
	assert.Equal(t, "BT", item(t, h.lastDevice(), "Voip Path"))
}

func TestPcmOpenCapture(t *testing.T) {
	h := newHarness(t)

	pcm, err := h.m.PcmOpen(MainMicCapture, alsa.PCM_NONBLOCK)
	require.NoError(t, err)
	p := pcm.(*fakePCM)
	assert.True(t, p.capture())
	assert.NotZero(t, p.flags&alsa.PCM_NONBLOCK)
	assert.Nil(t, h.m.Mixer(DirectionPlayback))
	require.NotNil(t, h.m.Mixer(DirectionCapture))
	dev := h.lastDevice()
	assert.Equal(t, "Main Mic", item(t, dev, "Capture MIC Path"))

	require.NoError(t, h.m.PcmClose(CaptureOff))
	assert.Equal(t, 1, p.closed)
	assert.Equal(t, "MIC OFF", item(t, dev, "Capture MIC Path"))
	assert.Nil(t, h.m.Mixer(DirectionCapture))
}

func TestPlaybackFlagsDropCaptureBit(t *testing.T) {
	h := newHarness(t)
	pcm, err := h.m.PcmOpen(SpeakerNormal, alsa.PCM_IN)
	require.NoError(t, err)
	assert.False(t, pcm.(*fakePCM).capture())
}

func TestPcmOpenRejectsInvalidRoutes(t *testing.T) {
	h := newHarness(t)
	for _, r := range []Route{PlaybackOff, CaptureOff, IncallOff, VoipOff, Route(-1), MaxRoute, USBNormal, USBCapture} {
		_, err := h.m.PcmOpen(r, 0)
		assert.ErrorIs(t, err, alsaroute.ErrInvalidArgument, r.String())
	}
	assert.Empty(t, h.pcms.opened)
	assert.Empty(t, h.devices)
}

func TestUSBRoutes(t *testing.T) {
	h := newHarness(t, WithUSB(true))

	_, err := h.m.PcmOpen(USBNormal, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"2/0p"}, h.pcms.keys())
	assert.Equal(t, []int{2}, h.cards)

	_, err = h.m.PcmOpen(USBCapture, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"2/0p", "2/0c"}, h.pcms.keys())
}

func TestHDMIUsesControlDeviceZero(t *testing.T) {
	h := newHarness(t)

	_, err := h.m.PcmOpen(HDMINormal, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"1/0p"}, h.pcms.keys())
	assert.Equal(t, []int{0}, h.cards)
	assert.Empty(t, h.lastDevice().Writes)
}

func TestPcmCardOpen(t *testing.T) {
	h := newHarness(t)

	_, err := h.m.PcmCardOpen(3, BluetoothIncall, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"3/0p"}, h.pcms.keys())
	assert.Equal(t, []int{3}, h.cards)

	_, err = h.m.PcmCardOpen(-1, SpeakerNormal, 0)
	assert.ErrorIs(t, err, alsaroute.ErrInvalidArgument)
}

func TestPcmOpenPrimaryFailure(t *testing.T) {
	h := newHarness(t)
	h.pcms.fail["0/0p"] = errors.New("no such device")

	_, err := h.m.PcmOpen(SpeakerNormal, 0)
	assert.Error(t, err)
	assert.Empty(t, h.devices)
}

func TestMixerOpenFailureLeavesPCMForTeardown(t *testing.T) {
	h := newHarness(t)
	h.openErr = errors.New("no control device")

	_, err := h.m.PcmOpen(SpeakerNormal, 0)
	assert.Error(t, err)
	pcm := h.m.PCM(Device0Playback)
	require.NotNil(t, pcm)

	require.NoError(t, h.m.PcmClose(PlaybackOff))
	assert.Equal(t, 1, pcm.(*fakePCM).closed)
	assert.Nil(t, h.m.PCM(Device0Playback))
}

func TestPcmCloseIgnoresOtherRoutes(t *testing.T) {
	h := newHarness(t)
	for _, r := range []Route{SpeakerNormal, MainMicCapture, HDMINormal, Route(99)} {
		assert.NoError(t, h.m.PcmClose(r))
	}
	assert.NoError(t, h.m.PcmClose(IncallOff))
	assert.NoError(t, h.m.PcmClose(PlaybackOff))
}

func TestPcmCloseIncallOffKeepsStreams(t *testing.T) {
	h := newHarness(t)
	_, err := h.m.PcmOpen(EarpieceIncall, 0)
	require.NoError(t, err)
	dev := h.lastDevice()
	assert.Equal(t, "RCV", item(t, dev, "Voice Call Path"))

	require.NoError(t, h.m.PcmClose(IncallOff))
	assert.Equal(t, "OFF", item(t, dev, "Voice Call Path"))
	assert.NotNil(t, h.m.PCM(Device0Playback))
	assert.NotNil(t, h.m.Mixer(DirectionPlayback))
}

func TestSetControls(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.m.Init())

	assert.ErrorIs(t, h.m.SetControls(SpeakerNormal), ErrMixerNotOpen)
	assert.ErrorIs(t, h.m.SetControls(MaxRoute), alsaroute.ErrInvalidArgument)

	_, err := h.m.PcmOpen(SpeakerNormal, 0)
	require.NoError(t, err)
	require.NoError(t, h.m.SetControls(HeadphoneNormal))
	assert.Equal(t, "HP_NO_MIC", item(t, h.lastDevice(), "Playback Path"))

	assert.ErrorIs(t, h.m.SetControls(MainMicCapture), ErrMixerNotOpen)
}

const testCodecTable = `
name: testcodec
card_ids: [TESTCODEC]
routes:
  speaker_normal:
    controls:
      - {name: "Speaker Playback Volume", ints: [20, 25]}
      - {name: "Missing Switch", ints: [1]}
      - {name: "Headphone Playback Volume", ints: [10]}
  speaker_ringtone:
    controls:
      - {name: "Speaker Playback Volume", str: "SPK"}
  speaker_voip:
    controls:
      - {name: "EQ Coefficients", ints: [1]}
  headphone_normal:
    controls:
      - {name: "Headphone Playback Volume", ints: [12]}
  playback_off:
    controls:
      - {name: "Headphone Playback Volume", ints: [0, 0]}
`

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	fallback, err := embedded.ReadFile("tables/default.yaml")
	require.NoError(t, err)

	reg, err := LoadTables(fstest.MapFS{
		"tables/default.yaml":   {Data: fallback},
		"tables/testcodec.yaml": {Data: []byte(testCodecTable)},
	}, "tables")
	require.NoError(t, err)
	return reg
}

func codecHarness(t *testing.T) *harness {
	t.Helper()
	idPath := filepath.Join(t.TempDir(), "id")
	require.NoError(t, os.WriteFile(idPath, []byte("TESTCODEC\n"), 0644))

	h := newHarness(t, WithTables(testRegistry(t)), WithCardIDPath(idPath))
	h.newDev = func() *ctltest.Device {
		return ctltest.New(
			ctltest.Integer("Speaker Playback Volume", 2, 0, 31),
			ctltest.Integer("Headphone Playback Volume", 2, 0, 31),
			ctltest.Bytes("EQ Coefficients", 8),
		)
	}
	return h
}

func TestApplyControlsStopsAtFirstFailure(t *testing.T) {
	h := codecHarness(t)

	pcm, err := h.m.PcmOpen(SpeakerNormal, 0)
	require.NoError(t, err)
	assert.NotNil(t, pcm)
	assert.Equal(t, "testcodec", h.m.Table().Name)

	dev := h.lastDevice()
	assert.Equal(t, []int64{20, 25}, dev.Values("Speaker Playback Volume"))
	assert.Equal(t, []int64{0, 0}, dev.Values("Headphone Playback Volume"))
	assert.Equal(t, []string{"Speaker Playback Volume"}, dev.WrittenNames())

	err = h.m.SetControls(SpeakerNormal)
	assert.ErrorIs(t, err, alsaroute.ErrNotFound)
}

func TestApplyControlsTypeChecks(t *testing.T) {
	h := codecHarness(t)
	_, err := h.m.PcmOpen(HeadphoneNormal, 0)
	require.NoError(t, err)
	assert.Equal(t, []int64{12, 12}, h.lastDevice().Values("Headphone Playback Volume"))

	assert.ErrorIs(t, h.m.SetControls(SpeakerRingtone), alsaroute.ErrInvalidArgument)
	assert.ErrorIs(t, h.m.SetControls(SpeakerVoip), alsaroute.ErrInvalidArgument)

	// routes absent from the table
	assert.Error(t, h.m.SetControls(EarpieceNormal))
}

func TestInitSelectsTable(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		id    string
		table string
	}{
		{"RKRT3261", "rt3261"},
		{"RK29RT3261", "rt3261"},
		{"RK29RT3261-B", "rt3261"},
		{"RKRT5640", DefaultTable},
		{"", DefaultTable},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			path := filepath.Join(dir, "id-"+tt.id)
			require.NoError(t, os.WriteFile(path, []byte(tt.id+"\n"), 0644))
			h := newHarness(t, WithCardIDPath(path))
			require.NoError(t, h.m.Init())
			assert.Equal(t, tt.table, h.m.Table().Name)
		})
	}

	h := newHarness(t)
	require.NoError(t, h.m.Init())
	assert.True(t, h.m.Table().IsDefault())
}

func TestUninit(t *testing.T) {
	h := newHarness(t)
	playback, err := h.m.PcmOpen(SpeakerNormal, 0)
	require.NoError(t, err)
	capture, err := h.m.PcmOpen(HandsFreeMicCapture, 0)
	require.NoError(t, err)

	require.NoError(t, h.m.Uninit())
	assert.Equal(t, 1, playback.(*fakePCM).closed)
	assert.Equal(t, 1, capture.(*fakePCM).closed)
	assert.Nil(t, h.m.Mixer(DirectionPlayback))
	assert.Nil(t, h.m.Mixer(DirectionCapture))
	assert.True(t, h.m.Table().IsDefault())
	for _, dev := range h.devices {
		assert.Equal(t, 1, dev.CloseCount)
	}

	require.NoError(t, h.m.Uninit())
}

func TestUninitKeepsTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "id")
	require.NoError(t, os.WriteFile(path, []byte("RKRT3261\n"), 0644))
	h := newHarness(t, WithCardIDPath(path))

	_, err := h.m.PcmOpen(SpeakerNormal, 0)
	require.NoError(t, err)
	require.Equal(t, "rt3261", h.m.Table().Name)
	require.NoError(t, h.m.Uninit())

	require.NoError(t, os.WriteFile(path, []byte("RKRT5640\n"), 0644))
	_, err = h.m.PcmOpen(SpeakerNormal, 0)
	require.NoError(t, err)
	assert.Equal(t, "rt3261", h.m.Table().Name)
}

func TestSetVoiceVolume(t *testing.T) {
	h := newHarness(t)
	assert.ErrorIs(t, h.m.SetVoiceVolume("Speaker Playback Volume", 1), ErrMixerNotOpen)

	_, err := h.m.PcmOpen(SpeakerIncall, 0)
	require.NoError(t, err)
	dev := h.lastDevice()

	tests := []struct {
		volume float64
		raw    int64
	}{
		{0, 0},
		{0.2, 0},
		{0.5, 2},
		{0.8, 11},
		{1, 31},
	}
	for _, tt := range tests {
		require.NoError(t, h.m.SetVoiceVolume("Speaker Playback Volume", tt.volume))
		assert.Equal(t, []int64{tt.raw, tt.raw}, dev.Values("Speaker Playback Volume"), "volume %v", tt.volume)
	}

	assert.ErrorIs(t, h.m.SetVoiceVolume("Headphone Playback Volume", 1), alsaroute.ErrNoTLV)
	assert.ErrorIs(t, h.m.SetVoiceVolume("Earpiece Playback Volume", 1), alsaroute.ErrNotFound)
}

func TestSetInputSource(t *testing.T) {
	h := newHarness(t)
	assert.NoError(t, h.m.SetInputSource("Mic"))

	_, err := h.m.PcmOpen(MainMicCapture, 0)
	require.NoError(t, err)
	dev := h.lastDevice()

	require.NoError(t, h.m.SetInputSource(""))
	assert.Equal(t, "Default", item(t, dev, InputSourceControl))

	require.NoError(t, h.m.SetInputSource("Line"))
	assert.Equal(t, "Line", item(t, dev, InputSourceControl))

	assert.ErrorIs(t, h.m.SetInputSource("Aux"), alsaroute.ErrInvalidArgument)
}
