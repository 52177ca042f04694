package alsaroute

import (
	"github.com/pkg/errors"
)

// tlvRequestSize is the TLV fetch size: the two-word header plus one
// two-word dB scale body, in native ints.
const tlvRequestSize = 4 * 4

// volumeControls are the controls whose dB scale is fetched at open time
var volumeControls = map[string]bool{
	"Earpiece Playback Volume":  true,
	"Speaker Playback Volume":   true,
	"Headphone Playback Volume": true,
	"PCM Playback Volume":       true,
	"Mic Capture Volume":        true,
}

// Mixer is an open control device and the cached descriptors of every
// element it exposes
type Mixer struct {
	dev      Device
	controls []*Control
}

// Open opens /dev/snd/controlC<card> and enumerates its controls
func Open(card int) (*Mixer, error) {
	dev, err := openHW(card)
	if err != nil {
		return nil, err
	}
	return OpenDevice(dev)
}

// OpenDevice enumerates the controls of an already open device. On failure
// the device is closed and no mixer is returned.
func OpenDevice(dev Device) (*Mixer, error) {
	m := &Mixer{dev: dev}
	if err := m.load(); err != nil {
		m.Close()
		return nil, err
	}
	return m, nil
}

func (m *Mixer) load() error {
	count, err := m.dev.ElemCount()
	if err != nil {
		return err
	}
	ids, err := m.dev.ElemList(count)
	if err != nil {
		return err
	}

	m.controls = make([]*Control, 0, len(ids))
	for _, id := range ids {
		info, err := m.dev.ElemInfo(id.NumID)
		if err != nil {
			return err
		}
		ctl := &Control{ElemInfo: info, mixer: m}

		if info.Type == ControlTypeEnumerated {
			ctl.Items = make([]string, info.ItemCount)
			for i := uint32(0); i < info.ItemCount; i++ {
				name, err := m.dev.ItemName(info.ID.NumID, i)
				if err != nil {
					return err
				}
				ctl.Items[i] = name
			}
		}

		// a failed tlv fetch only costs dB queries on this control
		if volumeControls[info.ID.Name] && info.Access.Has(AccessTLVReadWrite) {
			if tlv, err := m.dev.ReadTLV(info.ID.NumID, tlvRequestSize); err == nil {
				ctl.TLV = tlv
			}
		}

		m.controls = append(m.controls, ctl)
	}
	return nil
}

// Close releases every cached descriptor and closes the device. It is safe
// on a partially built mixer and on repeated calls.
func (m *Mixer) Close() error {
	if m == nil {
		return nil
	}
	for _, ctl := range m.controls {
		if ctl == nil {
			continue
		}
		ctl.TLV = nil
		ctl.Items = nil
		ctl.mixer = nil
	}
	m.controls = nil

	if m.dev == nil {
		return nil
	}
	err := m.dev.Close()
	m.dev = nil
	return err
}

// Count returns the number of controls
func (m *Mixer) Count() int {
	return len(m.controls)
}

// Controls returns the controls in driver enumeration order
func (m *Mixer) Controls() []*Control {
	return m.controls
}

// Control returns the first control matching both name and index
func (m *Mixer) Control(name string, index uint32) (*Control, error) {
	for _, ctl := range m.controls {
		if ctl.ID.Name == name && ctl.ID.Index == index {
			return ctl, nil
		}
	}
	return nil, errors.Wrapf(ErrNotFound, "%q index %d", name, index)
}

// NthControl returns the control at position n
func (m *Mixer) NthControl(n int) (*Control, error) {
	if n < 0 || n >= len(m.controls) {
		return nil, errors.Wrapf(ErrOutOfRange, "control %d of %d", n, len(m.controls))
	}
	return m.controls[n], nil
}

// ControlByNumID returns the control with the given numeric id
func (m *Mixer) ControlByNumID(numid uint32) (*Control, error) {
	for _, ctl := range m.controls {
		if ctl.ID.NumID == numid {
			return ctl, nil
		}
	}
	return nil, errors.Wrapf(ErrNotFound, "numid %d", numid)
}
