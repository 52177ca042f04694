package alsaroute

import (
	"strings"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidArgument reports a type mismatch, an unknown enumerated item,
	// an unrecognised TLV tag or an oversized TLV block.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotFound reports a control lookup miss.
	ErrNotFound = errors.New("control not found")
	// ErrOutOfRange reports an index outside the control array.
	ErrOutOfRange = errors.New("index out of range")
	// ErrNoTLV reports a dB query on a control without a TLV blob.
	ErrNoTLV = errors.New("control has no dB tlv")
	// ErrClosed reports an operation on a closed mixer.
	ErrClosed = errors.New("mixer closed")
)

// ControlType represents the type of an ALSA control element
type ControlType int

const (
	ControlTypeNone ControlType = iota
	ControlTypeBoolean
	ControlTypeInteger
	ControlTypeEnumerated
	ControlTypeBytes
	ControlTypeIEC958
	ControlTypeInteger64
)

func (t ControlType) String() string {
	switch t {
	case ControlTypeBoolean:
		return "Boolean"
	case ControlTypeInteger:
		return "Integer"
	case ControlTypeEnumerated:
		return "Enumerated"
	case ControlTypeBytes:
		return "Bytes"
	case ControlTypeIEC958:
		return "IEC958"
	case ControlTypeInteger64:
		return "Integer64"
	default:
		return "None"
	}
}

// Access is the SNDRV_CTL_ELEM_ACCESS_* bitmask of a control element
type Access uint32

const (
	AccessRead       Access = 1 << 0
	AccessWrite      Access = 1 << 1
	AccessVolatile   Access = 1 << 2
	AccessTimestamp  Access = 1 << 3
	AccessTLVRead    Access = 1 << 4
	AccessTLVWrite   Access = 1 << 5
	AccessTLVCommand Access = 1 << 6
	AccessInactive   Access = 1 << 8
	AccessLock       Access = 1 << 9
	AccessOwner      Access = 1 << 10

	AccessReadWrite    = AccessRead | AccessWrite
	AccessTLVReadWrite = AccessTLVRead | AccessTLVWrite
)

// Has reports whether every bit of flags is set
func (a Access) Has(flags Access) bool {
	return a&flags == flags
}

func (a Access) String() string {
	names := []struct {
		flag Access
		name string
	}{
		{AccessRead, "r"},
		{AccessWrite, "w"},
		{AccessVolatile, "volatile"},
		{AccessTLVRead, "tlv-r"},
		{AccessTLVWrite, "tlv-w"},
		{AccessTLVCommand, "tlv-c"},
		{AccessInactive, "inactive"},
		{AccessLock, "locked"},
	}
	var parts []string
	for _, n := range names {
		if a&n.flag != 0 {
			parts = append(parts, n.name)
		}
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, ",")
}

// Interface is the SNDRV_CTL_ELEM_IFACE_* of an element id
type Interface int32

const (
	InterfaceCard Interface = iota
	InterfaceHWDep
	InterfaceMixer
	InterfacePCM
	InterfaceRawMidi
	InterfaceTimer
	InterfaceSequencer
)

func (i Interface) String() string {
	switch i {
	case InterfaceCard:
		return "card"
	case InterfaceHWDep:
		return "hwdep"
	case InterfaceMixer:
		return "mixer"
	case InterfacePCM:
		return "pcm"
	case InterfaceRawMidi:
		return "rawmidi"
	case InterfaceTimer:
		return "timer"
	case InterfaceSequencer:
		return "sequencer"
	default:
		return "unknown"
	}
}

// ElemID identifies a control element
type ElemID struct {
	NumID     uint32
	Interface Interface
	Device    uint32
	Subdevice uint32
	Name      string
	Index     uint32
}

// ElemInfo is the static descriptor of a control element as reported by
// SNDRV_CTL_IOCTL_ELEM_INFO
type ElemInfo struct {
	ID     ElemID
	Type   ControlType
	Access Access
	Count  uint32

	// integer range, also reported for booleans
	Min  int64
	Max  int64
	Step int64

	Min64  int64
	Max64  int64
	Step64 int64

	// enumerated item count
	ItemCount uint32
}

// Event is a control change notification
type Event struct {
	NumID uint32
	Mask  EventMask
	Name  string
	Index uint32
}

// EventMask is the SNDRV_CTL_EVENT_MASK_* set carried by an element event
type EventMask uint32

const (
	EventMaskValue  EventMask = 1 << 0
	EventMaskInfo   EventMask = 1 << 1
	EventMaskAdd    EventMask = 1 << 2
	EventMaskTLV    EventMask = 1 << 3
	EventMaskRemove EventMask = ^EventMask(0)
)
