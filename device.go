package alsaroute

import (
	"fmt"
	"time"
)

// Device is the control-device transport a Mixer is built on. The kernel
// implementation issues SNDRV_CTL_IOCTL_* requests on /dev/snd/controlC<N>;
// ctltest.Device provides an in-memory one.
type Device interface {
	// ElemCount returns the number of control elements exposed by the driver.
	ElemCount() (uint32, error)
	// ElemList returns the identifiers of the first count elements.
	ElemList(count uint32) ([]ElemID, error)
	// ElemInfo returns the descriptor of the element with the given numid.
	ElemInfo(numid uint32) (ElemInfo, error)
	// ItemName returns the display name of one item of an enumerated element.
	ItemName(numid, item uint32) (string, error)
	// Read returns the current value vector of an element.
	Read(info *ElemInfo) ([]int64, error)
	// Write replaces the value vector of an element. Positions past
	// len(values) are written as zero.
	Write(info *ElemInfo, values []int64) error
	// ReadTLV fetches up to size bytes of TLV data for an element.
	ReadTLV(numid, size uint32) ([]uint32, error)
	// Subscribe enables or disables control event delivery.
	Subscribe(enable bool) error
	// Wait blocks until an event is readable or the timeout expires.
	Wait(timeout time.Duration) (bool, error)
	// ReadEvent reads one pending event; ok is false if none was pending.
	ReadEvent() (ev Event, ok bool, err error)
	Close() error
}

// ControlPath returns the control device path for a card number
func ControlPath(card int) string {
	return fmt.Sprintf("/dev/snd/controlC%d", card)
}
