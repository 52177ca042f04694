// Package ctltest provides an in-memory alsaroute.Device for tests.
package ctltest

import (
	"fmt"
	"sync"
	"time"

	"github.com/michaelquigley/alsaroute"
	"github.com/pkg/errors"
)

// Element is one simulated control element
type Element struct {
	Info   alsaroute.ElemInfo
	Items  []string
	TLV    []uint32
	Values []int64
}

// Write records one value write
type Write struct {
	NumID  uint32
	Name   string
	Values []int64
}

// Device is an in-memory control device. Fail injects errors keyed by
// operation: "count", "list", "info:<numid>", "item:<numid>", "tlv:<numid>",
// "write:<name>", "subscribe", "unsubscribe".
type Device struct {
	Elements   []*Element
	Writes     []Write
	Fail       map[string]error
	Subscribed bool
	CloseCount int

	mu      sync.Mutex
	pending []alsaroute.Event
	notify  chan struct{}
}

// New builds a device, numbering elements from 1 where no numid is set
func New(elements ...*Element) *Device {
	for i, e := range elements {
		if e.Info.ID.NumID == 0 {
			e.Info.ID.NumID = uint32(i + 1)
		}
		if e.Values == nil {
			e.Values = make([]int64, e.Info.Count)
		}
	}
	return &Device{
		Elements: elements,
		Fail:     map[string]error{},
		notify:   make(chan struct{}, 1),
	}
}

func element(name string, t alsaroute.ControlType, count uint32) *Element {
	return &Element{Info: alsaroute.ElemInfo{
		ID:     alsaroute.ElemID{Interface: alsaroute.InterfaceMixer, Name: name},
		Type:   t,
		Access: alsaroute.AccessReadWrite,
		Count:  count,
	}}
}

// Boolean returns a switch element
func Boolean(name string, count uint32) *Element {
	e := element(name, alsaroute.ControlTypeBoolean, count)
	e.Info.Max = 1
	e.Info.Step = 1
	return e
}

// Integer returns an integer element
func Integer(name string, count uint32, min, max int64) *Element {
	e := element(name, alsaroute.ControlTypeInteger, count)
	e.Info.Min = min
	e.Info.Max = max
	e.Info.Step = 1
	return e
}

// Integer64 returns a 64-bit integer element
func Integer64(name string, count uint32, min, max int64) *Element {
	e := element(name, alsaroute.ControlTypeInteger64, count)
	e.Info.Min64 = min
	e.Info.Max64 = max
	e.Info.Step64 = 1
	return e
}

// Enumerated returns an enumerated element
func Enumerated(name string, items ...string) *Element {
	e := element(name, alsaroute.ControlTypeEnumerated, 1)
	e.Info.ItemCount = uint32(len(items))
	e.Items = items
	return e
}

// Bytes returns a byte-array element
func Bytes(name string, count uint32) *Element {
	return element(name, alsaroute.ControlTypeBytes, count)
}

// WithIndex sets the element index
func (e *Element) WithIndex(index uint32) *Element {
	e.Info.ID.Index = index
	return e
}

// WithTLV attaches a TLV blob and grants TLV read/write access
func (e *Element) WithTLV(tlv ...uint32) *Element {
	e.TLV = tlv
	e.Info.Access |= alsaroute.AccessTLVReadWrite
	return e
}

// DBScale returns a DB_SCALE blob: min in centi-dB, step in centi-dB
func DBScale(min int32, step uint32) []uint32 {
	return []uint32{alsaroute.TLVTypeDBScale, 8, uint32(min), step}
}

func (d *Device) fail(key string) error {
	if d.Fail == nil {
		return nil
	}
	return d.Fail[key]
}

func (d *Device) find(numid uint32) (*Element, error) {
	for _, e := range d.Elements {
		if e.Info.ID.NumID == numid {
			return e, nil
		}
	}
	return nil, errors.Errorf("no element with numid %d", numid)
}

// Lookup returns the element with the given name and index 0
func (d *Device) Lookup(name string) *Element {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, e := range d.Elements {
		if e.Info.ID.Name == name && e.Info.ID.Index == 0 {
			return e
		}
	}
	return nil
}

// Values returns a copy of the current values of the named element
func (d *Device) Values(name string) []int64 {
	e := d.Lookup(name)
	if e == nil {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]int64(nil), e.Values...)
}

// WrittenNames returns the element names written, in order
func (d *Device) WrittenNames() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	names := make([]string, 0, len(d.Writes))
	for _, w := range d.Writes {
		names = append(names, w.Name)
	}
	return names
}

// Closed reports whether Close was called
func (d *Device) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.CloseCount > 0
}

func (d *Device) ElemCount() (uint32, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.fail("count"); err != nil {
		return 0, err
	}
	return uint32(len(d.Elements)), nil
}

func (d *Device) ElemList(count uint32) ([]alsaroute.ElemID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.fail("list"); err != nil {
		return nil, err
	}
	var ids []alsaroute.ElemID
	for i, e := range d.Elements {
		if uint32(i) >= count {
			break
		}
		ids = append(ids, e.Info.ID)
	}
	return ids, nil
}

func (d *Device) ElemInfo(numid uint32) (alsaroute.ElemInfo, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.fail(fmt.Sprintf("info:%d", numid)); err != nil {
		return alsaroute.ElemInfo{}, err
	}
	e, err := d.find(numid)
	if err != nil {
		return alsaroute.ElemInfo{}, err
	}
	return e.Info, nil
}

func (d *Device) ItemName(numid, item uint32) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.fail(fmt.Sprintf("item:%d", numid)); err != nil {
		return "", err
	}
	e, err := d.find(numid)
	if err != nil {
		return "", err
	}
	if int(item) >= len(e.Items) {
		return "", errors.Errorf("element %d has no item %d", numid, item)
	}
	return e.Items[item], nil
}

func (d *Device) Read(info *alsaroute.ElemInfo) ([]int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	e, err := d.find(info.ID.NumID)
	if err != nil {
		return nil, err
	}
	return append([]int64(nil), e.Values...), nil
}

func (d *Device) Write(info *alsaroute.ElemInfo, values []int64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.fail("write:" + info.ID.Name); err != nil {
		return err
	}
	e, err := d.find(info.ID.NumID)
	if err != nil {
		return err
	}
	if uint32(len(values)) > e.Info.Count {
		return errors.Errorf("%d values for %d positions", len(values), e.Info.Count)
	}
	stored := make([]int64, e.Info.Count)
	copy(stored, values)
	e.Values = stored
	d.Writes = append(d.Writes, Write{
		NumID:  e.Info.ID.NumID,
		Name:   e.Info.ID.Name,
		Values: append([]int64(nil), stored...),
	})
	return nil
}

// ReadTLV fails like the kernel does when the blob exceeds the buffer
func (d *Device) ReadTLV(numid, size uint32) ([]uint32, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.fail(fmt.Sprintf("tlv:%d", numid)); err != nil {
		return nil, err
	}
	e, err := d.find(numid)
	if err != nil {
		return nil, err
	}
	if e.TLV == nil {
		return nil, errors.Errorf("element %d has no tlv", numid)
	}
	if uint32(len(e.TLV))*4 > size {
		return nil, errors.Errorf("tlv of %d bytes exceeds %d byte buffer", len(e.TLV)*4, size)
	}
	return append([]uint32(nil), e.TLV...), nil
}

func (d *Device) Subscribe(enable bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	key := "subscribe"
	if !enable {
		key = "unsubscribe"
	}
	if err := d.fail(key); err != nil {
		return err
	}
	d.Subscribed = enable
	return nil
}

// Emit queues an event for ReadEvent
func (d *Device) Emit(ev alsaroute.Event) {
	d.mu.Lock()
	d.pending = append(d.pending, ev)
	d.mu.Unlock()
	select {
	case d.notify <- struct{}{}:
	default:
	}
}

func (d *Device) Wait(timeout time.Duration) (bool, error) {
	d.mu.Lock()
	ready := len(d.pending) > 0
	d.mu.Unlock()
	if ready {
		return true, nil
	}
	select {
	case <-d.notify:
		return true, nil
	case <-time.After(timeout):
		return false, nil
	}
}

func (d *Device) ReadEvent() (alsaroute.Event, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.pending) == 0 {
		return alsaroute.Event{}, false, nil
	}
	ev := d.pending[0]
	d.pending = d.pending[1:]
	return ev, true, nil
}

func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.CloseCount++
	return nil
}
