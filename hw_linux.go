//go:build linux && (amd64 || arm64 || 386 || arm)

package alsaroute

import (
	"encoding/binary"
	"runtime"
	"time"
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

const (
	iocNrbits    = 8
	iocTypebits  = 8
	iocSizebits  = 14
	iocNrshift   = 0
	iocTypeshift = iocNrshift + iocNrbits
	iocSizeshift = iocTypeshift + iocTypebits
	iocDirshift  = iocSizeshift + iocSizebits
	iocWrite     = 1
	iocRead      = 2
)

// iowr builds a read-write ioctl request code
func iowr(typ, nr, size uintptr) uintptr {
	return ((iocRead | iocWrite) << iocDirshift) | (typ << iocTypeshift) | (nr << iocNrshift) | (size << iocSizeshift)
}

// sndCtlElemID mirrors struct snd_ctl_elem_id (64 bytes)
type sndCtlElemID struct {
	Numid     uint32
	Iface     int32
	Device    uint32
	Subdevice uint32
	Name      [44]byte
	Index     uint32
}

// sndCtlElemList mirrors struct snd_ctl_elem_list
type sndCtlElemList struct {
	Offset   uint32
	Space    uint32
	Used     uint32
	Count    uint32
	Pids     uintptr
	Reserved [50]byte
}

// sndCtlElemInfo mirrors struct snd_ctl_elem_info (272 bytes). Value is the
// integer/integer64/enumerated union.
type sndCtlElemInfo struct {
	ID       sndCtlElemID
	Type     int32
	Access   uint32
	Count    uint32
	Owner    int32
	Value    [128]byte
	Reserved [64]byte
}

// sndCtlTLVHeader mirrors the fixed part of struct snd_ctl_tlv
type sndCtlTLVHeader struct {
	Numid  uint32
	Length uint32
}

// sndCtlEventSize is sizeof(struct snd_ctl_event): the type, then the elem
// member of the data union (mask and a 64-byte id).
const sndCtlEventSize = 4 + 4 + 64

const sndCtlEventElem = 0

var (
	ioctlElemList        = iowr('U', 0x10, unsafe.Sizeof(sndCtlElemList{}))
	ioctlElemInfo        = iowr('U', 0x11, unsafe.Sizeof(sndCtlElemInfo{}))
	ioctlElemRead        = iowr('U', 0x12, unsafe.Sizeof(sndCtlElemValue{}))
	ioctlElemWrite       = iowr('U', 0x13, unsafe.Sizeof(sndCtlElemValue{}))
	ioctlSubscribeEvents = iowr('U', 0x16, unsafe.Sizeof(int32(0)))
	ioctlTLVRead         = iowr('U', 0x1a, unsafe.Sizeof(sndCtlTLVHeader{}))
)

const longSize = int(unsafe.Sizeof(clong(0)))

// hwDevice is a Device backed by an open /dev/snd/controlC<N> descriptor
type hwDevice struct {
	fd   int
	path string
}

func openHW(card int) (Device, error) {
	path := ControlPath(card)
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC|unix.O_NONBLOCK, 0)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	return &hwDevice{fd: fd, path: path}, nil
}

func (d *hwDevice) ioctl(req uintptr, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(d.fd), req, uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}

func (d *hwDevice) ElemCount() (uint32, error) {
	var list sndCtlElemList
	if err := d.ioctl(ioctlElemList, unsafe.Pointer(&list)); err != nil {
		return 0, errors.Wrap(err, "element count")
	}
	return list.Count, nil
}

func (d *hwDevice) ElemList(count uint32) ([]ElemID, error) {
	if count == 0 {
		return nil, nil
	}
	pids := make([]sndCtlElemID, count)
	list := sndCtlElemList{
		Space: count,
		Pids:  uintptr(unsafe.Pointer(&pids[0])),
	}
	err := d.ioctl(ioctlElemList, unsafe.Pointer(&list))
	runtime.KeepAlive(pids)
	if err != nil {
		return nil, errors.Wrap(err, "element list")
	}

	ids := make([]ElemID, 0, list.Used)
	for i := uint32(0); i < list.Used && i < count; i++ {
		ids = append(ids, fromKernelID(&pids[i]))
	}
	return ids, nil
}

func (d *hwDevice) elemInfo(info *sndCtlElemInfo) error {
	return d.ioctl(ioctlElemInfo, unsafe.Pointer(info))
}

func (d *hwDevice) ElemInfo(numid uint32) (ElemInfo, error) {
	var raw sndCtlElemInfo
	raw.ID.Numid = numid
	if err := d.elemInfo(&raw); err != nil {
		return ElemInfo{}, errors.Wrapf(err, "element info %d", numid)
	}
	return decodeElemInfo(&raw), nil
}

func (d *hwDevice) ItemName(numid, item uint32) (string, error) {
	var raw sndCtlElemInfo
	raw.ID.Numid = numid
	binary.NativeEndian.PutUint32(raw.Value[4:8], item)
	if err := d.elemInfo(&raw); err != nil {
		return "", errors.Wrapf(err, "element %d item %d", numid, item)
	}
	return cstring(raw.Value[8:72]), nil
}

func (d *hwDevice) Read(info *ElemInfo) ([]int64, error) {
	var raw sndCtlElemValue
	raw.ID.Numid = info.ID.NumID
	if err := d.ioctl(ioctlElemRead, unsafe.Pointer(&raw)); err != nil {
		return nil, errors.Wrapf(err, "read %q", info.ID.Name)
	}
	return decodeValues(info.Type, info.Count, raw.Value[:])
}

func (d *hwDevice) Write(info *ElemInfo, values []int64) error {
	var raw sndCtlElemValue
	raw.ID.Numid = info.ID.NumID
	if err := encodeValues(info.Type, values, raw.Value[:]); err != nil {
		return err
	}
	if err := d.ioctl(ioctlElemWrite, unsafe.Pointer(&raw)); err != nil {
		return errors.Wrapf(err, "write %q", info.ID.Name)
	}
	return nil
}

func (d *hwDevice) ReadTLV(numid, size uint32) ([]uint32, error) {
	words := (size + 3) / 4
	buf := make([]uint32, 2+words)
	buf[0] = numid
	buf[1] = words * 4
	if err := d.ioctl(ioctlTLVRead, unsafe.Pointer(&buf[0])); err != nil {
		return nil, errors.Wrapf(err, "tlv read %d", numid)
	}
	return buf[2:], nil
}

func (d *hwDevice) Subscribe(enable bool) error {
	var on int32
	if enable {
		on = 1
	}
	if err := d.ioctl(ioctlSubscribeEvents, unsafe.Pointer(&on)); err != nil {
		return errors.Wrap(err, "subscribe events")
	}
	return nil
}

func (d *hwDevice) Wait(timeout time.Duration) (bool, error) {
	fds := []unix.PollFd{{Fd: int32(d.fd), Events: unix.POLLIN}}
	for {
		n, err := unix.Poll(fds, int(timeout/time.Millisecond))
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return false, errors.Wrap(err, "poll")
		}
		return n > 0 && fds[0].Revents&unix.POLLIN != 0, nil
	}
}

func (d *hwDevice) ReadEvent() (Event, bool, error) {
	var buf [sndCtlEventSize]byte
	n, err := unix.Read(d.fd, buf[:])
	if err == unix.EAGAIN {
		return Event{}, false, nil
	}
	if err != nil {
		return Event{}, false, errors.Wrap(err, "read event")
	}
	if n < len(buf) || int32(binary.NativeEndian.Uint32(buf[0:4])) != sndCtlEventElem {
		return Event{}, false, nil
	}
	// id layout: numid, iface, device, subdevice, name[44], index
	id := buf[8:]
	return Event{
		NumID: binary.NativeEndian.Uint32(id[0:4]),
		Mask:  EventMask(binary.NativeEndian.Uint32(buf[4:8])),
		Name:  cstring(id[16:60]),
		Index: binary.NativeEndian.Uint32(id[60:64]),
	}, true, nil
}

func (d *hwDevice) Close() error {
	if d.fd < 0 {
		return nil
	}
	err := unix.Close(d.fd)
	d.fd = -1
	if err != nil {
		return errors.Wrapf(err, "close %s", d.path)
	}
	return nil
}

func fromKernelID(id *sndCtlElemID) ElemID {
	return ElemID{
		NumID:     id.Numid,
		Interface: Interface(id.Iface),
		Device:    id.Device,
		Subdevice: id.Subdevice,
		Name:      cstring(id.Name[:]),
		Index:     id.Index,
	}
}

func decodeElemInfo(raw *sndCtlElemInfo) ElemInfo {
	info := ElemInfo{
		ID:     fromKernelID(&raw.ID),
		Type:   ControlType(raw.Type),
		Access: Access(raw.Access),
		Count:  raw.Count,
	}
	switch info.Type {
	case ControlTypeBoolean, ControlTypeInteger:
		info.Min = readLong(raw.Value[0:])
		info.Max = readLong(raw.Value[longSize:])
		info.Step = readLong(raw.Value[2*longSize:])
	case ControlTypeInteger64:
		info.Min64 = int64(binary.NativeEndian.Uint64(raw.Value[0:8]))
		info.Max64 = int64(binary.NativeEndian.Uint64(raw.Value[8:16]))
		info.Step64 = int64(binary.NativeEndian.Uint64(raw.Value[16:24]))
	case ControlTypeEnumerated:
		info.ItemCount = binary.NativeEndian.Uint32(raw.Value[0:4])
	}
	return info
}

func readLong(b []byte) int64 {
	if longSize == 8 {
		return int64(binary.NativeEndian.Uint64(b))
	}
	return int64(int32(binary.NativeEndian.Uint32(b)))
}

func writeLong(b []byte, v int64) {
	if longSize == 8 {
		binary.NativeEndian.PutUint64(b, uint64(v))
		return
	}
	binary.NativeEndian.PutUint32(b, uint32(int32(v)))
}

// decodeValues unpacks count elements of the value union for the given type
func decodeValues(t ControlType, count uint32, union []byte) ([]int64, error) {
	width, err := valueWidth(t)
	if err != nil {
		return nil, err
	}
	if int(count)*width > len(union) {
		return nil, errors.Wrapf(ErrInvalidArgument, "%d %s values exceed value union", count, t)
	}

	values := make([]int64, count)
	for i := range values {
		b := union[i*width:]
		switch t {
		case ControlTypeBoolean, ControlTypeInteger:
			values[i] = readLong(b)
		case ControlTypeInteger64:
			values[i] = int64(binary.NativeEndian.Uint64(b))
		case ControlTypeEnumerated:
			values[i] = int64(binary.NativeEndian.Uint32(b))
		case ControlTypeBytes:
			values[i] = int64(b[0])
		}
	}
	return values, nil
}

// encodeValues packs values into the value union for the given type
func encodeValues(t ControlType, values []int64, union []byte) error {
	width, err := valueWidth(t)
	if err != nil {
		return err
	}
	if len(values)*width > len(union) {
		return errors.Wrapf(ErrInvalidArgument, "%d %s values exceed value union", len(values), t)
	}

	for i, v := range values {
		b := union[i*width:]
		switch t {
		case ControlTypeBoolean, ControlTypeInteger:
			writeLong(b, v)
		case ControlTypeInteger64:
			binary.NativeEndian.PutUint64(b, uint64(v))
		case ControlTypeEnumerated:
			binary.NativeEndian.PutUint32(b, uint32(v))
		case ControlTypeBytes:
			b[0] = byte(v)
		}
	}
	return nil
}

func valueWidth(t ControlType) (int, error) {
	switch t {
	case ControlTypeBoolean, ControlTypeInteger:
		return longSize, nil
	case ControlTypeInteger64:
		return 8, nil
	case ControlTypeEnumerated:
		return 4, nil
	case ControlTypeBytes:
		return 1, nil
	default:
		return 0, errors.Wrapf(ErrInvalidArgument, "unsupported control type %s", t)
	}
}

// cstring converts a NUL-terminated byte field to a string
func cstring(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
