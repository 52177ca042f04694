//go:build linux && arm

package alsaroute

// clong is the C long on 32-bit arm linux
type clong = int32

// sndCtlElemValue mirrors struct snd_ctl_elem_value. EABI aligns the
// long long member of the value union to 8 bytes, hence the extra padding
// after the indirect bit.
type sndCtlElemValue struct {
	ID       sndCtlElemID
	_        [8]byte
	Value    [512]byte
	Reserved [128]byte
}
