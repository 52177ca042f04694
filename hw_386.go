//go:build linux && 386

package alsaroute

// clong is the C long on 32-bit x86 linux
type clong = int32

// sndCtlElemValue mirrors struct snd_ctl_elem_value; on 32-bit the union is
// 512 bytes (long long value[64]).
type sndCtlElemValue struct {
	ID       sndCtlElemID
	_        [4]byte
	Value    [512]byte
	Reserved [128]byte
}
