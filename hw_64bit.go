//go:build linux && (amd64 || arm64)

package alsaroute

// clong is the C long on 64-bit linux
type clong = int64

// sndCtlElemValue mirrors struct snd_ctl_elem_value. The 4 bytes after the id
// hold the obsolete indirect bit plus padding to align the long value union.
type sndCtlElemValue struct {
	ID       sndCtlElemID
	_        [8]byte
	Value    [1024]byte
	Reserved [128]byte
}
