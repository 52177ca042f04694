package alsaroute

import (
	"github.com/pkg/errors"
)

// TLV type tags (SNDRV_CTL_TLVT_*)
const (
	TLVTypeContainer    = 0
	TLVTypeDBScale      = 1
	TLVTypeDBLinear     = 2
	TLVTypeDBRange      = 3
	TLVTypeDBMinMax     = 4
	TLVTypeDBMinMaxMute = 5
)

// maxTLVRangeSize bounds the length of a DB_RANGE block, in ints
const maxTLVRangeSize = 256

// DBRange is a control's loudness range in dB
type DBRange struct {
	Min  float64
	Max  float64
	Step float64
}

// TLVDBRange decodes the dB range, in centi-dB, covered by the raw values
// rangeMin..rangeMax of a TLV blob. tlv starts at the type word.
func TLVDBRange(tlv []uint32, rangeMin, rangeMax int64) (min, max int64, err error) {
	if len(tlv) < 2 {
		return 0, 0, errors.Wrapf(ErrInvalidArgument, "tlv of %d words", len(tlv))
	}

	switch tlv[0] {
	case TLVTypeDBRange:
		length := intIndex(tlv[1])
		if length > maxTLVRangeSize {
			return 0, 0, errors.Wrapf(ErrInvalidArgument, "db range of %d ints", length)
		}
		end := 2 + length
		if end > len(tlv) {
			return 0, 0, errors.Wrapf(ErrInvalidArgument, "db range of %d ints in %d words", length, len(tlv)-2)
		}

		for pos := 2; pos+4 <= end; {
			subMin := int64(int32(tlv[pos]))
			subMax := int64(int32(tlv[pos+1]))
			if rangeMax < subMax {
				subMax = rangeMax
			}
			rmin, rmax, err := TLVDBRange(tlv[pos+2:end], subMin, subMax)
			if err != nil {
				return 0, 0, err
			}
			if pos > 2 {
				if rmin < min {
					min = rmin
				}
				if rmax > max {
					max = rmax
				}
			} else {
				min, max = rmin, rmax
			}
			if rangeMax == subMax {
				return min, max, nil
			}
			pos += intIndex(tlv[pos+3]) + 4
		}
		return min, max, nil

	case TLVTypeDBScale:
		if len(tlv) < 4 {
			return 0, 0, errors.Wrapf(ErrInvalidArgument, "db scale of %d words", len(tlv))
		}
		min = int64(int32(tlv[2]))
		step := int64(tlv[3] & 0xffff)
		return min, min + step*(rangeMax-rangeMin), nil

	case TLVTypeDBMinMax, TLVTypeDBMinMaxMute, TLVTypeDBLinear:
		if len(tlv) < 4 {
			return 0, 0, errors.Wrapf(ErrInvalidArgument, "db minmax of %d words", len(tlv))
		}
		return int64(int32(tlv[2])), int64(int32(tlv[3])), nil

	default:
		return 0, 0, errors.Wrapf(ErrInvalidArgument, "tlv type %d", tlv[0])
	}
}

// intIndex converts a byte length to a count of native ints
func intIndex(size uint32) int {
	return int((size + 3) / 4)
}

// DBRange returns the dB range covered by the raw values rangeMin..rangeMax
func (ctl *Control) DBRange(rangeMin, rangeMax int64) (DBRange, error) {
	if ctl.TLV == nil {
		return DBRange{}, errors.Wrapf(ErrNoTLV, "control %q", ctl.ID.Name)
	}
	if rangeMax == rangeMin {
		return DBRange{}, errors.Wrapf(ErrInvalidArgument, "empty range %d..%d", rangeMin, rangeMax)
	}

	min, max, err := TLVDBRange(ctl.TLV, rangeMin, rangeMax)
	if err != nil {
		return DBRange{}, errors.Wrapf(err, "control %q", ctl.ID.Name)
	}
	return DBRange{
		Min:  float64(min) / 100,
		Max:  float64(max) / 100,
		Step: float64(max-min) / float64(rangeMax-rangeMin) / 100,
	}, nil
}
