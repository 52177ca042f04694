package alsaroute

import (
	"fmt"
	"math/bits"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Control is a control element with its cached descriptor. Items holds the
// enumerated item names; TLV holds the dB scale blob of known volume
// controls, nil when absent.
type Control struct {
	ElemInfo
	Items []string
	TLV   []uint32
	mixer *Mixer
}

// Name returns the element name
func (ctl *Control) Name() string {
	return ctl.ID.Name
}

func (ctl *Control) device() (Device, error) {
	if ctl.mixer == nil || ctl.mixer.dev == nil {
		return nil, errors.Wrapf(ErrClosed, "control %q", ctl.ID.Name)
	}
	return ctl.mixer.dev, nil
}

func (ctl *Control) write(values []int64) error {
	dev, err := ctl.device()
	if err != nil {
		return err
	}
	return dev.Write(&ctl.ElemInfo, values)
}

func (ctl *Control) invalidType(op string) error {
	return errors.Wrapf(ErrInvalidArgument, "%s on %s control %q", op, ctl.Type, ctl.ID.Name)
}

// Values reads the current value vector
func (ctl *Control) Values() ([]int64, error) {
	dev, err := ctl.device()
	if err != nil {
		return nil, err
	}
	return dev.Read(&ctl.ElemInfo)
}

// Set maps a 0-100 percentage onto the native range and writes it to every
// position. Percentages above 100 are treated as 100.
func (ctl *Control) Set(percent uint) error {
	if percent > 100 {
		percent = 100
	}

	var v int64
	switch ctl.Type {
	case ControlTypeBoolean:
		if percent != 0 {
			v = 1
		}
	case ControlTypeInteger:
		v = scale(ctl.Min, ctl.Max, percent)
	case ControlTypeInteger64:
		v = scale(ctl.Min64, ctl.Max64, percent)
	default:
		return ctl.invalidType("set")
	}

	values := make([]int64, ctl.Count)
	for i := range values {
		values[i] = v
	}
	return ctl.write(values)
}

// scale returns min + (max-min)*percent/100 using 128-bit intermediates so
// that ranges spanning the whole int64 domain stay within [min, max]
func scale(min, max int64, percent uint) int64 {
	if max <= min {
		return min
	}
	span := uint64(max) - uint64(min)
	hi, lo := bits.Mul64(span, uint64(percent))
	off, _ := bits.Div64(hi, lo, 100)
	return int64(uint64(min) + off)
}

// unscale is the inverse of scale for a value already clamped to [min, max]
func unscale(v, min, max int64) uint {
	span := uint64(max) - uint64(min)
	hi, lo := bits.Mul64(uint64(v)-uint64(min), 100)
	percent, _ := bits.Div64(hi, lo, span)
	return uint(percent)
}

// Get returns the first position as a percentage of the native range
func (ctl *Control) Get() (uint, error) {
	var min, max int64
	switch ctl.Type {
	case ControlTypeBoolean, ControlTypeInteger:
		min, max = ctl.Min, ctl.Max
	case ControlTypeInteger64:
		min, max = ctl.Min64, ctl.Max64
	default:
		return 0, ctl.invalidType("get")
	}

	values, err := ctl.Values()
	if err != nil {
		return 0, err
	}
	if len(values) == 0 || max <= min {
		return 0, nil
	}
	v := values[0]
	if ctl.Type == ControlTypeBoolean {
		if v != 0 {
			return 100, nil
		}
		return 0, nil
	}
	return unscale(clamp(v, min, max), min, max), nil
}

// Select writes the enumerated item with the given name
func (ctl *Control) Select(name string) error {
	if ctl.Type != ControlTypeEnumerated {
		return ctl.invalidType("select")
	}
	for i, item := range ctl.Items {
		if item == name {
			return ctl.write([]int64{int64(i)})
		}
	}
	return errors.Wrapf(ErrInvalidArgument, "control %q has no item %q", ctl.ID.Name, name)
}

// SetIntDouble writes left to the first position and right to the rest.
// Integer values are clamped to the native range independently. For
// enumerated controls left selects the item and right is unused.
func (ctl *Control) SetIntDouble(left, right int64) error {
	var min, max int64
	switch ctl.Type {
	case ControlTypeInteger:
		min, max = ctl.Min, ctl.Max
	case ControlTypeInteger64:
		min, max = ctl.Min64, ctl.Max64
	case ControlTypeBoolean:
		left, right = truth(left), truth(right)
		return ctl.write(leftRight(ctl.Count, left, right))
	case ControlTypeEnumerated:
		if len(ctl.Items) == 0 {
			return errors.Wrapf(ErrInvalidArgument, "control %q has no items", ctl.ID.Name)
		}
		idx := clamp(left, 0, int64(len(ctl.Items)-1))
		return ctl.Select(ctl.Items[idx])
	default:
		return ctl.invalidType("set int")
	}

	left, right = clamp(left, min, max), clamp(right, min, max)
	return ctl.write(leftRight(ctl.Count, left, right))
}

// SetInt writes value to every position
func (ctl *Control) SetInt(value int64) error {
	return ctl.SetIntDouble(value, value)
}

// MinMax returns the native range
func (ctl *Control) MinMax() (min, max int64, err error) {
	switch ctl.Type {
	case ControlTypeBoolean, ControlTypeInteger:
		return ctl.Min, ctl.Max, nil
	case ControlTypeInteger64:
		return ctl.Min64, ctl.Max64, nil
	case ControlTypeEnumerated:
		return 0, int64(ctl.ItemCount), nil
	default:
		return 0, 0, ctl.invalidType("minmax")
	}
}

func leftRight(count uint32, left, right int64) []int64 {
	values := make([]int64, count)
	for i := range values {
		if i == 0 {
			values[i] = left
		} else {
			values[i] = right
		}
	}
	return values
}

func truth(v int64) int64 {
	if v != 0 {
		return 1
	}
	return 0
}

func clamp(v, min, max int64) int64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// ValueString returns the current value as a human-readable string
func (ctl *Control) ValueString() (string, error) {
	values, err := ctl.Values()
	if err != nil {
		return "", err
	}

	parts := make([]string, 0, len(values))
	for _, v := range values {
		switch ctl.Type {
		case ControlTypeBoolean:
			if v == 0 {
				parts = append(parts, "Off")
			} else {
				parts = append(parts, "On")
			}
		case ControlTypeEnumerated:
			if v >= 0 && v < int64(len(ctl.Items)) {
				parts = append(parts, ctl.Items[v])
			} else {
				parts = append(parts, fmt.Sprintf("Unknown(%d)", v))
			}
		default:
			parts = append(parts, strconv.FormatInt(v, 10))
		}
	}
	return strings.Join(parts, ", "), nil
}

// SetByString sets the control from a string: on/off for booleans, an item
// name or index for enumerated controls, one or two integers otherwise
func (ctl *Control) SetByString(valueStr string) error {
	switch ctl.Type {
	case ControlTypeBoolean:
		switch strings.ToLower(valueStr) {
		case "on", "true", "1", "yes":
			return ctl.SetInt(1)
		case "off", "false", "0", "no":
			return ctl.SetInt(0)
		}
		return errors.Wrapf(ErrInvalidArgument, "invalid boolean value: %s (use on/off, true/false, 1/0, yes/no)", valueStr)

	case ControlTypeEnumerated:
		for _, item := range ctl.Items {
			if strings.EqualFold(item, valueStr) {
				return ctl.Select(item)
			}
		}
		if index, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
			return ctl.SetInt(index)
		}
		return errors.Wrapf(ErrInvalidArgument, "invalid enum value: %s (valid: %v)", valueStr, ctl.Items)

	case ControlTypeInteger, ControlTypeInteger64:
		fields := strings.FieldsFunc(valueStr, func(r rune) bool { return r == ',' || r == ' ' })
		if len(fields) == 0 || len(fields) > 2 {
			return errors.Wrapf(ErrInvalidArgument, "invalid integer value: %s", valueStr)
		}
		left, err := strconv.ParseInt(fields[0], 10, 64)
		if err != nil {
			return errors.Wrapf(ErrInvalidArgument, "invalid integer value: %s", valueStr)
		}
		right := left
		if len(fields) == 2 {
			if right, err = strconv.ParseInt(fields[1], 10, 64); err != nil {
				return errors.Wrapf(ErrInvalidArgument, "invalid integer value: %s", valueStr)
			}
		}
		return ctl.SetIntDouble(left, right)

	default:
		return ctl.invalidType("set")
	}
}

// String returns a string representation of the control
func (ctl *Control) String() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%4d %-44s [%s]", ctl.ID.NumID, ctl.ID.Name, ctl.Type))

	switch ctl.Type {
	case ControlTypeBoolean, ControlTypeInteger:
		sb.WriteString(fmt.Sprintf(" range: [%d, %d]", ctl.Min, ctl.Max))
	case ControlTypeInteger64:
		sb.WriteString(fmt.Sprintf(" range: [%d, %d]", ctl.Min64, ctl.Max64))
	case ControlTypeEnumerated:
		sb.WriteString(fmt.Sprintf(" items: %v", ctl.Items))
	}

	if ctl.Count > 1 {
		sb.WriteString(fmt.Sprintf(" x%d", ctl.Count))
	}
	if ctl.TLV != nil {
		sb.WriteString(" dB")
	}

	return sb.String()
}

// FullID returns a unique identifier string for the control
func (ctl *Control) FullID() string {
	return fmt.Sprintf("%s:%d.%d/%s[%d]", ctl.ID.Interface, ctl.ID.Device, ctl.ID.Subdevice, ctl.ID.Name, ctl.ID.Index)
}

// DetailedString returns a detailed string representation including current value
func (ctl *Control) DetailedString() string {
	value, err := ctl.ValueString()
	if err != nil {
		value = fmt.Sprintf("Error: %v", err)
	}

	return fmt.Sprintf("%s = %s", ctl.String(), value)
}
