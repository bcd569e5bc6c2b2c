package multical21

import (
	"errors"
	"fmt"

	"github.com/d21d3q/wmbusc1/internal/frame"
)

// ErrInvalidDuration is returned for duration codes outside 0..7.
var ErrInvalidDuration = errors.New("invalid duration code")

const volumeDivisor = 1000.0

var durationLabels = [8]string{
	"0 hours",
	"1-8 hours",
	"9-24 hours",
	"25-72 hours",
	"73-168 hours",
	"169-336 hours",
	"337-504 hours",
	"≥505 hours",
}

// TransformDuration maps a 3 bit duration code to its label.
func TransformDuration(code int) (string, error) {
	if code < 0 || code >= len(durationLabels) {
		return "", fmt.Errorf("%w: %d", ErrInvalidDuration, code)
	}
	return durationLabels[code], nil
}

// Volume returns the named record value in m3. The meter reports litres, so the raw
// little endian integer is divided by 1000. ok is false when the field was never decoded.
func Volume(fields *frame.Fields, name string) (float64, bool) {
	raw, ok := fields.Uint(name)
	if !ok {
		return 0, false
	}
	return float64(raw) / volumeDivisor, true
}

// TotalVolume returns the current volume (record 2).
func TotalVolume(fields *frame.Fields) (float64, bool) {
	return Volume(fields, FieldRecord2Value)
}

// TargetVolume returns the target date volume (record 3).
func TargetVolume(fields *frame.Fields) (float64, bool) {
	return Volume(fields, FieldRecord3Value)
}

// InfoCodes is the unpacked record 1 status word.
type InfoCodes struct {
	Raw      uint16
	Dry      bool
	Reversed bool
	Leaking  bool
	Bursting bool

	DryDuration      string
	ReversedDuration string
	LeakingDuration  string
	BurstingDuration string
}

// Active lists the set flags, or "OK" when none is set.
func (c InfoCodes) Active() []string {
	var out []string
	if c.Dry {
		out = append(out, "DRY")
	}
	if c.Reversed {
		out = append(out, "REVERSED")
	}
	if c.Leaking {
		out = append(out, "LEAK")
	}
	if c.Bursting {
		out = append(out, "BURST")
	}
	if len(out) == 0 {
		out = append(out, "OK")
	}
	return out
}

const (
	infoDry      = 1 << 0
	infoReversed = 1 << 1
	infoLeaking  = 1 << 2
	infoBursting = 1 << 3

	shiftDryDuration      = 4
	shiftReversedDuration = 7
	shiftLeakingDuration  = 10
	shiftBurstingDuration = 13
	durationMask          = 0x07
)

// DecodeInfoCodes unpacks DATA_RECORD_1_VALUE. ok is false when the field is absent.
func DecodeInfoCodes(fields *frame.Fields) (InfoCodes, bool, error) {
	raw, ok := fields.Get(FieldRecord1Value)
	if !ok || len(raw) != 2 {
		return InfoCodes{}, false, nil
	}
	codes, err := UnpackInfoCodes(uint16(raw[0]) | uint16(raw[1])<<8)
	return codes, true, err
}

// UnpackInfoCodes decodes the flag bits and the 3 bit duration codes of a status word.
func UnpackInfoCodes(v uint16) (InfoCodes, error) {
	c := InfoCodes{
		Raw:      v,
		Dry:      v&infoDry != 0,
		Reversed: v&infoReversed != 0,
		Leaking:  v&infoLeaking != 0,
		Bursting: v&infoBursting != 0,
	}
	durations := []struct {
		shift int
		dst   *string
	}{
		{shiftDryDuration, &c.DryDuration},
		{shiftReversedDuration, &c.ReversedDuration},
		{shiftLeakingDuration, &c.LeakingDuration},
		{shiftBurstingDuration, &c.BurstingDuration},
	}
	for _, d := range durations {
		label, err := TransformDuration(int(v>>d.shift) & durationMask)
		if err != nil {
			return c, err
		}
		*d.dst = label
	}
	return c, nil
}
