package wmbusc1

import (
	"github.com/d21d3q/wmbusc1/internal/driver/multical21"
)

// InfoCodes are the decoded meter status flags and their durations.
type InfoCodes = multical21.InfoCodes

// Reading is the typed view of a decrypted Multical 21 telegram.
type Reading struct {
	MeterID   string
	FrameType string
	TotalM3   float64
	TargetM3  float64
	Info      InfoCodes
}

// Field returns a raw decoded field such as BLOCK2_CI or DATA_RECORD_2_VALUE.
func (r Result) Field(name string) ([]byte, bool) {
	if r.Telegram == nil {
		return nil, false
	}
	return r.Telegram.Fields.Get(name)
}

// FrameType reports the frame type byte of the decrypted block.
func (r Result) FrameType() (multical21.FrameType, bool) {
	v, ok := r.Field(multical21.FieldFrameType)
	if !ok || len(v) != 1 {
		return 0, false
	}
	return multical21.FrameType(v[0]), true
}

// TotalVolume returns the total volume in m3, when decoded.
func (r Result) TotalVolume() (float64, bool) {
	if r.Telegram == nil {
		return 0, false
	}
	return multical21.TotalVolume(r.Telegram.Fields)
}

// TargetVolume returns the target (month start) volume in m3, when decoded.
func (r Result) TargetVolume() (float64, bool) {
	if r.Telegram == nil {
		return 0, false
	}
	return multical21.TargetVolume(r.Telegram.Fields)
}

// InfoCodes returns the decoded status flags, when decoded.
func (r Result) InfoCodes() (InfoCodes, bool, error) {
	if r.Telegram == nil {
		return InfoCodes{}, false, nil
	}
	return multical21.DecodeInfoCodes(r.Telegram.Fields)
}

// Reading collects all decoded values. ok is false until the telegram has been decrypted
// and both volumes are present.
func (r Result) Reading() (Reading, bool, error) {
	total, okTotal := r.TotalVolume()
	target, okTarget := r.TargetVolume()
	if !okTotal || !okTarget {
		return Reading{}, false, nil
	}
	info, _, err := r.InfoCodes()
	if err != nil {
		return Reading{}, false, err
	}
	ft, _ := r.FrameType()
	return Reading{
		MeterID:   r.Telegram.MeterIDString(),
		FrameType: ft.String(),
		TotalM3:   total,
		TargetM3:  target,
		Info:      info,
	}, true, nil
}
