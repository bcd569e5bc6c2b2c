package multical21

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/d21d3q/wmbusc1/internal/driver"
	"github.com/d21d3q/wmbusc1/internal/frame"
)

const (
	// ManufacturerKamstrup is the "KAM" manufacturer code.
	ManufacturerKamstrup = 0x2C2D
	// CIExtendedLinkLayer announces the ELL block carrying CC/ACC/SN.
	CIExtendedLinkLayer = 0x8D

	driverName = "multical21"
	mediaWater = "water"
)

func init() {
	driver.Register(driver.Detection{
		Manufacturer: ManufacturerKamstrup,
		CI:           CIExtendedLinkLayer,
	}, Driver{})
}

// Driver decodes Kamstrup Multical 21 / flowIQ water meter telegrams.
type Driver struct{}

var _ driver.PartialReporter = Driver{}

// Name returns the canonical driver name.
func (Driver) Name() string { return driverName }

// PartialFields implements driver.PartialReporter. Only unencrypted header data is used.
func (Driver) PartialFields(t *frame.Telegram) map[string]any {
	fields := map[string]any{
		"_":     "telegram",
		"id":    t.MeterIDString(),
		"meter": driverName,
		"media": mediaWater,
	}
	if acc, ok := t.ELLACC(); ok {
		fields["access_number"] = int(acc)
	}
	return fields
}

// Process dispatches on the frame type of the decrypted block and interprets the records.
func (d Driver) Process(_ context.Context, t *frame.Telegram) (map[string]any, error) {
	if t.Plaintext == nil {
		return nil, errors.New("multical21: telegram not decrypted")
	}
	f, err := Dispatch(t.Plaintext, t.Fields)
	if err != nil {
		return nil, err
	}
	if _, unknown := f.(UnknownFrame); unknown {
		return nil, fmt.Errorf("multical21: unsupported frame type %s", f.Type())
	}

	fields := d.PartialFields(t)
	fields["frame_type"] = f.Type().String()
	if full, ok := f.(FullFrame); ok {
		if err := full.Check(); err != nil {
			fields["record_mismatch"] = err.Error()
		}
	}
	if total, ok := TotalVolume(t.Fields); ok {
		fields["total_m3"] = total
	}
	if target, ok := TargetVolume(t.Fields); ok {
		fields["target_m3"] = target
	}
	codes, ok, err := DecodeInfoCodes(t.Fields)
	if err != nil {
		return nil, err
	}
	if ok {
		populateInfoCodes(fields, codes)
	}
	return fields, nil
}

func populateInfoCodes(fields map[string]any, c InfoCodes) {
	fields["current_status"] = strings.Join(c.Active(), " ")
	fields["dry"] = c.Dry
	fields["reversed"] = c.Reversed
	fields["leaking"] = c.Leaking
	fields["bursting"] = c.Bursting
	fields["time_dry"] = c.DryDuration
	fields["time_reversed"] = c.ReversedDuration
	fields["time_leaking"] = c.LeakingDuration
	fields["time_bursting"] = c.BurstingDuration
}
