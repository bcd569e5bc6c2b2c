// Package wmbusc1 decodes Wireless M-Bus C1 telegrams of Kamstrup Multical 21 water meters,
// either one hex telegram at a time or from a raw modem byte stream.
package wmbusc1

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/sirupsen/logrus"

	"github.com/d21d3q/wmbusc1/internal/crypto"
	"github.com/d21d3q/wmbusc1/internal/driver"
	_ "github.com/d21d3q/wmbusc1/internal/driver/multical21" // register driver
	"github.com/d21d3q/wmbusc1/internal/frame"
	"github.com/d21d3q/wmbusc1/internal/keystore"
	"github.com/d21d3q/wmbusc1/internal/options"
)

// DriverUnknown is reported when no driver matches the telegram header.
const DriverUnknown = "unknown"

// Result captures the outcome of decoding one telegram.
type Result struct {
	Driver    string
	RawHex    string
	ByteCount int
	Telegram  *frame.Telegram
	Fields    map[string]any
}

// String renders a human-readable representation of the result.
func (r Result) String() string {
	data, err := json.MarshalIndent(r.Summary(), "", "  ")
	if err != nil {
		return fmt.Sprintf("driver: %s bytes:%d raw:%s (marshal error: %v)", r.Driver, r.ByteCount, r.RawHex, err)
	}
	return string(data)
}

// Summary returns the result as a plain map, ready for any output encoder.
func (r Result) Summary() map[string]any {
	summary := map[string]any{
		"driver":     r.Driver,
		"byte_count": r.ByteCount,
		"raw_hex":    r.RawHex,
	}
	if r.Telegram != nil {
		summary["meter_id"] = r.Telegram.MeterIDString()
		summary["manufacturer"] = r.Telegram.ManufacturerFlag()
		summary["ci"] = fmt.Sprintf("0x%02X", r.Telegram.CI)
		summary["raw_fields"] = r.Telegram.Fields.HexMap()
	}
	if len(r.Fields) > 0 {
		summary["fields"] = r.Fields
	}
	return summary
}

// Decrypted reports whether the application block was decrypted.
func (r Result) Decrypted() bool {
	return r.Telegram != nil && r.Telegram.Plaintext != nil
}

// Decoder turns raw telegrams into results. The zero value decodes with explicit keys only.
// A Decoder holds no per-telegram state and may be shared between goroutines.
type Decoder struct {
	// Keys resolves meter ids to AES keys when no key is passed to Decode.
	Keys keystore.Lookup
	// Log receives debug output; the standard logger is used when nil.
	Log logrus.FieldLogger
}

func (d *Decoder) logger() logrus.FieldLogger {
	if d == nil || d.Log == nil {
		return logrus.StandardLogger()
	}
	return d.Log
}

// Decode parses raw (starting with the L-field), selects a driver and decrypts the
// application block. The key is taken from the argument, then from the context
// (options.WithSecurityKey), then from d.Keys. A missing key is not an error: the result
// carries the unencrypted header fields only.
func (d *Decoder) Decode(ctx context.Context, raw []byte, key []byte) (Result, error) {
	telegram, err := frame.Parse(raw)
	if err != nil {
		return Result{}, err
	}
	result := Result{
		Driver:    DriverUnknown,
		RawHex:    strings.ToUpper(hex.EncodeToString(raw)),
		ByteCount: len(raw),
		Telegram:  &telegram,
	}
	log := d.logger().WithField("meter_id", telegram.MeterIDString())

	drv, err := driver.Lookup(driver.DetectionFor(&telegram))
	if err != nil {
		log.WithError(err).Debug("no driver for telegram")
		return result, nil
	}
	result.Driver = drv.Name()

	if len(key) == 0 {
		key = options.SecurityKey(ctx)
	}
	if len(key) == 0 && d != nil && d.Keys != nil {
		found, ok, err := d.Keys.Key(telegram.MeterIDString())
		if err != nil {
			return result, fmt.Errorf("key lookup: %w", err)
		}
		if ok {
			key = found
		}
	}

	if err := crypto.Decrypt(&telegram, key); err != nil {
		if errors.Is(err, crypto.ErrKeyRequired) {
			if reporter, ok := drv.(driver.PartialReporter); ok {
				log.Debug("no key for meter, reporting header fields only")
				fields := reporter.PartialFields(&telegram)
				fields["encryption"] = err.Error()
				result.Fields = fields
				return result, nil
			}
		}
		return result, err
	}

	fields, err := drv.Process(ctx, &telegram)
	if err != nil {
		if reporter, ok := drv.(driver.PartialReporter); ok {
			log.WithError(err).Debug("driver failed, reporting partial fields")
			partial := reporter.PartialFields(&telegram)
			partial["error"] = err.Error()
			result.Fields = partial
			return result, nil
		}
		return result, err
	}
	log.WithField("fields", telegram.Fields.String()).Debug("telegram decoded")
	result.Fields = fields
	return result, nil
}

// AnalyzeHex parses the frame, selects a driver, and returns decoded data.
func AnalyzeHex(ctx context.Context, raw string) (Result, error) {
	return AnalyzeHexWithOptions(ctx, raw, AnalyzeOptions{})
}

// AnalyzeHexWithOptions parses the frame with custom options.
func AnalyzeHexWithOptions(ctx context.Context, raw string, opts AnalyzeOptions) (Result, error) {
	ctx, key, err := opts.toInternal(ctx)
	if err != nil {
		return Result{}, err
	}
	data, err := decodeHex(raw)
	if err != nil {
		return Result{}, err
	}
	dec := &Decoder{Keys: opts.Keys}
	return dec.Decode(ctx, data, key)
}

// DecodeHex turns a pasted hex string into bytes. Whitespace, '|' and '_' separators and a
// leading 0x are ignored.
func DecodeHex(input string) ([]byte, error) {
	return decodeHex(input)
}

func decodeHex(input string) ([]byte, error) {
	clean := strings.ToUpper(stripWhitespace(input))
	clean = strings.TrimPrefix(clean, "0X")
	if len(clean)%2 != 0 {
		return nil, fmt.Errorf("hex telegram must contain an even number of digits, got %d", len(clean))
	}
	decoded := make([]byte, len(clean)/2)
	if _, err := hex.Decode(decoded, []byte(clean)); err != nil {
		return nil, fmt.Errorf("decode hex: %w", err)
	}
	return decoded, nil
}

func stripWhitespace(s string) string {
	builder := strings.Builder{}
	builder.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) || r == '|' || r == '_' {
			continue
		}
		builder.WriteRune(r)
	}
	return builder.String()
}
