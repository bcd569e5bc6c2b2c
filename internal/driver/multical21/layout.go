package multical21

import (
	"errors"
	"fmt"

	"github.com/d21d3q/wmbusc1/internal/driver/wmbus"
	"github.com/d21d3q/wmbusc1/internal/frame"
	"github.com/d21d3q/wmbusc1/internal/records"
)

// FrameType is the byte at offset 2 of the decrypted application block.
type FrameType byte

const (
	FrameTypeFull    FrameType = 0x78
	FrameTypeCompact FrameType = 0x79

	frameTypeOffset = 2
)

func (ft FrameType) String() string {
	switch ft {
	case FrameTypeFull:
		return "full"
	case FrameTypeCompact:
		return "compact"
	default:
		return fmt.Sprintf("unknown(0x%02X)", byte(ft))
	}
}

var (
	// ErrTruncated is returned when the decrypted block is shorter than its layout.
	ErrTruncated = errors.New("multical21: application block truncated")
	// ErrRecordMismatch is reported by FullFrame.Check when a record's DIF disagrees with the
	// layout.
	ErrRecordMismatch = errors.New("multical21: data record does not match layout")
)

// Application layer field names.
const (
	FieldPLCRC     = "BLOCK3_PLCRC"
	FieldFrameType = "BLOCK3_FRAME_TYPE"
	FieldExtraCRC  = "BLOCK3_EXTRA_CRC"

	FieldRecord1DIF   = "DATA_RECORD_1_DIF"
	FieldRecord1VIF   = "DATA_RECORD_1_VIF"
	FieldRecord1VIFE  = "DATA_RECORD_1_VIFE"
	FieldRecord1Value = "DATA_RECORD_1_VALUE"
	FieldRecord2DIF   = "DATA_RECORD_2_DIF"
	FieldRecord2VIF   = "DATA_RECORD_2_VIF"
	FieldRecord2Value = "DATA_RECORD_2_VALUE"
	FieldRecord3DIF   = "DATA_RECORD_3_DIF"
	FieldRecord3VIF   = "DATA_RECORD_3_VIF"
	FieldRecord3Value = "DATA_RECORD_3_VALUE"
)

// CompactLayout is used by frame type 0x79. The DIF/VIF bytes are implied by the format
// signature carried in the extra CRC.
var CompactLayout = frame.FieldMap{
	{Name: FieldPLCRC, Offset: 0, Length: 2},
	{Name: FieldFrameType, Offset: 2, Length: 1},
	{Name: FieldExtraCRC, Offset: 3, Length: 4},
	{Name: FieldRecord1Value, Offset: 7, Length: 2},
	{Name: FieldRecord2Value, Offset: 9, Length: 4},
	{Name: FieldRecord3Value, Offset: 13, Length: 4},
}

// FullLayout is used by frame type 0x78.
var FullLayout = frame.FieldMap{
	{Name: FieldPLCRC, Offset: 0, Length: 2},
	{Name: FieldFrameType, Offset: 2, Length: 1},
	{Name: FieldRecord1DIF, Offset: 3, Length: 1},
	{Name: FieldRecord1VIF, Offset: 4, Length: 1},
	{Name: FieldRecord1VIFE, Offset: 5, Length: 1},
	{Name: FieldRecord1Value, Offset: 6, Length: 2},
	{Name: FieldRecord2DIF, Offset: 8, Length: 1},
	{Name: FieldRecord2VIF, Offset: 9, Length: 1},
	{Name: FieldRecord2Value, Offset: 10, Length: 4},
	{Name: FieldRecord3DIF, Offset: 14, Length: 1},
	{Name: FieldRecord3VIF, Offset: 15, Length: 1},
	{Name: FieldRecord3Value, Offset: 16, Length: 4},
}

// Frame is the decoded application block. The concrete type tells which layout applied.
type Frame interface {
	Type() FrameType
}

// CompactFrame is a 0x79 frame.
type CompactFrame struct {
	PLCRC    []byte
	ExtraCRC []byte
	InfoCode []byte
	Current  []byte
	Target   []byte
}

// Type implements Frame.
func (CompactFrame) Type() FrameType { return FrameTypeCompact }

// FullFrame is a 0x78 frame carrying three self-describing data records.
type FullFrame struct {
	PLCRC   []byte
	Records [3]records.Record
}

// Type implements Frame.
func (FullFrame) Type() FrameType { return FrameTypeFull }

// UnknownFrame carries a frame type byte without a known layout. No fields are extracted.
type UnknownFrame struct {
	TypeByte byte
}

// Type implements Frame.
func (u UnknownFrame) Type() FrameType { return FrameType(u.TypeByte) }

// LayoutFor returns the field map of a frame type.
func LayoutFor(ft FrameType) (frame.FieldMap, bool) {
	switch ft {
	case FrameTypeFull:
		return FullLayout, true
	case FrameTypeCompact:
		return CompactLayout, true
	default:
		return nil, false
	}
}

// Dispatch selects the layout from the frame type byte of the decrypted block, stores every
// field of that layout in fields and returns the typed frame. The type byte alone decides
// the layout. An unrecognised type byte yields UnknownFrame; neither it nor an error leaves
// anything in fields.
func Dispatch(plaintext []byte, fields *frame.Fields) (Frame, error) {
	if len(plaintext) <= frameTypeOffset {
		return nil, fmt.Errorf("%w: %d bytes", ErrTruncated, len(plaintext))
	}
	ft := FrameType(plaintext[frameTypeOffset])
	layout, ok := LayoutFor(ft)
	if !ok {
		return UnknownFrame{TypeByte: byte(ft)}, nil
	}
	if len(plaintext) < layout.Size() {
		return nil, fmt.Errorf("%w: %s frame needs %d bytes, got %d", ErrTruncated, ft, layout.Size(), len(plaintext))
	}
	scratch := &frame.Fields{}
	if err := layout.Extract(plaintext, scratch); err != nil {
		return nil, err
	}
	var f Frame
	switch ft {
	case FrameTypeCompact:
		f = compactFrom(scratch)
	default:
		f = fullFrom(scratch)
	}
	for _, name := range scratch.Names() {
		v, _ := scratch.Get(name)
		if err := fields.Set(name, v); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func compactFrom(fields *frame.Fields) CompactFrame {
	get := func(name string) []byte {
		v, _ := fields.Get(name)
		return v
	}
	return CompactFrame{
		PLCRC:    get(FieldPLCRC),
		ExtraCRC: get(FieldExtraCRC),
		InfoCode: get(FieldRecord1Value),
		Current:  get(FieldRecord2Value),
		Target:   get(FieldRecord3Value),
	}
}

func fullFrom(fields *frame.Fields) FullFrame {
	get := func(name string) []byte {
		v, _ := fields.Get(name)
		return v
	}
	one := func(name string) byte {
		b, _ := fields.Byte(name)
		return b
	}
	f := FullFrame{PLCRC: get(FieldPLCRC)}
	f.Records[0] = records.Record{
		DIF:  one(FieldRecord1DIF),
		VIF:  one(FieldRecord1VIF),
		VIFE: get(FieldRecord1VIFE),
		Data: get(FieldRecord1Value),
	}
	f.Records[1] = records.Record{DIF: one(FieldRecord2DIF), VIF: one(FieldRecord2VIF), Data: get(FieldRecord2Value)}
	f.Records[2] = records.Record{DIF: one(FieldRecord3DIF), VIF: one(FieldRecord3VIF), Data: get(FieldRecord3Value)}
	return f
}

// expectedStorage is the storage number each full frame record normally carries: the info
// code and total volume are current values, the target volume is a stored one.
var expectedStorage = [3]int{0, 0, 1}

// Check compares each record's DIF with the fixed layout. A mismatch does not change how
// the block is sliced; it only hints at an unusual meter configuration or a wrong key.
func (f FullFrame) Check() error {
	for i, rec := range f.Records {
		if n, ok := wmbus.LengthForDIF(rec.DIF); !ok || n != len(rec.Data) {
			return fmt.Errorf("%w: record %d DIF 0x%02X for %d data bytes", ErrRecordMismatch, i+1, rec.DIF, len(rec.Data))
		}
		if rec.Storage() != expectedStorage[i] {
			return fmt.Errorf("%w: record %d storage %d", ErrRecordMismatch, i+1, rec.Storage())
		}
	}
	return nil
}
