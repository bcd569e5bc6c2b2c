package frame

import "fmt"

// FieldSpec names a byte range inside a buffer.
type FieldSpec struct {
	Name   string
	Offset int
	Length int
}

// FieldMap is an ordered list of field specs describing how to slice a buffer.
type FieldMap []FieldSpec

// Size returns the number of bytes a buffer needs to hold every field.
func (m FieldMap) Size() int {
	size := 0
	for _, spec := range m {
		if end := spec.Offset + spec.Length; end > size {
			size = end
		}
	}
	return size
}

// Extract copies every field of m out of buf into fields. Nothing is stored when buf is
// shorter than the map.
func (m FieldMap) Extract(buf []byte, fields *Fields) error {
	if need := m.Size(); len(buf) < need {
		return fmt.Errorf("buffer too short for field map: %d < %d bytes", len(buf), need)
	}
	for _, spec := range m {
		if err := fields.Set(spec.Name, buf[spec.Offset:spec.Offset+spec.Length]); err != nil {
			return err
		}
	}
	return nil
}

// Link layer (block 1) field names.
const (
	FieldL = "BLOCK1_L"
	FieldC = "BLOCK1_C"
	FieldM = "BLOCK1_M"
	FieldA = "BLOCK1_A"
)

// Extended link layer (block 2) field names.
const (
	FieldCI  = "BLOCK2_CI"
	FieldCC  = "BLOCK2_CC"
	FieldACC = "BLOCK2_ACC"
	FieldSN  = "BLOCK2_SN"
	FieldCRC = "BLOCK2_CRC"
)

// LinkLayerMap slices the unencrypted WM-Bus link layer header.
var LinkLayerMap = FieldMap{
	{FieldL, 0, 1},
	{FieldC, 1, 1},
	{FieldM, 2, 2},
	{FieldA, 4, 6},
}

// ELLMap slices the extended link layer block that follows the link layer header.
var ELLMap = FieldMap{
	{FieldCI, 10, 1},
	{FieldCC, 11, 1},
	{FieldACC, 12, 1},
	{FieldSN, 13, 4},
	{FieldCRC, 17, 2},
}

// ELLSize is the number of telegram bytes covered by the ELL map.
const ELLSize = 19

// EncryptedOffset is where the encrypted application block starts.
const EncryptedOffset = 17
