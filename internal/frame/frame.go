package frame

import (
	"encoding/binary"
	"fmt"
)

// Telegram is one WM-Bus C1 telegram as handed over by the radio synchronizer: link layer
// header, extended link layer and the (still encrypted) application block.
type Telegram struct {
	Raw          []byte
	Length       byte
	Control      byte
	Manufacturer uint16
	Address      [8]byte // M-field followed by A-field, as used for the IV
	MeterID      [4]byte
	Version      byte
	DeviceType   byte
	CI           byte

	// Fields holds every decoded field. Parse fills link layer and ELL fields.
	Fields *Fields
	// Plaintext is the decrypted application block, nil until decryption succeeds.
	Plaintext []byte
}

// Parse extracts the link layer header and the ELL block from a raw telegram.
func Parse(raw []byte) (Telegram, error) {
	if len(raw) < ELLSize {
		return Telegram{}, fmt.Errorf("telegram too short: %d bytes", len(raw))
	}
	length := raw[0]
	if int(length)+1 != len(raw) {
		return Telegram{}, fmt.Errorf("declared length %d does not match actual length %d", length, len(raw))
	}
	t := Telegram{
		Raw:          raw,
		Length:       length,
		Control:      raw[1],
		Manufacturer: binary.LittleEndian.Uint16(raw[2:4]),
		Version:      raw[8],
		DeviceType:   raw[9],
		CI:           raw[10],
		Fields:       &Fields{},
	}
	copy(t.Address[:], raw[2:10])
	copy(t.MeterID[:], raw[4:8])

	if err := LinkLayerMap.Extract(raw, t.Fields); err != nil {
		return Telegram{}, err
	}
	if err := ELLMap.Extract(raw, t.Fields); err != nil {
		return Telegram{}, err
	}
	return t, nil
}

// MeterIDString returns the EN 13757 display format (MSB first).
func (t Telegram) MeterIDString() string {
	return fmt.Sprintf("%02X%02X%02X%02X", t.MeterID[3], t.MeterID[2], t.MeterID[1], t.MeterID[0])
}

// ManufacturerFlag decodes the three letter manufacturer code, e.g. "KAM".
func (t Telegram) ManufacturerFlag() string {
	m := t.Manufacturer
	return string([]byte{
		byte((m>>10)&0x1F) + 64,
		byte((m>>5)&0x1F) + 64,
		byte(m&0x1F) + 64,
	})
}

// Ciphertext returns the encrypted application block.
func (t Telegram) Ciphertext() []byte {
	if len(t.Raw) <= EncryptedOffset {
		return nil
	}
	return t.Raw[EncryptedOffset:]
}

// ELLCI returns the ELL control information byte.
func (t Telegram) ELLCI() (byte, bool) { return t.Fields.Byte(FieldCI) }

// ELLCC returns the communication control byte.
func (t Telegram) ELLCC() (byte, bool) { return t.Fields.Byte(FieldCC) }

// ELLACC returns the access number.
func (t Telegram) ELLACC() (byte, bool) { return t.Fields.Byte(FieldACC) }

// ELLSN returns the 4 byte session number field.
func (t Telegram) ELLSN() ([]byte, bool) { return t.Fields.Get(FieldSN) }

// ELLCRC returns the payload CRC bytes as transmitted (still encrypted).
func (t Telegram) ELLCRC() ([]byte, bool) { return t.Fields.Get(FieldCRC) }
