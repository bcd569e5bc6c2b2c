package radio

import (
	"github.com/sigurn/crc16"
)

// crcParams describes the reflected CRC-16 (0x8408 reflected, 0x1021 normal form) the modem
// appends to its frames. Init is zero, unlike X.25, but the residue is the same.
var crcParams = crc16.Params{
	Poly:   0x1021,
	Init:   0x0000,
	RefIn:  true,
	RefOut: true,
	XorOut: 0xFFFF,
	Name:   "CRC-16/IM871A",
}

var (
	crcTable        = crc16.MakeTable(crcParams)
	crcGood  uint16 = 0x0F47
)

// ValidCRC reports whether fcs is the trailing checksum of data. The CRC runs over data
// followed by fcs and the result must equal the fixed residue 0x0F47.
func ValidCRC(data, fcs []byte) bool {
	if len(fcs) != 2 {
		return false
	}
	crc := crc16.Init(crcTable)
	crc = crc16.Update(crc, data, crcTable)
	crc = crc16.Update(crc, fcs, crcTable)
	return crc16.Complete(crc, crcTable) == crcGood
}

// Checksum returns the CRC of data as transmitted by the modem.
func Checksum(data []byte) uint16 {
	return crc16.Checksum(data, crcTable)
}

// AppendCRC appends the checksum of data in transmission order (low byte first).
func AppendCRC(data []byte) []byte {
	crc := Checksum(data)
	return append(data, byte(crc), byte(crc>>8))
}
