package records

// Record is one DIF/VIF data record sliced out of a decrypted application block.
type Record struct {
	DIF  byte
	VIF  byte
	VIFE []byte
	Data []byte
}

// Storage returns the storage number bit of the DIF (0 = current, 1 = previous value).
func (r Record) Storage() int {
	return int((r.DIF >> 6) & 0x01)
}
