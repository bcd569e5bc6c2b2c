package wmbus

// LengthForDIF returns the data length encoded in the lower nibble of the DIF
// byte. The boolean indicates whether the DIF value is supported.
func LengthForDIF(dif byte) (int, bool) {
	switch dif & 0x0F {
	case 0x00:
		return 0, true
	case 0x01:
		return 1, true
	case 0x02:
		return 2, true
	case 0x03:
		return 3, true
	case 0x04:
		return 4, true
	case 0x05:
		return 4, true
	case 0x06:
		return 6, true
	case 0x07:
		return 8, true
	case 0x08:
		return 0, false // selection for readout, no data
	case 0x09:
		return 1, true
	case 0x0A:
		return 2, true
	case 0x0B:
		return 3, true
	case 0x0C:
		return 4, true
	case 0x0D:
		return 0, false // variable length not handled
	case 0x0E:
		return 6, true
	case 0x0F:
		return 0, true
	default:
		return 0, false
	}
}
