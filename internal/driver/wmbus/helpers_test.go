package wmbus

import "testing"

func TestLengthForDIF(t *testing.T) {
	tests := []struct {
		dif  byte
		want int
		ok   bool
	}{
		{0x02, 2, true},
		{0x04, 4, true},
		{0x44, 4, true},
		{0x0C, 4, true},
		{0x0D, 0, false},
		{0x08, 0, false},
	}
	for _, tc := range tests {
		got, ok := LengthForDIF(tc.dif)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("LengthForDIF(0x%02X) = %d, %v; want %d, %v", tc.dif, got, ok, tc.want, tc.ok)
		}
	}
}
