package records

import "testing"

func TestRecordStorage(t *testing.T) {
	cases := []struct {
		dif  byte
		want int
	}{
		{0x02, 0},
		{0x04, 0},
		{0x44, 1},
		{0x84, 0},
	}
	for _, tc := range cases {
		if got := (Record{DIF: tc.dif}).Storage(); got != tc.want {
			t.Fatalf("DIF 0x%02X storage %d, want %d", tc.dif, got, tc.want)
		}
	}
}
