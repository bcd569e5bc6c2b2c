package options

import (
	"context"
	"errors"
	"testing"
)

func TestParseKeyHex(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantLen int
		wantErr error
	}{
		{name: "empty", input: "  ", wantLen: 0},
		{name: "plain", input: "28F64A24988064A079AA2C807D6102AE", wantLen: 16},
		{name: "spaced with prefix", input: "0x28F64A24 988064A0 79AA2C80 7D6102AE", wantLen: 16},
		{name: "short", input: "28F64A24", wantErr: ErrKeyLength},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			key, err := ParseKeyHex(tc.input)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseKeyHex: %v", err)
			}
			if len(key) != tc.wantLen {
				t.Fatalf("key length %d, want %d", len(key), tc.wantLen)
			}
		})
	}
	if _, err := ParseKeyHex("ZZF64A24988064A079AA2C807D6102AE"); err == nil {
		t.Fatal("expected hex error")
	}
}

func TestSecurityKeyContext(t *testing.T) {
	ctx := context.Background()
	if SecurityKey(ctx) != nil {
		t.Fatal("expected no key")
	}
	key := []byte{1, 2, 3}
	ctx = WithSecurityKey(ctx, key)
	key[0] = 9
	if got := SecurityKey(ctx); len(got) != 3 || got[0] != 1 {
		t.Fatalf("context key = %v", got)
	}
}

func TestKeyMaterial(t *testing.T) {
	key, err := KeyMaterial{}.Key()
	if err != nil || key != nil {
		t.Fatalf("empty material: %v %v", key, err)
	}
	key, err = KeyMaterial{AES: "28F64A24988064A079AA2C807D6102AE"}.Key()
	if err != nil || len(key) != 16 {
		t.Fatalf("material: %v %v", key, err)
	}
}
