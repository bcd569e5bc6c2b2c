package options

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// ErrKeyLength is returned for key strings that do not hold exactly 16 bytes.
var ErrKeyLength = errors.New("AES key must be 32 hex digits (16 bytes)")

// KeyMaterial is the key record supplied for one meter. An empty AES string means no key
// has been provisioned yet.
type KeyMaterial struct {
	AES string `yaml:"aes" json:"aes"`
}

// Key decodes the AES key. It returns nil without error when none is set.
func (k KeyMaterial) Key() ([]byte, error) {
	return ParseKeyHex(k.AES)
}

type keyCtx struct{}

// WithSecurityKey stores a copy of key in the context.
func WithSecurityKey(ctx context.Context, key []byte) context.Context {
	if len(key) == 0 {
		return ctx
	}
	return context.WithValue(ctx, keyCtx{}, append([]byte(nil), key...))
}

// SecurityKey returns the key stored by WithSecurityKey, or nil.
func SecurityKey(ctx context.Context) []byte {
	key, _ := ctx.Value(keyCtx{}).([]byte)
	return key
}

// ParseKeyHex decodes a 32 hex digit AES key. Whitespace and a 0x prefix are ignored.
func ParseKeyHex(input string) ([]byte, error) {
	clean := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, input)
	clean = strings.TrimPrefix(strings.TrimPrefix(clean, "0x"), "0X")
	if clean == "" {
		return nil, nil
	}
	if len(clean) != 32 {
		return nil, fmt.Errorf("%w, got %d digits", ErrKeyLength, len(clean))
	}
	key, err := hex.DecodeString(clean)
	if err != nil {
		return nil, fmt.Errorf("invalid AES key hex: %w", err)
	}
	return key, nil
}
