package crypto

import (
	"bytes"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/d21d3q/wmbusc1/internal/frame"
)

var (
	testKey     = mustHex("28F64A24988064A079AA2C807D6102AE")
	testAddress = mustHex("2D2C998734761B16")
	testSN      = mustHex("D37CAC21")
)

func TestBuildIV(t *testing.T) {
	iv := BuildIV(testAddress, 0x20, testSN)
	want := mustHex("2D2C998734761B1620D37CAC21000000")
	if !bytes.Equal(iv, want) {
		t.Fatalf("iv = %X, want %X", iv, want)
	}
	again := BuildIV(testAddress, 0x20, testSN)
	if !bytes.Equal(iv, again) {
		t.Fatal("IV must be deterministic")
	}
	if !bytes.Equal(iv[13:], []byte{0, 0, 0}) {
		t.Fatalf("FN/BC filler not zero: %X", iv[13:])
	}
}

func TestBuildIVPanicsOnBadLength(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	BuildIV(testAddress[:4], 0x20, testSN)
}

func TestCTRRoundTrip(t *testing.T) {
	iv := BuildIV(testAddress, 0x20, testSN)
	plain := mustHex("0B1C79123456780500E8030000D0070000")
	enc, err := EncryptCTR(plain, testKey, iv)
	if err != nil {
		t.Fatalf("EncryptCTR: %v", err)
	}
	if len(enc) != len(plain) {
		t.Fatalf("ciphertext length %d, want %d", len(enc), len(plain))
	}
	if bytes.Equal(enc, plain) {
		t.Fatal("ciphertext equals plaintext")
	}
	dec, err := DecryptCTR(enc, testKey, iv)
	if err != nil {
		t.Fatalf("DecryptCTR: %v", err)
	}
	if !bytes.Equal(dec, plain) {
		t.Fatalf("round trip mismatch: %X", dec)
	}
}

func TestDecryptCTRWithoutKey(t *testing.T) {
	_, err := DecryptCTR([]byte{0x01}, nil, make([]byte, IVSize))
	if !errors.Is(err, ErrKeyRequired) {
		t.Fatalf("expected ErrKeyRequired, got %v", err)
	}
}

func TestDecryptCTRPanicsOnBadKey(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	_, _ = DecryptCTR([]byte{0x01}, []byte{0x01, 0x02}, make([]byte, IVSize))
}

func TestDecryptTelegram(t *testing.T) {
	plain := mustHex("0B1C79123456780500E8030000D0070000")
	iv := BuildIV(testAddress, 0x20, testSN)
	enc, err := EncryptCTR(plain, testKey, iv)
	if err != nil {
		t.Fatalf("EncryptCTR: %v", err)
	}
	raw := append(mustHex("00442D2C998734761B168D2091D37CAC21"), enc...)
	raw[0] = byte(len(raw) - 1)

	tg, err := frame.Parse(raw)
	if err != nil {
		t.Fatalf("frame.Parse: %v", err)
	}
	if err := Decrypt(&tg, nil); !errors.Is(err, ErrKeyRequired) {
		t.Fatalf("expected ErrKeyRequired, got %v", err)
	}
	if tg.Plaintext != nil {
		t.Fatal("plaintext set without key")
	}
	if err := Decrypt(&tg, testKey); err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if !bytes.Equal(tg.Plaintext, plain) {
		t.Fatalf("plaintext = %X", tg.Plaintext)
	}
}

func mustHex(s string) []byte {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic(err)
	}
	return b
}
