package testutil

import (
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/d21d3q/wmbusc1/internal/crypto"
)

// KeyHex is the AES key used by synthetic telegrams.
const KeyHex = "28F64A24988064A079AA2C807D6102AE"

// MeterID is the display id of the synthetic meter.
const MeterID = "76348799"

// header is the unencrypted part of a Kamstrup C1 telegram: L, C, M, A, CI, CC, ACC, SN.
// The L-field is patched once the application block is appended.
var header = []byte{
	0x00, 0x44, 0x2D, 0x2C, 0x99, 0x87, 0x34, 0x76, 0x1B, 0x16,
	0x8D, 0x20, 0x91, 0xD3, 0x7C, 0xAC, 0x21,
}

// Key returns the decoded test key.
func Key(t testing.TB) []byte {
	t.Helper()
	key, err := hex.DecodeString(KeyHex)
	if err != nil {
		t.Fatalf("decode key: %v", err)
	}
	return key
}

// Telegram encrypts plaintext for the synthetic meter and returns the raw telegram,
// starting with its L-field.
func Telegram(t testing.TB, plaintext []byte) []byte {
	t.Helper()
	raw := append([]byte(nil), header...)
	iv := crypto.BuildIV(raw[2:10], raw[11], raw[13:17])
	enc, err := crypto.EncryptCTR(plaintext, Key(t), iv)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	raw = append(raw, enc...)
	raw[0] = byte(len(raw) - 1)
	return raw
}

// FullPlaintext builds a decrypted 0x78 block with the given record values.
func FullPlaintext(info uint16, total, target uint32) []byte {
	b := []byte{0xAB, 0xCD, 0x78, 0x02, 0xFF, 0x20}
	b = binary.LittleEndian.AppendUint16(b, info)
	b = append(b, 0x04, 0x13)
	b = binary.LittleEndian.AppendUint32(b, total)
	b = append(b, 0x44, 0x13)
	b = binary.LittleEndian.AppendUint32(b, target)
	return b
}

// CompactPlaintext builds a decrypted 0x79 block with the given record values.
func CompactPlaintext(info uint16, total, target uint32) []byte {
	b := []byte{0xAB, 0xCD, 0x79, 0x8A, 0x9B, 0x1C, 0x2D}
	b = binary.LittleEndian.AppendUint16(b, info)
	b = binary.LittleEndian.AppendUint32(b, total)
	b = binary.LittleEndian.AppendUint32(b, target)
	return b
}

// LoadJSON loads a JSON fixture from testdata relative to the repo root.
func LoadJSON(t *testing.T, rel string, v any) {
	t.Helper()
	data := readTestdata(t, rel)
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("decode %s: %v", rel, err)
	}
}

// LoadHex returns the bytes of a hex fixture from testdata.
func LoadHex(t *testing.T, rel string) []byte {
	t.Helper()
	data := readTestdata(t, rel)
	clean := strings.Join(strings.Fields(string(data)), "")
	b, err := hex.DecodeString(clean)
	if err != nil {
		t.Fatalf("decode %s: %v", rel, err)
	}
	return b
}

func readTestdata(t *testing.T, rel string) []byte {
	t.Helper()
	candidates := []string{
		filepath.Join("testdata", rel),
		filepath.Join("..", "testdata", rel),
		filepath.Join("..", "..", "testdata", rel),
		filepath.Join("..", "..", "..", "testdata", rel),
	}
	for _, path := range candidates {
		if data, err := os.ReadFile(path); err == nil {
			return data
		}
	}
	t.Fatalf("unable to locate testdata file %s", rel)
	return nil
}
