package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"errors"
	"fmt"

	"github.com/d21d3q/wmbusc1/internal/frame"
)

// ErrKeyRequired is returned when a telegram needs decryption but no key is known.
var ErrKeyRequired = errors.New("encrypted telegram: AES key required")

const (
	// KeySize is the AES-128 key length.
	KeySize = 16
	// IVSize is the length of the counter block.
	IVSize = aes.BlockSize

	addressLen = 8
	ccLen      = 1
	snLen      = 4
	fnLen      = 2
	bcLen      = 1
)

// BuildIV assembles the AES-CTR counter block: address (M and A field), CC, SN and the
// frame number and block counter, which are always zero for C1 Kamstrup telegrams.
// Inputs of the wrong size are programming errors and panic.
func BuildIV(address []byte, cc byte, sn []byte) []byte {
	if len(address) != addressLen || len(sn) != snLen {
		panic(fmt.Sprintf("crypto: bad IV inputs: address %d bytes, sn %d bytes", len(address), len(sn)))
	}
	iv := make([]byte, 0, IVSize)
	iv = append(iv, address...)
	iv = append(iv, cc)
	iv = append(iv, sn...)
	iv = append(iv, make([]byte, fnLen)...)
	iv = append(iv, make([]byte, bcLen)...)
	if len(iv) != IVSize {
		panic(fmt.Sprintf("crypto: IV is %d bytes", len(iv)))
	}
	return iv
}

// IVFromFields builds the IV from decoded link layer and ELL fields.
func IVFromFields(fields *frame.Fields) ([]byte, error) {
	m, okM := fields.Get(frame.FieldM)
	a, okA := fields.Get(frame.FieldA)
	cc, okCC := fields.Byte(frame.FieldCC)
	sn, okSN := fields.Get(frame.FieldSN)
	if !okM || !okA || !okCC || !okSN {
		return nil, errors.New("IV fields missing: telegram not parsed")
	}
	address := make([]byte, 0, addressLen)
	address = append(address, m...)
	address = append(address, a...)
	return BuildIV(address, cc, sn), nil
}

// DecryptCTR decrypts ciphertext with AES-128 in counter mode. The output has the same
// length as the input. A missing key yields ErrKeyRequired; a key or IV of the wrong size
// panics.
func DecryptCTR(ciphertext, key, iv []byte) ([]byte, error) {
	if len(key) == 0 {
		return nil, ErrKeyRequired
	}
	if len(key) != KeySize || len(iv) != IVSize {
		panic(fmt.Sprintf("crypto: bad CTR parameters: key %d bytes, iv %d bytes", len(key), len(iv)))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("invalid AES key: %w", err)
	}
	plaintext := make([]byte, len(ciphertext))
	cipher.NewCTR(block, iv).XORKeyStream(plaintext, ciphertext)
	return plaintext, nil
}

// EncryptCTR is the inverse of DecryptCTR; counter mode uses the same keystream both ways.
func EncryptCTR(plaintext, key, iv []byte) ([]byte, error) {
	return DecryptCTR(plaintext, key, iv)
}

// Decrypt decrypts the application block of t and stores it in t.Plaintext.
func Decrypt(t *frame.Telegram, key []byte) error {
	if len(key) == 0 {
		return ErrKeyRequired
	}
	ciphertext := t.Ciphertext()
	if len(ciphertext) == 0 {
		return errors.New("encrypted telegram: empty application block")
	}
	iv, err := IVFromFields(t.Fields)
	if err != nil {
		return err
	}
	plaintext, err := DecryptCTR(ciphertext, key, iv)
	if err != nil {
		return err
	}
	t.Plaintext = plaintext
	return nil
}
