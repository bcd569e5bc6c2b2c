package frame

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// ErrFieldExists is returned when a field name is set twice on the same telegram.
var ErrFieldExists = errors.New("field already set")

// Fields is the append-only table of named byte ranges decoded from one telegram. It is
// filled in stages: link layer and ELL fields first, application fields after decryption.
// The zero value is ready to use.
type Fields struct {
	names  []string
	values map[string][]byte
}

// Set stores a copy of value under name.
func (f *Fields) Set(name string, value []byte) error {
	if f.values == nil {
		f.values = make(map[string][]byte)
	}
	if _, ok := f.values[name]; ok {
		return fmt.Errorf("%s: %w", name, ErrFieldExists)
	}
	buf := make([]byte, len(value))
	copy(buf, value)
	f.values[name] = buf
	f.names = append(f.names, name)
	return nil
}

// Get returns the raw bytes stored under name.
func (f *Fields) Get(name string) ([]byte, bool) {
	if f == nil {
		return nil, false
	}
	v, ok := f.values[name]
	return v, ok
}

// Has reports whether name is set.
func (f *Fields) Has(name string) bool {
	_, ok := f.Get(name)
	return ok
}

// Byte returns a single-byte field.
func (f *Fields) Byte(name string) (byte, bool) {
	v, ok := f.Get(name)
	if !ok || len(v) != 1 {
		return 0, false
	}
	return v[0], true
}

// Uint returns a 1, 2 or 4 byte field as an unsigned little endian integer.
func (f *Fields) Uint(name string) (uint32, bool) {
	v, ok := f.Get(name)
	if !ok {
		return 0, false
	}
	switch len(v) {
	case 1:
		return uint32(v[0]), true
	case 2:
		return uint32(binary.LittleEndian.Uint16(v)), true
	case 4:
		return binary.LittleEndian.Uint32(v), true
	default:
		return 0, false
	}
}

// Names returns the field names in the order they were set.
func (f *Fields) Names() []string {
	if f == nil {
		return nil
	}
	out := make([]string, len(f.names))
	copy(out, f.names)
	return out
}

// Len returns the number of fields set.
func (f *Fields) Len() int {
	if f == nil {
		return 0
	}
	return len(f.names)
}

// HexMap renders the table as upper-case hex strings, for display.
func (f *Fields) HexMap() map[string]string {
	out := make(map[string]string, f.Len())
	for _, name := range f.Names() {
		out[name] = fmt.Sprintf("%X", f.values[name])
	}
	return out
}

// String implements fmt.Stringer.
func (f *Fields) String() string {
	var b strings.Builder
	for i, name := range f.Names() {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(hex.EncodeToString(f.values[name]))
	}
	return b.String()
}
