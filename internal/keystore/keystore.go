// Package keystore resolves meter ids to AES keys.
package keystore

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/d21d3q/wmbusc1/internal/options"
)

// Lookup returns the AES key of a meter. ok is false when no key is provisioned; that is
// not an error.
type Lookup interface {
	Key(meterID string) (key []byte, ok bool, err error)
}

// Static is an in-memory key table keyed by meter id.
type Static map[string]options.KeyMaterial

// keyFile is the on-disk layout of a YAML key file:
//
//	meters:
//	  "76348799":
//	    aes: 28F64A24988064A079AA2C807D6102AE
type keyFile struct {
	Meters map[string]options.KeyMaterial `yaml:"meters"`
}

// LoadFile reads a YAML key file. Every key is validated while loading.
func LoadFile(path string) (Static, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read key file %s: %w", path, err)
	}
	var kf keyFile
	if err := yaml.Unmarshal(data, &kf); err != nil {
		return nil, fmt.Errorf("failed to parse key file %s: %w", path, err)
	}
	out := make(Static, len(kf.Meters))
	for id, km := range kf.Meters {
		if _, err := km.Key(); err != nil {
			return nil, fmt.Errorf("meter %s: %w", id, err)
		}
		out[normalizeID(id)] = km
	}
	return out, nil
}

// Key implements Lookup.
func (s Static) Key(meterID string) ([]byte, bool, error) {
	km, ok := s[normalizeID(meterID)]
	if !ok || km.AES == "" {
		return nil, false, nil
	}
	key, err := km.Key()
	if err != nil {
		return nil, false, err
	}
	return key, true, nil
}

// Chain consults each lookup in order and returns the first key found.
type Chain []Lookup

// Key implements Lookup.
func (c Chain) Key(meterID string) ([]byte, bool, error) {
	for _, l := range c {
		key, ok, err := l.Key(meterID)
		if err != nil {
			return nil, false, err
		}
		if ok {
			return key, true, nil
		}
	}
	return nil, false, nil
}

func normalizeID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}
