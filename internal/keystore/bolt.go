package keystore

import (
	"errors"
	"fmt"

	"go.etcd.io/bbolt"
	"gopkg.in/yaml.v3"

	"github.com/d21d3q/wmbusc1/internal/options"
)

const keysBucket = "meter_keys"

// ErrNotFound is returned by Get and Delete for unknown meters.
var ErrNotFound = errors.New("meter key not found")

// Bolt persists key material in a bbolt database, one YAML document per meter.
type Bolt struct {
	DB *bbolt.DB
}

// OpenBolt opens (or creates) the database at path.
func OpenBolt(path string) (*Bolt, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("open key store %s: %w", path, err)
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(keysBucket))
		return err
	}); err != nil {
		db.Close()
		return nil, err
	}
	return &Bolt{DB: db}, nil
}

// Close releases the database.
func (b *Bolt) Close() error {
	return b.DB.Close()
}

// Put stores key material for a meter after validating it.
func (b *Bolt) Put(meterID string, km options.KeyMaterial) error {
	if _, err := km.Key(); err != nil {
		return err
	}
	data, err := yaml.Marshal(km)
	if err != nil {
		return err
	}
	return b.DB.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(keysBucket)).Put([]byte(normalizeID(meterID)), data)
	})
}

// Get returns the key material of a meter.
func (b *Bolt) Get(meterID string) (options.KeyMaterial, error) {
	var km options.KeyMaterial
	err := b.DB.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(keysBucket)).Get([]byte(normalizeID(meterID)))
		if data == nil {
			return fmt.Errorf("%s: %w", meterID, ErrNotFound)
		}
		return yaml.Unmarshal(data, &km)
	})
	return km, err
}

// Delete removes the key of a meter.
func (b *Bolt) Delete(meterID string) error {
	return b.DB.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(keysBucket))
		id := []byte(normalizeID(meterID))
		if bucket.Get(id) == nil {
			return fmt.Errorf("%s: %w", meterID, ErrNotFound)
		}
		return bucket.Delete(id)
	})
}

// List returns every stored meter id with its key material.
func (b *Bolt) List() (Static, error) {
	out := make(Static)
	err := b.DB.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(keysBucket)).ForEach(func(k, v []byte) error {
			var km options.KeyMaterial
			if err := yaml.Unmarshal(v, &km); err != nil {
				return fmt.Errorf("meter %s: %w", k, err)
			}
			out[string(k)] = km
			return nil
		})
	})
	return out, err
}

// Key implements Lookup.
func (b *Bolt) Key(meterID string) ([]byte, bool, error) {
	km, err := b.Get(meterID)
	if errors.Is(err, ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	key, err := km.Key()
	if err != nil || key == nil {
		return nil, false, err
	}
	return key, true, nil
}
