package store

import (
	"bytes"
	"fmt"
)

type syncer interface {
	Sync() error
}

// Store reads and writes the action group on a Device.
type Store struct {
	dev Device
}

// New returns a Store over dev.
func New(dev Device) *Store {
	return &Store{dev: dev}
}

// Valid reports whether the signature matches.
func (s *Store) Valid() bool {
	var sig [SignatureSize]byte
	if _, err := s.dev.ReadAt(sig[:], SignatureOffset); err != nil {
		return false
	}
	return bytes.Equal(sig[:], Signature[:])
}

// Count returns the number of stored records; an untrusted store holds none.
func (s *Store) Count() int {
	if !s.Valid() {
		return 0
	}
	var b [1]byte
	if _, err := s.dev.ReadAt(b[:], CountOffset); err != nil {
		return 0
	}
	if int(b[0]) > Capacity {
		return 0
	}
	return int(b[0])
}

// Record reads record i.
func (s *Store) Record(i int) (ActionRecord, error) {
	var r ActionRecord
	if n := s.Count(); i < 0 || i >= n {
		return r, fmt.Errorf("record %d out of range (count %d)", i, n)
	}
	if _, err := s.dev.ReadAt(r[:], int64(recordOffset(i))); err != nil {
		return r, fmt.Errorf("read record %d: %w", i, err)
	}
	return r, nil
}

// Load reads and decodes the whole store.
func (s *Store) Load() ([]ActionRecord, error) {
	image := make([]byte, Size)
	if _, err := s.dev.ReadAt(image, 0); err != nil {
		return nil, fmt.Errorf("read store: %w", err)
	}
	return Decode(image)
}

// Commit persists records. The signature is erased first and written last,
// so an interrupted commit leaves the store untrusted.
func (s *Store) Commit(records []ActionRecord) error {
	image, err := Encode(records)
	if err != nil {
		return err
	}
	if err := s.Erase(); err != nil {
		return err
	}
	body := image[SignatureSize:recordOffset(len(records))]
	if _, err := s.dev.WriteAt(body, SignatureSize); err != nil {
		return fmt.Errorf("write records: %w", err)
	}
	if err := s.sync(); err != nil {
		return err
	}
	if _, err := s.dev.WriteAt(Signature[:], SignatureOffset); err != nil {
		return fmt.Errorf("write signature: %w", err)
	}
	return s.sync()
}

// Erase clears the signature, invalidating the stored group.
func (s *Store) Erase() error {
	var zero [SignatureSize]byte
	if _, err := s.dev.WriteAt(zero[:], SignatureOffset); err != nil {
		return fmt.Errorf("erase signature: %w", err)
	}
	return s.sync()
}

func (s *Store) sync() error {
	if sy, ok := s.dev.(syncer); ok {
		if err := sy.Sync(); err != nil {
			return fmt.Errorf("sync store: %w", err)
		}
	}
	return nil
}
