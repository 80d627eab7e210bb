// Package store persists one action group in a fixed byte layout:
//
//	offset  0  8-byte ASCII signature
//	offset 16  record count (0-80)
//	offset 32  records, 6 bytes each, one byte per channel angle
//
// The region is only trusted when the signature matches exactly.
package store

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/gwillem/armctl/pkg/robot"
)

// Layout of the store region.
const (
	SignatureOffset = 0
	SignatureSize   = 8
	CountOffset     = 16
	RecordsOffset   = 32
	RecordSize      = robot.NumChannels
	Capacity        = 80
	Size            = RecordsOffset + Capacity*RecordSize
)

// Signature marks an initialized store.
var Signature = [SignatureSize]byte{'A', 'C', 'T', 'G', 'R', 'O', 'U', 'P'}

// ErrNoSignature is wrapped by CorruptStoreError when the signature is absent.
var ErrNoSignature = errors.New("signature missing")

// ErrCapacity is returned when encoding more than Capacity records.
var ErrCapacity = fmt.Errorf("more than %d records", Capacity)

// CorruptStoreError reports a store image that cannot be trusted.
type CorruptStoreError struct {
	Reason string
	Err    error
}

func (e *CorruptStoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("corrupt action store: %s: %v", e.Reason, e.Err)
	}
	return "corrupt action store: " + e.Reason
}

func (e *CorruptStoreError) Unwrap() error {
	return e.Err
}

// ActionRecord is one recorded pose, one byte per channel.
type ActionRecord [RecordSize]byte

// RecordFrom converts angles to a record, clamping each to [0, 180].
func RecordFrom(a robot.Angles) ActionRecord {
	var r ActionRecord
	for i, deg := range a {
		switch {
		case deg < 0:
			deg = 0
		case deg > robot.MaxAngle:
			deg = robot.MaxAngle
		}
		r[i] = byte(deg)
	}
	return r
}

// Angles returns the record as channel angles.
func (r ActionRecord) Angles() robot.Angles {
	var a robot.Angles
	for i, b := range r {
		a[i] = int(b)
	}
	return a
}

// Encode builds a complete store image holding records.
func Encode(records []ActionRecord) ([]byte, error) {
	if len(records) > Capacity {
		return nil, ErrCapacity
	}
	image := make([]byte, Size)
	copy(image[SignatureOffset:], Signature[:])
	image[CountOffset] = byte(len(records))
	for i, r := range records {
		copy(image[recordOffset(i):], r[:])
	}
	return image, nil
}

// Decode parses a store image. A missing signature, a count past Capacity
// or a truncated image yields a *CorruptStoreError.
func Decode(image []byte) ([]ActionRecord, error) {
	if len(image) < RecordsOffset {
		return nil, &CorruptStoreError{Reason: fmt.Sprintf("image is %d bytes", len(image))}
	}
	if !bytes.Equal(image[SignatureOffset:SignatureOffset+SignatureSize], Signature[:]) {
		return nil, &CorruptStoreError{Reason: "bad signature", Err: ErrNoSignature}
	}
	count := int(image[CountOffset])
	if count > Capacity {
		return nil, &CorruptStoreError{Reason: fmt.Sprintf("count %d exceeds capacity", count)}
	}
	if len(image) < recordOffset(count) {
		return nil, &CorruptStoreError{Reason: fmt.Sprintf("image too short for %d records", count)}
	}

	records := make([]ActionRecord, count)
	for i := range records {
		copy(records[i][:], image[recordOffset(i):])
	}
	return records, nil
}

func recordOffset(i int) int {
	return RecordsOffset + i*RecordSize
}
