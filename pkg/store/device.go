package store

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
)

// Device is a byte-addressable region backing a Store.
type Device interface {
	io.ReaderAt
	io.WriterAt
}

// ErrOutOfRange is returned by MemDevice for writes past its end.
var ErrOutOfRange = errors.New("write past end of device")

// MemDevice is an in-memory Device.
type MemDevice struct {
	mu  sync.Mutex
	buf []byte
}

// NewMemDevice returns a zeroed device of the given size.
func NewMemDevice(size int) *MemDevice {
	return &MemDevice{buf: make([]byte, size)}
}

func (m *MemDevice) ReadAt(p []byte, off int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if off < 0 || off >= int64(len(m.buf)) {
		return 0, io.EOF
	}
	n := copy(p, m.buf[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (m *MemDevice) WriteAt(p []byte, off int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if off < 0 || off+int64(len(p)) > int64(len(m.buf)) {
		return 0, ErrOutOfRange
	}
	return copy(m.buf[off:], p), nil
}

// Bytes returns a copy of the device contents.
func (m *MemDevice) Bytes() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.buf...)
}

// FileDevice is a Device backed by a file, emulating non-volatile memory.
type FileDevice struct {
	f *os.File
}

// OpenFile opens or creates the file at path and grows it to Size bytes.
func OpenFile(path string) (*FileDevice, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("open store file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat store file: %w", err)
	}
	if info.Size() < Size {
		if err := f.Truncate(Size); err != nil {
			f.Close()
			return nil, fmt.Errorf("grow store file: %w", err)
		}
	}
	return &FileDevice{f: f}, nil
}

func (d *FileDevice) ReadAt(p []byte, off int64) (int, error) {
	return d.f.ReadAt(p, off)
}

func (d *FileDevice) WriteAt(p []byte, off int64) (int, error) {
	return d.f.WriteAt(p, off)
}

// Sync flushes written data to stable storage.
func (d *FileDevice) Sync() error {
	return d.f.Sync()
}

// Close closes the file.
func (d *FileDevice) Close() error {
	return d.f.Close()
}
