package common

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"
)

// ErrTooLarge is returned when a length prefix read off the wire exceeds
// the limit the caller allows.
var ErrTooLarge = errors.New("length prefix too large")

// FreeBytes is a wrapper around bytes
type FreeBytes struct {
	Bytes []byte
}

// Free returns the bytes to the FreeBytes pool
func (fb *FreeBytes) Free() {
	fb.Bytes = fb.Bytes[:0]
	FreeBytesPool.Put(fb)
}

// NewFreeBytes returns a FreeBytes from the pool. Will allocate if the
// pool returns a FreeBytes that doesn't have bytes allocated
func NewFreeBytes() *FreeBytes {
	fb := FreeBytesPool.Get().(*FreeBytes)

	if fb.Bytes == nil {
		// 136 covers the bank hash preimage (3 hashes + u64), which is
		// the hottest caller along with the 64 byte merkle parent.
		fb.Bytes = make([]byte, 0, 136)
	}

	return fb
}

// FreeBytesPool is the pool of bytes to recycle&relieve gc pressure.
var FreeBytesPool = sync.Pool{
	New: func() interface{} { return new(FreeBytes) },
}

// All integers below are little endian; that's what bincode and the
// solana runtime use everywhere.

// Uint8 reads a single byte from the provided reader using a buffer from the
// free list and returns it as a uint8.
func (fb *FreeBytes) Uint8(r io.Reader) (uint8, error) {
	buf := fb.Bytes[:1]
	if _, err := io.ReadFull(r, buf); err != nil {
		return 0, err
	}
	return buf[0], nil
}

// Uint32 reads four little endian bytes from the provided reader.
func (fb *FreeBytes) Uint32(r io.Reader) (uint32, error) {
	buf := fb.Bytes[:4]
	if _, err := io.ReadFull(r, buf); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf), nil
}

// Uint64 reads eight little endian bytes from the provided reader.
func (fb *FreeBytes) Uint64(r io.Reader) (uint64, error) {
	buf := fb.Bytes[:8]
	if _, err := io.ReadFull(r, buf); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf), nil
}

// Length reads a u64 length prefix and checks it against max.
func (fb *FreeBytes) Length(r io.Reader, max uint64) (int, error) {
	n, err := fb.Uint64(r)
	if err != nil {
		return 0, err
	}
	if n > max {
		return 0, fmt.Errorf("%w: %d > %d", ErrTooLarge, n, max)
	}
	return int(n), nil
}

// PutUint8 copies the provided uint8 into a buffer from the free list and
// writes the resulting byte to the given writer.
func (fb *FreeBytes) PutUint8(w io.Writer, val uint8) error {
	buf := fb.Bytes[:1]
	buf[0] = val
	_, err := w.Write(buf)
	return err
}

// PutUint32 writes val as four little endian bytes.
func (fb *FreeBytes) PutUint32(w io.Writer, val uint32) error {
	buf := fb.Bytes[:4]
	binary.LittleEndian.PutUint32(buf, val)
	_, err := w.Write(buf)
	return err
}

// PutUint64 writes val as eight little endian bytes.
func (fb *FreeBytes) PutUint64(w io.Writer, val uint64) error {
	buf := fb.Bytes[:8]
	binary.LittleEndian.PutUint64(buf, val)
	_, err := w.Write(buf)
	return err
}

// PutBool writes a bincode bool (a single 0 or 1 byte).
func (fb *FreeBytes) PutBool(w io.Writer, val bool) error {
	var b uint8
	if val {
		b = 1
	}
	return fb.PutUint8(w, b)
}

// Bool reads a bincode bool. Anything other than 0 or 1 is an error.
func (fb *FreeBytes) Bool(r io.Reader) (bool, error) {
	b, err := fb.Uint8(r)
	if err != nil {
		return false, err
	}
	switch b {
	case 0:
		return false, nil
	case 1:
		return true, nil
	}
	return false, fmt.Errorf("invalid bool byte %#x", b)
}
