package wire

import (
	"errors"
	"fmt"
	"io"
)

var ErrVarint = errors.New("malformed varint")

// putShortU16 writes solana's short_vec length: 7 bits per byte, low
// groups first, at most three bytes.
func putShortU16(w io.Writer, n uint16) error {
	var buf [3]byte
	i := 0
	v := n
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v == 0 {
			buf[i] = b
			i++
			break
		}
		buf[i] = b | 0x80
		i++
	}
	_, err := w.Write(buf[:i])
	return err
}

// readShortU16 is the inverse of putShortU16 and rejects non-minimal or
// overflowing encodings like the rust decoder does.
func readShortU16(r io.Reader) (uint16, error) {
	var val uint32
	var one [1]byte
	for i := 0; i < 3; i++ {
		if _, err := io.ReadFull(r, one[:]); err != nil {
			return 0, err
		}
		b := one[0]
		val |= uint32(b&0x7f) << (7 * i)
		if b&0x80 == 0 {
			if b == 0 && i > 0 {
				return 0, fmt.Errorf("%w: trailing zero byte", ErrVarint)
			}
			if val > 0xffff {
				return 0, fmt.Errorf("%w: short_u16 overflow", ErrVarint)
			}
			return uint16(val), nil
		}
	}
	return 0, fmt.Errorf("%w: short_u16 longer than 3 bytes", ErrVarint)
}

// putVarint writes a u64 in serde_varint form (LEB128).
func putVarint(w io.Writer, v uint64) error {
	var buf [10]byte
	i := 0
	for v >= 0x80 {
		buf[i] = byte(v) | 0x80
		v >>= 7
		i++
	}
	buf[i] = byte(v)
	_, err := w.Write(buf[:i+1])
	return err
}

// readVarint reads a serde_varint u64.
func readVarint(r io.Reader) (uint64, error) {
	var val uint64
	var one [1]byte
	for shift := uint(0); shift < 64; shift += 7 {
		if _, err := io.ReadFull(r, one[:]); err != nil {
			return 0, err
		}
		b := one[0]
		if shift == 63 && b > 1 {
			return 0, fmt.Errorf("%w: u64 overflow", ErrVarint)
		}
		val |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			if b == 0 && shift > 0 {
				return 0, fmt.Errorf("%w: trailing zero byte", ErrVarint)
			}
			return val, nil
		}
	}
	return 0, fmt.Errorf("%w: u64 longer than 10 bytes", ErrVarint)
}
