package tx

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/bits"
)

// ErrShortBuffer is returned when a decoder runs out of input.
var ErrShortBuffer = errors.New("unexpected end of transaction bytes")

// appendCompact appends v in SCALE compact form: the two low bits of the
// first byte select a 1, 2 or 4 byte mode, or a length-prefixed
// little-endian integer for values of 2^30 and above.
func appendCompact(dst []byte, v uint64) []byte {
	switch {
	case v < 1<<6:
		return append(dst, byte(v<<2))
	case v < 1<<14:
		return binary.LittleEndian.AppendUint16(dst, uint16(v<<2)|0b01)
	case v < 1<<30:
		return binary.LittleEndian.AppendUint32(dst, uint32(v<<2)|0b10)
	}
	n := (bits.Len64(v) + 7) / 8
	dst = append(dst, byte((n-4)<<2)|0b11)
	for i := 0; i < n; i++ {
		dst = append(dst, byte(v>>(8*i)))
	}
	return dst
}

// reader walks an encoded transaction.
type reader struct {
	buf []byte
	off int
}

func (r *reader) remaining() int {
	return len(r.buf) - r.off
}

func (r *reader) bytes(n int) ([]byte, error) {
	if r.remaining() < n {
		return nil, ErrShortBuffer
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *reader) compact() (uint64, error) {
	head, err := r.bytes(1)
	if err != nil {
		return 0, err
	}
	switch head[0] & 0b11 {
	case 0b00:
		return uint64(head[0] >> 2), nil
	case 0b01:
		r.off--
		b, err := r.bytes(2)
		if err != nil {
			return 0, err
		}
		return uint64(binary.LittleEndian.Uint16(b) >> 2), nil
	case 0b10:
		r.off--
		b, err := r.bytes(4)
		if err != nil {
			return 0, err
		}
		return uint64(binary.LittleEndian.Uint32(b) >> 2), nil
	}
	n := int(head[0]>>2) + 4
	if n > 8 {
		return 0, fmt.Errorf("compact integer of %d bytes overflows uint64", n)
	}
	b, err := r.bytes(n)
	if err != nil {
		return 0, err
	}
	var v uint64
	for i := n - 1; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v, nil
}
