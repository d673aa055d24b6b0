package solver

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Smallest encodings of each element type, used to reject length prefixes
// that could not possibly fit in the remaining buffer before allocating.
const (
	minEntrySize  = 8 + 8 // empty key + empty tensor
	minVectorSize = 8     // an empty sequence is just its length
	float64Size   = 8
)

// DecodeError reports a payload that does not match the solver's schema.
type DecodeError struct {
	// Offset is the position in the buffer where decoding failed.
	Offset int
	Msg    string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode solver output: %s (at byte %d)", e.Msg, e.Offset)
}

type decoder struct {
	buf []byte
	off int
}

func (d *decoder) remaining() int {
	return len(d.buf) - d.off
}

func (d *decoder) errorf(format string, args ...interface{}) error {
	return &DecodeError{Offset: d.off, Msg: fmt.Sprintf(format, args...)}
}

func (d *decoder) u64() (uint64, error) {
	if d.remaining() < 8 {
		return 0, d.errorf("unexpected end of input: need 8 bytes, have %d", d.remaining())
	}

	v := binary.LittleEndian.Uint64(d.buf[d.off:])
	d.off += 8
	return v, nil
}

func (d *decoder) f64() (float64, error) {
	bits, err := d.u64()
	if err != nil {
		return 0, err
	}

	return math.Float64frombits(bits), nil
}

// length reads a sequence length prefix, and verifies that that many
// elements of at least elemSize bytes each fit in the rest of the buffer.
func (d *decoder) length(elemSize int) (int, error) {
	start := d.off
	n, err := d.u64()
	if err != nil {
		return 0, err
	}

	if n > uint64(d.remaining()/elemSize) {
		d.off = start
		return 0, d.errorf("length %d exceeds remaining %d bytes", n, d.remaining()-8)
	}

	return int(n), nil
}

func (d *decoder) bytes() ([]byte, error) {
	n, err := d.length(1)
	if err != nil {
		return nil, err
	}

	result := make([]byte, n)
	copy(result, d.buf[d.off:d.off+n])
	d.off += n
	return result, nil
}

func (d *decoder) floats() ([]float64, error) {
	n, err := d.length(float64Size)
	if err != nil {
		return nil, err
	}

	result := make([]float64, n)
	for i := range result {
		result[i] = math.Float64frombits(binary.LittleEndian.Uint64(d.buf[d.off:]))
		d.off += float64Size
	}

	return result, nil
}

func (d *decoder) tensor() (ActionTensor, error) {
	d0, err := d.length(minVectorSize)
	if err != nil {
		return nil, err
	}

	result := make(ActionTensor, d0)
	for i := range result {
		d1, err := d.length(minVectorSize)
		if err != nil {
			return nil, err
		}

		matrix := make([][]float64, d1)
		for j := range matrix {
			if matrix[j], err = d.floats(); err != nil {
				return nil, err
			}
		}
		result[i] = matrix
	}

	return result, nil
}
