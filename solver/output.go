// Package solver reads the strategy tables written by the external CFR
// solver (github.com/b-inary/poker-cfr).
//
// The solver serializes its result with bincode's legacy configuration:
// fixed-width little-endian integers, and every sequence or map prefixed by
// its length as a u64. The payload is the tuple
//
//	(HashMap<Vec<u8>, Vec<Vec<Vec<f64>>>>, f64, f64)
//
// i.e. the strategy table, the expected value of the first player (SB) in
// big blinds, and the exploitability of the strategy in big blinds.
package solver

import (
	"encoding/binary"
	"math"
	"sort"

	"github.com/golang/glog"

	"github.com/timpalpant/cfrexport/infoset"
)

// ActionTensor holds the action probabilities of one decision point:
// buckets/branches x decision instances x available actions.
type ActionTensor [][][]float64

// RawSolverOutput is the decoded solver payload.
type RawSolverOutput struct {
	// Strategy is keyed by the raw bytes of each infoset.InfoSetKey.
	Strategy          map[string]ActionTensor
	EVFirstPositionBB float64
	ExploitabilityBB  float64
}

// Decode interprets buf as a solver payload. Either the whole buffer is
// consumed and a complete result is returned, or a *DecodeError is.
func Decode(buf []byte) (*RawSolverOutput, error) {
	var result RawSolverOutput
	if err := result.UnmarshalBinary(buf); err != nil {
		return nil, err
	}

	return &result, nil
}

// InfoSetKeys returns the keys of the strategy table in byte order.
func (o *RawSolverOutput) InfoSetKeys() []infoset.InfoSetKey {
	raw := make([]string, 0, len(o.Strategy))
	for key := range o.Strategy {
		raw = append(raw, key)
	}
	sort.Strings(raw)

	result := make([]infoset.InfoSetKey, len(raw))
	for i, key := range raw {
		result[i] = append(infoset.InfoSetKey{}, key...)
	}
	return result
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler. o is left
// untouched if buf is not a valid payload.
func (o *RawSolverOutput) UnmarshalBinary(buf []byte) error {
	d := decoder{buf: buf}
	nEntries, err := d.length(minEntrySize)
	if err != nil {
		return err
	}

	strategy := make(map[string]ActionTensor, nEntries)
	for i := 0; i < nEntries; i++ {
		key, err := d.bytes()
		if err != nil {
			return err
		}

		tensor, err := d.tensor()
		if err != nil {
			return err
		}

		// Same semantics as inserting into the solver's HashMap.
		if _, ok := strategy[string(key)]; ok {
			glog.V(2).Infof("Duplicate infoset %v, keeping the last entry", infoset.InfoSetKey(key))
		}
		strategy[string(key)] = tensor
	}

	ev, err := d.f64()
	if err != nil {
		return err
	}

	exploitability, err := d.f64()
	if err != nil {
		return err
	}

	if d.remaining() != 0 {
		return d.errorf("%d unexpected trailing bytes", d.remaining())
	}

	o.Strategy = strategy
	o.EVFirstPositionBB = ev
	o.ExploitabilityBB = exploitability
	return nil
}

// MarshalBinary implements encoding.BinaryMarshaler. Entries are written in
// key order so the same output always produces the same bytes.
func (o *RawSolverOutput) MarshalBinary() ([]byte, error) {
	bufSize := 8 + 2*8
	for key, tensor := range o.Strategy {
		bufSize += 8 + len(key) + 8
		for _, matrix := range tensor {
			bufSize += 8
			for _, row := range matrix {
				bufSize += 8 + 8*len(row)
			}
		}
	}

	buf := make([]byte, 0, bufSize)
	buf = binary.LittleEndian.AppendUint64(buf, uint64(len(o.Strategy)))
	for _, key := range o.InfoSetKeys() {
		buf = binary.LittleEndian.AppendUint64(buf, uint64(len(key)))
		buf = append(buf, key...)

		tensor := o.Strategy[string(key)]
		buf = binary.LittleEndian.AppendUint64(buf, uint64(len(tensor)))
		for _, matrix := range tensor {
			buf = binary.LittleEndian.AppendUint64(buf, uint64(len(matrix)))
			for _, row := range matrix {
				buf = binary.LittleEndian.AppendUint64(buf, uint64(len(row)))
				for _, p := range row {
					buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(p))
				}
			}
		}
	}

	buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(o.EVFirstPositionBB))
	buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(o.ExploitabilityBB))
	return buf, nil
}
