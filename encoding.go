package cfrexport

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"io"
	"path/filepath"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"
)

// Format is the serialization used for an exported model.
type Format string

const (
	FormatJSON Format = "json"
	FormatCBOR Format = "cbor"
)

// ParseFormat parses a format name. The empty string selects FormatJSON.
func ParseFormat(name string) (Format, error) {
	switch Format(strings.ToLower(name)) {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatCBOR:
		return FormatCBOR, nil
	default:
		return "", errors.Errorf("unknown output format: %q", name)
	}
}

// FormatForPath picks the format implied by an output file name, ignoring
// any compression suffix: ".cbor" selects FormatCBOR, anything else JSON.
func FormatForPath(path string) Format {
	base := filepath.Base(path)
	for _, ext := range compressionExts {
		base = strings.TrimSuffix(base, ext)
	}

	if strings.EqualFold(filepath.Ext(base), ".cbor") {
		return FormatCBOR
	}
	return FormatJSON
}

// EncodeError reports a model that could not be serialized.
type EncodeError struct {
	Err error
}

func (e *EncodeError) Error() string {
	return "encode export model: " + e.Err.Error()
}

func (e *EncodeError) Unwrap() error {
	return e.Err
}

// Encode writes the model to w in the given format.
func (m *ExportModel) Encode(w io.Writer, format Format) error {
	switch format {
	case FormatJSON:
		return m.EncodeJSON(w)
	case FormatCBOR:
		return m.EncodeCBOR(w)
	default:
		return &EncodeError{errors.Errorf("unsupported format %q", format)}
	}
}

// EncodeJSON writes the canonical JSON document: meta fields in a fixed
// order, followed by the states in ascending key order.
func (m *ExportModel) EncodeJSON(w io.Writer) error {
	if err := m.Validate(); err != nil {
		return &EncodeError{err}
	}

	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(m); err != nil {
		return &EncodeError{err}
	}

	if err := bw.Flush(); err != nil {
		return &EncodeError{err}
	}

	return nil
}

// MarshalJSON implements json.Marshaler, emitting an object whose members
// keep the order of s.
func (s States) MarshalJSON() ([]byte, error) {
	buf := make([]byte, 0, 64*len(s)+2)
	buf = append(buf, '{')
	for i, state := range s {
		if i > 0 {
			buf = append(buf, ',')
		}

		key, err := json.Marshal(state.Key)
		if err != nil {
			return nil, err
		}
		buf = append(buf, key...)
		buf = append(buf, ':')

		entry, err := json.Marshal(state.Entry)
		if err != nil {
			return nil, err
		}
		buf = append(buf, entry...)
	}

	return append(buf, '}'), nil
}

// MarshalJSON implements json.Marshaler.
func (b BigBlinds) MarshalJSON() ([]byte, error) {
	if !b.IsFinite() {
		return []byte("null"), nil
	}
	return json.Marshal(float64(b))
}

// cborEncMode uses Core Deterministic Encoding (RFC 8949 §4.2) so the same
// model always produces the same bytes.
var cborEncMode cbor.EncMode

func init() {
	var err error
	cborEncMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("cfrexport: CBOR encoder initialization failed: " + err.Error())
	}
}

// EncodeCBOR writes the model as a CBOR document with the same structure as
// EncodeJSON. States keep ascending key order rather than CBOR's
// length-first canonical map order.
func (m *ExportModel) EncodeCBOR(w io.Writer) error {
	if err := m.Validate(); err != nil {
		return &EncodeError{err}
	}

	buf, err := cborEncMode.Marshal(m)
	if err != nil {
		return &EncodeError{err}
	}

	if _, err := w.Write(buf); err != nil {
		return &EncodeError{err}
	}

	return nil
}

const (
	cborMajorTypeMap = 5
	cborNull         = 0xf6
)

// MarshalCBOR implements cbor.Marshaler.
func (b BigBlinds) MarshalCBOR() ([]byte, error) {
	if !b.IsFinite() {
		return []byte{cborNull}, nil
	}
	return cborEncMode.Marshal(float64(b))
}

// MarshalCBOR implements cbor.Marshaler.
func (s States) MarshalCBOR() ([]byte, error) {
	buf := appendCBORHead(nil, cborMajorTypeMap, uint64(len(s)))
	for _, state := range s {
		key, err := cborEncMode.Marshal(state.Key)
		if err != nil {
			return nil, err
		}
		buf = append(buf, key...)

		entry, err := cborEncMode.Marshal(state.Entry)
		if err != nil {
			return nil, err
		}
		buf = append(buf, entry...)
	}

	return buf, nil
}

// appendCBORHead appends the initial bytes of a data item with the given
// major type and argument, using the shortest form.
func appendCBORHead(buf []byte, majorType byte, n uint64) []byte {
	mt := majorType << 5
	switch {
	case n < 24:
		return append(buf, mt|byte(n))
	case n <= 0xff:
		return append(buf, mt|24, byte(n))
	case n <= 0xffff:
		return binary.BigEndian.AppendUint16(append(buf, mt|25), uint16(n))
	case n <= 0xffffffff:
		return binary.BigEndian.AppendUint32(append(buf, mt|26), uint32(n))
	default:
		return binary.BigEndian.AppendUint64(append(buf, mt|27), n)
	}
}
