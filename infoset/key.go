package infoset

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// RootKey is the canonical name of the empty action history.
const RootKey = "root"

const separator = "-"

// InfoSetKey is the public action history leading to a decision point,
// one byte per action, in the order the actions were taken. The empty
// key is the root of the game tree.
type InfoSetKey []byte

// String renders the key in its canonical form: "root" for the empty
// history, otherwise the decimal value of each action joined by "-".
//
// No byte renders as an empty string or contains the separator, so
// distinct keys always have distinct canonical forms.
func (k InfoSetKey) String() string {
	if len(k) == 0 {
		return RootKey
	}

	var sb strings.Builder
	sb.Grow(4 * len(k))
	var buf [3]byte
	for i, action := range k {
		if i > 0 {
			sb.WriteString(separator)
		}
		sb.Write(strconv.AppendUint(buf[:0], uint64(action), 10))
	}

	return sb.String()
}

// Parse recovers the InfoSetKey from its canonical form. It rejects any
// string that String would not have produced, e.g. "01", "1--2" or "256".
func Parse(s string) (InfoSetKey, error) {
	if s == RootKey {
		return InfoSetKey{}, nil
	}

	parts := strings.Split(s, separator)
	result := make(InfoSetKey, len(parts))
	for i, part := range parts {
		if len(part) > 1 && part[0] == '0' {
			return nil, errors.Errorf("non-canonical action %q in key %q", part, s)
		}

		action, err := strconv.ParseUint(part, 10, 8)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid action %d in key %q", i, s)
		}
		result[i] = uint8(action)
	}

	return result, nil
}
