package infoset

import (
	"reflect"
	"testing"
)

func TestString(t *testing.T) {
	testCases := []struct {
		key      InfoSetKey
		expected string
	}{
		{nil, "root"},
		{InfoSetKey{}, "root"},
		{InfoSetKey{0}, "0"},
		{InfoSetKey{1, 2}, "1-2"},
		{InfoSetKey{2, 1}, "2-1"},
		{InfoSetKey{255, 0, 10}, "255-0-10"},
		{InfoSetKey{0, 0, 0}, "0-0-0"},
	}

	for _, tc := range testCases {
		if result := tc.key.String(); result != tc.expected {
			t.Errorf("key %v: expected %q, got %q", []byte(tc.key), tc.expected, result)
		}
	}
}

// Every key of up to 2 actions must map to a distinct string that parses
// back to the original key.
func TestStringIsInjective(t *testing.T) {
	seen := make(map[string]InfoSetKey)
	check := func(key InfoSetKey) {
		s := key.String()
		if prev, ok := seen[s]; ok {
			t.Fatalf("keys %v and %v both render as %q", prev, key, s)
		}
		seen[s] = append(InfoSetKey{}, key...)

		parsed, err := Parse(s)
		if err != nil {
			t.Fatalf("parse %q: %v", s, err)
		}
		if !reflect.DeepEqual(parsed, key) {
			t.Fatalf("expected: %v, got: %v", key, parsed)
		}
	}

	check(InfoSetKey{})
	for a := 0; a < 256; a++ {
		check(InfoSetKey{uint8(a)})
		for b := 0; b < 256; b++ {
			check(InfoSetKey{uint8(a), uint8(b)})
		}
	}

	if len(seen) != 1+256+256*256 {
		t.Errorf("expected %d distinct keys, got %d", 1+256+256*256, len(seen))
	}
}

func TestParseRejectsNonCanonical(t *testing.T) {
	for _, s := range []string{"", "-", "1-", "-1", "1--2", "01", "256", "a", "+1", "Root", "1-2-"} {
		if key, err := Parse(s); err == nil {
			t.Errorf("expected error parsing %q, got %v", s, key)
		}
	}
}
