package cfrexport

import (
	"sort"

	"github.com/timpalpant/cfrexport/basispoints"
	"github.com/timpalpant/cfrexport/infoset"
	"github.com/timpalpant/cfrexport/solver"
)

// StateEntry is the quantized strategy of a single decision point.
type StateEntry struct {
	// The number of buckets/branches in ProbsBP.
	NumActions int `json:"num_actions"`
	// Action probabilities in basis points, with the same shape as the
	// solver's ActionTensor.
	ProbsBP [][][]uint16 `json:"probs_bp"`
}

// NewStateEntry quantizes the given action tensor.
func NewStateEntry(tensor solver.ActionTensor) StateEntry {
	probsBP := basispoints.QuantizeTensor(tensor)
	return StateEntry{
		NumActions: len(probsBP),
		ProbsBP:    probsBP,
	}
}

// State pairs a StateEntry with the canonical key of its decision point.
type State struct {
	Key   string
	Entry StateEntry
}

// States is a strategy table ordered by canonical key.
type States []State

// NewStates quantizes every entry of the solver's strategy table and sorts
// the result by canonical key, so the order never depends on map iteration.
func NewStates(strategy map[string]solver.ActionTensor) States {
	result := make(States, 0, len(strategy))
	for rawKey, tensor := range strategy {
		result = append(result, State{
			Key:   infoset.InfoSetKey(rawKey).String(),
			Entry: NewStateEntry(tensor),
		})
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Key < result[j].Key
	})

	return result
}

// Len returns the number of states.
func (s States) Len() int {
	return len(s)
}

// Get returns the entry with the given canonical key.
func (s States) Get(key string) (StateEntry, bool) {
	i := sort.Search(len(s), func(i int) bool {
		return s[i].Key >= key
	})

	if i < len(s) && s[i].Key == key {
		return s[i].Entry, true
	}

	return StateEntry{}, false
}

// Keys returns the canonical keys in order.
func (s States) Keys() []string {
	result := make([]string, len(s))
	for i, state := range s {
		result[i] = state.Key
	}
	return result
}
