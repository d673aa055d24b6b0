// Package cfrexport converts solved CFR strategy tables into quantized,
// canonically ordered documents that a runtime strategy engine can load.
package cfrexport

import (
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/timpalpant/cfrexport/basispoints"
	"github.com/timpalpant/cfrexport/solver"
)

const (
	// DefaultSource is the solver that produces the strategy tables.
	DefaultSource = "https://github.com/b-inary/poker-cfr"
	// DefaultLicense is the license of DefaultSource.
	DefaultLicense = "BSD-2-Clause"
)

// Compression suffixes that are not part of the solver's file name.
var compressionExts = []string{".gz", ".zst", ".lz4"}

// ExportMeta describes where an exported strategy came from.
type ExportMeta struct {
	Source  string `json:"source"`
	License string `json:"license"`
	// Effective stack size and number of solver iterations, taken from the
	// input file name. Nil if the file name does not carry them.
	StackBB    *float64 `json:"stack_bb"`
	Iterations *uint64  `json:"iterations"`
	// Expected value of the first player (SB) and exploitability of the
	// strategy, in big blinds.
	EVSBBB           BigBlinds `json:"ev_sb_bb"`
	ExploitabilityBB BigBlinds `json:"exploitability_bb"`
	Scale            string    `json:"scale"`
}

// BigBlinds is an amount in big blinds reported by the solver. Values that
// are not finite are written as null.
type BigBlinds float64

// IsFinite reports whether b can be written as a number.
func (b BigBlinds) IsFinite() bool {
	return !math.IsNaN(float64(b)) && !math.IsInf(float64(b), 0)
}

// ExportModel is the document written for a runtime strategy engine.
type ExportModel struct {
	Meta   ExportMeta `json:"meta"`
	States States     `json:"states"`
}

// NewExportModel quantizes the solver output and attaches its metadata.
// The source, license and stack/iteration fields of meta are kept; the
// remaining fields are taken from raw.
func NewExportModel(raw *solver.RawSolverOutput, meta ExportMeta) *ExportModel {
	meta.EVSBBB = BigBlinds(raw.EVFirstPositionBB)
	meta.ExploitabilityBB = BigBlinds(raw.ExploitabilityBB)
	meta.Scale = basispoints.Scale

	return &ExportModel{
		Meta:   meta,
		States: NewStates(raw.Strategy),
	}
}

// ParseFilename extracts the stack size (in big blinds) and number of
// iterations from a solver output named "preflop-<stack_bb>-<iterations>.<ext>".
// Each value is nil if it is missing or does not parse.
func ParseFilename(path string) (stackBB *float64, iterations *uint64) {
	stem := filepath.Base(path)
	for _, ext := range compressionExts {
		if strings.HasSuffix(stem, ext) && len(stem) > len(ext) {
			stem = strings.TrimSuffix(stem, ext)
			break
		}
	}
	stem = fileStem(stem)

	parts := strings.Split(stem, "-")
	if len(parts) < 3 || parts[0] != "preflop" {
		return nil, nil
	}

	if v, err := strconv.ParseFloat(parts[1], 64); err == nil && !math.IsInf(v, 0) && !math.IsNaN(v) {
		stackBB = &v
	}

	// A single leading '+' is accepted, as by the solver's own integer parser.
	if v, err := strconv.ParseUint(strings.TrimPrefix(parts[2], "+"), 10, 64); err == nil {
		iterations = &v
	}

	return stackBB, iterations
}

// fileStem strips the last extension of a base name. A leading dot does not
// start an extension, so ".bin" is its own stem.
func fileStem(base string) string {
	i := strings.LastIndexByte(base, '.')
	if i <= 0 {
		return base
	}
	return base[:i]
}

// Validate checks the invariants that the encoded document relies on.
func (m *ExportModel) Validate() error {
	if m.Meta.StackBB != nil && (math.IsNaN(*m.Meta.StackBB) || math.IsInf(*m.Meta.StackBB, 0)) {
		return errors.Errorf("stack_bb is not finite: %v", *m.Meta.StackBB)
	}

	for i, state := range m.States {
		if i > 0 && m.States[i-1].Key >= state.Key {
			return errors.Errorf("states not in strictly ascending order: %q, %q",
				m.States[i-1].Key, state.Key)
		}

		if state.Entry.NumActions != len(state.Entry.ProbsBP) {
			return errors.Errorf("state %q has num_actions %d but %d action buckets",
				state.Key, state.Entry.NumActions, len(state.Entry.ProbsBP))
		}
	}

	return nil
}
