// Package basispoints converts action probabilities into fixed-point
// integers in units of 1/10000.
package basispoints

import (
	"math"
)

const (
	// Max is the quantized value of probability 1.
	Max = 10000

	// Scale documents the unit of quantized probabilities in exported models.
	Scale = "basis_points_0_to_10000"
)

// Quantize returns round(p * 10000) clamped to [0, 10000].
//
// Ties round half away from zero. NaN maps to 0, +Inf to Max and -Inf to 0.
func Quantize(p float64) uint16 {
	if math.IsNaN(p) {
		return 0
	}

	scaled := math.Round(p * Max)
	if scaled <= 0 {
		return 0
	} else if scaled >= Max {
		return Max
	}

	return uint16(scaled)
}

// QuantizeTensor quantizes every probability of an action tensor,
// preserving its shape.
func QuantizeTensor(tensor [][][]float64) [][][]uint16 {
	result := make([][][]uint16, len(tensor))
	for i, matrix := range tensor {
		rows := make([][]uint16, len(matrix))
		for j, row := range matrix {
			quantized := make([]uint16, len(row))
			for k, p := range row {
				quantized[k] = Quantize(p)
			}
			rows[j] = quantized
		}
		result[i] = rows
	}

	return result
}
