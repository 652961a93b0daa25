// Package neuromath holds the small numeric helpers shared by the biosignal
// feed and the export layer.
package neuromath

import (
	"math"

	"github.com/okian/synaptic/internal/domain/types"
)

// Band ratio constants.
const (
	// Epsilon keeps band ratios finite when the denominator band is zero.
	Epsilon  = 0.001
	MinFocus = 0.1
	MaxFocus = 1.0
)

// Sigmoid is the logistic activation 1/(1+e^-x).
func Sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// FocusRatio derives a focus level from the beta/alpha band power ratio,
// clamped to [MinFocus, MaxFocus].
func FocusRatio(alpha, beta float64) float64 {
	return types.Clamp(beta/(alpha+Epsilon), MinFocus, MaxFocus)
}

// FocusScore is a smooth focus estimate that also accounts for relaxation
// (alpha/theta). Higher beta/alpha pushes it toward 1.
func FocusScore(alpha, beta, theta float64) float64 {
	focus := beta / (alpha + Epsilon)
	relaxation := alpha / (theta + Epsilon)
	return Sigmoid(focus - relaxation)
}

// ReLU returns max(0, x).
func ReLU(x float64) float64 {
	return math.Max(0, x)
}

// NormalizeBrainwave rescales data to [0, 1] by its min and max. A flat
// series maps to all zeros; nil or empty input returns an empty slice.
func NormalizeBrainwave(data []float64) []float64 {
	out := make([]float64, len(data))
	if len(data) == 0 {
		return out
	}
	lo, hi := data[0], data[0]
	for _, v := range data[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}
	for i, v := range data {
		out[i] = (v - lo) / span
	}
	return out
}

// LogisticGrowth projects one logistic step of a growth level toward 1.
// stress scales the step; callers pass 1 for an unstressed projection.
func LogisticGrowth(current, learningRate, stress float64) float64 {
	rate := 0.1 * ReLU(learningRate) * ReLU(stress)
	return current + rate*(1-current)*current
}
