// Package diversity computes Shannon diversity of community samples and
// classifies the change between a before and an after sample.
package diversity

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// DefaultLossThreshold is the ΔH (in bits) above which a drop in diversity
// is reported as a significant loss.
const DefaultLossThreshold = 0.5

// normalizedTolerance is how close the positive proportions must sum to 1
// for the result to be held to 0 ≤ H ≤ log2(n).
const normalizedTolerance = 1e-9

// ShannonEntropy returns −Σ p·log2(p) over the positive proportions.
// Zero and negative values contribute nothing (0·log 0 = 0); NaN is dropped
// the same way. Proportions are not normalized and values above 1 are used
// as given.
//
// When the positive proportions sum to 1 the result is kept within
// [0, log2(n)]; the change of logarithm base can otherwise overshoot the
// bound by a few ULP for uniform samples.
func ShannonEntropy(proportions []float64) float64 {
	positive := PositiveProportions(proportions)
	if len(positive) == 0 {
		return 0
	}
	// stat.Entropy uses the natural logarithm.
	h := stat.Entropy(positive) / math.Ln2
	if math.Abs(floats.Sum(positive)-1) <= normalizedTolerance {
		h = math.Max(0, math.Min(h, math.Log2(float64(len(positive)))))
	}
	return h
}

// MaxEntropy is the upper bound of ShannonEntropy for the given proportions:
// log2 of the number of positive entries.
func MaxEntropy(proportions []float64) float64 {
	n := len(PositiveProportions(proportions))
	if n == 0 {
		return 0
	}
	return math.Log2(float64(n))
}

// Evenness is Pielou's J = H / Hmax, or 0 when Hmax is 0. It is capped at 1,
// which unnormalized samples can otherwise exceed.
func Evenness(proportions []float64) float64 {
	hmax := MaxEntropy(proportions)
	if hmax == 0 {
		return 0
	}
	return math.Min(ShannonEntropy(proportions)/hmax, 1)
}

// PositiveProportions returns the strictly positive values in order.
func PositiveProportions(proportions []float64) []float64 {
	positive := make([]float64, 0, len(proportions))
	for _, p := range proportions {
		if p > 0 {
			positive = append(positive, p)
		}
	}
	return positive
}
