package diversity

import (
	"fmt"
	"math"
)

// Classification labels the before/after entropy change
type Classification int

const (
	Normal Classification = iota
	SignificantLoss
)

func (c Classification) String() string {
	switch c {
	case Normal:
		return "NORMAL"
	case SignificantLoss:
		return "SIGNIFICANT_LOSS"
	default:
		return fmt.Sprintf("Classification(%d)", int(c))
	}
}

// Message is the human-readable verdict shown in summaries and exports.
func (c Classification) Message() string {
	if c == SignificantLoss {
		return "Significant community death detected!"
	}
	return "No significant community death."
}

// Classify returns delta = before − after and flags a significant loss when
// delta is strictly greater than threshold.
func Classify(before, after, threshold float64) (float64, Classification) {
	delta := before - after
	if delta > threshold {
		return delta, SignificantLoss
	}
	return delta, Normal
}

// EntropyResult is the outcome of one before/after comparison. It is a value
// type; a new one is produced on each analysis.
type EntropyResult struct {
	Before         float64
	After          float64
	Delta          float64
	Threshold      float64
	Classification Classification
}

// Message is shorthand for r.Classification.Message().
func (r EntropyResult) Message() string {
	return r.Classification.Message()
}

// Calculator compares entropies against a fixed loss threshold.
type Calculator struct {
	threshold float64
}

// NewCalculator creates a calculator. A negative or non-finite threshold is
// replaced by DefaultLossThreshold.
func NewCalculator(threshold float64) *Calculator {
	if threshold < 0 || math.IsNaN(threshold) || math.IsInf(threshold, 0) {
		threshold = DefaultLossThreshold
	}
	return &Calculator{threshold: threshold}
}

// Threshold returns the loss threshold in bits.
func (c *Calculator) Threshold() float64 {
	return c.threshold
}

// Compare computes the entropy of each side independently and classifies
// the difference.
func (c *Calculator) Compare(before, after []float64) EntropyResult {
	hBefore := ShannonEntropy(before)
	hAfter := ShannonEntropy(after)
	delta, class := Classify(hBefore, hAfter, c.threshold)
	return EntropyResult{
		Before:         hBefore,
		After:          hAfter,
		Delta:          delta,
		Threshold:      c.threshold,
		Classification: class,
	}
}
