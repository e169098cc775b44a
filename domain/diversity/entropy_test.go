package diversity

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

const eps = 1e-12

func TestShannonEntropyKnownValues(t *testing.T) {
	tests := []struct {
		name        string
		proportions []float64
		expected    float64
	}{
		{"empty", nil, 0},
		{"single dominant species", []float64{1.0}, 0},
		{"two equal species", []float64{0.5, 0.5}, 1.0},
		{"four equal species", []float64{0.25, 0.25, 0.25, 0.25}, 2.0},
		{"only zeros", []float64{0, 0, 0}, 0},
		{"only negatives", []float64{-0.5, -1}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, ShannonEntropy(tt.proportions), eps)
		})
	}
}

func TestShannonEntropyIgnoresNonPositive(t *testing.T) {
	withJunk := ShannonEntropy([]float64{0.5, 0.5, 0, -1})
	clean := ShannonEntropy([]float64{0.5, 0.5})

	assert.Equal(t, clean, withJunk)
	assert.Equal(t, clean, ShannonEntropy([]float64{math.NaN(), 0.5, 0.5}))
}

func TestShannonEntropyAcceptsValuesAboveOne(t *testing.T) {
	// 2·log2(2) = 2, so H = −2 bits; nothing is clamped.
	assert.InDelta(t, -2.0, ShannonEntropy([]float64{2.0}), eps)
}

func TestShannonEntropyBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 500; i++ {
		n := 1 + rng.Intn(40)
		raw := make([]float64, n)
		total := 0.0
		for j := range raw {
			// roughly a third of entries are zero or negative
			raw[j] = rng.Float64() - 0.3
			if raw[j] > 0 {
				total += raw[j]
			}
		}
		if total == 0 {
			continue
		}
		proportions := make([]float64, n)
		for j, v := range raw {
			proportions[j] = v / total
		}

		h := ShannonEntropy(proportions)
		assert.GreaterOrEqual(t, h, 0.0)
		assert.LessOrEqual(t, h, MaxEntropy(proportions))
	}
}

func TestShannonEntropyUniformStaysWithinBound(t *testing.T) {
	for n := 1; n <= 128; n++ {
		uniform := make([]float64, n)
		for i := range uniform {
			uniform[i] = 1 / float64(n)
		}

		h := ShannonEntropy(uniform)
		hmax := MaxEntropy(uniform)
		assert.LessOrEqual(t, h, hmax, "n=%d", n)
		assert.InDelta(t, hmax, h, 1e-9, "n=%d", n)
		assert.LessOrEqual(t, Evenness(uniform), 1.0, "n=%d", n)
	}
}

func TestEvennessCappedForUnnormalizedSamples(t *testing.T) {
	// sums to 0.98; H is a little above log2(2) = 1
	assert.Greater(t, ShannonEntropy([]float64{0.49, 0.49}), 1.0)
	assert.Equal(t, 1.0, Evenness([]float64{0.49, 0.49}))
}

func TestMaxEntropyAndEvenness(t *testing.T) {
	assert.Equal(t, 0.0, MaxEntropy(nil))
	assert.Equal(t, 0.0, MaxEntropy([]float64{1}))
	assert.InDelta(t, 2.0, MaxEntropy([]float64{0.1, 0.2, 0.3, 0.4, 0}), eps)

	assert.InDelta(t, 1.0, Evenness([]float64{0.25, 0.25, 0.25, 0.25}), eps)
	assert.Equal(t, 0.0, Evenness([]float64{1}))
	assert.Less(t, Evenness([]float64{0.9, 0.1}), 1.0)
}

func TestPositiveProportionsKeepsOrder(t *testing.T) {
	assert.Equal(t, []float64{0.3, 0.1, 0.6}, PositiveProportions([]float64{0.3, 0, 0.1, -2, 0.6}))
	assert.Empty(t, PositiveProportions(nil))
}
