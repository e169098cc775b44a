package testkit

import (
	"encoding/csv"
	"fmt"
	"math/rand"
	"os"
	"strconv"

	"biodelta/domain/community"
)

// CommunityGeneratorConfig configures the synthetic community generator
type CommunityGeneratorConfig struct {
	SpeciesCount int
	// Dominance is the share the first species takes in a dominated sample
	Dominance float64
	// Noise is the relative jitter applied to each abundance before normalization
	Noise float64
	Seed  int64
}

// DefaultCommunityConfig returns a 20-species community whose treated
// sample is dominated by one survivor
func DefaultCommunityConfig() CommunityGeneratorConfig {
	return CommunityGeneratorConfig{
		SpeciesCount: 20,
		Dominance:    0.9,
		Noise:        0.2,
		Seed:         42,
	}
}

// CommunityGenerator generates reproducible relative-abundance samples
type CommunityGenerator struct {
	config CommunityGeneratorConfig
	rng    *rand.Rand
}

// NewCommunityGenerator creates a new community generator
func NewCommunityGenerator(config CommunityGeneratorConfig) *CommunityGenerator {
	if config.SpeciesCount < 1 {
		config.SpeciesCount = 1
	}
	return &CommunityGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// SpeciesNames returns the generated species labels in row order
func (g *CommunityGenerator) SpeciesNames() []string {
	names := make([]string, g.config.SpeciesCount)
	for i := range names {
		names[i] = fmt.Sprintf("Species_%03d", i+1)
	}
	return names
}

// Even generates a near-uniform sample that sums to 1
func (g *CommunityGenerator) Even(side community.Side) *community.Sample {
	abundances := make([]float64, g.config.SpeciesCount)
	for i := range abundances {
		abundances[i] = g.jitter(1)
	}
	return g.sample(side, "even", normalize(abundances, 1))
}

// Dominated generates a sample where the first species holds Dominance and
// the rest share the remainder
func (g *CommunityGenerator) Dominated(side community.Side) *community.Sample {
	n := g.config.SpeciesCount
	if n == 1 {
		return g.sample(side, "dominated", []float64{1})
	}
	rest := make([]float64, n-1)
	for i := range rest {
		rest[i] = g.jitter(1)
	}
	proportions := append([]float64{g.config.Dominance}, normalize(rest, 1-g.config.Dominance)...)
	return g.sample(side, "dominated", proportions)
}

// Pair generates an even Before sample and a dominated After sample
func (g *CommunityGenerator) Pair() (before, after *community.Sample) {
	return g.Even(community.Before), g.Dominated(community.After)
}

func (g *CommunityGenerator) jitter(v float64) float64 {
	return v * (1 + g.config.Noise*(2*g.rng.Float64()-1))
}

func (g *CommunityGenerator) sample(side community.Side, kind string, proportions []float64) *community.Sample {
	return &community.Sample{
		Side:        side,
		Source:      fmt.Sprintf("synthetic-%s-%d", kind, g.config.Seed),
		Species:     g.SpeciesNames(),
		Proportions: proportions,
	}
}

func normalize(values []float64, total float64) []float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = v / sum * total
	}
	return out
}

// WriteCSV writes a sample as a Species,Proportion CSV file
func WriteCSV(path string, sample *community.Sample) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	records := [][]string{community.RequiredColumns}
	for i, species := range sample.Species {
		records = append(records, []string{species, strconv.FormatFloat(sample.Proportions[i], 'f', -1, 64)})
	}
	if err := w.WriteAll(records); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
