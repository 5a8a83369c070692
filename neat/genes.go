package neat

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
)

// Gene describes one directed, weighted connection between two node indices.
// Its shape (Innovation, From, To) never changes after creation; Weight and
// Enabled are mutated in place on a genome's own copy.
type Gene struct {
	Innovation int // Historical marker; the sole key used to align genes in crossover.
	From       int
	To         int
	Weight     float64
	Enabled    bool
}

// NewGene creates an enabled gene.
func NewGene(innovation, from, to int, weight float64) Gene {
	return Gene{
		Innovation: innovation,
		From:       from,
		To:         to,
		Weight:     weight,
		Enabled:    true,
	}
}

// String returns a string representation of the Gene.
func (g Gene) String() string {
	return fmt.Sprintf("Gene(#%d: %d->%d, Weight: %.3f, Enabled: %t)",
		g.Innovation, g.From, g.To, g.Weight, g.Enabled)
}

// --------------------------- Weight Helpers ---------------------------

func initWeight(config *GenomeConfig, rng *rand.Rand) float64 {
	mean, stdev := config.WeightInitMean, config.WeightInitStdev
	minVal, maxVal := config.WeightMinValue, config.WeightMaxValue

	var val float64
	switch strings.ToLower(config.WeightInitType) {
	case "uniform":
		// Estimate uniform range from mean/stdev assuming approx 2 std devs covers most range
		rangeMin := math.Max(minVal, mean-(2*stdev))
		rangeMax := math.Min(maxVal, mean+(2*stdev))
		if rangeMax < rangeMin {
			rangeMax = rangeMin
		}
		val = rng.Float64()*(rangeMax-rangeMin) + rangeMin
	default:
		val = rng.NormFloat64()*stdev + mean
	}
	return clamp(val, minVal, maxVal)
}

func mutateWeight(value float64, config *GenomeConfig, rng *rand.Rand) float64 {
	r := rng.Float64()
	if r < config.WeightMutateRate {
		value += rng.NormFloat64() * config.WeightMutatePower
		return clamp(value, config.WeightMinValue, config.WeightMaxValue)
	}
	if r < config.WeightMutateRate+config.WeightReplaceRate {
		return initWeight(config, rng)
	}
	return value
}
