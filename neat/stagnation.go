package neat

import (
	"fmt"
	"sort"
	"strings"
)

// Stagnation manages the detection of stagnant species.
type Stagnation struct {
	Config             *StagnationConfig
	SpeciesFitnessFunc func([]float64) float64
}

// NewStagnation creates a new stagnation manager.
func NewStagnation(config *StagnationConfig) (*Stagnation, error) {
	fn, ok := StatFunctions[strings.ToLower(config.SpeciesFitnessFunc)]
	if !ok {
		return nil, fmt.Errorf("%w: invalid species_fitness_func: %s", ErrInvalidConfig, config.SpeciesFitnessFunc)
	}

	return &Stagnation{
		Config:             config,
		SpeciesFitnessFunc: fn,
	}, nil
}

// StagnationInfo holds the results of the stagnation update for a single species.
type StagnationInfo struct {
	SpeciesID  int
	Species    *Species
	IsStagnant bool
}

// Update computes every species' fitness and marks the ones that have not
// improved for more than max_stagnation generations. The species_elitism
// fittest species are never marked, which protects the best lineage.
// The result is ordered from least to most fit.
func (s *Stagnation) Update(speciesSet *SpeciesSet) []StagnationInfo {
	if len(speciesSet.Species) == 0 {
		return []StagnationInfo{}
	}

	ordered := make([]*Species, len(speciesSet.Species))
	copy(ordered, speciesSet.Species)
	for _, sp := range ordered {
		sp.Fitness = s.SpeciesFitnessFunc(sp.GetFitnesses())
		sp.AdjustedFitness = 0 // Calculated later in reproduction.
	}

	// Sort species by fitness (ascending - least fit first)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Fitness < ordered[j].Fitness
	})

	result := make([]StagnationInfo, len(ordered))
	numSpecies := len(ordered)
	for i, sp := range ordered {
		// Since we sorted ascending, the last species_elitism are the fittest.
		elite := numSpecies-i <= s.Config.SpeciesElitism
		result[i] = StagnationInfo{
			SpeciesID:  sp.Key,
			Species:    sp,
			IsStagnant: !elite && sp.Stagnation > s.Config.MaxStagnation,
		}
	}
	return result
}
