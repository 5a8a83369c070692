package neat

import (
	"math/rand"
	"sort"
)

// Crossover creates a new genome with the given key by combining two parents.
//
// The fitter parent is primary; equal fitness is decided by a coin flip. Matching
// genes (same innovation number) are copied whole from a randomly chosen parent,
// and when either parent has the gene disabled the child's copy is disabled with
// probability disable_inherit_prob. Disjoint and excess genes come from the
// primary parent only; those unique to the weaker parent are dropped.
func Crossover(key int, parent1, parent2 *Genome, config *ReproductionConfig, rng *rand.Rand) *Genome {
	switch {
	case parent1.Fitness < parent2.Fitness:
		parent1, parent2 = parent2, parent1
	case parent1.Fitness == parent2.Fitness && rng.Float64() < 0.5:
		parent1, parent2 = parent2, parent1
	}

	child := NewGenome(key, parent1.Inputs, parent1.Outputs)
	child.NumNodes = max(parent1.NumNodes, parent2.NumNodes)
	child.Genes = make([]Gene, 0, len(parent1.Genes))

	other := make(map[int]Gene, len(parent2.Genes))
	for _, gene := range parent2.Genes {
		other[gene.Innovation] = gene
	}

	for _, gene1 := range parent1.Genes {
		gene2, matching := other[gene1.Innovation]
		if !matching {
			// Disjoint or excess gene (from fitter parent): copy directly.
			child.Genes = append(child.Genes, gene1)
			continue
		}

		inherited := gene1
		if rng.Float64() < 0.5 {
			inherited = gene2
		}
		if (!gene1.Enabled || !gene2.Enabled) && rng.Float64() < config.DisableInheritProb {
			inherited.Enabled = false
		}
		child.Genes = append(child.Genes, inherited)
	}

	sort.Slice(child.Genes, func(i, j int) bool {
		return child.Genes[i].Innovation < child.Genes[j].Innovation
	})
	return child
}
