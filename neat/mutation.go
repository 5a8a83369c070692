package neat

import "math/rand"

// Mutate applies structural mutations with their configured probabilities and
// then perturbs weights. Structural dead ends are silent no-ops.
func (g *Genome) Mutate(config *GenomeConfig, tracker *InnovationTracker, rng *rand.Rand) {
	singleMutation := config.SingleStructuralMutation
	structureMutated := false

	if rng.Float64() < config.NodeAddProb {
		structureMutated = g.MutateAddNode(tracker, rng)
	}

	if !singleMutation || !structureMutated {
		if rng.Float64() < config.ConnAddProb {
			g.MutateAddConnection(config, tracker, rng)
		}
	}

	g.MutateWeights(config, rng)
}

// MutateWeights perturbs or replaces the weight of every enabled gene according to
// weight_mutate_rate and weight_replace_rate.
func (g *Genome) MutateWeights(config *GenomeConfig, rng *rand.Rand) {
	for i := range g.Genes {
		if !g.Genes[i].Enabled {
			continue
		}
		g.Genes[i].Weight = mutateWeight(g.Genes[i].Weight, config, rng)
	}
}

// MutateAddConnection connects a previously unconnected pair of nodes. The source
// is any non-output node and the target any non-input node, so self loops and
// recurrent edges are allowed. A pair whose only gene is disabled is re-enabled
// rather than duplicated. It reports whether the genome changed.
func (g *Genome) MutateAddConnection(config *GenomeConfig, tracker *InnovationTracker, rng *rand.Rand) bool {
	// existing maps a node pair to the index of its gene.
	existing := make(map[connectionKey]int, len(g.Genes))
	for i, gene := range g.Genes {
		key := connectionKey{From: gene.From, To: gene.To}
		if prev, ok := existing[key]; ok && g.Genes[prev].Enabled {
			continue
		}
		existing[key] = i
	}

	var candidates []connectionKey
	for from := 0; from < g.NumNodes; from++ {
		if g.IsOutput(from) {
			continue
		}
		for to := g.Inputs; to < g.NumNodes; to++ {
			key := connectionKey{From: from, To: to}
			if i, ok := existing[key]; ok && g.Genes[i].Enabled {
				continue
			}
			candidates = append(candidates, key)
		}
	}
	if len(candidates) == 0 {
		return false
	}

	key := candidates[rng.Intn(len(candidates))]
	if i, ok := existing[key]; ok {
		g.Genes[i].Enabled = true
		return true
	}
	g.connect(key.From, key.To, config, tracker, rng)
	return true
}

// MutateAddNode splits a random enabled gene G into G.From->new (weight 1) and
// new->G.To (weight G.Weight), disabling G. It reports whether the genome changed.
func (g *Genome) MutateAddNode(tracker *InnovationTracker, rng *rand.Rand) bool {
	var enabled []int
	for i, gene := range g.Genes {
		if gene.Enabled {
			enabled = append(enabled, i)
		}
	}
	if len(enabled) == 0 {
		return false
	}

	idx := enabled[rng.Intn(len(enabled))]
	split := g.Genes[idx]
	g.Genes[idx].Enabled = false

	newNode := g.NumNodes
	g.NumNodes++

	g.addGene(NewGene(tracker.Innovation(split.From, newNode), split.From, newNode, 1.0))
	g.addGene(NewGene(tracker.Innovation(newNode, split.To), newNode, split.To, split.Weight))
	return true
}
