package neat

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMutationKeepsGenomeValid(t *testing.T) {
	config := testGenomeConfig(4, 2)
	config.ConnAddProb = 0.7
	config.NodeAddProb = 0.4
	config.WeightReplaceRate = 0.2
	rng := rand.New(rand.NewSource(99))
	tracker := NewInnovationTracker(0)

	genomes := make([]*Genome, 30)
	for i := range genomes {
		g := NewGenome(i, 4, 2)
		g.ConfigureNew(config, tracker, rng)
		genomes[i] = g
	}

	for gen := 0; gen < 60; gen++ {
		tracker.NewGeneration()
		for _, g := range genomes {
			nodesBefore := g.NumNodes
			g.Mutate(config, tracker, rng)

			require.NoError(t, g.Validate())
			require.GreaterOrEqual(t, g.NumNodes, nodesBefore)
			for _, gene := range g.Genes {
				require.GreaterOrEqual(t, gene.Weight, config.WeightMinValue)
				require.LessOrEqual(t, gene.Weight, config.WeightMaxValue)
			}
		}
	}
}

func TestMutateAddNode(t *testing.T) {
	tracker := NewInnovationTracker(0)
	g := NewGenome(1, 2, 1)
	g.addGene(NewGene(tracker.Innovation(0, 2), 0, 2, 0.75))

	require.True(t, g.MutateAddNode(tracker, rand.New(rand.NewSource(1))))
	require.NoError(t, g.Validate())

	assert.Equal(t, 4, g.NumNodes)
	require.Len(t, g.Genes, 3)
	assert.False(t, g.Genes[0].Enabled, "split gene is disabled")

	in, out := g.Genes[1], g.Genes[2]
	assert.Equal(t, 0, in.From)
	assert.Equal(t, 3, in.To)
	assert.Equal(t, 1.0, in.Weight)
	assert.True(t, in.Enabled)
	assert.Equal(t, 3, out.From)
	assert.Equal(t, 2, out.To)
	assert.Equal(t, 0.75, out.Weight)
	assert.True(t, out.Enabled)
}

func TestMutateAddNodeWithoutEnabledGenes(t *testing.T) {
	tracker := NewInnovationTracker(0)
	g := NewGenome(1, 2, 1)
	assert.False(t, g.MutateAddNode(tracker, rand.New(rand.NewSource(1))))

	g.addGene(NewGene(0, 0, 2, 1))
	g.Genes[0].Enabled = false
	assert.False(t, g.MutateAddNode(tracker, rand.New(rand.NewSource(1))))
	assert.Equal(t, 3, g.NumNodes)
}

func TestMutateAddConnectionSaturates(t *testing.T) {
	config := testGenomeConfig(1, 1)
	tracker := NewInnovationTracker(0)
	rng := rand.New(rand.NewSource(5))
	g := NewGenome(1, 1, 1)

	// Only input->output is possible: outputs never act as sources.
	require.True(t, g.MutateAddConnection(config, tracker, rng))
	require.Len(t, g.Genes, 1)
	assert.Equal(t, 0, g.Genes[0].From)
	assert.Equal(t, 1, g.Genes[0].To)

	assert.False(t, g.MutateAddConnection(config, tracker, rng))
	assert.Len(t, g.Genes, 1)
}

func TestMutateAddConnectionReenablesDisabledGene(t *testing.T) {
	config := testGenomeConfig(1, 1)
	tracker := NewInnovationTracker(0)
	g := NewGenome(1, 1, 1)
	g.addGene(NewGene(tracker.Innovation(0, 1), 0, 1, 0.3))
	g.Genes[0].Enabled = false

	require.True(t, g.MutateAddConnection(config, tracker, rand.New(rand.NewSource(5))))
	require.Len(t, g.Genes, 1)
	assert.True(t, g.Genes[0].Enabled)
	assert.Equal(t, 0.3, g.Genes[0].Weight)
}

func TestMutateAddConnectionAllowsRecurrence(t *testing.T) {
	config := testGenomeConfig(1, 1)
	tracker := NewInnovationTracker(0)
	rng := rand.New(rand.NewSource(3))

	g := NewGenome(1, 1, 1)
	g.addGene(NewGene(tracker.Innovation(0, 1), 0, 1, 1))
	require.True(t, g.MutateAddNode(tracker, rng))

	// Add connections until none are left.
	for g.MutateAddConnection(config, tracker, rng) {
	}
	require.NoError(t, g.Validate())

	pairs := map[[2]int]bool{}
	for _, gene := range g.Genes {
		if gene.Enabled {
			pairs[[2]int{gene.From, gene.To}] = true
		}
	}
	assert.True(t, pairs[[2]int{2, 2}], "self loop on hidden node")
	assert.True(t, pairs[[2]int{0, 1}], "split edge re-enabled")
	assert.False(t, pairs[[2]int{1, 2}], "output never feeds back")
}

func TestMutateWeightsSkipsDisabledGenes(t *testing.T) {
	config := testGenomeConfig(2, 1)
	config.WeightMutateRate = 1
	config.WeightReplaceRate = 0
	g := NewGenome(1, 2, 1)
	g.addGene(NewGene(0, 0, 2, 0.5))
	g.addGene(NewGene(1, 1, 2, 0.5))
	g.Genes[1].Enabled = false

	g.MutateWeights(config, rand.New(rand.NewSource(8)))
	assert.NotEqual(t, 0.5, g.Genes[0].Weight)
	assert.Equal(t, 0.5, g.Genes[1].Weight)
}
