package neat

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// frozenConfig is a 10 x (4 in / 1 out) run in which nothing ever mutates.
func frozenConfig() *Config {
	config := DefaultConfig()
	config.Neat.PopSize = 10
	config.Neat.EvalWorkers = 4
	config.Genome.NumInputs = 4
	config.Genome.NumOutputs = 1
	config.Genome.WeightMutateRate = 0
	config.Genome.WeightReplaceRate = 0
	config.Genome.ConnAddProb = 0
	config.Genome.NodeAddProb = 0
	return config
}

func keyFitness(_ context.Context, g *Genome) (float64, error) {
	return float64(g.Key % 10), nil
}

type recordingReporter struct {
	mu    sync.Mutex
	stats []GenerationStats
}

func (r *recordingReporter) ReportGeneration(stats GenerationStats) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats = append(r.stats, stats)
}

func TestEvolverWithoutMutation(t *testing.T) {
	reporter := &recordingReporter{}
	evolver, err := NewEvolver(frozenConfig(), keyFitness,
		WithLogger(discardLogger),
		WithRand(rand.New(rand.NewSource(3))),
		WithReporter(reporter))
	require.NoError(t, err)
	assert.Equal(t, Evaluating, evolver.State())
	assert.NotEmpty(t, evolver.RunID())
	assert.Nil(t, evolver.Best())

	for gen := 0; gen < 5; gen++ {
		require.Equal(t, gen, evolver.Generation())

		population := evolver.Population()
		require.Len(t, population, 10)
		want := -1.0
		for _, g := range population {
			require.Len(t, g.Genes, 1, "no structural change without mutation")
			want = max(want, float64(g.Key%10))
		}

		champion, err := evolver.ProcessGeneration(context.Background())
		require.NoError(t, err)
		assert.Equal(t, want, champion.Fitness)
		assert.Equal(t, Evaluating, evolver.State())
		assert.NotEmpty(t, evolver.Species())
	}

	for _, g := range evolver.Population() {
		assert.Len(t, g.Genes, 1)
	}
	assert.Equal(t, 5, evolver.Generation())
	assert.Equal(t, 9.0, evolver.Best().Fitness)
	assert.Equal(t, 1, evolver.Tracker().Next(), "only the initial connection was ever registered")

	require.Len(t, reporter.stats, 5)
	for i, s := range reporter.stats {
		assert.Equal(t, i, s.Generation)
		assert.Equal(t, evolver.RunID(), s.RunID)
		assert.Positive(t, s.Species)
	}
}

func TestEvolverChampionIsACopy(t *testing.T) {
	evolver, err := NewEvolver(frozenConfig(), keyFitness, WithLogger(discardLogger))
	require.NoError(t, err)

	champion, err := evolver.ProcessGeneration(context.Background())
	require.NoError(t, err)
	champion.Genes[0].Weight = 1e6
	champion.Fitness = -1

	best := evolver.Best()
	assert.NotEqual(t, 1e6, best.Genes[0].Weight)
	assert.Equal(t, 9.0, best.Fitness)
}

func TestEvolverFitnessError(t *testing.T) {
	errBoom := errors.New("boom")
	for _, workers := range []int{1, 4} {
		config := frozenConfig()
		config.Neat.EvalWorkers = workers
		evolver, err := NewEvolver(config, func(_ context.Context, g *Genome) (float64, error) {
			if g.Key == 5 {
				return 0, errBoom
			}
			return 1, nil
		}, WithLogger(discardLogger))
		require.NoError(t, err)

		_, err = evolver.ProcessGeneration(context.Background())
		assert.ErrorIs(t, err, errBoom)
		assert.Zero(t, evolver.Generation())
		assert.Nil(t, evolver.Best())
	}
}

func TestEvolverCancelledContext(t *testing.T) {
	evolver, err := NewEvolver(frozenConfig(), keyFitness, WithLogger(discardLogger))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = evolver.ProcessGeneration(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEvolverRunStopsAtThreshold(t *testing.T) {
	config := frozenConfig()
	config.Neat.FitnessThreshold = 5
	evolver, err := NewEvolver(config, keyFitness, WithLogger(discardLogger))
	require.NoError(t, err)

	winner, err := evolver.Run(context.Background(), 10)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, winner.Fitness, 5.0)
	assert.Equal(t, 1, evolver.Generation())
}

func TestEvolverRunWithoutTermination(t *testing.T) {
	config := frozenConfig()
	config.Neat.FitnessThreshold = 5
	config.Neat.NoFitnessTermination = true
	evolver, err := NewEvolver(config, keyFitness, WithLogger(discardLogger))
	require.NoError(t, err)

	best, err := evolver.Run(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, 9.0, best.Fitness)
	assert.Equal(t, 3, evolver.Generation())
}

func TestEvolverEvolvesStructure(t *testing.T) {
	config := DefaultConfig()
	config.Neat.PopSize = 30
	config.Genome.NumInputs = 3
	config.Genome.NumOutputs = 2
	config.Genome.ConnAddProb = 0.5
	config.Genome.NodeAddProb = 0.3

	// Reward size so the population grows.
	evolver, err := NewEvolver(config, func(_ context.Context, g *Genome) (float64, error) {
		return float64(g.EnabledGenes()), nil
	}, WithLogger(discardLogger), WithTracker(NewInnovationTracker(100)))
	require.NoError(t, err)

	_, err = evolver.Run(context.Background(), 10)
	require.NoError(t, err)

	for _, g := range evolver.Population() {
		require.NoError(t, g.Validate())
		require.GreaterOrEqual(t, g.MaxInnovation(), 100)
	}
	assert.Greater(t, evolver.Best().Fitness, 1.0)
	assert.Greater(t, evolver.Tracker().Next(), 101)
}

func TestNewEvolverRejectsInvalidConfig(t *testing.T) {
	config := frozenConfig()
	config.Neat.PopSize = 0
	_, err := NewEvolver(config, keyFitness)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewEvolver(frozenConfig(), nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "EVALUATING", Evaluating.String())
	assert.Equal(t, "SPECIATING", Speciating.String())
	assert.Equal(t, "REPRODUCING", Reproducing.String())
}
