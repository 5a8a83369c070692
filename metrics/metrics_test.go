package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hamjet/neatris/neat"
)

func TestReporter(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewReporter(reg)

	r.ReportGeneration(neat.GenerationStats{RunID: "a", Generation: 0, BestFitness: 3, MeanFitness: 1.5, Species: 2, Innovations: 4})
	r.ReportGeneration(neat.GenerationStats{RunID: "a", Generation: 1, BestFitness: 5, MeanFitness: 2, Species: 3, Innovations: 9})
	r.ReportGeneration(neat.GenerationStats{RunID: "b", Generation: 0, BestFitness: 1})

	assert.Equal(t, 5.0, testutil.ToFloat64(r.BestFitness.WithLabelValues("a")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.MeanFitness.WithLabelValues("a")))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.Species.WithLabelValues("a")))
	assert.Equal(t, 9.0, testutil.ToFloat64(r.Innovations.WithLabelValues("a")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.Generations.WithLabelValues("a")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Generations.WithLabelValues("b")))

	count, err := testutil.GatherAndCount(reg, "neatris_best_fitness")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestReporterRejectsDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewReporter(reg)
	assert.Panics(t, func() { NewReporter(reg) })
}
