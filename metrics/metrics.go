// Package metrics exports evolution progress as Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hamjet/neatris/neat"
)

const runLabel = "run_id"

// Reporter is a neat.Reporter that records every generation's statistics.
type Reporter struct {
	BestFitness *prometheus.GaugeVec
	MeanFitness *prometheus.GaugeVec
	Species     *prometheus.GaugeVec
	Innovations *prometheus.GaugeVec
	Generations *prometheus.CounterVec
}

var _ neat.Reporter = (*Reporter)(nil)

// NewReporter creates the collectors and registers them with reg.
func NewReporter(reg prometheus.Registerer) *Reporter {
	r := &Reporter{
		BestFitness: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "neatris_best_fitness",
			Help: "Best fitness of the last evaluated generation.",
		}, []string{runLabel}),
		MeanFitness: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "neatris_mean_fitness",
			Help: "Mean fitness of the last evaluated generation.",
		}, []string{runLabel}),
		Species: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "neatris_species",
			Help: "Number of species after speciation.",
		}, []string{runLabel}),
		Innovations: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "neatris_innovations",
			Help: "Next innovation number to be handed out.",
		}, []string{runLabel}),
		Generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "neatris_generations_total",
			Help: "Generations processed.",
		}, []string{runLabel}),
	}
	reg.MustRegister(r.BestFitness, r.MeanFitness, r.Species, r.Innovations, r.Generations)
	return r
}

// ReportGeneration implements neat.Reporter.
func (r *Reporter) ReportGeneration(stats neat.GenerationStats) {
	labels := prometheus.Labels{runLabel: stats.RunID}
	r.BestFitness.With(labels).Set(stats.BestFitness)
	r.MeanFitness.With(labels).Set(stats.MeanFitness)
	r.Species.With(labels).Set(float64(stats.Species))
	r.Innovations.With(labels).Set(float64(stats.Innovations))
	r.Generations.With(labels).Inc()
}
