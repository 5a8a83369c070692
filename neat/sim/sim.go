// Package sim connects evolved networks to environments that are stepped in
// discrete ticks, and turns an environment's score into a genome's fitness.
package sim

import (
	"context"
	"errors"
	"fmt"

	"github.com/hamjet/neatris/neat"
	"github.com/hamjet/neatris/neat/nn"
)

// ErrIOMismatch is returned when a genome's input or output count differs from
// the environment's. It indicates a misconfigured run.
var ErrIOMismatch = errors.New("genome and simulator input/output counts differ")

// Simulator is an environment driven by a network.
type Simulator interface {
	// InputCount is the number of values FillInputs writes.
	InputCount() int
	// OutputCount is the number of outputs ApplyOutputs reads.
	OutputCount() int
	// FillInputs writes the current observation into the network's inputs.
	FillInputs(net *nn.Network)
	// ApplyOutputs reads the network's outputs and acts on them.
	ApplyOutputs(net *nn.Network)
	// Tick advances the environment by one tick and reports whether it is
	// still running.
	Tick() bool
	// Score is the fitness earned so far.
	Score() float64
}

// Factory creates a fresh simulator for one evaluation.
type Factory func(seed int64) Simulator

const (
	DefaultStepsPerTick = 2
	DefaultMaxTicks     = 2000
)

// Evaluator scores genomes by letting their networks play the simulator.
type Evaluator struct {
	Factory      Factory
	Seeds        []int64 // One episode per seed; fitness is the mean score. Empty means a single episode with seed 0.
	StepsPerTick int     // Network updates between ticks; 0 means DefaultStepsPerTick.
	MaxTicks     int     // Episode length cap; 0 means DefaultMaxTicks.
	Activation   neat.ActivationType
}

// Fitness plays one episode per seed and returns the mean score. It matches
// neat.FitnessFunc and is safe for concurrent use as long as Factory is.
func (ev *Evaluator) Fitness(ctx context.Context, g *neat.Genome) (float64, error) {
	seeds := ev.Seeds
	if len(seeds) == 0 {
		seeds = []int64{0}
	}
	total := 0.0
	for _, seed := range seeds {
		score, err := ev.Play(ctx, g, seed)
		if err != nil {
			return 0, err
		}
		total += score
	}
	return total / float64(len(seeds)), nil
}

// Play runs a single episode and returns the simulator's final score.
func (ev *Evaluator) Play(ctx context.Context, g *neat.Genome, seed int64) (float64, error) {
	s := ev.Factory(seed)
	if s.InputCount() != g.Inputs || s.OutputCount() != g.Outputs {
		return 0, fmt.Errorf("%w: genome %d has %d/%d, simulator wants %d/%d",
			ErrIOMismatch, g.Key, g.Inputs, g.Outputs, s.InputCount(), s.OutputCount())
	}

	steps := ev.StepsPerTick
	if steps <= 0 {
		steps = DefaultStepsPerTick
	}
	maxTicks := ev.MaxTicks
	if maxTicks <= 0 {
		maxTicks = DefaultMaxTicks
	}

	net := nn.New(g, ev.Activation)
	for tick := 0; tick < maxTicks; tick++ {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		for i := 0; i < steps; i++ {
			s.FillInputs(net)
			net.Step()
			s.ApplyOutputs(net)
		}
		if !s.Tick() {
			break
		}
	}
	return s.Score(), nil
}
