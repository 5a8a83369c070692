package neat

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"github.com/gofrs/uuid"
	"github.com/sourcegraph/conc/pool"
)

// FitnessFunc scores a single genome. It is called concurrently for different
// genomes and must not modify the genome it is given.
type FitnessFunc func(ctx context.Context, g *Genome) (float64, error)

// State is the phase of the generational cycle an Evolver is in.
type State int

const (
	Evaluating State = iota
	Speciating
	Reproducing
)

func (s State) String() string {
	switch s {
	case Evaluating:
		return "EVALUATING"
	case Speciating:
		return "SPECIATING"
	case Reproducing:
		return "REPRODUCING"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// GenerationStats summarises one completed generation.
type GenerationStats struct {
	RunID        string
	Generation   int
	BestFitness  float64
	MeanFitness  float64
	StdevFitness float64
	BestGenome   int // Key of the generation's best genome.
	Species      int
	Innovations  int // Next innovation number after reproduction.
	Duration     time.Duration
}

// Reporter receives statistics after every generation.
type Reporter interface {
	ReportGeneration(stats GenerationStats)
}

// Option configures an Evolver.
type Option func(*Evolver)

// WithLogger sets the logger. The run id is attached to every record.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Evolver) { e.logger = logger }
}

// WithRand sets the random source used by speciation and reproduction.
// By default one is seeded from the seed config value.
func WithRand(rng *rand.Rand) Option {
	return func(e *Evolver) { e.rng = rng }
}

// WithTracker sets the innovation tracker.
func WithTracker(tracker *InnovationTracker) Option {
	return func(e *Evolver) { e.tracker = tracker }
}

// WithReporter adds a reporter.
func WithReporter(r Reporter) Option {
	return func(e *Evolver) { e.reporters = append(e.reporters, r) }
}

// Evolver holds the state of the NEAT evolutionary process and drives it one
// generation at a time through EVALUATING, SPECIATING and REPRODUCING.
//
// An Evolver is not safe for concurrent use; only fitness evaluation inside
// ProcessGeneration runs in parallel.
type Evolver struct {
	config       *Config
	fitness      FitnessFunc
	logger       *slog.Logger
	rng          *rand.Rand
	tracker      *InnovationTracker
	reporters    []Reporter
	runID        string
	state        State
	generation   int
	population   []*Genome
	speciesSet   *SpeciesSet
	reproduction *Reproduction
	best         *Genome // Best genome found so far
}

// NewEvolver validates config and creates the initial population.
func NewEvolver(config *Config, fitness FitnessFunc, opts ...Option) (*Evolver, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if fitness == nil {
		return nil, fmt.Errorf("%w: nil fitness function", ErrInvalidConfig)
	}

	e := &Evolver{
		config:  config,
		fitness: fitness,
		logger:  slog.Default(),
		runID:   uuid.Must(uuid.NewV4()).String(),
		state:   Evaluating,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewSource(config.Neat.Seed))
	}
	if e.tracker == nil {
		e.tracker = NewInnovationTracker(0)
	}
	e.logger = e.logger.With("run_id", e.runID)

	stagnation, err := NewStagnation(&config.Stagnation)
	if err != nil {
		return nil, fmt.Errorf("failed to create stagnation manager: %w", err)
	}
	e.reproduction = NewReproduction(&config.Reproduction, &config.Genome, stagnation, e.logger)
	e.speciesSet = NewSpeciesSet(&config.SpeciesSet, &config.Genome, e.logger)
	e.population = e.reproduction.CreateNewPopulation(e.tracker, config.Neat.PopSize, e.rng)

	e.logger.Info("created population",
		"pop_size", len(e.population),
		"inputs", config.Genome.NumInputs,
		"outputs", config.Genome.NumOutputs)
	return e, nil
}

// ProcessGeneration runs one full cycle: every genome is scored, the population
// is speciated and the next generation is bred. It returns a copy of the best
// genome of the generation that was just evaluated.
//
// A fitness error or a cancelled context aborts the generation before
// speciation; the population is left as it was.
func (e *Evolver) ProcessGeneration(ctx context.Context) (*Genome, error) {
	start := time.Now()

	// 1. Evaluate Fitness
	e.state = Evaluating
	fitnesses, err := e.evaluate(ctx)
	if err != nil {
		return nil, fmt.Errorf("fitness evaluation failed in generation %d: %w", e.generation, err)
	}
	for i, g := range e.population {
		g.Fitness = fitnesses[i]
	}

	// 2. Track Best Genome
	currentBest := e.findBestGenome()
	champion := currentBest.Copy()
	if e.best == nil || currentBest.Fitness > e.best.Fitness {
		e.best = currentBest.Copy()
		e.logger.Info("new best genome",
			"generation", e.generation, "genome", e.best.Key, "fitness", e.best.Fitness)
	}

	// 3. Speciate
	e.state = Speciating
	e.speciesSet.Speciate(e.population, e.generation, e.rng)
	numSpecies := len(e.speciesSet.Species)

	// 4. Reproduce
	e.state = Reproducing
	newPopulation, err := e.reproduction.Reproduce(e.speciesSet, e.tracker, e.config.Neat.PopSize, e.rng)
	if err != nil {
		return champion, fmt.Errorf("reproduction failed in generation %d: %w", e.generation, err)
	}

	stats := GenerationStats{
		RunID:        e.runID,
		Generation:   e.generation,
		BestFitness:  champion.Fitness,
		MeanFitness:  Mean(fitnesses),
		StdevFitness: Stdev(fitnesses),
		BestGenome:   champion.Key,
		Species:      numSpecies,
		Innovations:  e.tracker.Next(),
		Duration:     time.Since(start),
	}
	e.logger.Info("generation finished",
		"generation", stats.Generation,
		"best_fitness", stats.BestFitness,
		"mean_fitness", stats.MeanFitness,
		"species", stats.Species,
		"duration", stats.Duration)
	for _, r := range e.reporters {
		r.ReportGeneration(stats)
	}

	e.population = newPopulation
	e.generation++
	e.state = Evaluating
	return champion, nil
}

// Run processes up to generations generations. It stops early, returning the
// winner, once a generation's best fitness reaches fitness_threshold unless
// no_fitness_termination is set. Otherwise it returns the best genome found.
func (e *Evolver) Run(ctx context.Context, generations int) (*Genome, error) {
	for i := 0; i < generations; i++ {
		if err := ctx.Err(); err != nil {
			return e.Best(), err
		}
		champion, err := e.ProcessGeneration(ctx)
		if err != nil {
			return e.Best(), err
		}
		if !e.config.Neat.NoFitnessTermination && champion.Fitness >= e.config.Neat.FitnessThreshold {
			e.logger.Info("fitness threshold met",
				"generation", e.generation-1, "genome", champion.Key, "fitness", champion.Fitness)
			return champion, nil
		}
	}
	return e.Best(), nil
}

// evaluate scores the population, in parallel when eval_workers > 1. Results are
// returned by population index; genomes are not modified.
func (e *Evolver) evaluate(ctx context.Context) ([]float64, error) {
	fitnesses := make([]float64, len(e.population))
	score := func(ctx context.Context, i int) error {
		g := e.population[i]
		f, err := e.fitness(ctx, g)
		if err != nil {
			return fmt.Errorf("genome %d: %w", g.Key, err)
		}
		if math.IsNaN(f) {
			return fmt.Errorf("genome %d: fitness is NaN", g.Key)
		}
		fitnesses[i] = f
		return nil
	}

	workers := e.config.Neat.EvalWorkers
	if workers <= 1 {
		for i := range e.population {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if err := score(ctx, i); err != nil {
				return nil, err
			}
		}
		return fitnesses, nil
	}

	p := pool.New().
		WithContext(ctx).
		WithMaxGoroutines(workers).
		WithCancelOnError().
		WithFirstError()
	for i := range e.population {
		i := i
		p.Go(func(ctx context.Context) error {
			return score(ctx, i)
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return fitnesses, nil
}

// findBestGenome finds the genome with the highest fitness in the current population.
// Ties go to the genome that comes first.
func (e *Evolver) findBestGenome() *Genome {
	var best *Genome
	for _, g := range e.population {
		if best == nil || g.Fitness > best.Fitness {
			best = g
		}
	}
	return best
}

// State returns the current phase.
func (e *Evolver) State() State { return e.state }

// Generation returns the number of the generation that will be evaluated next.
func (e *Evolver) Generation() int { return e.generation }

// RunID returns the identifier attached to this run's logs and metrics.
func (e *Evolver) RunID() string { return e.runID }

// Tracker returns the innovation tracker.
func (e *Evolver) Tracker() *InnovationTracker { return e.tracker }

// Population returns the genomes awaiting evaluation.
func (e *Evolver) Population() []*Genome {
	pop := make([]*Genome, len(e.population))
	copy(pop, e.population)
	return pop
}

// Species returns the species formed in the last completed generation.
func (e *Evolver) Species() []*Species {
	species := make([]*Species, len(e.speciesSet.Species))
	copy(species, e.speciesSet.Species)
	return species
}

// Best returns a copy of the best genome found so far, or nil before the first
// generation has been evaluated.
func (e *Evolver) Best() *Genome {
	if e.best == nil {
		return nil
	}
	return e.best.Copy()
}
