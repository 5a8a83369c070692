package neat

import (
	"log/slog"
	"math"
	"math/rand"
)

// Species represents a group of genetically similar genomes.
type Species struct {
	Key             int       // Unique identifier for the species.
	Created         int       // Generation number when the species was created.
	Representative  *Genome   // Snapshot copy; never a member of the live population.
	Members         []*Genome // Genomes belonging to this species, in population order.
	BestFitness     float64   // Best member fitness ever observed.
	Stagnation      int       // Generations since BestFitness last improved.
	Fitness         float64   // Species fitness computed by the stagnation pass.
	AdjustedFitness float64   // Fitness adjusted by sharing.
}

// NewSpecies creates a new species represented by a snapshot of representative.
func NewSpecies(key, generation int, representative *Genome) *Species {
	return &Species{
		Key:            key,
		Created:        generation,
		Representative: representative.Copy(),
		Members:        []*Genome{},
		BestFitness:    math.Inf(-1),
	}
}

// GetFitnesses returns a slice containing the fitness values of all members.
func (s *Species) GetFitnesses() []float64 {
	fitnesses := make([]float64, 0, len(s.Members))
	for _, g := range s.Members {
		fitnesses = append(fitnesses, g.Fitness)
	}
	return fitnesses
}

// Best returns the fittest member, or nil for an empty species.
func (s *Species) Best() *Genome {
	var best *Genome
	for _, g := range s.Members {
		if best == nil || g.Fitness > best.Fitness {
			best = g
		}
	}
	return best
}

// Size returns the number of members.
func (s *Species) Size() int {
	return len(s.Members)
}

// updateImprovement records this generation's best fitness and advances the
// stagnation counter when it did not improve.
func (s *Species) updateImprovement() {
	best := MaxFloat(s.GetFitnesses())
	if best > s.BestFitness {
		s.BestFitness = best
		s.Stagnation = 0
		return
	}
	s.Stagnation++
}

// --------------------------- GenomeDistanceCache ---------------------------

type genomePair struct {
	A, B int
}

// GenomeDistanceCache stores calculated distances between genomes to avoid
// redundant computations during one speciation pass.
type GenomeDistanceCache struct {
	Distances map[genomePair]float64
	Hits      int
	Misses    int
	Config    *GenomeConfig
}

// NewGenomeDistanceCache creates a new distance cache.
func NewGenomeDistanceCache(config *GenomeConfig) *GenomeDistanceCache {
	return &GenomeDistanceCache{
		Distances: make(map[genomePair]float64),
		Config:    config,
	}
}

// Distance calculates or retrieves the distance between two genomes.
func (dc *GenomeDistanceCache) Distance(genome1, genome2 *Genome) float64 {
	key := genomePair{A: genome1.Key, B: genome2.Key}
	if key.A > key.B {
		key.A, key.B = key.B, key.A
	}

	if d, ok := dc.Distances[key]; ok {
		dc.Hits++
		return d
	}

	dc.Misses++
	d := genome1.Distance(genome2, dc.Config)
	dc.Distances[key] = d
	return d
}

// --------------------------- SpeciesSet ---------------------------

// SpeciesSet manages the collection of species within a population.
type SpeciesSet struct {
	Species         []*Species  // Species in creation order.
	GenomeToSpecies map[int]int // Map genome key -> species key
	Indexer         int         // Next species key.
	Config          *SpeciesSetConfig
	GenomeConfig    *GenomeConfig
	Logger          *slog.Logger
}

// NewSpeciesSet creates a new species set manager.
func NewSpeciesSet(config *SpeciesSetConfig, genomeConfig *GenomeConfig, logger *slog.Logger) *SpeciesSet {
	if logger == nil {
		logger = slog.Default()
	}
	return &SpeciesSet{
		Species:         []*Species{},
		GenomeToSpecies: make(map[int]int),
		Indexer:         1,
		Config:          config,
		GenomeConfig:    genomeConfig,
		Logger:          logger,
	}
}

// Speciate partitions the population into species.
//
// It runs in two phases. First every surviving species refreshes its
// representative to a snapshot of a random member of the previous generation,
// then memberships are cleared and each genome joins the first species whose
// representative lies within compatibility_threshold, founding a new species
// otherwise. Species left without members are dropped and the improvement
// bookkeeping of the rest is updated.
func (ss *SpeciesSet) Speciate(population []*Genome, generation int, rng *rand.Rand) {
	// --- Phase 1: snapshot representatives from the previous membership ---
	for _, s := range ss.Species {
		if len(s.Members) > 0 {
			s.Representative = s.Members[rng.Intn(len(s.Members))].Copy()
		}
		s.Members = []*Genome{}
	}

	// --- Phase 2: assign genomes ---
	threshold := ss.Config.CompatibilityThreshold
	distanceCache := NewGenomeDistanceCache(ss.GenomeConfig)
	genomeToSpecies := make(map[int]int, len(population))

	for _, g := range population {
		var home *Species
		for _, s := range ss.Species {
			if distanceCache.Distance(s.Representative, g) < threshold {
				home = s
				break
			}
		}
		if home == nil {
			home = NewSpecies(ss.Indexer, generation, g)
			ss.Indexer++
			ss.Species = append(ss.Species, home)
			ss.Logger.Debug("created new species", "species", home.Key, "genome", g.Key)
		}
		home.Members = append(home.Members, g)
		genomeToSpecies[g.Key] = home.Key
	}

	// --- Phase 3: drop empty species, update improvement bookkeeping ---
	alive := ss.Species[:0]
	for _, s := range ss.Species {
		if len(s.Members) == 0 {
			ss.Logger.Debug("species died out", "species", s.Key)
			continue
		}
		s.updateImprovement()
		alive = append(alive, s)
	}
	clear(ss.Species[len(alive):])
	ss.Species = alive
	ss.GenomeToSpecies = genomeToSpecies

	if len(distanceCache.Distances) > 0 {
		allDistances := make([]float64, 0, len(distanceCache.Distances))
		for _, d := range distanceCache.Distances {
			allDistances = append(allDistances, d)
		}
		ss.Logger.Debug("genetic distance",
			"mean", Mean(allDistances),
			"stdev", Stdev(allDistances),
			"cache_hits", distanceCache.Hits,
			"cache_misses", distanceCache.Misses)
	}
}

// Remove drops the given species from the roster.
func (ss *SpeciesSet) Remove(dead map[int]bool) {
	alive := ss.Species[:0]
	for _, s := range ss.Species {
		if dead[s.Key] {
			for _, g := range s.Members {
				delete(ss.GenomeToSpecies, g.Key)
			}
			continue
		}
		alive = append(alive, s)
	}
	clear(ss.Species[len(alive):])
	ss.Species = alive
}

// GetSpecies returns the Species object for a given genome key.
func (ss *SpeciesSet) GetSpecies(genomeKey int) (*Species, bool) {
	sid, ok := ss.GenomeToSpecies[genomeKey]
	if !ok {
		return nil, false
	}
	for _, s := range ss.Species {
		if s.Key == sid {
			return s, true
		}
	}
	return nil, false
}
