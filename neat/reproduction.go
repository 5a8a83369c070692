package neat

import (
	"errors"
	"log/slog"
	"math"
	"math/rand"
	"sort"
)

// ErrNoSpecies is returned when reproduction finds no species to breed from.
var ErrNoSpecies = errors.New("no species left to reproduce")

// Reproduction handles the creation of new genomes, either from scratch or through crossover and mutation.
type Reproduction struct {
	Config        *ReproductionConfig
	GenomeConfig  *GenomeConfig
	NextGenomeKey int           // State for the next genome key
	Ancestors     map[int][]int // Map genome key -> parent keys (for tracking lineage)
	Stagnation    *Stagnation
	Logger        *slog.Logger
}

// NewReproduction creates a new reproduction manager.
func NewReproduction(config *ReproductionConfig, genomeConfig *GenomeConfig, stagnation *Stagnation, logger *slog.Logger) *Reproduction {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reproduction{
		Config:        config,
		GenomeConfig:  genomeConfig,
		NextGenomeKey: 1,
		Ancestors:     make(map[int][]int),
		Stagnation:    stagnation,
		Logger:        logger,
	}
}

// getNextKey gets the next available genome key and increments the internal counter.
func (r *Reproduction) getNextKey() int {
	key := r.NextGenomeKey
	r.NextGenomeKey++
	return key
}

// CreateNewPopulation creates the generation-0 genomes. All of them register
// their initial genes in the same tracker generation, so identical starting
// structures share innovation numbers.
func (r *Reproduction) CreateNewPopulation(tracker *InnovationTracker, popSize int, rng *rand.Rand) []*Genome {
	tracker.NewGeneration()
	genomes := make([]*Genome, 0, popSize)
	for i := 0; i < popSize; i++ {
		key := r.getNextKey()
		g := NewGenome(key, r.GenomeConfig.NumInputs, r.GenomeConfig.NumOutputs)
		g.ConfigureNew(r.GenomeConfig, tracker, rng)
		genomes = append(genomes, g)
		r.Ancestors[key] = []int{}
	}
	return genomes
}

// Reproduce creates the next generation from the current species.
//
// The tracker's per-generation memo is cleared exactly once, before any
// offspring is mutated. Stagnant species are removed from speciesSet, the rest
// receive offspring quotas proportional to their shared fitness; each keeps its
// best members (elitism) and fills the remaining slots with mutated crossover
// children of its fittest members. The returned population has exactly popSize
// genomes.
func (r *Reproduction) Reproduce(speciesSet *SpeciesSet, tracker *InnovationTracker, popSize int, rng *rand.Rand) ([]*Genome, error) {
	if len(speciesSet.Species) == 0 {
		return nil, ErrNoSpecies
	}
	tracker.NewGeneration()

	// --- Step 1: Filter stagnant species ---
	stagnant := make(map[int]bool)
	for _, info := range r.Stagnation.Update(speciesSet) {
		if info.IsStagnant {
			r.Logger.Info("species removed due to stagnation",
				"species", info.SpeciesID, "stagnation", info.Species.Stagnation)
			stagnant[info.SpeciesID] = true
		}
	}
	speciesSet.Remove(stagnant)
	remainingSpecies := speciesSet.Species
	if len(remainingSpecies) == 0 {
		return nil, ErrNoSpecies
	}

	// --- Step 2: Fitness sharing ---
	allFitnesses := []float64{}
	for _, sp := range remainingSpecies {
		allFitnesses = append(allFitnesses, sp.GetFitnesses()...)
	}
	minFitness := MinFloat(allFitnesses)
	maxFitness := MaxFloat(allFitnesses)
	fitnessRange := math.Max(1.0, maxFitness-minFitness)

	adjustedFitnesses := make([]float64, len(remainingSpecies))
	for i, sp := range remainingSpecies {
		sp.AdjustedFitness = (Mean(sp.GetFitnesses()) - minFitness) / fitnessRange
		adjustedFitnesses[i] = sp.AdjustedFitness
	}

	// --- Step 3: Calculate Spawn Amounts ---
	spawnAmounts := computeSpawnAmounts(adjustedFitnesses, popSize, r.Config.Elitism)

	// --- Step 4: Create New Population ---
	newPopulation := make([]*Genome, 0, popSize)
	newAncestors := make(map[int][]int, popSize)

	for i, sp := range remainingSpecies {
		spawn := spawnAmounts[i]
		if spawn <= 0 {
			continue
		}

		// Sort old members by fitness (descending) for elitism and parent selection.
		oldMembers := make([]*Genome, len(sp.Members))
		copy(oldMembers, sp.Members)
		sort.SliceStable(oldMembers, func(i, j int) bool {
			return oldMembers[i].Fitness > oldMembers[j].Fitness
		})

		// Transfer elites.
		elites := min(r.Config.Elitism, spawn, len(oldMembers))
		for _, elite := range oldMembers[:elites] {
			newPopulation = append(newPopulation, elite)
			newAncestors[elite.Key] = []int{elite.Key}
		}
		spawn -= elites

		survivalCutoff := int(math.Ceil(r.Config.SurvivalThreshold * float64(len(oldMembers))))
		survivalCutoff = max(1, min(survivalCutoff, len(oldMembers)))
		parents := oldMembers[:survivalCutoff]

		for j := 0; j < spawn; j++ {
			parent1 := selectParent(parents, rng)
			parent2 := selectParent(parents, rng)

			childKey := r.getNextKey()
			var child *Genome
			if rng.Float64() < r.Config.CrossoverRate {
				child = Crossover(childKey, parent1, parent2, r.Config, rng)
			} else {
				child = parent1.Copy()
				child.Key = childKey
			}
			child.Fitness = 0
			child.Mutate(r.GenomeConfig, tracker, rng)

			newPopulation = append(newPopulation, child)
			newAncestors[childKey] = []int{parent1.Key, parent2.Key}
		}
	}
	r.Ancestors = newAncestors

	return newPopulation, nil
}

// selectParent performs fitness-proportional selection among parents, shifted so
// the weakest candidate has zero weight. It falls back to a uniform pick when all
// candidates are equally fit.
func selectParent(parents []*Genome, rng *rand.Rand) *Genome {
	if len(parents) == 1 {
		return parents[0]
	}
	minFitness := math.Inf(1)
	for _, p := range parents {
		minFitness = math.Min(minFitness, p.Fitness)
	}
	total := 0.0
	for _, p := range parents {
		total += p.Fitness - minFitness
	}
	if total <= 0 || math.IsInf(total, 0) || math.IsNaN(total) {
		return parents[rng.Intn(len(parents))]
	}

	r := rng.Float64() * total
	for _, p := range parents {
		r -= p.Fitness - minFitness
		if r < 0 {
			return p
		}
	}
	return parents[len(parents)-1]
}

// computeSpawnAmounts splits popSize offspring slots between species.
//
// Every species first receives minSpeciesSize slots (its elites); the rest are
// shared in proportion to adjusted fitness using largest remainders, so the
// amounts always sum to popSize. When there are more species than can be given
// their minimum, the weakest species receive nothing.
func computeSpawnAmounts(adjustedFitnesses []float64, popSize int, minSpeciesSize int) []int {
	n := len(adjustedFitnesses)
	spawnAmounts := make([]int, n)
	if n == 0 || popSize <= 0 {
		return spawnAmounts
	}
	minSpeciesSize = max(1, minSpeciesSize)

	// Rank species best first; ties keep roster order.
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return adjustedFitnesses[order[a]] > adjustedFitnesses[order[b]]
	})

	funded := min(n, popSize/minSpeciesSize)
	if funded == 0 {
		spawnAmounts[order[0]] = popSize
		return spawnAmounts
	}
	for _, idx := range order[:funded] {
		spawnAmounts[idx] = minSpeciesSize
	}
	free := popSize - funded*minSpeciesSize
	if free == 0 {
		return spawnAmounts
	}

	adjustedSum := 0.0
	for _, idx := range order[:funded] {
		adjustedSum += math.Max(0, adjustedFitnesses[idx])
	}

	type share struct {
		idx       int
		remainder float64
	}
	shares := make([]share, 0, funded)
	assigned := 0
	for _, idx := range order[:funded] {
		var exact float64
		if adjustedSum > 0 {
			exact = math.Max(0, adjustedFitnesses[idx]) / adjustedSum * float64(free)
		} else {
			exact = float64(free) / float64(funded)
		}
		whole := int(math.Floor(exact))
		spawnAmounts[idx] += whole
		assigned += whole
		shares = append(shares, share{idx: idx, remainder: exact - float64(whole)})
	}

	sort.SliceStable(shares, func(a, b int) bool {
		return shares[a].remainder > shares[b].remainder
	})
	for k := 0; assigned < free; k++ {
		spawnAmounts[shares[k%len(shares)].idx]++
		assigned++
	}
	return spawnAmounts
}
