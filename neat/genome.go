package neat

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
)

// Genome represents an individual organism in the population: an ordered list of
// connection genes plus node-count bookkeeping.
//
// Node indices 0..Inputs-1 are inputs, Inputs..Inputs+Outputs-1 are outputs and
// the remaining indices up to NumNodes-1 are hidden nodes. Genes are kept sorted
// by innovation number and every gene references nodes below NumNodes.
type Genome struct {
	Key      int     // Unique identifier for this genome.
	Fitness  float64 // Fitness score of the genome.
	Inputs   int
	Outputs  int
	NumNodes int // Inputs + Outputs + hidden; only ever grows.
	Genes    []Gene
}

// NewGenome creates an empty genome with only input and output nodes.
func NewGenome(key, inputs, outputs int) *Genome {
	return &Genome{
		Key:      key,
		Inputs:   inputs,
		Outputs:  outputs,
		NumNodes: inputs + outputs,
		Genes:    []Gene{},
	}
}

// ConfigureNew initializes the generation-0 connections based on the
// initial_connection setting.
func (g *Genome) ConfigureNew(config *GenomeConfig, tracker *InnovationTracker, rng *rand.Rand) {
	switch config.InitialConnection {
	case "unconnected":
		// No connections are made.
	case "single":
		// The representative input drives the representative output.
		g.connect(0, g.Inputs, config, tracker, rng)
	case "full":
		for in := 0; in < g.Inputs; in++ {
			for out := g.Inputs; out < g.Inputs+g.Outputs; out++ {
				g.connect(in, out, config, tracker, rng)
			}
		}
	default:
		// Caught by config validation.
		panic(fmt.Sprintf("Invalid initial_connection type in genome configuration: %s", config.InitialConnection))
	}
}

func (g *Genome) connect(from, to int, config *GenomeConfig, tracker *InnovationTracker, rng *rand.Rand) {
	g.addGene(NewGene(tracker.Innovation(from, to), from, to, initWeight(config, rng)))
}

// addGene inserts gene keeping the innovation order.
func (g *Genome) addGene(gene Gene) {
	g.Genes = append(g.Genes, gene)
	n := len(g.Genes)
	if n > 1 && g.Genes[n-2].Innovation > gene.Innovation {
		sort.Slice(g.Genes, func(i, j int) bool {
			return g.Genes[i].Innovation < g.Genes[j].Innovation
		})
	}
}

// hasInnovation reports whether a gene with the given innovation number exists.
func (g *Genome) hasInnovation(innovation int) bool {
	i := sort.Search(len(g.Genes), func(i int) bool { return g.Genes[i].Innovation >= innovation })
	return i < len(g.Genes) && g.Genes[i].Innovation == innovation
}

// Copy creates a deep copy of the genome.
func (g *Genome) Copy() *Genome {
	genes := make([]Gene, len(g.Genes))
	copy(genes, g.Genes)
	return &Genome{
		Key:      g.Key,
		Fitness:  g.Fitness,
		Inputs:   g.Inputs,
		Outputs:  g.Outputs,
		NumNodes: g.NumNodes,
		Genes:    genes,
	}
}

// MaxInnovation returns the highest innovation number in the genome, or -1.
func (g *Genome) MaxInnovation() int {
	if len(g.Genes) == 0 {
		return -1
	}
	return g.Genes[len(g.Genes)-1].Innovation
}

// IsInput reports whether node i is an input node.
func (g *Genome) IsInput(i int) bool { return i >= 0 && i < g.Inputs }

// IsOutput reports whether node i is an output node.
func (g *Genome) IsOutput(i int) bool { return i >= g.Inputs && i < g.Inputs+g.Outputs }

// IsHidden reports whether node i is a hidden node.
func (g *Genome) IsHidden(i int) bool { return i >= g.Inputs+g.Outputs && i < g.NumNodes }

// EnabledGenes counts the genes that contribute to the phenotype.
func (g *Genome) EnabledGenes() int {
	n := 0
	for _, gene := range g.Genes {
		if gene.Enabled {
			n++
		}
	}
	return n
}

// Validate checks the structural invariants of the genome.
func (g *Genome) Validate() error {
	if g.NumNodes < g.Inputs+g.Outputs {
		return fmt.Errorf("genome %d: %d nodes cannot hold %d inputs and %d outputs", g.Key, g.NumNodes, g.Inputs, g.Outputs)
	}
	for i, gene := range g.Genes {
		if gene.From < 0 || gene.From >= g.NumNodes || gene.To < 0 || gene.To >= g.NumNodes {
			return fmt.Errorf("genome %d: %v references a node outside [0,%d)", g.Key, gene, g.NumNodes)
		}
		if g.IsInput(gene.To) {
			return fmt.Errorf("genome %d: %v targets an input node", g.Key, gene)
		}
		if i > 0 && g.Genes[i-1].Innovation >= gene.Innovation {
			return fmt.Errorf("genome %d: innovation %d out of order or duplicated", g.Key, gene.Innovation)
		}
	}
	return nil
}

// Distance calculates the compatibility distance between this genome and another:
//
//	(c1*E + c2*D)/N + c3*W
//
// where E counts excess genes, D disjoint genes, N is the larger gene count (1
// below compatibility_normalize_size) and W is the mean weight difference of
// matching genes. Genes are walked in innovation order so the result does not
// depend on argument order.
func (g *Genome) Distance(other *Genome, config *GenomeConfig) float64 {
	a, b := g.Genes, other.Genes
	excess, disjoint, matching := 0, 0, 0
	weightDiffSum := 0.0

	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i].Innovation == b[j].Innovation:
			d := a[i].Weight - b[j].Weight
			if d < 0 {
				d = -d
			}
			weightDiffSum += d
			matching++
			i++
			j++
		case a[i].Innovation < b[j].Innovation:
			disjoint++
			i++
		default:
			disjoint++
			j++
		}
	}
	// Whatever is left lies beyond the other genome's newest innovation.
	excess += len(a) - i + len(b) - j

	n := max(len(a), len(b))
	if n < config.CompatibilityNormalizeSize || n == 0 {
		n = 1
	}

	compatibility := (config.CompatibilityExcessCoefficient*float64(excess) +
		config.CompatibilityDisjointCoefficient*float64(disjoint)) / float64(n)
	if matching > 0 {
		compatibility += config.CompatibilityWeightCoefficient * (weightDiffSum / float64(matching))
	}
	return compatibility
}

// String returns a string representation of the Genome.
func (g *Genome) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Genome(Key: %d, Fitness: %.3f, Nodes: %d, Genes: %d)", g.Key, g.Fitness, g.NumNodes, len(g.Genes))
	for _, gene := range g.Genes {
		sb.WriteString("\n  ")
		sb.WriteString(gene.String())
	}
	return sb.String()
}
