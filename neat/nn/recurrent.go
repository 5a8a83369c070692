package nn

import (
	"fmt"

	"github.com/hamjet/neatris/neat"
)

// edge is one enabled connection feeding a node.
type edge struct {
	Source int
	Weight float64
}

// Network is the runnable phenotype of a genome: an arena of node slots indexed
// like the genome's nodes, each with the list of its incoming enabled edges.
// Cycles and self loops are allowed; every Step updates all nodes at once from
// the values of the previous step.
//
// A Network is owned by a single goroutine.
type Network struct {
	inputs     int
	outputs    int
	activation neat.ActivationType
	values     []float64
	snapshot   []float64
	incoming   [][]edge
}

// New builds a network from the genome. Disabled genes are skipped and the
// genome is not modified. All node values start at zero.
func New(g *neat.Genome, activation neat.ActivationType) *Network {
	if activation == nil {
		activation = neat.Tanh
	}
	net := &Network{
		inputs:     g.Inputs,
		outputs:    g.Outputs,
		activation: activation,
		values:     make([]float64, g.NumNodes),
		snapshot:   make([]float64, g.NumNodes),
		incoming:   make([][]edge, g.NumNodes),
	}
	for _, gene := range g.Genes {
		if !gene.Enabled {
			continue
		}
		net.incoming[gene.To] = append(net.incoming[gene.To], edge{Source: gene.From, Weight: gene.Weight})
	}
	return net
}

// NumInputs returns the number of input slots.
func (net *Network) NumInputs() int { return net.inputs }

// NumOutputs returns the number of output slots.
func (net *Network) NumOutputs() int { return net.outputs }

// SetInput writes the value of input i.
func (net *Network) SetInput(i int, v float64) {
	net.values[i] = v
}

// SetInputs writes all input values.
func (net *Network) SetInputs(inputs []float64) error {
	if len(inputs) != net.inputs {
		return fmt.Errorf("mismatch between input count (%d) and network input nodes (%d)", len(inputs), net.inputs)
	}
	copy(net.values[:net.inputs], inputs)
	return nil
}

// Step performs one synchronous update. Input slots are left alone and nodes
// without incoming edges keep their value.
func (net *Network) Step() {
	copy(net.snapshot, net.values)
	for i := net.inputs; i < len(net.values); i++ {
		edges := net.incoming[i]
		if len(edges) == 0 {
			continue
		}
		sum := 0.0
		for _, e := range edges {
			sum += e.Weight * net.snapshot[e.Source]
		}
		net.values[i] = net.activation(sum)
	}
}

// Activate sets the inputs, runs steps updates and returns the outputs.
func (net *Network) Activate(inputs []float64, steps int) ([]float64, error) {
	if err := net.SetInputs(inputs); err != nil {
		return nil, err
	}
	for s := 0; s < steps; s++ {
		net.Step()
	}
	return net.Outputs(), nil
}

// Output returns the value of output i.
func (net *Network) Output(i int) float64 {
	return net.values[net.inputs+i]
}

// Outputs returns a copy of all output values.
func (net *Network) Outputs() []float64 {
	out := make([]float64, net.outputs)
	copy(out, net.values[net.inputs:net.inputs+net.outputs])
	return out
}

// Activated reports whether output i is on, i.e. its value is above zero.
func (net *Network) Activated(i int) bool {
	return net.Output(i) > 0
}

// Value returns the value of any node.
func (net *Network) Value(node int) float64 {
	return net.values[node]
}

// Reset zeroes every node value, clearing recurrent state.
func (net *Network) Reset() {
	clear(net.values)
}
