package blockfall

import (
	"github.com/hamjet/neatris/neat/nn"
	"github.com/hamjet/neatris/neat/sim"
)

// Controller contract: one input per column height, the piece pivot, its
// orientation and a constant bias; one output per move.
const (
	NumInputs  = Width + 4
	NumOutputs = 3

	outLeft   = 0
	outRight  = 1
	outRotate = 2
)

var _ sim.Simulator = (*Game)(nil)

// NewSimulator is a sim.Factory producing blockfall games.
func NewSimulator(seed int64) sim.Simulator {
	return New(seed)
}

// InputCount implements sim.Simulator.
func (g *Game) InputCount() int { return NumInputs }

// OutputCount implements sim.Simulator.
func (g *Game) OutputCount() int { return NumOutputs }

// FillInputs writes the normalised column heights, piece position, piece
// orientation and a bias of 1.
func (g *Game) FillInputs(net *nn.Network) {
	for x := 0; x < Width; x++ {
		net.SetInput(x, float64(g.ColumnHeight(x))/Height)
	}
	net.SetInput(Width, float64(g.x)/(Width-1))
	net.SetInput(Width+1, float64(g.y)/(Height-1))
	net.SetInput(Width+2, float64(g.shape)/float64(len(shapes)-1))
	net.SetInput(Width+3, 1)
}

// ApplyOutputs performs every move whose output is activated.
func (g *Game) ApplyOutputs(net *nn.Network) {
	if net.Activated(outLeft) {
		g.MoveLeft()
	}
	if net.Activated(outRight) {
		g.MoveRight()
	}
	if net.Activated(outRotate) {
		g.Rotate()
	}
}

// Score implements sim.Simulator.
func (g *Game) Score() float64 { return float64(g.points) }
