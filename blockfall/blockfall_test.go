package blockfall

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hamjet/neatris/neat"
	"github.com/hamjet/neatris/neat/nn"
	"github.com/hamjet/neatris/neat/sim"
)

// place puts the falling piece somewhere specific.
func place(g *Game, piece, x, y int) {
	g.shape, g.x, g.y = piece, x, y
}

func TestShapesRotateInCycles(t *testing.T) {
	for i, s := range shapes {
		seen := map[int]bool{i: true}
		next := s.next
		for next != i {
			require.False(t, seen[next], "rotation from %d loops without returning", i)
			seen[next] = true
			next = shapes[next].next
		}
	}
	assert.Equal(t, 1, shapes[0].next)
	assert.Equal(t, 0, shapes[1].next)
}

func TestNewIsDeterministic(t *testing.T) {
	a, b := New(42), New(42)
	for i := 0; i < 200 && !a.Over(); i++ {
		assert.Equal(t, a.Tick(), b.Tick())
	}
	assert.Equal(t, a.String(), b.String())
	assert.Equal(t, a.Points(), b.Points())
}

func TestSpawnPosition(t *testing.T) {
	g := New(1)
	_, x, y := g.Piece()
	assert.Equal(t, 3, x)
	assert.Equal(t, 1, y)
	assert.False(t, g.Over())
}

func TestMovesRespectWalls(t *testing.T) {
	g := New(1)
	place(g, 0, 1, 5)
	assert.False(t, g.MoveLeft(), "horizontal piece already touches the left wall")
	assert.True(t, g.MoveRight())
	_, x, _ := g.Piece()
	assert.Equal(t, 2, x)

	place(g, 1, 0, 5)
	assert.False(t, g.Rotate(), "lying down would leave the grid")
	shape, _, _ := g.Piece()
	assert.Equal(t, 1, shape)

	place(g, 1, 3, 5)
	assert.True(t, g.Rotate())
	shape, _, _ = g.Piece()
	assert.Equal(t, 0, shape)
}

func TestMovesRespectLockedCells(t *testing.T) {
	g := New(1)
	place(g, 1, 3, 5)
	g.fixed[5][2] = true
	assert.False(t, g.MoveLeft())
	assert.True(t, g.MoveRight())
}

func TestTickDropsAndLocks(t *testing.T) {
	g := New(1)
	place(g, 0, 3, 12)

	require.True(t, g.Tick())
	_, _, y := g.Piece()
	assert.Equal(t, 13, y)

	require.True(t, g.Tick(), "a new piece spawns")
	assert.Equal(t, 1, g.PiecesLocked())
	for x := 2; x <= 4; x++ {
		assert.True(t, g.Filled(x, 13))
	}
	assert.Equal(t, 1, g.ColumnHeight(3))
	assert.Equal(t, 0, g.ColumnHeight(0))
	// The stack grew by one row.
	assert.Equal(t, 1, g.Points())
}

func TestLockWithoutGrowthScoresThree(t *testing.T) {
	g := New(1)
	g.fixed[13][0] = true
	g.lastLowestRow = 13
	place(g, 0, 3, 13)

	require.True(t, g.Tick())
	assert.Equal(t, 3, g.Points())
}

func TestClearFullRow(t *testing.T) {
	g := New(1)
	for x := 0; x < Width; x++ {
		if x < 2 || x > 4 {
			g.fixed[13][x] = true
		}
	}
	g.fixed[12][0] = true
	g.lastLowestRow = 12
	place(g, 0, 3, 13)

	require.True(t, g.Tick())
	assert.Equal(t, 1, g.RowsCleared())
	// The row above drops into place; the stack shrank so no placement bonus.
	assert.True(t, g.Filled(0, 13))
	for x := 1; x < Width; x++ {
		assert.False(t, g.Filled(x, 13))
	}
	assert.False(t, g.Filled(0, 12))
	assert.Equal(t, 10, g.Points())
}

func TestGameOver(t *testing.T) {
	g := New(1)
	for x := 0; x < Width; x++ {
		for y := 0; y <= 2; y++ {
			g.fixed[y][x] = true
		}
	}
	assert.False(t, g.spawn())
	assert.True(t, g.Over())
	assert.False(t, g.Tick())
	assert.False(t, g.MoveLeft())
	assert.NotContains(t, g.String(), "@")
}

func TestGameEventuallyEnds(t *testing.T) {
	g := New(3)
	ticks := 0
	for g.Tick() {
		ticks++
		require.Less(t, ticks, 10000)
	}
	assert.True(t, g.Over())
	assert.Positive(t, g.PiecesLocked())
}

func TestString(t *testing.T) {
	g := New(1)
	place(g, 0, 3, 1)
	g.fixed[13][6] = true

	lines := strings.Split(strings.TrimSuffix(g.String(), "\n"), "\n")
	require.Len(t, lines, Height+1)
	assert.Equal(t, "|..@@@..|", lines[1])
	assert.Equal(t, "|......#|", lines[13])
	assert.Equal(t, "+-------+", lines[Height])
}

func TestSimulatorContract(t *testing.T) {
	g := New(1)
	place(g, 0, 3, 5)
	g.fixed[13][0] = true

	assert.Equal(t, NumInputs, g.InputCount())
	assert.Equal(t, NumOutputs, g.OutputCount())

	// Bias input wired to "move left" only.
	genome := neat.NewGenome(1, NumInputs, NumOutputs)
	genome.Genes = []neat.Gene{neat.NewGene(0, NumInputs-1, NumInputs+outLeft, 1)}
	net := nn.New(genome, neat.Tanh)

	g.FillInputs(net)
	assert.InDelta(t, 1.0/Height, net.Value(0), 1e-12)
	assert.Zero(t, net.Value(1))
	assert.InDelta(t, 0.5, net.Value(Width), 1e-12)
	assert.Equal(t, 1.0, net.Value(NumInputs-1))

	net.Step()
	g.ApplyOutputs(net)
	_, x, _ := g.Piece()
	assert.Equal(t, 2, x)
}

func TestEvaluatorPlaysBlockfall(t *testing.T) {
	ev := &sim.Evaluator{Factory: NewSimulator, Seeds: []int64{0, 1}}
	genome := neat.NewGenome(1, NumInputs, NumOutputs)

	first, err := ev.Fitness(context.Background(), genome)
	require.NoError(t, err)
	second, err := ev.Fitness(context.Background(), genome)
	require.NoError(t, err)

	assert.Positive(t, first)
	assert.Equal(t, first, second)
}
