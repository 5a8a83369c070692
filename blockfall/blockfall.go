// Package blockfall implements a small falling-block puzzle that evolved
// networks learn to play.
//
// Pieces of three cells spawn at the top of a 7x14 well and fall one row per
// tick. A piece that cannot fall any further locks in place, full rows are
// cleared and a new piece spawns; the game is over when it does not fit.
package blockfall

import (
	"math/rand"
	"strings"
)

const (
	Width  = 7
	Height = 14

	spawnX = 3
	spawnY = 1
)

// shape is a piece orientation given as cell offsets from the pivot, plus the
// orientation it turns into when rotated.
type shape struct {
	cells [3][2]int
	next  int
}

var shapes = [...]shape{
	// Straight pieces.
	{cells: [3][2]int{{-1, 0}, {0, 0}, {1, 0}}, next: 1},
	{cells: [3][2]int{{0, -1}, {0, 0}, {0, 1}}, next: 0},

	// Corner pieces.
	{cells: [3][2]int{{0, -1}, {0, 0}, {1, 0}}, next: 3},
	{cells: [3][2]int{{1, 0}, {0, 0}, {0, 1}}, next: 4},
	{cells: [3][2]int{{0, 1}, {0, 0}, {-1, 0}}, next: 5},
	{cells: [3][2]int{{-1, 0}, {0, 0}, {0, -1}}, next: 2},
}

// Game is one round of the puzzle. The zero value is not usable; call New.
type Game struct {
	fixed [Height][Width]bool
	rng   *rand.Rand

	shape  int
	x, y   int
	over   bool
	points int

	lastLowestRow int // Topmost occupied row after the previous lock; Height when empty.
	rowsCleared   int
	piecesLocked  int
}

// New starts a game whose piece sequence is determined by seed.
func New(seed int64) *Game {
	g := &Game{
		rng:           rand.New(rand.NewSource(seed)),
		lastLowestRow: Height,
	}
	g.spawn()
	return g
}

func (g *Game) spawn() bool {
	piece := g.rng.Intn(len(shapes))
	if !g.fits(piece, spawnX, spawnY) {
		g.over = true
		return false
	}
	g.shape, g.x, g.y = piece, spawnX, spawnY
	return true
}

func (g *Game) fits(piece, x, y int) bool {
	for _, c := range shapes[piece].cells {
		nx, ny := x+c[0], y+c[1]
		if nx < 0 || ny < 0 || nx >= Width || ny >= Height || g.fixed[ny][nx] {
			return false
		}
	}
	return true
}

func (g *Game) tryMove(piece, x, y int) bool {
	if g.over || !g.fits(piece, x, y) {
		return false
	}
	g.shape, g.x, g.y = piece, x, y
	return true
}

// MoveLeft shifts the falling piece one column left if there is room.
func (g *Game) MoveLeft() bool { return g.tryMove(g.shape, g.x-1, g.y) }

// MoveRight shifts the falling piece one column right if there is room.
func (g *Game) MoveRight() bool { return g.tryMove(g.shape, g.x+1, g.y) }

// Rotate turns the falling piece in place if there is room.
func (g *Game) Rotate() bool { return g.tryMove(shapes[g.shape].next, g.x, g.y) }

// Tick lets the falling piece drop one row. When it cannot, the piece locks,
// full rows are cleared, points are awarded and the next piece spawns.
// It reports whether the game is still running.
func (g *Game) Tick() bool {
	if g.over {
		return false
	}
	if g.tryMove(g.shape, g.x, g.y+1) {
		return true
	}

	for _, c := range shapes[g.shape].cells {
		g.fixed[g.y+c[1]][g.x+c[0]] = true
	}
	g.piecesLocked++

	cleared, lowestRow := g.clearFullRows()
	rowsAdded := g.lastLowestRow - lowestRow
	g.lastLowestRow = lowestRow
	g.rowsCleared += cleared

	g.points += cleared * 10
	switch rowsAdded {
	case 0:
		g.points += 3
	case 1:
		g.points++
	}

	return g.spawn()
}

// clearFullRows removes full rows, dropping the rows above them, and returns the
// number removed along with the topmost occupied row afterwards.
func (g *Game) clearFullRows() (cleared, lowestRow int) {
	lowestRow = Height
	for y := Height - 1; y >= 0; y-- {
		full, hasAny := true, false
		for x := 0; x < Width; x++ {
			full = full && g.fixed[y][x]
			hasAny = hasAny || g.fixed[y][x]
		}

		if full {
			cleared++
			g.fixed[y] = [Width]bool{}
		} else if cleared > 0 {
			g.fixed[y+cleared] = g.fixed[y]
			g.fixed[y] = [Width]bool{}
		}

		if hasAny {
			lowestRow = y + cleared
		}
	}
	return cleared, lowestRow
}

// Over reports whether the game has ended.
func (g *Game) Over() bool { return g.over }

// Points returns the integer score.
func (g *Game) Points() int { return g.points }

// RowsCleared returns the number of rows cleared so far.
func (g *Game) RowsCleared() int { return g.rowsCleared }

// PiecesLocked returns the number of pieces that came to rest.
func (g *Game) PiecesLocked() int { return g.piecesLocked }

// Piece returns the falling piece's orientation and pivot position.
func (g *Game) Piece() (shape, x, y int) { return g.shape, g.x, g.y }

// ColumnHeight returns how many rows of column x lie at or below its topmost
// locked cell.
func (g *Game) ColumnHeight(x int) int {
	for y := 0; y < Height; y++ {
		if g.fixed[y][x] {
			return Height - y
		}
	}
	return 0
}

// Filled reports whether the cell at (x, y) holds a locked block.
func (g *Game) Filled(x, y int) bool { return g.fixed[y][x] }

// String draws the well: '#' for locked cells, '@' for the falling piece.
func (g *Game) String() string {
	var moving [Height][Width]bool
	if !g.over {
		for _, c := range shapes[g.shape].cells {
			moving[g.y+c[1]][g.x+c[0]] = true
		}
	}

	var sb strings.Builder
	for y := 0; y < Height; y++ {
		sb.WriteByte('|')
		for x := 0; x < Width; x++ {
			switch {
			case g.fixed[y][x]:
				sb.WriteByte('#')
			case moving[y][x]:
				sb.WriteByte('@')
			default:
				sb.WriteByte('.')
			}
		}
		sb.WriteString("|\n")
	}
	sb.WriteByte('+')
	sb.WriteString(strings.Repeat("-", Width))
	sb.WriteString("+\n")
	return sb.String()
}
