// Package maze generates perfect mazes as a grid of cells with neighbour
// links. A link between two cells means there is no wall between them.
package maze

import (
	"math/rand"
	"time"

	"github.com/zyedidia/generic/mapset"
)

type Point struct {
	X, Y int
}

// Cell is one grid square and the set of neighbours it opens onto.
type Cell struct {
	Pos   Point
	Links mapset.Set[Point]
}

// Linked reports whether the cell opens onto p.
func (c Cell) Linked(p Point) bool {
	return c.Links.Has(p)
}

// Grid is what the world builder consumes.
type Grid interface {
	Width() int
	Height() int
	Cell(x, y int) Cell
}

type Config struct {
	Width, Height int
	// Braiding: 0.0 keeps a perfect maze, 1.0 links every dead end once more.
	Braiding float64
	Seed     int64 // Optional (0 = Random)
}

// Maze is a rectangular Grid.
type Maze struct {
	width, height int
	cells         [][]Cell
}

func (m *Maze) Width() int  { return m.width }
func (m *Maze) Height() int { return m.height }

func (m *Maze) Cell(x, y int) Cell {
	return m.cells[y][x]
}

// New creates a grid with no links at all.
func New(width, height int) *Maze {
	m := &Maze{width: width, height: height}
	m.cells = make([][]Cell, height)
	for y := range m.cells {
		m.cells[y] = make([]Cell, width)
		for x := range m.cells[y] {
			m.cells[y][x] = Cell{Pos: Point{x, y}, Links: mapset.New[Point]()}
		}
	}
	return m
}

// Link opens the wall between two adjacent cells in both directions.
func (m *Maze) Link(a, b Point) {
	m.cells[a.Y][a.X].Links.Put(b)
	m.cells[b.Y][b.X].Links.Put(a)
}

func (m *Maze) inBounds(p Point) bool {
	return p.X >= 0 && p.X < m.width && p.Y >= 0 && p.Y < m.height
}

var directions = [4]Point{{0, -1}, {1, 0}, {0, 1}, {-1, 0}}

// Generate carves a maze with a randomized depth-first backtracker, which
// yields a uniform-looking spanning tree, then optionally braids dead ends.
func Generate(cfg Config) *Maze {
	if cfg.Width < 1 {
		cfg.Width = 1
	}
	if cfg.Height < 1 {
		cfg.Height = 1
	}
	m := New(cfg.Width, cfg.Height)

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	visited := make([][]bool, cfg.Height)
	for y := range visited {
		visited[y] = make([]bool, cfg.Width)
	}

	stack := []Point{{0, 0}}
	visited[0][0] = true
	for len(stack) > 0 {
		cur := stack[len(stack)-1]

		var options []Point
		for _, d := range directions {
			n := Point{cur.X + d.X, cur.Y + d.Y}
			if m.inBounds(n) && !visited[n.Y][n.X] {
				options = append(options, n)
			}
		}
		if len(options) == 0 {
			stack = stack[:len(stack)-1]
			continue
		}

		next := options[rng.Intn(len(options))]
		m.Link(cur, next)
		visited[next.Y][next.X] = true
		stack = append(stack, next)
	}

	if cfg.Braiding > 0 {
		braid(m, cfg.Braiding, rng)
	}
	return m
}

// braid links dead ends to a random unlinked neighbour with the given
// probability, adding cycles.
func braid(m *Maze, chance float64, rng *rand.Rand) {
	for y := 0; y < m.height; y++ {
		for x := 0; x < m.width; x++ {
			c := m.cells[y][x]
			if c.Links.Size() != 1 || rng.Float64() >= chance {
				continue
			}
			var options []Point
			for _, d := range directions {
				n := Point{x + d.X, y + d.Y}
				if m.inBounds(n) && !c.Linked(n) {
					options = append(options, n)
				}
			}
			if len(options) > 0 {
				m.Link(c.Pos, options[rng.Intn(len(options))])
			}
		}
	}
}
