package state

import (
	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/pthm-cable/meadow/components"
)

// Field is the W×H grid of cells, stored row-major. Cells are allocated once
// and mutated in place.
type Field struct {
	W, H  int
	Cells []components.Cell
}

// NewField allocates a field with the tree in the middle and rocks placed
// where simplex noise exceeds 1-rockDensity.
func NewField(w, h int, seed int64, rockDensity, rockScale float64) *Field {
	f := &Field{W: w, H: h, Cells: make([]components.Cell, w*h)}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := &f.Cells[f.Index(x, y)]
			c.X, c.Y = x, y
		}
	}

	tx, ty := f.TreeTop()
	f.At(tx, ty).Occupant.Kind = components.OccupantTreeTop
	f.At(tx, ty+1).Occupant.Kind = components.OccupantTreeBottom

	if rockDensity > 0 {
		if rockScale <= 0 {
			rockScale = 0.35
		}
		noise := opensimplex.NewNormalized(seed)
		threshold := 1 - rockDensity
		for i := range f.Cells {
			c := &f.Cells[i]
			if c.Occupant.Kind.IsTree() {
				continue
			}
			if noise.Eval2(float64(c.X)*rockScale, float64(c.Y)*rockScale) > threshold {
				c.Occupant.Kind = components.OccupantRock
			}
		}
	}
	return f
}

// TreeTop returns the position of the upper tree cell. The lower one is
// directly below it.
func (f *Field) TreeTop() (int, int) {
	return f.W / 2, f.H/2 - 1
}

// InBounds reports whether (x, y) lies on the field.
func (f *Field) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < f.W && y < f.H
}

// Index returns the slice index of (x, y).
func (f *Field) Index(x, y int) int {
	return y*f.W + x
}

// At returns the cell at (x, y), or nil when out of bounds.
func (f *Field) At(x, y int) *components.Cell {
	if !f.InBounds(x, y) {
		return nil
	}
	return &f.Cells[f.Index(x, y)]
}

var (
	orthogonal = [4][2]int{{0, -1}, {1, 0}, {0, 1}, {-1, 0}}
	diagonal   = [4][2]int{{1, -1}, {1, 1}, {-1, 1}, {-1, -1}}
)

// Neighbors4 appends the indices of the orthogonal neighbors of cell i to buf.
func (f *Field) Neighbors4(i int, buf []int) []int {
	return f.appendOffsets(i, orthogonal[:], buf)
}

// Neighbors8 appends the indices of the orthogonal and diagonal neighbors of
// cell i to buf.
func (f *Field) Neighbors8(i int, buf []int) []int {
	buf = f.appendOffsets(i, orthogonal[:], buf)
	return f.appendOffsets(i, diagonal[:], buf)
}

func (f *Field) appendOffsets(i int, offsets [][2]int, buf []int) []int {
	x, y := i%f.W, i/f.W
	for _, o := range offsets {
		nx, ny := x+o[0], y+o[1]
		if f.InBounds(nx, ny) {
			buf = append(buf, f.Index(nx, ny))
		}
	}
	return buf
}

// CountCrops returns how many cells hold a crop.
func (f *Field) CountCrops() int {
	n := 0
	for i := range f.Cells {
		if f.Cells[i].HasCrop() {
			n++
		}
	}
	return n
}
