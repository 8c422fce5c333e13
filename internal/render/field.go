package render

// Cell accumulates every sample that landed on one pixel. A, B and C hold
// the directional channels of the active colour policy.
type Cell struct {
	Hits    uint64
	A, B, C float64
}

// Field is the accumulation buffer, row-major.
type Field struct {
	W, H     int
	cells    []Cell
	distinct int
}

func NewField(w, h int) *Field {
	return &Field{W: w, H: h, cells: make([]Cell, w*h)}
}

// Reset clears every cell.
func (f *Field) Reset() {
	clear(f.cells)
	f.distinct = 0
}

// At returns the cell at row i, column j.
func (f *Field) At(i, j int) *Cell {
	return &f.cells[i*f.W+j]
}

func (f *Field) hit(i, j int) *Cell {
	c := &f.cells[i*f.W+j]
	if c.Hits == 0 {
		f.distinct++
	}
	c.Hits++
	return c
}

// Distinct is the number of cells with at least one hit.
func (f *Field) Distinct() int { return f.distinct }

// Hits is the total number of samples accumulated.
func (f *Field) Hits() int64 {
	var n int64
	for i := range f.cells {
		n += int64(f.cells[i].Hits)
	}
	return n
}
