package world

import (
	"errors"
	"fmt"
	"math"
)

const (
	// CellSize is the edge length of a map cell in world units.
	CellSize = 16
	// ObservableCellRadius is how many cells in each direction an entity
	// can observe.
	ObservableCellRadius = 3
)

var ErrMalformedMapData = errors.New("world: malformed map data")

// Resolver turns a cell key into the live entity it names.
type Resolver interface {
	Resolve(k EntityKey) Entity
}

// Map is a square world region partitioned into CellSize cells. Cell index
// is row + column*rowCount, where the row follows x and the column follows z.
// Tick goroutine only.
type Map struct {
	id       uint16
	size     int
	rowCount int
	cells    []Cell
	resolver Resolver
}

// NewMap builds an empty map. size must be a positive multiple of CellSize.
func NewMap(id uint16, size int, resolver Resolver) (*Map, error) {
	if size <= 0 || size%CellSize != 0 {
		return nil, fmt.Errorf("%w: map %d size %d is not a positive multiple of %d",
			ErrMalformedMapData, id, size, CellSize)
	}
	rows := size / CellSize
	return &Map{
		id:       id,
		size:     size,
		rowCount: rows,
		cells:    make([]Cell, rows*rows),
		resolver: resolver,
	}, nil
}

func (m *Map) ID() uint16     { return m.id }
func (m *Map) Size() int      { return m.size }
func (m *Map) RowCount() int  { return m.rowCount }
func (m *Map) CellCount() int { return len(m.cells) }

// Adjust clamps every coordinate of pos into [0, size-1]. NaN becomes 0.
func (m *Map) Adjust(pos Position) Position {
	pos.X = m.clamp(pos.X)
	pos.Y = m.clamp(pos.Y)
	pos.Z = m.clamp(pos.Z)
	return pos
}

func (m *Map) clamp(v float32) float32 {
	switch {
	case v != v, v < 0:
		return 0
	case v > float32(m.size-1):
		return float32(m.size - 1)
	}
	return v
}

// rowCol returns the cell coordinates of an already adjusted position.
func (m *Map) rowCol(pos Position) (int, int) {
	row := int(math.Trunc(float64(pos.X))) / CellSize
	col := int(math.Trunc(float64(pos.Z))) / CellSize
	return row, col
}

// CellIndex returns the index of the cell containing pos.
func (m *Map) CellIndex(pos Position) int {
	row, col := m.rowCol(m.Adjust(pos))
	return row + col*m.rowCount
}

// CellAt returns the cell containing pos.
func (m *Map) CellAt(pos Position) *Cell {
	return &m.cells[m.CellIndex(pos)]
}

// Add clamps the entity's position into the map and places it in a cell.
func (m *Map) Add(e Entity) {
	b := e.base()
	b.pos = m.Adjust(b.pos)
	b.pos.Map = m.id
	m.CellAt(b.pos).add(b.Key())
	b.placed = true
}

// Remove takes the entity out of its cell. Removing an entity that is not
// on the map is a no-op.
func (m *Map) Remove(e Entity) {
	b := e.base()
	b.pos = m.Adjust(b.pos)
	if m.CellAt(b.pos).remove(b.Key()) {
		b.placed = false
	}
}

// Neighbourhood returns every cell within ObservableCellRadius rows and
// columns of the cell containing pos, the centre included. Rows and columns
// beyond the map edge are skipped.
func (m *Map) Neighbourhood(pos Position) []*Cell {
	row, col := m.rowCol(m.Adjust(pos))
	out := make([]*Cell, 0, (2*ObservableCellRadius+1)*(2*ObservableCellRadius+1))
	for c := col - ObservableCellRadius; c <= col+ObservableCellRadius; c++ {
		if c < 0 || c >= m.rowCount {
			continue
		}
		for r := row - ObservableCellRadius; r <= row+ObservableCellRadius; r++ {
			if r < 0 || r >= m.rowCount {
				continue
			}
			out = append(out, &m.cells[r+c*m.rowCount])
		}
	}
	return out
}

// FindEntity returns the first entity of the given type and id inside the
// neighbourhood of pos, or nil.
func (m *Map) FindEntity(pos Position, id EntityID, typ EntityType) Entity {
	want := EntityKey{Type: typ, ID: id}
	for _, cell := range m.Neighbourhood(pos) {
		if cell.Contains(want) {
			return m.resolver.Resolve(want)
		}
	}
	return nil
}

// EntitiesNear resolves every entity in the neighbourhood of pos.
func (m *Map) EntitiesNear(pos Position) []Entity {
	var out []Entity
	for _, cell := range m.Neighbourhood(pos) {
		for _, k := range cell.Keys() {
			if e := m.resolver.Resolve(k); e != nil {
				out = append(out, e)
			}
		}
	}
	return out
}
