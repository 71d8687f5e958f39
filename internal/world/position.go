package world

import (
	"fmt"
	"math"
)

// Position is a location inside one map. Y is height; X and Z span the
// map's horizontal plane.
type Position struct {
	Map uint16
	X   float32
	Y   float32
	Z   float32
}

func NewPosition(mapID uint16, x, y, z float32) Position {
	return Position{Map: mapID, X: x, Y: y, Z: z}
}

// Distance returns the euclidean distance to o, ignoring the map id.
func (p Position) Distance(o Position) float64 {
	dx := float64(p.X - o.X)
	dy := float64(p.Y - o.Y)
	dz := float64(p.Z - o.Z)
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Toward returns the point at most step units from p along the line to o.
func (p Position) Toward(o Position, step float64) Position {
	d := p.Distance(o)
	if d <= step || d == 0 {
		return Position{Map: p.Map, X: o.X, Y: o.Y, Z: o.Z}
	}
	f := float32(step / d)
	return Position{
		Map: p.Map,
		X:   p.X + (o.X-p.X)*f,
		Y:   p.Y + (o.Y-p.Y)*f,
		Z:   p.Z + (o.Z-p.Z)*f,
	}
}

func (p Position) String() string {
	return fmt.Sprintf("map=%d (%.1f, %.1f, %.1f)", p.Map, p.X, p.Y, p.Z)
}
