// Package board generates balanced hex boards for a resource-trading tile game.
// Uses cube coordinates (q, r, s) with the invariant q + r + s == 0.
package board

import (
	"fmt"

	"golang.org/x/exp/constraints"
)

// HexCoord represents a position on the hex grid using cube coordinates.
type HexCoord struct {
	Q int `json:"q"`
	R int `json:"r"`
	S int `json:"s"`
}

// NewHexCoord returns the coordinate (q, r, s), rejecting triples that are
// not on the q + r + s == 0 plane.
func NewHexCoord(q, r, s int) (HexCoord, error) {
	c := HexCoord{Q: q, R: r, S: s}
	if !c.Valid() {
		return HexCoord{}, fmt.Errorf("%w: (%d, %d, %d)", ErrInvalidCoordinate, q, r, s)
	}
	return c, nil
}

// Valid reports whether the coordinate satisfies the cube invariant.
func (h HexCoord) Valid() bool {
	return h.Q+h.R+h.S == 0
}

// HexNeighborDirections defines the six neighbor offsets. The index into this
// table is the direction index used by AdjacentTiles.
var HexNeighborDirections = [6]HexCoord{
	{Q: 1, R: 0, S: -1},
	{Q: 0, R: 1, S: -1},
	{Q: -1, R: 1, S: 0},
	{Q: -1, R: 0, S: 1},
	{Q: 0, R: -1, S: 1},
	{Q: 1, R: -1, S: 0},
}

// Add returns the component-wise sum of two coordinates.
func (h HexCoord) Add(o HexCoord) HexCoord {
	return HexCoord{Q: h.Q + o.Q, R: h.R + o.R, S: h.S + o.S}
}

// Neighbor returns the adjacent coordinate in direction dir (0 to 5).
func (h HexCoord) Neighbor(dir int) HexCoord {
	return h.Add(HexNeighborDirections[dir])
}

// Neighbors returns the six adjacent hex coordinates.
func (h HexCoord) Neighbors() [6]HexCoord {
	var result [6]HexCoord
	for i, dir := range HexNeighborDirections {
		result[i] = h.Add(dir)
	}
	return result
}

// Length is the ring index of the coordinate: max(|q|, |r|, |s|).
func (h HexCoord) Length() int {
	return max(abs(h.Q), abs(h.R), abs(h.S))
}

// OnAxis reports whether any cube component is zero. On a ring these are the
// edge midpoints; everything else sits toward a corner.
func (h HexCoord) OnAxis() bool {
	return h.Q == 0 || h.R == 0 || h.S == 0
}

func (h HexCoord) String() string {
	return fmt.Sprintf("(%d, %d, %d)", h.Q, h.R, h.S)
}

// Distance returns the hex distance between two coordinates.
func Distance(a, b HexCoord) int {
	return HexCoord{Q: a.Q - b.Q, R: a.R - b.R, S: a.S - b.S}.Length()
}

func abs[T constraints.Signed](x T) T {
	if x < 0 {
		return -x
	}
	return x
}
