// Ring template: concentric hex rings sized to a tile budget.
package board

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// TemplateCell is a candidate coordinate and the categories allowed there.
type TemplateCell struct {
	Coord   HexCoord
	Allowed CategorySet
}

// Ring returns every coordinate whose max absolute cube component is n, in
// q-major scan order. Ring(0) is the origin.
func Ring(n int) []HexCoord {
	if n < 0 {
		return nil
	}
	var coords []HexCoord
	for q := -n; q <= n; q++ {
		for r := -n; r <= n; r++ {
			c := HexCoord{Q: q, R: r, S: -q - r}
			if c.Length() == n {
				coords = append(coords, c)
			}
		}
	}
	return coords
}

// CellsThrough returns the number of cells in rings 0..k: 3k² + 3k + 1.
func CellsThrough(k int) int {
	if k < 0 {
		return 0
	}
	return 3*k*k + 3*k + 1
}

// RingsNeeded returns the smallest ring index k such that rings 0..k hold at
// least count cells.
func RingsNeeded(count int) int {
	if count <= 1 {
		return 0
	}
	// Positive root of 3k² + 3k + 1 - count = 0.
	k := int(math.Ceil((math.Sqrt(float64(12*count-3)) - 3) / 6))
	// Guard against floating point landing one off either way.
	for k > 0 && CellsThrough(k-1) >= count {
		k--
	}
	for CellsThrough(k) < count {
		k++
	}
	return k
}

// BuildTemplate lays out count placeable cells over rings 0..RingsNeeded(count).
// Interior rings are fully placeable. The last ring contributes only the cells
// still needed; its remaining coordinates come back as ocean tiles that are
// already placed and never enter the solver.
//
// With shuffleRings each ring's order is randomized. With cornerFirst, axis
// coordinates are stably moved behind corner coordinates so a partially used
// outer ring turns its edge midpoints to water first.
func BuildTemplate(rng *rand.Rand, count int, shuffleRings, cornerFirst bool) ([]TemplateCell, []*Tile, error) {
	if count < 1 {
		return nil, nil, fmt.Errorf("%w: template needs at least one cell, got %d", ErrConfiguration, count)
	}

	last := RingsNeeded(count)
	cells := make([]TemplateCell, 0, count)
	var forced []*Tile

	for ring := 0; ring <= last; ring++ {
		coords := Ring(ring)
		if shuffleRings {
			rng.Shuffle(len(coords), func(i, j int) {
				coords[i], coords[j] = coords[j], coords[i]
			})
		}
		if cornerFirst {
			sort.SliceStable(coords, func(i, j int) bool {
				return !coords[i].OnAxis() && coords[j].OnAxis()
			})
		}

		take := len(coords)
		if ring == last {
			take = count - len(cells)
		}
		for _, c := range coords[:take] {
			cells = append(cells, TemplateCell{Coord: c, Allowed: AnyCategory})
		}
		for _, c := range coords[take:] {
			coord := c
			forced = append(forced, &Tile{Category: CategoryOcean, Coord: &coord})
		}
	}

	return cells, forced, nil
}
