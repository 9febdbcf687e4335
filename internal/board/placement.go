// Tile placement: assigns tiles to template cells, most constrained category first.
package board

import (
	"fmt"
	"math/rand"
	"sort"
)

// cellArena owns the template cells for one placement attempt. Cells are
// referenced by index and consumed by clearing their available flag.
type cellArena struct {
	cells     []TemplateCell
	available []bool
}

func newCellArena(cells []TemplateCell) *cellArena {
	a := &cellArena{cells: cells, available: make([]bool, len(cells))}
	for i := range a.available {
		a.available[i] = true
	}
	return a
}

// viable returns the indices of available cells allowing c.
func (a *cellArena) viable(c Category) []int {
	var idx []int
	for i, cell := range a.cells {
		if a.available[i] && cell.Allowed.Has(c) {
			idx = append(idx, i)
		}
	}
	return idx
}

func (a *cellArena) take(i int) {
	a.available[i] = false
}

// PlaceTiles assigns every tile a distinct cell whose allowed set includes the
// tile's category. Categories are processed in ascending order of viable
// cells and each tile takes a uniformly random viable cell. A failed attempt
// is retried from scratch up to maxAttempts times. Tiles are only mutated
// once an attempt succeeds. Returns the number of attempts used.
func PlaceTiles(rng *rand.Rand, tiles []*Tile, cells []TemplateCell, maxAttempts int) (int, error) {
	if len(tiles) > len(cells) {
		return 0, fmt.Errorf("%w: %d tiles for %d cells", ErrPlacementUnsatisfiable, len(tiles), len(cells))
	}

	byCategory := make(map[Category][]int)
	for i, t := range tiles {
		if !t.Category.Known() {
			return 0, fmt.Errorf("%w: unknown category %d", ErrConfiguration, uint8(t.Category))
		}
		byCategory[t.Category] = append(byCategory[t.Category], i)
	}

	assignment, attempts, err := AttemptBounded(maxAttempts, func(int) ([]int, error) {
		arena := newCellArena(cells)

		order := make([]Category, 0, len(byCategory))
		viableCount := make(map[Category]int, len(AllCategories))
		for _, c := range AllCategories {
			if len(byCategory[c]) == 0 {
				continue
			}
			order = append(order, c)
			viableCount[c] = len(arena.viable(c))
		}
		sort.SliceStable(order, func(i, j int) bool {
			return viableCount[order[i]] < viableCount[order[j]]
		})

		assigned := make([]int, len(tiles))
		for _, c := range order {
			for _, ti := range byCategory[c] {
				options := arena.viable(c)
				if len(options) == 0 {
					return nil, fmt.Errorf("%w: no cell left for %s", ErrPlacementExhausted, c)
				}
				cell := options[rng.Intn(len(options))]
				arena.take(cell)
				assigned[ti] = cell
			}
		}
		return assigned, nil
	})
	if err != nil {
		return attempts, fmt.Errorf("%w: %w", ErrPlacementUnsatisfiable, err)
	}

	for ti, cell := range assignment {
		c := cells[cell].Coord
		if err := tiles[ti].SetCoordinate(c.Q, c.R, c.S); err != nil {
			return attempts, err
		}
	}
	return attempts, nil
}
