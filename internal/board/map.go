package board

import "fmt"

// Map indexes placed tiles by coordinate.
type Map struct {
	Tiles  map[HexCoord]*Tile `json:"-"`
	Radius int                `json:"radius"`
}

// NewMap indexes tiles. Every tile must be placed and no two tiles may share
// a coordinate.
func NewMap(tiles []*Tile) (*Map, error) {
	m := &Map{Tiles: make(map[HexCoord]*Tile, len(tiles))}
	for _, t := range tiles {
		if t.Coord == nil {
			return nil, fmt.Errorf("index tile %s: not placed", t)
		}
		if _, dup := m.Tiles[*t.Coord]; dup {
			return nil, fmt.Errorf("index tile %s: coordinate already occupied", t)
		}
		m.Tiles[*t.Coord] = t
		m.Radius = max(m.Radius, t.Coord.Length())
	}
	return m, nil
}

// Get returns the tile at the given coordinate, or nil.
func (m *Map) Get(coord HexCoord) *Tile {
	return m.Tiles[coord]
}

// InBounds returns true if the coordinate is within the map radius.
func (m *Map) InBounds(coord HexCoord) bool {
	return coord.Length() <= m.Radius
}

// Adjacent maps direction index to the neighboring tile, like AdjacentTiles
// but with constant-time lookups.
func (m *Map) Adjacent(coord HexCoord) map[int]*Tile {
	result := make(map[int]*Tile)
	for dir, n := range coord.Neighbors() {
		if t := m.Tiles[n]; t != nil {
			result[dir] = t
		}
	}
	return result
}

// TileCount returns the number of indexed tiles.
func (m *Map) TileCount() int {
	return len(m.Tiles)
}

// String returns a summary of the map.
func (m *Map) String() string {
	return fmt.Sprintf("Map(radius=%d, tiles=%d)", m.Radius, m.TileCount())
}
