package board

import (
	"fmt"
	"strings"
)

// Category is the kind of a tile.
type Category uint8

const (
	CategoryWood   Category = iota // Resource
	CategoryWheat                  // Resource
	CategorySheep                  // Resource
	CategoryOre                    // Resource
	CategoryBrick                  // Resource
	CategoryGold                   // Bonus resource, off by default
	CategoryDesert                 // Non-resource
	CategoryOcean                  // Non-resource
)

var categoryNames = [...]string{
	CategoryWood:   "wood",
	CategoryWheat:  "wheat",
	CategorySheep:  "sheep",
	CategoryOre:    "ore",
	CategoryBrick:  "brick",
	CategoryGold:   "gold",
	CategoryDesert: "desert",
	CategoryOcean:  "ocean",
}

// AllCategories is the full category universe in declaration order.
var AllCategories = []Category{
	CategoryWood, CategoryWheat, CategorySheep, CategoryOre,
	CategoryBrick, CategoryGold, CategoryDesert, CategoryOcean,
}

// ResourceCategories are the five standard resource types.
var ResourceCategories = []Category{
	CategoryBrick, CategoryWood, CategorySheep, CategoryWheat, CategoryOre,
}

// NonResourceCategories never carry a roll value.
var NonResourceCategories = []Category{CategoryOcean, CategoryDesert}

// IsResource reports whether tiles of this category carry a roll value.
func (c Category) IsResource() bool {
	switch c {
	case CategoryWood, CategoryWheat, CategorySheep, CategoryOre, CategoryBrick, CategoryGold:
		return true
	default:
		return false
	}
}

// Known reports whether c is one of the declared categories.
func (c Category) Known() bool {
	return int(c) < len(categoryNames)
}

func (c Category) String() string {
	if !c.Known() {
		return fmt.Sprintf("category(%d)", uint8(c))
	}
	return categoryNames[c]
}

// MarshalText encodes the category by name.
func (c Category) MarshalText() ([]byte, error) {
	if !c.Known() {
		return nil, fmt.Errorf("%w: unknown category %d", ErrConfiguration, uint8(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText decodes a category name.
func (c *Category) UnmarshalText(text []byte) error {
	parsed, err := ParseCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseCategory looks up a category by name, case-insensitively.
func ParseCategory(name string) (Category, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range categoryNames {
		if n == name {
			return Category(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown category %q", ErrConfiguration, name)
}

// CategorySet is a bitset of categories.
type CategorySet uint16

// NewCategorySet returns a set holding the given categories.
func NewCategorySet(cats ...Category) CategorySet {
	var s CategorySet
	for _, c := range cats {
		s |= 1 << c
	}
	return s
}

// AnyCategory allows every declared category.
var AnyCategory = NewCategorySet(AllCategories...)

// Has reports whether c is in the set.
func (s CategorySet) Has(c Category) bool {
	return s&(1<<c) != 0
}

// Len returns the number of categories in the set.
func (s CategorySet) Len() int {
	n := 0
	for _, c := range AllCategories {
		if s.Has(c) {
			n++
		}
	}
	return n
}

// Tile is one hex of the board. Resource tiles carry a roll value; Coord is
// nil until the tile is placed.
type Tile struct {
	Category Category  `json:"category"`
	Roll     RollValue `json:"roll,omitempty"`
	Coord    *HexCoord `json:"coord,omitempty"`
}

// NewTile creates a tile. Non-resource tiles may not carry a roll, and a
// supplied coordinate must satisfy the cube invariant.
func NewTile(category Category, roll RollValue, coord *HexCoord) (*Tile, error) {
	if !category.Known() {
		return nil, fmt.Errorf("%w: unknown category %d", ErrConfiguration, uint8(category))
	}
	if roll != NoRoll && !category.IsResource() {
		return nil, fmt.Errorf("%w: %s tile cannot carry roll %s", ErrConfiguration, category, roll)
	}

	t := &Tile{Category: category, Roll: roll}
	if coord != nil {
		if err := t.SetCoordinate(coord.Q, coord.R, coord.S); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// SetCoordinate places the tile at (q, r, s).
func (t *Tile) SetCoordinate(q, r, s int) error {
	c, err := NewHexCoord(q, r, s)
	if err != nil {
		return err
	}
	t.Coord = &c
	return nil
}

// Placed reports whether the tile has a coordinate.
func (t *Tile) Placed() bool {
	return t.Coord != nil
}

// HasRoll reports whether the tile carries a roll value.
func (t *Tile) HasRoll() bool {
	return t.Roll != NoRoll
}

func (t *Tile) String() string {
	var b strings.Builder
	b.WriteString(t.Category.String())
	if t.HasRoll() {
		b.WriteString(" ")
		b.WriteString(string(t.Roll))
	}
	if t.Coord != nil {
		b.WriteString(" @ ")
		b.WriteString(t.Coord.String())
	}
	return b.String()
}

// AdjacentTiles maps direction index (0 to 5) to the tile occupying that
// neighbor of t, for neighbors present in tiles. Unplaced tiles have no
// neighbors.
func AdjacentTiles(t *Tile, tiles []*Tile) map[int]*Tile {
	result := make(map[int]*Tile)
	if t.Coord == nil {
		return result
	}
	neighbors := t.Coord.Neighbors()
	for _, other := range tiles {
		if other == t || other.Coord == nil {
			continue
		}
		for dir, n := range neighbors {
			if *other.Coord == n {
				result[dir] = other
				break
			}
		}
	}
	return result
}

// CategoryCounts returns how many tiles of each category are in tiles.
func CategoryCounts(tiles []*Tile) map[Category]int {
	counts := make(map[Category]int)
	for _, t := range tiles {
		counts[t.Category]++
	}
	return counts
}
