// Board generation: from player count to a fully placed tile list.
package board

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"
)

// BalanceStrategy selects how roll values are spread over resource categories.
type BalanceStrategy uint8

const (
	// BalancePartition splits one shared roll bag into groups whose
	// difficulty scores are within tolerance of each other.
	BalancePartition BalanceStrategy = iota
	// BalanceIndependent draws each category's rolls on their own and only
	// checks their mean difficulty against TargetDifficulty.
	BalanceIndependent
)

// CategoryWeight is the selection weight of one non-resource category.
type CategoryWeight struct {
	Category Category `json:"category"`
	Weight   float64  `json:"weight"`
}

// GenConfig holds board generation parameters. It is not modified during a run.
type GenConfig struct {
	Players                float64          // Player count, may be fractional
	ResourceTilesPerPlayer float64          // 5.5
	TotalTilesPerPlayer    float64          // 7.0
	Resources              []Category       // One roll group per entry
	NonResourceWeights     []CategoryWeight // Draw weights for filler tiles
	Rolls                  RollTable        // Labels, difficulties, bag weights
	Bonus                  bool             // Must match whether Rolls holds bonus pairs
	Tolerance              Tolerance        // Group score band around the mean
	Strategy               BalanceStrategy
	TargetDifficulty       float64 // Mean difficulty target, BalanceIndependent only
	ShuffleRings           bool    // Randomize coordinate order within each ring
	CornerFirst            bool    // Leave outer-ring edge midpoints as water first

	BalanceAttempts     int // Partition reshuffles
	IndependentAttempts int // Draws per category, BalanceIndependent only
	PlacementAttempts   int // Whole placement retries
}

// DefaultGenConfig returns the standard configuration for a player count.
func DefaultGenConfig(players float64, bonus bool) GenConfig {
	return GenConfig{
		Players:                players,
		ResourceTilesPerPlayer: 5.5,
		TotalTilesPerPlayer:    7.0,
		Resources:              append([]Category(nil), ResourceCategories...),
		NonResourceWeights: []CategoryWeight{
			{Category: CategoryOcean, Weight: 0.75},
			{Category: CategoryDesert, Weight: 0.25},
		},
		Rolls:               StandardRollTable(bonus),
		Bonus:               bonus,
		Tolerance:           Tolerance{Lower: 0.75, Upper: 1.25},
		Strategy:            BalancePartition,
		TargetDifficulty:    3.0,
		ShuffleRings:        true,
		CornerFirst:         true,
		BalanceAttempts:     30,
		IndependentAttempts: 1000,
		PlacementAttempts:   30,
	}
}

// WithGold adds the gold bonus resource as an extra roll group.
func (c GenConfig) WithGold() GenConfig {
	for _, r := range c.Resources {
		if r == CategoryGold {
			return c
		}
	}
	c.Resources = append(append([]Category(nil), c.Resources...), CategoryGold)
	return c
}

// MaxBoardTiles caps the tile budget of a single board.
const MaxBoardTiles = 5000

// Validate checks the configuration before any randomness is spent.
func (c GenConfig) Validate() error {
	if !(c.Players > 0) || math.IsInf(c.Players, 0) {
		return fmt.Errorf("%w: player count %v", ErrConfiguration, c.Players)
	}
	if !(c.ResourceTilesPerPlayer > 0) || !(c.TotalTilesPerPlayer > 0) {
		return fmt.Errorf("%w: tiles per player must be positive", ErrConfiguration)
	}
	// Checked in floating point first so Budget never converts an
	// out-of-range value to int.
	perPlayer := max(c.ResourceTilesPerPlayer, c.TotalTilesPerPlayer)
	if !(c.Players*perPlayer <= MaxBoardTiles) {
		return fmt.Errorf("%w: %v players exceed %d tiles", ErrConfiguration, c.Players, MaxBoardTiles)
	}
	if len(c.Resources) == 0 {
		return fmt.Errorf("%w: no resource categories", ErrConfiguration)
	}
	seen := make(map[Category]bool)
	for _, r := range c.Resources {
		if !r.Known() || !r.IsResource() {
			return fmt.Errorf("%w: %s is not a resource category", ErrConfiguration, r)
		}
		if seen[r] {
			return fmt.Errorf("%w: duplicate resource category %s", ErrConfiguration, r)
		}
		seen[r] = true
	}

	total := 0.0
	for _, w := range c.NonResourceWeights {
		if !w.Category.Known() || w.Category.IsResource() {
			return fmt.Errorf("%w: %s is not a non-resource category", ErrConfiguration, w.Category)
		}
		if w.Weight < 0 || math.IsNaN(w.Weight) || math.IsInf(w.Weight, 0) {
			return fmt.Errorf("%w: %s weight %v", ErrConfiguration, w.Category, w.Weight)
		}
		total += w.Weight
	}
	budget := c.Budget()
	if budget.Total > MaxBoardTiles {
		return fmt.Errorf("%w: budget of %d tiles exceeds %d", ErrConfiguration, budget.Total, MaxBoardTiles)
	}
	if budget.NonResource > 0 && total <= 0 {
		return fmt.Errorf("%w: non-resource weights sum to zero", ErrConfiguration)
	}

	if err := c.Rolls.Validate(); err != nil {
		return err
	}
	if c.Rolls.HasBonusPairs() != c.Bonus {
		return fmt.Errorf("%w: bonus flag %v does not match the roll table", ErrConfiguration, c.Bonus)
	}
	if c.Tolerance.Lower < 0 || c.Tolerance.Lower > c.Tolerance.Upper {
		return fmt.Errorf("%w: tolerance [%v, %v]", ErrConfiguration, c.Tolerance.Lower, c.Tolerance.Upper)
	}
	if c.Strategy == BalanceIndependent && !(c.TargetDifficulty > 0) {
		return fmt.Errorf("%w: target difficulty %v", ErrConfiguration, c.TargetDifficulty)
	}
	if c.BalanceAttempts < 1 || c.PlacementAttempts < 1 ||
		(c.Strategy == BalanceIndependent && c.IndependentAttempts < 1) {
		return fmt.Errorf("%w: retry bounds must be at least 1", ErrConfiguration)
	}
	return nil
}

// TileBudget is the number of tiles a configuration produces.
type TileBudget struct {
	PerResource int `json:"per_resource"`
	Resource    int `json:"resource"`
	NonResource int `json:"non_resource"`
	Total       int `json:"total"`
}

// Budget derives tile counts from the player count. When the resource tiles
// alone exceed the total (fewer than three players), no non-resource tiles
// are drawn and the total grows to fit them.
func (c GenConfig) Budget() TileBudget {
	groups := len(c.Resources)
	if groups == 0 {
		return TileBudget{}
	}
	per := int(math.Ceil(c.Players * c.ResourceTilesPerPlayer / float64(groups)))
	resource := per * groups
	nonResource := max(int(math.Round(c.Players*c.TotalTilesPerPlayer))-resource, 0)
	return TileBudget{
		PerResource: per,
		Resource:    resource,
		NonResource: nonResource,
		Total:       resource + nonResource,
	}
}

// Stats describes how a board was produced.
type Stats struct {
	BalanceAttempts   int              `json:"balance_attempts"`
	PlacementAttempts int              `json:"placement_attempts"`
	Scores            map[Category]int `json:"scores"`
	MeanScore         float64          `json:"mean_score"`
	Elapsed           time.Duration    `json:"elapsed_ns"`
}

// Board is a generated board. Tiles holds the budgeted tiles placed by the
// solver; Border holds the unused outer-ring coordinates as ocean.
type Board struct {
	Players float64    `json:"players"`
	Bonus   bool       `json:"bonus"`
	Budget  TileBudget `json:"budget"`
	Rings   int        `json:"rings"` // Index of the outermost ring
	Tiles   []*Tile    `json:"tiles"`
	Border  []*Tile    `json:"border"`
	Stats   Stats      `json:"stats"`
}

// All returns the placed tiles followed by the border tiles.
func (b *Board) All() []*Tile {
	all := make([]*Tile, 0, len(b.Tiles)+len(b.Border))
	all = append(all, b.Tiles...)
	return append(all, b.Border...)
}

// Map indexes every tile of the board, border included.
func (b *Board) Map() (*Map, error) {
	return NewMap(b.All())
}

// Generator produces boards for one configuration. A Generator owns its
// random source and must not be shared between goroutines.
type Generator struct {
	cfg GenConfig
	rng *rand.Rand
}

// NewGenerator validates a private copy of cfg and binds it to rng. Later
// changes to cfg do not reach the generator. A nil rng is seeded from the
// clock.
func NewGenerator(cfg GenConfig, rng *rand.Rand) (*Generator, error) {
	cfg = cfg.clone()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Generator{cfg: cfg, rng: rng}, nil
}

// Config returns a copy of the generator's configuration.
func (g *Generator) Config() GenConfig {
	return g.cfg.clone()
}

// clone copies the slices so the copy shares no memory with c.
func (c GenConfig) clone() GenConfig {
	c.Resources = append([]Category(nil), c.Resources...)
	c.NonResourceWeights = append([]CategoryWeight(nil), c.NonResourceWeights...)
	c.Rolls = append(RollTable(nil), c.Rolls...)
	return c
}

// Generate builds a complete board.
func (g *Generator) Generate() (*Board, error) {
	start := time.Now()
	budget := g.cfg.Budget()

	groups, balanceAttempts, err := g.rollGroups(budget)
	if err != nil {
		return nil, err
	}

	tiles := make([]*Tile, 0, budget.Total)
	for i, cat := range g.cfg.Resources {
		for _, roll := range groups[i] {
			t, err := NewTile(cat, roll, nil)
			if err != nil {
				return nil, err
			}
			tiles = append(tiles, t)
		}
	}

	weights := make([]float64, len(g.cfg.NonResourceWeights))
	for i, w := range g.cfg.NonResourceWeights {
		weights[i] = w.Weight
	}
	for range budget.NonResource {
		cat := g.cfg.NonResourceWeights[weightedIndex(g.rng, weights)].Category
		t, err := NewTile(cat, NoRoll, nil)
		if err != nil {
			return nil, err
		}
		tiles = append(tiles, t)
	}

	cells, border, err := BuildTemplate(g.rng, budget.Total, g.cfg.ShuffleRings, g.cfg.CornerFirst)
	if err != nil {
		return nil, err
	}

	placementAttempts, err := PlaceTiles(g.rng, tiles, cells, g.cfg.PlacementAttempts)
	if err != nil {
		return nil, err
	}
	sortTiles(tiles)

	scores := make(map[Category]int, len(g.cfg.Resources))
	sum := 0
	for i, cat := range g.cfg.Resources {
		scores[cat] = g.cfg.Rolls.Score(groups[i])
		sum += scores[cat]
	}

	return &Board{
		Players: g.cfg.Players,
		Bonus:   g.cfg.Bonus,
		Budget:  budget,
		Rings:   RingsNeeded(budget.Total),
		Tiles:   tiles,
		Border:  border,
		Stats: Stats{
			BalanceAttempts:   balanceAttempts,
			PlacementAttempts: placementAttempts,
			Scores:            scores,
			MeanScore:         float64(sum) / float64(len(g.cfg.Resources)),
			Elapsed:           time.Since(start),
		},
	}, nil
}

// rollGroups returns one roll list per resource category.
func (g *Generator) rollGroups(budget TileBudget) ([][]RollValue, int, error) {
	n := len(g.cfg.Resources)

	if g.cfg.Strategy == BalanceIndependent {
		groups := make([][]RollValue, n)
		attempts := 0
		for i, cat := range g.cfg.Resources {
			rolls, used, err := DrawRolls(g.rng, g.cfg.Rolls, budget.PerResource,
				g.cfg.TargetDifficulty, g.cfg.Tolerance, g.cfg.IndependentAttempts)
			attempts += used
			if err != nil {
				return nil, attempts, fmt.Errorf("rolls for %s: %w", cat, err)
			}
			groups[i] = rolls
		}
		return groups, attempts, nil
	}

	bag, err := BuildRollBag(g.rng, g.cfg.Rolls, budget.Resource)
	if err != nil {
		return nil, 0, err
	}
	return PartitionBalanced(g.rng, g.cfg.Rolls, bag, n, budget.PerResource, g.cfg.Tolerance, g.cfg.BalanceAttempts)
}

// sortTiles orders placed tiles from the center outward.
func sortTiles(tiles []*Tile) {
	sort.SliceStable(tiles, func(i, j int) bool {
		a, b := *tiles[i].Coord, *tiles[j].Coord
		if a.Length() != b.Length() {
			return a.Length() < b.Length()
		}
		if a.Q != b.Q {
			return a.Q < b.Q
		}
		return a.R < b.R
	})
}

// Generate builds a standard board for the player count using rng.
func Generate(players float64, bonus bool, rng *rand.Rand) (*Board, error) {
	g, err := NewGenerator(DefaultGenConfig(players, bonus), rng)
	if err != nil {
		return nil, err
	}
	return g.Generate()
}
