// Roll values and difficulty balancing across resource categories.
package board

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
)

// RollValue is the label printed on a resource tile.
type RollValue string

// NoRoll marks a tile without a roll value.
const NoRoll RollValue = ""

const (
	Roll2  RollValue = "2"
	Roll3  RollValue = "3"
	Roll4  RollValue = "4"
	Roll5  RollValue = "5"
	Roll6  RollValue = "6"
	Roll8  RollValue = "8"
	Roll9  RollValue = "9"
	Roll10 RollValue = "10"
	Roll11 RollValue = "11"
	Roll12 RollValue = "12"

	// Bonus pairs replace 2 and 12 when bonus rolls are enabled.
	RollPair2And12  RollValue = "2|12"
	RollPair2And2   RollValue = "2|2"
	RollPair12And12 RollValue = "12|12"
)

// RollSpec describes one roll label. Difficulty is the chance of the roll
// with two dice, times 36. Weight is the relative share of the label in a
// roll bag.
type RollSpec struct {
	Value      RollValue `json:"value"`
	Difficulty int       `json:"difficulty"`
	Weight     float64   `json:"weight"`
}

// RollTable is the ordered set of roll labels available to a board.
type RollTable []RollSpec

// StandardRollTable returns the roll labels for plain or bonus mode.
func StandardRollTable(bonus bool) RollTable {
	t := RollTable{
		{Value: Roll3, Difficulty: 2, Weight: 1},
		{Value: Roll4, Difficulty: 3, Weight: 1},
		{Value: Roll5, Difficulty: 4, Weight: 1},
		{Value: Roll6, Difficulty: 5, Weight: 1},
		{Value: Roll8, Difficulty: 5, Weight: 1},
		{Value: Roll9, Difficulty: 4, Weight: 1},
		{Value: Roll10, Difficulty: 3, Weight: 1},
		{Value: Roll11, Difficulty: 2, Weight: 1},
	}
	if bonus {
		return append(t,
			RollSpec{Value: RollPair2And12, Difficulty: 2, Weight: 0.5},
			RollSpec{Value: RollPair2And2, Difficulty: 2, Weight: 0.5},
			RollSpec{Value: RollPair12And12, Difficulty: 2, Weight: 0.5},
		)
	}
	return append(t,
		RollSpec{Value: Roll2, Difficulty: 1, Weight: 1},
		RollSpec{Value: Roll12, Difficulty: 1, Weight: 1},
	)
}

// Validate checks that the table is usable for bag building.
func (t RollTable) Validate() error {
	if len(t) == 0 {
		return fmt.Errorf("%w: empty roll table", ErrConfiguration)
	}
	seen := make(map[RollValue]bool, len(t))
	for _, s := range t {
		switch {
		case s.Value == NoRoll:
			return fmt.Errorf("%w: empty roll label", ErrConfiguration)
		case seen[s.Value]:
			return fmt.Errorf("%w: duplicate roll label %s", ErrConfiguration, s.Value)
		case s.Difficulty <= 0:
			return fmt.Errorf("%w: roll %s has difficulty %d", ErrConfiguration, s.Value, s.Difficulty)
		case !(s.Weight > 0) || math.IsInf(s.Weight, 0):
			return fmt.Errorf("%w: roll %s has weight %v", ErrConfiguration, s.Value, s.Weight)
		}
		seen[s.Value] = true
	}
	return nil
}

// HasBonusPairs reports whether the table holds any bonus pair label.
func (t RollTable) HasBonusPairs() bool {
	for _, s := range t {
		switch s.Value {
		case RollPair2And12, RollPair2And2, RollPair12And12:
			return true
		}
	}
	return false
}

// Lookup returns the RollSpec for a label.
func (t RollTable) Lookup(v RollValue) (RollSpec, bool) {
	for _, s := range t {
		if s.Value == v {
			return s, true
		}
	}
	return RollSpec{}, false
}

// Score sums the difficulty of values. Unknown labels score zero.
func (t RollTable) Score(values []RollValue) int {
	total := 0
	for _, v := range values {
		if s, ok := t.Lookup(v); ok {
			total += s.Difficulty
		}
	}
	return total
}

// Tolerance bounds each group score to [Lower×mean, Upper×mean].
type Tolerance struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// Contains reports whether score lies within the band around mean.
func (tol Tolerance) Contains(score, mean float64) bool {
	return score >= tol.Lower*mean && score <= tol.Upper*mean
}

// BuildRollBag returns exactly k labels apportioned by weight. Each label
// first gets the integer part of its exact share; the rest of the bag is
// filled by weighted sampling without replacement over the fractional
// remainders.
func BuildRollBag(rng *rand.Rand, table RollTable, k int) ([]RollValue, error) {
	if err := table.Validate(); err != nil {
		return nil, err
	}
	if k < 0 {
		return nil, fmt.Errorf("%w: negative bag size %d", ErrConfiguration, k)
	}

	totalWeight := 0.0
	for _, s := range table {
		totalWeight += s.Weight
	}

	bag := make([]RollValue, 0, k)
	remainders := make([]float64, len(table))
	for i, s := range table {
		share := float64(k) * s.Weight / totalWeight
		whole := math.Floor(share)
		for n := 0; n < int(whole); n++ {
			bag = append(bag, s.Value)
		}
		remainders[i] = share - whole
	}

	picked := make([]bool, len(table))
	for len(bag) < k {
		weights := make([]float64, len(table))
		for i := range table {
			if !picked[i] {
				weights[i] = remainders[i]
			}
		}
		i := weightedIndex(rng, weights)
		if i < 0 {
			// Rounding left nothing to sample from; fall back to the
			// labels not taken yet.
			for j := range weights {
				if !picked[j] {
					weights[j] = 1
				}
			}
			if i = weightedIndex(rng, weights); i < 0 {
				return nil, fmt.Errorf("%w: cannot fill bag of %d from %d labels", ErrConfiguration, k, len(table))
			}
		}
		picked[i] = true
		bag = append(bag, table[i].Value)
	}

	return bag, nil
}

var errUnbalanced = errors.New("group scores outside tolerance")

// PartitionBalanced shuffles bag into groups contiguous runs of perGroup labels
// and accepts the split only when every group's difficulty score is within
// tol of the mean group score. It reshuffles up to maxAttempts times and
// returns the groups and the number of attempts used.
func PartitionBalanced(rng *rand.Rand, table RollTable, bag []RollValue, groups, perGroup int, tol Tolerance, maxAttempts int) ([][]RollValue, int, error) {
	if groups < 1 || perGroup < 1 || len(bag) != groups*perGroup {
		return nil, 0, fmt.Errorf("%w: cannot split %d rolls into %d groups of %d",
			ErrConfiguration, len(bag), groups, perGroup)
	}

	work := make([]RollValue, len(bag))
	copy(work, bag)

	split, attempts, err := AttemptBounded(maxAttempts, func(int) ([][]RollValue, error) {
		rng.Shuffle(len(work), func(i, j int) {
			work[i], work[j] = work[j], work[i]
		})

		scores := make([]float64, groups)
		total := 0.0
		for g := range groups {
			scores[g] = float64(table.Score(work[g*perGroup : (g+1)*perGroup]))
			total += scores[g]
		}
		mean := total / float64(groups)
		for _, s := range scores {
			if !tol.Contains(s, mean) {
				return nil, errUnbalanced
			}
		}

		out := make([][]RollValue, groups)
		for g := range groups {
			out[g] = append([]RollValue(nil), work[g*perGroup:(g+1)*perGroup]...)
		}
		return out, nil
	})
	if err != nil {
		return nil, attempts, fmt.Errorf("%w: %w", ErrBalanceUnsatisfiable, err)
	}
	return split, attempts, nil
}

// DrawRolls draws n labels independently by weight and accepts the draw when
// its mean difficulty lies strictly inside the band around target. Retries up
// to maxAttempts times.
func DrawRolls(rng *rand.Rand, table RollTable, n int, target float64, tol Tolerance, maxAttempts int) ([]RollValue, int, error) {
	if err := table.Validate(); err != nil {
		return nil, 0, err
	}
	if n < 1 {
		return nil, 0, fmt.Errorf("%w: draw size %d", ErrConfiguration, n)
	}

	weights := make([]float64, len(table))
	for i, s := range table {
		weights[i] = s.Weight
	}

	rolls, attempts, err := AttemptBounded(maxAttempts, func(int) ([]RollValue, error) {
		draw := make([]RollValue, n)
		for i := range draw {
			draw[i] = table[weightedIndex(rng, weights)].Value
		}
		mean := float64(table.Score(draw)) / float64(n)
		if mean <= target*tol.Lower || mean >= target*tol.Upper {
			return nil, errUnbalanced
		}
		return draw, nil
	})
	if err != nil {
		return nil, attempts, fmt.Errorf("%w: %w", ErrBalanceUnsatisfiable, err)
	}
	return rolls, attempts, nil
}

// weightedIndex picks an index with probability proportional to its weight.
// Returns -1 when no weight is positive.
func weightedIndex(rng *rand.Rand, weights []float64) int {
	total := 0.0
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total <= 0 {
		return -1
	}

	x := rng.Float64() * total
	last := -1
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		if x < w {
			return i
		}
		x -= w
		last = i
	}
	return last
}
