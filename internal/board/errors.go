package board

import "errors"

var (
	// ErrInvalidCoordinate is returned for cube coordinates off the q+r+s == 0 plane.
	ErrInvalidCoordinate = errors.New("invalid cube coordinate")

	// ErrConfiguration is returned when category, weight or roll tables are
	// malformed. It is detected before any randomness is consumed.
	ErrConfiguration = errors.New("invalid board configuration")

	// ErrBoundExceeded is returned by AttemptBounded when every attempt failed.
	ErrBoundExceeded = errors.New("retry bound exceeded")

	// ErrBalanceUnsatisfiable means no balanced roll partition was found
	// within the retry bound.
	ErrBalanceUnsatisfiable = errors.New("roll balance unsatisfiable")

	// ErrPlacementExhausted means a single placement attempt ran out of
	// viable cells for some tile.
	ErrPlacementExhausted = errors.New("placement exhausted")

	// ErrPlacementUnsatisfiable means placement failed on every attempt.
	ErrPlacementUnsatisfiable = errors.New("placement unsatisfiable")
)
