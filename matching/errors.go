// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package matching

import "errors"

var (
	// ErrInvalidProblem is returned for malformed input (duplicate IDs, bad bounds).
	ErrInvalidProblem = errors.New("invalid problem")

	// ErrStructuralInfeasibility is returned before any matching when the
	// aggregate minimums or maximums cannot accommodate the participant count.
	ErrStructuralInfeasibility = errors.New("infeasible problem")

	// ErrUnsolvable is returned when repair needs to close a choice but no
	// optional choice is left, or the open choices cannot seat everyone.
	ErrUnsolvable = errors.New("unsolvable under constraints")

	// ErrIterationLimit is returned when the repair loop exceeds its configured cap.
	ErrIterationLimit = errors.New("repair iteration limit exceeded")

	// ErrUnknownMatcher is returned by NewMatcher for an unregistered name.
	ErrUnknownMatcher = errors.New("unknown matching algorithm")
)
