// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package matching

import "fmt"

// Validate checks IDs and size bounds.
func (p Problem) Validate() error {
	seen := make(map[string]bool, len(p.Choices))
	for _, c := range p.Choices {
		if c.ID == "" {
			return fmt.Errorf("%w: choice with empty id", ErrInvalidProblem)
		}
		if seen[c.ID] {
			return fmt.Errorf("%w: duplicate choice %q", ErrInvalidProblem, c.ID)
		}
		seen[c.ID] = true
		if c.MinSize < 0 {
			return fmt.Errorf("%w: choice %q has negative min_size", ErrInvalidProblem, c.ID)
		}
		if c.MaxSize < c.MinSize {
			return fmt.Errorf("%w: choice %q has max_size %d below min_size %d", ErrInvalidProblem, c.ID, c.MaxSize, c.MinSize)
		}
	}

	participants := make(map[string]bool, len(p.Participants))
	for _, id := range p.Participants {
		if id == "" {
			return fmt.Errorf("%w: participant with empty id", ErrInvalidProblem)
		}
		if participants[id] {
			return fmt.Errorf("%w: duplicate participant %q", ErrInvalidProblem, id)
		}
		participants[id] = true
	}
	return nil
}

// CheckStructure fails with ErrStructuralInfeasibility when no assignment
// could exist regardless of preferences: the non-optional minimums need
// more participants than there are, or all maximums together seat fewer.
func (p Problem) CheckStructure() error {
	n := len(p.Participants)
	required, seats := 0, 0
	for _, c := range p.Choices {
		if !c.Optional {
			required += c.MinSize
		}
		seats += c.MaxSize
	}
	if required > n {
		return fmt.Errorf("%w: non-optional choices need at least %d participants, have %d", ErrStructuralInfeasibility, required, n)
	}
	if seats < n {
		return fmt.Errorf("%w: choices seat at most %d participants, have %d", ErrStructuralInfeasibility, seats, n)
	}
	return nil
}

// Capacities returns the initial capacity of every choice.
func (p Problem) Capacities() Capacities {
	caps := make(Capacities, len(p.Choices))
	for _, c := range p.Choices {
		caps[c.ID] = c.MaxSize
	}
	return caps
}
