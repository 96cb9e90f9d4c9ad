// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package matching

import (
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
)

// DefaultMaxIterations caps the repair loop when Solver.MaxIterations is zero.
const DefaultMaxIterations = 10000

// Solver runs a Matcher and repairs capacities until every open choice
// reaches its minimum size.
type Solver struct {
	// Matcher defaults to DeferredAcceptance.
	Matcher Matcher
	// Policy defaults to DefaultPreferencePolicy.
	Policy *PreferencePolicy
	// MaxIterations caps the repair loop. Zero means DefaultMaxIterations,
	// a negative value disables the cap.
	MaxIterations int
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Solve runs the default solver with a ranking drawn from seed.
func Solve(p Problem, seed int64) (*Result, error) {
	var s Solver
	return s.SolveSeed(p, seed)
}

// SolveSeed is Solve with an explicit seed that is recorded in the result.
func (s *Solver) SolveSeed(p Problem, seed int64) (*Result, error) {
	result, err := s.Solve(p, rand.New(rand.NewSource(seed)))
	if err != nil {
		return nil, err
	}
	result.Seed = seed
	return result, nil
}

// Solve assigns the participants of p. rng is consulted once, to draw the
// tie-break ranking shared by every repair iteration.
func (s *Solver) Solve(p Problem, rng *rand.Rand) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := p.CheckStructure(); err != nil {
		return nil, err
	}

	matcher := s.Matcher
	if matcher == nil {
		matcher = DeferredAcceptance()
	}
	policy := DefaultPreferencePolicy
	if s.Policy != nil {
		policy = *s.Policy
	}
	limit := s.MaxIterations
	if limit == 0 {
		limit = DefaultMaxIterations
	}
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}

	prefs := BuildPreferences(p.Participants, p.Choices, p.Ratings, policy)
	ranking := NewRanking(p.Participants, rng)

	base := p.Capacities()
	caps := base.Clone()
	closed := make(map[string]bool)

	for iteration := 1; ; iteration++ {
		if limit > 0 && iteration > limit {
			return nil, fmt.Errorf("%w: gave up after %d iterations", ErrIterationLimit, limit)
		}

		m := matcher.Match(prefs, ranking, caps)

		loads := make(map[string]ChoiceLoad, len(p.Choices))
		missing, movable, free := 0, 0, 0
		for _, c := range p.Choices {
			if closed[c.ID] {
				continue
			}
			load := loadOf(c, len(m.Held[c.ID]), caps[c.ID])
			loads[c.ID] = load
			missing += load.MissingPlaces
			movable += load.MovableAssignments
			free += load.FreePlaces
		}

		logger.Debug("matching converged",
			"matcher", matcher.Name(),
			"iteration", iteration,
			"passes", m.Passes,
			"missing_places", missing,
			"movable_assignments", movable,
			"free_places", free,
		)

		if missing == 0 {
			return newResult(p, prefs, m, caps, closed, iteration), nil
		}

		// Equality still suffices: shrinking every movable seat frees
		// exactly the missing ones.
		if missing <= movable {
			caps = shrink(caps, m, loads, missing)
			logger.Debug("shrinking movable capacity", "iteration", iteration, "seats", missing)
			continue
		}

		choiceID, ok := closable(p.Choices, closed, loads, m)
		if !ok {
			return nil, fmt.Errorf("%w: %d missing places and no optional choice left to close", ErrUnsolvable, missing)
		}
		closed[choiceID] = true

		// Shrinks were sized for the previous set of open choices.
		caps = base.Clone()
		for id := range closed {
			caps[id] = 0
		}
		if total, seatable := caps.Total(), seatableWithin(prefs, closed); total < seatable {
			return nil, fmt.Errorf("%w: closing %q leaves %d seats for %d participants", ErrUnsolvable, choiceID, total, seatable)
		}

		logger.Debug("closing optional choice", "iteration", iteration, "choice", choiceID, "missing_places", loads[choiceID].MissingPlaces)
	}
}

// shrink frees exactly deficit seats, one at a time from the choice with
// the most movable assignments left (ties by choice ID). The new capacity
// of a shrunk choice is its current occupancy minus the seats taken, so
// every freed seat evicts one holder.
func shrink(caps Capacities, m Matching, loads map[string]ChoiceLoad, deficit int) Capacities {
	remaining := make(map[string]int)
	for id, load := range loads {
		if load.MovableAssignments > 0 {
			remaining[id] = load.MovableAssignments
		}
	}
	ids := sortedKeys(remaining)

	taken := make(map[string]int)
	for ; deficit > 0; deficit-- {
		best := ""
		for _, id := range ids {
			if remaining[id] > 0 && (best == "" || remaining[id] > remaining[best]) {
				best = id
			}
		}
		if best == "" {
			break
		}
		remaining[best]--
		taken[best]++
	}

	next := caps.Clone()
	for id, n := range taken {
		next[id] = len(m.Held[id]) - n
	}
	return next
}

// seatableWithin counts participants with at least one acceptable choice
// that is still open. Everyone else ends up unassigned whatever the caps.
func seatableWithin(prefs Preferences, closed map[string]bool) int {
	n := 0
	for _, list := range prefs {
		for _, id := range list {
			if !closed[id] {
				n++
				break
			}
		}
	}
	return n
}

// closable picks the optional open choice to close: most missing places
// first, then fewest holders, then choice ID.
func closable(choices []ChoiceSpec, closed map[string]bool, loads map[string]ChoiceLoad, m Matching) (string, bool) {
	var candidates []string
	for _, c := range choices {
		if c.Optional && !closed[c.ID] {
			candidates = append(candidates, c.ID)
		}
	}
	if len(candidates) == 0 {
		return "", false
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if loads[a].MissingPlaces != loads[b].MissingPlaces {
			return loads[a].MissingPlaces > loads[b].MissingPlaces
		}
		if len(m.Held[a]) != len(m.Held[b]) {
			return len(m.Held[a]) < len(m.Held[b])
		}
		return a < b
	})
	return candidates[0], true
}
