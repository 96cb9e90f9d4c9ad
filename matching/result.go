// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package matching

import "sort"

// Result is a feasible assignment.
type Result struct {
	// Assignments maps every choice to its participants in rank order.
	// Closed choices map to an empty list.
	Assignments map[string][]string `json:"assignments"`
	// Unassigned lists participants that ran out of acceptable choices.
	Unassigned []string `json:"unassigned"`
	// ClosedChoices lists optional choices closed by repair, sorted.
	ClosedChoices []string `json:"closed_choices"`
	// Capacities holds the final maximum size of every choice.
	Capacities Capacities `json:"capacities"`
	// Positions maps every assigned participant to the 0-based index of its
	// choice in its own preference list.
	Positions map[string]int `json:"positions"`
	// Iterations counts matcher runs, including the final one.
	Iterations int `json:"iterations"`
	// Seed is the ranking seed when the solve was started from one.
	Seed int64 `json:"seed"`
}

func newResult(p Problem, prefs Preferences, m Matching, caps Capacities, closed map[string]bool, iterations int) *Result {
	r := &Result{
		Assignments: make(map[string][]string, len(p.Choices)),
		Unassigned:  m.Unassigned(p.Participants),
		Capacities:  caps.Clone(),
		Positions:   make(map[string]int, len(m.ChoiceOf)),
		Iterations:  iterations,
	}
	for _, c := range p.Choices {
		r.Assignments[c.ID] = append([]string{}, m.Held[c.ID]...)
	}
	for id := range closed {
		r.ClosedChoices = append(r.ClosedChoices, id)
	}
	sort.Strings(r.ClosedChoices)
	if r.Unassigned == nil {
		r.Unassigned = []string{}
	}
	if r.ClosedChoices == nil {
		r.ClosedChoices = []string{}
	}
	for participant, choiceID := range m.ChoiceOf {
		r.Positions[participant] = prefs.Position(participant, choiceID)
	}
	return r
}

// ChoiceOf returns the choice a participant was assigned to.
func (r *Result) ChoiceOf(participant string) (string, bool) {
	for choiceID, members := range r.Assignments {
		for _, m := range members {
			if m == participant {
				return choiceID, true
			}
		}
	}
	return "", false
}

// PositionCounts returns how many participants got their 1st, 2nd, ...
// choice. Index i counts participants assigned at preference position i.
func (r *Result) PositionCounts() []int {
	var counts []int
	for _, pos := range r.Positions {
		if pos < 0 {
			continue
		}
		for len(counts) <= pos {
			counts = append(counts, 0)
		}
		counts[pos]++
	}
	return counts
}
