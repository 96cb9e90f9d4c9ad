// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package matching

import "sort"

// ChoiceSpec describes one group participants can be assigned to.
type ChoiceSpec struct {
	ID       string `json:"id" yaml:"id"`
	MinSize  int    `json:"min_size" yaml:"min_size"`
	MaxSize  int    `json:"max_size" yaml:"max_size"`
	Optional bool   `json:"optional" yaml:"optional"`
}

// Rating is a raw score a participant gave a choice. Higher is better.
type Rating struct {
	ParticipantID string `json:"participant_id" yaml:"participant_id"`
	ChoiceID      string `json:"choice_id" yaml:"choice_id"`
	Score         int    `json:"score" yaml:"score"`
}

// Problem is the complete input of one solve.
type Problem struct {
	Choices      []ChoiceSpec `json:"choices" yaml:"choices"`
	Ratings      []Rating     `json:"ratings" yaml:"ratings"`
	Participants []string     `json:"participants" yaml:"participants"`
}

// Preferences maps a participant to its choice IDs, best first.
type Preferences map[string][]string

// Ranking maps a participant to its tie-break rank. Lower ranks win.
type Ranking map[string]int

// Capacities maps a choice to its current maximum size.
type Capacities map[string]int

// Clone returns an independent copy.
func (c Capacities) Clone() Capacities {
	out := make(Capacities, len(c))
	for id, n := range c {
		out[id] = n
	}
	return out
}

// Total sums all capacities.
func (c Capacities) Total() int {
	total := 0
	for _, n := range c {
		total += n
	}
	return total
}

// Matching is the converged state of one matcher run.
type Matching struct {
	// Held is the waiting list of every choice, ordered by ascending rank.
	Held map[string][]string
	// ChoiceOf maps every held participant to its choice.
	ChoiceOf map[string]string
	// Passes counts propose/reject rounds.
	Passes int
}

func newMatching(caps Capacities) Matching {
	m := Matching{
		Held:     make(map[string][]string, len(caps)),
		ChoiceOf: make(map[string]string),
	}
	for id := range caps {
		m.Held[id] = nil
	}
	return m
}

// Unassigned lists participants from the roster that hold no choice, sorted.
func (m Matching) Unassigned(participants []string) []string {
	var out []string
	for _, p := range participants {
		if _, ok := m.ChoiceOf[p]; !ok {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}

// ChoiceLoad holds the derived counters the Solver recomputes every iteration.
type ChoiceLoad struct {
	MissingPlaces      int
	MovableAssignments int
	FreePlaces         int
}

func loadOf(spec ChoiceSpec, held, capacity int) ChoiceLoad {
	return ChoiceLoad{
		MissingPlaces:      max(0, spec.MinSize-held),
		MovableAssignments: max(0, held-spec.MinSize),
		FreePlaces:         capacity - held,
	}
}

// sortedKeys returns the keys of m in ascending order.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
