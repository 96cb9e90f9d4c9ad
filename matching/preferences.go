// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package matching

import "sort"

// UnwillingScore marks a choice the participant refuses to join.
const UnwillingScore = 0

// PreferencePolicy controls which ratings make it into a preference list.
type PreferencePolicy struct {
	// MinScore is the lowest score still counted as a preference.
	MinScore int
}

// DefaultPreferencePolicy drops unwilling (zero) ratings.
var DefaultPreferencePolicy = PreferencePolicy{MinScore: UnwillingScore + 1}

// BuildPreferences turns raw ratings into one ordered list per participant.
//
// Lists are sorted by descending score, ties by ascending choice ID.
// Ratings below the policy minimum, and ratings that reference unknown
// participants or choices, are skipped. Every roster participant gets an
// entry, possibly empty. If a participant rated the same choice twice the
// last rating wins.
func BuildPreferences(participants []string, choices []ChoiceSpec, ratings []Rating, policy PreferencePolicy) Preferences {
	known := make(map[string]bool, len(choices))
	for _, c := range choices {
		known[c.ID] = true
	}

	scores := make(map[string]map[string]int, len(participants))
	for _, p := range participants {
		scores[p] = make(map[string]int)
	}
	for _, r := range ratings {
		byChoice, ok := scores[r.ParticipantID]
		if !ok || !known[r.ChoiceID] {
			continue
		}
		byChoice[r.ChoiceID] = r.Score
	}

	prefs := make(Preferences, len(participants))
	for p, byChoice := range scores {
		list := make([]string, 0, len(byChoice))
		for choiceID, score := range byChoice {
			if score < policy.MinScore {
				continue
			}
			list = append(list, choiceID)
		}
		sort.Slice(list, func(i, j int) bool {
			a, b := byChoice[list[i]], byChoice[list[j]]
			if a != b {
				return a > b
			}
			return list[i] < list[j]
		})
		prefs[p] = list
	}
	return prefs
}

// Clone returns a deep copy so matchers can consume lists freely.
func (p Preferences) Clone() Preferences {
	out := make(Preferences, len(p))
	for id, list := range p {
		out[id] = append([]string(nil), list...)
	}
	return out
}

// Position returns the 0-based index of choiceID in participant's list, or -1.
func (p Preferences) Position(participant, choiceID string) int {
	for i, c := range p[participant] {
		if c == choiceID {
			return i
		}
	}
	return -1
}
