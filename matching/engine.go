// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package matching

type deferredAcceptance struct{}

// DeferredAcceptance returns the participant-proposing deferred acceptance
// matcher with capacities.
func DeferredAcceptance() Matcher {
	return deferredAcceptance{}
}

func (deferredAcceptance) Name() string {
	return NameDeferredAcceptance
}

// Match alternates a propose pass and a reject pass until a reject pass
// evicts nobody. Each participant proposes to each choice at most once, so
// the loop runs at most N×G+1 passes.
func (deferredAcceptance) Match(prefs Preferences, ranking Ranking, caps Capacities) Matching {
	m := newMatching(caps)
	participants := sortedKeys(prefs)
	choices := sortedKeys(caps)

	// next[p] is the index of p's best choice not yet proposed to.
	next := make(map[string]int, len(participants))

	for {
		m.Passes++

		for _, p := range participants {
			if _, held := m.ChoiceOf[p]; held {
				continue
			}
			list := prefs[p]
			for next[p] < len(list) {
				choiceID := list[next[p]]
				next[p]++
				if _, ok := caps[choiceID]; !ok {
					continue
				}
				m.Held[choiceID] = append(m.Held[choiceID], p)
				m.ChoiceOf[p] = choiceID
				break
			}
		}

		rejected := false
		for _, choiceID := range choices {
			waiting := m.Held[choiceID]
			ranking.Sort(waiting)

			limit := max(0, caps[choiceID])
			if len(waiting) <= limit {
				continue
			}
			for _, p := range waiting[limit:] {
				delete(m.ChoiceOf, p)
			}
			m.Held[choiceID] = waiting[:limit:limit]
			rejected = true
		}

		if !rejected {
			return m
		}
	}
}
