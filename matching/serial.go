// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package matching

type serialDictatorship struct{}

// SerialDictatorship returns a matcher that lets participants pick in rank
// order, each taking its best choice that still has room. With one global
// priority order it produces the same matching as DeferredAcceptance in a
// single pass.
func SerialDictatorship() Matcher {
	return serialDictatorship{}
}

func (serialDictatorship) Name() string {
	return NameSerialDictatorship
}

func (serialDictatorship) Match(prefs Preferences, ranking Ranking, caps Capacities) Matching {
	m := newMatching(caps)
	m.Passes = 1

	order := sortedKeys(prefs)
	ranking.Sort(order)

	for _, p := range order {
		for _, choiceID := range prefs[p] {
			capacity, ok := caps[choiceID]
			if !ok || len(m.Held[choiceID]) >= capacity {
				continue
			}
			m.Held[choiceID] = append(m.Held[choiceID], p)
			m.ChoiceOf[p] = choiceID
			break
		}
	}
	return m
}
