// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package matching

import (
	"math/rand"
	"sort"
)

// NewRanking draws a uniformly random strict order over participants.
//
// IDs are sorted and de-duplicated before the permutation is applied, so
// the result depends only on the seed of rng and the participant set.
func NewRanking(participants []string, rng *rand.Rand) Ranking {
	ids := append([]string(nil), participants...)
	sort.Strings(ids)
	unique := ids[:0]
	for i, id := range ids {
		if i > 0 && id == ids[i-1] {
			continue
		}
		unique = append(unique, id)
	}

	perm := rng.Perm(len(unique))
	ranking := make(Ranking, len(unique))
	for i, id := range unique {
		ranking[id] = perm[i]
	}
	return ranking
}

// Less reports whether a has priority over b. Equal ranks (only possible
// for participants missing from the ranking) fall back to ID order.
func (r Ranking) Less(a, b string) bool {
	ra, rb := r[a], r[b]
	if ra != rb {
		return ra < rb
	}
	return a < b
}

// Sort orders ids in place by priority.
func (r Ranking) Sort(ids []string) {
	sort.Slice(ids, func(i, j int) bool { return r.Less(ids[i], ids[j]) })
}

// Order returns the ranked participants, highest priority first.
func (r Ranking) Order() []string {
	out := make([]string, 0, len(r))
	for id := range r {
		out = append(out, id)
	}
	r.Sort(out)
	return out
}
