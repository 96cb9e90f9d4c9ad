// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package matching assigns participants to capacity-bounded choices from
their ratings.

# Pipeline

A solve runs in four steps:

	prefs := BuildPreferences(participants, choices, ratings, DefaultPreferencePolicy)
	ranking := NewRanking(participants, rng)
	m := matcher.Match(prefs, ranking, caps)
	// Solver repairs caps until every open choice reaches its minimum

Most callers only need Solve:

	result, err := matching.Solve(problem, seed)

# Deferred Acceptance

Participants propose to their best remaining choice. Every choice keeps
the proposers with the lowest tie-break rank up to its capacity and
rejects the rest, who move on to their next preference. The loop ends
when a pass rejects nobody.

# Repair

When a converged matching leaves some choice under its minimum, the
Solver either shrinks the capacity of choices holding more than their
minimum (freeing exactly the missing seats) or closes an optional choice
and starts over. It fails with ErrUnsolvable when neither is possible.

The tie-break ranking is drawn once per solve so every repair iteration
sees the same priorities.
*/
package matching
