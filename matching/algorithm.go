// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package matching

import "fmt"

// Matcher names accepted by NewMatcher.
const (
	NameDeferredAcceptance = "deferred-acceptance"
	NameSerialDictatorship = "serial-dictatorship"
)

// Matcher computes a matching for a fixed set of capacities.
//
// Implementations must be deterministic for identical inputs and must not
// mutate prefs, ranking or caps.
type Matcher interface {
	// Name is the config name of the strategy.
	Name() string

	// Match runs the strategy to convergence.
	Match(prefs Preferences, ranking Ranking, caps Capacities) Matching
}

// NewMatcher is a factory that returns the strategy registered under name.
// An empty name selects deferred acceptance.
func NewMatcher(name string) (Matcher, error) {
	switch name {
	case "", NameDeferredAcceptance:
		return DeferredAcceptance(), nil
	case NameSerialDictatorship:
		return SerialDictatorship(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMatcher, name)
	}
}

// MatcherNames lists every name NewMatcher accepts.
func MatcherNames() []string {
	return []string{NameDeferredAcceptance, NameSerialDictatorship}
}
