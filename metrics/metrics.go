// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Solve outcomes used as the "outcome" label.
const (
	OutcomeOK             = "ok"
	OutcomeInvalid        = "invalid"
	OutcomeInfeasible     = "infeasible"
	OutcomeUnsolvable     = "unsolvable"
	OutcomeIterationLimit = "iteration_limit"
	OutcomeError          = "error"
)

// SolveStats describes one finished solve.
type SolveStats struct {
	Outcome       string
	Iterations    int
	ClosedChoices int
	Duration      time.Duration
	// PositionCounts[i] is the number of participants placed in their
	// (i+1)th preference.
	PositionCounts []int
}

// Recorder receives solve statistics.
type Recorder interface {
	RecordSolve(stats SolveStats)
}

// Nop discards everything.
type Nop struct{}

var _ Recorder = Nop{}

// RecordSolve does nothing.
func (Nop) RecordSolve(SolveStats) {}

// Prometheus is a Recorder backed by Prometheus collectors.
type Prometheus struct {
	reg       prometheus.Registerer
	namespace string
	once      sync.Once

	solves           *prometheus.CounterVec
	repairIterations prometheus.Histogram
	closedChoices    prometheus.Counter
	solveDuration    prometheus.Histogram
	assignedPosition *prometheus.CounterVec
}

var _ Recorder = (*Prometheus)(nil)

// NewPrometheus creates a recorder registering on reg (the default
// registerer if nil) under namespace ("quickly_assign" if empty).
// Collectors are registered lazily on first use.
func NewPrometheus(reg prometheus.Registerer, namespace string) *Prometheus {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "quickly_assign"
	}
	return &Prometheus{reg: reg, namespace: namespace}
}

func (p *Prometheus) ensureRegistered() {
	p.once.Do(func() {
		p.solves = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Name:      "solves_total",
			Help:      "Total solves by outcome.",
		}, []string{"outcome"})

		p.repairIterations = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Name:      "repair_iterations",
			Help:      "Matcher runs needed per successful solve.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12), // 1 .. 2048
		})

		p.closedChoices = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Name:      "closed_choices_total",
			Help:      "Optional choices closed by capacity repair.",
		})

		p.solveDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Name:      "solve_duration_seconds",
			Help:      "Wall time of a solve, including failed ones.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14), // 0.5ms .. ~4s
		})

		p.assignedPosition = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Name:      "assigned_position_total",
			Help:      "Participants placed by 1-indexed preference position.",
		}, []string{"position"})

		p.reg.MustRegister(p.solves)
		p.reg.MustRegister(p.repairIterations)
		p.reg.MustRegister(p.closedChoices)
		p.reg.MustRegister(p.solveDuration)
		p.reg.MustRegister(p.assignedPosition)
	})
}

// RecordSolve records one solve. Iteration, closed-choice and position
// metrics are only recorded for successful solves.
func (p *Prometheus) RecordSolve(stats SolveStats) {
	p.ensureRegistered()

	outcome := stats.Outcome
	if outcome == "" {
		outcome = OutcomeError
	}
	p.solves.WithLabelValues(outcome).Inc()
	p.solveDuration.Observe(stats.Duration.Seconds())

	if outcome != OutcomeOK {
		return
	}
	p.repairIterations.Observe(float64(stats.Iterations))
	p.closedChoices.Add(float64(stats.ClosedChoices))
	for i, n := range stats.PositionCounts {
		if n > 0 {
			p.assignedPosition.WithLabelValues(positionLabel(i)).Add(float64(n))
		}
	}
}

// positionLabel bounds label cardinality: positions past the tenth share
// one series.
func positionLabel(index int) string {
	const maxLabeled = 10
	if index >= maxLabeled {
		return "11+"
	}
	return strconv.Itoa(index + 1)
}
