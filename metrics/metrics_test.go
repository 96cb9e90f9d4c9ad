// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestNop(t *testing.T) {
	require.NotPanics(t, func() {
		Nop{}.RecordSolve(SolveStats{Outcome: OutcomeOK, Iterations: 3})
	})
}

func TestPrometheus_RecordSolve(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	p := NewPrometheus(reg, "test")

	p.RecordSolve(SolveStats{
		Outcome:        OutcomeOK,
		Iterations:     3,
		ClosedChoices:  1,
		Duration:       5 * time.Millisecond,
		PositionCounts: []int{4, 0, 2},
	})
	p.RecordSolve(SolveStats{Outcome: OutcomeUnsolvable, Iterations: 7, ClosedChoices: 2})
	p.RecordSolve(SolveStats{})

	require.Equal(t, 1.0, testutil.ToFloat64(p.solves.WithLabelValues(OutcomeOK)))
	require.Equal(t, 1.0, testutil.ToFloat64(p.solves.WithLabelValues(OutcomeUnsolvable)))
	require.Equal(t, 1.0, testutil.ToFloat64(p.solves.WithLabelValues(OutcomeError)))

	// Failed solves do not count towards closed choices
	require.Equal(t, 1.0, testutil.ToFloat64(p.closedChoices))

	require.Equal(t, 4.0, testutil.ToFloat64(p.assignedPosition.WithLabelValues("1")))
	require.Equal(t, 2.0, testutil.ToFloat64(p.assignedPosition.WithLabelValues("3")))
	require.Equal(t, 2, testutil.CollectAndCount(p.assignedPosition))

	require.Equal(t, 1, testutil.CollectAndCount(p.repairIterations))
	require.Equal(t, 1, testutil.CollectAndCount(p.solveDuration))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	require.Contains(t, names, "test_solves_total")
	require.Contains(t, names, "test_repair_iterations")
	require.Contains(t, names, "test_closed_choices_total")
	require.Contains(t, names, "test_solve_duration_seconds")
}

func TestPrometheus_DefaultNamespace(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewPrometheus(reg, "")
	p.RecordSolve(SolveStats{Outcome: OutcomeInfeasible})

	families, err := reg.Gather()
	require.NoError(t, err)
	var found bool
	for _, f := range families {
		if f.GetName() == "quickly_assign_solves_total" {
			found = true
		}
	}
	require.True(t, found, "expected quickly_assign_solves_total to be registered")
}

func TestPositionLabel(t *testing.T) {
	require.Equal(t, "1", positionLabel(0))
	require.Equal(t, "10", positionLabel(9))
	require.Equal(t, "11+", positionLabel(10))
	require.Equal(t, "11+", positionLabel(42))
}
