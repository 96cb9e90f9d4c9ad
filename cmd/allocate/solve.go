// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"

	"github.com/danielhkuo/quickly-assign/matching"
)

type solveOptions struct {
	Input         string
	Output        string
	Seed          *int64
	Algorithm     string
	MaxIterations int
	Verbose       bool
}

// parseProblem decodes a problem from YAML or JSON. When the roster is
// omitted it is taken from the ratings.
func parseProblem(data []byte) (matching.Problem, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return matching.Problem{}, fmt.Errorf("problem payload is empty")
	}
	var p matching.Problem
	if err := yaml.Unmarshal(data, &p); err != nil {
		return matching.Problem{}, fmt.Errorf("decode problem: %w", err)
	}

	if len(p.Participants) == 0 {
		seen := make(map[string]bool)
		for _, r := range p.Ratings {
			if !seen[r.ParticipantID] {
				seen[r.ParticipantID] = true
				p.Participants = append(p.Participants, r.ParticipantID)
			}
		}
		sort.Strings(p.Participants)
	}
	return p, nil
}

func loadProblem(path string) (matching.Problem, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return matching.Problem{}, fmt.Errorf("read %s: %w", path, err)
	}
	p, err := parseProblem(content)
	if err != nil {
		return matching.Problem{}, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// doSolve solves the input file and writes the result as JSON to the
// output file, or to stdout when no output is given.
func doSolve(opts solveOptions, stdout io.Writer) (*matching.Result, error) {
	p, err := loadProblem(opts.Input)
	if err != nil {
		return nil, fmt.Errorf("load problem failed: %w", err)
	}

	matcher, err := matching.NewMatcher(opts.Algorithm)
	if err != nil {
		return nil, err
	}

	level := slog.LevelWarn
	if opts.Verbose {
		level = slog.LevelDebug
	}
	solver := matching.Solver{
		Matcher:       matcher,
		MaxIterations: opts.MaxIterations,
		Logger:        slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})),
	}

	seed := rand.Int63()
	if opts.Seed != nil {
		seed = *opts.Seed
	}
	result, err := solver.SolveSeed(p, seed)
	if err != nil {
		return nil, fmt.Errorf("solve failed (seed %d): %w", seed, err)
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, err
	}
	out = append(out, '\n')

	if opts.Output == "" {
		_, err = stdout.Write(out)
	} else {
		err = os.WriteFile(opts.Output, out, 0o644)
	}
	if err != nil {
		return nil, fmt.Errorf("write result failed: %w", err)
	}
	return result, nil
}

// writeReport prints a human summary of a result.
func writeReport(w io.Writer, r *matching.Result) {
	assigned := len(r.Positions)
	total := assigned + len(r.Unassigned)
	fmt.Fprintf(w, "Assigned %s of %s participants in %s (seed %d)\n",
		humanize.Comma(int64(assigned)), humanize.Comma(int64(total)),
		pluralize(r.Iterations, "iteration"), r.Seed)

	for i, n := range r.PositionCounts() {
		if n == 0 {
			continue
		}
		fmt.Fprintf(w, "  %s choice: %s\n", humanize.Ordinal(i+1), humanize.Comma(int64(n)))
	}
	if len(r.ClosedChoices) > 0 {
		fmt.Fprintf(w, "Closed: %s\n", strings.Join(r.ClosedChoices, ", "))
	}
	if len(r.Unassigned) > 0 {
		fmt.Fprintf(w, "Unassigned: %s\n", strings.Join(r.Unassigned, ", "))
	}
}

func pluralize(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return humanize.Comma(int64(n)) + " " + noun + "s"
}
