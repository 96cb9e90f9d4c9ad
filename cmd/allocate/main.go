// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Command allocate runs the matching solver on a problem file without the
// API server.
//
//	allocate solve --input problem.yaml --seed 42 --report
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/danielhkuo/quickly-assign/matching"
)

func main() {
	app := &cli.App{
		Name:  "allocate",
		Usage: "Utility for solving allocation problems offline",
		Commands: []*cli.Command{
			solveCmd,
			algorithmsCmd,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

var solveCmd = &cli.Command{
	Name:    "solve",
	Usage:   "Assign participants to choices",
	Aliases: []string{"s"},
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "input",
			Aliases:  []string{"i"},
			Required: true,
			Usage:    "specify the problem file (YAML or JSON)",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "specify the output result.json (stdout if empty)",
		},
		&cli.Int64Flag{
			Name:  "seed",
			Usage: "specify the tie-break seed (random if unset)",
		},
		&cli.StringFlag{
			Name:  "algorithm",
			Value: matching.NameDeferredAcceptance,
			Usage: "specify the matcher",
		},
		&cli.IntFlag{
			Name:  "max-iterations",
			Value: matching.DefaultMaxIterations,
			Usage: "specify the repair loop cap (negative disables it)",
		},
		&cli.BoolFlag{
			Name:  "report",
			Usage: "print a summary to stderr",
		},
		&cli.BoolFlag{
			Name:  "verbose",
			Usage: "log every repair iteration",
		},
	},
	Action: func(ctx *cli.Context) error {
		opts := solveOptions{
			Input:         ctx.String("input"),
			Output:        ctx.String("output"),
			Algorithm:     ctx.String("algorithm"),
			MaxIterations: ctx.Int("max-iterations"),
			Verbose:       ctx.Bool("verbose"),
		}
		if ctx.IsSet("seed") {
			seed := ctx.Int64("seed")
			opts.Seed = &seed
		}
		if opts.MaxIterations == 0 {
			return errors.New("invalid max-iterations")
		}

		result, err := doSolve(opts, os.Stdout)
		if err != nil {
			return err
		}
		if ctx.Bool("report") {
			writeReport(os.Stderr, result)
		}
		return nil
	},
}

var algorithmsCmd = &cli.Command{
	Name:  "algorithms",
	Usage: "List the available matchers",
	Action: func(ctx *cli.Context) error {
		for _, name := range matching.MatcherNames() {
			fmt.Fprintln(ctx.App.Writer, name)
		}
		return nil
	},
}
