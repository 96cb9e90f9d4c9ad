// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the Quickly Assign API server.

Quickly Assign splits a group of participants across choices (workshops,
clubs, project teams) that each have a minimum and maximum size.
Participants rate every choice; when the organizer closes the allocation
the server runs capacitated deferred acceptance and repairs the capacities
until every open choice meets its minimum, closing optional choices that
cannot.

# Starting the Server

	go run . -t sqlite -d quickly-assign.db

Or against PostgreSQL:

	DATABASE_TYPE=postgres DATABASE_URL=postgres://... go run .

Settings are also read from a .env file in the working directory.

# Configuration

  - DATABASE_TYPE (-t): sqlite (default) or postgres
  - DATABASE_URL (-d): SQLite path or PostgreSQL connection string
  - ADMIN_KEY_SALT (--admin-salt): Secret for admin key HMAC
  - ALLOCATION_SLUG_SALT (--slug-salt): Secret for share slug generation
  - MATCHING_ALGORITHM (--algorithm): deferred-acceptance or serial-dictatorship
  - MAX_REPAIR_ITERATIONS (--max-iterations): Repair loop cap
  - PORT (-p): Server port (default: 3318)

# Architecture

  - matching: The solver (preferences, ranking, matchers, repair loop)
  - handlers: HTTP request handlers (allocations, participants, results)
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, request IDs, JSON helpers
  - metrics: Prometheus solve metrics
  - models: Request/response types
  - auth: Key, token and slug generation
  - db: Driver selection and schema creation
  - cliparse: Configuration parsing

The cmd/allocate tool runs the solver offline on a YAML or JSON file.
*/
package main
