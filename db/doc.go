// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db opens the database and creates the schema.

# Connecting

Open selects the driver by type, "postgres" (lib/pq) or "sqlite"
(modernc.org/sqlite), and pings before returning:

	conn, err := db.Open(cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

CreateSchema is safe to call multiple times. Queries use $N placeholders,
which both drivers accept.

# Tables

  - allocation: allocation metadata and lifecycle state
  - choice: groups with min/max size and optional flag
  - participant: display names and participant tokens
  - rating: one score per participant per choice
  - result_snapshot: immutable solve results

# Relationships

	allocation 1──* choice
	allocation 1──* participant
	participant 1──* rating *──1 choice
	allocation 1──* result_snapshot

All foreign keys use ON DELETE CASCADE.

IsUniqueViolation recognises a unique-constraint failure from either
driver, so handlers can map duplicate names to 409 Conflict.
*/
package db
