// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

LoadDotEnv pulls a .env file into the environment, then ParseFlags returns
a Config struct with all settings:

	if err := cliparse.LoadDotEnv(); err != nil {
		log.Fatal(err)
	}
	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Config Fields

  - Port: Server listen port (default: 3318)
  - DatabaseURL: connection string or SQLite file (required)
  - DatabaseType: sqlite or postgres (default: sqlite)
  - AdminKeySalt: Secret for admin key HMAC (required)
  - AllocationSlugSalt: Secret for share slug generation (required)
  - Algorithm: matcher name (default: deferred-acceptance)
  - MaxIterations: repair iteration cap (default: 10000, negative disables)

# Environment Variables

Flags fall back to environment variables:

	PORT                  → -p
	DATABASE_URL          → -d
	DATABASE_TYPE         → -t
	MATCHING_ALGORITHM    → -algorithm
	MAX_REPAIR_ITERATIONS → -max-iterations
	ADMIN_KEY_SALT        → -admin-salt
	ALLOCATION_SLUG_SALT  → -slug-salt

CLI flags take precedence over environment variables, and variables
already in the environment take precedence over the .env file.
*/
package cliparse
