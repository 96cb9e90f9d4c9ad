package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/danielhkuo/quickly-assign/matching"
)

type Config struct {
	Port               int
	DatabaseURL        string
	DatabaseType       string
	AdminKeySalt       string
	AllocationSlugSalt string
	Algorithm          string
	MaxIterations      int
}

// LoadDotEnv loads variables from .env files into the environment without
// overriding values that are already set. Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// ParseFlags validates flags and fills the rest from the environment
func ParseFlags(args []string) (Config, error) {
	var cfg Config

	fset := flag.NewFlagSet("quickly-assign", flag.ContinueOnError)

	// Network config (can be CLI args or env)
	fset.IntVar(&cfg.Port, "p", 0, "Server port")
	fset.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")
	fset.StringVar(&cfg.DatabaseType, "t", "", "Database type (sqlite or postgres)")

	// Solver
	fset.StringVar(&cfg.Algorithm, "algorithm", "", "Matching algorithm (deferred-acceptance or serial-dictatorship)")
	fset.IntVar(&cfg.MaxIterations, "max-iterations", 0, "Repair iteration cap (negative disables)")

	// Secrets (prefer env variables, but allow CLI for dev)
	fset.StringVar(&cfg.AdminKeySalt, "admin-salt", "", "Admin key salt (prefer env)")
	fset.StringVar(&cfg.AllocationSlugSalt, "slug-salt", "", "Allocation slug salt (prefer env)")

	if err := fset.Parse(args); err != nil {
		return Config{}, err
	}

	// Fall back to environment variables
	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = 3318 // default
		}
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
	}

	if cfg.DatabaseType == "" {
		cfg.DatabaseType = os.Getenv("DATABASE_TYPE")
		if cfg.DatabaseType == "" {
			cfg.DatabaseType = "sqlite"
		}
	}
	if cfg.DatabaseType != "sqlite" && cfg.DatabaseType != "postgres" {
		return Config{}, fmt.Errorf("invalid database type %q (want sqlite or postgres)", cfg.DatabaseType)
	}

	if cfg.Algorithm == "" {
		cfg.Algorithm = os.Getenv("MATCHING_ALGORITHM")
		if cfg.Algorithm == "" {
			cfg.Algorithm = matching.NameDeferredAcceptance
		}
	}
	if _, err := matching.NewMatcher(cfg.Algorithm); err != nil {
		return Config{}, err
	}

	if cfg.MaxIterations == 0 {
		if s := os.Getenv("MAX_REPAIR_ITERATIONS"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil {
				return Config{}, errors.New("invalid MAX_REPAIR_ITERATIONS env variable")
			}
			cfg.MaxIterations = n
		} else {
			cfg.MaxIterations = matching.DefaultMaxIterations
		}
	}

	// Secrets - MUST be provided
	if cfg.AdminKeySalt == "" {
		cfg.AdminKeySalt = os.Getenv("ADMIN_KEY_SALT")
	}
	if cfg.AdminKeySalt == "" {
		return Config{}, errors.New("ADMIN_KEY_SALT required")
	}

	if cfg.AllocationSlugSalt == "" {
		cfg.AllocationSlugSalt = os.Getenv("ALLOCATION_SLUG_SALT")
	}
	if cfg.AllocationSlugSalt == "" {
		return Config{}, errors.New("ALLOCATION_SLUG_SALT required")
	}

	return cfg, nil
}
