package main

import (
	"time"

	"github.com/caarlos0/env/v6"
)

// config holds the environment-variable defaults every subcommand's flags
// fall back to, following mna-nenuphar's own env-first-then-flag-override
// convention: a flag explicitly set on the command line always wins, since
// SetFlags registers these as the flag's default value rather than reading
// the environment after flag.Parse.
type config struct {
	MemLimit int           `env:"A4_MEM_LIMIT" envDefault:"0"`
	Timeout  time.Duration `env:"A4_TIMEOUT" envDefault:"0"`
	Trace    bool          `env:"A4_TRACE" envDefault:"false"`
}

func loadConfig() config {
	var cfg config
	// Parse only fails on a malformed env value; falling back to the zero
	// config (everything unbounded, tracing off) is the same no-op behavior
	// an absent environment already produces, so the error is ignorable
	// here rather than fatal to starting the CLI at all.
	_ = env.Parse(&cfg)
	return cfg
}
