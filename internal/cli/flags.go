package cli

import (
	"flag"

	"github.com/openledgerhq/orders-to-cash/internal/application/reconcile"
)

// RunFlags are the command line flags for the reconcile command
type RunFlags struct {
	ConfigPath string
	DryRun     bool
	Verbose    bool
}

// ParseRunFlags parses reconcile flags from the command line
func ParseRunFlags() RunFlags {
	var flags RunFlags
	flag.StringVar(&flags.ConfigPath, "config", "", "Path to config file (falls back to RECON_* env vars)")
	flag.BoolVar(&flags.DryRun, "dry-run", false, "Run without persisting results")
	flag.BoolVar(&flags.Verbose, "verbose", false, "Verbose output")
	flag.Parse()
	return flags
}

// ToOptions converts RunFlags to reconcile.Options
func (f RunFlags) ToOptions() reconcile.Options {
	return reconcile.Options{DryRun: f.DryRun}
}
