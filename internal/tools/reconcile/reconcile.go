// Package reconcile implements the consistency-sweep command.
package reconcile

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"time"

	"github.com/aftab-coresconnect/Internal-Portal-Backend/internal/platform/config"
	"github.com/aftab-coresconnect/Internal-Portal-Backend/internal/services/identity/identity"
	idstorage "github.com/aftab-coresconnect/Internal-Portal-Backend/internal/services/identity/storage"
	idsqlite "github.com/aftab-coresconnect/Internal-Portal-Backend/internal/services/identity/storage/sqlite"
	"github.com/aftab-coresconnect/Internal-Portal-Backend/internal/services/tracking/reconcile"
	"github.com/aftab-coresconnect/Internal-Portal-Backend/internal/services/tracking/storage"
	"github.com/aftab-coresconnect/Internal-Portal-Backend/internal/services/tracking/storage/sqlite"
)

// Config holds reconcile command configuration.
type Config struct {
	IdentityDBPath string        `env:"PORTAL_IDENTITY_DB_PATH"`
	TrackingDBPath string        `env:"PORTAL_TRACKING_DB_PATH"`
	Timeout        time.Duration `env:"PORTAL_RECONCILE_TIMEOUT" envDefault:"10m"`
	ApplyCounters  bool
	JSONOutput     bool
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if cfg.IdentityDBPath == "" {
		cfg.IdentityDBPath = filepath.Join("data", "identity.db")
	}
	if cfg.TrackingDBPath == "" {
		cfg.TrackingDBPath = filepath.Join("data", "tracking.db")
	}

	fs.StringVar(&cfg.IdentityDBPath, "identity-db", cfg.IdentityDBPath, "path to identity sqlite database (default: PORTAL_IDENTITY_DB_PATH or data/identity.db)")
	fs.StringVar(&cfg.TrackingDBPath, "tracking-db", cfg.TrackingDBPath, "path to tracking sqlite database (default: PORTAL_TRACKING_DB_PATH or data/tracking.db)")
	fs.BoolVar(&cfg.ApplyCounters, "apply-counters", false, "publish recomputed counters to administrator records")
	fs.BoolVar(&cfg.JSONOutput, "json", false, "output the consistency report as JSON")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "overall timeout")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type closableIdentityStore interface {
	idstorage.Store
	Close() error
}

type closableTrackingStore interface {
	storage.Store
	Close() error
}

// Run opens both stores and executes the sweep.
func Run(ctx context.Context, cfg Config, out io.Writer, errOut io.Writer) error {
	identities, err := idsqlite.Open(cfg.IdentityDBPath)
	if err != nil {
		return fmt.Errorf("open identity store: %w", err)
	}
	tracking, err := sqlite.Open(cfg.TrackingDBPath)
	if err != nil {
		_ = identities.Close()
		return fmt.Errorf("open tracking store: %w", err)
	}
	return runWithDeps(ctx, cfg, identities, tracking, out, errOut)
}

func runWithDeps(ctx context.Context, cfg Config, identities closableIdentityStore, tracking closableTrackingStore, out io.Writer, errOut io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	if errOut == nil {
		errOut = io.Discard
	}
	defer func() {
		if err := identities.Close(); err != nil {
			fmt.Fprintf(errOut, "close identity store: %v\n", err)
		}
		if err := tracking.Close(); err != nil {
			fmt.Fprintf(errOut, "close tracking store: %v\n", err)
		}
	}()

	reconciler := reconcile.New(identities, tracking)
	report, err := reconciler.Reconcile(ctx)
	if err != nil {
		return err
	}
	if cfg.ApplyCounters {
		if err := reconciler.ApplyCounters(ctx, report); err != nil {
			return err
		}
	}
	return writeReport(out, cfg, report)
}

func writeReport(out io.Writer, cfg Config, report reconcile.Report) error {
	if cfg.JSONOutput {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(report)
	}

	fmt.Fprintf(out, "generated at %s\n", report.GeneratedAt.Format(time.RFC3339))
	roles := make([]string, 0, len(report.Counters.PartitionHeads))
	for role := range report.Counters.PartitionHeads {
		roles = append(roles, string(role))
	}
	sort.Strings(roles)
	for _, role := range roles {
		fmt.Fprintf(out, "  %s: %d identities\n", role, report.Counters.PartitionHeads[identity.Role(role)])
	}
	fmt.Fprintf(out, "clients: %d, projects: %d, milestones: %d\n",
		report.Counters.Clients, report.Counters.Projects, report.Counters.Milestones)
	fmt.Fprintf(out, "blocked projects: %d\n", report.Counters.BlockedProjects)

	if len(report.Irregularities) == 0 {
		fmt.Fprintln(out, "no irregularities found")
	} else {
		fmt.Fprintf(out, "%d irregularities:\n", len(report.Irregularities))
		for _, irregularity := range report.Irregularities {
			fmt.Fprintf(out, "  [%s] %s\n", irregularity.Kind, irregularity.Detail)
		}
	}
	if cfg.ApplyCounters {
		fmt.Fprintln(out, "counters published to administrator records")
	}
	return nil
}
