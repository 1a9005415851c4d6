// Package backfill implements the legacy-migration command.
package backfill

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"time"

	"github.com/aftab-coresconnect/Internal-Portal-Backend/internal/platform/config"
	"github.com/aftab-coresconnect/Internal-Portal-Backend/internal/services/identity/backfill"
	"github.com/aftab-coresconnect/Internal-Portal-Backend/internal/services/identity/identity"
	"github.com/aftab-coresconnect/Internal-Portal-Backend/internal/services/identity/storage"
	"github.com/aftab-coresconnect/Internal-Portal-Backend/internal/services/identity/storage/sqlite"
)

// Config holds backfill command configuration.
type Config struct {
	IdentityDBPath string        `env:"PORTAL_IDENTITY_DB_PATH"`
	AdminEmail     string        `env:"PORTAL_ADMIN_EMAIL"`
	AdminPassword  string        `env:"PORTAL_ADMIN_PASSWORD"`
	AdminName      string        `env:"PORTAL_ADMIN_NAME"`
	Timeout        time.Duration `env:"PORTAL_BACKFILL_TIMEOUT" envDefault:"10m"`
	SkipAdmin      bool
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

	fs.StringVar(&cfg.IdentityDBPath, "identity-db", cfg.IdentityDBPath, "path to identity sqlite database (default: PORTAL_IDENTITY_DB_PATH or data/identity.db)")
	fs.StringVar(&cfg.AdminEmail, "admin-email", cfg.AdminEmail, "designated administrator email (default: PORTAL_ADMIN_EMAIL)")
	fs.StringVar(&cfg.AdminPassword, "admin-password", cfg.AdminPassword, "designated administrator password (default: PORTAL_ADMIN_PASSWORD)")
	fs.StringVar(&cfg.AdminName, "admin-name", cfg.AdminName, "designated administrator display name")
	fs.BoolVar(&cfg.SkipAdmin, "skip-admin", false, "skip the privileged-identity upsert")
	fs.BoolVar(&cfg.JSONOutput, "json", false, "output the migration report as JSON")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "overall timeout")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type closableStore interface {
	storage.Store
	storage.LegacyStore
	Close() error
}

// Run opens the identity store and executes the backfill.
func Run(ctx context.Context, cfg Config, out io.Writer, errOut io.Writer) error {
	store, err := sqlite.Open(cfg.IdentityDBPath)
	if err != nil {
		return fmt.Errorf("open identity store: %w", err)
	}
	return runWithDeps(ctx, cfg, store, out, errOut)
}

func runWithDeps(ctx context.Context, cfg Config, store closableStore, out io.Writer, errOut io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	if errOut == nil {
		errOut = io.Discard
	}
	defer func() {
		if err := store.Close(); err != nil {
			fmt.Fprintf(errOut, "close identity store: %v\n", err)
		}
	}()

	var admin *backfill.PrivilegedIdentity
	if !cfg.SkipAdmin {
		if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
			return errors.New("admin email and password are required (or pass -skip-admin)")
		}
		admin = &backfill.PrivilegedIdentity{
			Email:       cfg.AdminEmail,
			Password:    cfg.AdminPassword,
			DisplayName: cfg.AdminName,
		}
	}

	report, err := backfill.New(store, store).Run(ctx, admin)
	if err != nil {
		return err
	}
	return writeReport(out, cfg.JSONOutput, report)
}

func writeReport(out io.Writer, asJSON bool, report backfill.Report) error {
	if asJSON {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(report)
	}

	fmt.Fprintf(out, "scanned %d legacy records\n", report.Scanned)
	roles := make([]string, 0, len(report.Migrated))
	for role := range report.Migrated {
		roles = append(roles, string(role))
	}
	sort.Strings(roles)
	for _, role := range roles {
		fmt.Fprintf(out, "  migrated %d into %s\n", report.Migrated[identity.Role(role)], role)
	}
	fmt.Fprintf(out, "skipped %d already-migrated, %d invalid\n", report.SkippedExisting, report.SkippedInvalid)
	for _, failure := range report.Failures {
		fmt.Fprintf(out, "  failed %s (%s): %s\n", failure.LegacyID, failure.Email, failure.Reason)
	}
	fmt.Fprintf(out, "privileged identity: %s\n", report.Privileged)
	return nil
}
