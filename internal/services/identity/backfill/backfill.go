// Package backfill migrates records from the legacy unified user store into
// the role partitions, and reconciles the designated privileged identity.
package backfill

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/aftab-coresconnect/Internal-Portal-Backend/internal/platform/id"
	"github.com/aftab-coresconnect/Internal-Portal-Backend/internal/services/identity/identity"
	"github.com/aftab-coresconnect/Internal-Portal-Backend/internal/services/identity/resolver"
	"github.com/aftab-coresconnect/Internal-Portal-Backend/internal/services/identity/storage"
)

// PrivilegedIdentity designates the administrator account that must exist
// after a backfill run.
type PrivilegedIdentity struct {
	Email       string
	Password    string
	DisplayName string
}

// PrivilegedOutcome reports what the upsert did.
type PrivilegedOutcome string

const (
	PrivilegedCreated PrivilegedOutcome = "created"
	PrivilegedReset   PrivilegedOutcome = "reset"
	PrivilegedSkipped PrivilegedOutcome = "skipped"
)

// Report summarizes one backfill run. Running twice over the same legacy
// data moves everything into SkippedExisting on the second pass.
type Report struct {
	Scanned         int                   `json:"scanned"`
	Migrated        map[identity.Role]int `json:"migrated"`
	SkippedExisting int                   `json:"skippedExisting"`
	SkippedInvalid  int                   `json:"skippedInvalid"`
	Failures        []Failure             `json:"failures,omitempty"`
	Privileged      PrivilegedOutcome     `json:"privileged"`
}

// Failure records a legacy record that could not be migrated.
type Failure struct {
	LegacyID string `json:"legacyId"`
	Email    string `json:"email"`
	Reason   string `json:"reason"`
}

// Runner performs the legacy migration. It is safe to run repeatedly:
// records whose email already exists anywhere in the partitioned store are
// treated as already migrated.
type Runner struct {
	legacy   storage.LegacyStore
	store    storage.Store
	resolver *resolver.Resolver
	now      func() time.Time
	newID    func() (string, error)
}

// New creates a backfill runner over the given stores.
func New(legacy storage.LegacyStore, store storage.Store) *Runner {
	return &Runner{
		legacy:   legacy,
		store:    store,
		resolver: resolver.New(store),
		now:      time.Now,
		newID:    id.NewID,
	}
}

// NewWithClock creates a runner with injected time and id sources.
func NewWithClock(legacy storage.LegacyStore, store storage.Store, now func() time.Time, newID func() (string, error)) *Runner {
	runner := New(legacy, store)
	if now != nil {
		runner.now = now
	}
	if newID != nil {
		runner.newID = newID
	}
	return runner
}

// Run migrates every legacy record into the partition selected by its role
// tag, then ensures the privileged identity exists when admin is non-nil.
//
// Unrecognized role tags land in the developer partition. Legacy ids are
// discarded; every migrated record gets a fresh partition-scoped id.
func (r *Runner) Run(ctx context.Context, admin *PrivilegedIdentity) (Report, error) {
	report := Report{
		Migrated:   make(map[identity.Role]int),
		Privileged: PrivilegedSkipped,
	}

	legacyRecords, err := r.legacy.ListLegacyRecords(ctx)
	if err != nil {
		return report, fmt.Errorf("list legacy records: %w", err)
	}

	for _, legacyRecord := range legacyRecords {
		report.Scanned++

		email := identity.NormalizeEmail(legacyRecord.Email)
		if identity.ValidateEmail(email) != nil {
			report.SkippedInvalid++
			continue
		}

		// The uniqueness gate spans all partitions, not just the target
		// one: a record that moved partitions since the legacy export must
		// not come back as a duplicate under its old role.
		exists, err := r.resolver.EmailExists(ctx, email)
		if err != nil {
			return report, fmt.Errorf("check email %q: %w", email, err)
		}
		if exists {
			report.SkippedExisting++
			continue
		}

		role := mapLegacyRole(legacyRecord.RoleTag)
		record, err := r.recordFromLegacy(legacyRecord, email, role)
		if err != nil {
			report.Failures = append(report.Failures, Failure{
				LegacyID: legacyRecord.LegacyID,
				Email:    email,
				Reason:   err.Error(),
			})
			continue
		}

		if err := r.store.Partition(role).Create(ctx, record); err != nil {
			if errors.Is(err, storage.ErrDuplicate) {
				report.SkippedExisting++
				continue
			}
			report.Failures = append(report.Failures, Failure{
				LegacyID: legacyRecord.LegacyID,
				Email:    email,
				Reason:   err.Error(),
			})
			continue
		}
		report.Migrated[role]++
	}

	if admin != nil {
		outcome, err := r.EnsurePrivileged(ctx, *admin)
		if err != nil {
			return report, err
		}
		report.Privileged = outcome
	}
	return report, nil
}

// EnsurePrivileged upserts the designated administrator: resets the
// credential when the email resolves anywhere, creates an administrator
// record otherwise. Unrelated fields are left untouched.
func (r *Runner) EnsurePrivileged(ctx context.Context, admin PrivilegedIdentity) (PrivilegedOutcome, error) {
	email := identity.NormalizeEmail(admin.Email)
	if err := identity.ValidateEmail(email); err != nil {
		return PrivilegedSkipped, fmt.Errorf("privileged identity email: %w", err)
	}
	if admin.Password == "" {
		return PrivilegedSkipped, errors.New("privileged identity password is required")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(admin.Password), bcrypt.DefaultCost)
	if err != nil {
		return PrivilegedSkipped, fmt.Errorf("hash privileged credential: %w", err)
	}

	match, err := r.resolver.ResolveByEmail(ctx, email)
	switch {
	case err == nil:
		record := match.Record
		record.HashedCredential = string(hashed)
		if strings.TrimSpace(record.DisplayName) == "" {
			record.DisplayName = displayNameOrDefault(admin.DisplayName)
		}
		record.UpdatedAt = r.now().UTC()
		if err := r.store.Partition(match.Partition).Update(ctx, record); err != nil {
			return PrivilegedSkipped, fmt.Errorf("reset privileged credential: %w", err)
		}
		return PrivilegedReset, nil
	case errors.Is(err, resolver.ErrIdentityNotFound):
		record, err := identity.NewRecord(identity.CreateRecordInput{
			Email:            email,
			HashedCredential: string(hashed),
			DisplayName:      displayNameOrDefault(admin.DisplayName),
			Role:             identity.RoleAdministrator,
		}, r.now, r.newID)
		if err != nil {
			return PrivilegedSkipped, err
		}
		if err := r.store.Partition(identity.RoleAdministrator).Create(ctx, record); err != nil {
			return PrivilegedSkipped, fmt.Errorf("create privileged identity: %w", err)
		}
		return PrivilegedCreated, nil
	default:
		return PrivilegedSkipped, fmt.Errorf("resolve privileged identity: %w", err)
	}
}

func (r *Runner) recordFromLegacy(legacyRecord storage.LegacyRecord, email string, role identity.Role) (identity.Record, error) {
	record, err := identity.NewRecord(identity.CreateRecordInput{
		Email:            email,
		HashedCredential: legacyRecord.HashedCredential,
		DisplayName:      legacyRecord.DisplayName,
		Role:             role,
		Attrs:            legacyRecord.Attrs,
	}, r.now, r.newID)
	if err != nil {
		return identity.Record{}, err
	}
	if !legacyRecord.CreatedAt.IsZero() {
		record.CreatedAt = legacyRecord.CreatedAt.UTC()
	}
	if !legacyRecord.UpdatedAt.IsZero() {
		record.UpdatedAt = legacyRecord.UpdatedAt.UTC()
	}
	return record, nil
}

// mapLegacyRole is deliberately lenient: explicit creation rejects unknown
// roles, but the legacy store predates the partition set and carries tags
// like "user" or free-form team names. Those land with the developers.
func mapLegacyRole(roleTag string) identity.Role {
	role, err := identity.ParseRole(strings.ToLower(strings.TrimSpace(roleTag)))
	if err != nil {
		return identity.RoleDeveloper
	}
	return role
}

func displayNameOrDefault(displayName string) string {
	if strings.TrimSpace(displayName) == "" {
		return "Portal Administrator"
	}
	return displayName
}
