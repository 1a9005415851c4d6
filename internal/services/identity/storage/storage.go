// Package storage defines persistence contracts for identity partitions.
//
// Partitions are written only through the resolver and transition packages;
// no other code path may create identity records directly, because the
// cross-partition email-uniqueness invariant has no database constraint
// backing it.
package storage

import (
	"context"
	"time"

	apperrors "github.com/aftab-coresconnect/Internal-Portal-Backend/internal/platform/errors"
	"github.com/aftab-coresconnect/Internal-Portal-Backend/internal/services/identity/identity"
)

// ErrNotFound indicates a requested record is missing.
var ErrNotFound = apperrors.New(apperrors.CodeNotFound, "record not found")

// ErrDuplicate indicates a create collided with an existing record in the
// same partition (id or email).
var ErrDuplicate = apperrors.New(apperrors.CodeIdentityEmailConflict, "record already exists in partition")

// Partition persists identity records for a single role class. One
// implementation exists per partition, selected via the role tag; callers
// never branch on role themselves.
type Partition interface {
	// Role returns the partition's role tag.
	Role() identity.Role
	FindByID(ctx context.Context, recordID string) (identity.Record, error)
	FindByEmail(ctx context.Context, email string) (identity.Record, error)
	Create(ctx context.Context, record identity.Record) error
	Update(ctx context.Context, record identity.Record) error
	Delete(ctx context.Context, recordID string) error
	List(ctx context.Context) ([]identity.Record, error)
	Count(ctx context.Context) (int64, error)
}

// Store bundles the five partitions.
type Store interface {
	// Partition returns the partition for a role, or nil for unknown roles.
	Partition(role identity.Role) Partition
	// Partitions returns all partitions in resolution priority order.
	Partitions() []Partition
}

// LegacyRecord is one row of the pre-partition unified user collection.
// RoleTag is free-form; the backfill maps unrecognized tags to the
// developer partition.
type LegacyRecord struct {
	LegacyID         string
	Email            string
	HashedCredential string
	DisplayName      string
	RoleTag          string
	Attrs            map[string]any
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// LegacyStore reads the legacy unified collection for the one-shot backfill.
type LegacyStore interface {
	ListLegacyRecords(ctx context.Context) ([]LegacyRecord, error)
}
