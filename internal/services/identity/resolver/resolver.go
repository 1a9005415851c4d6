// Package resolver locates identity records across the role partitions.
//
// The resolver is the single read gate for identities and the single
// uniqueness gate for creates. Partition probe order is fixed
// (administrator, developer, designer, project-manager, client): during a
// transient inconsistency window two partitions can hold the same email, and
// deterministic precedence keeps authentication outcomes unambiguous.
package resolver

import (
	"context"
	"errors"
	"fmt"

	apperrors "github.com/aftab-coresconnect/Internal-Portal-Backend/internal/platform/errors"
	"github.com/aftab-coresconnect/Internal-Portal-Backend/internal/services/identity/identity"
	"github.com/aftab-coresconnect/Internal-Portal-Backend/internal/services/identity/storage"
)

// ErrIdentityNotFound indicates no partition holds the requested identity.
var ErrIdentityNotFound = apperrors.New(apperrors.CodeIdentityNotFound, "identity not found in any partition")

// Resolver probes the role partitions in priority order.
type Resolver struct {
	store storage.Store
}

// New creates a resolver over the partition store.
func New(store storage.Store) *Resolver {
	return &Resolver{store: store}
}

// Match is a resolved identity paired with the partition it was found in.
type Match struct {
	Record    identity.Record
	Partition identity.Role
}

// ResolveByEmail returns the first record matching the email, probing every
// partition in priority order. It reports ErrIdentityNotFound only after all
// partitions have been checked.
func (r *Resolver) ResolveByEmail(ctx context.Context, email string) (Match, error) {
	normalized := identity.NormalizeEmail(email)
	if err := identity.ValidateEmail(normalized); err != nil {
		return Match{}, err
	}
	return r.probe(ctx, func(p storage.Partition) (identity.Record, error) {
		return p.FindByEmail(ctx, normalized)
	})
}

// ResolveByID returns the first record matching the id, probing every
// partition in priority order. IDs are partition-scoped, so a hit in an
// earlier partition is authoritative.
func (r *Resolver) ResolveByID(ctx context.Context, recordID string) (Match, error) {
	if recordID == "" {
		return Match{}, ErrIdentityNotFound
	}
	return r.probe(ctx, func(p storage.Partition) (identity.Record, error) {
		return p.FindByID(ctx, recordID)
	})
}

// EmailExists reports whether any of the five partitions holds the email.
// Every create path must call this before inserting: checking a single
// partition cannot enforce the cross-partition uniqueness invariant.
func (r *Resolver) EmailExists(ctx context.Context, email string) (bool, error) {
	normalized := identity.NormalizeEmail(email)
	if err := identity.ValidateEmail(normalized); err != nil {
		return false, err
	}
	for _, p := range r.store.Partitions() {
		_, err := p.FindByEmail(ctx, normalized)
		if err == nil {
			return true, nil
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return false, fmt.Errorf("probe %s partition: %w", p.Role(), err)
		}
	}
	return false, nil
}

func (r *Resolver) probe(ctx context.Context, find func(storage.Partition) (identity.Record, error)) (Match, error) {
	for _, p := range r.store.Partitions() {
		record, err := find(p)
		if err == nil {
			return Match{Record: record, Partition: p.Role()}, nil
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return Match{}, fmt.Errorf("probe %s partition: %w", p.Role(), err)
		}
	}
	return Match{}, ErrIdentityNotFound
}
