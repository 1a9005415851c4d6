// Package transition moves identity records between role partitions.
//
// A transition is a two-phase write with a deliberate order: create in the
// target partition first, delete from the source partition second. A crash
// between the phases leaves a harmless duplicate that the reconciler can
// detect and an operator can repair; the reverse order could lose the
// identity entirely.
package transition

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	apperrors "github.com/aftab-coresconnect/Internal-Portal-Backend/internal/platform/errors"
	"github.com/aftab-coresconnect/Internal-Portal-Backend/internal/platform/id"
	"github.com/aftab-coresconnect/Internal-Portal-Backend/internal/services/identity/identity"
	"github.com/aftab-coresconnect/Internal-Portal-Backend/internal/services/identity/storage"
)

// ErrSamePartition indicates a transition targeting the record's current role.
var ErrSamePartition = apperrors.New(apperrors.CodeIdentitySamePartition, "target role matches current partition")

// ErrEmailConflict indicates the target partition already holds the email,
// introduced concurrently. The source record is untouched.
var ErrEmailConflict = apperrors.New(apperrors.CodeIdentityEmailConflict, "email already present in target partition")

// ErrIdentityNotFound indicates the source partition does not hold the id.
var ErrIdentityNotFound = apperrors.New(apperrors.CodeIdentityNotFound, "identity not found in source partition")

// Manager migrates records between partitions.
//
// Two simultaneous transitions for the same identity can both load the
// source record and both write a target record. The design accepts that rare
// race and resolves it through the reconciler's duplicate-email report
// instead of locking; write concurrency on this path is low.
type Manager struct {
	store storage.Store
	now   func() time.Time
	newID func() (string, error)
}

// New creates a transition manager over the partition store.
func New(store storage.Store) *Manager {
	return &Manager{
		store: store,
		now:   time.Now,
		newID: id.NewID,
	}
}

// NewWithClock creates a manager with injected time and id generation.
func NewWithClock(store storage.Store, now func() time.Time, newID func() (string, error)) *Manager {
	m := New(store)
	if now != nil {
		m.now = now
	}
	if newID != nil {
		m.newID = newID
	}
	return m
}

// Transition moves the identified record from its current partition to the
// target role's partition, carrying over email, hashed credential, display
// name, and every attribute meaningful in the target role.
//
// On success the returned record is the new one; the source record is gone.
// When the target create fails the source record is untouched and no side
// effects remain. When the source delete fails the new record is returned
// together with a PartialFailure: the identity now exists twice, which is
// detectable and repairable, never lost.
func (m *Manager) Transition(ctx context.Context, identityID string, currentPartition, targetRole identity.Role) (identity.Record, error) {
	if _, err := identity.ParseRole(string(currentPartition)); err != nil {
		return identity.Record{}, err
	}
	if _, err := identity.ParseRole(string(targetRole)); err != nil {
		return identity.Record{}, err
	}
	if currentPartition == targetRole {
		return identity.Record{}, ErrSamePartition
	}

	source := m.store.Partition(currentPartition)
	target := m.store.Partition(targetRole)

	current, err := source.FindByID(ctx, identityID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return identity.Record{}, ErrIdentityNotFound
		}
		return identity.Record{}, fmt.Errorf("load source record: %w", err)
	}

	migrated, err := identity.NewRecord(identity.CreateRecordInput{
		Email:            current.Email,
		HashedCredential: current.HashedCredential,
		DisplayName:      current.DisplayName,
		Role:             targetRole,
		Attrs:            identity.CarryAttrs(currentPartition, targetRole, current.Attrs),
	}, m.now, m.newID)
	if err != nil {
		return identity.Record{}, fmt.Errorf("build target record: %w", err)
	}

	if err := target.Create(ctx, migrated); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return identity.Record{}, ErrEmailConflict
		}
		return identity.Record{}, fmt.Errorf("create target record: %w", err)
	}

	if err := source.Delete(ctx, current.ID); err != nil && !errors.Is(err, storage.ErrNotFound) {
		// The identity now exists in both partitions. Surface it and keep
		// going: the duplicate is visible to the reconciler's sweep.
		state := fmt.Sprintf("identity %s duplicated: new record %s in %s, stale record %s in %s",
			migrated.Email, migrated.ID, targetRole, current.ID, currentPartition)
		log.Printf("role transition partial failure: %s: %v", state, err)
		return migrated, apperrors.PartialFailure("delete-source", state, err)
	}

	return migrated, nil
}
