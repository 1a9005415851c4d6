// Package storage defines the persistence interfaces for the tracking
// aggregates. Implementations do not enforce cross-aggregate invariants;
// the relations maintainer owns write ordering and the reconciler detects
// drift.
package storage

import (
	"context"

	apperrors "github.com/aftab-coresconnect/Internal-Portal-Backend/internal/platform/errors"
	"github.com/aftab-coresconnect/Internal-Portal-Backend/internal/services/tracking/domain"
)

var (
	// ErrNotFound is returned when a requested aggregate does not exist.
	ErrNotFound = apperrors.New(apperrors.CodeNotFound, "record not found")
	// ErrDuplicate is returned when a unique constraint is violated.
	ErrDuplicate = apperrors.New(apperrors.CodeClientEmailConflict, "record already exists")
)

// ClientStore persists client aggregates. Email is unique among clients.
type ClientStore interface {
	FindByID(ctx context.Context, clientID string) (domain.Client, error)
	FindByEmail(ctx context.Context, email string) (domain.Client, error)
	Create(ctx context.Context, client domain.Client) error
	Update(ctx context.Context, client domain.Client) error
	Delete(ctx context.Context, clientID string) error
	List(ctx context.Context) ([]domain.Client, error)
}

// ProjectStore persists project aggregates.
type ProjectStore interface {
	FindByID(ctx context.Context, projectID string) (domain.Project, error)
	Create(ctx context.Context, project domain.Project) error
	Update(ctx context.Context, project domain.Project) error
	Delete(ctx context.Context, projectID string) error
	List(ctx context.Context) ([]domain.Project, error)
	ListByClient(ctx context.Context, clientID string) ([]domain.Project, error)
}

// MilestoneStore persists milestone aggregates.
type MilestoneStore interface {
	FindByID(ctx context.Context, milestoneID string) (domain.Milestone, error)
	Create(ctx context.Context, milestone domain.Milestone) error
	Update(ctx context.Context, milestone domain.Milestone) error
	Delete(ctx context.Context, milestoneID string) error
	List(ctx context.Context) ([]domain.Milestone, error)
	ListByProject(ctx context.Context, projectID string) ([]domain.Milestone, error)
}

// Store bundles the three aggregate stores backed by one database.
type Store interface {
	Clients() ClientStore
	Projects() ProjectStore
	Milestones() MilestoneStore
}
