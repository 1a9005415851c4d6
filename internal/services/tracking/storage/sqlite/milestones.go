package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/aftab-coresconnect/Internal-Portal-Backend/internal/services/tracking/domain"
	"github.com/aftab-coresconnect/Internal-Portal-Backend/internal/services/tracking/storage"
)

type milestoneStore struct {
	sqlDB *sql.DB
}

const milestoneColumns = "id, title, description, project_id, dependencies, assigned_to, progress, status, priority, due_date, created_at, updated_at"

func (s *milestoneStore) FindByID(ctx context.Context, milestoneID string) (domain.Milestone, error) {
	row := s.sqlDB.QueryRowContext(ctx,
		"SELECT "+milestoneColumns+" FROM milestones WHERE id = ?", milestoneID)
	return scanMilestone(row)
}

func (s *milestoneStore) Create(ctx context.Context, milestone domain.Milestone) error {
	dependencies, err := marshalSet(milestone.Dependencies)
	if err != nil {
		return err
	}
	assignedTo, err := marshalSet(milestone.AssignedTo)
	if err != nil {
		return err
	}
	_, err = s.sqlDB.ExecContext(ctx,
		`INSERT INTO milestones (id, title, description, project_id, dependencies, assigned_to,
		 progress, status, priority, due_date, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		milestone.ID, milestone.Title, milestone.Description, milestone.Project, dependencies,
		assignedTo, milestone.ProgressPercentage, string(milestone.Status), string(milestone.Priority),
		toNullMillis(milestone.DueDate), toMillis(milestone.CreatedAt), toMillis(milestone.UpdatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrDuplicate
		}
		return fmt.Errorf("insert milestone: %w", err)
	}
	return nil
}

func (s *milestoneStore) Update(ctx context.Context, milestone domain.Milestone) error {
	dependencies, err := marshalSet(milestone.Dependencies)
	if err != nil {
		return err
	}
	assignedTo, err := marshalSet(milestone.AssignedTo)
	if err != nil {
		return err
	}
	// project_id is deliberately not in the SET list: the owning project
	// is immutable once created.
	result, err := s.sqlDB.ExecContext(ctx,
		`UPDATE milestones SET title = ?, description = ?, dependencies = ?, assigned_to = ?,
		 progress = ?, status = ?, priority = ?, due_date = ?, updated_at = ? WHERE id = ?`,
		milestone.Title, milestone.Description, dependencies, assignedTo,
		milestone.ProgressPercentage, string(milestone.Status), string(milestone.Priority),
		toNullMillis(milestone.DueDate), toMillis(milestone.UpdatedAt), milestone.ID)
	if err != nil {
		return fmt.Errorf("update milestone: %w", err)
	}
	return requireRow(result)
}

func (s *milestoneStore) Delete(ctx context.Context, milestoneID string) error {
	result, err := s.sqlDB.ExecContext(ctx, "DELETE FROM milestones WHERE id = ?", milestoneID)
	if err != nil {
		return fmt.Errorf("delete milestone: %w", err)
	}
	return requireRow(result)
}

func (s *milestoneStore) List(ctx context.Context) ([]domain.Milestone, error) {
	return s.queryMilestones(ctx,
		"SELECT "+milestoneColumns+" FROM milestones ORDER BY created_at, id")
}

func (s *milestoneStore) ListByProject(ctx context.Context, projectID string) ([]domain.Milestone, error) {
	return s.queryMilestones(ctx,
		"SELECT "+milestoneColumns+" FROM milestones WHERE project_id = ? ORDER BY created_at, id", projectID)
}

func (s *milestoneStore) queryMilestones(ctx context.Context, query string, args ...any) ([]domain.Milestone, error) {
	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query milestones: %w", err)
	}
	defer rows.Close()

	var milestones []domain.Milestone
	for rows.Next() {
		milestone, err := scanMilestone(rows)
		if err != nil {
			return nil, err
		}
		milestones = append(milestones, milestone)
	}
	return milestones, rows.Err()
}

func scanMilestone(row rowScanner) (domain.Milestone, error) {
	var (
		milestone                domain.Milestone
		dependencies, assignedTo sql.NullString
		status, priority         string
		dueDate                  sql.NullInt64
		createdAt, updatedAt     int64
	)
	err := row.Scan(&milestone.ID, &milestone.Title, &milestone.Description, &milestone.Project,
		&dependencies, &assignedTo, &milestone.ProgressPercentage, &status, &priority,
		&dueDate, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Milestone{}, storage.ErrNotFound
		}
		return domain.Milestone{}, fmt.Errorf("scan milestone: %w", err)
	}
	if milestone.Dependencies, err = unmarshalSet(dependencies); err != nil {
		return domain.Milestone{}, err
	}
	if milestone.AssignedTo, err = unmarshalSet(assignedTo); err != nil {
		return domain.Milestone{}, err
	}
	milestone.Status = domain.MilestoneStatus(status)
	milestone.Priority = domain.Priority(priority)
	milestone.DueDate = fromNullMillis(dueDate)
	milestone.CreatedAt = fromMillis(createdAt)
	milestone.UpdatedAt = fromMillis(updatedAt)
	return milestone, nil
}
