package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/aftab-coresconnect/Internal-Portal-Backend/internal/services/tracking/domain"
	"github.com/aftab-coresconnect/Internal-Portal-Backend/internal/services/tracking/storage"
)

type projectStore struct {
	sqlDB *sql.DB
}

const projectColumns = "id, title, description, client_id, assigned_developers, project_manager, milestones, status, priority, start_date, deadline, created_at, updated_at"

func (s *projectStore) FindByID(ctx context.Context, projectID string) (domain.Project, error) {
	row := s.sqlDB.QueryRowContext(ctx,
		"SELECT "+projectColumns+" FROM projects WHERE id = ?", projectID)
	return scanProject(row)
}

func (s *projectStore) Create(ctx context.Context, project domain.Project) error {
	developers, err := marshalSet(project.AssignedDevelopers)
	if err != nil {
		return err
	}
	milestones, err := marshalSet(project.Milestones)
	if err != nil {
		return err
	}
	_, err = s.sqlDB.ExecContext(ctx,
		`INSERT INTO projects (id, title, description, client_id, assigned_developers, project_manager,
		 milestones, status, priority, start_date, deadline, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		project.ID, project.Title, project.Description, nullString(project.ClientID), developers,
		project.ProjectManager, milestones, string(project.Status), string(project.Priority),
		toNullMillis(project.StartDate), toNullMillis(project.Deadline),
		toMillis(project.CreatedAt), toMillis(project.UpdatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrDuplicate
		}
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

func (s *projectStore) Update(ctx context.Context, project domain.Project) error {
	developers, err := marshalSet(project.AssignedDevelopers)
	if err != nil {
		return err
	}
	milestones, err := marshalSet(project.Milestones)
	if err != nil {
		return err
	}
	result, err := s.sqlDB.ExecContext(ctx,
		`UPDATE projects SET title = ?, description = ?, client_id = ?, assigned_developers = ?,
		 project_manager = ?, milestones = ?, status = ?, priority = ?, start_date = ?, deadline = ?,
		 updated_at = ? WHERE id = ?`,
		project.Title, project.Description, nullString(project.ClientID), developers,
		project.ProjectManager, milestones, string(project.Status), string(project.Priority),
		toNullMillis(project.StartDate), toNullMillis(project.Deadline),
		toMillis(project.UpdatedAt), project.ID)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	return requireRow(result)
}

func (s *projectStore) Delete(ctx context.Context, projectID string) error {
	result, err := s.sqlDB.ExecContext(ctx, "DELETE FROM projects WHERE id = ?", projectID)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	return requireRow(result)
}

func (s *projectStore) List(ctx context.Context) ([]domain.Project, error) {
	return s.queryProjects(ctx,
		"SELECT "+projectColumns+" FROM projects ORDER BY created_at, id")
}

func (s *projectStore) ListByClient(ctx context.Context, clientID string) ([]domain.Project, error) {
	return s.queryProjects(ctx,
		"SELECT "+projectColumns+" FROM projects WHERE client_id = ? ORDER BY created_at, id", clientID)
}

func (s *projectStore) queryProjects(ctx context.Context, query string, args ...any) ([]domain.Project, error) {
	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query projects: %w", err)
	}
	defer rows.Close()

	var projects []domain.Project
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, project)
	}
	return projects, rows.Err()
}

func scanProject(row rowScanner) (domain.Project, error) {
	var (
		project                 domain.Project
		clientID                sql.NullString
		developers, milestones  sql.NullString
		status, priority        string
		startDate, deadline     sql.NullInt64
		createdAt, updatedAt    int64
	)
	err := row.Scan(&project.ID, &project.Title, &project.Description, &clientID, &developers,
		&project.ProjectManager, &milestones, &status, &priority, &startDate, &deadline,
		&createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Project{}, storage.ErrNotFound
		}
		return domain.Project{}, fmt.Errorf("scan project: %w", err)
	}
	project.ClientID = clientID.String
	if project.AssignedDevelopers, err = unmarshalSet(developers); err != nil {
		return domain.Project{}, err
	}
	if project.Milestones, err = unmarshalSet(milestones); err != nil {
		return domain.Project{}, err
	}
	project.Status = domain.ProjectStatus(status)
	project.Priority = domain.Priority(priority)
	project.StartDate = fromNullMillis(startDate)
	project.Deadline = fromNullMillis(deadline)
	project.CreatedAt = fromMillis(createdAt)
	project.UpdatedAt = fromMillis(updatedAt)
	return project, nil
}
