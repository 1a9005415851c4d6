package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/aftab-coresconnect/Internal-Portal-Backend/internal/services/tracking/domain"
	"github.com/aftab-coresconnect/Internal-Portal-Backend/internal/services/tracking/storage"
)

type clientStore struct {
	sqlDB *sql.DB
}

const clientColumns = "id, name, email, phone, company_name, website, linked_projects, created_at, updated_at"

func (s *clientStore) FindByID(ctx context.Context, clientID string) (domain.Client, error) {
	row := s.sqlDB.QueryRowContext(ctx,
		"SELECT "+clientColumns+" FROM clients WHERE id = ?", clientID)
	return scanClient(row)
}

func (s *clientStore) FindByEmail(ctx context.Context, email string) (domain.Client, error) {
	row := s.sqlDB.QueryRowContext(ctx,
		"SELECT "+clientColumns+" FROM clients WHERE email = ?", domain.NormalizeClientEmail(email))
	return scanClient(row)
}

func (s *clientStore) Create(ctx context.Context, client domain.Client) error {
	linked, err := marshalSet(client.LinkedProjects)
	if err != nil {
		return err
	}
	_, err = s.sqlDB.ExecContext(ctx,
		`INSERT INTO clients (id, name, email, phone, company_name, website, linked_projects, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		client.ID, client.Name, domain.NormalizeClientEmail(client.Email), client.Phone,
		client.CompanyName, client.Website, linked, toMillis(client.CreatedAt), toMillis(client.UpdatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrDuplicate
		}
		return fmt.Errorf("insert client: %w", err)
	}
	return nil
}

func (s *clientStore) Update(ctx context.Context, client domain.Client) error {
	linked, err := marshalSet(client.LinkedProjects)
	if err != nil {
		return err
	}
	result, err := s.sqlDB.ExecContext(ctx,
		`UPDATE clients SET name = ?, email = ?, phone = ?, company_name = ?, website = ?,
		 linked_projects = ?, updated_at = ? WHERE id = ?`,
		client.Name, domain.NormalizeClientEmail(client.Email), client.Phone, client.CompanyName,
		client.Website, linked, toMillis(client.UpdatedAt), client.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrDuplicate
		}
		return fmt.Errorf("update client: %w", err)
	}
	return requireRow(result)
}

func (s *clientStore) Delete(ctx context.Context, clientID string) error {
	result, err := s.sqlDB.ExecContext(ctx, "DELETE FROM clients WHERE id = ?", clientID)
	if err != nil {
		return fmt.Errorf("delete client: %w", err)
	}
	return requireRow(result)
}

func (s *clientStore) List(ctx context.Context) ([]domain.Client, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		"SELECT "+clientColumns+" FROM clients ORDER BY created_at, id")
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	var clients []domain.Client
	for rows.Next() {
		client, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		clients = append(clients, client)
	}
	return clients, rows.Err()
}

func scanClient(row rowScanner) (domain.Client, error) {
	var (
		client               domain.Client
		linked               sql.NullString
		createdAt, updatedAt int64
	)
	err := row.Scan(&client.ID, &client.Name, &client.Email, &client.Phone,
		&client.CompanyName, &client.Website, &linked, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Client{}, storage.ErrNotFound
		}
		return domain.Client{}, fmt.Errorf("scan client: %w", err)
	}
	if client.LinkedProjects, err = unmarshalSet(linked); err != nil {
		return domain.Client{}, err
	}
	client.CreatedAt = fromMillis(createdAt)
	client.UpdatedAt = fromMillis(updatedAt)
	return client, nil
}

func requireRow(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}
