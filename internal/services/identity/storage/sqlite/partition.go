package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/aftab-coresconnect/Internal-Portal-Backend/internal/services/identity/identity"
	"github.com/aftab-coresconnect/Internal-Portal-Backend/internal/services/identity/storage"
)

// partition implements storage.Partition over one role table. The table name
// comes from the fixed partitionTables list, never from caller input.
type partition struct {
	sqlDB *sql.DB
	role  identity.Role
	table string
}

func (p *partition) Role() identity.Role {
	return p.role
}

func (p *partition) FindByID(ctx context.Context, recordID string) (identity.Record, error) {
	if err := ctx.Err(); err != nil {
		return identity.Record{}, err
	}
	if strings.TrimSpace(recordID) == "" {
		return identity.Record{}, fmt.Errorf("record id is required")
	}
	row := p.sqlDB.QueryRowContext(ctx,
		`SELECT id, email, hashed_credential, display_name, attrs, created_at, updated_at
		 FROM `+p.table+` WHERE id = ?`, recordID)
	return p.scanRecord(row)
}

func (p *partition) FindByEmail(ctx context.Context, email string) (identity.Record, error) {
	if err := ctx.Err(); err != nil {
		return identity.Record{}, err
	}
	normalized := identity.NormalizeEmail(email)
	if normalized == "" {
		return identity.Record{}, fmt.Errorf("email is required")
	}
	row := p.sqlDB.QueryRowContext(ctx,
		`SELECT id, email, hashed_credential, display_name, attrs, created_at, updated_at
		 FROM `+p.table+` WHERE email = ?`, normalized)
	return p.scanRecord(row)
}

func (p *partition) Create(ctx context.Context, record identity.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := p.validate(record); err != nil {
		return err
	}
	attrs, err := marshalAttrs(record.Attrs)
	if err != nil {
		return err
	}
	_, err = p.sqlDB.ExecContext(ctx,
		`INSERT INTO `+p.table+` (id, email, hashed_credential, display_name, attrs, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		identity.NormalizeEmail(record.Email),
		record.HashedCredential,
		record.DisplayName,
		attrs,
		toMillis(record.CreatedAt),
		toMillis(record.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrDuplicate
		}
		return fmt.Errorf("create %s record: %w", p.role, err)
	}
	return nil
}

func (p *partition) Update(ctx context.Context, record identity.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := p.validate(record); err != nil {
		return err
	}
	attrs, err := marshalAttrs(record.Attrs)
	if err != nil {
		return err
	}
	result, err := p.sqlDB.ExecContext(ctx,
		`UPDATE `+p.table+`
		 SET email = ?, hashed_credential = ?, display_name = ?, attrs = ?, updated_at = ?
		 WHERE id = ?`,
		identity.NormalizeEmail(record.Email),
		record.HashedCredential,
		record.DisplayName,
		attrs,
		toMillis(record.UpdatedAt),
		record.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrDuplicate
		}
		return fmt.Errorf("update %s record: %w", p.role, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update %s record: %w", p.role, err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (p *partition) Delete(ctx context.Context, recordID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(recordID) == "" {
		return fmt.Errorf("record id is required")
	}
	result, err := p.sqlDB.ExecContext(ctx, `DELETE FROM `+p.table+` WHERE id = ?`, recordID)
	if err != nil {
		return fmt.Errorf("delete %s record: %w", p.role, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete %s record: %w", p.role, err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (p *partition) List(ctx context.Context) ([]identity.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := p.sqlDB.QueryContext(ctx,
		`SELECT id, email, hashed_credential, display_name, attrs, created_at, updated_at
		 FROM `+p.table+` ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list %s records: %w", p.role, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var records []identity.Record
	for rows.Next() {
		record, err := p.scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list %s records: %w", p.role, err)
	}
	return records, nil
}

func (p *partition) Count(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var count int64
	row := p.sqlDB.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+p.table)
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count %s records: %w", p.role, err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (p *partition) scanRecord(row rowScanner) (identity.Record, error) {
	var record identity.Record
	var attrs sql.NullString
	var createdAt, updatedAt int64
	err := row.Scan(
		&record.ID,
		&record.Email,
		&record.HashedCredential,
		&record.DisplayName,
		&attrs,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return identity.Record{}, storage.ErrNotFound
		}
		return identity.Record{}, fmt.Errorf("scan %s record: %w", p.role, err)
	}
	record.Role = p.role
	record.CreatedAt = fromMillis(createdAt)
	record.UpdatedAt = fromMillis(updatedAt)
	record.Attrs, err = unmarshalAttrs(attrs)
	if err != nil {
		return identity.Record{}, err
	}
	return record, nil
}

func (p *partition) validate(record identity.Record) error {
	if strings.TrimSpace(record.ID) == "" {
		return fmt.Errorf("record id is required")
	}
	if identity.NormalizeEmail(record.Email) == "" {
		return fmt.Errorf("email is required")
	}
	if record.Role != "" && record.Role != p.role {
		return fmt.Errorf("record role %s does not match partition %s", record.Role, p.role)
	}
	return nil
}
