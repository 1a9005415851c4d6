package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/aftab-coresconnect/Internal-Portal-Backend/internal/services/identity/storage"
)

// ListLegacyRecords returns every row of the legacy unified user collection.
// The backfill runner consumes this once; nothing else reads the table.
func (s *Store) ListLegacyRecords(ctx context.Context) ([]storage.LegacyRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT legacy_id, email, hashed_credential, display_name, role_tag, attrs, created_at, updated_at
		 FROM legacy_users ORDER BY created_at, legacy_id`)
	if err != nil {
		return nil, fmt.Errorf("list legacy records: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var records []storage.LegacyRecord
	for rows.Next() {
		var record storage.LegacyRecord
		var email, attrs sql.NullString
		var createdAt, updatedAt int64
		if err := rows.Scan(
			&record.LegacyID,
			&email,
			&record.HashedCredential,
			&record.DisplayName,
			&record.RoleTag,
			&attrs,
			&createdAt,
			&updatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan legacy record: %w", err)
		}
		record.Email = email.String
		record.CreatedAt = fromMillis(createdAt)
		record.UpdatedAt = fromMillis(updatedAt)
		record.Attrs, err = unmarshalAttrs(attrs)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list legacy records: %w", err)
	}
	return records, nil
}

// PutLegacyRecord inserts one legacy row. Used by imports and tests; the
// backfill itself never writes here.
func (s *Store) PutLegacyRecord(ctx context.Context, record storage.LegacyRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(record.LegacyID) == "" {
		return fmt.Errorf("legacy id is required")
	}
	attrs, err := marshalAttrs(record.Attrs)
	if err != nil {
		return err
	}
	createdAt := record.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	updatedAt := record.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}
	var email sql.NullString
	if strings.TrimSpace(record.Email) != "" {
		email = sql.NullString{String: strings.TrimSpace(record.Email), Valid: true}
	}
	_, err = s.sqlDB.ExecContext(ctx,
		`INSERT INTO legacy_users (legacy_id, email, hashed_credential, display_name, role_tag, attrs, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		record.LegacyID,
		email,
		record.HashedCredential,
		record.DisplayName,
		record.RoleTag,
		attrs,
		toMillis(createdAt),
		toMillis(updatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrDuplicate
		}
		return fmt.Errorf("put legacy record: %w", err)
	}
	return nil
}
