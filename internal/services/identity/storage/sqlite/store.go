// Package sqlite provides a SQLite-backed identity partition store.
//
// Each partition is its own table with its own unique email index. Writes
// touching more than one partition are independent statements on purpose:
// the layer's consistency discipline is ordered writes plus reconciliation,
// not multi-table transactions.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/aftab-coresconnect/Internal-Portal-Backend/internal/platform/storage/sqlitemigrate"
	"github.com/aftab-coresconnect/Internal-Portal-Backend/internal/services/identity/identity"
	"github.com/aftab-coresconnect/Internal-Portal-Backend/internal/services/identity/storage"
	"github.com/aftab-coresconnect/Internal-Portal-Backend/internal/services/identity/storage/sqlite/migrations"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// partitionTables maps each role to its table, in resolution priority order.
var partitionTables = []struct {
	role  identity.Role
	table string
}{
	{identity.RoleAdministrator, "administrators"},
	{identity.RoleDeveloper, "developers"},
	{identity.RoleDesigner, "designers"},
	{identity.RoleProjectManager, "project_managers"},
	{identity.RoleClient, "portal_clients"},
}

// Store persists identity partitions in SQLite.
type Store struct {
	sqlDB      *sql.DB
	partitions []*partition
	byRole     map[identity.Role]*partition
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens an identity SQLite store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	store := &Store{
		sqlDB:  sqlDB,
		byRole: make(map[identity.Role]*partition, len(partitionTables)),
	}
	for _, entry := range partitionTables {
		p := &partition{sqlDB: sqlDB, role: entry.role, table: entry.table}
		store.partitions = append(store.partitions, p)
		store.byRole[entry.role] = p
	}
	return store, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Partition returns the partition for a role, or nil for unknown roles.
func (s *Store) Partition(role identity.Role) storage.Partition {
	if s == nil {
		return nil
	}
	p, ok := s.byRole[role]
	if !ok {
		return nil
	}
	return p
}

// Partitions returns all partitions in resolution priority order.
func (s *Store) Partitions() []storage.Partition {
	if s == nil {
		return nil
	}
	result := make([]storage.Partition, 0, len(s.partitions))
	for _, p := range s.partitions {
		result = append(result, p)
	}
	return result
}

func marshalAttrs(attrs map[string]any) (sql.NullString, error) {
	if len(attrs) == 0 {
		return sql.NullString{}, nil
	}
	raw, err := json.Marshal(attrs)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("marshal attrs: %w", err)
	}
	return sql.NullString{String: string(raw), Valid: true}, nil
}

func unmarshalAttrs(raw sql.NullString) (map[string]any, error) {
	if !raw.Valid || strings.TrimSpace(raw.String) == "" {
		return nil, nil
	}
	var attrs map[string]any
	if err := json.Unmarshal([]byte(raw.String), &attrs); err != nil {
		return nil, fmt.Errorf("unmarshal attrs: %w", err)
	}
	return attrs, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

var _ storage.Store = (*Store)(nil)
var _ storage.LegacyStore = (*Store)(nil)
