// Package sqlite provides a SQLite-backed tracking aggregate store.
//
// The reference sets (linked projects, assigned developers, milestone ids)
// are stored as JSON arrays in TEXT columns. Cross-aggregate writes are
// independent statements on purpose: ordering and reconciliation, not
// multi-table transactions, keep the back-references symmetric.
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
	"github.com/aftab-coresconnect/Internal-Portal-Backend/internal/services/tracking/storage"
	"github.com/aftab-coresconnect/Internal-Portal-Backend/internal/services/tracking/storage/sqlite/migrations"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// Store persists tracking aggregates in SQLite.
type Store struct {
	sqlDB      *sql.DB
	clients    *clientStore
	projects   *projectStore
	milestones *milestoneStore
}

// Open opens a tracking SQLite store and applies embedded migrations.
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
	return &Store{
		sqlDB:      sqlDB,
		clients:    &clientStore{sqlDB: sqlDB},
		projects:   &projectStore{sqlDB: sqlDB},
		milestones: &milestoneStore{sqlDB: sqlDB},
	}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Clients returns the client store.
func (s *Store) Clients() storage.ClientStore { return s.clients }

// Projects returns the project store.
func (s *Store) Projects() storage.ProjectStore { return s.projects }

// Milestones returns the milestone store.
func (s *Store) Milestones() storage.MilestoneStore { return s.milestones }

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

func toNullMillis(value time.Time) sql.NullInt64 {
	if value.IsZero() {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: toMillis(value), Valid: true}
}

func fromNullMillis(value sql.NullInt64) time.Time {
	if !value.Valid {
		return time.Time{}
	}
	return fromMillis(value.Int64)
}

func marshalSet(set []string) (sql.NullString, error) {
	if len(set) == 0 {
		return sql.NullString{}, nil
	}
	raw, err := json.Marshal(set)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("marshal set: %w", err)
	}
	return sql.NullString{String: string(raw), Valid: true}, nil
}

func unmarshalSet(raw sql.NullString) ([]string, error) {
	if !raw.Valid || strings.TrimSpace(raw.String) == "" {
		return nil, nil
	}
	var set []string
	if err := json.Unmarshal([]byte(raw.String), &set); err != nil {
		return nil, fmt.Errorf("unmarshal set: %w", err)
	}
	return set, nil
}

func nullString(value string) sql.NullString {
	if value == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
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

type rowScanner interface {
	Scan(dest ...any) error
}

var _ storage.Store = (*Store)(nil)
