// Package identityfakes provides in-memory identity store fakes for tests.
package identityfakes

import (
	"context"

	"github.com/aftab-coresconnect/Internal-Portal-Backend/internal/services/identity/identity"
	"github.com/aftab-coresconnect/Internal-Portal-Backend/internal/services/identity/storage"
)

// Partition is an in-memory storage.Partition fake. The error hooks let
// tests simulate a store failing at a specific step of a multi-step write.
type Partition struct {
	PartitionRole identity.Role
	Records       map[string]identity.Record

	CreateErr error
	UpdateErr error
	DeleteErr error
	FindErr   error
}

// NewPartition constructs a Partition fake for one role.
func NewPartition(role identity.Role) *Partition {
	return &Partition{
		PartitionRole: role,
		Records:       make(map[string]identity.Record),
	}
}

func (p *Partition) Role() identity.Role {
	return p.PartitionRole
}

func (p *Partition) FindByID(_ context.Context, recordID string) (identity.Record, error) {
	if p.FindErr != nil {
		return identity.Record{}, p.FindErr
	}
	record, ok := p.Records[recordID]
	if !ok {
		return identity.Record{}, storage.ErrNotFound
	}
	return record, nil
}

func (p *Partition) FindByEmail(_ context.Context, email string) (identity.Record, error) {
	if p.FindErr != nil {
		return identity.Record{}, p.FindErr
	}
	normalized := identity.NormalizeEmail(email)
	for _, record := range p.Records {
		if record.Email == normalized {
			return record, nil
		}
	}
	return identity.Record{}, storage.ErrNotFound
}

func (p *Partition) Create(_ context.Context, record identity.Record) error {
	if p.CreateErr != nil {
		return p.CreateErr
	}
	if _, exists := p.Records[record.ID]; exists {
		return storage.ErrDuplicate
	}
	normalized := identity.NormalizeEmail(record.Email)
	for _, existing := range p.Records {
		if existing.Email == normalized {
			return storage.ErrDuplicate
		}
	}
	record.Email = normalized
	p.Records[record.ID] = record
	return nil
}

func (p *Partition) Update(_ context.Context, record identity.Record) error {
	if p.UpdateErr != nil {
		return p.UpdateErr
	}
	if _, ok := p.Records[record.ID]; !ok {
		return storage.ErrNotFound
	}
	record.Email = identity.NormalizeEmail(record.Email)
	p.Records[record.ID] = record
	return nil
}

func (p *Partition) Delete(_ context.Context, recordID string) error {
	if p.DeleteErr != nil {
		return p.DeleteErr
	}
	if _, ok := p.Records[recordID]; !ok {
		return storage.ErrNotFound
	}
	delete(p.Records, recordID)
	return nil
}

func (p *Partition) List(_ context.Context) ([]identity.Record, error) {
	if p.FindErr != nil {
		return nil, p.FindErr
	}
	records := make([]identity.Record, 0, len(p.Records))
	for _, record := range p.Records {
		records = append(records, record)
	}
	return records, nil
}

func (p *Partition) Count(_ context.Context) (int64, error) {
	if p.FindErr != nil {
		return 0, p.FindErr
	}
	return int64(len(p.Records)), nil
}

// Store is an in-memory storage.Store fake holding all five partitions.
type Store struct {
	ByRole map[identity.Role]*Partition
}

// NewStore constructs a Store fake with one empty partition per role.
func NewStore() *Store {
	store := &Store{ByRole: make(map[identity.Role]*Partition, 5)}
	for _, role := range identity.Roles() {
		store.ByRole[role] = NewPartition(role)
	}
	return store
}

func (s *Store) Partition(role identity.Role) storage.Partition {
	p, ok := s.ByRole[role]
	if !ok {
		return nil
	}
	return p
}

func (s *Store) Partitions() []storage.Partition {
	partitions := make([]storage.Partition, 0, len(s.ByRole))
	for _, role := range identity.Roles() {
		partitions = append(partitions, s.ByRole[role])
	}
	return partitions
}

// Fake returns the concrete fake partition for test setup access.
func (s *Store) Fake(role identity.Role) *Partition {
	return s.ByRole[role]
}

// LegacyStore is an in-memory storage.LegacyStore fake.
type LegacyStore struct {
	Records []storage.LegacyRecord
	ListErr error
}

func (s *LegacyStore) ListLegacyRecords(_ context.Context) ([]storage.LegacyRecord, error) {
	if s.ListErr != nil {
		return nil, s.ListErr
	}
	return s.Records, nil
}

var _ storage.Store = (*Store)(nil)
var _ storage.Partition = (*Partition)(nil)
var _ storage.LegacyStore = (*LegacyStore)(nil)
