package resolver

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/aftab-coresconnect/Internal-Portal-Backend/internal/services/identity/identity"
	"github.com/aftab-coresconnect/Internal-Portal-Backend/internal/testkit/identityfakes"
)

func seedRecord(t *testing.T, store *identityfakes.Store, role identity.Role, recordID, email string) identity.Record {
	t.Helper()
	record := identity.Record{
		ID:               recordID,
		Email:            identity.NormalizeEmail(email),
		HashedCredential: "$2a$10$hash",
		DisplayName:      "Person " + recordID,
		Role:             role,
		CreatedAt:        time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt:        time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := store.Fake(role).Create(context.Background(), record); err != nil {
		t.Fatalf("seed %s record: %v", role, err)
	}
	return record
}

func TestResolveByEmailFindsRecord(t *testing.T) {
	store := identityfakes.NewStore()
	seedRecord(t, store, identity.RoleProjectManager, "pm1", "pm@x.com")
	r := New(store)

	match, err := r.ResolveByEmail(context.Background(), "PM@x.com")
	if err != nil {
		t.Fatalf("resolve by email: %v", err)
	}
	if match.Record.ID != "pm1" {
		t.Fatalf("expected pm1, got %s", match.Record.ID)
	}
	if match.Partition != identity.RoleProjectManager {
		t.Fatalf("expected project-manager partition tag, got %s", match.Partition)
	}
}

func TestResolveByEmailHonorsPriorityOrder(t *testing.T) {
	// A duplicated email across partitions is a transient state the design
	// tolerates; the earlier partition must win deterministically.
	store := identityfakes.NewStore()
	seedRecord(t, store, identity.RoleDesigner, "ds1", "dup@x.com")
	seedRecord(t, store, identity.RoleDeveloper, "dev1", "dup@x.com")
	r := New(store)

	match, err := r.ResolveByEmail(context.Background(), "dup@x.com")
	if err != nil {
		t.Fatalf("resolve by email: %v", err)
	}
	if match.Partition != identity.RoleDeveloper {
		t.Fatalf("expected developer to win over designer, got %s", match.Partition)
	}
	if match.Record.ID != "dev1" {
		t.Fatalf("expected dev1, got %s", match.Record.ID)
	}
}

func TestResolveByEmailNotFoundAfterAllPartitions(t *testing.T) {
	store := identityfakes.NewStore()
	r := New(store)

	_, err := r.ResolveByEmail(context.Background(), "ghost@x.com")
	if !errors.Is(err, ErrIdentityNotFound) {
		t.Fatalf("expected identity not found, got %v", err)
	}
}

func TestResolveByEmailRejectsMalformedInput(t *testing.T) {
	store := identityfakes.NewStore()
	r := New(store)

	if _, err := r.ResolveByEmail(context.Background(), "not-an-email"); !errors.Is(err, identity.ErrEmailInvalid) {
		t.Fatalf("expected email invalid, got %v", err)
	}
}

func TestResolveByIDProbesAllPartitions(t *testing.T) {
	store := identityfakes.NewStore()
	seedRecord(t, store, identity.RoleClient, "c1", "client@x.com")
	r := New(store)

	match, err := r.ResolveByID(context.Background(), "c1")
	if err != nil {
		t.Fatalf("resolve by id: %v", err)
	}
	if match.Partition != identity.RoleClient {
		t.Fatalf("expected client partition, got %s", match.Partition)
	}

	if _, err := r.ResolveByID(context.Background(), "unknown"); !errors.Is(err, ErrIdentityNotFound) {
		t.Fatalf("expected identity not found, got %v", err)
	}
}

func TestResolvePropagatesStoreFailure(t *testing.T) {
	store := identityfakes.NewStore()
	store.Fake(identity.RoleDesigner).FindErr = fmt.Errorf("partition unavailable")
	r := New(store)

	if _, err := r.ResolveByEmail(context.Background(), "anyone@x.com"); err == nil {
		t.Fatal("expected store failure to propagate, not be treated as not-found")
	}
}

func TestEmailExistsChecksEveryPartition(t *testing.T) {
	store := identityfakes.NewStore()
	// Seed in the lowest-priority partition; a single-partition check
	// would miss it.
	seedRecord(t, store, identity.RoleClient, "c1", "taken@x.com")
	r := New(store)

	exists, err := r.EmailExists(context.Background(), "taken@x.com")
	if err != nil {
		t.Fatalf("email exists: %v", err)
	}
	if !exists {
		t.Fatal("expected email found in last-priority partition")
	}

	exists, err = r.EmailExists(context.Background(), "free@x.com")
	if err != nil {
		t.Fatalf("email exists: %v", err)
	}
	if exists {
		t.Fatal("expected free email to be reported absent")
	}
}
