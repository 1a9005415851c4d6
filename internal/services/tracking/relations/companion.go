package relations

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/aftab-coresconnect/Internal-Portal-Backend/internal/platform/errors"
	"github.com/aftab-coresconnect/Internal-Portal-Backend/internal/platform/id"
	"github.com/aftab-coresconnect/Internal-Portal-Backend/internal/services/identity/identity"
	"github.com/aftab-coresconnect/Internal-Portal-Backend/internal/services/identity/resolver"
	idstorage "github.com/aftab-coresconnect/Internal-Portal-Backend/internal/services/identity/storage"
	"github.com/aftab-coresconnect/Internal-Portal-Backend/internal/services/tracking/domain"
	"github.com/aftab-coresconnect/Internal-Portal-Backend/internal/services/tracking/storage"
)

// ErrCompanionEmailTaken indicates the client's email already belongs to an
// identity in a non-client partition, so no companion may be created for it.
var ErrCompanionEmailTaken = apperrors.New(apperrors.CodeIdentityEmailConflict, "companion email already held by another partition")

// ClientService manages client aggregates together with their companion
// portal identities. A client who can log in has an identity record in the
// client partition matched by email; the identity write is best-effort and
// never rolls back the client write. The two drift until the same call is
// repeated or the reconciler flags them.
type ClientService struct {
	maintainer *Maintainer
	clients    storage.ClientStore
	identities idstorage.Store
	resolver   *resolver.Resolver
	now        func() time.Time
	newID      func() (string, error)
}

// NewClientService wires the client lifecycle over both stores.
func NewClientService(maintainer *Maintainer, identities idstorage.Store) *ClientService {
	return &ClientService{
		maintainer: maintainer,
		clients:    maintainer.store.Clients(),
		identities: identities,
		resolver:   resolver.New(identities),
		now:        time.Now,
		newID:      id.NewID,
	}
}

// NewClientServiceWithClock injects time and id generation.
func NewClientServiceWithClock(maintainer *Maintainer, identities idstorage.Store, now func() time.Time, newID func() (string, error)) *ClientService {
	s := NewClientService(maintainer, identities)
	if now != nil {
		s.now = now
	}
	if newID != nil {
		s.newID = newID
	}
	return s
}

// CreateClient creates the aggregate and, when a password is supplied, a
// companion identity in the client partition. A companion failure is
// reported through a PartialFailure but the client stands.
func (s *ClientService) CreateClient(ctx context.Context, input domain.CreateClientInput, password string) (domain.Client, error) {
	client, err := domain.NewClient(input, s.now, s.newID)
	if err != nil {
		return domain.Client{}, err
	}
	if err := s.clients.Create(ctx, client); err != nil {
		return domain.Client{}, fmt.Errorf("create client: %w", err)
	}

	if password != "" {
		if err := s.upsertCompanion(ctx, client, password); err != nil {
			state := fmt.Sprintf("client %s created without a portal identity for %s", client.ID, client.Email)
			log.Printf("companion identity partial failure: %s: %v", state, err)
			return client, apperrors.PartialFailure("companion-identity", state, err)
		}
	}
	return client, nil
}

// UpdateClient updates the aggregate and keeps the companion identity in
// lockstep: display name follows the client name, and a supplied password
// resets the companion credential (creating the companion if absent).
func (s *ClientService) UpdateClient(ctx context.Context, client domain.Client, password string) (domain.Client, error) {
	client.UpdatedAt = s.now().UTC()
	if err := s.clients.Update(ctx, client); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.Client{}, ErrClientNotFound
		}
		return domain.Client{}, fmt.Errorf("update client: %w", err)
	}

	if password != "" {
		if err := s.upsertCompanion(ctx, client, password); err != nil {
			state := fmt.Sprintf("client %s updated but its portal identity for %s was not", client.ID, client.Email)
			log.Printf("companion identity partial failure: %s: %v", state, err)
			return client, apperrors.PartialFailure("companion-identity", state, err)
		}
	}
	return client, nil
}

// DeleteClient cascades the client deletion and then attempts to delete the
// companion identity by email match. A missing companion is not an error.
func (s *ClientService) DeleteClient(ctx context.Context, clientID string) error {
	client, err := s.clients.FindByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrClientNotFound
		}
		return fmt.Errorf("load client: %w", err)
	}

	if err := s.maintainer.CascadeDeleteClient(ctx, clientID); err != nil {
		return err
	}

	partition := s.identities.Partition(identity.RoleClient)
	companion, err := partition.FindByEmail(ctx, client.Email)
	if err != nil {
		if errors.Is(err, idstorage.ErrNotFound) {
			return nil
		}
		state := fmt.Sprintf("client %s deleted; portal identity for %s not checked", clientID, client.Email)
		log.Printf("companion identity partial failure: %s: %v", state, err)
		return apperrors.PartialFailure("companion-identity", state, err)
	}
	if err := partition.Delete(ctx, companion.ID); err != nil && !errors.Is(err, idstorage.ErrNotFound) {
		state := fmt.Sprintf("client %s deleted; portal identity %s for %s remains", clientID, companion.ID, client.Email)
		log.Printf("companion identity partial failure: %s: %v", state, err)
		return apperrors.PartialFailure("companion-identity", state, err)
	}
	return nil
}

// upsertCompanion creates or refreshes the client-partition identity whose
// email matches the aggregate. The existence probe goes through the resolver:
// an email held by any other partition blocks the create, otherwise two
// partitions end up holding the same email.
func (s *ClientService) upsertCompanion(ctx context.Context, client domain.Client, password string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash companion credential: %w", err)
	}

	partition := s.identities.Partition(identity.RoleClient)
	match, err := s.resolver.ResolveByEmail(ctx, client.Email)
	switch {
	case err == nil && match.Partition == identity.RoleClient:
		existing := match.Record
		existing.HashedCredential = string(hashed)
		existing.DisplayName = client.Name
		existing.UpdatedAt = s.now().UTC()
		return partition.Update(ctx, existing)
	case err == nil:
		return fmt.Errorf("email %s already held by the %s partition: %w", client.Email, match.Partition, ErrCompanionEmailTaken)
	case errors.Is(err, resolver.ErrIdentityNotFound):
		attrs := map[string]any{}
		if client.CompanyName != "" {
			attrs[identity.AttrCompanyName] = client.CompanyName
		}
		if client.Phone != "" {
			attrs[identity.AttrPhone] = client.Phone
		}
		if len(attrs) == 0 {
			attrs = nil
		}
		record, err := identity.NewRecord(identity.CreateRecordInput{
			Email:            client.Email,
			HashedCredential: string(hashed),
			DisplayName:      client.Name,
			Role:             identity.RoleClient,
			Attrs:            attrs,
		}, s.now, s.newID)
		if err != nil {
			return err
		}
		return partition.Create(ctx, record)
	default:
		return fmt.Errorf("resolve companion email: %w", err)
	}
}
