// Package auth provides registration, login, and profile lookup over the
// identity partitions.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/aftab-coresconnect/Internal-Portal-Backend/internal/platform/errors"
	"github.com/aftab-coresconnect/Internal-Portal-Backend/internal/platform/id"
	"github.com/aftab-coresconnect/Internal-Portal-Backend/internal/services/identity/identity"
	"github.com/aftab-coresconnect/Internal-Portal-Backend/internal/services/identity/resolver"
	"github.com/aftab-coresconnect/Internal-Portal-Backend/internal/services/identity/storage"
	"github.com/aftab-coresconnect/Internal-Portal-Backend/internal/services/identity/token"
)

const minPasswordLength = 6

var (
	// ErrEmailTaken indicates the email exists in some partition already.
	ErrEmailTaken = apperrors.New(apperrors.CodeIdentityEmailConflict, "email already in use")
	// ErrInvalidCredentials indicates a failed email/password check.
	ErrInvalidCredentials = apperrors.New(apperrors.CodeIdentityCredentialMismatch, "invalid email or password")
	// ErrPasswordTooShort indicates a password below the minimum length.
	ErrPasswordTooShort = apperrors.New(apperrors.CodeIdentityCredentialWeak, "password must be at least 6 characters")
)

// Service handles credential-bearing identity operations. All creates go
// through the resolver's cross-partition uniqueness gate.
type Service struct {
	store    storage.Store
	resolver *resolver.Resolver
	issuer   *token.Issuer
	now      func() time.Time
	newID    func() (string, error)
}

// New creates an auth service.
func New(store storage.Store, res *resolver.Resolver, issuer *token.Issuer) *Service {
	return &Service{
		store:    store,
		resolver: res,
		issuer:   issuer,
		now:      time.Now,
		newID:    id.NewID,
	}
}

// RegisterInput describes a registration request. Unknown attr keys pass
// through to the stored record unchanged.
type RegisterInput struct {
	DisplayName string
	Email       string
	Password    string
	Role        string
	Attrs       map[string]any
}

// Session is a successful login result.
type Session struct {
	Record    identity.Record
	Partition identity.Role
	Token     string
}

// Register creates an identity in the partition selected by role.
// Unrecognized roles are rejected outright: the lenient default-to-developer
// mapping is reserved for the legacy backfill.
func (s *Service) Register(ctx context.Context, input RegisterInput) (identity.Record, error) {
	role, err := identity.ParseRole(input.Role)
	if err != nil {
		return identity.Record{}, err
	}
	email := identity.NormalizeEmail(input.Email)
	if err := identity.ValidateEmail(email); err != nil {
		return identity.Record{}, err
	}
	if len(input.Password) < minPasswordLength {
		return identity.Record{}, ErrPasswordTooShort
	}

	exists, err := s.resolver.EmailExists(ctx, email)
	if err != nil {
		return identity.Record{}, fmt.Errorf("check email uniqueness: %w", err)
	}
	if exists {
		return identity.Record{}, ErrEmailTaken
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return identity.Record{}, fmt.Errorf("hash password: %w", err)
	}

	record, err := identity.NewRecord(identity.CreateRecordInput{
		Email:            email,
		HashedCredential: string(hashed),
		DisplayName:      input.DisplayName,
		Role:             role,
		Attrs:            input.Attrs,
	}, s.now, s.newID)
	if err != nil {
		return identity.Record{}, err
	}

	if err := s.store.Partition(role).Create(ctx, record); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return identity.Record{}, ErrEmailTaken
		}
		return identity.Record{}, fmt.Errorf("create identity: %w", err)
	}
	return record, nil
}

// Login resolves the email across all partitions, verifies the password,
// and mints an access token tagged with the winning partition.
func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return Session{}, ErrInvalidCredentials
	}
	match, err := s.resolver.ResolveByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, resolver.ErrIdentityNotFound) || errors.Is(err, identity.ErrEmailInvalid) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, fmt.Errorf("resolve identity: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(match.Record.HashedCredential), []byte(password)); err != nil {
		return Session{}, ErrInvalidCredentials
	}
	signed, err := s.issuer.Mint(match.Record.ID, match.Partition)
	if err != nil {
		return Session{}, fmt.Errorf("mint token: %w", err)
	}
	return Session{Record: match.Record, Partition: match.Partition, Token: signed}, nil
}

// Profile returns the identity behind an id together with its partition tag.
func (s *Service) Profile(ctx context.Context, identityID string) (resolver.Match, error) {
	return s.resolver.ResolveByID(ctx, identityID)
}
