// Package identity defines the credential-bearing record stored in the
// role partitions, and the rules for moving records between them.
package identity

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	apperrors "github.com/aftab-coresconnect/Internal-Portal-Backend/internal/platform/errors"
	"github.com/aftab-coresconnect/Internal-Portal-Backend/internal/platform/id"
)

var (
	// ErrEmailInvalid indicates a missing or malformed email address.
	ErrEmailInvalid = apperrors.New(apperrors.CodeIdentityEmailInvalid, "a valid email address is required")
	// ErrDisplayNameEmpty indicates a missing display name.
	ErrDisplayNameEmpty = apperrors.New(apperrors.CodeIdentityDisplayNameEmpty, "display name is required")
	// ErrCredentialEmpty indicates missing credential material.
	ErrCredentialEmpty = apperrors.New(apperrors.CodeIdentityCredentialEmpty, "hashed credential is required")

	emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)
)

// Record is the credential-bearing record for a person, regardless of which
// partition holds it. IDs are partition-scoped and never reused. Email is
// unique across all partitions combined; no single partition's unique index
// can enforce that, so the resolver is the only gate for creates.
type Record struct {
	ID               string
	Email            string
	HashedCredential string
	DisplayName      string
	Role             Role
	Attrs            map[string]any
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// CreateRecordInput describes the fields needed to mint a new record.
type CreateRecordInput struct {
	Email            string
	HashedCredential string
	DisplayName      string
	Role             Role
	Attrs            map[string]any
}

// NormalizeEmail lowercases and trims an email for cross-partition matching.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail enforces the address shape the legacy models required.
func ValidateEmail(email string) error {
	if !emailPattern.MatchString(email) {
		return ErrEmailInvalid
	}
	return nil
}

// NewRecord builds a durable identity record from validated input.
//
// This is the canonical point where boundary data becomes a stable identity;
// every create path (registration, backfill, companion linkage) goes through
// it so email normalization and id minting stay uniform.
func NewRecord(input CreateRecordInput, now func() time.Time, idGenerator func() (string, error)) (Record, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	email := NormalizeEmail(input.Email)
	if err := ValidateEmail(email); err != nil {
		return Record{}, err
	}
	displayName := strings.TrimSpace(input.DisplayName)
	if displayName == "" {
		return Record{}, ErrDisplayNameEmpty
	}
	if strings.TrimSpace(input.HashedCredential) == "" {
		return Record{}, ErrCredentialEmpty
	}
	if _, err := ParseRole(string(input.Role)); err != nil {
		return Record{}, err
	}

	recordID, err := idGenerator()
	if err != nil {
		return Record{}, fmt.Errorf("generate record id: %w", err)
	}

	createdAt := now().UTC()
	return Record{
		ID:               recordID,
		Email:            email,
		HashedCredential: input.HashedCredential,
		DisplayName:      displayName,
		Role:             input.Role,
		Attrs:            input.Attrs,
		CreatedAt:        createdAt,
		UpdatedAt:        createdAt,
	}, nil
}
