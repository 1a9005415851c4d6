// Package domain defines the client, project, and milestone aggregates and
// the validation rules shared by every write path.
package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	apperrors "github.com/aftab-coresconnect/Internal-Portal-Backend/internal/platform/errors"
	"github.com/aftab-coresconnect/Internal-Portal-Backend/internal/platform/id"
)

var (
	// ErrClientNameEmpty indicates a missing client name.
	ErrClientNameEmpty = apperrors.New(apperrors.CodeClientNameEmpty, "client name is required")
	// ErrClientEmailInvalid indicates a missing or malformed client email.
	ErrClientEmailInvalid = apperrors.New(apperrors.CodeClientEmailInvalid, "a valid client email is required")

	clientEmailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)
)

// Client is a customer aggregate. LinkedProjects mirrors the ClientID field
// on each referenced project; the two sides are kept symmetric by the
// relations maintainer, not by the store.
type Client struct {
	ID             string
	Name           string
	Email          string
	Phone          string
	CompanyName    string
	Website        string
	LinkedProjects []string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// CreateClientInput describes the fields needed to mint a client.
type CreateClientInput struct {
	Name        string
	Email       string
	Phone       string
	CompanyName string
	Website     string
}

// NormalizeClientEmail lowercases and trims a client email. Clients share
// the email namespace with identity records when they hold portal logins.
func NormalizeClientEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NewClient builds a client aggregate from validated input.
func NewClient(input CreateClientInput, now func() time.Time, idGenerator func() (string, error)) (Client, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return Client{}, ErrClientNameEmpty
	}
	email := NormalizeClientEmail(input.Email)
	if !clientEmailPattern.MatchString(email) {
		return Client{}, ErrClientEmailInvalid
	}

	clientID, err := idGenerator()
	if err != nil {
		return Client{}, fmt.Errorf("generate client id: %w", err)
	}

	createdAt := now().UTC()
	return Client{
		ID:          clientID,
		Name:        name,
		Email:       email,
		Phone:       strings.TrimSpace(input.Phone),
		CompanyName: strings.TrimSpace(input.CompanyName),
		Website:     strings.TrimSpace(input.Website),
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}, nil
}
