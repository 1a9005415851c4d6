// Package errors provides structured error handling for the portal backend.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Identity errors
	CodeIdentityNotFound           Code = "IDENTITY_NOT_FOUND"
	CodeIdentityEmailConflict      Code = "IDENTITY_EMAIL_CONFLICT"
	CodeIdentityEmailInvalid       Code = "IDENTITY_EMAIL_INVALID"
	CodeIdentityRoleInvalid        Code = "IDENTITY_ROLE_INVALID"
	CodeIdentityDisplayNameEmpty   Code = "IDENTITY_DISPLAY_NAME_EMPTY"
	CodeIdentityCredentialEmpty    Code = "IDENTITY_CREDENTIAL_EMPTY"
	CodeIdentityCredentialWeak     Code = "IDENTITY_CREDENTIAL_WEAK"
	CodeIdentityCredentialMismatch Code = "IDENTITY_CREDENTIAL_MISMATCH"
	CodeIdentitySamePartition      Code = "IDENTITY_SAME_PARTITION"

	// Token errors
	CodeTokenInvalid Code = "TOKEN_INVALID"
	CodeTokenExpired Code = "TOKEN_EXPIRED"

	// Client errors
	CodeClientNotFound      Code = "CLIENT_NOT_FOUND"
	CodeClientNameEmpty     Code = "CLIENT_NAME_EMPTY"
	CodeClientEmailInvalid  Code = "CLIENT_EMAIL_INVALID"
	CodeClientEmailConflict Code = "CLIENT_EMAIL_CONFLICT"

	// Project errors
	CodeProjectNotFound       Code = "PROJECT_NOT_FOUND"
	CodeProjectTitleEmpty     Code = "PROJECT_TITLE_EMPTY"
	CodeProjectStatusInvalid  Code = "PROJECT_STATUS_INVALID"
	CodeProjectAlreadyLinked  Code = "PROJECT_ALREADY_LINKED"
	CodeProjectClientMismatch Code = "PROJECT_CLIENT_MISMATCH"

	// Milestone errors
	CodeMilestoneNotFound         Code = "MILESTONE_NOT_FOUND"
	CodeMilestoneTitleEmpty       Code = "MILESTONE_TITLE_EMPTY"
	CodeMilestoneStatusInvalid    Code = "MILESTONE_STATUS_INVALID"
	CodeMilestoneProgressInvalid  Code = "MILESTONE_PROGRESS_INVALID"
	CodeMilestoneProjectImmutable Code = "MILESTONE_PROJECT_IMMUTABLE"

	// Multi-step write errors
	CodePartialFailure Code = "PARTIAL_FAILURE"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"
)

// GRPCCode maps domain codes to gRPC status codes for the transport layer.
func (c Code) GRPCCode() codes.Code {
	switch c {
	// InvalidArgument - validation failures, bad input
	case CodeIdentityEmailInvalid,
		CodeIdentityRoleInvalid,
		CodeIdentityDisplayNameEmpty,
		CodeIdentityCredentialEmpty,
		CodeIdentityCredentialWeak,
		CodeIdentitySamePartition,
		CodeClientNameEmpty,
		CodeClientEmailInvalid,
		CodeProjectTitleEmpty,
		CodeProjectStatusInvalid,
		CodeProjectClientMismatch,
		CodeMilestoneTitleEmpty,
		CodeMilestoneStatusInvalid,
		CodeMilestoneProgressInvalid,
		CodeMilestoneProjectImmutable:
		return codes.InvalidArgument

	// NotFound - missing entities
	case CodeIdentityNotFound,
		CodeClientNotFound,
		CodeProjectNotFound,
		CodeMilestoneNotFound,
		CodeNotFound:
		return codes.NotFound

	// AlreadyExists - uniqueness and linkage conflicts
	case CodeIdentityEmailConflict,
		CodeClientEmailConflict,
		CodeProjectAlreadyLinked:
		return codes.AlreadyExists

	// Unauthenticated - credential and token failures
	case CodeIdentityCredentialMismatch,
		CodeTokenInvalid,
		CodeTokenExpired:
		return codes.Unauthenticated

	// Aborted - a multi-step write stopped partway
	case CodePartialFailure:
		return codes.Aborted

	default:
		return codes.Internal
	}
}
