package errors

import (
	"errors"
	"fmt"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestIsMatchesByCode(t *testing.T) {
	sentinel := New(CodeIdentityNotFound, "identity not found")
	wrapped := fmt.Errorf("resolve: %w", Wrap(CodeIdentityNotFound, "no partition matched", nil))

	if !errors.Is(wrapped, sentinel) {
		t.Fatal("expected wrapped error to match sentinel by code")
	}
	if errors.Is(wrapped, New(CodeClientNotFound, "client not found")) {
		t.Fatal("expected mismatch for a different code")
	}
}

func TestUnwrapReturnsCause(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(CodePartialFailure, "delete source failed", cause)

	if !errors.Is(err, cause) {
		t.Fatal("expected cause to be reachable through Unwrap")
	}
}

func TestPartialFailureMetadata(t *testing.T) {
	err := PartialFailure("delete-source", "duplicate identity left in developer partition", nil)

	if err.Code != CodePartialFailure {
		t.Fatalf("expected partial failure code, got %s", err.Code)
	}
	if err.Metadata[MetaFailedStep] != "delete-source" {
		t.Fatalf("expected failed_step metadata, got %q", err.Metadata[MetaFailedStep])
	}
	if err.Metadata[MetaState] == "" {
		t.Fatal("expected state metadata to be set")
	}
}

func TestGRPCCodeMapping(t *testing.T) {
	cases := []struct {
		code Code
		want codes.Code
	}{
		{CodeIdentityEmailInvalid, codes.InvalidArgument},
		{CodeIdentityNotFound, codes.NotFound},
		{CodeIdentityEmailConflict, codes.AlreadyExists},
		{CodeProjectAlreadyLinked, codes.AlreadyExists},
		{CodeIdentityCredentialMismatch, codes.Unauthenticated},
		{CodePartialFailure, codes.Aborted},
		{CodeUnknown, codes.Internal},
	}
	for _, tc := range cases {
		if got := tc.code.GRPCCode(); got != tc.want {
			t.Fatalf("code %s: expected %v, got %v", tc.code, tc.want, got)
		}
	}
}

func TestToGRPCStatusCarriesErrorInfo(t *testing.T) {
	err := WithMetadata(CodeProjectAlreadyLinked, "project already linked", map[string]string{
		"project_id": "p1",
	}).ToGRPCStatus()

	st, ok := status.FromError(err)
	if !ok {
		t.Fatal("expected a gRPC status error")
	}
	if st.Code() != codes.AlreadyExists {
		t.Fatalf("expected AlreadyExists, got %v", st.Code())
	}
	if len(st.Details()) != 1 {
		t.Fatalf("expected one detail, got %d", len(st.Details()))
	}
}
