package identity

import (
	"errors"
	"testing"
	"time"
)

func fixedNow() time.Time {
	return time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
}

func staticID(value string) func() (string, error) {
	return func() (string, error) { return value, nil }
}

func TestNewRecordNormalizesEmail(t *testing.T) {
	record, err := NewRecord(CreateRecordInput{
		Email:            "  Dev@Example.COM ",
		HashedCredential: "$2a$10$hash",
		DisplayName:      "Dev One",
		Role:             RoleDeveloper,
	}, fixedNow, staticID("rec-1"))
	if err != nil {
		t.Fatalf("new record: %v", err)
	}
	if record.Email != "dev@example.com" {
		t.Fatalf("expected normalized email, got %q", record.Email)
	}
	if record.ID != "rec-1" {
		t.Fatalf("expected injected id, got %q", record.ID)
	}
	if !record.CreatedAt.Equal(fixedNow()) || !record.UpdatedAt.Equal(fixedNow()) {
		t.Fatal("expected timestamps from injected clock")
	}
}

func TestNewRecordValidation(t *testing.T) {
	cases := []struct {
		name  string
		input CreateRecordInput
		want  error
	}{
		{
			name:  "missing email",
			input: CreateRecordInput{HashedCredential: "h", DisplayName: "n", Role: RoleDeveloper},
			want:  ErrEmailInvalid,
		},
		{
			name:  "malformed email",
			input: CreateRecordInput{Email: "not-an-email", HashedCredential: "h", DisplayName: "n", Role: RoleDeveloper},
			want:  ErrEmailInvalid,
		},
		{
			name:  "missing display name",
			input: CreateRecordInput{Email: "a@x.com", HashedCredential: "h", Role: RoleDeveloper},
			want:  ErrDisplayNameEmpty,
		},
		{
			name:  "missing credential",
			input: CreateRecordInput{Email: "a@x.com", DisplayName: "n", Role: RoleDeveloper},
			want:  ErrCredentialEmpty,
		},
		{
			name:  "unknown role",
			input: CreateRecordInput{Email: "a@x.com", HashedCredential: "h", DisplayName: "n", Role: Role("teamLead")},
			want:  ErrRoleInvalid,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewRecord(tc.input, fixedNow, staticID("x")); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestParseRole(t *testing.T) {
	for _, role := range Roles() {
		parsed, err := ParseRole(string(role))
		if err != nil {
			t.Fatalf("parse role %s: %v", role, err)
		}
		if parsed != role {
			t.Fatalf("expected %s, got %s", role, parsed)
		}
	}
	if _, err := ParseRole("teamLead"); !errors.Is(err, ErrRoleInvalid) {
		t.Fatalf("expected role invalid error, got %v", err)
	}
}

func TestRolesOrderIsFixed(t *testing.T) {
	want := []Role{RoleAdministrator, RoleDeveloper, RoleDesigner, RoleProjectManager, RoleClient}
	got := Roles()
	if len(got) != len(want) {
		t.Fatalf("expected %d roles, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("position %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestCarryAttrsDropsSourceSpecificKeys(t *testing.T) {
	attrs := map[string]any{
		AttrTechStack:     []string{"go", "sqlite"},
		AttrGithubProfile: "dev-one",
		AttrEffectiveness: map[string]any{"overall": 82},
		"title":           "Engineer",
		"customField":     "pass-through",
	}

	carried := CarryAttrs(RoleDeveloper, RoleDesigner, attrs)

	if _, ok := carried[AttrTechStack]; ok {
		t.Fatal("expected techStack dropped when leaving developer partition")
	}
	if _, ok := carried[AttrGithubProfile]; ok {
		t.Fatal("expected githubProfile dropped when leaving developer partition")
	}
	if _, ok := carried[AttrEffectiveness]; !ok {
		t.Fatal("expected effectiveness kept: designers track it too")
	}
	if carried["title"] != "Engineer" {
		t.Fatal("expected shared profile field kept")
	}
	if carried["customField"] != "pass-through" {
		t.Fatal("expected unknown field passed through unchanged")
	}
}

func TestCarryAttrsEmpty(t *testing.T) {
	if carried := CarryAttrs(RoleDeveloper, RoleDesigner, nil); carried != nil {
		t.Fatalf("expected nil for empty attrs, got %v", carried)
	}
	only := map[string]any{AttrManagedProjects: []string{"p1"}}
	if carried := CarryAttrs(RoleProjectManager, RoleDeveloper, only); carried != nil {
		t.Fatalf("expected nil when every key is dropped, got %v", carried)
	}
}
