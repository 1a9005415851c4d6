package relations

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/aftab-coresconnect/Internal-Portal-Backend/internal/services/identity/identity"
	"github.com/aftab-coresconnect/Internal-Portal-Backend/internal/services/tracking/domain"
	"github.com/aftab-coresconnect/Internal-Portal-Backend/internal/testkit/identityfakes"
	"github.com/aftab-coresconnect/Internal-Portal-Backend/internal/testkit/trackingfakes"
)

func newTestClientService() (*ClientService, *trackingfakes.Store, *identityfakes.Store) {
	tracking := trackingfakes.NewStore()
	identities := identityfakes.NewStore()
	maintainer := NewWithClock(tracking, fixedClock, sequentialIDs())
	service := NewClientServiceWithClock(maintainer, identities, fixedClock, sequentialIDs())
	return service, tracking, identities
}

func TestCreateClientWithPasswordCreatesCompanion(t *testing.T) {
	service, tracking, identities := newTestClientService()

	client, err := service.CreateClient(context.Background(), domain.CreateClientInput{
		Name:        "Acme Corp",
		Email:       "billing@acme.com",
		CompanyName: "Acme",
	}, "hunter22")
	if err != nil {
		t.Fatalf("CreateClient: %v", err)
	}
	if _, ok := tracking.ClientStore.Records[client.ID]; !ok {
		t.Fatal("client not stored")
	}

	companions := identities.Fake(identity.RoleClient).Records
	if len(companions) != 1 {
		t.Fatalf("companion count = %d", len(companions))
	}
	for _, companion := range companions {
		if companion.Email != "billing@acme.com" {
			t.Fatalf("companion email = %q", companion.Email)
		}
		if companion.DisplayName != "Acme Corp" {
			t.Fatalf("companion display name = %q", companion.DisplayName)
		}
		if err := bcrypt.CompareHashAndPassword([]byte(companion.HashedCredential), []byte("hunter22")); err != nil {
			t.Fatalf("companion credential does not verify: %v", err)
		}
		if companion.Attrs[identity.AttrCompanyName] != "Acme" {
			t.Fatalf("companion attrs = %v", companion.Attrs)
		}
	}
}

func TestCreateClientWithoutPasswordSkipsCompanion(t *testing.T) {
	service, _, identities := newTestClientService()

	if _, err := service.CreateClient(context.Background(), domain.CreateClientInput{
		Name:  "Acme Corp",
		Email: "billing@acme.com",
	}, ""); err != nil {
		t.Fatalf("CreateClient: %v", err)
	}
	if len(identities.Fake(identity.RoleClient).Records) != 0 {
		t.Fatal("companion created without credential material")
	}
}

func TestCreateClientSurvivesCompanionFailure(t *testing.T) {
	service, tracking, identities := newTestClientService()
	identities.Fake(identity.RoleClient).CreateErr = errors.New("identity store down")

	client, err := service.CreateClient(context.Background(), domain.CreateClientInput{
		Name:  "Acme Corp",
		Email: "billing@acme.com",
	}, "hunter22")
	assertPartialFailure(t, err, "companion-identity")

	// The primary write stands; re-running the update heals the drift.
	if _, ok := tracking.ClientStore.Records[client.ID]; !ok {
		t.Fatal("client rolled back on companion failure")
	}

	identities.Fake(identity.RoleClient).CreateErr = nil
	if _, err := service.UpdateClient(context.Background(), client, "hunter22"); err != nil {
		t.Fatalf("healing update: %v", err)
	}
	if len(identities.Fake(identity.RoleClient).Records) != 1 {
		t.Fatal("companion not created on retry")
	}
}

func TestCreateClientRefusesCompanionWhenEmailHeldByOtherPartition(t *testing.T) {
	service, tracking, identities := newTestClientService()
	identities.Fake(identity.RoleDeveloper).Records["dev-1"] = identity.Record{
		ID:    "dev-1",
		Email: "shared@acme.com",
		Role:  identity.RoleDeveloper,
	}

	client, err := service.CreateClient(context.Background(), domain.CreateClientInput{
		Name:  "Acme Corp",
		Email: "shared@acme.com",
	}, "hunter22")
	assertPartialFailure(t, err, "companion-identity")
	if !errors.Is(err, ErrCompanionEmailTaken) {
		t.Fatalf("err = %v, want ErrCompanionEmailTaken", err)
	}

	// The client write stands, but the email must not gain a second record.
	if _, ok := tracking.ClientStore.Records[client.ID]; !ok {
		t.Fatal("client rolled back on companion conflict")
	}
	if len(identities.Fake(identity.RoleClient).Records) != 0 {
		t.Fatal("companion created for an email held by the developer partition")
	}
}

func TestUpdateClientResetsCompanionCredential(t *testing.T) {
	service, _, identities := newTestClientService()
	ctx := context.Background()

	client, err := service.CreateClient(ctx, domain.CreateClientInput{
		Name:  "Acme Corp",
		Email: "billing@acme.com",
	}, "hunter22")
	if err != nil {
		t.Fatalf("CreateClient: %v", err)
	}

	client.Name = "Acme Corporation"
	if _, err := service.UpdateClient(ctx, client, "new-password"); err != nil {
		t.Fatalf("UpdateClient: %v", err)
	}

	for _, companion := range identities.Fake(identity.RoleClient).Records {
		if companion.DisplayName != "Acme Corporation" {
			t.Fatalf("companion display name = %q", companion.DisplayName)
		}
		if err := bcrypt.CompareHashAndPassword([]byte(companion.HashedCredential), []byte("new-password")); err != nil {
			t.Fatalf("companion credential not reset: %v", err)
		}
	}
}

func TestDeleteClientRemovesCompanion(t *testing.T) {
	service, tracking, identities := newTestClientService()
	ctx := context.Background()

	client, err := service.CreateClient(ctx, domain.CreateClientInput{
		Name:  "Acme Corp",
		Email: "billing@acme.com",
	}, "hunter22")
	if err != nil {
		t.Fatalf("CreateClient: %v", err)
	}

	if err := service.DeleteClient(ctx, client.ID); err != nil {
		t.Fatalf("DeleteClient: %v", err)
	}
	if len(tracking.ClientStore.Records) != 0 {
		t.Fatal("client not deleted")
	}
	if len(identities.Fake(identity.RoleClient).Records) != 0 {
		t.Fatal("companion identity not deleted")
	}
}

func TestDeleteClientToleratesMissingCompanion(t *testing.T) {
	service, _, _ := newTestClientService()
	ctx := context.Background()

	client, err := service.CreateClient(ctx, domain.CreateClientInput{
		Name:  "Acme Corp",
		Email: "billing@acme.com",
	}, "")
	if err != nil {
		t.Fatalf("CreateClient: %v", err)
	}
	if err := service.DeleteClient(ctx, client.ID); err != nil {
		t.Fatalf("DeleteClient with no companion: %v", err)
	}
}

func TestDeleteClientDetachesProjectsBeforeCompanionCleanup(t *testing.T) {
	service, tracking, _ := newTestClientService()
	ctx := context.Background()

	client, err := service.CreateClient(ctx, domain.CreateClientInput{
		Name:  "Acme Corp",
		Email: "billing@acme.com",
	}, "")
	if err != nil {
		t.Fatalf("CreateClient: %v", err)
	}
	seedProject(tracking, "project-1", client.ID)
	stored := tracking.ClientStore.Records[client.ID]
	stored.LinkedProjects = []string{"project-1"}
	tracking.ClientStore.Records[client.ID] = stored

	if err := service.DeleteClient(ctx, client.ID); err != nil {
		t.Fatalf("DeleteClient: %v", err)
	}
	project := tracking.ProjectStore.Records["project-1"]
	if project.ClientID != "" {
		t.Fatal("project still references deleted client")
	}
}
