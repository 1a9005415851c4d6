package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/aftab-coresconnect/Internal-Portal-Backend/internal/services/tracking/domain"
	"github.com/aftab-coresconnect/Internal-Portal-Backend/internal/services/tracking/storage"
)

func openTempStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "tracking.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("close store: %v", err)
		}
	})
	return store
}

func testClient(clientID, email string) domain.Client {
	now := time.Date(2025, time.March, 1, 10, 0, 0, 0, time.UTC)
	return domain.Client{
		ID:          clientID,
		Name:        "Acme Corp",
		Email:       email,
		CompanyName: "Acme",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func testProject(projectID string) domain.Project {
	now := time.Date(2025, time.March, 1, 10, 0, 0, 0, time.UTC)
	return domain.Project{
		ID:        projectID,
		Title:     "Portal Revamp",
		Status:    domain.ProjectActive,
		Priority:  domain.PriorityHigh,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func testMilestone(milestoneID, projectID string) domain.Milestone {
	now := time.Date(2025, time.March, 1, 10, 0, 0, 0, time.UTC)
	return domain.Milestone{
		ID:        milestoneID,
		Title:     "Design handoff",
		Project:   projectID,
		Status:    domain.MilestoneNotStarted,
		Priority:  domain.PriorityMedium,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestClientRoundTrip(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()

	client := testClient("client-1", "billing@acme.com")
	client.LinkedProjects = []string{"project-1", "project-2"}
	if err := store.Clients().Create(ctx, client); err != nil {
		t.Fatalf("create: %v", err)
	}

	found, err := store.Clients().FindByEmail(ctx, "BILLING@acme.com")
	if err != nil {
		t.Fatalf("find by email: %v", err)
	}
	if found.ID != client.ID {
		t.Fatalf("id = %q, want %q", found.ID, client.ID)
	}
	if len(found.LinkedProjects) != 2 || found.LinkedProjects[0] != "project-1" {
		t.Fatalf("linked projects = %v", found.LinkedProjects)
	}
	if !found.CreatedAt.Equal(client.CreatedAt) {
		t.Fatalf("createdAt = %v", found.CreatedAt)
	}
}

func TestClientEmailUnique(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()

	if err := store.Clients().Create(ctx, testClient("client-1", "billing@acme.com")); err != nil {
		t.Fatalf("create: %v", err)
	}
	err := store.Clients().Create(ctx, testClient("client-2", "billing@acme.com"))
	if !errors.Is(err, storage.ErrDuplicate) {
		t.Fatalf("want ErrDuplicate, got %v", err)
	}
}

func TestClientUpdateAndDeleteMissing(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()

	if err := store.Clients().Update(ctx, testClient("ghost", "g@x.io")); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("update missing: want ErrNotFound, got %v", err)
	}
	if err := store.Clients().Delete(ctx, "ghost"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("delete missing: want ErrNotFound, got %v", err)
	}
}

func TestProjectRoundTripWithOptionalFields(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()

	project := testProject("project-1")
	project.ClientID = "client-1"
	project.AssignedDevelopers = []string{"dev-1", "dev-2"}
	project.Milestones = []string{"milestone-1"}
	project.Deadline = time.Date(2025, time.June, 30, 0, 0, 0, 0, time.UTC)
	if err := store.Projects().Create(ctx, project); err != nil {
		t.Fatalf("create: %v", err)
	}

	found, err := store.Projects().FindByID(ctx, "project-1")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if found.ClientID != "client-1" {
		t.Fatalf("clientID = %q", found.ClientID)
	}
	if !found.Deadline.Equal(project.Deadline) {
		t.Fatalf("deadline = %v", found.Deadline)
	}
	if !found.StartDate.IsZero() {
		t.Fatalf("startDate = %v, want zero", found.StartDate)
	}
	if len(found.Milestones) != 1 {
		t.Fatalf("milestones = %v", found.Milestones)
	}

	// Clearing the client reference round-trips as absent, not "".
	found.ClientID = ""
	if err := store.Projects().Update(ctx, found); err != nil {
		t.Fatalf("update: %v", err)
	}
	cleared, err := store.Projects().FindByID(ctx, "project-1")
	if err != nil {
		t.Fatalf("find after clear: %v", err)
	}
	if cleared.ClientID != "" {
		t.Fatalf("clientID after clear = %q", cleared.ClientID)
	}
}

func TestProjectListByClient(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()

	linked := testProject("project-1")
	linked.ClientID = "client-1"
	other := testProject("project-2")
	if err := store.Projects().Create(ctx, linked); err != nil {
		t.Fatalf("create linked: %v", err)
	}
	if err := store.Projects().Create(ctx, other); err != nil {
		t.Fatalf("create other: %v", err)
	}

	projects, err := store.Projects().ListByClient(ctx, "client-1")
	if err != nil {
		t.Fatalf("list by client: %v", err)
	}
	if len(projects) != 1 || projects[0].ID != "project-1" {
		t.Fatalf("projects = %v", projects)
	}
}

func TestMilestoneUpdateKeepsOwningProject(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()

	milestone := testMilestone("milestone-1", "project-1")
	if err := store.Milestones().Create(ctx, milestone); err != nil {
		t.Fatalf("create: %v", err)
	}

	milestone.Project = "project-2"
	milestone.ProgressPercentage = 50
	milestone.Status = domain.MilestoneInProgress
	if err := store.Milestones().Update(ctx, milestone); err != nil {
		t.Fatalf("update: %v", err)
	}

	found, err := store.Milestones().FindByID(ctx, "milestone-1")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if found.Project != "project-1" {
		t.Fatalf("project changed to %q", found.Project)
	}
	if found.ProgressPercentage != 50 || found.Status != domain.MilestoneInProgress {
		t.Fatalf("update lost fields: %+v", found)
	}
}

func TestMilestoneListByProject(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()

	for _, milestoneID := range []string{"m-1", "m-2"} {
		if err := store.Milestones().Create(ctx, testMilestone(milestoneID, "project-1")); err != nil {
			t.Fatalf("create %s: %v", milestoneID, err)
		}
	}
	if err := store.Milestones().Create(ctx, testMilestone("m-3", "project-2")); err != nil {
		t.Fatalf("create m-3: %v", err)
	}

	milestones, err := store.Milestones().ListByProject(ctx, "project-1")
	if err != nil {
		t.Fatalf("list by project: %v", err)
	}
	if len(milestones) != 2 {
		t.Fatalf("milestones = %v", milestones)
	}
}

func TestFindMissingReturnsNotFound(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()

	if _, err := store.Clients().FindByID(ctx, "ghost"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("client: want ErrNotFound, got %v", err)
	}
	if _, err := store.Projects().FindByID(ctx, "ghost"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("project: want ErrNotFound, got %v", err)
	}
	if _, err := store.Milestones().FindByID(ctx, "ghost"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("milestone: want ErrNotFound, got %v", err)
	}
}
