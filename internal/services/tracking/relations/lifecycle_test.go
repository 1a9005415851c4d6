package relations

import (
	"context"
	"errors"
	"testing"

	"github.com/aftab-coresconnect/Internal-Portal-Backend/internal/services/tracking/domain"
)

func TestCreateProjectWithInitialMilestones(t *testing.T) {
	maintainer, store := newTestMaintainer()
	seedClient(store, "client-1")

	project, err := maintainer.CreateProject(context.Background(), domain.CreateProjectInput{
		Title:    "Portal Revamp",
		ClientID: "client-1",
		Priority: domain.PriorityHigh,
	}, []domain.CreateMilestoneInput{
		{Title: "Kickoff"},
		{Title: "Design handoff", Status: domain.MilestoneInProgress},
	})
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}

	stored := store.ProjectStore.Records[project.ID]
	if len(stored.Milestones) != 2 {
		t.Fatalf("milestone set = %v", stored.Milestones)
	}
	for _, milestoneID := range stored.Milestones {
		milestone, ok := store.MilestoneStore.Records[milestoneID]
		if !ok {
			t.Fatalf("milestone %s not stored", milestoneID)
		}
		if milestone.Project != project.ID {
			t.Fatalf("milestone %s owned by %q", milestoneID, milestone.Project)
		}
	}
	if stored.ClientID != "client-1" {
		t.Fatalf("project clientID = %q", stored.ClientID)
	}
	if !domain.Contains(store.ClientStore.Records["client-1"].LinkedProjects, project.ID) {
		t.Fatal("client set missing new project")
	}
}

func TestCreateProjectWithoutClient(t *testing.T) {
	maintainer, store := newTestMaintainer()

	project, err := maintainer.CreateProject(context.Background(), domain.CreateProjectInput{
		Title: "Internal Tooling",
	}, nil)
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	if store.ProjectStore.Records[project.ID].ClientID != "" {
		t.Fatal("unexpected client reference")
	}
}

func TestCreateProjectRejectsMissingClient(t *testing.T) {
	maintainer, store := newTestMaintainer()

	_, err := maintainer.CreateProject(context.Background(), domain.CreateProjectInput{
		Title:    "Portal Revamp",
		ClientID: "ghost",
	}, nil)
	if !errors.Is(err, ErrClientNotFound) {
		t.Fatalf("want ErrClientNotFound, got %v", err)
	}
	if len(store.ProjectStore.Records) != 0 {
		t.Fatal("project created despite missing client")
	}
}

func TestCreateMilestoneAppendsToParentSet(t *testing.T) {
	maintainer, store := newTestMaintainer()
	seedProject(store, "project-1", "")

	milestone, err := maintainer.CreateMilestone(context.Background(), domain.CreateMilestoneInput{
		Title:   "QA pass",
		Project: "project-1",
	})
	if err != nil {
		t.Fatalf("CreateMilestone: %v", err)
	}
	if !domain.Contains(store.ProjectStore.Records["project-1"].Milestones, milestone.ID) {
		t.Fatal("parent set missing milestone")
	}
}

func TestCreateMilestoneRejectsMissingProject(t *testing.T) {
	maintainer, store := newTestMaintainer()

	_, err := maintainer.CreateMilestone(context.Background(), domain.CreateMilestoneInput{
		Title:   "QA pass",
		Project: "ghost",
	})
	if !errors.Is(err, ErrProjectNotFound) {
		t.Fatalf("want ErrProjectNotFound, got %v", err)
	}
	if len(store.MilestoneStore.Records) != 0 {
		t.Fatal("milestone created despite missing project")
	}
}

func TestCreateMilestoneHalfLinkOnParentWriteFailure(t *testing.T) {
	maintainer, store := newTestMaintainer()
	seedProject(store, "project-1", "")
	store.ProjectStore.UpdateErr = errors.New("write refused")

	milestone, err := maintainer.CreateMilestone(context.Background(), domain.CreateMilestoneInput{
		Title:   "QA pass",
		Project: "project-1",
	})
	assertPartialFailure(t, err, "record-milestone-id")

	// The milestone exists and names its parent; only the parent set lags.
	if _, ok := store.MilestoneStore.Records[milestone.ID]; !ok {
		t.Fatal("milestone lost")
	}
	if domain.Contains(store.ProjectStore.Records["project-1"].Milestones, milestone.ID) {
		t.Fatal("parent set unexpectedly written")
	}
}

func TestDeleteMilestonePullsFromParentFirst(t *testing.T) {
	maintainer, store := newTestMaintainer()
	seedProject(store, "project-1", "", "m-1")
	seedMilestone(store, "m-1", "project-1")

	if err := maintainer.DeleteMilestone(context.Background(), "m-1"); err != nil {
		t.Fatalf("DeleteMilestone: %v", err)
	}
	if domain.Contains(store.ProjectStore.Records["project-1"].Milestones, "m-1") {
		t.Fatal("parent set still lists milestone")
	}
	if _, ok := store.MilestoneStore.Records["m-1"]; ok {
		t.Fatal("milestone row not deleted")
	}
}

func TestDeleteMilestoneToleratesOrphan(t *testing.T) {
	maintainer, store := newTestMaintainer()
	seedMilestone(store, "m-1", "ghost-project")

	if err := maintainer.DeleteMilestone(context.Background(), "m-1"); err != nil {
		t.Fatalf("DeleteMilestone: %v", err)
	}
	if _, ok := store.MilestoneStore.Records["m-1"]; ok {
		t.Fatal("orphan milestone not deleted")
	}
}

func TestDeleteMilestoneMissing(t *testing.T) {
	maintainer, _ := newTestMaintainer()

	if err := maintainer.DeleteMilestone(context.Background(), "ghost"); !errors.Is(err, ErrMilestoneNotFound) {
		t.Fatalf("want ErrMilestoneNotFound, got %v", err)
	}
}
