package reconcile

import (
	"context"
	"testing"
	"time"

	"github.com/aftab-coresconnect/Internal-Portal-Backend/internal/services/identity/identity"
	"github.com/aftab-coresconnect/Internal-Portal-Backend/internal/services/tracking/domain"
	"github.com/aftab-coresconnect/Internal-Portal-Backend/internal/testkit/identityfakes"
	"github.com/aftab-coresconnect/Internal-Portal-Backend/internal/testkit/trackingfakes"
)

func fixedClock() time.Time {
	return time.Date(2025, time.March, 1, 10, 0, 0, 0, time.UTC)
}

func newTestReconciler() (*Reconciler, *identityfakes.Store, *trackingfakes.Store) {
	identities := identityfakes.NewStore()
	tracking := trackingfakes.NewStore()
	return NewWithClock(identities, tracking, fixedClock), identities, tracking
}

func addIdentity(store *identityfakes.Store, role identity.Role, recordID, email string, attrs map[string]any) {
	store.Fake(role).Records[recordID] = identity.Record{
		ID:               recordID,
		Email:            email,
		HashedCredential: "h",
		DisplayName:      recordID,
		Role:             role,
		Attrs:            attrs,
	}
}

func irregularitiesOfKind(report Report, kind IrregularityKind) []Irregularity {
	var matched []Irregularity
	for _, irregularity := range report.Irregularities {
		if irregularity.Kind == kind {
			matched = append(matched, irregularity)
		}
	}
	return matched
}

func TestReconcileCountsHeadsAndAverages(t *testing.T) {
	reconciler, identities, tracking := newTestReconciler()
	addIdentity(identities, identity.RoleAdministrator, "a-1", "a1@x.io", nil)
	addIdentity(identities, identity.RoleDeveloper, "d-1", "d1@x.io", nil)
	addIdentity(identities, identity.RoleDeveloper, "d-2", "d2@x.io", nil)
	addIdentity(identities, identity.RoleProjectManager, "pm-1", "pm1@x.io", map[string]any{
		identity.AttrClientSatisfactionScore: 4.0,
		identity.AttrTeamFeedbackScore:       3.0,
	})
	addIdentity(identities, identity.RoleProjectManager, "pm-2", "pm2@x.io", map[string]any{
		identity.AttrClientSatisfactionScore: 5.0,
	})
	tracking.ProjectStore.Records["p-1"] = domain.Project{ID: "p-1", Title: "P1", Status: domain.ProjectActive}
	tracking.ProjectStore.Records["p-2"] = domain.Project{ID: "p-2", Title: "P2", Status: domain.ProjectPaused}

	report, err := reconciler.Reconcile(context.Background())
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if report.Counters.PartitionHeads[identity.RoleDeveloper] != 2 {
		t.Fatalf("developer head count = %d", report.Counters.PartitionHeads[identity.RoleDeveloper])
	}
	if report.Counters.TotalIdentities != 5 {
		t.Fatalf("total identities = %d", report.Counters.TotalIdentities)
	}
	if report.Counters.ProjectsByState[domain.ProjectActive] != 1 || report.Counters.BlockedProjects != 1 {
		t.Fatalf("project counters = %+v", report.Counters)
	}
	if report.Counters.AvgSatisfaction != 4.5 {
		t.Fatalf("avg satisfaction = %v", report.Counters.AvgSatisfaction)
	}
	if report.Counters.AvgTeamFeedback != 3.0 {
		t.Fatalf("avg team feedback = %v", report.Counters.AvgTeamFeedback)
	}
	if len(report.Irregularities) != 0 {
		t.Fatalf("unexpected irregularities: %v", report.Irregularities)
	}
}

func TestReconcileDetectsDuplicateEmailAcrossPartitions(t *testing.T) {
	reconciler, identities, _ := newTestReconciler()
	addIdentity(identities, identity.RoleDeveloper, "d-1", "shared@x.io", nil)
	addIdentity(identities, identity.RoleDesigner, "g-1", "shared@x.io", nil)

	report, err := reconciler.Reconcile(context.Background())
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	duplicates := irregularitiesOfKind(report, KindDuplicateEmail)
	if len(duplicates) != 1 {
		t.Fatalf("duplicate irregularities = %v", report.Irregularities)
	}
}

func TestReconcileDetectsHalfLinksBothDirections(t *testing.T) {
	reconciler, _, tracking := newTestReconciler()
	// client-1 lists project-1, which does not reference it back.
	tracking.ClientStore.Records["client-1"] = domain.Client{
		ID: "client-1", Name: "C1", Email: "c1@x.io", LinkedProjects: []string{"project-1"},
	}
	tracking.ProjectStore.Records["project-1"] = domain.Project{ID: "project-1", Title: "P1", Status: domain.ProjectActive}
	// project-2 references client-2, whose set does not list it.
	tracking.ClientStore.Records["client-2"] = domain.Client{ID: "client-2", Name: "C2", Email: "c2@x.io"}
	tracking.ProjectStore.Records["project-2"] = domain.Project{ID: "project-2", Title: "P2", ClientID: "client-2", Status: domain.ProjectActive}

	report, err := reconciler.Reconcile(context.Background())
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if len(irregularitiesOfKind(report, KindHalfLinkClientSide)) != 1 {
		t.Fatalf("client-side half-links: %v", report.Irregularities)
	}
	if len(irregularitiesOfKind(report, KindHalfLinkProjectSide)) != 1 {
		t.Fatalf("project-side half-links: %v", report.Irregularities)
	}
}

func TestReconcileDetectsOrphanAndUnlistedMilestones(t *testing.T) {
	reconciler, _, tracking := newTestReconciler()
	tracking.ProjectStore.Records["project-1"] = domain.Project{
		ID: "project-1", Title: "P1", Status: domain.ProjectActive, Milestones: []string{"m-ghost"},
	}
	tracking.MilestoneStore.Records["m-orphan"] = domain.Milestone{ID: "m-orphan", Title: "M", Project: "ghost-project"}
	tracking.MilestoneStore.Records["m-unlisted"] = domain.Milestone{ID: "m-unlisted", Title: "M", Project: "project-1"}

	report, err := reconciler.Reconcile(context.Background())
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if len(irregularitiesOfKind(report, KindMilestoneMissingParent)) != 1 {
		t.Fatalf("orphan milestones: %v", report.Irregularities)
	}
	if len(irregularitiesOfKind(report, KindMilestoneUnlisted)) != 1 {
		t.Fatalf("unlisted milestones: %v", report.Irregularities)
	}
	if len(irregularitiesOfKind(report, KindStaleMilestoneRef)) != 1 {
		t.Fatalf("stale references: %v", report.Irregularities)
	}
}

func TestReconcileDetectsProjectWithMissingClient(t *testing.T) {
	reconciler, _, tracking := newTestReconciler()
	tracking.ProjectStore.Records["project-1"] = domain.Project{
		ID: "project-1", Title: "P1", ClientID: "ghost-client", Status: domain.ProjectActive,
	}

	report, err := reconciler.Reconcile(context.Background())
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if len(irregularitiesOfKind(report, KindProjectMissingClient)) != 1 {
		t.Fatalf("missing-client irregularities: %v", report.Irregularities)
	}
}

func TestReconcileIsReadOnly(t *testing.T) {
	reconciler, identities, tracking := newTestReconciler()
	addIdentity(identities, identity.RoleAdministrator, "a-1", "a1@x.io", nil)
	tracking.ClientStore.Records["client-1"] = domain.Client{
		ID: "client-1", Name: "C1", Email: "c1@x.io", LinkedProjects: []string{"ghost"},
	}

	if _, err := reconciler.Reconcile(context.Background()); err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	// The irregular state is still there: nothing was repaired.
	if got := tracking.ClientStore.Records["client-1"].LinkedProjects; len(got) != 1 {
		t.Fatalf("reconcile mutated the store: %v", got)
	}
	if identities.Fake(identity.RoleAdministrator).Records["a-1"].Attrs != nil {
		t.Fatal("reconcile wrote counters without opt-in")
	}
}

func TestApplyCountersPublishesToAdministrators(t *testing.T) {
	reconciler, identities, tracking := newTestReconciler()
	addIdentity(identities, identity.RoleAdministrator, "a-1", "a1@x.io", nil)
	addIdentity(identities, identity.RoleDeveloper, "d-1", "d1@x.io", nil)
	tracking.ProjectStore.Records["p-1"] = domain.Project{ID: "p-1", Title: "P1", Status: domain.ProjectActive}

	report, err := reconciler.Reconcile(context.Background())
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if err := reconciler.ApplyCounters(context.Background(), report); err != nil {
		t.Fatalf("ApplyCounters: %v", err)
	}

	admin := identities.Fake(identity.RoleAdministrator).Records["a-1"]
	counters, ok := admin.Attrs[identity.AttrCounters].(map[string]any)
	if !ok {
		t.Fatalf("counters attr = %v", admin.Attrs)
	}
	if counters["projects"] != 1 {
		t.Fatalf("published projects = %v", counters["projects"])
	}
	if counters["totalIdentities"] != int64(2) {
		t.Fatalf("published totalIdentities = %v", counters["totalIdentities"])
	}
}
