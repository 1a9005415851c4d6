// Package reconcile recomputes denormalized counters from the source-of-truth
// stores and sweeps for the partial states the write paths can leave behind.
//
// The sweep is diagnostic: it reports irregularities instead of repairing
// them, because picking the authoritative copy of an ambiguous duplicate is
// a policy decision that does not belong in this layer. The single write it
// can perform, publishing recomputed counters, is explicitly opt-in.
package reconcile

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/aftab-coresconnect/Internal-Portal-Backend/internal/services/identity/identity"
	idstorage "github.com/aftab-coresconnect/Internal-Portal-Backend/internal/services/identity/storage"
	"github.com/aftab-coresconnect/Internal-Portal-Backend/internal/services/tracking/domain"
	"github.com/aftab-coresconnect/Internal-Portal-Backend/internal/services/tracking/storage"
)

// IrregularityKind classifies a detected inconsistency.
type IrregularityKind string

const (
	// KindDuplicateEmail is an email present in more than one partition,
	// the signature of an interrupted or racing role transition.
	KindDuplicateEmail IrregularityKind = "duplicate-email"
	// KindHalfLinkClientSide is a client listing a project that does not
	// reference it back.
	KindHalfLinkClientSide IrregularityKind = "half-link-client-side"
	// KindHalfLinkProjectSide is a project referencing a client whose set
	// does not list it.
	KindHalfLinkProjectSide IrregularityKind = "half-link-project-side"
	// KindProjectMissingClient is a project referencing a client that does
	// not exist.
	KindProjectMissingClient IrregularityKind = "project-missing-client"
	// KindMilestoneMissingParent is a milestone whose owning project does
	// not exist.
	KindMilestoneMissingParent IrregularityKind = "milestone-missing-parent"
	// KindMilestoneUnlisted is a milestone whose owning project exists but
	// does not list it.
	KindMilestoneUnlisted IrregularityKind = "milestone-unlisted"
	// KindStaleMilestoneRef is a project listing a milestone that does not
	// exist or belongs to another project.
	KindStaleMilestoneRef IrregularityKind = "stale-milestone-reference"
)

// Irregularity is one detected inconsistency.
type Irregularity struct {
	Kind   IrregularityKind `json:"kind"`
	Detail string           `json:"detail"`
}

// Counters are the recomputed denormalized aggregates.
type Counters struct {
	PartitionHeads  map[identity.Role]int64      `json:"partitionHeads"`
	TotalIdentities int64                        `json:"totalIdentities"`
	Clients         int                          `json:"clients"`
	Projects        int                          `json:"projects"`
	Milestones      int                          `json:"milestones"`
	ProjectsByState map[domain.ProjectStatus]int `json:"projectsByState"`
	BlockedProjects int                          `json:"blockedProjects"`
	AvgSatisfaction float64                      `json:"avgSatisfaction"`
	AvgTeamFeedback float64                      `json:"avgTeamFeedback"`
}

// Report is the outcome of one reconciliation sweep.
type Report struct {
	GeneratedAt    time.Time      `json:"generatedAt"`
	Counters       Counters       `json:"counters"`
	Irregularities []Irregularity `json:"irregularities,omitempty"`
}

// Reconciler spans the identity and tracking stores.
type Reconciler struct {
	identities idstorage.Store
	tracking   storage.Store
	now        func() time.Time
}

// New creates a reconciler over both stores.
func New(identities idstorage.Store, tracking storage.Store) *Reconciler {
	return &Reconciler{identities: identities, tracking: tracking, now: time.Now}
}

// NewWithClock injects the time source.
func NewWithClock(identities idstorage.Store, tracking storage.Store, now func() time.Time) *Reconciler {
	r := New(identities, tracking)
	if now != nil {
		r.now = now
	}
	return r
}

// Reconcile scans every store, recomputes the counters, and reports every
// irregularity it finds. It performs no writes.
func (r *Reconciler) Reconcile(ctx context.Context) (Report, error) {
	report := Report{
		GeneratedAt: r.now().UTC(),
		Counters: Counters{
			PartitionHeads:  make(map[identity.Role]int64),
			ProjectsByState: make(map[domain.ProjectStatus]int),
		},
	}

	if err := r.scanIdentities(ctx, &report); err != nil {
		return report, err
	}
	if err := r.scanTracking(ctx, &report); err != nil {
		return report, err
	}

	sort.Slice(report.Irregularities, func(i, j int) bool {
		a, b := report.Irregularities[i], report.Irregularities[j]
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		return a.Detail < b.Detail
	})
	return report, nil
}

func (r *Reconciler) scanIdentities(ctx context.Context, report *Report) error {
	type emailHit struct {
		role identity.Role
	}
	seen := make(map[string][]emailHit)

	var satisfactionSum, feedbackSum float64
	var satisfactionN, feedbackN int

	for _, partition := range r.identities.Partitions() {
		records, err := partition.List(ctx)
		if err != nil {
			return fmt.Errorf("list %s partition: %w", partition.Role(), err)
		}
		report.Counters.PartitionHeads[partition.Role()] = int64(len(records))
		report.Counters.TotalIdentities += int64(len(records))

		for _, record := range records {
			seen[record.Email] = append(seen[record.Email], emailHit{role: partition.Role()})
			if score, ok := numericAttr(record.Attrs, identity.AttrClientSatisfactionScore); ok {
				satisfactionSum += score
				satisfactionN++
			}
			if score, ok := numericAttr(record.Attrs, identity.AttrTeamFeedbackScore); ok {
				feedbackSum += score
				feedbackN++
			}
		}
	}

	if satisfactionN > 0 {
		report.Counters.AvgSatisfaction = satisfactionSum / float64(satisfactionN)
	}
	if feedbackN > 0 {
		report.Counters.AvgTeamFeedback = feedbackSum / float64(feedbackN)
	}

	emails := make([]string, 0, len(seen))
	for email := range seen {
		emails = append(emails, email)
	}
	sort.Strings(emails)
	for _, email := range emails {
		hits := seen[email]
		if len(hits) < 2 {
			continue
		}
		roles := make([]string, 0, len(hits))
		for _, hit := range hits {
			roles = append(roles, string(hit.role))
		}
		report.Irregularities = append(report.Irregularities, Irregularity{
			Kind:   KindDuplicateEmail,
			Detail: fmt.Sprintf("email %s present in partitions %v", email, roles),
		})
	}
	return nil
}

func (r *Reconciler) scanTracking(ctx context.Context, report *Report) error {
	clients, err := r.tracking.Clients().List(ctx)
	if err != nil {
		return fmt.Errorf("list clients: %w", err)
	}
	projects, err := r.tracking.Projects().List(ctx)
	if err != nil {
		return fmt.Errorf("list projects: %w", err)
	}
	milestones, err := r.tracking.Milestones().List(ctx)
	if err != nil {
		return fmt.Errorf("list milestones: %w", err)
	}

	report.Counters.Clients = len(clients)
	report.Counters.Projects = len(projects)
	report.Counters.Milestones = len(milestones)

	clientByID := make(map[string]domain.Client, len(clients))
	for _, client := range clients {
		clientByID[client.ID] = client
	}
	projectByID := make(map[string]domain.Project, len(projects))
	for _, project := range projects {
		projectByID[project.ID] = project
		report.Counters.ProjectsByState[project.Status]++
		if project.Status == domain.ProjectPaused {
			report.Counters.BlockedProjects++
		}
	}
	milestoneByID := make(map[string]domain.Milestone, len(milestones))
	for _, milestone := range milestones {
		milestoneByID[milestone.ID] = milestone
	}

	for _, client := range clients {
		for _, projectID := range client.LinkedProjects {
			project, ok := projectByID[projectID]
			if !ok || project.ClientID != client.ID {
				report.Irregularities = append(report.Irregularities, Irregularity{
					Kind:   KindHalfLinkClientSide,
					Detail: fmt.Sprintf("client %s lists project %s which does not reference it back", client.ID, projectID),
				})
			}
		}
	}

	for _, project := range projects {
		if project.ClientID != "" {
			client, ok := clientByID[project.ClientID]
			switch {
			case !ok:
				report.Irregularities = append(report.Irregularities, Irregularity{
					Kind:   KindProjectMissingClient,
					Detail: fmt.Sprintf("project %s references missing client %s", project.ID, project.ClientID),
				})
			case !domain.Contains(client.LinkedProjects, project.ID):
				report.Irregularities = append(report.Irregularities, Irregularity{
					Kind:   KindHalfLinkProjectSide,
					Detail: fmt.Sprintf("project %s references client %s whose set does not list it", project.ID, project.ClientID),
				})
			}
		}
		for _, milestoneID := range project.Milestones {
			milestone, ok := milestoneByID[milestoneID]
			if !ok || milestone.Project != project.ID {
				report.Irregularities = append(report.Irregularities, Irregularity{
					Kind:   KindStaleMilestoneRef,
					Detail: fmt.Sprintf("project %s lists milestone %s which does not belong to it", project.ID, milestoneID),
				})
			}
		}
	}

	for _, milestone := range milestones {
		parent, ok := projectByID[milestone.Project]
		switch {
		case !ok:
			report.Irregularities = append(report.Irregularities, Irregularity{
				Kind:   KindMilestoneMissingParent,
				Detail: fmt.Sprintf("milestone %s owned by missing project %s", milestone.ID, milestone.Project),
			})
		case !domain.Contains(parent.Milestones, milestone.ID):
			report.Irregularities = append(report.Irregularities, Irregularity{
				Kind:   KindMilestoneUnlisted,
				Detail: fmt.Sprintf("milestone %s absent from project %s's set", milestone.ID, milestone.Project),
			})
		}
	}
	return nil
}

// ApplyCounters publishes the recomputed counters into every administrator
// record's attributes. This is the reconciler's only write path and callers
// opt into it explicitly.
func (r *Reconciler) ApplyCounters(ctx context.Context, report Report) error {
	partition := r.identities.Partition(identity.RoleAdministrator)
	admins, err := partition.List(ctx)
	if err != nil {
		return fmt.Errorf("list administrators: %w", err)
	}

	heads := make(map[string]any, len(report.Counters.PartitionHeads))
	for role, count := range report.Counters.PartitionHeads {
		heads[string(role)] = count
	}
	byState := make(map[string]any, len(report.Counters.ProjectsByState))
	for status, count := range report.Counters.ProjectsByState {
		byState[string(status)] = count
	}
	counters := map[string]any{
		"partitionHeads":  heads,
		"totalIdentities": report.Counters.TotalIdentities,
		"clients":         report.Counters.Clients,
		"projects":        report.Counters.Projects,
		"milestones":      report.Counters.Milestones,
		"projectsByState": byState,
		"blockedProjects": report.Counters.BlockedProjects,
		"avgSatisfaction": report.Counters.AvgSatisfaction,
		"avgTeamFeedback": report.Counters.AvgTeamFeedback,
		"computedAt":      report.GeneratedAt.Format(time.RFC3339),
	}

	for _, admin := range admins {
		if admin.Attrs == nil {
			admin.Attrs = make(map[string]any, 1)
		}
		admin.Attrs[identity.AttrCounters] = counters
		admin.UpdatedAt = r.now().UTC()
		if err := partition.Update(ctx, admin); err != nil {
			return fmt.Errorf("publish counters to administrator %s: %w", admin.ID, err)
		}
	}
	return nil
}

func numericAttr(attrs map[string]any, key string) (float64, bool) {
	raw, ok := attrs[key]
	if !ok {
		return 0, false
	}
	switch value := raw.(type) {
	case float64:
		return value, true
	case int:
		return float64(value), true
	case int64:
		return float64(value), true
	}
	return 0, false
}
