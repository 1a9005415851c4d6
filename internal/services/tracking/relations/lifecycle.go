package relations

import (
	"context"
	"errors"
	"fmt"
	"log"

	apperrors "github.com/aftab-coresconnect/Internal-Portal-Backend/internal/platform/errors"
	"github.com/aftab-coresconnect/Internal-Portal-Backend/internal/services/tracking/domain"
	"github.com/aftab-coresconnect/Internal-Portal-Backend/internal/services/tracking/storage"
)

// CreateProject creates a project, its initial milestones, and the client
// link when a client is referenced. Write order: project first, then each
// milestone, then the milestone ids on the project, then the client link.
// The project always exists before anything references it.
func (m *Maintainer) CreateProject(ctx context.Context, input domain.CreateProjectInput, initialMilestones []domain.CreateMilestoneInput) (domain.Project, error) {
	clientID := input.ClientID
	input.ClientID = ""
	project, err := domain.NewProject(input, m.now, m.newID)
	if err != nil {
		return domain.Project{}, err
	}
	if clientID != "" {
		if _, err := m.loadClient(ctx, clientID); err != nil {
			return domain.Project{}, err
		}
	}

	if err := m.store.Projects().Create(ctx, project); err != nil {
		return domain.Project{}, fmt.Errorf("create project: %w", err)
	}

	for _, milestoneInput := range initialMilestones {
		milestoneInput.Project = project.ID
		milestone, err := domain.NewMilestone(milestoneInput, m.now, m.newID)
		if err != nil {
			return project, err
		}
		if err := m.store.Milestones().Create(ctx, milestone); err != nil {
			return project, fmt.Errorf("create initial milestone: %w", err)
		}
		project.Milestones = domain.AddToSet(project.Milestones, milestone.ID)
	}
	if len(project.Milestones) > 0 {
		project.UpdatedAt = m.now().UTC()
		if err := m.store.Projects().Update(ctx, project); err != nil {
			state := fmt.Sprintf("project %s exists but its milestone set is missing %d entries", project.ID, len(project.Milestones))
			log.Printf("project create partial failure: %s: %v", state, err)
			return project, apperrors.PartialFailure("record-milestone-ids", state, err)
		}
	}

	if clientID != "" {
		if err := m.LinkProject(ctx, clientID, project.ID); err != nil && !errors.Is(err, ErrAlreadyLinked) {
			return project, err
		}
		project.ClientID = clientID
	}
	return project, nil
}

// CreateMilestone adds a milestone to an existing project: the milestone row
// first, then the id on the project's set. A failure between the two leaves
// the milestone reachable through its project reference but absent from the
// parent set, which the reconciler reports.
func (m *Maintainer) CreateMilestone(ctx context.Context, input domain.CreateMilestoneInput) (domain.Milestone, error) {
	project, err := m.loadProject(ctx, input.Project)
	if err != nil {
		return domain.Milestone{}, err
	}

	milestone, err := domain.NewMilestone(input, m.now, m.newID)
	if err != nil {
		return domain.Milestone{}, err
	}
	if err := m.store.Milestones().Create(ctx, milestone); err != nil {
		return domain.Milestone{}, fmt.Errorf("create milestone: %w", err)
	}

	project.Milestones = domain.AddToSet(project.Milestones, milestone.ID)
	project.UpdatedAt = m.now().UTC()
	if err := m.store.Projects().Update(ctx, project); err != nil {
		state := fmt.Sprintf("milestone %s exists but project %s does not list it", milestone.ID, project.ID)
		log.Printf("milestone create partial failure: %s: %v", state, err)
		return milestone, apperrors.PartialFailure("record-milestone-id", state, err)
	}
	return milestone, nil
}

// DeleteMilestone removes a milestone: first from the parent's set, then the
// row itself. The reverse order could leave the parent listing a milestone
// that no longer exists.
func (m *Maintainer) DeleteMilestone(ctx context.Context, milestoneID string) error {
	milestone, err := m.store.Milestones().FindByID(ctx, milestoneID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrMilestoneNotFound
		}
		return fmt.Errorf("load milestone: %w", err)
	}

	project, err := m.store.Projects().FindByID(ctx, milestone.Project)
	switch {
	case err == nil:
		if domain.Contains(project.Milestones, milestoneID) {
			project.Milestones = domain.RemoveFromSet(project.Milestones, milestoneID)
			project.UpdatedAt = m.now().UTC()
			if err := m.store.Projects().Update(ctx, project); err != nil {
				return fmt.Errorf("remove milestone from project set: %w", err)
			}
		}
	case errors.Is(err, storage.ErrNotFound):
		// Orphan milestone; just delete the row.
	default:
		return fmt.Errorf("load parent project: %w", err)
	}

	if err := m.store.Milestones().Delete(ctx, milestoneID); err != nil && !errors.Is(err, storage.ErrNotFound) {
		state := fmt.Sprintf("milestone %s detached from project %s but not deleted", milestoneID, milestone.Project)
		log.Printf("milestone delete partial failure: %s: %v", state, err)
		return apperrors.PartialFailure("delete-milestone", state, err)
	}
	return nil
}
