// Package relations maintains the bidirectional references between clients,
// projects, and milestones.
//
// Every multi-step write here has a deliberate order chosen so a failure
// partway through leaves a detectable partial state, never a dangling
// reference in the forward direction. The reconciler's sweep finds and
// reports the partial states; nothing in this package locks or retries.
package relations

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	apperrors "github.com/aftab-coresconnect/Internal-Portal-Backend/internal/platform/errors"
	"github.com/aftab-coresconnect/Internal-Portal-Backend/internal/platform/id"
	"github.com/aftab-coresconnect/Internal-Portal-Backend/internal/services/tracking/domain"
	"github.com/aftab-coresconnect/Internal-Portal-Backend/internal/services/tracking/storage"
)

var (
	// ErrClientNotFound indicates a client reference that does not resolve.
	ErrClientNotFound = apperrors.New(apperrors.CodeClientNotFound, "client not found")
	// ErrProjectNotFound indicates a project reference that does not resolve.
	ErrProjectNotFound = apperrors.New(apperrors.CodeProjectNotFound, "project not found")
	// ErrMilestoneNotFound indicates a milestone reference that does not resolve.
	ErrMilestoneNotFound = apperrors.New(apperrors.CodeMilestoneNotFound, "milestone not found")
	// ErrAlreadyLinked indicates the client-project link already exists.
	// Callers may treat it as success; the link is intact either way.
	ErrAlreadyLinked = apperrors.New(apperrors.CodeProjectAlreadyLinked, "project already linked to this client")
	// ErrClientMismatch indicates the project is linked to a different
	// client. Reassignment is explicit, never implicit through a link call.
	ErrClientMismatch = apperrors.New(apperrors.CodeProjectClientMismatch, "project is linked to a different client")
)

// Maintainer performs the relationship writes.
type Maintainer struct {
	store storage.Store
	now   func() time.Time
	newID func() (string, error)
}

// New creates a relations maintainer over the tracking store.
func New(store storage.Store) *Maintainer {
	return &Maintainer{
		store: store,
		now:   time.Now,
		newID: id.NewID,
	}
}

// NewWithClock creates a maintainer with injected time and id generation.
func NewWithClock(store storage.Store, now func() time.Time, newID func() (string, error)) *Maintainer {
	m := New(store)
	if now != nil {
		m.now = now
	}
	if newID != nil {
		m.newID = newID
	}
	return m
}

// LinkProject records the client-project relation on both sides: the
// client's set first, then the project's client reference. If the second
// write fails the relation is client-to-project only, a detectable
// half-link surfaced as a PartialFailure.
func (m *Maintainer) LinkProject(ctx context.Context, clientID, projectID string) error {
	client, err := m.loadClient(ctx, clientID)
	if err != nil {
		return err
	}
	project, err := m.loadProject(ctx, projectID)
	if err != nil {
		return err
	}

	if domain.Contains(client.LinkedProjects, projectID) && project.ClientID == clientID {
		return ErrAlreadyLinked
	}
	if project.ClientID != "" && project.ClientID != clientID {
		return ErrClientMismatch
	}

	if !domain.Contains(client.LinkedProjects, projectID) {
		client.LinkedProjects = domain.AddToSet(client.LinkedProjects, projectID)
		client.UpdatedAt = m.now().UTC()
		if err := m.store.Clients().Update(ctx, client); err != nil {
			return fmt.Errorf("add project to client set: %w", err)
		}
	}

	if project.ClientID != clientID {
		project.ClientID = clientID
		project.UpdatedAt = m.now().UTC()
		if err := m.store.Projects().Update(ctx, project); err != nil {
			state := fmt.Sprintf("half-link: client %s lists project %s but the project has no client reference", clientID, projectID)
			log.Printf("link partial failure: %s: %v", state, err)
			return apperrors.PartialFailure("set-project-client", state, err)
		}
	}
	return nil
}

// UnlinkProject removes the relation from both sides. Calling it on an
// already-unlinked pair is a no-op, not an error.
func (m *Maintainer) UnlinkProject(ctx context.Context, clientID, projectID string) error {
	client, err := m.loadClient(ctx, clientID)
	if err != nil {
		return err
	}
	if domain.Contains(client.LinkedProjects, projectID) {
		client.LinkedProjects = domain.RemoveFromSet(client.LinkedProjects, projectID)
		client.UpdatedAt = m.now().UTC()
		if err := m.store.Clients().Update(ctx, client); err != nil {
			return fmt.Errorf("remove project from client set: %w", err)
		}
	}

	project, err := m.store.Projects().FindByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("load project: %w", err)
	}
	if project.ClientID == clientID {
		project.ClientID = ""
		project.UpdatedAt = m.now().UTC()
		if err := m.store.Projects().Update(ctx, project); err != nil {
			state := fmt.Sprintf("half-unlink: project %s still references client %s after set removal", projectID, clientID)
			log.Printf("unlink partial failure: %s: %v", state, err)
			return apperrors.PartialFailure("clear-project-client", state, err)
		}
	}
	return nil
}

// ReassignClient moves a project from one client to another. The project is
// removed from the old client's set before joining the new one, so no moment
// exists where two clients both claim it. Identical old and new ids are a
// no-op guard.
func (m *Maintainer) ReassignClient(ctx context.Context, projectID, oldClientID, newClientID string) error {
	if oldClientID == newClientID {
		return nil
	}
	project, err := m.loadProject(ctx, projectID)
	if err != nil {
		return err
	}
	newClient, err := m.loadClient(ctx, newClientID)
	if err != nil {
		return err
	}

	if oldClientID != "" {
		oldClient, err := m.store.Clients().FindByID(ctx, oldClientID)
		switch {
		case err == nil:
			if domain.Contains(oldClient.LinkedProjects, projectID) {
				oldClient.LinkedProjects = domain.RemoveFromSet(oldClient.LinkedProjects, projectID)
				oldClient.UpdatedAt = m.now().UTC()
				if err := m.store.Clients().Update(ctx, oldClient); err != nil {
					return fmt.Errorf("remove project from old client set: %w", err)
				}
			}
		case errors.Is(err, storage.ErrNotFound):
			// The old client is gone; nothing to detach.
		default:
			return fmt.Errorf("load old client: %w", err)
		}
	}

	if !domain.Contains(newClient.LinkedProjects, projectID) {
		newClient.LinkedProjects = domain.AddToSet(newClient.LinkedProjects, projectID)
		newClient.UpdatedAt = m.now().UTC()
		if err := m.store.Clients().Update(ctx, newClient); err != nil {
			state := fmt.Sprintf("project %s detached from client %s but not yet attached to client %s", projectID, oldClientID, newClientID)
			log.Printf("reassign partial failure: %s: %v", state, err)
			return apperrors.PartialFailure("add-to-new-client", state, err)
		}
	}

	project.ClientID = newClientID
	project.UpdatedAt = m.now().UTC()
	if err := m.store.Projects().Update(ctx, project); err != nil {
		state := fmt.Sprintf("half-link: client %s lists project %s but the project still references %q", newClientID, projectID, oldClientID)
		log.Printf("reassign partial failure: %s: %v", state, err)
		return apperrors.PartialFailure("set-project-client", state, err)
	}
	return nil
}

// CascadeDeleteProject removes a project and everything it owns: the client
// link is detached first, then every owned milestone is deleted, then the
// project itself. A failure mid-sequence never leaves milestones pointing at
// a parent that is already gone.
func (m *Maintainer) CascadeDeleteProject(ctx context.Context, projectID string) error {
	project, err := m.loadProject(ctx, projectID)
	if err != nil {
		return err
	}

	if project.ClientID != "" {
		client, err := m.store.Clients().FindByID(ctx, project.ClientID)
		switch {
		case err == nil:
			if domain.Contains(client.LinkedProjects, projectID) {
				client.LinkedProjects = domain.RemoveFromSet(client.LinkedProjects, projectID)
				client.UpdatedAt = m.now().UTC()
				if err := m.store.Clients().Update(ctx, client); err != nil {
					return fmt.Errorf("detach client link: %w", err)
				}
			}
		case errors.Is(err, storage.ErrNotFound):
			// Dangling client reference; nothing to detach.
		default:
			return fmt.Errorf("load client: %w", err)
		}
	}

	milestones, err := m.store.Milestones().ListByProject(ctx, projectID)
	if err != nil {
		return fmt.Errorf("list milestones: %w", err)
	}
	for _, milestone := range milestones {
		if err := m.store.Milestones().Delete(ctx, milestone.ID); err != nil && !errors.Is(err, storage.ErrNotFound) {
			state := fmt.Sprintf("project %s still exists; milestone %s could not be deleted", projectID, milestone.ID)
			log.Printf("cascade delete partial failure: %s: %v", state, err)
			return apperrors.PartialFailure("delete-milestones", state, err)
		}
	}

	if err := m.store.Projects().Delete(ctx, projectID); err != nil && !errors.Is(err, storage.ErrNotFound) {
		state := fmt.Sprintf("project %s remains with no milestones and no client link", projectID)
		log.Printf("cascade delete partial failure: %s: %v", state, err)
		return apperrors.PartialFailure("delete-project", state, err)
	}
	return nil
}

// CascadeDeleteClient removes a client after detaching its reference from
// every linked project. Projects are never deleted here; their lifecycle is
// independent of the client's.
func (m *Maintainer) CascadeDeleteClient(ctx context.Context, clientID string) error {
	client, err := m.loadClient(ctx, clientID)
	if err != nil {
		return err
	}

	projects, err := m.store.Projects().ListByClient(ctx, clientID)
	if err != nil {
		return fmt.Errorf("list linked projects: %w", err)
	}
	// The client's own set can disagree with the reverse index during a
	// half-link window; detach the union of both.
	seen := make(map[string]bool, len(projects))
	for _, project := range projects {
		seen[project.ID] = true
		if err := m.detachProjectClient(ctx, project, clientID); err != nil {
			return err
		}
	}
	for _, projectID := range client.LinkedProjects {
		if seen[projectID] {
			continue
		}
		project, err := m.store.Projects().FindByID(ctx, projectID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				continue
			}
			return fmt.Errorf("load linked project: %w", err)
		}
		if err := m.detachProjectClient(ctx, project, clientID); err != nil {
			return err
		}
	}

	if err := m.store.Clients().Delete(ctx, clientID); err != nil && !errors.Is(err, storage.ErrNotFound) {
		state := fmt.Sprintf("client %s remains with no project references", clientID)
		log.Printf("client delete partial failure: %s: %v", state, err)
		return apperrors.PartialFailure("delete-client", state, err)
	}
	return nil
}

func (m *Maintainer) detachProjectClient(ctx context.Context, project domain.Project, clientID string) error {
	if project.ClientID != clientID {
		return nil
	}
	project.ClientID = ""
	project.UpdatedAt = m.now().UTC()
	if err := m.store.Projects().Update(ctx, project); err != nil {
		state := fmt.Sprintf("project %s still references client %s", project.ID, clientID)
		log.Printf("client delete partial failure: %s: %v", state, err)
		return apperrors.PartialFailure("detach-projects", state, err)
	}
	return nil
}

func (m *Maintainer) loadClient(ctx context.Context, clientID string) (domain.Client, error) {
	client, err := m.store.Clients().FindByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.Client{}, ErrClientNotFound
		}
		return domain.Client{}, fmt.Errorf("load client: %w", err)
	}
	return client, nil
}

func (m *Maintainer) loadProject(ctx context.Context, projectID string) (domain.Project, error) {
	project, err := m.store.Projects().FindByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.Project{}, ErrProjectNotFound
		}
		return domain.Project{}, fmt.Errorf("load project: %w", err)
	}
	return project, nil
}
