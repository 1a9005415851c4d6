// Package trackingfakes provides in-memory tracking store fakes for tests.
package trackingfakes

import (
	"context"
	"sort"

	"github.com/aftab-coresconnect/Internal-Portal-Backend/internal/services/tracking/domain"
	"github.com/aftab-coresconnect/Internal-Portal-Backend/internal/services/tracking/storage"
)

// ClientStore is an in-memory storage.ClientStore fake. The error hooks let
// tests fail a specific step of a multi-step write.
type ClientStore struct {
	Records map[string]domain.Client

	CreateErr error
	UpdateErr error
	DeleteErr error
	FindErr   error
}

func NewClientStore() *ClientStore {
	return &ClientStore{Records: make(map[string]domain.Client)}
}

func (s *ClientStore) FindByID(_ context.Context, clientID string) (domain.Client, error) {
	if s.FindErr != nil {
		return domain.Client{}, s.FindErr
	}
	client, ok := s.Records[clientID]
	if !ok {
		return domain.Client{}, storage.ErrNotFound
	}
	return client, nil
}

func (s *ClientStore) FindByEmail(_ context.Context, email string) (domain.Client, error) {
	if s.FindErr != nil {
		return domain.Client{}, s.FindErr
	}
	normalized := domain.NormalizeClientEmail(email)
	for _, client := range s.Records {
		if client.Email == normalized {
			return client, nil
		}
	}
	return domain.Client{}, storage.ErrNotFound
}

func (s *ClientStore) Create(_ context.Context, client domain.Client) error {
	if s.CreateErr != nil {
		return s.CreateErr
	}
	if _, exists := s.Records[client.ID]; exists {
		return storage.ErrDuplicate
	}
	normalized := domain.NormalizeClientEmail(client.Email)
	for _, existing := range s.Records {
		if existing.Email == normalized {
			return storage.ErrDuplicate
		}
	}
	client.Email = normalized
	s.Records[client.ID] = client
	return nil
}

func (s *ClientStore) Update(_ context.Context, client domain.Client) error {
	if s.UpdateErr != nil {
		return s.UpdateErr
	}
	if _, ok := s.Records[client.ID]; !ok {
		return storage.ErrNotFound
	}
	client.Email = domain.NormalizeClientEmail(client.Email)
	s.Records[client.ID] = client
	return nil
}

func (s *ClientStore) Delete(_ context.Context, clientID string) error {
	if s.DeleteErr != nil {
		return s.DeleteErr
	}
	if _, ok := s.Records[clientID]; !ok {
		return storage.ErrNotFound
	}
	delete(s.Records, clientID)
	return nil
}

func (s *ClientStore) List(_ context.Context) ([]domain.Client, error) {
	if s.FindErr != nil {
		return nil, s.FindErr
	}
	clients := make([]domain.Client, 0, len(s.Records))
	for _, client := range s.Records {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool { return clients[i].ID < clients[j].ID })
	return clients, nil
}

// ProjectStore is an in-memory storage.ProjectStore fake.
type ProjectStore struct {
	Records map[string]domain.Project

	CreateErr error
	UpdateErr error
	DeleteErr error
	FindErr   error
}

func NewProjectStore() *ProjectStore {
	return &ProjectStore{Records: make(map[string]domain.Project)}
}

func (s *ProjectStore) FindByID(_ context.Context, projectID string) (domain.Project, error) {
	if s.FindErr != nil {
		return domain.Project{}, s.FindErr
	}
	project, ok := s.Records[projectID]
	if !ok {
		return domain.Project{}, storage.ErrNotFound
	}
	return project, nil
}

func (s *ProjectStore) Create(_ context.Context, project domain.Project) error {
	if s.CreateErr != nil {
		return s.CreateErr
	}
	if _, exists := s.Records[project.ID]; exists {
		return storage.ErrDuplicate
	}
	s.Records[project.ID] = project
	return nil
}

func (s *ProjectStore) Update(_ context.Context, project domain.Project) error {
	if s.UpdateErr != nil {
		return s.UpdateErr
	}
	if _, ok := s.Records[project.ID]; !ok {
		return storage.ErrNotFound
	}
	s.Records[project.ID] = project
	return nil
}

func (s *ProjectStore) Delete(_ context.Context, projectID string) error {
	if s.DeleteErr != nil {
		return s.DeleteErr
	}
	if _, ok := s.Records[projectID]; !ok {
		return storage.ErrNotFound
	}
	delete(s.Records, projectID)
	return nil
}

func (s *ProjectStore) List(_ context.Context) ([]domain.Project, error) {
	if s.FindErr != nil {
		return nil, s.FindErr
	}
	projects := make([]domain.Project, 0, len(s.Records))
	for _, project := range s.Records {
		projects = append(projects, project)
	}
	sort.Slice(projects, func(i, j int) bool { return projects[i].ID < projects[j].ID })
	return projects, nil
}

func (s *ProjectStore) ListByClient(ctx context.Context, clientID string) ([]domain.Project, error) {
	projects, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	var matched []domain.Project
	for _, project := range projects {
		if project.ClientID == clientID {
			matched = append(matched, project)
		}
	}
	return matched, nil
}

// MilestoneStore is an in-memory storage.MilestoneStore fake.
type MilestoneStore struct {
	Records map[string]domain.Milestone

	CreateErr error
	UpdateErr error
	DeleteErr error
	FindErr   error
}

func NewMilestoneStore() *MilestoneStore {
	return &MilestoneStore{Records: make(map[string]domain.Milestone)}
}

func (s *MilestoneStore) FindByID(_ context.Context, milestoneID string) (domain.Milestone, error) {
	if s.FindErr != nil {
		return domain.Milestone{}, s.FindErr
	}
	milestone, ok := s.Records[milestoneID]
	if !ok {
		return domain.Milestone{}, storage.ErrNotFound
	}
	return milestone, nil
}

func (s *MilestoneStore) Create(_ context.Context, milestone domain.Milestone) error {
	if s.CreateErr != nil {
		return s.CreateErr
	}
	if _, exists := s.Records[milestone.ID]; exists {
		return storage.ErrDuplicate
	}
	s.Records[milestone.ID] = milestone
	return nil
}

func (s *MilestoneStore) Update(_ context.Context, milestone domain.Milestone) error {
	if s.UpdateErr != nil {
		return s.UpdateErr
	}
	existing, ok := s.Records[milestone.ID]
	if !ok {
		return storage.ErrNotFound
	}
	// The owning project never changes, mirroring the real store.
	milestone.Project = existing.Project
	s.Records[milestone.ID] = milestone
	return nil
}

func (s *MilestoneStore) Delete(_ context.Context, milestoneID string) error {
	if s.DeleteErr != nil {
		return s.DeleteErr
	}
	if _, ok := s.Records[milestoneID]; !ok {
		return storage.ErrNotFound
	}
	delete(s.Records, milestoneID)
	return nil
}

func (s *MilestoneStore) List(_ context.Context) ([]domain.Milestone, error) {
	if s.FindErr != nil {
		return nil, s.FindErr
	}
	milestones := make([]domain.Milestone, 0, len(s.Records))
	for _, milestone := range s.Records {
		milestones = append(milestones, milestone)
	}
	sort.Slice(milestones, func(i, j int) bool { return milestones[i].ID < milestones[j].ID })
	return milestones, nil
}

func (s *MilestoneStore) ListByProject(ctx context.Context, projectID string) ([]domain.Milestone, error) {
	milestones, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	var matched []domain.Milestone
	for _, milestone := range milestones {
		if milestone.Project == projectID {
			matched = append(matched, milestone)
		}
	}
	return matched, nil
}

// Store bundles the three fakes behind storage.Store.
type Store struct {
	ClientStore    *ClientStore
	ProjectStore   *ProjectStore
	MilestoneStore *MilestoneStore
}

func NewStore() *Store {
	return &Store{
		ClientStore:    NewClientStore(),
		ProjectStore:   NewProjectStore(),
		MilestoneStore: NewMilestoneStore(),
	}
}

func (s *Store) Clients() storage.ClientStore       { return s.ClientStore }
func (s *Store) Projects() storage.ProjectStore     { return s.ProjectStore }
func (s *Store) Milestones() storage.MilestoneStore { return s.MilestoneStore }

var _ storage.Store = (*Store)(nil)
var _ storage.ClientStore = (*ClientStore)(nil)
var _ storage.ProjectStore = (*ProjectStore)(nil)
var _ storage.MilestoneStore = (*MilestoneStore)(nil)
