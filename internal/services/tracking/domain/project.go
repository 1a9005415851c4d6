package domain

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/aftab-coresconnect/Internal-Portal-Backend/internal/platform/errors"
	"github.com/aftab-coresconnect/Internal-Portal-Backend/internal/platform/id"
)

// ProjectStatus is the lifecycle state of a project.
type ProjectStatus string

const (
	ProjectActive    ProjectStatus = "Active"
	ProjectPaused    ProjectStatus = "Paused"
	ProjectCompleted ProjectStatus = "Completed"
	ProjectDelivered ProjectStatus = "Delivered"
)

// Priority ranks work across projects and milestones.
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

var (
	// ErrProjectTitleEmpty indicates a missing project title.
	ErrProjectTitleEmpty = apperrors.New(apperrors.CodeProjectTitleEmpty, "project title is required")
	// ErrProjectStatusInvalid indicates a status outside the known set.
	ErrProjectStatusInvalid = apperrors.New(apperrors.CodeProjectStatusInvalid, "project status must be one of Active, Paused, Completed, Delivered")
)

// Project is the central aggregate. ClientID is optional; when set, the
// referenced client's LinkedProjects must contain this project's id.
// Milestones mirrors the Project field on each owned milestone.
type Project struct {
	ID                 string
	Title              string
	Description        string
	ClientID           string
	AssignedDevelopers []string
	ProjectManager     string
	Milestones         []string
	Status             ProjectStatus
	Priority           Priority
	StartDate          time.Time
	Deadline           time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// CreateProjectInput describes the fields needed to mint a project.
// ClientID is accepted here but linking happens in the relations layer.
type CreateProjectInput struct {
	Title              string
	Description        string
	ClientID           string
	AssignedDevelopers []string
	ProjectManager     string
	Status             ProjectStatus
	Priority           Priority
	StartDate          time.Time
	Deadline           time.Time
}

// ParseProjectStatus validates a status tag. Empty defaults to Active.
func ParseProjectStatus(status string) (ProjectStatus, error) {
	switch ProjectStatus(status) {
	case "":
		return ProjectActive, nil
	case ProjectActive, ProjectPaused, ProjectCompleted, ProjectDelivered:
		return ProjectStatus(status), nil
	}
	return "", ErrProjectStatusInvalid
}

// ParsePriority validates a priority tag. Empty defaults to Medium.
func ParsePriority(priority string) (Priority, error) {
	switch Priority(priority) {
	case "":
		return PriorityMedium, nil
	case PriorityHigh, PriorityMedium, PriorityLow:
		return Priority(priority), nil
	}
	return "", apperrors.New(apperrors.CodeProjectStatusInvalid, "priority must be one of High, Medium, Low")
}

// NewProject builds a project aggregate from validated input.
func NewProject(input CreateProjectInput, now func() time.Time, idGenerator func() (string, error)) (Project, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return Project{}, ErrProjectTitleEmpty
	}
	status, err := ParseProjectStatus(string(input.Status))
	if err != nil {
		return Project{}, err
	}
	priority, err := ParsePriority(string(input.Priority))
	if err != nil {
		return Project{}, err
	}

	projectID, err := idGenerator()
	if err != nil {
		return Project{}, fmt.Errorf("generate project id: %w", err)
	}

	createdAt := now().UTC()
	return Project{
		ID:                 projectID,
		Title:              title,
		Description:        strings.TrimSpace(input.Description),
		ClientID:           input.ClientID,
		AssignedDevelopers: dedupe(input.AssignedDevelopers),
		ProjectManager:     input.ProjectManager,
		Status:             status,
		Priority:           priority,
		StartDate:          input.StartDate,
		Deadline:           input.Deadline,
		CreatedAt:          createdAt,
		UpdatedAt:          createdAt,
	}, nil
}
