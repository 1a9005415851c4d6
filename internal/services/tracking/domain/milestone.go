package domain

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/aftab-coresconnect/Internal-Portal-Backend/internal/platform/errors"
	"github.com/aftab-coresconnect/Internal-Portal-Backend/internal/platform/id"
)

// MilestoneStatus is the lifecycle state of a milestone.
type MilestoneStatus string

const (
	MilestoneNotStarted MilestoneStatus = "Not Started"
	MilestoneInProgress MilestoneStatus = "In Progress"
	MilestoneCompleted  MilestoneStatus = "Completed"
	MilestoneDelayed    MilestoneStatus = "Delayed"
)

var (
	// ErrMilestoneTitleEmpty indicates a missing milestone title.
	ErrMilestoneTitleEmpty = apperrors.New(apperrors.CodeMilestoneTitleEmpty, "milestone title is required")
	// ErrMilestoneStatusInvalid indicates a status outside the known set.
	ErrMilestoneStatusInvalid = apperrors.New(apperrors.CodeMilestoneStatusInvalid, "milestone status must be one of Not Started, In Progress, Completed, Delayed")
	// ErrMilestoneProgressInvalid indicates a progress value outside 0..100.
	ErrMilestoneProgressInvalid = apperrors.New(apperrors.CodeMilestoneProgressInvalid, "progress percentage must be between 0 and 100")
	// ErrMilestoneProjectImmutable indicates an attempt to move a milestone
	// to a different project. Milestones die with their project instead.
	ErrMilestoneProjectImmutable = apperrors.New(apperrors.CodeMilestoneProjectImmutable, "a milestone cannot change its owning project")
)

// Milestone belongs to exactly one project for its whole life. The owning
// project's Milestones set must contain this milestone's id.
type Milestone struct {
	ID                 string
	Title              string
	Description        string
	Project            string
	Dependencies       []string
	AssignedTo         []string
	ProgressPercentage int
	Status             MilestoneStatus
	Priority           Priority
	DueDate            time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// CreateMilestoneInput describes the fields needed to mint a milestone.
type CreateMilestoneInput struct {
	Title              string
	Description        string
	Project            string
	Dependencies       []string
	AssignedTo         []string
	ProgressPercentage int
	Status             MilestoneStatus
	Priority           Priority
	DueDate            time.Time
}

// ParseMilestoneStatus validates a status tag. Empty defaults to Not Started.
func ParseMilestoneStatus(status string) (MilestoneStatus, error) {
	switch MilestoneStatus(status) {
	case "":
		return MilestoneNotStarted, nil
	case MilestoneNotStarted, MilestoneInProgress, MilestoneCompleted, MilestoneDelayed:
		return MilestoneStatus(status), nil
	}
	return "", ErrMilestoneStatusInvalid
}

// ValidateProgress checks the 0..100 range.
func ValidateProgress(progress int) error {
	if progress < 0 || progress > 100 {
		return ErrMilestoneProgressInvalid
	}
	return nil
}

// NewMilestone builds a milestone aggregate from validated input. The
// caller guarantees Project references an existing project.
func NewMilestone(input CreateMilestoneInput, now func() time.Time, idGenerator func() (string, error)) (Milestone, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return Milestone{}, ErrMilestoneTitleEmpty
	}
	if strings.TrimSpace(input.Project) == "" {
		return Milestone{}, apperrors.New(apperrors.CodeProjectNotFound, "milestone requires an owning project")
	}
	status, err := ParseMilestoneStatus(string(input.Status))
	if err != nil {
		return Milestone{}, err
	}
	priority, err := ParsePriority(string(input.Priority))
	if err != nil {
		return Milestone{}, err
	}
	if err := ValidateProgress(input.ProgressPercentage); err != nil {
		return Milestone{}, err
	}

	milestoneID, err := idGenerator()
	if err != nil {
		return Milestone{}, fmt.Errorf("generate milestone id: %w", err)
	}

	createdAt := now().UTC()
	return Milestone{
		ID:                 milestoneID,
		Title:              title,
		Description:        strings.TrimSpace(input.Description),
		Project:            input.Project,
		Dependencies:       dedupe(input.Dependencies),
		AssignedTo:         dedupe(input.AssignedTo),
		ProgressPercentage: input.ProgressPercentage,
		Status:             status,
		Priority:           priority,
		DueDate:            input.DueDate,
		CreatedAt:          createdAt,
		UpdatedAt:          createdAt,
	}, nil
}
