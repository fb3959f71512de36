// Package chain implements the progression engine for task
// chain assignments: an explicit state machine over
// {active, completed, cancelled} whose pointer advances
// monotonically through the chain's step positions.
package chain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/verdant-cloud/verdant/internal/models"
)

var (
	// ErrNotActive is returned when an operation requires an
	// active assignment.
	ErrNotActive = errors.New("assignment is not active")

	// ErrStepNotFound is returned when the assignment's current
	// step cannot be resolved within its chain.
	ErrStepNotFound = errors.New("chain step not found")

	// ErrApprovalRequired is returned when advancement is gated
	// on an approval that has not been granted.
	ErrApprovalRequired = errors.New("step requires approval before advancing")

	// ErrNotCurrentStep is returned when a decision targets a
	// step other than the assignment's current one.
	ErrNotCurrentStep = errors.New("step is not the assignment's current step")
)

// Decision is the computed outcome of advancing an
// assignment past its current step.
type Decision struct {
	CurrentStepID *uuid.UUID
	Status        models.AssignmentStatus
	CompletedAt   *time.Time
}

// Advance computes the transition for completing the
// assignment's current step. It does not mutate anything;
// callers persist the returned decision.
//
// The gate is enforced here: a step flagged RequiresApproval
// blocks until the latest recorded decision for
// (assignment, step) is an approval.
func Advance(a *models.ChainAssignment, steps models.ChainSteps, approvals models.StepApprovals, now time.Time) (*Decision, error) {
	if a.Status != models.AssignmentStatusActive {
		return nil, ErrNotActive
	}

	if a.CurrentStepID == nil {
		return nil, ErrStepNotFound
	}

	step := steps.ByID(*a.CurrentStepID)
	if step == nil {
		return nil, ErrStepNotFound
	}

	if step.RequiresApproval && !Approved(approvals, a.ID, step.ID) {
		return nil, ErrApprovalRequired
	}

	return advance(step, steps, now), nil
}

// advance moves the pointer past step, completing the
// assignment when no step remains.
func advance(step *models.ChainStep, steps models.ChainSteps, now time.Time) *Decision {
	if next := steps.Next(step.Position); next != nil {
		return &Decision{
			CurrentStepID: &next.ID,
			Status:        models.AssignmentStatusActive,
		}
	}

	return &Decision{
		Status:      models.AssignmentStatusCompleted,
		CompletedAt: &now,
	}
}

// Approved reports whether the most recent decision recorded
// for the (assignment, step) pair is an approval. Approvals
// are append-only; a later rejection supersedes an earlier
// approval and vice versa.
func Approved(approvals models.StepApprovals, assignmentID, stepID uuid.UUID) bool {
	var latest *models.StepApproval
	for _, approval := range approvals {
		if approval.AssignmentID != assignmentID || approval.StepID != stepID {
			continue
		}
		if latest == nil || approval.CreatedAt.After(latest.CreatedAt) {
			latest = approval
		}
	}
	return latest != nil && latest.Approved
}

// BlockedUntil returns when the assignment's current step
// becomes actionable, given the preceding step's wait
// duration. It is advisory: nothing enforces it. The zero
// time means the step is not blocked.
func BlockedUntil(a *models.ChainAssignment, steps models.ChainSteps) time.Time {
	if a.CurrentStepID == nil {
		return time.Time{}
	}

	step := steps.ByID(*a.CurrentStepID)
	if step == nil {
		return time.Time{}
	}

	var prev *models.ChainStep
	for _, s := range steps {
		if s.Position >= step.Position {
			continue
		}
		if prev == nil || s.Position > prev.Position {
			prev = s
		}
	}

	if prev == nil || prev.WaitHours <= 0 {
		return time.Time{}
	}

	// UpdatedAt marks when the pointer last moved onto the
	// current step.
	return a.UpdatedAt.Add(time.Duration(prev.WaitHours) * time.Hour)
}
