package chain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/verdant-cloud/verdant/internal/models"
)

func step(chainID uuid.UUID, position int, requiresApproval bool) *models.ChainStep {
	return &models.ChainStep{
		ID:               uuid.New(),
		ChainID:          chainID,
		TemplateID:       uuid.New(),
		Position:         position,
		IsRequired:       true,
		RequiresApproval: requiresApproval,
	}
}

func TestAdvanceMovesPointerToNextPosition(t *testing.T) {
	chainID := uuid.New()
	steps := models.ChainSteps{
		step(chainID, 1, false),
		step(chainID, 2, false),
	}

	a := &models.ChainAssignment{
		ID:            uuid.New(),
		ChainID:       chainID,
		Status:        models.AssignmentStatusActive,
		CurrentStepID: &steps[0].ID,
	}

	decision, err := Advance(a, steps, nil, time.Now())
	assert.NoError(t, err)
	assert.Equal(t, models.AssignmentStatusActive, decision.Status)
	assert.Equal(t, steps[1].ID, *decision.CurrentStepID)
	assert.Nil(t, decision.CompletedAt)
}

func TestAdvanceLastStepCompletesAssignment(t *testing.T) {
	chainID := uuid.New()
	steps := models.ChainSteps{step(chainID, 1, false)}

	a := &models.ChainAssignment{
		ID:            uuid.New(),
		ChainID:       chainID,
		Status:        models.AssignmentStatusActive,
		CurrentStepID: &steps[0].ID,
	}

	now := time.Now()
	decision, err := Advance(a, steps, nil, now)
	assert.NoError(t, err)
	assert.Equal(t, models.AssignmentStatusCompleted, decision.Status)
	assert.Nil(t, decision.CurrentStepID)
	assert.Equal(t, now, *decision.CompletedAt)
}

func TestAdvanceRequiresActiveAssignment(t *testing.T) {
	chainID := uuid.New()
	steps := models.ChainSteps{step(chainID, 1, false)}

	for _, status := range []models.AssignmentStatus{
		models.AssignmentStatusCompleted,
		models.AssignmentStatusCancelled,
	} {
		a := &models.ChainAssignment{
			ID:            uuid.New(),
			ChainID:       chainID,
			Status:        status,
			CurrentStepID: &steps[0].ID,
		}

		_, err := Advance(a, steps, nil, time.Now())
		assert.ErrorIs(t, err, ErrNotActive)
	}
}

func TestAdvanceUnknownStepFails(t *testing.T) {
	chainID := uuid.New()
	orphan := uuid.New()

	a := &models.ChainAssignment{
		ID:            uuid.New(),
		ChainID:       chainID,
		Status:        models.AssignmentStatusActive,
		CurrentStepID: &orphan,
	}

	_, err := Advance(a, models.ChainSteps{step(chainID, 1, false)}, nil, time.Now())
	assert.ErrorIs(t, err, ErrStepNotFound)
}

func TestAdvanceGatedStepWithoutApproval(t *testing.T) {
	chainID := uuid.New()
	steps := models.ChainSteps{step(chainID, 1, true)}

	a := &models.ChainAssignment{
		ID:            uuid.New(),
		ChainID:       chainID,
		Status:        models.AssignmentStatusActive,
		CurrentStepID: &steps[0].ID,
	}

	_, err := Advance(a, steps, nil, time.Now())
	assert.ErrorIs(t, err, ErrApprovalRequired)

	// a rejection does not unblock the gate
	rejected := models.StepApprovals{{
		ID:           uuid.New(),
		AssignmentID: a.ID,
		StepID:       steps[0].ID,
		Approved:     false,
		CreatedAt:    time.Now(),
	}}
	_, err = Advance(a, steps, rejected, time.Now())
	assert.ErrorIs(t, err, ErrApprovalRequired)
}

func TestAdvanceGatedStepWithApproval(t *testing.T) {
	chainID := uuid.New()
	steps := models.ChainSteps{
		step(chainID, 1, true),
		step(chainID, 2, false),
	}

	a := &models.ChainAssignment{
		ID:            uuid.New(),
		ChainID:       chainID,
		Status:        models.AssignmentStatusActive,
		CurrentStepID: &steps[0].ID,
	}

	approvals := models.StepApprovals{{
		ID:           uuid.New(),
		AssignmentID: a.ID,
		StepID:       steps[0].ID,
		Approved:     true,
		CreatedAt:    time.Now(),
	}}

	decision, err := Advance(a, steps, approvals, time.Now())
	assert.NoError(t, err)
	assert.Equal(t, steps[1].ID, *decision.CurrentStepID)
}

func TestApprovedLatestDecisionWins(t *testing.T) {
	assignmentID := uuid.New()
	stepID := uuid.New()
	base := time.Now()

	approvals := models.StepApprovals{
		{AssignmentID: assignmentID, StepID: stepID, Approved: false, CreatedAt: base},
		{AssignmentID: assignmentID, StepID: stepID, Approved: true, CreatedAt: base.Add(time.Minute)},
	}
	assert.True(t, Approved(approvals, assignmentID, stepID))

	approvals = append(approvals, &models.StepApproval{
		AssignmentID: assignmentID,
		StepID:       stepID,
		Approved:     false,
		CreatedAt:    base.Add(2 * time.Minute),
	})
	assert.False(t, Approved(approvals, assignmentID, stepID))

	// approvals for other steps are ignored
	assert.False(t, Approved(approvals, assignmentID, uuid.New()))
}

func TestBlockedUntilUsesPrecedingStepWait(t *testing.T) {
	chainID := uuid.New()
	first := step(chainID, 1, false)
	first.WaitHours = 48
	second := step(chainID, 2, false)
	steps := models.ChainSteps{first, second}

	moved := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	a := &models.ChainAssignment{
		ID:            uuid.New(),
		ChainID:       chainID,
		Status:        models.AssignmentStatusActive,
		CurrentStepID: &second.ID,
		UpdatedAt:     moved,
	}

	assert.Equal(t, moved.Add(48*time.Hour), BlockedUntil(a, steps))

	// the first step has no predecessor, so it is never blocked
	a.CurrentStepID = &first.ID
	assert.True(t, BlockedUntil(a, steps).IsZero())
}
