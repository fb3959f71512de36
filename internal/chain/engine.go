package chain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/verdant-cloud/verdant/internal/models"
	"gorm.io/gorm"
)

// Engine applies progression decisions to stored
// assignments. Every mutation runs in a single transaction,
// and the status guard on the UPDATE rejects a second
// advancement racing the first.
type Engine struct {
	db *gorm.DB
}

// NewEngine creates an engine. The provided db connection
// must be non-nil.
func NewEngine(dbConn *gorm.DB) *Engine {
	if dbConn == nil {
		panic("chain engine requires a database connection")
	}
	return &Engine{db: dbConn}
}

// Start creates an assignment for the given chain and plant.
// The pointer begins at the chain's first step; assigning an
// empty chain yields an immediately completed assignment.
func (e *Engine) Start(ctx context.Context, chainID, plantID uuid.UUID) (*models.ChainAssignment, error) {
	var result *models.ChainAssignment

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c models.TaskChain
		if err := tx.First(&c, "id = ?", chainID).Error; err != nil {
			return err
		}

		var p models.Plant
		if err := tx.First(&p, "id = ?", plantID).Error; err != nil {
			return err
		}

		steps, err := chainSteps(tx, chainID)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		a := &models.ChainAssignment{
			ID:        uuid.New(),
			ChainID:   chainID,
			PlantID:   plantID,
			Status:    models.AssignmentStatusActive,
			StartedAt: now,
		}

		if first := steps.First(); first != nil {
			a.CurrentStepID = &first.ID
		} else {
			a.Status = models.AssignmentStatusCompleted
			a.CompletedAt = &now
		}

		if err := tx.Create(a).Error; err != nil {
			return err
		}

		result = a
		return nil
	})

	return result, err
}

// Advance marks the assignment's current step complete and
// moves the pointer to the next step, completing the
// assignment when none remains. Approval-gated steps refuse
// to advance until approved.
func (e *Engine) Advance(ctx context.Context, assignmentID uuid.UUID) (*models.ChainAssignment, error) {
	var result *models.ChainAssignment

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		a, steps, err := assignmentWithSteps(tx, assignmentID)
		if err != nil {
			return err
		}

		var approvals models.StepApprovals
		if err := tx.Where("assignment_id = ?", a.ID).Find(&approvals).Error; err != nil {
			return err
		}

		decision, err := Advance(a, steps, approvals, time.Now().UTC())
		if err != nil {
			return err
		}

		if err := applyDecision(tx, a, decision); err != nil {
			return err
		}

		result = a
		return nil
	})

	return result, err
}

// Approve records an approve/reject decision for the
// assignment's current step. An approval advances the
// pointer; a rejection leaves the assignment unchanged and
// may be superseded by a later decision.
func (e *Engine) Approve(ctx context.Context, assignmentID, stepID uuid.UUID, approved bool, notes string, approvedBy *string) (*models.StepApproval, *models.ChainAssignment, error) {
	var (
		approval *models.StepApproval
		result   *models.ChainAssignment
	)

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		a, steps, err := assignmentWithSteps(tx, assignmentID)
		if err != nil {
			return err
		}

		if a.Status != models.AssignmentStatusActive {
			return ErrNotActive
		}

		step := steps.ByID(stepID)
		if step == nil {
			return ErrStepNotFound
		}

		if a.CurrentStepID == nil || *a.CurrentStepID != stepID {
			return ErrNotCurrentStep
		}

		approval = &models.StepApproval{
			ID:           uuid.New(),
			AssignmentID: a.ID,
			StepID:       stepID,
			ApprovedBy:   approvedBy,
			Notes:        notes,
			Approved:     approved,
		}
		if err := tx.Create(approval).Error; err != nil {
			return err
		}

		if !approved {
			result = a
			return nil
		}

		if err := applyDecision(tx, a, advance(step, steps, time.Now().UTC())); err != nil {
			return err
		}

		result = a
		return nil
	})

	return approval, result, err
}

// Cancel transitions an active assignment to cancelled.
func (e *Engine) Cancel(ctx context.Context, assignmentID uuid.UUID) (*models.ChainAssignment, error) {
	var result *models.ChainAssignment

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var a models.ChainAssignment
		if err := tx.First(&a, "id = ?", assignmentID).Error; err != nil {
			return err
		}

		if a.Status != models.AssignmentStatusActive {
			return ErrNotActive
		}

		res := tx.Model(&models.ChainAssignment{}).
			Where("id = ? AND status = ?", a.ID, models.AssignmentStatusActive).
			Update("status", models.AssignmentStatusCancelled)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotActive
		}

		a.Status = models.AssignmentStatusCancelled
		result = &a
		return nil
	})

	return result, err
}

func assignmentWithSteps(tx *gorm.DB, assignmentID uuid.UUID) (*models.ChainAssignment, models.ChainSteps, error) {
	var a models.ChainAssignment
	if err := tx.First(&a, "id = ?", assignmentID).Error; err != nil {
		return nil, nil, err
	}

	steps, err := chainSteps(tx, a.ChainID)
	if err != nil {
		return nil, nil, err
	}

	return &a, steps, nil
}

func chainSteps(tx *gorm.DB, chainID uuid.UUID) (models.ChainSteps, error) {
	steps := make(models.ChainSteps, 0)
	err := tx.Where("chain_id = ?", chainID).Order("position ASC").Find(&steps).Error
	return steps, err
}

// applyDecision persists a decision with a status guard so a
// concurrent advancement cannot be applied twice, then
// mirrors it onto the in-memory assignment.
func applyDecision(tx *gorm.DB, a *models.ChainAssignment, decision *Decision) error {
	res := tx.Model(&models.ChainAssignment{}).
		Where("id = ? AND status = ?", a.ID, models.AssignmentStatusActive).
		Updates(map[string]interface{}{
			"current_step_id": decision.CurrentStepID,
			"status":          decision.Status,
			"completed_at":    decision.CompletedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotActive
	}

	a.CurrentStepID = decision.CurrentStepID
	a.Status = decision.Status
	a.CompletedAt = decision.CompletedAt
	return nil
}
