package assignment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/verdant-cloud/verdant/internal/chain"
	"github.com/verdant-cloud/verdant/internal/models"
	"github.com/verdant-cloud/verdant/pkg/db"
	"gorm.io/gorm"
)

type Assignment interface {
	WithDatabase(*gorm.DB) Assignment
	List(*ListRequest) (models.ChainAssignments, error)
	Get(uuid.UUID) (*Detail, error)
	Create(*CreateRequest) (*models.ChainAssignment, error)
	Advance(uuid.UUID) (*models.ChainAssignment, error)
	Approve(uuid.UUID, uuid.UUID, *ApproveRequest) (*models.StepApproval, *models.ChainAssignment, error)
	Approvals(uuid.UUID) (models.StepApprovals, error)
	Cancel(uuid.UUID) (*models.ChainAssignment, error)
	Delete(uuid.UUID) error
}

type assignmentService struct {
	ctx context.Context
	db  *gorm.DB
}

func Service(ctx context.Context) Assignment {
	return &assignmentService{
		ctx: ctx,
		db:  db.Connection(),
	}
}

func (a *assignmentService) WithDatabase(conn *gorm.DB) Assignment {
	a.db = conn
	return a
}

type ListRequest struct {
	Limit   uint64
	Offset  uint64
	OrderBy []string
	ChainID string
	PlantID string
	Status  string
}

func (a *assignmentService) List(req *ListRequest) (models.ChainAssignments, error) {
	var (
		assignments = make(models.ChainAssignments, 0)
		q           = a.db.WithContext(a.ctx)
	)

	if req.ChainID != "" {
		q = q.Where("chain_id = ?", req.ChainID)
	}

	if req.PlantID != "" {
		q = q.Where("plant_id = ?", req.PlantID)
	}

	if req.Status != "" {
		q = q.Where("status = ?", req.Status)
	}

	for _, orderBy := range req.OrderBy {
		q = q.Order(orderBy)
	}

	if req.Limit > 0 {
		q = q.Limit(int(req.Limit))
	}

	if req.Offset > 0 {
		q = q.Offset(int(req.Offset))
	}

	return assignments, q.Find(&assignments).Error
}

// Detail is an assignment together with its resolved current
// step. BlockedUntil is advisory, derived from the preceding
// step's wait duration.
type Detail struct {
	*models.ChainAssignment
	CurrentStep  *models.ChainStep `json:"current_step,omitempty"`
	BlockedUntil *time.Time        `json:"blocked_until,omitempty"`
}

func (a *assignmentService) Get(id uuid.UUID) (*Detail, error) {
	var assignment models.ChainAssignment
	if err := a.db.WithContext(a.ctx).First(&assignment, "id = ?", id).Error; err != nil {
		return nil, err
	}

	detail := &Detail{ChainAssignment: &assignment}
	if assignment.CurrentStepID == nil {
		return detail, nil
	}

	steps := make(models.ChainSteps, 0)
	if err := a.db.WithContext(a.ctx).
		Where("chain_id = ?", assignment.ChainID).
		Order("position ASC").
		Find(&steps).Error; err != nil {
		return nil, err
	}

	detail.CurrentStep = steps.ByID(*assignment.CurrentStepID)

	if blocked := chain.BlockedUntil(&assignment, steps); !blocked.IsZero() {
		detail.BlockedUntil = &blocked
	}

	return detail, nil
}

type CreateRequest struct {
	ChainID string `json:"chain_id"`
	PlantID string `json:"plant_id"`
}

func (r *CreateRequest) Validate() error {
	if r.ChainID == "" {
		return errors.New("chain_id is required")
	}
	if r.PlantID == "" {
		return errors.New("plant_id is required")
	}
	return nil
}

func (a *assignmentService) Create(req *CreateRequest) (*models.ChainAssignment, error) {
	chainID, err := uuid.Parse(req.ChainID)
	if err != nil {
		return nil, err
	}

	plantID, err := uuid.Parse(req.PlantID)
	if err != nil {
		return nil, err
	}

	return chain.NewEngine(a.db).Start(a.ctx, chainID, plantID)
}

func (a *assignmentService) Advance(id uuid.UUID) (*models.ChainAssignment, error) {
	return chain.NewEngine(a.db).Advance(a.ctx, id)
}

type ApproveRequest struct {
	Approved   bool    `json:"approved"`
	Notes      string  `json:"notes"`
	ApprovedBy *string `json:"approved_by"`
}

func (a *assignmentService) Approve(id, stepID uuid.UUID, req *ApproveRequest) (*models.StepApproval, *models.ChainAssignment, error) {
	return chain.NewEngine(a.db).Approve(a.ctx, id, stepID, req.Approved, req.Notes, req.ApprovedBy)
}

// Approvals returns the append-only decision log for the
// assignment, oldest first.
func (a *assignmentService) Approvals(id uuid.UUID) (models.StepApprovals, error) {
	var assignment models.ChainAssignment
	if err := a.db.WithContext(a.ctx).First(&assignment, "id = ?", id).Error; err != nil {
		return nil, err
	}

	approvals := make(models.StepApprovals, 0)
	err := a.db.WithContext(a.ctx).
		Where("assignment_id = ?", id).
		Order("created_at ASC").
		Find(&approvals).Error

	return approvals, err
}

func (a *assignmentService) Cancel(id uuid.UUID) (*models.ChainAssignment, error) {
	return chain.NewEngine(a.db).Cancel(a.ctx, id)
}

// Delete removes the assignment and its approval log.
func (a *assignmentService) Delete(id uuid.UUID) error {
	return a.db.WithContext(a.ctx).Transaction(func(tx *gorm.DB) error {
		var assignment models.ChainAssignment
		if err := tx.First(&assignment, "id = ?", id).Error; err != nil {
			return err
		}

		if err := tx.Where("assignment_id = ?", id).Delete(&models.StepApproval{}).Error; err != nil {
			return err
		}

		return tx.Delete(&assignment).Error
	})
}
