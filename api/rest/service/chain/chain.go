package chain

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/verdant-cloud/verdant/internal/models"
	"github.com/verdant-cloud/verdant/pkg/db"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	// ErrDuplicateName is returned when a chain with the same
	// name already exists.
	ErrDuplicateName = errors.New("chain name already exists")

	// ErrDuplicatePosition is returned when a step position is
	// already taken within the chain.
	ErrDuplicatePosition = errors.New("step position already exists in chain")

	// ErrActiveAssignments is returned when deleting a chain
	// that active assignments still reference.
	ErrActiveAssignments = errors.New("chain has active assignments")
)

type Chain interface {
	WithDatabase(*gorm.DB) Chain
	List(*ListRequest) (models.TaskChains, error)
	Get(uuid.UUID) (*models.TaskChain, error)
	Create(*CreateRequest) (*models.TaskChain, error)
	Update(uuid.UUID, *UpdateRequest) (*models.TaskChain, error)
	Delete(uuid.UUID) error
	Steps(uuid.UUID) (models.ChainSteps, error)
	AddStep(uuid.UUID, *StepRequest) (*models.ChainStep, error)
	UpdateStep(uuid.UUID, *StepUpdateRequest) (*models.ChainStep, error)
	DeleteStep(uuid.UUID) error
}

type chainService struct {
	ctx context.Context
	db  *gorm.DB
}

func Service(ctx context.Context) Chain {
	return &chainService{
		ctx: ctx,
		db:  db.Connection(),
	}
}

func (c *chainService) WithDatabase(conn *gorm.DB) Chain {
	c.db = conn
	return c
}

type ListRequest struct {
	Limit    uint64
	Offset   uint64
	OrderBy  []string
	Category string
	Active   *bool
}

func (c *chainService) List(req *ListRequest) (models.TaskChains, error) {
	var (
		chains = make(models.TaskChains, 0)
		q      = c.db.WithContext(c.ctx)
	)

	if req.Category != "" {
		q = q.Where("category = ?", req.Category)
	}

	if req.Active != nil {
		q = q.Where("is_active = ?", *req.Active)
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

	return chains, q.Find(&chains).Error
}

// Get returns the chain with its steps ordered by position.
func (c *chainService) Get(id uuid.UUID) (*models.TaskChain, error) {
	var chain models.TaskChain

	err := c.db.WithContext(c.ctx).
		Preload("Steps", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&chain, "id = ?", id).Error

	return &chain, err
}

type CreateRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	IsActive    *bool  `json:"is_active"`
}

func (r *CreateRequest) Validate() error {
	if r.Name == "" {
		return errors.New("name is required")
	}
	return nil
}

func (c *chainService) Create(req *CreateRequest) (*models.TaskChain, error) {
	var chain *models.TaskChain

	err := c.db.WithContext(c.ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.TaskChain{}).
			Where("name = ?", req.Name).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("%w: %s", ErrDuplicateName, req.Name)
		}

		active := true
		if req.IsActive != nil {
			active = *req.IsActive
		}

		chain = &models.TaskChain{
			ID:          uuid.New(),
			Name:        req.Name,
			Description: req.Description,
			Category:    req.Category,
			IsActive:    active,
		}

		return tx.Create(chain).Error
	})

	return chain, err
}

type UpdateRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	IsActive    *bool   `json:"is_active"`
}

func (r *UpdateRequest) Validate() error {
	if r.Name != nil && *r.Name == "" {
		return errors.New("name must not be empty")
	}
	return nil
}

func (c *chainService) Update(id uuid.UUID, req *UpdateRequest) (*models.TaskChain, error) {
	var chain models.TaskChain
	if err := c.db.WithContext(c.ctx).First(&chain, "id = ?", id).Error; err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Category != nil {
		updates["category"] = *req.Category
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if len(updates) == 0 {
		return &chain, nil
	}

	if err := c.db.WithContext(c.ctx).Model(&chain).Updates(updates).Error; err != nil {
		return nil, err
	}

	return &chain, nil
}

// Delete removes the chain and all of its steps. Chains with
// active assignments are protected; completed and cancelled
// assignments keep their rows for history.
func (c *chainService) Delete(id uuid.UUID) error {
	return c.db.WithContext(c.ctx).Transaction(func(tx *gorm.DB) error {
		var chain models.TaskChain
		if err := tx.First(&chain, "id = ?", id).Error; err != nil {
			return err
		}

		var active int64
		if err := tx.Model(&models.ChainAssignment{}).
			Where("chain_id = ? AND status = ?", id, models.AssignmentStatusActive).
			Count(&active).Error; err != nil {
			return err
		}
		if active > 0 {
			return fmt.Errorf("%w: %d active", ErrActiveAssignments, active)
		}

		if err := tx.Where("chain_id = ?", id).Delete(&models.ChainStep{}).Error; err != nil {
			return err
		}

		return tx.Delete(&chain).Error
	})
}

func (c *chainService) Steps(chainID uuid.UUID) (models.ChainSteps, error) {
	var chain models.TaskChain
	if err := c.db.WithContext(c.ctx).First(&chain, "id = ?", chainID).Error; err != nil {
		return nil, err
	}

	steps := make(models.ChainSteps, 0)
	err := c.db.WithContext(c.ctx).
		Where("chain_id = ?", chainID).
		Order("position ASC").
		Find(&steps).Error

	return steps, err
}

type StepRequest struct {
	TemplateID       string   `json:"template_id"`
	Position         int      `json:"position"`
	IsRequired       *bool    `json:"is_required"`
	WaitHours        int      `json:"wait_hours"`
	RequiresApproval bool     `json:"requires_approval"`
	ApprovalRoles    []string `json:"approval_roles"`
}

func (r *StepRequest) Validate() error {
	if r.TemplateID == "" {
		return errors.New("template_id is required")
	}
	if r.Position < 0 {
		return errors.New("position must not be negative")
	}
	if r.WaitHours < 0 {
		return errors.New("wait_hours must not be negative")
	}
	return nil
}

// AddStep appends the step when no position is given.
func (c *chainService) AddStep(chainID uuid.UUID, req *StepRequest) (*models.ChainStep, error) {
	var step *models.ChainStep

	err := c.db.WithContext(c.ctx).Transaction(func(tx *gorm.DB) error {
		var chain models.TaskChain
		if err := tx.First(&chain, "id = ?", chainID).Error; err != nil {
			return err
		}

		templateID, err := uuid.Parse(req.TemplateID)
		if err != nil {
			return err
		}

		var template models.TaskTemplate
		if err := tx.First(&template, "id = ?", templateID).Error; err != nil {
			return err
		}

		position := req.Position
		if position == 0 {
			var max int
			row := tx.Model(&models.ChainStep{}).
				Where("chain_id = ?", chainID).
				Select("COALESCE(MAX(position), 0)").
				Row()
			if err := row.Scan(&max); err != nil {
				return err
			}
			position = max + 1
		} else {
			var count int64
			if err := tx.Model(&models.ChainStep{}).
				Where("chain_id = ? AND position = ?", chainID, position).
				Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return fmt.Errorf("%w: %d", ErrDuplicatePosition, position)
			}
		}

		required := true
		if req.IsRequired != nil {
			required = *req.IsRequired
		}

		step = &models.ChainStep{
			ID:               uuid.New(),
			ChainID:          chainID,
			TemplateID:       templateID,
			Position:         position,
			IsRequired:       required,
			WaitHours:        req.WaitHours,
			RequiresApproval: req.RequiresApproval,
			ApprovalRoles:    datatypes.NewJSONSlice(req.ApprovalRoles),
		}

		return tx.Create(step).Error
	})

	return step, err
}

type StepUpdateRequest struct {
	Position         *int     `json:"position"`
	IsRequired       *bool    `json:"is_required"`
	WaitHours        *int     `json:"wait_hours"`
	RequiresApproval *bool    `json:"requires_approval"`
	ApprovalRoles    []string `json:"approval_roles"`
}

func (r *StepUpdateRequest) Validate() error {
	if r.Position != nil && *r.Position < 1 {
		return errors.New("position must be positive")
	}
	if r.WaitHours != nil && *r.WaitHours < 0 {
		return errors.New("wait_hours must not be negative")
	}
	return nil
}

func (c *chainService) UpdateStep(id uuid.UUID, req *StepUpdateRequest) (*models.ChainStep, error) {
	var step models.ChainStep

	err := c.db.WithContext(c.ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&step, "id = ?", id).Error; err != nil {
			return err
		}

		updates := map[string]interface{}{}
		if req.Position != nil && *req.Position != step.Position {
			var count int64
			if err := tx.Model(&models.ChainStep{}).
				Where("chain_id = ? AND position = ?", step.ChainID, *req.Position).
				Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return fmt.Errorf("%w: %d", ErrDuplicatePosition, *req.Position)
			}
			updates["position"] = *req.Position
		}
		if req.IsRequired != nil {
			updates["is_required"] = *req.IsRequired
		}
		if req.WaitHours != nil {
			updates["wait_hours"] = *req.WaitHours
		}
		if req.RequiresApproval != nil {
			updates["requires_approval"] = *req.RequiresApproval
		}
		if req.ApprovalRoles != nil {
			updates["approval_roles"] = datatypes.NewJSONSlice(req.ApprovalRoles)
		}

		if len(updates) == 0 {
			return nil
		}

		return tx.Model(&step).Updates(updates).Error
	})

	if err != nil {
		return nil, err
	}

	return &step, nil
}

func (c *chainService) DeleteStep(id uuid.UUID) error {
	var step models.ChainStep
	if err := c.db.WithContext(c.ctx).First(&step, "id = ?", id).Error; err != nil {
		return err
	}

	return c.db.WithContext(c.ctx).Delete(&step).Error
}
