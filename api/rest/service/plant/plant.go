package plant

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/verdant-cloud/verdant/internal/models"
	"github.com/verdant-cloud/verdant/pkg/db"
	"gorm.io/gorm"
)

type Plant interface {
	WithDatabase(*gorm.DB) Plant
	List(*ListRequest) (models.Plants, error)
	Get(uuid.UUID) (*models.Plant, error)
	Create(*CreateRequest) (*models.Plant, error)
	Update(uuid.UUID, *UpdateRequest) (*models.Plant, error)
	Delete(uuid.UUID) error
}

type plantService struct {
	ctx context.Context
	db  *gorm.DB
}

func Service(ctx context.Context) Plant {
	return &plantService{
		ctx: ctx,
		db:  db.Connection(),
	}
}

func (p *plantService) WithDatabase(conn *gorm.DB) Plant {
	p.db = conn
	return p
}

type ListRequest struct {
	Limit    uint64
	Offset   uint64
	OrderBy  []string
	Location string
	Species  string
}

func (p *plantService) List(req *ListRequest) (models.Plants, error) {
	var (
		plants = make(models.Plants, 0)
		q      = p.db.WithContext(p.ctx)
	)

	if req.Location != "" {
		q = q.Where("location = ?", req.Location)
	}

	if req.Species != "" {
		q = q.Where("species = ?", req.Species)
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

	return plants, q.Find(&plants).Error
}

func (p *plantService) Get(id uuid.UUID) (*models.Plant, error) {
	var (
		plant models.Plant
		q     = p.db.WithContext(p.ctx)
	)

	return &plant, q.First(&plant, "id = ?", id).Error
}

type CreateRequest struct {
	Name       string     `json:"name"`
	Species    string     `json:"species"`
	Location   string     `json:"location"`
	AcquiredAt *time.Time `json:"acquired_at"`
	Notes      string     `json:"notes"`
}

func (r *CreateRequest) Validate() error {
	if r.Name == "" {
		return errors.New("name is required")
	}
	return nil
}

func (p *plantService) Create(req *CreateRequest) (*models.Plant, error) {
	plant := &models.Plant{
		ID:         uuid.New(),
		Name:       req.Name,
		Species:    req.Species,
		Location:   req.Location,
		AcquiredAt: req.AcquiredAt,
		Notes:      req.Notes,
	}

	return plant, p.db.WithContext(p.ctx).Create(plant).Error
}

type UpdateRequest struct {
	Name       *string    `json:"name"`
	Species    *string    `json:"species"`
	Location   *string    `json:"location"`
	AcquiredAt *time.Time `json:"acquired_at"`
	Notes      *string    `json:"notes"`
}

func (r *UpdateRequest) Validate() error {
	if r.Name != nil && *r.Name == "" {
		return errors.New("name must not be empty")
	}
	return nil
}

func (p *plantService) Update(id uuid.UUID, req *UpdateRequest) (*models.Plant, error) {
	var plant models.Plant
	if err := p.db.WithContext(p.ctx).First(&plant, "id = ?", id).Error; err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Species != nil {
		updates["species"] = *req.Species
	}
	if req.Location != nil {
		updates["location"] = *req.Location
	}
	if req.AcquiredAt != nil {
		updates["acquired_at"] = *req.AcquiredAt
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}

	if len(updates) == 0 {
		return &plant, nil
	}

	if err := p.db.WithContext(p.ctx).Model(&plant).Updates(updates).Error; err != nil {
		return nil, err
	}

	return &plant, nil
}

// Delete removes the plant and everything recorded against
// it: care tasks, health records, assignments and their
// approvals.
func (p *plantService) Delete(id uuid.UUID) error {
	return p.db.WithContext(p.ctx).Transaction(func(tx *gorm.DB) error {
		var plant models.Plant
		if err := tx.First(&plant, "id = ?", id).Error; err != nil {
			return err
		}

		var assignmentIDs []uuid.UUID
		if err := tx.Model(&models.ChainAssignment{}).
			Where("plant_id = ?", id).
			Pluck("id", &assignmentIDs).Error; err != nil {
			return err
		}

		if len(assignmentIDs) > 0 {
			if err := tx.Where("assignment_id IN ?", assignmentIDs).
				Delete(&models.StepApproval{}).Error; err != nil {
				return err
			}
		}

		if err := tx.Where("plant_id = ?", id).Delete(&models.ChainAssignment{}).Error; err != nil {
			return err
		}

		if err := tx.Where("plant_id = ?", id).Delete(&models.CareTask{}).Error; err != nil {
			return err
		}

		if err := tx.Where("plant_id = ?", id).Delete(&models.HealthRecord{}).Error; err != nil {
			return err
		}

		return tx.Delete(&plant).Error
	})
}
