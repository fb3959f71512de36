package health

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/verdant-cloud/verdant/internal/models"
	"github.com/verdant-cloud/verdant/pkg/db"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Health interface {
	WithDatabase(*gorm.DB) Health
	List(*ListRequest) (models.HealthRecords, error)
	Create(uuid.UUID, *CreateRequest) (*models.HealthRecord, error)
	Update(uuid.UUID, *UpdateRequest) (*models.HealthRecord, error)
	Delete(uuid.UUID) error
}

type healthService struct {
	ctx context.Context
	db  *gorm.DB
}

func Service(ctx context.Context) Health {
	return &healthService{
		ctx: ctx,
		db:  db.Connection(),
	}
}

func (h *healthService) WithDatabase(conn *gorm.DB) Health {
	h.db = conn
	return h
}

type ListRequest struct {
	PlantID   uuid.UUID
	Condition string
	Limit     uint64
	Offset    uint64
}

// List returns a plant's health records, newest observation
// first.
func (h *healthService) List(req *ListRequest) (models.HealthRecords, error) {
	var (
		records = make(models.HealthRecords, 0)
		q       = h.db.WithContext(h.ctx).Where("plant_id = ?", req.PlantID)
	)

	if req.Condition != "" {
		q = q.Where("condition = ?", req.Condition)
	}

	q = q.Order("observed_at DESC")

	if req.Limit > 0 {
		q = q.Limit(int(req.Limit))
	}

	if req.Offset > 0 {
		q = q.Offset(int(req.Offset))
	}

	return records, q.Find(&records).Error
}

type CreateRequest struct {
	Condition  string                 `json:"condition"`
	Notes      string                 `json:"notes"`
	Metrics    map[string]interface{} `json:"metrics"`
	ObservedAt *time.Time             `json:"observed_at"`
}

func (r *CreateRequest) Validate() error {
	if !models.ValidHealthCondition(models.HealthCondition(r.Condition)) {
		return fmt.Errorf("invalid condition: %q", r.Condition)
	}
	return nil
}

func (h *healthService) Create(plantID uuid.UUID, req *CreateRequest) (*models.HealthRecord, error) {
	var plant models.Plant
	if err := h.db.WithContext(h.ctx).First(&plant, "id = ?", plantID).Error; err != nil {
		return nil, err
	}

	observedAt := time.Now().UTC()
	if req.ObservedAt != nil {
		observedAt = *req.ObservedAt
	}

	record := &models.HealthRecord{
		ID:         uuid.New(),
		PlantID:    plantID,
		Condition:  models.HealthCondition(req.Condition),
		Notes:      req.Notes,
		Metrics:    datatypes.JSONMap(req.Metrics),
		ObservedAt: observedAt,
	}

	return record, h.db.WithContext(h.ctx).Create(record).Error
}

type UpdateRequest struct {
	Condition *string                `json:"condition"`
	Notes     *string                `json:"notes"`
	Metrics   map[string]interface{} `json:"metrics"`
}

func (r *UpdateRequest) Validate() error {
	if r.Condition != nil && !models.ValidHealthCondition(models.HealthCondition(*r.Condition)) {
		return errors.New("invalid condition")
	}
	return nil
}

func (h *healthService) Update(id uuid.UUID, req *UpdateRequest) (*models.HealthRecord, error) {
	var record models.HealthRecord
	if err := h.db.WithContext(h.ctx).First(&record, "id = ?", id).Error; err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Condition != nil {
		updates["condition"] = *req.Condition
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}
	if req.Metrics != nil {
		updates["metrics"] = datatypes.JSONMap(req.Metrics)
	}

	if len(updates) == 0 {
		return &record, nil
	}

	if err := h.db.WithContext(h.ctx).Model(&record).Updates(updates).Error; err != nil {
		return nil, err
	}

	return &record, nil
}

func (h *healthService) Delete(id uuid.UUID) error {
	var record models.HealthRecord
	if err := h.db.WithContext(h.ctx).First(&record, "id = ?", id).Error; err != nil {
		return err
	}

	return h.db.WithContext(h.ctx).Delete(&record).Error
}
