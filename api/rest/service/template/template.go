package template

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/verdant-cloud/verdant/internal/models"
	"github.com/verdant-cloud/verdant/pkg/db"
	"gorm.io/gorm"
)

type Template interface {
	WithDatabase(*gorm.DB) Template
	List(*ListRequest) (models.TaskTemplates, error)
	Get(uuid.UUID) (*models.TaskTemplate, error)
	Create(*CreateRequest) (*models.TaskTemplate, error)
	Update(uuid.UUID, *UpdateRequest) (*models.TaskTemplate, error)
	Delete(uuid.UUID) error
	Checklist(uuid.UUID) (models.ChecklistItems, error)
	AddChecklistItem(uuid.UUID, *ChecklistItemRequest) (*models.ChecklistItem, error)
	UpdateChecklistItem(uuid.UUID, *ChecklistItemUpdateRequest) (*models.ChecklistItem, error)
	DeleteChecklistItem(uuid.UUID) error
}

type templateService struct {
	ctx context.Context
	db  *gorm.DB
}

func Service(ctx context.Context) Template {
	return &templateService{
		ctx: ctx,
		db:  db.Connection(),
	}
}

func (t *templateService) WithDatabase(conn *gorm.DB) Template {
	t.db = conn
	return t
}

type ListRequest struct {
	Limit    uint64
	Offset   uint64
	OrderBy  []string
	Category string
}

func (t *templateService) List(req *ListRequest) (models.TaskTemplates, error) {
	var (
		templates = make(models.TaskTemplates, 0)
		q         = t.db.WithContext(t.ctx)
	)

	if req.Category != "" {
		q = q.Where("category = ?", req.Category)
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

	return templates, q.Find(&templates).Error
}

func (t *templateService) Get(id uuid.UUID) (*models.TaskTemplate, error) {
	var (
		template models.TaskTemplate
		q        = t.db.WithContext(t.ctx)
	)

	return &template, q.First(&template, "id = ?", id).Error
}

type CreateRequest struct {
	Name         string `json:"name"`
	Category     string `json:"category"`
	Description  string `json:"description"`
	Priority     string `json:"priority"`
	IntervalDays int    `json:"interval_days"`
	OneShot      bool   `json:"one_shot"`
	ApplyToAll   bool   `json:"apply_to_all"`
}

func (r *CreateRequest) Validate() error {
	if r.Name == "" {
		return errors.New("name is required")
	}
	if !models.ValidTaskCategory(models.TaskCategory(r.Category)) {
		return fmt.Errorf("invalid category: %q", r.Category)
	}
	if r.Priority != "" && !models.ValidTaskPriority(models.TaskPriority(r.Priority)) {
		return fmt.Errorf("invalid priority: %q", r.Priority)
	}
	if r.IntervalDays < 0 {
		return errors.New("interval_days must not be negative")
	}
	return nil
}

func (t *templateService) Create(req *CreateRequest) (*models.TaskTemplate, error) {
	priority := models.TaskPriority(req.Priority)
	if priority == "" {
		priority = models.TaskPriorityMedium
	}

	template := &models.TaskTemplate{
		ID:           uuid.New(),
		Name:         req.Name,
		Category:     models.TaskCategory(req.Category),
		Description:  req.Description,
		Priority:     priority,
		IntervalDays: req.IntervalDays,
		OneShot:      req.OneShot,
		ApplyToAll:   req.ApplyToAll,
	}

	return template, t.db.WithContext(t.ctx).Create(template).Error
}

type UpdateRequest struct {
	Name         *string `json:"name"`
	Category     *string `json:"category"`
	Description  *string `json:"description"`
	Priority     *string `json:"priority"`
	IntervalDays *int    `json:"interval_days"`
	OneShot      *bool   `json:"one_shot"`
	ApplyToAll   *bool   `json:"apply_to_all"`
}

func (r *UpdateRequest) Validate() error {
	if r.Name != nil && *r.Name == "" {
		return errors.New("name must not be empty")
	}
	if r.Category != nil && !models.ValidTaskCategory(models.TaskCategory(*r.Category)) {
		return errors.New("invalid category")
	}
	if r.Priority != nil && !models.ValidTaskPriority(models.TaskPriority(*r.Priority)) {
		return errors.New("invalid priority")
	}
	if r.IntervalDays != nil && *r.IntervalDays < 0 {
		return errors.New("interval_days must not be negative")
	}
	return nil
}

func (t *templateService) Update(id uuid.UUID, req *UpdateRequest) (*models.TaskTemplate, error) {
	var template models.TaskTemplate
	if err := t.db.WithContext(t.ctx).First(&template, "id = ?", id).Error; err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Category != nil {
		updates["category"] = *req.Category
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Priority != nil {
		updates["priority"] = *req.Priority
	}
	if req.IntervalDays != nil {
		updates["interval_days"] = *req.IntervalDays
	}
	if req.OneShot != nil {
		updates["one_shot"] = *req.OneShot
	}
	if req.ApplyToAll != nil {
		updates["apply_to_all"] = *req.ApplyToAll
	}

	if len(updates) == 0 {
		return &template, nil
	}

	if err := t.db.WithContext(t.ctx).Model(&template).Updates(updates).Error; err != nil {
		return nil, err
	}

	return &template, nil
}

// Delete removes the template and its checklist. Tasks
// created from the template keep their copied fields; their
// template reference is cleared.
func (t *templateService) Delete(id uuid.UUID) error {
	return t.db.WithContext(t.ctx).Transaction(func(tx *gorm.DB) error {
		var template models.TaskTemplate
		if err := tx.First(&template, "id = ?", id).Error; err != nil {
			return err
		}

		if err := tx.Where("template_id = ?", id).Delete(&models.ChecklistItem{}).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.CareTask{}).
			Where("template_id = ?", id).
			Update("template_id", nil).Error; err != nil {
			return err
		}

		return tx.Delete(&template).Error
	})
}

func (t *templateService) Checklist(templateID uuid.UUID) (models.ChecklistItems, error) {
	var template models.TaskTemplate
	if err := t.db.WithContext(t.ctx).First(&template, "id = ?", templateID).Error; err != nil {
		return nil, err
	}

	items := make(models.ChecklistItems, 0)
	err := t.db.WithContext(t.ctx).
		Where("template_id = ?", templateID).
		Order("position ASC").
		Find(&items).Error

	return items, err
}

type ChecklistItemRequest struct {
	Text     string `json:"text"`
	Position int    `json:"position"`
}

func (r *ChecklistItemRequest) Validate() error {
	if r.Text == "" {
		return errors.New("text is required")
	}
	if r.Position < 0 {
		return errors.New("position must not be negative")
	}
	return nil
}

// AddChecklistItem appends the item when no position is
// given.
func (t *templateService) AddChecklistItem(templateID uuid.UUID, req *ChecklistItemRequest) (*models.ChecklistItem, error) {
	var item *models.ChecklistItem

	err := t.db.WithContext(t.ctx).Transaction(func(tx *gorm.DB) error {
		var template models.TaskTemplate
		if err := tx.First(&template, "id = ?", templateID).Error; err != nil {
			return err
		}

		position := req.Position
		if position == 0 {
			var max int
			row := tx.Model(&models.ChecklistItem{}).
				Where("template_id = ?", templateID).
				Select("COALESCE(MAX(position), 0)").
				Row()
			if err := row.Scan(&max); err != nil {
				return err
			}
			position = max + 1
		}

		item = &models.ChecklistItem{
			ID:         uuid.New(),
			TemplateID: templateID,
			Text:       req.Text,
			Position:   position,
		}

		return tx.Create(item).Error
	})

	return item, err
}

type ChecklistItemUpdateRequest struct {
	Text     *string `json:"text"`
	Position *int    `json:"position"`
	Done     *bool   `json:"done"`
}

func (t *templateService) UpdateChecklistItem(id uuid.UUID, req *ChecklistItemUpdateRequest) (*models.ChecklistItem, error) {
	var item models.ChecklistItem
	if err := t.db.WithContext(t.ctx).First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Text != nil {
		updates["text"] = *req.Text
	}
	if req.Position != nil {
		updates["position"] = *req.Position
	}
	if req.Done != nil {
		updates["done"] = *req.Done
	}

	if len(updates) == 0 {
		return &item, nil
	}

	if err := t.db.WithContext(t.ctx).Model(&item).Updates(updates).Error; err != nil {
		return nil, err
	}

	return &item, nil
}

func (t *templateService) DeleteChecklistItem(id uuid.UUID) error {
	var item models.ChecklistItem
	if err := t.db.WithContext(t.ctx).First(&item, "id = ?", id).Error; err != nil {
		return err
	}

	return t.db.WithContext(t.ctx).Delete(&item).Error
}
