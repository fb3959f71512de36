package task

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/verdant-cloud/verdant/internal/models"
	"github.com/verdant-cloud/verdant/pkg/db"
	"gorm.io/gorm"
)

// ErrNoPlants is returned when a fan-out create finds no
// plants to apply the template to.
var ErrNoPlants = errors.New("no plants exist to apply the template to")

type Task interface {
	WithDatabase(*gorm.DB) Task
	List(*ListRequest) (models.CareTasks, error)
	Get(uuid.UUID) (*models.CareTask, error)
	Create(*CreateRequest) (models.CareTasks, error)
	Update(uuid.UUID, *UpdateRequest) (*models.CareTask, error)
	Delete(uuid.UUID) error
}

type taskService struct {
	ctx context.Context
	db  *gorm.DB
}

func Service(ctx context.Context) Task {
	return &taskService{
		ctx: ctx,
		db:  db.Connection(),
	}
}

func (t *taskService) WithDatabase(conn *gorm.DB) Task {
	t.db = conn
	return t
}

type ListRequest struct {
	Limit    uint64
	Offset   uint64
	OrderBy  []string
	PlantID  string
	Category string
	Overdue  bool
	Open     bool
}

func (t *taskService) List(req *ListRequest) (models.CareTasks, error) {
	var (
		tasks = make(models.CareTasks, 0)
		q     = t.db.WithContext(t.ctx)
	)

	if req.PlantID != "" {
		q = q.Where("plant_id = ?", req.PlantID)
	}

	if req.Category != "" {
		q = q.Where("category = ?", req.Category)
	}

	if req.Open {
		q = q.Where("completed_at IS NULL")
	}

	if req.Overdue {
		q = q.Where("completed_at IS NULL AND due_at < ?", time.Now().UTC())
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

	return tasks, q.Find(&tasks).Error
}

func (t *taskService) Get(id uuid.UUID) (*models.CareTask, error) {
	var (
		task models.CareTask
		q    = t.db.WithContext(t.ctx)
	)

	return &task, q.First(&task, "id = ?", id).Error
}

// CreateRequest creates a task directly, or from a template.
// When the template is flagged apply-to-all the create fans
// out to every plant; otherwise PlantID is required.
type CreateRequest struct {
	PlantID    string     `json:"plant_id"`
	TemplateID string     `json:"template_id"`
	Name       string     `json:"name"`
	Category   string     `json:"category"`
	Priority   string     `json:"priority"`
	DueAt      *time.Time `json:"due_at"`
	Notes      string     `json:"notes"`
}

func (r *CreateRequest) Validate() error {
	if r.TemplateID == "" {
		if r.Name == "" {
			return errors.New("name is required when no template is given")
		}
		if !models.ValidTaskCategory(models.TaskCategory(r.Category)) {
			return fmt.Errorf("invalid category: %q", r.Category)
		}
	}
	if r.Priority != "" && !models.ValidTaskPriority(models.TaskPriority(r.Priority)) {
		return fmt.Errorf("invalid priority: %q", r.Priority)
	}
	return nil
}

// Create builds one task, or one per plant for an
// apply-to-all template. The fan-out runs in a single
// transaction so a failure partway through leaves nothing
// behind.
func (t *taskService) Create(req *CreateRequest) (models.CareTasks, error) {
	var created models.CareTasks

	err := t.db.WithContext(t.ctx).Transaction(func(tx *gorm.DB) error {
		var template *models.TaskTemplate

		if req.TemplateID != "" {
			templateID, err := uuid.Parse(req.TemplateID)
			if err != nil {
				return err
			}

			template = &models.TaskTemplate{}
			if err := tx.First(template, "id = ?", templateID).Error; err != nil {
				return err
			}
		}

		plants, err := t.targetPlants(tx, req, template)
		if err != nil {
			return err
		}

		created = make(models.CareTasks, 0, len(plants))
		for _, plant := range plants {
			task := buildTask(plant.ID, req, template)
			if err := tx.Create(task).Error; err != nil {
				return err
			}
			created = append(created, task)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return created, nil
}

func (t *taskService) targetPlants(tx *gorm.DB, req *CreateRequest, template *models.TaskTemplate) (models.Plants, error) {
	if template != nil && template.ApplyToAll && req.PlantID == "" {
		plants := make(models.Plants, 0)
		if err := tx.Find(&plants).Error; err != nil {
			return nil, err
		}
		if len(plants) == 0 {
			return nil, ErrNoPlants
		}
		return plants, nil
	}

	plantID, err := uuid.Parse(req.PlantID)
	if err != nil {
		return nil, fmt.Errorf("plant_id is required: %w", err)
	}

	var plant models.Plant
	if err := tx.First(&plant, "id = ?", plantID).Error; err != nil {
		return nil, err
	}

	return models.Plants{&plant}, nil
}

func buildTask(plantID uuid.UUID, req *CreateRequest, template *models.TaskTemplate) *models.CareTask {
	task := &models.CareTask{
		ID:       uuid.New(),
		PlantID:  plantID,
		Name:     req.Name,
		Category: models.TaskCategory(req.Category),
		Priority: models.TaskPriority(req.Priority),
		DueAt:    time.Now().UTC(),
		Notes:    req.Notes,
	}

	if req.DueAt != nil {
		task.DueAt = *req.DueAt
	}

	if template != nil {
		task.TemplateID = &template.ID
		if task.Name == "" {
			task.Name = template.Name
		}
		if task.Category == "" {
			task.Category = template.Category
		}
		if task.Priority == "" {
			task.Priority = template.Priority
		}
		if req.DueAt == nil && template.IntervalDays > 0 {
			task.DueAt = time.Now().UTC().AddDate(0, 0, template.IntervalDays)
		}
	}

	if task.Priority == "" {
		task.Priority = models.TaskPriorityMedium
	}

	return task
}

type UpdateRequest struct {
	Name      *string    `json:"name"`
	Priority  *string    `json:"priority"`
	DueAt     *time.Time `json:"due_at"`
	Notes     *string    `json:"notes"`
	Completed *bool      `json:"completed"`
}

func (r *UpdateRequest) Validate() error {
	if r.Priority != nil && !models.ValidTaskPriority(models.TaskPriority(*r.Priority)) {
		return errors.New("invalid priority")
	}
	return nil
}

// Update applies a partial update. Completing a task created
// from a recurring template schedules the next occurrence.
func (t *taskService) Update(id uuid.UUID, req *UpdateRequest) (*models.CareTask, error) {
	var task models.CareTask

	err := t.db.WithContext(t.ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&task, "id = ?", id).Error; err != nil {
			return err
		}

		updates := map[string]interface{}{}
		if req.Name != nil {
			updates["name"] = *req.Name
		}
		if req.Priority != nil {
			updates["priority"] = *req.Priority
		}
		if req.DueAt != nil {
			updates["due_at"] = *req.DueAt
		}
		if req.Notes != nil {
			updates["notes"] = *req.Notes
		}

		completing := req.Completed != nil && *req.Completed && task.CompletedAt == nil
		if req.Completed != nil {
			if *req.Completed {
				if task.CompletedAt == nil {
					now := time.Now().UTC()
					updates["completed_at"] = now
				}
			} else {
				updates["completed_at"] = nil
			}
		}

		if len(updates) > 0 {
			if err := tx.Model(&task).Updates(updates).Error; err != nil {
				return err
			}
		}

		if completing {
			return t.scheduleFollowUp(tx, &task)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return &task, nil
}

// scheduleFollowUp creates the next occurrence for a
// recurring template-backed task, anchored to the completed
// task's due date.
func (t *taskService) scheduleFollowUp(tx *gorm.DB, task *models.CareTask) error {
	if task.TemplateID == nil {
		return nil
	}

	var template models.TaskTemplate
	if err := tx.First(&template, "id = ?", *task.TemplateID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	if template.OneShot || template.IntervalDays <= 0 {
		return nil
	}

	next := &models.CareTask{
		ID:         uuid.New(),
		PlantID:    task.PlantID,
		TemplateID: task.TemplateID,
		Name:       task.Name,
		Category:   task.Category,
		Priority:   task.Priority,
		DueAt:      task.DueAt.AddDate(0, 0, template.IntervalDays),
		Notes:      task.Notes,
	}

	return tx.Create(next).Error
}

func (t *taskService) Delete(id uuid.UUID) error {
	var task models.CareTask
	if err := t.db.WithContext(t.ctx).First(&task, "id = ?", id).Error; err != nil {
		return err
	}

	return t.db.WithContext(t.ctx).Delete(&task).Error
}
