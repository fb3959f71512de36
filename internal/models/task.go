package models

import (
	"time"

	"github.com/google/uuid"
)

// CareTask is a scheduled unit of care for a single plant.
// TemplateID is set when the task was instantiated from a
// TaskTemplate.
type CareTask struct {
	ID          uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	PlantID     uuid.UUID    `gorm:"type:uuid;not null;index" json:"plant_id"`
	TemplateID  *uuid.UUID   `gorm:"type:uuid;index" json:"template_id"`
	Name        string       `gorm:"not null" json:"name"`
	Category    TaskCategory `gorm:"not null;index" json:"category"`
	Priority    TaskPriority `gorm:"not null" json:"priority"`
	DueAt       time.Time    `gorm:"not null;index" json:"due_at"`
	CompletedAt *time.Time   `json:"completed_at"`
	Notes       string       `json:"notes"`
	CreatedAt   time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time    `gorm:"not null" json:"updated_at"`
}

// Completed reports whether the task has been completed.
func (t *CareTask) Completed() bool {
	return t.CompletedAt != nil
}

// Overdue reports whether the task is past due and still open.
func (t *CareTask) Overdue(now time.Time) bool {
	return t.CompletedAt == nil && t.DueAt.Before(now)
}

type CareTasks []*CareTask
