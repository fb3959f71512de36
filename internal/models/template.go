package models

import (
	"time"

	"github.com/google/uuid"
)

type TaskCategory string

const (
	TaskCategoryWatering    TaskCategory = "watering"
	TaskCategoryFertilizing TaskCategory = "fertilizing"
	TaskCategoryPruning     TaskCategory = "pruning"
	TaskCategoryRepotting   TaskCategory = "repotting"
	TaskCategoryInspection  TaskCategory = "inspection"
	TaskCategoryTreatment   TaskCategory = "treatment"
	TaskCategoryCustom      TaskCategory = "custom"
)

// ValidTaskCategory reports whether the category is one of
// the supported values.
func ValidTaskCategory(c TaskCategory) bool {
	switch c {
	case TaskCategoryWatering, TaskCategoryFertilizing, TaskCategoryPruning,
		TaskCategoryRepotting, TaskCategoryInspection, TaskCategoryTreatment,
		TaskCategoryCustom:
		return true
	}
	return false
}

type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
)

// ValidTaskPriority reports whether the priority is one of
// the supported values.
func ValidTaskPriority(p TaskPriority) bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh:
		return true
	}
	return false
}

// TaskTemplate is a reusable description of a care task.
// IntervalDays of zero means the task does not recur.
type TaskTemplate struct {
	ID           uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string       `gorm:"not null;index" json:"name"`
	Category     TaskCategory `gorm:"not null;index" json:"category"`
	Description  string       `json:"description"`
	Priority     TaskPriority `gorm:"not null" json:"priority"`
	IntervalDays int          `json:"interval_days"`
	OneShot      bool         `json:"one_shot"`
	ApplyToAll   bool         `json:"apply_to_all"`
	CreatedAt    time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time    `gorm:"not null" json:"updated_at"`
}

type TaskTemplates []*TaskTemplate

// ChecklistItem is one entry of a template's checklist,
// ordered by Position within its template.
type ChecklistItem struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TemplateID uuid.UUID `gorm:"type:uuid;not null;index" json:"template_id"`
	Text       string    `gorm:"not null" json:"text"`
	Position   int       `gorm:"not null" json:"position"`
	Done       bool      `json:"done"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time `gorm:"not null" json:"updated_at"`
}

type ChecklistItems []*ChecklistItem
