package models

import (
	"time"

	"github.com/google/uuid"
)

type AssignmentStatus string

const (
	AssignmentStatusActive    AssignmentStatus = "active"
	AssignmentStatusCompleted AssignmentStatus = "completed"
	AssignmentStatusCancelled AssignmentStatus = "cancelled"
)

// Terminal reports whether the status permits no further
// transitions.
func (s AssignmentStatus) Terminal() bool {
	return s == AssignmentStatusCompleted || s == AssignmentStatusCancelled
}

// ChainAssignment is one in-progress traversal of a chain
// for one plant. CurrentStepID, when set, references a step
// belonging to ChainID.
type ChainAssignment struct {
	ID            uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	ChainID       uuid.UUID        `gorm:"type:uuid;not null;index" json:"chain_id"`
	PlantID       uuid.UUID        `gorm:"type:uuid;not null;index" json:"plant_id"`
	Status        AssignmentStatus `gorm:"not null;index" json:"status"`
	CurrentStepID *uuid.UUID       `gorm:"type:uuid" json:"current_step_id"`
	StartedAt     time.Time        `gorm:"not null" json:"started_at"`
	CompletedAt   *time.Time       `json:"completed_at"`
	CreatedAt     time.Time        `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time        `gorm:"not null" json:"updated_at"`
}

type ChainAssignments []*ChainAssignment

// StepApproval is an append-only record of an approve or
// reject decision on a step within an assignment.
type StepApproval struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	AssignmentID uuid.UUID `gorm:"type:uuid;not null;index" json:"assignment_id"`
	StepID       uuid.UUID `gorm:"type:uuid;not null;index" json:"step_id"`
	ApprovedBy   *string   `json:"approved_by"`
	Notes        string    `json:"notes"`
	Approved     bool      `gorm:"not null" json:"approved"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`
}

type StepApprovals []*StepApproval
