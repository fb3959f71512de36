package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// TaskChain is an ordered template of care-task steps.
// Deleting a chain cascades to its steps.
type TaskChain struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"not null;uniqueIndex" json:"name"`
	Description string    `json:"description"`
	Category    string    `gorm:"index" json:"category"`
	IsActive    bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`

	Steps ChainSteps `gorm:"foreignKey:ChainID;constraint:OnDelete:CASCADE" json:"steps,omitempty"`
}

type TaskChains []*TaskChain

// ChainStep is one stage of a chain. Position is 1-based and
// unique within the owning chain; it defines the traversal
// order. WaitHours delays when the next step becomes
// actionable and is advisory only.
type ChainStep struct {
	ID               uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	ChainID          uuid.UUID                   `gorm:"type:uuid;not null;uniqueIndex:idx_chain_step_position" json:"chain_id"`
	TemplateID       uuid.UUID                   `gorm:"type:uuid;not null" json:"template_id"`
	Position         int                         `gorm:"not null;uniqueIndex:idx_chain_step_position" json:"position"`
	IsRequired       bool                        `gorm:"not null;default:true" json:"is_required"`
	WaitHours        int                         `json:"wait_hours"`
	RequiresApproval bool                        `gorm:"not null;default:false" json:"requires_approval"`
	ApprovalRoles    datatypes.JSONSlice[string] `json:"approval_roles"`
	CreatedAt        time.Time                   `gorm:"not null" json:"created_at"`
	UpdatedAt        time.Time                   `gorm:"not null" json:"updated_at"`
}

type ChainSteps []*ChainStep

// Next returns the step following the one with the given
// position, or nil if it is the last.
func (s ChainSteps) Next(position int) *ChainStep {
	var next *ChainStep
	for _, step := range s {
		if step.Position <= position {
			continue
		}
		if next == nil || step.Position < next.Position {
			next = step
		}
	}
	return next
}

// First returns the step with the lowest position, or nil
// for an empty chain.
func (s ChainSteps) First() *ChainStep {
	var first *ChainStep
	for _, step := range s {
		if first == nil || step.Position < first.Position {
			first = step
		}
	}
	return first
}

// ByID returns the step with the given id, or nil.
func (s ChainSteps) ByID(id uuid.UUID) *ChainStep {
	for _, step := range s {
		if step.ID == id {
			return step
		}
	}
	return nil
}
