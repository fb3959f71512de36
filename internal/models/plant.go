package models

import (
	"time"

	"github.com/google/uuid"
)

type Plant struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Name       string     `gorm:"not null;index" json:"name"`
	Species    string     `json:"species"`
	Location   string     `json:"location"`
	AcquiredAt *time.Time `json:"acquired_at"`
	Notes      string     `json:"notes"`
	CreatedAt  time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"not null" json:"updated_at"`
}

type Plants []*Plant
