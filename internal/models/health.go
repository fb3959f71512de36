package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type HealthCondition string

const (
	HealthConditionThriving   HealthCondition = "thriving"
	HealthConditionHealthy    HealthCondition = "healthy"
	HealthConditionStruggling HealthCondition = "struggling"
	HealthConditionSick       HealthCondition = "sick"
	HealthConditionDormant    HealthCondition = "dormant"
)

// ValidHealthCondition reports whether the condition is one
// of the supported values.
func ValidHealthCondition(c HealthCondition) bool {
	switch c {
	case HealthConditionThriving, HealthConditionHealthy,
		HealthConditionStruggling, HealthConditionSick, HealthConditionDormant:
		return true
	}
	return false
}

// HealthRecord is a point-in-time observation of a plant.
// Metrics holds free-form measurements (height, leaf count,
// soil moisture, ...).
type HealthRecord struct {
	ID         uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	PlantID    uuid.UUID         `gorm:"type:uuid;not null;index" json:"plant_id"`
	Condition  HealthCondition   `gorm:"not null" json:"condition"`
	Notes      string            `json:"notes"`
	Metrics    datatypes.JSONMap `json:"metrics"`
	ObservedAt time.Time         `gorm:"not null;index" json:"observed_at"`
	CreatedAt  time.Time         `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time         `gorm:"not null" json:"updated_at"`
}

type HealthRecords []*HealthRecord
