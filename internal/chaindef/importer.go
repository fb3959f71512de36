package chaindef

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/verdant-cloud/verdant/internal/models"
	schema "github.com/verdant-cloud/verdant/pkg/chaindef"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	// ErrDuplicateChain is returned when a chain with the
	// definition's name already exists.
	ErrDuplicateChain = errors.New("chain name already exists")

	// ErrUnknownCategory is returned when an inline template
	// uses an unsupported category.
	ErrUnknownCategory = errors.New("unknown task category")
)

// Importer coordinates persistence of chain definitions.
type Importer struct {
	db *gorm.DB
}

// NewImporter creates a new importer. The provided db
// connection must be non-nil.
func NewImporter(dbConn *gorm.DB) *Importer {
	if dbConn == nil {
		panic("chaindef importer requires a database connection")
	}
	return &Importer{db: dbConn}
}

// Apply persists the provided definition and returns the
// created chain. Referenced templates are resolved by name
// and created when absent. Everything runs in one
// transaction.
func (i *Importer) Apply(ctx context.Context, def *schema.Definition) (*models.TaskChain, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}

	var result *models.TaskChain

	err := i.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		name := def.Metadata.Name

		var count int64
		if err := tx.Model(&models.TaskChain{}).Where("name = ?", name).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("%w: %s", ErrDuplicateChain, name)
		}

		chainModel := &models.TaskChain{
			ID:          uuid.New(),
			Name:        name,
			Description: def.Metadata.Description,
			Category:    def.Metadata.Category,
			IsActive:    true,
		}
		if err := tx.Create(chainModel).Error; err != nil {
			return err
		}

		for idx, step := range def.Steps {
			template, err := i.resolveTemplate(tx, &step)
			if err != nil {
				return err
			}

			stepModel := &models.ChainStep{
				ID:               uuid.New(),
				ChainID:          chainModel.ID,
				TemplateID:       template.ID,
				Position:         idx + 1,
				IsRequired:       step.Required,
				WaitHours:        step.WaitHours,
				RequiresApproval: step.Approval.Required,
				ApprovalRoles:    datatypes.NewJSONSlice(step.Approval.Roles),
			}
			if err := tx.Create(stepModel).Error; err != nil {
				return err
			}
		}

		result = chainModel
		return nil
	})

	return result, err
}

// resolveTemplate finds a template by name, creating it from
// the step's inline fields when it does not exist.
func (i *Importer) resolveTemplate(tx *gorm.DB, step *schema.Step) (*models.TaskTemplate, error) {
	var template models.TaskTemplate

	err := tx.First(&template, "name = ?", step.Template).Error
	if err == nil {
		return &template, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	category := models.TaskCategory(step.Category)
	if category == "" {
		category = models.TaskCategoryCustom
	}
	if !models.ValidTaskCategory(category) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCategory, category)
	}

	template = models.TaskTemplate{
		ID:           uuid.New(),
		Name:         step.Template,
		Category:     category,
		Priority:     models.TaskPriorityMedium,
		IntervalDays: step.IntervalDays,
	}

	return &template, tx.Create(&template).Error
}
