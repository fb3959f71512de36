package diff

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/verdant-cloud/verdant/internal/models"
	schema "github.com/verdant-cloud/verdant/pkg/chaindef"
	"gorm.io/gorm"
)

// ChainSpec is the comparable projection of a chain, from
// either a YAML definition or the database.
type ChainSpec struct {
	Name        string
	Description string
	Category    string
	Steps       []StepSpec
}

// StepSpec is the comparable projection of a chain step.
type StepSpec struct {
	Template         string
	Required         bool
	WaitHours        int
	RequiresApproval bool
	ApprovalRoles    []string
}

// FromDefinition projects a YAML definition to a spec.
func FromDefinition(def *schema.Definition) ChainSpec {
	spec := ChainSpec{
		Name:        def.Metadata.Name,
		Description: def.Metadata.Description,
		Category:    def.Metadata.Category,
		Steps:       make([]StepSpec, 0, len(def.Steps)),
	}

	for _, step := range def.Steps {
		spec.Steps = append(spec.Steps, StepSpec{
			Template:         step.Template,
			Required:         step.Required,
			WaitHours:        step.WaitHours,
			RequiresApproval: step.Approval.Required,
			ApprovalRoles:    step.Approval.Roles,
		})
	}

	return spec
}

// LoadDefinitions parses every YAML file matched by the
// given doublestar patterns into specs keyed by chain name.
func LoadDefinitions(patterns []string) (map[string]ChainSpec, error) {
	if len(patterns) == 0 {
		patterns = []string{"*.yaml"}
	}

	specs := map[string]ChainSpec{}
	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", pattern, err)
		}

		sort.Strings(matches)
		for _, path := range matches {
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, err
			}

			def, err := schema.Parse(data)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", path, err)
			}

			specs[def.Metadata.Name] = FromDefinition(def)
		}
	}

	return specs, nil
}

// LoadDatabaseSpecs projects every stored chain to a spec
// keyed by name.
func LoadDatabaseSpecs(ctx context.Context, dbConn *gorm.DB) (map[string]ChainSpec, error) {
	chains := make(models.TaskChains, 0)
	if err := dbConn.WithContext(ctx).Find(&chains).Error; err != nil {
		return nil, err
	}

	specs := make(map[string]ChainSpec, len(chains))
	for _, c := range chains {
		steps := make(models.ChainSteps, 0)
		if err := dbConn.WithContext(ctx).
			Where("chain_id = ?", c.ID).
			Order("position ASC").
			Find(&steps).Error; err != nil {
			return nil, err
		}

		spec := ChainSpec{
			Name:        c.Name,
			Description: c.Description,
			Category:    c.Category,
			Steps:       make([]StepSpec, 0, len(steps)),
		}

		for _, step := range steps {
			template := lookupTemplateName(ctx, dbConn, step)
			spec.Steps = append(spec.Steps, StepSpec{
				Template:         template,
				Required:         step.IsRequired,
				WaitHours:        step.WaitHours,
				RequiresApproval: step.RequiresApproval,
				ApprovalRoles:    step.ApprovalRoles,
			})
		}

		specs[c.Name] = spec
	}

	return specs, nil
}

func lookupTemplateName(ctx context.Context, dbConn *gorm.DB, step *models.ChainStep) string {
	var template models.TaskTemplate
	if err := dbConn.WithContext(ctx).
		Select("name").
		First(&template, "id = ?", step.TemplateID).Error; err != nil {
		return ""
	}
	return template.Name
}
