package chaindef

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	APIVersionV1  = "v1"
	KindTaskChain = "TaskChain"
)

// Definition models the root task-chain document.
type Definition struct {
	Schema     string   `yaml:"$schema,omitempty" json:"$schema,omitempty"`
	APIVersion string   `yaml:"apiVersion" json:"apiVersion"`
	Kind       string   `yaml:"kind" json:"kind"`
	Metadata   Metadata `yaml:"metadata" json:"metadata"`
	Steps      []Step   `yaml:"steps" json:"steps"`
}

// Metadata contains descriptive data for the chain.
type Metadata struct {
	Name        string            `yaml:"name" json:"name"`
	Description string            `yaml:"description,omitempty" json:"description,omitempty"`
	Category    string            `yaml:"category,omitempty" json:"category,omitempty"`
	Labels      map[string]string `yaml:"labels,omitempty" json:"labels,omitempty"`
}

// Step defines one chain stage. Template names an existing
// task template; Category and IntervalDays describe the
// template to create when it does not exist yet.
type Step struct {
	Template     string   `yaml:"template" json:"template"`
	Category     string   `yaml:"category,omitempty" json:"category,omitempty"`
	IntervalDays int      `yaml:"intervalDays,omitempty" json:"intervalDays,omitempty"`
	Required     bool     `yaml:"required" json:"required"`
	WaitHours    int      `yaml:"waitHours,omitempty" json:"waitHours,omitempty"`
	Approval     Approval `yaml:"approval,omitempty" json:"approval,omitempty"`
}

// Approval configures the approval gate of a step.
type Approval struct {
	Required bool     `yaml:"required,omitempty" json:"required,omitempty"`
	Roles    []string `yaml:"roles,omitempty" json:"roles,omitempty"`
}

// UnmarshalYAML sets defaults while deserialising a step.
func (s *Step) UnmarshalYAML(value *yaml.Node) error {
	type rawStep Step
	rs := rawStep{Required: true}
	if err := value.Decode(&rs); err != nil {
		return err
	}
	*s = Step(rs)
	return nil
}

// Parse parses YAML bytes into a Definition.
func Parse(data []byte) (*Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, err
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// Validate performs semantic validation on the definition.
func (d *Definition) Validate() error {
	if d.APIVersion != APIVersionV1 {
		return fmt.Errorf("unsupported apiVersion: %s", d.APIVersion)
	}
	if d.Kind != KindTaskChain {
		return fmt.Errorf("unsupported kind: %s", d.Kind)
	}
	if strings.TrimSpace(d.Metadata.Name) == "" {
		return fmt.Errorf("metadata.name is required")
	}
	if len(d.Steps) == 0 {
		return fmt.Errorf("steps must contain at least one entry")
	}
	return validateSteps(d.Steps)
}

func validateSteps(steps []Step) error {
	names := make(map[string]int, len(steps))
	for i := range steps {
		step := &steps[i]
		if strings.TrimSpace(step.Template) == "" {
			return fmt.Errorf("steps[%d].template is required", i)
		}
		if _, exists := names[step.Template]; exists {
			return fmt.Errorf("duplicate step template %q", step.Template)
		}
		names[step.Template] = i

		if step.WaitHours < 0 {
			return fmt.Errorf("steps[%d].waitHours must not be negative", i)
		}
		if step.IntervalDays < 0 {
			return fmt.Errorf("steps[%d].intervalDays must not be negative", i)
		}
		if step.Approval.Required && len(step.Approval.Roles) == 0 {
			return fmt.Errorf("steps[%d].approval.roles is required when approval is", i)
		}
	}
	return nil
}
