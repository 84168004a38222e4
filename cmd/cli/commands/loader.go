package commands

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/courtline/engine/pkg/core/model"
)

// scheduleFile is the on-disk YAML shape of a schedule snapshot
type scheduleFile struct {
	ID        string          `yaml:"id"`
	Sport     string          `yaml:"sport"`
	Season    string          `yaml:"season"`
	Games     []model.Game    `yaml:"games"`
	Teams     []model.Team    `yaml:"teams"`
	Venues    []model.Venue   `yaml:"venues"`
	Rivalries []model.Rivalry `yaml:"rivalries,omitempty"`
}

// constraintsFile is the on-disk YAML shape of a constraint set
type constraintsFile struct {
	Constraints []model.Constraint `yaml:"constraints"`
}

// LoadSchedule reads a schedule snapshot from a YAML file
func LoadSchedule(path string) (*model.Schedule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schedule file: %w", err)
	}

	var file scheduleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse schedule file %s: %w", path, err)
	}
	if file.ID == "" {
		return nil, fmt.Errorf("schedule file %s has no id", path)
	}
	if len(file.Games) == 0 {
		return nil, fmt.Errorf("schedule file %s has no games", path)
	}

	return model.NewSchedule(file.ID, file.Sport, file.Season, file.Games, file.Teams, file.Venues, file.Rivalries), nil
}

// LoadConstraints reads a constraint set from a YAML file. Validation
// happens at registration, not here.
func LoadConstraints(path string) ([]model.Constraint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read constraints file: %w", err)
	}

	var file constraintsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse constraints file %s: %w", path, err)
	}
	if len(file.Constraints) == 0 {
		return nil, fmt.Errorf("constraints file %s defines no constraints", path)
	}
	return file.Constraints, nil
}
