package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kurihiro0119/mosscheck/internal/domain"
	apperrors "github.com/kurihiro0119/mosscheck/internal/errors"
)

// Assignment holds the per-assignment configuration loaded from a YAML file
type Assignment struct {
	Name                  string             `yaml:"assignment"`
	Lang                  string             `yaml:"lang"`
	Output                string             `yaml:"output"`
	Files                 string             `yaml:"files"`
	MossRequestCooldown   int                `yaml:"moss_request_cooldown"`
	BaseRepos             []string           `yaml:"base_repos"`
	BaseFiles             []string           `yaml:"base_files"`
	ThisQuarterGroups     []string           `yaml:"this_quarter_groups"`
	PreviousQuarterGroups []string           `yaml:"previous_quarter_groups"`
	AssignmentBranch      string             `yaml:"assignment_branch"`
	AssignmentPath        string             `yaml:"assignment_path"`
	AssignmentFiles       []string           `yaml:"assignment_files"`
	AbortOnCloneError     bool               `yaml:"abort_on_clone_error"`
	MossOptions           domain.MossOptions `yaml:"moss_options"`
}

// DefaultAssignment returns an assignment config with default values
func DefaultAssignment() *Assignment {
	return &Assignment{
		Lang:                "c",
		Output:              "output/",
		Files:               "files/",
		MossRequestCooldown: 60,
		BaseRepos:           []string{},
		BaseFiles:           []string{"*.*"},
		AssignmentBranch:    "main",
		AssignmentFiles:     []string{"*/*.c", "*/*.cpp", "*/*.cc"},
		MossOptions:         domain.DefaultMossOptions(),
	}
}

// LoadAssignment loads an assignment configuration from the given YAML file.
// Values missing from the file keep their defaults.
func LoadAssignment(path string) (*Assignment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.NewConfigError("could not open the config file "+path, err)
	}

	a := DefaultAssignment()
	if err := yaml.Unmarshal(data, a); err != nil {
		return nil, apperrors.NewConfigError("could not parse the config file "+path, err)
	}

	if err := a.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

// Validate checks the required assignment fields
func (a *Assignment) Validate() error {
	if a.Name == "" {
		return apperrors.NewConfigError("assignment name is required", nil)
	}
	if len(a.ThisQuarterGroups) == 0 {
		return apperrors.NewConfigError("this_quarter_groups must list at least one group", nil)
	}
	if len(a.AssignmentFiles) == 0 {
		return apperrors.NewConfigError("assignment_files must list at least one pattern", nil)
	}
	return nil
}

// Groups returns every group to clone, current quarter first
func (a *Assignment) Groups() []string {
	groups := make([]string, 0, len(a.ThisQuarterGroups)+len(a.PreviousQuarterGroups))
	groups = append(groups, a.ThisQuarterGroups...)
	groups = append(groups, a.PreviousQuarterGroups...)
	return groups
}
