package cfg

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// BuildSpec describes the standalone executables the freezing tool produces.
type BuildSpec struct {
	// Executables are the frozen executables, at least one must be
	// declared.
	Executables []Executable `yaml:"executables"`
	// ExcludedModules are interpreter modules excluded from every frozen
	// executable.
	ExcludedModules []string `yaml:"excluded_modules"`
}

// Executable is one frozen standalone executable.
type Executable struct {
	// Name is the basename of the produced executable, without extension.
	Name string `yaml:"name"`
	// Script is the entry point script, relative to the checkout root.
	Script string `yaml:"script"`
	// Console selects a console executable instead of a GUI one.
	Console bool `yaml:"console"`
}

// BuildSpecFromFile reads and validates the freeze build specification at
// path.
func BuildSpecFromFile(path string) (*BuildSpec, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	spec := BuildSpec{}
	if err := yaml.Unmarshal(content, &spec); err != nil {
		return nil, fmt.Errorf("parsing %q failed: %w", path, err)
	}

	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &spec, nil
}

// Validate validates the build specification.
func (s *BuildSpec) Validate() error {
	if len(s.Executables) == 0 {
		return errors.New("executables list is empty, at least 1 executable must be declared")
	}

	seen := make(map[string]struct{}, len(s.Executables))
	for i, exe := range s.Executables {
		if exe.Name == "" {
			return fmt.Errorf("executables[%d]: name must be set", i)
		}

		if exe.Script == "" {
			return fmt.Errorf("executable %q: script must be set", exe.Name)
		}

		if _, exists := seen[exe.Name]; exists {
			return fmt.Errorf("executable name %q is declared multiple times", exe.Name)
		}
		seen[exe.Name] = struct{}{}
	}

	return nil
}
