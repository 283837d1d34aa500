// Package scenario loads demo incidents for the dashboard.
// Scenarios are defined as YAML files in a configurable directory; a
// generated sample incident is always available so the demo works with an
// empty directory.
package scenario

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Jencheng1/sre-copilot/internal/incident"
)

// Scenario is a named demo incident loaded from a YAML file.
type Scenario struct {
	Name     string            `yaml:"name"`
	Incident incident.Incident `yaml:"incident"`
}

// Load reads all .yaml files from dir. A missing directory is not an error;
// the built-in sample covers that case.
func Load(dir string) ([]Scenario, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading scenario directory: %w", err)
	}

	var scenarios []Scenario
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}

		path := filepath.Join(dir, name)
		sc, err := parseScenarioFile(path)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", name, err)
		}
		if sc.Name == "" {
			sc.Name = strings.TrimSuffix(strings.TrimSuffix(name, ".yaml"), ".yml")
		}
		scenarios = append(scenarios, *sc)
	}

	return scenarios, nil
}

func parseScenarioFile(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}

	if err := incident.Validate(&sc.Incident); err != nil {
		return nil, err
	}
	return &sc, nil
}
