// Package blueprint loads and validates project blueprints from YAML.
package blueprint

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/PipeManMusic/Talus-Tally-sub000/internal/models"
)

// Load reads a blueprint from a YAML file, assigns IDs to select options
// declared as bare strings, and validates the result.
func Load(path string) (*models.Blueprint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read blueprint: %w", err)
	}
	return Parse(data)
}

// Parse decodes blueprint YAML and validates it.
func Parse(data []byte) (*models.Blueprint, error) {
	var bp models.Blueprint
	if err := yaml.Unmarshal(data, &bp); err != nil {
		return nil, fmt.Errorf("parse blueprint: %w", err)
	}
	if bp.Version == "" {
		bp.Version = "1.0"
	}

	assignOptionIDs(&bp)

	if err := Validate(&bp); err != nil {
		return nil, err
	}
	return &bp, nil
}

// assignOptionIDs gives every select option without an ID a fresh UUID,
// so stored node values can reference options stably across renames.
func assignOptionIDs(bp *models.Blueprint) {
	for i := range bp.NodeTypes {
		for j := range bp.NodeTypes[i].Properties {
			prop := &bp.NodeTypes[i].Properties[j]
			for k := range prop.Options {
				if prop.Options[k].ID == "" {
					prop.Options[k].ID = uuid.NewString()
				}
			}
		}
	}
}
