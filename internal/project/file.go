// Package project reads and writes project files on disk.
package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/PipeManMusic/Talus-Tally-sub000/internal/models"
)

// Load reads a project file. YAML and JSON are both accepted.
func Load(path string) (*models.Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read project file: %w", err)
	}
	return Parse(data)
}

// Parse decodes project data and checks node references.
func Parse(data []byte) (*models.Project, error) {
	var p models.Project
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse project: %w", err)
	}

	ids := make(map[string]bool, len(p.Nodes))
	for _, n := range p.Nodes {
		if n.ID == "" {
			return nil, fmt.Errorf("parse project: node with empty id")
		}
		if ids[n.ID] {
			return nil, fmt.Errorf("parse project: duplicate node id %q", n.ID)
		}
		ids[n.ID] = true
	}
	for _, rel := range p.Blocking {
		if !ids[rel.BlockedNodeID] {
			return nil, fmt.Errorf("parse project: blocking references unknown node %q", rel.BlockedNodeID)
		}
		if !ids[rel.BlockingNodeID] {
			return nil, fmt.Errorf("parse project: blocking references unknown node %q", rel.BlockingNodeID)
		}
	}
	return &p, nil
}

// Save writes a project file, YAML unless the extension is .json.
func Save(path string, p *models.Project) error {
	var data []byte
	var err error
	if strings.EqualFold(filepath.Ext(path), ".json") {
		data, err = json.MarshalIndent(p, "", "  ")
	} else {
		data, err = yaml.Marshal(p)
	}
	if err != nil {
		return fmt.Errorf("encode project: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write project file: %w", err)
	}
	return nil
}
