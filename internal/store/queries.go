package store

import (
	"context"
	"fmt"
	"time"

	"github.com/surrealdb/surrealdb.go"

	"github.com/PipeManMusic/Talus-Tally-sub000/internal/models"
)

// ProjectInfo is a project listing row.
type ProjectInfo struct {
	Name      string    `json:"name"`
	Blueprint string    `json:"blueprint"`
	Nodes     int       `json:"nodes"`
	Saved     time.Time `json:"saved"`
}

// BlueprintInfo is a blueprint listing row.
type BlueprintInfo struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Version string `json:"version"`
}

type projectRecord struct {
	Name      string                        `json:"name"`
	Blueprint string                        `json:"blueprint"`
	Nodes     []*models.Node                `json:"nodes"`
	Blocking  []models.BlockingRelationship `json:"blocking"`
}

// SaveProject upserts a project keyed by its name.
func (c *Client) SaveProject(ctx context.Context, p *models.Project) error {
	blocking := p.Blocking
	if blocking == nil {
		blocking = []models.BlockingRelationship{}
	}
	nodes := p.Nodes
	if nodes == nil {
		nodes = []*models.Node{}
	}

	_, err := surrealdb.Query[any](ctx, c.db, `
		UPSERT type::record("project", $id) SET
			name = $name,
			blueprint = $blueprint,
			nodes = $nodes,
			blocking = $blocking,
			saved = time::now()
	`, map[string]any{
		"id":        p.Name,
		"name":      p.Name,
		"blueprint": p.Blueprint,
		"nodes":     nodes,
		"blocking":  blocking,
	})
	if err != nil {
		return fmt.Errorf("save project: %w", wrapQueryError(err))
	}

	c.logger.Info("project saved", "name", p.Name, "nodes", len(nodes))
	return nil
}

// LoadProject retrieves a project by name.
func (c *Client) LoadProject(ctx context.Context, name string) (*models.Project, error) {
	results, err := surrealdb.Query[[]projectRecord](ctx, c.db, `
		SELECT name, blueprint, nodes, blocking FROM type::record("project", $id)
	`, map[string]any{"id": name})
	if err != nil {
		return nil, fmt.Errorf("load project: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, fmt.Errorf("%w: project %s", ErrNotFound, name)
	}

	rec := (*results)[0].Result[0]
	return &models.Project{
		Name:      rec.Name,
		Blueprint: rec.Blueprint,
		Nodes:     rec.Nodes,
		Blocking:  rec.Blocking,
	}, nil
}

// ListProjects returns all saved projects ordered by name.
func (c *Client) ListProjects(ctx context.Context) ([]ProjectInfo, error) {
	results, err := surrealdb.Query[[]ProjectInfo](ctx, c.db, `
		SELECT name, blueprint, array::len(nodes) AS nodes, saved
		FROM project ORDER BY name
	`, nil)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 {
		return []ProjectInfo{}, nil
	}
	return (*results)[0].Result, nil
}

// DeleteProject removes a project by name.
func (c *Client) DeleteProject(ctx context.Context, name string) error {
	_, err := surrealdb.Query[any](ctx, c.db, `
		DELETE type::record("project", $id)
	`, map[string]any{"id": name})
	if err != nil {
		return fmt.Errorf("delete project: %w", wrapQueryError(err))
	}
	return nil
}

type blueprintRecord struct {
	Definition models.Blueprint `json:"definition"`
}

// SaveBlueprint upserts a blueprint keyed by its ID.
func (c *Client) SaveBlueprint(ctx context.Context, bp *models.Blueprint) error {
	_, err := surrealdb.Query[any](ctx, c.db, `
		UPSERT type::record("blueprint", $id) SET
			name = $name,
			version = $version,
			definition = $definition,
			updated = time::now()
	`, map[string]any{
		"id":         bp.ID,
		"name":       bp.Name,
		"version":    bp.Version,
		"definition": bp,
	})
	if err != nil {
		return fmt.Errorf("save blueprint: %w", wrapQueryError(err))
	}

	c.logger.Info("blueprint saved", "id", bp.ID, "types", len(bp.NodeTypes))
	return nil
}

// LoadBlueprint retrieves a blueprint definition by ID.
func (c *Client) LoadBlueprint(ctx context.Context, id string) (*models.Blueprint, error) {
	results, err := surrealdb.Query[[]blueprintRecord](ctx, c.db, `
		SELECT definition FROM type::record("blueprint", $id)
	`, map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("load blueprint: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, fmt.Errorf("%w: blueprint %s", ErrNotFound, id)
	}

	bp := (*results)[0].Result[0].Definition
	return &bp, nil
}

// ListBlueprints returns all saved blueprints ordered by name.
func (c *Client) ListBlueprints(ctx context.Context) ([]BlueprintInfo, error) {
	results, err := surrealdb.Query[[]BlueprintInfo](ctx, c.db, `
		SELECT record::id(id) AS id, name, version FROM blueprint ORDER BY name
	`, nil)
	if err != nil {
		return nil, fmt.Errorf("list blueprints: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 {
		return []BlueprintInfo{}, nil
	}
	return (*results)[0].Result, nil
}
