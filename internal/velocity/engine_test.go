package velocity

import (
	"reflect"
	"testing"

	"github.com/PipeManMusic/Talus-Tally-sub000/internal/models"
)

func floatPtr(v float64) *float64 { return &v }

func strPtr(s string) *string { return &s }

// basicBlueprint mirrors a typical project schema: a fixed-mode epic,
// inherit-mode story and task, and a type with no velocity config.
func basicBlueprint() *models.Blueprint {
	return &models.Blueprint{
		ID: "basic",
		NodeTypes: []models.NodeType{
			{
				ID:             "epic",
				Name:           "Epic",
				VelocityConfig: &models.TypeScoreConfig{BaseScore: 10, ScoreMode: models.ScoreModeFixed},
			},
			{
				ID:             "story",
				Name:           "Story",
				VelocityConfig: &models.TypeScoreConfig{BaseScore: 5, ScoreMode: models.ScoreModeInherit},
			},
			{
				ID:             "task",
				Name:           "Task",
				VelocityConfig: &models.TypeScoreConfig{BaseScore: 1, ScoreMode: models.ScoreModeInherit},
			},
			{
				ID:   "no_velocity",
				Name: "No Velocity",
			},
		},
	}
}

func statusBlueprint() *models.Blueprint {
	return &models.Blueprint{
		ID: "status",
		NodeTypes: []models.NodeType{
			{
				ID:             "task",
				VelocityConfig: &models.TypeScoreConfig{BaseScore: 5, ScoreMode: models.ScoreModeFixed},
				Properties: []models.PropertyDef{
					{
						ID:   "status",
						Type: "select",
						Options: []models.SelectOption{
							{ID: "todo-id", Name: "To Do"},
							{ID: "in-progress-id", Name: "In Progress"},
							{ID: "done-id", Name: "Done"},
						},
						VelocityConfig: &models.PropertyScoreConfig{
							Enabled: true,
							Mode:    models.ScoreRuleStatus,
							StatusScores: map[string]float64{
								"To Do":       10,
								"In Progress": 5,
								"Done":        0,
							},
						},
					},
				},
			},
		},
	}
}

func numericalBlueprint() *models.Blueprint {
	return &models.Blueprint{
		ID: "numerical",
		NodeTypes: []models.NodeType{
			{
				ID:             "task",
				VelocityConfig: &models.TypeScoreConfig{BaseScore: 5, ScoreMode: models.ScoreModeFixed},
				Properties: []models.PropertyDef{
					{
						ID:   "priority",
						Type: "number",
						VelocityConfig: &models.PropertyScoreConfig{
							Enabled:          true,
							Mode:             models.ScoreRuleMultiplier,
							MultiplierFactor: floatPtr(2),
						},
					},
					{
						ID:   "complexity",
						Type: "number",
						VelocityConfig: &models.PropertyScoreConfig{
							Enabled:          true,
							Mode:             models.ScoreRuleMultiplier,
							MultiplierFactor: floatPtr(0.5),
							PenaltyMode:      true,
						},
					},
				},
			},
		},
	}
}

func node(id, typeID string, parent *string, props map[string]any) *models.Node {
	return &models.Node{ID: id, TypeID: typeID, ParentID: parent, Properties: props}
}

func TestBaseScoreOnly(t *testing.T) {
	nodes := models.NewNodeSet(node("epic-1", "epic", nil, nil))
	engine := New(nodes, basicBlueprint(), nil)

	calc := engine.CalculateVelocity("epic-1")
	if calc.BaseScore != 10 {
		t.Errorf("BaseScore = %v, want 10", calc.BaseScore)
	}
	if calc.InheritedScore != 0 {
		t.Errorf("InheritedScore = %v, want 0", calc.InheritedScore)
	}
	if calc.TotalVelocity != 10 {
		t.Errorf("TotalVelocity = %v, want 10", calc.TotalVelocity)
	}
}

func TestUnknownNode(t *testing.T) {
	engine := New(models.NewNodeSet(), basicBlueprint(), nil)

	calc := engine.CalculateVelocity("missing-1")
	if calc.TotalVelocity != 0 {
		t.Errorf("TotalVelocity = %v, want 0", calc.TotalVelocity)
	}
	if calc.NodeID != "missing-1" {
		t.Errorf("NodeID = %q, want %q", calc.NodeID, "missing-1")
	}
}

func TestUnconfiguredType(t *testing.T) {
	nodes := models.NewNodeSet(
		node("epic-1", "epic", nil, nil),
		node("no-vel-1", "no_velocity", strPtr("epic-1"), nil),
	)
	engine := New(nodes, basicBlueprint(), nil)

	parent := engine.CalculateVelocity("epic-1")
	if parent.TotalVelocity != 10 {
		t.Fatalf("parent TotalVelocity = %v, want 10", parent.TotalVelocity)
	}

	child := engine.CalculateVelocity("no-vel-1")
	if child.BaseScore != -1 {
		t.Errorf("child BaseScore = %v, want -1", child.BaseScore)
	}
	if child.InheritedScore != 10 {
		t.Errorf("child InheritedScore = %v, want 10", child.InheritedScore)
	}
	if child.TotalVelocity != 9 {
		t.Errorf("child TotalVelocity = %v, want 9", child.TotalVelocity)
	}
}

func TestEmptyBlueprint(t *testing.T) {
	nodes := models.NewNodeSet(node("task-1", "task", nil, nil))
	engine := New(nodes, &models.Blueprint{}, nil)

	calc := engine.CalculateVelocity("task-1")
	if calc.TotalVelocity != -1 {
		t.Errorf("TotalVelocity = %v, want -1", calc.TotalVelocity)
	}
}

func TestInheritedScores(t *testing.T) {
	tests := []struct {
		name          string
		nodes         []*models.Node
		target        string
		wantBase      float64
		wantInherited float64
		wantTotal     float64
	}{
		{
			name: "single parent",
			nodes: []*models.Node{
				node("epic-1", "epic", nil, nil),
				node("story-1", "story", strPtr("epic-1"), nil),
			},
			target:        "story-1",
			wantBase:      5,
			wantInherited: 10,
			wantTotal:     15,
		},
		{
			name: "three level chain",
			nodes: []*models.Node{
				node("epic-1", "epic", nil, nil),
				node("story-1", "story", strPtr("epic-1"), nil),
				node("task-1", "task", strPtr("story-1"), nil),
			},
			target:        "task-1",
			wantBase:      1,
			wantInherited: 15,
			wantTotal:     16,
		},
		{
			name: "fixed mode does not inherit",
			nodes: []*models.Node{
				node("epic-1", "epic", nil, nil),
				node("epic-2", "epic", strPtr("epic-1"), nil),
			},
			target:        "epic-2",
			wantBase:      10,
			wantInherited: 0,
			wantTotal:     10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := New(models.NewNodeSet(tt.nodes...), basicBlueprint(), nil)
			calc := engine.CalculateVelocity(tt.target)
			if calc.BaseScore != tt.wantBase {
				t.Errorf("BaseScore = %v, want %v", calc.BaseScore, tt.wantBase)
			}
			if calc.InheritedScore != tt.wantInherited {
				t.Errorf("InheritedScore = %v, want %v", calc.InheritedScore, tt.wantInherited)
			}
			if calc.TotalVelocity != tt.wantTotal {
				t.Errorf("TotalVelocity = %v, want %v", calc.TotalVelocity, tt.wantTotal)
			}
		})
	}
}

func TestInheritThroughChildrenEdges(t *testing.T) {
	// Parent/child edges declared only through the parent's Children
	// list, as some snapshots do.
	blueprint := &models.Blueprint{
		NodeTypes: []models.NodeType{
			{
				ID:             "season",
				VelocityConfig: &models.TypeScoreConfig{BaseScore: 1, ScoreMode: models.ScoreModeInherit},
			},
			{
				ID: "episode",
				Properties: []models.PropertyDef{
					{
						ID:   "status",
						Type: "select",
						Options: []models.SelectOption{
							{ID: "shooting-id", Name: "Shooting"},
						},
						VelocityConfig: &models.PropertyScoreConfig{
							Enabled:      true,
							Mode:         models.ScoreRuleStatus,
							StatusScores: map[string]float64{"Shooting": 1},
						},
					},
				},
			},
		},
	}

	nodes := models.NewNodeSet(
		&models.Node{ID: "season-1", TypeID: "season", Children: []string{"episode-1"}},
		node("episode-1", "episode", nil, map[string]any{"status": "shooting-id"}),
	)
	engine := New(nodes, blueprint, nil)

	calc := engine.CalculateVelocity("episode-1")
	if calc.InheritedScore != 1 {
		t.Errorf("InheritedScore = %v, want 1", calc.InheritedScore)
	}
	if calc.StatusScore != 1 {
		t.Errorf("StatusScore = %v, want 1", calc.StatusScore)
	}
	if calc.TotalVelocity != 2 {
		t.Errorf("TotalVelocity = %v, want 2", calc.TotalVelocity)
	}
}

func TestStatusScores(t *testing.T) {
	tests := []struct {
		name       string
		props      map[string]any
		wantStatus float64
		wantTotal  float64
	}{
		{"to do", map[string]any{"status": "todo-id"}, 10, 15},
		{"in progress", map[string]any{"status": "in-progress-id"}, 5, 10},
		{"done", map[string]any{"status": "done-id"}, 0, 5},
		{"missing property", nil, 0, 5},
		{"unmapped value", map[string]any{"status": "bogus-id"}, 0, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nodes := models.NewNodeSet(node("task-1", "task", nil, tt.props))
			engine := New(nodes, statusBlueprint(), nil)
			calc := engine.CalculateVelocity("task-1")
			if calc.StatusScore != tt.wantStatus {
				t.Errorf("StatusScore = %v, want %v", calc.StatusScore, tt.wantStatus)
			}
			if calc.TotalVelocity != tt.wantTotal {
				t.Errorf("TotalVelocity = %v, want %v", calc.TotalVelocity, tt.wantTotal)
			}
		})
	}
}

func TestStatusScoreInheritsToChild(t *testing.T) {
	// Parent status and child status contribute independently; the child
	// inherits the parent's full component sum.
	blueprint := statusBlueprint()
	blueprint.NodeTypes = append(blueprint.NodeTypes, models.NodeType{
		ID:             "subtask",
		VelocityConfig: &models.TypeScoreConfig{BaseScore: 5, ScoreMode: models.ScoreModeInherit},
		Properties:     blueprint.NodeTypes[0].Properties,
	})

	nodes := models.NewNodeSet(
		node("parent-1", "task", nil, map[string]any{"status": "todo-id"}),
		node("child-1", "subtask", strPtr("parent-1"), map[string]any{"status": "in-progress-id"}),
	)
	engine := New(nodes, blueprint, nil)

	parent := engine.CalculateVelocity("parent-1")
	if parent.TotalVelocity != 15 {
		t.Fatalf("parent TotalVelocity = %v, want 15", parent.TotalVelocity)
	}

	child := engine.CalculateVelocity("child-1")
	if child.InheritedScore != 15 {
		t.Errorf("child InheritedScore = %v, want 15", child.InheritedScore)
	}
	if child.TotalVelocity != 25 {
		t.Errorf("child TotalVelocity = %v, want 25", child.TotalVelocity)
	}
}

func TestNumericalScores(t *testing.T) {
	tests := []struct {
		name          string
		props         map[string]any
		wantNumerical float64
	}{
		{"normal multiplier", map[string]any{"priority": 10, "complexity": 100}, 20},
		{"penalty mode", map[string]any{"complexity": 20, "priority": 0}, 40},
		{"combined", map[string]any{"priority": 10, "complexity": 30}, 55},
		{"zero values", map[string]any{"priority": 0, "complexity": 100}, 0},
		{"currency string", map[string]any{"priority": "$1,000", "complexity": 100}, 2000},
		{"non-numeric skipped", map[string]any{"priority": "n/a", "complexity": 100}, 0},
		// A missing penalty-mode value scores as zero, earning the full
		// inverted contribution.
		{"missing penalty value", map[string]any{"priority": 0}, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nodes := models.NewNodeSet(node("task-1", "task", nil, tt.props))
			engine := New(nodes, numericalBlueprint(), nil)
			calc := engine.CalculateVelocity("task-1")
			if calc.NumericalScore != tt.wantNumerical {
				t.Errorf("NumericalScore = %v, want %v", calc.NumericalScore, tt.wantNumerical)
			}
		})
	}
}

func TestDirectBlocking(t *testing.T) {
	nodes := models.NewNodeSet(
		node("task-1", "task", nil, nil),
		node("task-2", "task", nil, nil),
	)
	rels := []models.BlockingRelationship{
		{BlockedNodeID: "task-2", BlockingNodeID: "task-1"},
	}
	engine := New(nodes, basicBlueprint(), rels)

	blocked := engine.CalculateVelocity("task-2")
	if !blocked.IsBlocked {
		t.Error("task-2 should be blocked")
	}
	if blocked.TotalVelocity != 0 {
		t.Errorf("blocked TotalVelocity = %v, want 0", blocked.TotalVelocity)
	}
	if blocked.BlockingPenalty != 1 {
		t.Errorf("BlockingPenalty = %v, want 1", blocked.BlockingPenalty)
	}
	if !reflect.DeepEqual(blocked.BlockedByNodes, []string{"task-1"}) {
		t.Errorf("BlockedByNodes = %v, want [task-1]", blocked.BlockedByNodes)
	}

	blocker := engine.CalculateVelocity("task-1")
	if blocker.IsBlocked {
		t.Error("task-1 should not be blocked")
	}
	if blocker.BlockingBonus != 1 {
		t.Errorf("BlockingBonus = %v, want 1", blocker.BlockingBonus)
	}
	if blocker.TotalVelocity != 2 {
		t.Errorf("blocker TotalVelocity = %v, want 2", blocker.TotalVelocity)
	}
	if !reflect.DeepEqual(blocker.BlocksNodeIDs, []string{"task-2"}) {
		t.Errorf("BlocksNodeIDs = %v, want [task-2]", blocker.BlocksNodeIDs)
	}
}

func TestMultipleBlockedNodes(t *testing.T) {
	nodes := models.NewNodeSet(
		node("blocker", "task", nil, nil),
		node("blocked-1", "task", nil, nil),
		node("blocked-2", "task", nil, nil),
	)
	rels := []models.BlockingRelationship{
		{BlockedNodeID: "blocked-1", BlockingNodeID: "blocker"},
		{BlockedNodeID: "blocked-2", BlockingNodeID: "blocker"},
	}
	engine := New(nodes, basicBlueprint(), rels)

	calc := engine.CalculateVelocity("blocker")
	if calc.BlockingBonus != 2 {
		t.Errorf("BlockingBonus = %v, want 2", calc.BlockingBonus)
	}
	if calc.TotalVelocity != 3 {
		t.Errorf("TotalVelocity = %v, want 3", calc.TotalVelocity)
	}
	if len(calc.BlocksNodeIDs) != 2 {
		t.Errorf("BlocksNodeIDs = %v, want 2 entries", calc.BlocksNodeIDs)
	}
}

func TestBlockingChainAccruesFullValue(t *testing.T) {
	// head blocks mid, mid blocks tail. The head's bonus includes the
	// tail's value carried through mid's own bonus, never mid's zeroed
	// total.
	nodes := models.NewNodeSet(
		node("head", "epic", nil, nil),
		node("mid", "epic", nil, nil),
		node("tail", "epic", nil, nil),
	)
	rels := []models.BlockingRelationship{
		{BlockedNodeID: "mid", BlockingNodeID: "head"},
		{BlockedNodeID: "tail", BlockingNodeID: "mid"},
	}
	engine := New(nodes, basicBlueprint(), rels)

	mid := engine.CalculateVelocity("mid")
	if mid.TotalVelocity != 0 {
		t.Errorf("mid TotalVelocity = %v, want 0", mid.TotalVelocity)
	}
	if mid.BlockingBonus != 10 {
		t.Errorf("mid BlockingBonus = %v, want 10", mid.BlockingBonus)
	}

	head := engine.CalculateVelocity("head")
	if head.BlockingBonus != 20 {
		t.Errorf("head BlockingBonus = %v, want 20", head.BlockingBonus)
	}
	if head.TotalVelocity != 30 {
		t.Errorf("head TotalVelocity = %v, want 30", head.TotalVelocity)
	}
}

func TestBlockedAncestorCollapsesInheritance(t *testing.T) {
	// Blocking a parent zeroes what descendants inherit through it, but
	// does not flag the descendants as blocked themselves.
	nodes := models.NewNodeSet(
		node("epic-1", "epic", nil, nil),
		node("story-1", "story", strPtr("epic-1"), nil),
		node("task-1", "task", strPtr("story-1"), nil),
		node("blocker", "task", nil, nil),
	)
	rels := []models.BlockingRelationship{
		{BlockedNodeID: "story-1", BlockingNodeID: "blocker"},
	}
	engine := New(nodes, basicBlueprint(), rels)

	story := engine.CalculateVelocity("story-1")
	if !story.IsBlocked {
		t.Error("story-1 should be blocked")
	}
	if story.TotalVelocity != 0 {
		t.Errorf("story-1 TotalVelocity = %v, want 0", story.TotalVelocity)
	}

	task := engine.CalculateVelocity("task-1")
	if task.IsBlocked {
		t.Error("task-1 should not be flagged blocked")
	}
	if task.InheritedScore != 0 {
		t.Errorf("task-1 InheritedScore = %v, want 0", task.InheritedScore)
	}
	if task.TotalVelocity != 1 {
		t.Errorf("task-1 TotalVelocity = %v, want 1", task.TotalVelocity)
	}
}

func TestParentCycleTerminates(t *testing.T) {
	nodes := models.NewNodeSet(
		node("task-1", "task", strPtr("task-2"), nil),
		node("task-2", "task", strPtr("task-1"), nil),
	)
	engine := New(nodes, basicBlueprint(), nil)

	calc := engine.CalculateVelocity("task-1")
	if calc.NodeID != "task-1" {
		t.Errorf("NodeID = %q, want task-1", calc.NodeID)
	}
}

func TestBlockingCycleTerminates(t *testing.T) {
	nodes := models.NewNodeSet(
		node("task-1", "task", nil, nil),
		node("task-2", "task", nil, nil),
	)
	rels := []models.BlockingRelationship{
		{BlockedNodeID: "task-1", BlockingNodeID: "task-2"},
		{BlockedNodeID: "task-2", BlockingNodeID: "task-1"},
	}
	engine := New(nodes, basicBlueprint(), rels)

	for _, id := range []string{"task-1", "task-2"} {
		calc := engine.CalculateVelocity(id)
		if !calc.IsBlocked {
			t.Errorf("%s should be blocked", id)
		}
		if calc.TotalVelocity != 0 {
			t.Errorf("%s TotalVelocity = %v, want 0", id, calc.TotalVelocity)
		}
	}
}

func TestCacheReturnsIdenticalResults(t *testing.T) {
	nodes := models.NewNodeSet(
		node("epic-1", "epic", nil, nil),
		node("story-1", "story", strPtr("epic-1"), nil),
	)
	engine := New(nodes, basicBlueprint(), nil)

	first := engine.CalculateVelocity("story-1")
	second := engine.CalculateVelocity("story-1")
	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated calculation differs: %+v vs %+v", first, second)
	}
}

func TestCalculateAll(t *testing.T) {
	nodes := models.NewNodeSet(
		node("epic-1", "epic", nil, nil),
		node("story-1", "story", strPtr("epic-1"), nil),
		node("task-1", "task", strPtr("story-1"), nil),
	)
	engine := New(nodes, basicBlueprint(), nil)

	all := engine.CalculateAll()
	if len(all) != 3 {
		t.Fatalf("got %d calculations, want 3", len(all))
	}
	for id, calc := range all {
		if calc.NodeID != id {
			t.Errorf("calculation for %s carries NodeID %s", id, calc.NodeID)
		}
	}
}

func TestRanking(t *testing.T) {
	nodes := models.NewNodeSet(
		node("epic-1", "epic", nil, nil),
		node("story-1", "story", strPtr("epic-1"), nil),
		node("task-1", "task", strPtr("story-1"), nil),
	)
	engine := New(nodes, basicBlueprint(), nil)

	ranked := engine.Ranking()
	if len(ranked) != 3 {
		t.Fatalf("got %d ranked nodes, want 3", len(ranked))
	}

	wantOrder := []string{"task-1", "story-1", "epic-1"}
	for i, want := range wantOrder {
		if ranked[i].NodeID != want {
			t.Errorf("ranked[%d] = %s, want %s", i, ranked[i].NodeID, want)
		}
	}
	for i := 1; i < len(ranked); i++ {
		if ranked[i].Calculation.TotalVelocity > ranked[i-1].Calculation.TotalVelocity {
			t.Errorf("ranking not non-increasing at index %d", i)
		}
	}
}

func TestRankingStableOnTies(t *testing.T) {
	nodes := models.NewNodeSet(
		node("epic-a", "epic", nil, nil),
		node("epic-b", "epic", nil, nil),
		node("epic-c", "epic", nil, nil),
	)
	engine := New(nodes, basicBlueprint(), nil)

	ranked := engine.Ranking()
	wantOrder := []string{"epic-a", "epic-b", "epic-c"}
	for i, want := range wantOrder {
		if ranked[i].NodeID != want {
			t.Errorf("ranked[%d] = %s, want %s (snapshot order on ties)", i, ranked[i].NodeID, want)
		}
	}
}

func TestDuplicateBlockersTolerated(t *testing.T) {
	// Raw snapshots may carry several relationships for one blocked
	// node; all of them count.
	nodes := models.NewNodeSet(
		node("blocked", "task", nil, nil),
		node("blocker-1", "task", nil, nil),
		node("blocker-2", "task", nil, nil),
	)
	rels := []models.BlockingRelationship{
		{BlockedNodeID: "blocked", BlockingNodeID: "blocker-1"},
		{BlockedNodeID: "blocked", BlockingNodeID: "blocker-2"},
	}
	engine := New(nodes, basicBlueprint(), rels)

	calc := engine.CalculateVelocity("blocked")
	if !calc.IsBlocked {
		t.Error("node should be blocked")
	}
	if !reflect.DeepEqual(calc.BlockedByNodes, []string{"blocker-1", "blocker-2"}) {
		t.Errorf("BlockedByNodes = %v, want both blockers", calc.BlockedByNodes)
	}
}
