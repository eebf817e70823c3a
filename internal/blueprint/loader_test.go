package blueprint

import (
	"strings"
	"testing"

	"github.com/PipeManMusic/Talus-Tally-sub000/internal/models"
)

const sampleYAML = `
id: production
name: Production Tracker
node_types:
  - id: season
    name: Season
    allowed_children: [episode]
    velocityConfig:
      baseScore: 10
      scoreMode: fixed
  - id: episode
    name: Episode
    velocityConfig:
      baseScore: 5
      scoreMode: inherit
    properties:
      - id: status
        name: Status
        type: select
        options:
          - To Do
          - In Progress
          - Done
        velocityConfig:
          enabled: true
          mode: status
          statusScores:
            To Do: 10
            In Progress: 5
            Done: 0
      - id: budget
        name: Budget
        type: currency
        velocityConfig:
          enabled: true
          mode: multiplier
          multiplierFactor: 0.01
`

func TestParse(t *testing.T) {
	bp, err := Parse([]byte(sampleYAML))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if bp.ID != "production" {
		t.Errorf("ID = %q, want production", bp.ID)
	}
	if bp.Version != "1.0" {
		t.Errorf("Version = %q, want default 1.0", bp.Version)
	}
	if len(bp.NodeTypes) != 2 {
		t.Fatalf("got %d node types, want 2", len(bp.NodeTypes))
	}

	season := bp.NodeType("season")
	if season == nil {
		t.Fatal("season type not found")
	}
	if season.VelocityConfig.BaseScore != 10 || season.VelocityConfig.ScoreMode != models.ScoreModeFixed {
		t.Errorf("season velocity config = %+v", season.VelocityConfig)
	}
	if !bp.IsAllowedChild("season", "episode") {
		t.Error("episode should be an allowed child of season")
	}
	if bp.IsAllowedChild("episode", "season") {
		t.Error("season should not be an allowed child of episode")
	}
}

func TestParseAssignsOptionIDs(t *testing.T) {
	bp, err := Parse([]byte(sampleYAML))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	status := bp.NodeType("episode").Properties[0]
	if len(status.Options) != 3 {
		t.Fatalf("got %d options, want 3", len(status.Options))
	}
	seen := make(map[string]bool)
	for _, opt := range status.Options {
		if opt.ID == "" {
			t.Errorf("option %q has no id", opt.Name)
		}
		if seen[opt.ID] {
			t.Errorf("duplicate option id %q", opt.ID)
		}
		seen[opt.ID] = true
	}
	if status.Options[0].Name != "To Do" {
		t.Errorf("first option name = %q, want To Do", status.Options[0].Name)
	}
}

func TestParseInvalidYAML(t *testing.T) {
	if _, err := Parse([]byte("node_types: [")); err == nil {
		t.Error("expected parse error for malformed YAML")
	}
}

func TestValidate(t *testing.T) {
	factor := 2.0
	tests := []struct {
		name    string
		bp      *models.Blueprint
		wantErr string
	}{
		{
			name:    "missing blueprint id",
			bp:      &models.Blueprint{},
			wantErr: "blueprint id is required",
		},
		{
			name: "duplicate node type",
			bp: &models.Blueprint{
				ID: "bp",
				NodeTypes: []models.NodeType{
					{ID: "task"},
					{ID: "task"},
				},
			},
			wantErr: `duplicate node type "task"`,
		},
		{
			name: "unknown score mode",
			bp: &models.Blueprint{
				ID: "bp",
				NodeTypes: []models.NodeType{
					{ID: "task", VelocityConfig: &models.TypeScoreConfig{ScoreMode: "sometimes"}},
				},
			},
			wantErr: `unknown scoreMode "sometimes"`,
		},
		{
			name: "status rule without scores",
			bp: &models.Blueprint{
				ID: "bp",
				NodeTypes: []models.NodeType{
					{ID: "task", Properties: []models.PropertyDef{
						{ID: "status", Type: "select", VelocityConfig: &models.PropertyScoreConfig{
							Enabled: true,
							Mode:    models.ScoreRuleStatus,
						}},
					}},
				},
			},
			wantErr: "status rule without statusScores",
		},
		{
			name: "multiplier on text property",
			bp: &models.Blueprint{
				ID: "bp",
				NodeTypes: []models.NodeType{
					{ID: "task", Properties: []models.PropertyDef{
						{ID: "notes", Type: "text", VelocityConfig: &models.PropertyScoreConfig{
							Enabled:          true,
							Mode:             models.ScoreRuleMultiplier,
							MultiplierFactor: &factor,
						}},
					}},
				},
			},
			wantErr: "multiplier rule on non-numeric type",
		},
		{
			name: "valid blueprint",
			bp: &models.Blueprint{
				ID: "bp",
				NodeTypes: []models.NodeType{
					{ID: "task", VelocityConfig: &models.TypeScoreConfig{BaseScore: 1}},
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.bp)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() = nil, want error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateCollectsAllProblems(t *testing.T) {
	bp := &models.Blueprint{
		NodeTypes: []models.NodeType{
			{ID: "task"},
			{ID: "task"},
		},
	}
	err := Validate(bp)
	verr, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if len(verr.Problems) != 2 {
		t.Errorf("got %d problems, want 2: %v", len(verr.Problems), verr.Problems)
	}
}
