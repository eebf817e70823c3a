package blueprint

import (
	"fmt"
	"math"
	"strings"

	"github.com/PipeManMusic/Talus-Tally-sub000/internal/models"
)

// ValidationError collects every problem found in a blueprint so authors
// can fix them in one pass.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid blueprint: %s", strings.Join(e.Problems, "; "))
}

// Validate checks structural rules: unique non-empty type and property
// IDs, known score modes, and well-formed velocity rules. Returns a
// *ValidationError listing every violation, or nil.
func Validate(bp *models.Blueprint) error {
	var problems []string

	if bp.ID == "" {
		problems = append(problems, "blueprint id is required")
	}

	seenTypes := make(map[string]bool)
	for i := range bp.NodeTypes {
		nt := &bp.NodeTypes[i]
		if nt.ID == "" {
			problems = append(problems, fmt.Sprintf("node type %d has no id", i))
			continue
		}
		if seenTypes[nt.ID] {
			problems = append(problems, fmt.Sprintf("duplicate node type %q", nt.ID))
		}
		seenTypes[nt.ID] = true

		if cfg := nt.VelocityConfig; cfg != nil {
			switch cfg.ScoreMode {
			case "", models.ScoreModeFixed, models.ScoreModeInherit:
			default:
				problems = append(problems, fmt.Sprintf("node type %q: unknown scoreMode %q", nt.ID, cfg.ScoreMode))
			}
		}

		problems = append(problems, validateProperties(nt)...)
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

func validateProperties(nt *models.NodeType) []string {
	var problems []string
	seenProps := make(map[string]bool)

	for i := range nt.Properties {
		prop := &nt.Properties[i]
		if prop.ID == "" {
			problems = append(problems, fmt.Sprintf("node type %q: property %d has no id", nt.ID, i))
			continue
		}
		if seenProps[prop.ID] {
			problems = append(problems, fmt.Sprintf("node type %q: duplicate property %q", nt.ID, prop.ID))
		}
		seenProps[prop.ID] = true

		cfg := prop.VelocityConfig
		if cfg == nil || !cfg.Enabled {
			continue
		}
		switch cfg.Mode {
		case models.ScoreRuleStatus:
			if len(cfg.StatusScores) == 0 {
				problems = append(problems, fmt.Sprintf("node type %q: property %q: status rule without statusScores", nt.ID, prop.ID))
			}
		case models.ScoreRuleMultiplier:
			if !prop.IsNumeric() {
				problems = append(problems, fmt.Sprintf("node type %q: property %q: multiplier rule on non-numeric type %q", nt.ID, prop.ID, prop.Type))
			}
			if f := cfg.MultiplierFactor; f != nil && (math.IsNaN(*f) || math.IsInf(*f, 0)) {
				problems = append(problems, fmt.Sprintf("node type %q: property %q: multiplierFactor is not finite", nt.ID, prop.ID))
			}
		default:
			problems = append(problems, fmt.Sprintf("node type %q: property %q: unknown velocity mode %q", nt.ID, prop.ID, cfg.Mode))
		}
	}
	return problems
}
