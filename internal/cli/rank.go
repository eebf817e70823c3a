package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/PipeManMusic/Talus-Tally-sub000/internal/blueprint"
	"github.com/PipeManMusic/Talus-Tally-sub000/internal/models"
	projectfile "github.com/PipeManMusic/Talus-Tally-sub000/internal/project"
	"github.com/PipeManMusic/Talus-Tally-sub000/internal/velocity"
)

var (
	rankBlueprint string
	rankProject   string
	rankLimit     int
	rankAll       bool
)

// Theme holds the color scheme for ranking output.
type Theme struct {
	Rank    lipgloss.Color
	Type    lipgloss.Color
	Blocked lipgloss.Color
	Hint    lipgloss.Color
}

// defaultTheme provides default colors.
var defaultTheme = Theme{
	Rank:    lipgloss.Color("#5FAFD7"), // light blue
	Type:    lipgloss.Color("#00D787"), // green
	Blocked: lipgloss.Color("#FF005F"), // red
	Hint:    lipgloss.Color("#6C6C6C"), // dim gray
}

func (t Theme) rankStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Rank).Bold(true)
}

func (t Theme) typeStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Type)
}

func (t Theme) blockedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Blocked).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Rank a project's nodes by velocity score",
	Long: `Rank runs a full velocity pass over a project and prints the nodes
sorted by total velocity, highest first.

Nodes whose type has no velocity configuration anywhere are hidden
unless --all is given.

Examples:
  tally rank -b restoration.yaml -p bus.yaml
  tally rank -b restoration.yaml -p bus.yaml --limit 10
  tally rank -b restoration.yaml -p bus.yaml -v`,
	RunE: runRank,
}

func init() {
	rankCmd.Flags().StringVarP(&rankBlueprint, "blueprint", "b", "", "blueprint file (required)")
	rankCmd.Flags().StringVarP(&rankProject, "project", "p", "", "project file (required)")
	rankCmd.Flags().IntVarP(&rankLimit, "limit", "n", 0, "max results (0 = all)")
	rankCmd.Flags().BoolVar(&rankAll, "all", false, "include nodes with no scoring configured")
	_ = rankCmd.MarkFlagRequired("blueprint")
	_ = rankCmd.MarkFlagRequired("project")
}

func runRank(cmd *cobra.Command, args []string) error {
	bp, err := blueprint.Load(resolveBlueprintPath(rankBlueprint))
	if err != nil {
		return err
	}
	p, err := projectfile.Load(rankProject)
	if err != nil {
		return err
	}

	nodes := p.NodeSet()
	ranked := velocity.New(nodes, bp, p.Blocking).Ranking()

	shown := 0
	theme := defaultTheme
	fmt.Printf("Velocity ranking for %s (%d nodes):\n\n", p.Name, nodes.Len())
	for _, r := range ranked {
		if !rankAll && r.Calculation.TotalVelocity < 0 {
			continue
		}
		if rankLimit > 0 && shown >= rankLimit {
			break
		}
		shown++

		node, _ := nodes.Get(r.NodeID)
		printRankedNode(theme, shown, node, bp, r.Calculation)
	}
	if shown == 0 {
		fmt.Println("No scored nodes. Check the blueprint's velocity configuration.")
	}
	return nil
}

func printRankedNode(theme Theme, rank int, node *models.Node, bp *models.Blueprint, calc models.Calculation) {
	name := node.ID
	if raw, ok := node.Property("name"); ok {
		if v, ok := raw.(string); ok && v != "" {
			name = v
		}
	}
	typeName := node.TypeID
	if nt := bp.NodeType(node.TypeID); nt != nil && nt.Name != "" {
		typeName = nt.Name
	}

	line := fmt.Sprintf("%s %-30s %s %8.2f",
		theme.rankStyle().Render(fmt.Sprintf("%3d.", rank)),
		name,
		theme.typeStyle().Render(fmt.Sprintf("[%s]", typeName)),
		calc.TotalVelocity)
	if calc.IsBlocked {
		line += "  " + theme.blockedStyle().Render(fmt.Sprintf("blocked by %v", calc.BlockedByNodes))
	}
	fmt.Println(line)

	if verbose {
		breakdown := fmt.Sprintf("     base %.2f  inherited %.2f  status %.2f  numerical %.2f  bonus %.2f  penalty %.2f",
			calc.BaseScore, calc.InheritedScore, calc.StatusScore,
			calc.NumericalScore, calc.BlockingBonus, calc.BlockingPenalty)
		fmt.Println(defaultTheme.hintStyle().Render(breakdown))
	}
}
