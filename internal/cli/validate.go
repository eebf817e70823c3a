package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/PipeManMusic/Talus-Tally-sub000/internal/blueprint"
)

var validateCmd = &cobra.Command{
	Use:   "validate <blueprint.yaml>",
	Short: "Validate a blueprint file",
	Long: `Validate checks a blueprint for structural problems: missing IDs,
unknown score modes, status rules without score maps, multiplier rules
on non-numeric properties.

Examples:
  tally validate restoration.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	bp, err := blueprint.Load(resolveBlueprintPath(args[0]))
	if err != nil {
		var verr *blueprint.ValidationError
		if errors.As(err, &verr) {
			fmt.Printf("Blueprint %s has %d problem(s):\n\n", args[0], len(verr.Problems))
			for _, problem := range verr.Problems {
				fmt.Printf("  - %s\n", problem)
			}
			return fmt.Errorf("validation failed")
		}
		return err
	}

	scored := 0
	for i := range bp.NodeTypes {
		if bp.NodeTypes[i].HasVelocityConfig() {
			scored++
		}
	}
	fmt.Printf("Blueprint %q is valid: %d node types, %d with velocity configuration.\n",
		bp.ID, len(bp.NodeTypes), scored)
	return nil
}
