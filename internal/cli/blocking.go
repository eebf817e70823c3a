package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/PipeManMusic/Talus-Tally-sub000/internal/commands"
	projectfile "github.com/PipeManMusic/Talus-Tally-sub000/internal/project"
)

var blockingProject string

var blockingCmd = &cobra.Command{
	Use:   "blocking",
	Short: "Edit blocking relationships in a project file",
	Long: `Blocking marks one node as blocked by another. A blocked node scores
zero until unblocked; its blocker picks up the blocked work's value as
a bonus.

Each node has at most one blocker; setting a new one replaces it.

Examples:
  tally blocking set carb engine -p bus.yaml
  tally blocking clear carb -p bus.yaml`,
}

var blockingSetCmd = &cobra.Command{
	Use:   "set <blocked-node> <blocking-node>",
	Short: "Set or replace a node's blocker",
	Args:  cobra.ExactArgs(2),
	RunE:  runBlockingSet,
}

var blockingClearCmd = &cobra.Command{
	Use:   "clear <blocked-node>",
	Short: "Clear a node's blocker",
	Args:  cobra.ExactArgs(1),
	RunE:  runBlockingClear,
}

func init() {
	blockingCmd.PersistentFlags().StringVarP(&blockingProject, "project", "p", "", "project file (required)")
	_ = blockingCmd.MarkPersistentFlagRequired("project")

	blockingCmd.AddCommand(blockingSetCmd)
	blockingCmd.AddCommand(blockingClearCmd)
}

func runBlockingSet(cmd *cobra.Command, args []string) error {
	return updateBlocking(args[0], args[1])
}

func runBlockingClear(cmd *cobra.Command, args []string) error {
	return updateBlocking(args[0], "")
}

func updateBlocking(blockedID, blockerID string) error {
	p, err := projectfile.Load(blockingProject)
	if err != nil {
		return err
	}

	nodes := p.NodeSet()
	if _, ok := nodes.Get(blockedID); !ok {
		return fmt.Errorf("unknown node %q", blockedID)
	}
	if blockerID != "" {
		if _, ok := nodes.Get(blockerID); !ok {
			return fmt.Errorf("unknown node %q", blockerID)
		}
	}

	update := commands.NewUpdateBlockingRelationship(&p.Blocking, blockedID, blockerID)
	if err := update.Execute(); err != nil {
		return fmt.Errorf("update blocking: %w", err)
	}
	if err := projectfile.Save(blockingProject, p); err != nil {
		return err
	}

	if blockerID == "" {
		fmt.Printf("Cleared blocker of %s.\n", blockedID)
	} else {
		fmt.Printf("%s is now blocked by %s.\n", blockedID, blockerID)
	}

	if len(p.Blocking) > 0 {
		fmt.Printf("\nBlocking relationships (%d):\n", len(p.Blocking))
		for _, rel := range p.Blocking {
			fmt.Printf("  - %s blocked by %s\n", rel.BlockedNodeID, rel.BlockingNodeID)
		}
	}
	return nil
}
