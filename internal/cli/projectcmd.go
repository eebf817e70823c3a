package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	projectfile "github.com/PipeManMusic/Talus-Tally-sub000/internal/project"
)

var projectOut string

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Save, load, and list projects in the database",
	Long: `Project commands persist project files to SurrealDB and pull them
back out, keyed by project name.

Examples:
  tally project save bus.yaml
  tally project load bus-restoration -o bus.yaml
  tally project list
  tally project delete bus-restoration`,
}

var projectSaveCmd = &cobra.Command{
	Use:   "save <project-file>",
	Short: "Save a project file to the database",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectSave,
}

var projectLoadCmd = &cobra.Command{
	Use:   "load <name>",
	Short: "Load a project from the database into a file",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectLoad,
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved projects",
	RunE:  runProjectList,
}

var projectDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a saved project",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectDelete,
}

func init() {
	projectLoadCmd.Flags().StringVarP(&projectOut, "out", "o", "", "output file (default <name>.yaml)")

	projectCmd.AddCommand(projectSaveCmd)
	projectCmd.AddCommand(projectLoadCmd)
	projectCmd.AddCommand(projectListCmd)
	projectCmd.AddCommand(projectDeleteCmd)
}

func storeCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

func runProjectSave(cmd *cobra.Command, args []string) error {
	p, err := projectfile.Load(args[0])
	if err != nil {
		return err
	}
	if p.Name == "" {
		return fmt.Errorf("project file %s has no name", args[0])
	}

	ctx, cancel := storeCtx()
	defer cancel()

	client, err := connectStore(ctx)
	if err != nil {
		return err
	}
	if err := client.SaveProject(ctx, p); err != nil {
		return err
	}

	fmt.Printf("Saved project %q (%d nodes).\n", p.Name, len(p.Nodes))
	return nil
}

func runProjectLoad(cmd *cobra.Command, args []string) error {
	ctx, cancel := storeCtx()
	defer cancel()

	client, err := connectStore(ctx)
	if err != nil {
		return err
	}
	p, err := client.LoadProject(ctx, args[0])
	if err != nil {
		return err
	}

	out := projectOut
	if out == "" {
		out = args[0] + ".yaml"
	}
	if err := projectfile.Save(out, p); err != nil {
		return err
	}

	fmt.Printf("Wrote project %q to %s (%d nodes).\n", p.Name, out, len(p.Nodes))
	return nil
}

func runProjectList(cmd *cobra.Command, args []string) error {
	ctx, cancel := storeCtx()
	defer cancel()

	client, err := connectStore(ctx)
	if err != nil {
		return err
	}
	infos, err := client.ListProjects(ctx)
	if err != nil {
		return err
	}

	if len(infos) == 0 {
		fmt.Println("No saved projects.")
		return nil
	}

	fmt.Printf("Projects (%d):\n\n", len(infos))
	for _, info := range infos {
		fmt.Printf("- %s [%s] %d nodes, saved %s\n",
			info.Name, info.Blueprint, info.Nodes, info.Saved.Format(time.RFC3339))
	}
	return nil
}

func runProjectDelete(cmd *cobra.Command, args []string) error {
	ctx, cancel := storeCtx()
	defer cancel()

	client, err := connectStore(ctx)
	if err != nil {
		return err
	}
	if err := client.DeleteProject(ctx, args[0]); err != nil {
		return err
	}

	fmt.Printf("Deleted project %q.\n", args[0])
	return nil
}
