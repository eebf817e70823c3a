package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/PipeManMusic/Talus-Tally-sub000/internal/client"
)

var (
	watchURL string
	watchTop int
)

var watchCmd = &cobra.Command{
	Use:   "watch <session-id>",
	Short: "Follow a session's velocity ranking live",
	Long: `Watch connects to a running tally-server, prints the session's
current ranking, and re-prints the top of the ranking every time a
blocking edit changes it. Ctrl+C stops watching.

Examples:
  tally watch 3f2a1b
  tally watch 3f2a1b --url http://tally.local:8787 --top 10`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchURL, "url", "", "server URL (default TALUS_SERVER_URL or localhost:8787)")
	watchCmd.Flags().IntVar(&watchTop, "top", 5, "how many nodes to show per refresh")

	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	sessionID := args[0]
	c := client.New(watchURL)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	if err := printTopRanking(ctx, c, sessionID); err != nil {
		return err
	}

	events, err := c.Watch(ctx, sessionID)
	if err != nil {
		return err
	}
	fmt.Println(defaultTheme.hintStyle().Render("Watching for changes. Ctrl+C to stop."))

	for ev := range events {
		switch ev.Event {
		case "node-updated":
			fmt.Printf("\n%s changed:\n", ev.NodeID)
		case "velocity-invalidated":
			fmt.Println("\nBlocking edit undone:")
		default:
			continue
		}
		if err := printTopRanking(ctx, c, sessionID); err != nil {
			return err
		}
	}
	return nil
}

func printTopRanking(ctx context.Context, c *client.Client, sessionID string) error {
	result, err := c.Ranking(ctx, sessionID)
	if err != nil {
		return err
	}

	theme := defaultTheme
	limit := min(watchTop, len(result.Nodes))
	for i := range limit {
		n := result.Nodes[i]
		line := fmt.Sprintf("%s %-30s %s %8.2f",
			theme.rankStyle().Render(fmt.Sprintf("%3d.", i+1)),
			n.NodeName,
			theme.typeStyle().Render(fmt.Sprintf("[%s]", n.NodeType)),
			n.TotalVelocity)
		if n.IsBlocked {
			line += "  " + theme.blockedStyle().Render("blocked")
		}
		fmt.Println(line)
	}
	return nil
}
