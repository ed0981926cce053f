package dataset

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/thenoetrevino/clexbrowser/internal/cli"
	"github.com/thenoetrevino/clexbrowser/internal/cli/styles"
	"github.com/thenoetrevino/clexbrowser/internal/tasks"
)

// StatsCmd returns the stats command
func StatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show per-technology device and definition counts",
		Args:  cobra.NoArgs,
		RunE:  runStats,
	}
	cli.AddOutputFlags(cmd)
	return cmd
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	formatter := cli.NewFormatter(cmd)

	cliInstance, err := cli.FromCommand(ctx)
	if err != nil {
		return formatter.Fail("INITIALIZATION_ERROR", err, "run 'clexbrowser ingest' first")
	}
	defer func() {
		if err := cliInstance.Close(); err != nil {
			slog.Warn("failed to close store", "error", err)
		}
	}()

	result, err := cli.RunTask(ctx, cliInstance.Config, tasks.LoadStatistics(cliInstance.Store), nil)
	if err != nil {
		return formatter.Fail("STATS_ERROR", err, "")
	}
	summaries := result.([]tasks.TechnologySummary)

	if formatter.JSON {
		return formatter.Success("technologies", summaries)
	}
	if formatter.Quiet {
		for _, s := range summaries {
			_, _ = fmt.Fprintln(formatter.Out, s.Technology.Name)
		}
		return nil
	}

	if len(summaries) == 0 {
		formatter.Printf("No technologies found\n")
		return nil
	}

	formatter.Printf("%s\n\n", styles.TitleStyle.Render(fmt.Sprintf("Found %d technologies:", len(summaries))))
	formatter.Printf("  %-16s %-10s %8s %8s %9s\n", "TECHNOLOGY", "VERSION", "DEVICES", "DEFINED", "COVERAGE")
	for _, s := range summaries {
		formatter.Printf("  %-16s %-10s %8d %8d %8.1f%%\n",
			s.Technology.Name, s.Technology.Version,
			s.Stats.TotalDevices, s.Stats.DevicesWithDefinition, s.Stats.Coverage())
	}
	return nil
}
