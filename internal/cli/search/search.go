// Package search holds the search command
package search

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/thenoetrevino/clexbrowser/internal/cli"
	"github.com/thenoetrevino/clexbrowser/internal/cli/styles"
	"github.com/thenoetrevino/clexbrowser/internal/models"
	"github.com/thenoetrevino/clexbrowser/internal/tasks"
)

// SearchCmd returns the search command
func SearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search TEXT",
		Short: "Search device names and definitions",
		Long: `Search device names and definition text across every technology.
Both are searched unless --devices or --definitions narrows it.

Examples:
  clexbrowser search nch
  clexbrowser search "expr=vth" --definitions --case-sensitive`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return cli.Usagef("search takes exactly one TEXT argument, got %d", len(args))
			}
			return nil
		},
		RunE: runSearch,
	}

	cmd.Flags().Bool("case-sensitive", false, "Match case exactly")
	cmd.Flags().Bool("devices", false, "Search device names only")
	cmd.Flags().Bool("definitions", false, "Search definition text only")
	cli.AddOutputFlags(cmd)

	return cmd
}

// queryFromFlags builds the search query; neither scope flag means both
func queryFromFlags(cmd *cobra.Command, text string) models.SearchQuery {
	caseSensitive, _ := cmd.Flags().GetBool("case-sensitive")
	devices, _ := cmd.Flags().GetBool("devices")
	definitions, _ := cmd.Flags().GetBool("definitions")
	if !devices && !definitions {
		devices, definitions = true, true
	}
	return models.SearchQuery{
		Text:          text,
		CaseSensitive: caseSensitive,
		Devices:       devices,
		Definitions:   definitions,
	}
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	formatter := cli.NewFormatter(cmd)
	query := queryFromFlags(cmd, args[0])

	cliInstance, err := cli.FromCommand(ctx)
	if err != nil {
		return formatter.Fail("INITIALIZATION_ERROR", err, "run 'clexbrowser ingest' first")
	}
	defer func() {
		if err := cliInstance.Close(); err != nil {
			slog.Warn("failed to close store", "error", err)
		}
	}()

	result, err := cli.RunTask(ctx, cliInstance.Config, tasks.Search(cliInstance.Store, query), nil)
	if err != nil {
		return formatter.Fail("SEARCH_ERROR", err, "")
	}
	payload := result.(tasks.SearchPayload)

	if formatter.JSON {
		return formatter.Success("hits", payload.Hits)
	}
	if formatter.Quiet {
		for _, hit := range payload.Hits {
			_, _ = fmt.Fprintf(formatter.Out, "%s/%s\n", hit.TechnologyName, hit.DeviceName)
		}
		return nil
	}

	if len(payload.Hits) == 0 {
		formatter.Printf("No matches for %q\n", query.Text)
		return nil
	}

	formatter.Printf("%s\n\n", styles.TitleStyle.Render(fmt.Sprintf("Found %d matches:", len(payload.Hits))))
	for _, hit := range payload.Hits {
		formatter.Printf("  %s/%s", hit.TechnologyName, hit.DeviceName)
		if hit.Kind == models.MatchDefinition {
			formatter.Printf("  %s", styles.SubtitleStyle.Render(hit.Context))
		}
		formatter.Printf("\n")
	}
	return nil
}
