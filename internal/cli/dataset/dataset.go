// Package dataset holds the commands that build and summarize the store
package dataset

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/thenoetrevino/clexbrowser/internal/cli"
	"github.com/thenoetrevino/clexbrowser/internal/cli/styles"
	"github.com/thenoetrevino/clexbrowser/internal/ingest"
)

// IngestCmd returns the ingest command
func IngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Build the store from a clex log file",
		Long: `Parse a clex log file and load its technologies, devices and
definitions into the store. An existing store is reused unless --refresh
is given.

Examples:
  clexbrowser ingest --log output.log
  clexbrowser ingest --log output.log --refresh --json`,
		Args: cobra.NoArgs,
		RunE: runIngest,
	}

	cmd.Flags().String("log", "", "Log file to parse (default: database.log_file)")
	cmd.Flags().Bool("refresh", false, "Rebuild the store even if it exists")
	cli.AddOutputFlags(cmd)

	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	formatter := cli.NewFormatter(cmd)

	cfg, err := cli.ConfigFromContext(ctx)
	if err != nil {
		return err
	}

	logPath, _ := cmd.Flags().GetString("log")
	if logPath == "" {
		logPath = cfg.Database.LogFile
	}
	refresh, _ := cmd.Flags().GetBool("refresh")

	opts := []ingest.Option{ingest.WithLogger(slog.Default())}
	if !formatter.JSON && !formatter.Quiet {
		opts = append(opts, ingest.WithProgress(func(percent int, status string) {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "[%3d%%] %s\n", percent, status)
		}))
	}

	ready, err := ingest.EnsureStore(ctx, logPath, cfg.Database.Path, refresh, opts...)
	if err != nil {
		return formatter.Fail("INGEST_ERROR", err, "check --log points at a clex log file")
	}

	if formatter.JSON {
		return formatter.Success("store", ready)
	}
	if formatter.Quiet {
		_, err := fmt.Fprintln(formatter.Out, ready.Path)
		return err
	}

	if !ready.Built {
		formatter.Printf("%s %s\n", styles.SubtitleStyle.Render("Store already loaded:"), ready.Path)
		return nil
	}
	s := ready.Summary
	formatter.Printf("%s\n", styles.SuccessStyle.Render("Store built: "+ready.Path))
	formatter.Printf("  %s\n", styles.Field("Technologies", fmt.Sprint(s.Technologies)))
	formatter.Printf("  %s\n", styles.Field("Devices", fmt.Sprint(s.Devices)))
	formatter.Printf("  %s\n", styles.Field("Definitions", fmt.Sprint(s.Definitions)))
	if s.Skipped > 0 {
		formatter.Printf("  %s\n", styles.Field("Skipped", fmt.Sprint(s.Skipped)))
	}
	return nil
}
