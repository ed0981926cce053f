// Package browse holds the browse command, which runs the terminal browser
package browse

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/thenoetrevino/clexbrowser/internal/app"
	"github.com/thenoetrevino/clexbrowser/internal/cli"
	"github.com/thenoetrevino/clexbrowser/internal/ingest"
	"github.com/thenoetrevino/clexbrowser/internal/tui"
)

// BrowseCmd returns the browse command
func BrowseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse technologies, devices and definitions",
		Long: `Open the terminal browser. The store is built from the log file
first if it does not exist yet, or if --refresh is given.`,
		Args: cobra.NoArgs,
		RunE: runBrowse,
	}

	cmd.Flags().String("log", "", "Log file to build the store from (default: database.log_file)")
	cmd.Flags().Bool("refresh", false, "Rebuild the store before browsing")

	return cmd
}

func runBrowse(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := cli.ConfigFromContext(ctx)
	if err != nil {
		return err
	}

	logPath, _ := cmd.Flags().GetString("log")
	if logPath == "" {
		logPath = cfg.Database.LogFile
	}
	cfg.Database.LogFile = logPath
	refresh, _ := cmd.Flags().GetBool("refresh")

	ready, err := ingest.EnsureStore(ctx, logPath, cfg.Database.Path, refresh,
		ingest.WithLogger(slog.Default()),
		ingest.WithProgress(func(percent int, status string) {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "[%3d%%] %s\n", percent, status)
		}))
	if err != nil {
		return err
	}
	if ready.Built {
		slog.Info("store built", "path", ready.Path, "technologies", ready.Summary.Technologies)
	}

	application, err := app.New(ctx, cfg, app.WithLogger(slog.Default()))
	if err != nil {
		return err
	}

	uiCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := tui.New(uiCtx, tui.Deps{
		Coordinator: application.Coordinator,
		Store:       application.Store,
		History:     application.History,
		Ingester:    application.Ingester,
		LogFile:     cfg.Database.LogFile,
		Keys:        cfg.KeyMappings,
		Theme:       cfg.Theme,
	})

	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(uiCtx))
	_, runErr := program.Run()
	cancel()
	if errors.Is(runErr, tea.ErrProgramKilled) {
		runErr = nil
	}

	closeCtx, closeCancel := context.WithTimeout(context.Background(), cfg.Worker.ShutdownTimeout)
	defer closeCancel()
	return errors.Join(runErr, application.Close(closeCtx))
}
