// Package cmd assembles the clexbrowser command tree
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/thenoetrevino/clexbrowser/internal/cli"
	"github.com/thenoetrevino/clexbrowser/internal/cli/browse"
	"github.com/thenoetrevino/clexbrowser/internal/cli/dataset"
	"github.com/thenoetrevino/clexbrowser/internal/cli/device"
	"github.com/thenoetrevino/clexbrowser/internal/cli/search"
	"github.com/thenoetrevino/clexbrowser/internal/cli/setup"
	"github.com/thenoetrevino/clexbrowser/internal/cli/styles"
	"github.com/thenoetrevino/clexbrowser/internal/config"
	"github.com/thenoetrevino/clexbrowser/internal/logging"
)

// rootCommand pairs the command tree with the log file its last run opened.
// cobra skips PersistentPostRunE when RunE fails, so Execute closes the log
// through closeLog as well.
type rootCommand struct {
	cmd       *cobra.Command
	logCloser io.Closer
}

func (r *rootCommand) closeLog() error {
	if r.logCloser == nil {
		return nil
	}
	err := r.logCloser.Close()
	r.logCloser = nil
	return err
}

// NewRootCmd builds the command tree. Every subcommand runs with the
// configuration loaded and logging initialized.
func NewRootCmd() *cobra.Command {
	return newRootCommand().cmd
}

func newRootCommand() *rootCommand {
	var (
		configFile string
		dbPath     string
		verbose    bool
	)
	root := &rootCommand{}

	rootCmd := &cobra.Command{
		Use:   "clexbrowser",
		Short: "clexbrowser - browse clex assertion definitions",
		Long: `clexbrowser loads the technologies, devices and assertion
definitions found in a clex log file into a local store and lets you
browse, search and edit them.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configFile)
			if err != nil {
				return &cli.ValidationError{Err: err}
			}
			if dbPath != "" {
				cfg.Database.Path = dbPath
			}

			var console io.Writer
			if verbose {
				console = cmd.ErrOrStderr()
				cfg.Log.Level = "debug"
			}
			root.logCloser, err = logging.Init(logging.Options{
				Path:       cfg.Log.Path,
				Level:      cfg.Log.Level,
				MaxSizeMB:  cfg.Log.MaxSizeMB,
				MaxBackups: cfg.Log.MaxBackups,
				MaxAgeDays: cfg.Log.MaxAgeDays,
				Console:    console,
			})
			if err != nil {
				return err
			}

			styles.Init(cfg.Theme)
			cmd.SetContext(cli.WithConfig(cmd.Context(), cfg))
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return root.closeLog()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default: $XDG_CONFIG_HOME/clexbrowser/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Store path, overrides database.path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output to stderr")

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &cli.UsageError{Err: err}
	})

	rootCmd.AddCommand(browse.BrowseCmd())
	rootCmd.AddCommand(dataset.IngestCmd())
	rootCmd.AddCommand(dataset.StatsCmd())
	rootCmd.AddCommand(search.SearchCmd())
	rootCmd.AddCommand(device.DeviceCmd())
	rootCmd.AddCommand(setup.ConfigCmd())

	root.cmd = rootCmd
	return root
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

// Execute runs the command tree and returns the process exit code
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	root := newRootCommand()
	err := root.cmd.ExecuteContext(ctx)
	if cerr := root.closeLog(); cerr != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to close log: %v\n", cerr)
	}

	var reported *cli.ReportedError
	if err != nil && !errors.As(err, &reported) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return cli.ExitCode(err)
}
