// Package device holds the commands that inspect and edit single devices
package device

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/thenoetrevino/clexbrowser/internal/cli"
	"github.com/thenoetrevino/clexbrowser/internal/database"
	"github.com/thenoetrevino/clexbrowser/internal/models"
)

// DeviceCmd returns the device parent command
func DeviceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "device",
		Short: "Inspect devices and their definitions",
	}

	cmd.AddCommand(ListCmd())
	cmd.AddCommand(ShowCmd())
	cmd.AddCommand(AddCmd())
	cmd.AddCommand(EditCmd())
	cmd.AddCommand(CreateCmd())
	cmd.AddCommand(ClearCmd())

	return cmd
}

// techFlag reads the required --tech flag
func techFlag(cmd *cobra.Command) (string, error) {
	tech, _ := cmd.Flags().GetString("tech")
	if tech == "" {
		return "", cli.Usagef("--tech is required")
	}
	return tech, nil
}

func exactlyOneDevice(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return cli.Usagef("%s takes exactly one DEVICE argument, got %d", cmd.Name(), len(args))
	}
	return nil
}

// findDevice resolves a device by technology and device name
func findDevice(ctx context.Context, store database.DataStore, techName, deviceName string) (*models.Device, error) {
	tech, err := store.GetTechnologyByName(ctx, techName)
	if err != nil {
		return nil, err
	}
	devices, err := store.ListDevices(ctx, tech.ID)
	if err != nil {
		return nil, err
	}
	for _, d := range devices {
		if d.Name == deviceName {
			return d, nil
		}
	}
	return nil, fmt.Errorf("device %q in %s: %w", deviceName, techName, models.ErrNotFound)
}

// withCLI opens the store for the duration of fn, reporting setup failures
// through the formatter
func withCLI(cmd *cobra.Command, formatter *cli.OutputFormatter, fn func(*cli.CLI) error) error {
	cliInstance, err := cli.FromCommand(cmd.Context())
	if err != nil {
		return formatter.Fail("INITIALIZATION_ERROR", err, "run 'clexbrowser ingest' first")
	}
	defer func() {
		if err := cliInstance.Close(); err != nil {
			slog.Warn("failed to close store", "error", err)
		}
	}()
	return fn(cliInstance)
}

func reportError(formatter *cli.OutputFormatter, code string, err error) error {
	return formatter.Fail(code, err, "")
}
