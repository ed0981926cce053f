package device

import (
	"github.com/spf13/cobra"

	"github.com/thenoetrevino/clexbrowser/internal/cli"
	"github.com/thenoetrevino/clexbrowser/internal/commands"
)

// ClearCmd returns the device clear subcommand
func ClearCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear DEVICE",
		Short: "Delete a device's definition",
		Args:  exactlyOneDevice,
		RunE:  runClear,
	}

	cmd.Flags().String("tech", "", "Technology name (required)")
	cli.AddOutputFlags(cmd)

	return cmd
}

func runClear(cmd *cobra.Command, args []string) error {
	techName, err := techFlag(cmd)
	if err != nil {
		return err
	}
	formatter := cli.NewFormatter(cmd)
	ctx := cmd.Context()

	return withCLI(cmd, formatter, func(c *cli.CLI) error {
		dev, err := findDevice(ctx, c.Store, techName, args[0])
		if err != nil {
			return reportError(formatter, "DEVICE_NOT_FOUND", err)
		}

		deleteCmd, err := commands.DeleteDefinition(ctx, c.Store, dev.ID)
		if err != nil {
			return reportError(formatter, "DEFINITION_DELETE_ERROR", err)
		}
		return applyCommand(cmd, formatter, deleteCmd, "deleted", "DEFINITION_DELETE_ERROR")
	})
}
