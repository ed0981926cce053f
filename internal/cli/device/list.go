package device

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thenoetrevino/clexbrowser/internal/cli"
	"github.com/thenoetrevino/clexbrowser/internal/cli/styles"
	"github.com/thenoetrevino/clexbrowser/internal/tasks"
)

// ListCmd returns the device list subcommand
func ListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the devices of a technology",
		Args:  cobra.NoArgs,
		RunE:  runList,
	}

	cmd.Flags().String("tech", "", "Technology name (required)")
	cmd.Flags().Bool("with-definition", false, "Only devices that have a definition")
	cli.AddOutputFlags(cmd)

	return cmd
}

func runList(cmd *cobra.Command, args []string) error {
	techName, err := techFlag(cmd)
	if err != nil {
		return err
	}
	withDefinition, _ := cmd.Flags().GetBool("with-definition")
	formatter := cli.NewFormatter(cmd)
	ctx := cmd.Context()

	return withCLI(cmd, formatter, func(c *cli.CLI) error {
		tech, err := c.Store.GetTechnologyByName(ctx, techName)
		if err != nil {
			return reportError(formatter, "TECHNOLOGY_NOT_FOUND", err)
		}

		result, err := cli.RunTask(ctx, c.Config, tasks.LoadDevices(c.Store, tech.ID, withDefinition), nil)
		if err != nil {
			return reportError(formatter, "DEVICE_FETCH_ERROR", err)
		}
		payload := result.(tasks.DevicesPayload)

		if formatter.JSON {
			return formatter.Success("devices", payload.Devices)
		}
		if formatter.Quiet {
			for _, d := range payload.Devices {
				_, _ = fmt.Fprintln(formatter.Out, d.Name)
			}
			return nil
		}

		if len(payload.Devices) == 0 {
			formatter.Printf("No devices found\n")
			return nil
		}
		formatter.Printf("%s\n\n", styles.TitleStyle.Render(fmt.Sprintf("Found %d devices in %s:", len(payload.Devices), tech.Name)))
		for _, d := range payload.Devices {
			mark := " "
			if d.HasDefinition {
				mark = "*"
			}
			formatter.Printf("  %s %s\n", mark, d.Name)
		}
		return nil
	})
}
