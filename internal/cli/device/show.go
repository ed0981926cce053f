package device

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thenoetrevino/clexbrowser/internal/cli"
	"github.com/thenoetrevino/clexbrowser/internal/cli/styles"
	"github.com/thenoetrevino/clexbrowser/internal/tasks"
)

// ShowCmd returns the device show subcommand
func ShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show DEVICE",
		Short: "Show a device's definition",
		Args:  exactlyOneDevice,
		RunE:  runShow,
	}

	cmd.Flags().String("tech", "", "Technology name (required)")
	cli.AddOutputFlags(cmd)

	return cmd
}

func runShow(cmd *cobra.Command, args []string) error {
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

		result, err := cli.RunTask(ctx, c.Config, tasks.LoadDefinition(c.Store, dev.ID), nil)
		if err != nil {
			return reportError(formatter, "DEFINITION_FETCH_ERROR", err)
		}
		view := result.(tasks.DefinitionView)

		if formatter.JSON {
			return formatter.Success("definition", view)
		}
		if !view.Found {
			formatter.Printf("%s has no definition\n", dev.Name)
			return nil
		}
		if formatter.Quiet {
			_, err := fmt.Fprintln(formatter.Out, view.Body)
			return err
		}

		formatter.Printf("%s\n", styles.RenderCard(styles.TitleStyle.Render(view.Header)+"\n\n"+view.Body))
		return nil
	})
}
