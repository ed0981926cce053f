package device

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/thenoetrevino/clexbrowser/internal/cli"
	"github.com/thenoetrevino/clexbrowser/internal/commands"
	"github.com/thenoetrevino/clexbrowser/internal/history"
	"github.com/thenoetrevino/clexbrowser/internal/models"
)

// AddCmd returns the device add subcommand
func AddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add DEVICE",
		Short: "Add a definition to a device that has none",
		Long: `Add a definition to a device that has none.

The definition text comes from --text or from --from FILE ("-" reads stdin).`,
		Args: exactlyOneDevice,
		RunE: runAdd,
	}

	cmd.Flags().String("tech", "", "Technology name (required)")
	addDefinitionFlags(cmd)
	cli.AddOutputFlags(cmd)

	return cmd
}

// EditCmd returns the device edit subcommand
func EditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit DEVICE",
		Short: "Replace fields of a device's definition",
		Long: `Replace fields of a device's definition.

Only the flags given are changed; the rest keep their current value.`,
		Args: exactlyOneDevice,
		RunE: runEdit,
	}

	cmd.Flags().String("tech", "", "Technology name (required)")
	addDefinitionFlags(cmd)
	cli.AddOutputFlags(cmd)

	return cmd
}

// CreateCmd returns the device create subcommand
func CreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create DEVICE",
		Short: "Create a device, optionally with a definition",
		Args:  exactlyOneDevice,
		RunE:  runCreate,
	}

	cmd.Flags().String("tech", "", "Technology name (required)")
	addDefinitionFlags(cmd)
	cli.AddOutputFlags(cmd)

	return cmd
}

func addDefinitionFlags(cmd *cobra.Command) {
	cmd.Flags().String("folder", "", "Folder path of the definition")
	cmd.Flags().String("file", "", "File name of the definition")
	cmd.Flags().String("text", "", "Definition text")
	cmd.Flags().String("from", "", "Read the definition text from FILE (\"-\" for stdin)")
	cmd.MarkFlagsMutuallyExclusive("text", "from")
}

// definitionInput overlays the definition flags that were set onto base
// and reports whether any were
func definitionInput(cmd *cobra.Command, base models.Definition) (*models.Definition, bool, error) {
	def := base
	flags := cmd.Flags()
	changed := false

	if flags.Changed("folder") {
		def.FolderPath, _ = flags.GetString("folder")
		changed = true
	}
	if flags.Changed("file") {
		def.FileName, _ = flags.GetString("file")
		changed = true
	}
	switch {
	case flags.Changed("text"):
		def.Text, _ = flags.GetString("text")
		changed = true
	case flags.Changed("from"):
		path, _ := flags.GetString("from")
		text, err := readText(cmd, path)
		if err != nil {
			return nil, false, err
		}
		def.Text = text
		changed = true
	}

	def.FolderPath = strings.TrimSpace(def.FolderPath)
	def.FileName = strings.TrimSpace(def.FileName)
	def.Text = strings.TrimSpace(def.Text)
	if changed && def.Text == "" {
		return nil, false, cli.Usagef("definition text must not be empty")
	}
	return &def, changed, nil
}

func readText(cmd *cobra.Command, path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read definition text: %w", err)
	}
	return string(data), nil
}

func runAdd(cmd *cobra.Command, args []string) error {
	techName, err := techFlag(cmd)
	if err != nil {
		return err
	}
	def, changed, err := definitionInput(cmd, models.Definition{})
	if err != nil {
		return err
	}
	if !changed {
		return cli.Usagef("add needs the definition text: pass --text or --from")
	}
	formatter := cli.NewFormatter(cmd)
	ctx := cmd.Context()

	return withCLI(cmd, formatter, func(c *cli.CLI) error {
		dev, err := findDevice(ctx, c.Store, techName, args[0])
		if err != nil {
			return reportError(formatter, "DEVICE_NOT_FOUND", err)
		}

		addCmd, err := commands.AddDefinition(ctx, c.Store, dev.ID, def)
		if err != nil {
			return reportError(formatter, "DEFINITION_ADD_ERROR", err)
		}
		return applyCommand(cmd, formatter, addCmd, "added", "DEFINITION_ADD_ERROR")
	})
}

func runEdit(cmd *cobra.Command, args []string) error {
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
		current, err := c.Store.GetDefinition(ctx, dev.ID)
		if err != nil {
			return reportError(formatter, "DEFINITION_EDIT_ERROR", err)
		}
		if current == nil {
			return reportError(formatter, "DEFINITION_EDIT_ERROR",
				fmt.Errorf("device %s: %w", dev.Name, models.ErrNoDefinition))
		}

		def, changed, err := definitionInput(cmd, *current)
		if err != nil {
			return err
		}
		if !changed || def.Equal(current) {
			if formatter.JSON {
				return formatter.Success("edited", nil)
			}
			formatter.Printf("No changes to %s\n", dev.Name)
			return nil
		}

		editCmd, err := commands.EditDefinition(ctx, c.Store, dev.ID, def)
		if err != nil {
			return reportError(formatter, "DEFINITION_EDIT_ERROR", err)
		}
		return applyCommand(cmd, formatter, editCmd, "edited", "DEFINITION_EDIT_ERROR")
	})
}

func runCreate(cmd *cobra.Command, args []string) error {
	techName, err := techFlag(cmd)
	if err != nil {
		return err
	}
	name := strings.TrimSpace(args[0])
	if name == "" {
		return cli.Usagef("device name must not be empty")
	}
	def, changed, err := definitionInput(cmd, models.Definition{})
	if err != nil {
		return err
	}
	if !changed {
		def = nil
	}
	formatter := cli.NewFormatter(cmd)
	ctx := cmd.Context()

	return withCLI(cmd, formatter, func(c *cli.CLI) error {
		tech, err := c.Store.GetTechnologyByName(ctx, techName)
		if err != nil {
			return reportError(formatter, "TECHNOLOGY_NOT_FOUND", err)
		}

		createCmd, err := commands.CreateDevice(ctx, c.Store, tech.ID, name, def)
		if err != nil {
			return reportError(formatter, "DEVICE_CREATE_ERROR", err)
		}
		return applyCommand(cmd, formatter, createCmd, "created", "DEVICE_CREATE_ERROR")
	})
}

// applyCommand runs a built edit once and reports its label
func applyCommand(cmd *cobra.Command, formatter *cli.OutputFormatter, c *history.Command, key, code string) error {
	if err := c.Apply(cmd.Context()); err != nil {
		return reportError(formatter, code, err)
	}
	if formatter.JSON {
		return formatter.Success(key, c.Label)
	}
	formatter.Printf("%s\n", c.Label)
	return nil
}
