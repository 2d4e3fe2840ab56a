package main

import (
	"context"
	"io"
	"os"

	"github.com/aretw0/charsheet"
	"github.com/aretw0/charsheet/internal/cli"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

type sheetRunner func(ctx context.Context, w io.Writer, host *charsheet.Host, opts cli.SheetOptions) error

// sheetCommand builds a command that opens one sheet file with the --set values applied.
func sheetCommand(use, short, long string, run sheetRunner) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use + " <sheet.json>",
		Short: short,
		Long:  long,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			sets, _ := cmd.Flags().GetStringArray("set")
			host := charsheet.New(charsheet.WithLogger(logger))
			return run(cmd.Context(), cmd.OutOrStdout(), host, cli.SheetOptions{
				SheetPath: args[0],
				PagePath:  cfg.Page,
				Sets:      sets,
			})
		},
	}
	cmd.Flags().StringArrayP("set", "s", nil, "User value assignment name=dice, repeatable")
	return cmd
}

var renderCmd = sheetCommand("render",
	"Bind a sheet to the page and print the resulting HTML",
	`Binds the sheet to the page given by --page (or the config), applies any --set
values as user edits and prints the page.`,
	cli.RunRender)

var setCmd = sheetCommand("set",
	"Apply user values and print the resulting snapshot",
	`Applies each --set name=dice assignment in order and prints the sheet snapshot as JSON.
An empty value unsets the user value.`,
	cli.RunSet)

var requiredCmd = sheetCommand("required",
	"List the user values a sheet still needs",
	`Prints, one per line, the properties the sheet depends on that no feature defines.`,
	cli.RunRequired)

var inspectCmd = sheetCommand("inspect",
	"Describe a sheet in the terminal",
	`Renders the sheet's user values, feature sets and required values as markdown.
Output is styled only when stdout is a terminal.`,
	func(ctx context.Context, w io.Writer, host *charsheet.Host, opts cli.SheetOptions) error {
		return cli.RunInspect(ctx, w, host, opts, inspectOptions)
	})

var inspectOptions cli.InspectOptions

func init() {
	inspectCmd.Flags().BoolVar(&inspectOptions.Mermaid, "mermaid", false, "Include a Mermaid dependency graph")
	inspectCmd.Flags().BoolVar(&inspectOptions.Plain, "plain", false, "Print raw markdown")
	inspectCmd.PreRun = func(cmd *cobra.Command, args []string) {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			inspectOptions.Plain = true
		}
	}

	rootCmd.AddCommand(renderCmd, setCmd, requiredCmd, inspectCmd)
}
