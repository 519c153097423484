// Package root provides the root command for the mdr CLI.
package root

import (
	"github.com/spf13/cobra"

	"github.com/open-cli-collective/mdr/internal/cmd/completion"
	"github.com/open-cli-collective/mdr/internal/cmd/configcmd"
	"github.com/open-cli-collective/mdr/internal/cmd/importcmd"
	initcmd "github.com/open-cli-collective/mdr/internal/cmd/init"
	"github.com/open-cli-collective/mdr/internal/cmd/macros"
	"github.com/open-cli-collective/mdr/internal/cmd/render"
	"github.com/open-cli-collective/mdr/internal/logging"
	"github.com/open-cli-collective/mdr/internal/version"
)

// NewCmdRoot creates the root command for mdr.
func NewCmdRoot() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mdr",
		Short: "Render markdown with macros to HTML",
		Long: `mdr renders markdown documents to HTML.

Documents can define macros once and reference them anywhere:

  >>>signature
  *The docs team*
  <<<

  Thanks, <<<signature>>>

Get started by running: mdr init`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version.Version,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			verbosity, _ := cmd.Flags().GetCount("verbose")
			noColor, _ := cmd.Flags().GetBool("no-color")
			logging.SetupLogger(verbosity, noColor)
		},
	}

	// Global flags
	cmd.PersistentFlags().StringP("config", "c", "", "config file (default: ~/.config/mdr/config.yml)")
	cmd.PersistentFlags().StringP("output", "o", "", "output format: table, json, plain (default: table)")
	cmd.PersistentFlags().Bool("no-color", false, "disable colored output")
	cmd.PersistentFlags().CountP("verbose", "v", "increase log verbosity (-v info, -vv debug, -vvv trace)")

	// Set version template
	cmd.SetVersionTemplate("mdr version " + version.String() + "\n")

	// Subcommands
	cmd.AddCommand(initcmd.NewCmdInit())
	cmd.AddCommand(render.NewCmdRender())
	cmd.AddCommand(macros.NewCmdMacros())
	cmd.AddCommand(importcmd.NewCmdImport())
	cmd.AddCommand(configcmd.NewCmdConfig())
	cmd.AddCommand(completion.NewCmdCompletion())

	return cmd
}
