// Package importcmd provides the import command.
package importcmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/open-cli-collective/mdr/internal/document"
	"github.com/open-cli-collective/mdr/pkg/md"
)

type importOptions struct {
	keepMacros bool
	out        string
}

// NewCmdImport creates the import command.
func NewCmdImport() *cobra.Command {
	opts := &importOptions{}

	cmd := &cobra.Command{
		Use:   "import [file|-]",
		Short: "Convert HTML to markdown",
		Long: `Convert an HTML document to markdown.

With --keep-macros, macro expansions written by 'mdr render --source-wrap'
are turned back into <<<key>>> references instead of keeping their text.`,
		Example: `  # Convert a page
  mdr import page.html > page.md

  # Recover macro references from rendered output
  mdr render notes.md --source-wrap | mdr import --keep-macros`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) > 0 {
				path = args[0]
			}
			return runImport(path, opts, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVar(&opts.keepMacros, "keep-macros", false, "Restore macro references from source-wrapped output")
	cmd.Flags().StringVar(&opts.out, "out", "", "Write markdown to this file instead of stdout")

	return cmd
}

func runImport(path string, opts *importOptions, stdin io.Reader, stdout io.Writer) error {
	data, err := document.ReadSource(path, stdin)
	if err != nil {
		return err
	}

	markdown, err := md.FromHTML(string(data), md.ImportOptions{KeepMacros: opts.keepMacros})
	if err != nil {
		return fmt.Errorf("failed to convert HTML: %w", err)
	}

	if opts.out != "" {
		if err := os.WriteFile(opts.out, []byte(markdown+"\n"), 0644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		return nil
	}

	_, err = fmt.Fprintln(stdout, markdown)
	return err
}
