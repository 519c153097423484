package configcmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/open-cli-collective/mdr/internal/config"
	"github.com/open-cli-collective/mdr/internal/document"
	"github.com/open-cli-collective/mdr/internal/view"
)

// sample exercises the parser, the dispatcher and the macro extension.
const sample = `# Check

>>>greeting
Hello *world*
<<<

<<<greeting>>>
`

// NewCmdTest creates the config test command.
func NewCmdTest() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test",
		Short: "Validate the configuration and render a sample",
		Long: `Check every setting and render a small document with macros using the
current configuration.`,
		Example: `  # Test configuration
  mdr config test`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			noColor, _ := cmd.Flags().GetBool("no-color")
			return runTest(configPathFrom(cmd), noColor, cmd.OutOrStdout())
		},
	}

	return cmd
}

func runTest(configPath string, noColor bool, w io.Writer, cfgs ...*config.Config) error {
	var cfg *config.Config
	if len(cfgs) > 0 && cfgs[0] != nil {
		cfg = cfgs[0]
	} else {
		var err error
		cfg, err = config.LoadWithEnv(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w (run 'mdr init' to configure)", err)
		}
	}

	status := view.NewRenderer(view.FormatTable, noColor)
	status.SetWriter(w)

	if err := cfg.Validate(); err != nil {
		status.Error("Invalid configuration:")
		_, _ = fmt.Fprintln(w, strings.TrimSpace(err.Error()))
		_, _ = fmt.Fprintln(w, "\nCheck your settings with: mdr config show")
		_, _ = fmt.Fprintln(w, "Reconfigure with: mdr init")
		return fmt.Errorf("invalid config: %w", err)
	}
	status.Success("Settings valid")

	doc, err := document.Load("-", strings.NewReader(sample))
	if err != nil {
		return err
	}
	renderer, err := doc.NewRenderer(cfg, log.Logger)
	if err != nil {
		status.Error("Renderer setup failed: " + err.Error())
		return fmt.Errorf("renderer setup failed: %w", err)
	}

	out, err := renderer.Render(doc.Result.Document)
	if err != nil {
		status.Error("Sample render failed: " + err.Error())
		return fmt.Errorf("sample render failed: %w", err)
	}
	if !strings.Contains(out, "Hello <em>world</em>") {
		status.Error("Sample render did not expand the macro")
		return fmt.Errorf("sample render failed")
	}
	status.Success("Sample rendered")
	_, _ = fmt.Fprintf(w, "\n%s", out)

	return nil
}
