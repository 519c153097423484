// Package init provides the init command for mdr.
package init

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/open-cli-collective/mdr/internal/config"
)

type initOptions struct {
	configPath string
	defaults   bool
	force      bool
}

// NewCmdInit creates the init command.
func NewCmdInit() *cobra.Command {
	opts := &initOptions{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize mdr configuration",
		Long: `Initialize mdr with your preferred render settings.

This command will guide you through the HTML escaping, heading, macro
and output settings. The configuration will be saved to ~/.config/mdr/config.yml.`,
		Example: `  # Interactive setup
  mdr init

  # Write the default settings without prompting
  mdr init --defaults --force`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.configPath, _ = cmd.Flags().GetString("config")
			if opts.configPath == "" {
				opts.configPath = config.DefaultConfigPath()
			}
			return runInit(opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVar(&opts.defaults, "defaults", false, "Save the default settings without prompting")
	cmd.Flags().BoolVar(&opts.force, "force", false, "Overwrite an existing configuration without asking")

	return cmd
}

// defaultConfig is what a fresh installation renders with.
func defaultConfig() *config.Config {
	return &config.Config{
		ClaimPolicy:  "strict",
		OutputFormat: "table",
	}
}

func runInit(opts *initOptions, w io.Writer) error {
	configPath := opts.configPath

	cfg := defaultConfig()

	// Check if config already exists
	if configExists(configPath) {
		switch {
		case opts.force:
		case opts.defaults:
			return fmt.Errorf("configuration already exists at %s (use --force to overwrite)", configPath)
		default:
			var overwrite bool
			err := huh.NewConfirm().
				Title("Configuration already exists").
				Description(fmt.Sprintf("Overwrite %s?", configPath)).
				Value(&overwrite).
				Run()
			if err != nil {
				return err
			}
			if !overwrite {
				_, _ = fmt.Fprintln(w, "Initialization cancelled.")
				return nil
			}
		}
		// Start the form from the current values
		if existing, err := config.Load(configPath); err == nil && !opts.defaults {
			cfg = existing
		}
	}

	if !opts.defaults {
		if err := buildForm(cfg).Run(); err != nil {
			return err
		}
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if err := cfg.Save(configPath); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(w, "\nConfiguration saved to %s\n", configPath)
	_, _ = fmt.Fprintln(w, "\nYou're all set! Try running:")
	_, _ = fmt.Fprintln(w, "  mdr config test")
	_, _ = fmt.Fprintln(w, "  mdr render notes.md")

	return nil
}

func buildForm(cfg *config.Config) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Escape raw HTML").
				Description("Render HTML blocks and inline tags as text").
				Value(&cfg.EscapeHTML),

			huh.NewConfirm().
				Title("Heading IDs").
				Description("Add an id attribute to every heading").
				Value(&cfg.HeadingIDs),

			huh.NewSelect[int]().
				Title("Indent").
				Description("Spaces per nesting level in the HTML output").
				Options(
					huh.NewOption("None", 0),
					huh.NewOption("2 spaces", 2),
					huh.NewOption("4 spaces", 4),
				).
				Value(&cfg.Indent),
		),
		huh.NewGroup(
			huh.NewConfirm().
				Title("Resolve forward references").
				Description("Expand macros used before their definition").
				Value(&cfg.RecheckReferences),

			huh.NewConfirm().
				Title("Wrap macro expansions").
				Description("Mark expanded macros with data-macro so 'mdr import --keep-macros' can restore them").
				Value(&cfg.MacroSourceWrap),

			huh.NewConfirm().
				Title("Macro index").
				Description("List referenced macros at the end of the document").
				Value(&cfg.MacroIndex),

			huh.NewInput().
				Title("Source position attribute (optional)").
				Description("Attribute that records each element's source offsets").
				Placeholder("data-source-pos").
				Value(&cfg.SourcePosAttribute).
				Validate(validateAttribute),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Extension conflicts").
				Description("What happens when two extensions render the same node kind").
				Options(
					huh.NewOption("Fail (strict)", "strict"),
					huh.NewOption("Last registered wins", "last-wins"),
				).
				Value(&cfg.ClaimPolicy),

			huh.NewSelect[string]().
				Title("Output format").
				Description("Default format for listings such as 'mdr macros'").
				Options(
					huh.NewOption("Table", "table"),
					huh.NewOption("JSON", "json"),
					huh.NewOption("Plain", "plain"),
				).
				Value(&cfg.OutputFormat),
		),
	)
}

func validateAttribute(s string) error {
	return (&config.Config{SourcePosAttribute: s}).Validate()
}

// configExists reports whether a file is present at path.
func configExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
