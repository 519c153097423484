package configcmd

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/open-cli-collective/mdr/internal/config"
)

// NewCmdShow creates the config show command.
func NewCmdShow() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Display current configuration",
		Long:  `Display the effective mdr settings and where each one comes from.`,
		Example: `  # Show current config
  mdr config show`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			noColor, _ := cmd.Flags().GetBool("no-color")
			return runShow(configPathFrom(cmd), noColor, cmd.OutOrStdout())
		},
	}

	return cmd
}

// setting is one displayed configuration value.
type setting struct {
	label  string
	value  string
	inFile bool
	envVar string
}

func settings(cfg, fileCfg *config.Config) []setting {
	b := strconv.FormatBool
	return []setting{
		{"Escape HTML", b(cfg.EscapeHTML), fileCfg.EscapeHTML, config.EnvEscapeHTML},
		{"Soft break", strconv.Quote(cfg.SoftBreak), fileCfg.SoftBreak != "", config.EnvSoftBreak},
		{"Heading IDs", b(cfg.HeadingIDs), fileCfg.HeadingIDs, config.EnvHeadingIDs},
		{"Claim policy", cfg.ClaimPolicy, fileCfg.ClaimPolicy != "", config.EnvClaimPolicy},
		{"Recheck refs", b(cfg.RecheckReferences), fileCfg.RecheckReferences, config.EnvRecheckReferences},
		{"Source wrap", b(cfg.MacroSourceWrap), fileCfg.MacroSourceWrap, config.EnvMacroSourceWrap},
		{"Macro index", b(cfg.MacroIndex), fileCfg.MacroIndex, config.EnvMacroIndex},
		{"Indent", strconv.Itoa(cfg.Indent), fileCfg.Indent != 0, config.EnvIndent},
		{"Source attr", cfg.SourcePosAttribute, fileCfg.SourcePosAttribute != "", config.EnvSourcePosAttribute},
		{"Output", cfg.OutputFormat, fileCfg.OutputFormat != "", ""},
	}
}

func runShow(configPath string, noColor bool, w io.Writer) error {
	if noColor {
		color.NoColor = true
	}

	// Load file config (may not exist)
	fileCfg, fileErr := config.Load(configPath)
	if fileErr != nil {
		fileCfg = &config.Config{}
	}

	// Load full config with env overrides
	cfg, _ := config.LoadWithEnv(configPath)

	bold := color.New(color.Bold)
	dim := color.New(color.Faint)

	for _, s := range settings(cfg, fileCfg) {
		_, _ = bold.Fprintf(w, "%-14s", s.label+":")
		if s.value == "" {
			_, _ = dim.Fprintln(w, "-")
			continue
		}
		_, _ = fmt.Fprint(w, s.value)
		_, _ = dim.Fprintf(w, "  (source: %s)\n", source(s))
	}

	_, _ = fmt.Fprintln(w)
	_, _ = dim.Fprintf(w, "Config file: %s\n", configPath)
	if fileErr != nil {
		_, _ = dim.Fprintln(w, "(file not found)")
	}

	return nil
}

func source(s setting) string {
	if s.envVar != "" && os.Getenv(s.envVar) != "" {
		return s.envVar
	}
	if s.inFile {
		return "config"
	}
	return "default"
}
