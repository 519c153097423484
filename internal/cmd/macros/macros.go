// Package macros provides the macros command.
package macros

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/open-cli-collective/mdr/internal/config"
	"github.com/open-cli-collective/mdr/internal/document"
	"github.com/open-cli-collective/mdr/internal/view"
	"github.com/open-cli-collective/mdr/pkg/md"
)

type macrosOptions struct {
	configPath string
	recheck    *bool
	output     string
	noColor    bool
	previewLen int
}

// NewCmdMacros creates the macros command.
func NewCmdMacros() *cobra.Command {
	opts := &macrosOptions{}
	var recheck bool

	cmd := &cobra.Command{
		Use:   "macros [file|-]",
		Short: "List the macros defined in a document",
		Long: `List every macro definition in a document with its ordinal, the
number of references to it and where it is defined.

Ordinals number referenced macros first, in order of their first
reference, followed by unreferenced ones in document order.`,
		Example: `  # List macros
  mdr macros notes.md

  # Count forward references too, as JSON
  mdr macros notes.md --recheck -o json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.configPath, _ = cmd.Flags().GetString("config")
			opts.output, _ = cmd.Flags().GetString("output")
			opts.noColor, _ = cmd.Flags().GetBool("no-color")
			if cmd.Flags().Changed("recheck") {
				opts.recheck = &recheck
			}

			path := ""
			if len(args) > 0 {
				path = args[0]
			}
			return runMacros(path, opts, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVar(&recheck, "recheck", false, "Count references that precede their definition")
	cmd.Flags().IntVar(&opts.previewLen, "preview", 40, "Maximum length of the body preview")

	return cmd
}

// entry is one row of the listing.
type entry struct {
	Key        string `json:"key"`
	Ordinal    int    `json:"ordinal"`
	References int    `json:"references"`
	Line       int    `json:"line"`
	Preview    string `json:"preview"`
}

func runMacros(path string, opts *macrosOptions, stdin io.Reader, stdout io.Writer) error {
	configPath := opts.configPath
	if configPath == "" {
		configPath = config.DefaultConfigPath()
	}
	cfg, err := config.LoadWithEnv(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	doc, err := document.Load(path, stdin)
	if err != nil {
		return err
	}
	cfg.ApplyFrontMatter(doc.FrontMatter)
	if opts.recheck != nil {
		cfg.RecheckReferences = *opts.recheck
	}

	format := opts.output
	if format == "" {
		format = cfg.OutputFormat
	}
	if err := view.ValidateFormat(format); err != nil {
		return err
	}

	repo := doc.Result.Macros
	if cfg.RecheckReferences {
		repo.Reconcile(doc.Result.Document)
	}

	entries := collect(doc, repo, opts.previewLen)

	renderer := view.NewRenderer(view.Format(format), opts.noColor)
	renderer.SetWriter(stdout)

	if format == "json" {
		if entries == nil {
			entries = []entry{}
		}
		return renderer.RenderJSON(entries)
	}

	if len(entries) == 0 {
		renderer.RenderText("No macros defined.")
		return nil
	}

	headers := []string{"KEY", "ORDINAL", "REFERENCES", "LINE", "PREVIEW"}
	var rows [][]string
	for _, e := range entries {
		rows = append(rows, []string{
			e.Key,
			strconv.Itoa(e.Ordinal),
			strconv.Itoa(e.References),
			strconv.Itoa(e.Line),
			e.Preview,
		})
	}
	renderer.RenderTable(headers, rows)
	return nil
}

// collect lists the definitions in ordinal order.
func collect(doc *document.Document, repo *md.MacroRepository, previewLen int) []entry {
	var entries []entry
	for _, def := range repo.Definitions() {
		entries = append(entries, entry{
			Key:        def.Key,
			Ordinal:    repo.Ordinal(def),
			References: len(repo.References(def)),
			Line:       doc.Line(def.Span.Start),
			Preview:    view.Truncate(md.CollapseWhitespace(md.AltText(def), true), previewLen),
		})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Ordinal < entries[j].Ordinal })
	return entries
}
