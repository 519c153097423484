// Package render provides the render command.
package render

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/open-cli-collective/mdr/internal/config"
	"github.com/open-cli-collective/mdr/internal/document"
	"github.com/open-cli-collective/mdr/internal/logging"
	"github.com/open-cli-collective/mdr/internal/view"
	"github.com/open-cli-collective/mdr/pkg/md"
)

type renderOptions struct {
	configPath string
	out        string
	standalone bool
	strict     bool
	noColor    bool

	// Flag overrides, applied only when the flag was set.
	escapeHTML  *bool
	headingIDs  *bool
	sourceWrap  *bool
	index       *bool
	recheck     *bool
	indent      *int
	claimPolicy *string
}

// NewCmdRender creates the render command.
func NewCmdRender() *cobra.Command {
	opts := &renderOptions{}
	var (
		escapeHTML, headingIDs, sourceWrap, index, recheck bool
		indent                                             int
		claimPolicy                                        string
	)

	cmd := &cobra.Command{
		Use:   "render [file|-]",
		Short: "Render markdown to HTML",
		Long: `Render a markdown document to HTML, expanding macros.

A macro is defined with a >>>key line, its body, and a closing <<< line.
<<<key>>> anywhere in the text expands to the body. Settings come from the
config file, MDR_* environment variables, the document's front matter and
finally the flags below, each overriding the one before.`,
		Example: `  # Render a file
  mdr render notes.md

  # Render stdin to a file
  cat notes.md | mdr render --out notes.html

  # Resolve macros defined after their use and list them at the end
  mdr render notes.md --recheck --index`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.configPath, _ = cmd.Flags().GetString("config")
			opts.noColor, _ = cmd.Flags().GetBool("no-color")

			flags := cmd.Flags()
			if flags.Changed("escape-html") {
				opts.escapeHTML = &escapeHTML
			}
			if flags.Changed("heading-ids") {
				opts.headingIDs = &headingIDs
			}
			if flags.Changed("source-wrap") {
				opts.sourceWrap = &sourceWrap
			}
			if flags.Changed("index") {
				opts.index = &index
			}
			if flags.Changed("recheck") {
				opts.recheck = &recheck
			}
			if flags.Changed("indent") {
				opts.indent = &indent
			}
			if flags.Changed("claim-policy") {
				opts.claimPolicy = &claimPolicy
			}

			path := ""
			if len(args) > 0 {
				path = args[0]
			}
			return runRender(path, opts, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVar(&opts.out, "out", "", "Write HTML to this file instead of stdout")
	cmd.Flags().BoolVar(&opts.standalone, "standalone", false, "Wrap the output in a complete HTML page")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "Fail when the document has parse warnings")
	cmd.Flags().BoolVar(&escapeHTML, "escape-html", false, "Escape raw HTML instead of passing it through")
	cmd.Flags().BoolVar(&headingIDs, "heading-ids", false, "Add id attributes to headings")
	cmd.Flags().BoolVar(&sourceWrap, "source-wrap", false, "Wrap expanded macros in elements carrying their source position")
	cmd.Flags().BoolVar(&index, "index", false, "Append a numbered index of referenced macros")
	cmd.Flags().BoolVar(&recheck, "recheck", false, "Resolve macro references that precede their definition")
	cmd.Flags().IntVar(&indent, "indent", 0, "Spaces per nesting level inside wrapped macro blocks")
	cmd.Flags().StringVar(&claimPolicy, "claim-policy", "", "Node handler conflict policy: strict, last-wins")

	return cmd
}

func (o *renderOptions) apply(cfg *config.Config) {
	if o.escapeHTML != nil {
		cfg.EscapeHTML = *o.escapeHTML
	}
	if o.headingIDs != nil {
		cfg.HeadingIDs = *o.headingIDs
	}
	if o.sourceWrap != nil {
		cfg.MacroSourceWrap = *o.sourceWrap
	}
	if o.index != nil {
		cfg.MacroIndex = *o.index
	}
	if o.recheck != nil {
		cfg.RecheckReferences = *o.recheck
	}
	if o.indent != nil {
		cfg.Indent = *o.indent
	}
	if o.claimPolicy != nil {
		cfg.ClaimPolicy = *o.claimPolicy
	}
}

func runRender(path string, opts *renderOptions, stdin io.Reader, stdout, stderr io.Writer) error {
	logger := logging.GetLogger("render")
	done := logging.LogOperationStart(logger, "render")
	defer done()

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
	opts.apply(cfg)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}

	if len(doc.Result.Warnings) > 0 {
		warn := view.NewRenderer(view.FormatTable, opts.noColor)
		warn.SetWriter(stderr)
		for _, w := range doc.Result.Warnings {
			warn.Warning(fmt.Sprintf("%s: %s", doc.Name, w))
		}
		if opts.strict {
			return fmt.Errorf("%s: %d parse warning(s)", doc.Name, len(doc.Result.Warnings))
		}
	}

	renderer, err := doc.NewRenderer(cfg, logger)
	if err != nil {
		return err
	}

	if opts.out == "" {
		if err := writeDocument(stdout, renderer, doc, opts.standalone); err != nil {
			return err
		}
	} else {
		f, err := createOutput(opts.out)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		if err := writeDocument(f, renderer, doc, opts.standalone); err != nil {
			_ = f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
	}

	log.Debug().
		Str("document", doc.Name).
		Int("macros", doc.Result.Macros.Len()).
		Msg("Rendered document")
	return nil
}

// createOutput opens the --out file.
var createOutput = func(path string) (io.WriteCloser, error) {
	return os.Create(path)
}

func writeDocument(w io.Writer, renderer *md.Renderer, doc *document.Document, standalone bool) error {
	if standalone {
		if _, err := fmt.Fprintf(w, pageHeader, md.EscapeHTML(pageTitle(doc))); err != nil {
			return err
		}
	}
	if err := renderer.RenderTo(w, doc.Result.Document); err != nil {
		return fmt.Errorf("failed to render %s: %w", doc.Name, err)
	}
	if standalone {
		if _, err := io.WriteString(w, pageFooter); err != nil {
			return err
		}
	}
	return nil
}

const (
	pageHeader = "<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>%s</title>\n</head>\n<body>\n"
	pageFooter = "</body>\n</html>\n"
)

func pageTitle(doc *document.Document) string {
	if doc.FrontMatter.Title != "" {
		return doc.FrontMatter.Title
	}
	return doc.Name
}
