// Package document loads markdown sources for the mdr commands and builds
// renderers for them.
package document

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/open-cli-collective/mdr/internal/config"
	"github.com/open-cli-collective/mdr/pkg/md"
)

// Stdin is the path argument that selects standard input.
const Stdin = "-"

// Document is a parsed markdown source.
type Document struct {
	Name        string
	Source      []byte
	FrontMatter md.FrontMatter
	Result      *md.ParseResult

	bodyOffset int // length of the front matter block
}

// ReadSource reads path, or stdin when path is empty or "-".
func ReadSource(path string, stdin io.Reader) ([]byte, error) {
	if path == "" || path == Stdin {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return data, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return data, nil
}

// Load reads a source, strips its front matter and parses the body.
func Load(path string, stdin io.Reader) (*Document, error) {
	source, err := ReadSource(path, stdin)
	if err != nil {
		return nil, err
	}

	meta, body, err := md.ParseFrontMatter(source)
	if err != nil {
		return nil, err
	}

	name := path
	if name == "" || name == Stdin {
		name = "<stdin>"
	}

	offset := len(source) - len(body)
	if offset < 0 || !bytes.HasSuffix(source, body) {
		offset = 0
	}

	result := md.Parse(body)
	for _, w := range result.Warnings {
		log.Debug().Str("document", name).Msg(w)
	}

	return &Document{
		Name:        name,
		Source:      source,
		FrontMatter: meta,
		Result:      result,
		bodyOffset:  offset,
	}, nil
}

// Line returns the 1-based line in the original source of a body offset.
func (d *Document) Line(offset int) int {
	end := d.bodyOffset + offset
	if end > len(d.Source) {
		end = len(d.Source)
	}
	return bytes.Count(d.Source[:end], []byte("\n")) + 1
}

// NewRenderer builds a renderer for the document from cfg. The macro
// extension is always installed.
func (d *Document) NewRenderer(cfg *config.Config, logger zerolog.Logger) (*md.Renderer, error) {
	opts, err := cfg.RenderOptions()
	if err != nil {
		return nil, err
	}
	opts = append(opts,
		md.WithLogger(logger),
		md.WithExtensions(md.NewMacros(d.Result.Macros, cfg.MacroOptions())),
	)
	return md.New(opts...)
}
