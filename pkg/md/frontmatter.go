package md

import (
	"bytes"
	"fmt"

	"github.com/adrg/frontmatter"
)

// FrontMatter holds the document metadata recognised by the renderer. Unset
// pointer fields leave the corresponding render setting alone. YAML (---)
// and TOML (+++) blocks are accepted.
type FrontMatter struct {
	Title           string         `yaml:"title" toml:"title"`
	EscapeHTML      *bool          `yaml:"escape_html" toml:"escape_html"`
	SoftBreak       *string        `yaml:"soft_break" toml:"soft_break"`
	RecheckMacros   *bool          `yaml:"recheck_undefined_references" toml:"recheck_undefined_references"`
	MacroSourceWrap *bool          `yaml:"macro_source_wrap" toml:"macro_source_wrap"`
	MacroIndex      *bool          `yaml:"macro_index" toml:"macro_index"`
	Custom          map[string]any `yaml:",inline" toml:"-"` // unrecognised YAML keys
}

// ParseFrontMatter splits a leading front matter block from source. Without
// one, the whole source is returned as the body.
func ParseFrontMatter(source []byte) (FrontMatter, []byte, error) {
	var meta FrontMatter
	body, err := frontmatter.Parse(bytes.NewReader(source), &meta)
	if err != nil {
		return FrontMatter{}, nil, fmt.Errorf("parse front matter: %w", err)
	}
	return meta, body, nil
}
