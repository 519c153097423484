package md

import (
	"html"
	"regexp"
	"strconv"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
)

// ImportOptions configures the HTML to markdown conversion.
type ImportOptions struct {
	// KeepMacros turns expanded macro wrappers back into <<<key>>> references
	// instead of keeping their rendered content.
	KeepMacros bool
}

// macroWrapperPatterns match the span and div wrappers written around
// expanded macros when source wrapping is enabled.
var macroWrapperPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?s)<span[^>]*\sdata-macro="([^"]*)"[^>]*>.*?</span>`),
	regexp.MustCompile(`(?s)<div[^>]*\sdata-macro="([^"]*)"[^>]*>.*?</div>`),
}

// macroMarker stands in for a macro reference while the HTML is converted.
// It contains nothing the markdown converter would escape.
const (
	macroMarkerPrefix = "MDRMACRO"
	macroMarkerSuffix = "END"
)

// FromHTML converts HTML to markdown.
func FromHTML(input string, opts ImportOptions) (string, error) {
	if input == "" {
		return "", nil
	}

	var keys []string
	if opts.KeepMacros {
		input, keys = replaceMacroWrappers(input)
	}

	markdown, err := newHTMLConverter().ConvertString(input)
	if err != nil {
		return "", err
	}

	for i, key := range keys {
		markdown = strings.ReplaceAll(markdown, macroMarker(i), "<<<"+key+">>>")
	}

	return strings.TrimSpace(markdown), nil
}

// replaceMacroWrappers substitutes a marker for every macro wrapper and
// returns the keys in marker order.
func replaceMacroWrappers(input string) (string, []string) {
	var keys []string
	for _, pattern := range macroWrapperPatterns {
		input = pattern.ReplaceAllStringFunc(input, func(match string) string {
			key := html.UnescapeString(pattern.FindStringSubmatch(match)[1])
			keys = append(keys, key)
			marker := macroMarker(len(keys) - 1)
			if strings.HasPrefix(match, "<div") {
				return "<p>" + marker + "</p>"
			}
			return marker
		})
	}
	return input, keys
}

// newHTMLConverter builds a CommonMark converter that also writes GFM tables.
func newHTMLConverter() *converter.Converter {
	return converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(),
		),
	)
}

func macroMarker(i int) string {
	return macroMarkerPrefix + strconv.Itoa(i) + macroMarkerSuffix
}
