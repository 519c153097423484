package md

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// collect returns the nodes of the given kind in document order.
func collect(root *Node, kind Kind) []*Node {
	var found []*Node
	root.Walk(func(n *Node, entering bool) WalkStatus {
		if entering && n.Kind == kind {
			found = append(found, n)
		}
		return GoToNext
	})
	return found
}

func renderSource(t *testing.T, source string, opts ...Option) string {
	t.Helper()
	result := Parse([]byte(source))
	opts = append([]Option{WithExtensions(NewMacros(result.Macros, MacroOptions{}))}, opts...)
	return render(t, result.Document, opts...)
}

func TestParse_Markdown(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "paragraphs",
			input:    "First paragraph.\n\nSecond paragraph.\n",
			expected: "<p>First paragraph.</p>\n<p>Second paragraph.</p>\n",
		},
		{
			name:     "heading",
			input:    "## Section\n",
			expected: "<h2>Section</h2>\n",
		},
		{
			name:     "soft break",
			input:    "one\ntwo\n",
			expected: "<p>one\ntwo</p>\n",
		},
		{
			name:     "hard break",
			input:    "one  \ntwo\n",
			expected: "<p>one<br />\ntwo</p>\n",
		},
		{
			name:     "emphasis",
			input:    "*a* **b**\n",
			expected: "<p><em>a</em> <strong>b</strong></p>\n",
		},
		{
			name:     "tight list",
			input:    "- a\n- b\n",
			expected: "<ul>\n<li>a</li>\n<li>b</li>\n</ul>\n",
		},
		{
			name:     "ordered list with start",
			input:    "3. a\n4. b\n",
			expected: "<ol start=\"3\">\n<li>a</li>\n<li>b</li>\n</ol>\n",
		},
		{
			name:     "block quote",
			input:    "> quoted\n",
			expected: "<blockquote>\n<p>quoted</p>\n</blockquote>\n",
		},
		{
			name:     "fenced code",
			input:    "```go\nx := 1\n```\n",
			expected: "<pre><code class=\"language-go\">x := 1\n</code></pre>\n",
		},
		{
			name:     "thematic break",
			input:    "a\n\n---\n",
			expected: "<p>a</p>\n<hr />\n",
		},
		{
			name:     "inline link",
			input:    "[Go](https://go.dev \"Home\")\n",
			expected: "<p><a href=\"https://go.dev\" title=\"Home\">Go</a></p>\n",
		},
		{
			name:     "autolink",
			input:    "<https://go.dev>\n",
			expected: "<p><a href=\"https://go.dev\">https://go.dev</a></p>\n",
		},
		{
			name:     "entities",
			input:    "a &amp; b &bogus; \\&amp;\n",
			expected: "<p>a &amp; b &amp;bogus; &amp;amp;</p>\n",
		},
		{
			name:     "backslash escape",
			input:    "\\*not emphasis\\*\n",
			expected: "<p>*not emphasis*</p>\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, renderSource(t, tt.input))
		})
	}
}

func TestParse_HeadingID(t *testing.T) {
	result := Parse([]byte("# Hello World\n"))
	headings := collect(result.Document, KindHeading)
	require.Len(t, headings, 1)
	assert.Equal(t, 1, headings[0].Level)
	assert.Equal(t, "hello-world", headings[0].ID)

	out := render(t, result.Document, WithAttributeExtender(HeadingIDs))
	assert.Equal(t, "<h1 id=\"hello-world\">Hello World</h1>\n", out)
}

func TestParse_EntityNodes(t *testing.T) {
	result := Parse([]byte("x &copy; y &nope;\n"))
	entities := collect(result.Document, KindHTMLEntity)
	require.Len(t, entities, 1)
	assert.Equal(t, "&copy;", entities[0].Literal)
	assert.Equal(t, Span{Start: 2, End: 8}, entities[0].Span)
}

func TestParse_ReferenceLinks(t *testing.T) {
	source := "[full][ref] [ref][] [ref] [inline](/i)\n\n[ref]: /url \"T\"\n"
	result := Parse([]byte(source))

	refs := collect(result.Document, KindLinkRef)
	require.Len(t, refs, 3)
	assert.Equal(t, "ref", refs[0].Label)
	assert.Empty(t, refs[1].Label)
	assert.Empty(t, refs[2].Label)
	for _, ref := range refs {
		assert.Equal(t, "/url", ref.Destination)
		assert.Equal(t, "T", ref.Title)
	}
	assert.Len(t, collect(result.Document, KindLink), 1)

	defs := collect(result.Document, KindReference)
	require.Len(t, defs, 1)
	assert.Equal(t, "ref", defs[0].Label)
	assert.Equal(t, "/url", defs[0].Destination)

	out := render(t, result.Document)
	assert.Equal(t, "<p><a href=\"/url\" title=\"T\">full</a> <a href=\"/url\" title=\"T\">ref</a> <a href=\"/url\" title=\"T\">ref</a> <a href=\"/i\">inline</a></p>\n", out)
}

func TestParse_ReferenceDefinitionsOnly(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		expected string
	}{
		{name: "definition alone", source: "[ref]: /url\n", expected: ""},
		{name: "after a paragraph", source: "a\n\n[ref]: /url\n", expected: "<p>a</p>\n"},
		{name: "several definitions", source: "[a]: /a\n[b]: /b\n\n[a] [b]\n", expected: "<p><a href=\"/a\">a</a> <a href=\"/b\">b</a></p>\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Parse([]byte(tt.source))
			for _, p := range collect(result.Document, KindParagraph) {
				assert.True(t, p.HasChildren(), "empty paragraph at %s", p.Span)
			}
			assert.Equal(t, tt.expected, render(t, result.Document))
		})
	}
}

func TestParse_ImageRef(t *testing.T) {
	result := Parse([]byte("![alt *text*][img]\n\n[img]: /a.png\n"))
	images := collect(result.Document, KindImageRef)
	require.Len(t, images, 1)
	assert.Equal(t, "img", images[0].Label)

	out := render(t, result.Document)
	assert.Equal(t, "<p><img src=\"/a.png\" alt=\"alt text\" /></p>\n", out)
}

func TestParse_MacroDefinition(t *testing.T) {
	source := ">>>Sig\nBest\n<<<\n"
	result := Parse([]byte(source))
	require.Empty(t, result.Warnings)

	def := result.Document.FirstChild()
	require.NotNil(t, def)
	assert.Equal(t, KindMacroDefinition, def.Kind)
	assert.Equal(t, "Sig", def.Key)
	assert.Equal(t, Span{Start: 0, End: len(source)}, def.Span)

	body := def.FirstChild()
	require.NotNil(t, body)
	assert.Equal(t, KindParagraph, body.Kind)
	assert.Equal(t, "Best", body.FirstChild().Literal)

	registered, ok := result.Macros.Lookup("sig")
	require.True(t, ok)
	assert.Same(t, def, registered)
	assert.Equal(t, 1, result.Macros.Ordinal(def))
}

func TestParse_MacroDefinitionInterruptsParagraph(t *testing.T) {
	result := Parse([]byte("text\n>>>k\nbody\n<<<\n"))
	require.Empty(t, result.Warnings)

	first := result.Document.FirstChild()
	require.NotNil(t, first)
	assert.Equal(t, KindParagraph, first.Kind)
	assert.Equal(t, KindMacroDefinition, first.NextSibling().Kind)
}

func TestParse_MacroReference(t *testing.T) {
	source := ">>>sig\n**Regards**\n<<<\n\nHi <<<SIG>>>!\n"
	result := Parse([]byte(source))

	refs := collect(result.Document, KindMacroReference)
	require.Len(t, refs, 1)
	ref := refs[0]
	assert.Equal(t, "SIG", ref.Key)
	assert.Equal(t, "<<<SIG>>>", ref.Literal)
	assert.Equal(t, "<<<SIG>>>", source[ref.Span.Start:ref.Span.End])

	def, ok := result.Macros.Resolved(ref)
	require.True(t, ok)
	assert.Equal(t, "sig", def.Key)

	assert.Equal(t, "<p>Hi <strong>Regards</strong>!</p>\n", renderSource(t, source))
}

func TestParse_MacroReferenceNotation(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "unterminated reference stays text",
			input:    "a <<<sig b\n",
			expected: "<p>a &lt;&lt;&lt;sig b</p>\n",
		},
		{
			name:     "blank key stays text",
			input:    "<<< >>>\n",
			expected: "<p>&lt;&lt;&lt; &gt;&gt;&gt;</p>\n",
		},
		{
			name:     "undefined reference",
			input:    "see <<<nothing>>>\n",
			expected: "<p>see &lt;&lt;&lt;nothing&gt;&gt;&gt;</p>\n",
		},
		{
			name:     "reference inside code span is literal",
			input:    ">>>k\nK\n<<<\n\n`<<<k>>>`\n",
			expected: "<p><code>&lt;&lt;&lt;k&gt;&gt;&gt;</code></p>\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, renderSource(t, tt.input))
		})
	}
}

func TestParse_ForwardReferenceUnlinked(t *testing.T) {
	result := Parse([]byte("<<<later>>>\n\n>>>later\nL\n<<<\n"))

	refs := collect(result.Document, KindMacroReference)
	require.Len(t, refs, 1)
	_, ok := result.Macros.Resolved(refs[0])
	assert.False(t, ok)

	def, ok := result.Macros.Lookup("later")
	require.True(t, ok)
	assert.Empty(t, result.Macros.References(def))
}

func TestParse_WarningsNotLogged(t *testing.T) {
	var buf bytes.Buffer
	orig := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = orig })

	result := Parse([]byte(">>>open\nbody\n"))
	require.Len(t, result.Warnings, 1)
	assert.Empty(t, buf.String())
}

func TestParse_MacroWarnings(t *testing.T) {
	t.Run("duplicate definition", func(t *testing.T) {
		result := Parse([]byte(">>>k\nfirst\n<<<\n\n>>>K\nsecond\n<<<\n\n<<<k>>>\n"))
		require.Len(t, result.Warnings, 1)
		assert.Contains(t, result.Warnings[0], `duplicate macro definition "K"`)
		assert.Equal(t, 1, result.Macros.Len())
		assert.Contains(t, renderSource(t, ">>>k\nfirst\n<<<\n\n>>>K\nsecond\n<<<\n\n<<<k>>>\n"), "first")
	})

	t.Run("unterminated definition", func(t *testing.T) {
		result := Parse([]byte(">>>open\nbody\n"))
		require.Len(t, result.Warnings, 1)
		assert.Contains(t, result.Warnings[0], `macro definition "open" at offset 0 is not terminated`)
		_, ok := result.Macros.Lookup("open")
		assert.True(t, ok)
	})
}

func TestParse_NestedDefinitionIsNotADefinition(t *testing.T) {
	result := Parse([]byte(">>>outer\n>>>inner\nx\n<<<\n"))
	_, ok := result.Macros.Lookup("inner")
	assert.False(t, ok)
	_, ok = result.Macros.Lookup("outer")
	assert.True(t, ok)
}
