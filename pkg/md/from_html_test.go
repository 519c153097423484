package md

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromHTML(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
		{
			name:     "basic paragraph",
			input:    "<p>Hello world</p>",
			expected: "Hello world",
		},
		{
			name:     "multiple paragraphs",
			input:    "<p>First paragraph.</p><p>Second paragraph.</p>",
			expected: "First paragraph.\n\nSecond paragraph.",
		},
		{
			name:     "h1 header",
			input:    "<h1>Title</h1>",
			expected: "# Title",
		},
		{
			name:     "h3 header",
			input:    "<h3>Section</h3>",
			expected: "### Section",
		},
		{
			name:     "bold text",
			input:    "<p>This is <strong>bold</strong> text</p>",
			expected: "This is **bold** text",
		},
		{
			name:     "italic text",
			input:    "<p>This is <em>italic</em> text</p>",
			expected: "This is *italic* text",
		},
		{
			name:     "unordered list",
			input:    "<ul><li>Item 1</li><li>Item 2</li></ul>",
			expected: "- Item 1\n- Item 2",
		},
		{
			name:     "ordered list",
			input:    "<ol><li>First</li><li>Second</li></ol>",
			expected: "1. First\n2. Second",
		},
		{
			name:     "inline code",
			input:    "<p>Use <code>code</code> here</p>",
			expected: "Use `code` here",
		},
		{
			name:     "link",
			input:    `<p><a href="https://google.com">Google</a></p>`,
			expected: "[Google](https://google.com)",
		},
		{
			name:     "blockquote",
			input:    "<blockquote><p>This is a quote</p></blockquote>",
			expected: "> This is a quote",
		},
		{
			name:     "simple table",
			input:    "<table><tr><th>Name</th><th>Age</th></tr><tr><td>Alice</td><td>30</td></tr></table>",
			expected: "| Name  | Age |\n|-------|-----|\n| Alice | 30  |",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := FromHTML(tt.input, ImportOptions{})
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestFromHTML_MacroWrappers(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		keep     string
		expanded string
	}{
		{
			name:     "inline wrapper",
			input:    `<p>Hi <span data-macro="sig" data-source-pos="3-12">Regards</span>!</p>`,
			keep:     "Hi <<<sig>>>!",
			expanded: "Hi Regards!",
		},
		{
			name:     "block wrapper",
			input:    `<p>Intro</p><div data-macro="terms" data-source-pos="7-16"><p>a</p><p>b</p></div>`,
			keep:     "Intro\n\n<<<terms>>>",
			expanded: "Intro\n\na\n\nb",
		},
		{
			name:     "escaped key",
			input:    `<p><span data-macro="a &amp; b">x</span></p>`,
			keep:     "<<<a & b>>>",
			expanded: "x",
		},
		{
			name:     "plain span untouched",
			input:    `<p><span class="note">plain</span></p>`,
			keep:     "plain",
			expanded: "plain",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kept, err := FromHTML(tt.input, ImportOptions{KeepMacros: true})
			require.NoError(t, err)
			assert.Equal(t, tt.keep, kept)

			expanded, err := FromHTML(tt.input, ImportOptions{})
			require.NoError(t, err)
			assert.Equal(t, tt.expanded, expanded)
		})
	}
}

func TestFromHTML_ComplexDocument(t *testing.T) {
	input := `<h1>Project README</h1>
<p>This is the <strong>introduction</strong> to the project.</p>
<h2>Features</h2>
<ul>
<li>Feature one</li>
<li>Feature two</li>
</ul>
<pre><code class="language-go">func hello() {
    fmt.Println("Hello")
}</code></pre>
<p>For more info, see <a href="https://example.com">the docs</a>.</p>`

	result, err := FromHTML(input, ImportOptions{})
	require.NoError(t, err)

	assert.Contains(t, result, "# Project README")
	assert.Contains(t, result, "**introduction**")
	assert.Contains(t, result, "## Features")
	assert.Contains(t, result, "- Feature one")
	assert.Contains(t, result, "```go")
	assert.Contains(t, result, "[the docs](https://example.com)")
}

func TestFromHTML_RoundTripKeepsReferences(t *testing.T) {
	source := ">>>sig\nRegards\n<<<\n\nHi <<<sig>>>!\n"
	result := Parse([]byte(source))
	html := render(t, result.Document, WithExtensions(NewMacros(result.Macros, MacroOptions{SourceWrap: true})))
	require.Contains(t, html, `data-macro="sig"`)

	markdown, err := FromHTML(html, ImportOptions{KeepMacros: true})
	require.NoError(t, err)
	assert.Equal(t, "Hi <<<sig>>>!", markdown)

	reparsed := Parse([]byte(markdown))
	refs := collect(reparsed.Document, KindMacroReference)
	require.Len(t, refs, 1)
	assert.Equal(t, "sig", refs[0].Key)
}
