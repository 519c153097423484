// writer.go implements the HTML output sink used by every render rule.
package md

import (
	"io"
	"strings"
)

// DefaultSourcePosAttribute is the attribute SrcPos attaches to the next tag.
const DefaultSourcePosAttribute = "data-source-pos"

// HTMLWriter writes HTML to an io.Writer while tracking line starts and the
// current indentation level.
//
// Write failures are sticky: after the first error every further call is a
// no-op and Err reports the failure.
type HTMLWriter struct {
	w   io.Writer
	err error

	indentSize  int
	level       int
	preDepth    int  // open <pre> elements, indentation is suppressed inside
	atLineStart bool // last byte written was a newline
	written     bool // anything has been written yet

	srcPosAttr string
	pendingPos *Span
}

// NewHTMLWriter returns a writer emitting to w. indentSize is the number of
// spaces per Indent level; zero disables indentation.
func NewHTMLWriter(w io.Writer, indentSize int) *HTMLWriter {
	return &HTMLWriter{
		w:          w,
		indentSize: indentSize,
		srcPosAttr: DefaultSourcePosAttribute,
	}
}

// SetSourcePosAttribute changes the attribute name used by SrcPos.
func (hw *HTMLWriter) SetSourcePosAttribute(name string) {
	if name != "" {
		hw.srcPosAttr = name
	}
}

// Err returns the first write error, if any.
func (hw *HTMLWriter) Err() error {
	return hw.err
}

// Text writes s with HTML special characters escaped.
func (hw *HTMLWriter) Text(s string) *HTMLWriter {
	hw.emit(EscapeHTML(s))
	return hw
}

// Raw writes s unchanged.
func (hw *HTMLWriter) Raw(s string) *HTMLWriter {
	hw.emit(s)
	return hw
}

// Tag writes an element tag. A name starting with "/" closes the element and
// ignores attrs.
func (hw *HTMLWriter) Tag(name string, attrs Attributes) *HTMLWriter {
	if strings.HasPrefix(name, "/") {
		if name == "/pre" && hw.preDepth > 0 {
			hw.preDepth--
		}
		hw.emit("<" + name + ">")
		return hw
	}
	hw.emit(hw.openTag(name, attrs) + ">")
	if name == "pre" {
		hw.preDepth++
	}
	return hw
}

// VoidTag writes a self-closing element such as <hr />.
func (hw *HTMLWriter) VoidTag(name string, attrs Attributes) *HTMLWriter {
	hw.emit(hw.openTag(name, attrs) + " />")
	return hw
}

// Line ends the current line unless the writer is already at the start of
// one. Consecutive calls produce a single newline.
func (hw *HTMLWriter) Line() *HTMLWriter {
	if hw.written && !hw.atLineStart {
		hw.write("\n")
		hw.atLineStart = true
	}
	return hw
}

// Indent starts a new line and increases the indentation level.
func (hw *HTMLWriter) Indent() *HTMLWriter {
	hw.Line()
	hw.level++
	return hw
}

// UnIndent starts a new line and decreases the indentation level.
func (hw *HTMLWriter) UnIndent() *HTMLWriter {
	hw.Line()
	if hw.level > 0 {
		hw.level--
	}
	return hw
}

// SrcPos attaches a source position attribute to the next opening tag.
// Zero spans are ignored.
func (hw *HTMLWriter) SrcPos(span Span) *HTMLWriter {
	if span.IsZero() {
		return hw
	}
	hw.pendingPos = &span
	return hw
}

func (hw *HTMLWriter) openTag(name string, attrs Attributes) string {
	var sb strings.Builder
	sb.WriteByte('<')
	sb.WriteString(name)
	for _, a := range attrs {
		writeAttr(&sb, a.Name, a.Value)
	}
	if hw.pendingPos != nil {
		writeAttr(&sb, hw.srcPosAttr, hw.pendingPos.String())
		hw.pendingPos = nil
	}
	return sb.String()
}

func writeAttr(sb *strings.Builder, name, value string) {
	sb.WriteByte(' ')
	sb.WriteString(name)
	sb.WriteString(`="`)
	sb.WriteString(EscapeHTML(value))
	sb.WriteByte('"')
}

// emit writes s, prefixing every line that starts inside it with the current
// indentation.
func (hw *HTMLWriter) emit(s string) {
	if s == "" {
		return
	}
	prefix := hw.prefix()
	if prefix == "" {
		hw.write(s)
	} else {
		var sb strings.Builder
		for i, line := range strings.SplitAfter(s, "\n") {
			if line == "" {
				continue
			}
			if i > 0 || hw.atLineStart {
				sb.WriteString(prefix)
			}
			sb.WriteString(line)
		}
		hw.write(sb.String())
	}
	hw.atLineStart = s[len(s)-1] == '\n'
}

func (hw *HTMLWriter) prefix() string {
	if hw.level == 0 || hw.indentSize == 0 || hw.preDepth > 0 {
		return ""
	}
	return strings.Repeat(" ", hw.level*hw.indentSize)
}

func (hw *HTMLWriter) write(s string) {
	if hw.err != nil {
		return
	}
	if _, err := io.WriteString(hw.w, s); err != nil {
		hw.err = err
		return
	}
	hw.written = true
}
