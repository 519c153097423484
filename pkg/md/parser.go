// parser.go turns markdown source into the Node tree, collecting macro
// definitions and references on the way.
package md

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// mdParser is a goldmark instance with macro syntax, heading ids and link
// form tracking.
var mdParser = goldmark.New(
	goldmark.WithParser(newBaseParser()),
	goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	goldmark.WithExtensions(MacroSyntax),
)

// newBaseParser returns the CommonMark parser with goldmark's link parser
// wrapped so reference-style links can be told apart from inline ones.
func newBaseParser() parser.Parser {
	inlines := make([]util.PrioritizedValue, 0, len(parser.DefaultInlineParsers()))
	for _, v := range parser.DefaultInlineParsers() {
		if bytes.IndexByte(v.Value.(parser.InlineParser).Trigger(), ']') >= 0 {
			continue
		}
		inlines = append(inlines, v)
	}
	inlines = append(inlines, util.Prioritized(&linkFormParser{inner: parser.NewLinkParser()}, 200))

	return parser.NewParser(
		parser.WithBlockParsers(parser.DefaultBlockParsers()...),
		parser.WithInlineParsers(inlines...),
		parser.WithParagraphTransformers(parser.DefaultParagraphTransformers()...),
	)
}

// refLabelAttr marks goldmark links and images written in reference form.
// Its value is the explicit label, empty for collapsed and shortcut forms.
const refLabelAttr = "mdr-ref-label"

// linkFormParser delegates to goldmark's link parser and records whether a
// completed link used the [text][label] or [text] form.
type linkFormParser struct {
	inner parser.InlineParser
}

func (p *linkFormParser) Trigger() []byte {
	return p.inner.Trigger()
}

func (p *linkFormParser) Parse(parent ast.Node, block text.Reader, pc parser.Context) ast.Node {
	line, _ := block.PeekLine()
	node := p.inner.Parse(parent, block, pc)
	if node == nil || len(line) == 0 || line[0] != ']' {
		return node
	}
	if len(line) > 1 && line[1] == '(' {
		return node
	}
	var label []byte
	if len(line) > 1 && line[1] == '[' {
		if end := bytes.IndexByte(line[2:], ']'); end > 0 {
			label = line[2 : 2+end]
		}
	}
	node.SetAttributeString(refLabelAttr, append([]byte{}, label...))
	return node
}

func (p *linkFormParser) CloseBlock(parent ast.Node, block text.Reader, pc parser.Context) {
	if cb, ok := p.inner.(parser.CloseBlocker); ok {
		cb.CloseBlock(parent, block, pc)
	}
}

// ParseResult is the outcome of parsing a markdown document.
type ParseResult struct {
	Document *Node
	Macros   *MacroRepository
	Warnings []string // any warnings generated during parsing
}

// AddWarning stores a warning in the result. Reporting is left to the
// caller.
func (pr *ParseResult) AddWarning(format string, args ...interface{}) {
	pr.Warnings = append(pr.Warnings, fmt.Sprintf(format, args...))
}

// Parse parses markdown source. Macro definitions are registered in
// document order and each reference is linked to a definition that precedes
// it; forward references stay unlinked until reconciled at render time.
func Parse(source []byte) *ParseResult {
	result := &ParseResult{Macros: NewMacroRepository()}

	pc := parser.NewContext()
	astDoc := mdParser.Parser().Parse(text.NewReader(source), parser.WithContext(pc))

	conv := &converter{source: source, result: result}
	doc := conv.convert(astDoc)
	conv.appendReferences(doc, pc.References())

	result.Document = doc
	result.Macros.ResolveOrdinals()
	return result
}

// converter holds state during AST conversion.
type converter struct {
	source []byte
	result *ParseResult
}

func (c *converter) convert(gn ast.Node) *Node {
	n := c.convertNode(gn)
	if n == nil {
		return nil
	}
	// Code span content is already folded into the literal.
	if _, isCode := gn.(*ast.CodeSpan); !isCode {
		c.convertChildren(gn, n)
	}
	if n.Span.IsZero() {
		n.Span = c.spanOf(gn, n)
	}
	return n
}

func (c *converter) convertChildren(gn ast.Node, n *Node) {
	for child := gn.FirstChild(); child != nil; child = child.NextSibling() {
		switch t := child.(type) {
		case *ast.Text:
			c.appendText(n, t)
		case *ast.String:
			n.AppendChild(&Node{Kind: KindText, Literal: string(t.Value)})
		default:
			if cn := c.convert(child); cn != nil {
				n.AppendChild(cn)
			}
		}
	}
}

// convertNode creates the Node for gn without its children. Macro
// definitions are registered here so that a reference inside a definition
// body sees its own definition.
func (c *converter) convertNode(gn ast.Node) *Node {
	switch node := gn.(type) {
	case *ast.Document:
		return NewNode(KindDocument)
	case *ast.Heading:
		n := NewNode(KindHeading)
		n.Level = node.Level
		if id, ok := node.AttributeString("id"); ok {
			if b, ok := id.([]byte); ok {
				n.ID = string(b)
			}
		}
		return n
	case *ast.Paragraph:
		// Left empty when it held only link reference definitions.
		if node.Lines().Len() == 0 && !node.HasChildren() {
			return nil
		}
		return NewNode(KindParagraph)
	case *ast.TextBlock:
		return NewNode(KindParagraph)
	case *ast.List:
		var n *Node
		if node.IsOrdered() {
			n = NewNode(KindOrderedList)
			n.Start = node.Start
		} else {
			n = NewNode(KindBulletList)
		}
		n.Tight = node.IsTight
		return n
	case *ast.ListItem:
		return NewNode(KindListItem)
	case *ast.Blockquote:
		return NewNode(KindBlockQuote)
	case *ast.FencedCodeBlock:
		n := NewNode(KindFencedCodeBlock)
		if node.Info != nil {
			n.Info = string(node.Info.Segment.Value(c.source))
		}
		n.Literal = c.linesValue(node.Lines())
		return n
	case *ast.CodeBlock:
		n := NewNode(KindIndentedCodeBlock)
		n.Literal = c.linesValue(node.Lines())
		return n
	case *ast.ThematicBreak:
		return NewNode(KindThematicBreak)
	case *ast.HTMLBlock:
		n := NewNode(KindHTMLBlock)
		n.Literal = c.linesValue(node.Lines())
		if node.HasClosure() {
			closure := node.ClosureLine
			n.Literal += string(closure.Value(c.source))
		}
		return n
	case *ast.RawHTML:
		n := NewNode(KindHTMLInline)
		n.Literal = string(node.Segments.Value(c.source))
		if node.Segments.Len() > 0 {
			first, last := node.Segments.At(0), node.Segments.At(node.Segments.Len()-1)
			n.Span = Span{Start: first.Start, End: last.Stop}
		}
		return n
	case *ast.Emphasis:
		if node.Level >= 2 {
			return NewNode(KindStrongEmphasis)
		}
		return NewNode(KindEmphasis)
	case *ast.CodeSpan:
		return c.convertCodeSpan(node)
	case *ast.Link:
		return c.convertLink(node, KindLink, KindLinkRef, node.Destination, node.Title)
	case *ast.Image:
		return c.convertLink(node, KindImage, KindImageRef, node.Destination, node.Title)
	case *ast.AutoLink:
		kind := KindAutoLink
		if node.AutoLinkType == ast.AutoLinkEmail {
			kind = KindMailLink
		}
		return &Node{Kind: kind, Literal: string(node.Label(c.source))}
	case *macroDefinitionBlock:
		return c.convertDefinition(node)
	case *macroReferenceInline:
		return c.convertReference(node)
	default:
		return nil
	}
}

func (c *converter) convertCodeSpan(node *ast.CodeSpan) *Node {
	var sb strings.Builder
	for child := node.FirstChild(); child != nil; child = child.NextSibling() {
		switch t := child.(type) {
		case *ast.Text:
			segment := t.Segment
			sb.Write(segment.Value(c.source))
		case *ast.String:
			sb.Write(t.Value)
		}
	}
	n := NewNode(KindCode)
	n.Literal = sb.String()
	return n
}

func (c *converter) convertLink(gn ast.Node, kind, refKind Kind, dest, title []byte) *Node {
	n := NewNode(kind)
	n.Destination = string(dest)
	n.Title = string(title)
	if v, ok := gn.AttributeString(refLabelAttr); ok {
		n.Kind = refKind
		if label, ok := v.([]byte); ok {
			n.Label = string(label)
		}
	}
	return n
}

func (c *converter) convertDefinition(node *macroDefinitionBlock) *Node {
	n := NewNode(KindMacroDefinition)
	n.Key = node.Key
	n.Span = Span{Start: node.Start, End: node.Stop}
	if !c.result.Macros.Define(n) {
		c.result.AddWarning("duplicate macro definition %q at offset %d ignored", node.Key, node.Start)
	}
	if !node.Terminated {
		c.result.AddWarning("macro definition %q at offset %d is not terminated", node.Key, node.Start)
	}
	return n
}

func (c *converter) convertReference(node *macroReferenceInline) *Node {
	n := NewNode(KindMacroReference)
	n.Key = node.Key
	segment := node.Segment
	n.Literal = string(segment.Value(c.source))
	n.Span = Span{Start: segment.Start, End: segment.Stop}
	if def, ok := c.result.Macros.Lookup(n.Key); ok {
		c.result.Macros.Link(n, def)
	}
	return n
}

// appendText converts a goldmark text node, splitting character references
// into HTMLEntity nodes and line break flags into break nodes.
func (c *converter) appendText(parent *Node, t *ast.Text) {
	segment := t.Segment
	value := segment.Value(c.source)
	start := segment.Start

	last := 0
	for i := 0; i < len(value); i++ {
		if value[i] != '&' || escapedAt(value, i) {
			continue
		}
		ref := entityRef.Find(value[i:])
		if ref == nil || DecodeEntity(string(ref)) == string(ref) {
			continue
		}
		if i > last {
			parent.AppendChild(textNode(value[last:i], start+last))
		}
		parent.AppendChild(&Node{
			Kind:    KindHTMLEntity,
			Literal: string(ref),
			Span:    Span{Start: start + i, End: start + i + len(ref)},
		})
		i += len(ref) - 1
		last = i + 1
	}
	if last < len(value) {
		parent.AppendChild(textNode(value[last:], start+last))
	}

	switch {
	case t.HardLineBreak():
		parent.AppendChild(&Node{Kind: KindHardLineBreak, Span: Span{Start: segment.Stop, End: segment.Stop}})
	case t.SoftLineBreak():
		parent.AppendChild(&Node{Kind: KindSoftLineBreak, Span: Span{Start: segment.Stop, End: segment.Stop}})
	}
}

func textNode(value []byte, start int) *Node {
	return &Node{
		Kind:    KindText,
		Literal: string(value),
		Span:    Span{Start: start, End: start + len(value)},
	}
}

// escapedAt reports whether value[i] is preceded by an odd number of
// backslashes.
func escapedAt(value []byte, i int) bool {
	count := 0
	for j := i - 1; j >= 0 && value[j] == '\\'; j-- {
		count++
	}
	return count%2 == 1
}

func (c *converter) linesValue(lines *text.Segments) string {
	var sb strings.Builder
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		sb.Write(line.Value(c.source))
	}
	return sb.String()
}

// spanOf derives a span from the node's own lines, falling back to the
// extent of its children.
func (c *converter) spanOf(gn ast.Node, n *Node) Span {
	if gn.Type() == ast.TypeBlock {
		if lines := gn.Lines(); lines != nil && lines.Len() > 0 {
			first, last := lines.At(0), lines.At(lines.Len()-1)
			return Span{Start: first.Start, End: last.Stop}
		}
	}
	if first, last := n.FirstChild(), n.LastChild(); first != nil {
		return Span{Start: first.Span.Start, End: last.Span.End}
	}
	return Span{}
}

// appendReferences adds the link reference definitions to doc as Reference
// nodes, ordered by label.
func (c *converter) appendReferences(doc *Node, refs []parser.Reference) {
	sort.Slice(refs, func(i, j int) bool {
		return bytes.Compare(refs[i].Label(), refs[j].Label()) < 0
	})
	for _, ref := range refs {
		n := NewNode(KindReference)
		n.Label = string(ref.Label())
		n.Destination = string(ref.Destination())
		n.Title = string(ref.Title())
		doc.AppendChild(n)
	}
}
