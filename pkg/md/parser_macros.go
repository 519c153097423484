// parser_macros.go adds the macro definition block and macro reference
// inline syntax to goldmark.
//
//	>>>key
//	body blocks...
//	<<<
//
// defines a macro; <<<key>>> anywhere in inline content references it.
package md

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

var (
	macroOpen  = []byte(">>>")
	macroClose = []byte("<<<")
	macroEnd   = []byte(">>>")
)

var (
	kindMacroDefinitionBlock = ast.NewNodeKind("MacroDefinitionBlock")
	kindMacroReferenceInline = ast.NewNodeKind("MacroReferenceInline")
)

// macroDefinitionBlock is the goldmark node for a macro definition.
type macroDefinitionBlock struct {
	ast.BaseBlock
	Key        string
	Start      int
	Stop       int
	Terminated bool // closing <<< line was seen
}

func (n *macroDefinitionBlock) Kind() ast.NodeKind { return kindMacroDefinitionBlock }

func (n *macroDefinitionBlock) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"Key": n.Key}, nil)
}

// macroReferenceInline is the goldmark node for <<<key>>>.
type macroReferenceInline struct {
	ast.BaseInline
	Key     string
	Segment text.Segment // the whole <<<key>>> notation
}

func (n *macroReferenceInline) Kind() ast.NodeKind { return kindMacroReferenceInline }

func (n *macroReferenceInline) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"Key": n.Key}, nil)
}

type macroDefinitionParser struct{}

func (p *macroDefinitionParser) Trigger() []byte {
	return []byte{'>'}
}

func (p *macroDefinitionParser) Open(parent ast.Node, reader text.Reader, pc parser.Context) (ast.Node, parser.State) {
	for a := parent; a != nil; a = a.Parent() {
		if a.Kind() == kindMacroDefinitionBlock {
			return nil, parser.NoChildren
		}
	}
	pos := pc.BlockOffset()
	if pos < 0 {
		return nil, parser.NoChildren
	}
	line, segment := reader.PeekLine()
	rest := line[pos:]
	if !bytes.HasPrefix(rest, macroOpen) {
		return nil, parser.NoChildren
	}
	key := util.TrimRightSpace(util.TrimLeftSpace(rest[len(macroOpen):]))
	if len(key) == 0 || bytes.Contains(key, macroOpen) {
		return nil, parser.NoChildren
	}

	node := &macroDefinitionBlock{
		Key:   string(key),
		Start: segment.Start + pos - segment.Padding,
		Stop:  segment.Stop,
	}
	reader.AdvanceToEOL()
	return node, parser.HasChildren
}

func (p *macroDefinitionParser) Continue(node ast.Node, reader text.Reader, pc parser.Context) parser.State {
	def := node.(*macroDefinitionBlock)
	line, segment := reader.PeekLine()
	if isMacroCloseLine(line) {
		def.Terminated = true
		def.Stop = segment.Stop
		reader.AdvanceToEOL()
		return parser.Close
	}
	def.Stop = segment.Stop
	return parser.Continue | parser.HasChildren
}

func isMacroCloseLine(line []byte) bool {
	trimmed := util.TrimRightSpace(util.TrimLeftSpace(line))
	return bytes.Equal(trimmed, macroClose)
}

func (p *macroDefinitionParser) Close(node ast.Node, reader text.Reader, pc parser.Context) {}

func (p *macroDefinitionParser) CanInterruptParagraph() bool {
	return true
}

func (p *macroDefinitionParser) CanAcceptIndentedLine() bool {
	return false
}

type macroReferenceParser struct{}

func (p *macroReferenceParser) Trigger() []byte {
	return []byte{'<'}
}

func (p *macroReferenceParser) Parse(parent ast.Node, block text.Reader, pc parser.Context) ast.Node {
	line, segment := block.PeekLine()
	if !bytes.HasPrefix(line, macroClose) {
		return nil
	}
	end := bytes.Index(line[len(macroClose):], macroEnd)
	if end < 0 {
		return nil
	}
	key := line[len(macroClose) : len(macroClose)+end]
	if len(util.TrimLeftSpace(key)) == 0 || bytes.IndexByte(key, '<') >= 0 {
		return nil
	}
	length := len(macroClose) + end + len(macroEnd)
	block.Advance(length)
	return &macroReferenceInline{
		Key:     string(key),
		Segment: text.NewSegment(segment.Start, segment.Start+length),
	}
}

type macroSyntax struct{}

// MacroSyntax is a goldmark extender registering the macro definition and
// reference parsers ahead of the block quote and raw HTML parsers.
var MacroSyntax goldmark.Extender = &macroSyntax{}

func (e *macroSyntax) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(
		parser.WithBlockParsers(
			util.Prioritized(&macroDefinitionParser{}, 90),
		),
		parser.WithInlineParsers(
			util.Prioritized(&macroReferenceParser{}, 90),
		),
	)
}
