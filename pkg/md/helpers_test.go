package md

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// node builds a node of the given kind with children.
func node(kind Kind, children ...*Node) *Node {
	return NewNode(kind).AppendChildren(children...)
}

func txt(s string) *Node {
	return NewText(s)
}

func doc(children ...*Node) *Node {
	return node(KindDocument, children...)
}

func para(children ...*Node) *Node {
	return node(KindParagraph, children...)
}

func heading(level int, children ...*Node) *Node {
	n := node(KindHeading, children...)
	n.Level = level
	return n
}

func withLiteral(kind Kind, literal string) *Node {
	n := NewNode(kind)
	n.Literal = literal
	return n
}

func macroDef(key string, body ...*Node) *Node {
	n := node(KindMacroDefinition, body...)
	n.Key = key
	return n
}

func macroRef(key string) *Node {
	n := NewNode(KindMacroReference)
	n.Key = key
	n.Literal = "<<<" + key + ">>>"
	return n
}

// render renders doc with a fresh renderer and fails the test on error.
func render(t *testing.T, d *Node, opts ...Option) string {
	t.Helper()
	r, err := New(opts...)
	require.NoError(t, err)
	out, err := r.Render(d)
	require.NoError(t, err)
	return out
}
