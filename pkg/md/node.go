// node.go defines the document tree consumed by the renderer.
package md

import "fmt"

// Kind identifies the concrete type of a Node.
type Kind int

const (
	KindDocument Kind = iota
	KindHeading
	KindParagraph
	KindBulletList
	KindOrderedList
	KindListItem
	KindBlockQuote
	KindFencedCodeBlock
	KindIndentedCodeBlock
	KindThematicBreak
	KindHTMLBlock
	KindHTMLInline
	KindHTMLEntity
	KindText
	KindEmphasis
	KindStrongEmphasis
	KindCode
	KindLink
	KindImage
	KindLinkRef
	KindImageRef
	KindAutoLink
	KindMailLink
	KindSoftLineBreak
	KindHardLineBreak
	KindReference
	KindCustomBlock
	KindCustomNode
	KindMacroDefinition
	KindMacroReference

	kindCount // number of kinds, keep last
)

var kindNames = [kindCount]string{
	KindDocument:          "Document",
	KindHeading:           "Heading",
	KindParagraph:         "Paragraph",
	KindBulletList:        "BulletList",
	KindOrderedList:       "OrderedList",
	KindListItem:          "ListItem",
	KindBlockQuote:        "BlockQuote",
	KindFencedCodeBlock:   "FencedCodeBlock",
	KindIndentedCodeBlock: "IndentedCodeBlock",
	KindThematicBreak:     "ThematicBreak",
	KindHTMLBlock:         "HTMLBlock",
	KindHTMLInline:        "HTMLInline",
	KindHTMLEntity:        "HTMLEntity",
	KindText:              "Text",
	KindEmphasis:          "Emphasis",
	KindStrongEmphasis:    "StrongEmphasis",
	KindCode:              "Code",
	KindLink:              "Link",
	KindImage:             "Image",
	KindLinkRef:           "LinkRef",
	KindImageRef:          "ImageRef",
	KindAutoLink:          "AutoLink",
	KindMailLink:          "MailLink",
	KindSoftLineBreak:     "SoftLineBreak",
	KindHardLineBreak:     "HardLineBreak",
	KindReference:         "Reference",
	KindCustomBlock:       "CustomBlock",
	KindCustomNode:        "CustomNode",
	KindMacroDefinition:   "MacroDefinition",
	KindMacroReference:    "MacroReference",
}

func (k Kind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool {
	return k >= 0 && k < kindCount
}

// IsBlock reports whether nodes of this kind are block-level.
func (k Kind) IsBlock() bool {
	switch k {
	case KindDocument, KindHeading, KindParagraph, KindBulletList, KindOrderedList,
		KindListItem, KindBlockQuote, KindFencedCodeBlock, KindIndentedCodeBlock,
		KindThematicBreak, KindHTMLBlock, KindReference, KindCustomBlock, KindMacroDefinition:
		return true
	}
	return false
}

// IsList reports whether k is one of the list kinds.
func (k Kind) IsList() bool {
	return k == KindBulletList || k == KindOrderedList
}

// Span is a half-open byte range into the parsed source.
type Span struct {
	Start int
	End   int
}

// String formats the span as "start-end".
func (s Span) String() string {
	return fmt.Sprintf("%d-%d", s.Start, s.End)
}

// IsZero reports whether the span carries no position.
func (s Span) IsZero() bool {
	return s.Start == 0 && s.End == 0
}

// HeadingData holds heading-specific fields.
type HeadingData struct {
	Level int    // 1..6
	ID    string // anchor id assigned by the parser, may be empty
}

// ListData holds list-specific fields.
type ListData struct {
	Tight bool
	Start int // first number of an ordered list
}

// CodeBlockData holds the info string of a fenced code block.
type CodeBlockData struct {
	Info string
}

// LinkData holds link and image fields. An empty Destination on a LinkRef or
// ImageRef means the reference did not resolve.
type LinkData struct {
	Destination string
	Title       string
	Label       string // reference label for LinkRef, ImageRef and Reference
}

// MacroData holds the key of a macro definition or the lookup text of a
// macro reference.
type MacroData struct {
	Key string
}

// Node is a single element of the document tree. The Kind selects which of
// the payload structs are meaningful.
type Node struct {
	Kind Kind
	Span Span

	// Literal is the textual content of leaf nodes: text, code, raw HTML,
	// code block content, entity source, autolink content, and the original
	// notation of a macro reference.
	Literal string

	// Name identifies CustomBlock and CustomNode subtypes.
	Name string

	HeadingData
	ListData
	CodeBlockData
	LinkData
	MacroData

	parent *Node
	first  *Node
	last   *Node
	prev   *Node
	next   *Node
}

// NewNode allocates a detached node of the given kind. Ordered lists start
// at 1.
func NewNode(kind Kind) *Node {
	n := &Node{Kind: kind}
	if kind == KindOrderedList {
		n.Start = 1
	}
	return n
}

// NewText allocates a Text node with the given literal.
func NewText(literal string) *Node {
	return &Node{Kind: KindText, Literal: literal}
}

func (n *Node) Parent() *Node      { return n.parent }
func (n *Node) FirstChild() *Node  { return n.first }
func (n *Node) LastChild() *Node   { return n.last }
func (n *Node) NextSibling() *Node { return n.next }
func (n *Node) PrevSibling() *Node { return n.prev }

// HasChildren reports whether n has at least one child.
func (n *Node) HasChildren() bool {
	return n.first != nil
}

// ChildCount returns the number of direct children.
func (n *Node) ChildCount() int {
	count := 0
	for c := n.first; c != nil; c = c.next {
		count++
	}
	return count
}

// AppendChild adds child as the last child of n, detaching it first.
// It returns n so calls can be chained while building trees.
func (n *Node) AppendChild(child *Node) *Node {
	child.Unlink()
	child.parent = n
	if n.last != nil {
		n.last.next = child
		child.prev = n.last
		n.last = child
	} else {
		n.first = child
		n.last = child
	}
	return n
}

// AppendChildren appends each child in order.
func (n *Node) AppendChildren(children ...*Node) *Node {
	for _, c := range children {
		n.AppendChild(c)
	}
	return n
}

// InsertBefore inserts sibling immediately before n.
func (n *Node) InsertBefore(sibling *Node) {
	sibling.Unlink()
	sibling.parent = n.parent
	sibling.prev = n.prev
	sibling.next = n
	if n.prev != nil {
		n.prev.next = sibling
	} else if n.parent != nil {
		n.parent.first = sibling
	}
	n.prev = sibling
}

// InsertAfter inserts sibling immediately after n.
func (n *Node) InsertAfter(sibling *Node) {
	sibling.Unlink()
	sibling.parent = n.parent
	sibling.next = n.next
	sibling.prev = n
	if n.next != nil {
		n.next.prev = sibling
	} else if n.parent != nil {
		n.parent.last = sibling
	}
	n.next = sibling
}

// Unlink removes n from its parent and siblings. Children stay attached.
func (n *Node) Unlink() {
	if n.prev != nil {
		n.prev.next = n.next
	} else if n.parent != nil {
		n.parent.first = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else if n.parent != nil {
		n.parent.last = n.prev
	}
	n.parent = nil
	n.next = nil
	n.prev = nil
}

// WalkStatus tells Walk how to continue after visiting a node.
type WalkStatus int

const (
	// GoToNext continues with the next node in document order.
	GoToNext WalkStatus = iota
	// SkipChildren skips the children of the node just entered.
	SkipChildren
	// Terminate stops the walk.
	Terminate
)

// Visitor is called twice for every node with children: once entering and
// once leaving. Leaf nodes are only entered.
type Visitor func(n *Node, entering bool) WalkStatus

// Walk traverses the subtree rooted at n depth first.
func (n *Node) Walk(visit Visitor) {
	walk(n, visit)
}

func walk(n *Node, visit Visitor) WalkStatus {
	status := visit(n, true)
	switch status {
	case Terminate:
		return Terminate
	case SkipChildren:
		return GoToNext
	}
	if n.first == nil {
		return GoToNext
	}
	for c := n.first; c != nil; {
		next := c.next
		if walk(c, visit) == Terminate {
			return Terminate
		}
		c = next
	}
	if visit(n, false) == Terminate {
		return Terminate
	}
	return GoToNext
}

// Document returns the root of the tree n belongs to.
func (n *Node) Document() *Node {
	root := n
	for root.parent != nil {
		root = root.parent
	}
	return root
}
