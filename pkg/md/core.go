// core.go holds the built-in render rule for every canonical node kind.
package md

import (
	"strconv"
	"strings"
)

// coreHandler returns the built-in rule for kind, or nil when nodes of that
// kind produce no output by default.
func coreHandler(kind Kind) HandlerFunc {
	switch kind {
	case KindDocument:
		return renderDocument
	case KindHeading:
		return renderHeading
	case KindParagraph:
		return renderParagraph
	case KindBlockQuote:
		return renderBlockQuote
	case KindBulletList, KindOrderedList:
		return renderList
	case KindListItem:
		return renderListItem
	case KindFencedCodeBlock:
		return renderFencedCodeBlock
	case KindIndentedCodeBlock:
		return renderIndentedCodeBlock
	case KindThematicBreak:
		return renderThematicBreak
	case KindHTMLBlock:
		return renderHTMLBlock
	case KindHTMLInline:
		return renderHTMLInline
	case KindHTMLEntity:
		return renderHTMLEntity
	case KindText:
		return renderText
	case KindEmphasis:
		return renderWrapped("em")
	case KindStrongEmphasis:
		return renderWrapped("strong")
	case KindCode:
		return renderCode
	case KindAutoLink:
		return renderAutoLink
	case KindMailLink:
		return renderMailLink
	case KindLink:
		return renderLink
	case KindLinkRef:
		return renderLinkRef
	case KindImage:
		return renderImage
	case KindImageRef:
		return renderImageRef
	case KindSoftLineBreak:
		return renderSoftLineBreak
	case KindHardLineBreak:
		return renderHardLineBreak
	}
	// Reference, custom kinds and macro kinds without an extension.
	return nil
}

func renderDocument(c *Context, n *Node) error {
	return c.RenderChildren(n)
}

func renderHeading(c *Context, n *Node) error {
	level := n.Level
	if level < 1 {
		level = 1
	} else if level > 6 {
		level = 6
	}
	tag := "h" + strconv.Itoa(level)

	w := c.Writer()
	w.Line().Tag(tag, c.ExtendAttributes(n, nil))
	if err := c.RenderChildren(n); err != nil {
		return err
	}
	w.Tag("/"+tag, nil).Line()
	return nil
}

func renderParagraph(c *Context, n *Node) error {
	if inTightList(n) {
		return c.RenderChildren(n)
	}
	w := c.Writer()
	w.Line().Tag("p", c.ExtendAttributes(n, nil))
	if err := c.RenderChildren(n); err != nil {
		return err
	}
	w.Tag("/p", nil).Line()
	return nil
}

// inTightList reports whether n is a paragraph directly inside an item of a
// tight list.
func inTightList(n *Node) bool {
	item := n.Parent()
	if item == nil || item.Kind != KindListItem {
		return false
	}
	list := item.Parent()
	return list != nil && list.Kind.IsList() && list.Tight
}

func renderBlockQuote(c *Context, n *Node) error {
	return renderBlockContainer(c, n, "blockquote", nil)
}

func renderList(c *Context, n *Node) error {
	if n.Kind == KindOrderedList {
		var attrs Attributes
		if n.Start != 1 {
			attrs = Attributes{{Name: "start", Value: strconv.Itoa(n.Start)}}
		}
		return renderBlockContainer(c, n, "ol", attrs)
	}
	return renderBlockContainer(c, n, "ul", nil)
}

// renderBlockContainer puts the opening and closing tags on their own lines.
func renderBlockContainer(c *Context, n *Node, tag string, defaults Attributes) error {
	w := c.Writer()
	w.Line().Tag(tag, c.ExtendAttributes(n, defaults)).Line()
	if err := c.RenderChildren(n); err != nil {
		return err
	}
	w.Line().Tag("/"+tag, nil).Line()
	return nil
}

func renderListItem(c *Context, n *Node) error {
	w := c.Writer()
	w.Tag("li", c.ExtendAttributes(n, nil))
	if err := c.RenderChildren(n); err != nil {
		return err
	}
	w.Tag("/li", nil).Line()
	return nil
}

func renderFencedCodeBlock(c *Context, n *Node) error {
	var attrs Attributes
	if lang := CodeLanguage(n.Info); lang != "" {
		attrs = Attributes{{Name: "class", Value: "language-" + lang}}
	}
	renderCodeBlock(c, n, n.Literal, attrs)
	return nil
}

// CodeLanguage returns the language named by a fenced code info string: its
// first space-delimited word, unescaped.
func CodeLanguage(info string) string {
	info = strings.TrimSpace(info)
	if info == "" {
		return ""
	}
	if i := strings.IndexByte(info, ' '); i >= 0 {
		info = info[:i]
	}
	return UnescapeString(info)
}

func renderIndentedCodeBlock(c *Context, n *Node) error {
	literal := TrimTailBlankLines(NormalizeEOL(n.Literal))
	if !strings.HasSuffix(literal, "\n") {
		literal += "\n"
	}
	renderCodeBlock(c, n, literal, nil)
	return nil
}

func renderCodeBlock(c *Context, n *Node, literal string, defaults Attributes) {
	c.Writer().
		Line().
		Tag("pre", nil).
		Tag("code", c.ExtendAttributes(n, defaults)).
		Text(NormalizeEOL(literal)).
		Tag("/code", nil).
		Tag("/pre", nil).
		Line()
}

func renderThematicBreak(c *Context, n *Node) error {
	c.Writer().Line().VoidTag("hr", c.ExtendAttributes(n, nil)).Line()
	return nil
}

func renderHTMLBlock(c *Context, n *Node) error {
	w := c.Writer()
	w.Line()
	writeRawHTML(c, n.Literal)
	w.Line()
	return nil
}

func renderHTMLInline(c *Context, n *Node) error {
	writeRawHTML(c, n.Literal)
	return nil
}

func writeRawHTML(c *Context, literal string) {
	literal = NormalizeEOL(literal)
	if c.EscapeHTML() {
		c.Writer().Text(literal)
		return
	}
	c.Writer().Raw(literal)
}

func renderHTMLEntity(c *Context, n *Node) error {
	c.Writer().Text(UnescapeString(n.Literal))
	return nil
}

func renderText(c *Context, n *Node) error {
	c.Writer().Text(UnescapeString(NormalizeEOL(n.Literal)))
	return nil
}

func renderWrapped(tag string) HandlerFunc {
	return func(c *Context, n *Node) error {
		w := c.Writer()
		w.Tag(tag, c.ExtendAttributes(n, nil))
		if err := c.RenderChildren(n); err != nil {
			return err
		}
		w.Tag("/"+tag, nil)
		return nil
	}
}

func renderCode(c *Context, n *Node) error {
	c.Writer().
		Tag("code", c.ExtendAttributes(n, nil)).
		Text(CollapseWhitespace(n.Literal, true)).
		Tag("/code", nil)
	return nil
}

func renderAutoLink(c *Context, n *Node) error {
	href := c.EncodeURL(n.Literal)
	c.Writer().
		Tag("a", c.ExtendAttributes(n, Attributes{{Name: "href", Value: href}})).
		Text(n.Literal).
		Tag("/a", nil)
	return nil
}

func renderMailLink(c *Context, n *Node) error {
	url := c.EncodeURL(UnescapeString(n.Literal))
	c.Writer().
		Tag("a", c.ExtendAttributes(n, Attributes{{Name: "href", Value: "mailto:" + url}})).
		Text(url).
		Tag("/a", nil)
	return nil
}

func renderLink(c *Context, n *Node) error {
	w := c.Writer()
	w.Tag("a", c.ExtendAttributes(n, linkAttributes(c, n, "href")))
	if err := c.RenderChildren(n); err != nil {
		return err
	}
	w.Tag("/a", nil)
	return nil
}

func renderLinkRef(c *Context, n *Node) error {
	if n.Destination == "" {
		return renderUnresolved(c, n, "[")
	}
	return renderLink(c, n)
}

func renderImage(c *Context, n *Node) error {
	attrs := linkAttributes(c, n, "src", Attribute{Name: "alt", Value: AltText(n)})
	c.Writer().VoidTag("img", c.ExtendAttributes(n, attrs))
	return nil
}

func renderImageRef(c *Context, n *Node) error {
	if n.Destination == "" {
		return renderUnresolved(c, n, "![")
	}
	return renderImage(c, n)
}

// renderUnresolved writes a reference whose label matched no definition as
// the bracketed source text.
func renderUnresolved(c *Context, n *Node, open string) error {
	w := c.Writer()
	w.Raw(open)
	if err := c.RenderChildren(n); err != nil {
		return err
	}
	w.Raw("]")
	return nil
}

// linkAttributes returns the destination attribute, then extra, then the
// title when one is set.
func linkAttributes(c *Context, n *Node, destAttr string, extra ...Attribute) Attributes {
	attrs := Attributes{{Name: destAttr, Value: c.EncodeURL(UnescapeString(n.Destination))}}
	attrs = append(attrs, extra...)
	if n.Title != "" {
		attrs = append(attrs, Attribute{Name: "title", Value: UnescapeString(n.Title)})
	}
	return attrs
}

func renderSoftLineBreak(c *Context, _ *Node) error {
	c.Writer().Raw(c.SoftBreak())
	return nil
}

func renderHardLineBreak(c *Context, _ *Node) error {
	c.Writer().VoidTag("br", nil).Line()
	return nil
}

// AltText flattens the descendants of an image into plain text: text is
// unescaped, entities are decoded and line breaks become newlines.
func AltText(n *Node) string {
	var sb strings.Builder
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		child.Walk(func(d *Node, entering bool) WalkStatus {
			if !entering {
				return GoToNext
			}
			switch d.Kind {
			case KindText, KindHTMLEntity:
				sb.WriteString(UnescapeString(d.Literal))
			case KindSoftLineBreak, KindHardLineBreak:
				sb.WriteByte('\n')
			}
			return GoToNext
		})
	}
	return sb.String()
}
