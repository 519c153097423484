// macros_render.go expands macro references at render time.
package md

import (
	"sort"
	"strconv"
)

// MacroOptions configures the Macros extension.
type MacroOptions struct {
	// SourceWrap wraps every expansion in a span (inline body) or div (block
	// body) carrying the macro key and the reference's source position.
	SourceWrap bool
	// Index appends an ordered list of the referenced macros, numbered by
	// ordinal, after the document.
	Index bool
}

// Macros renders macro references by expanding the referenced definition in
// place. Definitions themselves render nothing.
type Macros struct {
	repo *MacroRepository
	opts MacroOptions
}

// NewMacros returns the macro extension backed by repo.
func NewMacros(repo *MacroRepository, opts MacroOptions) *Macros {
	return &Macros{repo: repo, opts: opts}
}

func (m *Macros) Name() string { return "macros" }

func (m *Macros) Handlers() map[Kind]HandlerFunc {
	return map[Kind]HandlerFunc{
		KindMacroReference:  m.renderReference,
		KindMacroDefinition: func(*Context, *Node) error { return nil },
	}
}

func (m *Macros) Phases() []Phase {
	return []Phase{PhaseBodyTop, PhaseBodyBottom}
}

func (m *Macros) RenderPhase(c *Context, doc *Node, phase Phase) error {
	switch phase {
	case PhaseBodyTop:
		if c.Options().RecheckUndefinedReferences {
			linked := m.repo.Reconcile(doc)
			c.Logger().Debug().Int("linked", linked).Msg("Reconciled forward macro references")
		}
	case PhaseBodyBottom:
		if m.opts.Index {
			m.renderIndex(c)
		}
	}
	return nil
}

// expandingKey is the Context value key of the set of definitions whose
// expansion is in progress.
type expandingKey struct{}

func expandingSet(c *Context) map[*Node]struct{} {
	set, _ := c.Value(expandingKey{}).(map[*Node]struct{})
	if set == nil {
		set = make(map[*Node]struct{})
		c.SetValue(expandingKey{}, set)
	}
	return set
}

// Expanding reports whether def is being expanded in the render c.
func (m *Macros) Expanding(c *Context, def *Node) bool {
	_, ok := expandingSet(c)[def]
	return ok
}

func (m *Macros) renderReference(c *Context, ref *Node) error {
	def, ok := m.repo.Lookup(ref.Key)
	if !ok {
		c.Logger().Debug().Str("key", ref.Key).Msg("Undefined macro, emitting reference text")
		c.Writer().Text(ReferenceLiteral(ref))
		return nil
	}
	if !def.HasChildren() {
		return nil
	}

	set := expandingSet(c)
	if _, busy := set[def]; busy {
		c.Logger().Debug().Str("key", ref.Key).Msg("Recursive macro reference, emitting reference text")
		c.Writer().Text(ReferenceLiteral(ref))
		return nil
	}
	set[def] = struct{}{}
	defer delete(set, def)

	return m.renderBody(c, ref, def)
}

func (m *Macros) renderBody(c *Context, ref, def *Node) error {
	w := c.Writer()
	body := def.FirstChild()
	inline := body == def.LastChild() && body.Kind == KindParagraph

	if !m.opts.SourceWrap {
		if inline {
			return c.RenderChildren(body)
		}
		return c.RenderChildren(def)
	}

	attrs := c.ExtendAttributes(ref, Attributes{{Name: "data-macro", Value: ref.Key}})
	if inline {
		w.SrcPos(ref.Span).Tag("span", attrs)
		if err := c.RenderChildren(body); err != nil {
			return err
		}
		w.Tag("/span", nil)
		return nil
	}

	w.SrcPos(ref.Span).Tag("div", attrs).Indent()
	if err := c.RenderChildren(def); err != nil {
		return err
	}
	w.UnIndent().Tag("/div", nil)
	return nil
}

func (m *Macros) renderIndex(c *Context) {
	type entry struct {
		def     *Node
		ordinal int
	}
	var entries []entry
	for _, def := range m.repo.Definitions() {
		if len(m.repo.References(def)) == 0 {
			continue
		}
		if ord := m.repo.Ordinal(def); ord > 0 {
			entries = append(entries, entry{def: def, ordinal: ord})
		}
	}
	if len(entries) == 0 {
		return
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ordinal < entries[j].ordinal })

	w := c.Writer()
	w.Line().Tag("ol", Attributes{{Name: "class", Value: "macro-index"}}).Line()
	for _, e := range entries {
		w.Tag("li", Attributes{{Name: "value", Value: strconv.Itoa(e.ordinal)}}).
			Text(e.def.Key).
			Tag("/li", nil).
			Line()
	}
	w.Tag("/ol", nil).Line()
}

// ReferenceLiteral returns the source notation of a macro reference.
func ReferenceLiteral(ref *Node) string {
	if ref.Literal != "" {
		return ref.Literal
	}
	return "<<<" + ref.Key + ">>>"
}
