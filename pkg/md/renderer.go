package md

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
)

// Options configures a Renderer.
type Options struct {
	EscapeHTML                 bool                // escape raw HTML blocks and inlines instead of passing them through
	SoftBreak                  string              // emitted for soft line breaks
	URLEncoder                 func(string) string // applied to link and image destinations
	AttributeExtenders         []AttributeExtender
	Extensions                 []Extension
	ClaimPolicy                ClaimPolicy
	RecheckUndefinedReferences bool   // resolve forward macro references before rendering
	IndentSize                 int    // spaces per indentation level of wrapped blocks
	SourcePosAttribute         string // attribute carrying source positions
	Logger                     zerolog.Logger
}

// Option mutates Options.
type Option func(*Options)

// DefaultOptions returns the options New starts from.
func DefaultOptions() Options {
	return Options{
		SoftBreak:          "\n",
		URLEncoder:         EncodeURL,
		IndentSize:         0,
		SourcePosAttribute: DefaultSourcePosAttribute,
		Logger:             zerolog.Nop(),
	}
}

func WithEscapeHTML(escape bool) Option {
	return func(o *Options) { o.EscapeHTML = escape }
}

func WithSoftBreak(s string) Option {
	return func(o *Options) { o.SoftBreak = s }
}

// WithURLEncoder replaces the destination encoder. A nil encoder leaves
// destinations untouched.
func WithURLEncoder(fn func(string) string) Option {
	return func(o *Options) {
		if fn == nil {
			fn = func(s string) string { return s }
		}
		o.URLEncoder = fn
	}
}

func WithAttributeExtender(ext AttributeExtender) Option {
	return func(o *Options) { o.AttributeExtenders = append(o.AttributeExtenders, ext) }
}

// WithExtensions registers extensions. Registration order decides phase call
// order and, under ClaimLastWins, which handler is kept.
func WithExtensions(exts ...Extension) Option {
	return func(o *Options) { o.Extensions = append(o.Extensions, exts...) }
}

func WithClaimPolicy(p ClaimPolicy) Option {
	return func(o *Options) { o.ClaimPolicy = p }
}

func WithRecheckUndefinedReferences(recheck bool) Option {
	return func(o *Options) { o.RecheckUndefinedReferences = recheck }
}

func WithIndent(size int) Option {
	return func(o *Options) {
		if size >= 0 {
			o.IndentSize = size
		}
	}
}

func WithSourcePosAttribute(name string) Option {
	return func(o *Options) { o.SourcePosAttribute = name }
}

func WithLogger(l zerolog.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

// Renderer turns a node tree into HTML. A Renderer is immutable after New and
// may be used from multiple goroutines.
type Renderer struct {
	opts     Options
	handlers map[Kind]HandlerFunc
	owners   map[Kind]string
	phased   map[Phase][]PhasedExtension
}

// New builds a Renderer and validates extension claims.
func New(opts ...Option) (*Renderer, error) {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	r := &Renderer{
		opts:     o,
		handlers: make(map[Kind]HandlerFunc),
		owners:   make(map[Kind]string),
		phased:   make(map[Phase][]PhasedExtension),
	}

	var result *multierror.Error
	for _, ext := range o.Extensions {
		if err := r.register(ext); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if err := result.ErrorOrNil(); err != nil {
		return nil, fmt.Errorf("invalid renderer configuration: %w", err)
	}
	return r, nil
}

func (r *Renderer) register(ext Extension) error {
	var result *multierror.Error
	name := ext.Name()

	handlers := ext.Handlers()
	kinds := make([]Kind, 0, len(handlers))
	for k := range handlers {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })

	for _, k := range kinds {
		fn := handlers[k]
		if !k.Valid() {
			result = multierror.Append(result, fmt.Errorf("extension %q: %w: %s", name, ErrUnknownKind, k))
			continue
		}
		if fn == nil {
			continue
		}
		if prev, claimed := r.owners[k]; claimed {
			if r.opts.ClaimPolicy == ClaimStrict {
				result = multierror.Append(result,
					fmt.Errorf("%w: %s claimed by %q and %q", ErrDuplicateClaim, k, prev, name))
				continue
			}
			r.opts.Logger.Debug().
				Str("kind", k.String()).
				Str("previous", prev).
				Str("extension", name).
				Msg("Node handler overridden")
		}
		r.handlers[k] = fn
		r.owners[k] = name
	}

	if pe, ok := ext.(PhasedExtension); ok {
		for _, p := range pe.Phases() {
			if !validPhase(p) {
				result = multierror.Append(result, fmt.Errorf("extension %q: unknown phase %s", name, p))
				continue
			}
			r.phased[p] = append(r.phased[p], pe)
		}
	}
	return result.ErrorOrNil()
}

func validPhase(p Phase) bool {
	for _, known := range renderPhases {
		if p == known {
			return true
		}
	}
	return false
}

// Options returns a copy of the renderer's options.
func (r *Renderer) Options() Options {
	return r.opts
}

// Owner returns the name of the extension handling kind, if any.
func (r *Renderer) Owner(kind Kind) (string, bool) {
	name, ok := r.owners[kind]
	return name, ok
}

// Render renders doc and returns the HTML.
func (r *Renderer) Render(doc *Node) (string, error) {
	var sb strings.Builder
	if err := r.RenderTo(&sb, doc); err != nil {
		return sb.String(), err
	}
	return sb.String(), nil
}

// RenderTo renders doc to w. Output written before a failure is left in w.
func (r *Renderer) RenderTo(w io.Writer, doc *Node) error {
	hw := NewHTMLWriter(w, r.opts.IndentSize)
	hw.SetSourcePosAttribute(r.opts.SourcePosAttribute)
	c := &Context{
		r:      r,
		w:      hw,
		doc:    doc,
		log:    r.opts.Logger,
		values: make(map[any]any),
	}

	if err := c.runPhase(PhaseBodyTop); err != nil {
		return err
	}
	if err := c.runPhase(PhaseBody); err != nil {
		return err
	}
	if err := c.Render(doc); err != nil {
		return err
	}
	return c.runPhase(PhaseBodyBottom)
}

// Context is the state of a single render. It is passed to every handler and
// phase hook and must not be retained after the render returns.
type Context struct {
	r      *Renderer
	w      *HTMLWriter
	doc    *Node
	log    zerolog.Logger
	values map[any]any
}

func (c *Context) runPhase(p Phase) error {
	for _, ext := range c.r.phased[p] {
		if err := ext.RenderPhase(c, c.doc, p); err != nil {
			return fmt.Errorf("%s phase of %q: %w", p, ext.Name(), err)
		}
		if err := c.w.Err(); err != nil {
			return err
		}
	}
	return nil
}

// Writer returns the output sink.
func (c *Context) Writer() *HTMLWriter { return c.w }

// Document returns the root being rendered.
func (c *Context) Document() *Node { return c.doc }

// Options returns the renderer options.
func (c *Context) Options() Options { return c.r.opts }

// Logger returns the render logger.
func (c *Context) Logger() *zerolog.Logger { return &c.log }

// SoftBreak returns the soft line break substitution.
func (c *Context) SoftBreak() string { return c.r.opts.SoftBreak }

// EscapeHTML reports whether raw HTML is escaped.
func (c *Context) EscapeHTML() bool { return c.r.opts.EscapeHTML }

// EncodeURL applies the configured destination encoder.
func (c *Context) EncodeURL(s string) string { return c.r.opts.URLEncoder(s) }

// Value returns render-scoped state stored under key.
func (c *Context) Value(key any) any { return c.values[key] }

// SetValue stores render-scoped state. A nil value removes the key.
func (c *Context) SetValue(key, value any) {
	if value == nil {
		delete(c.values, key)
		return
	}
	c.values[key] = value
}

// Render dispatches n to the extension that claimed its kind, falling back
// to the built-in rule. Kinds with neither render nothing.
func (c *Context) Render(n *Node) error {
	fn, ok := c.r.handlers[n.Kind]
	if !ok {
		fn = coreHandler(n.Kind)
	}
	if fn != nil {
		if err := fn(c, n); err != nil {
			return err
		}
	}
	return c.w.Err()
}

// RenderDefault renders n with the built-in rule, bypassing extensions for
// n itself. Children are dispatched normally.
func (c *Context) RenderDefault(n *Node) error {
	if fn := coreHandler(n.Kind); fn != nil {
		if err := fn(c, n); err != nil {
			return err
		}
	}
	return c.w.Err()
}

// RenderChildren renders every child of n in order.
func (c *Context) RenderChildren(n *Node) error {
	for child := n.FirstChild(); child != nil; {
		next := child.NextSibling()
		if err := c.Render(child); err != nil {
			return err
		}
		child = next
	}
	return nil
}

// ExtendAttributes returns defaults followed by the attributes contributed
// by the configured extenders. An extender value replaces a default with the
// same name in place.
func (c *Context) ExtendAttributes(n *Node, defaults Attributes) Attributes {
	if len(c.r.opts.AttributeExtenders) == 0 {
		return defaults
	}
	attrs := defaults
	for _, ext := range c.r.opts.AttributeExtenders {
		if extra := ext(n); len(extra) > 0 {
			attrs = attrs.Merge(extra)
		}
	}
	return attrs
}
