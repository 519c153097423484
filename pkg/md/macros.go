// macros.go holds the macro definition repository and the side tables that
// link references to definitions.
package md

import (
	"sort"
	"sync"

	"golang.org/x/text/cases"
)

// MacroRepository maps normalized macro keys to definition nodes.
// The tree itself is never modified; resolved links and ordinals live in
// tables keyed by node identity.
//
// MacroRepository is safe for concurrent use.
type MacroRepository struct {
	mu       sync.RWMutex
	defs     map[string]*Node // normalized key -> definition
	order    []*Node          // registered definitions in document order
	resolved map[*Node]*Node  // reference -> definition
	refs     map[*Node][]*Node
	ordinals map[*Node]int
}

// NewMacroRepository returns an empty repository.
func NewMacroRepository() *MacroRepository {
	return &MacroRepository{
		defs:     make(map[string]*Node),
		resolved: make(map[*Node]*Node),
		refs:     make(map[*Node][]*Node),
		ordinals: make(map[*Node]int),
	}
}

// NormalizeKey folds case and collapses whitespace so that "Foo  Bar" and
// "foo bar" name the same macro.
func NormalizeKey(key string) string {
	return cases.Fold().String(CollapseWhitespace(key, true))
}

// Define registers def under its normalized key. The first definition of a
// key wins; Define reports false for a duplicate and leaves it unregistered.
func (r *MacroRepository) Define(def *Node) bool {
	key := NormalizeKey(def.Key)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.defs[key]; exists {
		return false
	}
	r.defs[key] = def
	r.order = append(r.order, def)
	return true
}

// Lookup returns the definition registered for key.
func (r *MacroRepository) Lookup(key string) (*Node, bool) {
	key = NormalizeKey(key)

	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.defs[key]
	return def, ok
}

// Len returns the number of registered definitions.
func (r *MacroRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Definitions returns the registered definitions in document order.
func (r *MacroRepository) Definitions() []*Node {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Node, len(r.order))
	copy(out, r.order)
	return out
}

// Link records that ref resolves to def. Linking an already linked
// reference is a no-op.
func (r *MacroRepository) Link(ref, def *Node) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.link(ref, def)
}

func (r *MacroRepository) link(ref, def *Node) bool {
	if _, linked := r.resolved[ref]; linked {
		return false
	}
	r.resolved[ref] = def

	refs := r.refs[def]
	i := sort.Search(len(refs), func(i int) bool { return refs[i].Span.Start > ref.Span.Start })
	refs = append(refs, nil)
	copy(refs[i+1:], refs[i:])
	refs[i] = ref
	r.refs[def] = refs
	return true
}

// Resolved returns the definition ref has been linked to.
func (r *MacroRepository) Resolved(ref *Node) (*Node, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.resolved[ref]
	return def, ok
}

// References returns the references linked to def in document order.
func (r *MacroRepository) References(def *Node) []*Node {
	r.mu.RLock()
	defer r.mu.RUnlock()

	refs := r.refs[def]
	out := make([]*Node, len(refs))
	copy(out, refs)
	return out
}

// Ordinal returns the position of def in the ordinal sequence, or 0 when def
// is not registered or ordinals have not been computed.
func (r *MacroRepository) Ordinal(def *Node) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.ordinals[def]
}

// ResolveOrdinals numbers every definition 1..n. Referenced definitions come
// first, ordered by the position of their first reference, followed by the
// unreferenced ones in document order.
func (r *MacroRepository) ResolveOrdinals() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resolveOrdinals()
}

func (r *MacroRepository) resolveOrdinals() {
	var referenced, unreferenced []*Node
	for _, def := range r.order {
		if len(r.refs[def]) > 0 {
			referenced = append(referenced, def)
		} else {
			unreferenced = append(unreferenced, def)
		}
	}
	sort.SliceStable(referenced, func(i, j int) bool {
		a, b := r.refs[referenced[i]][0].Span.Start, r.refs[referenced[j]][0].Span.Start
		if a != b {
			return a < b
		}
		return referenced[i].Span.Start < referenced[j].Span.Start
	})

	ordinals := make(map[*Node]int, len(r.order))
	next := 1
	for _, group := range [][]*Node{referenced, unreferenced} {
		for _, def := range group {
			ordinals[def] = next
			next++
		}
	}
	r.ordinals = ordinals
}

// Reconcile links every unresolved macro reference under doc whose key now
// has a definition, and recomputes ordinals when any new link formed. It
// returns the number of new links.
func (r *MacroRepository) Reconcile(doc *Node) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	linked := 0
	doc.Walk(func(n *Node, entering bool) WalkStatus {
		if !entering || n.Kind != KindMacroReference {
			return GoToNext
		}
		if _, ok := r.resolved[n]; ok {
			return GoToNext
		}
		if def, ok := r.defs[NormalizeKey(n.Key)]; ok && r.link(n, def) {
			linked++
		}
		return GoToNext
	})
	if linked > 0 {
		r.resolveOrdinals()
	}
	return linked
}
