// extension.go defines the contracts extensions implement to take over node
// kinds and hook document-level phases.
package md

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateClaim is returned by New when two extensions claim the same
	// node kind under ClaimStrict.
	ErrDuplicateClaim = errors.New("node kind claimed by more than one extension")

	// ErrUnknownKind is returned by New when an extension claims a kind that
	// is not declared.
	ErrUnknownKind = errors.New("unknown node kind")
)

// HandlerFunc renders a single node. Handlers write through c.Writer() and
// render children back through c.
type HandlerFunc func(c *Context, n *Node) error

// Extension takes over the rendering of one or more node kinds.
type Extension interface {
	Name() string
	Handlers() map[Kind]HandlerFunc
}

// PhasedExtension is an Extension that also runs at document-level phases.
type PhasedExtension interface {
	Extension
	Phases() []Phase
	RenderPhase(c *Context, doc *Node, phase Phase) error
}

// Phase is a document-level checkpoint of a render.
type Phase int

const (
	PhaseBodyTop    Phase = iota // before any node output
	PhaseBody                    // immediately before the document is dispatched
	PhaseBodyBottom              // after the document has been rendered
)

// renderPhases lists the phases in the order they run.
var renderPhases = []Phase{PhaseBodyTop, PhaseBody, PhaseBodyBottom}

func (p Phase) String() string {
	switch p {
	case PhaseBodyTop:
		return "body-top"
	case PhaseBody:
		return "body"
	case PhaseBodyBottom:
		return "body-bottom"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// ClaimPolicy decides what New does when two extensions claim the same kind.
type ClaimPolicy int

const (
	// ClaimStrict rejects the configuration with ErrDuplicateClaim.
	ClaimStrict ClaimPolicy = iota
	// ClaimLastWins keeps the handler of the extension registered last.
	ClaimLastWins
)

func (p ClaimPolicy) String() string {
	switch p {
	case ClaimStrict:
		return "strict"
	case ClaimLastWins:
		return "last-wins"
	default:
		return fmt.Sprintf("ClaimPolicy(%d)", int(p))
	}
}

// ParseClaimPolicy maps a configuration value to a ClaimPolicy.
func ParseClaimPolicy(s string) (ClaimPolicy, error) {
	switch s {
	case "", "strict":
		return ClaimStrict, nil
	case "last-wins":
		return ClaimLastWins, nil
	default:
		return ClaimStrict, fmt.Errorf("invalid claim policy %q: must be strict or last-wins", s)
	}
}
