package liblam

import (
	"github.com/lamnet-systems/golam/golam"
	"github.com/pkg/errors"
)

// Encode compiles a λ-term into a fresh net rooted at a marker node.
func Encode(term *golam.Term) (*Net, error) {
	net := NewNet()
	if err := net.Encode(term); err != nil {
		return nil, err
	}
	return net, nil
}

// Encode builds the net for term inside this Net.  The Net should be fresh
// or Reset; encoding does not clear previous contents.
func (net *Net) Encode(term *golam.Term) error {
	if term == nil {
		return golam.ErrNilTerm
	}
	root := net.allocNode(KindRoot, TagRoot)
	net.root = root
	net.link(MakePort(root, 1), MakePort(root, 2))
	return net.encodeAt(term, MakePort(root, 0), nil)
}

// encodeAt translates one term node, attaching its image to the up link.
// The caller decides placement before the callee exists, so the scheme is
// continuation-passing: up is where this subterm's root connection lands.
//
// scope is the chain of enclosing Lam nodes, indexed by de Bruijn distance
// (scope[0] is the nearest binder).
func (net *Net) encodeAt(term *golam.Term, up PortRef, scope []NodeID) error {
	switch term.Kind {

	case golam.TermLam:
		// The eraser models "variable unused unless claimed": its aux ports
		// chase each other so every port is wired from birth.
		era := net.allocNode(KindEra, TagEra)
		net.link(MakePort(era, 1), MakePort(era, 2))
		lam := net.allocNode(KindLam, TagCon)
		net.link(MakePort(lam, 0), up)
		net.link(MakePort(lam, 1), MakePort(era, 0))
		return net.encodeAt(term.Body, MakePort(lam, 2), append([]NodeID{lam}, scope...))

	case golam.TermApp:
		app := net.allocNode(KindApp, TagCon)
		net.link(MakePort(app, 2), up)
		if err := net.encodeAt(term.Fn, MakePort(app, 0), scope); err != nil {
			return err
		}
		return net.encodeAt(term.Arg, MakePort(app, 1), scope)

	default: // golam.TermVar
		idx := int(term.Index)
		if idx < 0 || idx >= len(scope) {
			return errors.Wrapf(golam.ErrFreeVariable, "index %d with %d binders in scope", idx, len(scope))
		}
		lam := scope[idx]
		prev := net.enter(MakePort(lam, 1))
		if net.kindOf(prev.Node()) == KindEra && prev.Slot() == 0 {
			// First reference claims the binder directly.
			net.freeNode(prev.Node())
			net.link(MakePort(lam, 1), up)
			return nil
		}
		// Later references splice a fresh-tagged duplicator into the chain,
		// so every use site shares the binder's one value.  The actual copy
		// is deferred until reduction.
		dup := net.allocNode(KindDup, net.freshDupTag())
		net.link(MakePort(dup, 1), prev)
		net.link(MakePort(dup, 2), up)
		net.link(MakePort(dup, 0), MakePort(lam, 1))
		return nil
	}
}
