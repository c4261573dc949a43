package liblam

// Reduce rewrites the net in place until no active pair is reachable from the
// root, and returns the same net.
//
// Rules fire eagerly along a single deterministic walk from the root -- the
// engine never scans the whole graph for active pairs and never applies them
// in unordered batches.  Active pairs buried in branches the root never
// demands (say, a computation nested inside a discarded argument) are simply
// never normalized, which is an essential performance property and not a
// style choice.
//
// Termination is guaranteed only for terms typable in elementary affine
// logic.  For anything else this loop may spin forever; a caller needing a
// bound must watch Stats().Iterations from outside and abandon the Net.
func (net *Net) Reduce() *Net {
	net.stats.Iterations = 0
	net.stats.Rewrites = 0
	net.stats.BetaSteps = 0
	net.stats.PeakNodes = len(net.nodes)

	// solid: nodes confirmed part of the canonical residual graph.
	// exit: for a node entered through an aux port, which port that was, so
	// that when the node is later consumed by a rewrite the walk knows where
	// to resume.  Both are keyed by allocation id, never by slot index.
	solid := make(map[uint64]struct{})
	exit := make(map[uint64]uint8)

	// LIFO stack of probes still to explore, seeded with the root's
	// principal port.
	pending := make([]PortRef, 0, 64)
	pending = append(pending, MakePort(net.root, 0))

	for len(pending) > 0 {
		prev := pending[len(pending)-1]
		pending = pending[:len(pending)-1]
		next := net.enter(prev)

		for {
			net.stats.Iterations++
			tn := next.Node()
			if _, ok := solid[net.nodes[tn].id]; ok {
				// Already fully reduced and reachable from elsewhere.
				break
			}

			if next.Slot() == 0 && prev.Slot() == 0 &&
				net.nodes[prev.Node()].tag != TagRoot && net.nodes[tn].tag != TagRoot {
				// Principal faces principal: an active pair.  Remember where
				// the walk came into the consumed node so it can resume there,
				// then rewrite and keep walking without touching pending.
				pn := prev.Node()
				back := net.enter(MakePort(pn, exit[net.nodes[pn].id]))
				net.rewrite(pn, tn)
				prev = back
				next = net.enter(back)
				continue
			}

			if next.Slot() == 0 {
				// Passive from this direction: part of the normal form.
				solid[net.nodes[tn].id] = struct{}{}
				pending = append(pending, MakePort(tn, 1), MakePort(tn, 2))
				break
			}

			// Came in through an aux port: record the entry and skip straight
			// through toward the principal port.
			exit[net.nodes[tn].id] = next.Slot()
			prev = MakePort(tn, 0)
			next = net.enter(prev)
		}
	}
	return net
}

// rewrite applies the one local rule the active pair (a, b) admits.  Dispatch
// is by tag: an eraser sentinel erases, equal tags annihilate, unequal tags
// commute.  Each rule is a one-shot deterministic edit; there is nothing to
// retry.
func (net *Net) rewrite(a, b NodeID) {
	net.stats.Rewrites++
	atag, btag := net.nodes[a].tag, net.nodes[b].tag
	switch {
	case atag == TagEra:
		net.erase(a, b)
	case btag == TagEra:
		net.erase(b, a)
	case atag == btag:
		if net.nodes[a].kind != net.nodes[b].kind {
			// A Lam meeting its Apply: β-reduction proper.
			net.stats.BetaSteps++
		}
		net.annihilate(a, b)
	default:
		net.commute(a, b)
	}
}

// erase consumes the pair (e, t) where e is an eraser: t is discarded and
// deletion propagates outward to each of t's aux neighbors.
func (net *Net) erase(e, t NodeID) {
	n1 := net.enter(MakePort(t, 1))
	if n1 == MakePort(t, 2) {
		// t's aux ports chase each other (an eraser, or an identity-style
		// binder): nothing survives to propagate into.
		net.freeNode(e)
		net.freeNode(t)
		return
	}
	n2 := net.enter(MakePort(t, 2))
	net.freeNode(e)
	net.freeNode(t)

	e1 := net.allocNode(KindEra, TagEra)
	net.link(MakePort(e1, 1), MakePort(e1, 2))
	net.link(MakePort(e1, 0), n1)
	e2 := net.allocNode(KindEra, TagEra)
	net.link(MakePort(e2, 1), MakePort(e2, 2))
	net.link(MakePort(e2, 0), n2)
}

// annihilate consumes an equal-tag pair by cross-linking the two nodes'
// aux neighbors: a's port-1 neighbor to b's, a's port-2 neighbor to b's.
//
// The enters are evaluated strictly in sequence: when an aux wire loops back
// into the pair itself (identity binders do this), the first link rewrites
// the wire the second enter then reads, which is exactly what makes
// pass-through connections come out right.
func (net *Net) annihilate(a, b NodeID) {
	net.link(net.enter(MakePort(a, 1)), net.enter(MakePort(b, 1)))
	net.link(net.enter(MakePort(a, 2)), net.enter(MakePort(b, 2)))
	net.freeNode(a)
	net.freeNode(b)
}

// commute pushes an unequal-tag pair through each other: each side's aux
// neighbors end up facing copies of the other side, and the four copies face
// each other on their remaining ports.  The standard interaction-net
// commutation square.
func (net *Net) commute(a, b NodeID) {
	ak, at := net.nodes[a].kind, net.nodes[a].tag
	bk, bt := net.nodes[b].kind, net.nodes[b].tag

	a1 := net.allocNode(ak, at)
	a2 := net.allocNode(ak, at)
	b1 := net.allocNode(bk, bt)
	b2 := net.allocNode(bk, bt)

	net.link(MakePort(b1, 0), net.enter(MakePort(a, 1)))
	net.link(MakePort(b2, 0), net.enter(MakePort(a, 2)))
	net.link(MakePort(a1, 0), net.enter(MakePort(b, 1)))
	net.link(MakePort(a2, 0), net.enter(MakePort(b, 2)))

	net.link(MakePort(a1, 1), MakePort(b1, 1))
	net.link(MakePort(a1, 2), MakePort(b2, 1))
	net.link(MakePort(a2, 1), MakePort(b1, 2))
	net.link(MakePort(a2, 2), MakePort(b2, 2))

	net.freeNode(a)
	net.freeNode(b)
}
