// Package liblam is an interaction-net engine implementing Lamping's
// abstract algorithm: λ-terms compile into a net of 3-port nodes, the net is
// rewritten to a fixed point by local rules, and the result is read back as a
// term.  Sharing of computation is Lévy-optimal for terms typable in
// elementary affine logic; outside that fragment reduction may diverge, which
// is accepted rather than guarded against.
package liblam

import (
	"github.com/lamnet-systems/golam/golam"
)

// NodeID is an index into a Net's node arena.  Freed slots are recycled, so a
// NodeID alone does not identify a node across rewrites -- the allocation id
// does (see node.id).
type NodeID uint32

// PortRef addresses one of the three ports of a node: NodeID<<2 | slot.
// Slot 0 is always the principal port; slots 1 and 2 are auxiliary.
type PortRef uint32

// NilPort is the sentinel a freshly allocated node's ports hold until linked.
const NilPort = PortRef(0xFFFFFFFF)

func MakePort(n NodeID, slot uint8) PortRef {
	return PortRef(n)<<2 | PortRef(slot&3)
}

func (p PortRef) Node() NodeID { return NodeID(p >> 2) }
func (p PortRef) Slot() uint8  { return uint8(p & 3) }

// NodeKind tells the decoder how to read a node back as term structure.
// The rewrite rules never consult it; they dispatch on tags alone.
type NodeKind byte

const (
	KindRoot NodeKind = iota
	KindLam
	KindApp
	KindDup
	KindEra
)

// Rewrite tags.  Lam and App share TagCon so a β-redex annihilates; each
// duplicator gets a fresh tag so unrelated fan-outs always commute.
const (
	TagCon  uint32 = 0
	TagDup0 uint32 = 1          // first duplicator tag issued
	TagEra  uint32 = 0xFFFFFFFF // sentinel: eraser
	TagRoot uint32 = 0xFFFFFFFE // sentinel: root marker, never in an active pair
)

type node struct {
	ports [3]PortRef
	tag   uint32
	id    uint64 // allocation ordinal; unique among live nodes, never reused while live
	kind  NodeKind
}

// Net is one reduction context: node arena, free-list, id and tag counters,
// and the stats of the most recent reduction.  A Net must not be shared by
// concurrent reductions; Normalize starts from a fresh Net, which is the
// reset boundary between unrelated runs.
type Net struct {
	nodes   []node
	freed   []NodeID // LIFO recycle stack
	nextID  uint64
	nextTag uint32
	root    NodeID
	stats   golam.Stats
}

func NewNet() *Net {
	net := &Net{
		nodes:   make([]node, 0, 256),
		nextTag: TagDup0,
	}
	return net
}

// Reset clears the arena, free-list, counters and stats so the Net can host
// an unrelated encode/reduce run with no state leaking from the previous one.
func (net *Net) Reset() {
	net.nodes = net.nodes[:0]
	net.freed = net.freed[:0]
	net.nextID = 0
	net.nextTag = TagDup0
	net.root = 0
	net.stats = golam.Stats{}
}

// Stats returns a snapshot of the most recent reduction of this net.
func (net *Net) Stats() golam.Stats {
	return net.stats
}

// NodeCount returns the number of live nodes.
func (net *Net) NodeCount() int {
	return len(net.nodes) - len(net.freed)
}

// allocNode returns a node slot, preferring the most recently freed one over
// growing the arena.  All three ports start at NilPort; the caller owns
// linking every one of them before the node can be considered live.
func (net *Net) allocNode(kind NodeKind, tag uint32) NodeID {
	var n NodeID
	if top := len(net.freed) - 1; top >= 0 {
		n = net.freed[top]
		net.freed = net.freed[:top]
	} else {
		n = NodeID(len(net.nodes))
		net.nodes = append(net.nodes, node{})
		if len(net.nodes) > net.stats.PeakNodes {
			net.stats.PeakNodes = len(net.nodes)
		}
	}
	nd := &net.nodes[n]
	nd.ports[0] = NilPort
	nd.ports[1] = NilPort
	nd.ports[2] = NilPort
	nd.kind = kind
	nd.tag = tag
	nd.id = net.nextID
	net.nextID++
	return n
}

func (net *Net) freeNode(n NodeID) {
	net.freed = append(net.freed, n)
}

// freshDupTag issues a tag no other duplicator in this net carries.
func (net *Net) freshDupTag() uint32 {
	tag := net.nextTag
	net.nextTag++
	return tag
}

// link makes the symmetric connection a <-> b: two single-direction writes.
// Which links are the right ones to make is entirely the caller's business.
func (net *Net) link(a, b PortRef) {
	net.nodes[a.Node()].ports[a.Slot()] = b
	net.nodes[b.Node()].ports[b.Slot()] = a
}

// enter follows a port's link to its target port.
func (net *Net) enter(p PortRef) PortRef {
	return net.nodes[p.Node()].ports[p.Slot()]
}

func (net *Net) kindOf(n NodeID) NodeKind { return net.nodes[n].kind }
func (net *Net) tagOf(n NodeID) uint32    { return net.nodes[n].tag }
func (net *Net) idOf(n NodeID) uint64     { return net.nodes[n].id }
