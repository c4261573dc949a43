package liblam

import (
	"fmt"

	"github.com/lamnet-systems/golam/golam"
)

// exitPath is a small persistent list recording, while the read-back passes
// through duplicators, which aux branch was taken.  Re-entering a duplicator
// from its principal side pops the most recent choice, routing the walk back
// to the occurrence it belongs to.
type exitPath struct {
	slot uint8
	prev *exitPath
}

type decodeStep uint8

const (
	stepEnter decodeStep = iota
	stepLamBody
	stepAppFn
	stepAppArg
)

// decodeFrame is one record of the decoder's heap-resident call stack.  The
// stack replaces native recursion on purpose: term depth is an input class,
// not a bounded quantity, and must never be limited by goroutine stack
// growth.  Do not "simplify" this back into plain recursion.
type decodeFrame struct {
	port  PortRef
	exit  *exitPath
	depth int32
	step  decodeStep
	fn    *golam.Term // completed function side of an Apply
}

// Decode walks a (normalized) net from the root and rebuilds the λ-term it
// denotes.  The net is not modified, so decoding is repeatable.
//
// Decode panics on structural corruption (an unlinked port, a variable wire
// with no recorded binder): those are engine bugs, not runtime conditions.
func (net *Net) Decode() *golam.Term {
	// First-visit binder depths, keyed by allocation id.  Populated lazily
	// because shared nodes are reached through more than one path and the
	// de Bruijn index of a variable is measured against the depth at which
	// its binder was first seen.
	binderDepth := make(map[uint64]int32)

	stack := make([]decodeFrame, 0, 64)
	stack = append(stack, decodeFrame{port: net.enter(MakePort(net.root, 0))})

	var result *golam.Term

	for len(stack) > 0 {
		top := len(stack) - 1
		f := stack[top]

		switch f.step {

		case stepEnter:
			n := f.port.Node()
			id := net.nodes[n].id

			switch net.nodes[n].kind {

			case KindDup:
				if f.port.Slot() == 0 {
					if f.exit == nil {
						panic("decode: duplicator principal reached with empty exit path")
					}
					stack[top].exit = f.exit.prev
					stack[top].port = net.enter(MakePort(n, f.exit.slot))
				} else {
					stack[top].exit = &exitPath{slot: f.port.Slot(), prev: f.exit}
					stack[top].port = net.enter(MakePort(n, 0))
				}
				// still stepEnter: keep walking through the fan

			case KindLam:
				switch f.port.Slot() {
				case 0:
					if _, ok := binderDepth[id]; !ok {
						binderDepth[id] = f.depth
					}
					stack[top].step = stepLamBody
					stack = append(stack, decodeFrame{
						port:  net.enter(MakePort(n, 2)),
						exit:  f.exit,
						depth: f.depth + 1,
					})
				case 1:
					d, ok := binderDepth[id]
					if !ok {
						panic("decode: variable wire reached before its binder")
					}
					result = golam.Var(f.depth - d - 1)
					stack = stack[:top]
				default:
					panic(fmt.Sprintf("decode: lambda entered via port %d", f.port.Slot()))
				}

			case KindApp:
				if f.port.Slot() != 2 {
					panic(fmt.Sprintf("decode: apply entered via port %d", f.port.Slot()))
				}
				stack[top].step = stepAppFn
				stack = append(stack, decodeFrame{
					port:  net.enter(MakePort(n, 0)),
					exit:  f.exit,
					depth: f.depth,
				})

			default:
				panic(fmt.Sprintf("decode: unexpected %v node in normal form", net.nodes[n].kind))
			}

		case stepLamBody:
			result = golam.Lam(result)
			stack = stack[:top]

		case stepAppFn:
			stack[top].fn = result
			stack[top].step = stepAppArg
			stack = append(stack, decodeFrame{
				port:  net.enter(MakePort(f.port.Node(), 1)),
				exit:  f.exit,
				depth: f.depth,
			})

		case stepAppArg:
			result = golam.App(f.fn, result)
			stack = stack[:top]
		}
	}

	return result
}
