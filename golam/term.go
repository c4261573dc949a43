package golam

import (
	"encoding/binary"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// TermKind tells which variant a Term node is.
type TermKind byte

const (
	TermVar TermKind = iota // variable reference, de Bruijn indexed
	TermLam                 // λ binder
	TermApp                 // application
)

// Term is an immutable λ-calculus tree.
//
// Variables are de Bruijn indices: index 0 refers to the nearest enclosing
// binder.  Terms are trees, not graphs -- sharing of work is introduced only
// inside the interaction net, never at this layer.
type Term struct {
	Kind  TermKind
	Index int32 // TermVar: de Bruijn index
	Body  *Term // TermLam: binder body
	Fn    *Term // TermApp: function side
	Arg   *Term // TermApp: argument side
}

// Var returns a variable reference with the given de Bruijn index.
func Var(index int32) *Term {
	return &Term{Kind: TermVar, Index: index}
}

// Lam returns a λ binder wrapping the given body.
func Lam(body *Term) *Term {
	return &Term{Kind: TermLam, Body: body}
}

// App returns the application of fn to arg.
func App(fn, arg *Term) *Term {
	return &Term{Kind: TermApp, Fn: fn, Arg: arg}
}

// AppAll left-folds fn over the given args: AppAll(f, a, b) is ((f a) b).
func AppAll(fn *Term, args ...*Term) *Term {
	X := fn
	for _, arg := range args {
		X = App(X, arg)
	}
	return X
}

// IsEqual returns whether two terms have the same de Bruijn shape (α-equivalence).
func (X *Term) IsEqual(target *Term) bool {
	if X == nil || target == nil {
		return X == target
	}
	if X.Kind != target.Kind {
		return false
	}
	switch X.Kind {
	case TermVar:
		return X.Index == target.Index
	case TermLam:
		return X.Body.IsEqual(target.Body)
	default:
		return X.Fn.IsEqual(target.Fn) && X.Arg.IsEqual(target.Arg)
	}
}

// GetInfo returns shape info about this term.
func (X *Term) GetInfo() TermInfo {
	var info TermInfo
	X.tallyInfo(0, &info)
	return info
}

func (X *Term) tallyInfo(depth int32, info *TermInfo) {
	if X == nil {
		return
	}
	info.Size++
	if depth > info.Depth {
		info.Depth = depth
	}
	switch X.Kind {
	case TermLam:
		X.Body.tallyInfo(depth+1, info)
	case TermApp:
		X.Fn.tallyInfo(depth, info)
		X.Arg.tallyInfo(depth, info)
	}
}

// Validate checks that every variable index refers to an enclosing binder.
func (X *Term) Validate() error {
	return X.validateAt(0)
}

func (X *Term) validateAt(depth int32) error {
	if X == nil {
		return ErrNilTerm
	}
	switch X.Kind {
	case TermVar:
		if X.Index < 0 || X.Index >= depth {
			return errors.Wrapf(ErrFreeVariable, "index %d at binder depth %d", X.Index, depth)
		}
		return nil
	case TermLam:
		return X.Body.validateAt(depth + 1)
	default:
		if err := X.Fn.validateAt(depth); err != nil {
			return err
		}
		return X.Arg.validateAt(depth)
	}
}

// TermDef is a canonical binary serialization of a Term.
//
// The encoding is a preorder walk: one opcode byte per node, with TermVar
// followed by the uvarint index.  Two α-equivalent terms always produce the
// same TermDef, so a TermDef doubles as a canonical set / catalog key.
type TermDef []byte

const (
	kTermDefVar byte = 0x00
	kTermDefLam byte = 0x01
	kTermDefApp byte = 0x02
)

// AppendTermDef appends the canonical binary encoding of X to out.
func (X *Term) AppendTermDef(out []byte) TermDef {
	var scrap [binary.MaxVarintLen32]byte

	switch X.Kind {
	case TermVar:
		out = append(out, kTermDefVar)
		n := binary.PutUvarint(scrap[:], uint64(X.Index))
		out = append(out, scrap[:n]...)
	case TermLam:
		out = append(out, kTermDefLam)
		out = X.Body.AppendTermDef(out)
	default:
		out = append(out, kTermDefApp)
		out = X.Fn.AppendTermDef(out)
		out = X.Arg.AppendTermDef(out)
	}
	return out
}

// NewTermFromDef reconstructs a Term from an encoding made by AppendTermDef.
func NewTermFromDef(def TermDef) (*Term, error) {
	X, n, err := parseTermDef(def)
	if err != nil {
		return nil, err
	}
	if n != len(def) {
		return nil, errors.Wrapf(ErrBadTermDef, "%d trailing bytes", len(def)-n)
	}
	return X, nil
}

func parseTermDef(def TermDef) (*Term, int, error) {
	if len(def) == 0 {
		return nil, 0, errors.Wrap(ErrBadTermDef, "truncated")
	}
	switch def[0] {
	case kTermDefVar:
		idx, n := binary.Uvarint(def[1:])
		if n <= 0 || idx > 1<<30 {
			return nil, 0, errors.Wrap(ErrBadTermDef, "bad var index")
		}
		return Var(int32(idx)), 1 + n, nil
	case kTermDefLam:
		body, n, err := parseTermDef(def[1:])
		if err != nil {
			return nil, 0, err
		}
		return Lam(body), 1 + n, nil
	case kTermDefApp:
		fn, n1, err := parseTermDef(def[1:])
		if err != nil {
			return nil, 0, err
		}
		arg, n2, err := parseTermDef(def[1+n1:])
		if err != nil {
			return nil, 0, err
		}
		return App(fn, arg), 1 + n1 + n2, nil
	}
	return nil, 0, errors.Wrapf(ErrBadTermDef, "opcode 0x%02x", def[0])
}

// WriteAsString writes a human readable rendering of X to out.
//
// Binders print as "λ", applications as "(f a)", and variables as their
// de Bruijn index.
func (X *Term) WriteAsString(out io.Writer, opts PrintOpts) {
	b := strings.Builder{}
	b.Grow(64)
	if len(opts.Label) > 0 {
		b.WriteString(opts.Label)
		b.WriteString(": ")
	}
	X.appendString(&b)
	out.Write([]byte(b.String()))
}

func (X *Term) appendString(b *strings.Builder) {
	switch X.Kind {
	case TermVar:
		b.WriteString(strconv.FormatInt(int64(X.Index), 10))
	case TermLam:
		b.WriteString("λ")
		X.Body.appendString(b)
	default:
		b.WriteByte('(')
		X.Fn.appendString(b)
		b.WriteByte(' ')
		X.Arg.appendString(b)
		b.WriteByte(')')
	}
}

func (X *Term) String() string {
	if X == nil {
		return "<nil>"
	}
	b := strings.Builder{}
	X.appendString(&b)
	return b.String()
}
