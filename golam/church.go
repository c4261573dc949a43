package golam

import "github.com/pkg/errors"

// Church numeral helpers used to build test and benchmark inputs.
//
// A Church numeral n is λf.λx. f (f ... (f x)), i.e. a function applying its
// first argument n times.  All combinators below are closed terms, so they can
// be spliced under binders without index shifting.

// Church returns the Church numeral for n.
func Church(n int) *Term {
	if n < 0 || n > MaxChurch {
		panic(errors.Wrapf(ErrChurchRange, "n=%d", n))
	}
	body := Var(0)
	for i := 0; i < n; i++ {
		body = App(Var(1), body)
	}
	return Lam(Lam(body))
}

// ChurchToInt reads a normal form Church numeral back as an integer.
func ChurchToInt(X *Term) (int, error) {
	if X == nil || X.Kind != TermLam || X.Body.Kind != TermLam {
		return 0, ErrNotChurch
	}
	n := 0
	spine := X.Body.Body
	for spine.Kind == TermApp {
		if !spine.Fn.IsEqual(Var(1)) {
			return 0, ErrNotChurch
		}
		n++
		spine = spine.Arg
	}
	if !spine.IsEqual(Var(0)) {
		return 0, ErrNotChurch
	}
	return n, nil
}

// Closed arithmetic combinators.  Each builder returns a fresh tree; the
// encoder never relies on pointer identity, but callers are free to mutate
// nothing and share everything.

// ChurchSucc returns λn.λf.λx. f (n f x).
func ChurchSucc() *Term {
	return Lam(Lam(Lam(
		App(Var(1), AppAll(Var(2), Var(1), Var(0))),
	)))
}

// ChurchAdd returns λa.λb.λf.λx. a f (b f x).
func ChurchAdd() *Term {
	return Lam(Lam(Lam(Lam(
		AppAll(Var(3), Var(1), AppAll(Var(2), Var(1), Var(0))),
	))))
}

// ChurchMult returns λa.λb.λf. a (b f).
func ChurchMult() *Term {
	return Lam(Lam(Lam(
		App(Var(2), App(Var(1), Var(0))),
	)))
}

// ChurchPred returns the Kleene predecessor λn.λf.λx. n (λg.λh. h (g f)) (λu.x) (λu.u).
func ChurchPred() *Term {
	return Lam(Lam(Lam(
		AppAll(Var(2),
			Lam(Lam(App(Var(0), App(Var(1), Var(3))))),
			Lam(Var(1)),
			Lam(Var(0)),
		),
	)))
}

// ChurchSub returns λa.λb. b pred a, i.e. a-b floored at zero.
func ChurchSub() *Term {
	return Lam(Lam(
		AppAll(Var(0), ChurchPred(), Var(1)),
	))
}

// ChurchTrue / ChurchFalse are the Church booleans λt.λf.t and λt.λf.f.
func ChurchTrue() *Term  { return Lam(Lam(Var(1))) }
func ChurchFalse() *Term { return Lam(Lam(Var(0))) }

// ChurchIsZero returns λn. n (λz. false) true.
func ChurchIsZero() *Term {
	return Lam(
		AppAll(Var(0), Lam(ChurchFalse()), ChurchTrue()),
	)
}

// Modular arithmetic below represents a residue mod m as a ring: an m-tuple
// λs. s c0 … c(m-1) whose head element is the current residue, advanced by
// rotating the tuple one position.  The rotator is a closed term using every
// tuple element exactly once, so iterating it through Church numerals stays in
// the fragment the net engine shares instead of unrolling -- which is what
// makes x mod m cost far less than x rewrites.  Iterating a function that
// closes over the modulus (the other obvious encoding) is outside that
// fragment and does not terminate on the engine.

// churchRingInit returns λs. s (Church 0) … (Church m-1).
func churchRingInit(m int) *Term {
	args := make([]*Term, m)
	for i := range args {
		args[i] = Church(i)
	}
	return Lam(AppAll(Var(0), args...))
}

// churchRingRot returns λt.λs. t (λx0…λx(m-1). s x1 … x(m-1) x0): one
// rotation, moving the next residue into head position.
func churchRingRot(m int) *Term {
	args := make([]*Term, 0, m)
	for i := 1; i < m; i++ {
		args = append(args, Var(int32(m-1-i)))
	}
	args = append(args, Var(int32(m-1)))
	inner := AppAll(Var(int32(m)), args...)
	for i := 0; i < m; i++ {
		inner = Lam(inner)
	}
	return Lam(Lam(App(Var(1), inner)))
}

// churchRingHead returns λt. t (λx0…λx(m-1). x0), reading the current residue
// back out as a Church numeral and discarding the rest of the ring.
func churchRingHead(m int) *Term {
	inner := Var(int32(m - 1))
	for i := 0; i < m; i++ {
		inner = Lam(inner)
	}
	return Lam(App(Var(0), inner))
}

// ChurchMod returns λx. head (x rot ring): rotating the mod-m ring x times
// from zero leaves x mod m at the head.
func ChurchMod(m int) *Term {
	if m <= 0 {
		panic(errors.Wrapf(ErrBadModulus, "m=%d", m))
	}
	return Lam(App(
		churchRingHead(m),
		AppAll(Var(0), churchRingRot(m), churchRingInit(m)),
	))
}

// ChurchExpMod returns λa.λb. head ((b a) rot ring), computing a^b mod m over
// Church numerals: (b a) is Church exponentiation, and the resulting numeral
// drives ring rotations instead of ever being materialized.  The modulus is
// baked into the ring width at construction time.
func ChurchExpMod(m int) *Term {
	if m <= 0 {
		panic(errors.Wrapf(ErrBadModulus, "m=%d", m))
	}
	return Lam(Lam(App(
		churchRingHead(m),
		AppAll(App(Var(0), Var(1)), churchRingRot(m), churchRingInit(m)),
	)))
}

// ExpMod builds the fully applied benchmark term (expmod a b m) over
// Church numeral literals.
func ExpMod(a, b, m int) *Term {
	return AppAll(ChurchExpMod(m), Church(a), Church(b))
}
