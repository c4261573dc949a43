package golam

import "github.com/pkg/errors"

// NormalizeNaive reduces X to β-normal form by leftmost-outermost tree
// substitution.  It exists as a slow reference for cross-checking the
// interaction-net reducer on small inputs; every β step copies subtrees, so
// it shares no work at all.
//
// budget caps the number of β steps (0 means DefaultStepBudget); exceeding it
// returns ErrStepBudget.
func NormalizeNaive(X *Term, budget int) (*Term, error) {
	if X == nil {
		return nil, ErrNilTerm
	}
	if err := X.Validate(); err != nil {
		return nil, err
	}
	if budget <= 0 {
		budget = DefaultStepBudget
	}
	return naiveNF(X, &budget)
}

func naiveNF(X *Term, budget *int) (*Term, error) {
	X, err := naiveWHNF(X, budget)
	if err != nil {
		return nil, err
	}
	switch X.Kind {
	case TermVar:
		return X, nil
	case TermLam:
		body, err := naiveNF(X.Body, budget)
		if err != nil {
			return nil, err
		}
		return Lam(body), nil
	default:
		// head is neutral: normalize both sides in place
		fn, err := naiveNF(X.Fn, budget)
		if err != nil {
			return nil, err
		}
		arg, err := naiveNF(X.Arg, budget)
		if err != nil {
			return nil, err
		}
		return App(fn, arg), nil
	}
}

func naiveWHNF(X *Term, budget *int) (*Term, error) {
	for X.Kind == TermApp {
		fn, err := naiveWHNF(X.Fn, budget)
		if err != nil {
			return nil, err
		}
		if fn.Kind != TermLam {
			return App(fn, X.Arg), nil
		}
		*budget--
		if *budget < 0 {
			return nil, errors.Wrap(ErrStepBudget, "naive normalize")
		}
		X = substitute(fn.Body, 0, X.Arg)
	}
	return X, nil
}

// substitute replaces Var(depth) in X with arg (shifted into scope) and
// renumbers the vars that pointed past the consumed binder.
func substitute(X *Term, depth int32, arg *Term) *Term {
	switch X.Kind {
	case TermVar:
		switch {
		case X.Index == depth:
			return shift(arg, depth, 0)
		case X.Index > depth:
			return Var(X.Index - 1)
		}
		return X
	case TermLam:
		return Lam(substitute(X.Body, depth+1, arg))
	default:
		return App(substitute(X.Fn, depth, arg), substitute(X.Arg, depth, arg))
	}
}

// shift adds d to every free var of X whose index is >= cutoff.
func shift(X *Term, d, cutoff int32) *Term {
	if d == 0 {
		return X
	}
	switch X.Kind {
	case TermVar:
		if X.Index >= cutoff {
			return Var(X.Index + d)
		}
		return X
	case TermLam:
		return Lam(shift(X.Body, d, cutoff+1))
	default:
		return App(shift(X.Fn, d, cutoff), shift(X.Arg, d, cutoff))
	}
}
