package golam

import "errors"

// Errors
var (
	ErrUnmarshal       = errors.New("unmarshal failed")
	ErrBadTermDef      = errors.New("bad term encoding")
	ErrNilTerm         = errors.New("nil term")
	ErrFreeVariable    = errors.New("variable index exceeds enclosing binders")
	ErrNotChurch       = errors.New("term is not a Church numeral")
	ErrChurchRange     = errors.New("Church numeral out of range")
	ErrBadModulus      = errors.New("modulus must be positive")
	ErrStepBudget      = errors.New("step budget exhausted")
	ErrBadCatalogParam = errors.New("bad catalog param")
)
