package golam

const (

	// MaxChurch is the largest Church numeral the helpers in church.go will build.
	// Larger literals encode fine but are rarely what a caller intended.
	MaxChurch = 1 << 20

	// DefaultStepBudget bounds the reference tree-substitution evaluator.
	DefaultStepBudget = 50_000_000
)

// Stats is a read-only snapshot of the most recent reduction of a net.
//
// Counters are reset at the start of each reduction; PeakNodes starts at the
// arena size the reduction began with and only grows.
type Stats struct {
	Iterations uint64 // probe steps taken by the reduction walk
	Rewrites   uint64 // annihilate + commute + erase applications, combined
	BetaSteps  uint64 // Lambda/Apply annihilations specifically
	PeakNodes  int    // arena high-water size, in nodes
}

// TermInfo summarizes the shape of a Term.
type TermInfo struct {
	Size  int32 // total node count of the tree
	Depth int32 // greatest binder nesting depth
}

// TermAdder accepts terms into a set-like container.
type TermAdder interface {

	// Tries to add the given term to this container.
	// If true is returned, X was not already present and was added.
	TryAddTerm(X *Term) bool
}

// OnTermHit is a callback channel used to return Terms meeting a set of selection criteria.
// Ownership of a Term also travels through the channel.
type OnTermHit chan<- *Term

// TermSelector is an operator that either selects a given Term or not.
type TermSelector struct {
	Min TermInfo // lower select bounds
	Max TermInfo // upper select bounds
}

// DefaultTermSelector selects every well formed term.
var DefaultTermSelector = TermSelector{
	Max: TermInfo{
		Size:  1 << 30,
		Depth: 1 << 30,
	},
}

// SelectsTerm is a convenience function used to see if a Term is selected according to a TermSelector.
func (sel *TermSelector) SelectsTerm(X *Term) bool {
	info := X.GetInfo()
	if info.Size < sel.Min.Size || info.Depth < sel.Min.Depth {
		return false
	}
	if info.Size > sel.Max.Size || info.Depth > sel.Max.Depth {
		return false
	}
	return true
}

// CatalogOpts specifies params for opening a golam Catalog
type CatalogOpts struct {
	DbPathName string // omit for an in-memory db
	ReadOnly   bool   // open in read-only mode
}

// Catalog wraps a database of normalized terms: each entry maps a source
// term to its normal form plus the stats of the reduction that produced it.
type Catalog interface {
	TermAdder

	// Returns true if this catalog was opened for read-only access.
	IsReadOnly() bool

	// Lookup returns the recorded normal form and reduction stats for the given source term.
	Lookup(X *Term) (*Term, Stats, bool)

	// NumTerms returns the number of catalog entries whose source term has the given size.
	// A zero or out of bounds size returns 0.
	NumTerms(forSize int32) int64

	// Select fires the given callback with the normal form of each entry that meets the selection criteria.
	Select(sel TermSelector, onHit OnTermHit)

	Close() error
}

// CatalogContext is a container for open / active Catalog instances.
type CatalogContext interface {

	// Attaches the given Catalog to this context.
	AttachCatalog(cat Catalog)

	// Detaches the given Catalog from this context.
	DetachCatalog(cat Catalog)

	// Signals all open catalogs to close, then closes.
	Close()

	// Signals when Close() completed and all open Catalogs have been closed
	Done() <-chan struct{}
}

// PrintOpts specifies what is printed when printing a term
type PrintOpts struct {
	Label string // Prefix label
	Stats bool   // If set, reduction stats are printed when available
}

// DefaultPrintOpts{}
var DefaultPrintOpts = PrintOpts{}
