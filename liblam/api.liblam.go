package liblam

import (
	"github.com/lamnet-systems/golam/golam"
)

// Normalize runs the full encode → reduce → decode pipeline on a fresh
// reduction context and returns the normal form together with the stats of
// the reduction.  Starting from a fresh Net is what guarantees no state --
// arena slots, allocation ids, free-list, counters -- leaks between
// unrelated normalizations.
//
// Termination is promised only for EAL-typable terms; see (*Net).Reduce.
func Normalize(term *golam.Term) (*golam.Term, golam.Stats, error) {
	net, err := Encode(term)
	if err != nil {
		return nil, golam.Stats{}, err
	}
	net.Reduce()
	return net.Decode(), net.Stats(), nil
}
