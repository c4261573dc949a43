package liblam

import (
	"github.com/dgraph-io/badger/v3"

	"github.com/lamnet-systems/golam/golam"
)

// TermSet allows adding terms to an internal set and returning whether an
// α-equivalent term had already been added.
type TermSet interface {
	golam.TermAdder

	// Close removes all previously added items from this set.
	//
	// If you make subsequent calls to TryAddTerm(), be sure you call Close() when you're done.
	Close()
}

// NewTermSet returns a TermSet backed by an in-memory LSM db, so the set can
// grow well past what a hash map comfortably holds.
func NewTermSet() TermSet {
	return &termSet{}
}

type termSet struct {
	lsmSet
}

func (ts *termSet) TryAddTerm(X *golam.Term) bool {
	var buf [512]byte
	key := X.AppendTermDef(buf[:0])
	return ts.tryAdd(key)
}

type lsmSet struct {
	db *badger.DB
}

func (set *lsmSet) autoOpen() {
	if set.db == nil {
		dbOpts := badger.DefaultOptions("").WithInMemory(true)
		dbOpts.Logger = nil
		dbOpts.MetricsEnabled = false

		var err error
		set.db, err = badger.Open(dbOpts)
		if err != nil {
			panic(err)
		}
	}
}

func (set *lsmSet) tryAdd(key []byte) bool {
	set.autoOpen()

	txn := set.db.NewTransaction(true)
	defer txn.Commit()

	added := false
	_, err := txn.Get(key)
	if err == nil {
		// no-op since the key is already in the db
	} else if err == badger.ErrKeyNotFound {
		err = txn.Set(key, nil)
		added = true
	}

	if err != nil {
		panic(err)
	}

	return added
}

func (set *lsmSet) Close() {
	if set.db != nil {
		set.db.Close()
		set.db = nil
	}
}
