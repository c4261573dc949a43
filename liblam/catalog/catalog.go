// Package catalog wraps a database of normalized λ-terms: each entry maps a
// source term's canonical encoding to the normal form the net engine produced
// for it, plus the reduction stats, so repeat normalizations become lookups.
package catalog

import (
	"encoding/binary"
	"runtime"

	"github.com/dgraph-io/badger/v3"
	"github.com/emirpasic/gods/trees/redblacktree"
	"github.com/pkg/errors"
	"github.com/plan-systems/klog"

	"github.com/lamnet-systems/golam/golam"
	"github.com/lamnet-systems/golam/liblam"
)

/***

Catalog database format:

	gCatalogStateKey => catalogState (versions + per-size entry tallies)

	kEntryKeyPrefix, TermDef(source)
		=> uvarint(len) TermDef(normal form), uvarint x4 reduction stats

TermDef is self-delimiting and canonical (α-equivalent terms encode
identically), so the source encoding alone is the entry identity.

An in-memory red-black index over entry keys is rebuilt on open; it keeps
Select() and the per-size tallies off the LSM for hot callers.

***/

var (
	gCatalogStateKey = []byte{0x00, 0x00, 0x01}
)

const kEntryKeyPrefix = byte(0x10)

const (
	kCatalogMajorVers = 1
	kCatalogMinorVers = 0
)

type catalogState struct {
	MajorVers int32
	MinorVers int32
	NumTerms  []uint64 // entry count per source-term size; index 0 unused
}

func (state *catalogState) Marshal() []byte {
	var scrap [binary.MaxVarintLen64]byte
	out := make([]byte, 0, 16+8*len(state.NumTerms))
	for _, v := range []uint64{uint64(state.MajorVers), uint64(state.MinorVers), uint64(len(state.NumTerms))} {
		n := binary.PutUvarint(scrap[:], v)
		out = append(out, scrap[:n]...)
	}
	for _, count := range state.NumTerms {
		n := binary.PutUvarint(scrap[:], count)
		out = append(out, scrap[:n]...)
	}
	return out
}

func (state *catalogState) Unmarshal(src []byte) error {
	var fields [3]uint64
	for i := range fields {
		v, n := binary.Uvarint(src)
		if n <= 0 {
			return errors.Wrap(golam.ErrUnmarshal, "catalog state header")
		}
		fields[i] = v
		src = src[n:]
	}
	state.MajorVers = int32(fields[0])
	state.MinorVers = int32(fields[1])
	state.NumTerms = make([]uint64, fields[2])
	for i := range state.NumTerms {
		v, n := binary.Uvarint(src)
		if n <= 0 {
			return errors.Wrap(golam.ErrUnmarshal, "catalog state tallies")
		}
		state.NumTerms[i] = v
		src = src[n:]
	}
	return nil
}

// catalog is a db wrapper for a golam normal-form catalog
type catalog struct {
	ctx        golam.CatalogContext
	readOnly   bool
	stateDirty bool
	state      catalogState
	db         *badger.DB
	index      *redblacktree.Tree // entry key -> source TermInfo
}

func OpenCatalog(ctx golam.CatalogContext, opts golam.CatalogOpts) (golam.Catalog, error) {

	cat := &catalog{
		ctx:      ctx,
		readOnly: opts.ReadOnly,
		index:    redblacktree.NewWithStringComparator(),
	}

	dbOpts := badger.DefaultOptions(opts.DbPathName)
	dbOpts.ReadOnly = opts.ReadOnly
	dbOpts.DetectConflicts = false // not needed so disable for performance
	dbOpts.Logger = nil
	dbOpts.MetricsEnabled = false

	// Badger for windows currently does not support read-only mode
	if runtime.GOOS == "windows" {
		dbOpts.ReadOnly = false
	}

	if len(opts.DbPathName) == 0 {
		if opts.ReadOnly {
			return nil, errors.Wrap(golam.ErrBadCatalogParam, "DbPathName must be specified for read-only catalog")
		}
		dbOpts.InMemory = true
	}

	var err error
	cat.db, err = badger.Open(dbOpts)
	if err != nil {
		return nil, err
	}

	// Once the db is open, the catalog ctx is blocked until the catalog closes
	ctx.AttachCatalog(cat)

	err = cat.loadState()
	if err == badger.ErrKeyNotFound {
		err = nil
		cat.stateDirty = true
		cat.state.MajorVers = kCatalogMajorVers
		cat.state.MinorVers = kCatalogMinorVers
		cat.state.NumTerms = make([]uint64, 1)
	}

	if err == nil && (cat.state.MajorVers != kCatalogMajorVers || cat.state.MinorVers != kCatalogMinorVers) {
		err = errors.New("catalog version is incompatible")
	}
	if err == nil {
		err = cat.loadIndex()
	}

	if err != nil {
		cat.Close()
		return nil, err
	}

	klog.V(1).Infof("opened catalog %q (%d entries)", opts.DbPathName, cat.index.Size())
	return cat, nil
}

func (cat *catalog) loadState() error {
	err := cat.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(gCatalogStateKey)
		if err == nil {
			err = item.Value(func(val []byte) error {
				return cat.state.Unmarshal(val)
			})
		}
		return err
	})
	return err
}

// loadIndex rebuilds the in-memory entry index from the LSM.
func (cat *catalog) loadIndex() error {
	return cat.db.View(func(txn *badger.Txn) error {
		itOpts := badger.IteratorOptions{
			Prefix: []byte{kEntryKeyPrefix},
		}
		it := txn.NewIterator(itOpts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			key := it.Item().KeyCopy(nil)
			src, err := golam.NewTermFromDef(golam.TermDef(key[1:]))
			if err != nil {
				return errors.Wrap(err, "corrupt catalog entry key")
			}
			cat.index.Put(string(key), src.GetInfo())
		}
		return nil
	})
}

func (cat *catalog) flushState() {
	if cat.stateDirty && !cat.readOnly {
		err := cat.db.Update(func(txn *badger.Txn) error {
			return txn.Set(gCatalogStateKey, cat.state.Marshal())
		})
		if err != nil {
			panic(err)
		}
		cat.stateDirty = false
	}
}

func (cat *catalog) Close() error {
	cat.flushState()
	if cat.db != nil {
		cat.db.Close()
		cat.db = nil
		cat.ctx.DetachCatalog(cat)
		cat.ctx = nil
	}
	return nil
}

func (cat *catalog) IsReadOnly() bool {
	return cat.readOnly
}

func (cat *catalog) NumTerms(forSize int32) int64 {
	if forSize <= 0 || int(forSize) >= len(cat.state.NumTerms) {
		return 0
	}
	return int64(cat.state.NumTerms[forSize])
}

func entryKeyForTerm(X *golam.Term) []byte {
	var scrap [512]byte
	key := append(scrap[:0], kEntryKeyPrefix)
	return X.AppendTermDef(key)
}

// appendEntryValue packs a normal form and its reduction stats into one value blob.
func appendEntryValue(out []byte, normal *golam.Term, stats golam.Stats) []byte {
	var scrap [binary.MaxVarintLen64]byte

	nfDef := normal.AppendTermDef(nil)
	n := binary.PutUvarint(scrap[:], uint64(len(nfDef)))
	out = append(out, scrap[:n]...)
	out = append(out, nfDef...)

	for _, v := range []uint64{stats.Iterations, stats.Rewrites, stats.BetaSteps, uint64(stats.PeakNodes)} {
		n = binary.PutUvarint(scrap[:], v)
		out = append(out, scrap[:n]...)
	}
	return out
}

func parseEntryValue(val []byte) (*golam.Term, golam.Stats, error) {
	var stats golam.Stats

	nfLen, n := binary.Uvarint(val)
	if n <= 0 || int(nfLen) > len(val[n:]) {
		return nil, stats, errors.Wrap(golam.ErrUnmarshal, "catalog entry header")
	}
	val = val[n:]
	normal, err := golam.NewTermFromDef(golam.TermDef(val[:nfLen]))
	if err != nil {
		return nil, stats, err
	}
	val = val[nfLen:]

	var fields [4]uint64
	for i := range fields {
		v, n := binary.Uvarint(val)
		if n <= 0 {
			return nil, stats, errors.Wrap(golam.ErrUnmarshal, "catalog entry stats")
		}
		fields[i] = v
		val = val[n:]
	}
	stats.Iterations = fields[0]
	stats.Rewrites = fields[1]
	stats.BetaSteps = fields[2]
	stats.PeakNodes = int(fields[3])
	return normal, stats, nil
}

// TryAddTerm normalizes X on the net engine and records the result.
// False means the term (or an α-equivalent one) was already cataloged, or
// that it could not be added.
func (cat *catalog) TryAddTerm(X *golam.Term) bool {
	if cat.readOnly {
		return false
	}

	key := entryKeyForTerm(X)
	if _, exists := cat.index.Get(string(key)); exists {
		return false
	}

	normal, stats, err := liblam.Normalize(X)
	if err != nil {
		klog.Warningf("catalog: dropping unnormalizable term: %v", err)
		return false
	}

	err = cat.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, appendEntryValue(nil, normal, stats))
	})
	if err != nil {
		klog.Errorf("catalog: add failed: %v", err)
		return false
	}

	info := X.GetInfo()
	cat.index.Put(string(key), info)
	for int(info.Size) >= len(cat.state.NumTerms) {
		cat.state.NumTerms = append(cat.state.NumTerms, 0)
	}
	cat.state.NumTerms[info.Size]++
	cat.stateDirty = true
	return true
}

// Lookup returns the recorded normal form and stats for X, if cataloged.
func (cat *catalog) Lookup(X *golam.Term) (*golam.Term, golam.Stats, bool) {
	key := entryKeyForTerm(X)

	var (
		normal *golam.Term
		stats  golam.Stats
	)
	err := cat.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			normal, stats, err = parseEntryValue(val)
			return err
		})
	})
	if err != nil {
		if err != badger.ErrKeyNotFound {
			klog.Warningf("catalog: lookup failed: %v", err)
		}
		return nil, stats, false
	}
	return normal, stats, true
}

// Select fires onHit with the normal form of every entry whose source term
// meets the selection criteria, in canonical key order.
func (cat *catalog) Select(sel golam.TermSelector, onHit golam.OnTermHit) {
	it := cat.index.Iterator()
	for it.Next() {
		info := it.Value().(golam.TermInfo)
		if info.Size < sel.Min.Size || info.Depth < sel.Min.Depth ||
			info.Size > sel.Max.Size || info.Depth > sel.Max.Depth {
			continue
		}
		key := []byte(it.Key().(string))

		err := cat.db.View(func(txn *badger.Txn) error {
			item, err := txn.Get(key)
			if err != nil {
				return err
			}
			return item.Value(func(val []byte) error {
				normal, _, err := parseEntryValue(val)
				if err == nil {
					onHit <- normal
				}
				return err
			})
		})
		if err != nil {
			klog.Warningf("catalog: select skipped an entry: %v", err)
		}
	}
}
