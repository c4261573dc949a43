package liblam

import (
	"bytes"
	"hash/maphash"

	"github.com/lamnet-systems/golam/golam"
)

// dropDupes is a purely in-process TermAdder for stream dedup: keys are
// canonical term encodings, stored in pooled backing buffers so churny
// streams don't allocate per term.
type dropDupes struct {
	hashMap   map[uint64]golam.TermDef
	hasher    maphash.Hash
	bufPool   []byte
	bufPoolSz int
	opts      DropDupeOpts
}

const DefaultPoolSz = 32 * 1024

type DropDupeOpts struct {
	PoolSz int // 0 denotes DefaultPoolSz (32k)
}

func NewDropDupes(opts DropDupeOpts) golam.TermAdder {
	if opts.PoolSz <= 0 {
		opts.PoolSz = DefaultPoolSz
	}
	return &dropDupes{
		hashMap: make(map[uint64]golam.TermDef),
		opts:    opts,
	}
}

func (set *dropDupes) Reset() {
	set.bufPoolSz = 0
	for k := range set.hashMap {
		delete(set.hashMap, k)
	}
}

func (set *dropDupes) Close() {
	set.Reset()
	set.hashMap = nil
}

func (set *dropDupes) TryAddTerm(X *golam.Term) bool {
	var keyBuf [512]byte
	Xkey := X.AppendTermDef(keyBuf[:0])

	set.hasher.Reset()
	set.hasher.Write(Xkey)
	hash := set.hasher.Sum64()

	existing, found := set.hashMap[hash]
	for found {
		if bytes.Equal(existing, Xkey) {
			return false
		}
		hash++
		existing, found = set.hashMap[hash]
	}

	// If we've gotten here, it means this is a new entry.
	// Place a copy of the key in our backing buf (in the heap).
	// If we run out of space in our pool, we start a new pool.
	pos := set.bufPoolSz
	itemLen := len(Xkey)
	if pos+itemLen > cap(set.bufPool) {
		allocSz := set.opts.PoolSz
		if itemLen > allocSz {
			allocSz = itemLen
		}
		set.bufPool = make([]byte, allocSz)
		set.bufPoolSz = 0
		pos = 0
	}

	set.hashMap[hash] = append(set.bufPool[pos:pos], Xkey...)
	set.bufPoolSz += itemLen
	return true
}
