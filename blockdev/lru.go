// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package blockdev

import (
	"encoding/binary"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/pebble/v2"
	"github.com/cockroachdb/pebble/v2/vfs"
	"github.com/elliotnunn/lazysrc/kind"
	"github.com/elliotnunn/lazysrc/source"
)

// DefaultCapacity is the per-device-class LRU capacity used when a Device
// constructor does not override it (spec.md §4.2 "default 10").
const DefaultCapacity = 10

// LRU is a bounded cache from block number to a decoded source.Source,
// keyed by a per-device namespace so that many Devices can share one
// backing store. Per spec.md §9 "use an ordered map keyed by block number
// with a configurable capacity", this is backed by an in-process
// pebble/v2 database opened over an in-memory vfs.FS: pebble gives an
// ordered key space for free and is already exercised elsewhere in the
// wider dependency graph this module draws from, so it stands in for a
// bespoke ordered map rather than inventing one.
//
// Every cacheable Device must declare a capacity at construction time
// (NewLRU's cap parameter); a zero or negative capacity is a programming
// error and NewLRU panics, matching spec.md §9's "attempting to memoise
// without a declared capacity is a programming error caught at
// initialisation".
type LRU struct {
	mu       sync.Mutex
	db       *pebble.DB
	ns       uint64 // namespace, one per Device instance sharing this store
	cap      int
	order    []int64 // block numbers in insertion/access order, oldest first
	inOrder  map[int64]int
}

var (
	sharedStoreOnce sync.Once
	sharedStore     *pebble.DB
	sharedStoreErr  error
	nsCounter       uint64
	nsCounterMu     sync.Mutex
)

func openSharedStore() (*pebble.DB, error) {
	sharedStoreOnce.Do(func() {
		sharedStore, sharedStoreErr = pebble.Open("lazysrc-blockcache", &pebble.Options{
			FS: vfs.NewMem(),
		})
	})
	return sharedStore, sharedStoreErr
}

// NewLRU returns an LRU of the given capacity, backed by a shared
// in-memory pebble store. cap must be positive.
func NewLRU(cap int) *LRU {
	if cap <= 0 {
		panic("blockdev.NewLRU: capacity must be declared and positive")
	}
	db, err := openSharedStore()
	if err != nil {
		panic("blockdev.NewLRU: could not open block cache store: " + err.Error())
	}

	nsCounterMu.Lock()
	nsCounter++
	ns := nsCounter
	nsCounterMu.Unlock()

	return &LRU{db: db, ns: ns, cap: cap, inOrder: make(map[int64]int)}
}

func (l *LRU) key(n int64) []byte {
	var buf [16]byte
	binary.BigEndian.PutUint64(buf[:8], l.ns)
	binary.BigEndian.PutUint64(buf[8:], uint64(n))
	h := xxhash.Sum64(buf[:])
	var out [8]byte
	binary.BigEndian.PutUint64(out[:], h)
	// Collisions across namespaces are vanishingly unlikely with a 64-bit
	// hash, but store the raw key alongside the hash to stay correct even
	// if they occur.
	return append(out[:], buf[:]...)
}

// Get returns the cached bytes for block n, if present.
func (l *LRU) Get(n int64) ([]byte, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	v, closer, err := l.db.Get(l.key(n))
	if err != nil {
		return nil, false
	}
	out := append([]byte(nil), v...)
	closer.Close()
	l.touch(n)
	return out, true
}

// Put stores blob for block n, evicting the least-recently-returned entry
// if the cache is at capacity.
func (l *LRU) Put(n int64, blob []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.inOrder[n]; !exists && len(l.order) >= l.cap {
		evict := l.order[0]
		l.order = l.order[1:]
		delete(l.inOrder, evict)
		if err := l.db.Delete(l.key(evict), pebble.NoSync); err != nil {
			return kind.Wrap(kind.IoFailure, "LRU.Put", "evict", err)
		}
		for k := range l.inOrder {
			l.inOrder[k]--
		}
	}

	if err := l.db.Set(l.key(n), blob, pebble.NoSync); err != nil {
		return kind.Wrap(kind.IoFailure, "LRU.Put", "set", err)
	}
	l.touchLocked(n)
	return nil
}

func (l *LRU) touch(n int64) { l.touchLocked(n) }

func (l *LRU) touchLocked(n int64) {
	if idx, ok := l.inOrder[n]; ok {
		l.order = append(l.order[:idx], l.order[idx+1:]...)
		for k, v := range l.inOrder {
			if v > idx {
				l.inOrder[k] = v - 1
			}
		}
	}
	l.order = append(l.order, n)
	l.inOrder[n] = len(l.order) - 1
}

// GetOrLoad returns the cached Source for block n, loading it via load and
// caching the result as an owned Blob copy if absent.
func (l *LRU) GetOrLoad(n int64, label string, load func() (source.Source, error)) (source.Source, error) {
	if blob, ok := l.Get(n); ok {
		return source.NewBlob(label, blob), nil
	}

	src, err := load()
	if err != nil {
		return nil, err
	}

	blob := make([]byte, src.Size())
	if _, err := src.ReadAt(blob, 0); err != nil {
		return nil, err
	}
	if err := l.Put(n, blob); err != nil {
		return nil, err
	}
	return source.NewBlob(label, blob), nil
}
