// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package dmg

import (
	"fmt"
	"io"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/dgryski/go-tinylfu"
	"github.com/elliotnunn/lazysrc/kind"
	"github.com/elliotnunn/lazysrc/source"
	"github.com/klauspost/compress/zlib"
)

// udzoRunState decodes a UDZO run: a zlib stream (RFC 1950 — a 2-byte zlib
// header and Adler-32 trailer wrapping the raw deflate data, per spec.md
// §4.6 and the original's `zlib.decompressobj()` in uu.py) that decodes to
// exactly sectorCount*512 plaintext bytes, with random access implemented
// by replaying the stream from the run's start rather than by forking a
// copied decoder state.
//
// klauspost/compress/zlib was chosen over stdlib compress/zlib because the
// wider corpus (distr1-distri) already depends on klauspost/compress for its
// own decompression paths; neither library exposes a public decoder-state-
// copy/clone operation, so per spec.md §9's explicit fallback ("otherwise
// restart from the beginning of the run on each random access — correct but
// O(run_length)"), this implementation keeps one resumable decoder per run
// for sequential access and restarts it from the run's start when a
// non-adjacent sector is requested. A small tinylfu cache of already-decoded
// sectors (keyed by an xxhash of the run's identity and sector number,
// mirroring the teacher's decompressioncache keying scheme) absorbs the cost
// of repeated or backward-then-forward access patterns.
type udzoRunState struct {
	disk             source.Source
	compressedOffset int64
	compressedLength int64
	sectorCount      uint64
	runKey           uint64

	mu         sync.Mutex
	reader     io.ReadCloser
	nextSector uint64 // the sector the live reader will produce next

	cache *tinylfu.T
}

var (
	sharedSectorCache     *tinylfu.T
	sharedSectorCacheOnce sync.Once
)

func sectorCache() *tinylfu.T {
	sharedSectorCacheOnce.Do(func() {
		sharedSectorCache = tinylfu.New(4096, 4096*10)
	})
	return sharedSectorCache
}

func newUDZORunState(disk source.Source, compressedOffset, compressedLength, sectorCount uint64) *udzoRunState {
	h := xxhash.New()
	h.WriteString(disk.Label())
	h.Write(u64le(compressedOffset))
	h.Write(u64le(compressedLength))

	return &udzoRunState{
		disk:             disk,
		compressedOffset: int64(compressedOffset),
		compressedLength: int64(compressedLength),
		sectorCount:      sectorCount,
		runKey:           h.Sum64(),
		cache:            sectorCache(),
	}
}

func u64le(v uint64) []byte {
	return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24), byte(v >> 32), byte(v >> 40), byte(v >> 48), byte(v >> 56)}
}

func (u *udzoRunState) cacheKey(sector uint64) string {
	return fmt.Sprintf("udzo:%d:%d", u.runKey, sector)
}

// sector returns the decoded 512-byte plaintext for the rel-th sector of
// this run (rel is relative to the run's start sector).
func (u *udzoRunState) sector(rel uint64) (source.Source, error) {
	if rel >= u.sectorCount {
		return nil, kind.New(kind.InvalidArgument, "dmg.udzoRunState.sector", "sector beyond run")
	}

	if cached, ok := u.cache.Get(u.cacheKey(rel)); ok {
		return source.NewBlob("dmg-udzo-sector", cached.([]byte)), nil
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	if u.reader == nil || rel < u.nextSector {
		if err := u.restart(); err != nil {
			return nil, err
		}
	}

	for u.nextSector <= rel {
		buf := make([]byte, sectorSize)
		n, err := io.ReadFull(u.reader, buf)
		if err != nil && err != io.ErrUnexpectedEOF {
			return nil, kind.Wrap(kind.CorruptMetadata, "dmg.udzoRunState.sector", "zlib stream ended early", err)
		}
		buf = buf[:n]
		sector := u.nextSector
		u.nextSector++
		u.cache.Add(u.cacheKey(sector), buf)
		if sector == rel {
			return source.NewBlob("dmg-udzo-sector", buf), nil
		}
	}
	// unreachable: the loop above always returns once sector == rel
	return nil, kind.New(kind.CorruptMetadata, "dmg.udzoRunState.sector", "internal decoder-sector walk failed")
}

// restart throws away the live decoder and re-primes a fresh one at the
// start of the run's compressed stream, matching spec.md §4.6's
// "get_block(n) starts from an initial decoder-sector at the run's first
// sector with a fresh decoder and zero consumed offset".
func (u *udzoRunState) restart() error {
	win := source.NewWindow(u.disk, u.compressedOffset, u.compressedLength, "dmg-udzo-compressed")
	r, err := zlib.NewReader(io.NewSectionReader(readerAtFunc(win.ReadAt), 0, win.Size()))
	if err != nil {
		return kind.Wrap(kind.CorruptMetadata, "dmg.udzoRunState.restart", "bad zlib header in UDZO run", err)
	}
	u.reader = r
	u.nextSector = 0
	return nil
}

// readerAtFunc adapts a source.Source's ReadAt method (identical in
// signature to io.ReaderAt) for use with io.NewSectionReader.
type readerAtFunc func(p []byte, off int64) (int, error)

func (f readerAtFunc) ReadAt(p []byte, off int64) (int, error) { return f(p, off) }
