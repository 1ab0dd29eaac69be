package store

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/benbjohnson/clock"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"adastore/atomicfile"
	"adastore/blockhash"
	"adastore/lockfile"
)

// Config carries the tunables a Storage needs at Open time. Callers
// typically build one from adastore/config.Config's Storage section;
// Storage itself never reads a file or environment variable.
type Config struct {
	Compression   bool
	BloomTargetFP float64
	CacheEntries  int
	Network       string
	Logger        *logrus.Logger
	Registerer    prometheus.Registerer
	Clock         clock.Clock
}

func (c Config) withDefaults() Config {
	if c.BloomTargetFP <= 0 {
		c.BloomTargetFP = 0.01
	}
	if c.Logger == nil {
		c.Logger = logrus.StandardLogger()
	}
	if c.Clock == nil {
		c.Clock = clock.New()
	}
	return c
}

// BlobKind distinguishes the two places a block's bytes can live.
type BlobKind int

const (
	// Loose means the block lives as its own file under blob/.
	Loose BlobKind = iota
	// Packed means the block lives inside an immutable pack file.
	Packed
)

// Location describes where a block's bytes were found, for callers that
// want to reason about storage layout (e.g. deciding whether a pack run is
// due).
type Location struct {
	Kind   BlobKind
	PackID blockhash.Hash // zero unless Kind == Packed
	Offset uint64         // meaningful only when Kind == Packed
}

// Storage is the façade over a single adastore root directory: the blob
// store, the set of immutable packs and their indexes, the refpack and tag
// directories, and the pack-creation lock. One Storage value should be
// shared by every goroutine that touches a given root within a process;
// cross-process coordination for create_pack goes through lockfile.
type Storage struct {
	root string
	cfg  Config
	log  *logrus.Entry

	mu      sync.RWMutex
	packs   []blockhash.Hash
	indexes map[blockhash.Hash]*Index

	cache   *lru.Cache[blockhash.Hash, []byte]
	metrics *Metrics
}

// Open prepares root's directory layout, sweeps any tmpfile or orphan-pack
// residue left by a crashed prior process, loads every pack's index into
// memory, and returns a ready Storage.
func Open(root string, cfg Config) (*Storage, error) {
	cfg = cfg.withDefaults()

	for _, sub := range []string{"blob", "pack", "tag", "refpack"} {
		if err := os.MkdirAll(filepath.Join(root, sub), 0o755); err != nil {
			return nil, errIO(err)
		}
	}

	log := cfg.Logger.WithField("component", "storage").WithField("root", root)

	if err := sweepOrphanTmpfiles(root); err != nil {
		return nil, err
	}

	packIDs, err := listPackFiles(root)
	if err != nil {
		return nil, err
	}

	indexes := make(map[blockhash.Hash]*Index, len(packIDs))
	var known []blockhash.Hash
	for _, packID := range packIDs {
		if !hasIndex(root, packID) {
			log.WithField("pack_id", packID).Warn("discarding orphan pack with no matching index")
			if err := deletePack(root, packID); err != nil {
				return nil, err
			}
			continue
		}
		idx, err := readIndex(root, packID)
		if err != nil {
			return nil, err
		}
		indexes[packID] = idx
		known = append(known, packID)
	}
	sortHashes(known)

	var cache *lru.Cache[blockhash.Hash, []byte]
	if cfg.CacheEntries > 0 {
		cache, err = lru.New[blockhash.Hash, []byte](cfg.CacheEntries)
		if err != nil {
			return nil, errIO(err)
		}
	}

	s := &Storage{
		root:    root,
		cfg:     cfg,
		log:     log,
		packs:   known,
		indexes: indexes,
		cache:   cache,
		metrics: NewMetrics(cfg.Registerer),
	}
	log.WithField("packs", len(known)).Info("storage opened")
	return s, nil
}

// Close releases in-memory state. It does not delete anything on disk.
func (s *Storage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.indexes = nil
	s.packs = nil
	if s.cache != nil {
		s.cache.Purge()
	}
	return nil
}

// sweepOrphanTmpfiles removes leftover tmpfile residue from every
// directory a tmpfile can be created in, including each blob shard.
func sweepOrphanTmpfiles(root string) error {
	for _, sub := range []string{"pack", "tag", "refpack"} {
		if err := atomicfile.SweepOrphans(filepath.Join(root, sub)); err != nil {
			return errIO(err)
		}
	}
	blobRoot := filepath.Join(root, "blob")
	shards, err := os.ReadDir(blobRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errIO(err)
	}
	for _, shard := range shards {
		if !shard.IsDir() {
			continue
		}
		if err := atomicfile.SweepOrphans(filepath.Join(blobRoot, shard.Name())); err != nil {
			return errIO(err)
		}
	}
	return nil
}

// Put durably stores raw under h, as a loose blob.
func (s *Storage) Put(h blockhash.Hash, raw []byte) error {
	if err := putBlob(s.root, h, raw, s.cfg.Compression); err != nil {
		return err
	}
	s.metrics.BlocksPut.Inc()
	return nil
}

// Get returns the bytes stored under h, resolving packed storage before
// falling back to a loose blob, and consulting the hot-block cache first.
func (s *Storage) Get(h blockhash.Hash) ([]byte, error) {
	if s.cache != nil {
		if raw, ok := s.cache.Get(h); ok {
			return raw, nil
		}
	}

	loc, err := s.Locate(h)
	if err != nil {
		return nil, err
	}

	var raw []byte
	switch loc.Kind {
	case Packed:
		raw, err = readPackEntryAt(s.root, loc.PackID, loc.Offset)
	default:
		raw, err = getBlob(s.root, h, s.cfg.Compression)
	}
	if err != nil {
		return nil, err
	}

	s.metrics.BlocksGet.Inc()
	if s.cache != nil {
		s.cache.Add(h, raw)
	}
	return raw, nil
}

// Contains reports whether h is known to the store, packed or loose.
func (s *Storage) Contains(h blockhash.Hash) bool {
	if _, err := s.Locate(h); err != nil {
		return containsBlob(s.root, h)
	}
	return true
}

// Locate resolves h to its storage location without reading its bytes.
// Packs are consulted in ascending pack_id order, each behind its own
// Bloom filter; the first confirmed hit wins. A hash present in more than
// one pack (it should never be, by construction) resolves to the lowest
// pack_id.
func (s *Storage) Locate(h blockhash.Hash) (Location, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, packID := range s.packs {
		idx := s.indexes[packID]
		if !idx.Bloom.Test(h[:]) {
			continue
		}
		s.metrics.BloomHits.Inc()
		if offset, ok := idx.Lookup(h); ok {
			return Location{Kind: Packed, PackID: packID, Offset: offset}, nil
		}
	}
	if containsBlob(s.root, h) {
		return Location{Kind: Loose}, nil
	}
	return Location{}, errBlockNotFound(h)
}

// Delete removes a block's loose blob. It does not touch packed copies —
// packs are immutable; shrinking one requires DeletePack and a rewrite.
func (s *Storage) Delete(h blockhash.Hash) error {
	return deleteBlob(s.root, h)
}

// ListPacks returns the known pack_ids in ascending order.
func (s *Storage) ListPacks() []blockhash.Hash {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]blockhash.Hash, len(s.packs))
	copy(out, s.packs)
	return out
}

// CreatePack builds a new immutable pack containing the blocks named by
// order, in that order, draining their loose copies once the pack and its
// index are both durably written. It is safe to call concurrently from
// multiple processes against the same root: an exclusive pack.lock file
// serializes callers.
//
// CreatePack is idempotent under retry: a hash already folded into an
// existing pack is read back from that pack rather than demanded loose, so
// a caller that re-submits the same order after a partial failure succeeds
// without needing its loose blobs to still be present.
func (s *Storage) CreatePack(order []blockhash.Hash) (blockhash.Hash, error) {
	lockPath := filepath.Join(s.root, "pack.lock")
	lk, err := lockfile.Acquire(lockPath, s.cfg.Clock)
	if err != nil {
		return blockhash.Hash{}, errAlreadyLocked(err)
	}
	defer lk.Release()

	load := func(h blockhash.Hash) ([]byte, error) {
		if containsBlob(s.root, h) {
			return getBlob(s.root, h, s.cfg.Compression)
		}
		if loc, err := s.Locate(h); err == nil && loc.Kind == Packed {
			return readPackEntryAt(s.root, loc.PackID, loc.Offset)
		}
		return nil, errMissingBlock(h)
	}

	packID, offsets, err := writePack(s.root, order, load)
	if err != nil {
		return blockhash.Hash{}, err
	}
	idx := buildIndex(packID, offsets, s.cfg.BloomTargetFP)
	if err := writeIndex(s.root, idx); err != nil {
		return blockhash.Hash{}, err
	}

	for _, h := range order {
		if containsBlob(s.root, h) {
			if err := deleteBlob(s.root, h); err != nil {
				return packID, err
			}
		}
	}

	s.mu.Lock()
	if _, exists := s.indexes[packID]; !exists {
		s.indexes[packID] = idx
		s.packs = append(s.packs, packID)
		sortHashes(s.packs)
	}
	s.mu.Unlock()

	s.metrics.PacksCreated.Inc()
	s.log.WithField("pack_id", packID).WithField("entries", len(order)).Info("pack created")
	return packID, nil
}

// DeletePack removes a pack and its index. Any loose blobs already drained
// into it are gone for good — DeletePack is a maintenance operation, not
// an undo of CreatePack.
func (s *Storage) DeletePack(packID blockhash.Hash) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := deleteIndex(s.root, packID); err != nil {
		return err
	}
	if err := deletePack(s.root, packID); err != nil {
		return err
	}
	delete(s.indexes, packID)
	for i, id := range s.packs {
		if id == packID {
			s.packs = append(s.packs[:i], s.packs[i+1:]...)
			break
		}
	}
	return nil
}

// ReadTag, WriteTag and DeleteTag expose the tag store.

func (s *Storage) ReadTag(name string) (*blockhash.Hash, error) {
	return readTag(s.root, name)
}

func (s *Storage) WriteTag(name string, h blockhash.Hash) error {
	return writeTag(s.root, name, h)
}

func (s *Storage) DeleteTag(name string) error {
	return deleteTag(s.root, name)
}

