package iavl

import (
	"github.com/iov-one/lockbox/errors"
	"github.com/iov-one/lockbox/store"
	"github.com/tendermint/iavl"
	dbm "github.com/tendermint/tendermint/libs/db"
)

// default cache size for the working tree
const cacheSize = 10000

// CommitStore manages a merkleized, versioned state persisted through an
// iavl tree. Every Commit call writes a new version to disk, so the full
// engine state survives process restarts.
type CommitStore struct {
	tree *iavl.MutableTree
	db   dbm.DB
}

var _ store.CommitKVStore = (*CommitStore)(nil)
var _ store.CacheableKVStore = (*CommitStore)(nil)

// NewCommitStore creates a new store with disk backing under the given
// directory. The name is used for the database file name.
func NewCommitStore(dir, name string) (*CommitStore, error) {
	db, err := dbm.NewGoLevelDB(name, dir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return &CommitStore{
		tree: iavl.NewMutableTree(db, cacheSize),
		db:   db,
	}, nil
}

// MockCommitStore returns a store backed by an in-memory database, useful
// for tests that want commit semantics without touching the disk.
func MockCommitStore() *CommitStore {
	db := dbm.NewMemDB()
	return &CommitStore{
		tree: iavl.NewMutableTree(db, cacheSize),
		db:   db,
	}
}

// Close releases the backing database. The store must not be used after.
func (s *CommitStore) Close() {
	s.db.Close()
}

// Get returns nil iff key doesn't exist. Panics on nil key.
func (s *CommitStore) Get(key []byte) []byte {
	_, value := s.tree.Get(key)
	return value
}

// Has checks if a key exists. Panics on nil key.
func (s *CommitStore) Has(key []byte) bool {
	return s.tree.Has(key)
}

// Set adds a new value to the working tree
func (s *CommitStore) Set(key, value []byte) {
	s.tree.Set(key, value)
}

// Delete removes from the working tree
func (s *CommitStore) Delete(key []byte) {
	s.tree.Remove(key)
}

// NewBatch returns a batch that can write multiple ops atomically
func (s *CommitStore) NewBatch() store.Batch {
	return store.NewNonAtomicBatch(s)
}

// Iterator over a domain of keys in ascending order. End is exclusive.
func (s *CommitStore) Iterator(start, end []byte) store.Iterator {
	return s.iterate(start, end, true)
}

// ReverseIterator over a domain of keys in descending order. End is exclusive.
func (s *CommitStore) ReverseIterator(start, end []byte) store.Iterator {
	return s.iterate(start, end, false)
}

func (s *CommitStore) iterate(start, end []byte, ascending bool) store.Iterator {
	var models []store.Model
	s.tree.IterateRange(start, end, ascending, func(key, value []byte) bool {
		models = append(models, store.Model{Key: key, Value: value})
		return false
	})
	return store.NewSliceIterator(models)
}

// CacheWrap gives us a savepoint to perform actions, which can be written
// to the working tree as a whole, or thrown away
func (s *CommitStore) CacheWrap() store.KVCacheWrap {
	return store.NewBTreeCacheWrap(s, s.NewBatch(), nil)
}

// Commit the next version to disk, and returns info
func (s *CommitStore) Commit() store.CommitID {
	hash, version, err := s.tree.SaveVersion()
	if err != nil {
		panic(errors.Wrap(errors.ErrDatabase, err.Error()))
	}
	return store.CommitID{
		Version: version,
		Hash:    hash,
	}
}

// LoadLatestVersion loads the latest persisted version.
// If there was a crash during the last commit, it is guaranteed
// to return a stable state, even if older.
func (s *CommitStore) LoadLatestVersion() error {
	if _, err := s.tree.Load(); err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return nil
}

// LatestVersion returns info on the latest version saved to disk
func (s *CommitStore) LatestVersion() store.CommitID {
	return store.CommitID{
		Version: s.tree.Version(),
		Hash:    s.tree.Hash(),
	}
}
