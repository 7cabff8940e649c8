//nolint
package store

import "github.com/iov-one/lockbox"

// Move references for all storage types into this package
// for shorter names everywhere

type ReadOnlyKVStore = lockbox.ReadOnlyKVStore
type SetDeleter = lockbox.SetDeleter
type KVStore = lockbox.KVStore
type Batch = lockbox.Batch
type Iterator = lockbox.Iterator
type Model = lockbox.Model
type CacheableKVStore = lockbox.CacheableKVStore
type KVCacheWrap = lockbox.KVCacheWrap
type CommitKVStore = lockbox.CommitKVStore
type CommitID = lockbox.CommitID
