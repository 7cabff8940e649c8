/*
Package orm provides an easy to use db wrapper

Break state space into prefixed sections called Buckets.
* Each bucket contains only one type of object.
* It has a primary index (which may be composite).
* Easy queries for one and iteration.
*/
package orm

import (
	"fmt"
	"regexp"

	"github.com/iov-one/lockbox"
	"github.com/iov-one/lockbox/errors"
)

var isBucketName = regexp.MustCompile(`^[a-z_]{3,10}$`).MatchString

// Bucket is a generic holder that stores data under a named prefix.
//
// This is a generic building block that should generally
// be embedded in a type-safe wrapper to ensure all data
// is the same type.
// Bucket is a prefixed subspace of the DB.
// proto defines the default Model, all elements of this type.
type Bucket struct {
	name   string
	prefix []byte
	proto  Cloneable
}

// NewBucket creates a bucket to store data
func NewBucket(name string, proto Cloneable) Bucket {
	if !isBucketName(name) {
		panic(fmt.Sprintf("Illegal bucket: %s", name))
	}

	return Bucket{
		name:   name,
		prefix: append([]byte(name), ':'),
		proto:  proto,
	}
}

// Name returns the name of the bucket
func (b Bucket) Name() string {
	return b.name
}

// DBKey is the full key we store in the db, including prefix
// We copy into a new array rather than use append, as we don't
// want consecutive calls to overwrite the same byte array.
func (b Bucket) DBKey(key []byte) []byte {
	l := len(b.prefix)
	out := make([]byte, l+len(key))
	copy(out, b.prefix)
	copy(out[l:], key)
	return out
}

// Get one element
func (b Bucket) Get(db lockbox.ReadOnlyKVStore, key []byte) (Object, error) {
	dbkey := b.DBKey(key)
	bz := db.Get(dbkey)
	if bz == nil {
		return nil, nil
	}
	return b.Parse(key, bz)
}

// Parse takes a key and value data and reconstructs the data this Bucket
// would return.
//
// Used internally as part of Get.
// It is exposed mainly as a test helper, but can work for
// any code that wants to parse
func (b Bucket) Parse(key, value []byte) (Object, error) {
	obj := b.proto.Clone()
	if err := obj.Value().Unmarshal(value); err != nil {
		return nil, errors.Wrapf(errors.ErrType, "parsing %s: %s", b.name, err)
	}
	obj.SetKey(key)
	return obj, nil
}

// Save will write the object, if it validates
func (b Bucket) Save(db lockbox.KVStore, model Object) error {
	err := model.Validate()
	if err != nil {
		return errors.Wrap(err, "invalid model")
	}

	bz, err := model.Value().Marshal()
	if err != nil {
		return errors.Wrap(err, "cannot marshal model")
	}
	db.Set(b.DBKey(model.Key()), bz)
	return nil
}

// Delete removes the given key from the bucket. Deleting a missing key is
// a noop.
func (b Bucket) Delete(db lockbox.KVStore, key []byte) error {
	db.Delete(b.DBKey(key))
	return nil
}

// Has returns true if a value is stored under the given key
func (b Bucket) Has(db lockbox.ReadOnlyKVStore, key []byte) bool {
	return db.Has(b.DBKey(key))
}

// Iterator returns an iterator over the whole bucket content. The model
// keys returned have the bucket prefix trimmed.
func (b Bucket) Iterator(db lockbox.ReadOnlyKVStore) ModelIterator {
	start, end := prefixRange(b.prefix)
	return ModelIterator{iter: db.Iterator(start, end), prefix: len(b.prefix)}
}

// ModelIterator walks raw models of one bucket, hiding the prefix handling.
type ModelIterator struct {
	iter   lockbox.Iterator
	prefix int
}

// Valid returns true iff the iterator can be read
func (m ModelIterator) Valid() bool {
	return m.iter.Valid()
}

// Next moves the iterator to the next model
func (m ModelIterator) Next() error {
	return m.iter.Next()
}

// Key returns the model key with the bucket prefix removed
func (m ModelIterator) Key() []byte {
	return m.iter.Key()[m.prefix:]
}

// Value returns the raw serialized model
func (m ModelIterator) Value() []byte {
	return m.iter.Value()
}

// Close releases the iterator
func (m ModelIterator) Close() {
	m.iter.Close()
}

// prefixRange turns a prefix into (start, end) to create
// and iterator over the whole prefix domain
func prefixRange(prefix []byte) ([]byte, []byte) {
	if len(prefix) == 0 {
		return nil, nil
	}
	end := make([]byte, len(prefix))
	copy(end, prefix)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return prefix, end[:i+1]
		}
	}
	// prefix is all 0xff bytes, no upper bound
	return prefix, nil
}
