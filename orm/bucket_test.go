package orm

import (
	"encoding/binary"
	"testing"

	"github.com/iov-one/lockbox/errors"
	"github.com/iov-one/lockbox/lockboxtest/assert"
	"github.com/iov-one/lockbox/store"
)

// counter is the minimal CloneableData used to exercise buckets
type counter struct {
	Count int64
}

var _ CloneableData = (*counter)(nil)

func (c *counter) Marshal() ([]byte, error) {
	raw := make([]byte, 8)
	binary.BigEndian.PutUint64(raw, uint64(c.Count))
	return raw, nil
}

func (c *counter) Unmarshal(raw []byte) error {
	if len(raw) != 8 {
		return errors.Wrapf(errors.ErrInput, "invalid length: %d", len(raw))
	}
	c.Count = int64(binary.BigEndian.Uint64(raw))
	return nil
}

func (c *counter) Validate() error {
	if c.Count < 0 {
		return errors.Wrap(errors.ErrState, "negative count")
	}
	return nil
}

func (c *counter) Copy() CloneableData {
	return &counter{Count: c.Count}
}

func newCounterBucket() Bucket {
	return NewBucket("cnts", NewSimpleObj(nil, new(counter)))
}

func TestBucketName(t *testing.T) {
	assert.Equal(t, "cnts", newCounterBucket().Name())

	for _, name := range []string{"", "ab", "UPPER", "with space", "toolongname"} {
		name := name
		assert.Panics(t, func() { NewBucket(name, NewSimpleObj(nil, new(counter))) })
	}
}

func TestBucketGetSave(t *testing.T) {
	db := store.MemStore()
	bucket := newCounterBucket()
	key := []byte("some")

	// missing keys return nil without error
	obj, err := bucket.Get(db, key)
	assert.Nil(t, err)
	assert.Nil(t, obj)
	assert.Equal(t, false, bucket.Has(db, key))

	assert.Nil(t, bucket.Save(db, NewSimpleObj(key, &counter{Count: 5})))
	assert.Equal(t, true, bucket.Has(db, key))

	obj, err = bucket.Get(db, key)
	assert.Nil(t, err)
	assert.Equal(t, key, obj.Key())
	assert.Equal(t, int64(5), obj.Value().(*counter).Count)
}

func TestBucketRejectsInvalidModel(t *testing.T) {
	db := store.MemStore()
	bucket := newCounterBucket()

	err := bucket.Save(db, NewSimpleObj([]byte("some"), &counter{Count: -1}))
	assert.IsErr(t, errors.ErrState, err)
	assert.Equal(t, false, bucket.Has(db, []byte("some")))
}

func TestBucketDelete(t *testing.T) {
	db := store.MemStore()
	bucket := newCounterBucket()
	key := []byte("some")

	assert.Nil(t, bucket.Save(db, NewSimpleObj(key, &counter{Count: 5})))
	assert.Nil(t, bucket.Delete(db, key))
	assert.Equal(t, false, bucket.Has(db, key))

	// deleting a missing key is a noop
	assert.Nil(t, bucket.Delete(db, key))
}

func TestBucketsAreIsolated(t *testing.T) {
	db := store.MemStore()
	one := NewBucket("one", NewSimpleObj(nil, new(counter)))
	two := NewBucket("two", NewSimpleObj(nil, new(counter)))
	key := []byte("shared")

	assert.Nil(t, one.Save(db, NewSimpleObj(key, &counter{Count: 1})))
	assert.Nil(t, two.Save(db, NewSimpleObj(key, &counter{Count: 2})))

	obj, err := one.Get(db, key)
	assert.Nil(t, err)
	assert.Equal(t, int64(1), obj.Value().(*counter).Count)
	obj, err = two.Get(db, key)
	assert.Nil(t, err)
	assert.Equal(t, int64(2), obj.Value().(*counter).Count)

	assert.Nil(t, one.Delete(db, key))
	assert.Equal(t, true, two.Has(db, key))
}

func TestBucketIterator(t *testing.T) {
	db := store.MemStore()
	bucket := newCounterBucket()

	// neighbour data outside the bucket must not leak into the walk
	db.Set([]byte("cnts"), []byte("below"))
	db.Set([]byte("cnts;x"), []byte("above"))

	keys := [][]byte{[]byte("a"), []byte("b"), []byte("c")}
	for i, key := range keys {
		assert.Nil(t, bucket.Save(db, NewSimpleObj(key, &counter{Count: int64(i)})))
	}

	iter := bucket.Iterator(db)
	defer iter.Close()

	var got [][]byte
	for iter.Valid() {
		got = append(got, append([]byte(nil), iter.Key()...))
		var c counter
		assert.Nil(t, c.Unmarshal(iter.Value()))
		assert.Nil(t, iter.Next())
	}
	assert.Equal(t, keys, got)
}

func TestSimpleObjClone(t *testing.T) {
	obj := NewSimpleObj([]byte("some"), &counter{Count: 5})
	cpy := obj.Clone()
	cpy.Value().(*counter).Count = 9

	assert.Equal(t, int64(5), obj.Value().(*counter).Count)
	assert.Equal(t, []byte("some"), cpy.Key())
}
