package token

import (
	"github.com/iov-one/lockbox"
	"github.com/iov-one/lockbox/errors"
	"github.com/iov-one/lockbox/orm"
)

const (
	// BucketName is where we store the wallet balances
	BucketName = "wallet"
	// AllowanceBucketName is where we store the spending approvals
	AllowanceBucketName = "allow"
)

// Funds is the value stored per wallet. It tracks the balance of a single
// asset, which is all a lock-box engine instance is ever bound to.
type Funds struct {
	Balance int64
}

var _ orm.CloneableData = (*Funds)(nil)

// Marshal implements the orm.Persistent contract
func (f *Funds) Marshal() ([]byte, error) {
	return cdc.MarshalBinaryBare(f)
}

// Unmarshal implements the orm.Persistent contract
func (f *Funds) Unmarshal(raw []byte) error {
	return cdc.UnmarshalBinaryBare(raw, f)
}

// Validate ensures the balance is never negative
func (f *Funds) Validate() error {
	if f.Balance < 0 {
		return errors.Wrap(errors.ErrState, "negative balance")
	}
	return nil
}

// Copy makes an independent copy of the funds
func (f *Funds) Copy() orm.CloneableData {
	return &Funds{Balance: f.Balance}
}

// Allowance is the value stored per (owner, spender) pair. It bounds how
// much the spender may move out of the owner wallet.
type Allowance struct {
	Amount int64
}

var _ orm.CloneableData = (*Allowance)(nil)

// Marshal implements the orm.Persistent contract
func (a *Allowance) Marshal() ([]byte, error) {
	return cdc.MarshalBinaryBare(a)
}

// Unmarshal implements the orm.Persistent contract
func (a *Allowance) Unmarshal(raw []byte) error {
	return cdc.UnmarshalBinaryBare(raw, a)
}

// Validate ensures the approved amount is never negative
func (a *Allowance) Validate() error {
	if a.Amount < 0 {
		return errors.Wrap(errors.ErrState, "negative allowance")
	}
	return nil
}

// Copy makes an independent copy of the allowance
func (a *Allowance) Copy() orm.CloneableData {
	return &Allowance{Amount: a.Amount}
}

//--- token.Bucket - type-safe wallet bucket

// Bucket is a type-safe wrapper around orm.Bucket
type Bucket struct {
	orm.Bucket
}

// NewBucket initializes a token.Bucket with default name
func NewBucket() Bucket {
	return Bucket{
		Bucket: orm.NewBucket(BucketName, orm.NewSimpleObj(nil, new(Funds))),
	}
}

// Get returns the funds stored under the address, or nil if the wallet
// was never credited.
func (b Bucket) Get(db lockbox.ReadOnlyKVStore, key lockbox.Address) (*Funds, error) {
	obj, err := b.Bucket.Get(db, key)
	if err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, nil
	}
	return obj.Value().(*Funds), nil
}

// GetOrCreate returns the funds stored under the address, implicitly
// creating an empty wallet on first use.
func (b Bucket) GetOrCreate(db lockbox.ReadOnlyKVStore, key lockbox.Address) (*Funds, error) {
	funds, err := b.Get(db, key)
	if err != nil {
		return nil, err
	}
	if funds == nil {
		funds = new(Funds)
	}
	return funds, nil
}

// Save persists the funds under the given address
func (b Bucket) Save(db lockbox.KVStore, key lockbox.Address, funds *Funds) error {
	return b.Bucket.Save(db, orm.NewSimpleObj(key, funds))
}

//--- token.AllowanceBucket

// AllowanceBucket stores approvals under the combined owner and spender
// addresses.
type AllowanceBucket struct {
	orm.Bucket
}

// NewAllowanceBucket initializes an AllowanceBucket with default name
func NewAllowanceBucket() AllowanceBucket {
	return AllowanceBucket{
		Bucket: orm.NewBucket(AllowanceBucketName, orm.NewSimpleObj(nil, new(Allowance))),
	}
}

// allowanceKey builds the composite primary key. Addresses are fixed
// length, so plain concatenation cannot collide.
func allowanceKey(owner, spender lockbox.Address) []byte {
	key := make([]byte, 0, len(owner)+len(spender))
	key = append(key, owner...)
	return append(key, spender...)
}

// Get returns the allowance granted by owner to spender, or nil if none
// was ever approved.
func (b AllowanceBucket) Get(db lockbox.ReadOnlyKVStore, owner, spender lockbox.Address) (*Allowance, error) {
	obj, err := b.Bucket.Get(db, allowanceKey(owner, spender))
	if err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, nil
	}
	return obj.Value().(*Allowance), nil
}

// Save persists the allowance for the given owner and spender pair
func (b AllowanceBucket) Save(db lockbox.KVStore, owner, spender lockbox.Address, a *Allowance) error {
	return b.Bucket.Save(db, orm.NewSimpleObj(allowanceKey(owner, spender), a))
}
