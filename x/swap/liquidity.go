package swap

import (
	"math"

	"github.com/iov-one/lockbox"
	"github.com/iov-one/lockbox/errors"
	"github.com/iov-one/lockbox/orm"
)

// LiquidityBucketName is where we store the pooled liquidity entries
const LiquidityBucketName = "liqd"

// Liquidity is the pooled balance tracked per address. Entries are created
// implicitly on first credit and persist for the engine lifetime.
type Liquidity struct {
	Balance int64
}

var _ orm.CloneableData = (*Liquidity)(nil)

// Marshal implements the orm.Persistent contract
func (l *Liquidity) Marshal() ([]byte, error) {
	return cdc.MarshalBinaryBare(l)
}

// Unmarshal implements the orm.Persistent contract
func (l *Liquidity) Unmarshal(raw []byte) error {
	return cdc.UnmarshalBinaryBare(raw, l)
}

// Validate ensures a liquidity balance is never negative
func (l *Liquidity) Validate() error {
	if l.Balance < 0 {
		return errors.Wrap(errors.ErrState, "negative balance")
	}
	return nil
}

// Copy makes an independent copy of the entry
func (l *Liquidity) Copy() orm.CloneableData {
	return &Liquidity{Balance: l.Balance}
}

// LiquidityBucket is a type-safe wrapper around orm.Bucket
type LiquidityBucket struct {
	orm.Bucket
}

// NewLiquidityBucket returns the bucket holding the liquidity ledger
func NewLiquidityBucket() LiquidityBucket {
	return LiquidityBucket{
		Bucket: orm.NewBucket(LiquidityBucketName, orm.NewSimpleObj(nil, new(Liquidity))),
	}
}

// Balance returns the pooled balance of the given address. An address that
// was never credited reports zero.
func (b LiquidityBucket) Balance(db lockbox.ReadOnlyKVStore, addr lockbox.Address) (int64, error) {
	obj, err := b.Get(db, addr)
	if err != nil {
		return 0, err
	}
	if obj == nil {
		return 0, nil
	}
	return obj.Value().(*Liquidity).Balance, nil
}

// Credit adds the amount to the address entry, creating it if needed
func (b LiquidityBucket) Credit(db lockbox.KVStore, addr lockbox.Address, amount int64) error {
	if amount <= 0 {
		return errors.Wrap(errors.ErrInput, "non-positive credit")
	}
	balance, err := b.Balance(db, addr)
	if err != nil {
		return err
	}
	if balance > math.MaxInt64-amount {
		return errors.Wrapf(errors.ErrOverflow, "liquidity %s", addr)
	}
	return b.Save(db, orm.NewSimpleObj(addr, &Liquidity{Balance: balance + amount}))
}

// Debit removes the amount from the address entry. It fails with
// ErrInsufficientFunds when the entry cannot cover the amount, so a
// liquidity balance can never go negative.
func (b LiquidityBucket) Debit(db lockbox.KVStore, addr lockbox.Address, amount int64) error {
	if amount <= 0 {
		return errors.Wrap(errors.ErrInput, "non-positive debit")
	}
	balance, err := b.Balance(db, addr)
	if err != nil {
		return err
	}
	if balance < amount {
		return errors.Wrapf(errors.ErrInsufficientFunds, "pooled liquidity %s", addr)
	}
	return b.Save(db, orm.NewSimpleObj(addr, &Liquidity{Balance: balance - amount}))
}

// Iterate walks all liquidity entries in ascending address order, calling
// fn for each. Returning false from fn stops the walk.
func (b LiquidityBucket) Iterate(db lockbox.ReadOnlyKVStore, fn func(addr lockbox.Address, balance int64) bool) error {
	iter := b.Iterator(db)
	defer iter.Close()

	for iter.Valid() {
		var entry Liquidity
		if err := entry.Unmarshal(iter.Value()); err != nil {
			return errors.Wrapf(errors.ErrType, "liquidity entry: %s", err)
		}
		if !fn(lockbox.Address(iter.Key()), entry.Balance) {
			return nil
		}
		if err := iter.Next(); err != nil {
			return err
		}
	}
	return nil
}
