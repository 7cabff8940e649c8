package token

import (
	"math"

	"github.com/iov-one/lockbox"
	"github.com/iov-one/lockbox/errors"
)

// Controller implements the value-transfer primitive of a single asset
// ledger: transfer, transferFrom with prior approval, and balance lookup.
// It is the in-process stand-in for the asset contract an engine instance
// is bound to on its network.
type Controller struct {
	wallets    Bucket
	allowances AllowanceBucket
}

// NewController returns a controller over the default buckets
func NewController() Controller {
	return Controller{
		wallets:    NewBucket(),
		allowances: NewAllowanceBucket(),
	}
}

// BalanceOf returns the current balance of the given address. A wallet
// that was never credited reports a zero balance.
func (c Controller) BalanceOf(db lockbox.ReadOnlyKVStore, addr lockbox.Address) (int64, error) {
	funds, err := c.wallets.Get(db, addr)
	if err != nil {
		return 0, err
	}
	if funds == nil {
		return 0, nil
	}
	return funds.Balance, nil
}

// Transfer moves the given amount from src to dest.
// If src doesn't have sufficient funds, it fails.
func (c Controller) Transfer(db lockbox.KVStore, src, dest lockbox.Address, amount int64) error {
	if amount <= 0 {
		return errors.Wrap(errors.ErrInput, "non-positive transfer")
	}

	sender, err := c.wallets.Get(db, src)
	if err != nil {
		return err
	}
	if sender == nil || sender.Balance < amount {
		return errors.Wrapf(errors.ErrInsufficientFunds, "wallet %s", src)
	}

	recipient, err := c.wallets.GetOrCreate(db, dest)
	if err != nil {
		return err
	}
	if recipient.Balance > math.MaxInt64-amount {
		return errors.Wrapf(errors.ErrOverflow, "wallet %s", dest)
	}

	sender.Balance -= amount
	recipient.Balance += amount

	// save them and return
	if err := c.wallets.Save(db, src, sender); err != nil {
		return err
	}
	return c.wallets.Save(db, dest, recipient)
}

// Approve grants spender the right to move up to amount out of the owner
// wallet. A zero amount revokes a prior approval.
func (c Controller) Approve(db lockbox.KVStore, owner, spender lockbox.Address, amount int64) error {
	if amount < 0 {
		return errors.Wrap(errors.ErrInput, "negative allowance")
	}
	return c.allowances.Save(db, owner, spender, &Allowance{Amount: amount})
}

// Allowance returns how much spender may still move out of the owner
// wallet.
func (c Controller) Allowance(db lockbox.ReadOnlyKVStore, owner, spender lockbox.Address) (int64, error) {
	a, err := c.allowances.Get(db, owner, spender)
	if err != nil {
		return 0, err
	}
	if a == nil {
		return 0, nil
	}
	return a.Amount, nil
}

// TransferFrom moves the given amount from the owner wallet to dest, on
// behalf of spender. The spender must hold a sufficient prior approval,
// which is consumed by the move.
func (c Controller) TransferFrom(db lockbox.KVStore, spender, owner, dest lockbox.Address, amount int64) error {
	if amount <= 0 {
		return errors.Wrap(errors.ErrInput, "non-positive transfer")
	}

	granted, err := c.allowances.Get(db, owner, spender)
	if err != nil {
		return err
	}
	if granted == nil || granted.Amount < amount {
		return errors.Wrapf(errors.ErrInsufficientFunds, "allowance %s -> %s", owner, spender)
	}

	// move the funds first, so a failed transfer leaves the allowance
	// untouched
	if err := c.Transfer(db, owner, dest, amount); err != nil {
		return err
	}
	granted.Amount -= amount
	return c.allowances.Save(db, owner, spender, granted)
}

// Issue attempts to add the given amount to the destination wallet.
// Fails if it overflows the wallet. Used to set up genesis balances.
func (c Controller) Issue(db lockbox.KVStore, dest lockbox.Address, amount int64) error {
	if amount <= 0 {
		return errors.Wrap(errors.ErrInput, "non-positive issue")
	}
	recipient, err := c.wallets.GetOrCreate(db, dest)
	if err != nil {
		return err
	}
	if recipient.Balance > math.MaxInt64-amount {
		return errors.Wrapf(errors.ErrOverflow, "wallet %s", dest)
	}
	recipient.Balance += amount
	return c.wallets.Save(db, dest, recipient)
}
