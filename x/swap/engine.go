package swap

import (
	"bytes"
	"sync"

	"github.com/iov-one/lockbox"
	"github.com/iov-one/lockbox/errors"
	"github.com/iov-one/lockbox/x/role"
)

// Ledger is the value-transfer primitive of the asset the engine is bound
// to. The engine never inspects it beyond these three calls; on a real
// network this is the asset contract, in tests the x/token controller.
// Callers supplying funds must grant the engine address a prior allowance.
type Ledger interface {
	// Transfer moves amount from src to dest
	Transfer(db lockbox.KVStore, src, dest lockbox.Address, amount int64) error

	// TransferFrom moves amount from the owner wallet to dest on behalf
	// of spender, consuming the matching allowance
	TransferFrom(db lockbox.KVStore, spender, owner, dest lockbox.Address, amount int64) error

	// BalanceOf returns the current balance of the address
	BalanceOf(db lockbox.ReadOnlyKVStore, addr lockbox.Address) (int64, error)
}

// committer is implemented by stores that persist versions to disk. When
// the engine store supports it, every successful operation is committed.
type committer interface {
	Commit() lockbox.CommitID
}

// Engine is the public operation surface of one lock-box escrow instance.
// Two structurally identical instances run independently, one per network,
// each bound to one asset ledger. The engine serializes all operations and
// runs each one against a cache wrap of its store, so an operation either
// completes fully or leaves no trace.
type Engine struct {
	mu        sync.Mutex
	db        lockbox.CacheableKVStore
	ledger    Ledger
	addr      lockbox.Address
	roles     role.Registry
	deposits  Bucket
	withdraws Bucket
	liquidity LiquidityBucket
	emitters  []Emitter
}

// EngineOption configures an engine during creation
type EngineOption func(*Engine)

// WithEmitter registers an event observer. Emitters are called in
// registration order, after a successful operation was committed.
func WithEmitter(em Emitter) EngineOption {
	return func(e *Engine) {
		e.emitters = append(e.emitters, em)
	}
}

// EngineCondition returns the condition all engine held funds live under
// on the given network.
func EngineCondition(networkID string) lockbox.Condition {
	return lockbox.NewCondition("swap", "engine", []byte(networkID))
}

// NewEngine creates an engine instance over the given store and asset
// ledger, parameterized by the identity of the network it runs on. The
// network identity determines the engine address, nothing else; the two
// networks of a swap never compare clocks or state directly.
func NewEngine(db lockbox.CacheableKVStore, ledger Ledger, networkID string, opts ...EngineOption) *Engine {
	e := &Engine{
		db:        db,
		ledger:    ledger,
		addr:      EngineCondition(networkID).Address(),
		roles:     role.NewRegistry(),
		deposits:  NewDepositBucket(),
		withdraws: NewWithdrawBucket(),
		liquidity: NewLiquidityBucket(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Address returns the address the engine holds funds under
func (e *Engine) Address() lockbox.Address {
	return e.addr
}

// Initialize writes the role set and the initial configuration. It must be
// called exactly once, before any other operation.
func (e *Engine) Initialize(admin, feeManager lockbox.Address, timeLock lockbox.UnixDuration) error {
	return e.update(func(db lockbox.KVStore) (*Event, error) {
		if err := e.roles.Initialize(db, admin); err != nil {
			return nil, err
		}
		conf := Configuration{
			TimeLock:   timeLock,
			FeeManager: feeManager,
		}
		return nil, saveConfiguration(db, &conf)
	})
}

// OpenDeposit escrows amount of the caller funds under a new deposit lock
// box. The caller becomes the box sender and must have granted the engine
// a sufficient allowance. Any address may open a deposit. The amount must
// strictly exceed swapFee+networkFee or the call fails with
// ErrInsufficientFee.
func (e *Engine) OpenDeposit(ctx lockbox.Context, caller lockbox.Address, boxID []byte, amount, swapFee, networkFee int64, receiver lockbox.Address, lock []byte) error {
	return e.update(func(db lockbox.KVStore) (*Event, error) {
		now, err := e.now(ctx)
		if err != nil {
			return nil, err
		}
		if err := validateBoxID(boxID); err != nil {
			return nil, err
		}
		if e.deposits.Has(db, boxID) {
			return nil, errors.Wrapf(errors.ErrState, "deposit box %X exists", boxID)
		}

		box := &LockBox{
			Status:     StatusOpen,
			Amount:     amount,
			SwapFee:    swapFee,
			NetworkFee: networkFee,
			Sender:     caller,
			Receiver:   receiver,
			Lock:       lock,
			CreatedAt:  now,
		}
		if err := box.Validate(); err != nil {
			return nil, err
		}

		// pull the principal from the caller into the engine hold
		if err := e.ledger.TransferFrom(db, e.addr, caller, e.addr, amount); err != nil {
			return nil, err
		}
		if err := e.deposits.Save(db, boxID, box); err != nil {
			return nil, err
		}
		return &Event{Type: EventOpenDeposit, BoxID: boxID, Box: *box}, nil
	})
}

// OpenWithdraw mirrors a deposit observed on the counterpart network: it
// records a new withdraw lock box and immediately pays the receiver
// amount−swapFee−networkFee out of pooled liquidity. Manager only.
func (e *Engine) OpenWithdraw(ctx lockbox.Context, caller lockbox.Address, boxID []byte, amount, swapFee, networkFee int64, sender, receiver lockbox.Address, lock []byte) error {
	return e.update(func(db lockbox.KVStore) (*Event, error) {
		now, err := e.now(ctx)
		if err != nil {
			return nil, err
		}
		if err := e.authorizeManager(db, caller); err != nil {
			return nil, err
		}
		if err := validateBoxID(boxID); err != nil {
			return nil, err
		}
		if e.withdraws.Has(db, boxID) {
			return nil, errors.Wrapf(errors.ErrState, "withdraw box %X exists", boxID)
		}

		box := &LockBox{
			Status:     StatusOpen,
			Amount:     amount,
			SwapFee:    swapFee,
			NetworkFee: networkFee,
			Sender:     sender,
			Receiver:   receiver,
			Lock:       lock,
			CreatedAt:  now,
		}
		if err := box.Validate(); err != nil {
			return nil, err
		}

		// the payout is fronted by the admin pooled liquidity, ahead
		// of the matching deposit being confirmed
		roles, err := e.roles.Get(db)
		if err != nil {
			return nil, err
		}
		if err := e.liquidity.Debit(db, roles.Admin, box.Payout()); err != nil {
			return nil, err
		}
		if err := e.ledger.Transfer(db, e.addr, receiver, box.Payout()); err != nil {
			return nil, err
		}
		if err := e.withdraws.Save(db, boxID, box); err != nil {
			return nil, err
		}
		return &Event{Type: EventOpenWithdraw, BoxID: boxID, Box: *box}, nil
	})
}

// CloseWithdraw closes an open withdraw box by revealing the secret key.
// Anyone holding the correct key may call it. The receiver was already
// paid at open time, so no assets move; the fee portion stays with the
// engine as working capital. The revealed key is recorded and can be read
// with CheckSecretKeyWithdraw.
func (e *Engine) CloseWithdraw(ctx lockbox.Context, caller lockbox.Address, boxID, key []byte) error {
	return e.update(func(db lockbox.KVStore) (*Event, error) {
		box, err := e.loadOpen(e.withdraws, db, boxID)
		if err != nil {
			return nil, err
		}
		if err := matchLock(box.Lock, key); err != nil {
			return nil, err
		}

		box.Status = StatusClosed
		box.SecretKey = key
		if err := e.withdraws.Save(db, boxID, box); err != nil {
			return nil, err
		}
		return &Event{Type: EventCloseWithdraw, BoxID: boxID, Box: *box}, nil
	})
}

// CloseDeposit closes an open deposit box with the secret key revealed on
// the counterpart network. Manager only. The escrowed principal becomes
// admin pooled liquidity and the fee total is credited to the fee manager
// liquidity entry; the funds themselves were held since OpenDeposit, so no
// external movement occurs.
func (e *Engine) CloseDeposit(ctx lockbox.Context, caller lockbox.Address, boxID, key []byte) error {
	return e.update(func(db lockbox.KVStore) (*Event, error) {
		if err := e.authorizeManager(db, caller); err != nil {
			return nil, err
		}
		box, err := e.loadOpen(e.deposits, db, boxID)
		if err != nil {
			return nil, err
		}
		if err := matchLock(box.Lock, key); err != nil {
			return nil, err
		}

		roles, err := e.roles.Get(db)
		if err != nil {
			return nil, err
		}
		conf, err := loadConfiguration(db)
		if err != nil {
			return nil, err
		}
		// reclassify the hold: full principal into the admin pool,
		// fees realized on the fee manager entry
		if err := e.liquidity.Credit(db, roles.Admin, box.Amount); err != nil {
			return nil, err
		}
		if err := e.liquidity.Credit(db, conf.FeeManager, box.Fees()); err != nil {
			return nil, err
		}

		box.Status = StatusClosed
		box.SecretKey = key
		if err := e.deposits.Save(db, boxID, box); err != nil {
			return nil, err
		}
		return &Event{Type: EventCloseDeposit, BoxID: boxID, Box: *box}, nil
	})
}

// ExpireDeposit refunds the full principal, fees included, of an open
// deposit box whose time lock has elapsed. Only the original sender may
// call it. The time lock is evaluated against the currently configured
// duration.
func (e *Engine) ExpireDeposit(ctx lockbox.Context, caller lockbox.Address, boxID []byte) error {
	return e.update(func(db lockbox.KVStore) (*Event, error) {
		box, err := e.loadOpen(e.deposits, db, boxID)
		if err != nil {
			return nil, err
		}
		if !box.Sender.Equals(caller) {
			return nil, errors.Wrap(errors.ErrUnauthorized, "only the box sender may expire")
		}
		if err := e.ensureElapsed(ctx, db, box); err != nil {
			return nil, err
		}

		if err := e.ledger.Transfer(db, e.addr, box.Sender, box.Amount); err != nil {
			return nil, err
		}
		box.Status = StatusExpired
		if err := e.deposits.Save(db, boxID, box); err != nil {
			return nil, err
		}
		return nil, nil
	})
}

// ExpireWithdraw voids an open withdraw box whose time lock has elapsed.
// Manager only. No deposit ever backed the payout, so no assets move; the
// fronted amount is credited back to the admin pooled liquidity.
func (e *Engine) ExpireWithdraw(ctx lockbox.Context, caller lockbox.Address, boxID []byte) error {
	return e.update(func(db lockbox.KVStore) (*Event, error) {
		if err := e.authorizeManager(db, caller); err != nil {
			return nil, err
		}
		box, err := e.loadOpen(e.withdraws, db, boxID)
		if err != nil {
			return nil, err
		}
		if err := e.ensureElapsed(ctx, db, box); err != nil {
			return nil, err
		}

		roles, err := e.roles.Get(db)
		if err != nil {
			return nil, err
		}
		if err := e.liquidity.Credit(db, roles.Admin, box.Payout()); err != nil {
			return nil, err
		}
		box.Status = StatusExpired
		if err := e.withdraws.Save(db, boxID, box); err != nil {
			return nil, err
		}
		return nil, nil
	})
}

// CheckDeposit returns a copy of the deposit lock box record. It fails
// with ErrNotFound if the identifier was never opened.
func (e *Engine) CheckDeposit(boxID []byte) (*LockBox, error) {
	return e.check(e.deposits, boxID)
}

// CheckWithdraw returns a copy of the withdraw lock box record. It fails
// with ErrNotFound if the identifier was never opened.
func (e *Engine) CheckWithdraw(boxID []byte) (*LockBox, error) {
	return e.check(e.withdraws, boxID)
}

// CheckSecretKeyWithdraw returns the secret key revealed when the withdraw
// box was closed. It fails with ErrNotFound for an unknown box and with
// ErrState for a box that is not closed.
func (e *Engine) CheckSecretKeyWithdraw(boxID []byte) ([]byte, error) {
	box, err := e.check(e.withdraws, boxID)
	if err != nil {
		return nil, err
	}
	if box.Status != StatusClosed {
		return nil, errors.Wrapf(errors.ErrState, "withdraw box is %s", box.Status)
	}
	return box.SecretKey, nil
}

// IncreaseLiquidity pulls amount from the caller wallet into the engine
// hold and credits the given liquidity entry. Admin only. The caller must
// have granted the engine a sufficient allowance.
func (e *Engine) IncreaseLiquidity(ctx lockbox.Context, caller, addr lockbox.Address, amount int64) error {
	return e.update(func(db lockbox.KVStore) (*Event, error) {
		ok, err := e.roles.IsAdmin(db, caller)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, errors.Wrapf(errors.ErrUnauthorized, "caller %s is not the admin", caller)
		}
		if amount <= 0 {
			return nil, errors.Wrap(errors.ErrInput, "non-positive amount")
		}
		if err := e.ledger.TransferFrom(db, e.addr, caller, e.addr, amount); err != nil {
			return nil, err
		}
		return nil, e.liquidity.Credit(db, addr, amount)
	})
}

// BalanceOfLiquidity returns the pooled balance tracked for the address
func (e *Engine) BalanceOfLiquidity(addr lockbox.Address) (int64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.liquidity.Balance(e.db, addr)
}

// IterateLiquidity walks all liquidity entries in ascending address order.
// The engine lock is held for the whole walk, fn must not call back into
// the engine.
func (e *Engine) IterateLiquidity(fn func(addr lockbox.Address, balance int64) bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.liquidity.Iterate(e.db, fn)
}

// AddManager adds the address to the manager set. Admin only, idempotent.
func (e *Engine) AddManager(caller, addr lockbox.Address) error {
	return e.update(func(db lockbox.KVStore) (*Event, error) {
		return nil, e.roles.AddManager(db, caller, addr)
	})
}

// RemoveManager removes the address from the manager set. Admin only;
// removing a non-member is a no-op.
func (e *Engine) RemoveManager(caller, addr lockbox.Address) error {
	return e.update(func(db lockbox.KVStore) (*Event, error) {
		return nil, e.roles.RemoveManager(db, caller, addr)
	})
}

// IsManager returns true if the address is a member of the manager set
func (e *Engine) IsManager(addr lockbox.Address) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.roles.IsManager(e.db, addr)
}

// ChangeTimeLock sets the global time-lock duration. Manager only. The new
// duration applies to expiry checks of all boxes, including the ones that
// are already open.
func (e *Engine) ChangeTimeLock(caller lockbox.Address, duration lockbox.UnixDuration) error {
	return e.update(func(db lockbox.KVStore) (*Event, error) {
		if err := e.authorizeManager(db, caller); err != nil {
			return nil, err
		}
		conf, err := loadConfiguration(db)
		if err != nil {
			return nil, err
		}
		conf.TimeLock = duration
		return nil, saveConfiguration(db, conf)
	})
}

// TimeLock returns the currently configured time-lock duration
func (e *Engine) TimeLock() (lockbox.UnixDuration, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	conf, err := loadConfiguration(e.db)
	if err != nil {
		return 0, err
	}
	return conf.TimeLock, nil
}

//------ internals ------

// update runs fn against a cache wrap of the engine store. On success the
// cache is written (and committed when the store supports it) and the
// returned event, if any, is emitted. On failure the cache is discarded,
// so no partial state survives. The engine lock is held for the whole
// operation, cache wrapping the shared store is not safe concurrently.
func (e *Engine) update(fn func(db lockbox.KVStore) (*Event, error)) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	cache := e.db.CacheWrap()
	ev, err := fn(cache)
	if err != nil {
		cache.Discard()
		return err
	}
	cache.Write()
	if c, ok := e.db.(committer); ok {
		c.Commit()
	}
	if ev != nil {
		for _, em := range e.emitters {
			em.Emit(*ev)
		}
	}
	return nil
}

// check is the shared read-only projection of a lock box record
func (e *Engine) check(bucket Bucket, boxID []byte) (*LockBox, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	box, err := bucket.Get(e.db, boxID)
	if err != nil {
		return nil, err
	}
	if box == nil {
		return nil, errors.Wrapf(errors.ErrNotFound, "box %X", boxID)
	}
	return box, nil
}

// loadOpen loads a box that must exist and be open. Operating on a box in
// any other state fails without partial effect.
func (e *Engine) loadOpen(bucket Bucket, db lockbox.ReadOnlyKVStore, boxID []byte) (*LockBox, error) {
	box, err := bucket.Get(db, boxID)
	if err != nil {
		return nil, err
	}
	if box == nil {
		return nil, errors.Wrapf(errors.ErrState, "box %X was never opened", boxID)
	}
	if box.Status != StatusOpen {
		return nil, errors.Wrapf(errors.ErrState, "box %X is %s", boxID, box.Status)
	}
	return box, nil
}

// ensureElapsed fails with ErrTimeLock until the box may be expired. The
// comparison is inclusive: expiry succeeds the second the deadline is
// reached.
func (e *Engine) ensureElapsed(ctx lockbox.Context, db lockbox.ReadOnlyKVStore, box *LockBox) error {
	now, err := e.now(ctx)
	if err != nil {
		return err
	}
	conf, err := loadConfiguration(db)
	if err != nil {
		return err
	}
	deadline := box.CreatedAt.Add(conf.TimeLock.Duration())
	if now < deadline {
		return errors.Wrapf(errors.ErrTimeLock, "until %s", deadline)
	}
	return nil
}

// authorizeManager fails with ErrUnauthorized unless the caller is a
// member of the manager set
func (e *Engine) authorizeManager(db lockbox.ReadOnlyKVStore, caller lockbox.Address) error {
	ok, err := e.roles.IsManager(db, caller)
	if err != nil {
		return err
	}
	if !ok {
		return errors.Wrapf(errors.ErrUnauthorized, "caller %s is not a manager", caller)
	}
	return nil
}

// matchLock verifies the revealed key against the stored lock. Comparison
// is exact digest equality.
func matchLock(lock, key []byte) error {
	if len(key) != SecretKeySize {
		return errors.Wrapf(errors.ErrInput, "secret key has to be exactly %d bytes", SecretKeySize)
	}
	if !bytes.Equal(lock, HashKey(key)) {
		return errors.Wrap(errors.ErrHashMismatch, "invalid secret key")
	}
	return nil
}

// now reads the network clock from the context
func (e *Engine) now(ctx lockbox.Context) (lockbox.UnixTime, error) {
	t, ok := lockbox.BlockTime(ctx)
	if !ok {
		return 0, errors.Wrap(errors.ErrHuman, "block time is not present")
	}
	return lockbox.AsUnixTime(t), nil
}
