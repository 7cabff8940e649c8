package swap_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/iov-one/lockbox"
	"github.com/iov-one/lockbox/errors"
	"github.com/iov-one/lockbox/lockboxtest"
	"github.com/iov-one/lockbox/lockboxtest/assert"
	"github.com/iov-one/lockbox/store"
	"github.com/iov-one/lockbox/store/iavl"
	"github.com/iov-one/lockbox/x/swap"
	"github.com/iov-one/lockbox/x/token"
)

// the token controller is the ledger every test engine is bound to
var _ swap.Ledger = token.Controller{}

const (
	startTime    = int64(1600000000)
	timeLock     = time.Hour
	liquidityPot = int64(500000)
)

type fixture struct {
	db     lockbox.CacheableKVStore
	ledger token.Controller
	engine *swap.Engine
	events *swap.Recorder

	admin      lockbox.Address
	manager    lockbox.Address
	feeManager lockbox.Address
	alice      lockbox.Address
	bob        lockbox.Address
}

// newFixture returns an initialized engine with one registered manager,
// funded wallets for alice and the admin, allowances granted to the engine
// and the admin liquidity pool filled.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		db:         store.MemStore(),
		ledger:     token.NewController(),
		events:     &swap.Recorder{},
		admin:      lockboxtest.NewAddress(),
		manager:    lockboxtest.NewAddress(),
		feeManager: lockboxtest.NewAddress(),
		alice:      lockboxtest.NewAddress(),
		bob:        lockboxtest.NewAddress(),
	}
	f.engine = swap.NewEngine(f.db, f.ledger, "alpha", swap.WithEmitter(f.events))

	assert.Nil(t, f.engine.Initialize(f.admin, f.feeManager, lockbox.AsUnixDuration(timeLock)))
	assert.Nil(t, f.engine.AddManager(f.admin, f.manager))

	assert.Nil(t, f.ledger.Issue(f.db, f.alice, 1000000))
	assert.Nil(t, f.ledger.Approve(f.db, f.alice, f.engine.Address(), 1000000))
	assert.Nil(t, f.ledger.Issue(f.db, f.admin, 1000000))
	assert.Nil(t, f.ledger.Approve(f.db, f.admin, f.engine.Address(), 1000000))
	assert.Nil(t, f.engine.IncreaseLiquidity(lockboxtest.CtxAt(startTime), f.admin, f.admin, liquidityPot))
	return f
}

func (f *fixture) balance(t *testing.T, addr lockbox.Address) int64 {
	t.Helper()
	b, err := f.ledger.BalanceOf(f.db, addr)
	assert.Nil(t, err)
	return b
}

func (f *fixture) liquidity(t *testing.T, addr lockbox.Address) int64 {
	t.Helper()
	b, err := f.engine.BalanceOfLiquidity(addr)
	assert.Nil(t, err)
	return b
}

func (f *fixture) openDeposit(t *testing.T, boxID, lock []byte) {
	t.Helper()
	err := f.engine.OpenDeposit(lockboxtest.CtxAt(startTime), f.alice, boxID,
		10000, 100, 200, f.bob, lock)
	assert.Nil(t, err)
}

func (f *fixture) openWithdraw(t *testing.T, boxID, lock []byte) {
	t.Helper()
	err := f.engine.OpenWithdraw(lockboxtest.CtxAt(startTime), f.manager, boxID,
		10000, 100, 200, f.alice, f.bob, lock)
	assert.Nil(t, err)
}

func TestOpenDepositRoundTrip(t *testing.T) {
	f := newFixture(t)
	_, lock := lockboxtest.NewSecret()
	boxID := []byte("swap-1")

	f.openDeposit(t, boxID, lock)

	box, err := f.engine.CheckDeposit(boxID)
	assert.Nil(t, err)
	assert.Equal(t, swap.StatusOpen, box.Status)
	assert.Equal(t, int64(10000), box.Amount)
	assert.Equal(t, int64(100), box.SwapFee)
	assert.Equal(t, int64(200), box.NetworkFee)
	assert.Equal(t, f.alice, box.Sender)
	assert.Equal(t, f.bob, box.Receiver)
	assert.Equal(t, lock, box.Lock)
	assert.Equal(t, lockbox.UnixTime(startTime), box.CreatedAt)
	assert.Equal(t, 0, len(box.SecretKey))

	// the principal moved from the sender into the engine hold
	assert.Equal(t, int64(1000000-10000), f.balance(t, f.alice))
	assert.Equal(t, liquidityPot+10000, f.balance(t, f.engine.Address()))

	assert.Equal(t, 1, len(f.events.Events))
	assert.Equal(t, swap.EventOpenDeposit, f.events.Events[0].Type)
	assert.Equal(t, boxID, f.events.Events[0].BoxID)
}

func TestOpenDepositRejectsDuplicateID(t *testing.T) {
	f := newFixture(t)
	_, lock := lockboxtest.NewSecret()
	boxID := []byte("swap-1")
	f.openDeposit(t, boxID, lock)

	err := f.engine.OpenDeposit(lockboxtest.CtxAt(startTime), f.alice, boxID,
		20000, 100, 200, f.bob, lock)
	assert.IsErr(t, errors.ErrState, err)

	// the first box must be untouched
	box, err := f.engine.CheckDeposit(boxID)
	assert.Nil(t, err)
	assert.Equal(t, int64(10000), box.Amount)
}

func TestOpenDepositFeeMustBeBelowAmount(t *testing.T) {
	f := newFixture(t)
	_, lock := lockboxtest.NewSecret()
	ctx := lockboxtest.CtxAt(startTime)

	// fees equal to amount are rejected just like fees above it
	err := f.engine.OpenDeposit(ctx, f.alice, []byte("a"), 300, 100, 200, f.bob, lock)
	assert.IsErr(t, errors.ErrInsufficientFee, err)
	err = f.engine.OpenDeposit(ctx, f.alice, []byte("a"), 299, 100, 200, f.bob, lock)
	assert.IsErr(t, errors.ErrInsufficientFee, err)

	// one unit above the fee total is enough
	err = f.engine.OpenDeposit(ctx, f.alice, []byte("a"), 301, 100, 200, f.bob, lock)
	assert.Nil(t, err)
}

func TestOpenDepositValidatesInput(t *testing.T) {
	f := newFixture(t)
	key, lock := lockboxtest.NewSecret()
	ctx := lockboxtest.CtxAt(startTime)

	err := f.engine.OpenDeposit(ctx, f.alice, nil, 10000, 100, 200, f.bob, lock)
	assert.IsErr(t, errors.ErrEmpty, err)

	longID := make([]byte, 65)
	err = f.engine.OpenDeposit(ctx, f.alice, longID, 10000, 100, 200, f.bob, lock)
	assert.IsErr(t, errors.ErrInput, err)

	err = f.engine.OpenDeposit(ctx, f.alice, []byte("a"), 10000, 100, 200, f.bob, key[:31])
	assert.FieldError(t, err, "Lock", errors.ErrInput)

	err = f.engine.OpenDeposit(ctx, f.alice, []byte("a"), 10000, 100, 200, nil, lock)
	assert.FieldError(t, err, "Receiver", errors.ErrEmpty)
}

func TestOpenDepositIsAtomic(t *testing.T) {
	f := newFixture(t)
	_, lock := lockboxtest.NewSecret()

	// no allowance was granted for this sender, the transfer fails
	carol := lockboxtest.NewAddress()
	assert.Nil(t, f.ledger.Issue(f.db, carol, 50000))
	err := f.engine.OpenDeposit(lockboxtest.CtxAt(startTime), carol, []byte("a"),
		10000, 100, 200, f.bob, lock)
	assert.IsErr(t, errors.ErrInsufficientFunds, err)

	// nothing may remain of the failed operation
	_, err = f.engine.CheckDeposit([]byte("a"))
	assert.IsErr(t, errors.ErrNotFound, err)
	assert.Equal(t, int64(50000), f.balance(t, carol))
	assert.Equal(t, 0, len(f.events.Events))
}

func TestConcurrentOpenDeposits(t *testing.T) {
	// operations on one engine may come from many goroutines at once.
	// Every open with a distinct id has to succeed and the escrowed
	// funds must add up, concurrent cache wraps of the shared store
	// would corrupt both.
	f := newFixture(t)
	_, lock := lockboxtest.NewSecret()

	const workers = 8
	const perWorker = 4

	var wg sync.WaitGroup
	errs := make([]error, workers)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				boxID := []byte{byte(w), byte(i)}
				err := f.engine.OpenDeposit(lockboxtest.CtxAt(startTime), f.alice, boxID,
					10000, 100, 200, f.bob, lock)
				if err != nil {
					errs[w] = err
					return
				}
				if _, err := f.engine.CheckDeposit(boxID); err != nil {
					errs[w] = err
					return
				}
			}
		}(w)
	}
	wg.Wait()

	for w, err := range errs {
		if err != nil {
			t.Fatalf("worker %d: %+v", w, err)
		}
	}
	const total = workers * perWorker
	assert.Equal(t, int64(1000000-total*10000), f.balance(t, f.alice))
	assert.Equal(t, total, len(f.events.Events))
	for w := 0; w < workers; w++ {
		for i := 0; i < perWorker; i++ {
			box, err := f.engine.CheckDeposit([]byte{byte(w), byte(i)})
			assert.Nil(t, err)
			assert.Equal(t, swap.StatusOpen, box.Status)
		}
	}
}

func TestOpenWithdrawPaysReceiverUpfront(t *testing.T) {
	f := newFixture(t)
	_, lock := lockboxtest.NewSecret()
	boxID := []byte("swap-1")

	f.openWithdraw(t, boxID, lock)

	// 10000 less 100 swap fee and 200 network fee
	assert.Equal(t, int64(9700), f.balance(t, f.bob))
	assert.Equal(t, liquidityPot-9700, f.liquidity(t, f.admin))
	assert.Equal(t, liquidityPot-9700, f.balance(t, f.engine.Address()))

	box, err := f.engine.CheckWithdraw(boxID)
	assert.Nil(t, err)
	assert.Equal(t, swap.StatusOpen, box.Status)
	assert.Equal(t, int64(9700), box.Payout())

	assert.Equal(t, 1, len(f.events.Events))
	assert.Equal(t, swap.EventOpenWithdraw, f.events.Events[0].Type)
}

func TestOpenWithdrawRequiresManager(t *testing.T) {
	f := newFixture(t)
	_, lock := lockboxtest.NewSecret()

	err := f.engine.OpenWithdraw(lockboxtest.CtxAt(startTime), f.alice, []byte("a"),
		10000, 100, 200, f.alice, f.bob, lock)
	assert.IsErr(t, errors.ErrUnauthorized, err)

	// the admin holds no manager powers by default
	err = f.engine.OpenWithdraw(lockboxtest.CtxAt(startTime), f.admin, []byte("a"),
		10000, 100, 200, f.alice, f.bob, lock)
	assert.IsErr(t, errors.ErrUnauthorized, err)

	_, err = f.engine.CheckWithdraw([]byte("a"))
	assert.IsErr(t, errors.ErrNotFound, err)
}

func TestOpenWithdrawRequiresLiquidity(t *testing.T) {
	f := newFixture(t)
	_, lock := lockboxtest.NewSecret()

	err := f.engine.OpenWithdraw(lockboxtest.CtxAt(startTime), f.manager, []byte("a"),
		liquidityPot+1000, 100, 200, f.alice, f.bob, lock)
	assert.IsErr(t, errors.ErrInsufficientFunds, err)

	// the failed payout must not touch the pool
	assert.Equal(t, liquidityPot, f.liquidity(t, f.admin))
	assert.Equal(t, int64(0), f.balance(t, f.bob))
}

func TestCloseWithdraw(t *testing.T) {
	f := newFixture(t)
	key, lock := lockboxtest.NewSecret()
	boxID := []byte("swap-1")
	f.openWithdraw(t, boxID, lock)
	ctx := lockboxtest.CtxAt(startTime + 10)

	// a wrong key of the right size is a hash mismatch
	wrong, _ := lockboxtest.NewSecret()
	err := f.engine.CloseWithdraw(ctx, f.bob, boxID, wrong)
	assert.IsErr(t, errors.ErrHashMismatch, err)

	// a key of the wrong size never reaches the digest comparison
	err = f.engine.CloseWithdraw(ctx, f.bob, boxID, key[:16])
	assert.IsErr(t, errors.ErrInput, err)

	// any caller holding the key may close
	assert.Nil(t, f.engine.CloseWithdraw(ctx, f.alice, boxID, key))

	box, err := f.engine.CheckWithdraw(boxID)
	assert.Nil(t, err)
	assert.Equal(t, swap.StatusClosed, box.Status)
	assert.Equal(t, key, box.SecretKey)

	got, err := f.engine.CheckSecretKeyWithdraw(boxID)
	assert.Nil(t, err)
	assert.Equal(t, key, got)

	// closing moves no assets, the receiver was paid at open
	assert.Equal(t, int64(9700), f.balance(t, f.bob))

	err = f.engine.CloseWithdraw(ctx, f.alice, boxID, key)
	assert.IsErr(t, errors.ErrState, err)
}

func TestCloseDepositSettlesLiquidity(t *testing.T) {
	f := newFixture(t)
	key, lock := lockboxtest.NewSecret()
	boxID := []byte("swap-1")
	f.openDeposit(t, boxID, lock)
	ctx := lockboxtest.CtxAt(startTime + 10)

	err := f.engine.CloseDeposit(ctx, f.alice, boxID, key)
	assert.IsErr(t, errors.ErrUnauthorized, err)

	wrong, _ := lockboxtest.NewSecret()
	err = f.engine.CloseDeposit(ctx, f.manager, boxID, wrong)
	assert.IsErr(t, errors.ErrHashMismatch, err)

	assert.Nil(t, f.engine.CloseDeposit(ctx, f.manager, boxID, key))

	// the full principal pools on the admin entry, the fee total on the
	// fee manager entry; the assets never leave the engine hold
	assert.Equal(t, liquidityPot+10000, f.liquidity(t, f.admin))
	assert.Equal(t, int64(300), f.liquidity(t, f.feeManager))
	assert.Equal(t, liquidityPot+10000, f.balance(t, f.engine.Address()))

	box, err := f.engine.CheckDeposit(boxID)
	assert.Nil(t, err)
	assert.Equal(t, swap.StatusClosed, box.Status)
	assert.Equal(t, key, box.SecretKey)

	err = f.engine.CloseDeposit(ctx, f.manager, boxID, key)
	assert.IsErr(t, errors.ErrState, err)
}

func TestCloseDepositIgnoresTimeLock(t *testing.T) {
	f := newFixture(t)
	key, lock := lockboxtest.NewSecret()
	boxID := []byte("swap-1")
	f.openDeposit(t, boxID, lock)

	// a revealed key settles the box even long past the deadline
	late := lockboxtest.CtxAt(startTime + 10*3600)
	assert.Nil(t, f.engine.CloseDeposit(late, f.manager, boxID, key))
}

func TestExpireDeposit(t *testing.T) {
	f := newFixture(t)
	_, lock := lockboxtest.NewSecret()
	boxID := []byte("swap-1")
	f.openDeposit(t, boxID, lock)

	deadline := startTime + int64(timeLock/time.Second)

	err := f.engine.ExpireDeposit(lockboxtest.CtxAt(deadline), f.bob, boxID)
	assert.IsErr(t, errors.ErrUnauthorized, err)

	err = f.engine.ExpireDeposit(lockboxtest.CtxAt(deadline-1), f.alice, boxID)
	assert.IsErr(t, errors.ErrTimeLock, err)

	// the boundary is inclusive
	assert.Nil(t, f.engine.ExpireDeposit(lockboxtest.CtxAt(deadline), f.alice, boxID))

	// the refund carries the full principal, fees included
	assert.Equal(t, int64(1000000), f.balance(t, f.alice))
	assert.Equal(t, liquidityPot, f.balance(t, f.engine.Address()))

	box, err := f.engine.CheckDeposit(boxID)
	assert.Nil(t, err)
	assert.Equal(t, swap.StatusExpired, box.Status)

	err = f.engine.ExpireDeposit(lockboxtest.CtxAt(deadline), f.alice, boxID)
	assert.IsErr(t, errors.ErrState, err)
}

func TestExpiredDepositCannotBeClosed(t *testing.T) {
	f := newFixture(t)
	key, lock := lockboxtest.NewSecret()
	boxID := []byte("swap-1")
	f.openDeposit(t, boxID, lock)

	deadline := startTime + int64(timeLock/time.Second)
	assert.Nil(t, f.engine.ExpireDeposit(lockboxtest.CtxAt(deadline), f.alice, boxID))

	err := f.engine.CloseDeposit(lockboxtest.CtxAt(deadline), f.manager, boxID, key)
	assert.IsErr(t, errors.ErrState, err)
}

func TestExpireWithdraw(t *testing.T) {
	f := newFixture(t)
	_, lock := lockboxtest.NewSecret()
	boxID := []byte("swap-1")
	f.openWithdraw(t, boxID, lock)

	deadline := startTime + int64(timeLock/time.Second)

	err := f.engine.ExpireWithdraw(lockboxtest.CtxAt(deadline), f.alice, boxID)
	assert.IsErr(t, errors.ErrUnauthorized, err)

	err = f.engine.ExpireWithdraw(lockboxtest.CtxAt(deadline-1), f.manager, boxID)
	assert.IsErr(t, errors.ErrTimeLock, err)

	assert.Nil(t, f.engine.ExpireWithdraw(lockboxtest.CtxAt(deadline), f.manager, boxID))

	// bookkeeping only: the pool is restored, no asset moves and the
	// receiver keeps the upfront payout
	assert.Equal(t, liquidityPot, f.liquidity(t, f.admin))
	assert.Equal(t, int64(9700), f.balance(t, f.bob))
	assert.Equal(t, liquidityPot-9700, f.balance(t, f.engine.Address()))

	box, err := f.engine.CheckWithdraw(boxID)
	assert.Nil(t, err)
	assert.Equal(t, swap.StatusExpired, box.Status)

	err = f.engine.ExpireWithdraw(lockboxtest.CtxAt(deadline), f.manager, boxID)
	assert.IsErr(t, errors.ErrState, err)
}

func TestChangeTimeLockIsRetroactive(t *testing.T) {
	f := newFixture(t)
	_, lock := lockboxtest.NewSecret()
	boxID := []byte("swap-1")
	f.openDeposit(t, boxID, lock)

	err := f.engine.ChangeTimeLock(f.alice, lockbox.AsUnixDuration(10*time.Minute))
	assert.IsErr(t, errors.ErrUnauthorized, err)

	assert.Nil(t, f.engine.ChangeTimeLock(f.manager, lockbox.AsUnixDuration(10*time.Minute)))
	d, err := f.engine.TimeLock()
	assert.Nil(t, err)
	assert.Equal(t, lockbox.AsUnixDuration(10*time.Minute), d)

	// the shortened duration applies to the box opened before the change
	assert.Nil(t, f.engine.ExpireDeposit(lockboxtest.CtxAt(startTime+600), f.alice, boxID))
}

func TestCheckUnknownBox(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.CheckDeposit([]byte("missing"))
	assert.IsErr(t, errors.ErrNotFound, err)
	_, err = f.engine.CheckWithdraw([]byte("missing"))
	assert.IsErr(t, errors.ErrNotFound, err)
	_, err = f.engine.CheckSecretKeyWithdraw([]byte("missing"))
	assert.IsErr(t, errors.ErrNotFound, err)
}

func TestSecretKeyOfOpenBox(t *testing.T) {
	f := newFixture(t)
	_, lock := lockboxtest.NewSecret()
	boxID := []byte("swap-1")
	f.openWithdraw(t, boxID, lock)

	_, err := f.engine.CheckSecretKeyWithdraw(boxID)
	assert.IsErr(t, errors.ErrState, err)
}

func TestSameIDOnBothSides(t *testing.T) {
	f := newFixture(t)
	_, lock := lockboxtest.NewSecret()
	boxID := []byte("swap-1")

	// deposit and withdraw buckets are independent namespaces
	f.openDeposit(t, boxID, lock)
	f.openWithdraw(t, boxID, lock)

	dep, err := f.engine.CheckDeposit(boxID)
	assert.Nil(t, err)
	wit, err := f.engine.CheckWithdraw(boxID)
	assert.Nil(t, err)
	assert.Equal(t, f.alice, dep.Sender)
	assert.Equal(t, f.bob, wit.Receiver)
}

func TestManagerAdministration(t *testing.T) {
	f := newFixture(t)
	carol := lockboxtest.NewAddress()

	ok, err := f.engine.IsManager(carol)
	assert.Nil(t, err)
	assert.Equal(t, false, ok)

	err = f.engine.AddManager(f.manager, carol)
	assert.IsErr(t, errors.ErrUnauthorized, err)

	assert.Nil(t, f.engine.AddManager(f.admin, carol))
	// adding twice is a no-op
	assert.Nil(t, f.engine.AddManager(f.admin, carol))
	ok, err = f.engine.IsManager(carol)
	assert.Nil(t, err)
	assert.Equal(t, true, ok)

	assert.Nil(t, f.engine.RemoveManager(f.admin, carol))
	// removing a non-member is a no-op as well
	assert.Nil(t, f.engine.RemoveManager(f.admin, carol))
	ok, err = f.engine.IsManager(carol)
	assert.Nil(t, err)
	assert.Equal(t, false, ok)

	// a removed manager loses all privileged calls
	_, lock := lockboxtest.NewSecret()
	assert.Nil(t, f.engine.AddManager(f.admin, carol))
	assert.Nil(t, f.engine.RemoveManager(f.admin, carol))
	err = f.engine.OpenWithdraw(lockboxtest.CtxAt(startTime), carol, []byte("a"),
		10000, 100, 200, f.alice, f.bob, lock)
	assert.IsErr(t, errors.ErrUnauthorized, err)
}

func TestIncreaseLiquidity(t *testing.T) {
	f := newFixture(t)
	ctx := lockboxtest.CtxAt(startTime)

	err := f.engine.IncreaseLiquidity(ctx, f.alice, f.alice, 1000)
	assert.IsErr(t, errors.ErrUnauthorized, err)

	err = f.engine.IncreaseLiquidity(ctx, f.admin, f.admin, 0)
	assert.IsErr(t, errors.ErrInput, err)

	// the admin may credit any entry, not only its own
	assert.Nil(t, f.engine.IncreaseLiquidity(ctx, f.admin, f.feeManager, 1000))
	assert.Equal(t, int64(1000), f.liquidity(t, f.feeManager))
	assert.Equal(t, liquidityPot+1000, f.balance(t, f.engine.Address()))
}

func TestIterateLiquidity(t *testing.T) {
	f := newFixture(t)
	ctx := lockboxtest.CtxAt(startTime)
	assert.Nil(t, f.engine.IncreaseLiquidity(ctx, f.admin, f.feeManager, 1000))

	total := int64(0)
	count := 0
	err := f.engine.IterateLiquidity(func(addr lockbox.Address, balance int64) bool {
		total += balance
		count++
		return true
	})
	assert.Nil(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, liquidityPot+1000, total)
}

func TestInitializeOnce(t *testing.T) {
	f := newFixture(t)
	err := f.engine.Initialize(f.alice, f.alice, lockbox.AsUnixDuration(time.Minute))
	assert.IsErr(t, errors.ErrState, err)
}

func TestOperationsRequireBlockTime(t *testing.T) {
	f := newFixture(t)
	_, lock := lockboxtest.NewSecret()

	err := f.engine.OpenDeposit(context.Background(), f.alice, []byte("a"),
		10000, 100, 200, f.bob, lock)
	assert.IsErr(t, errors.ErrHuman, err)
}

func TestEngineCommitsDurableStore(t *testing.T) {
	db := iavl.MockCommitStore()
	ledger := token.NewController()
	engine := swap.NewEngine(db, ledger, "alpha")

	admin := lockboxtest.NewAddress()
	feeManager := lockboxtest.NewAddress()
	assert.Nil(t, engine.Initialize(admin, feeManager, lockbox.AsUnixDuration(timeLock)))

	// every successful operation saved a version to the backing tree
	first := db.LatestVersion()
	if first.Version == 0 {
		t.Fatal("initialization was not committed")
	}
	assert.Nil(t, engine.AddManager(admin, lockboxtest.NewAddress()))
	second := db.LatestVersion()
	assert.Equal(t, first.Version+1, second.Version)

	// a failed operation must not produce a version
	err := engine.AddManager(feeManager, lockboxtest.NewAddress())
	assert.IsErr(t, errors.ErrUnauthorized, err)
	assert.Equal(t, second.Version, db.LatestVersion().Version)
}

func TestDepositLifecycleEvents(t *testing.T) {
	f := newFixture(t)
	key, lock := lockboxtest.NewSecret()
	boxID := []byte("swap-1")
	ctx := lockboxtest.CtxAt(startTime)

	f.openDeposit(t, boxID, lock)
	assert.Nil(t, f.engine.CloseDeposit(ctx, f.manager, boxID, key))

	assert.Equal(t, 2, len(f.events.Events))
	assert.Equal(t, swap.EventOpenDeposit, f.events.Events[0].Type)
	assert.Equal(t, swap.EventCloseDeposit, f.events.Events[1].Type)
	assert.Equal(t, key, f.events.Events[1].Box.SecretKey)
}
