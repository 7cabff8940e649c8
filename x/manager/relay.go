package manager

import (
	"github.com/iov-one/lockbox"
	"github.com/iov-one/lockbox/errors"
	"github.com/iov-one/lockbox/x/swap"
)

// Relay mirrors lock box events between the two engines of a swap pair.
// It acts with a single manager address that must be registered on both
// engines. A relay instance is directional state free: it can be restarted
// at any point and fed events in any order, every handler is safe to call
// more than once for the same box.
type Relay struct {
	addr   lockbox.Address
	source *swap.Engine
	dest   *swap.Engine
}

// NewRelay returns a relay forwarding events from the source engine to the
// destination engine, acting as the given manager address.
func NewRelay(addr lockbox.Address, source, dest *swap.Engine) *Relay {
	return &Relay{addr: addr, source: source, dest: dest}
}

// OnOpenDeposit mirrors a deposit box opened on the source network by
// opening the matching withdraw box on the destination network. The box
// identifier, parties, fees and hash lock carry over unchanged; the
// destination clock starts the withdraw time lock on arrival.
func (r *Relay) OnOpenDeposit(ctx lockbox.Context, boxID []byte) error {
	box, err := r.source.CheckDeposit(boxID)
	if err != nil {
		return errors.Wrap(err, "check source deposit")
	}
	err = r.dest.OpenWithdraw(ctx, r.addr, boxID,
		box.Amount, box.SwapFee, box.NetworkFee,
		box.Sender, box.Receiver, box.Lock)
	if errors.ErrState.Is(err) {
		// already mirrored, a redelivered event
		return nil
	}
	return err
}

// OnCloseWithdraw relays the secret key revealed on the destination
// network back to the source network, closing the deposit box there and
// settling the swap.
func (r *Relay) OnCloseWithdraw(ctx lockbox.Context, boxID []byte) error {
	key, err := r.dest.CheckSecretKeyWithdraw(boxID)
	if err != nil {
		return errors.Wrap(err, "check revealed key")
	}
	err = r.source.CloseDeposit(ctx, r.addr, boxID, key)
	if errors.ErrState.Is(err) {
		// the deposit box is no longer open, nothing left to settle
		return nil
	}
	return err
}

// ExpireWithdraws voids every open withdraw box on the destination network
// whose time lock elapsed. It returns the identifiers it expired. Boxes
// that are not yet expirable are skipped silently.
func (r *Relay) ExpireWithdraws(ctx lockbox.Context, boxIDs [][]byte) ([][]byte, error) {
	var expired [][]byte
	for _, id := range boxIDs {
		err := r.dest.ExpireWithdraw(ctx, r.addr, id)
		switch {
		case err == nil:
			expired = append(expired, id)
		case errors.ErrTimeLock.Is(err) || errors.ErrState.Is(err):
			// not due yet or already settled
		default:
			return expired, err
		}
	}
	return expired, nil
}

// BindSource returns an emitter that mirrors deposit boxes opened on the
// source engine. Wire it into the source engine with swap.WithEmitter.
// Relay failures surface through the given callback as the emitter
// interface carries no error return.
func (r *Relay) BindSource(ctx lockbox.Context, onErr func(error)) swap.Emitter {
	return swap.EmitterFunc(func(ev swap.Event) {
		if ev.Type != swap.EventOpenDeposit {
			return
		}
		if err := r.OnOpenDeposit(ctx, ev.BoxID); err != nil && onErr != nil {
			onErr(err)
		}
	})
}

// BindDest returns an emitter that relays secret keys revealed on the
// destination engine back to the source. Wire it into the destination
// engine with swap.WithEmitter.
func (r *Relay) BindDest(ctx lockbox.Context, onErr func(error)) swap.Emitter {
	return swap.EmitterFunc(func(ev swap.Event) {
		if ev.Type != swap.EventCloseWithdraw {
			return
		}
		if err := r.OnCloseWithdraw(ctx, ev.BoxID); err != nil && onErr != nil {
			onErr(err)
		}
	})
}
