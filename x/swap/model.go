package swap

import (
	"crypto/sha256"
	"fmt"

	"github.com/iov-one/lockbox"
	"github.com/iov-one/lockbox/errors"
	"github.com/iov-one/lockbox/orm"
)

const (
	// DepositBucketName is the namespace of deposit lock boxes
	DepositBucketName = "dbox"
	// WithdrawBucketName is the namespace of withdraw lock boxes
	WithdrawBucketName = "wbox"

	// LockSize is the size of a hash lock in bytes (sha256 digest)
	LockSize = 32
	// SecretKeySize is the size of a secret key (preimage) in bytes
	SecretKeySize = 32

	// maxBoxIDSize bounds caller supplied lock box identifiers
	maxBoxIDSize = 64
)

// Status describes the lifecycle position of a lock box. A box that was
// never opened is Invalid. Once opened it is Open until terminated exactly
// once, by a close (Closed) or an expire (Expired).
type Status int32

const (
	StatusInvalid Status = iota
	StatusOpen
	StatusClosed
	StatusExpired
)

func (s Status) String() string {
	switch s {
	case StatusInvalid:
		return "invalid"
	case StatusOpen:
		return "open"
	case StatusClosed:
		return "closed"
	case StatusExpired:
		return "expired"
	default:
		return fmt.Sprintf("unknown (%d)", int32(s))
	}
}

// LockBox is one side of a single hash-locked transfer: the escrow of a
// user deposit on the source network, or the pooled-liquidity payout on the
// destination network. Principal, fees, participants and the hash lock are
// all fixed at creation. The secret key is populated only when the box is
// closed with a matching preimage.
type LockBox struct {
	Status     Status
	Amount     int64
	SwapFee    int64
	NetworkFee int64
	Sender     lockbox.Address
	Receiver   lockbox.Address
	Lock       []byte
	SecretKey  []byte
	CreatedAt  lockbox.UnixTime
}

var _ orm.CloneableData = (*LockBox)(nil)

// Marshal implements the orm.Persistent contract
func (b *LockBox) Marshal() ([]byte, error) {
	return cdc.MarshalBinaryBare(b)
}

// Unmarshal implements the orm.Persistent contract
func (b *LockBox) Unmarshal(raw []byte) error {
	return cdc.UnmarshalBinaryBare(raw, b)
}

// Validate ensures the lock box is in a storable state
func (b *LockBox) Validate() error {
	if b.Status < StatusOpen || b.Status > StatusExpired {
		return errors.Wrapf(errors.ErrState, "status %s", b.Status)
	}
	if b.Amount <= 0 {
		return errors.Wrap(errors.ErrInput, "non-positive amount")
	}
	if b.SwapFee < 0 || b.NetworkFee < 0 {
		return errors.Wrap(errors.ErrInput, "negative fee")
	}
	// amount must strictly exceed the fee total; written as a
	// subtraction to stay overflow safe
	if b.SwapFee >= b.Amount-b.NetworkFee {
		return errors.Wrap(errors.ErrInsufficientFee, "fees exceed amount")
	}
	var errs error
	errs = errors.AppendField(errs, "Sender", b.Sender.Validate())
	errs = errors.AppendField(errs, "Receiver", b.Receiver.Validate())
	errs = errors.AppendField(errs, "Lock", validateLock(b.Lock))
	if errs != nil {
		return errs
	}
	if len(b.SecretKey) != 0 {
		if b.Status != StatusClosed {
			return errors.Wrap(errors.ErrState, "secret key on a box that is not closed")
		}
		if len(b.SecretKey) != SecretKeySize {
			return errors.Wrapf(errors.ErrInput, "secret key has to be exactly %d bytes", SecretKeySize)
		}
	}
	if b.CreatedAt.IsZero() {
		// Zero creation time dates to 1970-01-01. We know this value
		// is in the past and makes no sense. Most likely the value
		// was not provided and a zero value remained.
		return errors.Wrap(errors.ErrInput, "creation time is required")
	}
	return b.CreatedAt.Validate()
}

// Copy makes an independent copy of the lock box
func (b *LockBox) Copy() orm.CloneableData {
	return &LockBox{
		Status:     b.Status,
		Amount:     b.Amount,
		SwapFee:    b.SwapFee,
		NetworkFee: b.NetworkFee,
		Sender:     b.Sender.Clone(),
		Receiver:   b.Receiver.Clone(),
		Lock:       append([]byte(nil), b.Lock...),
		SecretKey:  append([]byte(nil), b.SecretKey...),
		CreatedAt:  b.CreatedAt,
	}
}

// Fees returns the total fee charged on this transfer
func (b *LockBox) Fees() int64 {
	return b.SwapFee + b.NetworkFee
}

// Payout returns the amount the receiver is paid: principal minus fees
func (b *LockBox) Payout() int64 {
	return b.Amount - b.Fees()
}

// HashKey computes the digest a secret key is matched against
func HashKey(key []byte) []byte {
	hash := sha256.Sum256(key)
	return hash[:]
}

func validateLock(lock []byte) error {
	if len(lock) != LockSize {
		return errors.Wrapf(errors.ErrInput, "hash lock has to be exactly %d bytes", LockSize)
	}
	for _, c := range lock {
		if c != 0 {
			return nil
		}
	}
	return errors.Wrap(errors.ErrInput, "zero hash lock")
}

func validateBoxID(boxID []byte) error {
	if len(boxID) == 0 {
		return errors.Wrap(errors.ErrEmpty, "box id")
	}
	if len(boxID) > maxBoxIDSize {
		return errors.Wrapf(errors.ErrInput, "box id longer than %d bytes", maxBoxIDSize)
	}
	return nil
}

// Bucket is a type-safe wrapper around orm.Bucket. Deposit and withdraw
// boxes live in separate buckets, so the same identifier may exist once on
// each side of a swap.
type Bucket struct {
	orm.Bucket
}

// NewDepositBucket returns the bucket holding deposit lock boxes
func NewDepositBucket() Bucket {
	return Bucket{
		Bucket: orm.NewBucket(DepositBucketName, orm.NewSimpleObj(nil, new(LockBox))),
	}
}

// NewWithdrawBucket returns the bucket holding withdraw lock boxes
func NewWithdrawBucket() Bucket {
	return Bucket{
		Bucket: orm.NewBucket(WithdrawBucketName, orm.NewSimpleObj(nil, new(LockBox))),
	}
}

// Get returns the lock box stored under the identifier, or nil if the
// identifier was never used in this bucket.
func (b Bucket) Get(db lockbox.ReadOnlyKVStore, boxID []byte) (*LockBox, error) {
	obj, err := b.Bucket.Get(db, boxID)
	if err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, nil
	}
	return obj.Value().(*LockBox), nil
}

// Save persists the lock box under the identifier
func (b Bucket) Save(db lockbox.KVStore, boxID []byte, box *LockBox) error {
	return b.Bucket.Save(db, orm.NewSimpleObj(boxID, box))
}
