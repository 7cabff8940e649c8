package role

import (
	"fmt"

	"github.com/iov-one/lockbox"
	"github.com/iov-one/lockbox/errors"
	"github.com/iov-one/lockbox/orm"
	amino "github.com/tendermint/go-amino"
)

const (
	// bucketName contains the addresses holding engine roles
	bucketName = "roles"
	// rolesKey is the fixed key the single role set is stored under
	rolesKey = "accounts"
)

var cdc = amino.NewCodec()

// Roles is the single record tracking the engine owner ("admin") and the
// set of relaying "manager" addresses. It is consulted by every role-gated
// operation.
type Roles struct {
	Admin    lockbox.Address
	Managers []lockbox.Address
}

var _ orm.CloneableData = (*Roles)(nil)

// Marshal implements the orm.Persistent contract
func (r *Roles) Marshal() ([]byte, error) {
	return cdc.MarshalBinaryBare(r)
}

// Unmarshal implements the orm.Persistent contract
func (r *Roles) Unmarshal(raw []byte) error {
	return cdc.UnmarshalBinaryBare(raw, r)
}

// Validate enforces that the admin is always set and all members are
// proper addresses
func (r *Roles) Validate() error {
	errs := errors.AppendField(nil, "Admin", r.Admin.Validate())
	for i, m := range r.Managers {
		errs = errors.AppendField(errs, fmt.Sprintf("Managers.%d", i), m.Validate())
	}
	return errs
}

// Copy makes an independent copy of the role set
func (r *Roles) Copy() orm.CloneableData {
	managers := make([]lockbox.Address, len(r.Managers))
	for i, m := range r.Managers {
		managers[i] = m.Clone()
	}
	return &Roles{
		Admin:    r.Admin.Clone(),
		Managers: managers,
	}
}

// HasManager returns true if the given address is a member of the manager
// set
func (r *Roles) HasManager(addr lockbox.Address) bool {
	for _, m := range r.Managers {
		if m.Equals(addr) {
			return true
		}
	}
	return false
}

// Bucket is a type-safe wrapper around orm.Bucket
type Bucket struct {
	orm.Bucket
}

// NewBucket initializes a role.Bucket with default name
func NewBucket() Bucket {
	return Bucket{
		Bucket: orm.NewBucket(bucketName, orm.NewSimpleObj(nil, new(Roles))),
	}
}

// GetRoles returns the stored role set. It fails with ErrNotFound if the
// registry was never initialized.
func (b Bucket) GetRoles(db lockbox.ReadOnlyKVStore) (*Roles, error) {
	obj, err := b.Get(db, []byte(rolesKey))
	if err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, errors.Wrap(errors.ErrNotFound, "roles")
	}
	return obj.Value().(*Roles), nil
}

// SaveRoles persists the role set
func (b Bucket) SaveRoles(db lockbox.KVStore, r *Roles) error {
	return b.Save(db, orm.NewSimpleObj([]byte(rolesKey), r))
}
