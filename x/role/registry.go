package role

import (
	"github.com/iov-one/lockbox"
	"github.com/iov-one/lockbox/errors"
)

// Registry tracks the engine admin and the manager set. All mutating calls
// are admin gated; a call from any other address fails with ErrUnauthorized
// and performs no state change.
type Registry struct {
	bucket Bucket
}

// NewRegistry returns a registry over the default bucket
func NewRegistry() Registry {
	return Registry{bucket: NewBucket()}
}

// Initialize writes the initial role set: the given admin and no managers.
// It fails if the registry was already initialized.
func (r Registry) Initialize(db lockbox.KVStore, admin lockbox.Address) error {
	if _, err := r.bucket.GetRoles(db); !errors.ErrNotFound.Is(err) {
		if err != nil {
			return err
		}
		return errors.Wrap(errors.ErrState, "already initialized")
	}
	return r.bucket.SaveRoles(db, &Roles{Admin: admin})
}

// Get returns the current role set
func (r Registry) Get(db lockbox.ReadOnlyKVStore) (*Roles, error) {
	return r.bucket.GetRoles(db)
}

// IsAdmin returns true if the address is the engine owner
func (r Registry) IsAdmin(db lockbox.ReadOnlyKVStore, addr lockbox.Address) (bool, error) {
	roles, err := r.bucket.GetRoles(db)
	if err != nil {
		return false, err
	}
	return roles.Admin.Equals(addr), nil
}

// IsManager returns true if the address is a member of the manager set
func (r Registry) IsManager(db lockbox.ReadOnlyKVStore, addr lockbox.Address) (bool, error) {
	roles, err := r.bucket.GetRoles(db)
	if err != nil {
		return false, err
	}
	return roles.HasManager(addr), nil
}

// AddManager adds the address to the manager set. Only the admin may call
// this. Adding an address that is already a manager is a no-op, so relays
// may retry blindly.
func (r Registry) AddManager(db lockbox.KVStore, caller, addr lockbox.Address) error {
	roles, err := r.authorize(db, caller)
	if err != nil {
		return err
	}
	if err := addr.Validate(); err != nil {
		return errors.Field("Manager", err, "invalid address")
	}
	if roles.HasManager(addr) {
		return nil
	}
	roles.Managers = append(roles.Managers, addr)
	return r.bucket.SaveRoles(db, roles)
}

// RemoveManager removes the address from the manager set. Only the admin
// may call this. Removing an address that is not a manager is a no-op.
func (r Registry) RemoveManager(db lockbox.KVStore, caller, addr lockbox.Address) error {
	roles, err := r.authorize(db, caller)
	if err != nil {
		return err
	}
	for i, m := range roles.Managers {
		if m.Equals(addr) {
			roles.Managers = append(roles.Managers[:i], roles.Managers[i+1:]...)
			return r.bucket.SaveRoles(db, roles)
		}
	}
	return nil
}

// authorize loads the role set and ensures the caller is the admin
func (r Registry) authorize(db lockbox.ReadOnlyKVStore, caller lockbox.Address) (*Roles, error) {
	roles, err := r.bucket.GetRoles(db)
	if err != nil {
		return nil, err
	}
	if !roles.Admin.Equals(caller) {
		return nil, errors.Wrapf(errors.ErrUnauthorized, "caller %s is not the admin", caller)
	}
	return roles, nil
}
