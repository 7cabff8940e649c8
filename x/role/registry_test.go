package role

import (
	"testing"

	"github.com/iov-one/lockbox"
	"github.com/iov-one/lockbox/errors"
	"github.com/iov-one/lockbox/lockboxtest/assert"
	"github.com/iov-one/lockbox/store"
)

func testAddress(seed byte) lockbox.Address {
	return lockbox.NewCondition("sigs", "ed25519", []byte{seed}).Address()
}

func TestRegistryInitialize(t *testing.T) {
	db := store.MemStore()
	reg := NewRegistry()
	admin := testAddress(1)

	// reads before initialization report the missing role set
	_, err := reg.Get(db)
	assert.IsErr(t, errors.ErrNotFound, err)

	assert.Nil(t, reg.Initialize(db, admin))

	ok, err := reg.IsAdmin(db, admin)
	assert.Nil(t, err)
	assert.Equal(t, true, ok)
	ok, err = reg.IsAdmin(db, testAddress(2))
	assert.Nil(t, err)
	assert.Equal(t, false, ok)

	// a second initialization must not overwrite the admin
	err = reg.Initialize(db, testAddress(2))
	assert.IsErr(t, errors.ErrState, err)
}

func TestRegistryManagerSet(t *testing.T) {
	db := store.MemStore()
	reg := NewRegistry()
	admin := testAddress(1)
	manager := testAddress(2)
	assert.Nil(t, reg.Initialize(db, admin))

	ok, err := reg.IsManager(db, manager)
	assert.Nil(t, err)
	assert.Equal(t, false, ok)

	// only the admin may mutate the set
	err = reg.AddManager(db, manager, manager)
	assert.IsErr(t, errors.ErrUnauthorized, err)

	assert.Nil(t, reg.AddManager(db, admin, manager))
	ok, err = reg.IsManager(db, manager)
	assert.Nil(t, err)
	assert.Equal(t, true, ok)

	// adding twice keeps a single membership
	assert.Nil(t, reg.AddManager(db, admin, manager))
	roles, err := reg.Get(db)
	assert.Nil(t, err)
	assert.Equal(t, 1, len(roles.Managers))

	// the admin role grants no manager membership
	ok, err = reg.IsManager(db, admin)
	assert.Nil(t, err)
	assert.Equal(t, false, ok)

	err = reg.RemoveManager(db, manager, manager)
	assert.IsErr(t, errors.ErrUnauthorized, err)

	assert.Nil(t, reg.RemoveManager(db, admin, manager))
	ok, err = reg.IsManager(db, manager)
	assert.Nil(t, err)
	assert.Equal(t, false, ok)

	// removing a non-member changes nothing
	assert.Nil(t, reg.RemoveManager(db, admin, manager))
}

func TestRegistryRemovePreservesOthers(t *testing.T) {
	db := store.MemStore()
	reg := NewRegistry()
	admin := testAddress(1)
	assert.Nil(t, reg.Initialize(db, admin))

	for i := byte(2); i <= 4; i++ {
		assert.Nil(t, reg.AddManager(db, admin, testAddress(i)))
	}
	assert.Nil(t, reg.RemoveManager(db, admin, testAddress(3)))

	roles, err := reg.Get(db)
	assert.Nil(t, err)
	assert.Equal(t, []lockbox.Address{testAddress(2), testAddress(4)}, roles.Managers)
}

func TestRegistryRejectsInvalidManager(t *testing.T) {
	db := store.MemStore()
	reg := NewRegistry()
	admin := testAddress(1)
	assert.Nil(t, reg.Initialize(db, admin))

	err := reg.AddManager(db, admin, nil)
	assert.FieldError(t, err, "Manager", errors.ErrEmpty)
}

func TestRolesValidate(t *testing.T) {
	roles := Roles{Admin: testAddress(1), Managers: []lockbox.Address{testAddress(2)}}
	assert.Nil(t, roles.Validate())

	roles.Admin = nil
	assert.FieldError(t, roles.Validate(), "Admin", errors.ErrEmpty)

	roles.Admin = testAddress(1)
	roles.Managers = append(roles.Managers, lockbox.Address{1, 2, 3})
	assert.FieldError(t, roles.Validate(), "Managers.1", errors.ErrInput)
}
