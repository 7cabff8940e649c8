package swap

import (
	"github.com/iov-one/lockbox"
	"github.com/iov-one/lockbox/errors"
	"github.com/iov-one/lockbox/gconf"
)

// configPkg is the gconf namespace this package configuration is stored
// under.
const configPkg = "swap"

// Configuration holds the mutable engine settings. It is created when the
// engine is initialized and mutated in place, never destroyed.
type Configuration struct {
	// TimeLock is the duration after which an unclaimed open box may be
	// expired. Expiry is always evaluated against the current value, so
	// changing it affects boxes that are already open.
	TimeLock lockbox.UnixDuration

	// FeeManager is the address whose liquidity entry collects the fees
	// realized when a deposit box is closed.
	FeeManager lockbox.Address
}

var _ gconf.Configuration = (*Configuration)(nil)

// Marshal implements the gconf.ValidMarshaler contract
func (c *Configuration) Marshal() ([]byte, error) {
	return cdc.MarshalBinaryBare(c)
}

// Unmarshal implements the gconf.Unmarshaler contract
func (c *Configuration) Unmarshal(raw []byte) error {
	return cdc.UnmarshalBinaryBare(raw, c)
}

// Validate ensures the configuration can be used by the engine
func (c *Configuration) Validate() error {
	var errs error
	if c.TimeLock <= 0 {
		errs = errors.AppendField(errs, "TimeLock", errors.Wrap(errors.ErrInput, "must be greater than zero"))
	}
	errs = errors.AppendField(errs, "FeeManager", c.FeeManager.Validate())
	return errs
}

func loadConfiguration(db gconf.ReadStore) (*Configuration, error) {
	var conf Configuration
	if err := gconf.Load(db, configPkg, &conf); err != nil {
		return nil, errors.Wrap(err, "load configuration")
	}
	return &conf, nil
}

func saveConfiguration(db gconf.Store, conf *Configuration) error {
	return gconf.Save(db, configPkg, conf)
}
