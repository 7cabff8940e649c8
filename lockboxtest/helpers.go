package lockboxtest

import (
	"context"
	"crypto/rand"
	"time"

	"golang.org/x/crypto/ed25519"

	"github.com/iov-one/lockbox"
	"github.com/iov-one/lockbox/x/swap"
)

// NewCondition returns the condition of a freshly generated ed25519 key.
// Use it whenever a test needs a unique participant identity.
func NewCondition() lockbox.Condition {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		panic(err)
	}
	pub := priv.Public().(ed25519.PublicKey)
	return lockbox.NewCondition("sigs", "ed25519", pub)
}

// NewAddress returns the address of a freshly generated key
func NewAddress() lockbox.Address {
	return NewCondition().Address()
}

// NewSecret returns a random secret key together with its hash lock
func NewSecret() (key []byte, lock []byte) {
	key = make([]byte, swap.SecretKeySize)
	if _, err := rand.Read(key); err != nil {
		panic(err)
	}
	return key, swap.HashKey(key)
}

// CtxAt returns a context carrying the given unix second as block time
func CtxAt(unix int64) lockbox.Context {
	return lockbox.WithBlockTime(context.Background(), time.Unix(unix, 0))
}
