package token

import (
	amino "github.com/tendermint/go-amino"
)

// cdc serializes all models of this package. Amino gives us deterministic,
// protobuf compatible binary encoding without code generation.
var cdc = amino.NewCodec()
