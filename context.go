package lockbox

import (
	"context"
	"time"
)

// Context is just an alias for the standard implementation.
// We use functions to extend it to our domain.
//
// There should exist two functions for every XYZ of type T
// that we want to support in Context:
//
//   WithXYZ(Context, T) Context
//   XYZ(Context) (val T, ok bool)
type Context = context.Context

type contextKey int // local to the lockbox module

const (
	contextKeyTime contextKey = iota
)

// WithBlockTime sets the block time for the context. Block time is always
// represented in UTC.
func WithBlockTime(ctx Context, t time.Time) Context {
	return context.WithValue(ctx, contextKeyTime, t.UTC())
}

// BlockTime returns the block time as declared for this context. Block time
// is the network clock every time based decision is made against. It is
// monotonically non-decreasing between consecutive operations.
func BlockTime(ctx Context) (time.Time, bool) {
	val, ok := ctx.Value(contextKeyTime).(time.Time)
	return val, ok
}

// IsExpired returns true if given time is in the past as compared to the
// "now" as declared for the context. Expiration is inclusive, meaning that
// if current time is equal to the expiration time than this function returns
// true.
//
// This function panics if the block time is not provided in the context.
// This must never happen. The panic is here to prevent from broken setup to
// be processing data incorrectly.
func IsExpired(ctx Context, t UnixTime) bool {
	now, ok := BlockTime(ctx)
	if !ok {
		panic("block time is not present")
	}
	return t <= AsUnixTime(now)
}
