/*
Package lockbox provides the core types shared by every part of the lock-box
escrow engine: addresses and conditions, second-precision time values, the
key-value store interfaces all state is persisted through, and the context
helpers that carry the network clock into engine operations.

The engine itself lives in x/swap. Two structurally identical engine
instances, one per network, coordinate a hash time-locked transfer without
ever talking to each other; the x/manager relay mirrors lock boxes between
them by observing emitted events.
*/
package lockbox
