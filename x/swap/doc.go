/*
Package swap implements the lock-box escrow engine.

An engine instance runs on one network and is bound to one asset ledger.
A cross-network transfer opens a deposit lock box on the source network
and a mirroring withdraw lock box on the destination network, both bound
to the same hash lock. Revealing the 32 byte secret key closes the
withdraw box and, relayed back, the deposit box. If the key is never
revealed both boxes expire after the configured time lock and the
escrowed principal returns to its sender.

The withdraw side pays receivers out of pooled liquidity fronted by the
engine admin, so a receiver is paid the moment the mirroring box opens
rather than when the deposit settles. Fees are realized as liquidity on
the deposit side only.

Every operation runs against a cache wrap of the engine store and is
written only on success, so a failed call leaves no partial state.
*/
package swap
