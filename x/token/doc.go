/*
Package token is a minimal single-asset ledger with standard value-transfer
semantics: transfer, transferFrom backed by approvals, and balanceOf.

The escrow engine treats the asset ledger as an opaque collaborator. This
package provides the reference in-process implementation, storing wallets
and allowances in the same key-value store as the engine state so that fund
movement shares the atomicity of the operation that triggered it.
*/
package token
