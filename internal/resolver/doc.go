// Package resolver matches buffered wallet responses to pending ledger items
// and applies the business rules for each response shape.
//
// Responses reach the resolver through AddWalletResponses, from any
// transport. They are validated, persisted in the walletResponses partition
// and resolved on the next tick. A tick runs every second, or immediately
// when a response arrives; ticks never overlap.
//
// Each response is handled by exactly one resolver, chosen by its shape:
//
//	failure                           -> failure
//	success, (un)authorizedRequest    -> data
//	success, transaction              -> transaction
//	success, preAuthorizationResponse -> preAuthorization
//
// Transaction and subintent finality are polled in the background; the tick
// also sweeps expired pre-authorizations to timedOut.
package resolver
