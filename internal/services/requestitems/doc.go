// Package requestitems is the request ledger: the persisted record of every
// interaction dispatched to the wallet and its status.
//
// Status transitions are monotonic:
//
//	pending       -> any status
//	pendingCommit -> success | timedOut | ignored | fail
//	anything else -> (no further transitions)
//
// ignored is checked first and never overridden. Once a status no longer
// awaits the wallet the stored walletInteraction is dropped. A one-shot signal
// registered with Add fires on success with the parent transaction intent
// hash and is then removed.
//
// Every mutation republishes the full item list to Subscribe.
package requestitems
