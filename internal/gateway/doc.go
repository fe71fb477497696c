// Package gateway talks to the ledger indexer's status API and polls it for
// finality.
//
// Client wraps two endpoints with a resty client carrying the RDX-* header
// bundle that identifies the calling application:
//
//	POST /transaction/status           {intent_hash}    -> {status, ...}
//	POST /transaction/subintent-status {subintent_hash} -> {subintent_status, finalized_at_transaction_intent_hash}
//
// Poller composes the client with the backoff scheduler. Transient fetch
// failures retry; only a terminal status, the backoff timeout or context
// cancellation end a poll.
package gateway
