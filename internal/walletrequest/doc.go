// Package walletrequest is the application-facing orchestrator. It turns
// data requests, transactions and pre-authorizations into ledger items,
// hands them to the SDK and waits for the resolver to settle them.
//
// Every public operation returns an *types.SdkError on failure. The ledger
// is the single source of truth: a call returns once its item reaches the
// status the call waits for, whichever goroutine moved it there.
package walletrequest
