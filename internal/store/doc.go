// Package store provides the partitioned key/value persistence used by
// dappkit.
//
// A Storage is one backend key. It holds either a single state value
// (GetState/SetState) or a record of items keyed by id (GetItems, SetItems,
// GetItemByID, RemoveItemByID, PatchItem). Partition derives a child key, so
// one dApp prefix such as "rdt:<dAppDefinitionAddress>:<networkId>" fans out
// into requests, state, identities, sessions and walletResponses. Clear on a
// prefix wipes every partition beneath it.
//
// Backends:
//   - MemoryBackend keeps values in a map (tests, ephemeral hosts).
//   - FileBackend keeps one file per key, written atomically via a temp file
//     and rename, optionally sealed under a passphrase (scrypt +
//     chacha20poly1305).
//
// Every write is re-broadcast on the root's change feed as {Key, OldValue,
// NewValue}. Failures are returned as *Error carrying a Reason.
package store
