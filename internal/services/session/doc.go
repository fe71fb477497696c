// Package session owns the relay session: a session id created on first use
// and reused for every interaction under the same dApp prefix. Once the
// wallet answers, the session records the wallet's public key so the shared
// secret can be re-derived from the dApp identity; the secret itself is never
// stored.
package session
