// Package identity owns the dApp's long-lived key pairs.
//
// A key pair is created lazily on first Get and persisted in the identities
// partition keyed by kind; it is never rotated automatically. The service
// also composes the identity with X25519 agreement (DeriveSharedSecret) and
// Ed25519 signing of deep-linked interactions (CreateSignature).
package identity
