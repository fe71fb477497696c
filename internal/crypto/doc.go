// Package crypto exposes the primitives the wallet protocol is built on.
//
// Contents
//
//   - KeyPair: one 32-byte seed driving an X25519 agreement key and an
//     Ed25519 signing key (NewKeyPair)
//   - Shared secrets: X25519 ECDH passed through HKDF-SHA256 with a caller
//     supplied salt and the fixed info string "RCfM"
//   - Sealbox: AES-256-GCM authenticated encryption in the
//     iv(12) || ciphertext || tag(16) layout (EncryptSealbox, DecryptSealbox)
//   - Interaction signatures for deep links (InteractionSignatureMessage)
//   - Short public-key fingerprints for display/logging (Fingerprint)
//
// # Notes
//
// Every function is a pure function of its inputs. Callers should treat
// derived secrets as sensitive and wipe them with memzero.Zero when done.
package crypto
