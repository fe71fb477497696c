package crypto

import (
	"crypto/ed25519"
)

// VerifyEd25519 verifies sig over msg with pub.
func VerifyEd25519(pub []byte, msg, sig []byte) bool {
	if len(pub) != ed25519.PublicKeySize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(pub), msg, sig)
}
