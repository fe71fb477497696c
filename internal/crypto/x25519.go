package crypto

import (
	"crypto/sha256"
	"errors"
	"io"

	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/hkdf"

	"dappkit/internal/domain"
	"dappkit/internal/util/memzero"
)

// SharedSecretInfo is the HKDF info string bound into every shared secret.
const SharedSecretInfo = "RCfM"

// SharedSecretBytes is the length of a derived shared secret.
const SharedSecretBytes = 32

var errLowOrderPoint = errors.New("x25519: peer public key is a low-order point")

// x25519Public returns the public key for a 32-byte seed. The scalar is
// clamped by curve25519 per RFC 7748.
func x25519Public(seed []byte) (pub domain.X25519Public, err error) {
	pb, err := curve25519.X25519(seed, curve25519.Basepoint)
	if err != nil {
		return pub, err
	}
	copy(pub[:], pb)
	return pub, nil
}

// DH computes X25519 Diffie–Hellman.
func DH(priv domain.X25519Private, pub domain.X25519Public) (out [32]byte, err error) {
	secret, err := curve25519.X25519(priv.Slice(), pub.Slice())
	if err != nil {
		return out, errLowOrderPoint
	}
	copy(out[:], secret)
	memzero.Zero(secret)
	return out, nil
}

// deriveSharedSecret expands an ECDH output into a symmetric key.
func deriveSharedSecret(dh []byte, salt []byte) ([]byte, error) {
	r := hkdf.New(sha256.New, dh, salt, []byte(SharedSecretInfo))
	key := make([]byte, SharedSecretBytes)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, err
	}
	return key, nil
}
