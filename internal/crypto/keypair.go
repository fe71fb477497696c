package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"dappkit/internal/domain"
	"dappkit/internal/util/memzero"
)

// SeedBytes is the size of a private key seed.
const SeedBytes = 32

// KeyPair holds a private seed and the two public keys derived from it.
type KeyPair struct {
	seed   domain.X25519Private
	xPub   domain.X25519Public
	edPriv ed25519.PrivateKey
	edPub  domain.Ed25519Public
}

// NewKeyPair parses a hex-encoded 32-byte seed, or generates a random one
// when privateKeyHex is empty.
func NewKeyPair(privateKeyHex string) (*KeyPair, error) {
	var seed domain.X25519Private
	if privateKeyHex == "" {
		if _, err := rand.Read(seed[:]); err != nil {
			return nil, err
		}
	} else {
		raw, err := hex.DecodeString(privateKeyHex)
		if err != nil {
			return nil, fmt.Errorf("private key: %w", err)
		}
		if len(raw) != SeedBytes {
			return nil, fmt.Errorf("private key: want %d bytes, got %d", SeedBytes, len(raw))
		}
		copy(seed[:], raw)
		memzero.Zero(raw)
	}

	xPub, err := x25519Public(seed.Slice())
	if err != nil {
		return nil, err
	}
	edPriv := ed25519.NewKeyFromSeed(seed.Slice())
	var edPub domain.Ed25519Public
	copy(edPub[:], edPriv.Public().(ed25519.PublicKey))

	return &KeyPair{seed: seed, xPub: xPub, edPriv: edPriv, edPub: edPub}, nil
}

// PrivateKeyHex returns the seed, hex encoded.
func (k *KeyPair) PrivateKeyHex() string { return hex.EncodeToString(k.seed[:]) }

// X25519PublicKey returns the agreement public key.
func (k *KeyPair) X25519PublicKey() domain.X25519Public { return k.xPub }

// X25519PublicKeyHex returns the agreement public key, hex encoded.
func (k *KeyPair) X25519PublicKeyHex() string { return hex.EncodeToString(k.xPub[:]) }

// Ed25519PublicKeyHex returns the signing public key, hex encoded.
func (k *KeyPair) Ed25519PublicKeyHex() string { return hex.EncodeToString(k.edPub[:]) }

// CalculateSharedSecret runs X25519 against the peer's hex public key and
// expands the result with HKDF-SHA256 using context as salt.
func (k *KeyPair) CalculateSharedSecret(peerPublicKeyHex string, context []byte) ([]byte, error) {
	raw, err := hex.DecodeString(peerPublicKeyHex)
	if err != nil {
		return nil, fmt.Errorf("peer public key: %w", err)
	}
	if len(raw) != 32 {
		return nil, fmt.Errorf("peer public key: want 32 bytes, got %d", len(raw))
	}
	var peer domain.X25519Public
	copy(peer[:], raw)

	dh, err := DH(k.seed, peer)
	if err != nil {
		return nil, err
	}
	defer memzero.Zero(dh[:])
	return deriveSharedSecret(dh[:], context)
}

// Sign signs message with the Ed25519 key.
func (k *KeyPair) Sign(message []byte) []byte { return ed25519.Sign(k.edPriv, message) }

// SignHex decodes a hex message, signs it and returns the hex signature.
func (k *KeyPair) SignHex(messageHex string) (string, error) {
	msg, err := hex.DecodeString(messageHex)
	if err != nil {
		return "", fmt.Errorf("message: %w", err)
	}
	return hex.EncodeToString(k.Sign(msg)), nil
}

// Wipe zeroes the private material. The key pair is unusable afterwards.
func (k *KeyPair) Wipe() {
	memzero.Zero(k.seed[:])
	memzero.Zero(k.edPriv)
}

var _ domain.KeyPair = (*KeyPair)(nil)
