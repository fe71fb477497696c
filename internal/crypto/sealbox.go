package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
)

const (
	// SealboxIVBytes is the nonce length prepended to a sealbox.
	SealboxIVBytes = 12
	// SealboxTagBytes is the GCM tag length appended to a sealbox.
	SealboxTagBytes = 16
)

// ErrSealboxOpen is returned for any sealbox that fails to authenticate.
var ErrSealboxOpen = errors.New("sealbox: authentication failed")

// EncryptSealbox seals plaintext with a 32-byte key, returning
// iv || ciphertext || tag.
func EncryptSealbox(plaintext, key []byte) ([]byte, error) {
	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	out := make([]byte, SealboxIVBytes, SealboxIVBytes+len(plaintext)+SealboxTagBytes)
	if _, err := rand.Read(out); err != nil {
		return nil, err
	}
	return aead.Seal(out, out[:SealboxIVBytes], plaintext, nil), nil
}

// DecryptSealbox opens a sealbox. It never returns partial plaintext.
func DecryptSealbox(sealbox, key []byte) ([]byte, error) {
	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(sealbox) < SealboxIVBytes+SealboxTagBytes {
		return nil, ErrSealboxOpen
	}
	pt, err := aead.Open(nil, sealbox[:SealboxIVBytes], sealbox[SealboxIVBytes:], nil)
	if err != nil {
		return nil, ErrSealboxOpen
	}
	return pt, nil
}

// DecryptSealboxHex opens a hex-encoded sealbox.
func DecryptSealboxHex(sealboxHex string, key []byte) ([]byte, error) {
	raw, err := hex.DecodeString(sealboxHex)
	if err != nil {
		return nil, fmt.Errorf("sealbox: %w", err)
	}
	return DecryptSealbox(raw, key)
}

// EncryptSealboxHex seals plaintext and hex encodes the result.
func EncryptSealboxHex(plaintext, key []byte) (string, error) {
	box, err := EncryptSealbox(plaintext, key)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(box), nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != SharedSecretBytes {
		return nil, fmt.Errorf("sealbox: want %d byte key, got %d", SharedSecretBytes, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
