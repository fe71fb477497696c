package store

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"

	"dappkit/internal/util/memzero"
)

const (
	// The current supported version of the encrypted value format stored on disk.
	envelopeFormatVersion = 1
	keyringFile           = "keyring.json"
)

var (
	// Returned when the passphrase is incorrect or a value has been modified / corrupted.
	errWrongPassphrase = errors.New("wrong passphrase or corrupted value")
)

// keyring is the on-disk JSON structure holding the KDF parameters shared by
// every value in a FileBackend directory.
type keyring struct {
	V    int    `json:"v"`
	Salt []byte `json:"salt"`
	N    int    `json:"scrypt_N"`
	R    int    `json:"scrypt_r"`
	P    int    `json:"scrypt_p"`
	// Check is a sealed empty value used to reject a wrong passphrase early.
	Check []byte `json:"check"`
}

// envelope is one sealed value.
type envelope struct {
	V      int    `json:"v"`
	Nonce  []byte `json:"nonce"`
	Cipher []byte `json:"cipher"`
}

// sealer encrypts values with a key derived once per directory.
type sealer struct {
	key []byte
}

// newKeyring generates a fresh salt and derives the sealing key.
func newKeyring(passphrase string, N, r, p int) (keyring, *sealer, error) {
	kr := keyring{V: envelopeFormatVersion, N: N, R: r, P: p, Salt: make([]byte, 16)}
	if _, err := rand.Read(kr.Salt /* #nosec G404 */); err != nil {
		return keyring{}, nil, err
	}
	s, err := kr.open(passphrase)
	if err != nil {
		return keyring{}, nil, err
	}
	check, err := s.seal(nil, []byte(keyringFile))
	if err != nil {
		return keyring{}, nil, err
	}
	kr.Check = check
	return kr, s, nil
}

// open derives the sealing key from passphrase. When the keyring carries a
// check value the passphrase is verified against it.
func (kr keyring) open(passphrase string) (*sealer, error) {
	if kr.V > envelopeFormatVersion {
		return nil, fmt.Errorf("unsupported keyring version %d", kr.V)
	}
	key, err := scrypt.Key([]byte(passphrase), kr.Salt, kr.N, kr.R, kr.P, chacha20poly1305.KeySize)
	if err != nil {
		return nil, err
	}
	s := &sealer{key: key}
	if kr.Check != nil {
		if _, err := s.open(kr.Check, []byte(keyringFile)); err != nil {
			s.wipe()
			return nil, errWrongPassphrase
		}
	}
	return s, nil
}

// seal encrypts raw, binding it to ad (the storage key).
func (s *sealer) seal(raw, ad []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(s.key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, chacha20poly1305.NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return json.Marshal(envelope{
		V:      envelopeFormatVersion,
		Nonce:  nonce,
		Cipher: aead.Seal(nil, nonce, raw, ad),
	})
}

// open decrypts a sealed value bound to ad.
func (s *sealer) open(b, ad []byte) ([]byte, error) {
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, err
	}
	if env.V > envelopeFormatVersion {
		return nil, fmt.Errorf("unsupported envelope version %d", env.V)
	}
	aead, err := chacha20poly1305.New(s.key)
	if err != nil {
		return nil, err
	}
	pt, err := aead.Open(nil, env.Nonce, env.Cipher, ad)
	if err != nil {
		return nil, errWrongPassphrase
	}
	return pt, nil
}

func (s *sealer) wipe() { memzero.Zero(s.key) }

// Tunables for scrypt key derivation.
func scryptParamsDefault() (N, r, p int) { return 1 << 15, 8, 1 }
