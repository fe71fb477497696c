package crypto

import (
	"context"
	"crypto/rand"
	"encoding/hex"
)

// NewChallenge returns 32 random bytes as lowercase hex. It matches
// walletrequest.ChallengeGenerator.
func NewChallenge(context.Context) (string, error) {
	var b [32]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(b[:]), nil
}
