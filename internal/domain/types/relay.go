package types

// EncryptedResponse is a wallet response queued on the relay: a hex sealbox
// plus the wallet's X25519 public key.
type EncryptedResponse struct {
	SessionID string `json:"sessionId,omitempty"`
	PublicKey string `json:"publicKey"`
	Data      string `json:"data"`
}
