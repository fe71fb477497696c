package types

// Session is the relay handshake context. It never carries the shared secret;
// once linked it records the wallet public key so the secret can be
// re-derived from the dApp identity.
type Session struct {
	SessionID       string `json:"sessionId"`
	CreatedAt       int64  `json:"createdAt"`
	WalletPublicKey string `json:"walletPublicKey,omitempty"`
}

// IsLinked reports whether a wallet has answered on this session.
func (s Session) IsLinked() bool { return s.WalletPublicKey != "" }
