package types

// IdentityRecord is the persisted form of a key pair: the hex-encoded
// 32-byte private seed and its creation time in unix milliseconds.
type IdentityRecord struct {
	Secret    string `json:"secret"`
	CreatedAt int64  `json:"createdAt"`
}
