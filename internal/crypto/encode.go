package crypto

import "encoding/base64"

// B64URL returns unpadded base64url, as used in deep-link query parameters.
func B64URL(b []byte) string { return base64.RawURLEncoding.EncodeToString(b) }

// DecodeB64URL reverses B64URL.
func DecodeB64URL(s string) ([]byte, error) { return base64.RawURLEncoding.DecodeString(s) }
