package crypto

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// InteractionSignatureMessage returns the blake2b-256 digest a dApp signs to
// vouch for a deep-linked interaction:
//
//	"C" || interactionId || hex(len(dAppDefinitionAddress)) || dAppDefinitionAddress || origin
func InteractionSignatureMessage(interactionID, dAppDefinitionAddress, origin string) []byte {
	buf := make([]byte, 0, 1+len(interactionID)+2+len(dAppDefinitionAddress)+len(origin))
	buf = append(buf, 'C')
	buf = append(buf, interactionID...)
	buf = append(buf, hex.EncodeToString([]byte{byte(len(dAppDefinitionAddress))})...)
	buf = append(buf, dAppDefinitionAddress...)
	buf = append(buf, origin...)

	sum := blake2b.Sum256(buf)
	return sum[:]
}
