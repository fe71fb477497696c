package interfaces

import (
	"context"

	domaintypes "dappkit/internal/domain/types"
)

// KeyPair is the dApp's key material: one 32-byte seed driving an X25519
// agreement key and an Ed25519 signing key.
type KeyPair interface {
	PrivateKeyHex() string
	X25519PublicKeyHex() string
	Ed25519PublicKeyHex() string
	CalculateSharedSecret(peerPublicKeyHex string, context []byte) ([]byte, error)
	Sign(message []byte) []byte
	SignHex(messageHex string) (string, error)
}

// IdentityService owns the persisted dApp key pairs.
type IdentityService interface {
	Get(ctx context.Context, kind domaintypes.IdentityKind) (KeyPair, error)
	DeriveSharedSecret(
		ctx context.Context,
		kind domaintypes.IdentityKind,
		peerPublicKeyHex string,
	) ([]byte, error)
	CreateSignature(
		ctx context.Context,
		kind domaintypes.IdentityKind,
		interactionID domaintypes.InteractionID,
		origin string,
	) (domaintypes.InteractionSignature, error)
}

// SessionService owns the relay session.
type SessionService interface {
	GetCurrentSession(ctx context.Context) (domaintypes.Session, error)
	PatchSession(ctx context.Context, sessionID, walletPublicKey string) (domaintypes.Session, error)
	Clear(ctx context.Context) error
}

// WalletResponseSink buffers wallet responses for the request resolver.
type WalletResponseSink interface {
	AddWalletResponses(ctx context.Context, responses ...domaintypes.WalletInteractionResponse) error
	WaitForWalletResponse(
		ctx context.Context,
		id domaintypes.InteractionID,
	) (domaintypes.WalletInteractionResponse, error)
}
