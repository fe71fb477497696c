package identity

import (
	"context"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"dappkit/internal/crypto"
	"dappkit/internal/domain"
	domaintypes "dappkit/internal/domain/types"
	"dappkit/internal/store"
)

// Service manages identity key creation and access using the identities
// partition.
type Service struct {
	items                 store.Items[domain.IdentityRecord]
	dAppDefinitionAddress string
	now                   func() time.Time
	log                   zerolog.Logger

	// mu serialises create-on-first-use within the process.
	mu sync.Mutex
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.log = l.With().Str("component", "identity").Logger() }
}

// WithClock overrides the creation timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New returns an identity service over the identities partition. The dApp
// definition address is the HKDF context of every derived secret.
func New(partition *store.Storage, dAppDefinitionAddress string, opts ...Option) *Service {
	s := &Service{
		items:                 store.NewItems[domain.IdentityRecord](partition),
		dAppDefinitionAddress: dAppDefinitionAddress,
		now:                   time.Now,
		log:                   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the key pair for kind, creating and persisting one on first use.
func (s *Service) Get(ctx context.Context, kind domain.IdentityKind) (domain.KeyPair, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok, err := s.items.Get(ctx, string(kind))
	if err != nil {
		return nil, err
	}
	if ok {
		return crypto.NewKeyPair(rec.Secret)
	}

	kp, err := crypto.NewKeyPair("")
	if err != nil {
		return nil, err
	}
	rec = domain.IdentityRecord{Secret: kp.PrivateKeyHex(), CreatedAt: s.now().UnixMilli()}
	if err := s.items.Put(ctx, string(kind), rec); err != nil {
		return nil, err
	}
	s.log.Info().
		Str("kind", string(kind)).
		Str("fingerprint", crypto.Fingerprint([]byte(kp.X25519PublicKeyHex()))).
		Msg("created identity")
	return kp, nil
}

// lookup returns the stored key pair without creating one.
func (s *Service) lookup(ctx context.Context, kind domain.IdentityKind) (domain.KeyPair, error) {
	rec, ok, err := s.items.Get(ctx, string(kind))
	if err != nil {
		return nil, domaintypes.WrapSdkError(domaintypes.ErrorDappIdentityNotFound, "", err)
	}
	if !ok {
		return nil, domaintypes.NewSdkError(domaintypes.ErrorDappIdentityNotFound, "", fmt.Sprintf("no %s identity", kind))
	}
	kp, err := crypto.NewKeyPair(rec.Secret)
	if err != nil {
		return nil, domaintypes.WrapSdkError(domaintypes.ErrorDappIdentityNotFound, "", err)
	}
	return kp, nil
}

// DeriveSharedSecret returns the symmetric key shared with the holder of
// peerPublicKeyHex. It never creates an identity.
func (s *Service) DeriveSharedSecret(
	ctx context.Context,
	kind domain.IdentityKind,
	peerPublicKeyHex string,
) ([]byte, error) {
	kp, err := s.lookup(ctx, kind)
	if err != nil {
		return nil, err
	}
	secret, err := kp.CalculateSharedSecret(peerPublicKeyHex, []byte(s.dAppDefinitionAddress))
	if err != nil {
		return nil, domaintypes.WrapSdkError(domaintypes.ErrorFailedToDeriveSharedSecret, "", err)
	}
	return secret, nil
}

// CreateSignature signs the deep-link digest of an interaction with the
// identity's Ed25519 key.
func (s *Service) CreateSignature(
	ctx context.Context,
	kind domain.IdentityKind,
	interactionID domain.InteractionID,
	origin string,
) (domain.InteractionSignature, error) {
	kp, err := s.Get(ctx, kind)
	if err != nil {
		return domain.InteractionSignature{}, domaintypes.WrapSdkError(domaintypes.ErrorDappIdentityNotFound, interactionID, err)
	}
	msg := crypto.InteractionSignatureMessage(string(interactionID), s.dAppDefinitionAddress, origin)
	sig, err := kp.SignHex(hex.EncodeToString(msg))
	if err != nil {
		return domain.InteractionSignature{}, domaintypes.WrapSdkError(domaintypes.ErrorFailedToCreateSignature, interactionID, err)
	}
	return domain.InteractionSignature{Signature: sig, PublicKey: kp.Ed25519PublicKeyHex()}, nil
}

// Compile-time assertion that Service implements domain.IdentityService.
var _ domain.IdentityService = (*Service)(nil)
