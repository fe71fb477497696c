package identity_test

import (
	"context"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dappkit/internal/crypto"
	domaintypes "dappkit/internal/domain/types"
	"dappkit/internal/services/identity"
	"dappkit/internal/store"
)

const dAppDef = "account_tdx_2_12yf9gd53yfep7a669fv2t3wm7nz9zeezwd04n02a433ker8vza6rhe"

func newService() (*identity.Service, *store.Storage) {
	root := store.New(store.NewMemoryBackend(), "rdt:"+dAppDef+":2")
	part := root.Partition(store.PartitionIdentities)
	return identity.New(part, dAppDef), part
}

func TestGet_CreatesOnceThenReuses(t *testing.T) {
	ctx := context.Background()
	svc, part := newService()

	first, err := svc.Get(ctx, domaintypes.IdentityKindDapp)
	require.NoError(t, err)
	second, err := svc.Get(ctx, domaintypes.IdentityKindDapp)
	require.NoError(t, err)
	assert.Equal(t, first.PrivateKeyHex(), second.PrivateKeyHex())

	// a fresh service over the same partition sees the persisted key
	again, err := identity.New(part, dAppDef).Get(ctx, domaintypes.IdentityKindDapp)
	require.NoError(t, err)
	assert.Equal(t, first.X25519PublicKeyHex(), again.X25519PublicKeyHex())
}

func TestDeriveSharedSecret_RequiresIdentity(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()
	wallet, _ := crypto.NewKeyPair("")

	_, err := svc.DeriveSharedSecret(ctx, domaintypes.IdentityKindDapp, wallet.X25519PublicKeyHex())
	var sdkErr *domaintypes.SdkError
	require.True(t, errors.As(err, &sdkErr))
	assert.Equal(t, domaintypes.ErrorDappIdentityNotFound, sdkErr.Type)

	dapp, err := svc.Get(ctx, domaintypes.IdentityKindDapp)
	require.NoError(t, err)

	secret, err := svc.DeriveSharedSecret(ctx, domaintypes.IdentityKindDapp, wallet.X25519PublicKeyHex())
	require.NoError(t, err)
	walletSide, err := wallet.CalculateSharedSecret(dapp.X25519PublicKeyHex(), []byte(dAppDef))
	require.NoError(t, err)
	assert.Equal(t, walletSide, secret)

	_, err = svc.DeriveSharedSecret(ctx, domaintypes.IdentityKindDapp, "not-hex")
	require.True(t, errors.As(err, &sdkErr))
	assert.Equal(t, domaintypes.ErrorFailedToDeriveSharedSecret, sdkErr.Type)
}

func TestCreateSignature_Verifies(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()

	sig, err := svc.CreateSignature(ctx, domaintypes.IdentityKindDapp, "6f0e2c1a", "https://dapp.example")
	require.NoError(t, err)

	pub, _ := hex.DecodeString(sig.PublicKey)
	raw, _ := hex.DecodeString(sig.Signature)
	msg := crypto.InteractionSignatureMessage("6f0e2c1a", dAppDef, "https://dapp.example")
	assert.True(t, crypto.VerifyEd25519(pub, msg, raw))
}
