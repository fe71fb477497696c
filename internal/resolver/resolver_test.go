package resolver

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dappkit/internal/backoff"
	"dappkit/internal/domain"
	domaintypes "dappkit/internal/domain/types"
	"dappkit/internal/gateway"
	"dappkit/internal/services/requestitems"
	"dappkit/internal/services/state"
	"dappkit/internal/store"
)

const challengeA = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
const challengeB = "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"

type fakeGateway struct {
	mu        sync.Mutex
	tx        domaintypes.TransactionStatus
	txErr     string
	sub       domaintypes.SubintentStatus
	finalized string
}

func (f *fakeGateway) TransactionStatus(context.Context, string) (domaintypes.TransactionStatusResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return domaintypes.TransactionStatusResponse{Status: f.tx, ErrorMessage: f.txErr}, nil
}

func (f *fakeGateway) SubintentStatus(context.Context, string) (domaintypes.SubintentStatusResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return domaintypes.SubintentStatusResponse{SubintentStatus: f.sub, FinalizedAtTransactionIntentHash: f.finalized}, nil
}

type fixture struct {
	root     *store.Storage
	poller   *gateway.Poller
	ledger   *requestitems.Ledger
	state    *state.Service
	gateway  *fakeGateway
	resolver *Resolver
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	root := store.New(store.NewMemoryBackend(), "rdt:account_tdx:2")
	gw := &fakeGateway{tx: domaintypes.TransactionPending, sub: domaintypes.SubintentUnknown}
	f := &fixture{
		root:    root,
		ledger:  requestitems.New(root.Partition(store.PartitionRequests)),
		state:   state.New(root.Partition(store.PartitionState)),
		gateway: gw,
	}
	poller := gateway.NewPoller(gw, gateway.WithBackoff(backoff.Config{
		Multiplier: 1,
		Interval:   2 * time.Millisecond,
		MaxDelay:   5 * time.Millisecond,
	}))
	f.poller = poller
	f.resolver = f.newResolver(t, opts...)
	return f
}

func (f *fixture) newResolver(t *testing.T, opts ...Option) *Resolver {
	t.Helper()
	opts = append([]Option{WithTickInterval(5 * time.Millisecond)}, opts...)
	r := New(Deps{
		Ledger:    f.ledger,
		State:     f.state,
		Responses: f.root.Partition(store.PartitionWalletResponses),
		Poller:    f.poller,
	}, opts...)
	t.Cleanup(r.Destroy)
	return r
}

func (f *fixture) add(t *testing.T, id string, typ domain.RequestType, items domain.InteractionItems, signal requestitems.Signal) {
	t.Helper()
	_, err := f.ledger.Add(context.Background(), requestitems.AddInput{
		Type: typ,
		WalletInteraction: domain.WalletInteraction{
			InteractionID: domain.InteractionID(id),
			Metadata: domain.Metadata{
				Version:               domaintypes.InteractionVersion,
				NetworkID:             domaintypes.NetworkStokenet,
				DAppDefinitionAddress: "account_tdx_2_dapp",
				Origin:                "https://dapp.example",
			},
			Items: items,
		},
	}, signal)
	require.NoError(t, err)
}

func (f *fixture) waitSettled(t *testing.T, id string) domain.RequestItem {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	item, err := f.ledger.WaitFor(ctx, domain.InteractionID(id), func(it domain.RequestItem) bool {
		return it.Status.IsTerminal()
	})
	require.NoError(t, err)
	return item
}

func txItems() domain.InteractionItems {
	return domain.InteractionItems{
		Discriminator: domaintypes.ItemsTransaction,
		Send:          &domaintypes.SendTransactionItem{TransactionManifest: "CALL_METHOD", Version: 1},
	}
}

func txResponse(id, hash string) domain.WalletInteractionResponse {
	return domain.WalletInteractionResponse{
		Discriminator: domaintypes.ResponseSuccess,
		InteractionID: domain.InteractionID(id),
		Items: &domain.ResponseItems{
			Discriminator: domaintypes.ResponseItemsTransaction,
			Send:          &domaintypes.SendTransactionResponseItem{TransactionIntentHash: hash},
		},
	}
}

func loginItems(auth domaintypes.AuthRequestItem) domain.InteractionItems {
	return domain.InteractionItems{
		Discriminator: domaintypes.ItemsAuthorizedRequest,
		Auth:          &auth,
		OngoingAccounts: &domaintypes.AccountsRequestItem{
			NumberOfAccounts: domaintypes.NumberOfValues{Quantifier: domaintypes.QuantifierAtLeast, Quantity: 1},
		},
	}
}

func loginResponse(id string, auth domaintypes.AuthResponseItem) domain.WalletInteractionResponse {
	return domain.WalletInteractionResponse{
		Discriminator: domaintypes.ResponseSuccess,
		InteractionID: domain.InteractionID(id),
		Items: &domain.ResponseItems{
			Discriminator: domaintypes.ResponseItemsAuthorizedRequest,
			Auth:          &auth,
			OngoingAccounts: &domaintypes.AccountsResponseItem{
				Accounts: []domain.Account{{Address: "account_tdx_2_1", Label: "main"}},
			},
		},
	}
}

func preAuthItems() domain.InteractionItems {
	return domain.InteractionItems{
		Discriminator: domaintypes.ItemsPreAuthorizationRequest,
		Request: &domaintypes.SubintentRequestItem{
			Discriminator:     domaintypes.SubintentDiscriminator,
			Version:           1,
			ManifestVersion:   2,
			SubintentManifest: "YIELD_TO_PARENT",
			Expiration: domaintypes.Expiration{
				Discriminator:      domaintypes.ExpireAfterDelay,
				ExpireAfterSeconds: 3600,
			},
		},
	}
}

func preAuthResponse(id string, exp int64) domain.WalletInteractionResponse {
	return domain.WalletInteractionResponse{
		Discriminator: domaintypes.ResponseSuccess,
		InteractionID: domain.InteractionID(id),
		Items: &domain.ResponseItems{
			Discriminator: domaintypes.ResponseItemsPreAuthorizationResponse,
			Response: &domaintypes.SubintentResponseItem{
				ExpirationTimestamp:      exp,
				SubintentHash:            "subtxid_1",
				SignedPartialTransaction: "4d22",
			},
		},
	}
}

func TestTransaction_CommittedSuccess(t *testing.T) {
	f := newFixture(t)
	f.gateway.tx = domaintypes.TransactionCommittedSuccess
	f.resolver.Start()

	f.add(t, "tx1", domaintypes.RequestSendTransaction, txItems(), nil)
	require.NoError(t, f.resolver.AddWalletResponses(context.Background(), txResponse("tx1", "txid_1")))

	item := f.waitSettled(t, "tx1")
	assert.Equal(t, domaintypes.StatusSuccess, item.Status)
	assert.Equal(t, "txid_1", item.TransactionIntentHash)
	assert.Equal(t, string(domaintypes.TransactionCommittedSuccess), item.Metadata.TransactionStatus)
	assert.Nil(t, item.WalletInteraction)
	require.NotNil(t, item.WalletResponse)
}

func TestTransaction_CommittedFailureKeepsHash(t *testing.T) {
	f := newFixture(t)
	f.gateway.tx = domaintypes.TransactionCommittedFailure
	f.gateway.txErr = "assertion failed"
	f.resolver.Start()

	f.add(t, "tx1", domaintypes.RequestSendTransaction, txItems(), nil)
	require.NoError(t, f.resolver.AddWalletResponses(context.Background(), txResponse("tx1", "txid_1")))

	item := f.waitSettled(t, "tx1")
	assert.Equal(t, domaintypes.StatusFail, item.Status)
	assert.Equal(t, domaintypes.ErrorSubmittedTransactionHasFailedTransactionStatus, item.Error)
	assert.Equal(t, "assertion failed", item.ErrorMessage)

	sdkErr := item.SdkError()
	assert.Equal(t, "txid_1", sdkErr.TransactionIntentHash)
}

func TestTransaction_Rejected(t *testing.T) {
	f := newFixture(t)
	f.gateway.tx = domaintypes.TransactionRejected
	f.resolver.Start()

	f.add(t, "tx1", domaintypes.RequestSendTransaction, txItems(), nil)
	require.NoError(t, f.resolver.AddWalletResponses(context.Background(), txResponse("tx1", "txid_1")))

	item := f.waitSettled(t, "tx1")
	assert.Equal(t, domaintypes.ErrorSubmittedTransactionHasRejectedTransactionStatus, item.Error)
}

func TestTransaction_IgnoredIsNotOverridden(t *testing.T) {
	f := newFixture(t)
	f.resolver.Start()
	ctx := context.Background()

	f.add(t, "tx1", domaintypes.RequestSendTransaction, txItems(), nil)
	require.NoError(t, f.resolver.AddWalletResponses(ctx, txResponse("tx1", "txid_1")))

	waitCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	_, err := f.ledger.WaitFor(waitCtx, "tx1", func(it domain.RequestItem) bool { return it.TransactionIntentHash != "" })
	require.NoError(t, err)

	_, err = f.ledger.UpdateStatus(ctx, requestitems.StatusUpdate{ID: "tx1", Status: domaintypes.StatusIgnored})
	require.NoError(t, err)
	f.resolver.StopPoll("tx1")

	f.gateway.mu.Lock()
	f.gateway.tx = domaintypes.TransactionCommittedSuccess
	f.gateway.mu.Unlock()
	time.Sleep(30 * time.Millisecond)

	item, ok, err := f.ledger.Get(ctx, "tx1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, domaintypes.StatusIgnored, item.Status)
}

func TestFailureResponse_FailsItem(t *testing.T) {
	f := newFixture(t)
	f.resolver.Start()

	f.add(t, "r1", domaintypes.RequestSendTransaction, txItems(), nil)
	require.NoError(t, f.resolver.AddWalletResponses(context.Background(), domain.WalletInteractionResponse{
		Discriminator: domaintypes.ResponseFailure,
		InteractionID: "r1",
		Error:         domaintypes.ErrorRejectedByUser,
		Message:       "nope",
	}))

	item := f.waitSettled(t, "r1")
	assert.Equal(t, domaintypes.StatusFail, item.Status)
	assert.Equal(t, domaintypes.ErrorRejectedByUser, item.Error)
	assert.Equal(t, "nope", item.ErrorMessage)
}

func TestData_AuthorizedResponseUpdatesState(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_123)
	f := newFixture(t, WithClock(func() time.Time { return now }))
	f.resolver.Start()

	f.add(t, "d1", domaintypes.RequestLogin,
		loginItems(domaintypes.AuthRequestItem{Discriminator: domaintypes.AuthLoginWithoutChallenge}), nil)
	require.NoError(t, f.resolver.AddWalletResponses(context.Background(), loginResponse("d1", domaintypes.AuthResponseItem{
		Discriminator: domaintypes.AuthLoginWithoutChallenge,
		Persona:       domain.Persona{IdentityAddress: "identity_tdx_2_1", Label: "me"},
	})))

	item := f.waitSettled(t, "d1")
	require.Equal(t, domaintypes.StatusSuccess, item.Status)

	st, err := f.state.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1700000000123", st.LoggedInTimestamp)
	require.NotNil(t, st.WalletData.Persona)
	assert.Equal(t, "identity_tdx_2_1", st.WalletData.Persona.IdentityAddress)
	assert.Len(t, st.WalletData.Accounts, 1)
	require.NotNil(t, st.SharedData.OngoingAccounts)
	assert.False(t, st.SharedData.Persona.Proof)
}

func TestData_OneTimeLeavesStateAlone(t *testing.T) {
	f := newFixture(t)
	f.resolver.Start()
	ctx := context.Background()

	_, err := f.ledger.Add(ctx, requestitems.AddInput{
		Type:             domaintypes.RequestData,
		IsOneTimeRequest: true,
		WalletInteraction: domain.WalletInteraction{
			InteractionID: "o1",
			Metadata: domain.Metadata{
				Version: domaintypes.InteractionVersion, NetworkID: domaintypes.NetworkStokenet,
				DAppDefinitionAddress: "account_tdx_2_dapp", Origin: "https://dapp.example",
			},
			Items: domain.InteractionItems{
				Discriminator: domaintypes.ItemsUnauthorizedRequest,
				OneTimeAccounts: &domaintypes.AccountsRequestItem{
					NumberOfAccounts: domaintypes.NumberOfValues{Quantifier: domaintypes.QuantifierExactly, Quantity: 1},
				},
			},
		},
	}, nil)
	require.NoError(t, err)

	require.NoError(t, f.resolver.AddWalletResponses(ctx, domain.WalletInteractionResponse{
		Discriminator: domaintypes.ResponseSuccess,
		InteractionID: "o1",
		Items: &domain.ResponseItems{
			Discriminator:   domaintypes.ResponseItemsUnauthorizedRequest,
			OneTimeAccounts: &domaintypes.AccountsResponseItem{Accounts: []domain.Account{{Address: "account_tdx_2_9"}}},
		},
	}))

	item := f.waitSettled(t, "o1")
	assert.Equal(t, domaintypes.StatusSuccess, item.Status)
	st, err := f.state.Get(ctx)
	require.NoError(t, err)
	assert.Empty(t, st.LoggedInTimestamp)
	assert.Empty(t, st.WalletData.Accounts)
}

func TestData_ChallengeMismatchFails(t *testing.T) {
	f := newFixture(t)
	f.resolver.Start()

	f.add(t, "d1", domaintypes.RequestLogin, loginItems(domaintypes.AuthRequestItem{
		Discriminator: domaintypes.AuthLoginWithChallenge,
		Challenge:     challengeA,
	}), nil)
	require.NoError(t, f.resolver.AddWalletResponses(context.Background(), loginResponse("d1", domaintypes.AuthResponseItem{
		Discriminator: domaintypes.AuthLoginWithChallenge,
		Persona:       domain.Persona{IdentityAddress: "identity_tdx_2_1"},
		Challenge:     challengeB,
		Proof:         &domaintypes.Proof{PublicKey: "ab", Signature: "cd", Curve: "curve25519"},
	})))

	item := f.waitSettled(t, "d1")
	assert.Equal(t, domaintypes.StatusFail, item.Status)
	assert.Equal(t, domaintypes.ErrorInvalidChallenge, item.Error)

	st, err := f.state.Get(context.Background())
	require.NoError(t, err)
	assert.False(t, st.IsConnected())
}

func TestData_UsePersonaMismatchFails(t *testing.T) {
	f := newFixture(t)
	f.resolver.Start()

	f.add(t, "d1", domaintypes.RequestData, loginItems(domaintypes.AuthRequestItem{
		Discriminator:   domaintypes.AuthUsePersona,
		IdentityAddress: "identity_tdx_2_1",
	}), nil)
	require.NoError(t, f.resolver.AddWalletResponses(context.Background(), loginResponse("d1", domaintypes.AuthResponseItem{
		Discriminator: domaintypes.AuthUsePersona,
		Persona:       domain.Persona{IdentityAddress: "identity_tdx_2_other"},
	})))

	item := f.waitSettled(t, "d1")
	assert.Equal(t, domaintypes.ErrorInvalidPersona, item.Error)
}

func TestData_ControlVetoRejects(t *testing.T) {
	var seen domain.WalletData
	f := newFixture(t, WithDataRequestControl(func(_ context.Context, wd domain.WalletData) error {
		seen = wd
		return errors.New("account not allowed")
	}))
	f.resolver.Start()

	f.add(t, "d1", domaintypes.RequestLogin,
		loginItems(domaintypes.AuthRequestItem{Discriminator: domaintypes.AuthLoginWithoutChallenge}), nil)
	require.NoError(t, f.resolver.AddWalletResponses(context.Background(), loginResponse("d1", domaintypes.AuthResponseItem{
		Discriminator: domaintypes.AuthLoginWithoutChallenge,
		Persona:       domain.Persona{IdentityAddress: "identity_tdx_2_1"},
	})))

	item := f.waitSettled(t, "d1")
	assert.Equal(t, domaintypes.ErrorRejectedByUser, item.Error)
	assert.Equal(t, "account not allowed", item.ErrorMessage)
	assert.Len(t, seen.Accounts, 1)
}

func TestPreAuthorization_CommitsAndSignals(t *testing.T) {
	f := newFixture(t)
	f.gateway.sub = domaintypes.SubintentCommittedSuccess
	f.gateway.finalized = "txid_parent"

	signalled := make(chan string, 1)
	f.add(t, "p1", domaintypes.RequestPreAuthorization, preAuthItems(), func(parent string) { signalled <- parent })
	f.resolver.Start()

	exp := time.Now().Add(time.Hour).Unix()
	require.NoError(t, f.resolver.AddWalletResponses(context.Background(), preAuthResponse("p1", exp)))

	item := f.waitSettled(t, "p1")
	assert.Equal(t, domaintypes.StatusSuccess, item.Status)
	assert.Equal(t, "subtxid_1", item.Metadata.SubintentHash)
	assert.Equal(t, "4d22", item.Metadata.SignedPartialTransaction)
	assert.Equal(t, exp, item.Metadata.ExpirationTimestamp)
	assert.Equal(t, "txid_parent", item.Metadata.ParentTransactionIntentHash)

	select {
	case parent := <-signalled:
		assert.Equal(t, "txid_parent", parent)
	case <-time.After(time.Second):
		t.Fatal("signal not fired")
	}
}

func TestPreAuthorization_ExpiresToTimedOut(t *testing.T) {
	f := newFixture(t)
	f.resolver.Start()

	f.add(t, "p1", domaintypes.RequestPreAuthorization, preAuthItems(), nil)
	exp := time.Now().Add(-time.Second).Unix()
	require.NoError(t, f.resolver.AddWalletResponses(context.Background(), preAuthResponse("p1", exp)))

	item := f.waitSettled(t, "p1")
	assert.Equal(t, domaintypes.StatusTimedOut, item.Status)
	assert.Equal(t, domaintypes.ErrorExpired, item.Error)
}

func TestExpirationTimestamp(t *testing.T) {
	assert.Equal(t, int64(500), ExpirationTimestamp(domaintypes.Expiration{
		Discriminator: domaintypes.ExpireAtTime, UnixTimestampSeconds: 500,
	}, 100))
	assert.Equal(t, int64(160), ExpirationTimestamp(domaintypes.Expiration{
		Discriminator: domaintypes.ExpireAfterDelay, ExpireAfterSeconds: 60,
	}, 100))
	assert.Zero(t, ExpirationTimestamp(domaintypes.Expiration{}, 100))
}

func TestAddWalletResponses_RejectsInvalid(t *testing.T) {
	f := newFixture(t)
	err := f.resolver.AddWalletResponses(context.Background(), domain.WalletInteractionResponse{
		Discriminator: domaintypes.ResponseSuccess,
		InteractionID: "x",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domaintypes.NewSdkError(domaintypes.ErrorWalletResponseValidation, "", ""))
}

func TestAddWalletResponses_MixedBatchKeepsValid(t *testing.T) {
	f := newFixture(t)
	f.gateway.tx = domaintypes.TransactionCommittedSuccess
	f.add(t, "good", domaintypes.RequestSendTransaction, txItems(), nil)
	f.add(t, "bad", domaintypes.RequestSendTransaction, txItems(), nil)
	f.resolver.Start()

	err := f.resolver.AddWalletResponses(context.Background(),
		txResponse("good", "txid_1"),
		domain.WalletInteractionResponse{InteractionID: "bad"},
	)
	require.Error(t, err)
	assert.ErrorIs(t, err, domaintypes.NewSdkError(domaintypes.ErrorWalletResponseValidation, "", ""))

	item := f.waitSettled(t, "good")
	assert.Equal(t, domaintypes.StatusSuccess, item.Status)
	assert.Equal(t, "txid_1", item.TransactionIntentHash)

	_, buffered, err := f.resolver.responses.Get(context.Background(), "bad")
	require.NoError(t, err)
	assert.False(t, buffered)
	bad, _, err := f.ledger.Get(context.Background(), "bad")
	require.NoError(t, err)
	assert.Equal(t, domaintypes.StatusPending, bad.Status)
}

func TestAddWalletResponses_KeepsResolvedMark(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.add(t, "tx1", domaintypes.RequestSendTransaction, txItems(), nil)
	resp := domain.WalletInteractionResponse{
		Discriminator: domaintypes.ResponseFailure,
		InteractionID: "tx1",
		Error:         domaintypes.ErrorRejectedByUser,
	}
	require.NoError(t, f.resolver.AddWalletResponses(ctx, resp))
	require.NoError(t, f.resolver.Tick(ctx))

	b, ok, err := f.resolver.responses.Get(ctx, "tx1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, b.Resolved)

	// a redelivery from the relay must not reopen it
	require.NoError(t, f.resolver.AddWalletResponses(ctx, resp))
	b, _, err = f.resolver.responses.Get(ctx, "tx1")
	require.NoError(t, err)
	assert.True(t, b.Resolved)
}

func TestTransaction_PollResumesAfterRestart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.add(t, "tx1", domaintypes.RequestSendTransaction, txItems(), nil)
	require.NoError(t, f.resolver.AddWalletResponses(ctx, txResponse("tx1", "txid_1")))
	require.NoError(t, f.resolver.Tick(ctx))

	item, ok, err := f.ledger.Get(ctx, "tx1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, domaintypes.StatusPending, item.Status)
	assert.Equal(t, "txid_1", item.TransactionIntentHash)

	// the process goes away while the gateway still says pending
	f.resolver.Destroy()
	f.gateway.mu.Lock()
	f.gateway.tx = domaintypes.TransactionCommittedSuccess
	f.gateway.mu.Unlock()

	restarted := f.newResolver(t)
	require.NoError(t, restarted.Tick(ctx))

	item = f.waitSettled(t, "tx1")
	assert.Equal(t, domaintypes.StatusSuccess, item.Status)
	assert.Equal(t, "txid_1", item.TransactionIntentHash)
	require.NotNil(t, item.WalletResponse)
}

func TestWaitForWalletResponse(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	go func() {
		time.Sleep(10 * time.Millisecond)
		_ = f.resolver.AddWalletResponses(context.Background(), txResponse("other", "txid_0"), txResponse("tx1", "txid_1"))
	}()
	resp, err := f.resolver.WaitForWalletResponse(ctx, "tx1")
	require.NoError(t, err)
	assert.Equal(t, "txid_1", resp.Items.Send.TransactionIntentHash)
}

func TestPipeline_EachResponseHasOneResolver(t *testing.T) {
	responses := []domain.WalletInteractionResponse{
		txResponse("a", "txid_a"),
		preAuthResponse("b", time.Now().Add(time.Hour).Unix()),
		loginResponse("c", domaintypes.AuthResponseItem{
			Discriminator: domaintypes.AuthLoginWithoutChallenge,
			Persona:       domain.Persona{IdentityAddress: "identity_tdx_2_1"},
		}),
		{Discriminator: domaintypes.ResponseFailure, InteractionID: "d", Error: domaintypes.ErrorRejectedByUser},
	}

	f := newFixture(t)
	ctx := context.Background()
	calls := map[string]int{}
	var mu sync.Mutex
	for kind := range f.resolver.pipeline {
		f.resolver.pipeline[kind] = func(_ context.Context, in input) error {
			mu.Lock()
			defer mu.Unlock()
			calls[string(in.item.InteractionID)]++
			return nil
		}
	}

	for _, resp := range responses {
		f.add(t, string(resp.InteractionID), domaintypes.RequestSendTransaction, txItems(), nil)
	}
	require.NoError(t, f.resolver.AddWalletResponses(ctx, responses...))
	require.NoError(t, f.resolver.Tick(ctx))
	// resolved responses are not offered again
	require.NoError(t, f.resolver.Tick(ctx))

	for _, resp := range responses {
		assert.NotEqual(t, KindNone, Classify(resp))
		assert.Equal(t, 1, calls[string(resp.InteractionID)], "response %s", resp.InteractionID)
	}
}
