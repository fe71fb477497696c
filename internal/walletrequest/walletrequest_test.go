package walletrequest_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dappkit/internal/backoff"
	"dappkit/internal/datarequest"
	"dappkit/internal/domain"
	domaintypes "dappkit/internal/domain/types"
	"dappkit/internal/gateway"
	"dappkit/internal/pubsub"
	"dappkit/internal/resolver"
	"dappkit/internal/sdk"
	"dappkit/internal/services/requestitems"
	"dappkit/internal/services/state"
	"dappkit/internal/store"
	"dappkit/internal/walletrequest"
)

// fakeWallet is a transport whose wallet answers with respond. A nil
// respond never answers.
type fakeWallet struct {
	mu      sync.Mutex
	sent    []domain.WalletInteraction
	respond func(domain.WalletInteraction) domain.WalletInteractionResponse
}

func (f *fakeWallet) ID() domain.TransportID { return domaintypes.TransportExtension }
func (f *fakeWallet) IsSupported() bool { return true }
func (f *fakeWallet) IsAvailable() *pubsub.Subject[bool] { return pubsub.NewSubject(true) }
func (f *fakeWallet) IsLinked() *pubsub.Subject[bool] { return pubsub.NewSubject(true) }
func (f *fakeWallet) Disconnect(context.Context) error { return nil }
func (f *fakeWallet) Destroy() {}

func (f *fakeWallet) Send(
	ctx context.Context,
	w domain.WalletInteraction,
	cb domain.CallbackFns,
) (domain.WalletInteractionResponse, error) {
	f.mu.Lock()
	f.sent = append(f.sent, w)
	respond := f.respond
	f.mu.Unlock()

	if cb.EventCallback != nil {
		cb.EventCallback(domaintypes.EventReceivedByWallet)
	}
	if respond == nil {
		<-ctx.Done()
		return domain.WalletInteractionResponse{}, ctx.Err()
	}
	return respond(w), nil
}

func (f *fakeWallet) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type fakeGateway struct {
	mu             sync.Mutex
	tx             domaintypes.TransactionStatus
	commitAfter    time.Time
	finalizedAt    string
	subintentCalls atomic.Int32
}

func (g *fakeGateway) TransactionStatus(context.Context, string) (domaintypes.TransactionStatusResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return domaintypes.TransactionStatusResponse{Status: g.tx}, nil
}

func (g *fakeGateway) SubintentStatus(context.Context, string) (domaintypes.SubintentStatusResponse, error) {
	g.subintentCalls.Add(1)
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.commitAfter.IsZero() || time.Now().Before(g.commitAfter) {
		return domaintypes.SubintentStatusResponse{SubintentStatus: domaintypes.SubintentUnknown}, nil
	}
	return domaintypes.SubintentStatusResponse{
		SubintentStatus:                  domaintypes.SubintentCommittedSuccess,
		FinalizedAtTransactionIntentHash: g.finalizedAt,
	}, nil
}

type fixture struct {
	wallet  *fakeWallet
	gateway *fakeGateway
	ledger  *requestitems.Ledger
	state   *state.Service
	module  *walletrequest.Module
}

func newFixture(t *testing.T, opts ...walletrequest.Option) *fixture {
	t.Helper()
	root := store.New(store.NewMemoryBackend(), "rdt:account_tdx_2_demo:2")
	f := &fixture{
		wallet:  &fakeWallet{},
		gateway: &fakeGateway{tx: domaintypes.TransactionPending},
		ledger:  requestitems.New(root.Partition(store.PartitionRequests)),
		state:   state.New(root.Partition(store.PartitionState)),
	}
	poller := gateway.NewPoller(f.gateway, gateway.WithBackoff(backoff.Config{
		Multiplier: 1,
		Interval:   5 * time.Millisecond,
		MaxDelay:   10 * time.Millisecond,
	}))
	res := resolver.New(resolver.Deps{
		Ledger:    f.ledger,
		State:     f.state,
		Responses: root.Partition(store.PartitionWalletResponses),
		Poller:    poller,
	}, resolver.WithTickInterval(5*time.Millisecond))
	res.Start()
	t.Cleanup(res.Destroy)

	s := sdk.New(sdk.Config{
		NetworkID:             domaintypes.NetworkStokenet,
		DAppDefinitionAddress: "account_tdx_2_demo",
		Origin:                "https://demo.example",
	}, []domain.Transport{f.wallet})

	f.module = walletrequest.New(walletrequest.Deps{
		SDK:      s,
		Ledger:   f.ledger,
		State:    f.state,
		Resolver: res,
	}, opts...)
	return f
}

func timeout(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func sdkErr(t *testing.T, err error) *domaintypes.SdkError {
	t.Helper()
	var e *domaintypes.SdkError
	require.True(t, errors.As(err, &e), "want *SdkError, got %v", err)
	return e
}

func onlyItem(t *testing.T, l *requestitems.Ledger) domain.RequestItem {
	t.Helper()
	items, err := l.List(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	return items[0]
}

func waitForItem(t *testing.T, l *requestitems.Ledger) domain.RequestItem {
	t.Helper()
	var item domain.RequestItem
	require.Eventually(t, func() bool {
		items, err := l.List(context.Background())
		if err != nil || len(items) == 0 {
			return false
		}
		item = items[0]
		return true
	}, 2*time.Second, 5*time.Millisecond)
	return item
}

var persona = domain.Persona{IdentityAddress: "identity_tdx_2_1", Label: "me"}

func accountsAnswer(w domain.WalletInteraction) domain.WalletInteractionResponse {
	return domain.WalletInteractionResponse{
		Discriminator: domaintypes.ResponseSuccess,
		InteractionID: w.InteractionID,
		Items: &domain.ResponseItems{
			Discriminator: domaintypes.ResponseItemsAuthorizedRequest,
			Auth: &domaintypes.AuthResponseItem{
				Discriminator: w.Items.Auth.Discriminator,
				Persona:       persona,
			},
			OngoingAccounts: &domaintypes.AccountsResponseItem{
				Accounts: []domain.Account{{Address: "account_tdx_2_1", Label: "main"}},
			},
		},
	}
}

func txAnswer(hash string) func(domain.WalletInteraction) domain.WalletInteractionResponse {
	return func(w domain.WalletInteraction) domain.WalletInteractionResponse {
		return domain.WalletInteractionResponse{
			Discriminator: domaintypes.ResponseSuccess,
			InteractionID: w.InteractionID,
			Items: &domain.ResponseItems{
				Discriminator: domaintypes.ResponseItemsTransaction,
				Send:          &domaintypes.SendTransactionResponseItem{TransactionIntentHash: hash},
			},
		}
	}
}

func TestScenarioA_DataRequestStoresAccounts(t *testing.T) {
	f := newFixture(t)
	f.wallet.respond = accountsAnswer
	req := datarequest.Build(datarequest.Accounts().AtLeast(1))

	data, err := f.module.SendRequest(timeout(t), walletrequest.RequestInput{Request: &req})
	require.NoError(t, err)
	require.Len(t, data.Accounts, 1)
	assert.Equal(t, "account_tdx_2_1", data.Accounts[0].Address)

	item := onlyItem(t, f.ledger)
	assert.Equal(t, domaintypes.StatusSuccess, item.Status)
	assert.Equal(t, domaintypes.RequestData, item.Type)

	walletData, _ := f.state.WalletData().Value()
	assert.Len(t, walletData.Accounts, 1)
	connected, _ := f.state.Connected().Value()
	assert.True(t, connected)
}

func TestSendRequest_CacheShortCircuits(t *testing.T) {
	f := newFixture(t, walletrequest.WithCache(true))
	f.wallet.respond = accountsAnswer
	req := datarequest.Build(datarequest.Accounts().AtLeast(1))

	_, err := f.module.SendRequest(timeout(t), walletrequest.RequestInput{Request: &req})
	require.NoError(t, err)
	require.Equal(t, 1, f.wallet.sentCount())

	data, err := f.module.SendRequest(timeout(t), walletrequest.RequestInput{Request: &req})
	require.NoError(t, err)
	assert.Len(t, data.Accounts, 1)
	assert.Equal(t, 1, f.wallet.sentCount())

	// a different shape goes to the wallet
	more := datarequest.Build(datarequest.Accounts().Exactly(2))
	f.wallet.mu.Lock()
	f.wallet.respond = nil
	f.wallet.mu.Unlock()
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = f.module.SendRequest(ctx, walletrequest.RequestInput{Request: &more})
	require.Error(t, err)
	assert.Equal(t, 2, f.wallet.sentCount())
}

func TestSendRequest_UsesPersonaOnceConnected(t *testing.T) {
	f := newFixture(t)
	f.wallet.respond = accountsAnswer
	req := datarequest.Build(datarequest.Accounts().AtLeast(1))

	_, err := f.module.SendRequest(timeout(t), walletrequest.RequestInput{Request: &req})
	require.NoError(t, err)
	_, err = f.module.SendRequest(timeout(t), walletrequest.RequestInput{Request: &req})
	require.NoError(t, err)

	f.wallet.mu.Lock()
	defer f.wallet.mu.Unlock()
	require.Len(t, f.wallet.sent, 2)
	assert.Equal(t, domaintypes.AuthLoginWithoutChallenge, f.wallet.sent[0].Items.Auth.Discriminator)
	assert.Equal(t, domaintypes.AuthUsePersona, f.wallet.sent[1].Items.Auth.Discriminator)
	assert.Equal(t, persona.IdentityAddress, f.wallet.sent[1].Items.Auth.IdentityAddress)
}

func TestSendRequest_RejectsMalformedChallenge(t *testing.T) {
	f := newFixture(t, walletrequest.WithChallengeGenerator(func(context.Context) (string, error) {
		return "ABC", nil
	}))
	req := datarequest.Build(datarequest.Accounts().AtLeast(1).WithProof())

	_, err := f.module.SendRequest(timeout(t), walletrequest.RequestInput{Request: &req})
	assert.Equal(t, domaintypes.ErrorInvalidChallenge, sdkErr(t, err).Type)
	assert.Zero(t, f.wallet.sentCount())
}

func TestSendRequest_OneTimeLeavesStateAlone(t *testing.T) {
	f := newFixture(t)
	f.wallet.respond = func(w domain.WalletInteraction) domain.WalletInteractionResponse {
		return domain.WalletInteractionResponse{
			Discriminator: domaintypes.ResponseSuccess,
			InteractionID: w.InteractionID,
			Items: &domain.ResponseItems{
				Discriminator: domaintypes.ResponseItemsUnauthorizedRequest,
				OneTimeAccounts: &domaintypes.AccountsResponseItem{
					Accounts: []domain.Account{{Address: "account_tdx_2_7"}},
				},
			},
		}
	}
	req := datarequest.Build(datarequest.Accounts().Exactly(1))

	data, err := f.module.SendRequest(timeout(t), walletrequest.RequestInput{Request: &req, OneTime: true})
	require.NoError(t, err)
	require.Len(t, data.Accounts, 1)
	assert.Equal(t, "account_tdx_2_7", data.Accounts[0].Address)
	connected, _ := f.state.Connected().Value()
	assert.False(t, connected)
	assert.True(t, onlyItem(t, f.ledger).IsOneTimeRequest)
}

func TestScenarioB_CommittedFailureReferencesHash(t *testing.T) {
	f := newFixture(t)
	f.wallet.respond = txAnswer("H1")
	f.gateway.tx = domaintypes.TransactionCommittedFailure

	var reported atomic.Value
	_, err := f.module.SendTransaction(timeout(t), walletrequest.TransactionInput{
		TransactionManifest: "CALL_METHOD",
		OnTransactionID:     func(h string) { reported.Store(h) },
	})
	e := sdkErr(t, err)
	assert.Equal(t, domaintypes.ErrorSubmittedTransactionHasFailedTransactionStatus, e.Type)
	assert.Equal(t, "H1", e.TransactionIntentHash)
	assert.Equal(t, "H1", reported.Load())

	item := onlyItem(t, f.ledger)
	assert.Equal(t, domaintypes.StatusFail, item.Status)
	assert.Equal(t, "H1", item.TransactionIntentHash)
}

func TestSendTransaction_CommittedSuccess(t *testing.T) {
	f := newFixture(t)
	f.wallet.respond = txAnswer("txid_ok")
	f.gateway.tx = domaintypes.TransactionCommittedSuccess

	res, err := f.module.SendTransaction(timeout(t), walletrequest.TransactionInput{TransactionManifest: "CALL_METHOD"})
	require.NoError(t, err)
	assert.Equal(t, "txid_ok", res.TransactionIntentHash)
	assert.Equal(t, domaintypes.TransactionCommittedSuccess, res.Status)
	assert.False(t, onlyItem(t, f.ledger).ShowCancel)
}

func TestScenarioC_SubmittedCallbackFiresFirst(t *testing.T) {
	f := newFixture(t)
	f.gateway.commitAfter = time.Now().Add(40 * time.Millisecond)
	f.gateway.finalizedAt = "txid_parent"
	exp := time.Now().Add(time.Hour).Unix()
	f.wallet.respond = func(w domain.WalletInteraction) domain.WalletInteractionResponse {
		return domain.WalletInteractionResponse{
			Discriminator: domaintypes.ResponseSuccess,
			InteractionID: w.InteractionID,
			Items: &domain.ResponseItems{
				Discriminator: domaintypes.ResponseItemsPreAuthorizationResponse,
				Response: &domaintypes.SubintentResponseItem{
					ExpirationTimestamp:      exp,
					SubintentHash:            "subtxid_1",
					SignedPartialTransaction: "4d220e03",
				},
			},
		}
	}

	var callback atomic.Value
	res, err := f.module.SendPreAuthorizationRequest(timeout(t), walletrequest.PreAuthorizationInput{
		SubintentManifest: "YIELD_TO_PARENT",
		Expiration: domaintypes.Expiration{
			Discriminator:        domaintypes.ExpireAtTime,
			UnixTimestampSeconds: exp,
		},
		OnSubmittedSuccess: func(h string) { callback.Store(h) },
		WaitForCommit:      true,
	})
	require.NoError(t, err)

	// set before the call returned
	assert.Equal(t, "txid_parent", callback.Load())
	assert.Equal(t, "4d220e03", res.SignedPartialTransaction)
	assert.Equal(t, "subtxid_1", res.SubintentHash)
	assert.Equal(t, "txid_parent", res.TransactionIntentHash)
	assert.Greater(t, f.gateway.subintentCalls.Load(), int32(1))
}

func TestSendPreAuthorization_ReturnsOnceSigned(t *testing.T) {
	f := newFixture(t)
	exp := time.Now().Add(time.Hour).Unix()
	f.wallet.respond = func(w domain.WalletInteraction) domain.WalletInteractionResponse {
		return domain.WalletInteractionResponse{
			Discriminator: domaintypes.ResponseSuccess,
			InteractionID: w.InteractionID,
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

	res, err := f.module.SendPreAuthorizationRequest(timeout(t), walletrequest.PreAuthorizationInput{SubintentManifest: "YIELD_TO_PARENT"})
	require.NoError(t, err)
	assert.Equal(t, "4d22", res.SignedPartialTransaction)
	assert.Empty(t, res.TransactionIntentHash)
	assert.Equal(t, domaintypes.StatusPendingCommit, onlyItem(t, f.ledger).Status)

	f.wallet.mu.Lock()
	sent := f.wallet.sent[0]
	f.wallet.mu.Unlock()
	assert.Equal(t, domaintypes.ExpireAfterDelay, sent.Items.Request.Expiration.Discriminator)
	assert.Equal(t, walletrequest.DefaultPreAuthorizationExpiry, sent.Items.Request.Expiration.ExpireAfterSeconds)
}

func TestCancelRequest_FailsPendingCall(t *testing.T) {
	f := newFixture(t)

	ctx := timeout(t)
	errc := make(chan error, 1)
	go func() {
		_, err := f.module.SendTransaction(ctx, walletrequest.TransactionInput{TransactionManifest: "CALL_METHOD"})
		errc <- err
	}()

	item := waitForItem(t, f.ledger)
	require.NoError(t, f.module.CancelRequest(context.Background(), item.InteractionID))

	select {
	case err := <-errc:
		assert.Equal(t, domaintypes.ErrorCanceledByUser, sdkErr(t, err).Type)
	case <-time.After(2 * time.Second):
		t.Fatal("call did not return")
	}
	assert.Equal(t, domaintypes.StatusFail, onlyItem(t, f.ledger).Status)
}

func TestIgnoreTransaction_StopsTracking(t *testing.T) {
	f := newFixture(t)
	f.wallet.respond = txAnswer("txid_slow")

	ctx := timeout(t)
	errc := make(chan error, 1)
	go func() {
		_, err := f.module.SendTransaction(ctx, walletrequest.TransactionInput{TransactionManifest: "CALL_METHOD"})
		errc <- err
	}()

	item, err := f.ledger.WaitFor(ctx, waitForItem(t, f.ledger).InteractionID, func(it domain.RequestItem) bool {
		return it.TransactionIntentHash != ""
	})
	require.NoError(t, err)
	require.NoError(t, f.module.IgnoreTransaction(context.Background(), item.InteractionID))

	select {
	case err := <-errc:
		e := sdkErr(t, err)
		assert.Equal(t, domaintypes.ErrorCanceledByUser, e.Type)
		assert.Equal(t, "txid_slow", e.TransactionIntentHash)
	case <-time.After(2 * time.Second):
		t.Fatal("call did not return")
	}

	f.gateway.mu.Lock()
	f.gateway.tx = domaintypes.TransactionCommittedSuccess
	f.gateway.mu.Unlock()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, domaintypes.StatusIgnored, onlyItem(t, f.ledger).Status)
}

func TestSend_CallerContextEndMarksCancelled(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := f.module.SendTransaction(ctx, walletrequest.TransactionInput{TransactionManifest: "CALL_METHOD"})
	assert.Equal(t, domaintypes.ErrorCanceledByUser, sdkErr(t, err).Type)
	assert.Equal(t, domaintypes.StatusCancelled, onlyItem(t, f.ledger).Status)
}

func TestSend_InvalidInteractionFailsItem(t *testing.T) {
	f := newFixture(t)
	f.wallet.respond = txAnswer("txid_1")

	_, err := f.module.SendTransaction(timeout(t), walletrequest.TransactionInput{})
	assert.Equal(t, domaintypes.ErrorWalletRequestValidation, sdkErr(t, err).Type)
	assert.Zero(t, f.wallet.sentCount())
	assert.Equal(t, domaintypes.StatusFail, onlyItem(t, f.ledger).Status)
}

func TestDisconnect_ClearsEverything(t *testing.T) {
	f := newFixture(t)
	f.wallet.respond = accountsAnswer
	req := datarequest.Build(datarequest.Accounts().AtLeast(1))
	_, err := f.module.SendRequest(timeout(t), walletrequest.RequestInput{Request: &req})
	require.NoError(t, err)
	connected, _ := f.state.Connected().Value()
	require.True(t, connected)

	require.NoError(t, f.module.Disconnect(context.Background()))

	connected, _ = f.state.Connected().Value()
	assert.False(t, connected)
	items, err := f.ledger.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, items)
}
