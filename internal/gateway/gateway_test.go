package gateway_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dappkit/internal/backoff"
	domaintypes "dappkit/internal/domain/types"
	"dappkit/internal/gateway"
)

func fastBackoff() backoff.Config {
	return backoff.Config{Multiplier: 1, Interval: time.Millisecond, MaxDelay: 5 * time.Millisecond}
}

func TestClient_SendsHeadersAndDecodesStatus(t *testing.T) {
	var gotHeaders http.Header
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transaction/status", r.URL.Path)
		gotHeaders = r.Header.Clone()
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"CommittedSuccess","intent_status":"CommittedSuccess"}`))
	}))
	defer srv.Close()

	c := gateway.NewClient(nil, srv.URL+"/", gateway.AppInfo{
		Name:                  "demo",
		Version:               "1.0.0",
		DAppDefinitionAddress: "account_tdx_2_demo",
		Origin:                "https://demo.example",
	}, zerolog.Nop())

	res, err := c.TransactionStatus(context.Background(), "txid_1")
	require.NoError(t, err)
	assert.Equal(t, domaintypes.TransactionCommittedSuccess, res.Status)
	assert.Equal(t, "txid_1", gotBody["intent_hash"])
	assert.Equal(t, gateway.ClientName, gotHeaders.Get("RDX-Client-Name"))
	assert.Equal(t, "demo", gotHeaders.Get("RDX-App-Name"))
	assert.Equal(t, "account_tdx_2_demo", gotHeaders.Get("RDX-App-Dapp-Definition"))
	assert.Equal(t, "https://demo.example", gotHeaders.Get("RDX-App-Origin"))
}

func TestClient_SharedHTTPClientKeepsAppHeadersToGateway(t *testing.T) {
	gw := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "demo", r.Header.Get("RDX-App-Name"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"Pending","intent_status":"Pending"}`))
	}))
	defer gw.Close()

	var otherHeaders http.Header
	other := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		otherHeaders = r.Header.Clone()
		w.WriteHeader(http.StatusOK)
	}))
	defer other.Close()

	shared := resty.New()
	c := gateway.NewClient(shared, gw.URL, gateway.AppInfo{Name: "demo", Origin: "https://demo.example"}, zerolog.Nop())
	_, err := c.TransactionStatus(context.Background(), "txid_1")
	require.NoError(t, err)

	_, err = shared.R().Get(other.URL)
	require.NoError(t, err)
	assert.Empty(t, otherHeaders.Get("RDX-App-Name"))
	assert.Empty(t, otherHeaders.Get("RDX-App-Origin"))
	assert.Empty(t, otherHeaders.Get("RDX-Client-Name"))
	assert.Empty(t, shared.Header.Get("RDX-App-Name"))
}

func TestClient_NonOKIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"not found","code":404}`))
	}))
	defer srv.Close()

	c := gateway.NewClient(nil, srv.URL, gateway.AppInfo{}, zerolog.Nop())
	_, err := c.SubintentStatus(context.Background(), "subtxid_1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
	assert.Contains(t, err.Error(), "not found")
}

// fakeGateway answers from scripted sequences.
type fakeGateway struct {
	tx        []domaintypes.TransactionStatus
	sub       []domaintypes.SubintentStatus
	txCalls   atomic.Int32
	subCalls  atomic.Int32
	failFirst bool
}

func (f *fakeGateway) TransactionStatus(_ context.Context, _ string) (domaintypes.TransactionStatusResponse, error) {
	n := int(f.txCalls.Add(1)) - 1
	if f.failFirst && n == 0 {
		return domaintypes.TransactionStatusResponse{}, errors.New("connection reset")
	}
	if n >= len(f.tx) {
		n = len(f.tx) - 1
	}
	return domaintypes.TransactionStatusResponse{Status: f.tx[n]}, nil
}

func (f *fakeGateway) SubintentStatus(_ context.Context, _ string) (domaintypes.SubintentStatusResponse, error) {
	n := int(f.subCalls.Add(1)) - 1
	if n >= len(f.sub) {
		n = len(f.sub) - 1
	}
	res := domaintypes.SubintentStatusResponse{SubintentStatus: f.sub[n]}
	if f.sub[n] == domaintypes.SubintentCommittedSuccess {
		res.FinalizedAtTransactionIntentHash = "txid_parent"
	}
	return res, nil
}

func TestPollTransactionStatus_RetriesUntilFinal(t *testing.T) {
	g := &fakeGateway{
		failFirst: true,
		tx: []domaintypes.TransactionStatus{
			domaintypes.TransactionPending,
			domaintypes.TransactionPending,
			domaintypes.TransactionUnknown,
			domaintypes.TransactionCommittedFailure,
		},
	}
	p := gateway.NewPoller(g, gateway.WithBackoff(fastBackoff()))

	res, err := p.PollTransactionStatus(context.Background(), "txid_1")
	require.NoError(t, err)
	assert.Equal(t, domaintypes.TransactionCommittedFailure, res.Status)
	assert.Equal(t, int32(4), g.txCalls.Load())
}

func TestPollTransactionStatus_TimeoutFails(t *testing.T) {
	g := &fakeGateway{tx: []domaintypes.TransactionStatus{domaintypes.TransactionPending}}
	cfg := fastBackoff()
	cfg.Timeout = 30 * time.Millisecond
	p := gateway.NewPoller(g, gateway.WithBackoff(cfg))

	_, err := p.PollTransactionStatus(context.Background(), "txid_1")
	var sdkErr *domaintypes.SdkError
	require.ErrorAs(t, err, &sdkErr)
	assert.Equal(t, domaintypes.ErrorFailedToPollSubmittedTransaction, sdkErr.Type)
	assert.Equal(t, "txid_1", sdkErr.TransactionIntentHash)
	assert.ErrorIs(t, err, backoff.ErrTimeout)
}

func TestPollSubintentStatus_CommitsWithParentHash(t *testing.T) {
	g := &fakeGateway{sub: []domaintypes.SubintentStatus{
		domaintypes.SubintentUnknown,
		domaintypes.SubintentCommittedSuccess,
	}}
	p := gateway.NewPoller(g, gateway.WithBackoff(fastBackoff()))

	sp := p.PollSubintentStatus(context.Background(), "subtxid_1", time.Now().Add(time.Minute).Unix())
	res := sp.Result()
	require.NoError(t, res.Err)
	assert.Equal(t, "txid_parent", res.Status.FinalizedAtTransactionIntentHash)
}

func TestPollSubintentStatus_PastExpirationIsExpired(t *testing.T) {
	g := &fakeGateway{sub: []domaintypes.SubintentStatus{domaintypes.SubintentUnknown}}
	p := gateway.NewPoller(g, gateway.WithBackoff(fastBackoff()))

	sp := p.PollSubintentStatus(context.Background(), "subtxid_1", time.Now().Add(-time.Second).Unix())
	res := sp.Result()
	var sdkErr *domaintypes.SdkError
	require.ErrorAs(t, res.Err, &sdkErr)
	assert.Equal(t, domaintypes.ErrorExpired, sdkErr.Type)
	assert.Zero(t, g.subCalls.Load())
}

func TestPollSubintentStatus_Stop(t *testing.T) {
	g := &fakeGateway{sub: []domaintypes.SubintentStatus{domaintypes.SubintentUnknown}}
	p := gateway.NewPoller(g, gateway.WithBackoff(fastBackoff()))

	sp := p.PollSubintentStatus(context.Background(), "subtxid_1", 0)
	sp.Stop()
	select {
	case <-sp.Done():
	case <-time.After(time.Second):
		t.Fatal("poll did not stop")
	}
	assert.ErrorIs(t, sp.Result().Err, gateway.ErrPollStopped)
}
