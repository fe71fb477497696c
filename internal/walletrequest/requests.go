package walletrequest

import (
	"context"
	"sync"

	"dappkit/internal/datarequest"
	"dappkit/internal/domain"
	domaintypes "dappkit/internal/domain/types"
)

// RequestInput is a data request. A nil Request sends DataRequest().Get().
type RequestInput struct {
	Request *datarequest.Request
	OneTime bool
}

// SendRequest asks the wallet for data. Ongoing requests return the stored
// wallet data after the response is applied; one-time requests return only
// what the wallet shared this time and leave the state alone.
func (m *Module) SendRequest(ctx context.Context, in RequestInput) (domain.WalletData, error) {
	req := m.dataRequest.Get()
	if in.Request != nil {
		req = *in.Request
	}
	if req.IsEmpty() {
		return domain.WalletData{}, domaintypes.NewSdkError(domaintypes.ErrorWalletRequestValidation, "", "nothing requested")
	}

	st, err := m.state.Get(ctx)
	if err != nil {
		return domain.WalletData{}, err
	}
	if m.useCache && datarequest.CanBeResolvedByState(req, st, in.OneTime) {
		m.log.Debug().Msg("answered from state")
		return st.WalletData, nil
	}

	opts := datarequest.Options{OneTime: in.OneTime}
	if !in.OneTime {
		opts.Persona = st.WalletData.Persona
	}
	if req.NeedsChallenge() {
		if opts.Challenge, err = m.newChallenge(ctx); err != nil {
			return domain.WalletData{}, err
		}
	}
	items, err := datarequest.ToWalletRequest(req, opts)
	if err != nil {
		return domain.WalletData{}, domaintypes.WrapSdkError(domaintypes.ErrorWalletRequestValidation, "", err)
	}

	item, err := m.send(ctx, dispatch{
		typ:     requestType(req, in.OneTime),
		items:   items,
		oneTime: in.OneTime,
		until:   settled,
	})
	if err != nil {
		return domain.WalletData{}, err
	}
	if item.Status != domaintypes.StatusSuccess {
		return domain.WalletData{}, item.SdkError()
	}

	if in.OneTime {
		if item.WalletResponse == nil || item.WalletResponse.Items == nil {
			return domain.WalletData{}, domaintypes.NewSdkError(domaintypes.ErrorWalletResponseValidation, item.InteractionID, "response missing")
		}
		return datarequest.FromWalletResponse(*item.WalletResponse.Items), nil
	}
	st, err = m.state.Get(ctx)
	if err != nil {
		return domain.WalletData{}, err
	}
	return st.WalletData, nil
}

func requestType(req datarequest.Request, oneTime bool) domain.RequestType {
	if oneTime {
		return domaintypes.RequestData
	}
	noData := req.Accounts == nil && req.PersonaData == nil
	switch {
	case noData && req.ProofOfOwnership == nil && req.Persona != nil:
		return domaintypes.RequestLogin
	case noData && req.Persona == nil && req.ProofOfOwnership != nil:
		return domaintypes.RequestProof
	}
	return domaintypes.RequestData
}

func (m *Module) newChallenge(ctx context.Context) (string, error) {
	if m.challenge == nil {
		return "", domaintypes.NewSdkError(domaintypes.ErrorInvalidChallenge, "", "proof requested but no challenge generator configured")
	}
	c, err := m.challenge(ctx)
	if err != nil {
		return "", domaintypes.WrapSdkError(domaintypes.ErrorInvalidChallenge, "", err)
	}
	if !domaintypes.IsValidChallenge(c) {
		return "", domaintypes.NewSdkError(domaintypes.ErrorInvalidChallenge, "", "challenge must be 64 lowercase hex characters")
	}
	return c, nil
}

// TransactionInput is a manifest to submit through the wallet.
type TransactionInput struct {
	TransactionManifest string
	Version             int
	Blobs               []string
	Message             string
	// OnTransactionID is called once the wallet reports the intent hash,
	// before finality is known.
	OnTransactionID func(transactionIntentHash string)
}

// TransactionResult is a committed transaction.
type TransactionResult struct {
	TransactionIntentHash string
	Status                domain.TransactionStatus
}

// SendTransaction sends a manifest and waits until the gateway reports the
// transaction committed. A failed or rejected commit returns an *SdkError
// carrying the intent hash.
func (m *Module) SendTransaction(ctx context.Context, in TransactionInput) (TransactionResult, error) {
	version := in.Version
	if version == 0 {
		version = 1
	}

	var once sync.Once
	until := func(it domain.RequestItem) bool {
		if it.TransactionIntentHash != "" && in.OnTransactionID != nil {
			once.Do(func() { in.OnTransactionID(it.TransactionIntentHash) })
		}
		return settled(it)
	}

	item, err := m.send(ctx, dispatch{
		typ: domaintypes.RequestSendTransaction,
		items: domain.InteractionItems{
			Discriminator: domaintypes.ItemsTransaction,
			Send: &domaintypes.SendTransactionItem{
				TransactionManifest: in.TransactionManifest,
				Version:             version,
				Blobs:               in.Blobs,
				Message:             in.Message,
			},
		},
		until: until,
	})
	if err != nil {
		return TransactionResult{}, err
	}
	if item.Status != domaintypes.StatusSuccess {
		return TransactionResult{}, item.SdkError()
	}
	return TransactionResult{
		TransactionIntentHash: item.TransactionIntentHash,
		Status:                domain.TransactionStatus(item.Metadata.TransactionStatus),
	}, nil
}

// DefaultPreAuthorizationExpiry is used when a PreAuthorizationInput has no
// expiration.
const DefaultPreAuthorizationExpiry int64 = 3600

// PreAuthorizationInput is a subintent manifest for the wallet to sign.
type PreAuthorizationInput struct {
	SubintentManifest string
	Version           int
	ManifestVersion   int
	Blobs             []string
	Message           string
	Expiration        domaintypes.Expiration
	// OnSubmittedSuccess is called with the parent transaction intent hash
	// once the subintent is committed.
	OnSubmittedSuccess func(transactionIntentHash string)
	// WaitForCommit makes the call return only after commit (or expiry),
	// and after OnSubmittedSuccess has run.
	WaitForCommit bool
}

// PreAuthorizationResult is the wallet-signed subintent.
type PreAuthorizationResult struct {
	SubintentHash            string
	SignedPartialTransaction string
	ExpirationTimestamp      int64
	// TransactionIntentHash is set when the call waited for commit.
	TransactionIntentHash string
}

// SendPreAuthorizationRequest asks the wallet to sign a subintent. It returns
// once signed; commit is reported through OnSubmittedSuccess.
func (m *Module) SendPreAuthorizationRequest(ctx context.Context, in PreAuthorizationInput) (PreAuthorizationResult, error) {
	version, manifestVersion := in.Version, in.ManifestVersion
	if version == 0 {
		version = 1
	}
	if manifestVersion == 0 {
		manifestVersion = 2
	}
	exp := in.Expiration
	if exp.Discriminator == "" {
		exp = domaintypes.Expiration{Discriminator: domaintypes.ExpireAfterDelay, ExpireAfterSeconds: DefaultPreAuthorizationExpiry}
	}

	fired := make(chan struct{})
	signal := func(parent string) {
		if in.OnSubmittedSuccess != nil {
			in.OnSubmittedSuccess(parent)
		}
		close(fired)
	}
	until := func(it domain.RequestItem) bool { return it.Status != domaintypes.StatusPending }
	if in.WaitForCommit {
		until = settled
	}

	item, err := m.send(ctx, dispatch{
		typ: domaintypes.RequestPreAuthorization,
		items: domain.InteractionItems{
			Discriminator: domaintypes.ItemsPreAuthorizationRequest,
			Request: &domaintypes.SubintentRequestItem{
				Discriminator:     domaintypes.SubintentDiscriminator,
				Version:           version,
				ManifestVersion:   manifestVersion,
				SubintentManifest: in.SubintentManifest,
				Blobs:             in.Blobs,
				Message:           in.Message,
				Expiration:        exp,
			},
		},
		signal: signal,
		until:  until,
	})
	if err != nil {
		return PreAuthorizationResult{}, err
	}

	switch item.Status {
	case domaintypes.StatusPendingCommit:
	case domaintypes.StatusSuccess:
		if in.WaitForCommit {
			// the ledger publishes before it fires the signal
			select {
			case <-fired:
			case <-ctx.Done():
				return PreAuthorizationResult{}, domaintypes.WrapSdkError(domaintypes.ErrorCanceledByUser, item.InteractionID, ctx.Err())
			}
		}
	default:
		return PreAuthorizationResult{}, item.SdkError()
	}

	return PreAuthorizationResult{
		SubintentHash:            item.Metadata.SubintentHash,
		SignedPartialTransaction: item.Metadata.SignedPartialTransaction,
		ExpirationTimestamp:      item.Metadata.ExpirationTimestamp,
		TransactionIntentHash:    item.Metadata.ParentTransactionIntentHash,
	}, nil
}
