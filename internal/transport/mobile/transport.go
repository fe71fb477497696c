package mobile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"dappkit/internal/crypto"
	"dappkit/internal/domain"
	domaintypes "dappkit/internal/domain/types"
	"dappkit/internal/pubsub"
	"dappkit/internal/util/memzero"
)

const (
	DefaultDeepLinkBase = "radixwallet://connect"
	DefaultPollInterval = time.Second
)

// Config tunes a Transport.
type Config struct {
	DAppDefinitionAddress string
	DeepLinkBase          string
	PollInterval          time.Duration
}

// Deps are the collaborators a Transport needs.
type Deps struct {
	Env      domain.Environment
	Identity domain.IdentityService
	Sessions domain.SessionService
	Relay    domain.RelayClient
	Sink     domain.WalletResponseSink
}

// Transport delivers interactions by deep link and collects responses from
// the relay.
type Transport struct {
	deps Deps
	cfg  Config
	log  zerolog.Logger

	available *pubsub.Subject[bool]
	linked    *pubsub.Subject[bool]

	mu      sync.Mutex
	stop    context.CancelFunc
	stopped chan struct{}
}

// Option configures a Transport.
type Option func(*Transport)

// WithLogger sets the transport logger.
func WithLogger(l zerolog.Logger) Option {
	return func(t *Transport) { t.log = l.With().Str("component", "mobile").Logger() }
}

// New returns a Transport. Polling starts with Start or the first Send.
func New(deps Deps, cfg Config, opts ...Option) *Transport {
	if cfg.DeepLinkBase == "" {
		cfg.DeepLinkBase = DefaultDeepLinkBase
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	t := &Transport{
		deps:      deps,
		cfg:       cfg,
		log:       zerolog.Nop(),
		available: pubsub.NewSubject(true),
		linked:    pubsub.NewSubject(false),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

var (
	_ domain.Transport    = (*Transport)(nil)
	_ domain.QRCodeShower = (*Transport)(nil)
)

// ID implements domain.Transport.
func (t *Transport) ID() domain.TransportID { return domaintypes.TransportMobile }

// IsSupported is true on mobile.
func (t *Transport) IsSupported() bool { return t.deps.Env.IsMobile() }

// IsAvailable is always true: the relay is reached on demand.
func (t *Transport) IsAvailable() *pubsub.Subject[bool] { return t.available }

// IsLinked reports whether the current session has a wallet.
func (t *Transport) IsLinked() *pubsub.Subject[bool] { return t.linked }

// Start begins polling the relay. Calling it again is a no-op.
func (t *Transport) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stop != nil {
		return nil
	}
	session, err := t.deps.Sessions.GetCurrentSession(ctx)
	if err != nil {
		return domaintypes.WrapSdkError(domaintypes.ErrorFailedToReadSession, "", err)
	}
	t.linked.Publish(session.IsLinked())

	ctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	t.stop = cancel
	t.stopped = make(chan struct{})
	go t.pollLoop(ctx, t.stopped)
	return nil
}

// pollLoop re-arms its timer only after a pass completes.
func (t *Transport) pollLoop(ctx context.Context, stopped chan struct{}) {
	defer close(stopped)
	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
		if err := t.pollOnce(ctx); err != nil && ctx.Err() == nil {
			t.log.Warn().Err(err).Msg("relay poll failed")
		}
		timer.Reset(t.cfg.PollInterval)
	}
}

// pollOnce fetches, decrypts and forwards the responses queued for the
// current session.
func (t *Transport) pollOnce(ctx context.Context) error {
	session, err := t.deps.Sessions.GetCurrentSession(ctx)
	if err != nil {
		return err
	}
	encrypted, err := t.deps.Relay.GetResponses(ctx, session.SessionID)
	if err != nil {
		return err
	}

	responses := make([]domain.WalletInteractionResponse, 0, len(encrypted))
	for _, enc := range encrypted {
		resp, err := t.DecryptWalletResponse(ctx, enc)
		if err != nil {
			t.log.Warn().Err(err).Str("session_id", session.SessionID).Msg("dropping undecryptable response")
			continue
		}
		if !session.IsLinked() {
			if session, err = t.deps.Sessions.PatchSession(ctx, session.SessionID, enc.PublicKey); err != nil {
				return err
			}
			t.linked.Publish(true)
			t.log.Info().Str("session_id", session.SessionID).Msg("wallet linked")
		}
		responses = append(responses, resp)
	}
	if len(responses) == 0 {
		return nil
	}
	// The relay has already dropped this batch: the sink keeps the valid
	// responses and reports the rest, which are not retried.
	err = t.deps.Sink.AddWalletResponses(ctx, responses...)
	if errors.Is(err, domaintypes.NewSdkError(domaintypes.ErrorWalletResponseValidation, "", "")) {
		t.log.Warn().Err(err).Str("session_id", session.SessionID).Msg("skipped invalid responses")
		return nil
	}
	return err
}

// DecryptWalletResponse opens one relay response.
func (t *Transport) DecryptWalletResponse(
	ctx context.Context,
	enc domain.EncryptedResponse,
) (domain.WalletInteractionResponse, error) {
	var resp domain.WalletInteractionResponse
	secret, err := t.deps.Identity.DeriveSharedSecret(ctx, domaintypes.IdentityKindDapp, enc.PublicKey)
	if err != nil {
		return resp, err
	}
	defer memzero.Zero(secret)

	plaintext, err := crypto.DecryptSealboxHex(enc.Data, secret)
	if err != nil {
		return resp, domaintypes.WrapSdkError(domaintypes.ErrorFailedToDecryptWalletResponseData, "", err)
	}
	if err := json.Unmarshal(plaintext, &resp); err != nil {
		return resp, domaintypes.WrapSdkError(domaintypes.ErrorFailedToDecryptWalletResponseData, "", err)
	}
	return resp, nil
}

// Send opens the deep link for interaction and waits for the matching
// response to reach the sink.
func (t *Transport) Send(
	ctx context.Context,
	interaction domain.WalletInteraction,
	callbacks domain.CallbackFns,
) (domain.WalletInteractionResponse, error) {
	id := interaction.InteractionID
	if err := t.Start(ctx); err != nil {
		return domain.WalletInteractionResponse{}, err
	}

	link, err := t.deepLink(ctx, &interaction)
	if err != nil {
		return domain.WalletInteractionResponse{}, err
	}
	if err := t.deps.Env.OpenURL(ctx, link); err != nil {
		return domain.WalletInteractionResponse{}, domaintypes.WrapSdkError(domaintypes.ErrorFailedToSendMessage, id, err)
	}
	if callbacks.RequestControl != nil {
		callbacks.RequestControl(control{interaction: interaction})
	}

	resp, err := t.deps.Sink.WaitForWalletResponse(ctx, id)
	if err != nil {
		if ctx.Err() != nil {
			return resp, domaintypes.WrapSdkError(domaintypes.ErrorCanceledByUser, id, err)
		}
		return resp, err
	}
	return resp, nil
}

// ShowQRCode returns a link that connects a wallet to the current session
// without carrying a request.
func (t *Transport) ShowQRCode(ctx context.Context) (string, error) {
	if err := t.Start(ctx); err != nil {
		return "", err
	}
	return t.deepLink(ctx, nil)
}

// deepLink builds the wallet link. interaction may be nil.
func (t *Transport) deepLink(ctx context.Context, interaction *domain.WalletInteraction) (string, error) {
	var id domain.InteractionID
	if interaction != nil {
		id = interaction.InteractionID
	}
	session, err := t.deps.Sessions.GetCurrentSession(ctx)
	if err != nil {
		return "", domaintypes.WrapSdkError(domaintypes.ErrorFailedToReadSession, id, err)
	}
	kp, err := t.deps.Identity.Get(ctx, domaintypes.IdentityKindDapp)
	if err != nil {
		return "", domaintypes.WrapSdkError(domaintypes.ErrorDappIdentityNotFound, id, err)
	}

	q := url.Values{}
	q.Set("sessionId", session.SessionID)
	q.Set("origin", t.deps.Env.Origin())
	q.Set("dAppDefinitionAddress", t.cfg.DAppDefinitionAddress)
	q.Set("identity", kp.X25519PublicKeyHex())
	q.Set("publicKey", kp.Ed25519PublicKeyHex())

	if interaction != nil {
		sig, err := t.deps.Identity.CreateSignature(ctx, domaintypes.IdentityKindDapp, id, t.deps.Env.Origin())
		if err != nil {
			return "", err
		}
		raw, err := json.Marshal(interaction)
		if err != nil {
			return "", domaintypes.WrapSdkError(domaintypes.ErrorWalletRequestValidation, id, err)
		}
		q.Set("request", crypto.B64URL(raw))
		q.Set("signature", sig.Signature)
		q.Set("publicKey", sig.PublicKey)
	}
	return fmt.Sprintf("%s?%s", t.cfg.DeepLinkBase, q.Encode()), nil
}

// Disconnect forgets the session so the next link starts a new one.
func (t *Transport) Disconnect(ctx context.Context) error {
	if err := t.deps.Sessions.Clear(ctx); err != nil {
		return err
	}
	t.linked.Publish(false)
	return nil
}

// Destroy stops polling.
func (t *Transport) Destroy() {
	t.mu.Lock()
	stop, stopped := t.stop, t.stopped
	t.stop = nil
	t.mu.Unlock()
	if stop != nil {
		stop()
		<-stopped
	}
}

// control is handed to callers; the relay has no cancel channel.
type control struct {
	interaction domain.WalletInteraction
}

func (c control) Interaction() domain.WalletInteraction { return c.interaction }

func (c control) Cancel(context.Context) (bool, error) { return false, nil }
