package walletrequest

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"dappkit/internal/datarequest"
	"dappkit/internal/domain"
	domaintypes "dappkit/internal/domain/types"
	"dappkit/internal/resolver"
	"dappkit/internal/sdk"
	"dappkit/internal/services/requestitems"
	"dappkit/internal/services/state"
)

// ChallengeGenerator returns a fresh 32 byte challenge as lowercase hex.
type ChallengeGenerator func(ctx context.Context) (string, error)

// Deps are the collaborators the orchestrator composes.
type Deps struct {
	SDK      *sdk.SDK
	Ledger   *requestitems.Ledger
	State    *state.Service
	Resolver *resolver.Resolver
	// Sessions is cleared on Disconnect; nil when no relay transport is
	// configured.
	Sessions domain.SessionService
}

// Module is the wallet request orchestrator.
type Module struct {
	sdk      *sdk.SDK
	ledger   *requestitems.Ledger
	state    *state.Service
	resolver *resolver.Resolver
	sessions domain.SessionService

	challenge   ChallengeGenerator
	useCache    bool
	dataRequest *datarequest.State
	log         zerolog.Logger

	mu       sync.Mutex
	controls map[domain.InteractionID]domain.RequestControl
}

// Option configures a Module.
type Option func(*Module)

// WithLogger sets the orchestrator logger.
func WithLogger(l zerolog.Logger) Option {
	return func(m *Module) { m.log = l.With().Str("component", "walletrequest").Logger() }
}

// WithChallengeGenerator installs the generator used for proof requests.
func WithChallengeGenerator(fn ChallengeGenerator) Option {
	return func(m *Module) { m.challenge = fn }
}

// WithCache lets SendRequest answer from stored state when possible.
func WithCache(enabled bool) Option {
	return func(m *Module) { m.useCache = enabled }
}

// WithDataRequest sets the default request used by SendRequest.
func WithDataRequest(s *datarequest.State) Option {
	return func(m *Module) { m.dataRequest = s }
}

// New returns an orchestrator. The resolver must be started by the caller.
func New(deps Deps, opts ...Option) *Module {
	m := &Module{
		sdk:         deps.SDK,
		ledger:      deps.Ledger,
		state:       deps.State,
		resolver:    deps.Resolver,
		sessions:    deps.Sessions,
		dataRequest: datarequest.NewState(),
		log:         zerolog.Nop(),
		controls:    make(map[domain.InteractionID]domain.RequestControl),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// DataRequest is the default request SendRequest uses when none is given.
func (m *Module) DataRequest() *datarequest.State { return m.dataRequest }

// dispatch describes one interaction to send and the ledger status the
// caller waits for.
type dispatch struct {
	typ     domain.RequestType
	items   domain.InteractionItems
	oneTime bool
	signal  requestitems.Signal
	until   func(domain.RequestItem) bool
}

func settled(it domain.RequestItem) bool { return it.Status.IsTerminal() }

// send records the interaction, delivers it on a background goroutine and
// blocks until d.until holds for its ledger item. The delivery is bound to
// the item, not to ctx: it stops once the item leaves pending. If ctx ends
// first the item is marked cancelled.
func (m *Module) send(ctx context.Context, d dispatch) (domain.RequestItem, error) {
	w := m.sdk.CreateWalletInteraction(d.items)
	id := w.InteractionID
	log := m.log.With().Str("interaction_id", id.String()).Str("type", string(d.typ)).Logger()

	if _, err := m.ledger.Add(ctx, requestitems.AddInput{
		Type:              d.typ,
		WalletInteraction: w,
		IsOneTimeRequest:  d.oneTime,
	}, d.signal); err != nil {
		return domain.RequestItem{}, domaintypes.WrapSdkError(domaintypes.ErrorFailedToSendMessage, id, err)
	}
	log.Debug().Msg("dispatched")

	bg := context.WithoutCancel(ctx)
	reqCtx, cancel := context.WithCancel(bg)
	defer cancel()

	go func() {
		defer cancel()
		_, _ = m.ledger.WaitFor(reqCtx, id, func(it domain.RequestItem) bool {
			return it.Status != domaintypes.StatusPending
		})
	}()

	go func() {
		defer m.forgetControl(id)
		resp, err := m.sdk.Request(reqCtx, w, domain.CallbackFns{
			EventCallback:  m.onEvent(bg, id),
			RequestControl: func(c domain.RequestControl) { m.rememberControl(id, c) },
		})
		if reqCtx.Err() != nil {
			return
		}
		if err == nil {
			err = m.resolver.AddWalletResponses(bg, resp)
		}
		if err != nil {
			log.Info().Err(err).Msg("delivery failed")
			m.failItem(bg, id, err)
		}
	}()

	item, err := m.ledger.WaitFor(ctx, id, d.until)
	if err != nil {
		if _, uerr := m.ledger.UpdateStatus(bg, requestitems.StatusUpdate{
			ID:           id,
			Status:       domaintypes.StatusCancelled,
			ErrorMessage: "caller stopped waiting",
		}); uerr != nil {
			log.Warn().Err(uerr).Msg("marking cancelled")
		}
		return domain.RequestItem{}, domaintypes.WrapSdkError(domaintypes.ErrorCanceledByUser, id, err)
	}
	return item, nil
}

func (m *Module) failItem(ctx context.Context, id domain.InteractionID, err error) {
	u := requestitems.StatusUpdate{
		ID:     id,
		Status: domaintypes.StatusFail,
		Error:  domaintypes.ErrorFailedToSendMessage,
	}
	var sdkErr *domaintypes.SdkError
	if errors.As(err, &sdkErr) {
		u.Error, u.ErrorMessage = sdkErr.Type, sdkErr.Message
	} else {
		u.ErrorMessage = err.Error()
	}
	if _, err := m.ledger.UpdateStatus(ctx, u); err != nil {
		m.log.Error().Err(err).Str("interaction_id", id.String()).Msg("recording failure")
	}
}

func (m *Module) onEvent(ctx context.Context, id domain.InteractionID) func(domain.LifecycleEvent) {
	return func(ev domain.LifecycleEvent) {
		m.log.Debug().Str("interaction_id", id.String()).Str("event", string(ev)).Msg("transport event")
		if ev != domaintypes.EventReceivedByWallet {
			return
		}
		if _, err := m.ledger.Patch(ctx, id, func(it *domain.RequestItem) { it.ShowCancel = false }); err != nil {
			m.log.Warn().Err(err).Str("interaction_id", id.String()).Msg("hiding cancel")
		}
	}
}

func (m *Module) rememberControl(id domain.InteractionID, c domain.RequestControl) {
	m.mu.Lock()
	m.controls[id] = c
	m.mu.Unlock()
}

func (m *Module) forgetControl(id domain.InteractionID) {
	m.mu.Lock()
	delete(m.controls, id)
	m.mu.Unlock()
}

func (m *Module) control(id domain.InteractionID) domain.RequestControl {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.controls[id]
}

// CancelRequest asks the active transport to abandon id and marks the item
// failed with canceledByUser. The wallet may still complete the action.
func (m *Module) CancelRequest(ctx context.Context, id domain.InteractionID) error {
	if c := m.control(id); c != nil {
		ok, err := c.Cancel(ctx)
		m.log.Debug().Str("interaction_id", id.String()).Bool("acknowledged", ok).Err(err).Msg("cancel sent")
	}
	item, err := m.ledger.Cancel(ctx, id)
	if err != nil {
		return domaintypes.WrapSdkError(domaintypes.ErrorCanceledByUser, id, err)
	}
	m.log.Info().Str("interaction_id", id.String()).Str("status", string(item.Status)).Msg("request cancelled")
	return nil
}

// IgnoreTransaction stops tracking id. The item becomes ignored and no later
// update changes it; any finality poll is stopped.
func (m *Module) IgnoreTransaction(ctx context.Context, id domain.InteractionID) error {
	if _, err := m.ledger.UpdateStatus(ctx, requestitems.StatusUpdate{
		ID:     id,
		Status: domaintypes.StatusIgnored,
	}); err != nil {
		return domaintypes.WrapSdkError(domaintypes.ErrorCanceledByUser, id, err)
	}
	m.resolver.StopPoll(id)
	return nil
}

// Disconnect cancels outstanding requests, clears every partition and
// disconnects every transport.
func (m *Module) Disconnect(ctx context.Context) error {
	pending, err := m.ledger.GetPending(ctx)
	if err != nil {
		return err
	}
	for _, it := range pending {
		if !it.ShowCancel {
			continue
		}
		if err := m.CancelRequest(ctx, it.InteractionID); err != nil {
			m.log.Warn().Err(err).Str("interaction_id", it.InteractionID.String()).Msg("cancel on disconnect")
		}
	}

	errs := []error{
		m.resolver.Clear(ctx),
		m.ledger.Clear(ctx),
		m.state.Reset(ctx),
	}
	if m.sessions != nil {
		errs = append(errs, m.sessions.Clear(ctx))
	}
	for _, t := range m.sdk.Transports() {
		errs = append(errs, t.Disconnect(ctx))
	}
	m.log.Info().Msg("disconnected")
	return errors.Join(errs...)
}
