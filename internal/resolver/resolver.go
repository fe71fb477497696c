package resolver

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"dappkit/internal/domain"
	domaintypes "dappkit/internal/domain/types"
	"dappkit/internal/gateway"
	"dappkit/internal/pubsub"
	"dappkit/internal/services/requestitems"
	"dappkit/internal/services/state"
	"dappkit/internal/store"
)

// DefaultTickInterval is the delay between resolver passes.
const DefaultTickInterval = time.Second

// DataRequestControl may veto a data response before it is applied.
type DataRequestControl func(ctx context.Context, data domain.WalletData) error

// buffered is a stored wallet response.
type buffered struct {
	Response domain.WalletInteractionResponse `json:"response"`
	Resolved bool                             `json:"resolved"`
}

// Deps are the collaborators a Resolver drives.
type Deps struct {
	Ledger *requestitems.Ledger
	State  *state.Service
	// Responses is the walletResponses partition.
	Responses *store.Storage
	Poller    *gateway.Poller
}

// Resolver is the request resolver loop.
type Resolver struct {
	ledger    *requestitems.Ledger
	state     *state.Service
	responses store.Items[buffered]
	poller    *gateway.Poller

	interval time.Duration
	control  DataRequestControl
	now      func() time.Time
	log      zerolog.Logger
	pipeline map[Kind]resolveFunc

	ctx     context.Context
	cancel  context.CancelFunc
	wake    chan struct{}
	added   *pubsub.Subject[domain.WalletInteractionResponse]
	start   sync.Once
	destroy sync.Once
	wg      sync.WaitGroup

	tickMu sync.Mutex
	bufMu  sync.Mutex

	pollMu sync.Mutex
	polls  map[domain.InteractionID]context.CancelFunc
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the resolver logger.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Resolver) { r.log = l.With().Str("component", "resolver").Logger() }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) { r.now = now }
}

// WithTickInterval overrides DefaultTickInterval.
func WithTickInterval(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.interval = d
		}
	}
}

// WithDataRequestControl installs a gatekeeper for data responses.
func WithDataRequestControl(fn DataRequestControl) Option {
	return func(r *Resolver) { r.control = fn }
}

// New returns a Resolver. Call Start to run the loop.
func New(deps Deps, opts ...Option) *Resolver {
	ctx, cancel := context.WithCancel(context.Background())
	r := &Resolver{
		ledger:    deps.Ledger,
		state:     deps.State,
		responses: store.NewItems[buffered](deps.Responses),
		poller:    deps.Poller,
		interval:  DefaultTickInterval,
		now:       time.Now,
		log:       zerolog.Nop(),
		ctx:       ctx,
		cancel:    cancel,
		wake:      make(chan struct{}, 1),
		added:     pubsub.NewBroadcaster[domain.WalletInteractionResponse](16),
		polls:     make(map[domain.InteractionID]context.CancelFunc),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.pipeline = map[Kind]resolveFunc{
		KindData:             r.resolveData,
		KindFailure:          r.resolveFailure,
		KindTransaction:      r.resolveTransaction,
		KindPreAuthorization: r.resolvePreAuthorization,
	}
	return r
}

var _ domain.WalletResponseSink = (*Resolver)(nil)

// Start runs the loop until Destroy.
func (r *Resolver) Start() {
	r.start.Do(func() {
		r.wg.Add(1)
		go r.loop()
	})
}

func (r *Resolver) loop() {
	defer r.wg.Done()
	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-r.ctx.Done():
			return
		case <-timer.C:
		case <-r.wake:
			timer.Stop()
		}
		if err := r.Tick(r.ctx); err != nil && r.ctx.Err() == nil {
			r.log.Warn().Err(err).Msg("tick failed")
		}
		timer.Reset(r.interval)
	}
}

// Destroy stops the loop and every poll.
func (r *Resolver) Destroy() {
	r.destroy.Do(func() {
		r.cancel()
		r.wg.Wait()
		r.added.Close()
	})
}

func (r *Resolver) kick() {
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// AddWalletResponses validates and buffers responses. Each response stands
// alone: invalid ones are logged and skipped while the rest are buffered,
// and their validation errors are returned joined. A response already
// resolved keeps that mark.
func (r *Resolver) AddWalletResponses(ctx context.Context, responses ...domain.WalletInteractionResponse) error {
	valid := make([]domain.WalletInteractionResponse, 0, len(responses))
	var invalid []error
	for _, resp := range responses {
		if err := resp.Validate(); err != nil {
			r.log.Warn().Err(err).Str("interaction_id", resp.InteractionID.String()).Msg("dropping invalid wallet response")
			invalid = append(invalid, domaintypes.WrapSdkError(domaintypes.ErrorWalletResponseValidation, resp.InteractionID, err))
			continue
		}
		valid = append(valid, resp)
	}
	if len(valid) == 0 {
		return errors.Join(invalid...)
	}

	r.bufMu.Lock()
	for _, resp := range valid {
		id := string(resp.InteractionID)
		prev, ok, err := r.responses.Get(ctx, id)
		if err != nil {
			r.bufMu.Unlock()
			return err
		}
		if err := r.responses.Put(ctx, id, buffered{Response: resp, Resolved: ok && prev.Resolved}); err != nil {
			r.bufMu.Unlock()
			return err
		}
	}
	r.bufMu.Unlock()

	for _, resp := range valid {
		r.added.Publish(resp)
	}
	r.kick()
	return errors.Join(invalid...)
}

// WaitForWalletResponse blocks until a response for id has been buffered.
func (r *Resolver) WaitForWalletResponse(
	ctx context.Context,
	id domain.InteractionID,
) (domain.WalletInteractionResponse, error) {
	sub, cancel := r.added.Subscribe()
	defer cancel()

	if b, ok, err := r.responses.Get(ctx, string(id)); err != nil {
		return domain.WalletInteractionResponse{}, err
	} else if ok {
		return b.Response, nil
	}
	for {
		select {
		case <-ctx.Done():
			return domain.WalletInteractionResponse{}, ctx.Err()
		case resp, open := <-sub:
			if !open {
				return domain.WalletInteractionResponse{}, errors.New("resolver destroyed")
			}
			if resp.InteractionID == id {
				return resp, nil
			}
			// a burst can evict ours from the subscription; the buffer has it
			if b, ok, err := r.responses.Get(ctx, string(id)); err != nil {
				return domain.WalletInteractionResponse{}, err
			} else if ok {
				return b.Response, nil
			}
		}
	}
}

// Tick runs one resolver pass.
func (r *Resolver) Tick(ctx context.Context) error {
	r.tickMu.Lock()
	defer r.tickMu.Unlock()

	pending, err := r.ledger.GetPending(ctx)
	if err != nil {
		return err
	}
	var all map[string]buffered
	if len(pending) > 0 {
		if all, err = r.responses.All(ctx); err != nil {
			return err
		}
	}
	for _, item := range pending {
		b, ok := all[string(item.InteractionID)]
		if !ok {
			continue
		}
		if b.Resolved {
			// a transaction whose poll died with a previous process
			if item.Type == domaintypes.RequestSendTransaction && item.TransactionIntentHash != "" {
				r.startTransactionPoll(item.InteractionID, item.TransactionIntentHash, b.Response)
			}
			continue
		}
		if err := r.dispatch(ctx, item, b.Response); err != nil {
			r.log.Warn().Err(err).Str("interaction_id", item.InteractionID.String()).Msg("resolve failed; will retry")
			continue
		}
		if err := r.markResolved(ctx, item.InteractionID); err != nil {
			return err
		}
	}
	return r.sweep(ctx)
}

// dispatch hands resp to the one resolver that claims it.
func (r *Resolver) dispatch(ctx context.Context, item domain.RequestItem, resp domain.WalletInteractionResponse) error {
	kind := Classify(resp)
	fn, ok := r.pipeline[kind]
	if !ok {
		_, err := r.ledger.UpdateStatus(ctx, requestitems.StatusUpdate{
			ID:           item.InteractionID,
			Status:       domaintypes.StatusFail,
			Error:        domaintypes.ErrorWalletResponseValidation,
			ErrorMessage: "unrecognised response shape",
		})
		return err
	}
	r.log.Debug().Str("interaction_id", item.InteractionID.String()).Stringer("resolver", kind).Msg("resolving")
	return fn(ctx, input{item: item, response: resp})
}

func (r *Resolver) markResolved(ctx context.Context, id domain.InteractionID) error {
	r.bufMu.Lock()
	defer r.bufMu.Unlock()
	_, _, err := r.responses.Update(ctx, string(id), func(b *buffered) (bool, error) {
		if b.Resolved {
			return false, nil
		}
		b.Resolved = true
		return true, nil
	})
	if errors.Is(err, store.ErrNotFound) {
		// cleared concurrently
		return nil
	}
	return err
}

// StopPoll aborts the finality poll for id, if any.
func (r *Resolver) StopPoll(id domain.InteractionID) {
	r.pollMu.Lock()
	cancel, ok := r.polls[id]
	delete(r.polls, id)
	r.pollMu.Unlock()
	if ok {
		cancel()
	}
}

// Clear stops every poll and drops the buffered responses.
func (r *Resolver) Clear(ctx context.Context) error {
	r.pollMu.Lock()
	polls := r.polls
	r.polls = make(map[domain.InteractionID]context.CancelFunc)
	r.pollMu.Unlock()
	for _, cancel := range polls {
		cancel()
	}

	r.bufMu.Lock()
	defer r.bufMu.Unlock()
	return r.responses.Clear(ctx)
}

// trackPoll registers a poll for id and returns its context. ok is false
// when one is already running.
func (r *Resolver) trackPoll(id domain.InteractionID) (context.Context, bool) {
	r.pollMu.Lock()
	defer r.pollMu.Unlock()
	if _, running := r.polls[id]; running {
		return nil, false
	}
	ctx, cancel := context.WithCancel(r.ctx)
	r.polls[id] = cancel
	return ctx, true
}
