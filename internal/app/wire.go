package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"dappkit/internal/domain"
	"dappkit/internal/gateway"
	"dappkit/internal/relay"
	"dappkit/internal/resolver"
	"dappkit/internal/sdk"
	"dappkit/internal/services/identity"
	"dappkit/internal/services/requestitems"
	"dappkit/internal/services/session"
	"dappkit/internal/services/state"
	"dappkit/internal/store"
	"dappkit/internal/transport"
	"dappkit/internal/transport/extension"
	"dappkit/internal/transport/mobile"
	"dappkit/internal/walletrequest"
)

// Wire bundles all stores, services, transports and clients for the CLI.
type Wire struct {
	Config  Config
	Backend domain.KeyValueBackend
	Storage *store.Storage

	Identity *identity.Service
	Sessions *session.Service
	Ledger   *requestitems.Ledger
	State    *state.Service

	Gateway  *gateway.Client
	Poller   *gateway.Poller
	Relay    *relay.Client
	Resolver *resolver.Resolver

	Env        *transport.Env
	Extension  *extension.Transport // nil without a bridge
	Mobile     *mobile.Transport
	SDK        *sdk.SDK
	Requests   *walletrequest.Module
	Transports []domain.Transport

	log     zerolog.Logger
	closers []io.Closer
}

// WireOption overrides a collaborator, mostly for tests.
type WireOption func(*wireOptions)

type wireOptions struct {
	backend   domain.KeyValueBackend
	http      *resty.Client
	bridge    extension.Bridge
	opener    func(ctx context.Context, url string) error
	challenge walletrequest.ChallengeGenerator
	logger    zerolog.Logger
}

// WithBackend replaces the file backend.
func WithBackend(b domain.KeyValueBackend) WireOption {
	return func(o *wireOptions) { o.backend = b }
}

// WithHTTPClient replaces the resty client.
func WithHTTPClient(c *resty.Client) WireOption {
	return func(o *wireOptions) { o.http = c }
}

// WithBridge connects the extension transport to b instead of dialing
// cfg.ExtensionURL.
func WithBridge(b extension.Bridge) WireOption {
	return func(o *wireOptions) { o.bridge = b }
}

// WithOpener handles deep links on mobile.
func WithOpener(fn func(ctx context.Context, url string) error) WireOption {
	return func(o *wireOptions) { o.opener = fn }
}

// WithChallengeGenerator is passed to the orchestrator.
func WithChallengeGenerator(fn walletrequest.ChallengeGenerator) WireOption {
	return func(o *wireOptions) { o.challenge = fn }
}

// WithLogger sets the logger every component derives from.
func WithLogger(l zerolog.Logger) WireOption {
	return func(o *wireOptions) { o.logger = l }
}

// NewWire constructs the dependency graph from cfg. Nothing runs until
// Start.
func NewWire(ctx context.Context, cfg Config, opts ...WireOption) (*Wire, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := wireOptions{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	log := o.logger
	w := &Wire{Config: cfg, log: log}

	// Storage
	backend := o.backend
	if backend == nil {
		fb, err := OpenBackend(cfg)
		if err != nil {
			return nil, fmt.Errorf("open profile: %w", err)
		}
		if c, ok := fb.(io.Closer); ok {
			w.closers = append(w.closers, c)
		}
		backend = fb
	}
	w.Backend = backend
	w.Storage = store.New(backend, cfg.StoragePrefix(), store.WithLogger(log))

	w.Identity = identity.New(w.Storage.Partition(store.PartitionIdentities), cfg.DAppDefinitionAddress, identity.WithLogger(log))
	w.Sessions = session.New(w.Storage.Partition(store.PartitionSessions), session.WithLogger(log))
	w.Ledger = requestitems.New(w.Storage.Partition(store.PartitionRequests), requestitems.WithLogger(log))
	w.State = state.New(w.Storage.Partition(store.PartitionState), state.WithLogger(log))

	// Outbound clients
	httpClient := o.http
	if httpClient == nil {
		httpClient = NewHTTPClient()
	}
	gatewayURL := cfg.GatewayURL
	if gatewayURL == "" {
		gatewayURL, _ = gateway.DefaultURL(cfg.NetworkID)
	}
	w.Gateway = gateway.NewClient(httpClient, gatewayURL, gateway.AppInfo{
		Name:                  cfg.AppName,
		Version:               cfg.AppVersion,
		DAppDefinitionAddress: cfg.DAppDefinitionAddress,
		Origin:                cfg.Origin,
	}, log)
	w.Poller = gateway.NewPoller(w.Gateway, gateway.WithBackoff(cfg.Backoff), gateway.WithPollerLogger(log))
	w.Relay = relay.NewClient(httpClient, cfg.RelayURL, log)

	w.Resolver = resolver.New(resolver.Deps{
		Ledger:    w.Ledger,
		State:     w.State,
		Responses: w.Storage.Partition(store.PartitionWalletResponses),
		Poller:    w.Poller,
	}, resolver.WithLogger(log), resolver.WithTickInterval(cfg.TickInterval))

	// Transports, in priority order
	w.Env = &transport.Env{Mobile: cfg.Mobile, OriginURL: cfg.Origin, Opener: o.opener}

	bridge := o.bridge
	if bridge == nil && cfg.ExtensionURL != "" && !cfg.Mobile {
		ws, err := extension.DialWebSocket(ctx, cfg.ExtensionURL, log)
		if err != nil {
			w.Close()
			return nil, fmt.Errorf("connect extension: %w", err)
		}
		bridge = ws
	}
	if bridge != nil {
		w.Extension = extension.New(bridge, w.Env,
			extension.WithConfig(cfg.Extension),
			extension.WithSessions(w.Sessions),
			extension.WithLogger(log))
		w.Transports = append(w.Transports, w.Extension)
	}

	w.Mobile = mobile.New(mobile.Deps{
		Env:      w.Env,
		Identity: w.Identity,
		Sessions: w.Sessions,
		Relay:    w.Relay,
		Sink:     w.Resolver,
	}, mobile.Config{
		DAppDefinitionAddress: cfg.DAppDefinitionAddress,
		DeepLinkBase:          cfg.DeepLinkBase,
		PollInterval:          cfg.PollInterval,
	}, mobile.WithLogger(log))
	w.Transports = append(w.Transports, w.Mobile)

	w.SDK = sdk.New(sdk.Config{
		NetworkID:             cfg.NetworkID,
		DAppDefinitionAddress: cfg.DAppDefinitionAddress,
		Origin:                cfg.Origin,
	}, w.Transports, sdk.WithLogger(log))

	reqOpts := []walletrequest.Option{walletrequest.WithLogger(log), walletrequest.WithCache(cfg.UseCache)}
	if o.challenge != nil {
		reqOpts = append(reqOpts, walletrequest.WithChallengeGenerator(o.challenge))
	}
	w.Requests = walletrequest.New(walletrequest.Deps{
		SDK:      w.SDK,
		Ledger:   w.Ledger,
		State:    w.State,
		Resolver: w.Resolver,
		Sessions: w.Sessions,
	}, reqOpts...)

	return w, nil
}

// Start loads persisted state and starts the resolver loop and, on mobile,
// the relay poll.
func (w *Wire) Start(ctx context.Context) error {
	if err := w.Ledger.Init(ctx); err != nil {
		return err
	}
	if err := w.State.Init(ctx); err != nil {
		return err
	}
	w.Resolver.Start()
	if w.Env.IsMobile() {
		if err := w.Mobile.Start(ctx); err != nil {
			return err
		}
	}
	w.log.Debug().Int("transports", len(w.Transports)).Msg("started")
	return nil
}

// Close stops every loop and releases the profile.
func (w *Wire) Close() error {
	for _, t := range w.Transports {
		t.Destroy()
	}
	if w.Resolver != nil {
		w.Resolver.Destroy()
	}
	if w.Ledger != nil {
		w.Ledger.Close()
	}
	var errs []error
	for _, c := range w.closers {
		errs = append(errs, c.Close())
	}
	w.closers = nil
	return errors.Join(errs...)
}
