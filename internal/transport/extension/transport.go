package extension

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"dappkit/internal/domain"
	domaintypes "dappkit/internal/domain/types"
	"dappkit/internal/pubsub"
)

// Default timeouts.
const (
	DefaultMissingExtensionTimeout = 400 * time.Millisecond
	DefaultStatusTimeout           = 200 * time.Millisecond
	DefaultCancelTimeout           = 2 * time.Second
)

// Config tunes a Transport.
type Config struct {
	MissingExtensionTimeout time.Duration
	StatusTimeout           time.Duration
	CancelTimeout           time.Duration
}

func (c Config) withDefaults() Config {
	if c.MissingExtensionTimeout <= 0 {
		c.MissingExtensionTimeout = DefaultMissingExtensionTimeout
	}
	if c.StatusTimeout <= 0 {
		c.StatusTimeout = DefaultStatusTimeout
	}
	if c.CancelTimeout <= 0 {
		c.CancelTimeout = DefaultCancelTimeout
	}
	return c
}

// Transport delivers interactions through the connector extension.
type Transport struct {
	bridge   Bridge
	env      domain.Environment
	sessions domain.SessionService
	cfg      Config
	log      zerolog.Logger

	available         *pubsub.Subject[bool]
	linked            *pubsub.Subject[bool]
	canHandleSessions atomic.Bool
	inboxes           *inboxes

	done    chan struct{}
	once    sync.Once
	readers sync.WaitGroup
}

// Option configures a Transport.
type Option func(*Transport)

// WithLogger sets the transport logger.
func WithLogger(l zerolog.Logger) Option {
	return func(t *Transport) { t.log = l.With().Str("component", "extension").Logger() }
}

// WithConfig overrides the timeouts.
func WithConfig(cfg Config) Option {
	return func(t *Transport) { t.cfg = cfg.withDefaults() }
}

// WithSessions enables the session envelope once the extension reports it
// can handle sessions.
func WithSessions(s domain.SessionService) Option {
	return func(t *Transport) { t.sessions = s }
}

// New returns a Transport reading from bridge.
func New(bridge Bridge, env domain.Environment, opts ...Option) *Transport {
	t := &Transport{
		bridge:    bridge,
		env:       env,
		cfg:       Config{}.withDefaults(),
		log:       zerolog.Nop(),
		available: pubsub.NewSubject(false),
		linked:    pubsub.NewSubject(false),
		inboxes:   newInboxes(),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.readers.Add(1)
	go t.readLoop()
	return t
}

var (
	_ domain.Transport = (*Transport)(nil)
)

// ID implements domain.Transport.
func (t *Transport) ID() domain.TransportID { return domaintypes.TransportExtension }

// IsSupported is true off mobile.
func (t *Transport) IsSupported() bool { return !t.env.IsMobile() }

// IsAvailable reports whether the extension answered a status check.
func (t *Transport) IsAvailable() *pubsub.Subject[bool] { return t.available }

// IsLinked reports whether the extension has a wallet linked.
func (t *Transport) IsLinked() *pubsub.Subject[bool] { return t.linked }

func (t *Transport) readLoop() {
	defer t.readers.Done()
	for {
		select {
		case <-t.done:
			return
		case raw, ok := <-t.bridge.Incoming():
			if !ok {
				t.available.Publish(false)
				t.inboxes.closeAll()
				return
			}
			msg, err := DecodeIncoming(raw)
			if err != nil {
				t.log.Warn().Err(err).Msg("dropping extension message")
				continue
			}
			if msg.Event == domaintypes.EventExtensionStatus {
				t.applyStatus(msg.Status)
			}
			if !t.inboxes.route(msg) {
				t.log.Debug().Str("interaction_id", msg.InteractionID.String()).Msg("no listener for extension message")
			}
		}
	}
}

func (t *Transport) applyStatus(s domain.ExtensionStatus) {
	t.available.Publish(s.IsExtensionAvailable)
	t.linked.Publish(s.IsWalletLinked)
	t.canHandleSessions.Store(s.CanHandleSessions)
}

// CheckStatus asks the extension for its status. No answer within the
// status timeout means the extension is missing.
func (t *Transport) CheckStatus(ctx context.Context) (domain.ExtensionStatus, error) {
	id := domain.InteractionID(uuid.NewString())
	in, cancel := t.inboxes.listen(id)
	defer cancel()

	if err := t.bridge.Send(ctx, Outgoing{Discriminator: MsgExtensionStatus, InteractionID: id}); err != nil {
		return domain.ExtensionStatus{}, err
	}

	timer := time.NewTimer(t.cfg.StatusTimeout)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return domain.ExtensionStatus{}, ctx.Err()
		case <-timer.C:
			t.available.Publish(false)
			return domain.ExtensionStatus{}, nil
		case <-in.Ready():
			msgs, closed := in.drain()
			for _, msg := range msgs {
				if msg.Event == domaintypes.EventExtensionStatus {
					return msg.Status, nil
				}
			}
			if closed {
				return domain.ExtensionStatus{}, ErrBridgeClosed
			}
		}
	}
}

// Send dispatches the interaction and waits for the wallet response.
func (t *Transport) Send(
	ctx context.Context,
	interaction domain.WalletInteraction,
	callbacks domain.CallbackFns,
) (domain.WalletInteractionResponse, error) {
	id := interaction.InteractionID
	in, unsubscribe := t.inboxes.listen(id)
	defer unsubscribe()

	msg := Outgoing{Discriminator: MsgWalletInteraction, Interaction: &interaction}
	if t.sessions != nil && t.canHandleSessions.Load() {
		session, err := t.sessions.GetCurrentSession(ctx)
		if err != nil {
			return domain.WalletInteractionResponse{}, domaintypes.WrapSdkError(domaintypes.ErrorFailedToReadSession, id, err)
		}
		msg.SessionID = session.SessionID
	}
	if err := t.bridge.Send(ctx, msg); err != nil {
		return domain.WalletInteractionResponse{}, domaintypes.WrapSdkError(domaintypes.ErrorFailedToSendMessage, id, err)
	}
	if callbacks.RequestControl != nil {
		callbacks.RequestControl(&control{t: t, interaction: interaction})
	}

	missing := time.NewTimer(t.cfg.MissingExtensionTimeout)
	defer missing.Stop()
	heard := false

	for {
		select {
		case <-ctx.Done():
			return domain.WalletInteractionResponse{}, domaintypes.WrapSdkError(domaintypes.ErrorCanceledByUser, id, ctx.Err())
		case <-missing.C:
			if !heard {
				t.available.Publish(false)
				return domain.WalletInteractionResponse{}, domaintypes.NewSdkError(domaintypes.ErrorMissingExtension, id, "")
			}
		case <-in.Ready():
			msgs, closed := in.drain()
			for _, m := range msgs {
				if !heard {
					heard = true
					missing.Stop()
				}
				if m.Response != nil {
					return *m.Response, nil
				}
				if callbacks.EventCallback != nil {
					callbacks.EventCallback(m.Event)
				}
				if m.Event == domaintypes.EventRequestCancelSuccess {
					return domain.WalletInteractionResponse{}, domaintypes.NewSdkError(domaintypes.ErrorCanceledByUser, id, "")
				}
			}
			if closed {
				return domain.WalletInteractionResponse{}, domaintypes.WrapSdkError(domaintypes.ErrorFailedToSendMessage, id, ErrBridgeClosed)
			}
		}
	}
}

// cancel asks the extension to abandon id and waits for the verdict.
func (t *Transport) cancel(ctx context.Context, interaction domain.WalletInteraction) (bool, error) {
	id := interaction.InteractionID
	in, unsubscribe := t.inboxes.listen(id)
	defer unsubscribe()

	md := interaction.Metadata
	if err := t.bridge.Send(ctx, Outgoing{
		Discriminator: MsgCancelWalletInteraction,
		InteractionID: id,
		Metadata:      &md,
	}); err != nil {
		return false, err
	}

	ctx, stop := context.WithTimeout(ctx, t.cfg.CancelTimeout)
	defer stop()
	for {
		select {
		case <-ctx.Done():
			t.log.Debug().Str("interaction_id", id.String()).Msg("cancel not acknowledged")
			return false, nil
		case <-in.Ready():
			msgs, closed := in.drain()
			for _, m := range msgs {
				switch m.Event {
				case domaintypes.EventRequestCancelSuccess:
					return true, nil
				case domaintypes.EventRequestCancelFail:
					return false, nil
				}
			}
			if closed {
				return false, ErrBridgeClosed
			}
		}
	}
}

// Disconnect is a no-op: the extension owns the wallet link.
func (t *Transport) Disconnect(context.Context) error { return nil }

// Destroy stops the read loop and closes the bridge.
func (t *Transport) Destroy() {
	t.once.Do(func() {
		close(t.done)
		if err := t.bridge.Close(); err != nil {
			t.log.Debug().Err(err).Msg("bridge close")
		}
		t.readers.Wait()
		t.inboxes.closeAll()
		t.available.Close()
		t.linked.Close()
	})
}

type control struct {
	t           *Transport
	interaction domain.WalletInteraction
}

func (c *control) Interaction() domain.WalletInteraction { return c.interaction }

func (c *control) Cancel(ctx context.Context) (bool, error) { return c.t.cancel(ctx, c.interaction) }
