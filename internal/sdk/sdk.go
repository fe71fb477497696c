// Package sdk is the thin layer between the orchestrator and the
// transports. It stamps interactions with the dApp metadata, runs the
// interceptor, validates both directions against the wire schema and picks
// the transport.
package sdk

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"dappkit/internal/domain"
	domaintypes "dappkit/internal/domain/types"
)

// Config is the immutable metadata stamped on every interaction.
type Config struct {
	NetworkID             domain.NetworkID
	DAppDefinitionAddress string
	Origin                string
}

// Interceptor may rewrite an interaction after stamping. The metadata is
// re-stamped afterwards and cannot be changed.
type Interceptor func(domain.WalletInteraction) domain.WalletInteraction

// SDK sends interactions through the first supported transport.
type SDK struct {
	cfg         Config
	transports  []domain.Transport
	interceptor Interceptor
	log         zerolog.Logger
}

// Option configures an SDK.
type Option func(*SDK)

// WithInterceptor installs an interceptor.
func WithInterceptor(fn Interceptor) Option {
	return func(s *SDK) { s.interceptor = fn }
}

// WithLogger sets the SDK logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *SDK) { s.log = l.With().Str("component", "sdk").Logger() }
}

// New returns an SDK over transports, tried in order.
func New(cfg Config, transports []domain.Transport, opts ...Option) *SDK {
	s := &SDK{
		cfg:         cfg,
		transports:  transports,
		interceptor: func(w domain.WalletInteraction) domain.WalletInteraction { return w },
		log:         zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Metadata returns the stamped metadata block.
func (s *SDK) Metadata() domain.Metadata {
	return domain.Metadata{
		Version:               domaintypes.InteractionVersion,
		NetworkID:             s.cfg.NetworkID,
		DAppDefinitionAddress: s.cfg.DAppDefinitionAddress,
		Origin:                s.cfg.Origin,
	}
}

// CreateWalletInteraction wraps items in a stamped interaction with a fresh
// id.
func (s *SDK) CreateWalletInteraction(items domain.InteractionItems) domain.WalletInteraction {
	return domain.WalletInteraction{
		InteractionID: domain.InteractionID(uuid.NewString()),
		Metadata:      s.Metadata(),
		Items:         items,
	}
}

// Transports returns the configured transports in priority order.
func (s *SDK) Transports() []domain.Transport { return s.transports }

// SelectTransport returns the first supported transport.
func (s *SDK) SelectTransport() (domain.Transport, error) {
	for _, t := range s.transports {
		if t.IsSupported() {
			return t, nil
		}
	}
	return nil, domaintypes.NewSdkError(domaintypes.ErrorSupportedTransportNotFound, "", "no supported transport")
}

// Request validates and sends interaction, then validates the response.
// Every failure is an *SdkError.
func (s *SDK) Request(
	ctx context.Context,
	interaction domain.WalletInteraction,
	callbacks domain.CallbackFns,
) (domain.WalletInteractionResponse, error) {
	interaction.Metadata = s.Metadata()
	interaction = s.interceptor(interaction)
	interaction.Metadata = s.Metadata()
	id := interaction.InteractionID

	if err := interaction.Validate(); err != nil {
		return domain.WalletInteractionResponse{}, domaintypes.WrapSdkError(domaintypes.ErrorWalletRequestValidation, id, err)
	}

	t, err := s.SelectTransport()
	if err != nil {
		var sdkErr *domaintypes.SdkError
		if errors.As(err, &sdkErr) {
			sdkErr.InteractionID = id
		}
		return domain.WalletInteractionResponse{}, err
	}
	s.log.Debug().
		Str("interaction_id", id.String()).
		Str("transport", string(t.ID())).
		Str("items", string(interaction.Items.Discriminator)).
		Msg("sending")

	resp, err := t.Send(ctx, interaction, callbacks)
	if err != nil {
		var sdkErr *domaintypes.SdkError
		if errors.As(err, &sdkErr) {
			return resp, sdkErr
		}
		return resp, domaintypes.WrapSdkError(domaintypes.ErrorFailedToSendMessage, id, err)
	}

	if err := ValidateResponse(id, resp); err != nil {
		return resp, err
	}
	return resp, nil
}

// ValidateResponse checks resp against the wire schema and the expected
// interaction id.
func ValidateResponse(id domain.InteractionID, resp domain.WalletInteractionResponse) error {
	if err := resp.Validate(); err != nil {
		return domaintypes.WrapSdkError(domaintypes.ErrorWalletResponseValidation, id, err)
	}
	if id != "" && resp.InteractionID != id {
		return domaintypes.NewSdkError(domaintypes.ErrorWalletResponseValidation, id,
			fmt.Sprintf("response for %s", resp.InteractionID))
	}
	return nil
}
