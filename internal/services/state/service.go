// Package state persists the application-facing wallet state: the wallet
// data last shared, what was granted on an ongoing basis and when the
// persona logged in. The record is replaced wholesale on every successful
// authorized response and reset on disconnect.
package state

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"dappkit/internal/domain"
	"dappkit/internal/pubsub"
	"dappkit/internal/store"
)

// Service owns the state partition.
type Service struct {
	st  store.State[domain.RdtState]
	log zerolog.Logger

	mu         sync.Mutex
	walletData *pubsub.Subject[domain.WalletData]
	connected  *pubsub.Subject[bool]
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.log = l.With().Str("component", "state").Logger() }
}

// New returns a state service over the state partition.
func New(partition *store.Storage, opts ...Option) *Service {
	s := &Service{
		st:         store.NewState[domain.RdtState](partition),
		log:        zerolog.Nop(),
		walletData: pubsub.NewSubject(domain.WalletData{}),
		connected:  pubsub.NewSubject(false),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Init loads the persisted state and publishes it to subscribers.
func (s *Service) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, _, err := s.st.Get(ctx)
	if err != nil {
		return err
	}
	s.publishLocked(cur)
	return nil
}

// Get returns the current state; a missing record is the zero state.
func (s *Service) Get(ctx context.Context) (domain.RdtState, error) {
	cur, _, err := s.st.Get(ctx)
	return cur, err
}

// Set replaces the state.
func (s *Service) Set(ctx context.Context, next domain.RdtState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.st.Set(ctx, next); err != nil {
		return err
	}
	s.publishLocked(next)
	return nil
}

// Update applies fn to the current state and stores the result.
func (s *Service) Update(ctx context.Context, fn func(*domain.RdtState)) (domain.RdtState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, _, err := s.st.Get(ctx)
	if err != nil {
		return domain.RdtState{}, err
	}
	fn(&cur)
	if err := s.st.Set(ctx, cur); err != nil {
		return domain.RdtState{}, err
	}
	s.publishLocked(cur)
	return cur, nil
}

// Reset clears the persisted state.
func (s *Service) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.st.Clear(ctx); err != nil {
		return err
	}
	s.publishLocked(domain.RdtState{})
	s.log.Debug().Msg("state reset")
	return nil
}

// WalletData streams wallet data, replaying the latest value.
func (s *Service) WalletData() *pubsub.Subject[domain.WalletData] { return s.walletData }

// Connected streams whether a persona is logged in, replaying the latest value.
func (s *Service) Connected() *pubsub.Subject[bool] { return s.connected }

func (s *Service) publishLocked(st domain.RdtState) {
	s.walletData.Publish(st.WalletData)
	s.connected.Publish(st.IsConnected())
}
