package session

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"dappkit/internal/domain"
	"dappkit/internal/store"
)

// Service hands out the current relay session.
type Service struct {
	items store.Items[domain.Session]
	now   func() time.Time
	log   zerolog.Logger
	mu    sync.Mutex
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.log = l.With().Str("component", "session").Logger() }
}

// WithClock overrides the creation timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New returns a session service over the sessions partition.
func New(partition *store.Storage, opts ...Option) *Service {
	s := &Service{
		items: store.NewItems[domain.Session](partition),
		now:   time.Now,
		log:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetCurrentSession returns the oldest stored session, creating one when none
// exists. Sessions do not expire here; the relay may expire them server-side.
func (s *Service) GetCurrentSession(ctx context.Context) (domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.items.All(ctx)
	if err != nil {
		return domain.Session{}, err
	}
	if len(all) > 0 {
		sessions := make([]domain.Session, 0, len(all))
		for _, sess := range all {
			sessions = append(sessions, sess)
		}
		sort.Slice(sessions, func(i, j int) bool {
			if sessions[i].CreatedAt != sessions[j].CreatedAt {
				return sessions[i].CreatedAt < sessions[j].CreatedAt
			}
			return sessions[i].SessionID < sessions[j].SessionID
		})
		return sessions[0], nil
	}

	sess := domain.Session{SessionID: uuid.NewString(), CreatedAt: s.now().UnixMilli()}
	if err := s.items.Put(ctx, sess.SessionID, sess); err != nil {
		return domain.Session{}, err
	}
	s.log.Debug().Str("session_id", sess.SessionID).Msg("created session")
	return sess, nil
}

// PatchSession records the wallet public key on a session.
func (s *Service) PatchSession(ctx context.Context, sessionID, walletPublicKey string) (domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, changed, err := s.items.Update(ctx, sessionID, func(sess *domain.Session) (bool, error) {
		if sess.WalletPublicKey == walletPublicKey {
			return false, nil
		}
		sess.WalletPublicKey = walletPublicKey
		return true, nil
	})
	if err != nil {
		return domain.Session{}, err
	}
	if changed {
		s.log.Info().Str("session_id", sessionID).Msg("session linked")
	}
	return sess, nil
}

// Clear drops every session.
func (s *Service) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items.Clear(ctx)
}

// Compile-time assertion that Service implements domain.SessionService.
var _ domain.SessionService = (*Service)(nil)
