package requestitems

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"dappkit/internal/domain"
	domaintypes "dappkit/internal/domain/types"
	"dappkit/internal/pubsub"
	"dappkit/internal/store"
)

// AddInput describes a newly dispatched interaction.
type AddInput struct {
	Type              domain.RequestType
	WalletInteraction domain.WalletInteraction
	IsOneTimeRequest  bool
}

// StatusUpdate is a status transition with optional resolution data.
type StatusUpdate struct {
	ID                    domain.InteractionID
	Status                domain.RequestStatus
	Error                 domain.ErrorType
	ErrorMessage          string
	TransactionIntentHash string
	Metadata              domain.RequestItemMetadata
	WalletResponse        *domain.WalletInteractionResponse
}

// Signal is invoked once with the parent transaction intent hash when an
// item reaches success.
type Signal func(parentTransactionIntentHash string)

// Ledger owns the requests partition.
type Ledger struct {
	items store.Items[domain.RequestItem]
	now   func() time.Time
	log   zerolog.Logger

	mu      sync.Mutex
	signals map[domain.InteractionID]Signal
	subject *pubsub.Subject[[]domain.RequestItem]
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithLogger sets the ledger logger.
func WithLogger(l zerolog.Logger) Option {
	return func(lg *Ledger) { lg.log = l.With().Str("component", "ledger").Logger() }
}

// WithClock overrides the createdAt source.
func WithClock(now func() time.Time) Option {
	return func(lg *Ledger) { lg.now = now }
}

// New returns a ledger over the requests partition.
func New(partition *store.Storage, opts ...Option) *Ledger {
	l := &Ledger{
		items:   store.NewItems[domain.RequestItem](partition),
		now:     time.Now,
		log:     zerolog.Nop(),
		signals: make(map[domain.InteractionID]Signal),
		subject: pubsub.NewSubject[[]domain.RequestItem](nil),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Init publishes the persisted items so new subscribers see them.
func (l *Ledger) Init(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.publishLocked(ctx)
}

// Subscribe streams the full item list after every mutation, replaying the
// latest list to new subscribers.
func (l *Ledger) Subscribe() (<-chan []domain.RequestItem, func()) { return l.subject.Subscribe() }

// Add records a pending item and registers onSignal when non-nil.
func (l *Ledger) Add(ctx context.Context, in AddInput, onSignal Signal) (domain.RequestItem, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	id := in.WalletInteraction.InteractionID
	if _, ok, err := l.items.Get(ctx, string(id)); err != nil {
		return domain.RequestItem{}, err
	} else if ok {
		return domain.RequestItem{}, fmt.Errorf("request item %s already exists", id)
	}

	wi := in.WalletInteraction
	item := domain.RequestItem{
		InteractionID:     id,
		Type:              in.Type,
		Status:            domaintypes.StatusPending,
		CreatedAt:         l.now().UnixMilli(),
		ShowCancel:        true,
		IsOneTimeRequest:  in.IsOneTimeRequest,
		WalletInteraction: &wi,
	}
	if err := l.items.Put(ctx, string(id), item); err != nil {
		return domain.RequestItem{}, err
	}
	if onSignal != nil {
		l.signals[id] = onSignal
	}
	l.log.Debug().Str("interaction_id", id.String()).Str("type", string(in.Type)).Msg("added")
	return item, l.publishLocked(ctx)
}

// Patch applies fn to the item. fn must not change Status; use UpdateStatus.
func (l *Ledger) Patch(ctx context.Context, id domain.InteractionID, fn func(*domain.RequestItem)) (domain.RequestItem, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	item, changed, err := l.items.Update(ctx, string(id), func(it *domain.RequestItem) (bool, error) {
		before := it.Status
		fn(it)
		it.Status = before
		return true, nil
	})
	if err != nil || !changed {
		return item, err
	}
	return item, l.publishLocked(ctx)
}

// Cancel marks a pending item failed with canceledByUser.
func (l *Ledger) Cancel(ctx context.Context, id domain.InteractionID) (domain.RequestItem, error) {
	return l.UpdateStatus(ctx, StatusUpdate{
		ID:     id,
		Status: domaintypes.StatusFail,
		Error:  domaintypes.ErrorCanceledByUser,
	})
}

// UpdateStatus applies a status transition. Transitions the state machine
// forbids are dropped without error; the returned item is the stored one.
func (l *Ledger) UpdateStatus(ctx context.Context, u StatusUpdate) (domain.RequestItem, error) {
	item, fire, err := l.updateStatus(ctx, u)
	if fire != nil {
		// outside the lock: the signal may call back into the ledger
		fire(item.Metadata.ParentTransactionIntentHash)
	}
	return item, err
}

func (l *Ledger) updateStatus(ctx context.Context, u StatusUpdate) (domain.RequestItem, Signal, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	item, changed, err := l.items.Update(ctx, string(u.ID), func(it *domain.RequestItem) (bool, error) {
		if !CanTransition(it.Status, u.Status) {
			l.log.Debug().
				Str("interaction_id", u.ID.String()).
				Str("from", string(it.Status)).
				Str("to", string(u.Status)).
				Msg("transition dropped")
			return false, nil
		}
		it.Status = u.Status
		if u.Error != "" {
			it.Error = u.Error
		}
		if u.ErrorMessage != "" {
			it.ErrorMessage = u.ErrorMessage
		}
		if u.TransactionIntentHash != "" {
			it.TransactionIntentHash = u.TransactionIntentHash
		}
		it.Metadata = it.Metadata.Merge(u.Metadata)
		if u.WalletResponse != nil {
			it.WalletResponse = u.WalletResponse
		}
		if !it.Status.AwaitsWallet() {
			it.WalletInteraction = nil
			it.ShowCancel = false
		}
		return true, nil
	})
	if err != nil || !changed {
		return item, nil, err
	}

	var fire Signal
	if item.Status == domaintypes.StatusSuccess {
		fire = l.signals[u.ID]
	}
	if item.Status.IsTerminal() {
		delete(l.signals, u.ID)
	}
	l.log.Debug().Str("interaction_id", u.ID.String()).Str("status", string(item.Status)).Msg("status updated")

	return item, fire, l.publishLocked(ctx)
}

// CanTransition reports whether the ledger state machine allows from -> to.
func CanTransition(from, to domain.RequestStatus) bool {
	switch from {
	case domaintypes.StatusPending:
		return to != domaintypes.StatusPending
	case domaintypes.StatusPendingCommit:
		switch to {
		case domaintypes.StatusSuccess, domaintypes.StatusTimedOut,
			domaintypes.StatusIgnored, domaintypes.StatusFail:
			return true
		}
	}
	return false
}

// Get returns the item id.
func (l *Ledger) Get(ctx context.Context, id domain.InteractionID) (domain.RequestItem, bool, error) {
	return l.items.Get(ctx, string(id))
}

// List returns every item, oldest first.
func (l *Ledger) List(ctx context.Context) ([]domain.RequestItem, error) {
	all, err := l.items.All(ctx)
	if err != nil {
		return nil, err
	}
	return sorted(all), nil
}

// GetPending returns items awaiting a wallet response.
func (l *Ledger) GetPending(ctx context.Context) ([]domain.RequestItem, error) {
	return l.filter(ctx, domaintypes.StatusPending)
}

// GetPendingCommit returns items awaiting network finality.
func (l *Ledger) GetPendingCommit(ctx context.Context) ([]domain.RequestItem, error) {
	return l.filter(ctx, domaintypes.StatusPendingCommit)
}

// Clear drops every item and pending signal.
func (l *Ledger) Clear(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.items.Clear(ctx); err != nil {
		return err
	}
	l.signals = make(map[domain.InteractionID]Signal)
	return l.publishLocked(ctx)
}

// WaitFor blocks until pred holds for the item id, returning that snapshot.
// pred sees the latest published version; intermediate versions may be
// skipped under load.
func (l *Ledger) WaitFor(
	ctx context.Context,
	id domain.InteractionID,
	pred func(domain.RequestItem) bool,
) (domain.RequestItem, error) {
	updates, cancel := l.Subscribe()
	defer cancel()

	// the replayed list may predate an update made before Subscribe
	if item, ok, err := l.Get(ctx, id); err != nil {
		return domain.RequestItem{}, err
	} else if ok && pred(item) {
		return item, nil
	}

	for {
		select {
		case <-ctx.Done():
			return domain.RequestItem{}, ctx.Err()
		case list, open := <-updates:
			if !open {
				return domain.RequestItem{}, fmt.Errorf("ledger closed while waiting for %s", id)
			}
			for _, item := range list {
				if item.InteractionID == id && pred(item) {
					return item, nil
				}
			}
		}
	}
}

// Close ends every subscription.
func (l *Ledger) Close() { l.subject.Close() }

func (l *Ledger) filter(ctx context.Context, status domain.RequestStatus) ([]domain.RequestItem, error) {
	all, err := l.List(ctx)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, it := range all {
		if it.Status == status {
			out = append(out, it)
		}
	}
	return out, nil
}

func (l *Ledger) publishLocked(ctx context.Context) error {
	all, err := l.items.All(ctx)
	if err != nil {
		return err
	}
	l.subject.Publish(sorted(all))
	return nil
}

func sorted(m map[string]domain.RequestItem) []domain.RequestItem {
	out := make([]domain.RequestItem, 0, len(m))
	for _, it := range m {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt < out[j].CreatedAt
		}
		return out[i].InteractionID < out[j].InteractionID
	})
	return out
}
