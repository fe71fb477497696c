package gateway

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"dappkit/internal/backoff"
	"dappkit/internal/domain"
	domaintypes "dappkit/internal/domain/types"
)

// ErrPollStopped is returned by a subintent poll ended with Stop.
var ErrPollStopped = errors.New("gateway: poll stopped")

// Poller polls the gateway until a status is final.
type Poller struct {
	client domain.GatewayClient
	cfg    backoff.Config
	log    zerolog.Logger
}

// PollerOption configures a Poller.
type PollerOption func(*Poller)

// WithBackoff overrides the retry schedule.
func WithBackoff(cfg backoff.Config) PollerOption {
	return func(p *Poller) { p.cfg = cfg }
}

// WithPollerLogger sets the poller logger.
func WithPollerLogger(l zerolog.Logger) PollerOption {
	return func(p *Poller) { p.log = l.With().Str("component", "gateway-poller").Logger() }
}

// NewPoller returns a Poller over client.
func NewPoller(client domain.GatewayClient, opts ...PollerOption) *Poller {
	p := &Poller{client: client, cfg: backoff.DefaultConfig(), log: zerolog.Nop()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// PollTransactionStatus polls until the transaction status is final. A
// timeout or context end fails with failedToPollSubmittedTransaction.
func (p *Poller) PollTransactionStatus(
	ctx context.Context,
	intentHash string,
) (domaintypes.TransactionStatusResponse, error) {
	res, err := poll(ctx, p.cfg, func(ctx context.Context) (domaintypes.TransactionStatusResponse, bool, error) {
		r, err := p.client.TransactionStatus(ctx, intentHash)
		if err != nil {
			p.log.Debug().Err(err).Str("intent_hash", intentHash).Msg("transaction status fetch failed; retrying")
			return r, false, nil
		}
		return r, r.Status.IsFinal(), nil
	})
	if err != nil {
		e := domaintypes.WrapSdkError(domaintypes.ErrorFailedToPollSubmittedTransaction, "", err)
		e.TransactionIntentHash = intentHash
		return res, e
	}
	return res, nil
}

// SubintentResult is the outcome of a subintent poll.
type SubintentResult struct {
	Status domaintypes.SubintentStatusResponse
	Err    error
}

// SubintentPoll is a running subintent status poll.
type SubintentPoll struct {
	cancel context.CancelFunc
	done   chan struct{}
	result SubintentResult
}

// Stop ends the poll; Result then reports ErrPollStopped unless the poll had
// already finished.
func (s *SubintentPoll) Stop() { s.cancel() }

// Done is closed once Result is available.
func (s *SubintentPoll) Done() <-chan struct{} { return s.done }

// Result blocks until the poll finishes.
func (s *SubintentPoll) Result() SubintentResult {
	<-s.done
	return s.result
}

// PollSubintentStatus polls in the background until the subintent commits.
// The poll is bounded by the expiration (unix seconds); passing it fails
// with expired.
func (p *Poller) PollSubintentStatus(
	ctx context.Context,
	subintentHash string,
	expirationTimestamp int64,
) *SubintentPoll {
	ctx, cancel := context.WithCancel(ctx)
	sp := &SubintentPoll{cancel: cancel, done: make(chan struct{})}

	cfg := p.cfg
	if expirationTimestamp > 0 {
		cfg.Deadline = time.Unix(expirationTimestamp, 0)
	}

	go func() {
		defer close(sp.done)
		defer cancel()
		res, err := poll(ctx, cfg, func(ctx context.Context) (domaintypes.SubintentStatusResponse, bool, error) {
			r, err := p.client.SubintentStatus(ctx, subintentHash)
			if err != nil {
				p.log.Debug().Err(err).Str("subintent_hash", subintentHash).Msg("subintent status fetch failed; retrying")
				return r, false, nil
			}
			return r, r.SubintentStatus == domaintypes.SubintentCommittedSuccess, nil
		})
		switch {
		case errors.Is(err, backoff.ErrTimeout):
			err = domaintypes.NewSdkError(domaintypes.ErrorExpired, "", "subintent "+subintentHash+" expired")
		case errors.Is(err, context.Canceled):
			err = ErrPollStopped
		}
		sp.result = SubintentResult{Status: res, Err: err}
	}()
	return sp
}

// poll drives fetch on the backoff schedule until it reports done or fails.
func poll[T any](ctx context.Context, cfg backoff.Config, fetch func(context.Context) (T, bool, error)) (T, error) {
	var last T
	sched := backoff.New(cfg)
	defer sched.Stop()

	for {
		select {
		case <-ctx.Done():
			return last, ctx.Err()
		case r, ok := <-sched.C():
			if !ok {
				return last, backoff.ErrStopped
			}
			if r.Err != nil {
				return last, r.Err
			}
			v, done, err := fetch(ctx)
			if err != nil {
				return v, err
			}
			last = v
			if done {
				return v, nil
			}
			sched.Trigger()
		}
	}
}
