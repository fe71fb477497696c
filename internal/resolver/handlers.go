package resolver

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"dappkit/internal/datarequest"
	"dappkit/internal/domain"
	domaintypes "dappkit/internal/domain/types"
	"dappkit/internal/gateway"
	"dappkit/internal/services/requestitems"
)

func (r *Resolver) fail(ctx context.Context, in input, t domain.ErrorType, msg string) error {
	resp := in.response
	_, err := r.ledger.UpdateStatus(ctx, requestitems.StatusUpdate{
		ID:             in.item.InteractionID,
		Status:         domaintypes.StatusFail,
		Error:          t,
		ErrorMessage:   msg,
		WalletResponse: &resp,
	})
	return err
}

func (r *Resolver) resolveFailure(ctx context.Context, in input) error {
	return r.fail(ctx, in, in.response.Error, in.response.Message)
}

func (r *Resolver) resolveData(ctx context.Context, in input) error {
	items := *in.response.Items
	request := in.interaction()

	if request != nil {
		if t, msg := checkDataResponse(request.Items, items); t != "" {
			return r.fail(ctx, in, t, msg)
		}
	}

	data := datarequest.FromWalletResponse(items)
	if r.control != nil {
		if err := r.control(ctx, data); err != nil {
			r.log.Info().Err(err).Str("interaction_id", in.item.InteractionID.String()).Msg("data response vetoed")
			return r.fail(ctx, in, domaintypes.ErrorRejectedByUser, err.Error())
		}
	}

	if request != nil && !in.item.IsOneTimeRequest && items.Discriminator == domaintypes.ResponseItemsAuthorizedRequest {
		loggedIn := strconv.FormatInt(r.now().UnixMilli(), 10)
		if _, err := r.state.Update(ctx, func(st *domain.RdtState) {
			st.WalletData = datarequest.MergeWalletData(st.WalletData, request.Items, items)
			st.SharedData = datarequest.ToSharedData(request.Items)
			st.LoggedInTimestamp = loggedIn
		}); err != nil {
			return err
		}
	}

	resp := in.response
	_, err := r.ledger.UpdateStatus(ctx, requestitems.StatusUpdate{
		ID:             in.item.InteractionID,
		Status:         domaintypes.StatusSuccess,
		WalletResponse: &resp,
	})
	return err
}

// checkDataResponse compares a data response with its request. It returns
// the error type to fail with, or "".
func checkDataResponse(req domain.InteractionItems, resp domain.ResponseItems) (domain.ErrorType, string) {
	if a := req.Auth; a != nil && resp.Auth != nil {
		if a.Discriminator == domaintypes.AuthUsePersona && resp.Auth.Persona.IdentityAddress != a.IdentityAddress {
			return domaintypes.ErrorInvalidPersona, fmt.Sprintf("asked for persona %s", a.IdentityAddress)
		}
		if a.Discriminator == domaintypes.AuthLoginWithChallenge && resp.Auth.Challenge != a.Challenge {
			return domaintypes.ErrorInvalidChallenge, "persona proof signs a different challenge"
		}
	}
	for _, pair := range []struct {
		req  *domaintypes.AccountsRequestItem
		resp *domaintypes.AccountsResponseItem
	}{
		{req.OngoingAccounts, resp.OngoingAccounts},
		{req.OneTimeAccounts, resp.OneTimeAccounts},
	} {
		if pair.req == nil || pair.resp == nil || pair.req.Challenge == "" {
			continue
		}
		if pair.resp.Challenge != pair.req.Challenge {
			return domaintypes.ErrorInvalidChallenge, "account proofs sign a different challenge"
		}
	}
	if po := req.ProofOfOwnership; po != nil && resp.ProofOfOwnership != nil && resp.ProofOfOwnership.Challenge != po.Challenge {
		return domaintypes.ErrorInvalidChallenge, "ownership proofs sign a different challenge"
	}
	return "", ""
}

func (r *Resolver) resolveTransaction(ctx context.Context, in input) error {
	id := in.item.InteractionID
	hash := in.response.Items.Send.TransactionIntentHash

	// the hash is visible to waiters before finality is known
	if _, err := r.ledger.Patch(ctx, id, func(it *domain.RequestItem) {
		it.TransactionIntentHash = hash
		it.ShowCancel = false
	}); err != nil {
		return err
	}

	r.startTransactionPoll(id, hash, in.response)
	return nil
}

// startTransactionPoll runs the status poll for hash unless one is already
// running for id.
func (r *Resolver) startTransactionPoll(id domain.InteractionID, hash string, resp domain.WalletInteractionResponse) {
	pctx, ok := r.trackPoll(id)
	if !ok {
		return
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer r.StopPoll(id)
		r.finishTransaction(pctx, id, hash, resp)
	}()
}

func (r *Resolver) finishTransaction(ctx context.Context, id domain.InteractionID, hash string, resp domain.WalletInteractionResponse) {
	u := requestitems.StatusUpdate{
		ID:                    id,
		TransactionIntentHash: hash,
		WalletResponse:        &resp,
	}
	res, err := r.poller.PollTransactionStatus(ctx, hash)
	switch {
	case errors.Is(err, context.Canceled):
		return
	case err != nil:
		u.Status, u.Error, u.ErrorMessage = domaintypes.StatusFail, domaintypes.ErrorFailedToPollSubmittedTransaction, err.Error()
	case res.Status == domaintypes.TransactionCommittedSuccess:
		u.Status = domaintypes.StatusSuccess
	case res.Status == domaintypes.TransactionCommittedFailure:
		u.Status, u.Error = domaintypes.StatusFail, domaintypes.ErrorSubmittedTransactionHasFailedTransactionStatus
		u.ErrorMessage = res.ErrorMessage
	default:
		u.Status, u.Error = domaintypes.StatusFail, domaintypes.ErrorSubmittedTransactionHasRejectedTransactionStatus
		u.ErrorMessage = res.ErrorMessage
	}
	u.Metadata.TransactionStatus = string(res.Status)

	if _, err := r.ledger.UpdateStatus(context.WithoutCancel(ctx), u); err != nil {
		r.log.Error().Err(err).Str("interaction_id", id.String()).Msg("recording transaction status")
	}
}

func (r *Resolver) resolvePreAuthorization(ctx context.Context, in input) error {
	signed := in.response.Items.Response
	exp := signed.ExpirationTimestamp
	if exp == 0 && in.interaction() != nil && in.interaction().Items.Request != nil {
		exp = ExpirationTimestamp(in.interaction().Items.Request.Expiration, in.item.CreatedAt/1000)
	}

	resp := in.response
	item, err := r.ledger.UpdateStatus(ctx, requestitems.StatusUpdate{
		ID:     in.item.InteractionID,
		Status: domaintypes.StatusPendingCommit,
		Metadata: domain.RequestItemMetadata{
			SubintentHash:            signed.SubintentHash,
			SignedPartialTransaction: signed.SignedPartialTransaction,
			ExpirationTimestamp:      exp,
		},
		WalletResponse: &resp,
	})
	if err != nil {
		return err
	}
	if item.Status == domaintypes.StatusPendingCommit {
		r.startSubintentPoll(item)
	}
	return nil
}

// ExpirationTimestamp resolves an expiration to unix seconds. Delays count
// from createdAt (unix seconds).
func ExpirationTimestamp(e domaintypes.Expiration, createdAt int64) int64 {
	switch e.Discriminator {
	case domaintypes.ExpireAtTime:
		return e.UnixTimestampSeconds
	case domaintypes.ExpireAfterDelay:
		return createdAt + e.ExpireAfterSeconds
	}
	return 0
}

func (r *Resolver) startSubintentPoll(item domain.RequestItem) {
	id := item.InteractionID
	pctx, ok := r.trackPoll(id)
	if !ok {
		return
	}
	poll := r.poller.PollSubintentStatus(pctx, item.Metadata.SubintentHash, item.Metadata.ExpirationTimestamp)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer r.StopPoll(id)
		res := poll.Result()

		ctx := context.WithoutCancel(pctx)
		u := requestitems.StatusUpdate{ID: id}
		var sdkErr *domaintypes.SdkError
		switch {
		case res.Err == nil:
			u.Status = domaintypes.StatusSuccess
			u.Metadata.ParentTransactionIntentHash = res.Status.FinalizedAtTransactionIntentHash
			u.TransactionIntentHash = res.Status.FinalizedAtTransactionIntentHash
		case errors.Is(res.Err, gateway.ErrPollStopped):
			return
		case errors.As(res.Err, &sdkErr) && sdkErr.Type == domaintypes.ErrorExpired:
			u.Status, u.Error = domaintypes.StatusTimedOut, domaintypes.ErrorExpired
		default:
			// the next sweep restarts it
			r.log.Warn().Err(res.Err).Str("interaction_id", id.String()).Msg("subintent poll ended")
			return
		}
		if _, err := r.ledger.UpdateStatus(ctx, u); err != nil {
			r.log.Error().Err(err).Str("interaction_id", id.String()).Msg("recording subintent status")
		}
	}()
}

// sweep times out expired pre-authorizations and makes sure every other
// pendingCommit item has a running poll.
func (r *Resolver) sweep(ctx context.Context) error {
	items, err := r.ledger.GetPendingCommit(ctx)
	if err != nil {
		return err
	}
	now := r.now().Unix()
	for _, item := range items {
		exp := item.Metadata.ExpirationTimestamp
		if exp > 0 && now >= exp {
			r.StopPoll(item.InteractionID)
			if _, err := r.ledger.UpdateStatus(ctx, requestitems.StatusUpdate{
				ID:     item.InteractionID,
				Status: domaintypes.StatusTimedOut,
				Error:  domaintypes.ErrorExpired,
			}); err != nil {
				return err
			}
			r.log.Info().Str("interaction_id", item.InteractionID.String()).Msg("pre-authorization expired")
			continue
		}
		r.startSubintentPoll(item)
	}
	return nil
}
