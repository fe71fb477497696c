package resolver

import (
	"context"

	"dappkit/internal/domain"
	domaintypes "dappkit/internal/domain/types"
)

// Kind names the resolver that owns a response shape.
type Kind int

const (
	KindNone Kind = iota
	KindData
	KindFailure
	KindTransaction
	KindPreAuthorization
)

func (k Kind) String() string {
	switch k {
	case KindData:
		return "data"
	case KindFailure:
		return "failure"
	case KindTransaction:
		return "transaction"
	case KindPreAuthorization:
		return "preAuthorization"
	}
	return "none"
}

// Classify returns the resolver kind for resp. Every valid response has
// exactly one kind.
func Classify(resp domain.WalletInteractionResponse) Kind {
	switch resp.Discriminator {
	case domaintypes.ResponseFailure:
		return KindFailure
	case domaintypes.ResponseSuccess:
		if resp.Items == nil {
			return KindNone
		}
		switch resp.Items.Discriminator {
		case domaintypes.ResponseItemsAuthorizedRequest, domaintypes.ResponseItemsUnauthorizedRequest:
			return KindData
		case domaintypes.ResponseItemsTransaction:
			return KindTransaction
		case domaintypes.ResponseItemsPreAuthorizationResponse:
			return KindPreAuthorization
		}
	}
	return KindNone
}

// input is what a resolver sees for one match.
type input struct {
	item     domain.RequestItem
	response domain.WalletInteractionResponse
}

// interaction returns the stored request, nil once dropped.
func (in input) interaction() *domain.WalletInteraction { return in.item.WalletInteraction }

type resolveFunc func(ctx context.Context, in input) error
