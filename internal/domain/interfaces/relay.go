package interfaces

import (
	"context"

	domaintypes "dappkit/internal/domain/types"
)

// RelayClient fetches wallet responses queued on the relay for a session.
type RelayClient interface {
	GetResponses(ctx context.Context, sessionID string) ([]domaintypes.EncryptedResponse, error)
}

// GatewayClient queries the ledger indexer for finality.
type GatewayClient interface {
	TransactionStatus(
		ctx context.Context,
		intentHash string,
	) (domaintypes.TransactionStatusResponse, error)
	SubintentStatus(
		ctx context.Context,
		subintentHash string,
	) (domaintypes.SubintentStatusResponse, error)
}
