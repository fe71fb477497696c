package extension

import (
	"encoding/json"
	"fmt"

	"dappkit/internal/domain"
	domaintypes "dappkit/internal/domain/types"
)

// Outgoing message discriminators.
const (
	MsgWalletInteraction       = "walletInteraction"
	MsgCancelWalletInteraction = "cancelWalletInteraction"
	MsgExtensionStatus         = "extensionStatus"
)

// Outgoing is a message to the extension.
type Outgoing struct {
	Discriminator string                    `json:"discriminator"`
	InteractionID domain.InteractionID      `json:"interactionId,omitempty"`
	Interaction   *domain.WalletInteraction `json:"interaction,omitempty"`
	SessionID     string                    `json:"sessionId,omitempty"`
	Metadata      *domain.Metadata          `json:"metadata,omitempty"`
}

// Incoming is a decoded message from the extension: a lifecycle event, or
// a wallet response when Response is set.
type Incoming struct {
	InteractionID domain.InteractionID
	Event         domain.LifecycleEvent
	Status        domain.ExtensionStatus
	Response      *domain.WalletInteractionResponse
}

// incomingEvent is the wire form of a lifecycle event.
type incomingEvent struct {
	EventType     domain.LifecycleEvent `json:"eventType"`
	InteractionID domain.InteractionID  `json:"interactionId"`
	domaintypes.ExtensionStatus
}

// DecodeIncoming parses raw extension output. Messages carrying an
// eventType are lifecycle events; anything else must be a wallet response.
func DecodeIncoming(raw []byte) (Incoming, error) {
	var ev incomingEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		return Incoming{}, fmt.Errorf("extension message: %w", err)
	}
	if ev.EventType != "" {
		switch ev.EventType {
		case domaintypes.EventReceivedByExtension, domaintypes.EventReceivedByWallet,
			domaintypes.EventRequestCancelSuccess, domaintypes.EventRequestCancelFail,
			domaintypes.EventExtensionStatus:
		default:
			return Incoming{}, fmt.Errorf("extension message: unknown event %q", ev.EventType)
		}
		return Incoming{InteractionID: ev.InteractionID, Event: ev.EventType, Status: ev.ExtensionStatus}, nil
	}

	var resp domain.WalletInteractionResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return Incoming{}, fmt.Errorf("extension response: %w", err)
	}
	if resp.InteractionID == "" || resp.Discriminator == "" {
		return Incoming{}, fmt.Errorf("extension message: neither event nor response")
	}
	return Incoming{InteractionID: resp.InteractionID, Response: &resp}, nil
}
