package interfaces

import (
	"context"

	domaintypes "dappkit/internal/domain/types"
	"dappkit/internal/pubsub"
)

// RequestControl is handed to the caller once an interaction has been
// dispatched. Cancel asks the wallet to abandon it and reports whether the
// wallet agreed; transports without a cancel channel return false.
type RequestControl interface {
	Interaction() domaintypes.WalletInteraction
	Cancel(ctx context.Context) (bool, error)
}

// CallbackFns are the per-send hooks a transport invokes. Either may be nil.
type CallbackFns struct {
	EventCallback  func(domaintypes.LifecycleEvent)
	RequestControl func(RequestControl)
}

// Transport delivers interactions to the wallet.
type Transport interface {
	ID() domaintypes.TransportID
	IsSupported() bool
	IsAvailable() *pubsub.Subject[bool]
	IsLinked() *pubsub.Subject[bool]
	Send(
		ctx context.Context,
		interaction domaintypes.WalletInteraction,
		callbacks CallbackFns,
	) (domaintypes.WalletInteractionResponse, error)
	Disconnect(ctx context.Context) error
	Destroy()
}

// QRCodeShower is implemented by transports that can hand the wallet a link
// out of band.
type QRCodeShower interface {
	ShowQRCode(ctx context.Context) (string, error)
}

// Environment abstracts the host: platform detection, the calling origin and
// the ability to open a deep link.
type Environment interface {
	IsMobile() bool
	Origin() string
	OpenURL(ctx context.Context, url string) error
}
