package types

// LifecycleEvent is a delivery notification emitted by a transport while an
// interaction is in flight.
type LifecycleEvent string

const (
	EventReceivedByExtension  LifecycleEvent = "receivedByExtension"
	EventReceivedByWallet     LifecycleEvent = "receivedByWallet"
	EventRequestCancelSuccess LifecycleEvent = "requestCancelSuccess"
	EventRequestCancelFail    LifecycleEvent = "requestCancelFail"
	EventExtensionStatus      LifecycleEvent = "extensionStatus"
)

// ExtensionStatus is the connector extension's capability report.
type ExtensionStatus struct {
	IsWalletLinked       bool `json:"isWalletLinked"`
	IsExtensionAvailable bool `json:"isExtensionAvailable"`
	CanHandleSessions    bool `json:"canHandleSessions"`
}

// InteractionSignature authenticates a deep-linked interaction: an Ed25519
// signature (hex) and the signing public key (hex).
type InteractionSignature struct {
	Signature string `json:"signature"`
	PublicKey string `json:"publicKey"`
}
