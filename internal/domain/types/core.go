package types

// InteractionID correlates a wallet interaction with its response and ledger item.
type InteractionID string

// String returns the string form of the interaction id.
func (id InteractionID) String() string { return string(id) }

// NetworkID identifies the ledger network the dApp talks to.
type NetworkID int

// Well-known network ids.
const (
	NetworkMainnet  NetworkID = 1
	NetworkStokenet NetworkID = 2
)

// IdentityKind names a persisted key pair.
type IdentityKind string

// IdentityKindDapp is the dApp's long-lived key pair.
const IdentityKindDapp IdentityKind = "dApp"

// TransportID names a transport provider.
type TransportID string

const (
	TransportExtension TransportID = "connector-extension"
	TransportMobile    TransportID = "radix-connect-relay"
)
