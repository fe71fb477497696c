package domain

import (
	interfaces "dappkit/internal/domain/interfaces"
	types "dappkit/internal/domain/types"
)

// Type aliases expose domain types from the types subpackage for compact imports.
type (
	InteractionID             = types.InteractionID
	NetworkID                 = types.NetworkID
	IdentityKind              = types.IdentityKind
	TransportID               = types.TransportID
	X25519Public              = types.X25519Public
	X25519Private             = types.X25519Private
	Ed25519Public             = types.Ed25519Public
	IdentityRecord            = types.IdentityRecord
	Session                   = types.Session
	WalletInteraction         = types.WalletInteraction
	Metadata                  = types.Metadata
	InteractionItems          = types.InteractionItems
	WalletInteractionResponse = types.WalletInteractionResponse
	ResponseItems             = types.ResponseItems
	RequestItem               = types.RequestItem
	RequestItemMetadata       = types.RequestItemMetadata
	RequestType               = types.RequestType
	RequestStatus             = types.RequestStatus
	ErrorType                 = types.ErrorType
	SdkError                  = types.SdkError
	WalletData                = types.WalletData
	Account                   = types.Account
	Persona                   = types.Persona
	PersonaDataEntry          = types.PersonaDataEntry
	SignedChallenge           = types.SignedChallenge
	SharedData                = types.SharedData
	RdtState                  = types.RdtState
	EncryptedResponse         = types.EncryptedResponse
	LifecycleEvent            = types.LifecycleEvent
	ExtensionStatus           = types.ExtensionStatus
	InteractionSignature      = types.InteractionSignature
	TransactionStatus         = types.TransactionStatus
	SubintentStatus           = types.SubintentStatus
)

// Interface aliases expose domain interfaces from the interfaces subpackage.
type (
	KeyValueBackend    = interfaces.KeyValueBackend
	RelayClient        = interfaces.RelayClient
	GatewayClient      = interfaces.GatewayClient
	KeyPair            = interfaces.KeyPair
	IdentityService    = interfaces.IdentityService
	SessionService     = interfaces.SessionService
	WalletResponseSink = interfaces.WalletResponseSink
	RequestControl     = interfaces.RequestControl
	CallbackFns        = interfaces.CallbackFns
	Transport          = interfaces.Transport
	QRCodeShower       = interfaces.QRCodeShower
	Environment        = interfaces.Environment
)
