package types

// InteractionVersion is stamped on every outgoing interaction.
const InteractionVersion = 2

// WalletInteraction is the immutable envelope sent to the wallet.
type WalletInteraction struct {
	InteractionID InteractionID    `json:"interactionId"`
	Metadata      Metadata         `json:"metadata"`
	Items         InteractionItems `json:"items"`
}

// Metadata identifies the calling dApp.
type Metadata struct {
	Version               int       `json:"version"`
	NetworkID             NetworkID `json:"networkId"`
	DAppDefinitionAddress string    `json:"dAppDefinitionAddress"`
	Origin                string    `json:"origin"`
}

// ItemsDiscriminator tags the InteractionItems union.
type ItemsDiscriminator string

const (
	ItemsUnauthorizedRequest     ItemsDiscriminator = "unauthorizedRequest"
	ItemsAuthorizedRequest       ItemsDiscriminator = "authorizedRequest"
	ItemsTransaction             ItemsDiscriminator = "transaction"
	ItemsPreAuthorizationRequest ItemsDiscriminator = "preAuthorizationRequest"
	ItemsCancelRequest           ItemsDiscriminator = "cancelRequest"
)

// InteractionItems is the tagged union of request payloads. Which fields may
// be set depends on Discriminator; see Validate.
type InteractionItems struct {
	Discriminator ItemsDiscriminator `json:"discriminator"`

	// authorizedRequest
	Auth               *AuthRequestItem             `json:"auth,omitempty"`
	Reset              *ResetRequestItem            `json:"reset,omitempty"`
	ProofOfOwnership   *ProofOfOwnershipRequestItem `json:"proofOfOwnership,omitempty"`
	OngoingAccounts    *AccountsRequestItem         `json:"ongoingAccounts,omitempty"`
	OngoingPersonaData *PersonaDataRequestItem      `json:"ongoingPersonaData,omitempty"`

	// authorizedRequest and unauthorizedRequest
	OneTimeAccounts    *AccountsRequestItem    `json:"oneTimeAccounts,omitempty"`
	OneTimePersonaData *PersonaDataRequestItem `json:"oneTimePersonaData,omitempty"`

	// transaction
	Send *SendTransactionItem `json:"send,omitempty"`

	// preAuthorizationRequest
	Request *SubintentRequestItem `json:"request,omitempty"`
}

// AuthDiscriminator tags AuthRequestItem and AuthResponseItem.
type AuthDiscriminator string

const (
	AuthLoginWithoutChallenge AuthDiscriminator = "loginWithoutChallenge"
	AuthLoginWithChallenge    AuthDiscriminator = "loginWithChallenge"
	AuthUsePersona            AuthDiscriminator = "usePersona"
)

// AuthRequestItem asks the wallet for a persona login.
type AuthRequestItem struct {
	Discriminator   AuthDiscriminator `json:"discriminator"`
	IdentityAddress string            `json:"identityAddress,omitempty"`
	Challenge       string            `json:"challenge,omitempty"`
}

// Quantifier qualifies a requested quantity.
type Quantifier string

const (
	QuantifierExactly Quantifier = "exactly"
	QuantifierAtLeast Quantifier = "atLeast"
)

// NumberOfValues is a quantifier/quantity pair.
type NumberOfValues struct {
	Quantifier Quantifier `json:"quantifier"`
	Quantity   int        `json:"quantity"`
}

// AccountsRequestItem requests accounts, optionally with proof of ownership.
type AccountsRequestItem struct {
	NumberOfAccounts NumberOfValues `json:"numberOfAccounts"`
	Challenge        string         `json:"challenge,omitempty"`
}

// PersonaDataRequestItem requests persona data fields.
type PersonaDataRequestItem struct {
	IsRequestingName                bool            `json:"isRequestingName,omitempty"`
	NumberOfRequestedEmailAddresses *NumberOfValues `json:"numberOfRequestedEmailAddresses,omitempty"`
	NumberOfRequestedPhoneNumbers   *NumberOfValues `json:"numberOfRequestedPhoneNumbers,omitempty"`
}

// ResetRequestItem asks the wallet to forget previously shared data.
type ResetRequestItem struct {
	Accounts    bool `json:"accounts"`
	PersonaData bool `json:"personaData"`
}

// ProofOfOwnershipRequestItem asks the wallet to sign a challenge with the
// given entities.
type ProofOfOwnershipRequestItem struct {
	Challenge        string   `json:"challenge"`
	IdentityAddress  string   `json:"identityAddress,omitempty"`
	AccountAddresses []string `json:"accountAddresses,omitempty"`
}

// SendTransactionItem carries a transaction manifest.
type SendTransactionItem struct {
	TransactionManifest string   `json:"transactionManifest"`
	Version             int      `json:"version"`
	Blobs               []string `json:"blobs,omitempty"`
	Message             string   `json:"message,omitempty"`
}

// ExpirationDiscriminator tags Expiration.
type ExpirationDiscriminator string

const (
	ExpireAtTime     ExpirationDiscriminator = "expireAtTime"
	ExpireAfterDelay ExpirationDiscriminator = "expireAfterDelay"
)

// Expiration bounds the validity of a subintent.
type Expiration struct {
	Discriminator        ExpirationDiscriminator `json:"discriminator"`
	UnixTimestampSeconds int64                   `json:"unixTimestampSeconds,omitempty"`
	ExpireAfterSeconds   int64                   `json:"expireAfterSeconds,omitempty"`
}

// SubintentRequestItem is a pre-authorization request.
type SubintentRequestItem struct {
	Discriminator     string     `json:"discriminator"`
	Version           int        `json:"version"`
	ManifestVersion   int        `json:"manifestVersion"`
	SubintentManifest string     `json:"subintentManifest"`
	Blobs             []string   `json:"blobs,omitempty"`
	Message           string     `json:"message,omitempty"`
	Expiration        Expiration `json:"expiration"`
}

// SubintentDiscriminator is the only SubintentRequestItem discriminator.
const SubintentDiscriminator = "subintent"
