package types

// ResponseDiscriminator tags WalletInteractionResponse.
type ResponseDiscriminator string

const (
	ResponseSuccess ResponseDiscriminator = "success"
	ResponseFailure ResponseDiscriminator = "failure"
)

// WalletInteractionResponse is either a success echoing response items or a
// failure carrying an error type.
type WalletInteractionResponse struct {
	Discriminator ResponseDiscriminator `json:"discriminator"`
	InteractionID InteractionID         `json:"interactionId"`
	Items         *ResponseItems        `json:"items,omitempty"`
	Error         ErrorType             `json:"error,omitempty"`
	Message       string                `json:"message,omitempty"`
}

// ResponseItemsDiscriminator tags ResponseItems.
type ResponseItemsDiscriminator string

const (
	ResponseItemsUnauthorizedRequest      ResponseItemsDiscriminator = "unauthorizedRequest"
	ResponseItemsAuthorizedRequest        ResponseItemsDiscriminator = "authorizedRequest"
	ResponseItemsTransaction              ResponseItemsDiscriminator = "transaction"
	ResponseItemsPreAuthorizationResponse ResponseItemsDiscriminator = "preAuthorizationResponse"
)

// ResponseItems is the tagged union of success payloads.
type ResponseItems struct {
	Discriminator ResponseItemsDiscriminator `json:"discriminator"`

	Auth               *AuthResponseItem             `json:"auth,omitempty"`
	OngoingAccounts    *AccountsResponseItem         `json:"ongoingAccounts,omitempty"`
	OngoingPersonaData *PersonaDataResponseItem      `json:"ongoingPersonaData,omitempty"`
	ProofOfOwnership   *ProofOfOwnershipResponseItem `json:"proofOfOwnership,omitempty"`

	OneTimeAccounts    *AccountsResponseItem    `json:"oneTimeAccounts,omitempty"`
	OneTimePersonaData *PersonaDataResponseItem `json:"oneTimePersonaData,omitempty"`

	Send *SendTransactionResponseItem `json:"send,omitempty"`

	Response *SubintentResponseItem `json:"response,omitempty"`
}

// Persona is a wallet identity.
type Persona struct {
	IdentityAddress string `json:"identityAddress"`
	Label           string `json:"label"`
}

// Account is a wallet account shared with the dApp.
type Account struct {
	Address      string `json:"address"`
	Label        string `json:"label"`
	AppearanceID int    `json:"appearanceId"`
}

// Proof is a signature over a challenge.
type Proof struct {
	PublicKey string `json:"publicKey"`
	Signature string `json:"signature"`
	Curve     string `json:"curve"`
}

// AuthResponseItem answers an AuthRequestItem.
type AuthResponseItem struct {
	Discriminator AuthDiscriminator `json:"discriminator"`
	Persona       Persona           `json:"persona"`
	Challenge     string            `json:"challenge,omitempty"`
	Proof         *Proof            `json:"proof,omitempty"`
}

// AccountProof binds a proof to an account.
type AccountProof struct {
	AccountAddress string `json:"accountAddress"`
	Proof          Proof  `json:"proof"`
}

// AccountsResponseItem answers an AccountsRequestItem.
type AccountsResponseItem struct {
	Accounts  []Account      `json:"accounts"`
	Challenge string         `json:"challenge,omitempty"`
	Proofs    []AccountProof `json:"proofs,omitempty"`
}

// PersonaName is the name field of persona data.
type PersonaName struct {
	Variant    string `json:"variant"`
	FamilyName string `json:"familyName"`
	GivenNames string `json:"givenNames"`
	Nickname   string `json:"nickname"`
}

// PersonaDataResponseItem answers a PersonaDataRequestItem.
type PersonaDataResponseItem struct {
	Name           *PersonaName `json:"name,omitempty"`
	EmailAddresses []string     `json:"emailAddresses,omitempty"`
	PhoneNumbers   []string     `json:"phoneNumbers,omitempty"`
}

// OwnershipProof is one entity proof in a ProofOfOwnershipResponseItem.
type OwnershipProof struct {
	AccountAddress  string `json:"accountAddress,omitempty"`
	IdentityAddress string `json:"identityAddress,omitempty"`
	Proof           Proof  `json:"proof"`
}

// ProofOfOwnershipResponseItem answers a ProofOfOwnershipRequestItem.
type ProofOfOwnershipResponseItem struct {
	Challenge string           `json:"challenge"`
	Proofs    []OwnershipProof `json:"proofs"`
}

// SendTransactionResponseItem carries the submitted transaction's intent hash.
type SendTransactionResponseItem struct {
	TransactionIntentHash string `json:"transactionIntentHash"`
}

// SubintentResponseItem carries the wallet-signed subintent.
type SubintentResponseItem struct {
	ExpirationTimestamp      int64  `json:"expirationTimestamp"`
	SubintentHash            string `json:"subintentHash"`
	SignedPartialTransaction string `json:"signedPartialTransaction"`
}
