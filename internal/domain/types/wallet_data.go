package types

// PersonaDataEntryKind names a WalletData persona data entry.
type PersonaDataEntryKind string

const (
	PersonaDataFullName       PersonaDataEntryKind = "fullName"
	PersonaDataEmailAddresses PersonaDataEntryKind = "emailAddresses"
	PersonaDataPhoneNumbers   PersonaDataEntryKind = "phoneNumbers"
)

// PersonaDataEntry is one application-facing persona data field.
type PersonaDataEntry struct {
	Entry    PersonaDataEntryKind `json:"entry"`
	FullName *PersonaName         `json:"fullName,omitempty"`
	Values   []string             `json:"values,omitempty"`
}

// ProofType says which kind of entity signed a challenge.
type ProofType string

const (
	ProofTypePersona ProofType = "persona"
	ProofTypeAccount ProofType = "account"
)

// SignedChallenge is a proof flattened for the application.
type SignedChallenge struct {
	Challenge string    `json:"challenge"`
	Proof     Proof     `json:"proof"`
	Address   string    `json:"address"`
	Type      ProofType `json:"type"`
}

// WalletData is what the application sees of the wallet.
type WalletData struct {
	Accounts    []Account          `json:"accounts"`
	PersonaData []PersonaDataEntry `json:"personaData"`
	Proofs      []SignedChallenge  `json:"proofs"`
	Persona     *Persona           `json:"persona,omitempty"`
}

// SharedPersona records that a persona login was granted.
type SharedPersona struct {
	Proof bool `json:"proof"`
}

// SharedAccounts records the ongoing accounts grant.
type SharedAccounts struct {
	NumberOfAccounts NumberOfValues `json:"numberOfAccounts"`
	WithProof        bool           `json:"withProof"`
}

// SharedData is what was granted on an ongoing basis.
type SharedData struct {
	Persona            *SharedPersona          `json:"persona,omitempty"`
	OngoingAccounts    *SharedAccounts         `json:"ongoingAccounts,omitempty"`
	OngoingPersonaData *PersonaDataRequestItem `json:"ongoingPersonaData,omitempty"`
}

// RdtState is the persisted application state record.
type RdtState struct {
	LoggedInTimestamp string     `json:"loggedInTimestamp"`
	WalletData        WalletData `json:"walletData"`
	SharedData        SharedData `json:"sharedData"`
}

// IsConnected reports whether a persona login has been recorded.
func (s RdtState) IsConnected() bool { return s.WalletData.Persona != nil }
