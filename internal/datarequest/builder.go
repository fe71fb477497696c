package datarequest

import (
	"slices"

	domaintypes "dappkit/internal/domain/types"
)

// AccountsRequest asks for accounts.
type AccountsRequest struct {
	NumberOfAccounts domaintypes.NumberOfValues
	WithProof        bool
	Reset            bool
}

// PersonaDataRequest asks for persona data fields.
type PersonaDataRequest struct {
	FullName       bool
	EmailAddresses *domaintypes.NumberOfValues
	PhoneNumbers   *domaintypes.NumberOfValues
	Reset          bool
}

// PersonaRequest asks for a persona login.
type PersonaRequest struct {
	WithProof bool
}

// ProofOfOwnershipRequest asks the wallet to prove control of entities.
type ProofOfOwnershipRequest struct {
	AccountAddresses []string
	IdentityAddress  string
}

// Request is the combined data request. A nil field is not requested.
type Request struct {
	Accounts         *AccountsRequest
	PersonaData      *PersonaDataRequest
	Persona          *PersonaRequest
	ProofOfOwnership *ProofOfOwnershipRequest
}

// Item is one kind of request produced by a builder.
type Item interface {
	applyTo(*Request)
}

// Build combines items; later items of a kind replace earlier ones.
func Build(items ...Item) Request {
	var r Request
	for _, it := range items {
		it.applyTo(&r)
	}
	return r
}

// IsEmpty reports whether nothing is requested.
func (r Request) IsEmpty() bool {
	return r.Accounts == nil && r.PersonaData == nil && r.Persona == nil && r.ProofOfOwnership == nil
}

// NeedsChallenge reports whether any item asks for a signed proof.
func (r Request) NeedsChallenge() bool {
	return (r.Accounts != nil && r.Accounts.WithProof) ||
		(r.Persona != nil && r.Persona.WithProof) ||
		r.ProofOfOwnership != nil
}

// HasReset reports whether any item asks the wallet to forget a grant.
func (r Request) HasReset() bool {
	return (r.Accounts != nil && r.Accounts.Reset) || (r.PersonaData != nil && r.PersonaData.Reset)
}

func (r Request) clone() Request {
	out := Request{}
	if r.Accounts != nil {
		a := *r.Accounts
		out.Accounts = &a
	}
	if r.PersonaData != nil {
		pd := *r.PersonaData
		out.PersonaData = &pd
	}
	if r.Persona != nil {
		p := *r.Persona
		out.Persona = &p
	}
	if r.ProofOfOwnership != nil {
		po := *r.ProofOfOwnership
		po.AccountAddresses = slices.Clone(po.AccountAddresses)
		out.ProofOfOwnership = &po
	}
	return out
}

// AccountsBuilder builds an AccountsRequest. The zero request is at least
// one account.
type AccountsBuilder struct{ v AccountsRequest }

// Accounts starts an accounts request.
func Accounts() AccountsBuilder {
	return AccountsBuilder{v: AccountsRequest{
		NumberOfAccounts: domaintypes.NumberOfValues{Quantifier: domaintypes.QuantifierAtLeast, Quantity: 1},
	}}
}

// AtLeast asks for n or more accounts.
func (b AccountsBuilder) AtLeast(n int) AccountsBuilder {
	b.v.NumberOfAccounts = domaintypes.NumberOfValues{Quantifier: domaintypes.QuantifierAtLeast, Quantity: n}
	return b
}

// Exactly asks for exactly n accounts.
func (b AccountsBuilder) Exactly(n int) AccountsBuilder {
	b.v.NumberOfAccounts = domaintypes.NumberOfValues{Quantifier: domaintypes.QuantifierExactly, Quantity: n}
	return b
}

// WithProof asks for a signed proof of ownership per account.
func (b AccountsBuilder) WithProof() AccountsBuilder {
	b.v.WithProof = true
	return b
}

// Reset asks the wallet to forget the previous accounts grant.
func (b AccountsBuilder) Reset() AccountsBuilder {
	b.v.Reset = true
	return b
}

// Request returns the built value.
func (b AccountsBuilder) Request() AccountsRequest { return b.v }

func (b AccountsBuilder) applyTo(r *Request) {
	v := b.v
	r.Accounts = &v
}

// PersonaDataBuilder builds a PersonaDataRequest.
type PersonaDataBuilder struct{ v PersonaDataRequest }

// PersonaData starts a persona data request with no fields.
func PersonaData() PersonaDataBuilder { return PersonaDataBuilder{} }

// FullName requests the persona's name.
func (b PersonaDataBuilder) FullName() PersonaDataBuilder {
	b.v.FullName = true
	return b
}

// EmailAddresses requests one email address.
func (b PersonaDataBuilder) EmailAddresses() PersonaDataBuilder {
	b.v.EmailAddresses = exactlyOne()
	return b
}

// PhoneNumbers requests one phone number.
func (b PersonaDataBuilder) PhoneNumbers() PersonaDataBuilder {
	b.v.PhoneNumbers = exactlyOne()
	return b
}

// Reset asks the wallet to forget the previous persona data grant.
func (b PersonaDataBuilder) Reset() PersonaDataBuilder {
	b.v.Reset = true
	return b
}

// Request returns the built value.
func (b PersonaDataBuilder) Request() PersonaDataRequest { return b.v }

func (b PersonaDataBuilder) applyTo(r *Request) {
	v := b.v
	r.PersonaData = &v
}

func exactlyOne() *domaintypes.NumberOfValues {
	return &domaintypes.NumberOfValues{Quantifier: domaintypes.QuantifierExactly, Quantity: 1}
}

// PersonaBuilder builds a PersonaRequest.
type PersonaBuilder struct{ v PersonaRequest }

// Persona starts a persona login request.
func Persona() PersonaBuilder { return PersonaBuilder{} }

// WithProof asks for a signed login challenge.
func (b PersonaBuilder) WithProof() PersonaBuilder {
	b.v.WithProof = true
	return b
}

func (b PersonaBuilder) applyTo(r *Request) {
	v := b.v
	r.Persona = &v
}

// ProofOfOwnershipBuilder builds a ProofOfOwnershipRequest.
type ProofOfOwnershipBuilder struct{ v ProofOfOwnershipRequest }

// ProofOfOwnership starts a proof of ownership request.
func ProofOfOwnership() ProofOfOwnershipBuilder { return ProofOfOwnershipBuilder{} }

// Accounts adds account addresses to prove.
func (b ProofOfOwnershipBuilder) Accounts(addresses ...string) ProofOfOwnershipBuilder {
	b.v.AccountAddresses = append(slices.Clone(b.v.AccountAddresses), addresses...)
	return b
}

// Identity sets the identity address to prove.
func (b ProofOfOwnershipBuilder) Identity(address string) ProofOfOwnershipBuilder {
	b.v.IdentityAddress = address
	return b
}

func (b ProofOfOwnershipBuilder) applyTo(r *Request) {
	v := b.v
	v.AccountAddresses = slices.Clone(v.AccountAddresses)
	r.ProofOfOwnership = &v
}
