package datarequest

import (
	"errors"

	"dappkit/internal/domain"
	domaintypes "dappkit/internal/domain/types"
)

// Options are the inputs to ToWalletRequest besides the request itself.
type Options struct {
	// OneTime builds an unauthorized request that grants nothing ongoing.
	OneTime bool
	// Persona is the logged-in persona, if any.
	Persona *domain.Persona
	// Challenge is required when the request NeedsChallenge.
	Challenge string
}

// ToWalletRequest builds the wire items for req.
func ToWalletRequest(req Request, opts Options) (domain.InteractionItems, error) {
	if req.NeedsChallenge() && !domaintypes.IsValidChallenge(opts.Challenge) {
		return domain.InteractionItems{}, errors.New("request needs a 32 byte hex challenge")
	}

	if opts.OneTime {
		if req.Persona != nil || req.ProofOfOwnership != nil {
			return domain.InteractionItems{}, errors.New("one-time requests cannot carry a persona login or proof of ownership")
		}
		if req.Accounts == nil && req.PersonaData == nil {
			return domain.InteractionItems{}, errors.New("one-time request is empty")
		}
		return domain.InteractionItems{
			Discriminator:      domaintypes.ItemsUnauthorizedRequest,
			OneTimeAccounts:    accountsItem(req.Accounts, opts.Challenge),
			OneTimePersonaData: personaDataItem(req.PersonaData),
		}, nil
	}

	items := domain.InteractionItems{
		Discriminator:      domaintypes.ItemsAuthorizedRequest,
		Auth:               authItem(req.Persona, opts),
		OngoingAccounts:    accountsItem(req.Accounts, opts.Challenge),
		OngoingPersonaData: personaDataItem(req.PersonaData),
	}
	if req.HasReset() {
		items.Reset = &domaintypes.ResetRequestItem{
			Accounts:    req.Accounts != nil && req.Accounts.Reset,
			PersonaData: req.PersonaData != nil && req.PersonaData.Reset,
		}
	}
	if po := req.ProofOfOwnership; po != nil {
		items.ProofOfOwnership = &domaintypes.ProofOfOwnershipRequestItem{
			Challenge:        opts.Challenge,
			IdentityAddress:  po.IdentityAddress,
			AccountAddresses: po.AccountAddresses,
		}
	}
	return items, nil
}

func authItem(p *PersonaRequest, opts Options) *domaintypes.AuthRequestItem {
	switch {
	case p != nil && p.WithProof:
		return &domaintypes.AuthRequestItem{Discriminator: domaintypes.AuthLoginWithChallenge, Challenge: opts.Challenge}
	case opts.Persona != nil:
		return &domaintypes.AuthRequestItem{Discriminator: domaintypes.AuthUsePersona, IdentityAddress: opts.Persona.IdentityAddress}
	default:
		return &domaintypes.AuthRequestItem{Discriminator: domaintypes.AuthLoginWithoutChallenge}
	}
}

func accountsItem(a *AccountsRequest, challenge string) *domaintypes.AccountsRequestItem {
	if a == nil {
		return nil
	}
	item := &domaintypes.AccountsRequestItem{NumberOfAccounts: a.NumberOfAccounts}
	if a.WithProof {
		item.Challenge = challenge
	}
	return item
}

func personaDataItem(pd *PersonaDataRequest) *domaintypes.PersonaDataRequestItem {
	if pd == nil {
		return nil
	}
	return &domaintypes.PersonaDataRequestItem{
		IsRequestingName:                pd.FullName,
		NumberOfRequestedEmailAddresses: pd.EmailAddresses,
		NumberOfRequestedPhoneNumbers:   pd.PhoneNumbers,
	}
}

// FromWalletResponse flattens success items into WalletData. Ongoing and
// one-time accounts are concatenated; ongoing persona data wins over
// one-time.
func FromWalletResponse(items domain.ResponseItems) domain.WalletData {
	wd := domain.WalletData{
		Accounts:    []domain.Account{},
		PersonaData: []domain.PersonaDataEntry{},
		Proofs:      []domain.SignedChallenge{},
	}

	if a := items.Auth; a != nil {
		p := a.Persona
		wd.Persona = &p
		if a.Proof != nil {
			wd.Proofs = append(wd.Proofs, domain.SignedChallenge{
				Challenge: a.Challenge,
				Proof:     *a.Proof,
				Address:   p.IdentityAddress,
				Type:      domaintypes.ProofTypePersona,
			})
		}
	}

	for _, acc := range []*domaintypes.AccountsResponseItem{items.OngoingAccounts, items.OneTimeAccounts} {
		if acc == nil {
			continue
		}
		wd.Accounts = append(wd.Accounts, acc.Accounts...)
		for _, p := range acc.Proofs {
			wd.Proofs = append(wd.Proofs, domain.SignedChallenge{
				Challenge: acc.Challenge,
				Proof:     p.Proof,
				Address:   p.AccountAddress,
				Type:      domaintypes.ProofTypeAccount,
			})
		}
	}

	pd := items.OngoingPersonaData
	if pd == nil {
		pd = items.OneTimePersonaData
	}
	wd.PersonaData = personaDataEntries(pd)

	if po := items.ProofOfOwnership; po != nil {
		for _, p := range po.Proofs {
			sc := domain.SignedChallenge{Challenge: po.Challenge, Proof: p.Proof}
			if p.IdentityAddress != "" {
				sc.Address, sc.Type = p.IdentityAddress, domaintypes.ProofTypePersona
			} else {
				sc.Address, sc.Type = p.AccountAddress, domaintypes.ProofTypeAccount
			}
			wd.Proofs = append(wd.Proofs, sc)
		}
	}
	return wd
}

func personaDataEntries(pd *domaintypes.PersonaDataResponseItem) []domain.PersonaDataEntry {
	out := []domain.PersonaDataEntry{}
	if pd == nil {
		return out
	}
	if pd.Name != nil {
		name := *pd.Name
		out = append(out, domain.PersonaDataEntry{Entry: domaintypes.PersonaDataFullName, FullName: &name})
	}
	if len(pd.EmailAddresses) > 0 {
		out = append(out, domain.PersonaDataEntry{Entry: domaintypes.PersonaDataEmailAddresses, Values: pd.EmailAddresses})
	}
	if len(pd.PhoneNumbers) > 0 {
		out = append(out, domain.PersonaDataEntry{Entry: domaintypes.PersonaDataPhoneNumbers, Values: pd.PhoneNumbers})
	}
	return out
}

// MergeWalletData folds an authorized response into the stored wallet
// data. Grants absent from the response are kept unless the request reset
// them; proofs are replaced.
func MergeWalletData(prev domain.WalletData, request domain.InteractionItems, items domain.ResponseItems) domain.WalletData {
	next := FromWalletResponse(items)
	if next.Persona == nil {
		next.Persona = prev.Persona
	}
	resetAccounts := request.Reset != nil && request.Reset.Accounts
	resetPersonaData := request.Reset != nil && request.Reset.PersonaData
	if items.OngoingAccounts == nil && items.OneTimeAccounts == nil && !resetAccounts {
		next.Accounts = prev.Accounts
	}
	if items.OngoingPersonaData == nil && items.OneTimePersonaData == nil && !resetPersonaData {
		next.PersonaData = prev.PersonaData
	}
	return next
}

// ToSharedData records the ongoing grants an authorized request asked for.
func ToSharedData(request domain.InteractionItems) domain.SharedData {
	var sd domain.SharedData
	if a := request.Auth; a != nil {
		sd.Persona = &domaintypes.SharedPersona{Proof: a.Discriminator == domaintypes.AuthLoginWithChallenge}
	}
	if acc := request.OngoingAccounts; acc != nil {
		sd.OngoingAccounts = &domaintypes.SharedAccounts{
			NumberOfAccounts: acc.NumberOfAccounts,
			WithProof:        acc.Challenge != "",
		}
	}
	if pd := request.OngoingPersonaData; pd != nil {
		cp := *pd
		sd.OngoingPersonaData = &cp
	}
	return sd
}
