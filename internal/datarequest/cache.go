package datarequest

import (
	"dappkit/internal/domain"
	domaintypes "dappkit/internal/domain/types"
)

// CanBeResolvedByState reports whether the stored state already answers
// req exactly, so no wallet round trip is needed. Only ongoing requests
// without challenge or reset on a connected state qualify.
func CanBeResolvedByState(req Request, st domain.RdtState, oneTime bool) bool {
	if oneTime || !st.IsConnected() || req.NeedsChallenge() || req.HasReset() {
		return false
	}
	shared := st.SharedData

	if a := req.Accounts; a != nil {
		granted := shared.OngoingAccounts
		if granted == nil || granted.WithProof || granted.NumberOfAccounts != a.NumberOfAccounts {
			return false
		}
		if !satisfies(a.NumberOfAccounts, len(st.WalletData.Accounts)) {
			return false
		}
	}

	if pd := req.PersonaData; pd != nil {
		granted := shared.OngoingPersonaData
		if granted == nil || !samePersonaData(*granted, *personaDataItem(pd)) {
			return false
		}
	}
	return true
}

func satisfies(n domaintypes.NumberOfValues, have int) bool {
	if n.Quantifier == domaintypes.QuantifierExactly {
		return have == n.Quantity
	}
	return have >= n.Quantity
}

func samePersonaData(a, b domaintypes.PersonaDataRequestItem) bool {
	return a.IsRequestingName == b.IsRequestingName &&
		sameCount(a.NumberOfRequestedEmailAddresses, b.NumberOfRequestedEmailAddresses) &&
		sameCount(a.NumberOfRequestedPhoneNumbers, b.NumberOfRequestedPhoneNumbers)
}

func sameCount(a, b *domaintypes.NumberOfValues) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
