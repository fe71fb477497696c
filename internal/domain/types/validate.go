package types

import (
	"errors"
	"fmt"
	"regexp"
)

var challengePattern = regexp.MustCompile(`^[0-9a-f]{64}$`)

// IsValidChallenge reports whether s is 32 bytes of lowercase hex.
func IsValidChallenge(s string) bool { return challengePattern.MatchString(s) }

// Validate checks the interaction against the wire schema.
func (w WalletInteraction) Validate() error {
	if w.InteractionID == "" {
		return errors.New("interactionId is required")
	}
	if err := w.Metadata.Validate(); err != nil {
		return err
	}
	return w.Items.Validate()
}

// Validate checks the metadata block.
func (m Metadata) Validate() error {
	switch {
	case m.Version != InteractionVersion:
		return fmt.Errorf("metadata.version: want %d, got %d", InteractionVersion, m.Version)
	case m.NetworkID <= 0:
		return errors.New("metadata.networkId must be positive")
	case m.DAppDefinitionAddress == "":
		return errors.New("metadata.dAppDefinitionAddress is required")
	case m.Origin == "":
		return errors.New("metadata.origin is required")
	}
	return nil
}

// Validate checks that the populated fields match the discriminator.
func (it InteractionItems) Validate() error {
	hasAuthorizedOnly := it.Auth != nil || it.Reset != nil || it.ProofOfOwnership != nil ||
		it.OngoingAccounts != nil || it.OngoingPersonaData != nil
	hasOneTime := it.OneTimeAccounts != nil || it.OneTimePersonaData != nil

	switch it.Discriminator {
	case ItemsUnauthorizedRequest:
		if hasAuthorizedOnly || it.Send != nil || it.Request != nil {
			return errors.New("unauthorizedRequest may only carry one-time items")
		}
		if !hasOneTime {
			return errors.New("unauthorizedRequest carries no items")
		}
		return it.validateDataItems()
	case ItemsAuthorizedRequest:
		if it.Send != nil || it.Request != nil {
			return errors.New("authorizedRequest may not carry transaction items")
		}
		if it.Auth == nil {
			return errors.New("authorizedRequest requires auth")
		}
		if err := it.Auth.Validate(); err != nil {
			return err
		}
		if it.ProofOfOwnership != nil {
			if !IsValidChallenge(it.ProofOfOwnership.Challenge) {
				return errors.New("proofOfOwnership.challenge is malformed")
			}
			if it.ProofOfOwnership.IdentityAddress == "" && len(it.ProofOfOwnership.AccountAddresses) == 0 {
				return errors.New("proofOfOwnership requires an identity or account address")
			}
		}
		return it.validateDataItems()
	case ItemsTransaction:
		if hasAuthorizedOnly || hasOneTime || it.Request != nil {
			return errors.New("transaction may only carry send")
		}
		if it.Send == nil || it.Send.TransactionManifest == "" {
			return errors.New("transaction requires send.transactionManifest")
		}
		if it.Send.Version <= 0 {
			return errors.New("send.version must be positive")
		}
		return nil
	case ItemsPreAuthorizationRequest:
		if hasAuthorizedOnly || hasOneTime || it.Send != nil {
			return errors.New("preAuthorizationRequest may only carry request")
		}
		if it.Request == nil {
			return errors.New("preAuthorizationRequest requires request")
		}
		return it.Request.Validate()
	case ItemsCancelRequest:
		if hasAuthorizedOnly || hasOneTime || it.Send != nil || it.Request != nil {
			return errors.New("cancelRequest carries no items")
		}
		return nil
	default:
		return fmt.Errorf("unknown items discriminator %q", it.Discriminator)
	}
}

func (it InteractionItems) validateDataItems() error {
	for _, acc := range []*AccountsRequestItem{it.OngoingAccounts, it.OneTimeAccounts} {
		if acc == nil {
			continue
		}
		if err := acc.NumberOfAccounts.Validate(); err != nil {
			return fmt.Errorf("numberOfAccounts: %w", err)
		}
		if acc.Challenge != "" && !IsValidChallenge(acc.Challenge) {
			return errors.New("accounts challenge is malformed")
		}
	}
	for _, pd := range []*PersonaDataRequestItem{it.OngoingPersonaData, it.OneTimePersonaData} {
		if pd == nil {
			continue
		}
		for _, n := range []*NumberOfValues{pd.NumberOfRequestedEmailAddresses, pd.NumberOfRequestedPhoneNumbers} {
			if n == nil {
				continue
			}
			if err := n.Validate(); err != nil {
				return fmt.Errorf("personaData: %w", err)
			}
		}
	}
	return nil
}

// Validate checks the auth request variant.
func (a AuthRequestItem) Validate() error {
	switch a.Discriminator {
	case AuthLoginWithoutChallenge:
		return nil
	case AuthLoginWithChallenge:
		if !IsValidChallenge(a.Challenge) {
			return errors.New("auth.challenge is malformed")
		}
		return nil
	case AuthUsePersona:
		if a.IdentityAddress == "" {
			return errors.New("auth.identityAddress is required for usePersona")
		}
		return nil
	default:
		return fmt.Errorf("unknown auth discriminator %q", a.Discriminator)
	}
}

// Validate checks the quantifier/quantity pair.
func (n NumberOfValues) Validate() error {
	switch n.Quantifier {
	case QuantifierExactly, QuantifierAtLeast:
	default:
		return fmt.Errorf("unknown quantifier %q", n.Quantifier)
	}
	if n.Quantity < 0 {
		return errors.New("quantity must not be negative")
	}
	if n.Quantifier == QuantifierExactly && n.Quantity == 0 {
		return errors.New("exactly requires a positive quantity")
	}
	return nil
}

// Validate checks the subintent request.
func (r SubintentRequestItem) Validate() error {
	if r.Discriminator != SubintentDiscriminator {
		return fmt.Errorf("unknown request discriminator %q", r.Discriminator)
	}
	if r.SubintentManifest == "" {
		return errors.New("request.subintentManifest is required")
	}
	switch r.Expiration.Discriminator {
	case ExpireAtTime:
		if r.Expiration.UnixTimestampSeconds <= 0 {
			return errors.New("expiration.unixTimestampSeconds must be positive")
		}
	case ExpireAfterDelay:
		if r.Expiration.ExpireAfterSeconds <= 0 {
			return errors.New("expiration.expireAfterSeconds must be positive")
		}
	default:
		return fmt.Errorf("unknown expiration discriminator %q", r.Expiration.Discriminator)
	}
	return nil
}

// Validate checks the response against the wire schema.
func (r WalletInteractionResponse) Validate() error {
	if r.InteractionID == "" {
		return errors.New("interactionId is required")
	}
	switch r.Discriminator {
	case ResponseFailure:
		if r.Error == "" {
			return errors.New("failure requires error")
		}
		return nil
	case ResponseSuccess:
		if r.Items == nil {
			return errors.New("success requires items")
		}
		return r.Items.Validate()
	default:
		return fmt.Errorf("unknown response discriminator %q", r.Discriminator)
	}
}

// Validate checks that the populated fields match the discriminator.
func (it ResponseItems) Validate() error {
	switch it.Discriminator {
	case ResponseItemsAuthorizedRequest:
		if it.Auth == nil || it.Auth.Persona.IdentityAddress == "" {
			return errors.New("authorizedRequest response requires auth.persona")
		}
		if it.Auth.Discriminator == AuthLoginWithChallenge && (it.Auth.Proof == nil || it.Auth.Challenge == "") {
			return errors.New("loginWithChallenge response requires challenge and proof")
		}
		return nil
	case ResponseItemsUnauthorizedRequest:
		if it.Auth != nil || it.OngoingAccounts != nil || it.OngoingPersonaData != nil {
			return errors.New("unauthorizedRequest response may only carry one-time items")
		}
		return nil
	case ResponseItemsTransaction:
		if it.Send == nil || it.Send.TransactionIntentHash == "" {
			return errors.New("transaction response requires send.transactionIntentHash")
		}
		return nil
	case ResponseItemsPreAuthorizationResponse:
		if it.Response == nil || it.Response.SubintentHash == "" || it.Response.SignedPartialTransaction == "" {
			return errors.New("preAuthorizationResponse requires subintentHash and signedPartialTransaction")
		}
		return nil
	default:
		return fmt.Errorf("unknown response items discriminator %q", it.Discriminator)
	}
}
