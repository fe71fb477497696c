package types

import (
	"fmt"
	"strings"
)

// ErrorType is the wire/error-taxonomy name of a failure.
type ErrorType string

const (
	// user driven
	ErrorRejectedByUser ErrorType = "rejectedByUser"
	ErrorCanceledByUser ErrorType = "canceledByUser"

	// environment
	ErrorMissingExtension           ErrorType = "missingExtension"
	ErrorUnhandledEnvironment       ErrorType = "UnhandledEnvironment"
	ErrorWrongNetwork               ErrorType = "wrongNetwork"
	ErrorSupportedTransportNotFound ErrorType = "SupportedTransportNotFound"

	// protocol / validation
	ErrorWalletRequestValidation  ErrorType = "walletRequestValidation"
	ErrorWalletResponseValidation ErrorType = "walletResponseValidation"
	ErrorInvalidPersona           ErrorType = "invalidPersona"
	ErrorInvalidChallenge         ErrorType = "invalidChallenge"
	ErrorFailedToSendMessage      ErrorType = "failedToSendMessage"

	// crypto / session
	ErrorFailedToDeriveSharedSecret        ErrorType = "FailedToDeriveSharedSecret"
	ErrorFailedToDecryptWalletResponseData ErrorType = "FailedToDecryptWalletResponseData"
	ErrorDappIdentityNotFound              ErrorType = "DappIdentityNotFound"
	ErrorFailedToCreateSignature           ErrorType = "FailedToCreateSignature"
	ErrorFailedToReadSession               ErrorType = "FailedToReadSession"

	// transaction lifecycle
	ErrorFailedToSubmitTransaction                        ErrorType = "failedToSubmitTransaction"
	ErrorFailedToPollSubmittedTransaction                 ErrorType = "failedToPollSubmittedTransaction"
	ErrorSubmittedTransactionHasFailedTransactionStatus   ErrorType = "submittedTransactionHasFailedTransactionStatus"
	ErrorSubmittedTransactionHasRejectedTransactionStatus ErrorType = "submittedTransactionHasRejectedTransactionStatus"
	ErrorExpired                                          ErrorType = "expired"
)

// SdkError is the failure value returned by every public protocol operation.
type SdkError struct {
	Type                  ErrorType     `json:"error"`
	InteractionID         InteractionID `json:"interactionId,omitempty"`
	Message               string        `json:"message,omitempty"`
	TransactionIntentHash string        `json:"transactionIntentHash,omitempty"`
	Err                   error         `json:"-"`
}

// NewSdkError builds an SdkError.
func NewSdkError(t ErrorType, id InteractionID, message string) *SdkError {
	return &SdkError{Type: t, InteractionID: id, Message: message}
}

// WrapSdkError builds an SdkError carrying the underlying cause.
func WrapSdkError(t ErrorType, id InteractionID, err error) *SdkError {
	e := &SdkError{Type: t, InteractionID: id, Err: err}
	if err != nil {
		e.Message = err.Error()
	}
	return e
}

func (e *SdkError) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Type))
	if e.InteractionID != "" {
		fmt.Fprintf(&b, " (interaction %s)", e.InteractionID)
	}
	if e.TransactionIntentHash != "" {
		fmt.Fprintf(&b, " [tx %s]", e.TransactionIntentHash)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

func (e *SdkError) Unwrap() error { return e.Err }

// Is matches another SdkError by Type, so callers can write
// errors.Is(err, types.NewSdkError(types.ErrorCanceledByUser, "", "")).
func (e *SdkError) Is(target error) bool {
	t, ok := target.(*SdkError)
	if !ok {
		return false
	}
	return t.Type == e.Type
}
