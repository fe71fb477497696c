package types

// RequestType classifies a ledger item.
type RequestType string

const (
	RequestLogin            RequestType = "loginRequest"
	RequestData             RequestType = "dataRequest"
	RequestSendTransaction  RequestType = "sendTransaction"
	RequestProof            RequestType = "proofRequest"
	RequestPreAuthorization RequestType = "preAuthorizationRequest"
)

// RequestStatus is the lifecycle state of a ledger item.
type RequestStatus string

const (
	StatusPending       RequestStatus = "pending"
	StatusPendingCommit RequestStatus = "pendingCommit"
	StatusSuccess       RequestStatus = "success"
	StatusFail          RequestStatus = "fail"
	StatusCancelled     RequestStatus = "cancelled"
	StatusIgnored       RequestStatus = "ignored"
	StatusTimedOut      RequestStatus = "timedOut"
)

// AwaitsWallet reports whether the item may still need the wallet payload.
func (s RequestStatus) AwaitsWallet() bool {
	return s == StatusPending || s == StatusPendingCommit
}

// IsTerminal reports whether no further transition is expected.
func (s RequestStatus) IsTerminal() bool { return !s.AwaitsWallet() }

// RequestItemMetadata carries per-type resolution data.
type RequestItemMetadata struct {
	SubintentHash               string `json:"subintentHash,omitempty"`
	SignedPartialTransaction    string `json:"signedPartialTransaction,omitempty"`
	ExpirationTimestamp         int64  `json:"expirationTimestamp,omitempty"`
	ParentTransactionIntentHash string `json:"parentTransactionIntentHash,omitempty"`
	TransactionStatus           string `json:"transactionStatus,omitempty"`
}

// IsZero reports whether no metadata field is set.
func (m RequestItemMetadata) IsZero() bool { return m == RequestItemMetadata{} }

// Merge overlays the non-empty fields of other onto m.
func (m RequestItemMetadata) Merge(other RequestItemMetadata) RequestItemMetadata {
	if other.SubintentHash != "" {
		m.SubintentHash = other.SubintentHash
	}
	if other.SignedPartialTransaction != "" {
		m.SignedPartialTransaction = other.SignedPartialTransaction
	}
	if other.ExpirationTimestamp != 0 {
		m.ExpirationTimestamp = other.ExpirationTimestamp
	}
	if other.ParentTransactionIntentHash != "" {
		m.ParentTransactionIntentHash = other.ParentTransactionIntentHash
	}
	if other.TransactionStatus != "" {
		m.TransactionStatus = other.TransactionStatus
	}
	return m
}

// RequestItem is one row of the request ledger.
type RequestItem struct {
	InteractionID         InteractionID              `json:"interactionId"`
	Type                  RequestType                `json:"type"`
	Status                RequestStatus              `json:"status"`
	CreatedAt             int64                      `json:"createdAt"`
	ShowCancel            bool                       `json:"showCancel"`
	IsOneTimeRequest      bool                       `json:"isOneTimeRequest,omitempty"`
	WalletInteraction     *WalletInteraction         `json:"walletInteraction,omitempty"`
	WalletResponse        *WalletInteractionResponse `json:"walletResponse,omitempty"`
	TransactionIntentHash string                     `json:"transactionIntentHash,omitempty"`
	Error                 ErrorType                  `json:"error,omitempty"`
	ErrorMessage          string                     `json:"errorMessage,omitempty"`
	Metadata              RequestItemMetadata        `json:"metadata"`
}

// SdkError converts a failed item into the error returned to callers.
func (r RequestItem) SdkError() *SdkError {
	t := r.Error
	if t == "" {
		switch r.Status {
		case StatusTimedOut:
			t = ErrorExpired
		case StatusIgnored, StatusCancelled:
			t = ErrorCanceledByUser
		default:
			t = ErrorRejectedByUser
		}
	}
	return &SdkError{
		Type:                  t,
		InteractionID:         r.InteractionID,
		Message:               r.ErrorMessage,
		TransactionIntentHash: r.TransactionIntentHash,
	}
}
