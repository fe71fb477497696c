package types

// TransactionStatus is the gateway's view of a transaction intent.
type TransactionStatus string

const (
	TransactionUnknown          TransactionStatus = "Unknown"
	TransactionPending          TransactionStatus = "Pending"
	TransactionCommittedSuccess TransactionStatus = "CommittedSuccess"
	TransactionCommittedFailure TransactionStatus = "CommittedFailure"
	TransactionRejected         TransactionStatus = "Rejected"
)

// IsFinal reports whether the status will not change any more.
func (s TransactionStatus) IsFinal() bool {
	switch s {
	case TransactionCommittedSuccess, TransactionCommittedFailure, TransactionRejected:
		return true
	}
	return false
}

// SubintentStatus is the gateway's view of a subintent.
type SubintentStatus string

const (
	SubintentUnknown          SubintentStatus = "Unknown"
	SubintentCommittedSuccess SubintentStatus = "CommittedSuccess"
)

// TransactionStatusResponse is the body of POST /transaction/status.
type TransactionStatusResponse struct {
	Status       TransactionStatus `json:"status"`
	IntentStatus string            `json:"intent_status,omitempty"`
	ErrorMessage string            `json:"error_message,omitempty"`
}

// SubintentStatusResponse is the body of POST /transaction/subintent-status.
type SubintentStatusResponse struct {
	SubintentStatus                  SubintentStatus `json:"subintent_status"`
	FinalizedAtTransactionIntentHash string          `json:"finalized_at_transaction_intent_hash,omitempty"`
}
