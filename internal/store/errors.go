package store

import "fmt"

// Reason classifies a storage failure.
type Reason string

const (
	ReasonRead     Reason = "FailedToReadFromStorage"
	ReasonWrite    Reason = "FailedToWriteToStorage"
	ReasonDecode   Reason = "FailedToDecodeStoredValue"
	ReasonEncode   Reason = "FailedToEncodeValue"
	ReasonNotFound Reason = "ItemNotFound"
)

// Error is returned by every Storage operation that fails.
type Error struct {
	Reason Reason
	Key    string
	Err    error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("store %s: %s", e.Key, e.Reason)
	}
	return fmt.Sprintf("store %s: %s: %v", e.Key, e.Reason, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error by Reason.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Reason == e.Reason
}

// ErrNotFound matches any ReasonNotFound error via errors.Is.
var ErrNotFound = &Error{Reason: ReasonNotFound}
