package transport

import "fmt"

// Kind classifies a backend failure by the operation it broke.
type Kind string

const (
	KindSession  Kind = "session"
	KindSend     Kind = "send"
	KindFetch    Kind = "fetch"
	KindFeedback Kind = "feedback"
)

// Error is a failed backend call. Message is human-readable, already
// normalized from whatever shape the backend reported.
type Error struct {
	Kind       Kind
	StatusCode int
	Message    string
	Details    []string
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s error (status %d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
}

// newError wraps a transport failure with its operation kind.
func newError(kind Kind, status int, msg string, details []string) *Error {
	if msg == "" {
		if len(details) > 0 {
			msg = details[0]
		} else {
			msg = "request failed"
		}
	}
	return &Error{Kind: kind, StatusCode: status, Message: msg, Details: details}
}
