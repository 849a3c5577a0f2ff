package procerr

import "fmt"

// Error types group stable error IDs into the four failure categories the
// pipeline distinguishes. Clients branch on ID, the type is informational.
const (
	TypeValidation  = "validation"
	TypeNeuralAPI   = "neural_api"
	TypePersistence = "database"
	TypeSystem      = "system"
)

// Error is the structured failure value used across the pipeline. It is both
// the internal error-signaling type and the shape serialized to clients.
type Error struct {
	ID          string   `json:"error_id"`
	Type        string   `json:"error_type"`
	Message     string   `json:"message"`
	Details     string   `json:"details,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

func (e *Error) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.ID, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.ID, e.Message)
}

func New(id, errType, message string) *Error {
	return &Error{ID: id, Type: errType, Message: message}
}

func (e *Error) WithDetails(details string) *Error {
	e.Details = details
	return e
}

func (e *Error) WithSuggestions(suggestions ...string) *Error {
	e.Suggestions = suggestions
	return e
}

// Truncate bounds externally sourced text before it lands in Details, so an
// untrusted upstream body cannot be echoed unbounded.
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
