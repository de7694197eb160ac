package resolver

import "fmt"

// Kind is the error taxonomy surfaced to callers.
type Kind int

const (
	// KindValidation: malformed query, fatal, never retried.
	KindValidation Kind = iota
	// KindNotFound: well-formed query with no match anywhere. Terminal
	// but not an error state for the end user.
	KindNotFound
	// KindBlocked: every scraping attempt ended in a challenge page.
	KindBlocked
	// KindUpstream: transport or HTTP failure that exhausted retries.
	KindUpstream
	// KindRegistry: the registry itself was unreachable or malformed.
	KindRegistry
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindBlocked:
		return "blocked"
	case KindUpstream:
		return "upstream"
	case KindRegistry:
		return "registry"
	default:
		return "unknown"
	}
}

// Error is a resolution failure with its taxonomy kind. Blocked and
// upstream errors carry the manual flight-status URL so a human can finish
// the lookup by hand.
type Error struct {
	Kind      Kind
	Message   string
	ManualURL string
	Err       error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("resolver: %s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("resolver: %s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}
