package dispatch

import "fmt"

// Kind classifies a dispatch failure. Every kind is converted to a structured
// tool result at the handler boundary; none of them is a process fault.
type Kind string

const (
	KindConfiguration Kind = "configuration"
	KindLookup        Kind = "lookup"
	KindValidation    Kind = "validation"
	KindTransport     Kind = "transport"
)

// CallError is a structured, non-fatal dispatch failure.
type CallError struct {
	Kind    Kind
	Message string
}

func (e *CallError) Error() string { return e.Message }

func errorf(kind Kind, format string, args ...any) *CallError {
	return &CallError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}
