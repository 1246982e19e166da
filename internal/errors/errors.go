package errors

import (
	stdErrors "errors"
	"fmt"
)

// Code classifies failures raised across the agent.
type Code string

const (
	CodeUnknown             Code = "UNKNOWN"
	CodeConfiguration       Code = "CONFIGURATION"
	CodeCollaboratorTimeout Code = "COLLABORATOR_TIMEOUT"
	CodeToolInvocation      Code = "TOOL_INVOCATION"
	CodeParse               Code = "PARSE"
	CodeTerminalStep        Code = "TERMINAL_STEP"
)

// Attributes describes the default behaviour attached to a code.
type Attributes struct {
	Message   string
	Retryable bool
	// Fatal errors abort a run before any work starts.
	Fatal bool
}

var registry = map[Code]Attributes{
	CodeUnknown:             {Message: "unknown error"},
	CodeConfiguration:       {Message: "invalid configuration", Fatal: true},
	CodeCollaboratorTimeout: {Message: "collaborator timed out"},
	CodeToolInvocation:      {Message: "tool invocation failed", Retryable: true},
	CodeParse:               {Message: "unexpected response shape"},
	CodeTerminalStep:        {Message: "terminal step failed"},
}

// AttributesOf returns the attributes of code, falling back to UNKNOWN.
func AttributesOf(code Code) Attributes {
	if attr, ok := registry[code]; ok {
		return attr
	}
	return registry[CodeUnknown]
}

// Error is the coded error type shared by all layers.
type Error struct {
	code      Code
	message   string
	cause     error
	metadata  map[string]string
	retryable *bool
}

// Option customises an Error at construction.
type Option func(*Error)

// WithMetadata attaches a key/value pair.
func WithMetadata(key, value string) Option {
	return func(e *Error) {
		if e.metadata == nil {
			e.metadata = make(map[string]string)
		}
		e.metadata[key] = value
	}
}

// WithRetryable overrides the code's default retry behaviour.
func WithRetryable(retryable bool) Option {
	return func(e *Error) {
		e.retryable = &retryable
	}
}

// New creates a coded error. An empty message uses the code default.
func New(code Code, message string, opts ...Option) *Error {
	if message == "" {
		message = AttributesOf(code).Message
	}
	e := &Error{code: code, message: message}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// Wrap creates a coded error around cause.
func Wrap(code Code, cause error, message string, opts ...Option) *Error {
	e := New(code, message, opts...)
	e.cause = cause
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// Is matches any *Error carrying the same code.
func (e *Error) Is(target error) bool {
	if e == nil || target == nil {
		return false
	}
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.code == t.code
}

// Code returns the error code.
func (e *Error) Code() Code {
	if e == nil {
		return CodeUnknown
	}
	return e.code
}

// Message returns the message without the cause.
func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

// Metadata returns a copy of the attached metadata.
func (e *Error) Metadata() map[string]string {
	if e == nil || len(e.metadata) == 0 {
		return nil
	}
	clone := make(map[string]string, len(e.metadata))
	for k, v := range e.metadata {
		clone[k] = v
	}
	return clone
}

// Retryable reports whether the operation may be attempted again.
func (e *Error) Retryable() bool {
	if e == nil {
		return false
	}
	if e.retryable != nil {
		return *e.retryable
	}
	return AttributesOf(e.code).Retryable
}

// From extracts the first *Error in err's chain.
func From(err error) (*Error, bool) {
	if err == nil {
		return nil, false
	}
	var target *Error
	if stdErrors.As(err, &target) {
		return target, true
	}
	return nil, false
}

// CodeOf returns the code of err, or UNKNOWN.
func CodeOf(err error) Code {
	if e, ok := From(err); ok {
		return e.Code()
	}
	return CodeUnknown
}

// IsCode reports whether err carries code anywhere in its chain.
func IsCode(err error, code Code) bool {
	return stdErrors.Is(err, &Error{code: code})
}

// RetryableError reports whether err is a retryable coded error.
// Uncoded errors are treated as transient.
func RetryableError(err error) bool {
	if err == nil {
		return false
	}
	if e, ok := From(err); ok {
		return e.Retryable()
	}
	return true
}

// IsFatal reports whether err must abort the run before it starts.
func IsFatal(err error) bool {
	if e, ok := From(err); ok {
		return AttributesOf(e.Code()).Fatal
	}
	return false
}
