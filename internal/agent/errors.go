package agent

import (
	"errors"
	"fmt"
)

// Sentinel errors for orchestrator-level failures.
var (
	ErrMaxIterations    = errors.New("iteration limit reached")
	ErrContextCancelled = errors.New("context cancelled")
	ErrNoProvider       = errors.New("no LLM provider configured")
	ErrToolNotFound     = errors.New("tool not found")
	ErrToolTimeout      = errors.New("tool execution timed out")
)

// ToolErrorType categorizes a tool failure for logging and for the textual
// error marker returned to the model.
type ToolErrorType string

const (
	ToolErrorNotFound     ToolErrorType = "not_found"
	ToolErrorInvalidInput ToolErrorType = "invalid_input"
	ToolErrorTimeout      ToolErrorType = "timeout"
	ToolErrorNetwork      ToolErrorType = "network"
	ToolErrorPermission   ToolErrorType = "permission"
	ToolErrorPathConfined ToolErrorType = "path_confinement"
	ToolErrorDisabled     ToolErrorType = "disabled"
	ToolErrorExecution    ToolErrorType = "execution"
	ToolErrorPanic        ToolErrorType = "panic"
	ToolErrorUnknown      ToolErrorType = "unknown"
)

// ToolFailure is a structured tool error. Every ToolFailure has a textual
// marker form (Marker) that is what actually gets appended to the
// transcript as a tool result — the model only ever sees that string.
type ToolFailure struct {
	Type       ToolErrorType
	ToolName   string
	ToolCallID string
	Message    string
	Cause      error
}

func (e *ToolFailure) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Cause != nil {
		return e.Cause.Error()
	}
	return string(e.Type)
}

func (e *ToolFailure) Unwrap() error { return e.Cause }

// Marker renders the textual error string the spec requires: a fixed prefix
// followed by a human-readable message, so the calling model can react to
// it as an observation rather than a crash.
func (e *ToolFailure) Marker() string {
	return fmt.Sprintf("ERRO: %s", e.Error())
}

// NewToolFailure builds a ToolFailure of the given type wrapping cause.
func NewToolFailure(toolName string, typ ToolErrorType, cause error) *ToolFailure {
	return &ToolFailure{Type: typ, ToolName: toolName, Cause: cause}
}

// WithToolCallID sets the originating call id and returns the receiver for
// chaining.
func (e *ToolFailure) WithToolCallID(id string) *ToolFailure {
	e.ToolCallID = id
	return e
}

// WithMessage overrides the human-readable message and returns the receiver
// for chaining.
func (e *ToolFailure) WithMessage(msg string) *ToolFailure {
	e.Message = msg
	return e
}

// AsToolFailure unwraps err into a *ToolFailure if possible.
func AsToolFailure(err error) (*ToolFailure, bool) {
	var tf *ToolFailure
	if errors.As(err, &tf) {
		return tf, true
	}
	return nil, false
}

