package confirm

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Terminal failure causes. A *PollError wraps exactly one of these, a
// transport error the poller could not retry, or the context's error.
var (
	// ErrBundleFailed is returned when the engine reports the bundle failed.
	ErrBundleFailed = errors.New("bundle failed")

	// ErrExecution is returned when the ledger reports an execution error.
	ErrExecution = errors.New("execution error")

	// ErrExhausted is returned when a phase used its attempt budget without
	// reaching a terminal status.
	ErrExhausted = errors.New("polling attempts exhausted")
)

// Phase identifies a polling phase.
type Phase int

const (
	// PhaseInflight polls the engine's view of a submitted bundle.
	PhaseInflight Phase = iota

	// PhaseFinality polls the ledger view of a landed bundle.
	PhaseFinality

	// PhaseSignature polls the ledger view of a plain transaction.
	PhaseSignature
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseInflight:
		return "inflight"
	case PhaseFinality:
		return "finality"
	case PhaseSignature:
		return "signature"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// PollError describes why a polling session ended without success.
type PollError struct {
	Phase      Phase
	ID         string
	Attempt    int
	LastStatus string

	// Payload is the raw execution error when Err is ErrExecution.
	Payload json.RawMessage

	Err error
}

// Error implements the error interface.
func (e *PollError) Error() string {
	msg := fmt.Sprintf("%s %s: attempt %d", e.Phase, e.ID, e.Attempt)
	if e.LastStatus != "" {
		msg += fmt.Sprintf(" (last status %s)", e.LastStatus)
	}
	msg += ": " + e.Err.Error()
	if len(e.Payload) > 0 {
		msg += ": " + string(e.Payload)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *PollError) Unwrap() error {
	return e.Err
}
