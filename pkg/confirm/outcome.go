package confirm

import "fmt"

// OutcomeKind is the terminal result of a polling session.
type OutcomeKind int

const (
	// OutcomeSuccess means the phase reached its goal.
	OutcomeSuccess OutcomeKind = iota

	// OutcomeFailure means a fatal status, error or cancellation ended the session.
	OutcomeFailure

	// OutcomeExhausted means the attempt budget ran out first.
	OutcomeExhausted
)

// String returns the outcome name.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeFailure:
		return "failure"
	case OutcomeExhausted:
		return "exhausted"
	default:
		return fmt.Sprintf("outcome(%d)", int(k))
	}
}

// Outcome is the single result of a polling session.
type Outcome struct {
	Kind OutcomeKind

	// Signature is the primary transaction signature on success of a
	// finality or signature phase.
	Signature string

	// Slot is the landed slot (Phase 1) or the ledger slot (Phase 2) when
	// reported.
	Slot uint64

	// Phase is the phase the session ended in.
	Phase Phase

	// Attempts is the number of queries made in that phase.
	Attempts int

	// LastStatus is the raw status string of the last answered query.
	LastStatus string
}

// Succeeded reports whether the session succeeded.
func (o Outcome) Succeeded() bool {
	return o.Kind == OutcomeSuccess
}
