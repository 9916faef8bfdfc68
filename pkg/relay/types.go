package relay

import (
	"bytes"
	"encoding/json"
)

// InflightState is the coarse status the block engine reports for a bundle it
// is still tracking.
type InflightState int

const (
	// InflightUnknown covers missing, empty and unrecognized status strings.
	InflightUnknown InflightState = iota
	InflightPending
	InflightLanded
	InflightFailed
	InflightInvalid
)

// ParseInflightState maps an engine status string to its state.
func ParseInflightState(s string) InflightState {
	switch s {
	case "Pending":
		return InflightPending
	case "Landed":
		return InflightLanded
	case "Failed":
		return InflightFailed
	case "Invalid":
		return InflightInvalid
	default:
		return InflightUnknown
	}
}

// String returns the engine spelling of the state.
func (s InflightState) String() string {
	switch s {
	case InflightPending:
		return "Pending"
	case InflightLanded:
		return "Landed"
	case InflightFailed:
		return "Failed"
	case InflightInvalid:
		return "Invalid"
	default:
		return "Unknown"
	}
}

// ConfirmationTier is the ledger commitment a transaction or bundle reached.
type ConfirmationTier int

const (
	// TierUnknown covers missing and unrecognized confirmation strings.
	TierUnknown ConfirmationTier = iota
	TierProcessed
	TierConfirmed
	TierFinalized
)

// ParseConfirmationTier maps a ledger commitment string to its tier.
func ParseConfirmationTier(s string) ConfirmationTier {
	switch s {
	case "processed":
		return TierProcessed
	case "confirmed":
		return TierConfirmed
	case "finalized":
		return TierFinalized
	default:
		return TierUnknown
	}
}

// String returns the ledger spelling of the tier.
func (t ConfirmationTier) String() string {
	switch t {
	case TierProcessed:
		return "processed"
	case TierConfirmed:
		return "confirmed"
	case TierFinalized:
		return "finalized"
	default:
		return "unknown"
	}
}

// InflightStatus is one entry of a getInflightBundleStatuses response.
type InflightStatus struct {
	BundleID   string  `json:"bundle_id"`
	Status     string  `json:"status"`
	LandedSlot *uint64 `json:"landed_slot"`
}

// State returns the parsed status.
func (s *InflightStatus) State() InflightState {
	return ParseInflightState(s.Status)
}

// BundleStatus is one entry of a getBundleStatuses response.
type BundleStatus struct {
	BundleID           string          `json:"bundle_id"`
	Transactions       []string        `json:"transactions"`
	Slot               uint64          `json:"slot"`
	ConfirmationStatus string          `json:"confirmation_status"`
	Err                json.RawMessage `json:"err"`
}

// Tier returns the parsed confirmation status.
func (s *BundleStatus) Tier() ConfirmationTier {
	return ParseConfirmationTier(s.ConfirmationStatus)
}

// ExecutionError returns the error payload, or nil when execution succeeded.
func (s *BundleStatus) ExecutionError() json.RawMessage {
	return ExecutionError(s.Err)
}

// PrimarySignature returns the first transaction signature of the bundle.
func (s *BundleStatus) PrimarySignature() string {
	if len(s.Transactions) == 0 {
		return ""
	}
	return s.Transactions[0]
}

// ExecutionError inspects a raw execution result and returns it when it
// denotes a failure. Absent payloads, JSON null and the {"Ok": null} result
// encoding are all clean and yield nil.
func ExecutionError(raw json.RawMessage) json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	var result map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &result); err == nil && len(result) == 1 {
		if ok, found := result["Ok"]; found && isNull(ok) {
			return nil
		}
	}
	return trimmed
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
