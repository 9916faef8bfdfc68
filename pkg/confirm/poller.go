// Package confirm tracks submitted bundles and transactions until they are
// finalized on the ledger.
//
// Bundles go through two phases. Phase 1 polls the block engine's in-flight
// view until the bundle lands or fails. Phase 2 polls the ledger view of the
// landed bundle until it is finalized without an execution error. Plain
// transactions skip Phase 1 and poll the ledger signature status directly.
//
// Each phase has its own attempt budget. Running out of attempts is reported
// as OutcomeExhausted, distinct from a fatal OutcomeFailure.
package confirm

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fortiblox/jito-relay/pkg/ledger"
	"github.com/fortiblox/jito-relay/pkg/relay"
)

var log = logrus.WithField("module", "confirm")

// BundleSource answers bundle status queries.
type BundleSource interface {
	GetInflightBundleStatuses(ctx context.Context, ids []string) ([]*relay.InflightStatus, error)
	GetBundleStatuses(ctx context.Context, ids []string) ([]*relay.BundleStatus, error)
}

// SignatureSource answers transaction status queries.
type SignatureSource interface {
	GetSignatureStatus(ctx context.Context, signature string) (*ledger.SignatureStatus, error)
}

// Poller drives polling sessions. It holds no per-session state and is safe
// for concurrent use.
type Poller struct {
	bundles    BundleSource
	signatures SignatureSource
	config     Config

	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a poller. Either source may be nil when the caller only tracks
// the other kind of submission.
func New(bundles BundleSource, signatures SignatureSource, config Config) *Poller {
	return &Poller{
		bundles:    bundles,
		signatures: signatures,
		config:     config.WithDefaults(),
		sleep:      sleepContext,
	}
}

// Config returns the effective polling budgets.
func (p *Poller) Config() Config {
	return p.config
}

func sleepContext(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// verdict is what a single observation means for the session.
type verdict int

const (
	keepPolling verdict = iota
	reached
	fatal
)

// observation is the interpreted answer to one status query.
type observation struct {
	verdict verdict

	// state is the normalized state name used as metric label.
	state string

	// raw is the status string as reported.
	raw string

	signature string
	slot      uint64
	payload   json.RawMessage
	cause     error
}

type probe func(ctx context.Context, entry *logrus.Entry) (observation, error)

// WaitForBundle tracks a bundle through both phases and returns the outcome
// of the phase the session ended in.
func (p *Poller) WaitForBundle(ctx context.Context, bundleID string) (Outcome, error) {
	outcome, err := p.PollInflight(ctx, bundleID)
	if err != nil {
		return outcome, err
	}
	return p.PollFinality(ctx, bundleID)
}

// PollInflight runs Phase 1: it succeeds once the engine reports the bundle
// landed.
func (p *Poller) PollInflight(ctx context.Context, bundleID string) (Outcome, error) {
	if p.bundles == nil {
		return Outcome{Kind: OutcomeFailure, Phase: PhaseInflight},
			&PollError{Phase: PhaseInflight, ID: bundleID, Err: errors.New("no bundle source configured")}
	}
	return p.run(ctx, PhaseInflight, bundleID, p.config.Inflight, p.inflightProbe(bundleID))
}

// PollFinality runs Phase 2 for a landed bundle: it succeeds once the ledger
// reports the bundle finalized without an execution error.
func (p *Poller) PollFinality(ctx context.Context, bundleID string) (Outcome, error) {
	if p.bundles == nil {
		return Outcome{Kind: OutcomeFailure, Phase: PhaseFinality},
			&PollError{Phase: PhaseFinality, ID: bundleID, Err: errors.New("no bundle source configured")}
	}
	return p.run(ctx, PhaseFinality, bundleID, p.config.Finality, p.finalityProbe(bundleID))
}

// WaitForTransaction tracks a plain transaction on the ledger until it is
// finalized without an execution error.
func (p *Poller) WaitForTransaction(ctx context.Context, signature string) (Outcome, error) {
	if p.signatures == nil {
		return Outcome{Kind: OutcomeFailure, Phase: PhaseSignature},
			&PollError{Phase: PhaseSignature, ID: signature, Err: errors.New("no signature source configured")}
	}
	return p.run(ctx, PhaseSignature, signature, p.config.Signature, p.signatureProbe(signature))
}

// run is the attempt loop shared by every phase: query, interpret, wait.
func (p *Poller) run(ctx context.Context, phase Phase, id string, budget PhaseConfig, query probe) (Outcome, error) {
	outcome := Outcome{Phase: phase}

	fail := func(kind OutcomeKind, err *PollError) (Outcome, error) {
		outcome.Kind = kind
		err.Phase = phase
		err.ID = id
		err.Attempt = outcome.Attempts
		err.LastStatus = outcome.LastStatus
		outcomesTotal.WithLabelValues(phase.String(), kind.String()).Inc()
		return outcome, err
	}

	for attempt := 1; attempt <= budget.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return fail(OutcomeFailure, &PollError{Err: err})
		}

		outcome.Attempts = attempt
		entry := log.WithFields(logrus.Fields{
			"phase":   phase,
			"id":      id,
			"attempt": attempt,
			"max":     budget.MaxAttempts,
		})

		obs, err := query(ctx, entry)
		switch {
		case err != nil:
			if ctxErr := ctx.Err(); ctxErr != nil {
				return fail(OutcomeFailure, &PollError{Err: ctxErr})
			}
			attemptsTotal.WithLabelValues(phase.String(), "error").Inc()
			if !relay.IsRetryable(err) {
				entry.WithError(err).Error("status query failed")
				return fail(OutcomeFailure, &PollError{Err: err})
			}
			entry.WithError(err).Warn("status query failed, retrying")

		default:
			attemptsTotal.WithLabelValues(phase.String(), obs.state).Inc()
			if obs.raw != "" {
				outcome.LastStatus = obs.raw
			}
			if obs.slot != 0 {
				outcome.Slot = obs.slot
			}

			switch obs.verdict {
			case reached:
				outcome.Kind = OutcomeSuccess
				outcome.Signature = obs.signature
				outcomesTotal.WithLabelValues(phase.String(), OutcomeSuccess.String()).Inc()
				return outcome, nil
			case fatal:
				return fail(OutcomeFailure, &PollError{Err: obs.cause, Payload: obs.payload})
			case keepPolling:
			}
		}

		if attempt < budget.MaxAttempts {
			if err := p.sleep(ctx, budget.delay(attempt)); err != nil {
				return fail(OutcomeFailure, &PollError{Err: err})
			}
		}
	}

	log.WithFields(logrus.Fields{
		"phase":    phase,
		"id":       id,
		"attempts": outcome.Attempts,
		"last":     outcome.LastStatus,
	}).Warn("polling attempts exhausted")
	return fail(OutcomeExhausted, &PollError{Err: ErrExhausted})
}

// inflightProbe interprets the engine's in-flight view of a bundle.
func (p *Poller) inflightProbe(bundleID string) probe {
	return func(ctx context.Context, entry *logrus.Entry) (observation, error) {
		statuses, err := p.bundles.GetInflightBundleStatuses(ctx, []string{bundleID})
		if err != nil {
			return observation{}, err
		}
		if len(statuses) == 0 || statuses[0] == nil {
			entry.Warn("bundle not yet visible to the block engine")
			return observation{state: "missing"}, nil
		}

		status := statuses[0]
		state := status.State()
		obs := observation{state: state.String(), raw: status.Status}
		if status.LandedSlot != nil {
			obs.slot = *status.LandedSlot
		}

		switch state {
		case relay.InflightLanded:
			entry.WithField("slot", obs.slot).Info("bundle landed")
			obs.verdict = reached
		case relay.InflightPending:
			entry.Info("bundle pending")
		case relay.InflightFailed:
			entry.Error("bundle failed")
			obs.verdict = fatal
			obs.cause = ErrBundleFailed
		case relay.InflightInvalid:
			entry.Warn("bundle reported invalid, continuing")
		case relay.InflightUnknown:
			entry.WithField("status", status.Status).Warn("unexpected in-flight status")
		}
		return obs, nil
	}
}

// finalityProbe interprets the ledger view of a landed bundle.
func (p *Poller) finalityProbe(bundleID string) probe {
	return func(ctx context.Context, entry *logrus.Entry) (observation, error) {
		statuses, err := p.bundles.GetBundleStatuses(ctx, []string{bundleID})
		if err != nil {
			return observation{}, err
		}
		if len(statuses) == 0 || statuses[0] == nil {
			entry.Warn("bundle not yet visible on the ledger")
			return observation{state: "missing"}, nil
		}

		status := statuses[0]
		obs := ledgerObservation(entry, status.Tier(), status.ConfirmationStatus, status.ExecutionError())
		obs.slot = status.Slot
		if obs.verdict == reached {
			obs.signature = status.PrimarySignature()
			if obs.signature == "" {
				entry.Warn("finalized bundle carries no transactions")
			}
		}
		return obs, nil
	}
}

// signatureProbe interprets the ledger view of a plain transaction.
func (p *Poller) signatureProbe(signature string) probe {
	return func(ctx context.Context, entry *logrus.Entry) (observation, error) {
		status, err := p.signatures.GetSignatureStatus(ctx, signature)
		if err != nil {
			return observation{}, err
		}
		if status == nil {
			entry.Warn("transaction not yet visible on the ledger")
			return observation{state: "missing"}, nil
		}

		obs := ledgerObservation(entry, status.Tier(), status.ConfirmationStatus, status.ExecutionError())
		obs.slot = status.Slot
		if obs.verdict == reached {
			obs.signature = signature
		}
		return obs, nil
	}
}

// ledgerObservation applies the Phase 2 rules to a confirmation tier and its
// execution error payload.
func ledgerObservation(entry *logrus.Entry, tier relay.ConfirmationTier, raw string, execErr json.RawMessage) observation {
	obs := observation{state: tier.String(), raw: raw}

	switch tier {
	case relay.TierConfirmed, relay.TierFinalized:
		if execErr != nil {
			entry.WithField("err", string(execErr)).Error("execution failed")
			obs.verdict = fatal
			obs.cause = ErrExecution
			obs.payload = execErr
			return obs
		}
		if tier == relay.TierFinalized {
			entry.Info("finalized")
			obs.verdict = reached
		} else {
			entry.Info("confirmed, waiting for finalization")
		}
	case relay.TierProcessed:
		entry.Info("processed, waiting for confirmation")
	case relay.TierUnknown:
		entry.WithField("status", raw).Warn("unexpected confirmation status")
	}
	return obs
}
