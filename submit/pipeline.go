// Package submit drives a single transaction through the network:
// Built → Signed → Sent → Confirmed, or one of the terminal failures
// Rejected and TimedOut.
//
// The pipeline never retries a submission. Appends carry no dedup key, so a
// resubmission is a new, distinct ledger entry; whether to try again is the
// caller's call.
package submit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/rustyeddy/tradeledger/chain"
	"github.com/rustyeddy/tradeledger/signer"
	"github.com/rustyeddy/tradeledger/txn"
)

// State is the position of an attempt in the submission lifecycle.
type State int

const (
	StateBuilt State = iota
	StateSigned
	StateSent
	StateConfirmed
	StateRejected
	StateTimedOut
)

func (s State) String() string {
	switch s {
	case StateBuilt:
		return "built"
	case StateSigned:
		return "signed"
	case StateSent:
		return "sent"
	case StateConfirmed:
		return "confirmed"
	case StateRejected:
		return "rejected"
	case StateTimedOut:
		return "timed_out"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ErrConfirmTimeout is returned when a sent transaction was neither confirmed
// nor rejected within the pipeline's confirmation window. The network may
// never deliver a definitive rejection, so the bound is mandatory.
var ErrConfirmTimeout = errors.New("confirmation timed out")

// Result records where an attempt ended up. TxID is set once the transaction
// was accepted for processing, including on timeout.
type Result struct {
	State  State
	TxID   string
	Reason string
}

// StatusPoller answers confirmation queries for a transaction signature.
type StatusPoller interface {
	TxStatus(ctx context.Context, signature string) (chain.SignatureStatus, error)
}

// Pipeline submits transactions and waits for confirmation.
type Pipeline struct {
	poller         StatusPoller
	confirmTimeout time.Duration
	pollInterval   time.Duration
	log            zerolog.Logger
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithConfirmTimeout bounds how long a sent transaction may stay unresolved.
func WithConfirmTimeout(d time.Duration) PipelineOption {
	return func(p *Pipeline) {
		p.confirmTimeout = d
	}
}

// WithPollInterval sets the confirmation polling cadence.
func WithPollInterval(d time.Duration) PipelineOption {
	return func(p *Pipeline) {
		p.pollInterval = d
	}
}

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) PipelineOption {
	return func(p *Pipeline) {
		p.log = log
	}
}

// NewPipeline creates a Pipeline polling the given status source.
func NewPipeline(poller StatusPoller, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		poller:         poller,
		confirmTimeout: 30 * time.Second,
		pollInterval:   500 * time.Millisecond,
		log:            zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Submit signs and sends the instruction through sgn, then polls until the
// transaction confirms, is rejected, or the confirmation window closes.
// The returned error is nil exactly when Result.State is StateConfirmed.
func (p *Pipeline) Submit(ctx context.Context, in txn.Instruction, sgn signer.Signer) (Result, error) {
	if sgn == nil || !sgn.Available() {
		return Result{State: StateBuilt}, signer.ErrUnavailable
	}

	txID, err := sgn.SignAndSend(ctx, in)
	if err != nil {
		var rpcErr *chain.RPCError
		if errors.As(err, &rpcErr) {
			// The node refused the transaction outright.
			return Result{State: StateRejected, Reason: rpcErr.Message},
				fmt.Errorf("submit rejected: %w", err)
		}
		return Result{State: StateSigned}, fmt.Errorf("submit: %w", err)
	}

	p.log.Info().Str("tx", txID).Msg("transaction sent, awaiting confirmation")

	res, err := p.awaitConfirmation(ctx, txID)
	if err != nil {
		return res, err
	}

	p.log.Info().Str("tx", txID).Msg("transaction confirmed")
	return res, nil
}

func (p *Pipeline) awaitConfirmation(ctx context.Context, txID string) (Result, error) {
	deadline := time.NewTimer(p.confirmTimeout)
	defer deadline.Stop()

	tick := time.NewTicker(p.pollInterval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return Result{State: StateSent, TxID: txID}, fmt.Errorf("await confirmation: %w", ctx.Err())

		case <-deadline.C:
			return Result{State: StateTimedOut, TxID: txID}, ErrConfirmTimeout

		case <-tick.C:
			st, err := p.poller.TxStatus(ctx, txID)
			if err != nil {
				// A failed poll is not a verdict; keep polling until
				// the window closes.
				p.log.Warn().Err(err).Str("tx", txID).Msg("status poll failed")
				continue
			}
			if st.Err != "" {
				return Result{State: StateRejected, TxID: txID, Reason: st.Err},
					fmt.Errorf("transaction rejected: %s", st.Err)
			}
			if st.Confirmed {
				return Result{State: StateConfirmed, TxID: txID}, nil
			}
		}
	}
}
