// Package client is the caller-facing surface of the ledger: two operations,
// SubmitRecord and RefreshLedger, plus the observable state they maintain.
//
// The controller is a thin optimistic-refresh synchronizer. It never updates
// the local view speculatively; the view changes only when a re-fetch of the
// authoritative account succeeds.
package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/rustyeddy/tradeledger/chain"
	"github.com/rustyeddy/tradeledger/journal"
	"github.com/rustyeddy/tradeledger/ledger"
	"github.com/rustyeddy/tradeledger/pkg/id"
	"github.com/rustyeddy/tradeledger/signer"
	"github.com/rustyeddy/tradeledger/submit"
	"github.com/rustyeddy/tradeledger/txn"
)

// ValidationError reports a caller-supplied field that failed local
// validation. Nothing touches the network before validation passes.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s must not be empty", e.Field)
}

// LedgerReader fetches the current trade history.
type LedgerReader interface {
	Fetch(ctx context.Context) ([]ledger.Trade, error)
}

// TimeSource supplies the network's current block time.
type TimeSource interface {
	CurrentBlockTime(ctx context.Context) (int64, error)
}

// Submitter runs a built instruction through sign, send and confirm.
type Submitter interface {
	Submit(ctx context.Context, in txn.Instruction, sgn signer.Signer) (submit.Result, error)
}

// Params wires a Controller. Reader, Time, Pipeline, ProgramID and
// LedgerAddress are required; Signer may be absent (reads still work) and
// Journal is optional.
type Params struct {
	Reader        LedgerReader
	Time          TimeSource
	Pipeline      Submitter
	Signer        signer.Signer
	ProgramID     chain.Address
	LedgerAddress chain.Address
	Journal       journal.Journal
	Logger        *zerolog.Logger
}

// Controller owns the session's view of the ledger. One controller per
// session; its state is mutex-guarded so a refresh racing a submission is
// safe, with the later-completing fetch winning by wholesale replacement.
type Controller struct {
	reader     LedgerReader
	timeSource TimeSource
	pipeline   Submitter
	signer     signer.Signer
	programID  chain.Address
	ledgerAddr chain.Address
	journal    journal.Journal
	log        zerolog.Logger

	mu         sync.Mutex
	view       []ledger.Trade
	submitErr  error
	refreshErr error
	errSeq     uint64
	submitSeq  uint64 // errSeq value when submitErr was set
	refreshSeq uint64 // errSeq value when refreshErr was set
}

// New wires a controller and performs the session-start refresh. A failed
// initial refresh is not fatal: it lands in the refresh-side last error and
// the view starts empty, the same as any later failed refresh.
func New(ctx context.Context, p Params) (*Controller, error) {
	if p.Reader == nil {
		return nil, fmt.Errorf("client: Reader is required")
	}
	if p.Time == nil {
		return nil, fmt.Errorf("client: Time is required")
	}
	if p.Pipeline == nil {
		return nil, fmt.Errorf("client: Pipeline is required")
	}
	if p.ProgramID.IsZero() {
		return nil, fmt.Errorf("client: ProgramID is required")
	}
	if p.LedgerAddress.IsZero() {
		return nil, fmt.Errorf("client: LedgerAddress is required")
	}

	c := &Controller{
		reader:     p.Reader,
		timeSource: p.Time,
		pipeline:   p.Pipeline,
		signer:     p.Signer,
		programID:  p.ProgramID,
		ledgerAddr: p.LedgerAddress,
		journal:    p.Journal,
		log:        zerolog.Nop(),
	}
	if p.Logger != nil {
		c.log = *p.Logger
	}

	// Establish the starting view before any submission is possible.
	if err := c.RefreshLedger(ctx); err != nil {
		c.log.Warn().Err(err).Msg("initial ledger refresh failed")
	}

	return c, nil
}

// SubmitRecord validates, builds and submits an append, and on confirmation
// re-fetches the ledger. On any failure the view is left untouched and the
// error is held as the submit-side last error.
func (c *Controller) SubmitRecord(ctx context.Context, item, price string) error {
	if item == "" {
		return c.failSubmit(&ValidationError{Field: "item"})
	}
	if price == "" {
		return c.failSubmit(&ValidationError{Field: "price"})
	}

	if c.signer == nil || !c.signer.Available() {
		return c.failSubmit(signer.ErrUnavailable)
	}

	blockTime, err := c.timeSource.CurrentBlockTime(ctx)
	if err != nil {
		return c.failSubmit(fmt.Errorf("submit record: %w", err))
	}

	in, err := txn.BuildAppend(item, price, blockTime, c.programID, c.ledgerAddr)
	if err != nil {
		return c.failSubmit(fmt.Errorf("submit record: %w", err))
	}

	res, submitErr := c.pipeline.Submit(ctx, in, c.signer)
	c.recordAttempt(item, price, blockTime, res)

	if submitErr != nil {
		c.log.Error().Err(submitErr).
			Str("item", item).
			Str("state", res.State.String()).
			Msg("submission failed")
		return c.failSubmit(submitErr)
	}

	c.mu.Lock()
	c.submitErr = nil
	c.mu.Unlock()

	c.log.Info().Str("item", item).Str("price", price).
		Int64("time", blockTime).Str("tx", res.TxID).
		Msg("trade appended")

	// The confirmed append is visible only through a re-fetch; refresh
	// failures land in the refresh-side error, not here.
	if err := c.RefreshLedger(ctx); err != nil {
		c.log.Warn().Err(err).Msg("post-confirmation refresh failed")
	}
	return nil
}

// RefreshLedger re-fetches the authoritative account and replaces the view
// wholesale. On failure the previous view stays as the last known good one.
func (c *Controller) RefreshLedger(ctx context.Context) error {
	trades, err := c.reader.Fetch(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		c.refreshErr = err
		c.errSeq++
		c.refreshSeq = c.errSeq
		return err
	}

	c.view = trades
	c.refreshErr = nil
	return nil
}

// Trades returns a copy of the current ledger view, in append order.
func (c *Controller) Trades() []ledger.Trade {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]ledger.Trade, len(c.view))
	copy(out, c.view)
	return out
}

// Err returns the most recently recorded error across both entry points, or
// nil. A successful operation clears only its own side's error, so a stale
// submit failure stays visible through later successful refreshes.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case c.submitErr != nil && c.refreshErr != nil:
		if c.submitSeq > c.refreshSeq {
			return c.submitErr
		}
		return c.refreshErr
	case c.submitErr != nil:
		return c.submitErr
	default:
		return c.refreshErr
	}
}

// TradeView is a display-ready rendering of a ledger entry.
type TradeView struct {
	Item  string
	Price string
	Time  string
}

// State is the observable caller-facing state.
type State struct {
	Trades     []TradeView
	SubmitErr  string
	RefreshErr string
}

// State snapshots the observable state with human-readable timestamps.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := State{Trades: make([]TradeView, 0, len(c.view))}
	for _, t := range c.view {
		st.Trades = append(st.Trades, TradeView{
			Item:  t.Item,
			Price: t.Price,
			Time:  t.When().Format(time.RFC1123),
		})
	}
	if c.submitErr != nil {
		st.SubmitErr = c.submitErr.Error()
	}
	if c.refreshErr != nil {
		st.RefreshErr = c.refreshErr.Error()
	}
	return st
}

func (c *Controller) failSubmit(err error) error {
	c.mu.Lock()
	c.submitErr = err
	c.errSeq++
	c.submitSeq = c.errSeq
	c.mu.Unlock()
	return err
}

func (c *Controller) recordAttempt(item, price string, blockTime int64, res submit.Result) {
	if c.journal == nil {
		return
	}
	rec := journal.SubmissionRecord{
		AttemptID:   id.New(),
		Item:        item,
		Price:       price,
		BlockTime:   blockTime,
		State:       res.State.String(),
		TxID:        res.TxID,
		Reason:      res.Reason,
		SubmittedAt: time.Now().UTC(),
	}
	if err := c.journal.RecordSubmission(rec); err != nil {
		// Journaling is best effort; the submission outcome stands.
		c.log.Warn().Err(err).Str("attempt", rec.AttemptID).Msg("journal write failed")
	}
}
