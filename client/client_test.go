package client

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/tradeledger/chain"
	"github.com/rustyeddy/tradeledger/journal"
	"github.com/rustyeddy/tradeledger/ledger"
	"github.com/rustyeddy/tradeledger/signer"
	"github.com/rustyeddy/tradeledger/submit"
	"github.com/rustyeddy/tradeledger/txn"
)

var (
	testProgram = chain.MustParseAddress("7fCTzxzei5se329Gtbhr7cu2C8Qmx1gK7NVFagFKXuBd")
	testLedger  = chain.MustParseAddress("4TCULn9sm7PKjiAQE3s2KQGq3G5eQDTNaPyU5srRRdU9")
)

// fakeNetwork plays the remote side: it holds the authoritative trade list,
// serves fetches from it, and appends on confirmed submissions.
type fakeNetwork struct {
	mu        sync.Mutex
	trades    []ledger.Trade
	blockTime int64

	fetchErr   error
	timeErr    error
	fetchCalls int
	timeCalls  int
}

func (n *fakeNetwork) Fetch(ctx context.Context) ([]ledger.Trade, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.fetchCalls++
	if n.fetchErr != nil {
		return nil, n.fetchErr
	}
	out := make([]ledger.Trade, len(n.trades))
	copy(out, n.trades)
	return out, nil
}

func (n *fakeNetwork) CurrentBlockTime(ctx context.Context) (int64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.timeCalls++
	if n.timeErr != nil {
		return 0, n.timeErr
	}
	return n.blockTime, nil
}

// fakePipeline applies confirmed appends to the fake network, mirroring the
// real submit-then-refetch protocol.
type fakePipeline struct {
	network *fakeNetwork
	result  submit.Result
	err     error
	calls   int
}

func (p *fakePipeline) Submit(ctx context.Context, in txn.Instruction, sgn signer.Signer) (submit.Result, error) {
	p.calls++
	if p.err == nil && p.result.State == submit.StateConfirmed {
		trade, derr := decodeAppend(in)
		if derr != nil {
			return submit.Result{}, derr
		}
		p.network.mu.Lock()
		p.network.trades = append(p.network.trades, trade)
		p.network.mu.Unlock()
	}
	return p.result, p.err
}

// decodeAppend recovers the trade from instruction data (discriminator, then
// two length-prefixed strings and an i64).
func decodeAppend(in txn.Instruction) (ledger.Trade, error) {
	return ledger.DecodeTrade(in.Data[8:])
}

type fakeSigner struct {
	available bool
}

func (f *fakeSigner) Available() bool { return f.available }

func (f *fakeSigner) SignAndSend(ctx context.Context, in txn.Instruction) (string, error) {
	return "sig", nil
}

type memJournal struct {
	records []journal.SubmissionRecord
}

func (m *memJournal) RecordSubmission(r journal.SubmissionRecord) error {
	m.records = append(m.records, r)
	return nil
}

func (m *memJournal) ListSubmissions(limit int) ([]journal.SubmissionRecord, error) {
	return m.records, nil
}

func (m *memJournal) Close() error { return nil }

func newTestController(t *testing.T, network *fakeNetwork, pipe *fakePipeline, sgn signer.Signer, jnl journal.Journal) *Controller {
	t.Helper()
	c, err := New(context.Background(), Params{
		Reader:        network,
		Time:          network,
		Pipeline:      pipe,
		Signer:        sgn,
		ProgramID:     testProgram,
		LedgerAddress: testLedger,
		Journal:       jnl,
	})
	require.NoError(t, err)
	return c
}

func confirmedPipeline(n *fakeNetwork) *fakePipeline {
	return &fakePipeline{
		network: n,
		result:  submit.Result{State: submit.StateConfirmed, TxID: "sig"},
	}
}

func TestNewRequiresWiring(t *testing.T) {
	t.Parallel()

	n := &fakeNetwork{}
	_, err := New(context.Background(), Params{Time: n, Pipeline: confirmedPipeline(n), ProgramID: testProgram, LedgerAddress: testLedger})
	assert.Error(t, err)

	_, err = New(context.Background(), Params{Reader: n, Time: n, Pipeline: confirmedPipeline(n), LedgerAddress: testLedger})
	assert.Error(t, err)
}

func TestInitialRefreshOnStart(t *testing.T) {
	t.Parallel()

	n := &fakeNetwork{trades: []ledger.Trade{{Item: "Widget", Price: "9.99", Time: 1000}}}
	c := newTestController(t, n, confirmedPipeline(n), &fakeSigner{available: true}, nil)

	assert.Equal(t, 1, n.fetchCalls)
	assert.Equal(t, n.trades, c.Trades())
	assert.NoError(t, c.Err())
}

func TestInitialRefreshFailureIsHeldNotFatal(t *testing.T) {
	t.Parallel()

	n := &fakeNetwork{fetchErr: &chain.TransportError{Op: "getAccountInfo", Err: errors.New("down")}}
	c := newTestController(t, n, confirmedPipeline(n), &fakeSigner{available: true}, nil)

	assert.Empty(t, c.Trades())
	assert.Error(t, c.Err())
}

func TestSubmitRecordHappyPath(t *testing.T) {
	t.Parallel()

	n := &fakeNetwork{blockTime: 1000}
	c := newTestController(t, n, confirmedPipeline(n), &fakeSigner{available: true}, nil)
	require.Empty(t, c.Trades())

	err := c.SubmitRecord(context.Background(), "Widget", "9.99")
	require.NoError(t, err)

	got := c.Trades()
	require.Len(t, got, 1)
	assert.Equal(t, ledger.Trade{Item: "Widget", Price: "9.99", Time: 1000}, got[0])
	assert.NoError(t, c.Err())
}

func TestSubmitRecordAppendOnlyOrdering(t *testing.T) {
	t.Parallel()

	n := &fakeNetwork{}
	c := newTestController(t, n, confirmedPipeline(n), &fakeSigner{available: true}, nil)

	submissions := []struct {
		item, price string
		blockTime   int64
	}{
		{"Widget", "9.99", 1000},
		{"Gadget", "20", 1010},
		{"Widget", "10.50", 1020},
	}

	for _, s := range submissions {
		n.mu.Lock()
		n.blockTime = s.blockTime
		n.mu.Unlock()
		require.NoError(t, c.SubmitRecord(context.Background(), s.item, s.price))
	}

	got := c.Trades()
	require.Len(t, got, len(submissions))
	for i, s := range submissions {
		assert.Equal(t, ledger.Trade{Item: s.item, Price: s.price, Time: s.blockTime}, got[i])
	}
}

func TestSubmitRecordValidationNoNetworkIO(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		item, price string
		field       string
	}{
		{"empty item", "", "10", "item"},
		{"empty price", "Widget", "", "price"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			n := &fakeNetwork{}
			pipe := confirmedPipeline(n)
			c := newTestController(t, n, pipe, &fakeSigner{available: true}, nil)
			fetchesBefore := n.fetchCalls

			err := c.SubmitRecord(context.Background(), tt.item, tt.price)
			require.Error(t, err)

			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.field, ve.Field)

			assert.Equal(t, 0, n.timeCalls, "no time lookup before validation")
			assert.Equal(t, 0, pipe.calls, "no submission")
			assert.Equal(t, fetchesBefore, n.fetchCalls, "no refresh")
		})
	}
}

func TestSubmitRecordSignerUnavailable(t *testing.T) {
	t.Parallel()

	n := &fakeNetwork{}
	pipe := confirmedPipeline(n)

	t.Run("nil signer", func(t *testing.T) {
		c := newTestController(t, n, pipe, nil, nil)
		err := c.SubmitRecord(context.Background(), "Widget", "9.99")
		assert.ErrorIs(t, err, signer.ErrUnavailable)
		assert.Equal(t, 0, pipe.calls)
	})

	t.Run("disconnected signer", func(t *testing.T) {
		c := newTestController(t, n, pipe, &fakeSigner{available: false}, nil)
		err := c.SubmitRecord(context.Background(), "Widget", "9.99")
		assert.ErrorIs(t, err, signer.ErrUnavailable)
		assert.Equal(t, 0, pipe.calls)
	})
}

func TestSubmitRecordFailureLeavesViewUnchanged(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		result submit.Result
		err    error
	}{
		{
			name:   "rejected",
			result: submit.Result{State: submit.StateRejected, Reason: "custom program error"},
			err:    errors.New("submit rejected: custom program error"),
		},
		{
			name:   "timed out",
			result: submit.Result{State: submit.StateTimedOut, TxID: "sig"},
			err:    submit.ErrConfirmTimeout,
		},
		{
			name:   "transport",
			result: submit.Result{State: submit.StateSigned},
			err:    &chain.TransportError{Op: "sendTransaction", Err: errors.New("reset")},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			n := &fakeNetwork{
				trades:    []ledger.Trade{{Item: "existing", Price: "1", Time: 900}},
				blockTime: 1000,
			}
			pipe := &fakePipeline{network: n, result: tt.result, err: tt.err}
			c := newTestController(t, n, pipe, &fakeSigner{available: true}, nil)

			before := c.Trades()
			fetchesBefore := n.fetchCalls

			err := c.SubmitRecord(context.Background(), "Widget", "9.99")
			require.Error(t, err)

			assert.Equal(t, before, c.Trades(), "view must not change on failed submission")
			assert.Equal(t, fetchesBefore, n.fetchCalls, "no refresh after failure")
			assert.Error(t, c.Err())
		})
	}
}

func TestRefreshIdempotentReads(t *testing.T) {
	t.Parallel()

	n := &fakeNetwork{trades: []ledger.Trade{
		{Item: "a", Price: "1", Time: 1},
		{Item: "b", Price: "2", Time: 2},
	}}
	c := newTestController(t, n, confirmedPipeline(n), nil, nil)

	require.NoError(t, c.RefreshLedger(context.Background()))
	first := c.Trades()
	require.NoError(t, c.RefreshLedger(context.Background()))
	second := c.Trades()

	assert.Equal(t, first, second)
}

func TestRefreshFailureKeepsStaleView(t *testing.T) {
	t.Parallel()

	n := &fakeNetwork{trades: []ledger.Trade{{Item: "Widget", Price: "9.99", Time: 1000}}}
	c := newTestController(t, n, confirmedPipeline(n), nil, nil)
	require.Len(t, c.Trades(), 1)

	n.mu.Lock()
	n.fetchErr = &chain.TransportError{Op: "getAccountInfo", Err: errors.New("down")}
	n.mu.Unlock()

	err := c.RefreshLedger(context.Background())
	require.Error(t, err)

	assert.Len(t, c.Trades(), 1, "stale view kept as last known good")
	assert.Error(t, c.Err())
}

func TestErrorRetentionPerEntryPoint(t *testing.T) {
	t.Parallel()

	n := &fakeNetwork{blockTime: 1000}
	pipe := &fakePipeline{network: n, result: submit.Result{State: submit.StateTimedOut}, err: submit.ErrConfirmTimeout}
	c := newTestController(t, n, pipe, &fakeSigner{available: true}, nil)

	// Submit fails; the error is held.
	require.Error(t, c.SubmitRecord(context.Background(), "Widget", "9.99"))
	assert.ErrorIs(t, c.Err(), submit.ErrConfirmTimeout)

	// A successful refresh must not clear the submit-side error.
	require.NoError(t, c.RefreshLedger(context.Background()))
	assert.ErrorIs(t, c.Err(), submit.ErrConfirmTimeout)

	st := c.State()
	assert.NotEmpty(t, st.SubmitErr)
	assert.Empty(t, st.RefreshErr)

	// A successful submit clears it.
	pipe.result = submit.Result{State: submit.StateConfirmed, TxID: "sig"}
	pipe.err = nil
	require.NoError(t, c.SubmitRecord(context.Background(), "Widget", "9.99"))
	assert.NoError(t, c.Err())
}

func TestErrMostRecentWins(t *testing.T) {
	t.Parallel()

	n := &fakeNetwork{blockTime: 1000}
	pipe := &fakePipeline{network: n, result: submit.Result{State: submit.StateTimedOut}, err: submit.ErrConfirmTimeout}
	c := newTestController(t, n, pipe, &fakeSigner{available: true}, nil)

	require.Error(t, c.SubmitRecord(context.Background(), "Widget", "9.99"))

	n.mu.Lock()
	n.fetchErr = &chain.TransportError{Op: "getAccountInfo", Err: errors.New("down")}
	n.mu.Unlock()
	require.Error(t, c.RefreshLedger(context.Background()))

	// Refresh failed after the submit failure; it is the one reported.
	var te *chain.TransportError
	assert.True(t, errors.As(c.Err(), &te))

	st := c.State()
	assert.NotEmpty(t, st.SubmitErr)
	assert.NotEmpty(t, st.RefreshErr)
}

func TestSubmitRecordJournalsAttempts(t *testing.T) {
	t.Parallel()

	n := &fakeNetwork{blockTime: 1000}
	jnl := &memJournal{}
	pipe := &fakePipeline{network: n, result: submit.Result{State: submit.StateRejected, Reason: "nope"}, err: errors.New("rejected")}
	c := newTestController(t, n, pipe, &fakeSigner{available: true}, jnl)

	require.Error(t, c.SubmitRecord(context.Background(), "Widget", "9.99"))

	pipe.result = submit.Result{State: submit.StateConfirmed, TxID: "sig"}
	pipe.err = nil
	require.NoError(t, c.SubmitRecord(context.Background(), "Gadget", "20"))

	require.Len(t, jnl.records, 2)
	assert.Equal(t, "rejected", jnl.records[0].State)
	assert.Equal(t, "Widget", jnl.records[0].Item)
	assert.Equal(t, "confirmed", jnl.records[1].State)
	assert.Equal(t, "sig", jnl.records[1].TxID)
	assert.NotEmpty(t, jnl.records[0].AttemptID)
	assert.NotEqual(t, jnl.records[0].AttemptID, jnl.records[1].AttemptID)

	// Validation failures never reach the pipeline, so nothing is journaled.
	require.Error(t, c.SubmitRecord(context.Background(), "", "1"))
	assert.Len(t, jnl.records, 2)
}

func TestStateRendersTimestamps(t *testing.T) {
	t.Parallel()

	n := &fakeNetwork{trades: []ledger.Trade{{Item: "Widget", Price: "9.99", Time: 1000}}}
	c := newTestController(t, n, confirmedPipeline(n), nil, nil)

	st := c.State()
	require.Len(t, st.Trades, 1)
	assert.Equal(t, "Widget", st.Trades[0].Item)
	assert.Equal(t, "9.99", st.Trades[0].Price)
	assert.Contains(t, st.Trades[0].Time, "1970", "unix second 1000 renders in 1970")
}
