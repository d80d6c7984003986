package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/tradeledger/chain"
)

type fakeFetcher struct {
	data  []byte
	err   error
	calls int
}

func (f *fakeFetcher) AccountData(ctx context.Context, addr chain.Address) ([]byte, error) {
	f.calls++
	return f.data, f.err
}

var testAddr = chain.MustParseAddress("4TCULn9sm7PKjiAQE3s2KQGq3G5eQDTNaPyU5srRRdU9")

func TestFetchDecodesTrades(t *testing.T) {
	t.Parallel()

	want := []Trade{
		{Item: "Widget", Price: "9.99", Time: 1000},
		{Item: "Gadget", Price: "20", Time: 1005},
	}
	svc := NewService(&fakeFetcher{data: EncodeAccount(want)}, testAddr)

	got, err := svc.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestFetchMissingAccountIsEmptyLedger(t *testing.T) {
	t.Parallel()

	svc := NewService(&fakeFetcher{err: chain.ErrNotFound}, testAddr)

	got, err := svc.Fetch(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFetchTransportErrorPropagates(t *testing.T) {
	t.Parallel()

	cause := &chain.TransportError{Op: "getAccountInfo", Err: errors.New("connection refused")}
	svc := NewService(&fakeFetcher{err: cause}, testAddr)

	_, err := svc.Fetch(context.Background())
	require.Error(t, err)

	var te *chain.TransportError
	assert.True(t, errors.As(err, &te))
}

func TestFetchMalformedDataPropagates(t *testing.T) {
	t.Parallel()

	svc := NewService(&fakeFetcher{data: []byte{1, 2, 3}}, testAddr)

	_, err := svc.Fetch(context.Background())
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestFetchAlwaysGoesToNetwork(t *testing.T) {
	t.Parallel()

	f := &fakeFetcher{data: EncodeAccount(nil)}
	svc := NewService(f, testAddr)

	for i := 0; i < 3; i++ {
		_, err := svc.Fetch(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, 3, f.calls)
}
