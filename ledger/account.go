package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/rustyeddy/tradeledger/chain"
)

// Fetcher retrieves raw account bytes from the network.
type Fetcher interface {
	AccountData(ctx context.Context, addr chain.Address) ([]byte, error)
}

// Service reads the shared ledger account. It holds no cache: the account is
// the sole source of truth and any number of writers may append to it, so
// every Fetch goes back to the network.
type Service struct {
	fetcher Fetcher
	address chain.Address
}

// NewService creates a Service reading the ledger account at addr.
func NewService(f Fetcher, addr chain.Address) *Service {
	return &Service{fetcher: f, address: addr}
}

// Address returns the ledger account address.
func (s *Service) Address() chain.Address {
	return s.address
}

// Fetch retrieves and decodes the full trade history. A missing account is an
// empty ledger, not an error: the account simply has not been initialized or
// written yet.
func (s *Service) Fetch(ctx context.Context) ([]Trade, error) {
	data, err := s.fetcher.AccountData(ctx, s.address)
	if err != nil {
		if errors.Is(err, chain.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch ledger account: %w", err)
	}

	trades, err := DecodeAccount(data)
	if err != nil {
		return nil, fmt.Errorf("decode ledger account %s: %w", s.address, err)
	}
	return trades, nil
}
