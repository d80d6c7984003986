// Package signer defines the capability that authorizes ledger appends.
//
// The core never owns key material. Anything that can report availability and
// sign-and-send an instruction works as a signer: a local keypair file, a
// hardware key, a remote signing service.
package signer

import (
	"context"
	"errors"

	"github.com/rustyeddy/tradeledger/txn"
)

// ErrUnavailable is returned when no signing identity is connected.
var ErrUnavailable = errors.New("signer unavailable")

// Signer authorizes and transmits instructions on behalf of a caller.
type Signer interface {
	// Available reports whether the signer currently holds a usable identity.
	Available() bool

	// SignAndSend signs the instruction and submits it to the network,
	// returning the transaction signature.
	SignAndSend(ctx context.Context, in txn.Instruction) (string, error)
}
