package chain

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when the requested account does not exist on the
// network (never initialized or closed).
var ErrNotFound = errors.New("account not found")

// RPCError is an error object reported by the RPC node itself, e.g. a program
// rejecting an instruction during simulation.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// TransportError wraps a failure to reach the RPC node or to read its
// response. It carries no verdict about the request itself.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
