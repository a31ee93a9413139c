package miden

import (
	"errors"
	"fmt"
)

// RPC error codes the node reports for failed operations.
const (
	CodeAccountNotFound   = -32004
	CodeNoteNotFound      = -32005
	CodeInsufficientFunds = -32010
)

// RPCError is a JSON-RPC 2.0 error returned by the node.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

// IsInsufficientFunds reports whether err is the node's insufficient-funds error.
func IsInsufficientFunds(err error) bool {
	var rpcErr *RPCError
	return errors.As(err, &rpcErr) && rpcErr.Code == CodeInsufficientFunds
}

// IsNotFound reports whether err is an account- or note-not-found error.
func IsNotFound(err error) bool {
	var rpcErr *RPCError
	if !errors.As(err, &rpcErr) {
		return false
	}
	return rpcErr.Code == CodeAccountNotFound || rpcErr.Code == CodeNoteNotFound
}
