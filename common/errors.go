package common

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/rpc"
)

var (
	ErrExtensionMissing    = errors.New("no wallet provider detected")
	ErrIncompatibleBinding = errors.New("no supported signer convention")
	ErrUserRejected        = errors.New("request rejected by user")
	ErrNetworkMismatch     = errors.New("wallet is on the wrong network")
	ErrContractRead        = errors.New("contract read failed")
	ErrTransactionFailure  = errors.New("transaction failed")
	ErrNotConnected        = errors.New("wallet not connected")

	ErrInsufficientFunds = fmt.Errorf("%w: insufficient funds", ErrTransactionFailure)
	ErrGasEstimation     = fmt.Errorf("%w: gas estimation failed", ErrTransactionFailure)
	ErrReverted          = fmt.Errorf("%w: execution reverted", ErrTransactionFailure)
)

// Provider error codes, see EIP-1193 and EIP-3085.
const (
	CodeUserRejected      = 4001
	CodeUnauthorized      = 4100
	CodeUnsupportedMethod = 4200
	CodeUnknownChain      = 4902
	CodeMethodNotFound    = -32601
)

// ErrorCode extracts the JSON-RPC error code carried by err, if any.
func ErrorCode(err error) (int, bool) {
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		return rpcErr.ErrorCode(), true
	}
	return 0, false
}

func IsUserRejected(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrUserRejected) {
		return true
	}
	if code, ok := ErrorCode(err); ok && code == CodeUserRejected {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "user rejected") || strings.Contains(msg, "user denied")
}

func IsMethodNotFound(err error) bool {
	code, ok := ErrorCode(err)
	return ok && (code == CodeMethodNotFound || code == CodeUnsupportedMethod)
}

// ClassifyTxError maps a failed write or confirmation onto the transaction
// failure taxonomy. The original error stays in the chain.
func ClassifyTxError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrTransactionFailure) || errors.Is(err, ErrUserRejected) {
		return err
	}
	if IsUserRejected(err) {
		return fmt.Errorf("%w: %w", ErrUserRejected, err)
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "insufficient funds"):
		return fmt.Errorf("%w: %w", ErrInsufficientFunds, err)
	case strings.Contains(msg, "gas required exceeds"),
		strings.Contains(msg, "cannot estimate gas"),
		strings.Contains(msg, "intrinsic gas"):
		return fmt.Errorf("%w: %w", ErrGasEstimation, err)
	case strings.Contains(msg, "revert"):
		return fmt.Errorf("%w: %w", ErrReverted, err)
	}
	return fmt.Errorf("%w: %w", ErrTransactionFailure, err)
}

// UserMessage turns an error coming out of a boundary operation into the
// sentence shown to the user.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrExtensionMissing):
		return "No wallet found. Please install or start a wallet to use this application."
	case errors.Is(err, ErrNotConnected):
		return "Connect your wallet first."
	case errors.Is(err, ErrIncompatibleBinding):
		return "The wallet can't sign transactions. Configure a wallet or a keystore."
	case errors.Is(err, ErrUserRejected) || IsUserRejected(err):
		return "Transaction was rejected."
	case errors.Is(err, ErrNetworkMismatch):
		return "Your wallet is connected to the wrong network."
	case errors.Is(err, ErrInsufficientFunds):
		return "Insufficient funds to complete this transaction."
	case errors.Is(err, ErrGasEstimation):
		return "The transaction would fail, gas could not be estimated."
	case errors.Is(err, ErrReverted):
		return "The transaction was reverted by the contract."
	case errors.Is(err, ErrTransactionFailure):
		return "Transaction failed. Please try again."
	case errors.Is(err, ErrContractRead):
		return "Failed to load data from the contract. Please try again later."
	}
	return fmt.Sprintf("Unexpected error: %s", err)
}
