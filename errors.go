package facet

import (
	sdkerrors "cosmossdk.io/errors"
)

const Codespace = "facet"

// WrapError wraps a registered error with extra message while keeping the stack trace at where this func is called.
var WrapError = sdkerrors.Wrapf

var (
	// error codes starting from 1
	registerErr                     = newErrRegistry(Codespace, 1)
	ErrInvalidAddress               = registerErr("invalid address")
	ErrInvalidChain                 = registerErr("invalid L1 chain")
	ErrNotConnected                 = registerErr("not connected")
	ErrNoAccount                    = registerErr("no account")
	ErrUnsupportedNetwork           = registerErr("unsupported network")
	ErrContractAddressesUnavailable = registerErr("contract addresses not available")
	ErrSimulationFailed             = registerErr("simulation failed")
	ErrMaxFeeUnavailable            = registerErr("max fee unavailable")
	ErrGasEstimationFailed          = registerErr("gas estimation failed")
	ErrTransactionTimeout           = registerErr("transaction timeout")
	ErrTransactionReverted          = registerErr("transaction reverted")
	ErrInvalidEnvelope              = registerErr("invalid envelope")
	ErrNotInboxTransaction          = registerErr("transaction is not to the inbox")
)

// register new errors without hard-coding error codes

type errRegistryFunc = func(description string) *sdkerrors.Error

func newErrRegistry(codespace string, startCode uint32) errRegistryFunc {
	currentCode := startCode

	return func(description string) *sdkerrors.Error {
		err := sdkerrors.Register(codespace, currentCode, description)
		currentCode += 1
		return err
	}
}
