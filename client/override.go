package client

import (
	"math/big"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// OverrideAccount replaces fields of an account for the duration of a single call.
type OverrideAccount struct {
	Balance *hexutil.Big `json:"balance,omitempty"`
}

// StateOverride is the set of accounts overridden for one call.
type StateOverride map[common.Address]OverrideAccount

// BalanceOverride overrides the balance of a single account.
func BalanceOverride(account common.Address, balance *big.Int) StateOverride {
	return StateOverride{
		account: {Balance: (*hexutil.Big)(balance)},
	}
}

func toCallArg(msg ethereum.CallMsg) map[string]any {
	arg := map[string]any{
		"from": msg.From,
		"to":   msg.To,
	}
	if len(msg.Data) > 0 {
		arg["data"] = hexutil.Bytes(msg.Data)
	}
	if msg.Value != nil {
		arg["value"] = (*hexutil.Big)(msg.Value)
	}
	if msg.Gas != 0 {
		arg["gas"] = hexutil.Uint64(msg.Gas)
	}
	if msg.GasPrice != nil {
		arg["gasPrice"] = (*hexutil.Big)(msg.GasPrice)
	}
	return arg
}
