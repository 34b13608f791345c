package bindings

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

const (
	FctMintRateMethodName      = "fctMintRate"
	BalanceOfMethodName        = "balanceOf"
	BridgeAndCallMethodName    = "bridgeAndCall"
	CallBuddyForUserMethodName = "callBuddyForUser"
)

// L1BlockMetaData describes the mint-rate accessor of the L1Block predeploy.
var L1BlockMetaData = &bind.MetaData{
	ABI: `[{"inputs":[],"name":"fctMintRate","outputs":[{"internalType":"uint128","name":"","type":"uint128"}],"stateMutability":"view","type":"function"}]`,
}

// WETHMetaData describes the L2 wrapped ether contract minted by the ether bridge.
var WETHMetaData = &bind.MetaData{
	ABI: `[{"inputs":[{"internalType":"address","name":"account","type":"address"}],"name":"balanceOf","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"},` +
		`{"inputs":[{"internalType":"address","name":"account","type":"address"},{"internalType":"uint256","name":"value","type":"uint256"},{"internalType":"address","name":"to","type":"address"},{"internalType":"bytes","name":"data","type":"bytes"}],"name":"bridgeAndCall","outputs":[],"stateMutability":"nonpayable","type":"function"}]`,
}

// BuddyFactoryMetaData describes the factory of per-user proxies that spend existing L2 balance.
var BuddyFactoryMetaData = &bind.MetaData{
	ABI: `[{"inputs":[{"internalType":"uint256","name":"value","type":"uint256"},{"internalType":"address","name":"to","type":"address"},{"internalType":"bytes","name":"data","type":"bytes"}],"name":"callBuddyForUser","outputs":[],"stateMutability":"nonpayable","type":"function"}]`,
}

// EtherBridgeMetaData describes the L1 ether bridge.
var EtherBridgeMetaData = &bind.MetaData{
	ABI: `[{"inputs":[{"internalType":"address","name":"account","type":"address"},{"internalType":"address","name":"to","type":"address"},{"internalType":"bytes","name":"data","type":"bytes"},{"internalType":"uint256","name":"gasLimit","type":"uint256"}],"name":"bridgeAndCall","outputs":[],"stateMutability":"payable","type":"function"}]`,
}

func pack(metaData *bind.MetaData, method string, args ...any) ([]byte, error) {
	parsed, err := metaData.GetAbi()
	if err != nil {
		return nil, fmt.Errorf("parse abi: %v", err)
	}
	data, err := parsed.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("create %s data: %v", method, err)
	}
	return data, nil
}

func unpackBig(metaData *bind.MetaData, method string, output []byte) (*big.Int, error) {
	parsed, err := metaData.GetAbi()
	if err != nil {
		return nil, fmt.Errorf("parse abi: %v", err)
	}
	values, err := parsed.Unpack(method, output)
	if err != nil {
		return nil, fmt.Errorf("unpack %s output: %v", method, err)
	}
	return *abi.ConvertType(values[0], new(*big.Int)).(**big.Int), nil
}

func PackFctMintRate() ([]byte, error) {
	return pack(L1BlockMetaData, FctMintRateMethodName)
}

func UnpackFctMintRate(output []byte) (*big.Int, error) {
	return unpackBig(L1BlockMetaData, FctMintRateMethodName, output)
}

func PackBalanceOf(account common.Address) ([]byte, error) {
	return pack(WETHMetaData, BalanceOfMethodName, account)
}

func UnpackBalanceOf(output []byte) (*big.Int, error) {
	return unpackBig(WETHMetaData, BalanceOfMethodName, output)
}

// PackL2BridgeAndCall encodes the call the aliased ether bridge makes on the L2 WETH contract:
// credit value to account, then call to with data on its behalf.
func PackL2BridgeAndCall(account common.Address, value *big.Int, to common.Address, data []byte) ([]byte, error) {
	return pack(WETHMetaData, BridgeAndCallMethodName, account, value, to, data)
}

func PackCallBuddyForUser(value *big.Int, to common.Address, data []byte) ([]byte, error) {
	return pack(BuddyFactoryMetaData, CallBuddyForUserMethodName, value, to, data)
}

func PackL1BridgeAndCall(account, to common.Address, data []byte, gasLimit *big.Int) ([]byte, error) {
	return pack(EtherBridgeMetaData, BridgeAndCallMethodName, account, to, data, gasLimit)
}
