// Package client wraps the L1 and L2 JSON-RPC endpoints the submission pipeline reads from.
package client

import (
	"context"
	"fmt"
	"math/big"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/eth/tracers/logger"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/polymerdao/facet"
	"github.com/polymerdao/facet/bindings"
	"github.com/polymerdao/facet/metrics"
)

type L2Client struct {
	client *rpc.Client
	// We don't embed the ethclient.Client struct so that every call goes through the metrics wrapper.
	ethclient *ethclient.Client
	metrics   metrics.Metrics
}

func NewL2Client(client *rpc.Client, m metrics.Metrics) *L2Client {
	return &L2Client{
		client:    client,
		ethclient: ethclient.NewClient(client),
		metrics:   m,
	}
}

func DialL2(ctx context.Context, url string, m metrics.Metrics) (*L2Client, error) {
	client, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, facet.WrapError(facet.ErrNotConnected, "dial l2 %s: %v", url, err)
	}
	return NewL2Client(client, m), nil
}

func (c *L2Client) Close() {
	c.client.Close()
}

func (c *L2Client) ChainID(ctx context.Context) (*big.Int, error) {
	defer c.metrics.RecordRPCMethodCall("eth_chainId", time.Now())
	return c.ethclient.ChainID(ctx)
}

// EstimateGas runs eth_estimateGas against the latest block with the given state override applied.
func (c *L2Client) EstimateGas(ctx context.Context, msg ethereum.CallMsg, override StateOverride) (uint64, error) {
	defer c.metrics.RecordRPCMethodCall("eth_estimateGas", time.Now())
	var gas hexutil.Uint64
	if err := c.client.CallContext(ctx, &gas, "eth_estimateGas", toCallArg(msg), "latest", override); err != nil {
		return 0, err
	}
	return uint64(gas), nil
}

// TraceCall runs debug_traceCall with the struct logger against the latest block.
func (c *L2Client) TraceCall(ctx context.Context, msg ethereum.CallMsg, override StateOverride) (*logger.ExecutionResult, error) {
	defer c.metrics.RecordRPCMethodCall("debug_traceCall", time.Now())
	config := map[string]any{
		"stateOverrides": override,
	}
	result := new(logger.ExecutionResult)
	if err := c.client.CallContext(ctx, result, "debug_traceCall", toCallArg(msg), "latest", config); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *L2Client) BalanceAt(ctx context.Context, account common.Address) (*big.Int, error) {
	defer c.metrics.RecordRPCMethodCall("eth_getBalance", time.Now())
	return c.ethclient.BalanceAt(ctx, account, nil)
}

// FctMintRate reads the current mint rate from the L1Block predeploy.
func (c *L2Client) FctMintRate(ctx context.Context) (*big.Int, error) {
	data, err := bindings.PackFctMintRate()
	if err != nil {
		return nil, err
	}
	output, err := c.call(ctx, facet.L1BlockAddress, data)
	if err != nil {
		return nil, fmt.Errorf("read mint rate: %v", err)
	}
	return bindings.UnpackFctMintRate(output)
}

// TokenBalance reads an ERC20 balanceOf.
func (c *L2Client) TokenBalance(ctx context.Context, token, account common.Address) (*big.Int, error) {
	data, err := bindings.PackBalanceOf(account)
	if err != nil {
		return nil, err
	}
	output, err := c.call(ctx, token, data)
	if err != nil {
		return nil, fmt.Errorf("read balance of %s: %v", account, err)
	}
	return bindings.UnpackBalanceOf(output)
}

// TransactionReceipt returns ethereum.NotFound while the transaction is not yet included.
func (c *L2Client) TransactionReceipt(ctx context.Context, hash common.Hash) (*ethtypes.Receipt, error) {
	defer c.metrics.RecordRPCMethodCall("eth_getTransactionReceipt", time.Now())
	return c.ethclient.TransactionReceipt(ctx, hash)
}

func (c *L2Client) call(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	defer c.metrics.RecordRPCMethodCall("eth_call", time.Now())
	return c.ethclient.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
}
