package client

import (
	"context"
	"math/big"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/polymerdao/facet"
	"github.com/polymerdao/facet/metrics"
)

type L1Client struct {
	client    *rpc.Client
	ethclient *ethclient.Client
	metrics   metrics.Metrics
}

func NewL1Client(client *rpc.Client, m metrics.Metrics) *L1Client {
	return &L1Client{
		client:    client,
		ethclient: ethclient.NewClient(client),
		metrics:   m,
	}
}

func DialL1(ctx context.Context, url string, m metrics.Metrics) (*L1Client, error) {
	client, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, facet.WrapError(facet.ErrNotConnected, "dial l1 %s: %v", url, err)
	}
	return NewL1Client(client, m), nil
}

func (c *L1Client) Close() {
	c.client.Close()
}

// Ethclient exposes the underlying client for binding L1 contracts to a signer.
func (c *L1Client) Ethclient() *ethclient.Client {
	return c.ethclient
}

func (c *L1Client) ChainID(ctx context.Context) (*big.Int, error) {
	defer c.metrics.RecordRPCMethodCall("eth_chainId", time.Now())
	return c.ethclient.ChainID(ctx)
}

func (c *L1Client) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	defer c.metrics.RecordRPCMethodCall("eth_estimateGas", time.Now())
	return c.ethclient.EstimateGas(ctx, msg)
}

func (c *L1Client) BalanceAt(ctx context.Context, account common.Address) (*big.Int, error) {
	defer c.metrics.RecordRPCMethodCall("eth_getBalance", time.Now())
	return c.ethclient.BalanceAt(ctx, account, nil)
}

func (c *L1Client) TransactionByHash(ctx context.Context, hash common.Hash) (*ethtypes.Transaction, error) {
	defer c.metrics.RecordRPCMethodCall("eth_getTransactionByHash", time.Now())
	tx, _, err := c.ethclient.TransactionByHash(ctx, hash)
	return tx, err
}

// TransactionSender recovers the sender of a mined transaction without requiring the chain config.
func (c *L1Client) TransactionSender(ctx context.Context, tx *ethtypes.Transaction) (common.Address, error) {
	chainID, err := c.ChainID(ctx)
	if err != nil {
		return common.Address{}, err
	}
	return ethtypes.Sender(ethtypes.LatestSignerForChainID(chainID), tx)
}

// MaxFeePerGas returns the fee cap a dynamic-fee transaction sent now would carry: twice the
// latest base fee plus the suggested tip.
func (c *L1Client) MaxFeePerGas(ctx context.Context) (*big.Int, error) {
	header, err := c.headerByNumber(ctx)
	if err != nil {
		return nil, err
	}
	if header.BaseFee == nil {
		return nil, facet.WrapError(facet.ErrMaxFeeUnavailable, "latest header has no base fee")
	}
	tip, err := c.suggestGasTipCap(ctx)
	if err != nil {
		return nil, facet.WrapError(facet.ErrMaxFeeUnavailable, "suggest gas tip cap: %v", err)
	}
	return new(big.Int).Add(tip, new(big.Int).Mul(header.BaseFee, big.NewInt(2))), nil
}

func (c *L1Client) headerByNumber(ctx context.Context) (*ethtypes.Header, error) {
	defer c.metrics.RecordRPCMethodCall("eth_getBlockByNumber", time.Now())
	return c.ethclient.HeaderByNumber(ctx, nil)
}

func (c *L1Client) suggestGasTipCap(ctx context.Context) (*big.Int, error) {
	defer c.metrics.RecordRPCMethodCall("eth_maxPriorityFeePerGas", time.Now())
	return c.ethclient.SuggestGasTipCap(ctx)
}
