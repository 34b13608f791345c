// Package mint computes how much compute token a facet transaction mints, and confirms that the
// call still succeeds once the account holds only its real balance plus that mint.
package mint

import (
	"context"
	"fmt"
	"math/big"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/holiman/uint256"
	"github.com/polymerdao/facet"
	"github.com/polymerdao/facet/client"
	"github.com/polymerdao/facet/envelope"
	"github.com/polymerdao/facet/gascost"
	"golang.org/x/sync/errgroup"
)

// MaxBalance stands in for unlimited funds during the optimistic phase.
var MaxBalance = new(uint256.Int).SetAllOne().ToBig()

type L2 interface {
	EstimateGas(ctx context.Context, msg ethereum.CallMsg, override client.StateOverride) (uint64, error)
	BalanceAt(ctx context.Context, account common.Address) (*big.Int, error)
	FctMintRate(ctx context.Context) (*big.Int, error)
}

// Accounting is the mint of one transaction. MintAmount is always TokensCost × MintRate.
type Accounting struct {
	TokensCost *big.Int
	MintRate   *big.Int
	MintAmount *big.Int
}

func NewAccounting(tokensCost, mintRate *big.Int) Accounting {
	return Accounting{
		TokensCost: tokensCost,
		MintRate:   mintRate,
		MintAmount: new(big.Int).Mul(tokensCost, mintRate),
	}
}

// Quote is the result of the optimistic phase.
type Quote struct {
	Sender common.Address
	Params *facet.TransactionParams
	// GasLimit is the L2 gas the call needs with unlimited funds.
	GasLimit uint64
	// Balance is the sender's L2 balance before the mint.
	Balance    *big.Int
	Inbox      *envelope.InboxTx
	Envelope   []byte
	Accounting Accounting
}

// Confirmed is the result of the confirmatory phase.
type Confirmed struct {
	*Quote
	// GasLimit is the L2 gas the call needs with the balance it will actually have.
	GasLimit uint64
}

type Calculator struct {
	l2         L2
	accountant *gascost.Accountant
	chainID    facet.ChainID
	logger     log.Logger
}

func NewCalculator(l2 L2, accountant *gascost.Accountant, chainID facet.ChainID, logger log.Logger) *Calculator {
	return &Calculator{
		l2:         l2,
		accountant: accountant,
		chainID:    chainID,
		logger:     logger.With("component", "mint"),
	}
}

// Account prices an encoded inbox envelope at mintRate.
func (c *Calculator) Account(encodedEnvelope []byte, mintRate *big.Int) Accounting {
	return NewAccounting(c.accountant.Cost(encodedEnvelope), mintRate)
}

// AccountBridged prices an encoded envelope forwarded by the ether bridge at mintRate. The
// bridge charges a flat rate per byte, so the regime does not apply.
func (c *Calculator) AccountBridged(encodedEnvelope []byte, mintRate *big.Int) Accounting {
	return NewAccounting(gascost.BridgedCost(encodedEnvelope), mintRate)
}

// Envelope builds and encodes the inbox transaction for params.
func (c *Calculator) Envelope(params *facet.TransactionParams, gasLimit uint64) (*envelope.InboxTx, []byte, error) {
	inbox := &envelope.InboxTx{
		ChainID:   c.chainID,
		To:        params.To,
		Value:     params.ValueOrZero(),
		GasLimit:  gasLimit,
		Data:      params.Data,
		ExtraData: params.ExtraData,
	}
	encoded, err := envelope.EncodeInbox(inbox)
	if err != nil {
		return nil, nil, err
	}
	return inbox, encoded, nil
}

// Optimistic estimates the gas params needs as if sender had unlimited funds, and prices the
// resulting envelope at the current mint rate.
func (c *Calculator) Optimistic(ctx context.Context, sender common.Address, params *facet.TransactionParams) (*Quote, error) {
	var (
		gasLimit uint64
		balance  *big.Int
		mintRate *big.Int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		gasLimit, err = c.l2.EstimateGas(gctx, callMsg(sender, params), client.BalanceOverride(sender, MaxBalance))
		if err != nil {
			return facet.WrapError(facet.ErrGasEstimationFailed, "optimistic estimate: %v", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if balance, err = c.l2.BalanceAt(gctx, sender); err != nil {
			return fmt.Errorf("get balance of %s: %v", sender, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if mintRate, err = c.l2.FctMintRate(gctx); err != nil {
			return fmt.Errorf("get mint rate: %v", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	inbox, encoded, err := c.Envelope(params, gasLimit)
	if err != nil {
		return nil, err
	}
	quote := &Quote{
		Sender:     sender,
		Params:     params,
		GasLimit:   gasLimit,
		Balance:    balance,
		Inbox:      inbox,
		Envelope:   encoded,
		Accounting: c.Account(encoded, mintRate),
	}
	c.logger.Debug("Optimistic phase complete",
		"sender", sender,
		"gas_limit", gasLimit,
		"tokens_cost", quote.Accounting.TokensCost,
		"mint_rate", mintRate,
		"mint_amount", quote.Accounting.MintAmount,
	)
	return quote, nil
}

// Confirm re-estimates the call with the balance the sender will hold once the mint resolves.
// An error means the call would revert on L2 even after minting.
func (c *Calculator) Confirm(ctx context.Context, quote *Quote) (*Confirmed, error) {
	futureBalance := new(big.Int).Add(quote.Balance, quote.Accounting.MintAmount)
	gasLimit, err := c.l2.EstimateGas(ctx, callMsg(quote.Sender, quote.Params), client.BalanceOverride(quote.Sender, futureBalance))
	if err != nil {
		return nil, facet.WrapError(facet.ErrGasEstimationFailed, "confirm with balance %s: %v", futureBalance, err)
	}
	c.logger.Debug("Confirmatory phase complete", "sender", quote.Sender, "balance", futureBalance, "gas_limit", gasLimit)
	return &Confirmed{
		Quote:    quote,
		GasLimit: gasLimit,
	}, nil
}

func callMsg(sender common.Address, params *facet.TransactionParams) ethereum.CallMsg {
	return ethereum.CallMsg{
		From:  sender,
		To:    params.To,
		Value: params.ValueOrZero(),
		Data:  params.Data,
	}
}
