// Package submit turns a caller's intended L2 call into an L1 transaction.
//
// Every submission runs as a pipeline of phases: simulate on L2 (optimistic estimate, confirmatory
// estimate, pre-flight trace), estimate and send on L1, then derive the L2 transaction hash.
// A failed phase halts the pipeline, so nothing is sent on L1 unless every simulation passed.
package submit

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/big"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/ethereum/go-ethereum/eth/tracers/logger"
	"github.com/ethereum/go-ethereum/log"
	"github.com/polymerdao/facet"
	"github.com/polymerdao/facet/aliasing"
	"github.com/polymerdao/facet/bindings"
	"github.com/polymerdao/facet/client"
	"github.com/polymerdao/facet/envelope"
	"github.com/polymerdao/facet/gascost"
	"github.com/polymerdao/facet/identity"
	"github.com/polymerdao/facet/metrics"
	"github.com/polymerdao/facet/mint"
	"github.com/polymerdao/facet/signer"
	"github.com/polymerdao/facet/tracker"
	"golang.org/x/sync/errgroup"
)

type L1 interface {
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	MaxFeePerGas(ctx context.Context) (*big.Int, error)
}

type L2 interface {
	mint.L2
	TraceCall(ctx context.Context, msg ethereum.CallMsg, override client.StateOverride) (*logger.ExecutionResult, error)
	TokenBalance(ctx context.Context, token, account common.Address) (*big.Int, error)
}

// Result describes a submitted facet transaction.
type Result struct {
	Strategy             Strategy
	Stage                Stage
	L1TransactionHash    common.Hash
	FacetTransactionHash common.Hash
	// Deposit is the L2 transaction the L1 transaction produces.
	Deposit    *envelope.DepositTx
	Accounting mint.Accounting
	// L1Gas is zero when the signer picked the gas limit.
	L1Gas          uint64
	L1MaxFeePerGas *big.Int
	ExplorerURL    string
}

// Observe advances the result to the stage implied by status.
func (r *Result) Observe(status tracker.Status) error {
	next := StageOf(status)
	if !r.Stage.CanAdvance(next) {
		return fmt.Errorf("cannot move from stage %s to %s", r.Stage, next)
	}
	r.Stage = next
	return nil
}

// WriteParams is a contract call on L2, ABI-encoded before submission.
type WriteParams struct {
	To     common.Address
	ABI    *abi.ABI
	Method string
	Args   []any
	// Value is the amount of L2 native token sent with the call. It selects the strategy.
	Value     *big.Int
	ExtraData []byte
}

type Submitter struct {
	cfg        Config
	network    *facet.Network
	l1         L1
	l2         L2
	signer     signer.Signer
	calculator *mint.Calculator
	metrics    metrics.SubmitMetrics
	logger     log.Logger
}

func New(
	cfg Config,
	network *facet.Network,
	l1 L1,
	l2 L2,
	s signer.Signer,
	m metrics.SubmitMetrics,
	logger log.Logger,
) (*Submitter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate submit config: %v", err)
	}
	if s == nil {
		return nil, facet.ErrNotConnected
	}
	if s.Address() == (common.Address{}) {
		return nil, facet.ErrNoAccount
	}
	if chainID := s.ChainID(); chainID == nil || !chainID.IsUint64() || facet.ChainID(chainID.Uint64()) != network.L1ChainID {
		return nil, facet.WrapError(facet.ErrInvalidChain, "signer is on chain %v, %s needs %s", chainID, network.Name, network.L1ChainID)
	}
	accountant, err := gascost.NewAccountant(cfg.Regime)
	if err != nil {
		return nil, err
	}
	return &Submitter{
		cfg:        cfg,
		network:    network,
		l1:         l1,
		l2:         l2,
		signer:     s,
		calculator: mint.NewCalculator(l2, accountant, network.L2ChainID, logger),
		metrics:    m,
		logger:     logger.With("component", "submit"),
	}, nil
}

// simulation is the output of the L2 phases and the input of the L1 phase.
type simulation struct {
	strategy   Strategy
	deposit    *envelope.DepositTx
	accounting mint.Accounting
	l1Call     l1Call
}

type l1Call struct {
	to    common.Address
	value *big.Int
	data  []byte
	// write is set when the call goes through a contract binding.
	write *signer.ContractCall
}

// Submit sends params to the inbox as is. Any value is paid from the account's existing L2 balance.
func (s *Submitter) Submit(ctx context.Context, params *facet.TransactionParams) (*Result, error) {
	return s.run(ctx, Direct, func() (*simulation, error) {
		return s.simulateInbox(ctx, Direct, params)
	})
}

// SubmitBuddy sends value from the account's existing L2 balance through its buddy proxy.
func (s *Submitter) SubmitBuddy(ctx context.Context, params *facet.TransactionParams, value *big.Int) (*Result, error) {
	return s.run(ctx, BuddyFactory, func() (*simulation, error) {
		if err := s.network.Contracts.RequireBuddy(); err != nil {
			return nil, err
		}
		data, err := bindings.PackCallBuddyForUser(value, params.ToOrZero(), params.Data)
		if err != nil {
			return nil, err
		}
		return s.simulateInbox(ctx, BuddyFactory, &facet.TransactionParams{
			To:        &s.network.Contracts.BuddyFactory,
			Data:      data,
			ExtraData: params.ExtraData,
		})
	})
}

// SubmitBridgeAndCall bridges value in from L1 and makes the call with it in one L2 transaction.
func (s *Submitter) SubmitBridgeAndCall(ctx context.Context, params *facet.TransactionParams, value *big.Int) (*Result, error) {
	return s.run(ctx, BridgeAndCall, func() (*simulation, error) {
		return s.simulateBridge(ctx, params, value)
	})
}

// Dispatch picks the strategy for params.Value and submits with it.
func (s *Submitter) Dispatch(ctx context.Context, params *facet.TransactionParams) (*Result, error) {
	value := params.ValueOrZero()
	if value.Sign() == 0 {
		return s.Submit(ctx, params)
	}
	if s.network.Contracts.WETH == (common.Address{}) {
		return nil, facet.WrapError(facet.ErrContractAddressesUnavailable, "weth is not configured")
	}
	balance, err := s.l2.TokenBalance(ctx, s.network.Contracts.WETH, s.signer.Address())
	if err != nil {
		return nil, fmt.Errorf("get l2 weth balance: %v", err)
	}
	call := &facet.TransactionParams{
		To:        params.To,
		Data:      params.Data,
		ExtraData: params.ExtraData,
	}
	strategy := SelectStrategy(value, balance)
	s.logger.Debug("Selected strategy", "strategy", strategy, "value", value, "balance", balance)
	if strategy == BuddyFactory {
		return s.SubmitBuddy(ctx, call, value)
	}
	return s.SubmitBridgeAndCall(ctx, call, value)
}

// WriteContract ABI-encodes a contract call and dispatches it.
func (s *Submitter) WriteContract(ctx context.Context, params *WriteParams) (*Result, error) {
	data, err := params.ABI.Pack(params.Method, params.Args...)
	if err != nil {
		return nil, fmt.Errorf("create %s data: %v", params.Method, err)
	}
	return s.Dispatch(ctx, &facet.TransactionParams{
		To:        &params.To,
		Data:      data,
		Value:     params.Value,
		ExtraData: params.ExtraData,
	})
}

func (s *Submitter) run(ctx context.Context, strategy Strategy, simulate func() (*simulation, error)) (*Result, error) {
	sim, err := simulate()
	if err != nil {
		s.metrics.RecordSubmission(strategy.String(), outcome(err))
		return nil, err
	}
	s.logger.Info("Simulated facet transaction",
		"strategy", strategy,
		"from", sim.deposit.From,
		"mint", sim.accounting.MintAmount,
		"l2_gas", sim.deposit.GasLimit,
	)

	result, err := s.send(ctx, sim)
	if err != nil {
		s.metrics.RecordSubmission(strategy.String(), outcome(err))
		return nil, err
	}
	s.metrics.RecordSubmission(strategy.String(), "submitted")
	s.metrics.RecordMint(result.Accounting.MintAmount)
	s.logger.Info("Submitted L1 transaction",
		"strategy", strategy,
		"l1_hash", result.L1TransactionHash,
		"facet_hash", result.FacetTransactionHash,
	)
	return result, nil
}

// simulateInbox runs the L2 phases for a call sent by the account itself through the inbox.
func (s *Submitter) simulateInbox(ctx context.Context, strategy Strategy, params *facet.TransactionParams) (*simulation, error) {
	sender := s.signer.Address()
	quote, err := s.calculator.Optimistic(ctx, sender, params)
	if err != nil {
		return nil, err
	}
	if _, err := s.calculator.Confirm(ctx, quote); err != nil {
		return nil, err
	}
	if err := s.preflight(ctx, ethereum.CallMsg{
		From:  sender,
		To:    params.To,
		Gas:   quote.GasLimit,
		Value: params.ValueOrZero(),
		Data:  params.Data,
	}); err != nil {
		return nil, err
	}
	return &simulation{
		strategy: strategy,
		deposit: &envelope.DepositTx{
			From:     sender,
			To:       params.To,
			Mint:     quote.Accounting.MintAmount,
			Value:    params.ValueOrZero(),
			GasLimit: quote.GasLimit,
			Data:     params.Data,
		},
		accounting: quote.Accounting,
		l1Call: l1Call{
			to:    facet.InboxAddress,
			value: new(big.Int),
			data:  quote.Envelope,
		},
	}, nil
}

// simulateBridge runs the L2 phases for a bridge-and-call. On L2 the call is made by the aliased
// L1 bridge on the WETH contract, with a fixed gas limit.
func (s *Submitter) simulateBridge(ctx context.Context, params *facet.TransactionParams, value *big.Int) (*simulation, error) {
	contracts := s.network.Contracts
	if err := contracts.RequireBridge(); err != nil {
		return nil, err
	}
	account := s.signer.Address()
	aliasedBridge := aliasing.AliasAddress(contracts.EtherBridge)
	compressed := bindings.CdCompress(params.Data)
	l2Data, err := bindings.PackL2BridgeAndCall(account, value, params.ToOrZero(), compressed)
	if err != nil {
		return nil, err
	}

	var mintRate *big.Int
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if mintRate, err = s.l2.FctMintRate(gctx); err != nil {
			return fmt.Errorf("get mint rate: %v", err)
		}
		return nil
	})
	g.Go(func() error {
		return s.preflight(gctx, ethereum.CallMsg{
			From:  aliasedBridge,
			To:    &contracts.WETH,
			Gas:   s.cfg.BridgeGasLimit,
			Value: new(big.Int),
			Data:  l2Data,
		})
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	_, encoded, err := s.calculator.Envelope(&facet.TransactionParams{
		To:        &contracts.WETH,
		Data:      l2Data,
		ExtraData: params.ExtraData,
	}, s.cfg.BridgeGasLimit)
	if err != nil {
		return nil, err
	}
	accounting := s.calculator.AccountBridged(encoded, mintRate)

	gasLimit := new(big.Int).SetUint64(s.cfg.BridgeGasLimit)
	l1Data, err := bindings.PackL1BridgeAndCall(account, params.ToOrZero(), compressed, gasLimit)
	if err != nil {
		return nil, err
	}
	bridgeABI, err := bindings.EtherBridgeMetaData.GetAbi()
	if err != nil {
		return nil, fmt.Errorf("parse ether bridge abi: %v", err)
	}
	return &simulation{
		strategy: BridgeAndCall,
		deposit: &envelope.DepositTx{
			From:     aliasedBridge,
			To:       &contracts.WETH,
			Mint:     accounting.MintAmount,
			Value:    new(big.Int),
			GasLimit: s.cfg.BridgeGasLimit,
			Data:     l2Data,
		},
		accounting: accounting,
		l1Call: l1Call{
			to:    contracts.EtherBridge,
			value: value,
			data:  l1Data,
			write: &signer.ContractCall{
				Address: contracts.EtherBridge,
				ABI:     bridgeABI,
				Method:  bindings.BridgeAndCallMethodName,
				Args:    []any{account, params.ToOrZero(), compressed, gasLimit},
				Value:   value,
			},
		},
	}, nil
}

// preflight traces msg with an unbounded sender balance and fails if any frame reverted.
func (s *Submitter) preflight(ctx context.Context, msg ethereum.CallMsg) error {
	result, err := s.l2.TraceCall(ctx, msg, client.BalanceOverride(msg.From, mint.MaxBalance))
	if err != nil {
		return facet.WrapError(facet.ErrSimulationFailed, "trace call: %v", err)
	}
	for _, structLog := range result.StructLogs {
		if structLog.Op == vm.REVERT.String() {
			return facet.WrapError(facet.ErrSimulationFailed, "revert at depth %d, pc %d", structLog.Depth, structLog.Pc)
		}
	}
	if result.Failed {
		return facet.WrapError(facet.ErrSimulationFailed, "execution failed: %s", result.ReturnValue)
	}
	return nil
}

// send is the only phase that spends L1 gas.
func (s *Submitter) send(ctx context.Context, sim *simulation) (*Result, error) {
	gas, maxFee, err := s.estimateL1(ctx, sim.l1Call)
	if err != nil {
		return nil, err
	}

	var l1Hash common.Hash
	if sim.l1Call.write != nil {
		call := *sim.l1Call.write
		call.Gas = gas
		call.MaxFeePerGas = maxFee
		l1Hash, err = s.signer.WriteContract(ctx, &call)
	} else {
		l1Hash, err = s.signer.SendTransaction(ctx, &signer.Transaction{
			To:           sim.l1Call.to,
			Value:        sim.l1Call.value,
			Data:         sim.l1Call.data,
			Gas:          gas,
			MaxFeePerGas: maxFee,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("send l1 transaction: %v", err)
	}

	facetHash, err := identity.FacetTransactionHash(l1Hash, *sim.deposit)
	if err != nil {
		return nil, fmt.Errorf("derive facet transaction hash: %v", err)
	}
	deposit := *sim.deposit
	deposit.SourceHash = identity.SourceHash(l1Hash)
	return &Result{
		Strategy:             sim.strategy,
		Stage:                L1Submitted,
		L1TransactionHash:    l1Hash,
		FacetTransactionHash: facetHash,
		Deposit:              &deposit,
		Accounting:           sim.accounting,
		L1Gas:                gas,
		L1MaxFeePerGas:       maxFee,
		ExplorerURL:          s.network.ExplorerTxURL(facetHash),
	}, nil
}

// estimateL1 returns the multiplied L1 gas estimate, or zero when the signer's own default must be
// used, and the fee cap the L1 transaction is sent with.
func (s *Submitter) estimateL1(ctx context.Context, call l1Call) (uint64, *big.Int, error) {
	var (
		gas    uint64
		maxFee *big.Int
	)
	g, gctx := errgroup.WithContext(ctx)
	if s.signer.SupportsAccurateGasEstimation() {
		g.Go(func() error {
			estimate, err := s.l1.EstimateGas(gctx, ethereum.CallMsg{
				From:  s.signer.Address(),
				To:    &call.to,
				Value: call.value,
				Data:  call.data,
			})
			if err != nil {
				return facet.WrapError(facet.ErrGasEstimationFailed, "estimate l1 gas: %v", err)
			}
			gas = uint64(math.Floor(float64(estimate) * s.cfg.GasMultiplier))
			return nil
		})
	}
	g.Go(func() error {
		var err error
		if maxFee, err = s.l1.MaxFeePerGas(gctx); err != nil {
			return facet.WrapError(facet.ErrMaxFeeUnavailable, "get l1 max fee: %v", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return 0, nil, err
	}
	return gas, maxFee, nil
}

func outcome(err error) string {
	switch {
	case errors.Is(err, facet.ErrSimulationFailed):
		return "simulation_failed"
	case errors.Is(err, facet.ErrGasEstimationFailed):
		return "estimation_failed"
	case errors.Is(err, facet.ErrMaxFeeUnavailable):
		return "max_fee_unavailable"
	case errors.Is(err, facet.ErrContractAddressesUnavailable):
		return "contracts_unavailable"
	default:
		return "error"
	}
}
