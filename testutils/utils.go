package testutils

import (
	"context"
	"math/big"
	"sync"
	"testing"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/eth/tracers/logger"
	"github.com/ethereum/go-ethereum/log"
	"github.com/polymerdao/facet/client"
	"github.com/polymerdao/facet/signer"
	"golang.org/x/exp/slog"
)

type testLog struct {
	t *testing.T
}

func (tl testLog) Write(data []byte) (int, error) {
	tl.t.Log(string(data))
	return len(data), nil
}

// NewLogger writes to the test log.
func NewLogger(t *testing.T) log.Logger {
	return log.NewLogger(slog.NewTextHandler(testLog{t: t}, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

type EstimateCall struct {
	Msg      ethereum.CallMsg
	Override client.StateOverride
}

// L2 is an in-memory L2 endpoint. The zero value estimates every call at 21000 gas and traces
// every call as successful.
type L2 struct {
	mu sync.Mutex

	// Estimate replaces the default gas estimate when set.
	Estimate func(msg ethereum.CallMsg, override client.StateOverride) (uint64, error)
	Balance  *big.Int
	MintRate *big.Int
	// TokenBalances is keyed by account.
	TokenBalances map[common.Address]*big.Int
	Trace         *logger.ExecutionResult
	Receipts      map[common.Hash]*ethtypes.Receipt

	EstimateCalls []EstimateCall
	TraceCalls    []EstimateCall
}

func (l *L2) EstimateGas(_ context.Context, msg ethereum.CallMsg, override client.StateOverride) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.EstimateCalls = append(l.EstimateCalls, EstimateCall{Msg: msg, Override: override})
	if l.Estimate != nil {
		return l.Estimate(msg, override)
	}
	return 21_000, nil
}

func (l *L2) TraceCall(_ context.Context, msg ethereum.CallMsg, override client.StateOverride) (*logger.ExecutionResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.TraceCalls = append(l.TraceCalls, EstimateCall{Msg: msg, Override: override})
	if l.Trace != nil {
		return l.Trace, nil
	}
	return &logger.ExecutionResult{
		Gas:        21_000,
		StructLogs: []logger.StructLogRes{{Op: "STOP"}},
	}, nil
}

func (l *L2) BalanceAt(context.Context, common.Address) (*big.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return orZero(l.Balance), nil
}

func (l *L2) FctMintRate(context.Context) (*big.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return orZero(l.MintRate), nil
}

func (l *L2) TokenBalance(_ context.Context, _, account common.Address) (*big.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return orZero(l.TokenBalances[account]), nil
}

func (l *L2) TransactionReceipt(_ context.Context, hash common.Hash) (*ethtypes.Receipt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if receipt, ok := l.Receipts[hash]; ok {
		return receipt, nil
	}
	return nil, ethereum.NotFound
}

// L1 is an in-memory L1 endpoint.
type L1 struct {
	mu sync.Mutex

	Gas          uint64
	MaxFee       *big.Int
	MaxFeeErr    error
	Transactions map[common.Hash]*ethtypes.Transaction
	Senders      map[common.Hash]common.Address

	EstimateCalls []ethereum.CallMsg
}

func (l *L1) EstimateGas(_ context.Context, msg ethereum.CallMsg) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.EstimateCalls = append(l.EstimateCalls, msg)
	return l.Gas, nil
}

func (l *L1) MaxFeePerGas(context.Context) (*big.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.MaxFeeErr != nil {
		return nil, l.MaxFeeErr
	}
	return orZero(l.MaxFee), nil
}

func (l *L1) TransactionByHash(_ context.Context, hash common.Hash) (*ethtypes.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	tx, ok := l.Transactions[hash]
	if !ok {
		return nil, ethereum.NotFound
	}
	return tx, nil
}

func (l *L1) TransactionSender(_ context.Context, tx *ethtypes.Transaction) (common.Address, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.Senders[tx.Hash()], nil
}

// Signer records what it is asked to send and returns deterministic hashes.
type Signer struct {
	mu sync.Mutex

	Account                 common.Address
	L1ChainID               *big.Int
	InaccurateGasEstimation bool

	Sent    []signer.Transaction
	Written []*signer.ContractCall
}

var _ signer.Signer = (*Signer)(nil)

func (s *Signer) Address() common.Address {
	return s.Account
}

func (s *Signer) ChainID() *big.Int {
	return s.L1ChainID
}

func (s *Signer) SupportsAccurateGasEstimation() bool {
	return !s.InaccurateGasEstimation
}

func (s *Signer) SendTransaction(_ context.Context, tx *signer.Transaction) (common.Hash, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Sent = append(s.Sent, *tx)
	return s.nextHash(), nil
}

func (s *Signer) WriteContract(_ context.Context, call *signer.ContractCall) (common.Hash, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Written = append(s.Written, call)
	return s.nextHash(), nil
}

// Sends is the number of L1 transactions sent through either method.
func (s *Signer) Sends() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Sent) + len(s.Written)
}

func (s *Signer) nextHash() common.Hash {
	return crypto.Keccak256Hash(s.Account.Bytes(), big.NewInt(int64(len(s.Sent)+len(s.Written))).Bytes())
}

func orZero(x *big.Int) *big.Int {
	if x == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(x)
}
