package submit_test

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/eth/tracers/logger"
	"github.com/polymerdao/facet"
	"github.com/polymerdao/facet/aliasing"
	"github.com/polymerdao/facet/bindings"
	"github.com/polymerdao/facet/client"
	"github.com/polymerdao/facet/envelope"
	"github.com/polymerdao/facet/gascost"
	"github.com/polymerdao/facet/identity"
	"github.com/polymerdao/facet/metrics"
	"github.com/polymerdao/facet/mint"
	"github.com/polymerdao/facet/submit"
	"github.com/polymerdao/facet/testutils"
	"github.com/polymerdao/facet/tracker"
	"github.com/stretchr/testify/require"
)

var (
	account      = common.HexToAddress("0xacc0")
	recipient    = common.HexToAddress("0xbeef")
	etherBridge  = common.HexToAddress("0xb41d9e")
	buddyFactory = common.HexToAddress("0xb0dd1e")
	weth         = common.HexToAddress("0x4e74")
	callData     = []byte{0xa9, 0x05, 0x9c, 0xbb, 0, 0, 0, 0, 0x01}
)

type fixture struct {
	l1        *testutils.L1
	l2        *testutils.L2
	signer    *testutils.Signer
	submitter *submit.Submitter
}

func setup(t *testing.T, contracts facet.ContractAddresses) *fixture {
	f := &fixture{
		l1: &testutils.L1{
			Gas:    100_000,
			MaxFee: big.NewInt(30_000_000_000),
		},
		l2: &testutils.L2{
			Estimate: func(ethereum.CallMsg, client.StateOverride) (uint64, error) {
				return 45_000, nil
			},
			Balance:  big.NewInt(1_000),
			MintRate: big.NewInt(7),
		},
		signer: &testutils.Signer{
			Account:   account,
			L1ChainID: big.NewInt(1),
		},
	}
	network, err := facet.NetworkForL1(facet.L1MainnetChainID)
	require.NoError(t, err)
	f.submitter, err = submit.New(
		submit.DefaultConfig(),
		network.WithContracts(contracts),
		f.l1,
		f.l2,
		f.signer,
		metrics.NewNoopSubmitMetrics(),
		testutils.NewLogger(t),
	)
	require.NoError(t, err)
	return f
}

func allContracts() facet.ContractAddresses {
	return facet.ContractAddresses{
		EtherBridge:  etherBridge,
		BuddyFactory: buddyFactory,
		WETH:         weth,
	}
}

func floorCost(t *testing.T, b []byte) *big.Int {
	accountant, err := gascost.NewAccountant(gascost.Floor)
	require.NoError(t, err)
	return accountant.Cost(b)
}

func TestSelectStrategy(t *testing.T) {
	balance := big.NewInt(100)
	tests := []struct {
		value *big.Int
		want  submit.Strategy
	}{
		{value: nil, want: submit.Direct},
		{value: big.NewInt(0), want: submit.Direct},
		{value: big.NewInt(50), want: submit.BuddyFactory},
		{value: big.NewInt(100), want: submit.BuddyFactory},
		{value: big.NewInt(150), want: submit.BridgeAndCall},
	}
	for _, test := range tests {
		t.Run(test.want.String(), func(t *testing.T) {
			require.Equal(t, test.want, submit.SelectStrategy(test.value, balance))
		})
	}
	require.Equal(t, submit.BridgeAndCall, submit.SelectStrategy(big.NewInt(1), nil))
}

func TestSubmitDirect(t *testing.T) {
	f := setup(t, facet.ContractAddresses{})
	params := &facet.TransactionParams{
		To:        &recipient,
		Data:      callData,
		ExtraData: []byte{0x01},
	}

	result, err := f.submitter.Submit(context.Background(), params)
	require.NoError(t, err)
	require.Equal(t, submit.Direct, result.Strategy)
	require.Equal(t, submit.L1Submitted, result.Stage)

	// Optimistic with an unbounded balance, then confirmatory with balance plus mint.
	require.Len(t, f.l2.EstimateCalls, 2)
	require.Equal(t, mint.MaxBalance, f.l2.EstimateCalls[0].Override[account].Balance.ToInt())
	wantEnvelope, err := envelope.EncodeInbox(&envelope.InboxTx{
		ChainID:   facet.MainnetChainID,
		To:        &recipient,
		GasLimit:  45_000,
		Data:      callData,
		ExtraData: []byte{0x01},
	})
	require.NoError(t, err)
	wantMint := new(big.Int).Mul(floorCost(t, wantEnvelope), big.NewInt(7))
	require.Equal(t, wantMint, result.Accounting.MintAmount)
	require.Equal(t, new(big.Int).Add(big.NewInt(1_000), wantMint), f.l2.EstimateCalls[1].Override[account].Balance.ToInt())

	require.Len(t, f.l2.TraceCalls, 1)
	require.Equal(t, account, f.l2.TraceCalls[0].Msg.From)

	require.Len(t, f.signer.Sent, 1)
	sent := f.signer.Sent[0]
	require.Equal(t, facet.InboxAddress, sent.To)
	require.Equal(t, wantEnvelope, sent.Data)
	require.Equal(t, uint64(110_000), sent.Gas)
	require.Zero(t, sent.Value.Sign())
	require.Equal(t, big.NewInt(30_000_000_000), result.L1MaxFeePerGas)
	require.Equal(t, result.L1MaxFeePerGas, sent.MaxFeePerGas)

	wantHash, err := identity.FacetTransactionHash(result.L1TransactionHash, envelope.DepositTx{
		From:     account,
		To:       &recipient,
		Mint:     wantMint,
		Value:    big.NewInt(0),
		GasLimit: 45_000,
		Data:     callData,
	})
	require.NoError(t, err)
	require.Equal(t, wantHash, result.FacetTransactionHash)
	require.Equal(t, identity.SourceHash(result.L1TransactionHash), result.Deposit.SourceHash)
	require.Equal(t, "https://explorer.facet.org/tx/"+wantHash.Hex(), result.ExplorerURL)
}

func TestResultObserve(t *testing.T) {
	f := setup(t, facet.ContractAddresses{})
	result, err := f.submitter.Submit(context.Background(), &facet.TransactionParams{To: &recipient})
	require.NoError(t, err)

	require.NoError(t, result.Observe(tracker.Pending{TxHash: result.FacetTransactionHash}))
	require.Equal(t, submit.L2Pending, result.Stage)
	require.NoError(t, result.Observe(tracker.Success{TxHash: result.FacetTransactionHash, Receipt: &ethtypes.Receipt{}}))
	require.Equal(t, submit.L2Confirmed, result.Stage)
	require.True(t, result.Stage.Terminal())
	require.Error(t, result.Observe(tracker.Failure{TxHash: result.FacetTransactionHash}))
}

func TestSimulationAbortSendsNothing(t *testing.T) {
	reverting := &logger.ExecutionResult{
		StructLogs: []logger.StructLogRes{
			{Op: "PUSH1", Depth: 1},
			{Op: "CALL", Depth: 1},
			{Op: "REVERT", Depth: 2},
			{Op: "STOP", Depth: 1},
		},
	}
	tests := map[string]func(*submit.Submitter) error{
		"direct": func(s *submit.Submitter) error {
			_, err := s.Submit(context.Background(), &facet.TransactionParams{To: &recipient, Data: callData})
			return err
		},
		"buddy": func(s *submit.Submitter) error {
			_, err := s.SubmitBuddy(context.Background(), &facet.TransactionParams{To: &recipient, Data: callData}, big.NewInt(50))
			return err
		},
		"bridge and call": func(s *submit.Submitter) error {
			_, err := s.SubmitBridgeAndCall(context.Background(), &facet.TransactionParams{To: &recipient, Data: callData}, big.NewInt(150))
			return err
		},
	}
	for name, run := range tests {
		t.Run(name, func(t *testing.T) {
			f := setup(t, allContracts())
			f.l2.Trace = reverting

			require.ErrorIs(t, run(f.submitter), facet.ErrSimulationFailed)
			require.Zero(t, f.signer.Sends())
			require.Empty(t, f.l1.EstimateCalls)
		})
	}
}

func TestFailedTraceSendsNothing(t *testing.T) {
	f := setup(t, facet.ContractAddresses{})
	f.l2.Trace = &logger.ExecutionResult{Failed: true, StructLogs: []logger.StructLogRes{{Op: "INVALID"}}}

	_, err := f.submitter.Submit(context.Background(), &facet.TransactionParams{To: &recipient})
	require.ErrorIs(t, err, facet.ErrSimulationFailed)
	require.Zero(t, f.signer.Sends())
}

func TestConfirmatoryRevertSendsNothing(t *testing.T) {
	f := setup(t, facet.ContractAddresses{})
	f.l2.Estimate = func(_ ethereum.CallMsg, override client.StateOverride) (uint64, error) {
		if override[account].Balance.ToInt().Cmp(mint.MaxBalance) == 0 {
			return 45_000, nil
		}
		return 0, errors.New("execution reverted")
	}

	_, err := f.submitter.Submit(context.Background(), &facet.TransactionParams{To: &recipient, Value: big.NewInt(1e18)})
	require.ErrorIs(t, err, facet.ErrGasEstimationFailed)
	require.Zero(t, f.signer.Sends())
	require.Empty(t, f.l2.TraceCalls)
}

func TestInaccurateGasEstimationUsesSignerDefault(t *testing.T) {
	f := setup(t, facet.ContractAddresses{})
	f.signer.InaccurateGasEstimation = true

	result, err := f.submitter.Submit(context.Background(), &facet.TransactionParams{To: &recipient})
	require.NoError(t, err)
	require.Zero(t, result.L1Gas)
	require.Empty(t, f.l1.EstimateCalls)
	require.Len(t, f.signer.Sent, 1)
	require.Zero(t, f.signer.Sent[0].Gas)
}

func TestMaxFeeUnavailableSendsNothing(t *testing.T) {
	f := setup(t, allContracts())
	f.l1.MaxFeeErr = errors.New("header not found")

	_, err := f.submitter.Submit(context.Background(), &facet.TransactionParams{To: &recipient, Data: callData})
	require.ErrorIs(t, err, facet.ErrMaxFeeUnavailable)
	require.ErrorContains(t, err, "header not found")

	_, err = f.submitter.SubmitBridgeAndCall(context.Background(), &facet.TransactionParams{To: &recipient}, big.NewInt(150))
	require.ErrorIs(t, err, facet.ErrMaxFeeUnavailable)
	require.Zero(t, f.signer.Sends())
}

func TestSubmitBridgeAndCall(t *testing.T) {
	f := setup(t, allContracts())
	value := big.NewInt(150)

	result, err := f.submitter.SubmitBridgeAndCall(context.Background(), &facet.TransactionParams{
		To:   &recipient,
		Data: callData,
	}, value)
	require.NoError(t, err)
	require.Equal(t, submit.BridgeAndCall, result.Strategy)

	compressed := bindings.CdCompress(callData)
	l2Data, err := bindings.PackL2BridgeAndCall(account, value, recipient, compressed)
	require.NoError(t, err)
	aliasedBridge := aliasing.AliasAddress(etherBridge)

	// The pre-flight runs as the aliased bridge with an unbounded balance.
	require.Len(t, f.l2.TraceCalls, 1)
	trace := f.l2.TraceCalls[0]
	require.Equal(t, aliasedBridge, trace.Msg.From)
	require.Equal(t, weth, *trace.Msg.To)
	require.Equal(t, uint64(50_000_000), trace.Msg.Gas)
	require.Equal(t, l2Data, trace.Msg.Data)
	require.Equal(t, mint.MaxBalance, trace.Override[aliasedBridge].Balance.ToInt())
	require.Empty(t, f.l2.EstimateCalls)

	l1Data, err := bindings.PackL1BridgeAndCall(account, recipient, compressed, big.NewInt(50_000_000))
	require.NoError(t, err)
	require.Len(t, f.l1.EstimateCalls, 1)
	require.Equal(t, l1Data, f.l1.EstimateCalls[0].Data)
	require.Equal(t, value, f.l1.EstimateCalls[0].Value)

	require.Empty(t, f.signer.Sent)
	require.Len(t, f.signer.Written, 1)
	written := f.signer.Written[0]
	require.Equal(t, etherBridge, written.Address)
	require.Equal(t, bindings.BridgeAndCallMethodName, written.Method)
	require.Equal(t, value, written.Value)
	require.Equal(t, uint64(110_000), written.Gas)
	require.Equal(t, big.NewInt(30_000_000_000), written.MaxFeePerGas)
	packed, err := written.ABI.Pack(written.Method, written.Args...)
	require.NoError(t, err)
	require.Equal(t, l1Data, packed)

	inbox, err := envelope.EncodeInbox(&envelope.InboxTx{
		ChainID:  facet.MainnetChainID,
		To:       &weth,
		GasLimit: 50_000_000,
		Data:     l2Data,
	})
	require.NoError(t, err)
	// The bridge charges 8 per envelope byte whatever the regime.
	wantMint := big.NewInt(int64(len(inbox)) * 8 * 7)
	require.Equal(t, wantMint, result.Accounting.MintAmount)
	require.NotEqual(t, new(big.Int).Mul(floorCost(t, inbox), big.NewInt(7)), wantMint)
	wantHash, err := identity.FacetTransactionHash(result.L1TransactionHash, envelope.DepositTx{
		From:     aliasedBridge,
		To:       &weth,
		Mint:     wantMint,
		Value:    big.NewInt(0),
		GasLimit: 50_000_000,
		Data:     l2Data,
	})
	require.NoError(t, err)
	require.Equal(t, wantHash, result.FacetTransactionHash)
}

func TestDispatch(t *testing.T) {
	tests := []struct {
		value    int64
		strategy submit.Strategy
	}{
		{value: 0, strategy: submit.Direct},
		{value: 50, strategy: submit.BuddyFactory},
		{value: 150, strategy: submit.BridgeAndCall},
	}
	for _, test := range tests {
		t.Run(test.strategy.String(), func(t *testing.T) {
			f := setup(t, allContracts())
			f.l2.TokenBalances = map[common.Address]*big.Int{account: big.NewInt(100)}

			result, err := f.submitter.Dispatch(context.Background(), &facet.TransactionParams{
				To:    &recipient,
				Data:  callData,
				Value: big.NewInt(test.value),
			})
			require.NoError(t, err)
			require.Equal(t, test.strategy, result.Strategy)

			switch test.strategy {
			case submit.Direct:
				require.Len(t, f.signer.Sent, 1)
				require.Equal(t, &recipient, result.Deposit.To)
			case submit.BuddyFactory:
				require.Len(t, f.signer.Sent, 1)
				inbox, err := envelope.DecodeInbox(f.signer.Sent[0].Data)
				require.NoError(t, err)
				require.Equal(t, buddyFactory, *inbox.To)
				require.Zero(t, inbox.Value.Sign())
				want, err := bindings.PackCallBuddyForUser(big.NewInt(50), recipient, callData)
				require.NoError(t, err)
				require.Equal(t, want, inbox.Data)
				require.Equal(t, account, result.Deposit.From)
			case submit.BridgeAndCall:
				require.Len(t, f.signer.Written, 1)
				require.Equal(t, aliasing.AliasAddress(etherBridge), result.Deposit.From)
			}
		})
	}
}

func TestMissingContractAddresses(t *testing.T) {
	f := setup(t, facet.ContractAddresses{})

	_, err := f.submitter.Dispatch(context.Background(), &facet.TransactionParams{To: &recipient, Value: big.NewInt(1)})
	require.ErrorIs(t, err, facet.ErrContractAddressesUnavailable)
	_, err = f.submitter.SubmitBuddy(context.Background(), &facet.TransactionParams{To: &recipient}, big.NewInt(1))
	require.ErrorIs(t, err, facet.ErrContractAddressesUnavailable)
	_, err = f.submitter.SubmitBridgeAndCall(context.Background(), &facet.TransactionParams{To: &recipient}, big.NewInt(1))
	require.ErrorIs(t, err, facet.ErrContractAddressesUnavailable)
	require.Zero(t, f.signer.Sends())
}

func TestWriteContract(t *testing.T) {
	f := setup(t, allContracts())
	erc20, err := abi.JSON(strings.NewReader(`[{"inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"name":"transfer","outputs":[{"name":"","type":"bool"}],"stateMutability":"nonpayable","type":"function"}]`))
	require.NoError(t, err)

	result, err := f.submitter.WriteContract(context.Background(), &submit.WriteParams{
		To:     recipient,
		ABI:    &erc20,
		Method: "transfer",
		Args:   []any{account, big.NewInt(5)},
	})
	require.NoError(t, err)
	require.Equal(t, submit.Direct, result.Strategy)

	want, err := erc20.Pack("transfer", account, big.NewInt(5))
	require.NoError(t, err)
	require.Equal(t, want, result.Deposit.Data)
}

func TestNewValidatesSigner(t *testing.T) {
	network, err := facet.NetworkForL1(facet.L1MainnetChainID)
	require.NoError(t, err)
	newSubmitter := func(s *testutils.Signer) error {
		_, err := submit.New(submit.DefaultConfig(), network, &testutils.L1{}, &testutils.L2{}, s, metrics.NewNoopSubmitMetrics(), testutils.NewLogger(t))
		return err
	}

	require.ErrorIs(t, newSubmitter(&testutils.Signer{L1ChainID: big.NewInt(1)}), facet.ErrNoAccount)
	require.ErrorIs(t, newSubmitter(&testutils.Signer{Account: account, L1ChainID: big.NewInt(11_155_111)}), facet.ErrInvalidChain)

	_, err = submit.New(submit.DefaultConfig(), network, &testutils.L1{}, &testutils.L2{}, nil, metrics.NewNoopSubmitMetrics(), testutils.NewLogger(t))
	require.ErrorIs(t, err, facet.ErrNotConnected)

	cfg := submit.DefaultConfig()
	cfg.GasMultiplier = 0.5
	_, err = submit.New(cfg, network, &testutils.L1{}, &testutils.L2{}, &testutils.Signer{Account: account, L1ChainID: big.NewInt(1)}, metrics.NewNoopSubmitMetrics(), testutils.NewLogger(t))
	require.Error(t, err)
}

func TestStageCanAdvance(t *testing.T) {
	require.True(t, submit.NotSubmitted.CanAdvance(submit.Simulated))
	require.True(t, submit.Simulated.CanAdvance(submit.L1Submitted))
	require.True(t, submit.L1Submitted.CanAdvance(submit.L2Pending))
	require.True(t, submit.L2Pending.CanAdvance(submit.L2Confirmed))
	require.True(t, submit.L2Pending.CanAdvance(submit.L2Failed))

	require.False(t, submit.NotSubmitted.CanAdvance(submit.L1Submitted))
	require.False(t, submit.L1Submitted.CanAdvance(submit.L2Confirmed))
	require.False(t, submit.L2Confirmed.CanAdvance(submit.L2Failed))
	require.False(t, submit.L2Failed.CanAdvance(submit.L2Pending))
}
