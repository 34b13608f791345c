// Package signer sends L1 transactions on behalf of a single account.
package signer

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	hdwallet "github.com/ethereum-optimism/go-ethereum-hdwallet"
	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/polymerdao/facet"
)

// DefaultDerivationPath is the first account of the standard Ethereum BIP-44 path.
const DefaultDerivationPath = "m/44'/60'/0'/0/0"

// Transaction is a plain L1 transaction. A zero Gas lets the signer pick the limit and a nil
// MaxFeePerGas lets it pick the fee cap.
type Transaction struct {
	To           common.Address
	Value        *big.Int
	Data         []byte
	Gas          uint64
	MaxFeePerGas *big.Int
}

// ContractCall is a state-changing call on an L1 contract. Gas and MaxFeePerGas behave as on
// Transaction.
type ContractCall struct {
	Address      common.Address
	ABI          *abi.ABI
	Method       string
	Args         []any
	Value        *big.Int
	Gas          uint64
	MaxFeePerGas *big.Int
}

// Signer is the signing capability bound to one L1 account.
type Signer interface {
	Address() common.Address
	ChainID() *big.Int
	// SupportsAccurateGasEstimation reports whether gas limits estimated by the caller should be
	// used. When false, callers pass a zero gas limit and the signer applies its own default.
	SupportsAccurateGasEstimation() bool
	SendTransaction(ctx context.Context, tx *Transaction) (common.Hash, error)
	WriteContract(ctx context.Context, call *ContractCall) (common.Hash, error)
}

// KeyedSigner signs with an in-memory private key and sends through a contract backend.
type KeyedSigner struct {
	key         *ecdsa.PrivateKey
	address     common.Address
	chainID     *big.Int
	backend     bind.ContractBackend
	accurateGas bool
}

var _ Signer = (*KeyedSigner)(nil)

func New(key *ecdsa.PrivateKey, chainID *big.Int, backend bind.ContractBackend) *KeyedSigner {
	return &KeyedSigner{
		key:         key,
		address:     crypto.PubkeyToAddress(key.PublicKey),
		chainID:     chainID,
		backend:     backend,
		accurateGas: true,
	}
}

// FromHexKey parses a hex private key, with or without the 0x prefix.
func FromHexKey(hexKey string, chainID *big.Int, backend bind.ContractBackend) (*KeyedSigner, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return nil, facet.WrapError(facet.ErrNoAccount, "parse private key: %v", err)
	}
	return New(key, chainID, backend), nil
}

// FromMnemonic derives the key at path from a BIP-39 mnemonic.
func FromMnemonic(mnemonic, path string, chainID *big.Int, backend bind.ContractBackend) (*KeyedSigner, error) {
	wallet, err := hdwallet.NewFromMnemonic(mnemonic)
	if err != nil {
		return nil, facet.WrapError(facet.ErrNoAccount, "new wallet from mnemonic: %v", err)
	}
	key, err := wallet.PrivateKey(accounts.Account{URL: accounts.URL{Path: path}})
	if err != nil {
		return nil, facet.WrapError(facet.ErrNoAccount, "derive %s: %v", path, err)
	}
	return New(key, chainID, backend), nil
}

// WithGasEstimation sets the value reported by SupportsAccurateGasEstimation.
func (s *KeyedSigner) WithGasEstimation(accurate bool) *KeyedSigner {
	s.accurateGas = accurate
	return s
}

func (s *KeyedSigner) Address() common.Address {
	return s.address
}

func (s *KeyedSigner) ChainID() *big.Int {
	return s.chainID
}

func (s *KeyedSigner) SupportsAccurateGasEstimation() bool {
	return s.accurateGas
}

func (s *KeyedSigner) SendTransaction(ctx context.Context, tx *Transaction) (common.Hash, error) {
	gas := tx.Gas
	// The contract binding refuses to estimate calls to addresses without code, which includes the inbox.
	if gas == 0 {
		var err error
		gas, err = s.backend.EstimateGas(ctx, ethereum.CallMsg{
			From:  s.address,
			To:    &tx.To,
			Value: tx.Value,
			Data:  tx.Data,
		})
		if err != nil {
			return common.Hash{}, facet.WrapError(facet.ErrGasEstimationFailed, "estimate l1 gas: %v", err)
		}
	}
	opts, err := s.transactOpts(ctx, tx.Value, gas, tx.MaxFeePerGas)
	if err != nil {
		return common.Hash{}, err
	}
	sent, err := bind.NewBoundContract(tx.To, abi.ABI{}, s.backend, s.backend, s.backend).RawTransact(opts, tx.Data)
	if err != nil {
		return common.Hash{}, fmt.Errorf("send transaction: %v", err)
	}
	return sent.Hash(), nil
}

func (s *KeyedSigner) WriteContract(ctx context.Context, call *ContractCall) (common.Hash, error) {
	opts, err := s.transactOpts(ctx, call.Value, call.Gas, call.MaxFeePerGas)
	if err != nil {
		return common.Hash{}, err
	}
	contract := bind.NewBoundContract(call.Address, *call.ABI, s.backend, s.backend, s.backend)
	tx, err := contract.Transact(opts, call.Method, call.Args...)
	if err != nil {
		return common.Hash{}, fmt.Errorf("transact %s: %v", call.Method, err)
	}
	return tx.Hash(), nil
}

func (s *KeyedSigner) transactOpts(ctx context.Context, value *big.Int, gas uint64, maxFee *big.Int) (*bind.TransactOpts, error) {
	opts, err := bind.NewKeyedTransactorWithChainID(s.key, s.chainID)
	if err != nil {
		return nil, fmt.Errorf("create transact opts: %v", err)
	}
	opts.Context = ctx
	opts.Value = value
	opts.GasLimit = gas
	opts.GasFeeCap = maxFee
	return opts, nil
}
