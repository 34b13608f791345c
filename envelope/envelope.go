// Package envelope builds the two binary encodings of a facet transaction.
//
// The inbox envelope is the calldata an L1 transaction carries to the inbox address. The deposit
// envelope is never transmitted; it is the preimage of the L2 transaction hash.
package envelope

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/polymerdao/facet"
)

const (
	// InboxTxType prefixes the inbox envelope.
	InboxTxType byte = 0x46
	// DepositTxType prefixes the deposit envelope. It matches the OP-stack deposit transaction type.
	DepositTxType byte = 0x7e
)

// InboxTx is the payload of an L1 transaction to the inbox.
// ExtraData only inflates the encoded size, and with it the mint amount. It never reaches L2 execution.
type InboxTx struct {
	ChainID   facet.ChainID
	To        *common.Address `rlp:"nil"`
	Value     *big.Int
	GasLimit  uint64
	Data      []byte
	ExtraData []byte `rlp:"optional"`
}

// DepositTx is the L2 view of an inbox transaction.
type DepositTx struct {
	SourceHash common.Hash
	From       common.Address
	// To is nil for contract creation.
	To       *common.Address
	Mint     *big.Int
	Value    *big.Int
	GasLimit uint64
	Data     []byte
}

// EncodeInbox returns 0x46 ‖ RLP([chainId, to, value, gasLimit, data, extraData]).
// Numeric zero and a nil recipient both encode as the empty string. extraData is always present.
func EncodeInbox(tx *InboxTx) ([]byte, error) {
	payload, err := rlp.EncodeToBytes([]any{
		uint64(tx.ChainID),
		addressBytes(tx.To),
		bigOrZero(tx.Value),
		tx.GasLimit,
		nonNil(tx.Data),
		nonNil(tx.ExtraData),
	})
	if err != nil {
		return nil, fmt.Errorf("rlp encode inbox tx: %v", err)
	}
	return append([]byte{InboxTxType}, payload...), nil
}

// DecodeInbox is the inverse of EncodeInbox. A missing extraData field decodes as empty.
func DecodeInbox(b []byte) (*InboxTx, error) {
	if len(b) == 0 || b[0] != InboxTxType {
		return nil, facet.WrapError(facet.ErrInvalidEnvelope, "missing 0x%x type prefix", InboxTxType)
	}
	var tx InboxTx
	if err := rlp.DecodeBytes(b[1:], &tx); err != nil {
		return nil, facet.WrapError(facet.ErrInvalidEnvelope, "rlp decode: %v", err)
	}
	if tx.Value == nil {
		tx.Value = new(big.Int)
	}
	if tx.Data == nil {
		tx.Data = []byte{}
	}
	if tx.ExtraData == nil {
		tx.ExtraData = []byte{}
	}
	return &tx, nil
}

// EncodeDeposit returns 0x7e ‖ RLP([sourceHash, from, to, mint, value, gasLimit, "", data]).
// The empty field is the system-transaction flag, always false for facet transactions.
func EncodeDeposit(tx *DepositTx) ([]byte, error) {
	payload, err := rlp.EncodeToBytes([]any{
		tx.SourceHash,
		tx.From,
		addressBytes(tx.To),
		bigOrZero(tx.Mint),
		bigOrZero(tx.Value),
		tx.GasLimit,
		false,
		nonNil(tx.Data),
	})
	if err != nil {
		return nil, fmt.Errorf("rlp encode deposit tx: %v", err)
	}
	return append([]byte{DepositTxType}, payload...), nil
}

func addressBytes(addr *common.Address) []byte {
	if addr == nil {
		return []byte{}
	}
	return addr.Bytes()
}

func bigOrZero(x *big.Int) *big.Int {
	if x == nil {
		return new(big.Int)
	}
	return x
}

func nonNil(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}
