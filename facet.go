package facet

import (
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

type ChainID uint64

func (id ChainID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

func (id ChainID) HexBig() *hexutil.Big {
	return (*hexutil.Big)(id.Big())
}

func (id ChainID) Big() *big.Int {
	return new(big.Int).SetUint64(uint64(id))
}

// TransactionParams is the caller's intent for a single L2 transaction.
// A nil To means contract creation. A nil Value is treated as zero.
type TransactionParams struct {
	To    *common.Address
	Data  []byte
	Value *big.Int
	// ExtraData is appended to the inbox envelope to raise its cost, and hence the mint.
	// It is never executed.
	ExtraData []byte
}

// ValueOrZero returns the requested value, or zero if none was set.
func (p *TransactionParams) ValueOrZero() *big.Int {
	if p.Value == nil {
		return new(big.Int)
	}
	return p.Value
}

// ToOrZero returns the recipient, or the zero address for contract creation.
func (p *TransactionParams) ToOrZero() common.Address {
	if p.To == nil {
		return common.Address{}
	}
	return *p.To
}
