// Package identity derives the hash of an L2 facet transaction before it exists.
//
// Any observer who knows the L1 transaction hash and the caller's parameters can recompute it
// without querying L2, which is how L1 and L2 transactions are correlated.
package identity

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/polymerdao/facet/envelope"
)

// userDepositDomain is the source-hash domain separator of user-triggered deposits.
var userDepositDomain = common.Hash{}

// SourceHash returns keccak256(pad32(0) ‖ keccak256(l1TxHash)).
func SourceHash(l1TxHash common.Hash) common.Hash {
	return crypto.Keccak256Hash(userDepositDomain.Bytes(), crypto.Keccak256(l1TxHash.Bytes()))
}

// TransactionHash returns keccak256 of the deposit envelope.
func TransactionHash(tx *envelope.DepositTx) (common.Hash, error) {
	encoded, err := envelope.EncodeDeposit(tx)
	if err != nil {
		return common.Hash{}, err
	}
	return crypto.Keccak256Hash(encoded), nil
}

// FacetTransactionHash binds tx to the L1 transaction that carries it. tx.SourceHash is ignored.
func FacetTransactionHash(l1TxHash common.Hash, tx envelope.DepositTx) (common.Hash, error) {
	tx.SourceHash = SourceHash(l1TxHash)
	return TransactionHash(&tx)
}
