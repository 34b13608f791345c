package submit

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/polymerdao/facet"
	"github.com/polymerdao/facet/envelope"
	"github.com/polymerdao/facet/gascost"
	"github.com/polymerdao/facet/identity"
	"github.com/polymerdao/facet/mint"
)

type L1Reader interface {
	TransactionByHash(ctx context.Context, hash common.Hash) (*ethtypes.Transaction, error)
	TransactionSender(ctx context.Context, tx *ethtypes.Transaction) (common.Address, error)
}

// Resolver recomputes the facet transaction hash of an inbox transaction already on L1.
type Resolver struct {
	l1         L1Reader
	accountant *gascost.Accountant
}

func NewResolver(l1 L1Reader, accountant *gascost.Accountant) *Resolver {
	return &Resolver{
		l1:         l1,
		accountant: accountant,
	}
}

// Resolution is a decoded inbox transaction and the L2 transaction it produces.
type Resolution struct {
	Inbox                *envelope.InboxTx
	Deposit              *envelope.DepositTx
	Accounting           mint.Accounting
	FacetTransactionHash common.Hash
}

// FacetHashFromL1Hash fetches the L1 transaction, checks that it targets the inbox, and derives
// the facet transaction hash with the mint priced at mintRate. The mint rate must be the one in
// force when the transaction was included.
func (r *Resolver) FacetHashFromL1Hash(ctx context.Context, l1Hash common.Hash, mintRate *big.Int) (*Resolution, error) {
	tx, err := r.l1.TransactionByHash(ctx, l1Hash)
	if err != nil {
		return nil, fmt.Errorf("get l1 transaction %s: %v", l1Hash, err)
	}
	if tx.To() == nil || *tx.To() != facet.InboxAddress {
		return nil, facet.WrapError(facet.ErrNotInboxTransaction, "%s is sent to %v", l1Hash, tx.To())
	}
	inbox, err := envelope.DecodeInbox(tx.Data())
	if err != nil {
		return nil, err
	}
	sender, err := r.l1.TransactionSender(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("recover sender of %s: %v", l1Hash, err)
	}

	accounting := mint.NewAccounting(r.accountant.Cost(tx.Data()), mintRate)
	deposit := &envelope.DepositTx{
		SourceHash: identity.SourceHash(l1Hash),
		From:       sender,
		To:         inbox.To,
		Mint:       accounting.MintAmount,
		Value:      inbox.Value,
		GasLimit:   inbox.GasLimit,
		Data:       inbox.Data,
	}
	hash, err := identity.TransactionHash(deposit)
	if err != nil {
		return nil, err
	}
	return &Resolution{
		Inbox:                inbox,
		Deposit:              deposit,
		Accounting:           accounting,
		FacetTransactionHash: hash,
	}, nil
}
