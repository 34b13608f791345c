package tracker

import (
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
)

// Status is one of Pending, Success, or Failure. Consumers switch on the concrete type.
// Success and Failure are terminal.
type Status interface {
	TransactionHash() common.Hash
	Terminal() bool
	String() string
	isStatus()
}

type Pending struct {
	TxHash      common.Hash
	ExplorerURL string
}

type Success struct {
	TxHash      common.Hash
	ExplorerURL string
	Receipt     *ethtypes.Receipt
}

type Failure struct {
	TxHash      common.Hash
	ExplorerURL string
	Err         error
}

var (
	_ Status = Pending{}
	_ Status = Success{}
	_ Status = Failure{}
)

func (s Pending) TransactionHash() common.Hash { return s.TxHash }
func (s Success) TransactionHash() common.Hash { return s.TxHash }
func (s Failure) TransactionHash() common.Hash { return s.TxHash }

func (Pending) Terminal() bool { return false }
func (Success) Terminal() bool { return true }
func (Failure) Terminal() bool { return true }

func (Pending) String() string { return "pending" }
func (Success) String() string { return "success" }
func (Failure) String() string { return "failure" }

func (Pending) isStatus() {}
func (Success) isStatus() {}
func (Failure) isStatus() {}
