package submit

import (
	"fmt"
	"math/big"
)

// Strategy is how a transaction gets its value onto L2. It is chosen per transaction.
type Strategy uint8

const (
	// Direct encodes the caller's call as is. It carries no value.
	Direct Strategy = iota + 1
	// BuddyFactory routes the call through the caller's proxy, which spends existing L2 balance.
	BuddyFactory
	// BridgeAndCall bridges the value in from L1 and makes the call in the same L2 transaction.
	BridgeAndCall
)

func (s Strategy) String() string {
	switch s {
	case Direct:
		return "direct"
	case BuddyFactory:
		return "buddy_factory"
	case BridgeAndCall:
		return "bridge_and_call"
	default:
		return fmt.Sprintf("Strategy(%d)", uint8(s))
	}
}

// SelectStrategy picks the strategy for sending value given the account's L2 balance.
func SelectStrategy(value, balance *big.Int) Strategy {
	switch {
	case value == nil || value.Sign() == 0:
		return Direct
	case balance != nil && value.Cmp(balance) <= 0:
		return BuddyFactory
	default:
		return BridgeAndCall
	}
}
